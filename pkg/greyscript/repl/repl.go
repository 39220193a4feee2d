// Package repl provides an interactive token and syntax-tree explorer for
// GreyScript source, with line editing, history, and tab completion.
package repl

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"

	"github.com/ayecue/greyscript-core/pkg/greyscript/dialect"
	perrors "github.com/ayecue/greyscript-core/pkg/greyscript/errors"
	"github.com/ayecue/greyscript-core/pkg/greyscript/lexer"
	"github.com/ayecue/greyscript-core/pkg/greyscript/parser"
)

const PROMPT = ">> "
const CONTINUATION_PROMPT = ".. "

// Start starts the REPL. Each submitted snippet is parsed and its statements
// are echoed back; a snippet ending in an unexpected end-of-file keeps the
// session in continuation mode so blocks can span lines.
func Start(out io.Writer, version string) {
	line := liner.NewLiner()
	defer line.Close()

	line.SetCtrlCAborts(true)

	d := dialect.Default()
	completionWords := append(d.Keywords(), d.Natives()...)
	line.SetCompleter(func(input string) []string {
		var completions []string
		words := strings.Fields(input)
		if len(words) == 0 {
			return completions
		}
		last := words[len(words)-1]
		prefix := input[:len(input)-len(last)]
		for _, word := range completionWords {
			if strings.HasPrefix(word, last) {
				completions = append(completions, prefix+word)
			}
		}
		return completions
	})

	historyFile := filepath.Join(os.TempDir(), ".greyscript_history")
	if f, err := os.Open(historyFile); err == nil {
		line.ReadHistory(f)
		f.Close()
	}
	defer func() {
		if f, err := os.Create(historyFile); err == nil {
			line.WriteHistory(f)
			f.Close()
		}
	}()

	fmt.Fprintf(out, "greyscript %s (:tokens <code> to tokenize, :quit to exit)\n", version)

	var pending string
	for {
		prompt := PROMPT
		if pending != "" {
			prompt = CONTINUATION_PROMPT
		}

		input, err := line.Prompt(prompt)
		if err == liner.ErrPromptAborted {
			pending = ""
			continue
		}
		if err != nil {
			fmt.Fprintln(out)
			return
		}

		trimmed := strings.TrimSpace(input)
		switch {
		case pending == "" && (trimmed == ":quit" || trimmed == ":q"):
			return
		case pending == "" && strings.HasPrefix(trimmed, ":tokens "):
			line.AppendHistory(input)
			printTokens(out, strings.TrimPrefix(trimmed, ":tokens "))
			continue
		case pending == "" && trimmed == "":
			continue
		}

		line.AppendHistory(input)

		source := pending + input
		if needsContinuation(source) {
			pending = source + "\n"
			continue
		}
		pending = ""

		printChunk(out, source)
	}
}

// needsContinuation reports whether the source ends mid-block, so the REPL
// should keep reading lines.
func needsContinuation(source string) bool {
	p := parser.New(source)
	if _, err := p.ParseChunk(); err != nil {
		if perr, ok := err.(*perrors.ParserError); ok {
			return perr.Code == perrors.CodeUnexpectedEOF ||
				perr.Code == perrors.CodeUnbalancedIfShortcut
		}
	}
	return false
}

// printChunk parses the source in unsafe mode and prints the resulting
// statements and diagnostics.
func printChunk(out io.Writer, source string) {
	p := parser.NewWithOptions(source, parser.Options{Unsafe: true})
	chunk, _ := p.ParseChunk()

	for _, err := range p.Errors() {
		fmt.Fprintf(out, "error: %s\n", err.String())
	}
	for _, stmt := range chunk.Body {
		fmt.Fprintf(out, "%s: %s\n", stmt.Kind(), stmt.String())
	}
}

// printTokens dumps the raw token stream of a snippet.
func printTokens(out io.Writer, source string) {
	l := lexer.NewWithOptions(source, lexer.Options{Unsafe: true})
	for {
		tok, err := l.NextToken()
		if err != nil {
			fmt.Fprintf(out, "error: %s\n", err.Error())
			return
		}
		fmt.Fprintln(out, tok.String())
		if tok.Type == lexer.EOF {
			break
		}
	}
	for _, err := range l.Errors() {
		fmt.Fprintf(out, "error: %s\n", err.String())
	}
}
