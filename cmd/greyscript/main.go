// Command greyscript parses GreyScript source files and reports diagnostics.
// With no file argument it starts an interactive REPL.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fatih/color"
	"github.com/fsnotify/fsnotify"

	"github.com/ayecue/greyscript-core/pkg/greyscript/dialect"
	"github.com/ayecue/greyscript-core/pkg/greyscript/lexer"
	"github.com/ayecue/greyscript-core/pkg/greyscript/parser"
	"github.com/ayecue/greyscript-core/pkg/greyscript/repl"
)

// Version is set at compile time via -ldflags
var Version = "0.1.0"

var (
	// Display flags
	helpFlag        = flag.Bool("h", false, "Show help message")
	helpLongFlag    = flag.Bool("help", false, "Show help message")
	versionFlag     = flag.Bool("V", false, "Show version information")
	versionLongFlag = flag.Bool("version", false, "Show version information")

	// Parse flags
	evalFlag     = flag.String("e", "", "Parse code string instead of a file")
	tokensFlag   = flag.Bool("tokens", false, "Dump the token stream instead of parsing")
	checkFlag    = flag.Bool("check", false, "Report diagnostics only, no tree output")
	jsonFlag     = flag.Bool("json", false, "Emit diagnostics as JSON")
	unsafeFlag   = flag.Bool("unsafe", false, "Error-tolerant mode: collect all diagnostics")
	tabWidthFlag = flag.Int("tab-width", 1, "Columns per tab for position reporting")
	dialectFlag  = flag.String("dialect", "", "Path to a YAML dialect descriptor")
	watchFlag    = flag.Bool("watch", false, "Re-parse the file whenever it changes")
)

var (
	errColor  = color.New(color.FgRed, color.Bold)
	okColor   = color.New(color.FgGreen)
	infoColor = color.New(color.FgCyan)
)

func main() {
	flag.Usage = printHelp
	flag.Parse()

	if *helpFlag || *helpLongFlag {
		printHelp()
		os.Exit(0)
	}
	if *versionFlag || *versionLongFlag {
		fmt.Printf("greyscript version %s\n", Version)
		os.Exit(0)
	}

	if *evalFlag != "" {
		os.Exit(run("<eval>", *evalFlag))
	}

	if flag.NArg() == 0 {
		repl.Start(os.Stdout, Version)
		return
	}

	path := flag.Arg(0)
	if *watchFlag {
		watch(path)
		return
	}
	os.Exit(runFile(path))
}

// runFile reads and processes one source file.
func runFile(path string) int {
	source, err := os.ReadFile(path)
	if err != nil {
		errColor.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}
	return run(path, string(source))
}

// run tokenizes or parses the source and prints the results. Returns the
// process exit code.
func run(name, source string) int {
	if *tokensFlag {
		return dumpTokens(source)
	}

	opts := parser.Options{
		Unsafe:   *unsafeFlag,
		TabWidth: *tabWidthFlag,
	}
	if *dialectFlag != "" {
		d, err := dialect.Load(*dialectFlag)
		if err != nil {
			errColor.Fprintf(os.Stderr, "error: %v\n", err)
			return 1
		}
		opts.Keywords = d
		opts.Natives = d
		opts.Precedence = d
	}

	p := parser.NewWithOptions(source, opts)
	chunk, err := p.ParseChunk()
	if err != nil {
		printDiagnostic(name, err.Error())
		return 1
	}

	for _, perr := range p.Errors() {
		if *jsonFlag {
			if data, jerr := perr.ToJSON(); jerr == nil {
				fmt.Println(string(data))
				continue
			}
		}
		printDiagnostic(name, perr.String())
	}

	if !*checkFlag {
		for _, stmt := range chunk.Body {
			fmt.Printf("%s: %s\n", stmt.Kind(), stmt.String())
		}
	}

	if len(p.Errors()) > 0 {
		return 1
	}
	okColor.Fprintf(os.Stderr, "%s: ok (%d statements, %d scopes)\n",
		name, len(chunk.Body), len(chunk.Scopes))
	return 0
}

// dumpTokens prints the raw token stream.
func dumpTokens(source string) int {
	l := lexer.NewWithOptions(source, lexer.Options{
		TabWidth: *tabWidthFlag,
		Unsafe:   *unsafeFlag,
	})
	for {
		tok, err := l.NextToken()
		if err != nil {
			errColor.Fprintf(os.Stderr, "error: %s\n", err.Error())
			return 1
		}
		fmt.Println(tok.String())
		if tok.Type == lexer.EOF {
			break
		}
	}
	for _, lerr := range l.Errors() {
		printDiagnostic("<tokens>", lerr.String())
	}
	if len(l.Errors()) > 0 {
		return 1
	}
	return 0
}

// printDiagnostic writes one colorized diagnostic line to stderr.
func printDiagnostic(name, message string) {
	errColor.Fprint(os.Stderr, "error")
	fmt.Fprintf(os.Stderr, ": %s: %s\n", name, message)
}

// watch re-parses the file whenever it is written, debouncing rapid saves.
func watch(path string) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		errColor.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	defer watcher.Close()

	// Watch the directory: editors often replace the file on save, which
	// drops a watch on the file itself.
	dir := filepath.Dir(path)
	if err := watcher.Add(dir); err != nil {
		errColor.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	infoColor.Fprintf(os.Stderr, "watching %s\n", path)
	runFile(path)

	const debounce = 100 * time.Millisecond
	var lastChange time.Time

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if filepath.Base(event.Name) != filepath.Base(path) {
				continue
			}
			if time.Since(lastChange) < debounce {
				continue
			}
			lastChange = time.Now()

			infoColor.Fprintf(os.Stderr, "changed: %s\n", path)
			runFile(path)

		case werr, ok := <-watcher.Errors:
			if !ok {
				return
			}
			errColor.Fprintf(os.Stderr, "watcher error: %v\n", werr)
		}
	}
}

func printHelp() {
	fmt.Println("greyscript - GreyScript parser and syntax checker")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  greyscript [flags] [file]")
	fmt.Println()
	fmt.Println("With no file, an interactive REPL is started.")
	fmt.Println()
	fmt.Println("Flags:")
	fmt.Println("  -e <code>        Parse a code string instead of a file")
	fmt.Println("  -tokens          Dump the token stream instead of parsing")
	fmt.Println("  -check           Report diagnostics only, no tree output")
	fmt.Println("  -json            Emit diagnostics as JSON")
	fmt.Println("  -unsafe          Error-tolerant mode: collect all diagnostics")
	fmt.Println("  -tab-width <n>   Columns per tab for position reporting (default 1)")
	fmt.Println("  -dialect <path>  Load a YAML dialect descriptor")
	fmt.Println("  -watch           Re-parse the file whenever it changes")
	fmt.Println("  -h, -help        Show this help message")
	fmt.Println("  -V, -version     Show version information")
}
