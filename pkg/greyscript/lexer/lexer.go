// Package lexer implements the GreyScript tokenizer: a pull-based scanner
// that yields one token per NextToken call, tracking line numbers,
// tab-expanded columns, and absolute byte offsets.
//
// The lexer has two failure modes. In strict mode (the default) the first
// lexical error is returned alongside an ILLEGAL token. In unsafe mode errors
// are recorded, the remainder of the offending line is discarded, and
// scanning resumes on the next line, so the token stream never halts.
package lexer

import (
	"strings"

	"github.com/ayecue/greyscript-core/pkg/greyscript/dialect"
	perrors "github.com/ayecue/greyscript-core/pkg/greyscript/errors"
)

// Options configures a Lexer.
type Options struct {
	// TabWidth is the number of columns a tab advances. Default 1.
	TabWidth int
	// Unsafe enables error-tolerant scanning: errors are collected via
	// Errors() instead of being returned from NextToken.
	Unsafe bool
	// Keywords is the keyword lookup table. Default is the GreyScript set.
	Keywords dialect.KeywordSet
}

// Lexer scans GreyScript source text
type Lexer struct {
	input string

	ch           byte // current character, 0 means end of input
	position     int  // byte offset of ch
	readPosition int  // byte offset after ch

	line      int // current 1-based line
	lineStart int // byte offset of the current line's first character
	tabShift  int // extra columns accumulated from tabs on the current line

	tabWidth int
	unsafe   bool
	keywords dialect.KeywordSet

	errs []*perrors.ParserError
}

// New creates a lexer with default options.
func New(input string) *Lexer {
	return NewWithOptions(input, Options{})
}

// NewWithOptions creates a lexer with the given options.
func NewWithOptions(input string, opts Options) *Lexer {
	if opts.TabWidth <= 0 {
		opts.TabWidth = 1
	}
	if opts.Keywords == nil {
		opts.Keywords = dialect.Default()
	}

	l := &Lexer{
		input:    input,
		line:     1,
		tabWidth: opts.TabWidth,
		unsafe:   opts.Unsafe,
		keywords: opts.Keywords,
	}
	l.readChar()
	return l
}

// Errors returns the lexical errors collected so far in unsafe mode.
func (l *Lexer) Errors() []*perrors.ParserError {
	return l.errs
}

// readChar advances to the next character. Tabs widen the running column
// shift so later tokens on the line report tab-expanded columns.
func (l *Lexer) readChar() {
	if l.ch == '\t' {
		l.tabShift += l.tabWidth - 1
	}
	if l.readPosition >= len(l.input) {
		l.ch = 0
		l.position = len(l.input)
		return
	}
	l.ch = l.input[l.readPosition]
	l.position = l.readPosition
	l.readPosition++
}

// peekChar returns the next character without advancing position
func (l *Lexer) peekChar() byte {
	if l.readPosition >= len(l.input) {
		return 0
	}
	return l.input[l.readPosition]
}

// peekCharN returns the character n positions ahead without advancing position
func (l *Lexer) peekCharN(n int) byte {
	pos := l.readPosition + n - 1
	if pos >= len(l.input) {
		return 0
	}
	return l.input[pos]
}

// column returns the 1-based tab-expanded column of the given byte offset on
// the current line.
func (l *Lexer) column(offset int) int {
	return offset - l.lineStart + l.tabShift + 1
}

// beginLine resets the line counters after a newline has been consumed.
func (l *Lexer) beginLine() {
	l.line++
	l.lineStart = l.position
	l.tabShift = 0
}

// NextToken scans the input and returns the next token. Once EOF has been
// returned, every further call returns EOF again.
func (l *Lexer) NextToken() (Token, error) {
	afterSpace := l.skipWhitespace()

	start := l.position
	startLine := l.line
	startCol := l.column(start)

	switch {
	case l.ch == 0:
		return Token{
			Type:       EOF,
			Line:       startLine,
			Start:      Position{startLine, startCol},
			End:        Position{startLine, startCol},
			Offset:     start,
			OffsetEnd:  start,
			AfterSpace: afterSpace,
		}, nil

	case l.ch == '\n' || l.ch == '\r':
		return l.scanNewline(afterSpace), nil

	case l.ch == ';':
		l.readChar()
		return l.token(EOL, ";", start, startLine, startCol, afterSpace), nil

	case isLetter(l.ch):
		return l.scanIdentifier(afterSpace), nil

	case isDigit(l.ch) || (l.ch == '.' && isDigit(l.peekChar())):
		return l.scanNumber(afterSpace), nil

	case l.ch == '"':
		return l.scanString(afterSpace)

	default:
		return l.scanPunctuator(afterSpace)
	}
}

// token builds a single-line token ending at the current scan position.
func (l *Lexer) token(tt TokenType, literal string, start, startLine, startCol int, afterSpace bool) Token {
	return Token{
		Type:       tt,
		Literal:    literal,
		Line:       startLine,
		Start:      Position{startLine, startCol},
		End:        Position{startLine, l.column(l.position)},
		Offset:     start,
		OffsetEnd:  l.position,
		AfterSpace: afterSpace,
	}
}

// scanNewline consumes a newline, treating CRLF and LFCR pairs as one.
func (l *Lexer) scanNewline(afterSpace bool) Token {
	start := l.position
	startLine := l.line
	startCol := l.column(start)

	first := l.ch
	l.readChar()
	if (first == '\r' && l.ch == '\n') || (first == '\n' && l.ch == '\r') {
		l.readChar()
	}

	tok := Token{
		Type:       EOL,
		Literal:    "\n",
		Line:       startLine,
		Start:      Position{startLine, startCol},
		End:        Position{startLine, startCol + 1},
		Offset:     start,
		OffsetEnd:  l.position,
		AfterSpace: afterSpace,
	}
	l.beginLine()
	return tok
}

// scanIdentifier reads an identifier and classifies it against the keyword
// table. Two keywords need re-extension of the scan: "end" merges with a
// following identifier when the pair forms a block terminator, and "else"
// peeks three raw characters ahead for " if".
func (l *Lexer) scanIdentifier(afterSpace bool) Token {
	start := l.position
	startLine := l.line
	startCol := l.column(start)

	word := l.readIdentifier()

	if word == "end" {
		if merged, ok := l.extendEndKeyword(word); ok {
			word = merged
		}
	} else if word == "else" && l.ch == ' ' && l.peekChar() == 'i' && l.peekCharN(2) == 'f' {
		l.readChar() // consume ' '
		l.readChar() // consume 'i'
		l.readChar() // consume 'f'
		word = "else if"
	}

	tt := IDENT
	if l.keywords.IsKeyword(word) {
		tt = KEYWORD
	}
	return l.token(tt, word, start, startLine, startCol, afterSpace)
}

// extendEndKeyword tries to merge "end" with the next identifier into a
// compound keyword such as "end if". The scan position is restored when the
// pair is not a recognized keyword.
func (l *Lexer) extendEndKeyword(word string) (string, bool) {
	savedCh := l.ch
	savedPos := l.position
	savedRead := l.readPosition
	savedShift := l.tabShift

	for l.ch == ' ' || l.ch == '\t' {
		l.readChar()
	}
	if isLetter(l.ch) {
		next := l.readIdentifier()
		merged := word + " " + next
		if l.keywords.IsKeyword(merged) {
			return merged, true
		}
	}

	l.ch = savedCh
	l.position = savedPos
	l.readPosition = savedRead
	l.tabShift = savedShift
	return word, false
}

// readIdentifier reads an identifier starting at the current character.
func (l *Lexer) readIdentifier() string {
	start := l.position
	for isLetter(l.ch) || isDigit(l.ch) {
		l.readChar()
	}
	return l.input[start:l.position]
}

// scanNumber reads a numeric literal: decimal digits, an optional fraction,
// and an optional exponent. A leading '.' followed by a digit is a literal
// with an implicit zero integer part.
func (l *Lexer) scanNumber(afterSpace bool) Token {
	start := l.position
	startLine := l.line
	startCol := l.column(start)

	seenDot := false
	if l.ch == '.' {
		seenDot = true
		l.readChar()
	}
	for isDigit(l.ch) {
		l.readChar()
	}
	// A trailing dot ("5.") is part of the number unless it starts a member
	// access or a second dot follows.
	if !seenDot && l.ch == '.' && !isLetter(l.peekChar()) && l.peekChar() != '.' {
		l.readChar()
		for isDigit(l.ch) {
			l.readChar()
		}
	}
	if l.ch == 'e' || l.ch == 'E' {
		next := l.peekChar()
		if isDigit(next) || ((next == '+' || next == '-') && isDigit(l.peekCharN(2))) {
			l.readChar() // consume 'e'
			if l.ch == '+' || l.ch == '-' {
				l.readChar()
			}
			for isDigit(l.ch) {
				l.readChar()
			}
		}
	}

	return l.token(NUMBER, l.input[start:l.position], start, startLine, startCol, afterSpace)
}

// scanString reads a string literal delimited by double quotes. An internal
// "" pair is an escaped quote. Strings cannot span lines.
func (l *Lexer) scanString(afterSpace bool) (Token, error) {
	start := l.position
	startLine := l.line
	startCol := l.column(start)

	var sb strings.Builder
	l.readChar() // consume opening quote

	for {
		switch l.ch {
		case 0, '\n', '\r':
			err := perrors.NewWithPosition(perrors.CodeUnterminatedString, startLine, startCol, nil)
			err.EndLine = l.line
			err.EndColumn = l.column(l.position)
			return l.fail(err, afterSpace)
		case '"':
			if l.peekChar() == '"' {
				sb.WriteByte('"')
				l.readChar()
				l.readChar()
				continue
			}
			l.readChar() // consume closing quote
			return l.token(STRING, sb.String(), start, startLine, startCol, afterSpace), nil
		default:
			sb.WriteByte(l.ch)
			l.readChar()
		}
	}
}

// scanPunctuator reads a 1-3 character operator or delimiter.
func (l *Lexer) scanPunctuator(afterSpace bool) (Token, error) {
	start := l.position
	startLine := l.line
	startCol := l.column(start)

	var literal string
	switch l.ch {
	case '=':
		literal = l.pick("==", "=")
	case '<':
		if l.peekChar() == '=' {
			literal = "<="
		} else if l.peekChar() == '<' {
			literal = "<<"
		} else {
			literal = "<"
		}
	case '>':
		if l.peekChar() == '=' {
			literal = ">="
		} else if l.peekChar() == '>' && l.peekCharN(2) == '>' {
			literal = ">>>"
		} else if l.peekChar() == '>' {
			literal = ">>"
		} else {
			literal = ">"
		}
	case '!':
		if l.peekChar() != '=' {
			return l.invalidCharacter(startLine, startCol, afterSpace)
		}
		literal = "!="
	case '+':
		literal = l.pickAssign("+")
	case '-':
		literal = l.pickAssign("-")
	case '*':
		literal = l.pickAssign("*")
	case '/':
		literal = l.pickAssign("/")
	case '%', '^', '&', '|', '@', ',', '.', '(', ')', '[', ']', '{', '}':
		literal = string(l.ch)
	case ':':
		l.readChar()
		return l.token(SLICE, ":", start, startLine, startCol, afterSpace), nil
	default:
		return l.invalidCharacter(startLine, startCol, afterSpace)
	}

	for range literal {
		l.readChar()
	}
	return l.token(PUNCT, literal, start, startLine, startCol, afterSpace), nil
}

// pick returns two if the next character extends the current one into a
// two-character operator, otherwise one.
func (l *Lexer) pick(two, one string) string {
	if l.peekChar() == two[1] {
		return two
	}
	return one
}

// pickAssign handles the op / op= pairs (+ += etc.).
func (l *Lexer) pickAssign(op string) string {
	if l.peekChar() == '=' {
		return op + "="
	}
	return op
}

// invalidCharacter reports the current character as unrecognized.
func (l *Lexer) invalidCharacter(startLine, startCol int, afterSpace bool) (Token, error) {
	err := perrors.NewWithPosition(perrors.CodeInvalidCharacter, startLine, startCol,
		map[string]any{"Character": "'" + string(l.ch) + "'"})
	err.EndLine = startLine
	err.EndColumn = startCol + 1
	return l.fail(err, afterSpace)
}

// fail applies the failure mode: strict returns the error, unsafe records it,
// discards the remainder of the line, and returns the next valid token.
func (l *Lexer) fail(err *perrors.ParserError, afterSpace bool) (Token, error) {
	if !l.unsafe {
		tok := l.token(ILLEGAL, "", l.position, l.line, l.column(l.position), afterSpace)
		return tok, err
	}

	l.errs = append(l.errs, err)
	l.skipRestOfLine()
	return l.NextToken()
}

// skipRestOfLine discards everything up to and including the next newline.
func (l *Lexer) skipRestOfLine() {
	for l.ch != 0 && l.ch != '\n' && l.ch != '\r' {
		l.readChar()
	}
	if l.ch == 0 {
		return
	}
	first := l.ch
	l.readChar()
	if (first == '\r' && l.ch == '\n') || (first == '\n' && l.ch == '\r') {
		l.readChar()
	}
	l.beginLine()
}

// skipWhitespace skips spaces, tabs, and line comments. Newlines are not
// skipped; they become EOL tokens. Returns true if anything was skipped.
func (l *Lexer) skipWhitespace() bool {
	skipped := false
	for {
		switch {
		case l.ch == ' ' || l.ch == '\t':
			l.readChar()
			skipped = true
		case l.ch == '/' && l.peekChar() == '/':
			for l.ch != 0 && l.ch != '\n' && l.ch != '\r' {
				l.readChar()
			}
			skipped = true
		default:
			return skipped
		}
	}
}

// isLetter reports whether ch can start or continue an identifier.
func isLetter(ch byte) bool {
	return 'a' <= ch && ch <= 'z' || 'A' <= ch && ch <= 'Z' || ch == '_'
}

// isDigit reports whether ch is a decimal digit.
func isDigit(ch byte) bool {
	return '0' <= ch && ch <= '9'
}
