package lexer

import "fmt"

// TokenType represents different types of tokens
type TokenType int

const (
	// Special tokens
	ILLEGAL TokenType = iota
	EOF
	EOL // newline or ';', both terminate a statement

	// Identifiers and literals
	IDENT   // router, foobar, x, y, ...
	KEYWORD // if, then, end if, import_code, ...
	NUMBER  // 1343456, 3.14159, .5, 1e3
	STRING  // "foobar"

	// Operators and delimiters
	PUNCT // = == + - ( ) [ ] { } . , @ and friends
	SLICE // ':' in slice bounds and map key/value pairs
)

// String returns a string representation of the token type
func (tt TokenType) String() string {
	switch tt {
	case ILLEGAL:
		return "ILLEGAL"
	case EOF:
		return "EOF"
	case EOL:
		return "EOL"
	case IDENT:
		return "IDENT"
	case KEYWORD:
		return "KEYWORD"
	case NUMBER:
		return "NUMBER"
	case STRING:
		return "STRING"
	case PUNCT:
		return "PUNCT"
	case SLICE:
		return "SLICE"
	default:
		return "UNKNOWN"
	}
}

// Position is a point in the source text. Character is a 1-based,
// tab-width-expanded column, not a raw byte offset.
type Position struct {
	Line      int
	Character int
}

// Before reports whether p comes before other in (line, character) order.
func (p Position) Before(other Position) bool {
	if p.Line != other.Line {
		return p.Line < other.Line
	}
	return p.Character < other.Character
}

// String returns "<line>:<character>".
func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Character)
}

// Token represents a single token. Tokens are immutable values; the lexer
// produces them in strictly increasing (Line, Offset) order.
type Token struct {
	Type       TokenType
	Literal    string
	Line       int
	Start      Position // tab-expanded column range, inclusive start
	End        Position // position one past the last character
	Offset     int      // byte offset of the first byte
	OffsetEnd  int      // byte offset one past the last byte
	AfterSpace bool     // whitespace or comments preceded this token
}

// String returns a string representation of the token
func (t Token) String() string {
	return fmt.Sprintf("{Type: %s, Literal: %q, Line: %d, Column: %d}",
		t.Type.String(), t.Literal, t.Line, t.Start.Character)
}

// Is reports whether the token has the given type and literal.
func (t Token) Is(tt TokenType, literal string) bool {
	return t.Type == tt && t.Literal == literal
}

// IsKeyword reports whether the token is the given keyword.
func (t Token) IsKeyword(name string) bool {
	return t.Type == KEYWORD && t.Literal == name
}

// IsPunct reports whether the token is the given punctuator.
func (t Token) IsPunct(literal string) bool {
	return t.Type == PUNCT && t.Literal == literal
}

// IsEnd reports whether the token terminates a statement or the file.
func (t Token) IsEnd() bool {
	return t.Type == EOL || t.Type == EOF
}
