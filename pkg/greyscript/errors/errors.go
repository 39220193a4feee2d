// Package errors provides structured error types for the GreyScript parser.
//
// This package defines ParserError, a unified error type used by both the
// lexer and the parser, carrying a message, a source range, and enough
// metadata for display and programmatic handling by editor tooling.
package errors

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"text/template"
)

// ErrorClass categorizes errors for filtering.
type ErrorClass string

const (
	ClassLex   ErrorClass = "lex"   // Tokenizer errors
	ClassParse ErrorClass = "parse" // Parser/syntax errors
)

// ParserError represents any error produced while tokenizing or parsing.
type ParserError struct {
	Class     ErrorClass     `json:"class"`          // Error category
	Code      string         `json:"code"`           // Error code (e.g., "PARSE-0001")
	Message   string         `json:"message"`        // Human-readable message
	Line      int            `json:"line"`           // 1-based start line (0 if unknown)
	Column    int            `json:"column"`         // 1-based start column (0 if unknown)
	EndLine   int            `json:"endLine"`        // 1-based end line (0 if unknown)
	EndColumn int            `json:"endColumn"`      // 1-based end column (0 if unknown)
	Data      map[string]any `json:"data,omitempty"` // Template variables
}

// Error implements the error interface.
func (e *ParserError) Error() string {
	return e.String()
}

// String renders the error as "<message> at <line>:<column> - <line>:<column>".
func (e *ParserError) String() string {
	var sb strings.Builder

	sb.WriteString(e.Message)

	if e.Line > 0 {
		endLine, endColumn := e.EndLine, e.EndColumn
		if endLine == 0 {
			endLine, endColumn = e.Line, e.Column
		}
		sb.WriteString(fmt.Sprintf(" at %d:%d - %d:%d", e.Line, e.Column, endLine, endColumn))
	}

	return sb.String()
}

// ToJSON returns the error as JSON bytes.
func (e *ParserError) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// WithRange returns a copy of the error with the full source range set.
func (e *ParserError) WithRange(line, column, endLine, endColumn int) *ParserError {
	copy := *e
	copy.Line = line
	copy.Column = column
	copy.EndLine = endLine
	copy.EndColumn = endColumn
	return &copy
}

// IsLexError returns true if this error came from the tokenizer.
func (e *ParserError) IsLexError() bool {
	return e.Class == ClassLex
}

// ErrorDef defines an error in the catalog.
type ErrorDef struct {
	Class    ErrorClass // Error category
	Template string     // Message template with {{.placeholders}}
}

// ErrorCatalog maps error codes to their definitions.
var ErrorCatalog = map[string]ErrorDef{
	// ========================================
	// Lex errors (LEX-0xxx)
	// ========================================
	"LEX-0001": {
		Class:    ClassLex,
		Template: "invalid character {{.Character}}",
	},
	"LEX-0002": {
		Class:    ClassLex,
		Template: "unterminated string",
	},

	// ========================================
	// Parse errors (PARSE-0xxx)
	// ========================================
	"PARSE-0001": {
		Class:    ClassParse,
		Template: "unexpected token {{.Got}}, expected {{.Expected}}",
	},
	"PARSE-0002": {
		Class:    ClassParse,
		Template: "unexpected end of file{{if .Context}} in {{.Context}}{{end}}",
	},
	"PARSE-0003": {
		Class:    ClassParse,
		Template: "import path must be a hardcoded string literal",
	},
	"PARSE-0004": {
		Class:    ClassParse,
		Template: "unexpected end of if statement",
	},
	"PARSE-0005": {
		Class:    ClassParse,
		Template: "call arguments cannot start on a new line",
	},
}

// Error code constants, so call sites don't carry bare strings around.
const (
	CodeInvalidCharacter           = "LEX-0001"
	CodeUnterminatedString         = "LEX-0002"
	CodeUnexpectedToken            = "PARSE-0001"
	CodeUnexpectedEOF              = "PARSE-0002"
	CodeMalformedImportCode        = "PARSE-0003"
	CodeUnbalancedIfShortcut       = "PARSE-0004"
	CodeInvalidCallArgsAcrossLines = "PARSE-0005"
)

// New creates a ParserError from a catalog code, rendering the message
// template with the given data. Unknown codes produce a generic error rather
// than panicking, so a bad call site still yields a usable diagnostic.
func New(code string, data map[string]any) *ParserError {
	def, ok := ErrorCatalog[code]
	if !ok {
		return &ParserError{
			Class:   ClassParse,
			Code:    code,
			Message: fmt.Sprintf("unknown error %s", code),
			Data:    data,
		}
	}

	return &ParserError{
		Class:   def.Class,
		Code:    code,
		Message: renderTemplate(def.Template, data),
		Data:    data,
	}
}

// NewWithPosition creates a catalog error with a start position.
func NewWithPosition(code string, line, column int, data map[string]any) *ParserError {
	err := New(code, data)
	err.Line = line
	err.Column = column
	return err
}

// renderTemplate renders a message template with the given data.
func renderTemplate(tmpl string, data map[string]any) string {
	t, err := template.New("error").Parse(tmpl)
	if err != nil {
		return tmpl
	}

	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return tmpl
	}

	return buf.String()
}
