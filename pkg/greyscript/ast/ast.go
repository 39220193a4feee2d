// Package ast defines the GreyScript syntax tree. Nodes share a common Base
// carrying a kind tag, a source range, and a back-reference to the owning
// scope; Chunk and FunctionDeclaration are the only scope-carrying nodes.
package ast

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/ayecue/greyscript-core/pkg/greyscript/lexer"
)

// Position is a point in the source text, 1-based and tab-expanded.
type Position = lexer.Position

// Kind identifies the concrete type of a node.
type Kind int

const (
	KindChunk Kind = iota
	KindIdentifier
	KindNumberLiteral
	KindStringLiteral
	KindBooleanLiteral
	KindNilLiteral
	KindListLiteral
	KindMapLiteral
	KindBinaryExpression
	KindLogicalExpression
	KindUnaryExpression
	KindMemberExpression
	KindIndexExpression
	KindSliceExpression
	KindCallExpression
	KindParenExpression
	KindFunctionDeclaration
	KindAssignmentStatement
	KindCallStatement
	KindReturnStatement
	KindBreakStatement
	KindContinueStatement
	KindDebuggerStatement
	KindIfStatement
	KindIfShortcutStatement
	KindIfClause
	KindElseifClause
	KindElseClause
	KindWhileStatement
	KindForGenericStatement
	KindImportCodeExpression
	KindInvalidCodeExpression
)

// String returns a string representation of the kind
func (k Kind) String() string {
	switch k {
	case KindChunk:
		return "Chunk"
	case KindIdentifier:
		return "Identifier"
	case KindNumberLiteral:
		return "NumberLiteral"
	case KindStringLiteral:
		return "StringLiteral"
	case KindBooleanLiteral:
		return "BooleanLiteral"
	case KindNilLiteral:
		return "NilLiteral"
	case KindListLiteral:
		return "ListLiteral"
	case KindMapLiteral:
		return "MapLiteral"
	case KindBinaryExpression:
		return "BinaryExpression"
	case KindLogicalExpression:
		return "LogicalExpression"
	case KindUnaryExpression:
		return "UnaryExpression"
	case KindMemberExpression:
		return "MemberExpression"
	case KindIndexExpression:
		return "IndexExpression"
	case KindSliceExpression:
		return "SliceExpression"
	case KindCallExpression:
		return "CallExpression"
	case KindParenExpression:
		return "ParenExpression"
	case KindFunctionDeclaration:
		return "FunctionDeclaration"
	case KindAssignmentStatement:
		return "AssignmentStatement"
	case KindCallStatement:
		return "CallStatement"
	case KindReturnStatement:
		return "ReturnStatement"
	case KindBreakStatement:
		return "BreakStatement"
	case KindContinueStatement:
		return "ContinueStatement"
	case KindDebuggerStatement:
		return "DebuggerStatement"
	case KindIfStatement:
		return "IfStatement"
	case KindIfShortcutStatement:
		return "IfShortcutStatement"
	case KindIfClause:
		return "IfClause"
	case KindElseifClause:
		return "ElseifClause"
	case KindElseClause:
		return "ElseClause"
	case KindWhileStatement:
		return "WhileStatement"
	case KindForGenericStatement:
		return "ForGenericStatement"
	case KindImportCodeExpression:
		return "ImportCodeExpression"
	case KindInvalidCodeExpression:
		return "InvalidCodeExpression"
	default:
		return "Unknown"
	}
}

// Node represents any node in the AST
type Node interface {
	Kind() Kind
	Start() Position
	End() Position
	OwnerScope() ScopeNode
	String() string
}

// ScopeNode is implemented by Chunk and FunctionDeclaration, the two nodes
// that open a lexical scope.
type ScopeNode interface {
	Node
	AddNamespace(name string)
	AddAssignment(stmt Node)
}

// Base carries the fields every node shares. EndPos is fixed once set, with
// one exception: the shortcut-if terminator swap reassigns the end of the two
// if statements involved.
type Base struct {
	NodeKind Kind
	StartPos Position
	EndPos   Position
	Scope    ScopeNode // owning scope, nil on the root chunk
}

func (b *Base) Kind() Kind            { return b.NodeKind }
func (b *Base) Start() Position       { return b.StartPos }
func (b *Base) End() Position         { return b.EndPos }
func (b *Base) OwnerScope() ScopeNode { return b.Scope }

// ScopeData holds the raw material a scope accumulates during parsing:
// user identifiers and assignment statements, in source order.
type ScopeData struct {
	Namespaces  map[string]bool
	Assignments []Node
}

// AddNamespace records an identifier as declared/referenced in this scope.
func (s *ScopeData) AddNamespace(name string) {
	if s.Namespaces == nil {
		s.Namespaces = make(map[string]bool)
	}
	s.Namespaces[name] = true
}

// AddAssignment records an assignment statement produced in this scope.
func (s *ScopeData) AddAssignment(stmt Node) {
	s.Assignments = append(s.Assignments, stmt)
}

// Chunk is the root node of every parse.
type Chunk struct {
	Base
	ScopeData
	Body          []Node
	Literals      []Node                  // every literal, source order
	Scopes        []ScopeNode             // every nested scope, flat
	NativeImports []*ImportCodeExpression // every import_code, source order
	LineIndex     map[int][]Node          // statements by start line
}

func (c *Chunk) String() string {
	var out bytes.Buffer
	for _, stmt := range c.Body {
		out.WriteString(stmt.String())
		out.WriteString("\n")
	}
	return out.String()
}

// Identifier is a bare name reference.
type Identifier struct {
	Base
	Name string
}

func (i *Identifier) String() string { return i.Name }

// NumberLiteral holds a numeric literal and its parsed value.
type NumberLiteral struct {
	Base
	Value float64
	Raw   string
}

func (n *NumberLiteral) String() string { return n.Raw }

// StringLiteral holds a string literal with "" escapes already collapsed.
type StringLiteral struct {
	Base
	Value string
}

func (s *StringLiteral) String() string {
	return `"` + strings.ReplaceAll(s.Value, `"`, `""`) + `"`
}

// BooleanLiteral is true or false.
type BooleanLiteral struct {
	Base
	Value bool
}

func (b *BooleanLiteral) String() string { return strconv.FormatBool(b.Value) }

// NilLiteral is the null literal.
type NilLiteral struct {
	Base
}

func (n *NilLiteral) String() string { return "null" }

// ListLiteral is [a, b, c].
type ListLiteral struct {
	Base
	Elements []Node
}

func (l *ListLiteral) String() string {
	parts := make([]string, len(l.Elements))
	for i, el := range l.Elements {
		parts[i] = el.String()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// MapEntry is one key/value pair in a map literal.
type MapEntry struct {
	Key   Node
	Value Node
}

// MapLiteral is {key: value, ...}.
type MapLiteral struct {
	Base
	Entries []MapEntry
}

func (m *MapLiteral) String() string {
	parts := make([]string, len(m.Entries))
	for i, e := range m.Entries {
		parts[i] = e.Key.String() + ": " + e.Value.String()
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// BinaryExpression is any arithmetic, comparison, bitwise, or isa pairing.
type BinaryExpression struct {
	Base
	Operator string
	Left     Node
	Right    Node
}

func (b *BinaryExpression) String() string {
	return "(" + b.Left.String() + " " + b.Operator + " " + b.Right.String() + ")"
}

// LogicalExpression is an and/or pairing, kept apart from BinaryExpression
// because evaluation short-circuits.
type LogicalExpression struct {
	Base
	Operator string
	Left     Node
	Right    Node
}

func (l *LogicalExpression) String() string {
	return "(" + l.Left.String() + " " + l.Operator + " " + l.Right.String() + ")"
}

// UnaryExpression is not/new/@/- or unary +.
type UnaryExpression struct {
	Base
	Operator string
	Argument Node
}

func (u *UnaryExpression) String() string {
	if u.Operator == "not" || u.Operator == "new" {
		return "(" + u.Operator + " " + u.Argument.String() + ")"
	}
	return "(" + u.Operator + u.Argument.String() + ")"
}

// MemberExpression is base.property.
type MemberExpression struct {
	Base
	Object   Node
	Property *Identifier
}

func (m *MemberExpression) String() string {
	return m.Object.String() + "." + m.Property.String()
}

// IndexExpression is base[index].
type IndexExpression struct {
	Base
	Object Node
	Index  Node
}

func (i *IndexExpression) String() string {
	return i.Object.String() + "[" + i.Index.String() + "]"
}

// SliceExpression is base[left:right] with either bound optionally nil.
type SliceExpression struct {
	Base
	Object Node
	Left   Node
	Right  Node
}

func (s *SliceExpression) String() string {
	var out bytes.Buffer
	out.WriteString(s.Object.String())
	out.WriteString("[")
	if s.Left != nil {
		out.WriteString(s.Left.String())
	}
	out.WriteString(":")
	if s.Right != nil {
		out.WriteString(s.Right.String())
	}
	out.WriteString("]")
	return out.String()
}

// CallExpression is callee(arguments...).
type CallExpression struct {
	Base
	Callee    Node
	Arguments []Node
}

func (c *CallExpression) String() string {
	parts := make([]string, len(c.Arguments))
	for i, arg := range c.Arguments {
		parts[i] = arg.String()
	}
	return c.Callee.String() + "(" + strings.Join(parts, ", ") + ")"
}

// ParenExpression is a parenthesized group.
type ParenExpression struct {
	Base
	Expression Node
}

func (p *ParenExpression) String() string { return "(" + p.Expression.String() + ")" }

// FunctionDeclaration is a function literal. It opens a scope; parameters
// with defaults appear as AssignmentStatement entries in Parameters.
type FunctionDeclaration struct {
	Base
	ScopeData
	Parameters []Node
	Body       []Node
	Parent     ScopeNode // enclosing scope, informational only
}

func (f *FunctionDeclaration) String() string {
	parts := make([]string, len(f.Parameters))
	for i, param := range f.Parameters {
		parts[i] = param.String()
	}
	return "function(" + strings.Join(parts, ", ") + ")"
}

// AssignmentStatement is target = value. Compound assignments (+= etc.) are
// desugared into this with a BinaryExpression value before construction.
type AssignmentStatement struct {
	Base
	Target Node
	Value  Node
}

func (a *AssignmentStatement) String() string {
	return a.Target.String() + " = " + a.Value.String()
}

// CallStatement wraps a call expression used as a statement.
type CallStatement struct {
	Base
	Expression Node
}

func (c *CallStatement) String() string { return c.Expression.String() }

// ReturnStatement is return with an optional argument.
type ReturnStatement struct {
	Base
	Argument Node
}

func (r *ReturnStatement) String() string {
	if r.Argument == nil {
		return "return"
	}
	return "return " + r.Argument.String()
}

// BreakStatement is the break keyword.
type BreakStatement struct {
	Base
}

func (b *BreakStatement) String() string { return "break" }

// ContinueStatement is the continue keyword.
type ContinueStatement struct {
	Base
}

func (c *ContinueStatement) String() string { return "continue" }

// DebuggerStatement is the debugger keyword.
type DebuggerStatement struct {
	Base
}

func (d *DebuggerStatement) String() string { return "debugger" }

// IfClause is one arm of an if statement. The kind distinguishes if,
// else-if, and else arms; Condition is nil on else arms. Shortcut arms share
// the same clause kinds; the statement kind records the overall shape.
type IfClause struct {
	Base
	Condition Node
	Body      []Node
}

func (c *IfClause) String() string {
	switch c.NodeKind {
	case KindElseClause:
		return "else"
	case KindElseifClause:
		return "else if " + c.Condition.String() + " then"
	default:
		return "if " + c.Condition.String() + " then"
	}
}

// IfStatement holds the clause chain of a block or shortcut if.
type IfStatement struct {
	Base
	Clauses []*IfClause
}

func (i *IfStatement) String() string {
	parts := make([]string, len(i.Clauses))
	for idx, clause := range i.Clauses {
		parts[idx] = clause.String()
	}
	return strings.Join(parts, " ")
}

// WhileStatement is a while loop, block or shortcut bodied.
type WhileStatement struct {
	Base
	Condition Node
	Body      []Node
}

func (w *WhileStatement) String() string { return "while " + w.Condition.String() }

// ForGenericStatement is for variable in iterator.
type ForGenericStatement struct {
	Base
	Variable *Identifier
	Iterator Node
	Body     []Node
}

func (f *ForGenericStatement) String() string {
	return "for " + f.Variable.String() + " in " + f.Iterator.String()
}

// ImportCodeExpression is the import_code native directive. FileSystemPath
// carries the deprecated optional second argument.
type ImportCodeExpression struct {
	Base
	Path           *StringLiteral
	FileSystemPath *StringLiteral
}

func (i *ImportCodeExpression) String() string {
	if i.FileSystemPath != nil {
		return fmt.Sprintf("import_code(%s, %s)", i.Path.String(), i.FileSystemPath.String())
	}
	return fmt.Sprintf("import_code(%s)", i.Path.String())
}

// InvalidCodeExpression marks a span the parser could not interpret.
// It is only ever produced in unsafe mode.
type InvalidCodeExpression struct {
	Base
}

func (i *InvalidCodeExpression) String() string { return "<invalid code>" }
