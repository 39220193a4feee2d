package parser

import (
	"testing"

	"github.com/ayecue/greyscript-core/pkg/greyscript/ast"
	perrors "github.com/ayecue/greyscript-core/pkg/greyscript/errors"
)

// parseOne parses source in strict mode and returns the first statement.
func parseOne(t *testing.T, source string) ast.Node {
	t.Helper()
	chunk := parseAll(t, source)
	if len(chunk.Body) == 0 {
		t.Fatalf("no statements parsed from %q", source)
	}
	return chunk.Body[0]
}

// parseAll parses source in strict mode and fails the test on any error.
func parseAll(t *testing.T, source string) *ast.Chunk {
	t.Helper()
	chunk, err := New(source).ParseChunk()
	if err != nil {
		t.Fatalf("parse of %q failed: %v", source, err)
	}
	return chunk
}

func TestExpressionPrecedence(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"1 + 2 * 3", "(1 + (2 * 3))"},
		{"1 * 2 + 3", "((1 * 2) + 3)"},
		{"2 ^ 3 ^ 2", "(2 ^ (3 ^ 2))"},
		{"a or b and c", "(a or (b and c))"},
		{"not a and b", "((not a) and b)"},
		{"a < b == c", "((a < b) == c)"},
		{"x << 1 + 2", "(x << (1 + 2))"},
		{"a >>> b >> c", "((a >>> b) >> c)"},
		{"x % 3 - 1", "((x % 3) - 1)"},
		{"a isa b", "(a isa b)"},
		{"-a.b", "(-a.b)"},
		{"new Foo.bar", "(new Foo.bar)"},
		{"@handler", "(@handler)"},
		{"not not a", "(not (not a))"},
		{"-@f", "(-(@f))"},
		{"(1 + 2) * 3", "(((1 + 2)) * 3)"},
		{"a.b.c", "a.b.c"},
		{"x[1:2]", "x[1:2]"},
		{"x[:2]", "x[:2]"},
		{"x[1:]", "x[1:]"},
		{"x[:]", "x[:]"},
		{"[1, 2, 3]", "[1, 2, 3]"},
		{`{"k": 1, "j": 2}`, `{"k": 1, "j": 2}`},
		{"5.foo", "5.foo"},
		{"a.b[1].c(2, 3)", "a.b[1].c(2, 3)"},
	}

	for _, tt := range tests {
		stmt := parseOne(t, tt.input)
		if got := stmt.String(); got != tt.expected {
			t.Errorf("parse(%q) - expected %q, got %q", tt.input, tt.expected, got)
		}
	}
}

func TestNumberLiteralFidelity(t *testing.T) {
	tests := []struct {
		input string
		raw   string
		value float64
	}{
		{"x = 5", "5", 5},
		{"x = 5.0", "5.0", 5},
		{"x = .5", ".5", 0.5},
		{"x = 5.", "5.", 5},
		{"x = 1e3", "1e3", 1000},
		{"x = 1 . 5", "1.5", 1.5},
	}

	for _, tt := range tests {
		stmt := parseOne(t, tt.input)
		assign, ok := stmt.(*ast.AssignmentStatement)
		if !ok {
			t.Fatalf("parse(%q) - expected assignment, got %s", tt.input, stmt.Kind())
		}
		num, ok := assign.Value.(*ast.NumberLiteral)
		if !ok {
			t.Fatalf("parse(%q) - expected number literal, got %s", tt.input, assign.Value.Kind())
		}
		if num.Raw != tt.raw {
			t.Errorf("parse(%q) - expected raw %q, got %q", tt.input, tt.raw, num.Raw)
		}
		if num.Value != tt.value {
			t.Errorf("parse(%q) - expected value %v, got %v", tt.input, tt.value, num.Value)
		}
	}
}

func TestUnexpectedTokenRendering(t *testing.T) {
	_, err := New("then").ParseChunk()
	if err == nil {
		t.Fatal("expected error for keyword in statement position")
	}
	want := "unexpected token 'then', expected statement at 1:1 - 1:5"
	if got := err.Error(); got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

// A dot chain that would not fuse into a valid number is a member-access
// error, not a silent token drop.
func TestFloatContinuationRejectsSecondDot(t *testing.T) {
	_, err := New("x = .5 . 6").ParseChunk()
	if err == nil {
		t.Fatal("expected error for malformed fraction chain")
	}
	perr := err.(*perrors.ParserError)
	if perr.Code != perrors.CodeUnexpectedToken {
		t.Errorf("expected code %s, got %s", perrors.CodeUnexpectedToken, perr.Code)
	}
}

func TestBooleanAndNilLiterals(t *testing.T) {
	chunk := parseAll(t, "a = true\nb = false\nc = null\n")

	kinds := []ast.Kind{ast.KindBooleanLiteral, ast.KindBooleanLiteral, ast.KindNilLiteral}
	for i, want := range kinds {
		assign := chunk.Body[i].(*ast.AssignmentStatement)
		if assign.Value.Kind() != want {
			t.Errorf("statement %d - expected value kind %s, got %s", i, want, assign.Value.Kind())
		}
	}
	if b := chunk.Body[0].(*ast.AssignmentStatement).Value.(*ast.BooleanLiteral); !b.Value {
		t.Error("expected true literal value")
	}
}

func TestCompoundAssignment(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"x += 1", "x = (x + 1)"},
		{"x -= 2", "x = (x - 2)"},
		{"x *= 3", "x = (x * 3)"},
		{"x /= 4", "x = (x / 4)"},
	}

	for _, tt := range tests {
		stmt := parseOne(t, tt.input)
		assign, ok := stmt.(*ast.AssignmentStatement)
		if !ok {
			t.Fatalf("parse(%q) - expected assignment, got %s", tt.input, stmt.Kind())
		}
		if assign.Value.Kind() != ast.KindBinaryExpression {
			t.Fatalf("parse(%q) - expected desugared binary value, got %s",
				tt.input, assign.Value.Kind())
		}
		if got := stmt.String(); got != tt.expected {
			t.Errorf("parse(%q) - expected %q, got %q", tt.input, tt.expected, got)
		}
	}
}

func TestCallStatement(t *testing.T) {
	stmt := parseOne(t, `print("hello")`)
	call, ok := stmt.(*ast.CallStatement)
	if !ok {
		t.Fatalf("expected call statement, got %s", stmt.Kind())
	}
	if call.Expression.Kind() != ast.KindCallExpression {
		t.Fatalf("expected call expression, got %s", call.Expression.Kind())
	}
}

func TestIfBlockClauses(t *testing.T) {
	input := `if a then
	x = 1
else if b then
	x = 2
else
	x = 3
end if
`
	stmt := parseOne(t, input)
	ifStmt, ok := stmt.(*ast.IfStatement)
	if !ok {
		t.Fatalf("expected if statement, got %s", stmt.Kind())
	}
	if ifStmt.Kind() != ast.KindIfStatement {
		t.Fatalf("expected block if kind, got %s", ifStmt.Kind())
	}
	if len(ifStmt.Clauses) != 3 {
		t.Fatalf("expected 3 clauses, got %d", len(ifStmt.Clauses))
	}

	kinds := []ast.Kind{ast.KindIfClause, ast.KindElseifClause, ast.KindElseClause}
	for i, want := range kinds {
		if ifStmt.Clauses[i].Kind() != want {
			t.Errorf("clause %d - expected %s, got %s", i, want, ifStmt.Clauses[i].Kind())
		}
		if len(ifStmt.Clauses[i].Body) != 1 {
			t.Errorf("clause %d - expected 1 body statement, got %d",
				i, len(ifStmt.Clauses[i].Body))
		}
	}
	if ifStmt.Clauses[2].Condition != nil {
		t.Error("else clause should have no condition")
	}
}

func TestIfShortcut(t *testing.T) {
	stmt := parseOne(t, "if a then x = 1 else x = 2")
	ifStmt := stmt.(*ast.IfStatement)
	if ifStmt.Kind() != ast.KindIfShortcutStatement {
		t.Fatalf("expected shortcut if kind, got %s", ifStmt.Kind())
	}
	if len(ifStmt.Clauses) != 2 {
		t.Fatalf("expected 2 clauses, got %d", len(ifStmt.Clauses))
	}
}

func TestIfShortcutSemicolonBody(t *testing.T) {
	stmt := parseOne(t, "if a then x = 1; y = 2")
	ifStmt := stmt.(*ast.IfStatement)
	if len(ifStmt.Clauses[0].Body) != 2 {
		t.Fatalf("expected 2 body statements, got %d", len(ifStmt.Clauses[0].Body))
	}
}

// A block if without its own 'end if' claims the terminator a nested
// shortcut if consumed, and the shortcut gets back its true end.
func TestIfShortcutEndSwap(t *testing.T) {
	input := "if a then\nif b then print(\"x\") end if\n"
	chunk := parseAll(t, input)

	outer, ok := chunk.Body[0].(*ast.IfStatement)
	if !ok {
		t.Fatalf("expected if statement, got %s", chunk.Body[0].Kind())
	}
	if outer.Kind() != ast.KindIfStatement {
		t.Fatalf("expected block if, got %s", outer.Kind())
	}

	inner, ok := outer.Clauses[0].Body[0].(*ast.IfStatement)
	if !ok {
		t.Fatalf("expected nested if, got %s", outer.Clauses[0].Body[0].Kind())
	}
	if inner.Kind() != ast.KindIfShortcutStatement {
		t.Fatalf("expected shortcut if, got %s", inner.Kind())
	}

	if outer.End().Line != 2 {
		t.Errorf("outer should end on line 2, got %d", outer.End().Line)
	}
	if !inner.End().Before(outer.End()) {
		t.Errorf("inner end %s should come before outer end %s",
			inner.End(), outer.End())
	}
}

// A shortcut if on its own line never reaches forward to claim an 'end if'
// that belongs to a later block if.
func TestShortcutDoesNotStealLaterEndIf(t *testing.T) {
	input := "if a then print(1) else print(2)\nif b then\nprint(3)\nend if\n"
	chunk := parseAll(t, input)

	if len(chunk.Body) != 2 {
		t.Fatalf("expected 2 statements, got %d", len(chunk.Body))
	}
	shortcut := chunk.Body[0].(*ast.IfStatement)
	if shortcut.Kind() != ast.KindIfShortcutStatement {
		t.Fatalf("expected shortcut if first, got %s", shortcut.Kind())
	}
	if shortcut.End().Line != 1 {
		t.Errorf("shortcut should end on its own line, got %d", shortcut.End().Line)
	}
	block := chunk.Body[1].(*ast.IfStatement)
	if block.Kind() != ast.KindIfStatement {
		t.Fatalf("expected block if second, got %s", block.Kind())
	}
	if block.End().Line != 4 {
		t.Errorf("block if should end at its end if on line 4, got %d", block.End().Line)
	}
}

func TestIfShortcutKeepsOwnEndIf(t *testing.T) {
	chunk := parseAll(t, "if a then x = 1 end if\ny = 2\n")

	if len(chunk.Body) != 2 {
		t.Fatalf("expected 2 statements, got %d", len(chunk.Body))
	}
	ifStmt := chunk.Body[0].(*ast.IfStatement)
	if ifStmt.Kind() != ast.KindIfShortcutStatement {
		t.Fatalf("expected shortcut if, got %s", ifStmt.Kind())
	}
	// The trailing 'end if' belongs to the shortcut: nothing else claims it.
	if ifStmt.End().Line != 1 {
		t.Errorf("expected end on line 1, got %d", ifStmt.End().Line)
	}
}

func TestUnbalancedIfIsAnError(t *testing.T) {
	_, err := New("if a then\nx = 1\n").ParseChunk()
	if err == nil {
		t.Fatal("expected error for if without end if")
	}
	perr := err.(*perrors.ParserError)
	if perr.Code != perrors.CodeUnbalancedIfShortcut {
		t.Errorf("expected code %s, got %s", perrors.CodeUnbalancedIfShortcut, perr.Code)
	}
}

func TestWhileStatement(t *testing.T) {
	block := parseOne(t, "while x < 3\nx = x + 1\nend while\n")
	ws := block.(*ast.WhileStatement)
	if len(ws.Body) != 1 {
		t.Fatalf("expected 1 body statement, got %d", len(ws.Body))
	}

	shortcut := parseOne(t, "while x < 3 x = x + 1")
	ws = shortcut.(*ast.WhileStatement)
	if len(ws.Body) != 1 {
		t.Fatalf("expected 1 shortcut body statement, got %d", len(ws.Body))
	}
}

func TestForStatement(t *testing.T) {
	stmt := parseOne(t, "for i in [1, 2]\nx = i\nend for\n")
	fs := stmt.(*ast.ForGenericStatement)
	if fs.Variable.Name != "i" {
		t.Errorf("expected loop variable i, got %q", fs.Variable.Name)
	}
	if fs.Iterator.Kind() != ast.KindListLiteral {
		t.Errorf("expected list iterator, got %s", fs.Iterator.Kind())
	}
	if len(fs.Body) != 1 {
		t.Errorf("expected 1 body statement, got %d", len(fs.Body))
	}

	shortcut := parseOne(t, "for i in r print(i)")
	fs = shortcut.(*ast.ForGenericStatement)
	if len(fs.Body) != 1 {
		t.Errorf("expected 1 shortcut body statement, got %d", len(fs.Body))
	}
}

func TestReturnStatement(t *testing.T) {
	stmt := parseOne(t, "return 5")
	rs := stmt.(*ast.ReturnStatement)
	if rs.Argument == nil {
		t.Fatal("expected return argument")
	}

	stmt = parseOne(t, "return")
	rs = stmt.(*ast.ReturnStatement)
	if rs.Argument != nil {
		t.Fatal("expected bare return")
	}
}

func TestSimpleKeywordStatements(t *testing.T) {
	chunk := parseAll(t, "break\ncontinue\ndebugger\n")
	kinds := []ast.Kind{ast.KindBreakStatement, ast.KindContinueStatement, ast.KindDebuggerStatement}
	for i, want := range kinds {
		if chunk.Body[i].Kind() != want {
			t.Errorf("statement %d - expected %s, got %s", i, want, chunk.Body[i].Kind())
		}
	}
}

func TestFunctionDeclaration(t *testing.T) {
	input := `f = function(x, y = 2)
	return x + y
end function
`
	stmt := parseOne(t, input)
	assign := stmt.(*ast.AssignmentStatement)
	fn, ok := assign.Value.(*ast.FunctionDeclaration)
	if !ok {
		t.Fatalf("expected function declaration, got %s", assign.Value.Kind())
	}
	if len(fn.Parameters) != 2 {
		t.Fatalf("expected 2 parameters, got %d", len(fn.Parameters))
	}
	if fn.Parameters[0].Kind() != ast.KindIdentifier {
		t.Errorf("expected plain identifier parameter, got %s", fn.Parameters[0].Kind())
	}
	// Defaulted parameters appear as assignments in both the parameter list
	// and the function's own assignment set.
	if fn.Parameters[1].Kind() != ast.KindAssignmentStatement {
		t.Errorf("expected defaulted parameter assignment, got %s", fn.Parameters[1].Kind())
	}
	if len(fn.Assignments) != 1 {
		t.Errorf("expected 1 scope assignment, got %d", len(fn.Assignments))
	}
	if len(fn.Body) != 1 {
		t.Errorf("expected 1 body statement, got %d", len(fn.Body))
	}
}

func TestScopesAndNamespaces(t *testing.T) {
	input := `a = 1
f = function(x, y = 2)
	b = a + x
	print(b)
	return b
end function
`
	chunk := parseAll(t, input)

	if len(chunk.Scopes) != 1 {
		t.Fatalf("expected 1 nested scope, got %d", len(chunk.Scopes))
	}

	for _, name := range []string{"a", "f"} {
		if !chunk.Namespaces[name] {
			t.Errorf("chunk namespace should contain %q", name)
		}
	}
	for _, name := range []string{"b", "x", "print"} {
		if chunk.Namespaces[name] {
			t.Errorf("chunk namespace should not contain %q", name)
		}
	}
	if len(chunk.Assignments) != 2 {
		t.Errorf("expected 2 chunk assignments, got %d", len(chunk.Assignments))
	}

	fn := chunk.Scopes[0].(*ast.FunctionDeclaration)
	for _, name := range []string{"x", "y", "b", "a"} {
		if !fn.Namespaces[name] {
			t.Errorf("function namespace should contain %q", name)
		}
	}
	// print is a builtin and stays out of every namespace set.
	if fn.Namespaces["print"] {
		t.Error("function namespace should not contain print")
	}
	if len(fn.Assignments) != 2 {
		t.Errorf("expected 2 function assignments, got %d", len(fn.Assignments))
	}
}

func TestImportCode(t *testing.T) {
	chunk := parseAll(t, `import_code("lib.src")`+"\n"+`import_code("a.src", "/fs/a.src")`+"\n")

	if len(chunk.NativeImports) != 2 {
		t.Fatalf("expected 2 native imports, got %d", len(chunk.NativeImports))
	}
	first := chunk.NativeImports[0]
	if first.Path.Value != "lib.src" {
		t.Errorf("expected path lib.src, got %q", first.Path.Value)
	}
	if first.FileSystemPath != nil {
		t.Error("first import should not carry a filesystem path")
	}
	second := chunk.NativeImports[1]
	if second.FileSystemPath == nil || second.FileSystemPath.Value != "/fs/a.src" {
		t.Errorf("expected filesystem path /fs/a.src, got %v", second.FileSystemPath)
	}
}

func TestImportCodeRequiresStringLiteral(t *testing.T) {
	_, err := New("import_code(path)").ParseChunk()
	if err == nil {
		t.Fatal("expected error for non-literal import path")
	}
	perr := err.(*perrors.ParserError)
	if perr.Code != perrors.CodeMalformedImportCode {
		t.Errorf("expected code %s, got %s", perrors.CodeMalformedImportCode, perr.Code)
	}
}

func TestLiteralPool(t *testing.T) {
	input := `x = "s"
y = 5
z = true
w = null
import_code("lib.src")
`
	chunk := parseAll(t, input)
	if len(chunk.Literals) != 5 {
		t.Fatalf("expected 5 pooled literals, got %d", len(chunk.Literals))
	}
}

func TestLineIndex(t *testing.T) {
	chunk := parseAll(t, "x = 1\n\ny = 2\nz = 3; w = 4\n")

	if len(chunk.LineIndex[1]) != 1 {
		t.Errorf("expected 1 statement on line 1, got %d", len(chunk.LineIndex[1]))
	}
	if len(chunk.LineIndex[2]) != 0 {
		t.Errorf("expected no statements on line 2, got %d", len(chunk.LineIndex[2]))
	}
	if len(chunk.LineIndex[3]) != 1 {
		t.Errorf("expected 1 statement on line 3, got %d", len(chunk.LineIndex[3]))
	}
	if len(chunk.LineIndex[4]) != 2 {
		t.Errorf("expected 2 statements on line 4, got %d", len(chunk.LineIndex[4]))
	}
}

// An open parenthesis on a new line starts a fresh statement rather than a
// call on the previous line's expression.
func TestCallDoesNotSpanLines(t *testing.T) {
	chunk := parseAll(t, "f\n(1)\n")

	if len(chunk.Body) != 2 {
		t.Fatalf("expected 2 statements, got %d", len(chunk.Body))
	}
	if chunk.Body[0].Kind() != ast.KindIdentifier {
		t.Errorf("expected bare identifier, got %s", chunk.Body[0].Kind())
	}
	if chunk.Body[1].Kind() != ast.KindParenExpression {
		t.Errorf("expected paren expression, got %s", chunk.Body[1].Kind())
	}
}

func TestCallArgsMaySpanLines(t *testing.T) {
	stmt := parseOne(t, "f(1,\n2,\n3)\n")
	call := stmt.(*ast.CallStatement)
	if got := call.Expression.(*ast.CallExpression); len(got.Arguments) != 3 {
		t.Fatalf("expected 3 arguments, got %d", len(got.Arguments))
	}
}

func TestSemicolonSeparatesStatements(t *testing.T) {
	chunk := parseAll(t, "a = 1; b = 2")
	if len(chunk.Body) != 2 {
		t.Fatalf("expected 2 statements, got %d", len(chunk.Body))
	}
}

func TestStrictStopsAtFirstError(t *testing.T) {
	chunk, err := New("x = \ny = 1\n= 5\n").ParseChunk()
	if err == nil {
		t.Fatal("expected error in strict mode")
	}
	if chunk != nil {
		t.Fatal("strict mode should not return a chunk on error")
	}
	perr := err.(*perrors.ParserError)
	if perr.Code != perrors.CodeUnexpectedToken {
		t.Errorf("expected code %s, got %s", perrors.CodeUnexpectedToken, perr.Code)
	}
	if perr.Line != 1 {
		t.Errorf("expected error on line 1, got %d", perr.Line)
	}
}

func TestUnsafeCollectsAllErrors(t *testing.T) {
	input := "x = \ny = 1\n= 5\nfoo bar\nw = 3\n"
	p := NewWithOptions(input, Options{Unsafe: true})
	chunk, err := p.ParseChunk()
	if err != nil {
		t.Fatalf("unsafe mode should not fail: %v", err)
	}
	if chunk == nil {
		t.Fatal("unsafe mode should always return a chunk")
	}

	if len(p.Errors()) != 3 {
		for _, e := range p.Errors() {
			t.Logf("error: %s", e)
		}
		t.Fatalf("expected 3 collected errors, got %d", len(p.Errors()))
	}

	// Every line still contributes a statement: bad spans become
	// InvalidCodeExpression placeholders.
	if len(chunk.Body) != 5 {
		t.Fatalf("expected 5 statements, got %d", len(chunk.Body))
	}
	firstAssign := chunk.Body[0].(*ast.AssignmentStatement)
	if firstAssign.Value.Kind() != ast.KindInvalidCodeExpression {
		t.Errorf("expected placeholder value, got %s", firstAssign.Value.Kind())
	}
	if chunk.Body[2].Kind() != ast.KindInvalidCodeExpression {
		t.Errorf("expected placeholder statement, got %s", chunk.Body[2].Kind())
	}
}

func TestUnsafeCollectsLexErrors(t *testing.T) {
	p := NewWithOptions("x = $\ny = 2\n", Options{Unsafe: true})
	chunk, err := p.ParseChunk()
	if err != nil {
		t.Fatalf("unsafe mode should not fail: %v", err)
	}
	if chunk == nil {
		t.Fatal("unsafe mode should always return a chunk")
	}

	var lexErrs int
	for _, e := range p.Errors() {
		if e.IsLexError() {
			lexErrs++
		}
	}
	if lexErrs != 1 {
		t.Fatalf("expected 1 lex error, got %d (of %d total)", lexErrs, len(p.Errors()))
	}
}

func TestStrictLexErrorAbortsParse(t *testing.T) {
	_, err := New(`x = "open`).ParseChunk()
	if err == nil {
		t.Fatal("expected error for unterminated string")
	}
	perr := err.(*perrors.ParserError)
	if !perr.IsLexError() {
		t.Errorf("expected a lex-class error, got %s", perr.Code)
	}
}

func TestMemberPropertyNotInNamespace(t *testing.T) {
	chunk := parseAll(t, "x = obj.field\n")
	if chunk.Namespaces["field"] {
		t.Error("member property should not enter the namespace set")
	}
	if !chunk.Namespaces["obj"] {
		t.Error("member object should enter the namespace set")
	}
}

func TestStatementPositions(t *testing.T) {
	chunk := parseAll(t, "x = 10\n")
	stmt := chunk.Body[0]
	if stmt.Start().Line != 1 || stmt.Start().Character != 1 {
		t.Errorf("expected start 1:1, got %s", stmt.Start())
	}
	if stmt.End().Character != 7 {
		t.Errorf("expected end column 7, got %d", stmt.End().Character)
	}
}

func BenchmarkParseChunk(b *testing.B) {
	source := `scan = function(host, ports)
	open = []
	for port in ports
		sock = connect(host, port)
		if sock != null then
			open.push(port)
			sock.close
		end if
	end for
	return open
end function
results = {}
for host in ["a.example", "b.example"]
	results[host] = scan(host, range(1, 1024))
end for
`
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		if _, err := New(source).ParseChunk(); err != nil {
			b.Fatal(err)
		}
	}
}
