// Package parser implements the GreyScript recursive-descent parser.
//
// The parser pulls tokens from the lexer through a small prefetch cursor,
// parses expressions by precedence climbing, and dispatches statements on
// their leading keyword. It runs in one of two failure modes: strict (the
// default) stops at the first error and returns it from ParseChunk; unsafe
// records every error, substitutes InvalidCodeExpression placeholders,
// resynchronizes at the next end of line, and always returns a usable tree.
package parser

import (
	"strconv"

	"github.com/ayecue/greyscript-core/pkg/greyscript/ast"
	"github.com/ayecue/greyscript-core/pkg/greyscript/dialect"
	perrors "github.com/ayecue/greyscript-core/pkg/greyscript/errors"
	"github.com/ayecue/greyscript-core/pkg/greyscript/lexer"
)

// compoundOps maps shorthand assignment operators to the binary operator
// they desugar into: target OP= value becomes target = target OP value.
var compoundOps = map[string]string{
	"+=": "+",
	"-=": "-",
	"*=": "*",
	"/=": "/",
}

// shortcutBreakers are the keywords that end a shortcut body mid-line.
var shortcutBreakers = map[string]bool{
	"if":           true,
	"else":         true,
	"else if":      true,
	"end if":       true,
	"end for":      true,
	"end while":    true,
	"end function": true,
}

// Options configures a Parser.
type Options struct {
	// Unsafe enables error-tolerant parsing: errors are collected via
	// Errors() and the parse always completes.
	Unsafe bool
	// TabWidth is forwarded to the lexer. Default 1.
	TabWidth int
	// Lexer overrides the internally constructed lexer.
	Lexer *lexer.Lexer
	// Keywords overrides the keyword table handed to the lexer.
	Keywords dialect.KeywordSet
	// Natives classifies identifiers as builtins, excluding them from scope
	// namespace sets. Default is the GreyScript native set.
	Natives dialect.NativeSet
	// Precedence overrides the binary operator precedence table.
	Precedence dialect.PrecedenceTable
}

// pendingIf tracks a shortcut if-statement that consumed a trailing 'end if'
// which an enclosing block if-statement may still claim.
type pendingIf struct {
	statement *ast.IfStatement
	endBefore ast.Position // the shortcut's true end, before the terminator
}

// Parser parses one source buffer into a Chunk.
type Parser struct {
	l *lexer.Lexer

	unsafe     bool
	natives    dialect.NativeSet
	precedence dialect.PrecedenceTable

	prevToken lexer.Token
	curToken  lexer.Token
	lookahead []lexer.Token

	currentScope ast.ScopeNode
	outerScopes  []ast.ScopeNode

	literals      []ast.Node
	scopes        []ast.ScopeNode
	nativeImports []*ast.ImportCodeExpression
	lineIndex     map[int][]ast.Node

	pendingIfs []pendingIf

	errs        []*perrors.ParserError
	fatal       *perrors.ParserError
	lexErrCount int
}

// New creates a parser for the given source with default options.
func New(source string) *Parser {
	return NewWithOptions(source, Options{})
}

// NewWithOptions creates a parser for the given source.
func NewWithOptions(source string, opts Options) *Parser {
	if opts.Natives == nil {
		opts.Natives = dialect.Default()
	}
	if opts.Precedence == nil {
		opts.Precedence = dialect.Default()
	}

	l := opts.Lexer
	if l == nil {
		l = lexer.NewWithOptions(source, lexer.Options{
			TabWidth: opts.TabWidth,
			Unsafe:   opts.Unsafe,
			Keywords: opts.Keywords,
		})
	}

	p := &Parser{
		l:          l,
		unsafe:     opts.Unsafe,
		natives:    opts.Natives,
		precedence: opts.Precedence,
		lineIndex:  make(map[int][]ast.Node),
	}
	p.nextToken()
	return p
}

// Errors returns every error collected so far, in detection order.
// In strict mode it holds at most the one fatal error.
func (p *Parser) Errors() []*perrors.ParserError {
	return p.errs
}

// ParseChunk parses the whole source buffer. In strict mode the first error
// aborts the parse and is returned with a nil chunk; in unsafe mode the
// chunk is always returned and Errors() carries the diagnostics.
func (p *Parser) ParseChunk() (*ast.Chunk, error) {
	chunk := &ast.Chunk{
		Base: ast.Base{
			NodeKind: ast.KindChunk,
			StartPos: ast.Position{Line: 1, Character: 1},
		},
	}
	p.currentScope = chunk

	chunk.Body = p.parseBlockBody(nil)

	chunk.EndPos = p.curToken.End
	chunk.Literals = p.literals
	chunk.Scopes = p.scopes
	chunk.NativeImports = p.nativeImports
	chunk.LineIndex = p.lineIndex

	if p.fatal != nil {
		return nil, p.fatal
	}
	return chunk, nil
}

// ----------------------------------------------------------------------------
// Cursor
// ----------------------------------------------------------------------------

// fetch pulls one token from the lexer, draining any lexical errors the
// lexer collected in unsafe mode so accumulation order matches detection
// order.
func (p *Parser) fetch() lexer.Token {
	tok, err := p.l.NextToken()
	if err != nil {
		if p.fatal == nil {
			p.fatal = err.(*perrors.ParserError)
		}
		return lexer.Token{
			Type:  lexer.EOF,
			Line:  tok.Line,
			Start: tok.Start,
			End:   tok.End,
		}
	}
	p.drainLexErrors()
	return tok
}

// drainLexErrors appends newly recorded lexer errors to the parser's list.
func (p *Parser) drainLexErrors() {
	lexErrs := p.l.Errors()
	for ; p.lexErrCount < len(lexErrs); p.lexErrCount++ {
		p.errs = append(p.errs, lexErrs[p.lexErrCount])
	}
}

// nextToken advances prevToken and curToken, consuming the prefetch queue
// before pulling the lexer again.
func (p *Parser) nextToken() {
	p.prevToken = p.curToken
	if len(p.lookahead) > 0 {
		p.curToken = p.lookahead[0]
		p.lookahead = p.lookahead[1:]
	} else {
		p.curToken = p.fetch()
	}
}

// peek returns the nth not-yet-consumed token after curToken without
// advancing, filling the prefetch queue lazily.
func (p *Parser) peek(n int) lexer.Token {
	for len(p.lookahead) < n {
		if len(p.lookahead) > 0 && p.lookahead[len(p.lookahead)-1].Type == lexer.EOF {
			return p.lookahead[len(p.lookahead)-1]
		}
		p.lookahead = append(p.lookahead, p.fetch())
	}
	return p.lookahead[n-1]
}

// consumePunct advances past the given punctuator if it is current.
func (p *Parser) consumePunct(literal string) bool {
	if p.curToken.IsPunct(literal) {
		p.nextToken()
		return true
	}
	return false
}

// expectPunct advances past the given punctuator or reports what was found,
// tagged with the construct being parsed.
func (p *Parser) expectPunct(literal, context string) *perrors.ParserError {
	if p.consumePunct(literal) {
		return nil
	}
	return p.unexpectedToken("'" + literal + "' in " + context)
}

// expectKeyword advances past the given keyword or reports what was found.
func (p *Parser) expectKeyword(name, context string) *perrors.ParserError {
	if p.curToken.IsKeyword(name) {
		p.nextToken()
		return nil
	}
	return p.unexpectedToken("'" + name + "' in " + context)
}

// skipEOLs consumes consecutive end-of-line tokens.
func (p *Parser) skipEOLs() {
	for p.curToken.Type == lexer.EOL {
		p.nextToken()
	}
}

// ----------------------------------------------------------------------------
// Errors and recovery
// ----------------------------------------------------------------------------

// describeToken renders a token for error messages.
func describeToken(tok lexer.Token) string {
	switch tok.Type {
	case lexer.EOF:
		return "end of file"
	case lexer.EOL:
		if tok.Literal == ";" {
			return "';'"
		}
		return "end of line"
	default:
		return "'" + tok.Literal + "'"
	}
}

// unexpectedToken builds the error for the current token not matching what
// the grammar expects.
func (p *Parser) unexpectedToken(expected string) *perrors.ParserError {
	tok := p.curToken
	if tok.Type == lexer.EOF {
		err := perrors.NewWithPosition(perrors.CodeUnexpectedEOF, tok.Line, tok.Start.Character,
			map[string]any{"Context": expected})
		err.EndLine = tok.End.Line
		err.EndColumn = tok.End.Character
		return err
	}
	err := perrors.NewWithPosition(perrors.CodeUnexpectedToken, tok.Line, tok.Start.Character,
		map[string]any{"Got": describeToken(tok), "Expected": expected})
	err.EndLine = tok.End.Line
	err.EndColumn = tok.End.Character
	return err
}

// raise applies the failure mode. Strict mode latches the first error and
// returns nil; unsafe mode records the error, discards tokens up to the next
// end of line, and returns an InvalidCodeExpression covering the span.
func (p *Parser) raise(err *perrors.ParserError) ast.Node {
	if !p.unsafe {
		if p.fatal == nil {
			p.fatal = err
		}
		return nil
	}

	p.errs = append(p.errs, err)

	start := ast.Position{Line: err.Line, Character: err.Column}
	for !p.curToken.IsEnd() {
		p.nextToken()
	}
	return &ast.InvalidCodeExpression{
		Base: ast.Base{
			NodeKind: ast.KindInvalidCodeExpression,
			StartPos: start,
			EndPos:   p.curToken.Start,
			Scope:    p.currentScope,
		},
	}
}

// raiseDiscard records an error where the grammar substitutes omission
// rather than a placeholder node.
func (p *Parser) raiseDiscard(err *perrors.ParserError) {
	p.raise(err)
}

// ----------------------------------------------------------------------------
// Scope stack
// ----------------------------------------------------------------------------

// pushScope makes scope current and registers it in the chunk's flat scope
// list. The root chunk is installed directly and never passes through here.
func (p *Parser) pushScope(scope ast.ScopeNode) {
	p.outerScopes = append(p.outerScopes, p.currentScope)
	p.scopes = append(p.scopes, scope)
	p.currentScope = scope
}

// popScope restores the enclosing scope.
func (p *Parser) popScope() {
	n := len(p.outerScopes) - 1
	p.currentScope = p.outerScopes[n]
	p.outerScopes = p.outerScopes[:n]
}

// ----------------------------------------------------------------------------
// Statements and blocks
// ----------------------------------------------------------------------------

// atTerminator reports whether the current token is one of the given block
// terminator keywords.
func (p *Parser) atTerminator(terminators []string) bool {
	if p.curToken.Type != lexer.KEYWORD {
		return false
	}
	for _, term := range terminators {
		if p.curToken.Literal == term {
			return true
		}
	}
	return false
}

// atShortcutBreak reports whether the current token ends a shortcut body.
func (p *Parser) atShortcutBreak() bool {
	return p.curToken.Type == lexer.KEYWORD && shortcutBreakers[p.curToken.Literal]
}

// indexLine registers a statement in the chunk's line index.
func (p *Parser) indexLine(stmt ast.Node) {
	line := stmt.Start().Line
	p.lineIndex[line] = append(p.lineIndex[line], stmt)
}

// parseBlockBody parses statements until one of the terminator keywords or
// end of file. A nil terminator list parses to end of file.
func (p *Parser) parseBlockBody(terminators []string) []ast.Node {
	var body []ast.Node

	p.skipEOLs()
	for p.fatal == nil && p.curToken.Type != lexer.EOF && !p.atTerminator(terminators) {
		stmt := p.parseStatement()
		if stmt != nil {
			body = append(body, stmt)
			p.indexLine(stmt)
		}
		p.expectEndOfStatement(terminators)
		p.skipEOLs()
	}
	return body
}

// expectEndOfStatement checks that a statement is properly terminated.
func (p *Parser) expectEndOfStatement(terminators []string) {
	if p.curToken.IsEnd() || p.atTerminator(terminators) {
		return
	}
	p.raiseDiscard(p.unexpectedToken("end of statement"))
}

// parseShortcutBody parses statements on the same logical line, stopping at
// end of line, end of file, or a breaking keyword. Semicolons separate
// statements without ending the line.
func (p *Parser) parseShortcutBody() []ast.Node {
	var body []ast.Node

	for p.fatal == nil {
		if p.curToken.Type == lexer.EOF || p.atShortcutBreak() {
			break
		}
		if p.curToken.Type == lexer.EOL {
			if p.curToken.Literal != ";" {
				break
			}
			p.nextToken()
			continue
		}

		stmt := p.parseStatement()
		if stmt != nil {
			body = append(body, stmt)
			p.indexLine(stmt)
		}
		if !p.curToken.IsEnd() && !p.atShortcutBreak() {
			p.raiseDiscard(p.unexpectedToken("end of statement"))
		}
	}
	return body
}

// parseStatement dispatches on the leading token.
func (p *Parser) parseStatement() ast.Node {
	tok := p.curToken

	if tok.Type == lexer.KEYWORD {
		switch tok.Literal {
		case "if":
			return p.parseIfStatement()
		case "while":
			return p.parseWhileStatement()
		case "for":
			return p.parseForStatement()
		case "return":
			return p.parseReturnStatement()
		case "break":
			p.nextToken()
			return &ast.BreakStatement{Base: p.base(ast.KindBreakStatement, tok.Start, tok.End)}
		case "continue":
			p.nextToken()
			return &ast.ContinueStatement{Base: p.base(ast.KindContinueStatement, tok.Start, tok.End)}
		case "debugger":
			p.nextToken()
			return &ast.DebuggerStatement{Base: p.base(ast.KindDebuggerStatement, tok.Start, tok.End)}
		case "import_code":
			return p.parseNativeImport()
		case "function", "new", "not":
			return p.parseAssignmentOrCall()
		default:
			return p.raise(p.unexpectedToken("statement"))
		}
	}

	return p.parseAssignmentOrCall()
}

// base builds a Base tagged with the current scope.
func (p *Parser) base(kind ast.Kind, start, end ast.Position) ast.Base {
	return ast.Base{NodeKind: kind, StartPos: start, EndPos: end, Scope: p.currentScope}
}

// parseAssignmentOrCall parses an expression and decides by the trailing
// token whether it is an assignment target, a shorthand compound assignment,
// a call statement, or a bare expression.
func (p *Parser) parseAssignmentOrCall() ast.Node {
	target := p.parseExpr(dialect.PrecedenceLowest)
	if target == nil {
		return nil
	}

	switch {
	case p.curToken.IsPunct("="):
		p.nextToken()
		value := p.parseExpr(dialect.PrecedenceLowest)
		if value == nil {
			return nil
		}
		stmt := &ast.AssignmentStatement{
			Base:   p.base(ast.KindAssignmentStatement, target.Start(), value.End()),
			Target: target,
			Value:  value,
		}
		p.currentScope.AddAssignment(stmt)
		return stmt

	case p.curToken.Type == lexer.PUNCT && compoundOps[p.curToken.Literal] != "":
		op := compoundOps[p.curToken.Literal]
		p.nextToken()
		rhs := p.parseExpr(dialect.PrecedenceLowest)
		if rhs == nil {
			return nil
		}
		value := &ast.BinaryExpression{
			Base:     p.base(ast.KindBinaryExpression, target.Start(), rhs.End()),
			Operator: op,
			Left:     target,
			Right:    rhs,
		}
		stmt := &ast.AssignmentStatement{
			Base:   p.base(ast.KindAssignmentStatement, target.Start(), rhs.End()),
			Target: target,
			Value:  value,
		}
		p.currentScope.AddAssignment(stmt)
		return stmt

	case target.Kind() == ast.KindCallExpression:
		return &ast.CallStatement{
			Base:       p.base(ast.KindCallStatement, target.Start(), target.End()),
			Expression: target,
		}

	default:
		return target
	}
}

// parseReturnStatement parses return with an optional argument running to
// the end of the statement.
func (p *Parser) parseReturnStatement() ast.Node {
	tok := p.curToken
	p.nextToken()

	var arg ast.Node
	end := tok.End
	if !p.curToken.IsEnd() && !p.atShortcutBreak() {
		arg = p.parseExpr(dialect.PrecedenceLowest)
		if arg == nil {
			return nil
		}
		end = arg.End()
	}

	return &ast.ReturnStatement{
		Base:     p.base(ast.KindReturnStatement, tok.Start, end),
		Argument: arg,
	}
}

// parseWhileStatement parses a while loop with a block or shortcut body.
func (p *Parser) parseWhileStatement() ast.Node {
	tok := p.curToken
	p.nextToken()

	cond := p.parseExpr(dialect.PrecedenceLowest)
	if cond == nil {
		return nil
	}

	stmt := &ast.WhileStatement{
		Base:      p.base(ast.KindWhileStatement, tok.Start, cond.End()),
		Condition: cond,
	}

	if p.curToken.Type == lexer.EOL {
		stmt.Body = p.parseBlockBody([]string{"end while"})
		if err := p.expectKeyword("end while", "while statement"); err != nil {
			p.raiseDiscard(err)
		}
	} else {
		stmt.Body = p.parseShortcutBody()
	}
	stmt.EndPos = p.prevToken.End
	return stmt
}

// parseForStatement parses for <ident> in <expr> with a block or shortcut
// body.
func (p *Parser) parseForStatement() ast.Node {
	tok := p.curToken
	p.nextToken()

	if p.curToken.Type != lexer.IDENT {
		return p.raise(p.unexpectedToken("loop variable"))
	}
	variable := p.parseIdentifier(true)

	if err := p.expectKeyword("in", "for statement"); err != nil {
		return p.raise(err)
	}

	iterator := p.parseExpr(dialect.PrecedenceLowest)
	if iterator == nil {
		return nil
	}

	stmt := &ast.ForGenericStatement{
		Base:     p.base(ast.KindForGenericStatement, tok.Start, iterator.End()),
		Variable: variable,
		Iterator: iterator,
	}

	if p.curToken.Type == lexer.EOL {
		stmt.Body = p.parseBlockBody([]string{"end for"})
		if err := p.expectKeyword("end for", "for statement"); err != nil {
			p.raiseDiscard(err)
		}
	} else {
		stmt.Body = p.parseShortcutBody()
	}
	stmt.EndPos = p.prevToken.End
	return stmt
}

// parseIfStatement parses both the block and shortcut forms. The form is
// selected by whether a line terminator immediately follows 'then'.
func (p *Parser) parseIfStatement() ast.Node {
	tok := p.curToken
	p.nextToken()

	cond := p.parseExpr(dialect.PrecedenceLowest)
	if cond == nil {
		return nil
	}
	if err := p.expectKeyword("then", "if statement"); err != nil {
		return p.raise(err)
	}

	stmt := &ast.IfStatement{
		Base: p.base(ast.KindIfStatement, tok.Start, cond.End()),
	}

	if p.curToken.Type == lexer.EOL {
		p.parseIfBlockClauses(stmt, tok, cond)
	} else {
		stmt.NodeKind = ast.KindIfShortcutStatement
		p.parseIfShortcutClauses(stmt, tok, cond)
	}
	return stmt
}

// parseIfBlockClauses parses the clause chain of a block if-statement and
// resolves the terminator against pending shortcut ifs when its own
// 'end if' is missing.
func (p *Parser) parseIfBlockClauses(stmt *ast.IfStatement, tok lexer.Token, cond ast.Node) {
	terminators := []string{"else if", "else", "end if"}

	clause := &ast.IfClause{
		Base:      p.base(ast.KindIfClause, tok.Start, cond.End()),
		Condition: cond,
	}
	clause.Body = p.parseBlockBody(terminators)
	clause.EndPos = p.prevToken.End
	stmt.Clauses = append(stmt.Clauses, clause)

	for p.fatal == nil && p.curToken.IsKeyword("else if") {
		elifTok := p.curToken
		p.nextToken()
		elifCond := p.parseExpr(dialect.PrecedenceLowest)
		if elifCond == nil {
			return
		}
		if err := p.expectKeyword("then", "else if clause"); err != nil {
			p.raiseDiscard(err)
			return
		}
		elif := &ast.IfClause{
			Base:      p.base(ast.KindElseifClause, elifTok.Start, elifCond.End()),
			Condition: elifCond,
		}
		elif.Body = p.parseBlockBody(terminators)
		elif.EndPos = p.prevToken.End
		stmt.Clauses = append(stmt.Clauses, elif)
	}

	if p.curToken.IsKeyword("else") {
		elseTok := p.curToken
		p.nextToken()
		elseClause := &ast.IfClause{
			Base: p.base(ast.KindElseClause, elseTok.Start, elseTok.End),
		}
		elseClause.Body = p.parseBlockBody([]string{"end if"})
		elseClause.EndPos = p.prevToken.End
		stmt.Clauses = append(stmt.Clauses, elseClause)
	}

	if p.curToken.IsKeyword("end if") {
		stmt.EndPos = p.curToken.End
		p.nextToken()
		return
	}

	// The terminator is missing. A nested shortcut if may have consumed it;
	// donate that token to this statement and give the shortcut back its
	// true end.
	if n := len(p.pendingIfs); n > 0 {
		pending := p.pendingIfs[n-1]
		p.pendingIfs = p.pendingIfs[:n-1]
		stmt.EndPos = pending.statement.End()
		pending.statement.EndPos = pending.endBefore
		return
	}

	p.raiseDiscard(perrors.NewWithPosition(perrors.CodeUnbalancedIfShortcut,
		p.curToken.Line, p.curToken.Start.Character, nil))
	stmt.EndPos = p.prevToken.End
}

// parseIfShortcutClauses parses the single-line clause chain. A trailing
// 'end if' is consumed but remembered on the pending stack, since an
// enclosing block if-statement may turn out to own it.
func (p *Parser) parseIfShortcutClauses(stmt *ast.IfStatement, tok lexer.Token, cond ast.Node) {
	clause := &ast.IfClause{
		Base:      p.base(ast.KindIfClause, tok.Start, cond.End()),
		Condition: cond,
	}
	clause.Body = p.parseShortcutBody()
	clause.EndPos = p.prevToken.End
	stmt.Clauses = append(stmt.Clauses, clause)

	for p.fatal == nil && p.curToken.IsKeyword("else if") {
		elifTok := p.curToken
		p.nextToken()
		elifCond := p.parseExpr(dialect.PrecedenceLowest)
		if elifCond == nil {
			return
		}
		if err := p.expectKeyword("then", "else if clause"); err != nil {
			p.raiseDiscard(err)
			return
		}
		elif := &ast.IfClause{
			Base:      p.base(ast.KindElseifClause, elifTok.Start, elifCond.End()),
			Condition: elifCond,
		}
		elif.Body = p.parseShortcutBody()
		elif.EndPos = p.prevToken.End
		stmt.Clauses = append(stmt.Clauses, elif)
	}

	if p.curToken.IsKeyword("else") {
		elseTok := p.curToken
		p.nextToken()
		elseClause := &ast.IfClause{
			Base: p.base(ast.KindElseClause, elseTok.Start, elseTok.End),
		}
		elseClause.Body = p.parseShortcutBody()
		elseClause.EndPos = p.prevToken.End
		stmt.Clauses = append(stmt.Clauses, elseClause)
	}

	stmt.EndPos = p.prevToken.End

	if p.curToken.IsKeyword("end if") {
		endBefore := stmt.EndPos
		stmt.EndPos = p.curToken.End
		p.pendingIfs = append(p.pendingIfs, pendingIf{statement: stmt, endBefore: endBefore})
		p.nextToken()
	}
}

// parseNativeImport parses import_code("path"[, "fs_path"]). Both arguments
// must be hardcoded string literals.
func (p *Parser) parseNativeImport() ast.Node {
	tok := p.curToken
	p.nextToken()

	if err := p.expectPunct("(", "import_code"); err != nil {
		return p.raise(err)
	}

	if p.curToken.Type != lexer.STRING {
		return p.raise(p.malformedImport())
	}
	path := p.makeStringLiteral(p.curToken)
	p.nextToken()

	var fsPath *ast.StringLiteral
	if p.consumePunct(",") {
		if p.curToken.Type != lexer.STRING {
			return p.raise(p.malformedImport())
		}
		fsPath = p.makeStringLiteral(p.curToken)
		p.nextToken()
	}

	if err := p.expectPunct(")", "import_code"); err != nil {
		return p.raise(err)
	}

	node := &ast.ImportCodeExpression{
		Base:           p.base(ast.KindImportCodeExpression, tok.Start, p.prevToken.End),
		Path:           path,
		FileSystemPath: fsPath,
	}
	p.nativeImports = append(p.nativeImports, node)
	return node
}

// malformedImport builds the dedicated import_code argument error.
func (p *Parser) malformedImport() *perrors.ParserError {
	tok := p.curToken
	err := perrors.NewWithPosition(perrors.CodeMalformedImportCode, tok.Line, tok.Start.Character, nil)
	err.EndLine = tok.End.Line
	err.EndColumn = tok.End.Character
	return err
}

// ----------------------------------------------------------------------------
// Expressions
// ----------------------------------------------------------------------------

// binaryOp returns the current token as a binary operator and its
// precedence, or zero when the token cannot continue a binary expression.
func (p *Parser) binaryOp() (string, int) {
	tok := p.curToken
	if tok.Type != lexer.PUNCT && tok.Type != lexer.KEYWORD {
		return "", 0
	}
	return tok.Literal, p.precedence.Precedence(tok.Literal)
}

// parseExpr parses a binary expression by precedence climbing: operators are
// consumed while their precedence exceeds minPrec. The power operator
// recurses with its own precedence decremented, making it right-associative.
func (p *Parser) parseExpr(minPrec int) ast.Node {
	left := p.parseUnary()
	if left == nil {
		return nil
	}

	for p.fatal == nil {
		op, prec := p.binaryOp()
		if prec <= minPrec {
			break
		}
		p.nextToken()

		nextMin := prec
		if op == "^" {
			nextMin = prec - 1
		}
		right := p.parseExpr(nextMin)
		if right == nil {
			return nil
		}

		if op == "and" || op == "or" {
			left = &ast.LogicalExpression{
				Base:     p.base(ast.KindLogicalExpression, left.Start(), right.End()),
				Operator: op,
				Left:     left,
				Right:    right,
			}
		} else {
			left = &ast.BinaryExpression{
				Base:     p.base(ast.KindBinaryExpression, left.Start(), right.End()),
				Operator: op,
				Left:     left,
				Right:    right,
			}
		}
	}
	return left
}

// parseUnary parses prefix operators. Which prefixes may nest under which is
// restricted: not wraps any further prefix, new wraps a postfix chain, minus
// and plus wrap a postfix chain or an address-of, and address-of wraps only
// a postfix chain.
func (p *Parser) parseUnary() ast.Node {
	tok := p.curToken

	switch {
	case tok.IsKeyword("not"):
		p.nextToken()
		arg := p.parseUnary()
		return p.makeUnary("not", tok, arg)

	case tok.IsKeyword("new"):
		p.nextToken()
		arg := p.parsePostfix()
		return p.makeUnary("new", tok, arg)

	case tok.IsPunct("-") || tok.IsPunct("+"):
		p.nextToken()
		var arg ast.Node
		if p.curToken.IsPunct("@") {
			arg = p.parseUnary()
		} else {
			arg = p.parsePostfix()
		}
		return p.makeUnary(tok.Literal, tok, arg)

	case tok.IsPunct("@"):
		p.nextToken()
		arg := p.parsePostfix()
		return p.makeUnary("@", tok, arg)

	default:
		return p.parsePostfix()
	}
}

// makeUnary builds a UnaryExpression, tolerating a nil argument from a
// strict-mode abort.
func (p *Parser) makeUnary(op string, tok lexer.Token, arg ast.Node) ast.Node {
	if arg == nil {
		return nil
	}
	return &ast.UnaryExpression{
		Base:     p.base(ast.KindUnaryExpression, tok.Start, arg.End()),
		Operator: op,
		Argument: arg,
	}
}

// parsePostfix parses a primary followed by a greedy chain of member
// accesses, index or slice expressions, and calls.
func (p *Parser) parsePostfix() ast.Node {
	base := p.parsePrimary()
	if base == nil {
		return nil
	}

	for p.fatal == nil {
		switch {
		case p.curToken.IsPunct("."):
			if fused, ok := p.floatContinuation(base); ok {
				base = fused
				continue
			}
			p.nextToken()
			if p.curToken.Type != lexer.IDENT {
				return p.raise(p.unexpectedToken("member name"))
			}
			prop := p.parseIdentifier(false)
			base = &ast.MemberExpression{
				Base:     p.base(ast.KindMemberExpression, base.Start(), prop.End()),
				Object:   base,
				Property: prop,
			}

		case p.curToken.IsPunct("["):
			base = p.parseIndexOrSlice(base)
			if base == nil {
				return nil
			}

		case p.curToken.IsPunct("("):
			if p.curToken.Line != base.End().Line {
				tok := p.curToken
				err := perrors.NewWithPosition(perrors.CodeInvalidCallArgsAcrossLines,
					tok.Line, tok.Start.Character, nil)
				return p.raise(err)
			}
			base = p.parseCallExpression(base)
			if base == nil {
				return nil
			}

		default:
			return base
		}
	}
	return base
}

// floatContinuation fuses a number literal, a '.', and a following number
// into one literal (1 . 5 never reaches here; the lexer already scanned
// 1.5). The rule peeks exactly one token past the dot and only fires when
// that token is a number on the same line and the fused span is itself a
// valid number.
func (p *Parser) floatContinuation(base ast.Node) (ast.Node, bool) {
	num, ok := base.(*ast.NumberLiteral)
	if !ok {
		return nil, false
	}
	frac := p.peek(1)
	if frac.Type != lexer.NUMBER || frac.Line != p.curToken.Line {
		return nil, false
	}
	raw := num.Raw + "." + frac.Literal
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		// The fusion would not be a valid number (".5.6" and friends).
		// Decline without consuming so the dot is reported as a member
		// access on a non-identifier.
		return nil, false
	}

	p.nextToken() // onto the fraction
	num.Raw = raw
	num.Value = value
	num.EndPos = p.curToken.End
	p.nextToken()
	return num, true
}

// parseIndexOrSlice parses base[index], base[left:right], base[:right], and
// base[left:]. Newlines are permitted inside the brackets.
func (p *Parser) parseIndexOrSlice(base ast.Node) ast.Node {
	open := p.curToken
	p.nextToken()
	p.skipEOLs()

	if p.curToken.Type == lexer.SLICE {
		p.nextToken()
		p.skipEOLs()
		var right ast.Node
		if !p.curToken.IsPunct("]") {
			right = p.parseExpr(dialect.PrecedenceLowest)
			if right == nil {
				return nil
			}
		}
		if err := p.expectClose("]", open, "slice expression"); err != nil {
			return p.raise(err)
		}
		return &ast.SliceExpression{
			Base:   p.base(ast.KindSliceExpression, base.Start(), p.prevToken.End),
			Object: base,
			Right:  right,
		}
	}

	index := p.parseExpr(dialect.PrecedenceLowest)
	if index == nil {
		return nil
	}

	if p.curToken.Type == lexer.SLICE {
		p.nextToken()
		p.skipEOLs()
		var right ast.Node
		if !p.curToken.IsPunct("]") {
			right = p.parseExpr(dialect.PrecedenceLowest)
			if right == nil {
				return nil
			}
		}
		if err := p.expectClose("]", open, "slice expression"); err != nil {
			return p.raise(err)
		}
		return &ast.SliceExpression{
			Base:   p.base(ast.KindSliceExpression, base.Start(), p.prevToken.End),
			Object: base,
			Left:   index,
			Right:  right,
		}
	}

	if err := p.expectClose("]", open, "index expression"); err != nil {
		return p.raise(err)
	}
	return &ast.IndexExpression{
		Base:   p.base(ast.KindIndexExpression, base.Start(), p.prevToken.End),
		Object: base,
		Index:  index,
	}
}

// expectClose consumes a closing bracket, reporting the line the construct
// opened on when it is missing.
func (p *Parser) expectClose(literal string, open lexer.Token, what string) *perrors.ParserError {
	if p.consumePunct(literal) {
		return nil
	}
	return p.unexpectedToken("'" + literal + "' closing " + what + " opened at line " +
		strconv.Itoa(open.Line))
}

// parseCallExpression parses an argument list. Newlines are permitted
// between arguments.
func (p *Parser) parseCallExpression(base ast.Node) ast.Node {
	open := p.curToken
	p.nextToken()
	p.skipEOLs()

	var args []ast.Node
	for p.fatal == nil && !p.curToken.IsPunct(")") && p.curToken.Type != lexer.EOF {
		arg := p.parseExpr(dialect.PrecedenceLowest)
		if arg == nil {
			return nil
		}
		args = append(args, arg)
		p.skipEOLs()
		if !p.consumePunct(",") {
			break
		}
		p.skipEOLs()
	}

	if err := p.expectClose(")", open, "argument list"); err != nil {
		return p.raise(err)
	}
	return &ast.CallExpression{
		Base:      p.base(ast.KindCallExpression, base.Start(), p.prevToken.End),
		Callee:    base,
		Arguments: args,
	}
}

// parsePrimary parses literals, identifiers, parenthesized groups, list and
// map literals, function literals, and import_code in expression position.
func (p *Parser) parsePrimary() ast.Node {
	tok := p.curToken

	switch tok.Type {
	case lexer.NUMBER:
		value, err := strconv.ParseFloat(tok.Literal, 64)
		if err != nil {
			return p.raise(p.unexpectedToken("valid number literal"))
		}
		p.nextToken()
		lit := &ast.NumberLiteral{
			Base:  p.base(ast.KindNumberLiteral, tok.Start, tok.End),
			Value: value,
			Raw:   tok.Literal,
		}
		p.literals = append(p.literals, lit)
		return lit

	case lexer.STRING:
		lit := p.makeStringLiteral(tok)
		p.nextToken()
		return lit

	case lexer.IDENT:
		switch tok.Literal {
		case "true", "false":
			p.nextToken()
			lit := &ast.BooleanLiteral{
				Base:  p.base(ast.KindBooleanLiteral, tok.Start, tok.End),
				Value: tok.Literal == "true",
			}
			p.literals = append(p.literals, lit)
			return lit
		case "null":
			p.nextToken()
			lit := &ast.NilLiteral{
				Base: p.base(ast.KindNilLiteral, tok.Start, tok.End),
			}
			p.literals = append(p.literals, lit)
			return lit
		default:
			return p.parseIdentifier(true)
		}

	case lexer.KEYWORD:
		switch tok.Literal {
		case "function":
			return p.parseFunctionDeclaration()
		case "import_code":
			return p.parseNativeImport()
		}
		return p.raise(p.unexpectedToken("expression"))

	case lexer.PUNCT:
		switch tok.Literal {
		case "(":
			return p.parseParenExpression()
		case "[":
			return p.parseListLiteral()
		case "{":
			return p.parseMapLiteral()
		}
		return p.raise(p.unexpectedToken("expression"))

	default:
		return p.raise(p.unexpectedToken("expression"))
	}
}

// makeStringLiteral builds a StringLiteral and records it in the literal
// pool.
func (p *Parser) makeStringLiteral(tok lexer.Token) *ast.StringLiteral {
	lit := &ast.StringLiteral{
		Base:  p.base(ast.KindStringLiteral, tok.Start, tok.End),
		Value: tok.Literal,
	}
	p.literals = append(p.literals, lit)
	return lit
}

// parseIdentifier builds an Identifier and advances. Free identifiers that
// are not recognized builtins are recorded in the current scope's namespace
// set; member property names are not.
func (p *Parser) parseIdentifier(addToNamespace bool) *ast.Identifier {
	tok := p.curToken
	p.nextToken()

	if addToNamespace && !p.natives.IsNative(tok.Literal) {
		p.currentScope.AddNamespace(tok.Literal)
	}
	return &ast.Identifier{
		Base: p.base(ast.KindIdentifier, tok.Start, tok.End),
		Name: tok.Literal,
	}
}

// parseParenExpression parses a parenthesized group.
func (p *Parser) parseParenExpression() ast.Node {
	open := p.curToken
	p.nextToken()
	p.skipEOLs()

	expr := p.parseExpr(dialect.PrecedenceLowest)
	if expr == nil {
		return nil
	}
	p.skipEOLs()

	if err := p.expectClose(")", open, "parenthesized expression"); err != nil {
		return p.raise(err)
	}
	return &ast.ParenExpression{
		Base:       p.base(ast.KindParenExpression, open.Start, p.prevToken.End),
		Expression: expr,
	}
}

// parseListLiteral parses [a, b, c] with newlines permitted between
// elements. An empty literal is valid.
func (p *Parser) parseListLiteral() ast.Node {
	open := p.curToken
	p.nextToken()
	p.skipEOLs()

	var elements []ast.Node
	for p.fatal == nil && !p.curToken.IsPunct("]") && p.curToken.Type != lexer.EOF {
		el := p.parseExpr(dialect.PrecedenceLowest)
		if el == nil {
			return nil
		}
		elements = append(elements, el)
		p.skipEOLs()
		if !p.consumePunct(",") {
			break
		}
		p.skipEOLs()
	}

	if err := p.expectClose("]", open, "list literal"); err != nil {
		return p.raise(err)
	}
	return &ast.ListLiteral{
		Base:     p.base(ast.KindListLiteral, open.Start, p.prevToken.End),
		Elements: elements,
	}
}

// parseMapLiteral parses {key: value, ...} with newlines permitted between
// entries. An empty literal is valid.
func (p *Parser) parseMapLiteral() ast.Node {
	open := p.curToken
	p.nextToken()
	p.skipEOLs()

	var entries []ast.MapEntry
	for p.fatal == nil && !p.curToken.IsPunct("}") && p.curToken.Type != lexer.EOF {
		key := p.parseExpr(dialect.PrecedenceLowest)
		if key == nil {
			return nil
		}
		if p.curToken.Type != lexer.SLICE {
			return p.raise(p.unexpectedToken("':' in map entry"))
		}
		p.nextToken()
		p.skipEOLs()
		value := p.parseExpr(dialect.PrecedenceLowest)
		if value == nil {
			return nil
		}
		entries = append(entries, ast.MapEntry{Key: key, Value: value})
		p.skipEOLs()
		if !p.consumePunct(",") {
			break
		}
		p.skipEOLs()
	}

	if err := p.expectClose("}", open, "map literal"); err != nil {
		return p.raise(err)
	}
	return &ast.MapLiteral{
		Base:    p.base(ast.KindMapLiteral, open.Start, p.prevToken.End),
		Entries: entries,
	}
}

// parseFunctionDeclaration parses a function literal. The function's scope
// is pushed before the parameter list so default-value expressions resolve
// against the function's own scope, and popped right after the body.
func (p *Parser) parseFunctionDeclaration() ast.Node {
	tok := p.curToken

	fn := &ast.FunctionDeclaration{
		Base:   p.base(ast.KindFunctionDeclaration, tok.Start, tok.End),
		Parent: p.currentScope,
	}
	p.pushScope(fn)
	defer p.popScope()

	p.nextToken()

	if p.curToken.IsPunct("(") {
		open := p.curToken
		p.nextToken()

		for p.fatal == nil && !p.curToken.IsPunct(")") && p.curToken.Type != lexer.EOF {
			if p.curToken.Type != lexer.IDENT {
				return p.raise(p.unexpectedToken("parameter name"))
			}
			param := p.parseIdentifier(true)

			if p.consumePunct("=") {
				def := p.parseExpr(dialect.PrecedenceLowest)
				if def == nil {
					return nil
				}
				defaulted := &ast.AssignmentStatement{
					Base:   p.base(ast.KindAssignmentStatement, param.Start(), def.End()),
					Target: param,
					Value:  def,
				}
				p.currentScope.AddAssignment(defaulted)
				fn.Parameters = append(fn.Parameters, defaulted)
			} else {
				fn.Parameters = append(fn.Parameters, param)
			}

			if !p.consumePunct(",") {
				break
			}
		}

		if err := p.expectClose(")", open, "parameter list"); err != nil {
			return p.raise(err)
		}
	}

	fn.Body = p.parseBlockBody([]string{"end function"})
	if err := p.expectKeyword("end function", "function declaration"); err != nil {
		p.raiseDiscard(err)
	}
	fn.EndPos = p.prevToken.End
	return fn
}
