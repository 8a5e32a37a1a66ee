package syntax

import "github.com/mrzdevcore/haira/ast"

// block = '{' {stmt_line} '}'
func (p *Parser) parseBlock() (*ast.Block, bool) {
	start := p.tok.Span
	if !p.expect(TOK_LBRACE) {
		return nil, false
	}
	p.skipNewlines()

	var stmts []ast.Stmt
	for !p.got(TOK_RBRACE) {
		stmt, ok := p.parseStmt()
		if !ok {
			return nil, false
		}
		stmts = append(stmts, stmt)
		p.skipNewlines()
	}

	if !p.expect(TOK_RBRACE) {
		return nil, false
	}
	return &ast.Block{Base: ast.NewBase(p.span(start)), Stmts: stmts}, true
}

// stmt = let_stmt | for_stmt | while_stmt | return_stmt | break_stmt
//      | continue_stmt | assign_or_expr_stmt
func (p *Parser) parseStmt() (ast.Stmt, bool) {
	switch p.tok.Kind {
	case TOK_LET:
		return p.parseLetStmt()
	case TOK_FOR:
		return p.parseForStmt()
	case TOK_WHILE:
		return p.parseWhileStmt()
	case TOK_RETURN:
		return p.parseReturnStmt()
	case TOK_BREAK:
		start := p.tok.Span
		if !p.next() {
			return nil, false
		}
		return &ast.BreakStmt{Base: ast.NewBase(p.span(start))}, true
	case TOK_CONTINUE:
		start := p.tok.Span
		if !p.next() {
			return nil, false
		}
		return &ast.ContinueStmt{Base: ast.NewBase(p.span(start))}, true
	default:
		return p.parseAssignOrExprStmt()
	}
}

// let_stmt = 'let' ['mut'] IDENT [':' type_expr] '=' expr
func (p *Parser) parseLetStmt() (ast.Stmt, bool) {
	start := p.tok.Span
	if !p.next() { // past 'let'
		return nil, false
	}

	mutable := false
	if p.got(TOK_MUT) {
		mutable = true
		if !p.next() {
			return nil, false
		}
	}

	if !p.assert(TOK_IDENT) {
		return nil, false
	}
	name := p.tok.Value
	if !p.next() {
		return nil, false
	}

	var typ ast.TypeExpr
	if p.got(TOK_COLON) {
		if !p.next() {
			return nil, false
		}
		t, ok := p.parseTypeExpr()
		if !ok {
			return nil, false
		}
		typ = t
	}

	if !p.expect(TOK_ASSIGN) {
		return nil, false
	}

	value, ok := p.parseExpr()
	if !ok {
		return nil, false
	}

	return &ast.LetStmt{
		Base:    ast.NewBase(p.span(start)),
		Name:    name,
		Mutable: mutable,
		Type:    typ,
		Value:   value,
	}, true
}

// for_stmt = 'for' IDENT 'in' expr block
func (p *Parser) parseForStmt() (ast.Stmt, bool) {
	start := p.tok.Span
	if !p.next() { // past 'for'
		return nil, false
	}
	if !p.assert(TOK_IDENT) {
		return nil, false
	}
	binder := p.tok.Value
	if !p.next() {
		return nil, false
	}
	if !p.expect(TOK_IN) {
		return nil, false
	}
	iter, ok := p.parseExpr()
	if !ok {
		return nil, false
	}
	body, ok := p.parseBlock()
	if !ok {
		return nil, false
	}
	return &ast.ForStmt{
		Base:   ast.NewBase(p.span(start)),
		Binder: binder,
		Iter:   iter,
		Body:   body,
	}, true
}

// while_stmt = 'while' expr block
func (p *Parser) parseWhileStmt() (ast.Stmt, bool) {
	start := p.tok.Span
	if !p.next() { // past 'while'
		return nil, false
	}
	cond, ok := p.parseExpr()
	if !ok {
		return nil, false
	}
	body, ok := p.parseBlock()
	if !ok {
		return nil, false
	}
	return &ast.WhileStmt{Base: ast.NewBase(p.span(start)), Cond: cond, Body: body}, true
}

// return_stmt = 'return' [expr]
func (p *Parser) parseReturnStmt() (ast.Stmt, bool) {
	start := p.tok.Span
	if !p.next() { // past 'return'
		return nil, false
	}
	if p.got(TOK_NEWLINE) || p.got(TOK_RBRACE) || p.got(TOK_EOF) {
		return &ast.ReturnStmt{Base: ast.NewBase(p.span(start))}, true
	}
	val, ok := p.parseExpr()
	if !ok {
		return nil, false
	}
	return &ast.ReturnStmt{Base: ast.NewBase(p.span(start)), Value: val}, true
}

var compoundAssignOps = map[TokenKind]string{
	TOK_ASSIGN:  "=",
	TOK_PLUSEQ:  "+=",
	TOK_MINUSEQ: "-=",
	TOK_STAREQ:  "*=",
	TOK_SLASHEQ: "/=",
}

// assign_or_expr_stmt = expr [('=' | '+=' | '-=' | '*=' | '/=') expr]
func (p *Parser) parseAssignOrExprStmt() (ast.Stmt, bool) {
	start := p.tok.Span
	lhs, ok := p.parseExpr()
	if !ok {
		return nil, false
	}

	if op, isAssign := compoundAssignOps[p.tok.Kind]; isAssign {
		if !p.next() {
			return nil, false
		}
		rhs, ok := p.parseExpr()
		if !ok {
			return nil, false
		}
		return &ast.AssignStmt{Base: ast.NewBase(p.span(start)), Op: op, LHS: lhs, RHS: rhs}, true
	}

	return &ast.ExprStmt{Base: ast.NewBase(p.span(start)), X: lhs}, true
}
