package syntax

import "github.com/mrzdevcore/haira/ast"

// type_expr = func_type_expr | generic_type_expr | named_type_expr
func (p *Parser) parseTypeExpr() (ast.TypeExpr, bool) {
	start := p.tok.Span

	if p.got(TOK_LPAREN) {
		if !p.next() {
			return nil, false
		}
		var params []ast.TypeExpr
		for !p.got(TOK_RPAREN) {
			t, ok := p.parseTypeExpr()
			if !ok {
				return nil, false
			}
			params = append(params, t)
			if p.got(TOK_COMMA) {
				if !p.next() {
					return nil, false
				}
			} else {
				break
			}
		}
		if !p.expect(TOK_RPAREN) {
			return nil, false
		}
		if !p.expect(TOK_ARROW) {
			return nil, false
		}
		ret, ok := p.parseTypeExpr()
		if !ok {
			return nil, false
		}
		return &ast.FuncTypeExpr{Base: ast.NewBase(p.span(start)), Params: params, Return: ret}, true
	}

	if !p.assert(TOK_IDENT) {
		return nil, false
	}
	name := p.tok.Value
	if !p.next() {
		return nil, false
	}

	if p.got(TOK_LPAREN) {
		if !p.next() {
			return nil, false
		}
		var args []ast.TypeExpr
		for !p.got(TOK_RPAREN) {
			t, ok := p.parseTypeExpr()
			if !ok {
				return nil, false
			}
			args = append(args, t)
			if p.got(TOK_COMMA) {
				if !p.next() {
					return nil, false
				}
			} else {
				break
			}
		}
		if !p.expect(TOK_RPAREN) {
			return nil, false
		}
		return &ast.GenericTypeExpr{Base: ast.NewBase(p.span(start)), Name: name, Args: args}, true
	}

	return &ast.NamedTypeExpr{Base: ast.NewBase(p.span(start)), Name: name}, true
}
