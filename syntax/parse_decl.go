package syntax

import (
	"github.com/mrzdevcore/haira/ast"
)

// def = ['pub'] (func_def | ai_func_decl | rec_def | union_def)
func (p *Parser) parseDef() (ast.Def, bool) {
	public := false
	if p.got(TOK_PUB) {
		public = true
		if !p.next() {
			return nil, false
		}
	}

	switch p.tok.Kind {
	case TOK_FUNC:
		return p.parseFuncDef(public)
	case TOK_AI:
		return p.parseAIFuncDecl(public)
	case TOK_REC:
		return p.parseRecordDef(public)
	case TOK_UNION:
		return p.parseUnionDef(public)
	default:
		p.reject("a definition (`func`, `ai`, `rec`, or `union`)")
		return nil, false
	}
}

// func_def = 'func' IDENT param_list ['->' type_expr] block
func (p *Parser) parseFuncDef(public bool) (ast.Def, bool) {
	start := p.tok.Span
	if !p.next() { // past 'func'
		return nil, false
	}
	if !p.assert(TOK_IDENT) {
		return nil, false
	}
	name := p.tok.Value
	if !p.next() {
		return nil, false
	}

	params, ok := p.parseParamList()
	if !ok {
		return nil, false
	}

	var ret ast.TypeExpr
	if p.got(TOK_ARROW) {
		if !p.next() {
			return nil, false
		}
		ret, ok = p.parseTypeExpr()
		if !ok {
			return nil, false
		}
	}

	body, ok := p.parseBlock()
	if !ok {
		return nil, false
	}

	return &ast.FuncDef{
		Base:       ast.NewBase(p.span(start)),
		Name:       name,
		Params:     params,
		ReturnType: ret,
		Body:       body,
		Public:     public,
	}, true
}

// ai_func_decl = 'ai' IDENT param_list ['->' type_expr] '{' STRINGLIT '}'
func (p *Parser) parseAIFuncDecl(public bool) (ast.Def, bool) {
	start := p.tok.Span
	if !p.next() { // past 'ai'
		return nil, false
	}
	if !p.assert(TOK_IDENT) {
		return nil, false
	}
	name := p.tok.Value
	if !p.next() {
		return nil, false
	}

	params, ok := p.parseParamList()
	if !ok {
		return nil, false
	}

	var ret ast.TypeExpr
	if p.got(TOK_ARROW) {
		if !p.next() {
			return nil, false
		}
		ret, ok = p.parseTypeExpr()
		if !ok {
			return nil, false
		}
	}

	if !p.expect(TOK_LBRACE) {
		return nil, false
	}
	p.skipNewlines()
	if !p.assert(TOK_STRINGLIT) {
		return nil, false
	}
	intent := p.tok.Value
	if !p.next() {
		return nil, false
	}
	p.skipNewlines()
	if !p.expect(TOK_RBRACE) {
		return nil, false
	}

	return &ast.AIFuncDecl{
		Base:       ast.NewBase(p.span(start)),
		Name:       name,
		Params:     params,
		ReturnType: ret,
		IntentText: intent,
		Public:     public,
	}, true
}

// param_list = '(' [param {',' param}] ')'
// param = IDENT [':' type_expr]
func (p *Parser) parseParamList() ([]ast.Param, bool) {
	if !p.expect(TOK_LPAREN) {
		return nil, false
	}

	var params []ast.Param
	for !p.got(TOK_RPAREN) {
		if !p.assert(TOK_IDENT) {
			return nil, false
		}
		param := ast.Param{Name: p.tok.Value}
		if !p.next() {
			return nil, false
		}
		if p.got(TOK_COLON) {
			if !p.next() {
				return nil, false
			}
			typ, ok := p.parseTypeExpr()
			if !ok {
				return nil, false
			}
			param.Type = typ
		}
		params = append(params, param)

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
	return params, true
}

// rec_def = 'rec' IDENT '{' {rec_field} '}'
// rec_field = IDENT ':' type_expr
func (p *Parser) parseRecordDef(public bool) (ast.Def, bool) {
	start := p.tok.Span
	if !p.next() { // past 'rec'
		return nil, false
	}
	if !p.assert(TOK_IDENT) {
		return nil, false
	}
	name := p.tok.Value
	if !p.next() {
		return nil, false
	}

	if !p.expect(TOK_LBRACE) {
		return nil, false
	}
	p.skipNewlines()

	var fields []ast.RecordField
	for !p.got(TOK_RBRACE) {
		if !p.assert(TOK_IDENT) {
			return nil, false
		}
		fname := p.tok.Value
		if !p.next() {
			return nil, false
		}
		if !p.expect(TOK_COLON) {
			return nil, false
		}
		ftype, ok := p.parseTypeExpr()
		if !ok {
			return nil, false
		}
		fields = append(fields, ast.RecordField{Name: fname, Type: ftype})
		p.skipNewlines()
		if p.got(TOK_COMMA) {
			if !p.next() {
				return nil, false
			}
			p.skipNewlines()
		}
	}

	if !p.expect(TOK_RBRACE) {
		return nil, false
	}

	return &ast.RecordDef{
		Base:   ast.NewBase(p.span(start)),
		Name:   name,
		Fields: fields,
		Public: public,
	}, true
}

// union_def = 'union' IDENT '{' {union_variant} '}'
// union_variant = IDENT ['(' {rec_field} ')']
func (p *Parser) parseUnionDef(public bool) (ast.Def, bool) {
	start := p.tok.Span
	if !p.next() { // past 'union'
		return nil, false
	}
	if !p.assert(TOK_IDENT) {
		return nil, false
	}
	name := p.tok.Value
	if !p.next() {
		return nil, false
	}

	if !p.expect(TOK_LBRACE) {
		return nil, false
	}
	p.skipNewlines()

	var variants []ast.UnionVariant
	for !p.got(TOK_RBRACE) {
		if !p.assert(TOK_IDENT) {
			return nil, false
		}
		vname := p.tok.Value
		if !p.next() {
			return nil, false
		}

		var vfields []ast.RecordField
		if p.got(TOK_LPAREN) {
			if !p.next() {
				return nil, false
			}
			for !p.got(TOK_RPAREN) {
				if !p.assert(TOK_IDENT) {
					return nil, false
				}
				fname := p.tok.Value
				if !p.next() {
					return nil, false
				}
				if !p.expect(TOK_COLON) {
					return nil, false
				}
				ftype, ok := p.parseTypeExpr()
				if !ok {
					return nil, false
				}
				vfields = append(vfields, ast.RecordField{Name: fname, Type: ftype})
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
		}

		variants = append(variants, ast.UnionVariant{Name: vname, Fields: vfields})
		p.skipNewlines()
		if p.got(TOK_COMMA) {
			if !p.next() {
				return nil, false
			}
			p.skipNewlines()
		}
	}

	if !p.expect(TOK_RBRACE) {
		return nil, false
	}

	return &ast.UnionDef{
		Base:     ast.NewBase(p.span(start)),
		Name:     name,
		Variants: variants,
		Public:   public,
	}, true
}
