package syntax

import (
	"strconv"

	"github.com/mrzdevcore/haira/ast"
	"github.com/mrzdevcore/haira/report"
)

// expr = if_expr | match_expr | binop_expr
func (p *Parser) parseExpr() (ast.Expr, bool) {
	switch p.tok.Kind {
	case TOK_IF:
		return p.parseIfExpr()
	case TOK_MATCH:
		return p.parseMatchExpr()
	default:
		return p.parseRangeExpr()
	}
}

// range_expr = binop_expr [('..' | '..=') binop_expr]
func (p *Parser) parseRangeExpr() (ast.Expr, bool) {
	start := p.tok.Span
	lo, ok := p.parseBinOpExpr()
	if !ok {
		return nil, false
	}
	if p.got(TOK_DOTDOT) || p.got(TOK_DOTDOTEQ) {
		inclusive := p.got(TOK_DOTDOTEQ)
		if !p.next() {
			return nil, false
		}
		hi, ok := p.parseBinOpExpr()
		if !ok {
			return nil, false
		}
		return &ast.Range{Base: ast.NewBase(p.span(start)), Start: lo, End: hi, Inclusive: inclusive}, true
	}
	return lo, true
}

// precTable is ordered lowest to highest precedence, mirroring the teacher's
// table-driven precedence climb (bootstrap/syntax/parse_expr.go).
var precTable = [][]TokenKind{
	{TOK_OR},
	{TOK_AND},
	{TOK_EQ, TOK_NEQ},
	{TOK_LT, TOK_GT, TOK_LTEQ, TOK_GTEQ},
	{TOK_PLUS, TOK_MINUS},
	{TOK_STAR, TOK_SLASH, TOK_PERCENT},
}

func (p *Parser) parseBinOpExpr() (ast.Expr, bool) {
	lhs, ok := p.parsePipeExpr()
	if !ok {
		return nil, false
	}
	return p.precedenceParse(lhs, len(precTable))
}

func (p *Parser) precedenceParse(lhs ast.Expr, maxPrec int) (ast.Expr, bool) {
	for {
		var opTok Token
		var opPrec int
		found := false
		for prec, level := range precTable[:maxPrec] {
			if p.gotOneOf(level...) {
				opTok = p.tok
				opPrec = prec
				found = true
				break
			}
		}
		if !found {
			return lhs, true
		}

		if !p.next() {
			return nil, false
		}

		rhs, ok := p.parsePipeExpr()
		if !ok {
			return nil, false
		}

		for {
			nextFound := false
			for prec, level := range precTable[:opPrec] {
				if p.gotOneOf(level...) {
					rhs, ok = p.precedenceParse(rhs, prec+1)
					if !ok {
						return nil, false
					}
					nextFound = true
					break
				}
			}
			if !nextFound {
				break
			}
		}

		lhs = &ast.BinaryOp{
			Base:  ast.NewBase(report.Over(lhs.Span(), rhs.Span())),
			Op:    opString(opTok.Kind),
			Left:  lhs,
			Right: rhs,
		}
	}
}

var opStrings = map[TokenKind]string{
	TOK_OR:    "||",
	TOK_AND:   "&&",
	TOK_EQ:    "==",
	TOK_NEQ:   "!=",
	TOK_LT:    "<",
	TOK_GT:    ">",
	TOK_LTEQ:  "<=",
	TOK_GTEQ:  ">=",
	TOK_PLUS:  "+",
	TOK_MINUS: "-",
	TOK_STAR:  "*",
	TOK_SLASH: "/",
	TOK_PERCENT: "%",
}

func opString(k TokenKind) string {
	if s, ok := opStrings[k]; ok {
		return s
	}
	return "?"
}

// parsePipeExpr = unary_expr {'|' call}
func (p *Parser) parsePipeExpr() (ast.Expr, bool) {
	start := p.tok.Span
	lhs, ok := p.parseUnaryExpr()
	if !ok {
		return nil, false
	}
	for p.got(TOK_PIPE) {
		if !p.next() {
			return nil, false
		}
		callExpr, ok := p.parsePostfixExpr()
		if !ok {
			return nil, false
		}
		call, ok := callExpr.(*ast.Call)
		if !ok {
			p.reject("a function call after `|`")
			return nil, false
		}
		lhs = &ast.Pipe{Base: ast.NewBase(p.span(start)), Value: lhs, Call: call}
	}
	return lhs, true
}

// unary_expr = ('-' | '!') unary_expr | postfix_expr
func (p *Parser) parseUnaryExpr() (ast.Expr, bool) {
	if p.got(TOK_MINUS) || p.got(TOK_NOT) {
		start := p.tok.Span
		op := "-"
		if p.got(TOK_NOT) {
			op = "!"
		}
		if !p.next() {
			return nil, false
		}
		operand, ok := p.parseUnaryExpr()
		if !ok {
			return nil, false
		}
		return &ast.UnaryOp{Base: ast.NewBase(p.span(start)), Op: op, Operand: operand}, true
	}
	return p.parsePostfixExpr()
}

// postfix_expr = primary {'.' IDENT ['(' arg_list ')'] | '(' arg_list ')' | '[' expr ']' | '?'}
func (p *Parser) parsePostfixExpr() (ast.Expr, bool) {
	start := p.tok.Span
	expr, ok := p.parsePrimary()
	if !ok {
		return nil, false
	}

	for {
		switch p.tok.Kind {
		case TOK_DOT:
			if !p.next() {
				return nil, false
			}
			if !p.assert(TOK_IDENT) {
				return nil, false
			}
			name := p.tok.Value
			if !p.next() {
				return nil, false
			}
			if p.got(TOK_LPAREN) {
				args, ok := p.parseArgList()
				if !ok {
					return nil, false
				}
				expr = &ast.MethodCall{Base: ast.NewBase(p.span(start)), Receiver: expr, Method: name, Args: args}
			} else {
				expr = &ast.FieldAccess{Base: ast.NewBase(p.span(start)), Receiver: expr, Name: name}
			}
		case TOK_LPAREN:
			args, ok := p.parseArgList()
			if !ok {
				return nil, false
			}
			expr = &ast.Call{Base: ast.NewBase(p.span(start)), Callee: expr, Args: args}
		case TOK_LBRACKET:
			if !p.next() {
				return nil, false
			}
			idx, ok := p.parseExpr()
			if !ok {
				return nil, false
			}
			if !p.expect(TOK_RBRACKET) {
				return nil, false
			}
			expr = &ast.Index{Base: ast.NewBase(p.span(start)), Receiver: expr, Index: idx}
		case TOK_QUESTION:
			if !p.next() {
				return nil, false
			}
			expr = &ast.TryExpr{Base: ast.NewBase(p.span(start)), Inner: expr}
		default:
			return expr, true
		}
	}
}

// arg_list = '(' [expr {',' expr}] ')'
func (p *Parser) parseArgList() ([]ast.Expr, bool) {
	if !p.expect(TOK_LPAREN) {
		return nil, false
	}
	var args []ast.Expr
	for !p.got(TOK_RPAREN) {
		arg, ok := p.parseExpr()
		if !ok {
			return nil, false
		}
		args = append(args, arg)
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
	return args, true
}

// primary = INTLIT | FLOATLIT | STRINGLIT | BOOLLIT | 'none' | IDENT
//         | '(' expr ')' | list_lit | map_lit | construct_or_ident
func (p *Parser) parsePrimary() (ast.Expr, bool) {
	start := p.tok.Span

	switch p.tok.Kind {
	case TOK_INTLIT:
		n, err := strconv.ParseInt(p.tok.Value, 10, 64)
		if err != nil {
			p.reject("a valid integer literal")
			return nil, false
		}
		if !p.next() {
			return nil, false
		}
		return &ast.Literal{Base: ast.NewBase(p.span(start)), Kind: ast.LitInt, Int: n}, true

	case TOK_FLOATLIT:
		f, err := strconv.ParseFloat(p.tok.Value, 64)
		if err != nil {
			p.reject("a valid float literal")
			return nil, false
		}
		if !p.next() {
			return nil, false
		}
		return &ast.Literal{Base: ast.NewBase(p.span(start)), Kind: ast.LitFloat, Flt: f}, true

	case TOK_BOOLLIT:
		b := p.tok.Value == "true"
		if !p.next() {
			return nil, false
		}
		return &ast.Literal{Base: ast.NewBase(p.span(start)), Kind: ast.LitBool, Bool: b}, true

	case TOK_STRINGLIT:
		s := p.tok.Value
		if !p.next() {
			return nil, false
		}
		return &ast.Literal{Base: ast.NewBase(p.span(start)), Kind: ast.LitString, Str: s}, true

	case TOK_NONE:
		if !p.next() {
			return nil, false
		}
		return &ast.Literal{Base: ast.NewBase(p.span(start)), Kind: ast.LitNone}, true

	case TOK_LPAREN:
		if !p.next() {
			return nil, false
		}
		if p.got(TOK_RPAREN) {
			if !p.next() {
				return nil, false
			}
			return &ast.Literal{Base: ast.NewBase(p.span(start)), Kind: ast.LitUnit}, true
		}
		inner, ok := p.parseExpr()
		if !ok {
			return nil, false
		}
		if !p.expect(TOK_RPAREN) {
			return nil, false
		}
		return inner, true

	case TOK_LBRACKET:
		return p.parseListLit()

	case TOK_LBRACE:
		return p.parseMapLit()

	case TOK_IDENT:
		return p.parseIdentOrConstruct()

	default:
		p.reject("an expression")
		return nil, false
	}
}

// list_lit = '[' [expr {',' expr}] ']'
func (p *Parser) parseListLit() (ast.Expr, bool) {
	start := p.tok.Span
	if !p.expect(TOK_LBRACKET) {
		return nil, false
	}
	var elems []ast.Expr
	for !p.got(TOK_RBRACKET) {
		e, ok := p.parseExpr()
		if !ok {
			return nil, false
		}
		elems = append(elems, e)
		if p.got(TOK_COMMA) {
			if !p.next() {
				return nil, false
			}
		} else {
			break
		}
	}
	if !p.expect(TOK_RBRACKET) {
		return nil, false
	}
	return &ast.ListLit{Base: ast.NewBase(p.span(start)), Elems: elems}, true
}

// map_lit = '{' [map_entry {',' map_entry}] '}'
// map_entry = expr ':' expr
func (p *Parser) parseMapLit() (ast.Expr, bool) {
	start := p.tok.Span
	if !p.expect(TOK_LBRACE) {
		return nil, false
	}
	p.skipNewlines()
	var entries []ast.MapEntry
	for !p.got(TOK_RBRACE) {
		key, ok := p.parseExpr()
		if !ok {
			return nil, false
		}
		if !p.expect(TOK_COLON) {
			return nil, false
		}
		val, ok := p.parseExpr()
		if !ok {
			return nil, false
		}
		entries = append(entries, ast.MapEntry{Key: key, Value: val})
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
	return &ast.MapLit{Base: ast.NewBase(p.span(start)), Entries: entries}, true
}

// identOrConstruct = IDENT ['{' field_init {',' field_init} '}']
// A bare IDENT followed directly by '{' is a record construction; Haira
// disambiguates from a following block (e.g. the body of an if) because a
// construction's '{' is only legal in expression position immediately after
// the type name, never as a standalone statement opener.
func (p *Parser) parseIdentOrConstruct() (ast.Expr, bool) {
	start := p.tok.Span
	name := p.tok.Value
	if !p.next() {
		return nil, false
	}

	// `x => expr` is the single-param lambda shorthand used as an argument to
	// Map/Filter/Reduce/GroupBy pipeline calls.
	if p.got(TOK_FATARROW) {
		if !p.next() {
			return nil, false
		}
		bodyExpr, ok := p.parseExpr()
		if !ok {
			return nil, false
		}
		bodySpan := bodyExpr.Span()
		block := &ast.Block{
			Base:  ast.NewBase(bodySpan),
			Stmts: []ast.Stmt{&ast.ExprStmt{Base: ast.NewBase(bodySpan), X: bodyExpr}},
		}
		return &ast.Lambda{
			Base:   ast.NewBase(p.span(start)),
			Params: []ast.Param{{Name: name}},
			Body:   block,
		}, true
	}

	if p.got(TOK_LBRACE) {
		if !p.next() {
			return nil, false
		}
		p.skipNewlines()
		var fields []ast.FieldInit
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
			val, ok := p.parseExpr()
			if !ok {
				return nil, false
			}
			fields = append(fields, ast.FieldInit{Name: fname, Value: val})
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
		return &ast.Construct{Base: ast.NewBase(p.span(start)), TypeName: name, Fields: fields}, true
	}

	return &ast.Ident{Base: ast.NewBase(p.span(start)), Name: name}, true
}

// if_expr = 'if' expr block ['else' (if_expr | block)]
func (p *Parser) parseIfExpr() (ast.Expr, bool) {
	start := p.tok.Span
	if !p.next() { // past 'if'
		return nil, false
	}
	cond, ok := p.parseExpr()
	if !ok {
		return nil, false
	}
	then, ok := p.parseBlock()
	if !ok {
		return nil, false
	}

	var els ast.Node
	if p.got(TOK_ELSE) {
		if !p.next() {
			return nil, false
		}
		if p.got(TOK_IF) {
			e, ok := p.parseIfExpr()
			if !ok {
				return nil, false
			}
			els = e
		} else {
			b, ok := p.parseBlock()
			if !ok {
				return nil, false
			}
			els = b
		}
	} else if p.got(TOK_ELIF) {
		e, ok := p.parseIfExpr()
		if !ok {
			return nil, false
		}
		els = e
	}

	return &ast.IfExpr{Base: ast.NewBase(p.span(start)), Cond: cond, Then: then, Else: els}, true
}

// match_expr = 'match' expr '{' {match_arm} '}'
// match_arm = pattern ['if' expr] '=>' block
func (p *Parser) parseMatchExpr() (ast.Expr, bool) {
	start := p.tok.Span
	if !p.next() { // past 'match'
		return nil, false
	}
	subject, ok := p.parseExpr()
	if !ok {
		return nil, false
	}
	if !p.expect(TOK_LBRACE) {
		return nil, false
	}
	p.skipNewlines()

	var arms []ast.MatchArm
	for !p.got(TOK_RBRACE) {
		pat, ok := p.parsePattern()
		if !ok {
			return nil, false
		}
		var guard ast.Expr
		if p.got(TOK_IF) {
			if !p.next() {
				return nil, false
			}
			guard, ok = p.parseExpr()
			if !ok {
				return nil, false
			}
		}
		if !p.expect(TOK_FATARROW) {
			return nil, false
		}
		body, ok := p.parseBlock()
		if !ok {
			return nil, false
		}
		arms = append(arms, ast.MatchArm{Pattern: pat, Guard: guard, Body: body})
		p.skipNewlines()
	}

	if !p.expect(TOK_RBRACE) {
		return nil, false
	}
	return &ast.MatchExpr{Base: ast.NewBase(p.span(start)), Subject: subject, Arms: arms}, true
}

// pattern = '_' | IDENT ['(' IDENT {',' IDENT} ')'] | literal
func (p *Parser) parsePattern() (ast.Pattern, bool) {
	start := p.tok.Span

	if p.got(TOK_IDENT) && p.tok.Value == "_" {
		if !p.next() {
			return nil, false
		}
		return &ast.WildcardPattern{Base: ast.NewBase(p.span(start))}, true
	}

	if p.got(TOK_IDENT) {
		name := p.tok.Value
		if !p.next() {
			return nil, false
		}
		if p.got(TOK_LPAREN) {
			if !p.next() {
				return nil, false
			}
			var binds []string
			for !p.got(TOK_RPAREN) {
				if !p.assert(TOK_IDENT) {
					return nil, false
				}
				binds = append(binds, p.tok.Value)
				if !p.next() {
					return nil, false
				}
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
			return &ast.VariantPattern{Base: ast.NewBase(p.span(start)), Variant: name, Binds: binds}, true
		}
		return &ast.BindPattern{Base: ast.NewBase(p.span(start)), Name: name}, true
	}

	lit, ok := p.parsePrimary()
	if !ok {
		return nil, false
	}
	litExpr, ok := lit.(*ast.Literal)
	if !ok {
		p.reject("a pattern")
		return nil, false
	}
	return &ast.LiteralPattern{Base: ast.NewBase(p.span(start)), Lit: litExpr}, true
}
