package syntax

var tokenNames = map[TokenKind]string{
	TOK_EOF:      "end of file",
	TOK_NEWLINE:  "newline",
	TOK_IDENT:    "identifier",
	TOK_INTLIT:   "integer literal",
	TOK_FLOATLIT: "float literal",
	TOK_STRINGLIT: "string literal",
	TOK_BOOLLIT:  "boolean literal",
	TOK_LPAREN:   "`(`",
	TOK_RPAREN:   "`)`",
	TOK_LBRACE:   "`{`",
	TOK_RBRACE:   "`}`",
	TOK_LBRACKET: "`[`",
	TOK_RBRACKET: "`]`",
	TOK_COMMA:    "`,`",
	TOK_COLON:    "`:`",
	TOK_ARROW:    "`->`",
	TOK_FATARROW: "`=>`",
	TOK_ASSIGN:   "`=`",
}

func tokenKindName(k TokenKind) string {
	if name, ok := tokenNames[k]; ok {
		return name
	}
	return "token"
}
