package syntax

import "github.com/mrzdevcore/haira/report"

// Token is a single lexical token produced by the Lexer.
type Token struct {
	Kind  TokenKind
	Value string
	Span  report.Span
}

// TokenKind enumerates the closed set of Haira token kinds.
type TokenKind int

const (
	TOK_EOF TokenKind = iota
	TOK_NEWLINE

	TOK_IDENT
	TOK_INTLIT
	TOK_FLOATLIT
	TOK_STRINGLIT
	TOK_BOOLLIT

	// keywords
	TOK_LET
	TOK_MUT
	TOK_IF
	TOK_ELIF
	TOK_ELSE
	TOK_FOR
	TOK_WHILE
	TOK_IN
	TOK_BREAK
	TOK_CONTINUE
	TOK_RETURN
	TOK_FUNC
	TOK_AI
	TOK_REC
	TOK_UNION
	TOK_MATCH
	TOK_PUB
	TOK_NONE
	TOK_TRUE
	TOK_FALSE

	// punctuation
	TOK_LPAREN
	TOK_RPAREN
	TOK_LBRACE
	TOK_RBRACE
	TOK_LBRACKET
	TOK_RBRACKET
	TOK_COMMA
	TOK_COLON
	TOK_DOT
	TOK_DOTDOT
	TOK_DOTDOTEQ
	TOK_ARROW
	TOK_FATARROW
	TOK_QUESTION
	TOK_PIPE
	TOK_AT

	// operators
	TOK_PLUS
	TOK_MINUS
	TOK_STAR
	TOK_SLASH
	TOK_PERCENT
	TOK_ASSIGN
	TOK_PLUSEQ
	TOK_MINUSEQ
	TOK_STAREQ
	TOK_SLASHEQ
	TOK_EQ
	TOK_NEQ
	TOK_LT
	TOK_GT
	TOK_LTEQ
	TOK_GTEQ
	TOK_AND
	TOK_OR
	TOK_NOT
)

var keywords = map[string]TokenKind{
	"let":      TOK_LET,
	"mut":      TOK_MUT,
	"if":       TOK_IF,
	"elif":     TOK_ELIF,
	"else":     TOK_ELSE,
	"for":      TOK_FOR,
	"while":    TOK_WHILE,
	"in":       TOK_IN,
	"break":    TOK_BREAK,
	"continue": TOK_CONTINUE,
	"return":   TOK_RETURN,
	"func":     TOK_FUNC,
	"ai":       TOK_AI,
	"rec":      TOK_REC,
	"union":    TOK_UNION,
	"match":    TOK_MATCH,
	"pub":      TOK_PUB,
	"none":     TOK_NONE,
	"true":     TOK_TRUE,
	"false":    TOK_FALSE,
}
