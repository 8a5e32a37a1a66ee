package syntax

import (
	"bufio"

	"github.com/mrzdevcore/haira/ast"
	"github.com/mrzdevcore/haira/report"
)

// Parser is a recursive-descent parser for a single Haira source file. It
// performs syntax analysis and AST construction only; it does no symbol
// resolution (that is the resolver's job, spec §4.1). All parsing methods
// assume the parser is positioned on the first token of their production and
// leave it positioned just past the last token they consume.
type Parser struct {
	file  string
	lexer *Lexer
	tok   Token
	err   error
}

// NewParser creates a parser for the named file reading source from r.
func NewParser(file string, r *bufio.Reader) *Parser {
	return &Parser{file: file, lexer: NewLexer(file, r)}
}

// ParseFile parses an entire source file into an *ast.File. It reports a
// diagnostic and returns false on the first syntax error; Haira does not
// attempt per-file error recovery, since a malformed file cannot safely
// contribute declarations to the resolver.
func (p *Parser) ParseFile() (*ast.File, bool) {
	if !p.next() {
		return nil, false
	}

	var defs []ast.Def
	for !p.got(TOK_EOF) {
		p.skipNewlines()
		if p.got(TOK_EOF) {
			break
		}

		def, ok := p.parseDef()
		if !ok {
			return nil, false
		}
		defs = append(defs, def)
		p.skipNewlines()
	}

	return &ast.File{Path: p.file, Defs: defs}, true
}

// -----------------------------------------------------------------------------

func (p *Parser) next() bool {
	tok, err := p.lexer.NextToken()
	if err != nil {
		p.err = err
		report.Report(report.ParseError(p.tok.Span, "%v", err))
		return false
	}
	p.tok = tok
	return true
}

func (p *Parser) got(kind TokenKind) bool { return p.tok.Kind == kind }

func (p *Parser) gotOneOf(kinds ...TokenKind) bool {
	for _, k := range kinds {
		if p.tok.Kind == k {
			return true
		}
	}
	return false
}

// skipNewlines consumes any run of newline tokens, leaving the parser on the
// first non-newline token.
func (p *Parser) skipNewlines() {
	for p.got(TOK_NEWLINE) {
		if !p.next() {
			return
		}
	}
}

// assert reports an error if the parser is not on a token of kind.
func (p *Parser) assert(kind TokenKind) bool {
	if p.got(kind) {
		return true
	}
	p.reject(tokenKindName(kind))
	return false
}

// expect asserts, then advances past the expected token.
func (p *Parser) expect(kind TokenKind) bool {
	return p.assert(kind) && p.next()
}

func (p *Parser) reject(expected string) {
	report.Report(report.ParseError(p.tok.Span, "expected %s, got `%s`", expected, p.tokenText()))
}

func (p *Parser) tokenText() string {
	if p.tok.Value != "" {
		return p.tok.Value
	}
	return tokenKindName(p.tok.Kind)
}

func (p *Parser) span(start report.Span) report.Span {
	return report.Over(start, p.tok.Span)
}
