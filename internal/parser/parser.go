// Package parser implements Zinc's recursive-descent parser. Each
// production has its own sub-parser; the expression sub-parsers implement
// operator precedence via precedence climbing (the shunting-yard rule
// applied recursively), matching spec.md's conventional precedence table.
//
// There is no error recovery: the first syntax error aborts the parse.
package parser

import (
	"zinc/internal/ast"
	"zinc/internal/diagnostics"
	"zinc/internal/lexer"
	"zinc/internal/source"
)

// Parser wraps a token stream and produces one Module.
type Parser struct {
	lex *lexer.Lexer

	// noStructDepth is nonzero while parsing a loop/if/while condition,
	// where a bare `{` must start the following block rather than a
	// structure literal.
	noStructDepth int
}

// New constructs a parser over source text.
func New(file string, input []byte) *Parser {
	return &Parser{lex: lexer.New(file, input)}
}

func (p *Parser) next() (lexer.Token, error)        { return p.lex.Next() }
func (p *Parser) peek() (lexer.Token, error)         { return p.lex.Peek() }
func (p *Parser) lookAhead(n int) (lexer.Token, error) { return p.lex.LookAhead(n) }

// expectSymbol consumes the next token, requiring it to be the given symbol.
func (p *Parser) expectSymbol(sym lexer.Symbol) (lexer.Token, error) {
	tok, err := p.next()
	if err != nil {
		return tok, err
	}
	if !tok.IsSymbol(sym) {
		return tok, diagnostics.NewExpected(tok.Location, []string{string(sym)}, tok.Lexeme())
	}
	return tok, nil
}

func (p *Parser) expectKeyword(kw lexer.Keyword) (lexer.Token, error) {
	tok, err := p.next()
	if err != nil {
		return tok, err
	}
	if !tok.IsKeyword(kw) {
		return tok, diagnostics.NewExpected(tok.Location, []string{string(kw)}, tok.Lexeme())
	}
	return tok, nil
}

func (p *Parser) expectIdentifier() (string, source.Location, error) {
	tok, err := p.next()
	if err != nil {
		return "", source.Location{}, err
	}
	if tok.Kind != lexer.LexemeIdentifier {
		return "", tok.Location, diagnostics.NewSyntaxError(diagnostics.ExpectedIdentifier, tok.Location, tok.Lexeme())
	}
	return tok.Identifier, tok.Location, nil
}

// Parse parses an entire compilation unit into a module named by the
// file argument exactly as given.
func Parse(file string, input []byte) (*ast.Module, error) {
	p := New(file, input)
	module := &ast.Module{Name: file}
	for {
		tok, err := p.peek()
		if err != nil {
			return nil, err
		}
		if tok.IsEOF() {
			break
		}
		stmt, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		module.Statements = append(module.Statements, *stmt)
	}
	return module, nil
}
