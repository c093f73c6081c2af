package parser

import (
	"strconv"
	"strings"

	"zinc/internal/ast"
	"zinc/internal/diagnostics"
	"zinc/internal/lexer"
)

// parseType is the type sub-parser. Its explicit states are named for what
// has been consumed: Start (nothing yet), BracketSquareLeft (after `[`,
// expecting the element type), SemicolonOrBracketSquareRight (after the
// element type of an array, expecting `;size]`).
func (p *Parser) parseType() (*ast.TypeNode, error) {
	tok, err := p.next()
	if err != nil {
		return nil, err
	}

	switch {
	case tok.IsSymbol(lexer.SymbolParenLeft):
		return p.parseTupleType(tok)
	case tok.IsSymbol(lexer.SymbolBracketLeft):
		return p.parseArrayType(tok)
	case tok.Kind == lexer.LexemeIdentifier:
		return p.parseNamedOrPrimitiveType(tok)
	default:
		return nil, diagnostics.NewSyntaxError(diagnostics.ExpectedType, tok.Location, tok.Lexeme())
	}
}

func (p *Parser) parseTupleType(open lexer.Token) (*ast.TypeNode, error) {
	var elements []*ast.TypeNode
	for {
		tok, err := p.peek()
		if err != nil {
			return nil, err
		}
		if tok.IsSymbol(lexer.SymbolParenRight) {
			break
		}
		t, err := p.parseType()
		if err != nil {
			return nil, err
		}
		elements = append(elements, t)
		tok, err = p.peek()
		if err != nil {
			return nil, err
		}
		if tok.IsSymbol(lexer.SymbolComma) {
			if _, err := p.next(); err != nil {
				return nil, err
			}
			continue
		}
		break
	}
	if _, err := p.expectSymbol(lexer.SymbolParenRight); err != nil {
		return nil, err
	}
	if len(elements) == 0 {
		return &ast.TypeNode{Location: open.Location, Variant: ast.TypeVariant{Kind: ast.TypeUnit}}, nil
	}
	return &ast.TypeNode{Location: open.Location, Variant: ast.TypeVariant{Kind: ast.TypeTuple, Elements: elements}}, nil
}

// parseArrayType: state BracketSquareLeft -> element type parsed ->
// state SemicolonOrBracketSquareRight.
func (p *Parser) parseArrayType(open lexer.Token) (*ast.TypeNode, error) {
	element, err := p.parseType()
	if err != nil {
		return nil, err
	}
	if _, err := p.expectSymbol(lexer.SymbolSemicolon); err != nil {
		return nil, err
	}
	size, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if _, err := p.expectSymbol(lexer.SymbolBracketRight); err != nil {
		return nil, err
	}
	return &ast.TypeNode{
		Location: open.Location,
		Variant:  ast.TypeVariant{Kind: ast.TypeArray, Element: element, Size: *size},
	}, nil
}

func (p *Parser) parseNamedOrPrimitiveType(first lexer.Token) (*ast.TypeNode, error) {
	name := first.Identifier
	switch {
	case name == "bool":
		return &ast.TypeNode{Location: first.Location, Variant: ast.TypeVariant{Kind: ast.TypeBool}}, nil
	case name == "field":
		return &ast.TypeNode{Location: first.Location, Variant: ast.TypeVariant{Kind: ast.TypeField}}, nil
	case len(name) >= 2 && name[0] == 'u' && isAllDigits(name[1:]):
		bits, _ := strconv.Atoi(name[1:])
		return &ast.TypeNode{Location: first.Location, Variant: ast.TypeVariant{Kind: ast.TypeIntegerUnsigned, Bitlength: bits}}, nil
	case len(name) >= 2 && name[0] == 'i' && isAllDigits(name[1:]):
		bits, _ := strconv.Atoi(name[1:])
		return &ast.TypeNode{Location: first.Location, Variant: ast.TypeVariant{Kind: ast.TypeIntegerSigned, Bitlength: bits}}, nil
	default:
		path := []string{name}
		for {
			tok, err := p.peek()
			if err != nil {
				return nil, err
			}
			if !tok.IsSymbol(lexer.SymbolDoubleColon) {
				break
			}
			if _, err := p.next(); err != nil {
				return nil, err
			}
			seg, _, err := p.expectIdentifier()
			if err != nil {
				return nil, err
			}
			path = append(path, seg)
		}
		return &ast.TypeNode{Location: first.Location, Variant: ast.TypeVariant{Kind: ast.TypeNamed, Name: path}}, nil
	}
}

func isAllDigits(s string) bool {
	if s == "" {
		return false
	}
	return strings.IndexFunc(s, func(r rune) bool { return r < '0' || r > '9' }) == -1
}
