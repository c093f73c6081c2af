package parser

import (
	"zinc/internal/ast"
	"zinc/internal/diagnostics"
	"zinc/internal/lexer"
)

// parseStatement is the top-level statement/item sub-parser. Its explicit
// state is simply "which keyword introduced this production" — each
// keyword dispatches to its own small state machine below.
func (p *Parser) parseStatement() (*ast.Statement, error) {
	tok, err := p.peek()
	if err != nil {
		return nil, err
	}

	switch {
	case tok.IsKeyword(lexer.KeywordLet):
		return p.parseLet()
	case tok.IsKeyword(lexer.KeywordConst):
		return p.parseConst()
	case tok.IsKeyword(lexer.KeywordType):
		return p.parseTypeAlias()
	case tok.IsKeyword(lexer.KeywordFn):
		return p.parseFn(false, false)
	case tok.IsKeyword(lexer.KeywordFor):
		return p.parseFor()
	case tok.IsKeyword(lexer.KeywordStruct):
		return p.parseStruct(false)
	case tok.IsKeyword(lexer.KeywordEnum):
		return p.parseEnum()
	case tok.IsKeyword(lexer.KeywordContract):
		return p.parseStruct(true)
	case tok.IsKeyword(lexer.KeywordMod):
		return p.parseModule()
	case tok.IsKeyword(lexer.KeywordPub):
		return p.parsePub()
	default:
		return p.parseExpressionStatement()
	}
}

func (p *Parser) parsePub() (*ast.Statement, error) {
	if _, err := p.next(); err != nil { // consume `pub`
		return nil, err
	}
	stmt, err := p.parseStatement()
	if err != nil {
		return nil, err
	}
	stmt.IsPublic = true
	return stmt, nil
}

// parseBinding parses `[mut] identifier [: type]`.
func (p *Parser) parseBinding() (ast.Binding, error) {
	tok, err := p.peek()
	if err != nil {
		return ast.Binding{}, err
	}

	isMutable := false
	if tok.IsKeyword(lexer.KeywordMut) {
		if _, err := p.next(); err != nil {
			return ast.Binding{}, err
		}
		isMutable = true
	}

	var pattern ast.Pattern
	tok, err = p.peek()
	if err != nil {
		return ast.Binding{}, err
	}
	if tok.IsSymbol(lexer.SymbolUnderscore) {
		if _, err := p.next(); err != nil {
			return ast.Binding{}, err
		}
		pattern = ast.Pattern{Kind: ast.PatternWildcard, Location: tok.Location}
	} else if tok.Kind == lexer.LexemeIdentifier {
		name, loc, err := p.expectIdentifier()
		if err != nil {
			return ast.Binding{}, err
		}
		pattern = ast.Pattern{Kind: ast.PatternIdentifier, Location: loc, Name: name, IsMutable: isMutable}
	} else {
		return ast.Binding{}, diagnostics.NewSyntaxError(diagnostics.ExpectedMutOrIdentifier, tok.Location, tok.Lexeme())
	}

	binding := ast.Binding{Pattern: pattern, Location: pattern.Location}

	tok, err = p.peek()
	if err != nil {
		return ast.Binding{}, err
	}
	if tok.IsSymbol(lexer.SymbolColon) {
		if _, err := p.next(); err != nil {
			return ast.Binding{}, err
		}
		t, err := p.parseType()
		if err != nil {
			return ast.Binding{}, err
		}
		binding.Type = t
	}
	return binding, nil
}

func (p *Parser) parseLet() (*ast.Statement, error) {
	start, err := p.expectKeyword(lexer.KeywordLet)
	if err != nil {
		return nil, err
	}
	binding, err := p.parseBinding()
	if err != nil {
		return nil, err
	}
	if _, err := p.expectSymbol(lexer.SymbolAssign); err != nil {
		return nil, err
	}
	value, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if _, err := p.expectSymbol(lexer.SymbolSemicolon); err != nil {
		return nil, err
	}
	return &ast.Statement{Kind: ast.StmtLet, Location: start.Location, Binding: binding, Value: value}, nil
}

func (p *Parser) parseConst() (*ast.Statement, error) {
	start, err := p.expectKeyword(lexer.KeywordConst)
	if err != nil {
		return nil, err
	}
	binding, err := p.parseBinding()
	if err != nil {
		return nil, err
	}
	if _, err := p.expectSymbol(lexer.SymbolAssign); err != nil {
		return nil, err
	}
	value, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if _, err := p.expectSymbol(lexer.SymbolSemicolon); err != nil {
		return nil, err
	}
	return &ast.Statement{Kind: ast.StmtConst, Location: start.Location, Binding: binding, Value: value}, nil
}

func (p *Parser) parseTypeAlias() (*ast.Statement, error) {
	start, err := p.expectKeyword(lexer.KeywordType)
	if err != nil {
		return nil, err
	}
	name, _, err := p.expectIdentifier()
	if err != nil {
		return nil, err
	}
	if _, err := p.expectSymbol(lexer.SymbolAssign); err != nil {
		return nil, err
	}
	t, err := p.parseType()
	if err != nil {
		return nil, err
	}
	if _, err := p.expectSymbol(lexer.SymbolSemicolon); err != nil {
		return nil, err
	}
	return &ast.Statement{Kind: ast.StmtTypeAlias, Location: start.Location, AliasName: name, AliasType: t}, nil
}

func (p *Parser) parseFn(isConstFn, isTestFn bool) (*ast.Statement, error) {
	start, err := p.expectKeyword(lexer.KeywordFn)
	if err != nil {
		return nil, err
	}
	name, _, err := p.expectIdentifier()
	if err != nil {
		return nil, err
	}
	if _, err := p.expectSymbol(lexer.SymbolParenLeft); err != nil {
		return nil, err
	}

	var params []ast.Binding
	for {
		tok, err := p.peek()
		if err != nil {
			return nil, err
		}
		if tok.IsSymbol(lexer.SymbolParenRight) {
			break
		}
		b, err := p.parseBinding()
		if err != nil {
			return nil, err
		}
		params = append(params, b)
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

	var retType *ast.TypeNode
	tok, err := p.peek()
	if err != nil {
		return nil, err
	}
	if tok.IsSymbol(lexer.SymbolArrow) {
		if _, err := p.next(); err != nil {
			return nil, err
		}
		retType, err = p.parseType()
		if err != nil {
			return nil, err
		}
	}

	body, err := p.parseBlockExpression()
	if err != nil {
		return nil, err
	}

	return &ast.Statement{
		Kind: ast.StmtFn, Location: start.Location, Name: name,
		Parameters: params, ReturnType: retType, Body: body,
		IsConstFn: isConstFn, IsTestFn: isTestFn,
	}, nil
}

// parseFor parses `for i in a..b [while C] { BODY }`.
func (p *Parser) parseFor() (*ast.Statement, error) {
	start, err := p.expectKeyword(lexer.KeywordFor)
	if err != nil {
		return nil, err
	}
	name, _, err := p.expectIdentifier()
	if err != nil {
		return nil, err
	}
	if _, err := p.expectKeyword(lexer.KeywordIn); err != nil {
		return nil, err
	}
	p.noStructDepth++
	rangeStart, err := p.parseOr()
	p.noStructDepth--
	if err != nil {
		return nil, err
	}
	tok, err := p.next()
	if err != nil {
		return nil, err
	}
	isIncl := false
	switch {
	case tok.IsSymbol(lexer.SymbolDotDot):
	case tok.IsSymbol(lexer.SymbolDotDotEquals):
		isIncl = true
	default:
		return nil, diagnostics.NewExpected(tok.Location, []string{"..", "..="}, tok.Lexeme())
	}
	p.noStructDepth++
	rangeEnd, err := p.parseOr()
	p.noStructDepth--
	if err != nil {
		return nil, err
	}

	var whileCond *ast.Expression
	tok, err = p.peek()
	if err != nil {
		return nil, err
	}
	if tok.IsKeyword(lexer.KeywordWhile) {
		if _, err := p.next(); err != nil {
			return nil, err
		}
		whileCond, err = p.parseExpressionNoStruct()
		if err != nil {
			return nil, err
		}
	}

	body, err := p.parseBlockExpression()
	if err != nil {
		return nil, err
	}

	return &ast.Statement{
		Kind: ast.StmtFor, Location: start.Location, LoopVariable: name,
		RangeStart: rangeStart, RangeEnd: rangeEnd, RangeIsIncl: isIncl,
		WhileCond: whileCond, Body: body,
	}, nil
}

func (p *Parser) parseExpressionStatement() (*ast.Statement, error) {
	expr, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if _, err := p.expectSymbol(lexer.SymbolSemicolon); err != nil {
		return nil, err
	}
	return &ast.Statement{Kind: ast.StmtExpression, Location: expr.Location, Expr: expr}, nil
}

func (p *Parser) parseStruct(isContract bool) (*ast.Statement, error) {
	kw := lexer.KeywordStruct
	if isContract {
		kw = lexer.KeywordContract
	}
	start, err := p.expectKeyword(kw)
	if err != nil {
		return nil, err
	}
	name, _, err := p.expectIdentifier()
	if err != nil {
		return nil, err
	}
	if _, err := p.expectSymbol(lexer.SymbolBraceLeft); err != nil {
		return nil, err
	}
	var fields []ast.FieldDecl
	for {
		tok, err := p.peek()
		if err != nil {
			return nil, err
		}
		if tok.IsSymbol(lexer.SymbolBraceRight) {
			break
		}
		isPublic := false
		if tok.IsKeyword(lexer.KeywordPub) {
			if _, err := p.next(); err != nil {
				return nil, err
			}
			isPublic = true
		}
		fname, _, err := p.expectIdentifier()
		if err != nil {
			return nil, err
		}
		if _, err := p.expectSymbol(lexer.SymbolColon); err != nil {
			return nil, err
		}
		ftype, err := p.parseType()
		if err != nil {
			return nil, err
		}
		fields = append(fields, ast.FieldDecl{Name: fname, Type: ftype, IsPublic: isPublic || isContract})
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
	if _, err := p.expectSymbol(lexer.SymbolBraceRight); err != nil {
		return nil, err
	}
	kind := ast.StmtStruct
	if isContract {
		kind = ast.StmtContract
	}
	return &ast.Statement{Kind: kind, Location: start.Location, Name: name, Fields: fields}, nil
}

func (p *Parser) parseEnum() (*ast.Statement, error) {
	start, err := p.expectKeyword(lexer.KeywordEnum)
	if err != nil {
		return nil, err
	}
	name, _, err := p.expectIdentifier()
	if err != nil {
		return nil, err
	}
	if _, err := p.expectSymbol(lexer.SymbolBraceLeft); err != nil {
		return nil, err
	}
	var variants []ast.EnumVariant
	for {
		tok, err := p.peek()
		if err != nil {
			return nil, err
		}
		if tok.IsSymbol(lexer.SymbolBraceRight) {
			break
		}
		vname, _, err := p.expectIdentifier()
		if err != nil {
			return nil, err
		}
		var value *ast.Expression
		tok, err = p.peek()
		if err != nil {
			return nil, err
		}
		if tok.IsSymbol(lexer.SymbolAssign) {
			if _, err := p.next(); err != nil {
				return nil, err
			}
			value, err = p.parseExpression()
			if err != nil {
				return nil, err
			}
		}
		variants = append(variants, ast.EnumVariant{Name: vname, Value: value})
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
	if _, err := p.expectSymbol(lexer.SymbolBraceRight); err != nil {
		return nil, err
	}
	return &ast.Statement{Kind: ast.StmtEnum, Location: start.Location, Name: name, EnumVariants: variants}, nil
}

func (p *Parser) parseModule() (*ast.Statement, error) {
	start, err := p.expectKeyword(lexer.KeywordMod)
	if err != nil {
		return nil, err
	}
	name, _, err := p.expectIdentifier()
	if err != nil {
		return nil, err
	}
	if _, err := p.expectSymbol(lexer.SymbolBraceLeft); err != nil {
		return nil, err
	}
	var body []ast.Statement
	for {
		tok, err := p.peek()
		if err != nil {
			return nil, err
		}
		if tok.IsSymbol(lexer.SymbolBraceRight) {
			break
		}
		stmt, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		body = append(body, *stmt)
	}
	if _, err := p.expectSymbol(lexer.SymbolBraceRight); err != nil {
		return nil, err
	}
	return &ast.Statement{Kind: ast.StmtModule, Location: start.Location, ModuleName: name, ModuleBody: body}, nil
}
