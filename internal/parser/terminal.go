package parser

import (
	"zinc/internal/ast"
	"zinc/internal/diagnostics"
	"zinc/internal/lexer"
)

// parseTerminal parses the innermost production of an expression: a
// literal, an identifier or path, a parenthesized/tuple expression, an
// array literal, a structure literal, a block, a conditional or a match.
func (p *Parser) parseTerminal() (*ast.Expression, error) {
	tok, err := p.peek()
	if err != nil {
		return nil, err
	}
	switch {
	case tok.Kind == lexer.LexemeLiteral:
		return p.parseLiteral()
	case tok.IsKeyword(lexer.KeywordIf):
		return p.parseConditional()
	case tok.IsKeyword(lexer.KeywordMatch):
		return p.parseMatch()
	case tok.IsKeyword(lexer.KeywordDbg), tok.IsKeyword(lexer.KeywordRequire):
		return p.parseIntrinsicCall()
	case tok.IsSymbol(lexer.SymbolBraceLeft):
		return p.parseBlockExpression()
	case tok.IsSymbol(lexer.SymbolParenLeft):
		return p.parseParenOrTuple()
	case tok.IsSymbol(lexer.SymbolBracketLeft):
		return p.parseArrayLiteral()
	case tok.Kind == lexer.LexemeIdentifier:
		return p.parseIdentifierOrStructure()
	default:
		return nil, diagnostics.NewSyntaxError(diagnostics.ExpectedExpression, tok.Location, tok.Lexeme())
	}
}

func (p *Parser) parseLiteral() (*ast.Expression, error) {
	tok, err := p.next()
	if err != nil {
		return nil, err
	}
	switch tok.Literal.Kind {
	case lexer.LiteralIntegerDecimal:
		return &ast.Expression{Kind: ast.ExprLiteralInteger, Location: tok.Location, IntDigits: tok.Literal.Digits, IntIsHex: false}, nil
	case lexer.LiteralIntegerHexadecimal:
		return &ast.Expression{Kind: ast.ExprLiteralInteger, Location: tok.Location, IntDigits: tok.Literal.Digits, IntIsHex: true}, nil
	case lexer.LiteralString:
		return &ast.Expression{Kind: ast.ExprLiteralString, Location: tok.Location, StringValue: tok.Literal.Bytes}, nil
	default:
		return &ast.Expression{Kind: ast.ExprLiteralBoolean, Location: tok.Location, BoolValue: tok.Literal.Bool}, nil
	}
}

// parseIntrinsicCall parses `dbg!(...)` and `require!(...)`, the two forms
// the lexer keeps as keywords rather than identifiers since they carry a
// trailing `!` that ordinary calls do not.
func (p *Parser) parseIntrinsicCall() (*ast.Expression, error) {
	tok, err := p.next()
	if err != nil {
		return nil, err
	}
	if _, err := p.expectSymbol(lexer.SymbolExclamation); err != nil {
		return nil, err
	}
	if _, err := p.expectSymbol(lexer.SymbolParenLeft); err != nil {
		return nil, err
	}
	var args []*ast.Expression
	for {
		t2, err := p.peek()
		if err != nil {
			return nil, err
		}
		if t2.IsSymbol(lexer.SymbolParenRight) {
			break
		}
		arg, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
		t2, err = p.peek()
		if err != nil {
			return nil, err
		}
		if t2.IsSymbol(lexer.SymbolComma) {
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
	callee := &ast.Expression{Kind: ast.ExprIdentifier, Location: tok.Location, Name: string(tok.Keyword)}
	return &ast.Expression{Kind: ast.ExprCall, Location: tok.Location, Left: callee, Elements: args}, nil
}

// parseIdentifierOrStructure parses an identifier or `a::b::c` path, and —
// unless in no-struct-literal position — a following `{ field: value, ... }`
// structure literal.
func (p *Parser) parseIdentifierOrStructure() (*ast.Expression, error) {
	first, loc, err := p.expectIdentifier()
	if err != nil {
		return nil, err
	}
	path := []string{first}
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

	var base *ast.Expression
	if len(path) == 1 {
		base = &ast.Expression{Kind: ast.ExprIdentifier, Location: loc, Name: path[0]}
	} else {
		base = &ast.Expression{Kind: ast.ExprPath, Location: loc, Path: path}
	}

	if p.noStructDepth > 0 {
		return base, nil
	}
	tok, err := p.peek()
	if err != nil {
		return nil, err
	}
	if !tok.IsSymbol(lexer.SymbolBraceLeft) {
		return base, nil
	}
	return p.parseStructureLiteral(base)
}

func (p *Parser) parseStructureLiteral(base *ast.Expression) (*ast.Expression, error) {
	open, err := p.expectSymbol(lexer.SymbolBraceLeft)
	if err != nil {
		return nil, err
	}
	var names []string
	var values []*ast.Expression
	for {
		tok, err := p.peek()
		if err != nil {
			return nil, err
		}
		if tok.IsSymbol(lexer.SymbolBraceRight) {
			break
		}
		name, _, err := p.expectIdentifier()
		if err != nil {
			return nil, err
		}
		if _, err := p.expectSymbol(lexer.SymbolColon); err != nil {
			return nil, err
		}
		value, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		names = append(names, name)
		values = append(values, value)
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
	return &ast.Expression{
		Kind: ast.ExprStructure, Location: open.Location,
		Left: base, FieldNames: names, Elements: values,
	}, nil
}

// parseParenOrTuple disambiguates `(expr)` (a parenthesized expression)
// from `()`/`(a, b)` (the unit and tuple literals) on a trailing comma.
func (p *Parser) parseParenOrTuple() (*ast.Expression, error) {
	open, err := p.expectSymbol(lexer.SymbolParenLeft)
	if err != nil {
		return nil, err
	}
	tok, err := p.peek()
	if err != nil {
		return nil, err
	}
	if tok.IsSymbol(lexer.SymbolParenRight) {
		if _, err := p.next(); err != nil {
			return nil, err
		}
		return &ast.Expression{Kind: ast.ExprTuple, Location: open.Location}, nil
	}

	first, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	tok, err = p.peek()
	if err != nil {
		return nil, err
	}
	if tok.IsSymbol(lexer.SymbolParenRight) {
		if _, err := p.next(); err != nil {
			return nil, err
		}
		return first, nil
	}

	elements := []*ast.Expression{first}
	for tok.IsSymbol(lexer.SymbolComma) {
		if _, err := p.next(); err != nil {
			return nil, err
		}
		tok, err = p.peek()
		if err != nil {
			return nil, err
		}
		if tok.IsSymbol(lexer.SymbolParenRight) {
			break
		}
		el, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		elements = append(elements, el)
		tok, err = p.peek()
		if err != nil {
			return nil, err
		}
	}
	if _, err := p.expectSymbol(lexer.SymbolParenRight); err != nil {
		return nil, err
	}
	return &ast.Expression{Kind: ast.ExprTuple, Location: open.Location, Elements: elements}, nil
}

// parseArrayLiteral disambiguates `[a, b, c]` from the repeat form
// `[value; size]`.
func (p *Parser) parseArrayLiteral() (*ast.Expression, error) {
	open, err := p.expectSymbol(lexer.SymbolBracketLeft)
	if err != nil {
		return nil, err
	}
	tok, err := p.peek()
	if err != nil {
		return nil, err
	}
	if tok.IsSymbol(lexer.SymbolBracketRight) {
		if _, err := p.next(); err != nil {
			return nil, err
		}
		return &ast.Expression{Kind: ast.ExprArray, Location: open.Location}, nil
	}

	first, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	tok, err = p.peek()
	if err != nil {
		return nil, err
	}
	if tok.IsSymbol(lexer.SymbolSemicolon) {
		if _, err := p.next(); err != nil {
			return nil, err
		}
		size, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if _, err := p.expectSymbol(lexer.SymbolBracketRight); err != nil {
			return nil, err
		}
		return &ast.Expression{Kind: ast.ExprArray, Location: open.Location, Elements: []*ast.Expression{first}, ArraySize: size}, nil
	}

	elements := []*ast.Expression{first}
	for tok.IsSymbol(lexer.SymbolComma) {
		if _, err := p.next(); err != nil {
			return nil, err
		}
		tok, err = p.peek()
		if err != nil {
			return nil, err
		}
		if tok.IsSymbol(lexer.SymbolBracketRight) {
			break
		}
		el, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		elements = append(elements, el)
		tok, err = p.peek()
		if err != nil {
			return nil, err
		}
	}
	if _, err := p.expectSymbol(lexer.SymbolBracketRight); err != nil {
		return nil, err
	}
	return &ast.Expression{Kind: ast.ExprArray, Location: open.Location, Elements: elements}, nil
}

// parseBlockExpression parses `{ stmt* [tail_expr] }`. A trailing
// expression statement with no terminating `;` becomes the block's tail.
func (p *Parser) parseBlockExpression() (*ast.Expression, error) {
	open, err := p.expectSymbol(lexer.SymbolBraceLeft)
	if err != nil {
		return nil, err
	}
	var statements []ast.Statement
	var tail *ast.Expression
	for {
		tok, err := p.peek()
		if err != nil {
			return nil, err
		}
		if tok.IsSymbol(lexer.SymbolBraceRight) {
			break
		}
		if isItemStart(tok) {
			stmt, err := p.parseStatement()
			if err != nil {
				return nil, err
			}
			statements = append(statements, *stmt)
			continue
		}
		expr, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		tok, err = p.peek()
		if err != nil {
			return nil, err
		}
		if tok.IsSymbol(lexer.SymbolSemicolon) {
			if _, err := p.next(); err != nil {
				return nil, err
			}
			statements = append(statements, ast.Statement{Kind: ast.StmtExpression, Location: expr.Location, Expr: expr})
			continue
		}
		tail = expr
		break
	}
	if _, err := p.expectSymbol(lexer.SymbolBraceRight); err != nil {
		return nil, err
	}
	return &ast.Expression{Kind: ast.ExprBlock, Location: open.Location, Statements: statements, Tail: tail}, nil
}

// isItemStart reports whether a token starts a statement production that
// is not itself an expression (so the block parser must call
// parseStatement rather than parseExpression).
func isItemStart(tok lexer.Token) bool {
	switch {
	case tok.IsKeyword(lexer.KeywordLet), tok.IsKeyword(lexer.KeywordConst),
		tok.IsKeyword(lexer.KeywordType), tok.IsKeyword(lexer.KeywordFn),
		tok.IsKeyword(lexer.KeywordFor), tok.IsKeyword(lexer.KeywordStruct),
		tok.IsKeyword(lexer.KeywordEnum), tok.IsKeyword(lexer.KeywordContract),
		tok.IsKeyword(lexer.KeywordMod), tok.IsKeyword(lexer.KeywordPub):
		return true
	default:
		return false
	}
}

// parseConditional parses `if cond { then } [else (if ... | { ... })]`.
func (p *Parser) parseConditional() (*ast.Expression, error) {
	tok, err := p.expectKeyword(lexer.KeywordIf)
	if err != nil {
		return nil, err
	}
	cond, err := p.parseExpressionNoStruct()
	if err != nil {
		return nil, err
	}
	then, err := p.parseBlockExpression()
	if err != nil {
		return nil, err
	}
	var elseBranch *ast.Expression
	next, err := p.peek()
	if err != nil {
		return nil, err
	}
	if next.IsKeyword(lexer.KeywordElse) {
		if _, err := p.next(); err != nil {
			return nil, err
		}
		after, err := p.peek()
		if err != nil {
			return nil, err
		}
		if after.IsKeyword(lexer.KeywordIf) {
			elseBranch, err = p.parseConditional()
			if err != nil {
				return nil, err
			}
		} else {
			elseBranch, err = p.parseBlockExpression()
			if err != nil {
				return nil, err
			}
		}
	}
	return &ast.Expression{
		Kind: ast.ExprConditional, Location: tok.Location,
		Condition: cond, ThenBranch: then, ElseBranch: elseBranch,
	}, nil
}

// parseMatch parses `match scrutinee { pattern => expr, ... }`.
func (p *Parser) parseMatch() (*ast.Expression, error) {
	tok, err := p.expectKeyword(lexer.KeywordMatch)
	if err != nil {
		return nil, err
	}
	scrutinee, err := p.parseExpressionNoStruct()
	if err != nil {
		return nil, err
	}
	if _, err := p.expectSymbol(lexer.SymbolBraceLeft); err != nil {
		return nil, err
	}
	var arms []ast.MatchArm
	for {
		t, err := p.peek()
		if err != nil {
			return nil, err
		}
		if t.IsSymbol(lexer.SymbolBraceRight) {
			break
		}
		pattern, err := p.parsePattern()
		if err != nil {
			return nil, err
		}
		if _, err := p.expectSymbol(lexer.SymbolFatArrow); err != nil {
			return nil, err
		}
		arm, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		arms = append(arms, ast.MatchArm{Pattern: pattern, Expression: arm})
		t, err = p.peek()
		if err != nil {
			return nil, err
		}
		if t.IsSymbol(lexer.SymbolComma) {
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
	return &ast.Expression{Kind: ast.ExprMatch, Location: tok.Location, Condition: scrutinee, Branches: arms}, nil
}

// parsePattern parses a single match-arm pattern: wildcard, literal,
// identifier binding, tuple or structure destructuring.
func (p *Parser) parsePattern() (ast.Pattern, error) {
	tok, err := p.peek()
	if err != nil {
		return ast.Pattern{}, err
	}
	switch {
	case tok.IsSymbol(lexer.SymbolUnderscore):
		if _, err := p.next(); err != nil {
			return ast.Pattern{}, err
		}
		return ast.Pattern{Kind: ast.PatternWildcard, Location: tok.Location}, nil
	case tok.Kind == lexer.LexemeLiteral:
		lit, err := p.parseTerminal()
		if err != nil {
			return ast.Pattern{}, err
		}
		return ast.Pattern{Kind: ast.PatternLiteral, Location: tok.Location, Literal: lit}, nil
	case tok.IsSymbol(lexer.SymbolParenLeft):
		if _, err := p.next(); err != nil {
			return ast.Pattern{}, err
		}
		var elements []ast.Pattern
		for {
			t, err := p.peek()
			if err != nil {
				return ast.Pattern{}, err
			}
			if t.IsSymbol(lexer.SymbolParenRight) {
				break
			}
			el, err := p.parsePattern()
			if err != nil {
				return ast.Pattern{}, err
			}
			elements = append(elements, el)
			t, err = p.peek()
			if err != nil {
				return ast.Pattern{}, err
			}
			if t.IsSymbol(lexer.SymbolComma) {
				if _, err := p.next(); err != nil {
					return ast.Pattern{}, err
				}
				continue
			}
			break
		}
		if _, err := p.expectSymbol(lexer.SymbolParenRight); err != nil {
			return ast.Pattern{}, err
		}
		return ast.Pattern{Kind: ast.PatternTuple, Location: tok.Location, Elements: elements}, nil
	case tok.Kind == lexer.LexemeIdentifier:
		name, loc, err := p.expectIdentifier()
		if err != nil {
			return ast.Pattern{}, err
		}
		return ast.Pattern{Kind: ast.PatternIdentifier, Location: loc, Name: name}, nil
	default:
		return ast.Pattern{}, diagnostics.NewSyntaxError(diagnostics.ExpectedValue, tok.Location, tok.Lexeme())
	}
}
