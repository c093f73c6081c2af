package parser

import (
	"zinc/internal/ast"
	"zinc/internal/diagnostics"
	"zinc/internal/lexer"
)

// parseExpression parses a full expression, struct-literals allowed.
func (p *Parser) parseExpression() (*ast.Expression, error) {
	return p.parseAssignment()
}

// parseExpressionNoStruct parses an expression where a bare `{` must be
// read as the start of a following block, not a structure literal — used
// in `for`/`if`/`while` condition position, matching the ambiguity every
// Rust-flavored grammar resolves the same way.
func (p *Parser) parseExpressionNoStruct() (*ast.Expression, error) {
	p.noStructDepth++
	defer func() { p.noStructDepth-- }()
	return p.parseAssignment()
}

func (p *Parser) parseAssignment() (*ast.Expression, error) {
	left, err := p.parseRange()
	if err != nil {
		return nil, err
	}
	tok, err := p.peek()
	if err != nil {
		return nil, err
	}
	if tok.Kind != lexer.LexemeSymbol {
		return left, nil
	}
	var op ast.Operator
	switch tok.Symbol {
	case lexer.SymbolAssign:
		op = ast.OpAssign
	case lexer.SymbolPlusEquals:
		op = ast.OpAssignAdd
	case lexer.SymbolMinusEquals:
		op = ast.OpAssignSub
	case lexer.SymbolAsteriskEq:
		op = ast.OpAssignMul
	case lexer.SymbolSlashEquals:
		op = ast.OpAssignDiv
	case lexer.SymbolPercentEq:
		op = ast.OpAssignRem
	default:
		return left, nil
	}
	if _, err := p.next(); err != nil {
		return nil, err
	}
	right, err := p.parseAssignment()
	if err != nil {
		return nil, err
	}
	return &ast.Expression{Kind: ast.ExprBinary, Location: tok.Location, Operator: op, Left: left, Right: right}, nil
}

func (p *Parser) parseRange() (*ast.Expression, error) {
	left, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	tok, err := p.peek()
	if err != nil {
		return nil, err
	}
	var op ast.Operator
	switch {
	case tok.IsSymbol(lexer.SymbolDotDot):
		op = ast.OpRange
	case tok.IsSymbol(lexer.SymbolDotDotEquals):
		op = ast.OpRangeInclusive
	default:
		return left, nil
	}
	if _, err := p.next(); err != nil {
		return nil, err
	}
	right, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	return &ast.Expression{Kind: ast.ExprBinary, Location: tok.Location, Operator: op, Left: left, Right: right}, nil
}

// binaryLevel parses a left-associative chain of same-precedence operators,
// delegating each operand to `next` and using `match` to test whether the
// peeked token is an operator of this level.
func (p *Parser) binaryLevel(next func() (*ast.Expression, error), match func(lexer.Token) (ast.Operator, bool)) (*ast.Expression, error) {
	left, err := next()
	if err != nil {
		return nil, err
	}
	for {
		tok, err := p.peek()
		if err != nil {
			return nil, err
		}
		op, ok := match(tok)
		if !ok {
			return left, nil
		}
		if _, err := p.next(); err != nil {
			return nil, err
		}
		right, err := next()
		if err != nil {
			return nil, err
		}
		left = &ast.Expression{Kind: ast.ExprBinary, Location: tok.Location, Operator: op, Left: left, Right: right}
	}
}

func (p *Parser) parseOr() (*ast.Expression, error) {
	return p.binaryLevel(p.parseXor, func(t lexer.Token) (ast.Operator, bool) {
		if t.IsSymbol(lexer.SymbolOrOr) {
			return ast.OpOr, true
		}
		return 0, false
	})
}

func (p *Parser) parseXor() (*ast.Expression, error) {
	return p.binaryLevel(p.parseAnd, func(t lexer.Token) (ast.Operator, bool) {
		if t.IsSymbol(lexer.SymbolXorXor) {
			return ast.OpXor, true
		}
		return 0, false
	})
}

func (p *Parser) parseAnd() (*ast.Expression, error) {
	return p.binaryLevel(p.parseComparison, func(t lexer.Token) (ast.Operator, bool) {
		if t.IsSymbol(lexer.SymbolAndAnd) {
			return ast.OpAnd, true
		}
		return 0, false
	})
}

// parseComparison does not chain: `a == b == c` is rejected by requiring at
// most one comparison operator at this level, matching spec.md's "both
// sides same integer type" contract operating on exactly two operands.
func (p *Parser) parseComparison() (*ast.Expression, error) {
	left, err := p.parseBitOr()
	if err != nil {
		return nil, err
	}
	tok, err := p.peek()
	if err != nil {
		return nil, err
	}
	var op ast.Operator
	switch {
	case tok.IsSymbol(lexer.SymbolEquals2):
		op = ast.OpEq
	case tok.IsSymbol(lexer.SymbolNotEquals):
		op = ast.OpNe
	case tok.IsSymbol(lexer.SymbolLess):
		op = ast.OpLt
	case tok.IsSymbol(lexer.SymbolLessEquals):
		op = ast.OpLe
	case tok.IsSymbol(lexer.SymbolGreater):
		op = ast.OpGt
	case tok.IsSymbol(lexer.SymbolGreaterEq):
		op = ast.OpGe
	default:
		return left, nil
	}
	if _, err := p.next(); err != nil {
		return nil, err
	}
	right, err := p.parseBitOr()
	if err != nil {
		return nil, err
	}
	return &ast.Expression{Kind: ast.ExprBinary, Location: tok.Location, Operator: op, Left: left, Right: right}, nil
}

func (p *Parser) parseBitOr() (*ast.Expression, error) {
	return p.binaryLevel(p.parseBitXor, func(t lexer.Token) (ast.Operator, bool) {
		if t.IsSymbol(lexer.SymbolPipe) {
			return ast.OpBitOr, true
		}
		return 0, false
	})
}

func (p *Parser) parseBitXor() (*ast.Expression, error) {
	return p.binaryLevel(p.parseBitAnd, func(t lexer.Token) (ast.Operator, bool) {
		if t.IsSymbol(lexer.SymbolCaret) {
			return ast.OpBitXor, true
		}
		return 0, false
	})
}

func (p *Parser) parseBitAnd() (*ast.Expression, error) {
	return p.binaryLevel(p.parseShift, func(t lexer.Token) (ast.Operator, bool) {
		if t.IsSymbol(lexer.SymbolAmpersand) {
			return ast.OpBitAnd, true
		}
		return 0, false
	})
}

func (p *Parser) parseShift() (*ast.Expression, error) {
	return p.binaryLevel(p.parseAdd, func(t lexer.Token) (ast.Operator, bool) {
		switch {
		case t.IsSymbol(lexer.SymbolShiftLeft):
			return ast.OpShiftLeft, true
		case t.IsSymbol(lexer.SymbolShiftRight):
			return ast.OpShiftRight, true
		}
		return 0, false
	})
}

func (p *Parser) parseAdd() (*ast.Expression, error) {
	return p.binaryLevel(p.parseMul, func(t lexer.Token) (ast.Operator, bool) {
		switch {
		case t.IsSymbol(lexer.SymbolPlus):
			return ast.OpAdd, true
		case t.IsSymbol(lexer.SymbolMinus):
			return ast.OpSub, true
		}
		return 0, false
	})
}

func (p *Parser) parseMul() (*ast.Expression, error) {
	return p.binaryLevel(p.parseCast, func(t lexer.Token) (ast.Operator, bool) {
		switch {
		case t.IsSymbol(lexer.SymbolAsterisk):
			return ast.OpMul, true
		case t.IsSymbol(lexer.SymbolSlash):
			return ast.OpDiv, true
		case t.IsSymbol(lexer.SymbolPercent):
			return ast.OpRem, true
		}
		return 0, false
	})
}

func (p *Parser) parseCast() (*ast.Expression, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for {
		tok, err := p.peek()
		if err != nil {
			return nil, err
		}
		if !tok.IsKeyword(lexer.KeywordAs) {
			return left, nil
		}
		if _, err := p.next(); err != nil {
			return nil, err
		}
		t, err := p.parseType()
		if err != nil {
			return nil, err
		}
		right := &ast.Expression{Kind: ast.ExprType, Location: t.Location, TypeNode: t}
		left = &ast.Expression{Kind: ast.ExprBinary, Location: tok.Location, Operator: ast.OpCast, Left: left, Right: right}
	}
}

func (p *Parser) parseUnary() (*ast.Expression, error) {
	tok, err := p.peek()
	if err != nil {
		return nil, err
	}
	var op ast.Operator
	switch {
	case tok.IsSymbol(lexer.SymbolMinus):
		op = ast.OpNeg
	case tok.IsSymbol(lexer.SymbolExclamation):
		// `!` covers both boolean negation and bitwise complement; the
		// analyzer disambiguates by operand type, as Rust does.
		op = ast.OpNot
	default:
		return p.parseAccess()
	}
	if _, err := p.next(); err != nil {
		return nil, err
	}
	operand, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	return &ast.Expression{Kind: ast.ExprUnary, Location: tok.Location, Operator: op, Operand: operand}, nil
}

// parseAccess implements the access chain: postfix `.field`, `[index]` and
// `(args)`, left-associative, binding tighter than any other operator.
func (p *Parser) parseAccess() (*ast.Expression, error) {
	base, err := p.parseTerminal()
	if err != nil {
		return nil, err
	}
	for {
		tok, err := p.peek()
		if err != nil {
			return nil, err
		}
		switch {
		case tok.IsSymbol(lexer.SymbolDot):
			if _, err := p.next(); err != nil {
				return nil, err
			}
			field, err := p.next()
			if err != nil {
				return nil, err
			}
			if field.Kind == lexer.LexemeLiteral && field.Literal.Kind == lexer.LiteralIntegerDecimal {
				idx := 0
				for _, c := range field.Literal.Digits {
					idx = idx*10 + int(c-'0')
				}
				base = &ast.Expression{Kind: ast.ExprField, Location: tok.Location, Left: base, TupleIndex: idx}
			} else if field.Kind == lexer.LexemeIdentifier {
				base = &ast.Expression{Kind: ast.ExprField, Location: tok.Location, Left: base, Name: field.Identifier}
			} else {
				return nil, diagnostics.NewSyntaxError(diagnostics.ExpectedIdentifier, field.Location, field.Lexeme())
			}
		case tok.IsSymbol(lexer.SymbolBracketLeft):
			if _, err := p.next(); err != nil {
				return nil, err
			}
			index, err := p.parseExpression()
			if err != nil {
				return nil, err
			}
			if _, err := p.expectSymbol(lexer.SymbolBracketRight); err != nil {
				return nil, err
			}
			base = &ast.Expression{Kind: ast.ExprIndex, Location: tok.Location, Left: base, Right: index}
		case tok.IsSymbol(lexer.SymbolParenLeft):
			if _, err := p.next(); err != nil {
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
			base = &ast.Expression{Kind: ast.ExprCall, Location: tok.Location, Left: base, Elements: args}
		default:
			return base, nil
		}
	}
}
