package element

import (
	"zinc/internal/ast"
	"zinc/internal/diagnostics"
	"zinc/internal/semantic/types"
	"zinc/internal/source"
)

// ResultType dispatches a binary operator against its operand types and
// returns the result type, or a SemanticError if the types are
// incompatible. This table is the single source of truth the analyzer
// consults before emitting an arithmetic/comparison/logical
// instruction.
func ResultType(op ast.Operator, left, right *types.Type, loc source.Location) (*types.Type, error) {
	left, right = types.Resolve(left), types.Resolve(right)
	switch op {
	case ast.OpAdd, ast.OpSub, ast.OpMul:
		return sameIntegerOrField(left, right, loc)
	case ast.OpDiv:
		t, err := sameIntegerOrField(left, right, loc)
		if err != nil {
			return nil, err
		}
		if t.Kind == types.Field {
			return nil, diagnostics.NewSemanticError(diagnostics.CastToInvalidType, loc, "division is forbidden on Field")
		}
		return t, nil
	case ast.OpRem:
		t, err := sameIntegerOrField(left, right, loc)
		if err != nil {
			return nil, err
		}
		if t.Kind == types.Field {
			return nil, diagnostics.NewSemanticError(diagnostics.RemainderOnField, loc, "")
		}
		return t, nil
	case ast.OpBitOr, ast.OpBitXor, ast.OpBitAnd:
		if !types.IsInteger(left) || left.Kind == types.Field {
			return nil, diagnostics.NewSemanticError(diagnostics.TypeMismatch, loc, "bitwise operators require fixed-width integers")
		}
		return sameIntegerOrField(left, right, loc)
	case ast.OpShiftLeft, ast.OpShiftRight:
		if !types.IsInteger(left) || left.Kind == types.Field {
			return nil, diagnostics.NewSemanticError(diagnostics.TypeMismatch, loc, "shift operators require fixed-width integers")
		}
		if !types.IsInteger(right) {
			return nil, diagnostics.NewSemanticError(diagnostics.TypeMismatch, loc, "shift amount must be an integer")
		}
		return left, nil
	case ast.OpEq, ast.OpNe:
		if !types.Equal(left, right) {
			return nil, diagnostics.NewSemanticError(diagnostics.TypeMismatch, loc, "equality requires operands of the same type")
		}
		return types.TypeBoolean, nil
	case ast.OpLt, ast.OpLe, ast.OpGt, ast.OpGe:
		if _, err := sameIntegerOrField(left, right, loc); err != nil {
			return nil, err
		}
		return types.TypeBoolean, nil
	case ast.OpAnd, ast.OpOr, ast.OpXor:
		if left.Kind != types.Boolean || right.Kind != types.Boolean {
			return nil, diagnostics.NewSemanticError(diagnostics.TypeMismatch, loc, "logical operators require bool operands")
		}
		return types.TypeBoolean, nil
	default:
		return nil, diagnostics.NewSemanticError(diagnostics.TypeMismatch, loc, "operator not applicable in binary position")
	}
}

func sameIntegerOrField(left, right *types.Type, loc source.Location) (*types.Type, error) {
	if left == nil || right == nil || !types.Equal(left, right) {
		return nil, diagnostics.NewSemanticError(diagnostics.TypeMismatch, loc, "operands must share the same integer or field type")
	}
	if !types.IsInteger(left) && left.Kind != types.Field {
		return nil, diagnostics.NewSemanticError(diagnostics.TypeMismatch, loc, "arithmetic requires an integer or field type")
	}
	return left, nil
}

// UnaryResultType dispatches a unary operator against its operand type.
func UnaryResultType(op ast.Operator, operand *types.Type, loc source.Location) (*types.Type, error) {
	operand = types.Resolve(operand)
	switch op {
	case ast.OpNeg:
		if !types.IsInteger(operand) && operand.Kind != types.Field {
			return nil, diagnostics.NewSemanticError(diagnostics.TypeMismatch, loc, "unary minus requires an integer or field type")
		}
		if operand.Kind == types.IntegerUnsigned {
			return nil, diagnostics.NewSemanticError(diagnostics.TypeMismatch, loc, "unary minus is forbidden on unsigned integers")
		}
		return operand, nil
	case ast.OpNot:
		if operand.Kind != types.Boolean {
			return nil, diagnostics.NewSemanticError(diagnostics.TypeMismatch, loc, "logical not requires a bool operand")
		}
		return types.TypeBoolean, nil
	case ast.OpBitNot:
		if !types.IsInteger(operand) || operand.Kind == types.Field {
			return nil, diagnostics.NewSemanticError(diagnostics.TypeMismatch, loc, "bitwise not requires a fixed-width integer")
		}
		return operand, nil
	default:
		return nil, diagnostics.NewSemanticError(diagnostics.TypeMismatch, loc, "operator not applicable in unary position")
	}
}
