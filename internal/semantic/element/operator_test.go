package element

import (
	"testing"

	"zinc/internal/ast"
	"zinc/internal/semantic/types"
	"zinc/internal/source"
)

func loc() source.Location { return source.NewLocation("test.zn") }

func TestResultTypeArithmeticRequiresMatchingOperands(t *testing.T) {
	u8 := &types.Type{Kind: types.IntegerUnsigned, Bitlength: 8}
	u16 := &types.Type{Kind: types.IntegerUnsigned, Bitlength: 16}

	if _, err := ResultType(ast.OpAdd, u8, u16, loc()); err == nil {
		t.Fatalf("expected mismatch error for u8 + u16")
	}
	got, err := ResultType(ast.OpAdd, u8, u8, loc())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Kind != types.IntegerUnsigned || got.Bitlength != 8 {
		t.Fatalf("expected u8 result, got %v", got)
	}
}

func TestResultTypeRemainderForbiddenOnField(t *testing.T) {
	if _, err := ResultType(ast.OpRem, types.TypeField, types.TypeField, loc()); err == nil {
		t.Fatalf("expected remainder-on-field to be rejected")
	}
}

func TestResultTypeComparisonYieldsBoolean(t *testing.T) {
	i32 := &types.Type{Kind: types.IntegerSigned, Bitlength: 32}
	got, err := ResultType(ast.OpLt, i32, i32, loc())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Kind != types.Boolean {
		t.Fatalf("expected bool result from comparison, got %v", got)
	}
}

func TestUnaryNegForbiddenOnUnsigned(t *testing.T) {
	u8 := &types.Type{Kind: types.IntegerUnsigned, Bitlength: 8}
	if _, err := UnaryResultType(ast.OpNeg, u8, loc()); err == nil {
		t.Fatalf("expected unary minus on unsigned to be rejected")
	}
}
