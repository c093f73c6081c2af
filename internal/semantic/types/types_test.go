package types

import (
	"math/big"
	"testing"
)

func TestMinimalUnsignedBitlength(t *testing.T) {
	cases := []struct {
		value string
		want  int
	}{
		{"300", 16},
		{"256", 16},
		{"255", 8},
	}
	for _, c := range cases {
		v, ok := new(big.Int).SetString(c.value, 10)
		if !ok {
			t.Fatalf("bad literal %q", c.value)
		}
		got := MinimalUnsignedBitlength(v)
		if got != c.want {
			t.Errorf("MinimalUnsignedBitlength(%s) = %d, want %d", c.value, got, c.want)
		}
	}
}

func TestMinimalUnsignedBitlengthEscalatesToField(t *testing.T) {
	v := new(big.Int).Lsh(big.NewInt(1), 248)
	if got := MinimalUnsignedBitlength(v); got != 0 {
		t.Errorf("expected escalation to Field (0), got %d", got)
	}
}

func TestCastLegalityTable(t *testing.T) {
	u8 := &Type{Kind: IntegerUnsigned, Bitlength: 8}
	u16 := &Type{Kind: IntegerUnsigned, Bitlength: 16}
	i16 := &Type{Kind: IntegerSigned, Bitlength: 16}
	i8 := &Type{Kind: IntegerSigned, Bitlength: 8}
	u248 := &Type{Kind: IntegerUnsigned, Bitlength: 248}
	field := &Type{Kind: Field}

	cases := []struct {
		name       string
		from, to   *Type
		wantLegal  bool
	}{
		{"u8->u16", u8, u16, true},
		{"u8->u8", u8, u8, false},
		{"u8->i16", u8, i16, true},
		{"u8->i8", u8, i8, false},
		{"u248->field", u248, field, true},
		{"field->u8", field, u8, false},
	}
	for _, c := range cases {
		if got := CanCast(c.from, c.to); got != c.wantLegal {
			t.Errorf("%s: CanCast = %v, want %v", c.name, got, c.wantLegal)
		}
	}
}
