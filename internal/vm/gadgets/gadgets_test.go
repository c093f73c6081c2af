package gadgets

import (
	"testing"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"

	"zinc/internal/source"
)

func cs() *ConstraintSystem { return NewConstraintSystem(0, 0, true) }

func locForTest() source.Location { return source.NewLocation("test.zn") }

func TestAddSubMulWitness(t *testing.T) {
	system := cs()
	a := NewConstantUint64(5, nil)
	b := NewConstantUint64(3, nil)

	sum := Add(system, a, b)
	if sum.Value.Uint64() != 8 {
		t.Errorf("5+3: got %v", sum.Value.Uint64())
	}
	diff := Sub(system, a, b)
	if diff.Value.Uint64() != 2 {
		t.Errorf("5-3: got %v", diff.Value.Uint64())
	}
	prod := Mul(system, a, b)
	if prod.Value.Uint64() != 15 {
		t.Errorf("5*3: got %v", prod.Value.Uint64())
	}
}

func TestSubWithVariableOperand(t *testing.T) {
	system := cs()
	a := NewConstantUint64(10, nil)
	wire := system.Allocate(a.Value)
	av := Scalar{Variant: VariantWitness, Value: a.Value, Handle: wire}
	b := NewConstantUint64(4, nil)

	diff := Sub(system, av, b)
	if diff.Value.Uint64() != 6 {
		t.Fatalf("10-4: got %v", diff.Value.Uint64())
	}
}

func TestEqualsDetectsZeroAndNonzeroDifference(t *testing.T) {
	system := cs()
	a := NewConstantUint64(7, nil)
	b := NewConstantUint64(7, nil)
	c := NewConstantUint64(8, nil)

	if Equals(system, a, b).Value.Uint64() != 1 {
		t.Errorf("expected 7 == 7")
	}
	if Equals(system, a, c).Value.Uint64() != 0 {
		t.Errorf("expected 7 != 8")
	}
}

func TestCompareOrdersSmallIntegers(t *testing.T) {
	system := cs()
	a := NewConstantUint64(3, nil)
	b := NewConstantUint64(5, nil)

	result := Compare(system, a, b, 8)
	if result.Lt.Value.Uint64() != 1 {
		t.Errorf("expected 3 < 5")
	}
	if result.Gt.Value.Uint64() != 0 {
		t.Errorf("expected not 3 > 5")
	}
}

func TestIntoBitsLERecomposesValue(t *testing.T) {
	system := cs()
	v := NewConstantUint64(0b1011, nil)
	wire := system.Allocate(v.Value)
	variable := Scalar{Variant: VariantWitness, Value: v.Value, Handle: wire}

	bits := IntoBitsLE(system, variable, 8)
	packed := PackBits(system, bits)
	if packed.Value.Uint64() != 0b1011 {
		t.Fatalf("expected recomposed value 11, got %v", packed.Value.Uint64())
	}
}

func TestConditionalSelectPicksBranch(t *testing.T) {
	system := cs()
	a := NewConstantUint64(100, nil)
	b := NewConstantUint64(200, nil)

	var trueVal fr.Element
	trueVal.SetOne()
	cond := NewConstant(trueVal, nil)
	if ConditionalSelect(system, cond, a, b).Value.Uint64() != 100 {
		t.Errorf("expected true branch selected")
	}
	cond = NewConstant(fr.Element{}, nil)
	if ConditionalSelect(system, cond, a, b).Value.Uint64() != 200 {
		t.Errorf("expected false branch selected")
	}
}

func TestRequireRejectsZeroCondition(t *testing.T) {
	system := cs()
	zero := NewConstant(fr.Element{}, nil)
	if err := Require(system, zero, "must hold", locForTest()); err == nil {
		t.Fatalf("expected error for zero condition")
	}
	one := NewConstantUint64(1, nil)
	if err := Require(system, one, "must hold", locForTest()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestRangeCheckRejectsOverflow(t *testing.T) {
	system := cs()
	small := NewConstantUint64(200, nil)
	if err := RangeCheck(system, small, 8, locForTest()); err != nil {
		t.Fatalf("unexpected error for in-range value: %v", err)
	}

	system = cs()
	tooBig := NewConstantUint64(300, nil)
	if err := RangeCheck(system, tooBig, 8, locForTest()); err == nil {
		t.Fatalf("expected an overflow error for a value exceeding 8 bits")
	}
}
