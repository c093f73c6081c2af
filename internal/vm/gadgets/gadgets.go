package gadgets

import (
	"math/big"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/holiman/uint256"

	"zinc/internal/diagnostics"
	"zinc/internal/source"
)

func lcOf(s Scalar) LinearCombination {
	if s.Variant == VariantConstant {
		return Constant(s.Value)
	}
	return Var(s.Handle)
}

// valueOf returns the scalar's concrete value when known, or the zero
// element when synthesizing without a witness.
func valueOf(s Scalar) fr.Element {
	if s.Variant == VariantUnassigned {
		return fr.Element{}
	}
	return s.Value
}

// Add allocates out = a + b with a single linear constraint.
func Add(cs *ConstraintSystem, a, b Scalar) Scalar {
	if a.Variant == VariantConstant && b.Variant == VariantConstant {
		var sum fr.Element
		sum.Add(&a.Value, &b.Value)
		return NewConstant(sum, a.Type)
	}
	var sum fr.Element
	av, bv := valueOf(a), valueOf(b)
	sum.Add(&av, &bv)
	wire := cs.Allocate(sum)
	var one fr.Element
	one.SetOne()
	lhs := append(append(LinearCombination{}, lcOf(a)...), lcOf(b)...)
	cs.Enforce(lhs, Constant(one), Var(wire), "add")
	return Scalar{Variant: witnessVariant(cs), Value: sum, Handle: wire, Type: a.Type}
}

// Sub allocates out = a - b with a single linear constraint.
func Sub(cs *ConstraintSystem, a, b Scalar) Scalar {
	if a.Variant == VariantConstant && b.Variant == VariantConstant {
		var diff fr.Element
		diff.Sub(&a.Value, &b.Value)
		return NewConstant(diff, a.Type)
	}
	av, bv := valueOf(a), valueOf(b)
	var diff fr.Element
	diff.Sub(&av, &bv)
	wire := cs.Allocate(diff)
	var one fr.Element
	one.SetOne()
	lhs := append(append(LinearCombination{}, lcOf(a)...), negatedTerm(b))
	cs.Enforce(lhs, Constant(one), Var(wire), "sub")
	return Scalar{Variant: witnessVariant(cs), Value: diff, Handle: wire, Type: a.Type}
}

// negatedTerm builds the single Term representing -b within a larger
// linear combination, whether b is a constant or an allocated wire.
func negatedTerm(b Scalar) Term {
	var negOne fr.Element
	negOne.SetOne()
	negOne.Neg(&negOne)
	if b.Variant == VariantConstant {
		var coeff fr.Element
		coeff.Neg(&b.Value)
		return Term{Coefficient: coeff, Wire: -1}
	}
	return Term{Coefficient: negOne, Wire: b.Handle}
}

// termScaledBy builds a Term equal to scale·s, folding a constant
// scalar's value into the coefficient directly.
func termScaledBy(s Scalar, scale fr.Element) Term {
	if s.Variant == VariantConstant {
		var coeff fr.Element
		coeff.Mul(&scale, &s.Value)
		return Term{Coefficient: coeff, Wire: -1}
	}
	return Term{Coefficient: scale, Wire: s.Handle}
}

// Mul allocates out = a * b with the canonical R1CS product constraint.
func Mul(cs *ConstraintSystem, a, b Scalar) Scalar {
	if a.Variant == VariantConstant && b.Variant == VariantConstant {
		var prod fr.Element
		prod.Mul(&a.Value, &b.Value)
		return NewConstant(prod, a.Type)
	}
	av, bv := valueOf(a), valueOf(b)
	var prod fr.Element
	prod.Mul(&av, &bv)
	wire := cs.Allocate(prod)
	cs.Enforce(lcOf(a), lcOf(b), Var(wire), "mul")
	return Scalar{Variant: witnessVariant(cs), Value: prod, Handle: wire, Type: a.Type}
}

// Neg allocates out = -a via a·(-1) = out.
func Neg(cs *ConstraintSystem, a Scalar) Scalar {
	if a.Variant == VariantConstant {
		var neg fr.Element
		neg.Neg(&a.Value)
		return NewConstant(neg, a.Type)
	}
	av := valueOf(a)
	var neg fr.Element
	neg.Neg(&av)
	wire := cs.Allocate(neg)
	var negOne fr.Element
	negOne.SetOne()
	negOne.Neg(&negOne)
	cs.Enforce(lcOf(a), Constant(negOne), Var(wire), "neg")
	return Scalar{Variant: witnessVariant(cs), Value: neg, Handle: wire, Type: a.Type}
}

func witnessVariant(cs *ConstraintSystem) Variant {
	if cs.witnessMode {
		return VariantWitness
	}
	return VariantUnassigned
}

// IntoBitsLE decomposes value into n little-endian bits, each
// constrained Boolean, plus one recomposition constraint tying the
// bits back to value. Used by comparisons, range checks and casts.
func IntoBitsLE(cs *ConstraintSystem, value Scalar, n int) []Scalar {
	v := valueOf(value)
	bits := make([]Scalar, n)
	var acc fr.Element
	var two fr.Element
	two.SetUint64(2)
	pow := fr.One()
	recompose := LinearCombination{}
	for i := 0; i < n; i++ {
		bitVal := bitAt(v, i)
		wire := cs.Allocate(bitVal)
		// b·(1-b) = 0
		var one, negOne fr.Element
		one.SetOne()
		negOne.Neg(&one)
		oneMinusB := LinearCombination{{Coefficient: one, Wire: -1}, {Coefficient: negOne, Wire: wire}}
		cs.Enforce(Var(wire), oneMinusB, Constant(fr.Element{}), "bit-boolean")
		bits[i] = Scalar{Variant: witnessVariant(cs), Value: bitVal, Handle: wire, Type: value.Type}
		recompose = append(recompose, Term{Coefficient: pow, Wire: wire})
		var contrib fr.Element
		contrib.Mul(&bitVal, &pow)
		acc.Add(&acc, &contrib)
		pow.Mul(&pow, &two)
	}
	var one fr.Element
	one.SetOne()
	cs.Enforce(recompose, Constant(one), lcOf(value), "bits-recompose")
	return bits
}

func bitAt(v fr.Element, i int) fr.Element {
	asBigInt := v.BigInt(new(big.Int))
	var b fr.Element
	if asBigInt.Bit(i) == 1 {
		b.SetOne()
	}
	return b
}

// PackBits recomposes little-endian bits into a single scalar via one
// linear-combination constraint, the inverse of IntoBitsLE.
func PackBits(cs *ConstraintSystem, bits []Scalar) Scalar {
	var acc fr.Element
	var two fr.Element
	two.SetUint64(2)
	pow := fr.One()
	lc := LinearCombination{}
	for _, b := range bits {
		bv := valueOf(b)
		var contrib fr.Element
		contrib.Mul(&bv, &pow)
		acc.Add(&acc, &contrib)
		lc = append(lc, termScaledBy(b, pow))
		pow.Mul(&pow, &two)
	}
	wire := cs.Allocate(acc)
	var one fr.Element
	one.SetOne()
	cs.Enforce(lc, Constant(one), Var(wire), "pack-bits")
	return Scalar{Variant: witnessVariant(cs), Value: acc, Handle: wire, Type: bits[0].Type}
}

// Equals reports whether a == b as a Boolean scalar, using the
// standard zero-test gadget: allocate an inverse witness so that
// `diff * inv = 1 - is_equal` and `is_equal * diff = 0`.
func Equals(cs *ConstraintSystem, a, b Scalar) Scalar {
	diff := Sub(cs, a, b)
	dv := valueOf(diff)
	var inv, isEqual fr.Element
	if dv.IsZero() {
		isEqual.SetOne()
	} else {
		inv.Inverse(&dv)
	}
	invWire := cs.Allocate(inv)
	eqWire := cs.Allocate(isEqual)
	// diff * inv = 1 - is_equal
	var one fr.Element
	one.SetOne()
	var negOne fr.Element
	negOne.SetOne()
	negOne.Neg(&negOne)
	cs.Enforce(lcOf(diff), Var(invWire), LinearCombination{{Coefficient: one, Wire: -1}, {Coefficient: negOne, Wire: eqWire}}, "eq-inverse")
	// is_equal * diff = 0
	cs.Enforce(Var(eqWire), lcOf(diff), Constant(fr.Element{}), "eq-zero")
	return Scalar{Variant: witnessVariant(cs), Value: isEqual, Handle: eqWire, Type: nil}
}

// Compare decomposes a-b+2^n into n+1 bits (n = operand bitlength) and
// reads lt/le/gt/ge off the top bit together with the zero test,
// per the spec's shared comparison gadget.
type CompareResult struct {
	Lt, Le, Gt, Ge Scalar
}

func Compare(cs *ConstraintSystem, a, b Scalar, bitlength int) CompareResult {
	var offset fr.Element
	offset.SetBigInt(new(big.Int).Lsh(big.NewInt(1), uint(bitlength)))
	diff := Add(cs, Sub(cs, a, b), NewConstant(offset, nil))
	bits := IntoBitsLE(cs, diff, bitlength+1)
	geBit := bits[bitlength] // top bit of a-b+2^n: 1 when a >= b
	eq := Equals(cs, a, b)

	notEq := Sub(cs, NewConstantUint64(1, nil), eq)
	lt := Sub(cs, NewConstantUint64(1, nil), geBit)
	le := Add(cs, lt, Mul(cs, eq, Sub(cs, NewConstantUint64(1, nil), lt)))
	gt := Mul(cs, notEq, geBit)
	ge := geBit
	return CompareResult{Lt: lt, Le: le, Gt: gt, Ge: ge}
}

// And/Or/Xor/Not operate on Boolean scalars with 1-2 linear constraints.
func And(cs *ConstraintSystem, a, b Scalar) Scalar { return Mul(cs, a, b) }

func Or(cs *ConstraintSystem, a, b Scalar) Scalar {
	sum := Add(cs, a, b)
	prod := Mul(cs, a, b)
	return Sub(cs, sum, prod)
}

func Xor(cs *ConstraintSystem, a, b Scalar) Scalar {
	sum := Add(cs, a, b)
	prod := Mul(cs, a, b)
	two := NewConstantUint64(2, nil)
	return Sub(cs, sum, Mul(cs, two, prod))
}

func Not(cs *ConstraintSystem, a Scalar) Scalar {
	return Sub(cs, NewConstantUint64(1, nil), a)
}

// BitAnd/BitOr/BitXor combine two n-bit integers bit by bit: decompose
// both operands, apply the Boolean gadget per bit pair, and recompose.
// Unlike And/Or/Xor above (valid only for single-bit operands) these
// hold for any fixed-width integer.
func BitAnd(cs *ConstraintSystem, a, b Scalar, n int) Scalar { return bitwise(cs, a, b, n, And) }

func BitOr(cs *ConstraintSystem, a, b Scalar, n int) Scalar { return bitwise(cs, a, b, n, Or) }

func BitXor(cs *ConstraintSystem, a, b Scalar, n int) Scalar { return bitwise(cs, a, b, n, Xor) }

func bitwise(cs *ConstraintSystem, a, b Scalar, n int, perBit func(*ConstraintSystem, Scalar, Scalar) Scalar) Scalar {
	aBits := IntoBitsLE(cs, a, n)
	bBits := IntoBitsLE(cs, b, n)
	out := make([]Scalar, n)
	for i := range out {
		out[i] = perBit(cs, aBits[i], bBits[i])
	}
	result := PackBits(cs, out)
	result.Type = a.Type
	return result
}

// BitNot flips every bit of a's n-bit decomposition.
func BitNot(cs *ConstraintSystem, a Scalar, n int) Scalar {
	bits := IntoBitsLE(cs, a, n)
	out := make([]Scalar, n)
	for i, b := range bits {
		out[i] = Not(cs, b)
	}
	result := PackBits(cs, out)
	result.Type = a.Type
	return result
}

// ShiftLeft/ShiftRight shift a's n-bit decomposition by shift's concrete
// integer value, zero-filling the vacated positions and discarding bits
// that fall off either end. The shift amount must carry a known value
// (constant or witness); this gadget is not meant for use in
// verification-key-only synthesis with an unassigned shift count.
func ShiftLeft(cs *ConstraintSystem, a, shift Scalar, n int) Scalar { return shiftBy(cs, a, shift, n, 1) }

func ShiftRight(cs *ConstraintSystem, a, shift Scalar, n int) Scalar {
	return shiftBy(cs, a, shift, n, -1)
}

func shiftBy(cs *ConstraintSystem, a, shift Scalar, n int, direction int) Scalar {
	bits := IntoBitsLE(cs, a, n)
	amount := int(valueOf(shift).BigInt(new(big.Int)).Int64()) * direction
	zero := NewConstantUint64(0, a.Type)
	out := make([]Scalar, n)
	for i := range out {
		src := i - amount
		if src >= 0 && src < n {
			out[i] = bits[src]
		} else {
			out[i] = zero
		}
	}
	result := PackBits(cs, out)
	result.Type = a.Type
	return result
}

// ConditionalSelect implements c·(a−b) + b = out, the single-constraint
// merge used by Store and StorageStore to mask a write under the
// active branch condition.
func ConditionalSelect(cs *ConstraintSystem, cond, a, b Scalar) Scalar {
	diff := Sub(cs, a, b)
	scaled := Mul(cs, cond, diff)
	return Add(cs, scaled, b)
}

// RangeCheck asserts value fits in targetBitlength bits: bitlength
// bit-constraints plus the recomposition constraint from IntoBitsLE
// serve as the range check directly. In witness mode, fitsUint256
// first runs a cheap fixed-width overflow test so a violation is
// reported immediately rather than surfacing later as an unsatisfiable
// constraint.
func RangeCheck(cs *ConstraintSystem, value Scalar, targetBitlength int, loc source.Location) error {
	if cs.witnessMode && targetBitlength <= 256 && value.Variant != VariantUnassigned {
		if !fitsUint256(value.Value, targetBitlength) {
			return diagnostics.NewRuntimeError(diagnostics.ValueOverflow, loc, "value exceeds its declared bit width")
		}
	}
	IntoBitsLE(cs, value, targetBitlength)
	return nil
}

// fitsUint256 reports whether v's integer value fits within bits using
// uint256's fixed-width representation, the fast path for range checks
// on anything no wider than the EVM word size.
func fitsUint256(v fr.Element, bits int) bool {
	b := v.Bytes()
	u := uint256.NewInt(0).SetBytes(b[:])
	limit := uint256.NewInt(1)
	limit.Lsh(limit, uint(bits))
	return u.Lt(limit)
}

// Require asserts cond != 0 via an auxiliary inverse witness:
// cond · (1/cond) = 1. If cond is zero the inverse witness cannot
// satisfy the constraint and proving fails; at witness-generation time
// we additionally raise a RuntimeError eagerly so callers fail fast
// rather than waiting on a proving-time failure.
func Require(cs *ConstraintSystem, cond Scalar, message string, loc source.Location) error {
	cv := valueOf(cond)
	if cs.witnessMode && cv.IsZero() {
		return diagnostics.NewRuntimeError(diagnostics.AssertionFailure, loc, message)
	}
	var inv fr.Element
	if !cv.IsZero() {
		inv.Inverse(&cv)
	}
	invWire := cs.Allocate(inv)
	var one fr.Element
	one.SetOne()
	cs.Enforce(lcOf(cond), Var(invWire), Constant(one), "require")
	return nil
}
