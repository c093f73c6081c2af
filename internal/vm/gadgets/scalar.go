// Package gadgets implements Zinc's R1CS primitive operations: each is
// performed twice, once as a witness-value computation and once as a
// constraint emission, so that the witness generated in one mode always
// satisfies the constraints synthesized in the other.
package gadgets

import (
	"github.com/consensys/gnark-crypto/ecc/bn254/fr"

	"zinc/internal/semantic/types"
)

// Variant tags whether a Scalar's field value is known (witness
// generation) or absent (verification-key synthesis, where only the
// constraint-system shape matters).
type Variant int

const (
	VariantConstant Variant = iota // known at compile time, no allocation
	VariantWitness                 // allocated variable, concrete value present
	VariantUnassigned               // allocated variable, value elided (proving-key synthesis)
)

// Scalar is one R1CS-visible value: either a compile-time constant
// requiring no constraints, or a variable carrying an allocation handle
// into the active ConstraintSystem.
type Scalar struct {
	Variant Variant
	Value   fr.Element // meaningful when Variant != VariantUnassigned
	Handle  int        // wire index, meaningful when Variant != VariantConstant
	Type    *types.Type
}

// NewConstant wraps a concrete field value with no backing allocation.
func NewConstant(v fr.Element, t *types.Type) Scalar {
	return Scalar{Variant: VariantConstant, Value: v, Type: t}
}

// NewConstantUint64 is a convenience constructor for small literal
// constants, such as the 1 in the comparison and Boolean gadgets.
func NewConstantUint64(v uint64, t *types.Type) Scalar {
	var e fr.Element
	e.SetUint64(v)
	return NewConstant(e, t)
}

// IsKnown reports whether the scalar carries a concrete value (true for
// constants and witness-mode variables, false for unassigned ones).
func (s Scalar) IsKnown() bool { return s.Variant != VariantUnassigned }
