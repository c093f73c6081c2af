package gadgets

import (
	"fmt"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
)

// Term is one coefficient·wire pair of a linear combination.
type Term struct {
	Coefficient fr.Element
	Wire        int // -1 denotes the constant-one wire
}

// LinearCombination is a sum of Terms, the operand shape every R1CS
// constraint (A·B=C) is built from.
type LinearCombination []Term

// Constant builds a linear combination equal to a fixed field value.
func Constant(v fr.Element) LinearCombination {
	return LinearCombination{{Coefficient: v, Wire: -1}}
}

// Var builds a linear combination equal to one wire with coefficient 1.
func Var(wire int) LinearCombination {
	var one fr.Element
	one.SetOne()
	return LinearCombination{{Coefficient: one, Wire: wire}}
}

// Constraint is one row of the R1CS: A·B = C.
type Constraint struct {
	A, B, C LinearCombination
	Name    string
}

// ConstraintSystem accumulates wire allocations and A·B=C rows for one
// VM instruction step. Each instruction opens a fresh namespace so
// constraint names are unique and deterministic, matching the naming
// scheme `step_{n}_addr_{pc}::inner`.
type ConstraintSystem struct {
	namespace    string
	nextWire     int
	assignments  map[int]fr.Element // present only in witness-generation mode
	witnessMode  bool
	constraints  []Constraint
	publicInputs []int
}

// NewConstraintSystem starts a constraint system for one instruction
// step. witnessMode selects whether allocations carry concrete values
// (true, witness generation) or are value-elided (false, verification
// synthesis) — the constraint shape is identical either way.
func NewConstraintSystem(step, pc int, witnessMode bool) *ConstraintSystem {
	return &ConstraintSystem{
		namespace:   fmt.Sprintf("step_%d_addr_%d", step, pc),
		assignments: map[int]fr.Element{},
		witnessMode: witnessMode,
	}
}

// Allocate reserves a new wire. In witness mode it is assigned value;
// in synthesis mode the value is ignored and the wire is left unassigned.
func (cs *ConstraintSystem) Allocate(value fr.Element) int {
	w := cs.nextWire
	cs.nextWire++
	if cs.witnessMode {
		cs.assignments[w] = value
	}
	return w
}

// Inputize marks a wire as a public input and asserts it equals the
// given witness wire, per the Inputize gadget's single equality
// constraint.
func (cs *ConstraintSystem) Inputize(witnessWire int) int {
	pub := cs.Allocate(cs.valueOf(witnessWire))
	cs.AssertEqual(Var(pub), Var(witnessWire), "inputize")
	cs.publicInputs = append(cs.publicInputs, pub)
	return pub
}

func (cs *ConstraintSystem) valueOf(wire int) fr.Element {
	v, ok := cs.assignments[wire]
	if !ok {
		return fr.Element{}
	}
	return v
}

// Enforce records one A·B=C row under the system's namespace.
func (cs *ConstraintSystem) Enforce(a, b, c LinearCombination, label string) {
	cs.constraints = append(cs.constraints, Constraint{A: a, B: b, C: c, Name: cs.namespace + "::" + label})
}

// AssertEqual enforces lhs·1 = rhs, the single-constraint equality form
// every gadget below builds on.
func (cs *ConstraintSystem) AssertEqual(lhs, rhs LinearCombination, label string) {
	var one fr.Element
	one.SetOne()
	cs.Enforce(lhs, Constant(one), rhs, label)
}

// Constraints returns the recorded rows, for inspection/tests.
func (cs *ConstraintSystem) Constraints() []Constraint { return cs.constraints }

// Eval evaluates a linear combination against the current assignment
// map, without a full R1CS solve.
func (cs *ConstraintSystem) Eval(lc LinearCombination) fr.Element {
	var acc fr.Element
	for _, term := range lc {
		var val fr.Element
		if term.Wire == -1 {
			val.SetOne()
		} else {
			val = cs.valueOf(term.Wire)
		}
		val.Mul(&val, &term.Coefficient)
		acc.Add(&acc, &val)
	}
	return acc
}
