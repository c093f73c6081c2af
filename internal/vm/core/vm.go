// Package core implements Zinc's VM execution state machine: a stack
// machine over an evaluation stack, frame-local data stack, condition
// stack and frame stack, where every opcode either runs as plain
// witness arithmetic or additionally synthesizes R1CS constraints in
// lockstep, depending on the run's mode.
package core

import (
	"math/big"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"

	"zinc/internal/bytecode"
	"zinc/internal/diagnostics"
	"zinc/internal/semantic/types"
	"zinc/internal/source"
	"zinc/internal/vm/gadgets"
	"zinc/internal/vm/storage"
)

// BlockKind tags a Frame's open Block.
type BlockKind int

const (
	BlockBranch BlockKind = iota
	BlockLoop
)

// Block is one entry on a Frame's block stack: either an if/else branch
// awaiting EndIf, or a bounded loop awaiting LoopEnd.
type Block struct {
	Kind BlockKind

	// Branch.
	Condition gadgets.Scalar
	InElseArm bool
	DeltasIf  map[int]gadgets.Scalar
	DeltasElse map[int]gadgets.Scalar

	// Loop.
	FirstInstructionIndex int
	IterationsLeft        int
}

// Frame is one call's activation record.
type Frame struct {
	StackFrameStart int
	StackFrameEnd   int
	ReturnAddress   int
	Blocks          []Block
}

// exitSentinel is the instruction-counter value Exit jumps to, past the
// end of any real program.
const exitSentinel = -1

// VM holds the full machine state for one program execution.
type VM struct {
	program *bytecode.Program
	storage *storage.Gadget

	evaluationStack []gadgets.Scalar
	dataStack       []gadgets.Scalar
	globals         []gadgets.Scalar
	conditionStack  []gadgets.Scalar
	framesStack     []*Frame

	instructionCounter int
	outputs            []gadgets.Scalar

	witnessMode bool
	stepCounter int

	// mtreemap backs the std::collections::MTreeMap intrinsics; see
	// internal/vm/core/intrinsics.go.
	mtreemap map[string]gadgets.Scalar
}

// New constructs a VM ready to execute program, starting with the root
// frame at data-stack offset 0 and an always-true condition.
func New(program *bytecode.Program, st *storage.Gadget, witnessMode bool) *VM {
	var one fr.Element
	one.SetOne()
	vm := &VM{
		program:        program,
		storage:        st,
		conditionStack: []gadgets.Scalar{gadgets.NewConstant(one, nil)},
		framesStack:    []*Frame{{StackFrameStart: 0, StackFrameEnd: 0, ReturnAddress: exitSentinel}},
		witnessMode:    witnessMode,
	}
	return vm
}

func (vm *VM) currentFrame() *Frame { return vm.framesStack[len(vm.framesStack)-1] }

func (vm *VM) currentCondition() gadgets.Scalar {
	return vm.conditionStack[len(vm.conditionStack)-1]
}

func (vm *VM) pushEval(s gadgets.Scalar) { vm.evaluationStack = append(vm.evaluationStack, s) }

// SeedInputs pushes the program's input values onto the evaluation stack
// in argument order, ready for the leading Call instruction to pop them
// into main's frame. Callers must seed before the first Run.
func (vm *VM) SeedInputs(values []gadgets.Scalar) {
	for _, v := range values {
		vm.pushEval(v)
	}
}

func (vm *VM) popEval(loc source.Location) (gadgets.Scalar, error) {
	if len(vm.evaluationStack) == 0 {
		return gadgets.Scalar{}, diagnostics.NewRuntimeError(diagnostics.StackUnderflow, loc, "evaluation stack empty")
	}
	v := vm.evaluationStack[len(vm.evaluationStack)-1]
	vm.evaluationStack = vm.evaluationStack[:len(vm.evaluationStack)-1]
	return v, nil
}

// Run executes the program to completion (an Exit instruction or the
// instruction counter running off the end) and returns the outputs.
func (vm *VM) Run(loc source.Location) ([]gadgets.Scalar, error) {
	for vm.instructionCounter != exitSentinel && vm.instructionCounter < len(vm.program.Instructions) {
		if err := vm.step(loc); err != nil {
			return nil, err
		}
	}
	return vm.outputs, nil
}

func (vm *VM) step(loc source.Location) error {
	ins := vm.program.Instructions[vm.instructionCounter]
	cs := gadgets.NewConstraintSystem(vm.stepCounter, vm.instructionCounter, vm.witnessMode)
	vm.stepCounter++

	next := vm.instructionCounter + 1
	var err error
	switch ins.Op {
	case bytecode.OpNoOp:
	case bytecode.OpPush:
		vm.pushEval(pushScalar(ins))
	case bytecode.OpPop:
		_, err = vm.popEval(loc)
	case bytecode.OpCopy:
		err = vm.execCopy(ins, loc)
	case bytecode.OpAdd, bytecode.OpSub, bytecode.OpMul, bytecode.OpDiv, bytecode.OpRem:
		err = vm.execArith(cs, ins, loc)
	case bytecode.OpNeg:
		err = vm.execUnary(cs, loc, gadgets.Neg)
	case bytecode.OpLt, bytecode.OpLe, bytecode.OpEq, bytecode.OpNe, bytecode.OpGe, bytecode.OpGt:
		err = vm.execCompare(cs, ins, loc)
	case bytecode.OpAnd:
		err = vm.execBinary(cs, loc, gadgets.And)
	case bytecode.OpOr:
		err = vm.execBinary(cs, loc, gadgets.Or)
	case bytecode.OpXor:
		err = vm.execBinary(cs, loc, gadgets.Xor)
	case bytecode.OpNot:
		err = vm.execUnary(cs, loc, gadgets.Not)
	case bytecode.OpBitAnd, bytecode.OpBitOr, bytecode.OpBitXor:
		err = vm.execBitwise(cs, ins, loc)
	case bytecode.OpBitNot:
		err = vm.execBitwiseNot(cs, ins, loc)
	case bytecode.OpShiftLeft, bytecode.OpShiftRight:
		err = vm.execShift(cs, ins, loc)
	case bytecode.OpCast:
		err = vm.execCast(cs, ins, loc)
	case bytecode.OpLoad:
		err = vm.execLoad(ins, loc)
	case bytecode.OpStore:
		err = vm.execStore(ins, loc)
	case bytecode.OpStorageLoad:
		err = vm.execStorageLoad(cs, ins, loc)
	case bytecode.OpStorageStore:
		err = vm.execStorageStore(cs, ins, loc)
	case bytecode.OpIf:
		err = vm.execIf(cs, loc)
	case bytecode.OpElse:
		err = vm.execElse(cs, loc)
	case bytecode.OpEndIf:
		err = vm.execEndIf(cs, loc)
	case bytecode.OpLoopBegin:
		vm.currentFrame().Blocks = append(vm.currentFrame().Blocks, Block{
			Kind: BlockLoop, FirstInstructionIndex: vm.instructionCounter + 1, IterationsLeft: ins.Iterations - 1,
		})
	case bytecode.OpLoopEnd:
		next, err = vm.execLoopEnd(loc)
	case bytecode.OpCall:
		next, err = vm.execCall(ins, loc)
	case bytecode.OpReturn:
		next, err = vm.execReturn(ins, loc)
	case bytecode.OpExit:
		err = vm.execExit(ins, loc)
		next = exitSentinel
	case bytecode.OpRequire:
		err = vm.execRequire(cs, ins, loc)
	case bytecode.OpCallLibrary:
		err = vm.execCallLibrary(cs, ins, loc)
	case bytecode.OpDbg:
		// debug-only; no runtime effect beyond consuming its arguments
		// is modeled at the analyzer level via explicit Pop instructions.
	default:
		err = diagnostics.NewRuntimeError(diagnostics.StackUnderflow, loc, "unsupported opcode "+ins.Op.String())
	}
	if err != nil {
		return err
	}
	vm.instructionCounter = next
	return nil
}

func pushScalar(ins bytecode.Instruction) gadgets.Scalar {
	if ins.ScalarTag == bytecode.ScalarBoolean {
		var v fr.Element
		if ins.ValueBool {
			v.SetOne()
		}
		return gadgets.NewConstant(v, nil)
	}
	var v fr.Element
	if ins.Value != nil {
		v.SetBigInt(ins.Value)
	}
	return gadgets.NewConstant(v, nil)
}

func (vm *VM) execCopy(ins bytecode.Instruction, loc source.Location) error {
	if ins.Depth >= len(vm.evaluationStack) {
		return diagnostics.NewRuntimeError(diagnostics.StackUnderflow, loc, "copy depth exceeds stack size")
	}
	vm.pushEval(vm.evaluationStack[len(vm.evaluationStack)-1-ins.Depth])
	return nil
}

func (vm *VM) execArith(cs *gadgets.ConstraintSystem, ins bytecode.Instruction, loc source.Location) error {
	b, err := vm.popEval(loc)
	if err != nil {
		return err
	}
	a, err := vm.popEval(loc)
	if err != nil {
		return err
	}
	var out gadgets.Scalar
	switch ins.Op {
	case bytecode.OpAdd:
		out = gadgets.Add(cs, a, b)
	case bytecode.OpSub:
		out = gadgets.Sub(cs, a, b)
	case bytecode.OpMul:
		out = gadgets.Mul(cs, a, b)
	case bytecode.OpDiv, bytecode.OpRem:
		out, err = vm.execDivRem(cs, ins.Op, a, b, loc)
		if err != nil {
			return err
		}
	}
	vm.pushEval(out)
	return nil
}

// execDivRem computes witness-mode integer division/remainder directly
// on the big.Int representation and returns q or r as a constant. It
// synthesizes q·d + r and an Equals gadget comparing it with a; that
// Equals result is not required to hold, and no 0 <= r < d range
// constraint is emitted.
func (vm *VM) execDivRem(cs *gadgets.ConstraintSystem, op bytecode.Opcode, a, b gadgets.Scalar, loc source.Location) (gadgets.Scalar, error) {
	aBig := scalarBigInt(a)
	bBig := scalarBigInt(b)
	if bBig.Sign() == 0 {
		return gadgets.Scalar{}, diagnostics.NewRuntimeError(diagnostics.AssertionFailure, loc, "division by zero")
	}
	q, r := new(big.Int).QuoRem(aBig, bBig, new(big.Int))
	var qv, rv fr.Element
	qv.SetBigInt(q)
	rv.SetBigInt(r)
	qScalar := gadgets.NewConstant(qv, a.Type)
	rScalar := gadgets.NewConstant(rv, a.Type)
	reconstructed := gadgets.Add(cs, gadgets.Mul(cs, qScalar, b), rScalar)
	gadgets.Equals(cs, reconstructed, a)
	if op == bytecode.OpDiv {
		return qScalar, nil
	}
	return rScalar, nil
}

func scalarBigInt(s gadgets.Scalar) *big.Int {
	v := s.Value
	return v.BigInt(new(big.Int))
}

func (vm *VM) execUnary(cs *gadgets.ConstraintSystem, loc source.Location, fn func(*gadgets.ConstraintSystem, gadgets.Scalar) gadgets.Scalar) error {
	a, err := vm.popEval(loc)
	if err != nil {
		return err
	}
	vm.pushEval(fn(cs, a))
	return nil
}

func (vm *VM) execBinary(cs *gadgets.ConstraintSystem, loc source.Location, fn func(*gadgets.ConstraintSystem, gadgets.Scalar, gadgets.Scalar) gadgets.Scalar) error {
	b, err := vm.popEval(loc)
	if err != nil {
		return err
	}
	a, err := vm.popEval(loc)
	if err != nil {
		return err
	}
	vm.pushEval(fn(cs, a, b))
	return nil
}

func (vm *VM) execCompare(cs *gadgets.ConstraintSystem, ins bytecode.Instruction, loc source.Location) error {
	b, err := vm.popEval(loc)
	if err != nil {
		return err
	}
	a, err := vm.popEval(loc)
	if err != nil {
		return err
	}
	bitlength := ins.Bitlength
	if bitlength == 0 {
		bitlength = 254
	}
	switch ins.Op {
	case bytecode.OpEq:
		vm.pushEval(gadgets.Equals(cs, a, b))
	case bytecode.OpNe:
		vm.pushEval(gadgets.Not(cs, gadgets.Equals(cs, a, b)))
	default:
		cmp := gadgets.Compare(cs, a, b, bitlength)
		switch ins.Op {
		case bytecode.OpLt:
			vm.pushEval(cmp.Lt)
		case bytecode.OpLe:
			vm.pushEval(cmp.Le)
		case bytecode.OpGt:
			vm.pushEval(cmp.Gt)
		case bytecode.OpGe:
			vm.pushEval(cmp.Ge)
		}
	}
	return nil
}

func (vm *VM) execRequire(cs *gadgets.ConstraintSystem, ins bytecode.Instruction, loc source.Location) error {
	cond, err := vm.popEval(loc)
	if err != nil {
		return err
	}
	return gadgets.Require(cs, cond, ins.Message, loc)
}

// operandBitlength falls back to the field width when an instruction
// predates bit-width tagging, matching execCompare's own fallback.
func operandBitlength(ins bytecode.Instruction) int {
	if ins.Bitlength == 0 {
		return 254
	}
	return ins.Bitlength
}

func (vm *VM) execBitwise(cs *gadgets.ConstraintSystem, ins bytecode.Instruction, loc source.Location) error {
	b, err := vm.popEval(loc)
	if err != nil {
		return err
	}
	a, err := vm.popEval(loc)
	if err != nil {
		return err
	}
	n := operandBitlength(ins)
	var out gadgets.Scalar
	switch ins.Op {
	case bytecode.OpBitAnd:
		out = gadgets.BitAnd(cs, a, b, n)
	case bytecode.OpBitOr:
		out = gadgets.BitOr(cs, a, b, n)
	case bytecode.OpBitXor:
		out = gadgets.BitXor(cs, a, b, n)
	}
	vm.pushEval(out)
	return nil
}

func (vm *VM) execBitwiseNot(cs *gadgets.ConstraintSystem, ins bytecode.Instruction, loc source.Location) error {
	a, err := vm.popEval(loc)
	if err != nil {
		return err
	}
	vm.pushEval(gadgets.BitNot(cs, a, operandBitlength(ins)))
	return nil
}

func (vm *VM) execShift(cs *gadgets.ConstraintSystem, ins bytecode.Instruction, loc source.Location) error {
	shift, err := vm.popEval(loc)
	if err != nil {
		return err
	}
	a, err := vm.popEval(loc)
	if err != nil {
		return err
	}
	n := operandBitlength(ins)
	if ins.Op == bytecode.OpShiftLeft {
		vm.pushEval(gadgets.ShiftLeft(cs, a, shift, n))
	} else {
		vm.pushEval(gadgets.ShiftRight(cs, a, shift, n))
	}
	return nil
}

// execCast asserts the popped value still fits the target width, then
// relabels it with the cast's target type; CanCast only permits
// widening, so no bit transformation is ever needed, only the range
// check and a metadata swap.
func (vm *VM) execCast(cs *gadgets.ConstraintSystem, ins bytecode.Instruction, loc source.Location) error {
	v, err := vm.popEval(loc)
	if err != nil {
		return err
	}
	if err := gadgets.RangeCheck(cs, v, ins.TargetBitlength, loc); err != nil {
		return err
	}
	target := &types.Type{Kind: types.IntegerUnsigned, Bitlength: ins.TargetBitlength}
	switch {
	case ins.TargetIsField:
		target = types.TypeField
	case ins.TargetSigned:
		target = &types.Type{Kind: types.IntegerSigned, Bitlength: ins.TargetBitlength}
	}
	v.Type = target
	vm.pushEval(v)
	return nil
}
