package core

import (
	"zinc/internal/bytecode"
	"zinc/internal/diagnostics"
	"zinc/internal/source"
	"zinc/internal/vm/gadgets"
)

func (vm *VM) dataSlot(scope bytecode.Scope, offset int) *gadgets.Scalar {
	if scope == bytecode.ScopeGlobal {
		for len(vm.globals) <= offset {
			vm.globals = append(vm.globals, gadgets.Scalar{})
		}
		return &vm.globals[offset]
	}
	frame := vm.currentFrame()
	idx := frame.StackFrameStart + offset
	for len(vm.dataStack) <= idx {
		vm.dataStack = append(vm.dataStack, gadgets.Scalar{})
	}
	return &vm.dataStack[idx]
}

func (vm *VM) execLoad(ins bytecode.Instruction, loc source.Location) error {
	offset := ins.Offset
	if ins.Addressing == bytecode.AddressingByIndex {
		idx, err := vm.popEval(loc)
		if err != nil {
			return err
		}
		offset += int(scalarBigInt(idx).Int64())
	}
	if ins.Shape == bytecode.ShapeSequence {
		for i := 0; i < ins.Count; i++ {
			vm.pushEval(*vm.dataSlot(ins.Scope, offset+i))
		}
		return nil
	}
	vm.pushEval(*vm.dataSlot(ins.Scope, offset))
	return nil
}

// execStore masks every write with the current branch condition via
// ConditionalSelect, so a store inside a false branch leaves the slot
// unchanged: out = cond·(new−old)+old.
func (vm *VM) execStore(ins bytecode.Instruction, loc source.Location) error {
	offset := ins.Offset
	if ins.Addressing == bytecode.AddressingByIndex {
		idx, err := vm.popEval(loc)
		if err != nil {
			return err
		}
		offset += int(scalarBigInt(idx).Int64())
	}
	count := 1
	if ins.Shape == bytecode.ShapeSequence {
		count = ins.Count
	}
	values := make([]gadgets.Scalar, count)
	for i := count - 1; i >= 0; i-- {
		v, err := vm.popEval(loc)
		if err != nil {
			return err
		}
		values[i] = v
	}
	cond := vm.currentCondition()
	cs := gadgets.NewConstraintSystem(vm.stepCounter, vm.instructionCounter, vm.witnessMode)
	for i, v := range values {
		slot := vm.dataSlot(ins.Scope, offset+i)
		*slot = gadgets.ConditionalSelect(cs, cond, v, *slot)
	}
	return nil
}

func (vm *VM) execStorageLoad(cs *gadgets.ConstraintSystem, ins bytecode.Instruction, loc source.Location) error {
	idx, err := vm.popEval(loc)
	if err != nil {
		return err
	}
	index := scalarBigInt(idx).Uint64()
	v := vm.storage.Load(index)
	vm.pushEval(gadgets.NewConstant(v, nil))
	return nil
}

// execStorageStore masks the write with the current condition before
// committing to the storage gadget, matching execStore's semantics.
func (vm *VM) execStorageStore(cs *gadgets.ConstraintSystem, ins bytecode.Instruction, loc source.Location) error {
	value, err := vm.popEval(loc)
	if err != nil {
		return err
	}
	idx, err := vm.popEval(loc)
	if err != nil {
		return err
	}
	index := scalarBigInt(idx).Uint64()
	cond := vm.currentCondition()
	old := vm.storage.Load(index)
	masked := gadgets.ConditionalSelect(cs, cond, value, gadgets.NewConstant(old, nil))
	vm.storage.Store(index, masked.Value)
	return nil
}

func (vm *VM) execIf(cs *gadgets.ConstraintSystem, loc source.Location) error {
	cond, err := vm.popEval(loc)
	if err != nil {
		return err
	}
	merged := gadgets.Mul(cs, vm.currentCondition(), cond)
	vm.conditionStack = append(vm.conditionStack, merged)
	vm.currentFrame().Blocks = append(vm.currentFrame().Blocks, Block{Kind: BlockBranch, Condition: cond})
	return nil
}

func (vm *VM) execElse(cs *gadgets.ConstraintSystem, loc source.Location) error {
	frame := vm.currentFrame()
	if len(frame.Blocks) == 0 || frame.Blocks[len(frame.Blocks)-1].Kind != BlockBranch {
		return diagnostics.NewRuntimeError(diagnostics.UnexpectedElse, loc, "")
	}
	block := &frame.Blocks[len(frame.Blocks)-1]
	block.InElseArm = true
	// Swap the active condition from the if-arm's to the else-arm's
	// negation, still gated by whatever enclosing condition was active
	// before this If was entered.
	vm.conditionStack = vm.conditionStack[:len(vm.conditionStack)-1]
	outer := vm.currentCondition()
	notCond := gadgets.Not(cs, block.Condition)
	merged := gadgets.Mul(cs, outer, notCond)
	vm.conditionStack = append(vm.conditionStack, merged)
	return nil
}

func (vm *VM) execEndIf(cs *gadgets.ConstraintSystem, loc source.Location) error {
	frame := vm.currentFrame()
	if len(frame.Blocks) == 0 || frame.Blocks[len(frame.Blocks)-1].Kind != BlockBranch {
		return diagnostics.NewRuntimeError(diagnostics.UnexpectedEndIf, loc, "")
	}
	frame.Blocks = frame.Blocks[:len(frame.Blocks)-1]
	vm.conditionStack = vm.conditionStack[:len(vm.conditionStack)-1]
	return nil
}

func (vm *VM) execLoopEnd(loc source.Location) (int, error) {
	frame := vm.currentFrame()
	if len(frame.Blocks) == 0 || frame.Blocks[len(frame.Blocks)-1].Kind != BlockLoop {
		return 0, diagnostics.NewRuntimeError(diagnostics.UnexpectedLoopEnd, loc, "")
	}
	block := &frame.Blocks[len(frame.Blocks)-1]
	if block.IterationsLeft > 0 {
		block.IterationsLeft--
		return block.FirstInstructionIndex, nil
	}
	frame.Blocks = frame.Blocks[:len(frame.Blocks)-1]
	return vm.instructionCounter + 1, nil
}

func (vm *VM) execCall(ins bytecode.Instruction, loc source.Location) (int, error) {
	args := make([]gadgets.Scalar, ins.InputSize)
	for i := ins.InputSize - 1; i >= 0; i-- {
		v, err := vm.popEval(loc)
		if err != nil {
			return 0, err
		}
		args[i] = v
	}
	start := len(vm.dataStack)
	vm.dataStack = append(vm.dataStack, args...)
	vm.framesStack = append(vm.framesStack, &Frame{
		StackFrameStart: start,
		StackFrameEnd:   start + ins.InputSize,
		ReturnAddress:   vm.instructionCounter + 1,
	})
	return ins.CallAddress, nil
}

func (vm *VM) execReturn(ins bytecode.Instruction, loc source.Location) (int, error) {
	outputs := make([]gadgets.Scalar, ins.OutputSize)
	for i := ins.OutputSize - 1; i >= 0; i-- {
		v, err := vm.popEval(loc)
		if err != nil {
			return 0, err
		}
		outputs[i] = v
	}
	frame := vm.currentFrame()
	ret := frame.ReturnAddress
	vm.dataStack = vm.dataStack[:frame.StackFrameStart]
	vm.framesStack = vm.framesStack[:len(vm.framesStack)-1]
	for _, v := range outputs {
		vm.pushEval(v)
	}
	return ret, nil
}

func (vm *VM) execExit(ins bytecode.Instruction, loc source.Location) error {
	outputs := make([]gadgets.Scalar, ins.OutputSize)
	for i := ins.OutputSize - 1; i >= 0; i-- {
		v, err := vm.popEval(loc)
		if err != nil {
			return err
		}
		outputs[i] = v
	}
	vm.outputs = outputs
	return nil
}
