package core

import (
	"math/big"
	"testing"

	"zinc/internal/bytecode"
	"zinc/internal/source"
	"zinc/internal/vm/storage"
)

func run(t *testing.T, p *bytecode.Program) []int64 {
	t.Helper()
	vm := New(p, storage.New(4, storage.Keccak256Hasher{}), true)
	out, err := vm.Run(source.NewLocation("test.zn"))
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	result := make([]int64, len(out))
	for i, s := range out {
		result[i] = scalarBigInt(s).Int64()
	}
	return result
}

func TestAddTwoConstants(t *testing.T) {
	p := bytecode.NewProgram(nil)
	p.Instructions = []bytecode.Instruction{
		bytecode.Push(big.NewInt(2), bytecode.ScalarUnsigned, 8),
		bytecode.Push(big.NewInt(3), bytecode.ScalarUnsigned, 8),
		{Op: bytecode.OpAdd},
		{Op: bytecode.OpExit, OutputSize: 1},
	}
	got := run(t, p)
	if len(got) != 1 || got[0] != 5 {
		t.Fatalf("expected [5], got %v", got)
	}
}

func TestIfElseMergesBranches(t *testing.T) {
	p := bytecode.NewProgram(nil)
	p.Instructions = []bytecode.Instruction{
		bytecode.PushBool(false),
		{Op: bytecode.OpIf},
		bytecode.Push(big.NewInt(10), bytecode.ScalarUnsigned, 8),
		{Op: bytecode.OpStore, Offset: 0},
		{Op: bytecode.OpElse},
		bytecode.Push(big.NewInt(20), bytecode.ScalarUnsigned, 8),
		{Op: bytecode.OpStore, Offset: 0},
		{Op: bytecode.OpEndIf},
		{Op: bytecode.OpLoad, Offset: 0},
		{Op: bytecode.OpExit, OutputSize: 1},
	}
	got := run(t, p)
	if len(got) != 1 || got[0] != 20 {
		t.Fatalf("expected the else branch (20), got %v", got)
	}
}

func TestLoopUnrollsBoundedIterations(t *testing.T) {
	p := bytecode.NewProgram(nil)
	p.Instructions = []bytecode.Instruction{
		bytecode.Push(big.NewInt(0), bytecode.ScalarUnsigned, 8),
		{Op: bytecode.OpStore, Offset: 0},
		{Op: bytecode.OpLoopBegin, Iterations: 4},
		{Op: bytecode.OpLoad, Offset: 0},
		bytecode.Push(big.NewInt(1), bytecode.ScalarUnsigned, 8),
		{Op: bytecode.OpAdd},
		{Op: bytecode.OpStore, Offset: 0},
		{Op: bytecode.OpLoopEnd},
		{Op: bytecode.OpLoad, Offset: 0},
		{Op: bytecode.OpExit, OutputSize: 1},
	}
	got := run(t, p)
	if len(got) != 1 || got[0] != 4 {
		t.Fatalf("expected loop to run 4 times summing to 4, got %v", got)
	}
}

func TestCallAndReturn(t *testing.T) {
	p := bytecode.NewProgram(nil)
	p.Instructions = []bytecode.Instruction{
		{Op: bytecode.OpCall, CallAddress: 2, InputSize: 0},
		{Op: bytecode.OpExit, OutputSize: 1},
		bytecode.Push(big.NewInt(7), bytecode.ScalarUnsigned, 8),
		{Op: bytecode.OpReturn, OutputSize: 1},
	}
	got := run(t, p)
	if len(got) != 1 || got[0] != 7 {
		t.Fatalf("expected call to return 7, got %v", got)
	}
}
