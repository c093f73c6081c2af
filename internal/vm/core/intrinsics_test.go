package core

import (
	"math/big"
	"testing"

	"zinc/internal/bytecode"
	"zinc/internal/stdlib"
)

func TestCallLibraryInvertsFieldElement(t *testing.T) {
	p := bytecode.NewProgram(nil)
	p.Instructions = []bytecode.Instruction{
		bytecode.Push(big.NewInt(3), bytecode.ScalarField, 254),
		{Op: bytecode.OpCallLibrary, LibraryID: int(stdlib.FfInvert), InputSize: 1, OutputSize: 1},
		bytecode.Push(big.NewInt(3), bytecode.ScalarField, 254),
		{Op: bytecode.OpMul},
		{Op: bytecode.OpExit, OutputSize: 1},
	}
	got := run(t, p)
	if len(got) != 1 || got[0] != 1 {
		t.Fatalf("expected invert(3)*3 == 1, got %v", got)
	}
}

func TestCallLibraryArrayReversePreservesValues(t *testing.T) {
	p := bytecode.NewProgram(nil)
	p.Instructions = []bytecode.Instruction{
		bytecode.Push(big.NewInt(1), bytecode.ScalarUnsigned, 8),
		bytecode.Push(big.NewInt(2), bytecode.ScalarUnsigned, 8),
		bytecode.Push(big.NewInt(3), bytecode.ScalarUnsigned, 8),
		{Op: bytecode.OpCallLibrary, LibraryID: int(stdlib.ArrayReverse), InputSize: 3, OutputSize: 3},
		{Op: bytecode.OpExit, OutputSize: 3},
	}
	got := run(t, p)
	if len(got) != 3 || got[0] != 3 || got[1] != 2 || got[2] != 1 {
		t.Fatalf("expected reversed [3,2,1], got %v", got)
	}
}

func TestCallLibraryMapInsertThenGet(t *testing.T) {
	p := bytecode.NewProgram(nil)
	p.Instructions = []bytecode.Instruction{
		bytecode.Push(big.NewInt(9), bytecode.ScalarUnsigned, 8),
		bytecode.Push(big.NewInt(42), bytecode.ScalarUnsigned, 8),
		{Op: bytecode.OpCallLibrary, LibraryID: int(stdlib.CollectionsMTreeMapInsert), InputSize: 2, OutputSize: 0},
		bytecode.Push(big.NewInt(9), bytecode.ScalarUnsigned, 8),
		{Op: bytecode.OpCallLibrary, LibraryID: int(stdlib.CollectionsMTreeMapGet), InputSize: 1, OutputSize: 2},
		{Op: bytecode.OpExit, OutputSize: 2},
	}
	got := run(t, p)
	if len(got) != 2 || got[0] != 42 || got[1] != 1 {
		t.Fatalf("expected [42, found=1], got %v", got)
	}
}

func TestCallLibraryConvertBitsRoundTrip(t *testing.T) {
	p := bytecode.NewProgram(nil)
	p.Instructions = []bytecode.Instruction{
		bytecode.Push(big.NewInt(0b1011), bytecode.ScalarUnsigned, 8),
		{Op: bytecode.OpCallLibrary, LibraryID: int(stdlib.ConvertToBits), InputSize: 1, OutputSize: 8},
		{Op: bytecode.OpCallLibrary, LibraryID: int(stdlib.ConvertFromBitsUnsigned), InputSize: 8, OutputSize: 1},
		{Op: bytecode.OpExit, OutputSize: 1},
	}
	got := run(t, p)
	if len(got) != 1 || got[0] != 0b1011 {
		t.Fatalf("expected bits to round-trip to 11, got %v", got)
	}
}
