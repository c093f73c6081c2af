package bytecode

import (
	"math/big"
	"testing"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	p := NewProgram(nil)
	p.Methods["main"] = Method{Name: "main", EntryAddr: 2, InputSize: 1, OutputSize: 1}
	p.Instructions = []Instruction{
		{Op: OpCall, CallAddress: 2, InputSize: 1},
		{Op: OpExit, OutputSize: 1},
		Push(big.NewInt(42), ScalarUnsigned, 8),
		PushBool(true),
		{Op: OpAdd},
		{Op: OpReturn, OutputSize: 1},
	}

	data, err := Encode(p)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	decoded, err := Decode(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(decoded.Instructions) != len(p.Instructions) {
		t.Fatalf("instruction count mismatch: got %d want %d", len(decoded.Instructions), len(p.Instructions))
	}
	if decoded.Instructions[2].Value.Cmp(big.NewInt(42)) != 0 {
		t.Errorf("expected pushed value 42, got %v", decoded.Instructions[2].Value)
	}
	if !decoded.Instructions[3].ValueBool {
		t.Errorf("expected pushed bool true")
	}
	m, ok := decoded.Methods["main"]
	if !ok || m.EntryAddr != 2 {
		t.Errorf("expected method main with entry 2, got %+v ok=%v", m, ok)
	}
}

func TestDecodeRejectsBadMagic(t *testing.T) {
	if _, err := Decode([]byte{0, 0, 0, 0, 1, 0}); err == nil {
		t.Fatalf("expected error for bad magic")
	}
}
