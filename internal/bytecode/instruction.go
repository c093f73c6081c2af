package bytecode

import "math/big"

// Instruction is the single tagged node for every opcode. Only the
// fields relevant to Op are meaningful; this mirrors the tagged-struct
// convention used for ast.Expression/ast.Statement.
type Instruction struct {
	Op Opcode

	// Push.
	Value     *big.Int
	ValueBool bool
	ScalarTag ScalarTypeTag
	Bitlength int

	// Copy / Slice.
	Depth int

	// Data stack / globals.
	Scope      Scope
	Shape      Shape
	Addressing Addressing
	Offset     int
	Count      int // number of contiguous scalars, for sequence shape
	ArrayLen   int // declared array length, for by-index range checks

	// Storage.
	StorageSize int
	StorageAddr int

	// Cast.
	TargetBitlength int
	TargetSigned    bool
	TargetIsField   bool

	// Control flow.
	JumpTarget int // encoded but not set by the analyzer; the VM tracks If/Else/EndIf and loops on its block stack
	Iterations int // LoopBegin

	CallAddress int // Call
	InputSize   int // Call
	OutputSize  int // Return / Exit

	// Intrinsics.
	Message  string
	LibraryID int

	// IsDebug instructions (Dbg) are excluded from constraint count in
	// release builds.
	IsDebug bool
}

// Push builds a Push instruction for a concrete integer/field value.
func Push(v *big.Int, tag ScalarTypeTag, bitlength int) Instruction {
	return Instruction{Op: OpPush, Value: v, ScalarTag: tag, Bitlength: bitlength}
}

// PushBool builds a Push instruction for a Boolean literal.
func PushBool(v bool) Instruction {
	return Instruction{Op: OpPush, ValueBool: v, ScalarTag: ScalarBoolean, Bitlength: 1}
}
