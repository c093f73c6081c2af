package bytecode

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math/big"
	"sort"
)

// fieldElementBytes is the little-endian fixed width a Field-typed Push
// operand occupies on the wire, matching BN254's scalar field size.
const fieldElementBytes = 32

// putUvarint appends v as an unsigned LEB128-like varint.
func putUvarint(buf *bytes.Buffer, v uint64) {
	var tmp [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(tmp[:], v)
	buf.Write(tmp[:n])
}

func putBool(buf *bytes.Buffer, v bool) {
	if v {
		buf.WriteByte(1)
	} else {
		buf.WriteByte(0)
	}
}

func putFieldElement(buf *bytes.Buffer, v *big.Int) {
	var b [fieldElementBytes]byte
	if v != nil {
		vb := v.Bytes()
		// big.Int.Bytes is big-endian; reverse into little-endian fixed width.
		for i, by := range vb {
			b[len(vb)-1-i] = by
		}
	}
	buf.Write(b[:])
}

func putString(buf *bytes.Buffer, s string) {
	putUvarint(buf, uint64(len(s)))
	buf.WriteString(s)
}

// Encode serializes the program to Zinc's deterministic binary format:
// header (magic, version, method table sorted by name) followed by the
// instruction section, one opcode tag byte plus self-describing payload
// per instruction. The input and storage type descriptors are not
// encoded.
func Encode(p *Program) ([]byte, error) {
	buf := &bytes.Buffer{}
	binary.Write(buf, binary.LittleEndian, p.Magic)
	binary.Write(buf, binary.LittleEndian, p.Version)

	putUvarint(buf, uint64(len(p.Methods)))
	names := make([]string, 0, len(p.Methods))
	for name := range p.Methods {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		m := p.Methods[name]
		putString(buf, name)
		putUvarint(buf, uint64(m.EntryAddr))
		putUvarint(buf, uint64(m.InputSize))
		putUvarint(buf, uint64(m.OutputSize))
		putBool(buf, m.IsMutable)
	}

	putUvarint(buf, uint64(len(p.Instructions)))
	for _, ins := range p.Instructions {
		if err := encodeInstruction(buf, ins); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}

func encodeInstruction(buf *bytes.Buffer, ins Instruction) error {
	buf.WriteByte(byte(ins.Op))
	putBool(buf, ins.IsDebug)
	switch ins.Op {
	case OpPush:
		buf.WriteByte(byte(ins.ScalarTag))
		putUvarint(buf, uint64(ins.Bitlength))
		if ins.ScalarTag == ScalarBoolean {
			putBool(buf, ins.ValueBool)
		} else {
			putFieldElement(buf, ins.Value)
		}
	case OpCopy, OpSlice:
		putUvarint(buf, uint64(ins.Depth))
	case OpLoad, OpStore:
		buf.WriteByte(byte(ins.Scope))
		buf.WriteByte(byte(ins.Shape))
		buf.WriteByte(byte(ins.Addressing))
		putUvarint(buf, uint64(ins.Offset))
		putUvarint(buf, uint64(ins.Count))
		putUvarint(buf, uint64(ins.ArrayLen))
	case OpStorageLoad, OpStorageStore:
		putUvarint(buf, uint64(ins.StorageSize))
		putUvarint(buf, uint64(ins.StorageAddr))
	case OpCast:
		putUvarint(buf, uint64(ins.TargetBitlength))
		putBool(buf, ins.TargetSigned)
		putBool(buf, ins.TargetIsField)
	case OpLoopBegin:
		putUvarint(buf, uint64(ins.Iterations))
		putUvarint(buf, uint64(ins.JumpTarget))
	case OpIf, OpElse, OpEndIf, OpLoopEnd:
		putUvarint(buf, uint64(ins.JumpTarget))
	case OpCall:
		putUvarint(buf, uint64(ins.CallAddress))
		putUvarint(buf, uint64(ins.InputSize))
	case OpReturn, OpExit:
		putUvarint(buf, uint64(ins.OutputSize))
	case OpDbg:
		putString(buf, ins.Message)
	case OpRequire:
		putString(buf, ins.Message)
	case OpCallLibrary:
		putUvarint(buf, uint64(ins.LibraryID))
		putUvarint(buf, uint64(ins.InputSize))
		putUvarint(buf, uint64(ins.OutputSize))
	case OpNoOp, OpPop, OpAdd, OpSub, OpMul, OpDiv, OpRem, OpNeg,
		OpLt, OpLe, OpEq, OpNe, OpGe, OpGt, OpAnd, OpOr, OpXor, OpNot,
		OpBitAnd, OpBitOr, OpBitXor, OpBitNot, OpShiftLeft, OpShiftRight,
		OpStorageInit, OpStorageFetch:
		// no payload
	default:
		return fmt.Errorf("encode: unknown opcode %v", ins.Op)
	}
	return nil
}

// reader wraps a byte slice with a cursor, matching the lexer's
// single-pass, error-propagating style.
type reader struct {
	buf []byte
	pos int
}

func (r *reader) byte() (byte, error) {
	if r.pos >= len(r.buf) {
		return 0, fmt.Errorf("decode: unexpected end of stream")
	}
	b := r.buf[r.pos]
	r.pos++
	return b, nil
}

func (r *reader) uvarint() (uint64, error) {
	v, n := binary.Uvarint(r.buf[r.pos:])
	if n <= 0 {
		return 0, fmt.Errorf("decode: malformed varint")
	}
	r.pos += n
	return v, nil
}

func (r *reader) bool() (bool, error) {
	b, err := r.byte()
	return b != 0, err
}

func (r *reader) fieldElement() (*big.Int, error) {
	if r.pos+fieldElementBytes > len(r.buf) {
		return nil, fmt.Errorf("decode: truncated field element")
	}
	be := make([]byte, fieldElementBytes)
	for i, b := range r.buf[r.pos : r.pos+fieldElementBytes] {
		be[fieldElementBytes-1-i] = b
	}
	r.pos += fieldElementBytes
	return new(big.Int).SetBytes(be), nil
}

func (r *reader) string() (string, error) {
	n, err := r.uvarint()
	if err != nil {
		return "", err
	}
	if r.pos+int(n) > len(r.buf) {
		return "", fmt.Errorf("decode: truncated string")
	}
	s := string(r.buf[r.pos : r.pos+int(n)])
	r.pos += int(n)
	return s, nil
}

// Decode parses a serialized program, validating the magic and version.
// The input/storage type descriptors are not part of the encoding, so
// the decoded Program's InputType and StorageType are nil.
func Decode(data []byte) (*Program, error) {
	if len(data) < 6 {
		return nil, fmt.Errorf("decode: truncated header")
	}
	magic := binary.LittleEndian.Uint32(data[0:4])
	version := binary.LittleEndian.Uint16(data[4:6])
	if magic != MagicNumber {
		return nil, fmt.Errorf("decode: bad magic %x", magic)
	}
	if version != CurrentVersion {
		return nil, fmt.Errorf("decode: unsupported version %d", version)
	}
	r := &reader{buf: data, pos: 6}

	methodCount, err := r.uvarint()
	if err != nil {
		return nil, err
	}
	methods := make(map[string]Method, methodCount)
	for i := uint64(0); i < methodCount; i++ {
		name, err := r.string()
		if err != nil {
			return nil, err
		}
		entry, err := r.uvarint()
		if err != nil {
			return nil, err
		}
		inSize, err := r.uvarint()
		if err != nil {
			return nil, err
		}
		outSize, err := r.uvarint()
		if err != nil {
			return nil, err
		}
		mutable, err := r.bool()
		if err != nil {
			return nil, err
		}
		methods[name] = Method{Name: name, EntryAddr: int(entry), InputSize: int(inSize), OutputSize: int(outSize), IsMutable: mutable}
	}

	insCount, err := r.uvarint()
	if err != nil {
		return nil, err
	}
	instructions := make([]Instruction, 0, insCount)
	for i := uint64(0); i < insCount; i++ {
		ins, err := decodeInstruction(r)
		if err != nil {
			return nil, err
		}
		instructions = append(instructions, ins)
	}

	return &Program{
		Magic: magic, Version: version,
		Methods: methods, Instructions: instructions,
	}, nil
}

func decodeInstruction(r *reader) (Instruction, error) {
	opByte, err := r.byte()
	if err != nil {
		return Instruction{}, err
	}
	op := Opcode(opByte)
	isDebug, err := r.bool()
	if err != nil {
		return Instruction{}, err
	}
	ins := Instruction{Op: op, IsDebug: isDebug}

	switch op {
	case OpPush:
		tag, err := r.byte()
		if err != nil {
			return ins, err
		}
		ins.ScalarTag = ScalarTypeTag(tag)
		bl, err := r.uvarint()
		if err != nil {
			return ins, err
		}
		ins.Bitlength = int(bl)
		if ins.ScalarTag == ScalarBoolean {
			ins.ValueBool, err = r.bool()
		} else {
			ins.Value, err = r.fieldElement()
		}
		if err != nil {
			return ins, err
		}
	case OpCopy, OpSlice:
		d, err := r.uvarint()
		if err != nil {
			return ins, err
		}
		ins.Depth = int(d)
	case OpLoad, OpStore:
		scope, err := r.byte()
		if err != nil {
			return ins, err
		}
		shape, err := r.byte()
		if err != nil {
			return ins, err
		}
		addr, err := r.byte()
		if err != nil {
			return ins, err
		}
		ins.Scope, ins.Shape, ins.Addressing = Scope(scope), Shape(shape), Addressing(addr)
		off, err := r.uvarint()
		if err != nil {
			return ins, err
		}
		count, err := r.uvarint()
		if err != nil {
			return ins, err
		}
		arrLen, err := r.uvarint()
		if err != nil {
			return ins, err
		}
		ins.Offset, ins.Count, ins.ArrayLen = int(off), int(count), int(arrLen)
	case OpStorageLoad, OpStorageStore:
		size, err := r.uvarint()
		if err != nil {
			return ins, err
		}
		addr, err := r.uvarint()
		if err != nil {
			return ins, err
		}
		ins.StorageSize, ins.StorageAddr = int(size), int(addr)
	case OpCast:
		bl, err := r.uvarint()
		if err != nil {
			return ins, err
		}
		ins.TargetBitlength = int(bl)
		if ins.TargetSigned, err = r.bool(); err != nil {
			return ins, err
		}
		if ins.TargetIsField, err = r.bool(); err != nil {
			return ins, err
		}
	case OpLoopBegin:
		it, err := r.uvarint()
		if err != nil {
			return ins, err
		}
		jt, err := r.uvarint()
		if err != nil {
			return ins, err
		}
		ins.Iterations, ins.JumpTarget = int(it), int(jt)
	case OpIf, OpElse, OpEndIf, OpLoopEnd:
		jt, err := r.uvarint()
		if err != nil {
			return ins, err
		}
		ins.JumpTarget = int(jt)
	case OpCall:
		addr, err := r.uvarint()
		if err != nil {
			return ins, err
		}
		in, err := r.uvarint()
		if err != nil {
			return ins, err
		}
		ins.CallAddress, ins.InputSize = int(addr), int(in)
	case OpReturn, OpExit:
		out, err := r.uvarint()
		if err != nil {
			return ins, err
		}
		ins.OutputSize = int(out)
	case OpDbg, OpRequire:
		msg, err := r.string()
		if err != nil {
			return ins, err
		}
		ins.Message = msg
	case OpCallLibrary:
		id, err := r.uvarint()
		if err != nil {
			return ins, err
		}
		in, err := r.uvarint()
		if err != nil {
			return ins, err
		}
		out, err := r.uvarint()
		if err != nil {
			return ins, err
		}
		ins.LibraryID, ins.InputSize, ins.OutputSize = int(id), int(in), int(out)
	case OpNoOp, OpPop, OpAdd, OpSub, OpMul, OpDiv, OpRem, OpNeg,
		OpLt, OpLe, OpEq, OpNe, OpGe, OpGt, OpAnd, OpOr, OpXor, OpNot,
		OpBitAnd, OpBitOr, OpBitXor, OpBitNot, OpShiftLeft, OpShiftRight,
		OpStorageInit, OpStorageFetch:
		// no payload
	default:
		return ins, fmt.Errorf("decode: unknown opcode %d", op)
	}
	return ins, nil
}
