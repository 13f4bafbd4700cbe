package wasm

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
)

// Instruction represents a decoded WebAssembly instruction
type Instruction struct {
	Imm    interface{}
	Opcode byte
	// Offset is the byte position of the opcode within the function body.
	Offset int
}

// BlockImm holds the block type for block, loop and if.
type BlockImm struct {
	Type int32 // -64 void, -1..-4 single value type, >=0 type index
}

// BranchImm holds the label index for br and br_if.
type BranchImm struct {
	LabelIdx uint32
}

// BrTableImm holds the label table for br_table.
type BrTableImm struct {
	Labels  []uint32
	Default uint32
}

// CallImm holds the function index for call.
type CallImm struct {
	FuncIdx uint32
}

// CallIndirectImm holds type and table indices for call_indirect.
type CallIndirectImm struct {
	TypeIdx  uint32
	TableIdx uint32
}

// LocalImm holds the local index for local.get, local.set, local.tee.
type LocalImm struct {
	LocalIdx uint32
}

// GlobalImm holds the global index for global.get and global.set.
type GlobalImm struct {
	GlobalIdx uint32
}

// MemoryImm holds memory access parameters for loads and stores.
type MemoryImm struct {
	Offset uint64
	Align  uint32
}

// MemoryIdxImm holds the memory index for memory.size and memory.grow.
type MemoryIdxImm struct {
	MemIdx uint32
}

// I32Imm holds the constant value for i32.const.
type I32Imm struct {
	Value int32
}

// I64Imm holds the constant value for i64.const.
type I64Imm struct {
	Value int64
}

// F32Imm holds the raw bit pattern for f32.const so NaN payloads survive.
type F32Imm struct {
	Bits uint32
}

// Value returns the constant as a float32.
func (i F32Imm) Value() float32 { return math.Float32frombits(i.Bits) }

// F64Imm holds the raw bit pattern for f64.const.
type F64Imm struct {
	Bits uint64
}

// Value returns the constant as a float64.
func (i F64Imm) Value() float64 { return math.Float64frombits(i.Bits) }

// MiscImm holds the sub-opcode for 0xFC prefixed instructions.
type MiscImm struct {
	SubOpcode uint32
}

// SelectTypeImm holds the value types of a typed select.
type SelectTypeImm struct {
	Types []ValType
}

// RefFuncImm holds the function index for ref.func.
type RefFuncImm struct {
	FuncIdx uint32
}

// RefNullImm holds the reference type of ref.null.
type RefNullImm struct {
	Type byte
}

// ErrUnsupportedOpcode is matched by every *UnsupportedOpcodeError.
var ErrUnsupportedOpcode = errors.New("unsupported opcode")

// UnsupportedOpcodeError reports an instruction outside the decoded subset.
type UnsupportedOpcodeError struct {
	Name   string
	Offset int
}

func (e *UnsupportedOpcodeError) Error() string {
	return fmt.Sprintf("unsupported opcode %s at offset %d", e.Name, e.Offset)
}

// Is makes errors.Is(err, ErrUnsupportedOpcode) succeed.
func (e *UnsupportedOpcodeError) Is(target error) bool {
	return target == ErrUnsupportedOpcode
}

// DecodeInstructions decodes a function body or constant expression into a
// flat instruction list, including the final end. Decoding stops at the
// first opcode outside the MVP subset plus sign-extension, saturating
// truncation and typed select.
func DecodeInstructions(code []byte) ([]Instruction, error) {
	r := bytes.NewReader(code)
	instrs := make([]Instruction, 0, len(code)/2)

	for r.Len() > 0 {
		offset := len(code) - r.Len()
		op, _ := r.ReadByte()
		instr := Instruction{Opcode: op, Offset: offset}

		var err error
		switch {
		case op == OpBlock || op == OpLoop || op == OpIf:
			var bt int64
			bt, err = ReadLEB128s64(r)
			instr.Imm = BlockImm{Type: int32(bt)}

		case op == OpBr || op == OpBrIf:
			var idx uint32
			idx, err = ReadLEB128u(r)
			instr.Imm = BranchImm{LabelIdx: idx}

		case op == OpBrTable:
			instr.Imm, err = readBrTable(r)

		case op == OpCall:
			var idx uint32
			idx, err = ReadLEB128u(r)
			instr.Imm = CallImm{FuncIdx: idx}

		case op == OpCallIndirect:
			var typeIdx, tableIdx uint32
			if typeIdx, err = ReadLEB128u(r); err == nil {
				tableIdx, err = ReadLEB128u(r)
			}
			instr.Imm = CallIndirectImm{TypeIdx: typeIdx, TableIdx: tableIdx}

		case op == OpSelectType:
			instr.Imm, err = readSelectTypes(r)

		case op >= OpLocalGet && op <= OpLocalTee:
			var idx uint32
			idx, err = ReadLEB128u(r)
			instr.Imm = LocalImm{LocalIdx: idx}

		case op == OpGlobalGet || op == OpGlobalSet:
			var idx uint32
			idx, err = ReadLEB128u(r)
			instr.Imm = GlobalImm{GlobalIdx: idx}

		case op >= OpI32Load && op <= OpI64Store32:
			instr.Imm, err = readMemArg(r)

		case op == OpMemorySize || op == OpMemoryGrow:
			var idx uint32
			idx, err = ReadLEB128u(r)
			instr.Imm = MemoryIdxImm{MemIdx: idx}

		case op == OpI32Const:
			var v int32
			v, err = ReadLEB128s(r)
			instr.Imm = I32Imm{Value: v}

		case op == OpI64Const:
			var v int64
			v, err = ReadLEB128s64(r)
			instr.Imm = I64Imm{Value: v}

		case op == OpF32Const:
			var raw [4]byte
			_, err = io.ReadFull(r, raw[:])
			instr.Imm = F32Imm{Bits: binary.LittleEndian.Uint32(raw[:])}

		case op == OpF64Const:
			var raw [8]byte
			_, err = io.ReadFull(r, raw[:])
			instr.Imm = F64Imm{Bits: binary.LittleEndian.Uint64(raw[:])}

		case op == OpRefFunc:
			var idx uint32
			idx, err = ReadLEB128u(r)
			instr.Imm = RefFuncImm{FuncIdx: idx}

		case op == OpRefNull:
			var t byte
			t, err = r.ReadByte()
			instr.Imm = RefNullImm{Type: t}

		case op == OpPrefixMisc:
			var sub uint32
			sub, err = ReadLEB128u(r)
			if err == nil && sub > MiscI64TruncSatF64U {
				return nil, &UnsupportedOpcodeError{Name: PrefixedOpcodeName(op, sub), Offset: offset}
			}
			instr.Imm = MiscImm{SubOpcode: sub}

		case op == OpPrefixSIMD || op == OpPrefixAtomic || op == OpPrefixGC:
			sub, _ := ReadLEB128u(r)
			return nil, &UnsupportedOpcodeError{Name: PrefixedOpcodeName(op, sub), Offset: offset}

		case isSimple(op):
			// no immediate

		default:
			return nil, &UnsupportedOpcodeError{Name: OpcodeName(op), Offset: offset}
		}

		if err != nil {
			return nil, fmt.Errorf("%s at offset %d: %w", OpcodeName(op), offset, err)
		}
		instrs = append(instrs, instr)
	}

	return instrs, nil
}

// isSimple reports whether op is a supported instruction without immediates.
func isSimple(op byte) bool {
	switch {
	case op == OpUnreachable, op == OpNop, op == OpElse, op == OpEnd, op == OpReturn:
		return true
	case op == OpDrop, op == OpSelect:
		return true
	case op >= OpI32Eqz && op <= OpI64Extend32S:
		return true
	}
	return false
}

func readBrTable(r *bytes.Reader) (BrTableImm, error) {
	count, err := ReadLEB128u(r)
	if err != nil {
		return BrTableImm{}, err
	}
	if int(count) > r.Len() {
		return BrTableImm{}, fmt.Errorf("br_table length %d exceeds body", count)
	}
	labels := make([]uint32, count)
	for i := range labels {
		if labels[i], err = ReadLEB128u(r); err != nil {
			return BrTableImm{}, err
		}
	}
	def, err := ReadLEB128u(r)
	if err != nil {
		return BrTableImm{}, err
	}
	return BrTableImm{Labels: labels, Default: def}, nil
}

func readSelectTypes(r *bytes.Reader) (SelectTypeImm, error) {
	count, err := ReadLEB128u(r)
	if err != nil {
		return SelectTypeImm{}, err
	}
	if int(count) > r.Len() {
		return SelectTypeImm{}, fmt.Errorf("select type count %d exceeds body", count)
	}
	types := make([]ValType, count)
	for i := range types {
		b, err := r.ReadByte()
		if err != nil {
			return SelectTypeImm{}, err
		}
		types[i] = ValType(b)
	}
	return SelectTypeImm{Types: types}, nil
}

func readMemArg(r *bytes.Reader) (MemoryImm, error) {
	align, err := ReadLEB128u(r)
	if err != nil {
		return MemoryImm{}, err
	}
	if align&0x40 != 0 {
		return MemoryImm{}, errors.New("multiple memories are not supported")
	}
	offset, err := ReadLEB128u64(r)
	if err != nil {
		return MemoryImm{}, err
	}
	return MemoryImm{Align: align, Offset: offset}, nil
}

// EncodeInstructionTo writes a single instruction to buf.
func EncodeInstructionTo(buf *bytes.Buffer, instr *Instruction) {
	buf.WriteByte(instr.Opcode)

	switch imm := instr.Imm.(type) {
	case BlockImm:
		WriteLEB128s(buf, imm.Type)
	case BranchImm:
		WriteLEB128u(buf, imm.LabelIdx)
	case BrTableImm:
		WriteLEB128u(buf, uint32(len(imm.Labels)))
		for _, l := range imm.Labels {
			WriteLEB128u(buf, l)
		}
		WriteLEB128u(buf, imm.Default)
	case CallImm:
		WriteLEB128u(buf, imm.FuncIdx)
	case CallIndirectImm:
		WriteLEB128u(buf, imm.TypeIdx)
		WriteLEB128u(buf, imm.TableIdx)
	case SelectTypeImm:
		WriteLEB128u(buf, uint32(len(imm.Types)))
		for _, t := range imm.Types {
			buf.WriteByte(byte(t))
		}
	case LocalImm:
		WriteLEB128u(buf, imm.LocalIdx)
	case GlobalImm:
		WriteLEB128u(buf, imm.GlobalIdx)
	case MemoryImm:
		WriteLEB128u(buf, imm.Align)
		WriteLEB128u64(buf, imm.Offset)
	case MemoryIdxImm:
		WriteLEB128u(buf, imm.MemIdx)
	case I32Imm:
		WriteLEB128s(buf, imm.Value)
	case I64Imm:
		WriteLEB128s64(buf, imm.Value)
	case F32Imm:
		buf.Write(binary.LittleEndian.AppendUint32(nil, imm.Bits))
	case F64Imm:
		buf.Write(binary.LittleEndian.AppendUint64(nil, imm.Bits))
	case RefFuncImm:
		WriteLEB128u(buf, imm.FuncIdx)
	case RefNullImm:
		buf.WriteByte(imm.Type)
	case MiscImm:
		WriteLEB128u(buf, imm.SubOpcode)
	}
}

// EncodeInstructions encodes instructions to bytes.
func EncodeInstructions(instrs []Instruction) []byte {
	var buf bytes.Buffer
	buf.Grow(len(instrs) * 3)
	for i := range instrs {
		EncodeInstructionTo(&buf, &instrs[i])
	}
	return buf.Bytes()
}

// DecodeConstExpr decodes a constant expression that consists of exactly one
// instruction followed by end.
func DecodeConstExpr(expr []byte) (Instruction, error) {
	instrs, err := DecodeInstructions(expr)
	if err != nil {
		return Instruction{}, err
	}
	if len(instrs) != 2 || instrs[1].Opcode != OpEnd {
		return Instruction{}, fmt.Errorf("constant expression must be a single instruction, got %d", len(instrs))
	}
	switch instrs[0].Opcode {
	case OpI32Const, OpI64Const, OpF32Const, OpF64Const, OpGlobalGet, OpRefFunc, OpRefNull:
		return instrs[0], nil
	}
	return Instruction{}, fmt.Errorf("%s is not a constant instruction", OpcodeName(instrs[0].Opcode))
}
