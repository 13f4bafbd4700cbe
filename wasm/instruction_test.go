package wasm_test

import (
	"errors"
	"math"
	"reflect"
	"testing"

	"github.com/MotleyCoderDev/wasm2brs/wasm"
)

func TestInstructionRoundTrip(t *testing.T) {
	instrs := []wasm.Instruction{
		{Opcode: wasm.OpBlock, Imm: wasm.BlockImm{Type: wasm.BlockTypeVoid}},
		{Opcode: wasm.OpLoop, Imm: wasm.BlockImm{Type: wasm.BlockTypeI32}},
		{Opcode: wasm.OpIf, Imm: wasm.BlockImm{Type: 3}},
		{Opcode: wasm.OpBr, Imm: wasm.BranchImm{LabelIdx: 2}},
		{Opcode: wasm.OpBrIf, Imm: wasm.BranchImm{LabelIdx: 0}},
		{Opcode: wasm.OpBrTable, Imm: wasm.BrTableImm{Labels: []uint32{0, 1, 1}, Default: 2}},
		{Opcode: wasm.OpCall, Imm: wasm.CallImm{FuncIdx: 300}},
		{Opcode: wasm.OpCallIndirect, Imm: wasm.CallIndirectImm{TypeIdx: 1}},
		{Opcode: wasm.OpSelectType, Imm: wasm.SelectTypeImm{Types: []wasm.ValType{wasm.ValF64}}},
		{Opcode: wasm.OpLocalTee, Imm: wasm.LocalImm{LocalIdx: 5}},
		{Opcode: wasm.OpGlobalSet, Imm: wasm.GlobalImm{GlobalIdx: 1}},
		{Opcode: wasm.OpI64Load32U, Imm: wasm.MemoryImm{Align: 2, Offset: 1 << 20}},
		{Opcode: wasm.OpMemoryGrow, Imm: wasm.MemoryIdxImm{}},
		{Opcode: wasm.OpI32Const, Imm: wasm.I32Imm{Value: math.MinInt32}},
		{Opcode: wasm.OpI64Const, Imm: wasm.I64Imm{Value: -42}},
		{Opcode: wasm.OpF32Const, Imm: wasm.F32Imm{Bits: 0x7fa00001}},
		{Opcode: wasm.OpF64Const, Imm: wasm.F64Imm{Bits: 0xfff8000000000123}},
		{Opcode: wasm.OpPrefixMisc, Imm: wasm.MiscImm{SubOpcode: wasm.MiscI64TruncSatF64U}},
		{Opcode: wasm.OpI64Extend32S},
		{Opcode: wasm.OpEnd},
	}

	decoded, err := wasm.DecodeInstructions(wasm.EncodeInstructions(instrs))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(decoded) != len(instrs) {
		t.Fatalf("got %d instructions, want %d", len(decoded), len(instrs))
	}
	for i := range instrs {
		if decoded[i].Opcode != instrs[i].Opcode {
			t.Errorf("[%d] opcode = 0x%02x, want 0x%02x", i, decoded[i].Opcode, instrs[i].Opcode)
		}
		if !reflect.DeepEqual(decoded[i].Imm, instrs[i].Imm) {
			t.Errorf("[%d] %s imm = %#v, want %#v", i, instrs[i].Name(), decoded[i].Imm, instrs[i].Imm)
		}
	}
	if decoded[0].Offset != 0 || decoded[1].Offset != 2 {
		t.Errorf("offsets = %d, %d; want 0, 2", decoded[0].Offset, decoded[1].Offset)
	}
}

func TestUnsupportedOpcodes(t *testing.T) {
	tests := []struct {
		name string
		code []byte
		want string
	}{
		{"return_call", []byte{0x12, 0x00}, "return_call"},
		{"try", []byte{0x06, 0x40}, "try"},
		{"table.get", []byte{0x25, 0x00}, "table.get"},
		{"ref.is_null", []byte{0xD1}, "ref.is_null"},
		{"memory.copy", []byte{0xFC, 0x0A, 0x00, 0x00}, "memory.copy"},
		{"simd", []byte{0xFD, 0x0C}, "simd <0xfd 12>"},
		{"atomic", []byte{0xFE, 0x10, 0x02, 0x00}, "atomic <0xfe 16>"},
		{"unknown", []byte{0x01, 0xEE}, "<0xee>"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := wasm.DecodeInstructions(tt.code)
			if !errors.Is(err, wasm.ErrUnsupportedOpcode) {
				t.Fatalf("err = %v, want ErrUnsupportedOpcode", err)
			}
			var uerr *wasm.UnsupportedOpcodeError
			if !errors.As(err, &uerr) {
				t.Fatalf("err is %T", err)
			}
			if uerr.Name != tt.want {
				t.Errorf("Name = %q, want %q", uerr.Name, tt.want)
			}
		})
	}
}

func TestDecodeConstExpr(t *testing.T) {
	instr, err := wasm.DecodeConstExpr([]byte{wasm.OpI32Const, 0x2a, wasm.OpEnd})
	if err != nil {
		t.Fatal(err)
	}
	if instr.Imm != (wasm.I32Imm{Value: 42}) {
		t.Errorf("imm = %#v", instr.Imm)
	}

	if _, err := wasm.DecodeConstExpr([]byte{wasm.OpI32Const, 0x01, wasm.OpI32Const, 0x02, wasm.OpI32Add, wasm.OpEnd}); err == nil {
		t.Error("extended constant expression should be rejected")
	}
	if _, err := wasm.DecodeConstExpr([]byte{wasm.OpNop, wasm.OpEnd}); err == nil {
		t.Error("nop is not a constant instruction")
	}
}

func TestInstructionName(t *testing.T) {
	if got := (wasm.Instruction{Opcode: wasm.OpI32TruncF64U}).Name(); got != "i32.trunc_f64_u" {
		t.Errorf("Name = %q", got)
	}
	sat := wasm.Instruction{Opcode: wasm.OpPrefixMisc, Imm: wasm.MiscImm{SubOpcode: wasm.MiscI32TruncSatF32U}}
	if got := sat.Name(); got != "i32.trunc_sat_f32_u" {
		t.Errorf("Name = %q", got)
	}
}
