package literal

import (
	"math"
	"testing"

	"github.com/MotleyCoderDev/wasm2brs/wasm"
)

func TestIntegers(t *testing.T) {
	tests := []struct {
		name string
		got  string
		want string
	}{
		{"zero", I32(0), "0%"},
		{"negative", I32(-5), "-5%"},
		{"max i32", I32(math.MaxInt32), "2147483647%"},
		{"min i32", I32(math.MinInt32), "(-2147483647% - 1%)"},
		{"i64", I64(1 << 40), "1099511627776&"},
		{"min i64", I64(math.MinInt64), "(-9223372036854775807& - 1&)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %q, want %q", tt.got, tt.want)
			}
		})
	}
}

func TestFloats(t *testing.T) {
	tests := []struct {
		name string
		got  string
		want string
	}{
		{"f32 one", F32(math.Float32bits(1)), "1.0!"},
		{"f32 fraction", F32(math.Float32bits(0.1)), "0.1!"},
		{"f32 +inf", F32(0x7f800000), "FloatInf()"},
		{"f32 -inf", F32(0xff800000), "-FloatInf()"},
		{"f32 nan", F32(0x7fc00000), "FloatNan()"},
		{"f32 negative nan", F32(0xffc00000), "F32ReinterpretI32(-4194304%)"},
		{"f32 payload nan", F32(0x7f800001), "F32ReinterpretI32(2139095041%)"},
		{"f32 -0", F32(0x80000000), "-0.0!"},
		{"f32 +0", F32(0), "0.0!"},
		{"f64 pi", F64(math.Float64bits(math.Pi)), "3.141592653589793#"},
		{"f64 +inf", F64(0x7ff0000000000000), "DoubleInf()"},
		{"f64 -inf", F64(0xfff0000000000000), "-DoubleInf()"},
		{"f64 nan", F64(0x7ff8000000000000), "DoubleNan()"},
		{"f64 -0", F64(0x8000000000000000), "-0.0#"},
		{"f64 large", F64(math.Float64bits(1e300)), "1e+300#"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %q, want %q", tt.got, tt.want)
			}
		})
	}
}

func TestRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		typ  wasm.ValType
		bits uint64
	}{
		{"f32 +inf", wasm.ValF32, 0x7f800000},
		{"f32 -inf", wasm.ValF32, 0xff800000},
		{"f32 nan", wasm.ValF32, 0x7fc00000},
		{"f32 signed nan", wasm.ValF32, 0xffc00000},
		{"f32 signalling nan", wasm.ValF32, 0x7fa00001},
		{"f32 +0", wasm.ValF32, 0},
		{"f32 -0", wasm.ValF32, 0x80000000},
		{"f32 smallest subnormal", wasm.ValF32, 1},
		{"f32 max", wasm.ValF32, uint64(math.Float32bits(math.MaxFloat32))},
		{"f32 third", wasm.ValF32, uint64(math.Float32bits(1.0 / 3))},
		{"f64 +inf", wasm.ValF64, 0x7ff0000000000000},
		{"f64 -inf", wasm.ValF64, 0xfff0000000000000},
		{"f64 nan", wasm.ValF64, 0x7ff8000000000000},
		{"f64 payload nan", wasm.ValF64, 0x7ff0000000000bad},
		{"f64 negative nan", wasm.ValF64, 0xfff8000000000000},
		{"f64 +0", wasm.ValF64, 0},
		{"f64 -0", wasm.ValF64, 0x8000000000000000},
		{"f64 smallest subnormal", wasm.ValF64, 1},
		{"f64 third", wasm.ValF64, math.Float64bits(1.0 / 3)},
		{"i32 min", wasm.ValI32, 0x80000000},
		{"i32 -1", wasm.ValI32, 0xffffffff},
		{"i64 min", wasm.ValI64, 1 << 63},
		{"i64 -1", wasm.ValI64, math.MaxUint64},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lit, err := Encode(tt.typ, tt.bits)
			if err != nil {
				t.Fatalf("Encode: %v", err)
			}
			typ, bits, err := Parse(lit)
			if err != nil {
				t.Fatalf("Parse(%q): %v", lit, err)
			}
			if typ != tt.typ || bits != tt.bits {
				t.Errorf("Parse(%q) = %v %#x, want %v %#x", lit, typ, bits, tt.typ, tt.bits)
			}
		})
	}
}

func TestInstruction(t *testing.T) {
	typ, lit, err := Instruction(wasm.Instruction{Opcode: wasm.OpF64Const, Imm: wasm.F64Imm{Bits: 0x8000000000000000}})
	if err != nil || typ != wasm.ValF64 || lit != "-0.0#" {
		t.Errorf("Instruction = %v %q %v", typ, lit, err)
	}
	if _, _, err := Instruction(wasm.Instruction{Opcode: wasm.OpNop}); err == nil {
		t.Error("expected error for non-constant instruction")
	}
}

func TestParseErrors(t *testing.T) {
	for _, in := range []string{"", "12", "1.5x", "F32ReinterpretI32(1&)", "abc%", "99999999999%"} {
		if _, _, err := Parse(in); err == nil {
			t.Errorf("Parse(%q) succeeded", in)
		}
	}
}

func TestEncodeRejectsNonNumeric(t *testing.T) {
	if _, err := Encode(wasm.ValFuncRef, 0); err == nil {
		t.Error("expected error for funcref")
	}
}
