// Package literal encodes WebAssembly constants as BrightScript literals and
// decodes them back.
//
// Integers carry a type suffix (% for Integer, & for LongInteger). Floats
// use the shortest decimal that round-trips at their width, suffixed with !
// (Float) or # (Double). Bit patterns BrightScript has no literal for are
// written as runtime helper calls:
//
//	+Inf, -Inf        FloatInf(), -FloatInf(), DoubleInf(), -DoubleInf()
//	canonical NaN     FloatNan(), DoubleNan()
//	any other NaN     F32ReinterpretI32(<bits>%), F64ReinterpretI64(<bits>&)
//	-0.0              -0.0!, -0.0#
package literal

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/MotleyCoderDev/wasm2brs/wasm"
)

// Canonical quiet NaN bit patterns with a positive sign.
const (
	CanonicalNaN32 uint32 = 0x7fc00000
	CanonicalNaN64 uint64 = 0x7ff8000000000000
)

const (
	minI32 = "(-2147483647% - 1%)"
	minI64 = "(-9223372036854775807& - 1&)"
)

// I32 returns the literal for a 32-bit integer.
func I32(v int32) string {
	if v == math.MinInt32 {
		return minI32
	}
	return strconv.FormatInt(int64(v), 10) + "%"
}

// I64 returns the literal for a 64-bit integer.
func I64(v int64) string {
	if v == math.MinInt64 {
		return minI64
	}
	return strconv.FormatInt(v, 10) + "&"
}

// F32 returns the literal for a 32-bit float given its bit pattern.
func F32(bits uint32) string {
	const expMask, fracMask, signBit = 0x7f800000, 0x007fffff, 0x80000000
	switch {
	case bits&expMask == expMask && bits&fracMask == 0:
		if bits&signBit != 0 {
			return "-FloatInf()"
		}
		return "FloatInf()"
	case bits&expMask == expMask:
		if bits == CanonicalNaN32 {
			return "FloatNan()"
		}
		return "F32ReinterpretI32(" + I32(int32(bits)) + ")"
	case bits == signBit:
		return "-0.0!"
	}
	return formatFloat(float64(math.Float32frombits(bits)), 32) + "!"
}

// F64 returns the literal for a 64-bit float given its bit pattern.
func F64(bits uint64) string {
	const expMask, fracMask, signBit = 0x7ff0000000000000, 0x000fffffffffffff, 0x8000000000000000
	switch {
	case bits&expMask == expMask && bits&fracMask == 0:
		if bits&signBit != 0 {
			return "-DoubleInf()"
		}
		return "DoubleInf()"
	case bits&expMask == expMask:
		if bits == CanonicalNaN64 {
			return "DoubleNan()"
		}
		return "F64ReinterpretI64(" + I64(int64(bits)) + ")"
	case bits == signBit:
		return "-0.0#"
	}
	return formatFloat(math.Float64frombits(bits), 64) + "#"
}

func formatFloat(f float64, bitSize int) string {
	s := strconv.FormatFloat(f, 'g', -1, bitSize)
	if !strings.ContainsAny(s, ".e") {
		s += ".0"
	}
	return s
}

// Encode returns the literal for a constant of type t whose raw bits (for
// integers, the two's complement value) are given.
func Encode(t wasm.ValType, bits uint64) (string, error) {
	switch t {
	case wasm.ValI32:
		return I32(int32(uint32(bits))), nil
	case wasm.ValI64:
		return I64(int64(bits)), nil
	case wasm.ValF32:
		return F32(uint32(bits)), nil
	case wasm.ValF64:
		return F64(bits), nil
	}
	return "", fmt.Errorf("no literal form for %s", t)
}

// Instruction returns the literal of a constant instruction.
func Instruction(instr wasm.Instruction) (wasm.ValType, string, error) {
	switch imm := instr.Imm.(type) {
	case wasm.I32Imm:
		return wasm.ValI32, I32(imm.Value), nil
	case wasm.I64Imm:
		return wasm.ValI64, I64(imm.Value), nil
	case wasm.F32Imm:
		return wasm.ValF32, F32(imm.Bits), nil
	case wasm.F64Imm:
		return wasm.ValF64, F64(imm.Bits), nil
	}
	return 0, "", fmt.Errorf("%s is not a numeric constant", instr.Name())
}

// Parse decodes a literal produced by this package into its type and bits.
func Parse(s string) (wasm.ValType, uint64, error) {
	switch s {
	case minI32:
		return wasm.ValI32, 0x80000000, nil
	case minI64:
		return wasm.ValI64, 1 << 63, nil
	case "FloatInf()":
		return wasm.ValF32, uint64(math.Float32bits(float32(math.Inf(1)))), nil
	case "-FloatInf()":
		return wasm.ValF32, uint64(math.Float32bits(float32(math.Inf(-1)))), nil
	case "DoubleInf()":
		return wasm.ValF64, math.Float64bits(math.Inf(1)), nil
	case "-DoubleInf()":
		return wasm.ValF64, math.Float64bits(math.Inf(-1)), nil
	case "FloatNan()":
		return wasm.ValF32, uint64(CanonicalNaN32), nil
	case "DoubleNan()":
		return wasm.ValF64, CanonicalNaN64, nil
	}

	if inner, ok := call(s, "F32ReinterpretI32"); ok {
		t, bits, err := Parse(inner)
		if err != nil || t != wasm.ValI32 {
			return 0, 0, fmt.Errorf("literal %q: bad reinterpret operand", s)
		}
		return wasm.ValF32, bits, nil
	}
	if inner, ok := call(s, "F64ReinterpretI64"); ok {
		t, bits, err := Parse(inner)
		if err != nil || t != wasm.ValI64 {
			return 0, 0, fmt.Errorf("literal %q: bad reinterpret operand", s)
		}
		return wasm.ValF64, bits, nil
	}

	if s == "" {
		return 0, 0, fmt.Errorf("empty literal")
	}
	body, suffix := s[:len(s)-1], s[len(s)-1]
	switch suffix {
	case '%':
		v, err := strconv.ParseInt(body, 10, 32)
		if err != nil {
			return 0, 0, fmt.Errorf("literal %q: %w", s, err)
		}
		return wasm.ValI32, uint64(uint32(int32(v))), nil
	case '&':
		v, err := strconv.ParseInt(body, 10, 64)
		if err != nil {
			return 0, 0, fmt.Errorf("literal %q: %w", s, err)
		}
		return wasm.ValI64, uint64(v), nil
	case '!':
		f, err := strconv.ParseFloat(body, 32)
		if err != nil {
			return 0, 0, fmt.Errorf("literal %q: %w", s, err)
		}
		return wasm.ValF32, uint64(math.Float32bits(float32(f))), nil
	case '#':
		f, err := strconv.ParseFloat(body, 64)
		if err != nil {
			return 0, 0, fmt.Errorf("literal %q: %w", s, err)
		}
		return wasm.ValF64, math.Float64bits(f), nil
	}
	return 0, 0, fmt.Errorf("literal %q: unknown suffix %q", s, suffix)
}

func call(s, fn string) (string, bool) {
	if !strings.HasPrefix(s, fn+"(") || !strings.HasSuffix(s, ")") {
		return "", false
	}
	return s[len(fn)+1 : len(s)-1], true
}
