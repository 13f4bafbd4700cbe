package wasm_test

import (
	"bytes"
	"errors"
	"testing"

	"github.com/MotleyCoderDev/wasm2brs/wasm"
)

func TestLEB128Unsigned(t *testing.T) {
	tests := []struct {
		name    string
		value   uint32
		encoded []byte
	}{
		{"zero", 0, []byte{0x00}},
		{"one byte max", 127, []byte{0x7f}},
		{"two bytes", 128, []byte{0x80, 0x01}},
		{"three bytes", 624485, []byte{0xe5, 0x8e, 0x26}},
		{"max u32", 0xFFFFFFFF, []byte{0xff, 0xff, 0xff, 0xff, 0x0f}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			wasm.WriteLEB128u(&buf, tt.value)
			if !bytes.Equal(buf.Bytes(), tt.encoded) {
				t.Fatalf("WriteLEB128u(%d) = % x, want % x", tt.value, buf.Bytes(), tt.encoded)
			}
			got, err := wasm.ReadLEB128u(bytes.NewReader(tt.encoded))
			if err != nil || got != tt.value {
				t.Fatalf("ReadLEB128u = %d, %v; want %d", got, err, tt.value)
			}
		})
	}
}

func TestLEB128Signed(t *testing.T) {
	tests := []struct {
		name    string
		value   int64
		encoded []byte
	}{
		{"minus one", -1, []byte{0x7f}},
		{"positive sign bit", 64, []byte{0xc0, 0x00}},
		{"negative one byte", -64, []byte{0x40}},
		{"min i32", -2147483648, []byte{0x80, 0x80, 0x80, 0x80, 0x78}},
		{"min i64", -9223372036854775808, []byte{0x80, 0x80, 0x80, 0x80, 0x80, 0x80, 0x80, 0x80, 0x80, 0x7f}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			wasm.WriteLEB128s64(&buf, tt.value)
			if !bytes.Equal(buf.Bytes(), tt.encoded) {
				t.Fatalf("WriteLEB128s64(%d) = % x, want % x", tt.value, buf.Bytes(), tt.encoded)
			}
			got, err := wasm.ReadLEB128s64(bytes.NewReader(tt.encoded))
			if err != nil || got != tt.value {
				t.Fatalf("ReadLEB128s64 = %d, %v; want %d", got, err, tt.value)
			}
		})
	}
}

func TestLEB128TooLong(t *testing.T) {
	six := []byte{0x80, 0x80, 0x80, 0x80, 0x80, 0x01}
	if _, err := wasm.ReadLEB128u(bytes.NewReader(six)); !errors.Is(err, wasm.ErrOverflow) {
		t.Errorf("ReadLEB128u: %v", err)
	}
	if _, err := wasm.ReadLEB128s(bytes.NewReader(six)); !errors.Is(err, wasm.ErrOverflow) {
		t.Errorf("ReadLEB128s: %v", err)
	}
	if v, err := wasm.ReadLEB128u64(bytes.NewReader(six)); err != nil || v != 1<<35 {
		t.Errorf("ReadLEB128u64 = %d, %v", v, err)
	}
}
