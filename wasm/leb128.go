package wasm

import (
	"bytes"
	"io"

	"github.com/MotleyCoderDev/wasm2brs/wasm/internal/binary"
)

// ErrOverflow reports an immediate whose LEB128 encoding is too long.
var ErrOverflow = binary.ErrOverflow

// ReadLEB128u reads a u32 immediate.
func ReadLEB128u(r io.ByteReader) (uint32, error) {
	v, err := binary.Uleb(r, 32)
	return uint32(v), err
}

// ReadLEB128u64 reads a u64 immediate such as a memarg offset.
func ReadLEB128u64(r io.ByteReader) (uint64, error) {
	return binary.Uleb(r, 64)
}

// ReadLEB128s reads an i32 immediate.
func ReadLEB128s(r io.ByteReader) (int32, error) {
	v, err := binary.Sleb(r, 32)
	return int32(v), err
}

// ReadLEB128s64 reads an i64 immediate or a block type.
func ReadLEB128s64(r io.ByteReader) (int64, error) {
	return binary.Sleb(r, 64)
}

// WriteLEB128u appends a u32 immediate to w.
func WriteLEB128u(w *bytes.Buffer, v uint32) {
	w.Write(binary.AppendUleb(nil, uint64(v)))
}

// WriteLEB128u64 appends a u64 immediate to w.
func WriteLEB128u64(w *bytes.Buffer, v uint64) {
	w.Write(binary.AppendUleb(nil, v))
}

// WriteLEB128s appends an i32 immediate to w.
func WriteLEB128s(w *bytes.Buffer, v int32) {
	w.Write(binary.AppendSleb(nil, int64(v)))
}

// WriteLEB128s64 appends an i64 immediate to w.
func WriteLEB128s64(w *bytes.Buffer, v int64) {
	w.Write(binary.AppendSleb(nil, v))
}
