package binary

import (
	"errors"
	"io"
)

// ErrOverflow reports a LEB128 value longer than its declared width allows.
var ErrOverflow = errors.New("leb128: overflow")

// maxBytes is the longest encoding of a bits-wide value.
func maxBytes(bits uint) int {
	return int((bits + 6) / 7)
}

// Uleb reads an unsigned LEB128 value no wider than bits.
func Uleb(r io.ByteReader, bits uint) (uint64, error) {
	var v uint64
	for i, shift := 0, uint(0); i < maxBytes(bits); i, shift = i+1, shift+7 {
		b, err := r.ReadByte()
		if err != nil {
			return 0, err
		}
		v |= uint64(b&0x7f) << shift
		if b < 0x80 {
			return v, nil
		}
	}
	return 0, ErrOverflow
}

// Sleb reads a signed LEB128 value no wider than bits and sign-extends it.
func Sleb(r io.ByteReader, bits uint) (int64, error) {
	var v int64
	shift := uint(0)
	for i := 0; i < maxBytes(bits); i++ {
		b, err := r.ReadByte()
		if err != nil {
			return 0, err
		}
		v |= int64(b&0x7f) << shift
		shift += 7
		if b >= 0x80 {
			continue
		}
		if shift < 64 && b&0x40 != 0 {
			v |= -1 << shift
		}
		return v, nil
	}
	return 0, ErrOverflow
}

// AppendUleb appends the unsigned LEB128 encoding of v to dst.
func AppendUleb(dst []byte, v uint64) []byte {
	for v >= 0x80 {
		dst = append(dst, byte(v)|0x80)
		v >>= 7
	}
	return append(dst, byte(v))
}

// AppendSleb appends the signed LEB128 encoding of v to dst.
func AppendSleb(dst []byte, v int64) []byte {
	for {
		b := byte(v & 0x7f)
		v >>= 7
		done := (v == 0 && b&0x40 == 0) || (v == -1 && b&0x40 != 0)
		if done {
			return append(dst, b)
		}
		dst = append(dst, b|0x80)
	}
}
