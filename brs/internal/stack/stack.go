// Package stack holds the compile-time shadows of the WebAssembly operand
// stack and of the structured-control label stack.
//
// Both stacks assume validated input. Popping or peeking past the bottom,
// or resetting to a mark above the current depth, panics with an
// *errors.Error of kind KindInternal; the generator recovers it at its
// public boundary.
package stack

import (
	"github.com/MotleyCoderDev/wasm2brs/errors"
	"github.com/MotleyCoderDev/wasm2brs/wasm"
)

// Types is the operand type stack.
type Types struct {
	types []wasm.ValType
}

// Push adds one type to the top.
func (s *Types) Push(t wasm.ValType) {
	s.types = append(s.types, t)
}

// PushMany adds types in order, so the last one ends on top.
func (s *Types) PushMany(ts []wasm.ValType) {
	s.types = append(s.types, ts...)
}

// Drop removes count types from the top.
func (s *Types) Drop(count int) {
	if count < 0 || count > len(s.types) {
		panic(violation("drop %d from depth %d", count, len(s.types)))
	}
	s.types = s.types[:len(s.types)-count]
}

// Mark returns the current depth for a later Reset.
func (s *Types) Mark() int {
	return len(s.types)
}

// Reset truncates the stack back to a depth returned by Mark.
func (s *Types) Reset(mark int) {
	if mark < 0 || mark > len(s.types) {
		panic(violation("reset to %d from depth %d", mark, len(s.types)))
	}
	s.types = s.types[:mark]
}

// Peek returns the type index positions below the top; Peek(0) is the top.
func (s *Types) Peek(index int) wasm.ValType {
	if index < 0 || index >= len(s.types) {
		panic(violation("peek %d at depth %d", index, len(s.types)))
	}
	return s.types[len(s.types)-1-index]
}

// At returns the type at an absolute position counted from the bottom.
func (s *Types) At(pos int) wasm.ValType {
	if pos < 0 || pos >= len(s.types) {
		panic(violation("type at %d with depth %d", pos, len(s.types)))
	}
	return s.types[pos]
}

// Depth returns the number of live operands.
func (s *Types) Depth() int {
	return len(s.types)
}

func violation(format string, args ...any) *errors.Error {
	return errors.New(errors.PhaseGenerate, errors.KindInternal).
		Path("stack").
		Detail(format, args...).
		Build()
}
