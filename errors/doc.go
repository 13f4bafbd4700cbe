// Package errors provides structured error types for wasm2brs.
//
// Errors are categorized by Phase (decode, load, generate, config) and Kind
// (unsupported, internal, invalid_data, ...). Generation failures carry the
// function path and, for unsupported instructions, the opcode mnemonic.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseGenerate, errors.KindUnsupported).
//		Path("func", "memcpy").
//		Opcode("memory.copy").
//		Detail("bulk memory is not supported").
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.UnsupportedOpcode(path, "i32.atomic.load")
//	err := errors.Internal(path, "stack underflow")
//
// All errors implement the standard error interface and support errors.Is/As.
// Is matches on Phase and Kind only.
package errors
