package errors

import (
	"fmt"
	"strings"
)

// Phase names the conversion stage that failed.
type Phase string

const (
	PhaseDecode   Phase = "decode"
	PhaseLoad     Phase = "load"
	PhaseGenerate Phase = "generate"
	PhaseConfig   Phase = "config"
)

// Kind classifies the failure within a phase.
type Kind string

const (
	KindInvalidData  Kind = "invalid_data"
	KindInvalidInput Kind = "invalid_input"
	KindUnsupported  Kind = "unsupported"
	KindNotFound     Kind = "not_found"
	KindInternal     Kind = "internal"
)

// Error is returned by every exported operation of wasm2brs.
type Error struct {
	Cause  error
	Phase  Phase
	Kind   Kind
	Opcode string
	Detail string
	// Path locates the failure, typically "func" followed by the
	// function's BrightScript name.
	Path []string
}

// Error implements the error interface.
func (e *Error) Error() string {
	parts := []string{string(e.Phase) + " " + string(e.Kind)}
	if len(e.Path) > 0 {
		parts[0] += " in " + strings.Join(e.Path, ".")
	}
	if e.Opcode != "" {
		parts = append(parts, "opcode "+e.Opcode)
	}
	if e.Detail != "" {
		parts = append(parts, e.Detail)
	}
	if e.Cause != nil {
		parts = append(parts, e.Cause.Error())
	}
	return strings.Join(parts, ": ")
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches any *Error with the same Phase and Kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && e.Phase == t.Phase && e.Kind == t.Kind
}

// Builder assembles an Error field by field.
type Builder struct {
	err Error
}

// New starts a Builder for an error of the given phase and kind.
func New(phase Phase, kind Kind) *Builder {
	return &Builder{err: Error{Phase: phase, Kind: kind}}
}

// Path sets the location, e.g. "func", name.
func (b *Builder) Path(path ...string) *Builder {
	b.err.Path = path
	return b
}

// Opcode sets the mnemonic of the offending instruction.
func (b *Builder) Opcode(name string) *Builder {
	b.err.Opcode = name
	return b
}

// Cause sets the wrapped error.
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail sets the message, formatting it when args are given.
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		msg = fmt.Sprintf(msg, args...)
	}
	b.err.Detail = msg
	return b
}

// Build returns a copy of the assembled error.
func (b *Builder) Build() *Error {
	e := b.err
	return &e
}

// UnsupportedOpcode reports an instruction the generator cannot translate.
func UnsupportedOpcode(path []string, opcode string) *Error {
	return &Error{
		Phase:  PhaseGenerate,
		Kind:   KindUnsupported,
		Path:   path,
		Opcode: opcode,
		Detail: "instruction is not supported",
	}
}

// Unsupported reports a module feature outside the supported subset.
func Unsupported(phase Phase, what string) *Error {
	return &Error{Phase: phase, Kind: KindUnsupported, Detail: what}
}

// Internal reports broken generator bookkeeping, such as a stack
// underflow in a body that skipped validation.
func Internal(path []string, detail string) *Error {
	return &Error{Phase: PhaseGenerate, Kind: KindInternal, Path: path, Detail: detail}
}

// InvalidData reports malformed module contents.
func InvalidData(phase Phase, path []string, detail string) *Error {
	return &Error{Phase: phase, Kind: KindInvalidData, Path: path, Detail: detail}
}

// InvalidInput reports a bad argument or configuration value.
func InvalidInput(phase Phase, detail string) *Error {
	return &Error{Phase: phase, Kind: KindInvalidInput, Detail: detail}
}

// Wrap attaches a phase and kind to an error from another package.
func Wrap(phase Phase, kind Kind, cause error, detail string) *Error {
	return &Error{Phase: phase, Kind: kind, Detail: detail, Cause: cause}
}

// Decode reports a malformed binary.
func Decode(detail string, cause error) *Error {
	return Wrap(PhaseDecode, KindInvalidData, cause, detail)
}
