// Package optable binds each supported numeric and memory opcode to the
// shape of BrightScript it lowers to, together with its stack effect.
//
// Control, variable, call and constant instructions are structural and
// handled by the generator directly; they are not in the table.
package optable

import (
	"sort"
	"strings"

	"github.com/MotleyCoderDev/wasm2brs/wasm"
)

// Shape is the form of statement an opcode lowers to.
type Shape uint8

const (
	// Infix writes "a = a <op> b" into the lower operand's slot.
	Infix Shape = iota + 1
	// Call writes "r = Helper(args...)" into the lowest operand's slot.
	Call
	// Shift writes "a <<= (b AND mask)" in place.
	Shift
	// Load writes "r = Helper(mem, addr)".
	Load
	// Store writes "Helper(mem, addr, value)" and produces nothing.
	Store
)

func (s Shape) String() string {
	switch s {
	case Infix:
		return "infix"
	case Call:
		return "call"
	case Shift:
		return "shift"
	case Load:
		return "load"
	case Store:
		return "store"
	default:
		return "unknown"
	}
}

// Op describes one opcode.
type Op struct {
	// Name is the text-format mnemonic.
	Name string
	// Operator is the infix or shift operator, or the helper function name.
	Operator string
	// Params are the operand types, bottom first.
	Params []wasm.ValType
	// Result is the produced type, zero for stores.
	Result wasm.ValType
	Shape  Shape
}

// Pops returns the number of operands consumed.
func (o *Op) Pops() int { return len(o.Params) }

// HasResult reports whether the op pushes a value.
func (o *Op) HasResult() bool { return o.Result != 0 }

// ShiftMask is the operand-width mask applied to shift amounts.
func (o *Op) ShiftMask() int {
	if o.Result == wasm.ValI64 {
		return 63
	}
	return 31
}

// Runtime helpers referenced by the generator outside the table.
const (
	MemoryCopy = "MemoryCopy"
	MemoryGrow = "MemoryGrow"
	MemorySize = "MemorySize"
)

var (
	ops  [256]*Op
	misc [8]*Op
)

// Lookup returns the entry for a single-byte opcode.
func Lookup(opcode byte) (*Op, bool) {
	op := ops[opcode]
	return op, op != nil
}

// LookupMisc returns the entry for a 0xFC-prefixed opcode.
func LookupMisc(sub uint32) (*Op, bool) {
	if sub >= uint32(len(misc)) {
		return nil, false
	}
	return misc[sub], misc[sub] != nil
}

// ForInstruction returns the entry for a decoded instruction.
func ForInstruction(instr wasm.Instruction) (*Op, bool) {
	if instr.Opcode == wasm.OpPrefixMisc {
		imm, ok := instr.Imm.(wasm.MiscImm)
		if !ok {
			return nil, false
		}
		return LookupMisc(imm.SubOpcode)
	}
	return Lookup(instr.Opcode)
}

// HelperName derives the runtime helper name from a mnemonic by
// capitalizing each part separated by '.' or '_':
// "i32.div_u" becomes "I32DivU", "i64.extend_i32_s" becomes "I64ExtendI32S".
func HelperName(mnemonic string) string {
	var b strings.Builder
	for _, part := range strings.FieldsFunc(mnemonic, func(r rune) bool { return r == '.' || r == '_' }) {
		b.WriteString(strings.ToUpper(part[:1]))
		b.WriteString(part[1:])
	}
	return b.String()
}

// Helpers returns every runtime helper name the generator can emit, sorted.
func Helpers() []string {
	seen := map[string]bool{
		MemoryCopy: true, MemoryGrow: true, MemorySize: true,
		"FloatInf": true, "FloatNan": true, "DoubleInf": true, "DoubleNan": true,
	}
	add := func(op *Op) {
		if op != nil && op.Shape != Infix && op.Shape != Shift && op.Operator != "-" {
			seen[op.Operator] = true
		}
	}
	for _, op := range ops {
		add(op)
	}
	for _, op := range misc {
		add(op)
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
