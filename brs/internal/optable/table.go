package optable

import (
	"strings"

	"github.com/MotleyCoderDev/wasm2brs/wasm"
)

// operators overrides the default helper-call lowering.
var operators = map[string]struct {
	shape Shape
	op    string
}{
	"i32.add": {Infix, "+"}, "i64.add": {Infix, "+"}, "f32.add": {Infix, "+"}, "f64.add": {Infix, "+"},
	"i32.sub": {Infix, "-"}, "i64.sub": {Infix, "-"}, "f32.sub": {Infix, "-"}, "f64.sub": {Infix, "-"},
	"i32.mul": {Infix, "*"}, "i64.mul": {Infix, "*"}, "f32.mul": {Infix, "*"}, "f64.mul": {Infix, "*"},
	"i32.div_s": {Infix, `\`}, "i64.div_s": {Infix, `\`},
	"i32.rem_s": {Infix, "MOD"}, "i64.rem_s": {Infix, "MOD"},
	"i32.and": {Infix, "AND"}, "i64.and": {Infix, "AND"},
	"i32.or": {Infix, "OR"}, "i64.or": {Infix, "OR"},
	"i32.shl": {Shift, "<<="}, "i64.shl": {Shift, "<<="},
	"i32.shr_u": {Shift, ">>="}, "i64.shr_u": {Shift, ">>="},
	"f32.neg": {Call, "-"}, "f64.neg": {Call, "-"},
	"f32.abs": {Call, "Abs"}, "f32.sqrt": {Call, "Sqr"},
}

var (
	i32 = wasm.ValI32
	i64 = wasm.ValI64
	f32 = wasm.ValF32
	f64 = wasm.ValF64
)

func init() {
	// comparisons
	register(wasm.OpI32Eqz, []wasm.ValType{i32}, i32)
	registerRange(wasm.OpI32Eq, wasm.OpI32GeU, []wasm.ValType{i32, i32}, i32)
	register(wasm.OpI64Eqz, []wasm.ValType{i64}, i32)
	registerRange(wasm.OpI64Eq, wasm.OpI64GeU, []wasm.ValType{i64, i64}, i32)
	registerRange(wasm.OpF32Eq, wasm.OpF32Ge, []wasm.ValType{f32, f32}, i32)
	registerRange(wasm.OpF64Eq, wasm.OpF64Ge, []wasm.ValType{f64, f64}, i32)

	// arithmetic
	registerRange(wasm.OpI32Clz, wasm.OpI32Popcnt, []wasm.ValType{i32}, i32)
	registerRange(wasm.OpI32Add, wasm.OpI32Rotr, []wasm.ValType{i32, i32}, i32)
	registerRange(wasm.OpI64Clz, wasm.OpI64Popcnt, []wasm.ValType{i64}, i64)
	registerRange(wasm.OpI64Add, wasm.OpI64Rotr, []wasm.ValType{i64, i64}, i64)
	registerRange(wasm.OpF32Abs, wasm.OpF32Sqrt, []wasm.ValType{f32}, f32)
	registerRange(wasm.OpF32Add, wasm.OpF32Copysign, []wasm.ValType{f32, f32}, f32)
	registerRange(wasm.OpF64Abs, wasm.OpF64Sqrt, []wasm.ValType{f64}, f64)
	registerRange(wasm.OpF64Add, wasm.OpF64Copysign, []wasm.ValType{f64, f64}, f64)

	// conversions and sign extension
	for op := int(wasm.OpI32WrapI64); op <= int(wasm.OpF64ReinterpretI64); op++ {
		name := wasm.OpcodeName(byte(op))
		ops[op] = newOp(name, []wasm.ValType{sourceType(name)}, resultType(name))
	}
	registerRange(wasm.OpI32Extend8S, wasm.OpI32Extend16S, []wasm.ValType{i32}, i32)
	registerRange(wasm.OpI64Extend8S, wasm.OpI64Extend32S, []wasm.ValType{i64}, i64)
	for sub := range misc {
		name := wasm.PrefixedOpcodeName(wasm.OpPrefixMisc, uint32(sub))
		misc[sub] = newOp(name, []wasm.ValType{sourceType(name)}, resultType(name))
	}

	// memory
	for op := int(wasm.OpI32Load); op <= int(wasm.OpI64Load32U); op++ {
		name := wasm.OpcodeName(byte(op))
		o := newOp(name, []wasm.ValType{i32}, resultType(name))
		o.Shape = Load
		ops[op] = o
	}
	for op := int(wasm.OpI32Store); op <= int(wasm.OpI64Store32); op++ {
		name := wasm.OpcodeName(byte(op))
		o := newOp(name, []wasm.ValType{i32, resultType(name)}, 0)
		o.Shape = Store
		ops[op] = o
	}
}

func register(opcode byte, params []wasm.ValType, result wasm.ValType) {
	ops[opcode] = newOp(wasm.OpcodeName(opcode), params, result)
}

func registerRange(first, last byte, params []wasm.ValType, result wasm.ValType) {
	for op := int(first); op <= int(last); op++ {
		register(byte(op), params, result)
	}
}

func newOp(name string, params []wasm.ValType, result wasm.ValType) *Op {
	op := &Op{
		Name:     name,
		Params:   params,
		Result:   result,
		Shape:    Call,
		Operator: HelperName(name),
	}
	if o, ok := operators[name]; ok {
		op.Shape = o.shape
		op.Operator = o.op
	}
	return op
}

// resultType reads the type before the dot: "f32.convert_i64_u" gives f32.
func resultType(name string) wasm.ValType {
	dot := strings.IndexByte(name, '.')
	return typeNamed(name[:dot])
}

// sourceType reads the first type named after the dot: "f32.convert_i64_u"
// gives i64.
func sourceType(name string) wasm.ValType {
	dot := strings.IndexByte(name, '.')
	for _, part := range strings.Split(name[dot+1:], "_") {
		if t := typeNamed(part); t != 0 {
			return t
		}
	}
	return 0
}

func typeNamed(s string) wasm.ValType {
	switch s {
	case "i32":
		return i32
	case "i64":
		return i64
	case "f32":
		return f32
	case "f64":
		return f64
	}
	return 0
}
