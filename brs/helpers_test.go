package brs

import (
	"bytes"
	"strings"
	"testing"

	"github.com/MotleyCoderDev/wasm2brs/wasm"
)

type testFunc struct {
	params  []wasm.ValType
	results []wasm.ValType
	locals  []wasm.LocalEntry
	code    []wasm.Instruction // without the closing end
}

var (
	i32 = wasm.ValI32
	i64 = wasm.ValI64
	f32 = wasm.ValF32
	f64 = wasm.ValF64
)

func types(ts ...wasm.ValType) []wasm.ValType { return ts }

func testModule(funcs ...testFunc) *wasm.Module {
	m := &wasm.Module{}
	for _, fn := range funcs {
		m.Funcs = append(m.Funcs, m.AddType(wasm.FuncType{Params: fn.params, Results: fn.results}))
		code := append(append([]wasm.Instruction{}, fn.code...), op(wasm.OpEnd))
		m.Code = append(m.Code, wasm.FuncBody{Locals: fn.locals, Code: wasm.EncodeInstructions(code)})
	}
	return m
}

func constExpr(instr wasm.Instruction) []byte {
	return wasm.EncodeInstructions([]wasm.Instruction{instr, op(wasm.OpEnd)})
}

func op(code byte) wasm.Instruction { return wasm.Instruction{Opcode: code} }

func block(bt int32) wasm.Instruction {
	return wasm.Instruction{Opcode: wasm.OpBlock, Imm: wasm.BlockImm{Type: bt}}
}

func loop(bt int32) wasm.Instruction {
	return wasm.Instruction{Opcode: wasm.OpLoop, Imm: wasm.BlockImm{Type: bt}}
}

func ifOp(bt int32) wasm.Instruction {
	return wasm.Instruction{Opcode: wasm.OpIf, Imm: wasm.BlockImm{Type: bt}}
}

func br(depth uint32) wasm.Instruction {
	return wasm.Instruction{Opcode: wasm.OpBr, Imm: wasm.BranchImm{LabelIdx: depth}}
}

func brIf(depth uint32) wasm.Instruction {
	return wasm.Instruction{Opcode: wasm.OpBrIf, Imm: wasm.BranchImm{LabelIdx: depth}}
}

func brTable(def uint32, labels ...uint32) wasm.Instruction {
	return wasm.Instruction{Opcode: wasm.OpBrTable, Imm: wasm.BrTableImm{Labels: labels, Default: def}}
}

func call(idx uint32) wasm.Instruction {
	return wasm.Instruction{Opcode: wasm.OpCall, Imm: wasm.CallImm{FuncIdx: idx}}
}

func localGet(idx uint32) wasm.Instruction {
	return wasm.Instruction{Opcode: wasm.OpLocalGet, Imm: wasm.LocalImm{LocalIdx: idx}}
}

func localSet(idx uint32) wasm.Instruction {
	return wasm.Instruction{Opcode: wasm.OpLocalSet, Imm: wasm.LocalImm{LocalIdx: idx}}
}

func i32Const(v int32) wasm.Instruction {
	return wasm.Instruction{Opcode: wasm.OpI32Const, Imm: wasm.I32Imm{Value: v}}
}

func i64Const(v int64) wasm.Instruction {
	return wasm.Instruction{Opcode: wasm.OpI64Const, Imm: wasm.I64Imm{Value: v}}
}

func generate(t *testing.T, m *wasm.Module, opts Options) (string, *Report) {
	t.Helper()
	var out bytes.Buffer
	report, err := Generate(&out, m, opts)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	return out.String(), report
}

// funcCode returns the generated text of the function named name.
func funcCode(t *testing.T, r *Report, name string) string {
	t.Helper()
	for _, f := range r.Functions {
		if f.Name == name {
			return f.Code
		}
	}
	t.Fatalf("no function %q in report", name)
	return ""
}

// trimmed splits text into lines without indentation.
func trimmed(text string) []string {
	var out []string
	for _, l := range strings.Split(text, "\n") {
		out = append(out, strings.TrimSpace(l))
	}
	return out
}

func hasLine(text, want string) bool {
	for _, l := range trimmed(text) {
		if l == want {
			return true
		}
	}
	return false
}

func countLines(text, prefix string) int {
	n := 0
	for _, l := range trimmed(text) {
		if strings.HasPrefix(l, prefix) {
			n++
		}
	}
	return n
}
