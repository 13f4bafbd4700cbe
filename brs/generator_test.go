package brs

import (
	"bytes"
	stderrors "errors"
	"fmt"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/MotleyCoderDev/wasm2brs/brs/internal/symbols"
	"github.com/MotleyCoderDev/wasm2brs/errors"
	"github.com/MotleyCoderDev/wasm2brs/wasm"
)

// fullModule imports a function and a global, and defines a memory with a
// data segment, a table with an element segment, a global, exports and a
// start function.
func fullModule() *wasm.Module {
	// Function 0 is the log import, so call(0) calls it and the defined
	// functions are 1 and 2.
	m := testModule(
		testFunc{
			params: types(i32), results: types(i32),
			code: []wasm.Instruction{
				localGet(0),
				call(0),
				localGet(0),
				wasm.Instruction{Opcode: wasm.OpI32Load, Imm: wasm.MemoryImm{Offset: 8}},
			},
		},
		testFunc{},
	)
	logType := m.AddType(wasm.FuncType{Params: types(i32)})
	m.Imports = []wasm.Import{
		{Module: "env", Name: "log", Desc: wasm.ImportDesc{Kind: wasm.KindFunc, TypeIdx: logType}},
		{Module: "js", Name: "g", Desc: wasm.ImportDesc{Kind: wasm.KindGlobal, Global: &wasm.GlobalType{ValType: i32}}},
	}

	max := uint64(2)
	m.Memories = []wasm.MemoryType{{Limits: wasm.Limits{Min: 1, Max: &max}}}
	m.Tables = []wasm.TableType{{Limits: wasm.Limits{Min: 2}, ElemType: byte(wasm.ValFuncRef)}}
	m.Globals = []wasm.Global{{
		Type: wasm.GlobalType{ValType: i32, Mutable: true},
		Init: constExpr(i32Const(5)),
	}}
	m.Data = []wasm.DataSegment{
		{Offset: constExpr(i32Const(8)), Init: []byte("hi")},
		{Flags: 1, Init: []byte("passive")},
	}
	m.Elements = []wasm.Element{{
		Offset:   constExpr(i32Const(0)),
		FuncIdxs: []uint32{1, wasm.ElemNull},
	}}
	m.Exports = []wasm.Export{
		{Name: "memory", Kind: wasm.KindMemory, Idx: 0},
		{Name: "Add-One", Kind: wasm.KindFunc, Idx: 1},
		{Name: "f2", Kind: wasm.KindFunc, Idx: 2},
		{Name: "counter", Kind: wasm.KindGlobal, Idx: 1},
	}
	start := uint32(2)
	m.Start = &start
	return m
}

func TestGenerateModule(t *testing.T) {
	out, report := generate(t, fullModule(), Options{})

	addOne := "add_one_" + fmt.Sprint(symbols.Checksum("Add-One"))
	want := []string{
		"' Generated by wasm2brs. DO NOT EDIT.",
		"' import: 'env' 'log'",
		"' Function log_0(p0 As Integer) As Void",
		"' import: 'js' 'g'",
		"' Integer m.js_g",
		"Function InitGlobals() As Void",
		"m.g1 = 5%",
		"Function InitMemory() As Void",
		`m.mem = CreateObject("roByteArray")`,
		"m.mem[65536] = 0",
		"m.memMax = 2",
		`data_segment_0 = CreateObject("roByteArray")`,
		`data_segment_0.FromHexString("6869")`,
		"MemoryCopy(m.mem, 8%, data_segment_0, 0, 2)",
		"Function InitTable() As Void",
		"m.table = []",
		"offset = 0%",
		"m.table[offset + 0] = f1",
		"m.table[offset + 1] = invalid",
		"Function InitExports() As Void",
		"m.memory = m.mem",
		"m.counter = m.g1",
		"Function " + addOne + "(p0 As Integer) As Integer",
		"Return f1(p0)",
		"Function f1(p0 As Integer) As Integer",
		"log_0(i0)",
		"i0 = I32Load(m.mem, i0 + 8)",
		"Function f2() As Void",
		"Function Init() As Void",
		"InitGlobals()",
		"InitMemory()",
		"InitTable()",
		"InitExports()",
		"f2()",
	}
	for _, w := range want {
		if !hasLine(out, w) {
			t.Errorf("missing line %q", w)
		}
	}
	if strings.Contains(out, "data_segment_1") {
		t.Error("passive data segment should be skipped")
	}
	if strings.Contains(out, "Function f2_") {
		t.Error("export named like its function needs no wrapper")
	}

	// Sections appear in dependency order.
	order := []string{
		"Function InitGlobals()", "Function InitMemory()", "Function InitTable()",
		"Function InitExports()", "Function " + addOne, "Function f1(", "Function Init()",
	}
	last := -1
	for _, o := range order {
		i := strings.Index(out, o)
		if i < last {
			t.Errorf("%q out of order", o)
		}
		last = i
	}

	if len(report.Functions) != 2 || report.Functions[0].Name != "f1" || report.Functions[1].Index != 2 {
		t.Errorf("functions = %+v", report.Functions)
	}
	if len(report.Advisories) != 0 {
		t.Errorf("advisories = %v", report.Advisories)
	}
}

func TestGenerateDeterministic(t *testing.T) {
	first, _ := generate(t, fullModule(), Options{})
	for i := 0; i < 3; i++ {
		again, _ := generate(t, fullModule(), Options{})
		if again != first {
			t.Fatal("output differs between runs")
		}
	}
}

func TestNamePrefix(t *testing.T) {
	out, _ := generate(t, fullModule(), Options{NamePrefix: "Game"})

	for _, w := range []string{
		"Function game_InitGlobals() As Void",
		"m.game_g1 = 5%",
		`m.game_mem = CreateObject("roByteArray")`,
		"Function game_f1(p0 As Integer) As Integer",
		"game_f2()",
		// imports keep their own module qualifier
		"' Function log_0(p0 As Integer) As Void",
	} {
		if !hasLine(out, w) {
			t.Errorf("missing line %q", w)
		}
	}
}

func TestImportedMemoryMax(t *testing.T) {
	tests := []struct {
		name string
		max  *uint64
		want string
	}{
		{"declared maximum", func() *uint64 { v := uint64(4); return &v }(), "m.heapMax = 4"},
		{"default maximum", nil, "m.heapMax = 65536"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := testModule(testFunc{
				params: types(i32), results: types(i32),
				code: []wasm.Instruction{localGet(0), {Opcode: wasm.OpMemoryGrow, Imm: wasm.MemoryIdxImm{}}},
			})
			m.Imports = []wasm.Import{{
				Module: "env", Name: "heap",
				Desc: wasm.ImportDesc{Kind: wasm.KindMemory, Memory: &wasm.MemoryType{Limits: wasm.Limits{Min: 1, Max: tt.max}}},
			}}
			out, report := generate(t, m, Options{})

			for _, w := range []string{"' Object m.heap", tt.want} {
				if !hasLine(out, w) {
					t.Errorf("missing line %q in:\n%s", w, out)
				}
			}
			if hasLine(out, `m.heap = CreateObject("roByteArray")`) {
				t.Error("imported memory must not be allocated")
			}
			if code := funcCode(t, report, "f0"); !hasLine(code, "i0 = MemoryGrow(m.heap, m.heapMax, i0)") {
				t.Errorf("memory.grow:\n%s", code)
			}
		})
	}
}

func TestGlobalNamesUnique(t *testing.T) {
	m := testModule(testFunc{}, testFunc{}, testFunc{}, testFunc{}, testFunc{})
	m.Names = &wasm.NameSection{Funcs: map[uint32]string{
		0: "print",
		1: "a",
		2: "A",
		3: "Foo.bar",
		4: "foo_bar",
	}}
	_, report := generate(t, m, Options{})

	want := []string{
		"print_0",
		"a",
		"a_" + fmt.Sprint(symbols.Checksum("A")),
		"foo_bar_" + fmt.Sprint(symbols.Checksum("Foo.bar")),
		"foo_bar",
	}
	seen := make(map[string]bool)
	for i, f := range report.Functions {
		if f.Name != want[i] {
			t.Errorf("function %d = %q, want %q", i, f.Name, want[i])
		}
		key := strings.ToLower(f.Name)
		if seen[key] {
			t.Errorf("duplicate name %q", f.Name)
		}
		seen[key] = true
	}
}

func TestAdvisories(t *testing.T) {
	var manyLabels []wasm.Instruction
	for i := 0; i < 130; i++ {
		manyLabels = append(manyLabels, block(wasm.BlockTypeVoid), br(0), op(wasm.OpEnd))
	}
	m := testModule(
		testFunc{code: manyLabels},
		testFunc{locals: []wasm.LocalEntry{{Count: 255, ValType: i32}}},
		testFunc{},
	)

	core, logs := observer.New(zapcore.WarnLevel)
	_, report := generate(t, m, Options{Logger: zap.New(core)})

	want := []Advisory{
		{Function: "f0", Kind: AdvisoryLabels, Count: 130, Limit: DefaultLabelLimit},
		{Function: "f1", Kind: AdvisoryVariables, Count: 255, Limit: DefaultVariableLimit},
	}
	if len(report.Advisories) != len(want) {
		t.Fatalf("advisories = %v", report.Advisories)
	}
	for i := range want {
		if report.Advisories[i] != want[i] {
			t.Errorf("advisory %d = %+v, want %+v", i, report.Advisories[i], want[i])
		}
	}
	if got := report.AdvisoriesFor("f2"); len(got) != 0 {
		t.Errorf("f2 advisories = %v", got)
	}

	entries := logs.All()
	if len(entries) != 2 {
		t.Fatalf("%d warnings logged, want 2", len(entries))
	}
	if fields := entries[0].ContextMap(); fields["function"] != "f0" || fields["kind"] != "labels" || fields["count"] != int64(130) {
		t.Errorf("label warning fields = %v", fields)
	}
}

func TestAdvisoryLimitsConfigurable(t *testing.T) {
	m := testModule(testFunc{locals: []wasm.LocalEntry{{Count: 10, ValType: f32}}})
	_, report := generate(t, m, Options{VariableLimit: 5})
	if len(report.Advisories) != 1 || report.Advisories[0].Count != 10 {
		t.Errorf("advisories = %v", report.Advisories)
	}
}

func TestGenerateErrors(t *testing.T) {
	unsupported := &errors.Error{Phase: errors.PhaseGenerate, Kind: errors.KindUnsupported}

	tests := []struct {
		name   string
		module func() *wasm.Module
		want   *errors.Error
		opcode string
	}{
		{
			name: "try opcode",
			module: func() *wasm.Module {
				m := testModule(testFunc{})
				m.Code[0].Code = []byte{0x06, 0x40, wasm.OpEnd, wasm.OpEnd}
				return m
			},
			want:   unsupported,
			opcode: "try",
		},
		{
			name: "block parameters",
			module: func() *wasm.Module {
				m := testModule(testFunc{})
				bt := m.AddType(wasm.FuncType{Params: types(i32), Results: types(i32)})
				m.Code[0].Code = wasm.EncodeInstructions([]wasm.Instruction{
					i32Const(1), block(int32(bt)), op(wasm.OpEnd), op(wasm.OpDrop), op(wasm.OpEnd),
				})
				return m
			},
			want: unsupported,
		},
		{
			name: "unresolved block type",
			module: func() *wasm.Module {
				m := testModule(testFunc{})
				m.Code[0].Code = wasm.EncodeInstructions([]wasm.Instruction{
					block(9), op(wasm.OpEnd), op(wasm.OpEnd),
				})
				return m
			},
			want: &errors.Error{Phase: errors.PhaseGenerate, Kind: errors.KindInternal},
		},
		{
			name: "two memories",
			module: func() *wasm.Module {
				m := testModule()
				m.Memories = make([]wasm.MemoryType, 2)
				return m
			},
			want: unsupported,
		},
		{
			name: "non-constant initializer",
			module: func() *wasm.Module {
				m := testModule()
				m.Globals = []wasm.Global{{
					Type: wasm.GlobalType{ValType: i32},
					Init: wasm.EncodeInstructions([]wasm.Instruction{i32Const(1), i32Const(2), op(wasm.OpI32Add), op(wasm.OpEnd)}),
				}}
				return m
			},
			want: unsupported,
		},
		{
			name: "missing body",
			module: func() *wasm.Module {
				m := testModule(testFunc{})
				m.Code = nil
				return m
			},
			want: &errors.Error{Phase: errors.PhaseGenerate, Kind: errors.KindInvalidData},
		},
		{
			name: "stack underflow",
			module: func() *wasm.Module {
				m := testModule(testFunc{code: []wasm.Instruction{op(wasm.OpDrop)}})
				return m
			},
			want: &errors.Error{Phase: errors.PhaseGenerate, Kind: errors.KindInternal},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			report, err := Generate(&out, tt.module(), Options{})
			if err == nil {
				t.Fatal("expected an error")
			}
			if !stderrors.Is(err, tt.want) {
				t.Errorf("err = %v, want %s/%s", err, tt.want.Phase, tt.want.Kind)
			}
			if tt.opcode != "" {
				var e *errors.Error
				if !stderrors.As(err, &e) {
					t.Fatalf("err is %T", err)
				}
				if e.Opcode != tt.opcode {
					t.Errorf("opcode = %q, want %q", e.Opcode, tt.opcode)
				}
			}
			if report != nil {
				t.Error("report should be nil on error")
			}
			if out.Len() != 0 {
				t.Errorf("wrote %d bytes on error", out.Len())
			}
		})
	}
}

func TestGenerateNilModule(t *testing.T) {
	_, err := Generate(&bytes.Buffer{}, nil, Options{})
	if !stderrors.Is(err, &errors.Error{Phase: errors.PhaseGenerate, Kind: errors.KindInvalidInput}) {
		t.Errorf("err = %v", err)
	}
}
