package brs

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/MotleyCoderDev/wasm2brs/brs/internal/ir"
	"github.com/MotleyCoderDev/wasm2brs/brs/internal/stack"
	"github.com/MotleyCoderDev/wasm2brs/brs/internal/symbols"
	"github.com/MotleyCoderDev/wasm2brs/errors"
	"github.com/MotleyCoderDev/wasm2brs/wasm"
)

// funcGen is the state of one function's generation. It is discarded once
// the function has been appended to the module output.
type funcGen struct {
	g    *generator
	idx  uint32
	name string
	sig  *wasm.FuncType

	// localTypes and localNames cover params followed by declared locals.
	localTypes []wasm.ValType
	localNames []string

	scope  *symbols.Scope
	types  stack.Types
	labels stack.Labels
	vars   map[slotKey]string

	// scratch holds the lazily created switch and multi-value variables.
	scratch map[string]string

	w          *writer
	nextLabel  int
	labelCount int
	instrs     int
}

type slotKey struct {
	pos int
	typ wasm.ValType
}

// writeFunc generates the i-th module-defined function.
func (g *generator) writeFunc(i int) {
	f := g.newFuncGen(i)
	f.generate(&g.module.Code[i])

	g.out.blank()
	g.out.append(f.w)
	f.finish()
}

func (g *generator) newFuncGen(i int) *funcGen {
	idx := uint32(g.module.NumImportedFuncs() + i)
	sig := g.module.TypeAt(g.module.Funcs[i])
	if sig == nil {
		panic(internal("functions", fmt.Sprintf("function %d has type %d out of range", idx, g.module.Funcs[i])))
	}

	f := &funcGen{
		g:       g,
		idx:     idx,
		name:    g.funcName(idx),
		sig:     sig,
		scope:   g.globals.Clone(),
		vars:    make(map[slotKey]string),
		scratch: make(map[string]string),
		w:       &writer{},
	}
	f.defineLocals(&g.module.Code[i])
	return f
}

// defineLocals names params and declared locals, preferring the name
// section's local names.
func (f *funcGen) defineLocals(body *wasm.FuncBody) {
	f.localTypes = append(f.localTypes, f.sig.Params...)
	for _, entry := range body.Locals {
		if !entry.ValType.IsNumeric() {
			panic(errors.Unsupported(errors.PhaseGenerate, fmt.Sprintf("function %s: %s local", f.name, entry.ValType)))
		}
		for n := uint32(0); n < entry.Count; n++ {
			f.localTypes = append(f.localTypes, entry.ValType)
		}
	}

	f.localNames = make([]string, len(f.localTypes))
	for i := range f.localTypes {
		name, ok := f.g.module.Names.LocalName(f.idx, uint32(i))
		if !ok {
			if i < len(f.sig.Params) {
				name = fmt.Sprintf("p%d", i)
			} else {
				name = fmt.Sprintf("l%d", i)
			}
		}
		f.localNames[i] = f.scope.Define(fmt.Sprintf("local:%d", i), "", "", name)
	}
}

func (f *funcGen) generate(body *wasm.FuncBody) {
	np := len(f.sig.Params)
	f.w.line("Function %s(%s) As %s", f.name, paramList(f.sig.Params, f.localNames[:np]), resultTypeName(f.sig.Results))
	f.w.in()
	f.writeZeroLocals(np)

	f.body(body)

	f.types.Reset(0)
	f.types.PushMany(f.sig.Results)
	switch len(f.sig.Results) {
	case 0:
	case 1:
		f.w.line("Return %s", f.top(0))
	default:
		values := make([]string, len(f.sig.Results))
		for i := range values {
			values[i] = f.slot(i, 0)
		}
		f.w.line("Return [%s]", joinArgs(values))
	}

	f.w.out()
	f.w.line("End Function")
}

// body lowers the instructions under the function label. The operand stack
// is left as the last reachable instruction left it.
func (f *funcGen) body(body *wasm.FuncBody) {
	instrs, err := wasm.DecodeInstructions(body.Code)
	if err != nil {
		panic(decodeFailure("func "+f.name, err))
	}
	tree := ir.Parse(instrs, f.g.module)
	ir.Walk(tree, func(n ir.Node) {
		if _, ok := n.(*ir.Instr); ok {
			f.instrs++
		}
	})

	fn := &stack.Label{
		Name:    f.scope.Unique("bfunc"),
		Results: f.sig.Results,
		Kind:    stack.KindFunc,
	}
	f.labels.Push(fn)
	f.seq(tree)
	f.labels.Pop()
	if fn.Used {
		f.writeLabel(fn)
	}
}

var zeroLiterals = []struct {
	typ  wasm.ValType
	zero string
}{
	{wasm.ValI32, "0"},
	{wasm.ValI64, "0&"},
	{wasm.ValF32, "0!"},
	{wasm.ValF64, "0#"},
}

// writeZeroLocals initializes declared locals, grouped by type.
func (f *funcGen) writeZeroLocals(first int) {
	for _, z := range zeroLiterals {
		wrote := false
		for i := first; i < len(f.localTypes); i++ {
			if f.localTypes[i] != z.typ {
				continue
			}
			f.w.line("%s = %s", f.localNames[i], z.zero)
			wrote = true
		}
		if wrote {
			f.w.blank()
		}
	}
}

// finish records the function's statistics and raises advisories.
func (f *funcGen) finish() {
	g := f.g
	stats := FunctionReport{
		Name:      f.name,
		Code:      f.w.String(),
		Index:     f.idx,
		Instrs:    f.instrs,
		Labels:    f.labelCount,
		Params:    len(f.sig.Params),
		Locals:    len(f.localTypes) - len(f.sig.Params),
		StackVars: len(f.vars),
		Scratch:   len(f.scratch),
	}
	g.report.Functions = append(g.report.Functions, stats)

	g.log.Debug("generated function",
		zap.String("function", f.name),
		zap.Uint32("index", f.idx),
		zap.Int("labels", stats.Labels),
		zap.Int("variables", stats.Variables()))

	if stats.Labels > g.opts.LabelLimit {
		g.advise(Advisory{Function: f.name, Kind: AdvisoryLabels, Count: stats.Labels, Limit: g.opts.LabelLimit})
	}
	if n := stats.Variables(); n > g.opts.VariableLimit {
		g.advise(Advisory{Function: f.name, Kind: AdvisoryVariables, Count: n, Limit: g.opts.VariableLimit})
	}
}

func (g *generator) advise(a Advisory) {
	g.report.Advisories = append(g.report.Advisories, a)
	g.log.Warn("function exceeds BrightScript limit",
		zap.String("function", a.Function),
		zap.String("kind", string(a.Kind)),
		zap.Int("count", a.Count),
		zap.Int("limit", a.Limit))
}

// slot returns the variable holding the operand at absolute stack position
// pos. A zero type means the type currently live at pos.
func (f *funcGen) slot(pos int, t wasm.ValType) string {
	if t == 0 {
		t = f.types.At(pos)
	}
	key := slotKey{pos: pos, typ: t}
	if name, ok := f.vars[key]; ok {
		return name
	}
	name := f.scope.Unique(fmt.Sprintf("%c%d", mangle(t), pos))
	f.vars[key] = name
	return name
}

func mangle(t wasm.ValType) byte {
	switch t {
	case wasm.ValI32:
		return 'i'
	case wasm.ValI64:
		return 'j'
	case wasm.ValF32:
		return 'f'
	case wasm.ValF64:
		return 'd'
	}
	panic(errors.Unsupported(errors.PhaseGenerate, "value type "+t.String()))
}

// top returns the variable of the operand index positions below the top.
func (f *funcGen) top(index int) string {
	return f.slot(f.types.Depth()-1-index, 0)
}

// scratchVar returns the per-function helper variable named after base.
func (f *funcGen) scratchVar(base string) string {
	if name, ok := f.scratch[base]; ok {
		return name
	}
	name := f.scope.Unique(base)
	f.scratch[base] = name
	return name
}

func (f *funcGen) newLabel(kind string) string {
	name := f.scope.Unique(fmt.Sprintf("%s%d", kind, f.nextLabel))
	f.nextLabel++
	return name
}

func (f *funcGen) writeLabel(l *stack.Label) {
	f.w.line("%s:", l.Name)
	f.labelCount++
}
