package brs

import (
	"encoding/hex"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/MotleyCoderDev/wasm2brs/brs/internal/literal"
	"github.com/MotleyCoderDev/wasm2brs/brs/internal/optable"
	"github.com/MotleyCoderDev/wasm2brs/brs/internal/symbols"
	"github.com/MotleyCoderDev/wasm2brs/errors"
	"github.com/MotleyCoderDev/wasm2brs/wasm"
)

func (g *generator) writeModule() {
	g.out.line("' Generated by wasm2brs. DO NOT EDIT.")
	if g.module.Names != nil && g.module.Names.Module != "" {
		g.out.line("' module: %s", g.module.Names.Module)
	}

	g.writeImports()
	g.defineFuncs()
	g.writeGlobals()
	g.writeMemory()
	g.writeTable()
	g.writeExports()
	g.writeFuncs()
	g.writeInit()
}

// writeImports binds every import to a name and documents the binding.
// Imported functions are called by their field name, qualified with the
// module name unless it is "env".
func (g *generator) writeImports() {
	if len(g.module.Imports) == 0 {
		return
	}
	g.out.blank()

	var funcs, globals uint32
	for _, imp := range g.module.Imports {
		q := symbols.Qualifier(imp.Module)
		g.out.line("' import: '%s' '%s'", imp.Module, imp.Name)

		switch imp.Desc.Kind {
		case wasm.KindFunc:
			ft := g.module.TypeAt(imp.Desc.TypeIdx)
			if ft == nil {
				panic(internal("imports", fmt.Sprintf("function import %s.%s has no type", imp.Module, imp.Name)))
			}
			name := g.globals.Define(funcKey(funcs), "", q, imp.Name)
			g.out.line("' Function %s(%s) As %s", name, paramList(ft.Params, nil), resultTypeName(ft.Results))
			funcs++

		case wasm.KindGlobal:
			name := g.globals.Define(globalKey(globals), "m.", q, imp.Name)
			g.out.line("' %s %s", typeName(imp.Desc.Global.ValType), name)
			globals++

		case wasm.KindMemory:
			g.out.line("' Object %s", g.globals.Define(memoryKey, "m.", q, imp.Name))

		case wasm.KindTable:
			g.out.line("' Object %s", g.globals.Define(tableKey, "m.", q, imp.Name))

		default:
			panic(errors.Unsupported(errors.PhaseGenerate, fmt.Sprintf("import kind %d", imp.Desc.Kind)))
		}
	}
}

// defineFuncs reserves names for every module-defined function before any
// code refers to them.
func (g *generator) defineFuncs() {
	base := uint32(g.module.NumImportedFuncs())
	for i := range g.module.Funcs {
		idx := base + uint32(i)
		g.globals.Define(funcKey(idx), "", g.qualifier, g.sourceFuncName(idx))
	}
}

func (g *generator) writeGlobals() {
	base := uint32(g.module.NumImportedGlobals())
	for i := range g.module.Globals {
		idx := base + uint32(i)
		g.globals.Define(globalKey(idx), "m.", g.qualifier, fmt.Sprintf("g%d", idx))
	}

	g.out.blank()
	g.out.line("Function %s() As Void", g.procs.globals)
	g.out.in()
	for i, global := range g.module.Globals {
		idx := base + uint32(i)
		g.out.line("%s = %s", g.globalName(idx), g.initExpr(global.Init, fmt.Sprintf("global %d", idx)))
	}
	g.out.out()
	g.out.line("End Function")
}

// writeMemory emits the memory allocation and the data segment copies.
func (g *generator) writeMemory() {
	mem, hasMemory := g.module.Memory()
	definesMemory := len(g.module.Memories) > 0

	g.out.blank()
	g.out.line("Function %s() As Void", g.procs.memory)
	g.out.in()

	if hasMemory {
		var name string
		if definesMemory {
			name = g.globals.Define(memoryKey, "m.", g.qualifier, "mem")
			g.out.line(`%s = CreateObject("roByteArray")`, name)
			g.out.line("%s[%d] = 0", name, mem.Limits.Min*wasm.PageSize)
		} else {
			name = g.memoryName()
		}
		max := uint64(wasm.PageSize)
		if mem.Limits.Max != nil {
			max = *mem.Limits.Max
		}
		g.out.line("%sMax = %d", name, max)
	}

	scope := g.globals.Clone()
	for i, seg := range g.module.Data {
		if !seg.IsActive() {
			g.log.Debug("skipping passive data segment", zap.Int("segment", i))
			continue
		}
		if seg.MemIdx != 0 {
			panic(errors.Unsupported(errors.PhaseGenerate, fmt.Sprintf("data segment %d targets memory %d", i, seg.MemIdx)))
		}
		if !hasMemory {
			panic(internal("data", fmt.Sprintf("data segment %d without a memory", i)))
		}
		name := scope.Unique(fmt.Sprintf("data_segment_%d", i))
		g.out.line(`%s = CreateObject("roByteArray")`, name)
		g.out.line(`%s.FromHexString("%s")`, name, hex.EncodeToString(seg.Init))
		g.out.line("%s(%s, %s, %s, 0, %d)", optable.MemoryCopy, g.memoryName(),
			g.initExpr(seg.Offset, fmt.Sprintf("data segment %d", i)), name, len(seg.Init))
	}

	g.out.out()
	g.out.line("End Function")
}

// writeTable emits the table allocation and the element segment stores.
func (g *generator) writeTable() {
	g.out.blank()
	g.out.line("Function %s() As Void", g.procs.table)
	g.out.in()

	if len(g.module.Tables) > 0 {
		name := g.globals.Define(tableKey, "m.", g.qualifier, "table")
		g.out.line("%s = []", name)
	}

	scope := g.globals.Clone()
	var offset string
	for i, elem := range g.module.Elements {
		if !elem.IsActive() {
			g.log.Debug("skipping passive element segment", zap.Int("segment", i))
			continue
		}
		if elem.TableIdx != 0 {
			panic(errors.Unsupported(errors.PhaseGenerate, fmt.Sprintf("element segment %d targets table %d", i, elem.TableIdx)))
		}
		if offset == "" {
			offset = scope.Unique("offset")
		}
		table := g.tableName()
		g.out.line("%s = %s", offset, g.initExpr(elem.Offset, fmt.Sprintf("element segment %d", i)))
		for j, fn := range elem.FuncIdxs {
			value := "invalid"
			if fn != wasm.ElemNull {
				value = g.funcName(fn)
			}
			g.out.line("%s[%s + %d] = %s", table, offset, j, value)
		}
	}

	g.out.out()
	g.out.line("End Function")
}

// writeExports copies non-function exports to their exported names and
// writes a forwarding function for each function export whose name differs
// from the function's own.
func (g *generator) writeExports() {
	g.out.blank()
	g.out.line("Function %s() As Void", g.procs.exports)
	g.out.in()
	for _, exp := range g.module.Exports {
		var internalName string
		switch exp.Kind {
		case wasm.KindFunc:
			continue
		case wasm.KindGlobal:
			internalName = g.globalName(exp.Idx)
		case wasm.KindMemory:
			internalName = g.memoryName()
		case wasm.KindTable:
			internalName = g.tableName()
		default:
			panic(errors.Unsupported(errors.PhaseGenerate, fmt.Sprintf("export kind %d", exp.Kind)))
		}
		legal := symbols.Name("m.", g.qualifier, exp.Name)
		if legal == internalName {
			continue
		}
		g.out.line("' export: '%s'", exp.Name)
		g.out.line("%s = %s", g.globals.Unique(legal), internalName)
	}
	g.out.out()
	g.out.line("End Function")

	for _, exp := range g.module.Exports {
		if exp.Kind != wasm.KindFunc {
			continue
		}
		target := g.funcName(exp.Idx)
		legal := symbols.Name("", g.qualifier, exp.Name)
		if legal == target {
			continue
		}
		ft := g.module.GetFuncType(exp.Idx)
		if ft == nil {
			panic(internal("exports", fmt.Sprintf("export %q of unknown function %d", exp.Name, exp.Idx)))
		}

		name := g.globals.Unique(legal)
		scope := g.globals.Clone()
		params := make([]string, len(ft.Params))
		for i := range params {
			params[i] = scope.Unique(fmt.Sprintf("p%d", i))
		}

		g.out.blank()
		g.out.line("' export: '%s'", exp.Name)
		g.out.line("Function %s(%s) As %s", name, paramList(ft.Params, params), resultTypeName(ft.Results))
		g.out.in()
		call := fmt.Sprintf("%s(%s)", target, strings.Join(params, ", "))
		if len(ft.Results) > 0 {
			g.out.line("Return %s", call)
		} else {
			g.out.line("%s", call)
		}
		g.out.out()
		g.out.line("End Function")
	}
}

func (g *generator) writeFuncs() {
	for i := range g.module.Funcs {
		g.writeFunc(i)
	}
}

func (g *generator) writeInit() {
	g.out.blank()
	g.out.line("Function %s() As Void", g.procs.init)
	g.out.in()
	g.out.line("%s()", g.procs.globals)
	g.out.line("%s()", g.procs.memory)
	g.out.line("%s()", g.procs.table)
	g.out.line("%s()", g.procs.exports)
	if g.module.Start != nil {
		g.out.line("%s()", g.funcName(*g.module.Start))
	}
	g.out.out()
	g.out.line("End Function")
}

// initExpr renders a constant initializer: a numeric constant or the value
// of an imported global.
func (g *generator) initExpr(raw []byte, what string) string {
	instr, err := wasm.DecodeConstExpr(raw)
	if err != nil {
		panic(errors.New(errors.PhaseGenerate, errors.KindUnsupported).
			Path(what).
			Detail("initializer is not a single constant").
			Cause(err).
			Build())
	}
	if instr.Opcode == wasm.OpGlobalGet {
		return g.globalName(instr.Imm.(wasm.GlobalImm).GlobalIdx)
	}
	_, lit, err := literal.Instruction(instr)
	if err != nil {
		panic(errors.UnsupportedOpcode([]string{what}, instr.Name()))
	}
	return lit
}

// paramList renders "name As Type" pairs. Without names, parameters are
// called p0, p1, ...
func paramList(types []wasm.ValType, names []string) string {
	parts := make([]string, len(types))
	for i, t := range types {
		name := fmt.Sprintf("p%d", i)
		if names != nil {
			name = names[i]
		}
		parts[i] = name + " As " + typeName(t)
	}
	return strings.Join(parts, ", ")
}
