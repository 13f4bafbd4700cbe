package brs

import (
	stderrors "errors"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/MotleyCoderDev/wasm2brs/brs/internal/optable"
	"github.com/MotleyCoderDev/wasm2brs/brs/internal/symbols"
	"github.com/MotleyCoderDev/wasm2brs/errors"
	"github.com/MotleyCoderDev/wasm2brs/wasm"
)

// Generate writes the BrightScript translation of m to w.
//
// The module must be valid. Unsupported instructions and internal
// consistency failures abort generation with an *errors.Error and nothing
// is written to w. Functions exceeding BrightScript limits are generated
// and listed in the report's advisories.
func Generate(w io.Writer, m *wasm.Module, opts Options) (report *Report, err error) {
	if m == nil {
		return nil, errors.InvalidInput(errors.PhaseGenerate, "nil module")
	}
	opts = opts.withDefaults()

	defer func() {
		if r := recover(); r != nil {
			e, ok := r.(*errors.Error)
			if !ok {
				panic(r)
			}
			report, err = nil, e
		}
	}()

	g := newGenerator(m, opts)
	g.checkModule()
	g.writeModule()

	if _, err := w.Write(g.out.Bytes()); err != nil {
		return nil, errors.Wrap(errors.PhaseGenerate, errors.KindInvalidInput, err, "write output")
	}
	return g.report, nil
}

// generator holds module-wide state. Per-function state lives in funcGen.
type generator struct {
	module  *wasm.Module
	log     *zap.Logger
	globals *symbols.Scope
	report  *Report
	out     *writer
	procs   initProcs
	opts    Options

	// qualifier is prepended to module-owned global names.
	qualifier string
}

// initProcs are the names of the generated init procedures.
type initProcs struct {
	globals, memory, table, exports, init string
}

func newGenerator(m *wasm.Module, opts Options) *generator {
	qualifier := symbols.Qualifier(opts.NamePrefix)
	procs := initProcs{
		globals: qualifier + "InitGlobals",
		memory:  qualifier + "InitMemory",
		table:   qualifier + "InitTable",
		exports: qualifier + "InitExports",
		init:    qualifier + "Init",
	}

	globals := symbols.NewScope(symbols.Reserved...)
	globals.Reserve(optable.Helpers()...)
	globals.Reserve(procs.globals, procs.memory, procs.table, procs.exports, procs.init)

	return &generator{
		module:    m,
		opts:      opts,
		log:       opts.Logger,
		globals:   globals,
		report:    &Report{},
		out:       &writer{},
		procs:     procs,
		qualifier: qualifier,
	}
}

// checkModule rejects modules outside the single memory, single table model.
func (g *generator) checkModule() {
	if n := g.module.NumMemories(); n > 1 {
		panic(errors.Unsupported(errors.PhaseGenerate, fmt.Sprintf("%d memories (multi-memory)", n)))
	}
	if n := g.module.NumTables(); n > 1 {
		panic(errors.Unsupported(errors.PhaseGenerate, fmt.Sprintf("%d tables (multi-table)", n)))
	}
	if len(g.module.Funcs) != len(g.module.Code) {
		panic(errors.InvalidData(errors.PhaseGenerate, []string{"module"},
			fmt.Sprintf("%d function declarations but %d bodies", len(g.module.Funcs), len(g.module.Code))))
	}
}

// Symbol keys of global-scope entities.
func funcKey(idx uint32) string   { return fmt.Sprintf("func:%d", idx) }
func globalKey(idx uint32) string { return fmt.Sprintf("global:%d", idx) }

const (
	memoryKey = "memory"
	tableKey  = "table"
)

func (g *generator) lookup(key string) string {
	name, ok := g.globals.Lookup(key)
	if !ok {
		panic(internal("symbols", "no global symbol for "+key))
	}
	return name
}

func (g *generator) funcName(idx uint32) string   { return g.lookup(funcKey(idx)) }
func (g *generator) globalName(idx uint32) string { return g.lookup(globalKey(idx)) }
func (g *generator) memoryName() string           { return g.lookup(memoryKey) }
func (g *generator) tableName() string            { return g.lookup(tableKey) }

// sourceFuncName is the name a function is legalized from.
func (g *generator) sourceFuncName(idx uint32) string {
	if name, ok := g.module.Names.FuncName(idx); ok {
		return name
	}
	return fmt.Sprintf("f%d", idx)
}

func internal(path, detail string) *errors.Error {
	return errors.Internal([]string{path}, detail)
}

// decodeFailure converts an instruction decoding error, naming the opcode
// when it is one the decoder does not support.
func decodeFailure(path string, err error) *errors.Error {
	var unsupported *wasm.UnsupportedOpcodeError
	if stderrors.As(err, &unsupported) {
		return errors.New(errors.PhaseGenerate, errors.KindUnsupported).
			Path(path).
			Opcode(unsupported.Name).
			Cause(err).
			Build()
	}
	return errors.New(errors.PhaseGenerate, errors.KindInvalidData).
		Path(path).
		Detail("decode instructions").
		Cause(err).
		Build()
}

// typeName is the BrightScript type of a value type.
func typeName(t wasm.ValType) string {
	switch t {
	case wasm.ValI32:
		return "Integer"
	case wasm.ValI64:
		return "LongInteger"
	case wasm.ValF32:
		return "Float"
	case wasm.ValF64:
		return "Double"
	}
	panic(errors.Unsupported(errors.PhaseGenerate, "value type "+t.String()))
}

// resultTypeName is the declared return type for a result list.
func resultTypeName(results []wasm.ValType) string {
	switch len(results) {
	case 0:
		return "Void"
	case 1:
		return typeName(results[0])
	default:
		return "Object"
	}
}
