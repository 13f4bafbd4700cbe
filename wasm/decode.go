package wasm

import (
	"errors"
	"fmt"
	"io"

	"github.com/MotleyCoderDev/wasm2brs/wasm/internal/binary"
)

// Parsing errors returned by ParseModule.
var (
	ErrInvalidMagic   = errors.New("invalid wasm magic number")
	ErrInvalidVersion = errors.New("invalid wasm version")
)

// ElemNull marks a null entry in an expression-form element segment.
const ElemNull = ^uint32(0)

// maxLocals bounds the declared locals of one function.
const maxLocals = 50000

// ParseModule parses a WebAssembly binary module
func ParseModule(data []byte) (*Module, error) {
	r := binary.NewReader(data, 0)

	magic, err := r.ReadU32LE()
	if err != nil {
		return nil, r.WrapError("header", err)
	}
	if magic != Magic {
		return nil, ErrInvalidMagic
	}
	version, err := r.ReadU32LE()
	if err != nil {
		return nil, r.WrapError("header", err)
	}
	if version != Version {
		return nil, ErrInvalidVersion
	}

	m := &Module{}
	var lastSectionOrder int

	for r.Len() > 0 {
		sectionID, _ := r.ReadByte()

		if sectionID != SectionCustom {
			order := sectionOrder(sectionID)
			if order <= lastSectionOrder {
				return nil, fmt.Errorf("section %d appears out of order", sectionID)
			}
			lastSectionOrder = order
		}

		sectionSize, err := r.ReadU32()
		if err != nil {
			return nil, r.WrapError("section size", err)
		}
		sr, err := r.Sub(int(sectionSize))
		if err != nil {
			return nil, r.WrapError("section data", err)
		}

		if err := parseSection(sectionID, sr, m); err != nil {
			return nil, err
		}
		if sr.Len() != 0 {
			return nil, sr.WrapError(sectionName(sectionID), errors.New("section size mismatch"))
		}
	}

	if len(m.Funcs) != len(m.Code) {
		return nil, fmt.Errorf("function and code section counts differ: %d != %d", len(m.Funcs), len(m.Code))
	}

	for _, cs := range m.CustomSections {
		if cs.Name == "name" {
			// A malformed name section only loses debug names.
			if names, err := ParseNameSection(cs.Data); err == nil {
				m.Names = names
			}
		}
	}

	return m, nil
}

func parseSection(id byte, r *binary.Reader, m *Module) error {
	var err error
	switch id {
	case SectionCustom:
		err = parseCustomSection(r, m)
	case SectionType:
		err = parseTypeSection(r, m)
	case SectionImport:
		err = parseImportSection(r, m)
	case SectionFunction:
		err = parseFunctionSection(r, m)
	case SectionTable:
		err = parseTableSection(r, m)
	case SectionMemory:
		err = parseMemorySection(r, m)
	case SectionGlobal:
		err = parseGlobalSection(r, m)
	case SectionExport:
		err = parseExportSection(r, m)
	case SectionStart:
		err = parseStartSection(r, m)
	case SectionElement:
		err = parseElementSection(r, m)
	case SectionCode:
		err = parseCodeSection(r, m)
	case SectionData:
		err = parseDataSection(r, m)
	case SectionDataCount:
		var n uint32
		n, err = r.ReadU32()
		m.DataCount = &n
	case SectionTag:
		return errors.New("tag section: exception handling is not supported")
	default:
		return fmt.Errorf("unknown section ID: 0x%02x", id)
	}
	if err != nil {
		if errors.Is(err, io.EOF) {
			err = io.ErrUnexpectedEOF
		}
		return r.WrapError(sectionName(id)+" section", err)
	}
	return nil
}

// sectionOrder returns the canonical ordering for a section ID.
func sectionOrder(id byte) int {
	switch id {
	case SectionType:
		return 1
	case SectionImport:
		return 2
	case SectionFunction:
		return 3
	case SectionTable:
		return 4
	case SectionMemory:
		return 5
	case SectionTag:
		return 6
	case SectionGlobal:
		return 7
	case SectionExport:
		return 8
	case SectionStart:
		return 9
	case SectionElement:
		return 10
	case SectionDataCount:
		return 11
	case SectionCode:
		return 12
	case SectionData:
		return 13
	default:
		return 100
	}
}

func sectionName(id byte) string {
	names := [...]string{"custom", "type", "import", "function", "table", "memory", "global",
		"export", "start", "element", "code", "data", "data count", "tag"}
	if int(id) < len(names) {
		return names[id]
	}
	return fmt.Sprintf("section 0x%02x", id)
}

func parseCustomSection(r *binary.Reader, m *Module) error {
	name, err := r.ReadName()
	if err != nil {
		return err
	}
	m.CustomSections = append(m.CustomSections, CustomSection{
		Name: name,
		Data: r.ReadRemaining(),
	})
	return nil
}

// readCount reads a vector length and rejects counts that cannot fit in the
// remaining bytes, given at least minSize bytes per element.
func readCount(r *binary.Reader, minSize int) (uint32, error) {
	n, err := r.ReadU32()
	if err != nil {
		return 0, err
	}
	if uint64(n)*uint64(minSize) > uint64(r.Len()) {
		return 0, fmt.Errorf("vector length %d exceeds section", n)
	}
	return n, nil
}

func parseTypeSection(r *binary.Reader, m *Module) error {
	count, err := readCount(r, 3)
	if err != nil {
		return err
	}
	m.Types = make([]FuncType, count)
	for i := range m.Types {
		form, err := r.ReadByte()
		if err != nil {
			return err
		}
		if form != FuncTypeByte {
			return fmt.Errorf("type %d: unsupported type form 0x%02x", i, form)
		}
		if m.Types[i].Params, err = readValTypes(r); err != nil {
			return err
		}
		if m.Types[i].Results, err = readValTypes(r); err != nil {
			return err
		}
	}
	return nil
}

func readValTypes(r *binary.Reader) ([]ValType, error) {
	count, err := readCount(r, 1)
	if err != nil {
		return nil, err
	}
	types := make([]ValType, count)
	for i := range types {
		t, err := readValType(r)
		if err != nil {
			return nil, err
		}
		types[i] = t
	}
	return types, nil
}

func readValType(r *binary.Reader) (ValType, error) {
	b, err := r.ReadByte()
	if err != nil {
		return 0, err
	}
	switch t := ValType(b); t {
	case ValI32, ValI64, ValF32, ValF64, ValV128, ValFuncRef, ValExtern:
		return t, nil
	}
	return 0, fmt.Errorf("unsupported value type 0x%02x", b)
}

func parseImportSection(r *binary.Reader, m *Module) error {
	count, err := readCount(r, 4)
	if err != nil {
		return err
	}
	m.Imports = make([]Import, count)
	for i := range m.Imports {
		imp := &m.Imports[i]
		if imp.Module, err = r.ReadName(); err != nil {
			return err
		}
		if imp.Name, err = r.ReadName(); err != nil {
			return err
		}
		if imp.Desc.Kind, err = r.ReadByte(); err != nil {
			return err
		}
		switch imp.Desc.Kind {
		case KindFunc:
			imp.Desc.TypeIdx, err = r.ReadU32()
		case KindTable:
			var tt TableType
			tt, err = readTableType(r)
			imp.Desc.Table = &tt
		case KindMemory:
			var mt MemoryType
			mt, err = readMemoryType(r)
			imp.Desc.Memory = &mt
		case KindGlobal:
			var gt GlobalType
			gt, err = readGlobalType(r)
			imp.Desc.Global = &gt
		default:
			return fmt.Errorf("import %q.%q: unsupported kind 0x%02x", imp.Module, imp.Name, imp.Desc.Kind)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func parseFunctionSection(r *binary.Reader, m *Module) error {
	count, err := readCount(r, 1)
	if err != nil {
		return err
	}
	m.Funcs = make([]uint32, count)
	for i := range m.Funcs {
		if m.Funcs[i], err = r.ReadU32(); err != nil {
			return err
		}
	}
	return nil
}

func parseTableSection(r *binary.Reader, m *Module) error {
	count, err := readCount(r, 2)
	if err != nil {
		return err
	}
	m.Tables = make([]TableType, count)
	for i := range m.Tables {
		if m.Tables[i], err = readTableType(r); err != nil {
			return err
		}
	}
	return nil
}

func parseMemorySection(r *binary.Reader, m *Module) error {
	count, err := readCount(r, 2)
	if err != nil {
		return err
	}
	m.Memories = make([]MemoryType, count)
	for i := range m.Memories {
		if m.Memories[i], err = readMemoryType(r); err != nil {
			return err
		}
	}
	return nil
}

func parseGlobalSection(r *binary.Reader, m *Module) error {
	count, err := readCount(r, 3)
	if err != nil {
		return err
	}
	m.Globals = make([]Global, count)
	for i := range m.Globals {
		if m.Globals[i].Type, err = readGlobalType(r); err != nil {
			return err
		}
		if m.Globals[i].Init, err = readConstExpr(r); err != nil {
			return fmt.Errorf("global %d: %w", i, err)
		}
	}
	return nil
}

func parseExportSection(r *binary.Reader, m *Module) error {
	count, err := readCount(r, 3)
	if err != nil {
		return err
	}
	m.Exports = make([]Export, count)
	for i := range m.Exports {
		exp := &m.Exports[i]
		if exp.Name, err = r.ReadName(); err != nil {
			return err
		}
		if exp.Kind, err = r.ReadByte(); err != nil {
			return err
		}
		if exp.Idx, err = r.ReadU32(); err != nil {
			return err
		}
	}
	return nil
}

func parseStartSection(r *binary.Reader, m *Module) error {
	idx, err := r.ReadU32()
	if err != nil {
		return err
	}
	m.Start = &idx
	return nil
}

func parseElementSection(r *binary.Reader, m *Module) error {
	count, err := readCount(r, 1)
	if err != nil {
		return err
	}
	m.Elements = make([]Element, count)
	for i := range m.Elements {
		if err := readElement(r, &m.Elements[i]); err != nil {
			return fmt.Errorf("element %d: %w", i, err)
		}
	}
	return nil
}

func readElement(r *binary.Reader, e *Element) error {
	flags, err := r.ReadU32()
	if err != nil {
		return err
	}
	if flags > 7 {
		return fmt.Errorf("invalid element flags %d", flags)
	}
	e.Flags = flags

	passive := flags&0x01 != 0
	explicitTable := flags&0x02 != 0
	exprs := flags&0x04 != 0

	if !passive {
		if explicitTable {
			if e.TableIdx, err = r.ReadU32(); err != nil {
				return err
			}
		}
		if e.Offset, err = readConstExpr(r); err != nil {
			return err
		}
	}
	// elemkind or reftype byte, absent for the two shorthand forms
	if passive || explicitTable {
		if _, err := r.ReadByte(); err != nil {
			return err
		}
	}

	n, err := readCount(r, 1)
	if err != nil {
		return err
	}
	e.FuncIdxs = make([]uint32, n)
	for j := range e.FuncIdxs {
		if !exprs {
			if e.FuncIdxs[j], err = r.ReadU32(); err != nil {
				return err
			}
			continue
		}
		raw, err := readConstExpr(r)
		if err != nil {
			return err
		}
		instr, err := DecodeConstExpr(raw)
		if err != nil {
			return err
		}
		switch imm := instr.Imm.(type) {
		case RefFuncImm:
			e.FuncIdxs[j] = imm.FuncIdx
		case RefNullImm:
			e.FuncIdxs[j] = ElemNull
		default:
			return fmt.Errorf("element expression %s is not a function reference", instr.Name())
		}
	}
	return nil
}

func parseCodeSection(r *binary.Reader, m *Module) error {
	count, err := readCount(r, 2)
	if err != nil {
		return err
	}
	m.Code = make([]FuncBody, count)
	for i := range m.Code {
		size, err := r.ReadU32()
		if err != nil {
			return err
		}
		br, err := r.Sub(int(size))
		if err != nil {
			return fmt.Errorf("body %d: %w", i, err)
		}
		if err := readFuncBody(br, &m.Code[i]); err != nil {
			return fmt.Errorf("body %d: %w", i, err)
		}
	}
	return nil
}

func readFuncBody(r *binary.Reader, body *FuncBody) error {
	groups, err := readCount(r, 2)
	if err != nil {
		return err
	}
	body.Locals = make([]LocalEntry, groups)
	var total uint64
	for i := range body.Locals {
		if body.Locals[i].Count, err = r.ReadU32(); err != nil {
			return err
		}
		if body.Locals[i].ValType, err = readValType(r); err != nil {
			return err
		}
		total += uint64(body.Locals[i].Count)
		if total > maxLocals {
			return fmt.Errorf("too many locals: %d", total)
		}
	}
	body.Code = r.ReadRemaining()
	return nil
}

func parseDataSection(r *binary.Reader, m *Module) error {
	count, err := readCount(r, 1)
	if err != nil {
		return err
	}
	m.Data = make([]DataSegment, count)
	for i := range m.Data {
		d := &m.Data[i]
		if d.Flags, err = r.ReadU32(); err != nil {
			return err
		}
		switch d.Flags {
		case 0, 1:
		case 2:
			if d.MemIdx, err = r.ReadU32(); err != nil {
				return err
			}
		default:
			return fmt.Errorf("data %d: invalid flags %d", i, d.Flags)
		}
		if d.Flags != 1 {
			if d.Offset, err = readConstExpr(r); err != nil {
				return fmt.Errorf("data %d: %w", i, err)
			}
		}
		size, err := r.ReadU32()
		if err != nil {
			return err
		}
		if d.Init, err = r.ReadBytes(int(size)); err != nil {
			return err
		}
	}
	return nil
}

func readLimits(r *binary.Reader) (Limits, error) {
	flags, err := r.ReadByte()
	if err != nil {
		return Limits{}, err
	}
	if flags&^0x03 != 0 {
		return Limits{}, fmt.Errorf("unsupported limits flags 0x%02x", flags)
	}
	var l Limits
	l.Shared = flags&0x02 != 0
	if l.Min, err = r.ReadU64(); err != nil {
		return Limits{}, err
	}
	if flags&0x01 != 0 {
		hi, err := r.ReadU64()
		if err != nil {
			return Limits{}, err
		}
		l.Max = &hi
	}
	return l, nil
}

func readTableType(r *binary.Reader) (TableType, error) {
	elem, err := r.ReadByte()
	if err != nil {
		return TableType{}, err
	}
	limits, err := readLimits(r)
	if err != nil {
		return TableType{}, err
	}
	return TableType{ElemType: elem, Limits: limits}, nil
}

func readMemoryType(r *binary.Reader) (MemoryType, error) {
	limits, err := readLimits(r)
	if err != nil {
		return MemoryType{}, err
	}
	return MemoryType{Limits: limits}, nil
}

func readGlobalType(r *binary.Reader) (GlobalType, error) {
	vt, err := readValType(r)
	if err != nil {
		return GlobalType{}, err
	}
	mut, err := r.ReadByte()
	if err != nil {
		return GlobalType{}, err
	}
	if mut > 1 {
		return GlobalType{}, fmt.Errorf("invalid global mutability %d", mut)
	}
	return GlobalType{ValType: vt, Mutable: mut == 1}, nil
}

// readConstExpr consumes one constant expression and returns its raw bytes
// including the terminating end.
func readConstExpr(r *binary.Reader) ([]byte, error) {
	mark := r.Mark()
	op, err := r.ReadByte()
	if err != nil {
		return nil, err
	}
	switch op {
	case OpI32Const, OpI64Const:
		err = skipLEB(r)
	case OpF32Const:
		_, err = r.ReadBytes(4)
	case OpF64Const:
		_, err = r.ReadBytes(8)
	case OpGlobalGet, OpRefFunc:
		_, err = r.ReadU32()
	case OpRefNull:
		_, err = r.ReadByte()
	default:
		return nil, fmt.Errorf("unsupported constant expression opcode %s", OpcodeName(op))
	}
	if err != nil {
		return nil, err
	}
	end, err := r.ReadByte()
	if err != nil {
		return nil, err
	}
	if end != OpEnd {
		return nil, fmt.Errorf("extended constant expressions are not supported (found %s)", OpcodeName(end))
	}
	return r.Since(mark), nil
}

func skipLEB(r *binary.Reader) error {
	_, err := binary.Uleb(r, 64)
	return err
}
