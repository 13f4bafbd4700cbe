package wasm

import (
	"github.com/MotleyCoderDev/wasm2brs/wasm/internal/binary"
)

// Encode encodes the module to WebAssembly binary format. Names, when set,
// are written as a trailing "name" custom section.
func (m *Module) Encode() []byte {
	w := binary.NewWriter()
	w.WriteBytes([]byte{0x00, 0x61, 0x73, 0x6D, 0x01, 0x00, 0x00, 0x00})

	section(w, SectionType, len(m.Types), func(sec *binary.Writer, i int) {
		sec.Byte(FuncTypeByte)
		writeValTypes(sec, m.Types[i].Params)
		writeValTypes(sec, m.Types[i].Results)
	})

	section(w, SectionImport, len(m.Imports), func(sec *binary.Writer, i int) {
		imp := m.Imports[i]
		sec.WriteName(imp.Module)
		sec.WriteName(imp.Name)
		sec.Byte(imp.Desc.Kind)
		switch imp.Desc.Kind {
		case KindFunc:
			sec.WriteU32(imp.Desc.TypeIdx)
		case KindTable:
			writeTableType(sec, *imp.Desc.Table)
		case KindMemory:
			writeLimits(sec, imp.Desc.Memory.Limits)
		case KindGlobal:
			writeGlobalType(sec, *imp.Desc.Global)
		}
	})

	section(w, SectionFunction, len(m.Funcs), func(sec *binary.Writer, i int) {
		sec.WriteU32(m.Funcs[i])
	})

	section(w, SectionTable, len(m.Tables), func(sec *binary.Writer, i int) {
		writeTableType(sec, m.Tables[i])
	})

	section(w, SectionMemory, len(m.Memories), func(sec *binary.Writer, i int) {
		writeLimits(sec, m.Memories[i].Limits)
	})

	section(w, SectionGlobal, len(m.Globals), func(sec *binary.Writer, i int) {
		writeGlobalType(sec, m.Globals[i].Type)
		sec.WriteBytes(m.Globals[i].Init)
	})

	section(w, SectionExport, len(m.Exports), func(sec *binary.Writer, i int) {
		sec.WriteName(m.Exports[i].Name)
		sec.Byte(m.Exports[i].Kind)
		sec.WriteU32(m.Exports[i].Idx)
	})

	if m.Start != nil {
		sec := binary.NewWriter()
		sec.WriteU32(*m.Start)
		writeSection(w, SectionStart, sec.Bytes())
	}

	section(w, SectionElement, len(m.Elements), func(sec *binary.Writer, i int) {
		writeElement(sec, m.Elements[i])
	})

	if m.DataCount != nil {
		sec := binary.NewWriter()
		sec.WriteU32(*m.DataCount)
		writeSection(w, SectionDataCount, sec.Bytes())
	}

	section(w, SectionCode, len(m.Code), func(sec *binary.Writer, i int) {
		body := binary.NewWriter()
		body.WriteU32(uint32(len(m.Code[i].Locals)))
		for _, l := range m.Code[i].Locals {
			body.WriteU32(l.Count)
			body.Byte(byte(l.ValType))
		}
		body.WriteBytes(m.Code[i].Code)
		sec.WriteVec(body.Bytes())
	})

	section(w, SectionData, len(m.Data), func(sec *binary.Writer, i int) {
		d := m.Data[i]
		sec.WriteU32(d.Flags)
		if d.Flags == 2 {
			sec.WriteU32(d.MemIdx)
		}
		if d.Flags != 1 {
			sec.WriteBytes(d.Offset)
		}
		sec.WriteVec(d.Init)
	})

	hasNames := false
	for _, cs := range m.CustomSections {
		hasNames = hasNames || cs.Name == "name"
		writeCustom(w, cs.Name, cs.Data)
	}
	if m.Names != nil && !hasNames {
		writeCustom(w, "name", m.Names.Encode())
	}

	return w.Bytes()
}

// section writes a vector section with n entries, skipping empty ones.
func section(w *binary.Writer, id byte, n int, entry func(*binary.Writer, int)) {
	if n == 0 {
		return
	}
	sec := binary.NewWriter()
	sec.WriteU32(uint32(n))
	for i := 0; i < n; i++ {
		entry(sec, i)
	}
	writeSection(w, id, sec.Bytes())
}

func writeSection(w *binary.Writer, id byte, data []byte) {
	w.Byte(id)
	w.WriteVec(data)
}

func writeCustom(w *binary.Writer, name string, data []byte) {
	sec := binary.NewWriter()
	sec.WriteName(name)
	sec.WriteBytes(data)
	writeSection(w, SectionCustom, sec.Bytes())
}

func writeValTypes(w *binary.Writer, types []ValType) {
	w.WriteU32(uint32(len(types)))
	for _, t := range types {
		w.Byte(byte(t))
	}
}

func writeLimits(w *binary.Writer, l Limits) {
	var flags byte
	if l.Max != nil {
		flags |= 0x01
	}
	if l.Shared {
		flags |= 0x02
	}
	w.Byte(flags)
	w.WriteU64(l.Min)
	if l.Max != nil {
		w.WriteU64(*l.Max)
	}
}

func writeTableType(w *binary.Writer, t TableType) {
	elem := t.ElemType
	if elem == 0 {
		elem = byte(ValFuncRef)
	}
	w.Byte(elem)
	writeLimits(w, t.Limits)
}

func writeGlobalType(w *binary.Writer, g GlobalType) {
	w.Byte(byte(g.ValType))
	if g.Mutable {
		w.Byte(1)
	} else {
		w.Byte(0)
	}
}

// writeElement always uses the function-index forms (flags 0-3); entries
// equal to ElemNull force the expression form.
func writeElement(w *binary.Writer, e Element) {
	exprs := false
	for _, f := range e.FuncIdxs {
		exprs = exprs || f == ElemNull
	}
	flags := e.Flags &^ 0x04
	if exprs {
		flags |= 0x04
	}
	w.WriteU32(flags)
	if flags&0x01 == 0 {
		if flags&0x02 != 0 {
			w.WriteU32(e.TableIdx)
		}
		w.WriteBytes(e.Offset)
	}
	if flags&0x03 != 0 {
		if exprs {
			w.Byte(byte(ValFuncRef))
		} else {
			w.Byte(0x00)
		}
	}
	w.WriteU32(uint32(len(e.FuncIdxs)))
	for _, f := range e.FuncIdxs {
		switch {
		case !exprs:
			w.WriteU32(f)
		case f == ElemNull:
			w.WriteBytes([]byte{OpRefNull, byte(ValFuncRef), OpEnd})
		default:
			w.Byte(OpRefFunc)
			w.WriteU32(f)
			w.Byte(OpEnd)
		}
	}
}
