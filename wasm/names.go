package wasm

import (
	"fmt"
	"sort"

	"github.com/MotleyCoderDev/wasm2brs/wasm/internal/binary"
)

// Subsection IDs of the "name" custom section.
const (
	NameSubModule   byte = 0
	NameSubFunction byte = 1
	NameSubLocal    byte = 2
)

// NameSection holds debug names from the "name" custom section.
type NameSection struct {
	Funcs  map[uint32]string
	Locals map[uint32]map[uint32]string
	Module string
}

// FuncName returns the debug name of a function, if present.
func (n *NameSection) FuncName(idx uint32) (string, bool) {
	if n == nil {
		return "", false
	}
	name, ok := n.Funcs[idx]
	return name, ok && name != ""
}

// LocalName returns the debug name of a parameter or local, if present.
func (n *NameSection) LocalName(funcIdx, localIdx uint32) (string, bool) {
	if n == nil {
		return "", false
	}
	name, ok := n.Locals[funcIdx][localIdx]
	return name, ok && name != ""
}

// ParseNameSection decodes the payload of a "name" custom section.
// Unknown subsections are skipped.
func ParseNameSection(data []byte) (*NameSection, error) {
	ns := &NameSection{
		Funcs:  make(map[uint32]string),
		Locals: make(map[uint32]map[uint32]string),
	}
	r := binary.NewReader(data, 0)
	for r.Len() > 0 {
		id, _ := r.ReadByte()
		size, err := r.ReadU32()
		if err != nil {
			return nil, err
		}
		sub, err := r.Sub(int(size))
		if err != nil {
			return nil, fmt.Errorf("name subsection %d: %w", id, err)
		}
		switch id {
		case NameSubModule:
			if ns.Module, err = sub.ReadName(); err != nil {
				return nil, err
			}
		case NameSubFunction:
			if err := readNameMap(sub, ns.Funcs); err != nil {
				return nil, fmt.Errorf("function names: %w", err)
			}
		case NameSubLocal:
			n, err := sub.ReadU32()
			if err != nil {
				return nil, err
			}
			for i := uint32(0); i < n; i++ {
				funcIdx, err := sub.ReadU32()
				if err != nil {
					return nil, err
				}
				locals := make(map[uint32]string)
				if err := readNameMap(sub, locals); err != nil {
					return nil, fmt.Errorf("local names of function %d: %w", funcIdx, err)
				}
				ns.Locals[funcIdx] = locals
			}
		}
	}
	return ns, nil
}

func readNameMap(r *binary.Reader, into map[uint32]string) error {
	n, err := r.ReadU32()
	if err != nil {
		return err
	}
	for i := uint32(0); i < n; i++ {
		idx, err := r.ReadU32()
		if err != nil {
			return err
		}
		name, err := r.ReadName()
		if err != nil {
			return err
		}
		into[idx] = name
	}
	return nil
}

// Encode serializes the name section payload. Maps are written in index
// order as the binary format requires.
func (n *NameSection) Encode() []byte {
	w := binary.NewWriter()
	if n.Module != "" {
		sub := binary.NewWriter()
		sub.WriteName(n.Module)
		w.Byte(NameSubModule)
		w.WriteVec(sub.Bytes())
	}
	if len(n.Funcs) > 0 {
		sub := binary.NewWriter()
		writeNameMap(sub, n.Funcs)
		w.Byte(NameSubFunction)
		w.WriteVec(sub.Bytes())
	}
	if len(n.Locals) > 0 {
		sub := binary.NewWriter()
		funcs := sortedKeys(n.Locals)
		sub.WriteU32(uint32(len(funcs)))
		for _, f := range funcs {
			sub.WriteU32(f)
			writeNameMap(sub, n.Locals[f])
		}
		w.Byte(NameSubLocal)
		w.WriteVec(sub.Bytes())
	}
	return w.Bytes()
}

func writeNameMap(w *binary.Writer, m map[uint32]string) {
	keys := sortedKeys(m)
	w.WriteU32(uint32(len(keys)))
	for _, k := range keys {
		w.WriteU32(k)
		w.WriteName(m[k])
	}
}

func sortedKeys[V any](m map[uint32]V) []uint32 {
	keys := make([]uint32, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}
