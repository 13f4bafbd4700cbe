package stack

import "github.com/MotleyCoderDev/wasm2brs/wasm"

// Kind is the structured construct a label belongs to.
type Kind uint8

const (
	KindFunc Kind = iota
	KindBlock
	KindLoop
	KindIf
)

func (k Kind) String() string {
	switch k {
	case KindFunc:
		return "func"
	case KindBlock:
		return "block"
	case KindLoop:
		return "loop"
	case KindIf:
		return "if"
	default:
		return "unknown"
	}
}

// Label is one active control construct.
type Label struct {
	Name    string
	Results []wasm.ValType
	Depth   int // operand depth at entry
	Kind    Kind
	Used    bool
}

// HasValue reports whether a branch to the label carries values. Branching
// to a loop re-enters it, so loops never do.
func (l *Label) HasValue() bool {
	return l.Kind != KindLoop && len(l.Results) > 0
}

// Labels is the label stack. The function label is always at the bottom.
type Labels struct {
	labels []*Label
}

// Push enters a construct.
func (s *Labels) Push(l *Label) {
	s.labels = append(s.labels, l)
}

// Pop leaves the innermost construct and returns its label.
func (s *Labels) Pop() *Label {
	if len(s.labels) == 0 {
		panic(violation("pop from empty label stack"))
	}
	l := s.labels[len(s.labels)-1]
	s.labels = s.labels[:len(s.labels)-1]
	return l
}

// Target resolves a relative branch depth, 0 being the innermost construct,
// and marks the label used.
func (s *Labels) Target(depth uint32) *Label {
	if int64(depth) >= int64(len(s.labels)) {
		panic(violation("branch depth %d with %d labels", depth, len(s.labels)))
	}
	l := s.labels[len(s.labels)-1-int(depth)]
	l.Used = true
	return l
}

// Func returns the implicit function label.
func (s *Labels) Func() *Label {
	if len(s.labels) == 0 {
		panic(violation("no function label"))
	}
	return s.labels[0]
}

// Len returns the number of active labels.
func (s *Labels) Len() int {
	return len(s.labels)
}
