package brs

import (
	"fmt"
	"strings"

	"github.com/MotleyCoderDev/wasm2brs/brs/internal/ir"
	"github.com/MotleyCoderDev/wasm2brs/brs/internal/stack"
	"github.com/MotleyCoderDev/wasm2brs/errors"
	"github.com/MotleyCoderDev/wasm2brs/wasm"
)

// seq lowers an instruction sequence, stopping after the first instruction
// that never falls through.
func (f *funcGen) seq(s *ir.Seq) {
	for _, n := range s.Children {
		if f.node(n) {
			return
		}
	}
}

// node lowers one tree node and reports whether control cannot reach the
// instruction after it.
func (f *funcGen) node(n ir.Node) bool {
	switch n := n.(type) {
	case *ir.Seq:
		f.seq(n)
	case *ir.Block:
		if n.IsLoop() {
			f.loop(n)
		} else {
			f.block(n)
		}
	case *ir.If:
		f.ifElse(n)
	case *ir.Instr:
		return f.instr(n.Instr)
	default:
		panic(internal("func "+f.name, fmt.Sprintf("unknown node %T", n)))
	}
	return false
}

func (f *funcGen) checkParams(params []wasm.ValType) {
	if len(params) > 0 {
		panic(errors.New(errors.PhaseGenerate, errors.KindUnsupported).
			Path("func "+f.name).
			Detail("block parameters").
			Build())
	}
}

func (f *funcGen) block(b *ir.Block) {
	f.checkParams(b.Params)
	mark := f.types.Mark()
	l := &stack.Label{Name: f.newLabel("block"), Results: b.Results, Depth: mark, Kind: stack.KindBlock}

	f.labels.Push(l)
	f.seq(b.Body)
	f.types.Reset(mark)
	f.labels.Pop()

	if l.Used {
		f.writeLabel(l)
	}
	f.types.PushMany(b.Results)
}

// loop writes its body into a nested writer so the label, which precedes
// the body, is only written once it is known to be targeted.
func (f *funcGen) loop(b *ir.Block) {
	f.checkParams(b.Params)
	if len(b.Body.Children) == 0 {
		return
	}
	mark := f.types.Mark()
	l := &stack.Label{Name: f.newLabel("loop"), Results: b.Results, Depth: mark, Kind: stack.KindLoop}

	outer := f.w
	f.w = outer.child()
	f.w.in()
	f.labels.Push(l)
	f.seq(b.Body)
	f.labels.Pop()
	body := f.w
	f.w = outer

	if l.Used {
		f.writeLabel(l)
	}
	f.w.append(body)
	f.types.Reset(mark)
	f.types.PushMany(b.Results)
}

func (f *funcGen) ifElse(n *ir.If) {
	f.checkParams(n.Params)
	cond := f.top(0)
	f.types.Drop(1)
	mark := f.types.Mark()
	l := &stack.Label{Name: f.newLabel("cond"), Results: n.Results, Depth: mark, Kind: stack.KindIf}
	f.labels.Push(l)

	f.w.line("If %s <> 0 Then", cond)
	f.w.in()
	f.seq(n.Then)
	f.w.out()
	f.types.Reset(mark)

	if n.Else != nil && len(n.Else.Children) > 0 {
		f.w.line("Else")
		f.w.in()
		f.seq(n.Else)
		f.w.out()
		f.types.Reset(mark)
	}
	f.w.line("End If")

	f.labels.Pop()
	if l.Used {
		f.writeLabel(l)
	}
	f.types.PushMany(n.Results)
}

// branch jumps to l, first moving the values it carries into the slots
// live at its exit.
func (f *funcGen) branch(l *stack.Label) {
	if l.HasValue() {
		n := len(l.Results)
		depth := f.types.Depth()
		for i := 0; i < n; i++ {
			src, dst := depth-n+i, l.Depth+i
			if src != dst {
				f.w.line("%s = %s", f.slot(dst, l.Results[i]), f.slot(src, 0))
			}
		}
	}
	f.w.line("Goto %s", l.Name)
}

func (f *funcGen) brIf(depth uint32) {
	cond := f.top(0)
	f.types.Drop(1)
	f.w.line("If %s <> 0 Then", cond)
	f.w.in()
	f.branch(f.labels.Target(depth))
	f.w.out()
	f.w.line("End If")
}

// ret is a branch to the function label.
func (f *funcGen) ret() {
	fn := f.labels.Func()
	fn.Used = true
	f.branch(fn)
}

// brTable emits one conditional per distinct non-default target. Each
// conditional tests the ranges of consecutive table positions that lead to
// the target, and the default branch follows unconditionally.
func (f *funcGen) brTable(imm wasm.BrTableImm) {
	type group struct {
		depth   uint32
		indices []int
	}
	var groups []*group
	byDepth := make(map[uint32]*group)
	for i, depth := range imm.Labels {
		if depth == imm.Default {
			continue
		}
		g, ok := byDepth[depth]
		if !ok {
			g = &group{depth: depth}
			byDepth[depth] = g
			groups = append(groups, g)
		}
		g.indices = append(g.indices, i)
	}

	if len(groups) == 0 {
		f.types.Drop(1)
		f.branch(f.labels.Target(imm.Default))
		return
	}

	sw := f.scratchVar("switch")
	f.w.line("%s = %s", sw, f.top(0))
	f.types.Drop(1)
	for _, g := range groups {
		f.w.line("If %s Then", rangeCondition(sw, mergeRanges(g.indices)))
		f.w.in()
		f.branch(f.labels.Target(g.depth))
		f.w.out()
		f.w.line("End If")
	}
	f.branch(f.labels.Target(imm.Default))
}

type indexRange struct{ first, last int }

// mergeRanges folds ascending indices into inclusive runs.
func mergeRanges(indices []int) []indexRange {
	var out []indexRange
	for _, i := range indices {
		if n := len(out); n > 0 && out[n-1].last+1 == i {
			out[n-1].last = i
			continue
		}
		out = append(out, indexRange{first: i, last: i})
	}
	return out
}

func rangeCondition(v string, ranges []indexRange) string {
	terms := make([]string, len(ranges))
	for i, r := range ranges {
		if r.first == r.last {
			terms[i] = fmt.Sprintf("%s = %d", v, r.first)
		} else {
			terms[i] = fmt.Sprintf("%s >= %d And %s <= %d", v, r.first, v, r.last)
		}
	}
	return strings.Join(terms, " Or ")
}
