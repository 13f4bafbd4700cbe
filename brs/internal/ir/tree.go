package ir

import (
	"fmt"

	"github.com/MotleyCoderDev/wasm2brs/errors"
	"github.com/MotleyCoderDev/wasm2brs/wasm"
)

// Node is one of *Seq, *Block, *If or *Instr.
type Node interface {
	node()
}

// Seq is an instruction list.
type Seq struct {
	Children []Node
}

// Block is a block or loop construct.
type Block struct {
	Body    *Seq
	Params  []wasm.ValType
	Results []wasm.ValType
	Opcode  byte // wasm.OpBlock or wasm.OpLoop
}

// IsLoop reports whether the block is a loop.
func (b *Block) IsLoop() bool { return b.Opcode == wasm.OpLoop }

// If is an if construct. Else is nil when the else arm is absent.
type If struct {
	Then    *Seq
	Else    *Seq
	Params  []wasm.ValType
	Results []wasm.ValType
}

// Instr is any non-structured instruction.
type Instr struct {
	Instr wasm.Instruction
}

func (*Seq) node()   {}
func (*Block) node() {}
func (*If) node()    {}
func (*Instr) node() {}

// Parse builds the tree of a function body. The stream is expected to end
// with the function's closing end, which is consumed.
func Parse(instrs []wasm.Instruction, m *wasm.Module) *Seq {
	p := &parser{instrs: instrs, module: m}
	return p.parseSeq()
}

type parser struct {
	module *wasm.Module
	instrs []wasm.Instruction
	pos    int
}

func (p *parser) parseSeq() *Seq {
	seq := &Seq{}
	for p.pos < len(p.instrs) {
		instr := p.instrs[p.pos]

		switch instr.Opcode {
		case wasm.OpEnd:
			p.pos++
			return seq

		case wasm.OpElse:
			// left for parseIf
			return seq

		case wasm.OpBlock, wasm.OpLoop:
			seq.Children = append(seq.Children, p.parseBlock())

		case wasm.OpIf:
			seq.Children = append(seq.Children, p.parseIf())

		default:
			seq.Children = append(seq.Children, &Instr{Instr: instr})
			p.pos++
		}
	}
	return seq
}

func (p *parser) parseBlock() *Block {
	instr := p.instrs[p.pos]
	imm, _ := instr.Imm.(wasm.BlockImm)
	p.pos++

	body := p.parseSeq()
	params, results := Signature(imm.Type, p.module)
	return &Block{
		Opcode:  instr.Opcode,
		Params:  params,
		Results: results,
		Body:    body,
	}
}

func (p *parser) parseIf() *If {
	imm, _ := p.instrs[p.pos].Imm.(wasm.BlockImm)
	p.pos++

	then := p.parseSeq()
	var els *Seq
	if p.pos < len(p.instrs) && p.instrs[p.pos].Opcode == wasm.OpElse {
		p.pos++
		els = p.parseSeq()
	}

	params, results := Signature(imm.Type, p.module)
	return &If{
		Params:  params,
		Results: results,
		Then:    then,
		Else:    els,
	}
}

// Signature converts a block type to its parameter and result types.
// Non-negative block types index the module's type section. A type index
// that does not resolve panics with an internal *errors.Error.
func Signature(blockType int32, m *wasm.Module) (params, results []wasm.ValType) {
	switch blockType {
	case wasm.BlockTypeVoid:
		return nil, nil
	case wasm.BlockTypeI32:
		return nil, []wasm.ValType{wasm.ValI32}
	case wasm.BlockTypeI64:
		return nil, []wasm.ValType{wasm.ValI64}
	case wasm.BlockTypeF32:
		return nil, []wasm.ValType{wasm.ValF32}
	case wasm.BlockTypeF64:
		return nil, []wasm.ValType{wasm.ValF64}
	case wasm.BlockTypeV128:
		return nil, []wasm.ValType{wasm.ValV128}
	case wasm.BlockTypeFuncRef:
		return nil, []wasm.ValType{wasm.ValFuncRef}
	case wasm.BlockTypeExternRef:
		return nil, []wasm.ValType{wasm.ValExtern}
	}
	if blockType >= 0 && m != nil {
		if ft := m.TypeAt(uint32(blockType)); ft != nil {
			return ft.Params, ft.Results
		}
	}
	panic(errors.Internal([]string{"block"}, fmt.Sprintf("block type %d does not resolve", blockType)))
}

// Walk calls fn for n and every node below it in pre-order.
func Walk(n Node, fn func(Node)) {
	fn(n)
	switch n := n.(type) {
	case *Seq:
		for _, c := range n.Children {
			Walk(c, fn)
		}
	case *Block:
		Walk(n.Body, fn)
	case *If:
		Walk(n.Then, fn)
		if n.Else != nil {
			Walk(n.Else, fn)
		}
	}
}
