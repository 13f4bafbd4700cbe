package brs

import (
	"fmt"
	"strings"

	"github.com/MotleyCoderDev/wasm2brs/brs/internal/literal"
	"github.com/MotleyCoderDev/wasm2brs/brs/internal/optable"
	"github.com/MotleyCoderDev/wasm2brs/errors"
	"github.com/MotleyCoderDev/wasm2brs/wasm"
)

// instr lowers one non-structured instruction and reports whether control
// cannot fall through it.
func (f *funcGen) instr(instr wasm.Instruction) bool {
	switch instr.Opcode {
	case wasm.OpUnreachable:
		f.w.line("Stop")
		return true
	case wasm.OpNop:
	case wasm.OpBr:
		f.branch(f.labels.Target(instr.Imm.(wasm.BranchImm).LabelIdx))
		return true
	case wasm.OpBrIf:
		f.brIf(instr.Imm.(wasm.BranchImm).LabelIdx)
	case wasm.OpBrTable:
		f.brTable(instr.Imm.(wasm.BrTableImm))
		return true
	case wasm.OpReturn:
		f.ret()
		return true

	case wasm.OpCall:
		f.call(instr.Imm.(wasm.CallImm).FuncIdx)
	case wasm.OpCallIndirect:
		f.callIndirect(instr.Imm.(wasm.CallIndirectImm).TypeIdx)

	case wasm.OpDrop:
		f.types.Drop(1)
	case wasm.OpSelect, wasm.OpSelectType:
		f.selectValue()

	case wasm.OpLocalGet, wasm.OpLocalSet, wasm.OpLocalTee:
		f.local(instr.Opcode, instr.Imm.(wasm.LocalImm).LocalIdx)
	case wasm.OpGlobalGet, wasm.OpGlobalSet:
		f.global(instr.Opcode, instr.Imm.(wasm.GlobalImm).GlobalIdx)

	case wasm.OpMemorySize:
		f.types.Push(wasm.ValI32)
		f.w.line("%s = %s(%s)", f.top(0), optable.MemorySize, f.g.memoryName())
	case wasm.OpMemoryGrow:
		mem := f.g.memoryName()
		f.w.line("%s = %s(%s, %sMax, %s)", f.top(0), optable.MemoryGrow, mem, mem, f.top(0))

	case wasm.OpI32Const, wasm.OpI64Const, wasm.OpF32Const, wasm.OpF64Const:
		t, lit, err := literal.Instruction(instr)
		if err != nil {
			panic(internal("func "+f.name, err.Error()))
		}
		f.types.Push(t)
		f.w.line("%s = %s", f.top(0), lit)

	case wasm.OpBlock, wasm.OpLoop, wasm.OpIf, wasm.OpElse, wasm.OpEnd:
		panic(internal("func "+f.name, "structured instruction outside the tree: "+instr.Name()))

	default:
		op, ok := optable.ForInstruction(instr)
		if !ok {
			panic(errors.UnsupportedOpcode([]string{"func " + f.name}, instr.Name()))
		}
		f.operator(op, instr)
	}
	return false
}

// operator lowers a table-driven numeric or memory instruction. Results
// land in the slot of the lowest operand.
func (f *funcGen) operator(op *optable.Op, instr wasm.Instruction) {
	n := op.Pops()
	args := make([]string, n)
	for i := range args {
		args[i] = f.top(n - 1 - i)
	}
	f.types.Drop(n)
	if op.HasResult() {
		f.types.Push(op.Result)
	}

	switch op.Shape {
	case optable.Infix:
		f.w.line("%s = %s %s %s", f.top(0), args[0], op.Operator, args[1])
	case optable.Call:
		if op.Operator == "-" {
			f.w.line("%s = -(%s)", f.top(0), args[0])
		} else {
			f.w.line("%s = %s(%s)", f.top(0), op.Operator, joinArgs(args))
		}
	case optable.Shift:
		f.w.line("%s %s (%s AND %d)", args[0], op.Operator, args[1], op.ShiftMask())
	case optable.Load:
		f.w.line("%s = %s(%s, %s)", f.top(0), op.Operator, f.g.memoryName(), address(args[0], instr))
	case optable.Store:
		f.w.line("%s(%s, %s, %s)", op.Operator, f.g.memoryName(), address(args[0], instr), args[1])
	default:
		panic(internal("func "+f.name, fmt.Sprintf("%s has no lowering shape", op.Name)))
	}
}

// address adds a memory instruction's static offset to its base operand.
func address(base string, instr wasm.Instruction) string {
	imm, _ := instr.Imm.(wasm.MemoryImm)
	if imm.Offset == 0 {
		return base
	}
	return fmt.Sprintf("%s + %d", base, imm.Offset)
}

func (f *funcGen) local(opcode byte, idx uint32) {
	if int(idx) >= len(f.localNames) {
		panic(internal("func "+f.name, fmt.Sprintf("local %d out of %d", idx, len(f.localNames))))
	}
	name := f.localNames[idx]
	switch opcode {
	case wasm.OpLocalGet:
		f.types.Push(f.localTypes[idx])
		f.w.line("%s = %s", f.top(0), name)
	case wasm.OpLocalSet:
		f.w.line("%s = %s", name, f.top(0))
		f.types.Drop(1)
	case wasm.OpLocalTee:
		f.w.line("%s = %s", name, f.top(0))
	}
}

func (f *funcGen) global(opcode byte, idx uint32) {
	gt := f.g.module.GetGlobalType(idx)
	if gt == nil {
		panic(internal("func "+f.name, fmt.Sprintf("global %d out of range", idx)))
	}
	name := f.g.globalName(idx)
	if opcode == wasm.OpGlobalGet {
		f.types.Push(gt.ValType)
		f.w.line("%s = %s", f.top(0), name)
		return
	}
	f.w.line("%s = %s", name, f.top(0))
	f.types.Drop(1)
}

// selectValue overwrites the first operand's slot with the second when the
// condition is zero, leaving the chosen value in the first operand's slot.
func (f *funcGen) selectValue() {
	f.w.line("If %s = 0 Then", f.top(0))
	f.w.in()
	f.w.line("%s = %s", f.top(2), f.top(1))
	f.w.out()
	f.w.line("End If")
	t := f.types.Peek(1)
	f.types.Drop(3)
	f.types.Push(t)
}

func (f *funcGen) call(funcIdx uint32) {
	ft := f.g.module.GetFuncType(funcIdx)
	if ft == nil {
		panic(internal("func "+f.name, fmt.Sprintf("call to unknown function %d", funcIdx)))
	}
	np := len(ft.Params)
	args := make([]string, np)
	for i := range args {
		args[i] = f.top(np - 1 - i)
	}
	f.emitCall(f.g.funcName(funcIdx), ft, np, args)
}

// callIndirect calls through the table entry selected by the top operand.
func (f *funcGen) callIndirect(typeIdx uint32) {
	ft := f.g.module.TypeAt(typeIdx)
	if ft == nil {
		panic(internal("func "+f.name, fmt.Sprintf("call_indirect with unknown type %d", typeIdx)))
	}
	np := len(ft.Params)
	args := make([]string, np)
	for i := range args {
		args[i] = f.top(np - i)
	}
	target := fmt.Sprintf("%s[%s]", f.g.tableName(), f.top(0))
	f.emitCall(target, ft, np+1, args)
}

// emitCall writes the call and moves its results into the slots starting at
// the lowest consumed operand. Several results travel in an array.
func (f *funcGen) emitCall(target string, ft *wasm.FuncType, pops int, args []string) {
	call := fmt.Sprintf("%s(%s)", target, joinArgs(args))
	base := f.types.Depth() - pops

	switch len(ft.Results) {
	case 0:
		f.types.Drop(pops)
		f.w.line("%s", call)
	case 1:
		f.types.Drop(pops)
		f.types.Push(ft.Results[0])
		f.w.line("%s = %s", f.top(0), call)
	default:
		multi := f.scratchVar("multi")
		f.w.line("%s = %s", multi, call)
		f.types.Drop(pops)
		f.types.PushMany(ft.Results)
		for i := range ft.Results {
			f.w.line("%s = %s[%d]", f.slot(base+i, 0), multi, i)
		}
	}
}

func joinArgs(args []string) string {
	return strings.Join(args, ", ")
}
