// Package ir turns a function's flat instruction stream into a tree of
// structured control constructs.
//
// The node set is closed: Seq, Block, If and Instr. Loops are Blocks whose
// Opcode is wasm.OpLoop. Lowering code switches over the concrete node type.
package ir
