// Package brs generates BrightScript source from a WebAssembly module.
//
// Generate lowers every function of a decoded module into a BrightScript
// Function and emits the module-level glue: global initialization, the
// linear memory and its data segments, the function table and its element
// segments, exports, and an Init procedure that runs them in order followed
// by the start function.
//
// # Operand stack
//
// WebAssembly's operand stack becomes named variables. The value at
// absolute stack position N with type T lives in a variable named after T
// (i, j, f, d for i32, i64, f32, f64) and N, so "i3" is the i32 at depth 3.
// Names are assigned once per function and reused.
//
// # Control flow
//
// Blocks, loops and ifs become labels and Goto. A label is only written when
// some branch targets it, since BrightScript limits the number of labels per
// function. br_table groups its targets per destination and emits one
// conditional per destination, using ranges for consecutive indices.
//
// # Runtime
//
// Operations without a native BrightScript operator call helpers such as
// I32DivU or F64Nearest, and memory is accessed through helpers taking the
// roByteArray backing store. Those helpers come from a separate BrightScript
// runtime library.
//
// # Limits
//
// Functions with more labels than Options.LabelLimit or more variables than
// Options.VariableLimit still generate, but are reported as advisories in
// the returned Report and logged at warn level.
package brs
