// Package wasm provides the module IR consumed by the BrightScript generator,
// together with a binary decoder and encoder for it.
//
// The decoder covers the WebAssembly MVP plus the extensions the generator
// can lower: sign-extension operators, non-trapping float-to-int conversion,
// multi-value function types and typed select. Constant expressions and
// element segments in their expression form are accepted. Opcodes from other
// proposals decode to an *UnsupportedOpcodeError naming the mnemonic.
//
// # Parsing
//
//	data, _ := os.ReadFile("module.wasm")
//	module, err := wasm.ParseModule(data)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// # Instructions
//
// Function bodies are kept as raw bytes and decoded on demand:
//
//	instrs, err := wasm.DecodeInstructions(module.Code[0].Code)
//
// EncodeInstructions is the inverse and is convenient for building modules
// in tests:
//
//	body := wasm.EncodeInstructions([]wasm.Instruction{
//	    {Opcode: wasm.OpLocalGet, Imm: wasm.LocalImm{LocalIdx: 0}},
//	    {Opcode: wasm.OpEnd},
//	})
//
// # Names
//
// The "name" custom section is decoded into Module.Names when present and
// well formed; function and local names drive identifier generation.
package wasm
