// Package loader turns a WebAssembly binary into a module the generator can
// lower.
//
// Loading validates the binary with wazero, restricted to the features the
// generator understands (WebAssembly 1.0 plus sign extension, non-trapping
// float-to-int conversion and multi-value), then decodes it into the wasm
// package's module IR and checks that it has at most one memory and one
// table. The generator itself assumes validated input, so skipping
// validation is only appropriate for trusted binaries.
package loader
