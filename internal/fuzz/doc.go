// Package fuzztests houses Go fuzz harnesses that exercise the snapshot
// decoders (.tlbx type libraries, .imx assemblies). Its goal is to smoke
// test robustness and guard against panics or allocator explosions on
// arbitrary inputs.
//
// Does not: generate corpora beyond the built-in seeds, run conversions,
// or execute the CLI.
//
// Dependencies: internal/typelib, internal/metadata, internal/guid.

package fuzztests
