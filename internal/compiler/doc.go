// Package compiler compiles CUE catalogs of architectures and calling
// conventions into validated specs.
//
// The catalog is the enumerated table of convention descriptors per
// architecture. It is compiled and validated once, at startup, so that a
// convention name the analyzers rely on but the catalog does not define
// fails at configuration time instead of surfacing as a gap mid-run.
//
// Catalog shape:
//
//	architecture: "x86-64": {
//		family:      "intel"
//		bitness:     64
//		conventions: ["amd64", "microsoft64"]
//	}
//	convention: amd64: {
//		description:           "System V AMD64"
//		stack_pointer:         "rsp"
//		first_argument_offset: 8
//		arguments:             ["rdi", "rsi", "rdx", "rcx", "r8", "r9"]
//		return_values:         ["rax", "rdx"]
//		callee_cleanup:        false
//		stack_alignment:       16
//	}
//
// Register names are resolved later, against the architecture's register
// file, by package arch.
package compiler
