// Package harness runs conformance scenarios through the full pipeline.
//
// A scenario names a program file and asserts over what a run committed:
// patch counts, convention bindings, dataflow results and the patched
// statements. Every scenario runs against a fresh in-memory store with
// deterministic identifiers, so results can be compared against golden
// files.
//
// # Scenario Format
//
//	name: stdcall_decoration
//	description: "Decorated 32-bit symbols bind stdcall32"
//	program: ../programs/stdcall.yaml
//	placement: append
//	assertions:
//	  - type: binding
//	    callee: "0x2000"
//	    convention: stdcall32
//	    status: decorated_stdcall
//	    arguments_size: 8
//	  - type: value
//	    function: main
//	    block: 0x1000
//	    register: esp
//	    value: sp+0x0
//
// Paths are relative to the scenario file.
package harness
