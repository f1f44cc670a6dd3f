// Package loader reads program files into a run context.
//
// A program file is YAML naming an architecture from the catalog, the
// symbols of the module and the functions of the program:
//
//	architecture: i386
//	symbols:
//	  - {address: 0x2000, name: "_helper@8"}
//	functions:
//	  - name: main
//	    blocks:
//	      - address: 0x1000
//	        statements:
//	          - assign: [eax, 1]
//	          - call: 0x2000
//	            at: 0x1004
//	          - return:
//
// Operands are register names, integers, or one-key maps:
//
//	{const: 1, size: 8}              sized constant
//	{deref: esp, size: 32}           memory access ("domain: stack" for stack slots)
//	{op: add, args: [esp, 4]}        unary or binary operator
//
// Integers take the width of their context: the other side of an
// assignment, the operator they feed, or the architecture's bitness.
package loader
