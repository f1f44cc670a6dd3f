// Package arch describes target architectures: bitness, register file and
// the table of calling conventions available on each.
//
// An Architecture is built once from a compiled catalog and is immutable
// afterwards. Concurrent runs may share one.
package arch
