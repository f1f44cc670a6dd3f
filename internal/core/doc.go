// Package core holds the per-run analysis context: the module being
// decompiled, its IR program, the calling convention registry and the
// dataflow results stored per function.
//
// A Context is owned by a single goroutine for the duration of a run.
// Independent runs may proceed in parallel; they share only immutable
// architecture descriptors.
package core
