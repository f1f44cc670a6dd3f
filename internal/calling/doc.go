// Package calling holds resolved calling convention descriptors, the per-run
// registry binding callees to conventions, and the hooks that let dataflow
// analysis model a call's effect.
//
// The registry is a key-stable map with last-write-wins semantics. It is
// owned by one run and is not safe for concurrent mutation. Convention
// descriptors are immutable once built and may be shared across runs.
package calling
