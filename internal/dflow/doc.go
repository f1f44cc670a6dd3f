// Package dflow holds per-function dataflow results and a reference
// forward-propagation engine that produces them.
//
// The engine tracks two kinds of abstract values: constants and offsets
// from the stack pointer at function entry. Everything else is unknown.
// It is intentionally small: it exists so the analysis stage has a real
// algorithm to drive, store and replace.
//
// A Dataflow is owned by the run that created it. Analyzers write to it;
// once stored in a run context it must be treated as read-only.
package dflow
