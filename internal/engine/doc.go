// Package engine drives the analysis stage over one run.
//
// A run has three phases, always in this order:
//
//  1. Patch: PatchProgram is called exactly once per program.
//  2. Detect: DetectCallingConvention is called once per distinct callee,
//     in the order callees first appear at call sites.
//  3. Dataflow: AnalyzeDataflow is called once per function, in
//     registration order.
//
// The engine owns the run's logical clock. Every committed result gets a
// seq from Clock.Next() and is forwarded to the optional Recorder.
//
// Cancellation is cooperative. The engine checks the context between
// phases and between items; the analyzer checks it inside each operation.
// A cancelled run returns the context error (see IsCancelled) together
// with a report of everything committed before the stop. Recorder writes
// for a cancelled run still happen: they use a context detached from the
// run's cancellation.
//
// A run is single-threaded. Independent runs over distinct core.Context
// values may proceed in parallel with separate engines.
package engine
