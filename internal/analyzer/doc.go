// Package analyzer implements the architecture-specific analysis stage.
//
// The stage has three operations, driven in sequence by the engine:
//
//   - PatchProgram makes implicit hardware semantics explicit in the IR.
//   - DetectCallingConvention binds a convention to a callee when no
//     authoritative metadata exists.
//   - AnalyzeDataflow runs dataflow for one function and stores the result.
//
// One strategy exists per instruction-set family. ForArchitecture selects
// it and checks, at construction, that every convention the strategy may
// bind is registered for the architecture.
//
// Heuristic gaps never produce errors. The only error an operation returns
// is the context error after cancellation; partial work already committed
// (patched blocks, bound conventions, stored dataflow results) stays valid.
package analyzer
