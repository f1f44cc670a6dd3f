// Package ir provides the intermediate representation consumed by the
// architecture-specific analysis stage.
//
// This package contains the IR model only. All other internal packages
// import ir; ir imports nothing internal.
//
// Key design constraints:
//   - Storage locations are bit-granular (domain, addr, size) triples
//   - Register banks occupy contiguous domains so bank membership is a
//     range test on Domain
//   - Basic blocks are append-only for analysis passes; statements are
//     never removed or reordered
//   - Terms and statements are pointers; identity matters to dataflow
package ir
