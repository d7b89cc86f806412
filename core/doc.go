// Package core provides the foundational domain types and contracts used by
// MemoryMesh. It defines the core abstractions for:
//
//   - Memory entries (typed, importance-weighted units of recall)
//   - Episodes (immutable records of completed agent interactions)
//   - Session context (reasoning steps, tool contexts, shared variables)
//   - The unified Operation/Request/Response contract
//   - The pluggable EntryStore interface for capacity-bounded storage
//
// The package intentionally keeps implementation concerns (indexing, eviction,
// session bookkeeping, request fan-out) out of scope, exposing small types and
// interfaces so backends can be swapped without dependency cycles. All exported
// identifiers include concise documentation to aid discoverability and external
// consumption.
package core
