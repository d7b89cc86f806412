// Package embedding provides a pluggable interface for text embedding plus the
// deterministic hash-based embedder the memory subsystem ships with.
//
// The hash embedder trades semantic depth for zero external dependency and
// full determinism: it is adequate for matching near-duplicate or
// keyword-overlapping history, not for deep semantic search. Swap in a model
// backed Embedder implementation if real semantics are needed.
package embedding
