// Package vector implements an in-memory cosine-similarity index over
// fixed-dimension embeddings.
//
// The index keeps a dense matrix alongside a parallel id list. Mutations mark
// the matrix dirty and the rebuild happens lazily just before the next search,
// so an O(n) rebuild amortizes over many mutations. Search itself is a linear
// O(n*d) scan; the documented scale ceiling is a working set of low thousands
// of entries, rebuilt fresh on each process start.
package vector
