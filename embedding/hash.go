package embedding

import (
	"crypto/sha256"
	"fmt"
	"math"
)

// DefaultDims is the default embedding dimension.
const DefaultDims = 256

// hashRounds is the number of independent digests folded into one vector.
const hashRounds = 4

// HashEmbedder is a deterministic, offline Embedder. It derives several
// independent SHA-256 digests of the input text, maps the digest bytes to
// float segments, concatenates and pads/truncates them to a fixed dimension,
// and L2-normalizes the result. Identical text always yields an identical
// unit vector; no network or model runtime is involved.
type HashEmbedder struct {
	dims int
}

// NewHashEmbedder creates a HashEmbedder with the given dimension. A
// non-positive dims falls back to DefaultDims.
func NewHashEmbedder(dims int) *HashEmbedder {
	if dims <= 0 {
		dims = DefaultDims
	}
	return &HashEmbedder{dims: dims}
}

// Embed returns the unit-norm embedding of text.
func (e *HashEmbedder) Embed(text string) Vector {
	segment := e.dims / hashRounds
	vals := make(Vector, 0, e.dims)
	for i := 0; i < hashRounds; i++ {
		sum := sha256.Sum256([]byte(fmt.Sprintf("%s_%d", text, i)))
		n := segment
		if n > len(sum) {
			n = len(sum)
		}
		for _, b := range sum[:n] {
			vals = append(vals, float32(b))
		}
	}
	if len(vals) > e.dims {
		vals = vals[:e.dims]
	}
	for len(vals) < e.dims {
		vals = append(vals, 0)
	}
	return normalize(vals)
}

// Dims returns the embedding dimension.
func (e *HashEmbedder) Dims() int { return e.dims }

func normalize(v Vector) Vector {
	var norm float64
	for _, x := range v {
		norm += float64(x) * float64(x)
	}
	if norm == 0 {
		return v
	}
	inv := 1 / math.Sqrt(norm)
	for i := range v {
		v[i] = float32(float64(v[i]) * inv)
	}
	return v
}
