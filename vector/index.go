package vector

import (
	"sort"
	"sync"
	"time"

	"github.com/hupe1980/memorymesh/core"
	"github.com/hupe1980/memorymesh/embedding"
)

// DefaultMinSimilarity is the similarity cutoff applied when a search does
// not specify one.
const DefaultMinSimilarity = 0.1

// Entry is a single indexed item: content, its unit-norm embedding and
// arbitrary metadata.
type Entry struct {
	ID         string           `json:"id"`
	Content    any              `json:"content"`
	Embedding  embedding.Vector `json:"-"`
	Metadata   map[string]any   `json:"metadata,omitempty"`
	Timestamp  time.Time        `json:"timestamp"`
	Importance float64          `json:"importance"`
}

// Match pairs an entry with its similarity to a query.
type Match struct {
	Entry      *Entry
	Similarity float64
}

// clone copies the entry with its own metadata map so callers cannot mutate
// index state. The embedding slice is shared; it is treated as immutable.
func (e *Entry) clone() *Entry {
	c := *e
	c.Metadata = make(map[string]any, len(e.Metadata))
	for k, v := range e.Metadata {
		c.Metadata[k] = v
	}
	return &c
}

// Options configures the Index.
type Options struct {
	// Embedder turns text into vectors. Defaults to the deterministic hash
	// embedder with embedding.DefaultDims dimensions. All entries in one index
	// share this embedder, which keeps the dimension constant.
	Embedder embedding.Embedder
}

// Index holds vector entries and answers top-k cosine-similarity queries.
// Embeddings are unit-normalized, so the dot product equals cosine
// similarity. Safe for concurrent use.
type Index struct {
	mu       sync.Mutex
	embedder embedding.Embedder
	entries  map[string]*Entry
	matrix   []embedding.Vector // row i belongs to ids[i]
	ids      []string
	dirty    bool
}

// NewIndex creates an empty vector index.
func NewIndex(optFns ...func(*Options)) *Index {
	opts := Options{}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Embedder == nil {
		opts.Embedder = embedding.NewHashEmbedder(embedding.DefaultDims)
	}
	return &Index{
		embedder: opts.Embedder,
		entries:  make(map[string]*Entry),
		dirty:    true,
	}
}

// AddEntry embeds the content and stores it, returning the entry id (a hash
// of the content's text rendering; identical content overwrites in place).
func (x *Index) AddEntry(content any, metadata map[string]any, importance float64) string {
	text := core.ContentText(content)
	id := core.ContentID(text)

	if metadata == nil {
		metadata = map[string]any{}
	}
	entry := &Entry{
		ID:         id,
		Content:    content,
		Embedding:  x.embedder.Embed(text),
		Metadata:   metadata,
		Timestamp:  time.Now(),
		Importance: importance,
	}

	x.mu.Lock()
	defer x.mu.Unlock()
	x.entries[id] = entry
	x.dirty = true
	return id
}

// SearchSimilar embeds the query and returns up to topK entries whose cosine
// similarity meets minSimilarity (DefaultMinSimilarity when negative),
// ranked descending. Rebuilds the matrix first if any mutation happened since
// the last search.
func (x *Index) SearchSimilar(query string, topK int, minSimilarity float64) []Match {
	if topK <= 0 {
		topK = 5
	}
	if minSimilarity < 0 {
		minSimilarity = DefaultMinSimilarity
	}
	queryVec := x.embedder.Embed(query)

	x.mu.Lock()
	defer x.mu.Unlock()
	if len(x.entries) == 0 {
		return nil
	}
	if x.dirty {
		x.rebuildLocked()
	}

	matches := make([]Match, 0, len(x.ids))
	for i, row := range x.matrix {
		sim := embedding.Dot(row, queryVec)
		if sim >= minSimilarity {
			matches = append(matches, Match{Entry: x.entries[x.ids[i]].clone(), Similarity: sim})
		}
	}
	sort.SliceStable(matches, func(i, j int) bool { return matches[i].Similarity > matches[j].Similarity })
	if len(matches) > topK {
		matches = matches[:topK]
	}
	return matches
}

// Entry returns the entry for id, or false when unknown.
func (x *Index) Entry(id string) (*Entry, bool) {
	x.mu.Lock()
	defer x.mu.Unlock()
	entry, ok := x.entries[id]
	if !ok {
		return nil, false
	}
	return entry.clone(), true
}

// RemoveEntry deletes an entry, reporting whether it existed.
func (x *Index) RemoveEntry(id string) bool {
	x.mu.Lock()
	defer x.mu.Unlock()
	if _, ok := x.entries[id]; !ok {
		return false
	}
	delete(x.entries, id)
	x.dirty = true
	return true
}

// Len reports the number of indexed entries.
func (x *Index) Len() int {
	x.mu.Lock()
	defer x.mu.Unlock()
	return len(x.entries)
}

// rebuildLocked regenerates the dense matrix and id list from the entry map.
// Ids are sorted so the layout is deterministic.
func (x *Index) rebuildLocked() {
	x.ids = make([]string, 0, len(x.entries))
	for id := range x.entries {
		x.ids = append(x.ids, id)
	}
	sort.Strings(x.ids)

	x.matrix = make([]embedding.Vector, len(x.ids))
	for i, id := range x.ids {
		x.matrix[i] = x.entries[id].Embedding
	}
	x.dirty = false
}
