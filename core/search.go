package core

import "time"

// SearchResult represents a retrieved memory item with a relevance score and
// arbitrary metadata. Source names the store that produced the hit
// (entry_store, episode_index or vector_index); scores are normalized to
// [0,1] before merging across sources, with the source's raw score preserved
// in Metadata under "raw_score".
type SearchResult struct {
	Source    string         `json:"source"`
	ID        string         `json:"id"`
	Type      string         `json:"type"`
	Content   any            `json:"content"`
	Score     float64        `json:"score"`
	Timestamp time.Time      `json:"timestamp"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// ScoredEntry pairs a memory entry with the relevance score the entry store
// assigned it for a particular query.
type ScoredEntry struct {
	Entry *MemoryEntry
	Score float64
}
