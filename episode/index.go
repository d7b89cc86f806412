package episode

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/hupe1980/memorymesh/core"
	"github.com/hupe1980/memorymesh/vector"
)

// patternSimilarityFloor is the minimum similarity for an episode to count as
// a reusable pattern.
const patternSimilarityFloor = 0.3

// Match pairs an episode with its similarity to a query.
type Match struct {
	Episode    *core.Episode
	Similarity float64
}

// Pattern summarizes a successful episode similar enough to a query that its
// strategy is worth reusing.
type Pattern struct {
	EpisodeID    string   `json:"episode_id"`
	ToolSequence []string `json:"tool_sequence"`
	Reasoning    []string `json:"reasoning"`
	Similarity   float64  `json:"similarity"`
}

// RecentEpisode is the compact projection used in stats output.
type RecentEpisode struct {
	ID        string        `json:"id"`
	Query     string        `json:"query"`
	Success   bool          `json:"success"`
	Duration  time.Duration `json:"duration"`
	ToolsUsed []string      `json:"tools_used"`
}

// Stats aggregates the stored episode history.
type Stats struct {
	Total           int             `json:"total_episodes"`
	Successful      int             `json:"successful_episodes"`
	Failed          int             `json:"failed_episodes"`
	SuccessRate     float64         `json:"success_rate"`
	AverageDuration time.Duration   `json:"average_duration"`
	ToolUsage       map[string]int  `json:"tool_usage"`
	Recent          []RecentEpisode `json:"recent_episodes"`
}

// Index stores episodes and answers similarity queries over them. Every
// stored episode also lands in the shared entry store and vector index, which
// the Index holds by injected handle (no global state).
type Index struct {
	mu       sync.RWMutex
	entries  core.EntryStore
	vectors  *vector.Index
	episodes map[string]*core.Episode
}

// NewIndex creates an episode index writing through to the given entry store
// and vector index.
func NewIndex(entries core.EntryStore, vectors *vector.Index) *Index {
	return &Index{
		entries:  entries,
		vectors:  vectors,
		episodes: make(map[string]*core.Episode),
	}
}

// StoreEpisode commits an episode: once stored it is never mutated. A missing
// id or timestamp is filled in. The episode is also projected into the entry
// store (episodic type) and the vector index (embedding of query, response
// and tool list).
func (x *Index) StoreEpisode(ep *core.Episode) (string, error) {
	stored := ep.Clone()
	if stored.ID == "" {
		stored.ID = core.NewID()
	}
	if stored.Timestamp.IsZero() {
		stored.Timestamp = time.Now()
	}

	x.mu.Lock()
	x.episodes[stored.ID] = stored
	x.mu.Unlock()

	if _, err := x.entries.Store(&core.MemoryEntry{
		Content:    stored.Clone(),
		Type:       core.Episodic,
		Importance: stored.Importance,
		Metadata: map[string]any{
			"episode_id": stored.ID,
			"success":    stored.Success,
			"tools_used": stored.ToolsUsed,
			"duration":   stored.Duration,
		},
	}); err != nil {
		return "", fmt.Errorf("store episodic entry: %w", err)
	}

	x.vectors.AddEntry(episodeText(stored), map[string]any{
		"episode_id": stored.ID,
		"success":    stored.Success,
		"tools_used": stored.ToolsUsed,
	}, stored.Importance)

	return stored.ID, nil
}

// FindSimilar returns up to topK episodes ranked by similarity to the query.
// Similarity search delegates to the vector index; hits whose vector entries
// no longer map to a stored episode are skipped.
func (x *Index) FindSimilar(query string, topK int) []Match {
	if topK <= 0 {
		topK = 5
	}
	hits := x.vectors.SearchSimilar(query, topK, -1)

	x.mu.RLock()
	defer x.mu.RUnlock()
	matches := make([]Match, 0, len(hits))
	for _, hit := range hits {
		id, ok := hit.Entry.Metadata["episode_id"].(string)
		if !ok {
			continue
		}
		ep, ok := x.episodes[id]
		if !ok {
			continue
		}
		matches = append(matches, Match{Episode: ep.Clone(), Similarity: hit.Similarity})
	}
	return matches
}

// SuccessfulPatterns extracts the tool sequence and reasoning summary from
// successful episodes sufficiently similar to the query.
func (x *Index) SuccessfulPatterns(query string) []Pattern {
	matches := x.FindSimilar(query, 10)

	patterns := make([]Pattern, 0, len(matches))
	for _, m := range matches {
		if !m.Episode.Success || m.Similarity <= patternSimilarityFloor {
			continue
		}
		reasoning := make([]string, 0, len(m.Episode.ReasoningSteps))
		for _, step := range m.Episode.ReasoningSteps {
			reasoning = append(reasoning, step.Thought)
		}
		patterns = append(patterns, Pattern{
			EpisodeID:    m.Episode.ID,
			ToolSequence: m.Episode.ToolsUsed,
			Reasoning:    reasoning,
			Similarity:   m.Similarity,
		})
	}
	return patterns
}

// Get returns the episode for id, or false when unknown.
func (x *Index) Get(id string) (*core.Episode, bool) {
	x.mu.RLock()
	defer x.mu.RUnlock()
	ep, ok := x.episodes[id]
	if !ok {
		return nil, false
	}
	return ep.Clone(), true
}

// Remove drops the episode for id, reporting whether it existed. The
// projections in the entry store and vector index are not touched; use
// RemoveWithProjections to drop those as well.
func (x *Index) Remove(id string) bool {
	x.mu.Lock()
	defer x.mu.Unlock()
	if _, ok := x.episodes[id]; !ok {
		return false
	}
	delete(x.episodes, id)
	return true
}

// RemoveWithProjections drops the episode together with its entry-store and
// vector-index projections, reporting whether it existed. Projection ids are
// content-derived, so they are recomputed from the stored episode.
func (x *Index) RemoveWithProjections(id string) bool {
	x.mu.Lock()
	ep, ok := x.episodes[id]
	if ok {
		delete(x.episodes, id)
	}
	x.mu.Unlock()
	if !ok {
		return false
	}
	x.entries.Delete(core.ContentID(ep))
	x.vectors.RemoveEntry(core.ContentID(episodeText(ep)))
	return true
}

// Episodes returns a snapshot of all episodes, most recent first.
func (x *Index) Episodes() []*core.Episode {
	x.mu.RLock()
	defer x.mu.RUnlock()
	all := make([]*core.Episode, 0, len(x.episodes))
	for _, ep := range x.episodes {
		all = append(all, ep.Clone())
	}
	sort.SliceStable(all, func(i, j int) bool { return all[i].Timestamp.After(all[j].Timestamp) })
	return all
}

// Len reports the number of stored episodes.
func (x *Index) Len() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return len(x.episodes)
}

// Stats aggregates counts, success rate, average duration, per-tool usage and
// the five most recent episodes.
func (x *Index) Stats() Stats {
	all := x.Episodes()

	stats := Stats{Total: len(all), ToolUsage: map[string]int{}}
	if stats.Total == 0 {
		stats.Recent = []RecentEpisode{}
		return stats
	}

	var totalDuration time.Duration
	for _, ep := range all {
		if ep.Success {
			stats.Successful++
		}
		totalDuration += ep.Duration
		for _, tool := range ep.ToolsUsed {
			stats.ToolUsage[tool]++
		}
	}
	stats.Failed = stats.Total - stats.Successful
	stats.SuccessRate = float64(stats.Successful) / float64(stats.Total)
	stats.AverageDuration = totalDuration / time.Duration(stats.Total)

	recent := all
	if len(recent) > 5 {
		recent = recent[:5]
	}
	stats.Recent = make([]RecentEpisode, 0, len(recent))
	for _, ep := range recent {
		stats.Recent = append(stats.Recent, RecentEpisode{
			ID:        ep.ID,
			Query:     truncate(ep.Query, 100),
			Success:   ep.Success,
			Duration:  ep.Duration,
			ToolsUsed: ep.ToolsUsed,
		})
	}
	return stats
}

// episodeText renders an episode as the text its vector embedding is built
// from.
func episodeText(ep *core.Episode) string {
	return fmt.Sprintf("Query: %s\nResponse: %s\nTools: %s", ep.Query, ep.Response, strings.Join(ep.ToolsUsed, ", "))
}

// truncate shortens s to at most n bytes without splitting a rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "..."
}
