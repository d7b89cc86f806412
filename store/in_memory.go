package store

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/hupe1980/memorymesh/core"
	"github.com/hupe1980/memorymesh/logging"
)

// DefaultMaxEntries is the capacity bound applied when none is configured.
const DefaultMaxEntries = 10000

// evictTargetRatio is the fill level eviction shrinks the store back to.
// Evicting in batches rather than per insert amortizes the scan cost.
const evictTargetRatio = 0.9

// Options configures the InMemoryStore.
type Options struct {
	// MaxEntries bounds the store size. The store never refuses a write; once
	// size exceeds this bound an eviction pass shrinks it back below.
	MaxEntries int

	// Logger receives eviction and lifecycle events. Defaults to NoOpLogger.
	Logger logging.Logger
}

// InMemoryStore is a process-local EntryStore. It offers:
//  1. Idempotent upsert keyed by content hash
//  2. Keyword + importance + recency ranked Search
//  3. Capacity-bounded storage via multi-factor retention-score eviction
//
// Concurrency: protected by RWMutex; entries handed out are clones so callers
// cannot mutate internal state.
type InMemoryStore struct {
	mu         sync.RWMutex
	maxEntries int
	logger     logging.Logger
	entries    map[string]*core.MemoryEntry
	typeIndex  map[core.MemoryType][]string
}

// NewInMemoryStore creates an empty in-memory entry store.
func NewInMemoryStore(optFns ...func(*Options)) *InMemoryStore {
	opts := Options{MaxEntries: DefaultMaxEntries, Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.MaxEntries <= 0 {
		opts.MaxEntries = DefaultMaxEntries
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}
	return &InMemoryStore{
		maxEntries: opts.MaxEntries,
		logger:     opts.Logger,
		entries:    make(map[string]*core.MemoryEntry),
		typeIndex:  make(map[core.MemoryType][]string),
	}
}

// Store upserts an entry. An empty ID is derived from the content hash, so
// storing identical content twice yields the same id and a single logical
// entry. Timestamps are refreshed on every store. May trigger an eviction
// pass afterwards; the write itself is never refused.
func (s *InMemoryStore) Store(entry *core.MemoryEntry) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := entry.Clone()
	if stored.ID == "" {
		stored.ID = core.ContentID(stored.Content)
	}
	if stored.Metadata == nil {
		stored.Metadata = map[string]any{}
	}
	now := time.Now()
	stored.Timestamp = now
	stored.LastAccessed = now

	if prev, ok := s.entries[stored.ID]; ok && prev.Type != stored.Type {
		s.removeFromTypeIndexLocked(prev.Type, stored.ID)
	}
	if _, ok := s.entries[stored.ID]; !ok || !s.typeIndexContainsLocked(stored.Type, stored.ID) {
		s.typeIndex[stored.Type] = append(s.typeIndex[stored.Type], stored.ID)
	}
	s.entries[stored.ID] = stored

	s.evictIfNeededLocked()

	return stored.ID, nil
}

// Retrieve returns a copy of the entry for id, bumping its access count and
// last-accessed time. Unknown ids yield core.ErrNotFound, never a panic.
func (s *InMemoryStore) Retrieve(id string) (*core.MemoryEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.entries[id]
	if !ok {
		return nil, core.ErrNotFound
	}
	entry.AccessCount++
	entry.LastAccessed = time.Now()
	return entry.Clone(), nil
}

// Search ranks entries against query keywords. Per candidate (after the
// optional type filter):
//
//	score = (kwOverlap(content) + 0.5*kwOverlap(metadata)) * (1 + importance + 0.1*recency)
//
// with recency decaying linearly to zero over 24h. Zero-score candidates are
// excluded; results are sorted descending and truncated to limit.
func (s *InMemoryStore) Search(query string, memoryType core.MemoryType, limit int) []core.ScoredEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 10
	}
	words := strings.Fields(strings.ToLower(query))

	var ids []string
	if memoryType != "" {
		ids = s.typeIndex[memoryType]
	} else {
		ids = make([]string, 0, len(s.entries))
		for id := range s.entries {
			ids = append(ids, id)
		}
	}

	now := time.Now()
	scored := make([]core.ScoredEntry, 0, len(ids))
	for _, id := range ids {
		entry, ok := s.entries[id]
		if !ok {
			continue
		}
		if score := relevanceScore(entry, words, now); score > 0 {
			scored = append(scored, core.ScoredEntry{Entry: entry.Clone(), Score: score})
		}
	}

	sort.SliceStable(scored, func(i, j int) bool { return scored[i].Score > scored[j].Score })
	if len(scored) > limit {
		scored = scored[:limit]
	}
	return scored
}

// Delete removes the entry for id, reporting whether it existed.
func (s *InMemoryStore) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.deleteLocked(id)
}

// GetByType returns up to limit entries of the given type in insertion order.
func (s *InMemoryStore) GetByType(memoryType core.MemoryType, limit int) []*core.MemoryEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 100
	}
	ids := s.typeIndex[memoryType]
	if len(ids) > limit {
		ids = ids[:limit]
	}
	result := make([]*core.MemoryEntry, 0, len(ids))
	for _, id := range ids {
		if entry, ok := s.entries[id]; ok {
			result = append(result, entry.Clone())
		}
	}
	return result
}

// Len reports the number of stored entries.
func (s *InMemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// ContextMemories returns the memories most relevant to the current working
// context: up to half recent Working entries and half Episodic entries,
// sorted by importance then recency.
func (s *InMemoryStore) ContextMemories(limit int) []*core.MemoryEntry {
	if limit <= 0 {
		limit = 50
	}
	working := s.GetByType(core.Working, limit/2)
	episodic := s.GetByType(core.Episodic, limit/2)

	all := append(working, episodic...)
	sort.SliceStable(all, func(i, j int) bool {
		if all[i].Importance != all[j].Importance {
			return all[i].Importance > all[j].Importance
		}
		return all[i].Timestamp.After(all[j].Timestamp)
	})
	if len(all) > limit {
		all = all[:limit]
	}
	return all
}

func (s *InMemoryStore) deleteLocked(id string) bool {
	entry, ok := s.entries[id]
	if !ok {
		return false
	}
	delete(s.entries, id)
	s.removeFromTypeIndexLocked(entry.Type, id)
	return true
}

func (s *InMemoryStore) typeIndexContainsLocked(t core.MemoryType, id string) bool {
	for _, existing := range s.typeIndex[t] {
		if existing == id {
			return true
		}
	}
	return false
}

func (s *InMemoryStore) removeFromTypeIndexLocked(t core.MemoryType, id string) {
	ids := s.typeIndex[t]
	for i, existing := range ids {
		if existing == id {
			s.typeIndex[t] = append(ids[:i], ids[i+1:]...)
			return
		}
	}
}

// evictIfNeededLocked shrinks the store to evictTargetRatio of capacity once
// the bound is exceeded. Per entry:
//
//	retention = 0.4*importance + 0.3*min(accessCount/10, 1) + 0.3*recency
//
// Lowest scorers go first, so important, frequently used and recent entries
// survive.
func (s *InMemoryStore) evictIfNeededLocked() {
	if len(s.entries) <= s.maxEntries {
		return
	}

	type candidate struct {
		score float64
		id    string
	}
	now := time.Now()
	candidates := make([]candidate, 0, len(s.entries))
	for id, entry := range s.entries {
		access := float64(entry.AccessCount) / 10
		if access > 1 {
			access = 1
		}
		score := entry.Importance*0.4 + access*0.3 + recencyOf(entry.Timestamp, now)*0.3
		candidates = append(candidates, candidate{score: score, id: id})
	}
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].score != candidates[j].score {
			return candidates[i].score < candidates[j].score
		}
		return candidates[i].id < candidates[j].id
	})

	removeCount := len(s.entries) - int(float64(s.maxEntries)*evictTargetRatio)
	removed := 0
	for _, c := range candidates {
		if removed >= removeCount {
			break
		}
		if s.deleteLocked(c.id) {
			removed++
		}
	}
	s.logger.Info("entries evicted", "removed", removed, "remaining", len(s.entries))
}

func relevanceScore(entry *core.MemoryEntry, words []string, now time.Time) float64 {
	content := strings.ToLower(core.ContentText(entry.Content))
	metadata := strings.ToLower(core.ContentText(entry.Metadata))

	var keyword float64
	for _, w := range words {
		if strings.Contains(content, w) {
			keyword++
		}
		if strings.Contains(metadata, w) {
			keyword += 0.5
		}
	}
	return keyword * (1 + entry.Importance + 0.1*recencyOf(entry.Timestamp, now))
}

// recencyOf decays from 1 to 0 over 24 hours.
func recencyOf(ts, now time.Time) float64 {
	r := 1 - now.Sub(ts).Seconds()/86400
	if r < 0 {
		return 0
	}
	return r
}
