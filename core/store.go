package core

// EntryStore defines storage + retrieval (search) for typed memory entries.
// Implementations self-bound their size via eviction rather than refusing
// writes; retrieval mutates access statistics. Short method names align with
// other *Store interfaces.
type EntryStore interface {
	// Store upserts an entry, deriving its id from content when unset, and
	// returns the id. The store may evict low-retention entries afterwards.
	Store(entry *MemoryEntry) (string, error)
	// Retrieve returns the entry for id, bumping its access statistics.
	// ErrNotFound when the id is unknown.
	Retrieve(id string) (*MemoryEntry, error)
	// Search returns entries relevant to the query, optionally filtered by
	// type (empty means all types), ranked descending and truncated to limit.
	Search(query string, memoryType MemoryType, limit int) []ScoredEntry
	// Delete removes the entry for id, reporting whether it existed.
	Delete(id string) bool
	// GetByType returns up to limit entries of the given type.
	GetByType(memoryType MemoryType, limit int) []*MemoryEntry
	// Len reports the number of stored entries.
	Len() int
}
