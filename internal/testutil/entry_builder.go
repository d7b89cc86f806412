package testutil

import "github.com/hupe1980/memorymesh/core"

// EntryBuilder helps construct memory entries with fluent chaining for tests.
// Example:
//
//	entry := NewEntryBuilder().Content("note").Type(core.Working).Importance(0.5).Build()
type EntryBuilder struct {
	entry core.MemoryEntry
}

// NewEntryBuilder creates a new builder with sensible defaults (semantic
// type, importance 0.5, empty metadata).
func NewEntryBuilder() *EntryBuilder {
	return &EntryBuilder{entry: core.MemoryEntry{
		Type:       core.Semantic,
		Importance: 0.5,
		Metadata:   map[string]any{},
	}}
}

// ID sets an explicit entry id (chainable); leave unset for a content hash.
func (b *EntryBuilder) ID(id string) *EntryBuilder {
	b.entry.ID = id
	return b
}

// Content sets the entry content (chainable).
func (b *EntryBuilder) Content(content any) *EntryBuilder {
	b.entry.Content = content
	return b
}

// Type sets the memory type (chainable).
func (b *EntryBuilder) Type(t core.MemoryType) *EntryBuilder {
	b.entry.Type = t
	return b
}

// Importance sets the entry importance (chainable).
func (b *EntryBuilder) Importance(imp float64) *EntryBuilder {
	b.entry.Importance = imp
	return b
}

// Meta sets a metadata key/value pair (chainable).
func (b *EntryBuilder) Meta(key string, val any) *EntryBuilder {
	b.entry.Metadata[key] = val
	return b
}

// Build returns the constructed entry.
func (b *EntryBuilder) Build() *core.MemoryEntry {
	return b.entry.Clone()
}
