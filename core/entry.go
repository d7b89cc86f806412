package core

import (
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// MemoryType classifies an entry's role and retention behavior within the
// agent's tiered memory.
type MemoryType string

const (
	// ShortTerm holds current conversation/session material.
	ShortTerm MemoryType = "short_term"
	// Working holds active reasoning context.
	Working MemoryType = "working"
	// Episodic holds past experiences and conversations.
	Episodic MemoryType = "episodic"
	// Semantic holds factual knowledge.
	Semantic MemoryType = "semantic"
	// Procedural holds how-to knowledge and patterns.
	Procedural MemoryType = "procedural"
	// ToolContextType holds context shared between tools.
	ToolContextType MemoryType = "tool_context"
	// PlanMemory holds planning and execution history.
	PlanMemory MemoryType = "plan_memory"
)

// MemoryTypes enumerates every known memory type in declaration order.
var MemoryTypes = []MemoryType{
	ShortTerm, Working, Episodic, Semantic, Procedural, ToolContextType, PlanMemory,
}

// MemoryEntry is a single stored unit of recall. Identity derives from content
// (same content produces the same ID) so repeated stores are idempotent
// upserts. Access statistics are mutated on retrieval; everything else is set
// at store time.
type MemoryEntry struct {
	ID           string         `json:"id"`
	Content      any            `json:"content"`
	Type         MemoryType     `json:"memory_type"`
	Timestamp    time.Time      `json:"timestamp"`
	LastAccessed time.Time      `json:"last_accessed"`
	AccessCount  int            `json:"access_count"`
	Importance   float64        `json:"importance"` // 0.0 to 1.0
	Metadata     map[string]any `json:"metadata"`
}

// Clone returns a copy of the entry safe for independent mutation. Content is
// shared (entries treat content as immutable); the metadata map is copied.
func (e *MemoryEntry) Clone() *MemoryEntry {
	clone := *e
	clone.Metadata = make(map[string]any, len(e.Metadata))
	for k, v := range e.Metadata {
		clone.Metadata[k] = v
	}
	return &clone
}

// NewID returns a new random unique identifier.
func NewID() string { return uuid.NewString() }

// ContentID derives a stable identifier from arbitrary content. Equal content
// always yields the same ID, which is what makes entry stores idempotent.
func ContentID(content any) string {
	sum := md5.Sum([]byte(ContentText(content)))
	return hex.EncodeToString(sum[:])
}

// ContentText renders arbitrary content as text, for hashing and embedding.
// Strings pass through; everything else is JSON-encoded. Map keys are sorted
// by the encoder, so the rendering is deterministic.
func ContentText(content any) string {
	if s, ok := content.(string); ok {
		return s
	}
	b, err := json.Marshal(content)
	if err != nil {
		return fmt.Sprintf("%v", content)
	}
	return string(b)
}
