package core

import "time"

// Episode is the immutable record of one complete agent interaction. Episodes
// are write-once: after storage they are never mutated, only read (and
// eventually dropped by cleanup). Each stored episode also projects one
// Episodic MemoryEntry and one vector index entry so it participates in
// keyword and similarity search.
type Episode struct {
	ID             string          `json:"id"`
	Query          string          `json:"query"`
	Response       string          `json:"response"`
	ReasoningSteps []ReasoningStep `json:"reasoning_steps"`
	ToolsUsed      []string        `json:"tools_used"`
	Success        bool            `json:"success"`
	Duration       time.Duration   `json:"duration"`
	Timestamp      time.Time       `json:"timestamp"`
	Importance     float64         `json:"importance"`
	Metadata       map[string]any  `json:"metadata,omitempty"`
}

// Clone returns a deep copy of the episode (slices and metadata map) safe for
// handing to callers without exposing internal state.
func (e *Episode) Clone() *Episode {
	clone := *e
	clone.ReasoningSteps = make([]ReasoningStep, len(e.ReasoningSteps))
	copy(clone.ReasoningSteps, e.ReasoningSteps)
	clone.ToolsUsed = make([]string, len(e.ToolsUsed))
	copy(clone.ToolsUsed, e.ToolsUsed)
	if e.Metadata != nil {
		clone.Metadata = make(map[string]any, len(e.Metadata))
		for k, v := range e.Metadata {
			clone.Metadata[k] = v
		}
	}
	return &clone
}
