package manager

import (
	"fmt"
	"time"

	"github.com/hupe1980/memorymesh/core"
	"github.com/hupe1980/memorymesh/episode"
	"github.com/hupe1980/memorymesh/session"
)

// StoreConversation builds and stores a full episode in one call. Successful
// conversations get importance 0.8, failed ones 0.3.
func (m *Manager) StoreConversation(query, response string, toolsUsed []string, steps []core.ReasoningStep, success bool, duration time.Duration) (string, error) {
	importance := 0.3
	if success {
		importance = 0.8
	}
	id, err := m.episodes.StoreEpisode(&core.Episode{
		Query:          query,
		Response:       response,
		ReasoningSteps: steps,
		ToolsUsed:      toolsUsed,
		Success:        success,
		Duration:       duration,
		Importance:     importance,
		Metadata:       map[string]any{"conversation": true},
	})
	if err != nil {
		return "", fmt.Errorf("store conversation: %w", err)
	}
	return id, nil
}

// ConversationHistory returns up to limit stored conversations, most recent
// first, optionally restricted to successful ones.
func (m *Manager) ConversationHistory(limit int, successOnly bool) []*core.Episode {
	if limit <= 0 {
		limit = DefaultSearchLimit
	}
	history := make([]*core.Episode, 0, limit)
	for _, ep := range m.episodes.Episodes() {
		if successOnly && !ep.Success {
			continue
		}
		history = append(history, ep)
		if len(history) == limit {
			break
		}
	}
	return history
}

// FindSimilarConversations returns past episodes ranked by similarity to the
// query.
func (m *Manager) FindSimilarConversations(query string, topK int) []episode.Match {
	return m.episodes.FindSimilar(query, topK)
}

// SuccessfulPatterns returns the tool sequences and reasoning summaries of
// successful past episodes similar to the query, for planners that want to
// reuse strategies that worked before.
func (m *Manager) SuccessfulPatterns(query string) []episode.Pattern {
	return m.episodes.SuccessfulPatterns(query)
}

// SharedContext assembles the session context relevant to one tool: shared
// variables, previous tool results, recent reasoning and similar past
// executions.
func (m *Manager) SharedContext(toolName string) *session.Context {
	return m.session.RelevantContext(toolName, "")
}

// SetSharedVariable records a session-scoped value and persists it as a
// tool-context entry so it survives into cross-session search.
func (m *Manager) SetSharedVariable(key string, value any, sourceTool string) error {
	m.session.SetSharedVariable(key, value, sourceTool)
	_, err := m.entries.Store(&core.MemoryEntry{
		Content: map[string]any{
			"key":         key,
			"value":       value,
			"source_tool": sourceTool,
		},
		Type:       core.ToolContextType,
		Importance: 0.6,
		Metadata: map[string]any{
			"shared_variable": true,
			"key":             key,
			"session_id":      m.session.SessionID(),
		},
	})
	if err != nil {
		return fmt.Errorf("persist shared variable: %w", err)
	}
	return nil
}

// SharedVariable returns the session-scoped value for key, or nil when unset.
func (m *Manager) SharedVariable(key string) any {
	return m.session.SharedVariable(key)
}

// Remember stores content directly, returning the entry id. It is the
// convenience path for planner collaborators that do not build requests.
func (m *Manager) Remember(content any, memoryType core.MemoryType, importance float64, metadata map[string]any) (string, error) {
	resp := m.ProcessRequest(core.Request{
		Operation:  core.OpStore,
		Content:    content,
		Type:       memoryType,
		Importance: importance,
		Metadata:   metadata,
	})
	if !resp.Success {
		return "", fmt.Errorf("remember: %s", resp.Error)
	}
	data, ok := resp.Data.(map[string]any)
	if !ok {
		return "", fmt.Errorf("remember: unexpected response shape %T", resp.Data)
	}
	id, _ := data["entry_store"].(string)
	return id, nil
}

// SearchByType runs a type-filtered search and returns the merged results,
// or nil when the search fails.
func (m *Manager) SearchByType(query string, memoryType core.MemoryType, limit int) []core.SearchResult {
	resp := m.ProcessRequest(core.Request{
		Operation: core.OpSearch,
		Query:     query,
		Type:      memoryType,
		Limit:     limit,
	})
	if !resp.Success {
		return nil
	}
	results, _ := resp.Data.([]core.SearchResult)
	return results
}

// Stats aggregates counts across all four stores.
type Stats struct {
	TotalEntries    int            `json:"total_entries"`
	EntriesByType   map[string]int `json:"entries_by_type"`
	VectorEntries   int            `json:"vector_entries"`
	Episodes        episode.Stats  `json:"episodes"`
	ActiveSession   string         `json:"active_session,omitempty"`
	SessionSteps    int            `json:"session_steps"`
	SessionTools    int            `json:"session_tools"`
	SharedVariables int            `json:"shared_variables"`
}

// Stats returns a snapshot of the memory subsystem: entry counts per type,
// vector and episode index sizes, episode success aggregates, and the active
// session's dimensions.
func (m *Manager) Stats() Stats {
	stats := Stats{
		TotalEntries:  m.entries.Len(),
		EntriesByType: make(map[string]int, len(core.MemoryTypes)),
		VectorEntries: m.vectors.Len(),
		Episodes:      m.episodes.Stats(),
	}
	for _, t := range core.MemoryTypes {
		if n := len(m.entries.GetByType(t, stats.TotalEntries)); n > 0 {
			stats.EntriesByType[string(t)] = n
		}
	}
	if m.session.Active() {
		stats.ActiveSession = m.session.SessionID()
		stats.SessionSteps = len(m.session.ReasoningSteps())
		stats.SessionTools = len(m.session.ToolsUsed())
		stats.SharedVariables = len(m.session.AllSharedVariables())
	}
	return stats
}

// CleanupOldMemories drops low-importance episodes older than daysOld,
// together with their entry-store and vector-index projections, and returns
// how many were removed. High-importance episodes are kept regardless of age.
func (m *Manager) CleanupOldMemories(daysOld int) int {
	cutoff := time.Now().AddDate(0, 0, -daysOld)
	removed := 0
	for _, ep := range m.episodes.Episodes() {
		if ep.Timestamp.Before(cutoff) && ep.Importance < 0.3 {
			if m.episodes.RemoveWithProjections(ep.ID) {
				removed++
			}
		}
	}
	if removed > 0 {
		m.logger.Info("old memories cleaned up", "removed", removed, "days_old", daysOld)
	}
	return removed
}
