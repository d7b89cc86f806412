package session

import (
	"fmt"
	"sync"
	"time"

	"github.com/hupe1980/memorymesh/core"
	"github.com/hupe1980/memorymesh/episode"
	"github.com/hupe1980/memorymesh/logging"
)

// InitialQueryKey is the shared-variable key seeded with the session's query.
const InitialQueryKey = "initial_query"

// recentStepWindow bounds the reasoning history included in relevant context.
const recentStepWindow = 5

// Options configures the session Manager.
type Options struct {
	// Restorer seeds new sessions with context from past episodes. Defaults
	// to a KeywordRestorer over the injected episode index. Set to a NoOp
	// implementation to disable restoration.
	Restorer ContextRestorer

	// Logger receives session lifecycle events. Defaults to NoOpLogger.
	Logger logging.Logger
}

// ToolResult is the latest successful output of one tool within the session.
type ToolResult struct {
	Output   any            `json:"output"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// StepSummary is the compact reasoning-history projection used in context
// assembly.
type StepSummary struct {
	Thought    string  `json:"thought"`
	Action     string  `json:"action,omitempty"`
	Confidence float64 `json:"confidence"`
}

// PastExecution summarizes a similar past tool execution retrieved from the
// shared entry store.
type PastExecution struct {
	ToolName    string  `json:"tool_name"`
	Input       any     `json:"input"`
	Output      any     `json:"output"`
	SuccessRate float64 `json:"success_rate"`
}

// Context is the assembled read path for reasoning/execution collaborators:
// everything a tool needs to know about the session so far.
type Context struct {
	SharedVariables       map[string]any        `json:"shared_variables"`
	PreviousToolResults   map[string]ToolResult `json:"previous_tool_results"`
	ReasoningHistory      []StepSummary         `json:"reasoning_history"`
	SimilarPastExecutions []PastExecution       `json:"similar_past_executions"`
}

// Manager owns the session-scoped working memory of the single currently
// active session. Reasoning steps and tool contexts are mirrored into the
// shared entry store so concurrently executing tools can search them; shared
// variables stay session-local and are last-write-wins.
type Manager struct {
	mu       sync.RWMutex
	entries  core.EntryStore
	episodes *episode.Index
	restorer ContextRestorer
	logger   logging.Logger

	sessionID string
	steps     []core.ReasoningStep
	toolCtxs  map[string][]core.ToolContext
	toolOrder []string
	shared    map[string]core.SharedVariable
}

// NewManager creates a session manager writing through to the given entry
// store and consulting the given episode index for restoration.
func NewManager(entries core.EntryStore, episodes *episode.Index, optFns ...func(*Options)) *Manager {
	opts := Options{}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Restorer == nil {
		opts.Restorer = NewKeywordRestorer()
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}
	return &Manager{
		entries:  entries,
		episodes: episodes,
		restorer: opts.Restorer,
		logger:   opts.Logger,
		toolCtxs: make(map[string][]core.ToolContext),
		shared:   make(map[string]core.SharedVariable),
	}
}

// StartSession begins a new session, replacing any active one. All
// session-scoped state is reset, the query is seeded as the initial_query
// shared variable, and the restoration pass injects context recovered from
// recent episodes. Restoration failures are swallowed: a session always
// starts, at worst with no restored context.
func (m *Manager) StartSession(sessionID, query string) {
	m.mu.Lock()
	m.sessionID = sessionID
	m.steps = nil
	m.toolCtxs = make(map[string][]core.ToolContext)
	m.toolOrder = nil
	m.shared = map[string]core.SharedVariable{
		InitialQueryKey: {Key: InitialQueryKey, Value: query, Timestamp: time.Now()},
	}
	m.mu.Unlock()

	restored, err := m.restorer.Restore(query, m.episodes)
	if err != nil {
		m.logger.Warn("session restoration failed", "session_id", sessionID, "error", err)
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sessionID != sessionID {
		return
	}
	for _, v := range restored {
		v.Restored = true
		if v.Timestamp.IsZero() {
			v.Timestamp = time.Now()
		}
		m.shared[v.Key] = v
	}
	if len(restored) > 0 {
		m.logger.Info("session context restored", "session_id", sessionID, "variables", len(restored))
	}
}

// SessionID returns the id of the active session, empty when none is active.
func (m *Manager) SessionID() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sessionID
}

// Active reports whether a session is in progress.
func (m *Manager) Active() bool { return m.SessionID() != "" }

// AddReasoningStep appends a step to the session and mirrors it into the
// shared entry store as working memory, weighted by the step's confidence.
func (m *Manager) AddReasoningStep(step core.ReasoningStep) error {
	m.mu.Lock()
	m.steps = append(m.steps, step)
	sessionID := m.sessionID
	m.mu.Unlock()

	_, err := m.entries.Store(&core.MemoryEntry{
		Content: map[string]any{
			"step_number":    step.StepNumber,
			"thought":        step.Thought,
			"planned_action": step.PlannedAction,
			"confidence":     step.Confidence,
		},
		Type:       core.Working,
		Importance: step.Confidence,
		Metadata: map[string]any{
			"session_id": sessionID,
			"step_type":  "reasoning",
		},
	})
	if err != nil {
		return fmt.Errorf("mirror reasoning step: %w", err)
	}
	return nil
}

// AddToolContext appends a tool execution to the session. Successful
// executions are also mirrored into the shared entry store as tool context
// so other tools can search them; failures stay session-local.
func (m *Manager) AddToolContext(tc core.ToolContext) error {
	m.mu.Lock()
	if _, ok := m.toolCtxs[tc.ToolName]; !ok {
		m.toolOrder = append(m.toolOrder, tc.ToolName)
	}
	m.toolCtxs[tc.ToolName] = append(m.toolCtxs[tc.ToolName], tc)
	sessionID := m.sessionID
	m.mu.Unlock()

	if !tc.Success {
		return nil
	}
	_, err := m.entries.Store(&core.MemoryEntry{
		Content: map[string]any{
			"tool_name":      tc.ToolName,
			"input":          tc.Input,
			"output":         tc.Output,
			"execution_time": tc.ExecutionTime.Seconds(),
		},
		Type:       core.ToolContextType,
		Importance: 0.7,
		Metadata: map[string]any{
			"session_id": sessionID,
			"tool_name":  tc.ToolName,
			"success":    tc.Success,
		},
	})
	if err != nil {
		return fmt.Errorf("mirror tool context: %w", err)
	}
	return nil
}

// SetSharedVariable records a session-scoped value. Last write wins.
func (m *Manager) SetSharedVariable(key string, value any, sourceTool string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.shared[key] = core.SharedVariable{
		Key:        key,
		Value:      value,
		SourceTool: sourceTool,
		Timestamp:  time.Now(),
	}
}

// SharedVariable returns the value for key, or nil when unset.
func (m *Manager) SharedVariable(key string) any {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if v, ok := m.shared[key]; ok {
		return v.Value
	}
	return nil
}

// AllSharedVariables returns a key-to-value snapshot of the session's shared
// variables.
func (m *Manager) AllSharedVariables() map[string]any {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make(map[string]any, len(m.shared))
	for k, v := range m.shared {
		result[k] = v.Value
	}
	return result
}

// SharedVariables returns a snapshot of the full variable records, including
// source tool and restoration provenance.
func (m *Manager) SharedVariables() map[string]core.SharedVariable {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make(map[string]core.SharedVariable, len(m.shared))
	for k, v := range m.shared {
		result[k] = v
	}
	return result
}

// RelevantContext assembles the read path for one tool execution: all shared
// variables, the latest successful result per tool, the last five reasoning
// steps, and up to three similar past tool executions found in the shared
// entry store.
func (m *Manager) RelevantContext(toolName, query string) *Context {
	m.mu.RLock()
	ctx := &Context{
		SharedVariables:       make(map[string]any, len(m.shared)),
		PreviousToolResults:   map[string]ToolResult{},
		ReasoningHistory:      []StepSummary{},
		SimilarPastExecutions: []PastExecution{},
	}
	for k, v := range m.shared {
		ctx.SharedVariables[k] = v.Value
	}
	for tool, contexts := range m.toolCtxs {
		for i := len(contexts) - 1; i >= 0; i-- {
			if contexts[i].Success {
				ctx.PreviousToolResults[tool] = ToolResult{Output: contexts[i].Output, Metadata: contexts[i].Metadata}
				break
			}
		}
	}
	start := len(m.steps) - recentStepWindow
	if start < 0 {
		start = 0
	}
	for _, step := range m.steps[start:] {
		ctx.ReasoningHistory = append(ctx.ReasoningHistory, StepSummary{
			Thought:    step.Thought,
			Action:     step.PlannedAction,
			Confidence: step.Confidence,
		})
	}
	m.mu.RUnlock()

	for _, hit := range m.entries.Search(toolName+" "+query, core.ToolContextType, 3) {
		content, ok := hit.Entry.Content.(map[string]any)
		if !ok {
			continue
		}
		name, _ := content["tool_name"].(string)
		ctx.SimilarPastExecutions = append(ctx.SimilarPastExecutions, PastExecution{
			ToolName:    name,
			Input:       content["input"],
			Output:      content["output"],
			SuccessRate: hit.Entry.Importance,
		})
	}
	return ctx
}

// ToolContexts returns a snapshot of the session's tool executions keyed by
// tool name, preserving per-tool call order.
func (m *Manager) ToolContexts() map[string][]core.ToolContext {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make(map[string][]core.ToolContext, len(m.toolCtxs))
	for tool, contexts := range m.toolCtxs {
		cp := make([]core.ToolContext, len(contexts))
		copy(cp, contexts)
		result[tool] = cp
	}
	return result
}

// ReasoningSteps returns a snapshot of the session's reasoning steps in call
// order.
func (m *Manager) ReasoningSteps() []core.ReasoningStep {
	m.mu.RLock()
	defer m.mu.RUnlock()
	steps := make([]core.ReasoningStep, len(m.steps))
	copy(steps, m.steps)
	return steps
}

// ToolsUsed returns the distinct tools invoked this session, in first-use
// order.
func (m *Manager) ToolsUsed() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	tools := make([]string, len(m.toolOrder))
	copy(tools, m.toolOrder)
	return tools
}

// EndSession synthesizes a session summary (step count, tools used, variable
// count), commits it as one episodic entry, then clears all session-scoped
// state. A no-op when no session is active.
func (m *Manager) EndSession() error {
	m.mu.Lock()
	if m.sessionID == "" {
		m.mu.Unlock()
		return nil
	}
	sessionID := m.sessionID

	stepSummaries := make([]map[string]any, 0, len(m.steps))
	for _, step := range m.steps {
		stepSummaries = append(stepSummaries, map[string]any{
			"thought": step.Thought,
			"action":  step.PlannedAction,
		})
	}
	variables := make(map[string]any, len(m.shared))
	for k, v := range m.shared {
		variables[k] = v.Value
	}
	summary := map[string]any{
		"session_summary": map[string]any{
			"session_id":             sessionID,
			"total_reasoning_steps":  len(m.steps),
			"tools_used":             append([]string(nil), m.toolOrder...),
			"shared_variables_count": len(m.shared),
		},
		"reasoning_steps":        stepSummaries,
		"final_shared_variables": variables,
	}
	toolsUsed := append([]string(nil), m.toolOrder...)

	m.sessionID = ""
	m.steps = nil
	m.toolCtxs = make(map[string][]core.ToolContext)
	m.toolOrder = nil
	m.shared = make(map[string]core.SharedVariable)
	m.mu.Unlock()

	_, err := m.entries.Store(&core.MemoryEntry{
		Content:    summary,
		Type:       core.Episodic,
		Importance: 0.7,
		Metadata: map[string]any{
			"session_id": sessionID,
			"tools_used": toolsUsed,
		},
	})
	if err != nil {
		return fmt.Errorf("store session summary: %w", err)
	}
	m.logger.Info("session ended", "session_id", sessionID)
	return nil
}
