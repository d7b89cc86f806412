package core

import "time"

// ReasoningStep is a single step in a session's reasoning process. Steps are
// appended in call order and observed FIFO within the session.
type ReasoningStep struct {
	StepNumber    int            `json:"step_number"`
	Thought       string         `json:"thought"`
	PlannedAction string         `json:"planned_action,omitempty"`
	ActionInput   any            `json:"action_input,omitempty"`
	Observation   string         `json:"observation,omitempty"`
	Confidence    float64        `json:"confidence"`
	Metadata      map[string]any `json:"metadata,omitempty"`
}

// ToolContext captures one tool execution within a session so later tools and
// reasoning steps can build on its result.
type ToolContext struct {
	ToolName      string         `json:"tool_name"`
	Input         any            `json:"input"`
	Output        any            `json:"output"`
	Success       bool           `json:"success"`
	ErrorMessage  string         `json:"error_message,omitempty"`
	ExecutionTime time.Duration  `json:"execution_time"`
	Metadata      map[string]any `json:"metadata,omitempty"`
}

// SharedVariable is a session-scoped named value written by one tool and read
// by any subsequent tool in the same session. Writes are last-write-wins.
// Restored is set on variables seeded from a previous session's episodes by
// the restoration pass.
type SharedVariable struct {
	Key        string    `json:"key"`
	Value      any       `json:"value"`
	SourceTool string    `json:"source_tool,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
	Restored   bool      `json:"from_previous_session,omitempty"`
}
