package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/memorymesh/core"
	"github.com/hupe1980/memorymesh/episode"
	"github.com/hupe1980/memorymesh/internal/testutil"
	"github.com/hupe1980/memorymesh/store"
	"github.com/hupe1980/memorymesh/vector"
)

// MockRestorer for verifying restorer wiring
type MockRestorer struct {
	mock.Mock
}

func (m *MockRestorer) Restore(query string, episodes *episode.Index) ([]core.SharedVariable, error) {
	args := m.Called(query, episodes)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]core.SharedVariable), args.Error(1)
}

func newTestManager() (*Manager, *store.InMemoryStore, *episode.Index) {
	entries := store.NewInMemoryStore()
	episodes := episode.NewIndex(entries, vector.NewIndex())
	return NewManager(entries, episodes), entries, episodes
}

func TestStartSession_SeedsInitialQuery(t *testing.T) {
	mgr, _, _ := newTestManager()
	mgr.StartSession("s1", "what is the answer")

	assert.True(t, mgr.Active())
	assert.Equal(t, "s1", mgr.SessionID())

	vars := mgr.AllSharedVariables()
	require.Len(t, vars, 1, "a fresh session holds only the initial query")
	assert.Equal(t, "what is the answer", vars[InitialQueryKey])
}

func TestStartSession_ReplacesActiveSession(t *testing.T) {
	mgr, _, _ := newTestManager()
	mgr.StartSession("s1", "first")
	mgr.SetSharedVariable("leaky", 42, "calculator")

	mgr.StartSession("s2", "second")
	assert.Equal(t, "s2", mgr.SessionID())
	assert.Nil(t, mgr.SharedVariable("leaky"), "state from the replaced session must be gone")
	assert.Equal(t, "second", mgr.SharedVariable(InitialQueryKey))
}

func TestSessionIsolation(t *testing.T) {
	mgr, _, _ := newTestManager()
	mgr.StartSession("a", "query a")
	mgr.SetSharedVariable("only_in_a", "value", "")
	require.NoError(t, mgr.EndSession())

	mgr.StartSession("b", "query b")
	assert.Nil(t, mgr.SharedVariable("only_in_a"))
	vars := mgr.AllSharedVariables()
	assert.Len(t, vars, 1)
	assert.Equal(t, "query b", vars[InitialQueryKey])
}

func TestSharedVariables_LastWriteWins(t *testing.T) {
	mgr, _, _ := newTestManager()
	mgr.StartSession("s1", "q")

	mgr.SetSharedVariable("k", 1, "calculator")
	mgr.SetSharedVariable("k", 2, "database")
	assert.Equal(t, 2, mgr.SharedVariable("k"))

	record := mgr.SharedVariables()["k"]
	assert.Equal(t, "database", record.SourceTool)
	assert.False(t, record.Restored)
}

func TestAddReasoningStep_MirrorsToEntryStore(t *testing.T) {
	mgr, entries, _ := newTestManager()
	mgr.StartSession("s1", "q")

	require.NoError(t, mgr.AddReasoningStep(core.ReasoningStep{
		StepNumber: 1,
		Thought:    "I should use the calculator",
		Confidence: 0.8,
	}))

	assert.Len(t, mgr.ReasoningSteps(), 1)
	working := entries.GetByType(core.Working, 10)
	require.Len(t, working, 1)
	assert.Equal(t, "s1", working[0].Metadata["session_id"])
	assert.Equal(t, 0.8, working[0].Importance)
}

func TestAddToolContext_MirrorsOnlySuccesses(t *testing.T) {
	mgr, entries, _ := newTestManager()
	mgr.StartSession("s1", "q")

	require.NoError(t, mgr.AddToolContext(core.ToolContext{
		ToolName: "calculator", Input: "2+3", Output: 5.0, Success: true,
	}))
	require.NoError(t, mgr.AddToolContext(core.ToolContext{
		ToolName: "database", Input: "get x", Success: false, ErrorMessage: "no such key",
	}))

	assert.Equal(t, []string{"calculator", "database"}, mgr.ToolsUsed())
	assert.Len(t, mgr.ToolContexts()["database"], 1, "failures stay in the session record")

	stored := entries.GetByType(core.ToolContextType, 10)
	require.Len(t, stored, 1, "failed executions are not mirrored into the shared store")
	assert.Equal(t, "calculator", stored[0].Metadata["tool_name"])
	assert.Equal(t, 0.7, stored[0].Importance)
}

func TestRelevantContext(t *testing.T) {
	mgr, _, _ := newTestManager()
	mgr.StartSession("s1", "compute totals")
	mgr.SetSharedVariable("budget", 100, "database")

	for i := 1; i <= 7; i++ {
		require.NoError(t, mgr.AddReasoningStep(core.ReasoningStep{
			StepNumber: i, Thought: "step thought", PlannedAction: "calculator", Confidence: 0.5,
		}))
	}
	require.NoError(t, mgr.AddToolContext(core.ToolContext{
		ToolName: "calculator", Input: "1+1", Output: 2.0, Success: false,
	}))
	require.NoError(t, mgr.AddToolContext(core.ToolContext{
		ToolName: "calculator", Input: "2+2", Output: 4.0, Success: true,
	}))

	ctx := mgr.RelevantContext("calculator", "compute totals")

	assert.Equal(t, 100, ctx.SharedVariables["budget"])
	require.Contains(t, ctx.PreviousToolResults, "calculator")
	assert.Equal(t, 4.0, ctx.PreviousToolResults["calculator"].Output, "latest successful result wins")
	assert.Len(t, ctx.ReasoningHistory, 5, "history is capped at the last five steps")
	assert.NotEmpty(t, ctx.SimilarPastExecutions)
	assert.LessOrEqual(t, len(ctx.SimilarPastExecutions), 3)
}

func TestEndSession_CommitsSummaryAndClears(t *testing.T) {
	mgr, entries, _ := newTestManager()
	mgr.StartSession("s1", "q")
	require.NoError(t, mgr.AddReasoningStep(core.ReasoningStep{StepNumber: 1, Thought: "t", Confidence: 0.5}))
	require.NoError(t, mgr.AddToolContext(core.ToolContext{ToolName: "calculator", Success: true}))
	mgr.SetSharedVariable("k", "v", "calculator")

	require.NoError(t, mgr.EndSession())

	assert.False(t, mgr.Active())
	assert.Empty(t, mgr.AllSharedVariables())
	assert.Empty(t, mgr.ReasoningSteps())
	assert.Empty(t, mgr.ToolsUsed())

	episodic := entries.GetByType(core.Episodic, 10)
	require.Len(t, episodic, 1)
	content, ok := episodic[0].Content.(map[string]any)
	require.True(t, ok)
	summary, ok := content["session_summary"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "s1", summary["session_id"])
	assert.Equal(t, 1, summary["total_reasoning_steps"])
	assert.Equal(t, []string{"calculator"}, summary["tools_used"])
}

func TestEndSession_NoActiveSession(t *testing.T) {
	mgr, entries, _ := newTestManager()
	require.NoError(t, mgr.EndSession())
	assert.Empty(t, entries.GetByType(core.Episodic, 10), "ending without a session writes nothing")
}

func TestStartSession_UsesInjectedRestorer(t *testing.T) {
	entries := store.NewInMemoryStore()
	episodes := episode.NewIndex(entries, vector.NewIndex())
	restorer := &MockRestorer{}
	restorer.On("Restore", "the query", episodes).Return([]core.SharedVariable{
		{Key: "restored_key", Value: "restored_value", SourceTool: "calculator", Timestamp: time.Now()},
	}, nil)

	mgr := NewManager(entries, episodes, func(o *Options) { o.Restorer = restorer })
	mgr.StartSession("s1", "the query")

	restorer.AssertExpectations(t)
	assert.Equal(t, "restored_value", mgr.SharedVariable("restored_key"))
	assert.True(t, mgr.SharedVariables()["restored_key"].Restored, "injected variables carry restoration provenance")
}

func TestStartSession_RestorerFailureIsSilent(t *testing.T) {
	entries := store.NewInMemoryStore()
	episodes := episode.NewIndex(entries, vector.NewIndex())
	restorer := &MockRestorer{}
	restorer.On("Restore", mock.Anything, mock.Anything).Return(nil, assert.AnError)

	mgr := NewManager(entries, episodes, func(o *Options) { o.Restorer = restorer })
	mgr.StartSession("s1", "anything")

	assert.True(t, mgr.Active(), "restoration failure must not abort session start")
	assert.Len(t, mgr.AllSharedVariables(), 1)
}

func TestRestorationEndToEnd(t *testing.T) {
	mgr, _, episodes := newTestManager()
	_, err := episodes.StoreEpisode(testutil.NewEpisodeBuilder("ep-1").
		Query("2+3").
		Response("5").
		Tools("calculator").
		Success(true).
		Build())
	require.NoError(t, err)

	mgr.StartSession("s2", "what was my last calculation")

	assert.Equal(t, 5.0, mgr.SharedVariable("last_calculation_result"))
	record := mgr.SharedVariables()["last_calculation_result"]
	assert.True(t, record.Restored)
	assert.Equal(t, "calculator", record.SourceTool)
}
