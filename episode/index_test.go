package episode

import (
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/memorymesh/core"
	"github.com/hupe1980/memorymesh/internal/testutil"
	"github.com/hupe1980/memorymesh/store"
	"github.com/hupe1980/memorymesh/vector"
)

func newTestIndex() (*Index, *store.InMemoryStore, *vector.Index) {
	entries := store.NewInMemoryStore()
	vectors := vector.NewIndex()
	return NewIndex(entries, vectors), entries, vectors
}

func TestStoreEpisode_Projections(t *testing.T) {
	idx, entries, vectors := newTestIndex()

	ep := testutil.NewEpisodeBuilder("ep-1").
		Query("2+2").
		Response("4").
		Tools("calculator").
		Success(true).
		Build()

	id, err := idx.StoreEpisode(ep)
	require.NoError(t, err)
	assert.Equal(t, "ep-1", id)

	// projected into the entry store as an episodic memory
	episodic := entries.GetByType(core.Episodic, 10)
	require.Len(t, episodic, 1)
	assert.Equal(t, "ep-1", episodic[0].Metadata["episode_id"])

	// projected into the vector index
	assert.Equal(t, 1, vectors.Len())
}

func TestStoreEpisode_GeneratesID(t *testing.T) {
	idx, _, _ := newTestIndex()
	id, err := idx.StoreEpisode(testutil.NewEpisodeBuilder("").Query("q").Build())
	require.NoError(t, err)
	assert.NotEmpty(t, id)
	assert.Equal(t, 1, idx.Len())
}

func TestStoreEpisode_Immutable(t *testing.T) {
	idx, _, _ := newTestIndex()
	ep := testutil.NewEpisodeBuilder("ep-1").Query("original").Tools("calculator").Build()
	_, err := idx.StoreEpisode(ep)
	require.NoError(t, err)

	// mutating the caller's episode must not affect the stored record
	ep.Query = "mutated"
	ep.ToolsUsed[0] = "database"

	got, ok := idx.Get("ep-1")
	require.True(t, ok)
	assert.Equal(t, "original", got.Query)
	assert.Equal(t, "calculator", got.ToolsUsed[0])
}

func TestFindSimilar_Scenario(t *testing.T) {
	idx, _, _ := newTestIndex()
	_, err := idx.StoreEpisode(testutil.NewEpisodeBuilder("ep-calc").
		Query("2+2").
		Response("4").
		Tools("calculator").
		Success(true).
		Build())
	require.NoError(t, err)

	matches := idx.FindSimilar("What is 2 plus 2", 3)
	require.NotEmpty(t, matches, "expected the calculator episode within top-3")
	found := false
	for _, m := range matches {
		if m.Episode.ID == "ep-calc" {
			found = true
			assert.Greater(t, m.Similarity, 0.1)
		}
	}
	assert.True(t, found)
}

func TestFindSimilar_SkipsRemovedEpisodes(t *testing.T) {
	idx, _, _ := newTestIndex()
	_, err := idx.StoreEpisode(testutil.NewEpisodeBuilder("ep-gone").Query("ephemeral").Build())
	require.NoError(t, err)
	require.True(t, idx.Remove("ep-gone"))

	for _, m := range idx.FindSimilar("ephemeral", 5) {
		assert.NotEqual(t, "ep-gone", m.Episode.ID)
	}
}

func TestSuccessfulPatterns(t *testing.T) {
	idx, _, _ := newTestIndex()
	_, err := idx.StoreEpisode(testutil.NewEpisodeBuilder("ep-ok").
		Query("calculate the total price").
		Response("42").
		Tools("calculator", "database").
		Success(true).
		Step(core.ReasoningStep{StepNumber: 1, Thought: "multiply unit price by quantity", Confidence: 0.8}).
		Build())
	require.NoError(t, err)
	_, err = idx.StoreEpisode(testutil.NewEpisodeBuilder("ep-fail").
		Query("calculate the total price with tax").
		Response("error").
		Tools("calculator").
		Success(false).
		Build())
	require.NoError(t, err)

	patterns := idx.SuccessfulPatterns("calculate the total price")
	require.NotEmpty(t, patterns)
	for _, p := range patterns {
		assert.NotEqual(t, "ep-fail", p.EpisodeID, "failed episodes must never surface as patterns")
		assert.Greater(t, p.Similarity, 0.3)
	}
	assert.Equal(t, "ep-ok", patterns[0].EpisodeID)
	assert.Equal(t, []string{"calculator", "database"}, patterns[0].ToolSequence)
	assert.Equal(t, []string{"multiply unit price by quantity"}, patterns[0].Reasoning)
}

func TestStats(t *testing.T) {
	idx, _, _ := newTestIndex()

	empty := idx.Stats()
	assert.Equal(t, 0, empty.Total)
	assert.Empty(t, empty.Recent)

	for i, tc := range []struct {
		id      string
		success bool
		dur     time.Duration
		tool    string
	}{
		{"ep-1", true, 2 * time.Second, "calculator"},
		{"ep-2", true, 4 * time.Second, "calculator"},
		{"ep-3", false, 6 * time.Second, "web_search"},
	} {
		_, err := idx.StoreEpisode(testutil.NewEpisodeBuilder(tc.id).
			Query("query").
			Success(tc.success).
			Duration(tc.dur).
			Tools(tc.tool).
			Timestamp(time.Now().Add(time.Duration(i) * time.Millisecond)).
			Build())
		require.NoError(t, err)
	}

	stats := idx.Stats()
	assert.Equal(t, 3, stats.Total)
	assert.Equal(t, 2, stats.Successful)
	assert.Equal(t, 1, stats.Failed)
	assert.InDelta(t, 2.0/3.0, stats.SuccessRate, 1e-9)
	assert.Equal(t, 4*time.Second, stats.AverageDuration)
	assert.Equal(t, 2, stats.ToolUsage["calculator"])
	assert.Equal(t, 1, stats.ToolUsage["web_search"])
	require.Len(t, stats.Recent, 3)
	assert.Equal(t, "ep-3", stats.Recent[0].ID, "most recent episode first")
}

func TestStats_TruncatesLongQueries(t *testing.T) {
	idx, _, _ := newTestIndex()
	long := make([]byte, 150)
	for i := range long {
		long[i] = 'q'
	}
	_, err := idx.StoreEpisode(testutil.NewEpisodeBuilder("ep-long").Query(string(long)).Build())
	require.NoError(t, err)

	stats := idx.Stats()
	require.Len(t, stats.Recent, 1)
	assert.Len(t, stats.Recent[0].Query, 103) // 100 chars plus ellipsis
}

func TestStats_TruncationKeepsValidUTF8(t *testing.T) {
	idx, _, _ := newTestIndex()
	// 3-byte runes, so the 100-byte limit lands mid-rune.
	long := strings.Repeat("ありがとう", 12)
	_, err := idx.StoreEpisode(testutil.NewEpisodeBuilder("ep-multibyte").Query(long).Build())
	require.NoError(t, err)

	stats := idx.Stats()
	require.Len(t, stats.Recent, 1)
	query := stats.Recent[0].Query
	assert.True(t, utf8.ValidString(query))
	assert.True(t, strings.HasSuffix(query, "..."))
	assert.LessOrEqual(t, len(query), 103)
}
