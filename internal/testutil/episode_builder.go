package testutil

import (
	"time"

	"github.com/hupe1980/memorymesh/core"
)

// EpisodeBuilder helps construct episodes with fluent chaining for tests.
// Example:
//
//	ep := NewEpisodeBuilder("ep-1").Query("2+2").Response("4").Tools("calculator").Success(true).Build()
type EpisodeBuilder struct {
	episode core.Episode
}

// NewEpisodeBuilder creates a new builder for an episode with the given id.
// Use chainable methods then call Build.
func NewEpisodeBuilder(id string) *EpisodeBuilder {
	return &EpisodeBuilder{episode: core.Episode{
		ID:         id,
		Success:    true,
		Importance: 0.7,
		Timestamp:  time.Now(),
		Metadata:   map[string]any{},
	}}
}

// Query sets the user query (chainable).
func (b *EpisodeBuilder) Query(q string) *EpisodeBuilder {
	b.episode.Query = q
	return b
}

// Response sets the assistant response (chainable).
func (b *EpisodeBuilder) Response(r string) *EpisodeBuilder {
	b.episode.Response = r
	return b
}

// Tools sets the tools used during the episode (chainable).
func (b *EpisodeBuilder) Tools(tools ...string) *EpisodeBuilder {
	b.episode.ToolsUsed = tools
	return b
}

// Success sets the outcome flag (chainable).
func (b *EpisodeBuilder) Success(ok bool) *EpisodeBuilder {
	b.episode.Success = ok
	return b
}

// Duration sets the episode duration (chainable).
func (b *EpisodeBuilder) Duration(d time.Duration) *EpisodeBuilder {
	b.episode.Duration = d
	return b
}

// Timestamp sets the episode timestamp (chainable).
func (b *EpisodeBuilder) Timestamp(ts time.Time) *EpisodeBuilder {
	b.episode.Timestamp = ts
	return b
}

// Importance sets the episode importance (chainable).
func (b *EpisodeBuilder) Importance(imp float64) *EpisodeBuilder {
	b.episode.Importance = imp
	return b
}

// Step appends a reasoning step (chainable).
func (b *EpisodeBuilder) Step(step core.ReasoningStep) *EpisodeBuilder {
	b.episode.ReasoningSteps = append(b.episode.ReasoningSteps, step)
	return b
}

// Build returns the constructed episode.
func (b *EpisodeBuilder) Build() *core.Episode {
	return b.episode.Clone()
}
