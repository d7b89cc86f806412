// Package episode maintains the immutable record of completed agent
// interactions.
//
// Episodes are write-once history: external planners match a new query to a
// previously successful strategy without re-deriving it. Each stored episode
// is projected into the shared entry store (as an episodic memory) and into
// the vector index (as an embedding over its query, response and tool list),
// so it participates in both keyword and similarity search.
package episode
