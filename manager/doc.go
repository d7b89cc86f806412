// Package manager provides the unified memory façade: a single request-based
// entry point (store, retrieve, search, update, delete) fanned out across the
// entry store, vector index, episode index and session manager, plus
// convenience operations for agent collaborators (conversation history,
// shared context, stats, cleanup). All internal failures are converted into
// structured responses; callers never see a panic.
package manager
