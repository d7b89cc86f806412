// Package session manages the working memory of one bounded unit of agent
// work: reasoning steps, tool execution contexts and shared variables.
//
// A Manager holds exactly one active session at a time; starting a new
// session replaces the previous one and ending it folds the session into a
// single episodic summary before clearing all session-scoped state. Session
// memory never leaks forward except through the restoration pass, which
// seeds a new session with typed values recovered from recent episodes
// (best-effort, never correctness-critical).
//
// The restoration heuristic lives behind the ContextRestorer interface so
// the keyword classifier can be replaced without touching the Manager's
// core contract.
package session
