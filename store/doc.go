// Package store contains concrete EntryStore implementations. The store
// interface and entry types reside in the core package. Import
// github.com/hupe1980/memorymesh/core and depend on core.EntryStore in your
// code; select an implementation (like the in-memory store below) at wiring
// time.
//
// Rationale: keeps domain contracts centralized while allowing pluggable
// backends (durable stores, remote caches, etc.) to be added without
// introducing dependency cycles.
package store
