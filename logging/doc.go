// Package logging provides a minimal logging interface and adapters for
// MemoryMesh.
//
// The Logger interface defines the standard logging methods (Debug, Info,
// Warn, Error) that the stores and managers use for observability. This
// package includes:
//
//   - Logger interface for dependency injection
//   - SlogAdapter wrapping Go's structured logging
//   - NoOpLogger for silent operation (testing, minimal setups)
//   - MemLogger with contextual helpers and memory-domain logging methods
//
// Usage:
//
//	logger := logging.NewSlogLogger(logging.LogLevelInfo, "json", false)
//	mem := memorymesh.New(func(o *memorymesh.Options) { o.Logger = logger })
//
// The design intentionally keeps the interface minimal to avoid vendor
// lock-in while supporting structured logging where available.
package logging
