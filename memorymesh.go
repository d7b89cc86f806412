// Package memorymesh provides a high-level façade over the tiered agent
// memory subsystem (entry store, vector index, episode index and session
// context) enabling rapid construction of memory-backed reasoning agents.
// Most applications interact with this package by:
//  1. Creating a MemoryMesh via New() (optionally overriding store capacity,
//     embedding dimension or logger)
//  2. Driving sessions (StartSession/EndSession) around each agent run
//  3. Reading and writing memory through Manager(): ProcessRequest for the
//     unified operations, or the convenience methods (StoreConversation,
//     SharedContext, Stats, ...)
//
// The façade delegates all behavior to manager.Manager while keeping setup
// ergonomics concise. All defaults are safe for local development and
// testing; everything lives in process memory and is lost on restart.
package memorymesh

import (
	"github.com/hupe1980/memorymesh/core"
	"github.com/hupe1980/memorymesh/embedding"
	"github.com/hupe1980/memorymesh/episode"
	"github.com/hupe1980/memorymesh/logging"
	"github.com/hupe1980/memorymesh/manager"
	"github.com/hupe1980/memorymesh/session"
	"github.com/hupe1980/memorymesh/store"
	"github.com/hupe1980/memorymesh/vector"
)

// Options configures the MemoryMesh instance.
type Options struct {
	// MaxEntries bounds the entry store; exceeding it triggers eviction of
	// low-retention entries. Zero means store.DefaultMaxEntries.
	MaxEntries int

	// EmbeddingDims sets the dimension of the deterministic hash embeddings.
	// Zero means embedding.DefaultDims.
	EmbeddingDims int

	// Restorer seeds new sessions with context recovered from past episodes.
	// Defaults to the keyword restorer; use session.NoOpRestorer to disable.
	Restorer session.ContextRestorer

	// Logger (defaults to NoOp logger if nil)
	Logger logging.Logger
}

// MemoryMesh is the high-level façade aggregating the underlying stores and
// the unified memory manager.
type MemoryMesh struct {
	manager *manager.Manager
}

// New creates a new MemoryMesh instance with optional overrides. The entry
// store, vector index, episode index and session manager are wired to share
// state, so an episode stored once is reachable through keyword search,
// similarity search and session restoration alike.
func New(optFns ...func(o *Options)) *MemoryMesh {
	opts := Options{
		MaxEntries:    store.DefaultMaxEntries,
		EmbeddingDims: embedding.DefaultDims,
		Logger:        logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	entries := store.NewInMemoryStore(func(o *store.Options) {
		o.MaxEntries = opts.MaxEntries
		o.Logger = opts.Logger
	})
	vectors := vector.NewIndex(func(o *vector.Options) {
		o.Embedder = embedding.NewHashEmbedder(opts.EmbeddingDims)
	})
	episodes := episode.NewIndex(entries, vectors)
	sessions := session.NewManager(entries, episodes, func(o *session.Options) {
		o.Restorer = opts.Restorer
		o.Logger = opts.Logger
	})

	return &MemoryMesh{
		manager: manager.New(func(o *manager.Options) {
			o.Entries = entries
			o.Vectors = vectors
			o.Episodes = episodes
			o.Session = sessions
			o.Logger = opts.Logger
		}),
	}
}

// Manager returns the unified memory manager.
func (m *MemoryMesh) Manager() *manager.Manager { return m.manager }

// Session returns the session context manager.
func (m *MemoryMesh) Session() *session.Manager { return m.manager.Session() }

// StartSession begins a new session, replacing any active one.
func (m *MemoryMesh) StartSession(sessionID, query string) {
	m.manager.StartSession(sessionID, query)
}

// EndSession commits the active session's summary and clears its state.
func (m *MemoryMesh) EndSession() error { return m.manager.EndSession() }

// ProcessRequest executes one unified memory operation.
func (m *MemoryMesh) ProcessRequest(req core.Request) core.Response {
	return m.manager.ProcessRequest(req)
}
