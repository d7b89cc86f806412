package manager

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/hupe1980/memorymesh/core"
	"github.com/hupe1980/memorymesh/episode"
	"github.com/hupe1980/memorymesh/logging"
	"github.com/hupe1980/memorymesh/session"
	"github.com/hupe1980/memorymesh/store"
	"github.com/hupe1980/memorymesh/vector"
)

// DefaultSearchLimit is applied when a search request does not set a limit.
const DefaultSearchLimit = 10

// Options configures the Manager. Any store left nil is constructed with
// defaults; supplying your own lets several managers share one store or swap
// in alternative implementations.
type Options struct {
	Entries  core.EntryStore
	Vectors  *vector.Index
	Episodes *episode.Index
	Session  *session.Manager
	Logger   logging.Logger
}

// Manager is the unified façade over all memory stores. One request-based
// entry point covers the five memory operations; convenience methods cover
// the common collaborator paths (conversations, shared context, stats).
type Manager struct {
	entries  core.EntryStore
	vectors  *vector.Index
	episodes *episode.Index
	session  *session.Manager
	logger   logging.Logger
}

// New creates a manager. With no options every store is freshly constructed
// and privately owned; the episode index and session manager write through to
// the same entry store and vector index.
func New(optFns ...func(*Options)) *Manager {
	opts := Options{}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Entries == nil {
		opts.Entries = store.NewInMemoryStore()
	}
	if opts.Vectors == nil {
		opts.Vectors = vector.NewIndex()
	}
	if opts.Episodes == nil {
		opts.Episodes = episode.NewIndex(opts.Entries, opts.Vectors)
	}
	if opts.Session == nil {
		opts.Session = session.NewManager(opts.Entries, opts.Episodes)
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}
	return &Manager{
		entries:  opts.Entries,
		vectors:  opts.Vectors,
		episodes: opts.Episodes,
		session:  opts.Session,
		logger:   opts.Logger,
	}
}

// Session returns the session manager so reasoning collaborators can drive
// the session lifecycle directly.
func (m *Manager) Session() *session.Manager { return m.session }

// StartSession begins a new session, replacing any active one.
func (m *Manager) StartSession(sessionID, query string) {
	m.session.StartSession(sessionID, query)
}

// EndSession commits the active session's summary and clears its state.
func (m *Manager) EndSession() error { return m.session.EndSession() }

// ProcessRequest executes one memory operation and always returns a
// structured response: failures, including panics in downstream stores, are
// reported via Success=false and Error rather than surfacing to the caller.
// Every response carries a sortable request id in its metadata.
func (m *Manager) ProcessRequest(req core.Request) (resp core.Response) {
	requestID := ulid.Make().String()
	defer func() {
		if r := recover(); r != nil {
			m.logger.Error("memory operation panicked", "operation", req.Operation, "request_id", requestID, "panic", r)
			resp = failure(requestID, fmt.Errorf("%s: internal failure: %v", req.Operation, r))
		}
	}()

	var err error
	switch req.Operation {
	case core.OpStore:
		resp, err = m.storeOp(req)
	case core.OpRetrieve:
		resp, err = m.retrieveOp(req)
	case core.OpSearch:
		resp, err = m.searchOp(req)
	case core.OpUpdate:
		resp, err = m.updateOp(req)
	case core.OpDelete:
		resp, err = m.deleteOp(req)
	default:
		err = fmt.Errorf("%w: unknown operation %q", core.ErrInvalidRequest, req.Operation)
	}
	if err != nil {
		m.logger.Warn("memory operation failed", "operation", req.Operation, "request_id", requestID, "error", err)
		return failure(requestID, err)
	}

	if resp.Metadata == nil {
		resp.Metadata = map[string]any{}
	}
	resp.Metadata["request_id"] = requestID
	return resp
}

func failure(requestID string, err error) core.Response {
	return core.Response{
		Success:  false,
		Error:    err.Error(),
		Metadata: map[string]any{"request_id": requestID},
	}
}

// storeOp writes the content into the entry store, mirrors textual and map
// content into the vector index, and folds recognizable working or
// tool-context shapes into the active session.
func (m *Manager) storeOp(req core.Request) (core.Response, error) {
	if req.Content == nil {
		return core.Response{}, fmt.Errorf("%w: store requires content", core.ErrInvalidRequest)
	}
	memoryType := req.Type
	if memoryType == "" {
		memoryType = core.ShortTerm
	}

	id, err := m.entries.Store(&core.MemoryEntry{
		Content:    req.Content,
		Type:       memoryType,
		Importance: req.Importance,
		Metadata:   req.Metadata,
	})
	if err != nil {
		return core.Response{}, fmt.Errorf("store: %w", err)
	}
	data := map[string]any{"entry_store": id}

	if mirrorable(req.Content) {
		meta := map[string]any{"entry_id": id, "memory_type": string(memoryType)}
		for k, v := range req.Metadata {
			meta[k] = v
		}
		data["vector_index"] = m.vectors.AddEntry(req.Content, meta, req.Importance)
	}

	m.foldIntoSession(memoryType, req.Content, req.Importance)

	m.logger.Debug("memory stored", "entry_id", id, "memory_type", string(memoryType))
	return core.Response{Success: true, Data: data, Count: 1}, nil
}

// mirrorable reports whether content has a meaningful text rendering worth
// indexing for similarity search.
func mirrorable(content any) bool {
	switch content.(type) {
	case string, map[string]any:
		return true
	default:
		return false
	}
}

// foldIntoSession feeds working and tool-context content with a recognizable
// shape into the active session, so memory written through the unified
// request path still shows up in the session's reasoning history and tool
// results. Content of other shapes is left alone.
func (m *Manager) foldIntoSession(memoryType core.MemoryType, content any, importance float64) {
	if !m.session.Active() {
		return
	}
	fields, ok := content.(map[string]any)
	if !ok {
		return
	}

	switch memoryType {
	case core.Working:
		thought, ok := fields["thought"].(string)
		if !ok {
			return
		}
		step := core.ReasoningStep{Thought: thought, Confidence: importance}
		if action, ok := fields["planned_action"].(string); ok {
			step.PlannedAction = action
		}
		if n, ok := fields["step_number"].(int); ok {
			step.StepNumber = n
		}
		if err := m.session.AddReasoningStep(step); err != nil {
			m.logger.Warn("session fold failed", "error", err)
		}
	case core.ToolContextType:
		toolName, ok := fields["tool_name"].(string)
		if !ok {
			return
		}
		tc := core.ToolContext{ToolName: toolName, Input: fields["input"], Output: fields["output"]}
		if success, ok := fields["success"].(bool); ok {
			tc.Success = success
		}
		if err := m.session.AddToolContext(tc); err != nil {
			m.logger.Warn("session fold failed", "error", err)
		}
	}
}

// retrieveOp fetches by id, consulting the entry store first and the episode
// index second.
func (m *Manager) retrieveOp(req core.Request) (core.Response, error) {
	if req.MemoryID == "" {
		return core.Response{}, fmt.Errorf("%w: retrieve requires a memory id", core.ErrInvalidRequest)
	}

	entry, err := m.entries.Retrieve(req.MemoryID)
	if err == nil {
		return core.Response{Success: true, Data: entry, Count: 1}, nil
	}
	if !errors.Is(err, core.ErrNotFound) {
		return core.Response{}, fmt.Errorf("retrieve: %w", err)
	}
	if ep, ok := m.episodes.Get(req.MemoryID); ok {
		return core.Response{Success: true, Data: ep, Count: 1}, nil
	}
	return core.Response{}, fmt.Errorf("retrieve %s: %w", req.MemoryID, core.ErrNotFound)
}

// searchOp fans the query out to every store that can answer it: the entry
// store and vector index always, the episode index when the type is unset or
// episodic. A type filter restricts vector hits to entries mirrored with that
// memory type. Per-source scores are normalized to [0,1] before the merged
// ranking; the source's raw score stays available in each result's metadata.
func (m *Manager) searchOp(req core.Request) (core.Response, error) {
	if req.Query == "" {
		return core.Response{}, fmt.Errorf("%w: search requires a query", core.ErrInvalidRequest)
	}
	limit := req.Limit
	if limit <= 0 {
		limit = DefaultSearchLimit
	}
	half := limit / 2
	if half < 1 {
		half = 1
	}
	start := time.Now()

	var results []core.SearchResult
	sources := map[string]int{}

	entryHits := m.entries.Search(req.Query, req.Type, limit)
	var maxScore float64
	for _, hit := range entryHits {
		if hit.Score > maxScore {
			maxScore = hit.Score
		}
	}
	for _, hit := range entryHits {
		score := 1.0
		if maxScore > 0 {
			score = hit.Score / maxScore
		}
		results = append(results, core.SearchResult{
			Source:    "entry_store",
			ID:        hit.Entry.ID,
			Type:      string(hit.Entry.Type),
			Content:   hit.Entry.Content,
			Score:     score,
			Timestamp: hit.Entry.Timestamp,
			Metadata:  withRawScore(hit.Entry.Metadata, hit.Score),
		})
	}
	sources["entry_store"] = len(entryHits)

	if req.Type == "" || req.Type == core.Episodic {
		for _, match := range m.episodes.FindSimilar(req.Query, half) {
			results = append(results, core.SearchResult{
				Source:    "episode_index",
				ID:        match.Episode.ID,
				Type:      string(core.Episodic),
				Content:   match.Episode,
				Score:     clamp01(match.Similarity),
				Timestamp: match.Episode.Timestamp,
				Metadata:  withRawScore(match.Episode.Metadata, match.Similarity),
			})
			sources["episode_index"]++
		}
	}

	for _, match := range m.vectors.SearchSimilar(req.Query, half, -1) {
		resultType, _ := match.Entry.Metadata["memory_type"].(string)
		if req.Type != "" && resultType != string(req.Type) {
			continue
		}
		if resultType == "" {
			resultType = "vector"
		}
		results = append(results, core.SearchResult{
			Source:    "vector_index",
			ID:        match.Entry.ID,
			Type:      resultType,
			Content:   match.Entry.Content,
			Score:     clamp01(match.Similarity),
			Timestamp: match.Entry.Timestamp,
			Metadata:  withRawScore(match.Entry.Metadata, match.Similarity),
		})
		sources["vector_index"]++
	}

	sort.SliceStable(results, func(i, j int) bool { return results[i].Score > results[j].Score })
	if len(results) > limit {
		results = results[:limit]
	}

	m.logger.Info("memory search completed", "query", req.Query, "results", len(results), "duration", time.Since(start))
	return core.Response{
		Success:  true,
		Data:     results,
		Count:    len(results),
		Metadata: map[string]any{"sources": sources},
	}, nil
}

func withRawScore(metadata map[string]any, raw float64) map[string]any {
	result := make(map[string]any, len(metadata)+1)
	for k, v := range metadata {
		result[k] = v
	}
	result["raw_score"] = raw
	return result
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// updateOp mutates an existing entry's content, metadata or importance.
// A zero importance means "unchanged"; entries cannot be downgraded to
// importance 0 through UPDATE, only deleted. Episodes are write-once, so an
// episode id is not updatable and reports not found like any other unknown
// id.
func (m *Manager) updateOp(req core.Request) (core.Response, error) {
	if req.MemoryID == "" {
		return core.Response{}, fmt.Errorf("%w: update requires a memory id", core.ErrInvalidRequest)
	}

	entry, err := m.entries.Retrieve(req.MemoryID)
	if err != nil {
		return core.Response{}, fmt.Errorf("update %s: %w", req.MemoryID, err)
	}
	if req.Content != nil {
		entry.Content = req.Content
	}
	if len(req.Metadata) > 0 {
		if entry.Metadata == nil {
			entry.Metadata = make(map[string]any, len(req.Metadata))
		}
		for k, v := range req.Metadata {
			entry.Metadata[k] = v
		}
	}
	if req.Importance > 0 {
		entry.Importance = req.Importance
	}
	if _, err := m.entries.Store(entry); err != nil {
		return core.Response{}, fmt.Errorf("update %s: %w", req.MemoryID, err)
	}
	return core.Response{Success: true, Data: entry, Count: 1}, nil
}

// deleteOp removes the id from every store holding it and reports which.
func (m *Manager) deleteOp(req core.Request) (core.Response, error) {
	if req.MemoryID == "" {
		return core.Response{}, fmt.Errorf("%w: delete requires a memory id", core.ErrInvalidRequest)
	}

	var deletedFrom []string
	if m.entries.Delete(req.MemoryID) {
		deletedFrom = append(deletedFrom, "entry_store")
	}
	if m.episodes.RemoveWithProjections(req.MemoryID) {
		deletedFrom = append(deletedFrom, "episode_index")
	}
	if m.vectors.RemoveEntry(req.MemoryID) {
		deletedFrom = append(deletedFrom, "vector_index")
	}
	if len(deletedFrom) == 0 {
		return core.Response{}, fmt.Errorf("delete %s: %w", req.MemoryID, core.ErrNotFound)
	}

	return core.Response{
		Success: true,
		Data:    map[string]any{"deleted_from": deletedFrom},
		Count:   len(deletedFrom),
	}, nil
}
