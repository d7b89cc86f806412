package core

// Operation identifies a unified memory operation.
type Operation string

const (
	// OpStore writes new content into the memory subsystem.
	OpStore Operation = "store"
	// OpRetrieve fetches a single entry or episode by id.
	OpRetrieve Operation = "retrieve"
	// OpSearch fans a query out to every searchable store.
	OpSearch Operation = "search"
	// OpUpdate mutates an existing entry's content, metadata or importance.
	OpUpdate Operation = "update"
	// OpDelete removes an id from every store holding it.
	OpDelete Operation = "delete"
)

// Request describes one unified memory operation. Field requirements depend on
// the operation: STORE needs Content and Type, SEARCH needs Query, and
// RETRIEVE/UPDATE/DELETE need MemoryID. On UPDATE a zero Importance leaves
// the stored importance unchanged.
type Request struct {
	Operation  Operation      `json:"operation"`
	Type       MemoryType     `json:"memory_type,omitempty"` // empty means unset
	Content    any            `json:"content,omitempty"`
	Query      string         `json:"query,omitempty"`
	MemoryID   string         `json:"memory_id,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	Importance float64        `json:"importance"`
	Limit      int            `json:"limit"`
}

// Response is the structured result of a memory operation. Failures are
// reported here rather than as raw errors so callers never see an internal
// panic or unwrapped failure.
type Response struct {
	Success  bool           `json:"success"`
	Data     any            `json:"data,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
	Error    string         `json:"error,omitempty"`
	Count    int            `json:"count"`
}
