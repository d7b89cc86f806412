package core

import "fmt"

var (
	// ErrNotFound is returned when no store holds an entry or episode with the
	// requested id.
	ErrNotFound = fmt.Errorf("memory not found")

	// ErrInvalidRequest is returned when a request is missing a required field
	// (query for SEARCH, memory id for RETRIEVE/UPDATE/DELETE).
	ErrInvalidRequest = fmt.Errorf("invalid memory request")
)
