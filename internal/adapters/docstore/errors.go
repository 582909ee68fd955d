package docstore

import "errors"

// Sentinel kinds for document store errors.
var (
	ErrNotFound    = errors.New("document not found")
	ErrConflict    = errors.New("batch conflict")
	ErrBadDocument = errors.New("document not encodable")
	ErrBadQuery    = errors.New("invalid query")
)
