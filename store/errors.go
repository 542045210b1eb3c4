package store

import "errors"

// Sentinel errors for store operations.
var (
	// ErrNotFound is returned when a key is absent from the index.
	ErrNotFound = errors.New("store: key not found")

	// ErrMalformedIndex is returned when an index line cannot be parsed.
	ErrMalformedIndex = errors.New("store: malformed index")

	// ErrShortRead is returned when the data file ends inside a record.
	ErrShortRead = errors.New("store: short read")

	// ErrClosed is returned when reading from a closed store.
	ErrClosed = errors.New("store: closed")
)
