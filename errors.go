package afdb

import (
	"errors"

	"github.com/meigma/afdb/cache"
	"github.com/meigma/afdb/coords"
	"github.com/meigma/afdb/store"
	"github.com/meigma/afdb/taxonomy"
)

var (
	// ErrUnknownStore is returned when a lookup needs a store missing from
	// the configuration.
	ErrUnknownStore = errors.New("afdb: store not configured")

	// ErrMalformedRecord is returned when a stored record cannot be parsed.
	ErrMalformedRecord = errors.New("afdb: malformed record")
)

// Errors re-exported from store.
var (
	// ErrNotFound is returned when an accession is absent from a store.
	ErrNotFound = store.ErrNotFound

	// ErrMalformedIndex is returned when an index file cannot be parsed.
	ErrMalformedIndex = store.ErrMalformedIndex

	// ErrClosed is returned by lookups after Close.
	ErrClosed = store.ErrClosed
)

// Errors re-exported from coords.
var (
	// ErrMalformedCoordinates is returned when a coordinate buffer is
	// shorter than its chain length requires.
	ErrMalformedCoordinates = coords.ErrMalformed
)

// Errors re-exported from taxonomy.
var (
	// ErrMalformedDump is returned when an NCBI dump row cannot be parsed.
	ErrMalformedDump = taxonomy.ErrMalformedDump

	// ErrMissingDump is returned when no snapshot exists and the dumps are
	// absent.
	ErrMissingDump = taxonomy.ErrMissingDump

	// ErrUnknownTaxon is returned when names.dmp refers to an unknown id.
	ErrUnknownTaxon = taxonomy.ErrUnknownTaxon
)

// Errors re-exported from cache.
var (
	// ErrCacheMiss is returned when a cache key has no entry.
	ErrCacheMiss = cache.ErrMiss
)
