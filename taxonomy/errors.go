package taxonomy

import "errors"

// Sentinel errors for taxonomy operations.
var (
	// ErrMissingDump is returned when nodes.dmp or names.dmp is absent.
	ErrMissingDump = errors.New("taxonomy: missing dump file")

	// ErrMalformedDump is returned when a dump row cannot be parsed.
	ErrMalformedDump = errors.New("taxonomy: malformed dump")

	// ErrUnknownTaxon is returned when names.dmp refers to an id absent from
	// nodes.dmp.
	ErrUnknownTaxon = errors.New("taxonomy: unknown taxon")

	// ErrInvalidTree is returned when the node table has dangling parents or
	// cycles.
	ErrInvalidTree = errors.New("taxonomy: invalid tree")

	// ErrMalformedSnapshot is returned when a snapshot cannot be decoded.
	ErrMalformedSnapshot = errors.New("taxonomy: malformed snapshot")
)
