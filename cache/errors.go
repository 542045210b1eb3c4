package cache

import "errors"

var (
	// ErrMiss is returned by Get when the key has no entry.
	ErrMiss = errors.New("cache: miss")

	// ErrEmptyDir is returned by New when dir is empty.
	ErrEmptyDir = errors.New("cache: dir is empty")
)
