package store

import "log/slog"

// Option configures a Store.
type Option func(*Store)

// WithName sets the name used in log records and error messages.
func WithName(name string) Option {
	return func(s *Store) {
		s.name = name
	}
}

// WithLogger sets the logger used while building the index.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// WithStringKeys forces string comparison even when every key is numeric.
func WithStringKeys() Option {
	return func(s *Store) {
		s.forceString = true
	}
}
