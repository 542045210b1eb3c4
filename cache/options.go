package cache

import (
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	// DefaultMaxAge is the age after which entries are swept.
	DefaultMaxAge = 24 * time.Hour

	// DefaultCleanupInterval is the period of the background sweep.
	DefaultCleanupInterval = time.Hour

	defaultDirPerm = 0o755
)

// Option configures a Cache.
type Option func(*Cache)

// WithMaxAge sets the entry lifetime. Defaults to DefaultMaxAge.
func WithMaxAge(d time.Duration) Option {
	return func(c *Cache) {
		c.maxAge = d
	}
}

// WithCleanupInterval sets the sweep period. Defaults to
// DefaultCleanupInterval.
func WithCleanupInterval(d time.Duration) Option {
	return func(c *Cache) {
		c.interval = d
	}
}

// WithAutoCleanup enables or disables the background sweep. Enabled by
// default; Cleanup can still be called directly.
func WithAutoCleanup(enabled bool) Option {
	return func(c *Cache) {
		c.autoCleanup = enabled
	}
}

// WithLogger sets the logger used by the sweep.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Cache) {
		c.logger = logger
	}
}

// WithRegisterer registers the cache counters with reg.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(c *Cache) {
		c.registerer = reg
	}
}

// WithClock replaces time.Now when computing the sweep cutoff.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) {
		c.now = now
	}
}
