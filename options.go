package afdb

import (
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
)

// Option configures Open and Start.
type Option func(*Data)

// WithLogger sets the logger passed to every component.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Data) {
		d.logger = logger
	}
}

// WithRegisterer registers component metrics with reg.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(d *Data) {
		d.registerer = reg
	}
}

// WithoutCache skips creating the content cache. Cache then returns nil.
func WithoutCache() Option {
	return func(d *Data) {
		d.noCache = true
	}
}
