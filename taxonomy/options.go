package taxonomy

import "log/slog"

// Option configures Build and ReadSnapshot.
type Option func(*options)

type options struct {
	logger     *slog.Logger
	skipVerify bool
}

// WithLogger sets the logger used while loading.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithoutValidation skips the structural check Build runs after parsing.
func WithoutValidation() Option {
	return func(o *options) {
		o.skipVerify = true
	}
}

func newOptions(opts []Option) *options {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = slog.New(slog.DiscardHandler)
	}
	return o
}
