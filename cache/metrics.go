package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type metrics struct {
	hits      prometheus.Counter
	misses    prometheus.Counter
	writes    prometheus.Counter
	evictions prometheus.Counter
}

// newMetrics creates the cache counters. A nil reg leaves them unregistered.
func newMetrics(reg prometheus.Registerer) *metrics {
	f := promauto.With(reg)
	return &metrics{
		hits: f.NewCounter(prometheus.CounterOpts{
			Namespace: "afdb",
			Subsystem: "cache",
			Name:      "hits_total",
			Help:      "Cache lookups that found an entry.",
		}),
		misses: f.NewCounter(prometheus.CounterOpts{
			Namespace: "afdb",
			Subsystem: "cache",
			Name:      "misses_total",
			Help:      "Cache lookups that found no entry.",
		}),
		writes: f.NewCounter(prometheus.CounterOpts{
			Namespace: "afdb",
			Subsystem: "cache",
			Name:      "writes_total",
			Help:      "Entries written to the cache.",
		}),
		evictions: f.NewCounter(prometheus.CounterOpts{
			Namespace: "afdb",
			Subsystem: "cache",
			Name:      "evictions_total",
			Help:      "Entries removed by the age sweep.",
		}),
	}
}
