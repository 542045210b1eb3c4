package afdb

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"github.com/meigma/afdb/cache"
	"github.com/meigma/afdb/config"
	"github.com/meigma/afdb/store"
	"github.com/meigma/afdb/taxonomy"
)

// Data holds every loaded component. It is immutable after Open returns
// and safe for concurrent use.
type Data struct {
	cfg    config.Config
	stores map[string]*store.Store
	tree   *taxonomy.Tree
	cache  *cache.Cache

	logger     *slog.Logger
	registerer prometheus.Registerer
	noCache    bool

	closeOnce sync.Once
	closeErr  error
}

// log returns the logger, falling back to a discard logger if nil.
func (d *Data) log() *slog.Logger {
	if d.logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return d.logger
}

// Open loads everything cfg describes. Stores and the taxonomy are built
// concurrently; Open returns after all builds finish. On failure the first
// error is returned and anything already built is released.
func Open(ctx context.Context, cfg config.Config, opts ...Option) (*Data, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	d := &Data{cfg: cfg, stores: make(map[string]*store.Store, len(cfg.Stores))}
	for _, opt := range opts {
		opt(d)
	}
	start := time.Now()

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	for _, sc := range cfg.Stores {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			s, err := openStore(&cfg, sc, d.log())
			if err != nil {
				return fmt.Errorf("store %s: %w", sc.Name, err)
			}
			mu.Lock()
			d.stores[sc.Name] = s
			mu.Unlock()
			return nil
		})
	}
	g.Go(func() error {
		if err := gctx.Err(); err != nil {
			return err
		}
		t, err := taxonomy.LoadOrBuild(cfg.SnapshotPath(), cfg.DumpDir(), taxonomy.WithLogger(d.log()))
		if err != nil {
			return fmt.Errorf("taxonomy: %w", err)
		}
		d.tree = t
		return nil
	})
	err := g.Wait()

	if err == nil && !d.noCache {
		d.cache, err = cache.New(cfg.CachePath,
			cache.WithMaxAge(cfg.Cache.MaxAge),
			cache.WithCleanupInterval(cfg.Cache.CleanupInterval),
			cache.WithAutoCleanup(cfg.Cache.AutoCleanup),
			cache.WithLogger(d.log()),
			cache.WithRegisterer(d.registerer))
	}
	if err != nil {
		_ = d.Close()
		return nil, err
	}

	d.log().Info("data loaded",
		"stores", len(d.stores),
		"taxa", d.tree.Len(),
		"elapsed", time.Since(start))
	return d, nil
}

// OpenStore opens the single store named name from cfg, applying the same
// options Open uses. It returns ErrUnknownStore when cfg has no such store.
func OpenStore(cfg config.Config, name string, logger *slog.Logger) (*store.Store, error) {
	sc, ok := cfg.Store(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownStore, name)
	}
	return openStore(&cfg, sc, logger)
}

func openStore(cfg *config.Config, sc config.StoreConfig, logger *slog.Logger) (*store.Store, error) {
	opts := []store.Option{store.WithName(sc.Name), store.WithLogger(logger)}
	if sc.StringKeys {
		opts = append(opts, store.WithStringKeys())
	}
	return store.Open(cfg.Resolve(sc.Data), cfg.Resolve(sc.Index), opts...)
}

// Config returns the configuration Data was opened with.
func (d *Data) Config() config.Config {
	return d.cfg
}

// Store returns the store named name.
func (d *Data) Store(name string) (*store.Store, bool) {
	s, ok := d.stores[name]
	return s, ok
}

// StoreNames returns the loaded store names, sorted.
func (d *Data) StoreNames() []string {
	names := make([]string, 0, len(d.stores))
	for name := range d.stores {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Tree returns the taxonomy.
func (d *Data) Tree() *taxonomy.Tree {
	return d.tree
}

// Cache returns the content cache, or nil when opened WithoutCache.
func (d *Data) Cache() *cache.Cache {
	return d.cache
}

// Close stops the cache sweep and closes every store. It is idempotent.
func (d *Data) Close() error {
	d.closeOnce.Do(func() {
		var errs []error
		if d.cache != nil {
			d.cache.Stop()
		}
		for name, s := range d.stores {
			if err := s.Close(); err != nil {
				errs = append(errs, fmt.Errorf("close store %s: %w", name, err))
			}
		}
		d.closeErr = errors.Join(errs...)
	})
	return d.closeErr
}

// store returns the named store or ErrUnknownStore.
func (d *Data) store(name string) (*store.Store, error) {
	s, ok := d.stores[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownStore, name)
	}
	return s, nil
}
