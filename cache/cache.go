package cache

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	digest "github.com/opencontainers/go-digest"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/singleflight"
)

// tmpPrefix marks in-flight writes. Such files are never served.
const tmpPrefix = ".tmp-"

// Cache is a directory of payloads keyed by SHA-256.
type Cache struct {
	dir         string
	maxAge      time.Duration
	interval    time.Duration
	autoCleanup bool
	now         func() time.Time
	logger      *slog.Logger
	registerer  prometheus.Registerer
	metrics     *metrics

	group    singleflight.Group
	sweepMu  sync.Mutex
	stop     chan struct{}
	stopOnce sync.Once
	done     chan struct{}
}

// log returns the logger, falling back to a discard logger if nil.
func (c *Cache) log() *slog.Logger {
	if c.logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return c.logger
}

// New creates dir (0o755) if needed and, unless disabled with
// WithAutoCleanup(false), starts the periodic sweep. Call Stop to end it.
func New(dir string, opts ...Option) (*Cache, error) {
	if dir == "" {
		return nil, ErrEmptyDir
	}
	c := &Cache{
		dir:         dir,
		maxAge:      DefaultMaxAge,
		interval:    DefaultCleanupInterval,
		autoCleanup: true,
		now:         time.Now,
		stop:        make(chan struct{}),
		done:        make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.maxAge <= 0 {
		return nil, fmt.Errorf("cache: max age must be positive, got %s", c.maxAge)
	}
	if err := os.MkdirAll(dir, defaultDirPerm); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}
	c.metrics = newMetrics(c.registerer)

	if c.autoCleanup {
		if c.interval <= 0 {
			return nil, fmt.Errorf("cache: cleanup interval must be positive, got %s", c.interval)
		}
		go c.sweepLoop()
	} else {
		close(c.done)
	}
	return c, nil
}

// Dir returns the cache directory.
func (c *Cache) Dir() string {
	return c.dir
}

// Name returns the file name used for key: the lowercase hex SHA-256.
func Name(key string) string {
	return digest.FromString(key).Encoded()
}

func (c *Cache) path(key string) string {
	return filepath.Join(c.dir, Name(key))
}

// Add stores payload under key, replacing any existing entry. The write is
// atomic: readers see either the old entry or the new one.
func (c *Cache) Add(key string, payload []byte) error {
	root, err := os.OpenRoot(c.dir)
	if err != nil {
		return fmt.Errorf("open cache root: %w", err)
	}
	defer root.Close()

	tmp, tmpName, err := createTemp(root)
	if err != nil {
		return fmt.Errorf("create temp cache file: %w", err)
	}
	if _, err := tmp.Write(payload); err != nil {
		_ = tmp.Close()
		_ = root.Remove(tmpName)
		return fmt.Errorf("write cache file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = root.Remove(tmpName)
		return fmt.Errorf("close cache file: %w", err)
	}
	if err := root.Rename(tmpName, Name(key)); err != nil {
		_ = root.Remove(tmpName)
		return fmt.Errorf("rename cache file: %w", err)
	}
	c.metrics.writes.Inc()
	return nil
}

// Contains reports whether key has an entry. The entry may still be swept
// before a following Get.
func (c *Cache) Contains(key string) bool {
	info, err := os.Stat(c.path(key))
	return err == nil && info.Mode().IsRegular()
}

// Get returns the payload stored under key, or ErrMiss.
func (c *Cache) Get(key string) ([]byte, error) {
	root, err := os.OpenRoot(c.dir)
	if err != nil {
		return nil, fmt.Errorf("open cache root: %w", err)
	}
	defer root.Close()

	data, err := root.ReadFile(Name(key))
	if errors.Is(err, fs.ErrNotExist) {
		c.metrics.misses.Inc()
		return nil, ErrMiss
	}
	if err != nil {
		return nil, fmt.Errorf("read cache file: %w", err)
	}
	c.metrics.hits.Inc()
	return data, nil
}

// Lookup is Get with any error reported as a miss.
func (c *Cache) Lookup(key string) ([]byte, bool) {
	data, err := c.Get(key)
	if err != nil {
		return nil, false
	}
	return data, true
}

// Invalidate removes the entry for key. A missing entry is not an error.
func (c *Cache) Invalidate(key string) error {
	if err := os.Remove(c.path(key)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove cache file: %w", err)
	}
	return nil
}

// GetOrCompute returns the entry for key, calling compute and storing its
// result on a miss. Concurrent callers for the same key share one compute
// call. A failed store is logged and the computed value still returned.
//
// compute gets ctx without its cancellation, so a caller that gives up only
// abandons its own wait and the shared call still completes for the others.
func (c *Cache) GetOrCompute(ctx context.Context, key string, compute func(context.Context) ([]byte, error)) ([]byte, error) {
	if data, ok := c.Lookup(key); ok {
		return data, nil
	}
	ch := c.group.DoChan(key, func() (any, error) {
		if data, ok := c.Lookup(key); ok {
			return data, nil
		}
		data, err := compute(context.WithoutCancel(ctx))
		if err != nil {
			return nil, err
		}
		if err := c.Add(key, data); err != nil {
			c.log().Warn("cache write failed", "key", Name(key), "error", err)
		}
		return data, nil
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]byte), nil
	}
}

// Cleanup deletes entries created strictly before now minus the maximum age
// and returns how many it removed. Files that disappear during the sweep
// are skipped.
func (c *Cache) Cleanup() (int, error) {
	c.sweepMu.Lock()
	defer c.sweepMu.Unlock()

	cutoff := c.now().Add(-c.maxAge)
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		return 0, fmt.Errorf("read cache dir: %w", err)
	}

	removed := 0
	var errs []error
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		info, err := entry.Info()
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			errs = append(errs, err)
			continue
		}
		path := filepath.Join(c.dir, entry.Name())
		if !createdAt(path, info).Before(cutoff) {
			continue
		}
		if err := os.Remove(path); err != nil {
			if !errors.Is(err, fs.ErrNotExist) {
				errs = append(errs, err)
			}
			continue
		}
		removed++
	}
	c.metrics.evictions.Add(float64(removed))
	return removed, errors.Join(errs...)
}

// Stop ends the periodic sweep and waits for a running sweep to finish.
// It is safe to call more than once.
func (c *Cache) Stop() {
	c.stopOnce.Do(func() {
		close(c.stop)
	})
	<-c.done
}

func (c *Cache) sweepLoop() {
	defer close(c.done)
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
			removed, err := c.Cleanup()
			if err != nil {
				c.log().Warn("cache sweep failed", "dir", c.dir, "removed", removed, "error", err)
				continue
			}
			c.log().Debug("cache sweep", "dir", c.dir, "removed", removed)
		}
	}
}

// createTemp creates a uniquely named file inside root.
func createTemp(root *os.Root) (*os.File, string, error) {
	for range 100 {
		var b [8]byte
		if _, err := rand.Read(b[:]); err != nil {
			return nil, "", err
		}
		name := tmpPrefix + hex.EncodeToString(b[:])
		f, err := root.OpenFile(name, os.O_RDWR|os.O_CREATE|os.O_EXCL, 0o600)
		if errors.Is(err, fs.ErrExist) {
			continue
		}
		if err != nil {
			return nil, "", err
		}
		return f, name, nil
	}
	return nil, "", errors.New("cache: failed to create temp file")
}

// Len counts the entries currently on disk, ignoring in-flight writes.
func (c *Cache) Len() (int, error) {
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		return 0, fmt.Errorf("read cache dir: %w", err)
	}
	n := 0
	for _, e := range entries {
		if e.Type().IsRegular() && isEntryName(e.Name()) {
			n++
		}
	}
	return n, nil
}

// isEntryName reports whether name looks like a cache entry.
func isEntryName(name string) bool {
	return len(name) == 64 && !strings.HasPrefix(name, tmpPrefix)
}
