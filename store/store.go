package store

import (
	"cmp"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/meigma/afdb/internal/fileio"
)

// Store maps keys to byte ranges of a data file.
//
// Exactly one of ints or strs holds the keys, decided at build time. All
// columns are sorted by key and never mutated after construction, so lookups
// need no locking. Reads use ReadAt (pread) on a shared handle.
type Store struct {
	name    string
	kind    KeyKind
	ints    []uint64
	strs    []string
	offsets []uint64
	lengths []uint64

	data      *os.File
	dataSize  uint64
	closeOnce sync.Once
	closeErr  error
	closed    bool
	closeMu   sync.RWMutex

	forceString bool
	logger      *slog.Logger
}

// log returns the logger, falling back to a discard logger if nil.
func (s *Store) log() *slog.Logger {
	if s.logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return s.logger
}

// Open builds a store from indexPath and opens dataPath for positioned reads.
//
// An empty dataPath yields an index-only store, used for existence checks.
// Index files ending in .gz, .zst or .lz4 are decompressed transparently.
// The returned Store must be closed to release the data file.
func Open(dataPath, indexPath string, opts ...Option) (*Store, error) {
	r, err := fileio.Open(indexPath)
	if err != nil {
		return nil, fmt.Errorf("open index file: %w", err)
	}
	defer r.Close()

	s, err := load(r, opts...)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", indexPath, err)
	}
	if dataPath == "" {
		return s, nil
	}

	f, err := os.Open(dataPath) //nolint:gosec // User-provided path is intentional
	if err != nil {
		return nil, fmt.Errorf("open data file: %w", err)
	}
	fi, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("stat data file: %w", err)
	}
	if err := adviseRandom(f); err != nil {
		s.log().Debug("fadvise failed", "store", s.name, "error", err)
	}
	s.data = f
	s.dataSize = uint64(fi.Size()) //nolint:gosec // file sizes are non-negative
	return s, nil
}

// Load builds an index-only store from r.
func Load(r io.Reader, opts ...Option) (*Store, error) {
	return load(r, opts...)
}

func load(r io.Reader, opts ...Option) (*Store, error) {
	s := &Store{}
	for _, opt := range opts {
		opt(s)
	}

	start := time.Now()
	c, err := parseIndex(r)
	if err != nil {
		return nil, err
	}
	s.offsets = c.offsets
	s.lengths = c.lengths

	sorted := true
	if c.allInts && !s.forceString {
		s.kind = KindInteger
		s.ints = c.ints
		if !c.sortedInts {
			sorted = false
			sortByKey(s.ints, s.offsets, s.lengths, cmp.Compare[uint64])
		}
	} else {
		s.kind = KindString
		s.strs = c.raw
		if !c.sortedRaw {
			sorted = false
			sortByKey(s.strs, s.offsets, s.lengths, strings.Compare)
		}
	}

	s.log().Debug("index loaded",
		"store", s.name,
		"entries", s.Size(),
		"keys", s.kind.String(),
		"presorted", sorted,
		"elapsed", time.Since(start))
	return s, nil
}

// Name returns the store name set with WithName.
func (s *Store) Name() string {
	return s.name
}

// Kind reports whether keys compare as integers or strings.
func (s *Store) Kind() KeyKind {
	return s.kind
}

// Size returns the number of index entries.
func (s *Store) Size() int {
	return len(s.offsets)
}

// HasData reports whether a data file is attached.
func (s *Store) HasData() bool {
	return s.data != nil
}

// Lookup searches for key.
//
// On an exact match it returns the entry position and true. Otherwise pos is
// the insertion point: the number of stored keys strictly less than key.
// Probes are converted to the store's key kind; a non-numeric probe against
// an integer store is never found and reports Size().
func (s *Store) Lookup(key Key) (pos int, found bool) {
	k, ok := key.as(s.kind)
	if !ok {
		return s.Size(), false
	}
	if s.kind == KindInteger {
		pos = sort.Search(len(s.ints), func(i int) bool { return s.ints[i] >= k.n })
		return pos, pos < len(s.ints) && s.ints[pos] == k.n
	}
	pos = sort.SearchStrings(s.strs, k.s)
	return pos, pos < len(s.strs) && s.strs[pos] == k.s
}

// LookupString looks up the textual key s, parsed per the store's key kind.
func (s *Store) LookupString(key string) (int, bool) {
	if s.kind == KindString {
		return s.Lookup(StringKey(key))
	}
	return s.Lookup(ParseKey(key))
}

// LookupInt looks up an integer key.
func (s *Store) LookupInt(key uint64) (int, bool) {
	return s.Lookup(IntKey(key))
}

// KeyAt returns the key at pos, or MaxKey when pos is out of range.
func (s *Store) KeyAt(pos int) Key {
	if pos < 0 || pos >= s.Size() {
		return MaxKey
	}
	if s.kind == KindInteger {
		return IntKey(s.ints[pos])
	}
	return StringKey(s.strs[pos])
}

// OffsetAt returns the record offset at pos, or math.MaxUint64 when pos is
// out of range.
func (s *Store) OffsetAt(pos int) uint64 {
	if pos < 0 || pos >= s.Size() {
		return math.MaxUint64
	}
	return s.offsets[pos]
}

// LengthAt returns the record length at pos (separator included), or
// math.MaxUint64 when pos is out of range.
func (s *Store) LengthAt(pos int) uint64 {
	if pos < 0 || pos >= s.Size() {
		return math.MaxUint64
	}
	return s.lengths[pos]
}

// Read returns the full record at pos, trailing separator included.
//
// Read returns an empty slice when pos is out of range or the store has no
// data file. Every call reads the file; nothing is cached.
func (s *Store) Read(pos int) ([]byte, error) {
	if pos < 0 || pos >= s.Size() || s.data == nil {
		return []byte{}, nil
	}
	return s.readAt(s.offsets[pos], s.lengths[pos])
}

// Payload returns the record at pos without its trailing separator byte.
func (s *Store) Payload(pos int) ([]byte, error) {
	if pos < 0 || pos >= s.Size() || s.data == nil {
		return []byte{}, nil
	}
	length := s.lengths[pos]
	if length > 0 {
		length--
	}
	return s.readAt(s.offsets[pos], length)
}

// Text returns the payload at pos as a string, or "" if it cannot be read.
func (s *Store) Text(pos int) string {
	b, err := s.Payload(pos)
	if err != nil {
		return ""
	}
	return string(b)
}

// Get looks up key and returns its payload.
// It returns ErrNotFound if the key is absent.
func (s *Store) Get(key Key) ([]byte, error) {
	pos, ok := s.Lookup(key)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	return s.Payload(pos)
}

// readAt rejects ranges past the end of the data file before allocating.
func (s *Store) readAt(offset, length uint64) ([]byte, error) {
	if offset > s.dataSize || length > s.dataSize-offset {
		return nil, fmt.Errorf("store %s: record of %d bytes at %d beyond data size %d: %w",
			s.name, length, offset, s.dataSize, ErrShortRead)
	}
	s.closeMu.RLock()
	defer s.closeMu.RUnlock()
	if s.closed {
		return nil, ErrClosed
	}

	buf := make([]byte, length)
	n, err := s.data.ReadAt(buf, int64(offset))
	if n == len(buf) {
		return buf, nil
	}
	if err == nil || errors.Is(err, io.EOF) {
		err = ErrShortRead
	}
	return nil, fmt.Errorf("store %s: read %d bytes at %d: %w", s.name, length, offset, err)
}

// Close releases the data file. It is safe to call more than once and on
// index-only stores.
func (s *Store) Close() error {
	s.closeOnce.Do(func() {
		s.closeMu.Lock()
		defer s.closeMu.Unlock()
		s.closed = true
		if s.data != nil {
			s.closeErr = s.data.Close()
		}
	})
	return s.closeErr
}
