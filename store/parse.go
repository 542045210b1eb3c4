package store

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"slices"
	"strconv"
)

const maxIndexLine = 1 << 20

// columns holds the parallel index columns while building.
type columns struct {
	raw     []string
	ints    []uint64
	offsets []uint64
	lengths []uint64

	allInts    bool
	sortedInts bool
	sortedRaw  bool
}

// parseIndex reads key\toffset\tlength lines. Keys are kept in their textual
// form until the whole index has been seen, since a single non-numeric key
// switches the store to string comparison.
func parseIndex(r io.Reader) (*columns, error) {
	c := &columns{allInts: true, sortedInts: true, sortedRaw: true}

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64<<10), maxIndexLine)
	line := 0
	for sc.Scan() {
		line++
		b := bytes.TrimSuffix(sc.Bytes(), []byte{'\r'})
		if len(b) == 0 {
			continue
		}
		key, offset, length, err := splitIndexLine(b)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %w", ErrMalformedIndex, line, err)
		}

		if n := len(c.raw); n > 0 && c.sortedRaw && c.raw[n-1] > key {
			c.sortedRaw = false
		}
		if c.allInts {
			if v, ok := parseUint(key); ok {
				if n := len(c.ints); n > 0 && c.ints[n-1] > v {
					c.sortedInts = false
				}
				c.ints = append(c.ints, v)
			} else {
				c.allInts = false
				c.ints = nil
			}
		}
		c.raw = append(c.raw, key)
		c.offsets = append(c.offsets, offset)
		c.lengths = append(c.lengths, length)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("%w: line %d: %w", ErrMalformedIndex, line+1, err)
	}
	return c, nil
}

func splitIndexLine(b []byte) (string, uint64, uint64, error) {
	keyEnd := bytes.IndexByte(b, '\t')
	if keyEnd < 0 {
		return "", 0, 0, errors.New("expected 3 tab-separated fields, got 1")
	}
	rest := b[keyEnd+1:]
	offEnd := bytes.IndexByte(rest, '\t')
	if offEnd < 0 {
		return "", 0, 0, errors.New("expected 3 tab-separated fields, got 2")
	}
	lenField := rest[offEnd+1:]
	if bytes.IndexByte(lenField, '\t') >= 0 {
		return "", 0, 0, errors.New("expected 3 tab-separated fields, got more")
	}
	offset, err := strconv.ParseUint(string(rest[:offEnd]), 10, 64)
	if err != nil {
		return "", 0, 0, fmt.Errorf("offset: %w", err)
	}
	length, err := strconv.ParseUint(string(lenField), 10, 64)
	if err != nil {
		return "", 0, 0, fmt.Errorf("length: %w", err)
	}
	return string(b[:keyEnd]), offset, length, nil
}

// sortByKey applies one stable permutation to all columns so every key keeps
// its (offset, length) pair.
func sortByKey[K any](keys []K, offsets, lengths []uint64, cmp func(a, b K) int) {
	perm := make([]int, len(keys))
	for i := range perm {
		perm[i] = i
	}
	slices.SortStableFunc(perm, func(a, b int) int {
		return cmp(keys[a], keys[b])
	})
	permute(keys, perm)
	permute(offsets, perm)
	permute(lengths, perm)
}

func permute[T any](col []T, perm []int) {
	out := make([]T, len(col))
	for i, p := range perm {
		out[i] = col[p]
	}
	copy(col, out)
}
