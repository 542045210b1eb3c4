package taxonomy

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"time"

	jsoniter "github.com/json-iterator/go"

	"github.com/meigma/afdb/internal/fileio"
)

// Format selects a snapshot encoding.
type Format int

const (
	// FormatJSON is {"<id>": {"i": id, "p": parent, "r": rank, "n": name}}.
	FormatJSON Format = iota
	// FormatFlatBuffers is the binary node vector sorted by id.
	FormatFlatBuffers
)

// String returns the format name.
func (f Format) String() string {
	switch f {
	case FormatJSON:
		return "json"
	case FormatFlatBuffers:
		return "flatbuffers"
	default:
		return "unknown"
	}
}

// SnapshotFormat picks the format from path, ignoring any compression
// suffix: ".fb" is FlatBuffers, anything else JSON.
func SnapshotFormat(path string) Format {
	if filepath.Ext(fileio.TrimExt(path)) == ".fb" {
		return FormatFlatBuffers
	}
	return FormatJSON
}

var snapshotJSON = jsoniter.Config{
	EscapeHTML:             false,
	ValidateJsonRawMessage: false,
}.Froze()

// flushThreshold bounds the stream buffer while encoding.
const flushThreshold = 64 << 10

// WriteSnapshot writes t to path atomically.
//
// The format follows SnapshotFormat, and a .gz, .zst or .lz4 suffix
// compresses the output.
func WriteSnapshot(t *Tree, path string) (err error) {
	dir, base := filepath.Split(path)
	if dir == "" {
		dir = "."
	}
	// The temp name keeps the suffixes so fileio picks the same codec.
	tmpPath := filepath.Join(dir, ".tmp-"+strconv.FormatInt(time.Now().UnixNano(), 36)+"-"+base)
	w, err := fileio.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("create snapshot: %w", err)
	}
	defer func() {
		if err != nil {
			_ = os.Remove(tmpPath)
		}
	}()

	switch SnapshotFormat(path) {
	case FormatFlatBuffers:
		_, err = w.Write(MarshalFlatBuffers(t))
	default:
		err = WriteJSON(w, t)
	}
	if closeErr := w.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("rename snapshot: %w", err)
	}
	return nil
}

// ReadSnapshot loads a tree written by WriteSnapshot. The snapshot is not
// validated beyond being well formed.
func ReadSnapshot(path string, opts ...Option) (*Tree, error) {
	o := newOptions(opts)
	start := time.Now()

	r, err := fileio.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open snapshot: %w", err)
	}
	defer r.Close()

	var t *Tree
	switch SnapshotFormat(path) {
	case FormatFlatBuffers:
		data, rerr := io.ReadAll(r)
		if rerr != nil {
			return nil, fmt.Errorf("read snapshot: %w", rerr)
		}
		t, err = UnmarshalFlatBuffers(data)
	default:
		t, err = ReadJSON(r)
	}
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	o.logger.Info("taxonomy snapshot loaded",
		"path", path,
		"nodes", t.Len(),
		"elapsed", time.Since(start))
	return t, nil
}

// LoadOrBuild reads the snapshot at snapshotPath if it exists. Otherwise it
// builds the tree from the dumps in dumpDir and writes the snapshot for the
// next start.
func LoadOrBuild(snapshotPath, dumpDir string, opts ...Option) (*Tree, error) {
	if _, err := os.Stat(snapshotPath); err == nil {
		return ReadSnapshot(snapshotPath, opts...)
	} else if !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("stat snapshot: %w", err)
	}

	t, err := Build(dumpDir, opts...)
	if err != nil {
		return nil, err
	}
	if err := WriteSnapshot(t, snapshotPath); err != nil {
		// The tree is usable without a snapshot; the next start rebuilds.
		newOptions(opts).logger.Warn("taxonomy snapshot not written",
			"path", snapshotPath,
			"error", err)
	}
	return t, nil
}

// WriteJSON streams t to w as a JSON object keyed by decimal id, in
// ascending id order. "r" is omitted for unknown ranks and "n" for nodes
// without a scientific name.
func WriteJSON(w io.Writer, t *Tree) error {
	s := snapshotJSON.BorrowStream(w)
	defer snapshotJSON.ReturnStream(s)

	s.WriteObjectStart()
	first := true
	for n := range t.Nodes() {
		if !first {
			s.WriteMore()
		}
		first = false

		s.WriteObjectField(strconv.FormatUint(uint64(n.ID), 10))
		s.WriteObjectStart()
		s.WriteObjectField("i")
		s.WriteUint32(n.ID)
		s.WriteMore()
		s.WriteObjectField("p")
		s.WriteUint32(n.ParentID)
		if n.Rank.Known() {
			s.WriteMore()
			s.WriteObjectField("r")
			s.WriteUint8(uint8(n.Rank))
		}
		if n.Name != "" {
			s.WriteMore()
			s.WriteObjectField("n")
			s.WriteString(n.Name)
		}
		s.WriteObjectEnd()

		if s.Buffered() > flushThreshold {
			if err := s.Flush(); err != nil {
				return err
			}
		}
	}
	s.WriteObjectEnd()
	if s.Error != nil {
		return s.Error
	}
	return s.Flush()
}

// ReadJSON decodes a JSON snapshot from r without materializing the
// document.
func ReadJSON(r io.Reader) (*Tree, error) {
	it := jsoniter.Parse(snapshotJSON, r, flushThreshold)
	nodes := make(map[uint32]Node)

	var bad error
	ok := it.ReadObjectCB(func(it *jsoniter.Iterator, key string) bool {
		id, err := strconv.ParseUint(key, 10, 32)
		if err != nil {
			bad = fmt.Errorf("%w: key %q", ErrMalformedSnapshot, key)
			return false
		}
		n := Node{ID: uint32(id), Rank: RankUnknown}
		it.ReadObjectCB(func(it *jsoniter.Iterator, field string) bool {
			switch field {
			case "i":
				n.ID = it.ReadUint32()
			case "p":
				n.ParentID = it.ReadUint32()
			case "r":
				if it.WhatIsNext() == jsoniter.NilValue {
					it.Skip()
					break
				}
				n.Rank = normalizeRank(it.ReadUint8())
			case "n":
				n.Name = it.ReadString()
			default:
				it.Skip()
			}
			return true
		})
		nodes[n.ID] = n
		return it.Error == nil
	})
	if bad != nil {
		return nil, bad
	}
	if it.Error != nil && !errors.Is(it.Error, io.EOF) {
		return nil, fmt.Errorf("%w: %w", ErrMalformedSnapshot, it.Error)
	}
	if !ok {
		return nil, fmt.Errorf("%w: incomplete object", ErrMalformedSnapshot)
	}
	return &Tree{nodes: nodes}, nil
}
