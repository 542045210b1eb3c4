// Package fileio opens index, dump and snapshot files with transparent
// compression selected by file suffix.
package fileio

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Compression identifies the codec wrapped around a file.
type Compression uint8

// Supported codecs.
const (
	CompressionNone Compression = iota
	CompressionGzip
	CompressionZstd
	CompressionLZ4
)

// String returns the conventional suffix-free name of the codec.
func (c Compression) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionGzip:
		return "gzip"
	case CompressionZstd:
		return "zstd"
	case CompressionLZ4:
		return "lz4"
	default:
		return fmt.Sprintf("compression(%d)", uint8(c))
	}
}

// Detect returns the codec implied by the file name suffix.
func Detect(path string) Compression {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".gz":
		return CompressionGzip
	case ".zst", ".zstd":
		return CompressionZstd
	case ".lz4":
		return CompressionLZ4
	default:
		return CompressionNone
	}
}

// TrimExt strips a compression suffix, if any, so callers can inspect the
// underlying format extension (".json", ".fb", ...).
func TrimExt(path string) string {
	if Detect(path) == CompressionNone {
		return path
	}
	return strings.TrimSuffix(path, filepath.Ext(path))
}

// readCloser closes the decoder before the underlying file.
type readCloser struct {
	io.Reader
	closers []func() error
}

func (r *readCloser) Close() error {
	var errs []error
	for _, c := range r.closers {
		if err := c(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Open opens path for reading, decompressing according to its suffix.
func Open(path string) (io.ReadCloser, error) {
	f, err := os.Open(path) //nolint:gosec // caller-provided path is intentional
	if err != nil {
		return nil, err
	}
	rc, err := NewReader(f, Detect(path))
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return &readCloser{Reader: rc, closers: []func() error{rc.Close, f.Close}}, nil
}

// NewReader wraps r with a decoder for c. Closing the result does not close r.
func NewReader(r io.Reader, c Compression) (io.ReadCloser, error) {
	switch c {
	case CompressionNone:
		return io.NopCloser(r), nil
	case CompressionGzip:
		zr, err := gzip.NewReader(r)
		if err != nil {
			return nil, err
		}
		return zr, nil
	case CompressionZstd:
		dec, err := zstd.NewReader(r)
		if err != nil {
			return nil, err
		}
		return dec.IOReadCloser(), nil
	case CompressionLZ4:
		return io.NopCloser(lz4.NewReader(r)), nil
	default:
		return nil, fmt.Errorf("unsupported compression %s", c)
	}
}

// writeCloser flushes the encoder, the buffer, then syncs and closes the file.
type writeCloser struct {
	io.Writer
	enc  io.WriteCloser
	buf  *bufio.Writer
	file *os.File
}

func (w *writeCloser) Close() error {
	var errs []error
	if w.enc != nil {
		if err := w.enc.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if err := w.buf.Flush(); err != nil {
		errs = append(errs, err)
	}
	if err := w.file.Close(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Create creates (or truncates) path for writing, compressing according to
// its suffix. Close must be called to flush the encoder.
func Create(path string) (io.WriteCloser, error) {
	f, err := os.Create(path) //nolint:gosec // caller-provided path is intentional
	if err != nil {
		return nil, err
	}
	buf := bufio.NewWriterSize(f, 1<<20)
	w := &writeCloser{Writer: buf, buf: buf, file: f}

	switch Detect(path) {
	case CompressionNone:
	case CompressionGzip:
		w.enc = gzip.NewWriter(buf)
	case CompressionZstd:
		enc, encErr := zstd.NewWriter(buf)
		if encErr != nil {
			f.Close()
			return nil, fmt.Errorf("create %s: %w", path, encErr)
		}
		w.enc = enc
	case CompressionLZ4:
		w.enc = lz4.NewWriter(buf)
	}
	if w.enc != nil {
		w.Writer = w.enc
	}
	return w, nil
}
