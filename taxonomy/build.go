package taxonomy

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"path/filepath"
	"strconv"
	"time"

	"github.com/meigma/afdb/internal/fileio"
)

const (
	nodesDump = "nodes.dmp"
	namesDump = "names.dmp"

	scientificName = "scientific name"
)

var (
	fieldSep = []byte("\t|\t")
	rowEnd   = []byte("\t|")
)

// Build parses nodes.dmp and names.dmp from dumpDir.
//
// Either dump may be gzip or zstd compressed (nodes.dmp.gz, names.dmp.zst).
// Only "scientific name" rows set Node.Name. Unless WithoutValidation is
// given the result is checked with Validate.
func Build(dumpDir string, opts ...Option) (*Tree, error) {
	o := newOptions(opts)
	start := time.Now()

	nodes := make(map[uint32]Node)
	err := readDump(dumpDir, nodesDump, 3, func(line int, fields [][]byte) error {
		id, err := parseID(fields[0])
		if err != nil {
			return err
		}
		parent, err := parseID(fields[1])
		if err != nil {
			return err
		}
		nodes[id] = Node{ID: id, ParentID: parent, Rank: ParseRank(string(fields[2]))}
		return nil
	})
	if err != nil {
		return nil, err
	}

	err = readDump(dumpDir, namesDump, 4, func(line int, fields [][]byte) error {
		if string(fields[3]) != scientificName {
			return nil
		}
		id, err := parseID(fields[0])
		if err != nil {
			return err
		}
		n, ok := nodes[id]
		if !ok {
			return fmt.Errorf("%w: %s line %d: id %d", ErrUnknownTaxon, namesDump, line, id)
		}
		n.Name = string(fields[1])
		nodes[id] = n
		return nil
	})
	if err != nil {
		return nil, err
	}

	t := &Tree{nodes: nodes}
	if !o.skipVerify {
		if err := t.Validate(); err != nil {
			return nil, err
		}
	}
	o.logger.Info("taxonomy built",
		"dir", dumpDir,
		"nodes", t.Len(),
		"elapsed", time.Since(start))
	return t, nil
}

// openDump opens base in dir, trying compressed variants when the plain
// file is absent.
func openDump(dir, base string) (io.ReadCloser, error) {
	for _, name := range []string{base, base + ".gz", base + ".zst"} {
		r, err := fileio.Open(filepath.Join(dir, name))
		if err == nil {
			return r, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("open %s: %w", name, err)
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrMissingDump, filepath.Join(dir, base))
}

// readDump calls fn for every row of dir/base with at least minFields
// fields. Errors returned by fn that are not already dump errors are wrapped
// as ErrMalformedDump with the line number.
func readDump(dir, base string, minFields int, fn func(line int, fields [][]byte) error) error {
	r, err := openDump(dir, base)
	if err != nil {
		return err
	}
	defer r.Close()

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	line := 0
	for sc.Scan() {
		line++
		b := bytes.TrimSuffix(sc.Bytes(), []byte("\r"))
		if len(b) == 0 {
			continue
		}
		fields, err := splitRow(b, minFields)
		if err != nil {
			return fmt.Errorf("%w: %s line %d: %w", ErrMalformedDump, base, line, err)
		}
		if err := fn(line, fields); err != nil {
			if errors.Is(err, ErrUnknownTaxon) {
				return err
			}
			return fmt.Errorf("%w: %s line %d: %w", ErrMalformedDump, base, line, err)
		}
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("read %s: %w", base, err)
	}
	return nil
}

// splitRow splits one dump row. Rows end in "\t|" and fields are separated
// by "\t|\t".
func splitRow(b []byte, minFields int) ([][]byte, error) {
	if !bytes.HasSuffix(b, rowEnd) {
		return nil, errors.New("missing row terminator")
	}
	fields := bytes.Split(b[:len(b)-len(rowEnd)], fieldSep)
	if len(fields) < minFields {
		return nil, fmt.Errorf("expected at least %d fields, got %d", minFields, len(fields))
	}
	return fields, nil
}

func parseID(b []byte) (uint32, error) {
	v, err := strconv.ParseUint(string(b), 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid taxon id %q", b)
	}
	return uint32(v), nil
}

