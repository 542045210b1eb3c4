// Package testutil writes index, data and taxonomy dump fixtures for tests.
package testutil

import (
	"bytes"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// Record is one data file entry.
type Record struct {
	Key     string
	Payload []byte
}

// Separator terminates every record in fixture data files.
const Separator = '\x00'

// WriteStore writes name (data) and name.index into dir.
//
// Each payload is followed by Separator, and the index length includes it.
// When shuffle is true the index lines are written in a random order that is
// stable for a given seed.
func WriteStore(tb testing.TB, dir, name string, records []Record, shuffle bool) (dataPath, indexPath string) {
	tb.Helper()

	var data bytes.Buffer
	lines := make([]string, 0, len(records))
	for _, r := range records {
		offset := data.Len()
		data.Write(r.Payload)
		data.WriteByte(Separator)
		lines = append(lines, fmt.Sprintf("%s\t%d\t%d", r.Key, offset, len(r.Payload)+1))
	}
	if shuffle {
		rng := rand.New(rand.NewSource(int64(len(lines)))) //nolint:gosec // deterministic fixtures
		rng.Shuffle(len(lines), func(i, j int) { lines[i], lines[j] = lines[j], lines[i] })
	}

	dataPath = filepath.Join(dir, name)
	if err := os.WriteFile(dataPath, data.Bytes(), 0o600); err != nil {
		tb.Fatalf("write data file: %v", err)
	}
	indexPath = WriteIndex(tb, filepath.Join(dir, name+".index"), lines...)
	return dataPath, indexPath
}

// WriteIndex writes raw index lines to path and returns path.
func WriteIndex(tb testing.TB, path string, lines ...string) string {
	tb.Helper()

	content := strings.Join(lines, "\n")
	if len(lines) > 0 {
		content += "\n"
	}
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		tb.Fatalf("write index file: %v", err)
	}
	return path
}

// DumpNode is one nodes.dmp row.
type DumpNode struct {
	ID     uint32
	Parent uint32
	Rank   string
}

// DumpName is one names.dmp row.
type DumpName struct {
	ID    uint32
	Name  string
	Class string
}

// WriteTaxdump writes nodes.dmp and names.dmp in NCBI dump layout into dir.
func WriteTaxdump(tb testing.TB, dir string, nodes []DumpNode, names []DumpName) {
	tb.Helper()

	var nb bytes.Buffer
	for _, n := range nodes {
		// Trailing columns mirror the real dump so parsers cannot rely on
		// a fixed field count.
		fmt.Fprintf(&nb, "%d\t|\t%d\t|\t%s\t|\t\t|\t0\t|\t1\t|\t11\t|\t1\t|\t0\t|\t1\t|\t0\t|\t0\t|\t\t|\n",
			n.ID, n.Parent, n.Rank)
	}
	var mb bytes.Buffer
	for _, n := range names {
		fmt.Fprintf(&mb, "%d\t|\t%s\t|\t\t|\t%s\t|\n", n.ID, n.Name, n.Class)
	}
	if err := os.WriteFile(filepath.Join(dir, "nodes.dmp"), nb.Bytes(), 0o600); err != nil {
		tb.Fatalf("write nodes.dmp: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "names.dmp"), mb.Bytes(), 0o600); err != nil {
		tb.Fatalf("write names.dmp: %v", err)
	}
}

// SampleNodes is a small bacterial lineage:
//
//	1 root
//	└─ 131567 cellular organisms (no rank)
//	   └─ 2 Bacteria (superkingdom)
//	      └─ 1224 Pseudomonadota (phylum)
//	         └─ 1236 Gammaproteobacteria (class)
//	            └─ 91347 Enterobacterales (order)
//	               └─ 543 Enterobacteriaceae (family)
//	                  ├─ 561 Escherichia (genus)
//	                  │  └─ 562 Escherichia coli (species)
//	                  │     └─ 83333 Escherichia coli K-12 (strain)
//	                  └─ 590 Salmonella (genus)
//	                     └─ 28901 Salmonella enterica (species)
var SampleNodes = []DumpNode{
	{1, 1, "no rank"},
	{131567, 1, "no rank"},
	{2, 131567, "superkingdom"},
	{1224, 2, "phylum"},
	{1236, 1224, "class"},
	{91347, 1236, "order"},
	{543, 91347, "family"},
	{561, 543, "genus"},
	{562, 561, "species"},
	{83333, 562, "strain"},
	{590, 543, "genus"},
	{28901, 590, "species"},
}

// SampleNames holds scientific names for SampleNodes plus a few rows of other
// classes that parsers must ignore.
var SampleNames = []DumpName{
	{1, "all", "synonym"},
	{1, "root", "scientific name"},
	{131567, "cellular organisms", "scientific name"},
	{131567, "biota", "synonym"},
	{2, "Bacteria", "scientific name"},
	{2, "eubacteria", "genbank common name"},
	{1224, "Pseudomonadota", "scientific name"},
	{1224, "Proteobacteria", "synonym"},
	{1236, "Gammaproteobacteria", "scientific name"},
	{91347, "Enterobacterales", "scientific name"},
	{543, "Enterobacteriaceae", "scientific name"},
	{561, "Escherichia", "scientific name"},
	{562, "Escherichia coli", "scientific name"},
	{562, "E. coli", "common name"},
	{83333, "Escherichia coli K-12", "scientific name"},
	{590, "Salmonella", "scientific name"},
	{28901, "Salmonella enterica", "scientific name"},
}
