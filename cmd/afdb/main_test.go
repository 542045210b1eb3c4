package main

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meigma/afdb"
	"github.com/meigma/afdb/coords"
	"github.com/meigma/afdb/internal/testutil"
	"github.com/meigma/afdb/taxonomy"
)

func writeLayout(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()

	ca, err := coords.Encode([]float32{1, 2, 3, 4, 5, 6}, 2)
	require.NoError(t, err)

	testutil.WriteStore(t, dir, "afdb", []testutil.Record{{Key: "A0A009", Payload: []byte("MK\n")}}, false)
	testutil.WriteStore(t, dir, "afdb_ca", []testutil.Record{{Key: "A0A009", Payload: ca}}, false)
	testutil.WriteStore(t, dir, "afdb_plddt", []testutil.Record{{Key: "A0A009", Payload: []byte("90 91")}}, false)
	testutil.WriteStore(t, dir, "afdb_desc", []testutil.Record{{Key: "A0A009", Payload: []byte("Kinase")}}, false)
	testutil.WriteStore(t, dir, "ava_db", []testutil.Record{{Key: "A0A009", Payload: []byte("B0B001 1e-5\n")}}, false)
	testutil.WriteTaxdump(t, dir, testutil.SampleNodes, testutil.SampleNames)
	return dir
}

func run(t *testing.T, dir string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(append([]string{
		"--data-path", dir,
		"--cache-path", filepath.Join(dir, "cache"),
		"--log-level", "error",
	}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func TestStoreLookup(t *testing.T) {
	t.Parallel()
	dir := writeLayout(t)

	out, err := run(t, dir, "store", "lookup", "desc", "A0A009", "Z9", "--payload")
	require.NoError(t, err)

	var got []lookupResult
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	require.Len(t, got, 2)
	assert.True(t, got[0].Found)
	assert.Equal(t, "Kinase", got[0].Payload)
	assert.Equal(t, uint64(7), got[0].Length)
	assert.False(t, got[1].Found)
	assert.Equal(t, 1, got[1].Pos)

	_, err = run(t, dir, "store", "lookup", "nope", "x")
	assert.Error(t, err)
}

func TestStoreUnknown(t *testing.T) {
	t.Parallel()

	_, err := run(t, writeLayout(t), "store", "stat", "missing")
	assert.ErrorIs(t, err, afdb.ErrUnknownStore)
}

func TestStoreStat(t *testing.T) {
	t.Parallel()
	dir := writeLayout(t)

	out, err := run(t, dir, "store", "stat", "aa")
	require.NoError(t, err)
	var got map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.InDelta(t, 1, got["entries"], 0)
	assert.Equal(t, "string", got["keys"])
	assert.Equal(t, "A0A009", got["first"])
}

func TestStructure(t *testing.T) {
	t.Parallel()
	dir := writeLayout(t)

	out, err := run(t, dir, "structure", "A0A009")
	require.NoError(t, err)

	var got structureResult
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, "MK", got.Seq)
	assert.Equal(t, []string{"1.000", "2.000", "3.000", "4.000", "5.000", "6.000"}, got.Coordinates)
	assert.Equal(t, "90 91", got.PLDDT)
	assert.Equal(t, "Kinase", got.Description)

	_, err = run(t, dir, "structure", "Z9")
	assert.Error(t, err)
}

func TestTaxonomyCommands(t *testing.T) {
	t.Parallel()
	dir := writeLayout(t)

	out, err := run(t, dir, "taxonomy", "lineage", "562")
	require.NoError(t, err)
	var lineage []taxonResult
	require.NoError(t, json.Unmarshal([]byte(out), &lineage))
	require.Len(t, lineage, 9)
	assert.Equal(t, "Escherichia coli", lineage[0].Name)
	assert.Equal(t, "species", lineage[0].Rank)
	assert.FileExists(t, filepath.Join(dir, "ncbitaxonomy.json"))

	out, err = run(t, dir, "taxonomy", "collapse", "562", "28901", "--ranks", "genus,species")
	require.NoError(t, err)
	var g taxonomy.Graph
	require.NoError(t, json.Unmarshal([]byte(out), &g))
	assert.Equal(t, []taxonomy.GraphLink{
		{Source: 561, Target: 562, Value: 1},
		{Source: 590, Target: 28901, Value: 1},
	}, g.Links)

	out, err = run(t, dir, "taxonomy", "suggest", "salmo", "28901")
	require.NoError(t, err)
	assert.Contains(t, out, "Salmonella enterica")

	_, err = run(t, dir, "taxonomy", "collapse", "562", "--ranks", "domain")
	assert.Error(t, err)
	_, err = run(t, dir, "taxonomy", "lineage", "4242")
	assert.Error(t, err)
	_, err = run(t, dir, "taxonomy", "lineage", "abc")
	assert.Error(t, err)
}

func TestTaxonomyBuild(t *testing.T) {
	t.Parallel()
	dir := writeLayout(t)
	out := filepath.Join(t.TempDir(), "taxonomy.fb.zst")

	_, err := run(t, dir, "taxonomy", "build", "--out", out)
	require.NoError(t, err)
	assert.FileExists(t, out)
}

func TestCacheCommands(t *testing.T) {
	t.Parallel()
	dir := writeLayout(t)

	out, err := run(t, dir, "cache", "sweep")
	require.NoError(t, err)
	var swept map[string]int
	require.NoError(t, json.Unmarshal([]byte(out), &swept))
	assert.Equal(t, map[string]int{"removed": 0, "remaining": 0}, swept)

	out, err = run(t, dir, "cache", "stat")
	require.NoError(t, err)
	var stat map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &stat))
	assert.InDelta(t, 0, stat["entries"], 0)
	assert.DirExists(t, filepath.Join(dir, "cache"))
}

func TestProfile(t *testing.T) {
	t.Parallel()
	dir := writeLayout(t)

	for _, mode := range []string{modeLookup, modeRead, modeStructure} {
		out, err := run(t, dir, "profile", "--mode", mode, "--iterations", "25")
		require.NoError(t, err, mode)
		var stats profileStats
		require.NoError(t, json.Unmarshal([]byte(out), &stats))
		assert.Equal(t, 25, stats.Ops, mode)
	}

	_, err := run(t, dir, "profile", "--mode", "bogus", "--iterations", "1")
	assert.Error(t, err)
}

func TestConfigCommands(t *testing.T) {
	t.Parallel()
	dir := writeLayout(t)
	path := filepath.Join(t.TempDir(), "afdb.yaml")

	_, err := run(t, dir, "config", "init", path)
	require.NoError(t, err)
	assert.FileExists(t, path)

	out, err := run(t, dir, "--config", path, "config", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "data_path: "+dir)
	assert.Contains(t, out, "max_age: 24h0m0s")
}

func TestLoggerFlags(t *testing.T) {
	t.Parallel()

	_, err := newLogger(&bytes.Buffer{}, "info", "json")
	require.NoError(t, err)
	_, err = newLogger(&bytes.Buffer{}, "loud", "text")
	assert.Error(t, err)
	_, err = newLogger(&bytes.Buffer{}, "debug", "xml")
	assert.Error(t, err)
}
