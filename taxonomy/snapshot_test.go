package taxonomy

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meigma/afdb/internal/testutil"
)

func assertSameTree(t *testing.T, want, got *Tree) {
	t.Helper()
	require.Equal(t, want.Len(), got.Len())
	for n := range want.Nodes() {
		g, ok := got.Node(n.ID)
		if assert.True(t, ok, "node %d", n.ID) {
			assert.Equal(t, n, g)
		}
	}
}

func TestJSONShape(t *testing.T) {
	t.Parallel()

	tree := New([]Node{
		{ID: 1, ParentID: 1, Rank: RankNone, Name: "root"},
		{ID: 2, ParentID: 1, Rank: RankSuperkingdom, Name: `Bacteria "true"`},
		{ID: 7, ParentID: 2, Rank: RankUnknown},
	})

	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, tree))
	assert.JSONEq(t, `{
		"1": {"i": 1, "p": 1, "r": 0, "n": "root"},
		"2": {"i": 2, "p": 1, "r": 28, "n": "Bacteria \"true\""},
		"7": {"i": 7, "p": 2}
	}`, buf.String())

	got, err := ReadJSON(&buf)
	require.NoError(t, err)
	assertSameTree(t, tree, got)
}

func TestReadJSONTolerance(t *testing.T) {
	t.Parallel()

	got, err := ReadJSON(strings.NewReader(`{
		"5": {"p": 1, "r": null, "extra": [1, 2], "n": "five"},
		"1": {"i": 1, "p": 1, "r": 200}
	}`))
	require.NoError(t, err)

	n, ok := got.Node(5)
	require.True(t, ok, "id falls back to the object key")
	assert.Equal(t, Node{ID: 5, ParentID: 1, Rank: RankUnknown, Name: "five"}, n)

	root, _ := got.Node(1)
	assert.Equal(t, RankUnknown, root.Rank)
}

func TestReadJSONMalformed(t *testing.T) {
	t.Parallel()

	for name, input := range map[string]string{
		"empty":     "",
		"truncated": `{"1": {"i": 1, "p": `,
		"bad key":   `{"x": {"i": 1}}`,
		"array":     `[1, 2]`,
	} {
		_, err := ReadJSON(strings.NewReader(input))
		assert.ErrorIs(t, err, ErrMalformedSnapshot, name)
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	t.Parallel()

	tree := buildSample(t)

	for _, name := range []string{
		"ncbitaxonomy.json",
		"ncbitaxonomy.json.zst",
		"ncbitaxonomy.json.lz4",
		"ncbitaxonomy.json.gz",
		"ncbitaxonomy.fb",
		"ncbitaxonomy.fb.zst",
	} {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			dir := t.TempDir()
			path := filepath.Join(dir, name)
			require.NoError(t, WriteSnapshot(tree, path))

			entries, err := os.ReadDir(dir)
			require.NoError(t, err)
			require.Len(t, entries, 1, "temp files must not be left behind")

			got, err := ReadSnapshot(path)
			require.NoError(t, err)
			assertSameTree(t, tree, got)
			assert.NoError(t, got.Validate())
		})
	}
}

func TestSnapshotFormat(t *testing.T) {
	t.Parallel()

	assert.Equal(t, FormatJSON, SnapshotFormat("a/ncbitaxonomy.json"))
	assert.Equal(t, FormatJSON, SnapshotFormat("ncbitaxonomy.json.zst"))
	assert.Equal(t, FormatFlatBuffers, SnapshotFormat("ncbitaxonomy.fb"))
	assert.Equal(t, FormatFlatBuffers, SnapshotFormat("ncbitaxonomy.fb.lz4"))
	assert.Equal(t, "flatbuffers", FormatFlatBuffers.String())
}

func TestFlatView(t *testing.T) {
	t.Parallel()

	tree := buildSample(t)
	data := MarshalFlatBuffers(tree)

	v, err := NewFlatView(data)
	require.NoError(t, err)
	assert.Equal(t, tree.Len(), v.Len())

	for n := range tree.Nodes() {
		got, ok := v.Node(n.ID)
		require.True(t, ok, "node %d", n.ID)
		assert.Equal(t, n, got)
	}
	_, ok := v.Node(3)
	assert.False(t, ok)
	_, ok = v.Node(1 << 30)
	assert.False(t, ok)
}

func TestFlatBuffersUnknownRank(t *testing.T) {
	t.Parallel()

	tree := New([]Node{{ID: 1, ParentID: 1}, {ID: 9, ParentID: 1, Rank: RankUnknown}})
	got, err := UnmarshalFlatBuffers(MarshalFlatBuffers(tree))
	require.NoError(t, err)
	assertSameTree(t, tree, got)
}

func TestFlatBuffersMalformed(t *testing.T) {
	t.Parallel()

	_, err := NewFlatView(nil)
	assert.ErrorIs(t, err, ErrMalformedSnapshot)

	_, err = UnmarshalFlatBuffers([]byte{0xff, 0xff, 0xff, 0x7f, 0, 0, 0, 0})
	assert.ErrorIs(t, err, ErrMalformedSnapshot)
}

func TestLoadOrBuild(t *testing.T) {
	t.Parallel()

	dumps := t.TempDir()
	testutil.WriteTaxdump(t, dumps, testutil.SampleNodes, testutil.SampleNames)
	snapshot := filepath.Join(t.TempDir(), "ncbitaxonomy.json")

	built, err := LoadOrBuild(snapshot, dumps)
	require.NoError(t, err)
	require.FileExists(t, snapshot)

	// With the snapshot in place the dumps are no longer read.
	require.NoError(t, os.Remove(filepath.Join(dumps, "nodes.dmp")))
	loaded, err := LoadOrBuild(snapshot, dumps)
	require.NoError(t, err)
	assertSameTree(t, built, loaded)
}

func TestLoadOrBuildMissingInputs(t *testing.T) {
	t.Parallel()

	_, err := LoadOrBuild(filepath.Join(t.TempDir(), "none.json"), t.TempDir())
	assert.ErrorIs(t, err, ErrMissingDump)
}
