package store

import (
	"fmt"
	"math"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meigma/afdb/internal/testutil"
)

func TestUnsortedIntegerIndex(t *testing.T) {
	t.Parallel()

	s, err := Load(strings.NewReader("10\t0\t4\n5\t4\t4\n20\t8\t4\n"))
	require.NoError(t, err)
	defer s.Close()

	assert.Equal(t, 3, s.Size())
	assert.Equal(t, KindInteger, s.Kind())

	for _, tc := range []struct {
		key   uint64
		pos   int
		found bool
	}{
		{5, 0, true},
		{10, 1, true},
		{20, 2, true},
		{7, 1, false},
		{1, 0, false},
		{21, 3, false},
	} {
		pos, found := s.LookupInt(tc.key)
		assert.Equal(t, tc.pos, pos, "lookup(%d) position", tc.key)
		assert.Equal(t, tc.found, found, "lookup(%d) found", tc.key)
	}

	// Offsets and lengths travel with their keys through the sort.
	assert.Equal(t, uint64(4), s.OffsetAt(0))
	assert.Equal(t, uint64(0), s.OffsetAt(1))
	assert.Equal(t, uint64(8), s.OffsetAt(2))
}

func TestStringKeysFallback(t *testing.T) {
	t.Parallel()

	s, err := Load(strings.NewReader("10\t0\t1\nA0A009\t1\t1\n2\t2\t1\n"))
	require.NoError(t, err)

	require.Equal(t, KindString, s.Kind())
	// Byte-wise order: "10" < "2" < "A0A009".
	assert.Equal(t, StringKey("10"), s.KeyAt(0))
	assert.Equal(t, StringKey("2"), s.KeyAt(1))
	assert.Equal(t, StringKey("A0A009"), s.KeyAt(2))

	pos, found := s.LookupInt(2)
	assert.True(t, found)
	assert.Equal(t, 1, pos)

	pos, found = s.LookupString("A0A009")
	assert.True(t, found)
	assert.Equal(t, 2, pos)
}

func TestForcedStringKeys(t *testing.T) {
	t.Parallel()

	s, err := Load(strings.NewReader("10\t0\t1\n9\t1\t1\n"), WithStringKeys())
	require.NoError(t, err)
	assert.Equal(t, KindString, s.Kind())
	assert.Equal(t, StringKey("10"), s.KeyAt(0))
}

func TestNonNumericProbeOnIntegerStore(t *testing.T) {
	t.Parallel()

	s, err := Load(strings.NewReader("1\t0\t1\n2\t1\t1\n"))
	require.NoError(t, err)

	pos, found := s.LookupString("P12345")
	assert.False(t, found)
	assert.Equal(t, s.Size(), pos)
}

func TestSortInvariant(t *testing.T) {
	t.Parallel()

	const n = 500
	records := make([]testutil.Record, n)
	for i := range records {
		// Even keys only, so odd probes exercise insertion points.
		records[i] = testutil.Record{Key: fmt.Sprint(i * 2), Payload: []byte(fmt.Sprintf("payload-%d", i))}
	}

	dir := t.TempDir()
	sortedData, sortedIndex := testutil.WriteStore(t, dir, "sorted", records, false)
	shuffledData, shuffledIndex := testutil.WriteStore(t, dir, "shuffled", records, true)

	sorted, err := Open(sortedData, sortedIndex)
	require.NoError(t, err)
	defer sorted.Close()
	shuffled, err := Open(shuffledData, shuffledIndex)
	require.NoError(t, err)
	defer shuffled.Close()

	for probe := uint64(0); probe <= 2*n+1; probe++ {
		p1, f1 := sorted.LookupInt(probe)
		p2, f2 := shuffled.LookupInt(probe)
		require.Equal(t, f1, f2, "found for %d", probe)
		require.Equal(t, p1, p2, "position for %d", probe)
		if f1 {
			assert.Equal(t, sorted.Text(p1), shuffled.Text(p2))
		}
	}
}

func TestBinarySearchCorrectness(t *testing.T) {
	t.Parallel()

	keys := []string{"A0A000", "A0A0B2", "B1C2D3", "P12345", "Q9XYZ1", "Z00000"}
	lines := make([]string, len(keys))
	for i, k := range keys {
		lines[len(keys)-1-i] = fmt.Sprintf("%s\t%d\t1", k, i)
	}
	path := testutil.WriteIndex(t, filepath.Join(t.TempDir(), "desc.index"), lines...)
	s, err := Open("", path)
	require.NoError(t, err)

	for _, k := range keys {
		pos, found := s.LookupString(k)
		require.True(t, found, k)
		assert.Equal(t, StringKey(k), s.KeyAt(pos))
	}

	for _, probe := range []string{"", "A", "A0A0B1", "M", "P12346", "ZZ"} {
		pos, found := s.LookupString(probe)
		assert.False(t, found, probe)
		less := sort.SearchStrings(keys, probe)
		assert.Equal(t, less, pos, "insertion point for %q", probe)
	}
}

func TestDuplicateKeysResolveToFirst(t *testing.T) {
	t.Parallel()

	s, err := Load(strings.NewReader("3\t0\t1\n1\t1\t1\n3\t2\t1\n"))
	require.NoError(t, err)

	pos, found := s.LookupInt(3)
	require.True(t, found)
	assert.Equal(t, 1, pos)
	// Stable sort keeps the earlier line first.
	assert.Equal(t, uint64(0), s.OffsetAt(pos))
	assert.Equal(t, uint64(2), s.OffsetAt(pos+1))
}

func TestOutOfRangeSentinels(t *testing.T) {
	t.Parallel()

	s, err := Load(strings.NewReader("1\t0\t2\n"))
	require.NoError(t, err)

	for _, pos := range []int{-1, 1, 100} {
		assert.True(t, s.KeyAt(pos).IsMax())
		assert.Equal(t, uint64(math.MaxUint64), s.OffsetAt(pos))
		assert.Equal(t, uint64(math.MaxUint64), s.LengthAt(pos))
		b, err := s.Read(pos)
		require.NoError(t, err)
		assert.Empty(t, b)
	}
	assert.Positive(t, MaxKey.Compare(IntKey(math.MaxUint64)))
	assert.Positive(t, MaxKey.Compare(StringKey("zzzz")))
}

func TestIndexOnlyStore(t *testing.T) {
	t.Parallel()

	path := testutil.WriteIndex(t, filepath.Join(t.TempDir(), "ava_db.index"), "A\t0\t10")
	s, err := Open("", path)
	require.NoError(t, err)

	assert.False(t, s.HasData())
	b, err := s.Read(0)
	require.NoError(t, err)
	assert.Empty(t, b)
	require.NoError(t, s.Close())
	require.NoError(t, s.Close())
}

func TestReadPayload(t *testing.T) {
	t.Parallel()

	records := []testutil.Record{
		{Key: "A0A009IHW8", Payload: []byte("MKVLAAGIVGLLLA")},
		{Key: "A0A023GPI8", Payload: []byte("Lectin alpha chain")},
		{Key: "EMPTY", Payload: nil},
	}
	data, index := testutil.WriteStore(t, t.TempDir(), "afdb", records, true)
	s, err := Open(data, index, WithName("aa"))
	require.NoError(t, err)
	defer s.Close()

	assert.Equal(t, "aa", s.Name())
	for _, r := range records {
		pos, found := s.LookupString(r.Key)
		require.True(t, found, r.Key)

		raw, err := s.Read(pos)
		require.NoError(t, err)
		require.Len(t, raw, len(r.Payload)+1)
		assert.Equal(t, byte(testutil.Separator), raw[len(raw)-1])

		payload, err := s.Payload(pos)
		require.NoError(t, err)
		assert.Equal(t, string(r.Payload), string(payload))
		assert.Equal(t, string(r.Payload), s.Text(pos))
	}

	_, err = s.Get(StringKey("MISSING"))
	require.ErrorIs(t, err, ErrNotFound)
}

func TestConcurrentReads(t *testing.T) {
	t.Parallel()

	records := make([]testutil.Record, 64)
	for i := range records {
		records[i] = testutil.Record{Key: fmt.Sprintf("K%03d", i), Payload: []byte(strings.Repeat(fmt.Sprint(i%10), i+1))}
	}
	data, index := testutil.WriteStore(t, t.TempDir(), "afdb", records, true)
	s, err := Open(data, index)
	require.NoError(t, err)
	defer s.Close()

	var wg sync.WaitGroup
	for w := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range records {
				r := records[(i+w)%len(records)]
				got, err := s.Get(StringKey(r.Key))
				assert.NoError(t, err)
				assert.Equal(t, string(r.Payload), string(got))
			}
		}()
	}
	wg.Wait()
}

func TestShortRead(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	data, _ := testutil.WriteStore(t, dir, "afdb", []testutil.Record{{Key: "1", Payload: []byte("abc")}}, false)
	index := testutil.WriteIndex(t, filepath.Join(dir, "bad.index"), "1\t0\t100")

	s, err := Open(data, index)
	require.NoError(t, err)
	defer s.Close()

	_, err = s.Read(0)
	require.ErrorIs(t, err, ErrShortRead)
}

func TestRecordBeyondDataFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	data, _ := testutil.WriteStore(t, dir, "afdb", []testutil.Record{{Key: "a", Payload: []byte("abc")}}, false)
	index := testutil.WriteIndex(t, filepath.Join(dir, "corrupt.index"),
		"a\t0\t4",
		"b\t0\t1125899906842624",
		"c\t18446744073709551615\t2",
		"d\t2\t18446744073709551615",
	)

	s, err := Open(data, index)
	require.NoError(t, err)
	defer s.Close()

	got, err := s.Get(StringKey("a"))
	require.NoError(t, err)
	assert.Equal(t, "abc", string(got))

	for _, key := range []string{"b", "c", "d"} {
		pos, found := s.LookupString(key)
		require.True(t, found, key)
		assert.NotPanics(t, func() {
			_, err := s.Read(pos)
			assert.ErrorIs(t, err, ErrShortRead, key)
			_, err = s.Payload(pos)
			assert.ErrorIs(t, err, ErrShortRead, key)
		})
	}
}

func TestReadAfterClose(t *testing.T) {
	t.Parallel()

	data, index := testutil.WriteStore(t, t.TempDir(), "afdb", []testutil.Record{{Key: "1", Payload: []byte("abc")}}, false)
	s, err := Open(data, index)
	require.NoError(t, err)
	require.NoError(t, s.Close())

	_, err = s.Read(0)
	require.ErrorIs(t, err, ErrClosed)
}

func TestMalformedIndex(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
	}{
		{"missing fields", "1\t0\n"},
		{"extra field", "1\t0\t1\t9\n"},
		{"bad offset", "1\tx\t1\n"},
		{"bad length", "1\t0\t-1\n"},
		{"later line", "1\t0\t1\n2\t1\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := Load(strings.NewReader(tt.input))
			require.ErrorIs(t, err, ErrMalformedIndex)
		})
	}
}

func TestCRLFAndBlankLines(t *testing.T) {
	t.Parallel()

	s, err := Load(strings.NewReader("2\t0\t1\r\n\r\n1\t1\t1\r\n"))
	require.NoError(t, err)
	assert.Equal(t, 2, s.Size())
	assert.Equal(t, IntKey(1), s.KeyAt(0))
}

func TestOpenMissingFiles(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	_, err := Open("", filepath.Join(dir, "missing.index"))
	require.Error(t, err)

	index := testutil.WriteIndex(t, filepath.Join(dir, "x.index"), "1\t0\t1")
	_, err = Open(filepath.Join(dir, "missing"), index)
	require.Error(t, err)
}
