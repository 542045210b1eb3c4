package coords

import (
	"encoding/binary"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// syntheticChain walks a random chain with C-alpha spacing, quantized to
// three decimals.
func syntheticChain(n int, seed int64) []float32 {
	rng := rand.New(rand.NewSource(seed)) //nolint:gosec // deterministic fixtures
	xyz := make([]float32, 3*n)
	for axis := range 3 {
		v := rng.Float64()*200 - 100
		for i := range n {
			xyz[axis*n+i] = float32(math.Round(v*Scale) / Scale)
			v += rng.Float64()*7.6 - 3.8
		}
	}
	return xyz
}

func TestDeltaRoundTrip(t *testing.T) {
	t.Parallel()

	for _, n := range []int{1, 2, 100, 10000} {
		xyz := syntheticChain(n, int64(n))
		buf, err := Encode(xyz, n)
		require.NoError(t, err)
		require.Len(t, buf, DeltaSize(n))

		got, err := DecodeDelta(buf, n)
		require.NoError(t, err)
		require.Len(t, got, 3*n)
		for i := range xyz {
			require.InDelta(t, xyz[i], got[i], 0.001, "n=%d i=%d", n, i)
		}

		if n > 1 {
			// The stored record carries a separator byte.
			auto, err := Decode(buf, n, len(buf)+1)
			require.NoError(t, err)
			assert.Equal(t, got, auto)
		}
	}
}

func TestDecodeRaw(t *testing.T) {
	t.Parallel()

	xyz := []float32{1.5, -2.25, 3, 4, 5.125, -6}
	buf := EncodeRaw(xyz)
	got, err := Decode(buf, 2, len(buf)+1)
	require.NoError(t, err)
	assert.Equal(t, xyz, got)
}

func TestDecodeKnownBuffer(t *testing.T) {
	t.Parallel()

	// X: 1.000, 1.500, 0.500  Y: -2.000, -2.000, -1.999  Z: 0, 32.767, 0
	var buf []byte
	for _, axis := range []struct {
		start  int32
		deltas []int16
	}{
		{1000, []int16{500, -1000}},
		{-2000, []int16{0, 1}},
		{0, []int16{math.MaxInt16, math.MinInt16 + 1}},
	} {
		buf = binary.LittleEndian.AppendUint32(buf, uint32(axis.start))
		for _, d := range axis.deltas {
			buf = binary.LittleEndian.AppendUint16(buf, uint16(d))
		}
	}

	got, err := Decode(buf, 3, len(buf))
	require.NoError(t, err)
	want := []float32{1, 1.5, 0.5, -2, -2, -1.999, 0, 32.767, 0}
	for i := range want {
		assert.InDelta(t, want[i], got[i], 1e-6, "index %d", i)
	}
}

func TestDecodeMalformed(t *testing.T) {
	t.Parallel()

	_, err := Decode(make([]byte, 10), 3, 10)
	require.ErrorIs(t, err, ErrMalformed)

	// Record length claims raw, buffer is truncated.
	_, err = Decode(make([]byte, 20), 2, 24)
	require.ErrorIs(t, err, ErrMalformed)

	_, err = DecodeDelta(nil, -1)
	require.ErrorIs(t, err, ErrMalformed)
}

func TestDecodeEmptyChain(t *testing.T) {
	t.Parallel()

	got, err := Decode(nil, 0, 0)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestEncodeOverflow(t *testing.T) {
	t.Parallel()

	_, err := Encode([]float32{0, 40, 0, 0, 0, 0}, 2)
	require.ErrorIs(t, err, ErrDeltaOverflow)

	_, err = Encode([]float32{0, 1}, 2)
	require.Error(t, err)
}

func TestFormatFixed(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []string{"1.000", "-2.250", "0.001"}, FormatFixed([]float32{1, -2.25, 0.001}))
}

func BenchmarkDecodeDelta(b *testing.B) {
	const n = 2700
	buf, err := Encode(syntheticChain(n, 1), n)
	if err != nil {
		b.Fatal(err)
	}
	b.SetBytes(int64(len(buf)))
	b.ReportAllocs()
	for b.Loop() {
		if _, err := Decode(buf, n, len(buf)+1); err != nil {
			b.Fatal(err)
		}
	}
}
