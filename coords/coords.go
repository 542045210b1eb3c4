// Package coords decodes per-residue atomic coordinates stored either as raw
// float32 blocks or as fixed-point deltas.
//
// Both layouts are axis-major: all X values, then all Y, then all Z. The
// delta layout stores each axis as an int32 start followed by chainLength-1
// int16 steps, little-endian, in thousandths of an angstrom.
package coords

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"strconv"
)

// Scale is the fixed-point divisor of the delta layout.
const Scale = 1000.0

const (
	floatSize = 4
	startSize = 4
	deltaSize = 2
)

// Sentinel errors for coordinate decoding.
var (
	// ErrMalformed is returned when a buffer is too short for its declared
	// chain length. It signals corrupt data, not a missing record.
	ErrMalformed = errors.New("coords: malformed coordinate buffer")

	// ErrDeltaOverflow is returned by Encode when consecutive residues are
	// further apart than an int16 step can express.
	ErrDeltaOverflow = errors.New("coords: delta exceeds int16 range")
)

// RawSize returns the byte size of the raw float32 layout.
func RawSize(chainLength int) int {
	return chainLength * 3 * floatSize
}

// DeltaSize returns the byte size of the delta layout.
func DeltaSize(chainLength int) int {
	if chainLength <= 0 {
		return 0
	}
	return 3 * (startSize + (chainLength-1)*deltaSize)
}

// Decode returns 3*chainLength coordinates from buf.
//
// The layout is inferred from entryLength, the stored record length: a record
// large enough to hold chainLength*3 float32 values is raw, anything smaller
// is delta encoded. A single-residue chain is always read as raw since both
// layouts need 12 bytes.
func Decode(buf []byte, chainLength, entryLength int) ([]float32, error) {
	if chainLength >= 0 && entryLength >= RawSize(chainLength) {
		return DecodeRaw(buf, chainLength)
	}
	return DecodeDelta(buf, chainLength)
}

// DecodeRaw reads 3*chainLength little-endian float32 values.
func DecodeRaw(buf []byte, chainLength int) ([]float32, error) {
	if chainLength < 0 {
		return nil, fmt.Errorf("%w: negative chain length %d", ErrMalformed, chainLength)
	}
	if len(buf) < RawSize(chainLength) {
		return nil, fmt.Errorf("%w: raw layout needs %d bytes, have %d",
			ErrMalformed, RawSize(chainLength), len(buf))
	}
	out := make([]float32, 3*chainLength)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[i*floatSize:]))
	}
	return out, nil
}

// DecodeDelta reads the fixed-point delta layout.
func DecodeDelta(buf []byte, chainLength int) ([]float32, error) {
	if chainLength < 0 {
		return nil, fmt.Errorf("%w: negative chain length %d", ErrMalformed, chainLength)
	}
	if len(buf) < DeltaSize(chainLength) {
		return nil, fmt.Errorf("%w: delta layout needs %d bytes, have %d",
			ErrMalformed, DeltaSize(chainLength), len(buf))
	}
	out := make([]float32, 3*chainLength)
	if chainLength == 0 {
		return out, nil
	}
	off := 0
	for axis := range 3 {
		off += decodeAxis(out[axis*chainLength:(axis+1)*chainLength], buf[off:])
	}
	return out, nil
}

// decodeAxis fills dst from one axis stream and returns the bytes consumed.
func decodeAxis(dst []float32, src []byte) int {
	start := int32(binary.LittleEndian.Uint32(src))
	off := startSize
	dst[0] = float32(float64(start) / Scale)

	var sum int64
	for i := 1; i < len(dst); i++ {
		sum += int64(int16(binary.LittleEndian.Uint16(src[off:])))
		off += deltaSize
		dst[i] = float32(float64(int64(start)+sum) / Scale)
	}
	return off
}

// Encode writes xyz (axis-major, 3*chainLength values) in the delta layout.
//
// Values are rounded to the nearest thousandth. Steps are taken between
// rounded values so decoding reproduces every rounded coordinate exactly.
func Encode(xyz []float32, chainLength int) ([]byte, error) {
	if chainLength < 0 || len(xyz) != 3*chainLength {
		return nil, fmt.Errorf("coords: want %d values for chain length %d, have %d",
			3*chainLength, chainLength, len(xyz))
	}
	if chainLength == 0 {
		return []byte{}, nil
	}

	out := make([]byte, 0, DeltaSize(chainLength))
	for axis := range 3 {
		values := xyz[axis*chainLength : (axis+1)*chainLength]
		start := quantize(values[0])
		if start < math.MinInt32 || start > math.MaxInt32 {
			return nil, fmt.Errorf("%w: start %v out of int32 range", ErrDeltaOverflow, values[0])
		}
		out = binary.LittleEndian.AppendUint32(out, uint32(int32(start)))

		prev := start
		for i := 1; i < chainLength; i++ {
			q := quantize(values[i])
			step := q - prev
			if step < math.MinInt16 || step > math.MaxInt16 {
				return nil, fmt.Errorf("%w: axis %d residue %d step %d", ErrDeltaOverflow, axis, i, step)
			}
			out = binary.LittleEndian.AppendUint16(out, uint16(int16(step)))
			prev = q
		}
	}
	return out, nil
}

// EncodeRaw writes xyz as little-endian float32 values.
func EncodeRaw(xyz []float32) []byte {
	out := make([]byte, 0, len(xyz)*floatSize)
	for _, v := range xyz {
		out = binary.LittleEndian.AppendUint32(out, math.Float32bits(v))
	}
	return out
}

// FormatFixed renders every value with three decimals.
func FormatFixed(xyz []float32) []string {
	out := make([]string, len(xyz))
	for i, v := range xyz {
		out[i] = strconv.FormatFloat(float64(v), 'f', 3, 32)
	}
	return out
}

func quantize(v float32) int64 {
	return int64(math.Round(float64(v) * Scale))
}
