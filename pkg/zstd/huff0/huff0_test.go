package huff0

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zstdgo/zstd/pkg/zstd/bitio"
)

func TestBuildTableFromWeights(t *testing.T) {
	tbl, err := BuildTable([]uint8{2, 2, 2, 1, 1})
	require.NoError(t, err)
	require.Equal(t, uint8(2), tbl.codes[0].numBits)
	require.Equal(t, uint8(2), tbl.codes[1].numBits)
	require.Equal(t, uint8(2), tbl.codes[2].numBits)
	require.Equal(t, uint8(3), tbl.codes[3].numBits)
	require.Equal(t, uint8(3), tbl.codes[4].numBits)
}

func TestEncodeDecodeSingleStreamRoundTrip(t *testing.T) {
	data := []byte("abracadabra, the quick brown fox jumps over the lazy dog")
	counts := make([]int64, 256)
	for _, b := range data {
		counts[b]++
	}
	tbl, err := BuildTableFromCounts(counts)
	require.NoError(t, err)

	encoded := EncodeSingleStream(tbl, data)
	decoded, err := DecodeSingleStream(tbl, encoded, len(data))
	require.NoError(t, err)
	require.Equal(t, data, decoded)
}

func TestEncodeDecodeFourStreamsRoundTrip(t *testing.T) {
	data := make([]byte, 400)
	for i := range data {
		data[i] = byte(i % 17)
	}
	counts := make([]int64, 256)
	for _, b := range data {
		counts[b]++
	}
	tbl, err := BuildTableFromCounts(counts)
	require.NoError(t, err)

	encoded := EncodeFourStreams(tbl, data)
	decoded, err := DecodeFourStreams(tbl, encoded, len(data))
	require.NoError(t, err)
	require.Equal(t, data, decoded)
}

func TestWeightsRoundTripDirect(t *testing.T) {
	// Symbols 0..9 keep the explicit-weight list within the direct form's
	// 16-weight threshold, so WriteWeights writes 4-bit nibbles.
	tbl, err := BuildTableFromCounts(countsFor("\x00\x01\x01\x02\x02\x02\x03\x04\x04\x05\x06\x07\x08\x09\x09\x09"))
	require.NoError(t, err)

	w := bitio.NewBitWriter()
	require.NoError(t, WriteWeights(w, tbl))
	buf := w.Flush()
	require.GreaterOrEqual(t, buf[0], byte(128), "expected direct weight header")

	weights, consumed, err := ReadWeights(buf)
	require.NoError(t, err)
	require.Equal(t, len(buf), consumed)

	rebuilt, err := BuildTable(weights)
	require.NoError(t, err)
	for i := 0; i < 256; i++ {
		require.Equal(t, tbl.codes[i].numBits, rebuilt.codes[i].numBits, "symbol %d", i)
	}
}

func TestWeightsRoundTripFSECompressed(t *testing.T) {
	// Symbols up to 'z' (byte 122) make the explicit-weight list 122 long,
	// past the direct form's 16-weight threshold, exercising WriteWeights' FSE-compressed
	// (two-interleaved-states) branch instead of the direct nibble form.
	var data []byte
	for i, c := range []byte("abcdefghijklmnopqrstuvwxyz") {
		data = append(data, bytesRepeated(c, i+1)...)
	}
	tbl, err := BuildTableFromCounts(countsFor(string(data)))
	require.NoError(t, err)

	w := bitio.NewBitWriter()
	require.NoError(t, WriteWeights(w, tbl))
	buf := w.Flush()
	require.Less(t, buf[0], byte(128), "expected FSE-compressed weight header")

	weights, consumed, err := ReadWeights(buf)
	require.NoError(t, err)
	require.Equal(t, len(buf), consumed)

	rebuilt, err := BuildTable(weights)
	require.NoError(t, err)
	for i := 0; i < 256; i++ {
		require.Equal(t, tbl.codes[i].numBits, rebuilt.codes[i].numBits, "symbol %d", i)
	}
}

func bytesRepeated(b byte, n int) []byte {
	out := make([]byte, n)
	for i := range out {
		out[i] = b
	}
	return out
}

func countsFor(s string) []int64 {
	counts := make([]int64, 256)
	for _, b := range []byte(s) {
		counts[b]++
	}
	return counts
}
