package fse

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zstdgo/zstd/pkg/zstd/bitio"
)

func TestNormalizedCountsRoundTrip(t *testing.T) {
	cases := []struct {
		name   string
		counts []int32
		accLog uint8
	}{
		{"predefined-ll", LiteralLengthDefaultDistribution, LiteralLengthDefaultAccuracyLog},
		{"predefined-ml", MatchLengthDefaultDistribution, MatchLengthDefaultAccuracyLog},
		{"predefined-of", OffsetDefaultDistribution, OffsetDefaultAccuracyLog},
		{"tiny-two-symbol", []int32{31, -1}, 5},
		{"with-zero-run", []int32{30, 0, 0, 0, 0, -1, -1}, 5},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := bitio.NewBitWriter()
			WriteNormalizedCounts(w, tc.counts, tc.accLog)
			w.AddBits(1, 1) // pad so the byte doesn't look empty to callers; not part of the format itself
			buf := w.Flush()

			r := bitio.NewForwardBitReader(buf)
			got, accLog, err := ReadNormalizedCounts(r, len(tc.counts)-1, 9)
			require.NoError(t, err)
			require.Equal(t, tc.accLog, accLog)
			require.Equal(t, tc.counts, got)
		})
	}
}

func TestBuildTableCoversEveryState(t *testing.T) {
	tbl, err := Build(LiteralLengthDefaultDistribution, LiteralLengthDefaultAccuracyLog)
	require.NoError(t, err)
	require.Len(t, tbl.Decode, int(tbl.Size))

	seen := make([]bool, tbl.Size)
	for _, entries := range tbl.Encode {
		for _, e := range entries {
			require.False(t, seen[e.TableState], "table slot %d assigned twice", e.TableState)
			seen[e.TableState] = true
		}
	}
	for i, ok := range seen {
		require.True(t, ok, "table slot %d never assigned", i)
	}
}

func TestBuildTableRejectsBadSum(t *testing.T) {
	_, err := Build([]int32{1, 1}, 4) // sums to 2, needs 16
	require.Error(t, err)
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	counts := []int32{3, -1}
	tbl, err := Build(counts, 2)
	require.NoError(t, err)

	symbols := []uint8{0, 0, 1, 0, 0, 0, 1, 0}

	w := bitio.NewBitWriter()
	enc := NewEncState(tbl)
	for i := len(symbols) - 1; i >= 0; i-- {
		require.NoError(t, enc.Encode(w, symbols[i]))
	}
	enc.Flush(w)
	w.AddBits(1, 1) // sentinel bit the reverse reader expects to find set
	buf := w.Flush()

	r, err := bitio.NewReverseBitReader(buf)
	require.NoError(t, err)
	dec, err := NewState(tbl, r)
	require.NoError(t, err)

	got := make([]uint8, len(symbols))
	for i := range symbols {
		got[i] = dec.Symbol()
		// the last symbol's state is the encoder's initial one; no
		// transition bits follow it
		if i < len(symbols)-1 {
			require.NoError(t, dec.Update(r))
		}
	}
	require.NoError(t, r.Finish())
	require.Equal(t, symbols, got)
}
