package zstd

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestOffsetHistoryResolveRepeatAfterNonemptyLiteralRun(t *testing.T) {
	h := newOffsetHistory()
	// offsetCode 1 with a nonzero literal length means "reuse the most
	// recent offset unchanged" - the single most common repeat-offset
	// case, and the one a shifted-by-ll0 formula would make unreachable.
	got := h.resolve(1, 5)
	require.Equal(t, uint64(1), got)
	require.Equal(t, [3]uint64{1, 4, 8}, h.rep)
}

func TestOffsetHistoryResolveSwapAndRotate(t *testing.T) {
	h := newOffsetHistory()
	require.Equal(t, uint64(4), h.resolve(2, 5)) // swap rep0/rep1
	require.Equal(t, [3]uint64{4, 1, 8}, h.rep)

	h = newOffsetHistory()
	require.Equal(t, uint64(8), h.resolve(3, 5)) // rotate rep2 to front
	require.Equal(t, [3]uint64{8, 1, 4}, h.rep)
}

func TestOffsetHistoryResolveZeroLiteralLengthShift(t *testing.T) {
	h := newOffsetHistory()
	// With an empty literal run, offsetCode 1 means "reuse rep1", not
	// "reuse rep0" - every code shifts up by one slot.
	require.Equal(t, uint64(4), h.resolve(1, 0))
	require.Equal(t, [3]uint64{4, 1, 8}, h.rep)

	h = newOffsetHistory()
	require.Equal(t, uint64(8), h.resolve(2, 0))
	require.Equal(t, [3]uint64{8, 1, 4}, h.rep)

	h = newOffsetHistory()
	require.Equal(t, uint64(0), h.resolve(3, 0)) // rep0 - 1, the special case
	require.Equal(t, [3]uint64{0, 1, 4}, h.rep)
}

func TestOffsetHistoryResolveLiteralOffset(t *testing.T) {
	h := newOffsetHistory()
	require.Equal(t, uint64(97), h.resolve(100, 5))
	require.Equal(t, [3]uint64{97, 1, 4}, h.rep)
}

func TestOffsetHistoryEncodeMatchesResolve(t *testing.T) {
	cases := []struct {
		name     string
		distance uint64
		litLen   uint64
	}{
		{"reuse-rep0-nonempty-literals", 1, 5},
		{"reuse-rep1-nonempty-literals", 4, 5},
		{"reuse-rep2-nonempty-literals", 8, 5},
		{"reuse-rep1-empty-literals", 4, 0},
		{"reuse-rep2-empty-literals", 8, 0},
		{"rep0-minus-1-empty-literals", 0, 0}, // resolved against rep0=1
		{"fresh-offset", 42, 5},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			enc := newOffsetHistory()
			dec := newOffsetHistory()

			code := enc.encode(tc.distance, tc.litLen)
			got := dec.resolve(code, tc.litLen)

			require.Equal(t, tc.distance, got)
			require.Equal(t, enc.rep, dec.rep)
		})
	}
}

func TestOffsetHistoryEncodeStaysInSyncAcrossSequence(t *testing.T) {
	enc := newOffsetHistory()
	dec := newOffsetHistory()

	// A sequence of distances mixing fresh offsets and repeats of
	// varying recency, checked against a decoder-side history that only
	// ever sees resolve() - exactly how the encoder and decoder interact
	// across a real block's sequence stream.
	steps := []struct {
		distance uint64
		litLen   uint64
	}{
		{10, 3},
		{20, 0},
		{10, 4}, // repeats the distance from two steps back
		{10, 2}, // immediate repeat
	}

	for _, s := range steps {
		code := enc.encode(s.distance, s.litLen)
		got := dec.resolve(code, s.litLen)
		require.Equal(t, s.distance, got)
		require.Equal(t, enc.rep, dec.rep)
	}
}
