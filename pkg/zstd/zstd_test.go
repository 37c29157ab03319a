package zstd

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDecodeAllEmptyFrame(t *testing.T) {
	encoded, err := Compress(nil, LevelFastest)
	require.NoError(t, err)

	out, err := DecodeAll(encoded)
	require.NoError(t, err)
	require.Empty(t, out)
}

func TestDecodeAllRawBlockRoundTrip(t *testing.T) {
	input := []byte("hello, world")
	encoded, err := Compress(input, LevelUncompressed)
	require.NoError(t, err)

	out, err := DecodeAll(encoded)
	require.NoError(t, err)
	require.Equal(t, input, out)
}

func TestDecodeAllRLEBlock(t *testing.T) {
	input := bytes.Repeat([]byte{'z'}, 4096)
	encoded, err := Compress(input, LevelFastest)
	require.NoError(t, err)

	out, err := DecodeAll(encoded)
	require.NoError(t, err)
	require.Equal(t, input, out)
}

func TestDecodeAllRepeatOffset(t *testing.T) {
	input := bytes.Repeat([]byte("abc"), 16)
	encoded, err := Compress(input, LevelFastest)
	require.NoError(t, err)

	out, err := DecodeAll(encoded)
	require.NoError(t, err)
	require.Equal(t, input, out)
}

func TestDecodeAllOverlapCopy(t *testing.T) {
	// A leading distinct byte followed by a long repeating run forces
	// the match finder to emit an offset-1 match whose length exceeds
	// the offset, exactly the overlap case window.copyMatch must get
	// right byte-by-byte (a bulk copy would read bytes not yet written).
	input := append([]byte("X"), bytes.Repeat([]byte{'a'}, 9)...)
	encoded, err := Compress(input, LevelFastest)
	require.NoError(t, err)

	out, err := DecodeAll(encoded)
	require.NoError(t, err)
	require.Equal(t, input, out)
}

func TestDecodeAllRejectsBadMagic(t *testing.T) {
	_, err := DecodeAll([]byte{0x00, 0x01, 0x02, 0x03})
	require.Error(t, err)
	var zerr *Error
	require.ErrorAs(t, err, &zerr)
	require.Equal(t, KindBadMagic, zerr.Kind)
}

func TestDecodeAllConcatenatedFrames(t *testing.T) {
	a, err := Compress([]byte("first frame"), LevelFastest)
	require.NoError(t, err)
	b, err := Compress([]byte("second frame"), LevelFastest)
	require.NoError(t, err)

	out, err := DecodeAll(append(a, b...))
	require.NoError(t, err)
	require.Equal(t, "first framesecond frame", string(out))
}

func TestCompressRejectsUnsupportedLevel(t *testing.T) {
	_, err := Compress([]byte("x"), Level(99))
	require.Error(t, err)
	var zerr *Error
	require.ErrorAs(t, err, &zerr)
	require.Equal(t, KindUnsupportedLevel, zerr.Kind)
}

func TestCompressDecompressRoundTrip(t *testing.T) {
	cases := map[string][]byte{
		"empty":            {},
		"single-byte":      []byte("x"),
		"no-repetition":    []byte("the quick brown fox jumps over the lazy dog"),
		"highly-repetitive": bytes.Repeat([]byte("abcabcabcabc"), 200),
		"mixed": append(append([]byte("prefix-literals-"), bytes.Repeat([]byte("RPT"), 50)...),
			[]byte("-suffix-literals")...),
		"binary": func() []byte {
			b := make([]byte, 8192)
			for i := range b {
				b[i] = byte(i * 37 % 251)
			}
			return b
		}(),
	}

	for name, input := range cases {
		t.Run(name, func(t *testing.T) {
			for _, level := range []Level{LevelUncompressed, LevelFastest} {
				encoded, err := Compress(input, level)
				require.NoError(t, err)

				out, err := DecodeAll(encoded)
				require.NoError(t, err)
				require.Equal(t, input, out)
			}
		})
	}
}

func TestCompressSpansMultipleBlocks(t *testing.T) {
	input := make([]byte, maxBlockSize*2+123)
	for i := range input {
		input[i] = byte(i)
	}
	encoded, err := Compress(input, LevelFastest)
	require.NoError(t, err)

	out, err := DecodeAll(encoded)
	require.NoError(t, err)
	require.Equal(t, input, out)
}

func TestStreamingDecoderSmallReads(t *testing.T) {
	input := bytes.Repeat([]byte("streaming-small-reads-"), 500)
	encoded, err := Compress(input, LevelFastest)
	require.NoError(t, err)

	dec := NewStreamingDecoder(bytes.NewReader(encoded), DefaultConfig())
	var out []byte
	buf := make([]byte, 7) // deliberately smaller than any single block's output
	for {
		n, err := dec.Read(buf)
		out = append(out, buf[:n]...)
		if err != nil {
			require.ErrorIs(t, err, io.EOF)
			break
		}
	}
	require.Equal(t, input, out)
}
