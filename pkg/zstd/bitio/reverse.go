package bitio

import "fmt"

// ErrReverseUnderflow is returned when a read would need bits below index 0
// of the wrapped slice.
var ErrReverseUnderflow = fmt.Errorf("bitio: reverse reader underflow")

// ReverseBitReader is the primitive all zstd entropy decoding is built on.
// zstd's FSE and Huffman bitstreams are written forward by the encoder but
// must be consumed starting from the last byte: the highest set bit of the
// final byte is a sentinel marking where the real payload begins, and bits
// are read from there toward index 0, most-significant-within-byte first.
type ReverseBitReader struct {
	src    []byte
	cursor int // global bit index (0 = LSB of src[0]) of the next bit to read
}

// NewReverseBitReader initializes a reader over src, skipping the sentinel
// bit in the final byte.
func NewReverseBitReader(src []byte) (*ReverseBitReader, error) {
	if len(src) == 0 {
		return nil, fmt.Errorf("bitio: reverse reader over empty slice")
	}
	last := src[len(src)-1]
	if last == 0 {
		return nil, fmt.Errorf("bitio: final byte has no sentinel bit")
	}
	hb := highestSetBit(last)
	cursor := (len(src)-1)*8 + hb - 1
	return &ReverseBitReader{src: src, cursor: cursor}, nil
}

func highestSetBit(b byte) int {
	for i := 7; i >= 0; i-- {
		if b&(1<<uint(i)) != 0 {
			return i
		}
	}
	return -1 // unreachable: caller already rejected b == 0
}

// BitsRemaining reports how many bits are still available to read.
func (r *ReverseBitReader) BitsRemaining() int {
	return r.cursor + 1
}

func (r *ReverseBitReader) bitAt(g int) uint64 {
	return uint64(r.src[g/8]>>uint(g%8)) & 1
}

// GetBits returns the next n bits (0 <= n <= 64, the common path is n <= 56)
// with the first bit read placed as the most significant bit of the n-bit
// result. It fails with ErrReverseUnderflow if fewer than n bits remain.
func (r *ReverseBitReader) GetBits(n int) (uint64, error) {
	if n == 0 {
		return 0, nil
	}
	if n < 0 || n > 64 {
		return 0, fmt.Errorf("bitio: reverse read of %d bits out of range", n)
	}
	if n > r.cursor+1 {
		return 0, ErrReverseUnderflow
	}

	var value uint64
	for i := 0; i < n; i++ {
		value = value<<1 | r.bitAt(r.cursor)
		r.cursor--
	}
	return value, nil
}

// PeekBits looks at the next n bits (0 <= n <= 57) without consuming them,
// for table-driven decoders (Huffman) that need to inspect bits before
// knowing how many of them a symbol actually consumes. If fewer than n
// bits remain, the shortfall is filled with zero bits at the low end of
// the result - every valid code is a prefix of all its own completions,
// so this still resolves to the right table entry near the end of a
// stream whose last symbol has a short code.
func (r *ReverseBitReader) PeekBits(n int) uint64 {
	if n == 0 {
		return 0
	}
	var value uint64
	g := r.cursor
	for i := 0; i < n; i++ {
		var bit uint64
		if g >= 0 {
			bit = r.bitAt(g)
			g--
		}
		value = value<<1 | bit
	}
	return value
}

// Skip advances the cursor past n bits already inspected with PeekBits. It
// fails with ErrReverseUnderflow if fewer than n bits actually remained.
func (r *ReverseBitReader) Skip(n int) error {
	if n > r.cursor+1 {
		return ErrReverseUnderflow
	}
	r.cursor -= n
	return nil
}

// Finish reports whether the reader has been drained to exactly zero
// remaining bits, the exactness check the sequence decoder relies on after
// reading the final symbol of a block (spec: ExtraBits).
func (r *ReverseBitReader) Finish() error {
	if r.cursor != -1 {
		return fmt.Errorf("bitio: %d bits left unread", r.cursor+1)
	}
	return nil
}
