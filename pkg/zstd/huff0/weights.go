package huff0

import (
	"math/bits"

	"github.com/zstdgo/zstd/pkg/zstd/bitio"
	"github.com/zstdgo/zstd/pkg/zstd/fse"
)

const maxWeightSymbol = MaxNumBits

// ReadWeights parses a Huffman tree description starting at data[0] and
// returns the per-symbol weights (including the deduced final weight) and
// the number of bytes consumed.
//
// A header byte under 128 means the weights that follow (header-many
// bytes) are themselves FSE-compressed; 128 or above means header-127
// weights follow directly as 4-bit nibble pairs, high nibble first.
func ReadWeights(data []byte) ([]uint8, int, error) {
	if len(data) == 0 {
		return nil, 0, &ErrCorruptedTree{"empty weight description"}
	}
	header := data[0]
	if header < 128 {
		encodedLen := int(header)
		if encodedLen == 0 || 1+encodedLen > len(data) {
			return nil, 0, &ErrCorruptedTree{"fse-compressed weight length out of range"}
		}
		weights, err := readFSEWeights(data[1 : 1+encodedLen])
		if err != nil {
			return nil, 0, err
		}
		return appendImpliedWeight(weights), 1 + encodedLen, nil
	}

	numExplicit := int(header) - 127
	bytesNeeded := (numExplicit + 1) / 2
	if 1+bytesNeeded > len(data) {
		return nil, 0, &ErrCorruptedTree{"direct weight description truncated"}
	}
	r := bitio.NewForwardBitReader(data[1 : 1+bytesNeeded])
	weights := make([]uint8, 0, numExplicit)
	for len(weights) < numExplicit {
		low, err := r.GetBits(4)
		if err != nil {
			return nil, 0, err
		}
		high, err := r.GetBits(4)
		if err != nil {
			return nil, 0, err
		}
		weights = append(weights, uint8(high))
		if len(weights) < numExplicit {
			weights = append(weights, uint8(low))
		}
	}
	return appendImpliedWeight(weights), 1 + bytesNeeded, nil
}

func readFSEWeights(seg []byte) ([]uint8, error) {
	fr := bitio.NewForwardBitReader(seg)
	counts, accLog, err := fse.ReadNormalizedCounts(fr, maxWeightSymbol, 6)
	if err != nil {
		return nil, err
	}
	table, err := fse.Build(counts, accLog)
	if err != nil {
		return nil, err
	}

	rest := seg[fr.BytePos():]
	rr, err := bitio.NewReverseBitReader(rest)
	if err != nil {
		return nil, err
	}

	// The encoder wrote two interleaved states, flushing whichever one last
	// produced weights[0] at the very tail - so the first state read back
	// is always weights[0]'s, the second always weights[1]'s, regardless of
	// whether the encoder took the even- or odd-length path. From there the
	// two states simply alternate producing the rest in order.
	state1, err := fse.NewState(table, rr)
	if err != nil {
		return nil, err
	}
	state2, err := fse.NewState(table, rr)
	if err != nil {
		return nil, err
	}

	weights := []uint8{state1.Symbol()}
	if rr.BitsRemaining() == 0 {
		return weights, nil
	}
	weights = append(weights, state2.Symbol())

	turn1 := true
	for rr.BitsRemaining() > 0 {
		if turn1 {
			if err := state1.Update(rr); err != nil {
				return nil, err
			}
			weights = append(weights, state1.Symbol())
		} else {
			if err := state2.Update(rr); err != nil {
				return nil, err
			}
			weights = append(weights, state2.Symbol())
		}
		turn1 = !turn1
	}
	return weights, nil
}

// appendImpliedWeight deduces and appends the one weight the format never
// encodes explicitly: whatever value makes the Kraft sum a power of two.
func appendImpliedWeight(explicit []uint8) []uint8 {
	var total uint32
	for _, w := range explicit {
		if w > 0 {
			total += 1 << (w - 1)
		}
	}
	maxBits := bits.Len32(total) // smallest m with 1<<m > total
	leftover := (uint32(1) << maxBits) - total
	lastWeight := uint8(bits.TrailingZeros32(leftover)) + 1
	return append(append([]uint8{}, explicit...), lastWeight)
}
