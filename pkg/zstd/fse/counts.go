package fse

import (
	"math/bits"

	"github.com/zstdgo/zstd/pkg/zstd/bitio"
)

// ReadNormalizedCounts parses an FSE table description: a 4-bit accuracy
// log header followed by a variable-width-coded count per symbol, with
// runs of zero-probability symbols collapsed into a chained 2-bit repeat
// count. maxSymbol bounds how many symbols the caller's alphabet has.
//
// This is the exact inverse of write_table in the zstd reference encoder:
// each count is written using either nbBits-1 or nbBits bits depending on
// whether it falls below a per-step low threshold, and decoding replays
// that same threshold test bit by bit.
func ReadNormalizedCounts(r *bitio.ForwardBitReader, maxSymbol int, maxAccuracyLog uint8) ([]int32, uint8, error) {
	raw, err := r.GetBits(4)
	if err != nil {
		return nil, 0, err
	}
	accuracyLog := uint8(raw) + 5
	if accuracyLog > maxAccuracyLog {
		return nil, 0, &ErrCorruptedTable{"accuracy log exceeds alphabet maximum"}
	}

	total := int32(1) << accuracyLog
	counts := make([]int32, maxSymbol+1)
	remaining := total
	counter := int32(0)
	symbol := 0

	for counter < total {
		if symbol > maxSymbol {
			return nil, 0, &ErrCorruptedTable{"too many symbols in table description"}
		}
		maxRemaining := remaining + 1
		bitsToWrite := bits.Len32(uint32(maxRemaining))
		lowThreshold := int32(1<<bitsToWrite-1) - maxRemaining
		low, err := r.GetBits(bitsToWrite - 1)
		if err != nil {
			return nil, 0, err
		}
		var value int32
		if int32(low) < lowThreshold {
			value = int32(low)
		} else {
			extra, err := r.GetBits(1)
			if err != nil {
				return nil, 0, err
			}
			candidate := int32(low) | int32(extra)<<(bitsToWrite-1)
			if extra == 1 {
				value = candidate - lowThreshold
			} else {
				value = candidate
			}
		}

		prob := value - 1
		counts[symbol] = prob
		symbol++

		switch {
		case prob == -1:
			counter++
			remaining--
		case prob > 0:
			counter += prob
			remaining -= prob
		default: // prob == 0: a zero-run may follow
			for {
				repeatRaw, err := r.GetBits(2)
				if err != nil {
					return nil, 0, err
				}
				repeat := int(repeatRaw)
				for i := 0; i < repeat; i++ {
					if symbol > maxSymbol {
						return nil, 0, &ErrCorruptedTable{"zero run exceeds alphabet size"}
					}
					counts[symbol] = 0
					symbol++
				}
				if repeat < 3 {
					break
				}
			}
		}
	}
	if counter != total {
		return nil, 0, &ErrCorruptedTable{"counts do not sum to table size"}
	}
	r.Align()
	return counts, accuracyLog, nil
}

// WriteNormalizedCounts is the mirror encoder: it assumes counts already
// sums (treating -1 as 1) to exactly 1<<accuracyLog.
func WriteNormalizedCounts(w *bitio.BitWriter, counts []int32, accuracyLog uint8) {
	w.AddBits(uint64(accuracyLog-5), 4)

	total := int32(1) << accuracyLog
	remaining := total
	symbol := 0
	// Stop once the whole table is allocated, as ReadNormalizedCounts does;
	// trailing zero-probability symbols are not written.
	for symbol < len(counts) && remaining > 0 {
		prob := counts[symbol]
		symbol++

		maxRemaining := remaining + 1
		bitsToWrite := bits.Len32(uint32(maxRemaining))
		lowThreshold := int32(1<<bitsToWrite-1) - maxRemaining
		mask := int32(1<<(bitsToWrite-1)) - 1
		value := prob + 1
		switch {
		case value < lowThreshold:
			w.AddBits(uint64(value), uint(bitsToWrite-1))
		case value > mask:
			w.AddBits(uint64(value+lowThreshold), uint(bitsToWrite))
		default:
			w.AddBits(uint64(value), uint(bitsToWrite))
		}

		switch {
		case prob == -1:
			remaining--
		case prob > 0:
			remaining -= prob
		default:
			zeros := 0
			for symbol < len(counts) && counts[symbol] == 0 {
				zeros++
				symbol++
				if zeros == 3 {
					w.AddBits(3, 2)
					zeros = 0
				}
			}
			w.AddBits(uint64(zeros), 2)
		}
	}
}
