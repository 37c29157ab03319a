// Package fse implements zstd's Finite State Entropy codec: parsing the
// normalized-count table description, building decode/encode tables from
// it, and the state machine both the block decoder's sequence reader and
// the baseline encoder drive directly.
package fse

import (
	"fmt"
	"math/bits"
	"sort"
)

// DecoderEntry is one slot of a decode table: the symbol that slot stands
// for, how many bits to pull from the stream to refine the next state, and
// the base the pulled bits are added to.
type DecoderEntry struct {
	Symbol    uint8
	NumBits   uint8
	BaseState uint16
}

// EncoderEntry is one of a symbol's occurrences in the table, used by the
// encoder's state transition: a current state v belongs to this entry iff
// BaseState <= v <= LastState.
type EncoderEntry struct {
	BaseState  uint32
	LastState  uint32
	NumBits    uint8
	TableState uint32 // the decode-table slot this occurrence corresponds to
}

// Table is a built FSE table usable for both decoding and encoding.
type Table struct {
	AccuracyLog uint8
	Size        uint32
	Decode      []DecoderEntry   // indexed by state value, len == Size
	Encode      [][]EncoderEntry // indexed by symbol, in ascending TableState order
}

// MaxAccuracyLog bounds are mandated per-alphabet by the format.
const (
	MaxAccuracyLogLL = 9
	MaxAccuracyLogOF = 8
	MaxAccuracyLogML = 9
)

// ErrCorruptedTable is returned for any inconsistency in a normalized-count
// table or a built table (spec: CorruptedFseTable).
type ErrCorruptedTable struct {
	Reason string
}

func (e *ErrCorruptedTable) Error() string { return "fse: corrupted table: " + e.Reason }

// Build constructs decode and encode views of the FSE table described by
// counts (one entry per symbol, -1 meaning "less probable", 0 meaning
// unused) at the given accuracy log.
//
// The spread step and the less-probable-symbol placement (from the table's
// high end, downward) are the zstd-specific choices; the two-pass
// baseline/num-bits assignment mirrors the symmetric construction used for
// both FSE_buildDTable and FSE_buildCTable in the reference algorithm.
func Build(counts []int32, accuracyLog uint8) (*Table, error) {
	if accuracyLog == 0 {
		return nil, &ErrCorruptedTable{"zero accuracy log"}
	}
	size := uint32(1) << accuracyLog
	sum := int64(0)
	for _, c := range counts {
		if c == -1 {
			sum++
		} else if c > 0 {
			sum += int64(c)
		} else if c < -1 {
			return nil, &ErrCorruptedTable{"probability below -1"}
		}
	}
	if sum != int64(size) {
		return nil, &ErrCorruptedTable{fmt.Sprintf("counts sum to %d, want %d", sum, size)}
	}

	decode := make([]DecoderEntry, size)
	occupied := make([]bool, size)

	// Less-probable (-1) symbols occupy exactly one slot each, filled from
	// the high end of the table downward.
	highIdx := size - 1
	for symbol, c := range counts {
		if c != -1 {
			continue
		}
		decode[highIdx] = DecoderEntry{Symbol: uint8(symbol), NumBits: uint8(accuracyLog), BaseState: 0}
		occupied[highIdx] = true
		highIdx--
	}

	// Remaining symbols are spread with the standard zstd step, skipping
	// any slot already claimed by a less-probable symbol.
	slots := make([][]uint32, len(counts))
	pos := uint32(0)
	step := (size >> 1) + (size >> 3) + 3
	mask := size - 1
	for symbol, c := range counts {
		if c <= 0 {
			continue
		}
		for i := int32(0); i < c; i++ {
			for occupied[pos] {
				pos = (pos + step) & mask
			}
			decode[pos].Symbol = uint8(symbol)
			occupied[pos] = true
			slots[symbol] = append(slots[symbol], pos)
			pos = (pos + step) & mask
		}
	}

	encode := make([][]EncoderEntry, len(counts))
	for symbol, c := range counts {
		if c == -1 {
			entry := EncoderEntry{BaseState: 0, LastState: size - 1, NumBits: uint8(accuracyLog), TableState: highSlotFor(counts, symbol, size)}
			decode[entry.TableState] = DecoderEntry{Symbol: uint8(symbol), NumBits: entry.NumBits, BaseState: 0}
			encode[symbol] = []EncoderEntry{entry}
			continue
		}
		if c <= 0 {
			continue
		}
		prob := uint32(c)
		probLog := ceilLog2(prob)
		rounded := uint32(1) << probLog
		doubleStates := rounded - prob
		numBits := uint8(accuracyLog) - uint8(probLog)

		// the reference construction lays out the "single" (numBits-wide)
		// region starting at baseline 0, then wraps into the "double"
		// (numBits+1-wide) region; starting the single region's baseline at
		// its own span size modulo table size reproduces that layout.
		singleStates := prob - doubleStates
		baseline := (singleStates * (1 << numBits)) % size

		// occs was filled in spread order, not table-index order; the
		// baseline/numBits assignment below must walk slots low-to-high
		// regardless of the order they were claimed in.
		occs := append([]uint32(nil), slots[symbol]...)
		sort.Slice(occs, func(i, j int) bool { return occs[i] < occs[j] })
		entries := make([]EncoderEntry, prob)
		for i := uint32(0); i < prob; i++ {
			nb := numBits
			if i < doubleStates {
				nb = numBits + 1
			}
			last := baseline + (uint32(1)<<nb - 1)
			entries[i] = EncoderEntry{BaseState: baseline, LastState: last, NumBits: nb, TableState: occs[i]}
			decode[occs[i]].NumBits = nb
			decode[occs[i]].BaseState = uint16(baseline)
			baseline = (baseline + (uint32(1) << nb)) % size
		}
		encode[symbol] = entries
	}

	return &Table{AccuracyLog: accuracyLog, Size: size, Decode: decode, Encode: encode}, nil
}

// highSlotFor recovers the table slot a -1 symbol occupies, by replaying
// the same high-to-low assignment order used in Build.
func highSlotFor(counts []int32, symbol int, size uint32) uint32 {
	idx := size - 1
	for s, c := range counts {
		if c != -1 {
			continue
		}
		if s == symbol {
			return idx
		}
		idx--
	}
	return 0
}

func ceilLog2(v uint32) uint32 {
	if v <= 1 {
		return 0
	}
	return uint32(bits.Len32(v - 1))
}
