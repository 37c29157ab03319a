// Package huff0 implements zstd's Huffman literal codec: parsing a
// symbol-weight description (direct or FSE-compressed), building the
// canonical code from those weights, and decoding/encoding 1- or 4-stream
// literal payloads against it.
package huff0

import (
	"fmt"
	"math/bits"
	"sort"

	"github.com/zstdgo/zstd/pkg/zstd/bitio"
)

// MaxNumBits is the largest code length the format allows for a literal.
const MaxNumBits = 11

// code is a symbol's canonical bit pattern (MSB-first, as read back by a
// ReverseBitReader) and its length.
type code struct {
	value   uint32
	numBits uint8
}

// Table holds both views of a built Huffman tree: per-symbol codes for
// encoding, and a direct-lookup table for decoding.
type Table struct {
	codes      [256]code
	maxBits    uint8
	decodeTbl  []decodeEntry // len == 1<<maxBits
}

type decodeEntry struct {
	symbol  uint8
	numBits uint8
}

// ErrCorruptedTree is returned for any malformed weight description or
// resulting canonical assignment (spec: CorruptedHuffmanTree).
type ErrCorruptedTree struct{ Reason string }

func (e *ErrCorruptedTree) Error() string { return "huff0: corrupted tree: " + e.Reason }

// BuildTable constructs a Table from a per-symbol weight slice (index is
// the symbol; weight 0 means the symbol is absent from the alphabet).
// Mirrors HuffmanTable::build_from_weights: codes are assigned by walking
// symbols sorted by (weight, symbol) ascending, giving shorter codes (the
// largest weight) to the most frequent symbols.
func BuildTable(weights []uint8) (*Table, error) {
	type entry struct {
		symbol uint8
		weight uint8
	}
	var sorted []entry
	for sym, w := range weights {
		if w > 0 {
			sorted = append(sorted, entry{uint8(sym), w})
		}
	}
	if len(sorted) == 0 {
		return nil, &ErrCorruptedTree{"no symbols with nonzero weight"}
	}
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].weight != sorted[j].weight {
			return sorted[i].weight < sorted[j].weight
		}
		return sorted[i].symbol < sorted[j].symbol
	})

	weightSum := uint32(0)
	for _, e := range sorted {
		weightSum += 1 << (e.weight - 1)
	}
	if weightSum == 0 || weightSum&(weightSum-1) != 0 {
		return nil, &ErrCorruptedTree{"weights do not form a complete code"}
	}
	maxNumBits := uint8(bits.Len32(weightSum)) - 1
	if maxNumBits == 0 || maxNumBits > MaxNumBits {
		return nil, &ErrCorruptedTree{"resulting code length out of range"}
	}

	t := &Table{maxBits: maxNumBits, decodeTbl: make([]decodeEntry, 1<<maxNumBits)}

	var currentValue uint32
	var currentWeight, currentNumBits uint8
	for _, e := range sorted {
		if currentWeight != e.weight {
			currentValue >>= e.weight - currentWeight
			currentWeight = e.weight
			currentNumBits = maxNumBits - e.weight + 1
		}
		t.codes[e.symbol] = code{value: currentValue, numBits: currentNumBits}
		fillDecodeEntries(t.decodeTbl, maxNumBits, e.symbol, currentValue, currentNumBits)
		currentValue++
	}
	return t, nil
}

// fillDecodeEntries populates every table slot whose top numBits bits
// equal value with (symbol, numBits): every completion of that prefix
// decodes to the same symbol.
func fillDecodeEntries(tbl []decodeEntry, maxNumBits uint8, symbol uint8, value uint32, numBits uint8) {
	shift := maxNumBits - numBits
	base := value << shift
	for i := uint32(0); i < uint32(1)<<shift; i++ {
		tbl[base+i] = decodeEntry{symbol: symbol, numBits: numBits}
	}
}

// MaxBits reports the table's maximum code length.
func (t *Table) MaxBits() uint8 { return t.maxBits }

// decodeOne reads exactly one symbol from r using the table's direct
// lookup: peek the widest possible prefix, consume only what that code
// actually needs.
func (t *Table) decodeOne(r *bitio.ReverseBitReader) (uint8, error) {
	peek := r.PeekBits(int(t.maxBits))
	entry := t.decodeTbl[peek]
	if entry.numBits == 0 {
		return 0, fmt.Errorf("huff0: invalid code encountered while decoding")
	}
	if err := r.Skip(int(entry.numBits)); err != nil {
		return 0, err
	}
	return entry.symbol, nil
}

// encodeSymbol returns symbol's canonical code, for the encoder.
func (t *Table) encodeSymbol(symbol uint8) (uint32, uint8, error) {
	c := t.codes[symbol]
	if c.numBits == 0 {
		return 0, 0, fmt.Errorf("huff0: symbol %d has no assigned code", symbol)
	}
	return c.value, c.numBits, nil
}
