package huff0

import (
	"encoding/binary"
	"math/bits"
	"sort"

	"github.com/zstdgo/zstd/pkg/zstd/bitio"
	"github.com/zstdgo/zstd/pkg/zstd/fse"
)

// BuildTableFromCounts derives a canonical Huffman table from per-symbol
// frequency counts, following the same weight-distribution shape as
// HuffmanTable::build_from_counts: symbols are given a first-pass weight
// distribution sized only by how many distinct symbols occur, the
// distribution is squeezed to respect MaxNumBits, then weights are handed
// out to symbols in frequency order (rarest symbols get the smallest
// weight, i.e. the longest code).
func BuildTableFromCounts(counts []int64) (*Table, error) {
	nonZero := 0
	for _, c := range counts {
		if c > 0 {
			nonZero++
		}
	}
	if nonZero == 0 {
		return nil, &ErrCorruptedTree{"no symbols to encode"}
	}
	if nonZero == 1 {
		// A single symbol can't form a real prefix code; give it weight 1
		// as a degenerate one-bit code, matching the "weight sum must be a
		// power of two" invariant with a phantom second leaf on a
		// neighbouring unused symbol.
		weights := make([]uint8, len(counts))
		for sym, c := range counts {
			if c > 0 {
				weights[sym] = 1
				if sym+1 < len(counts) {
					weights[sym+1] = 1
				} else if sym > 0 {
					weights[sym-1] = 1
				}
				break
			}
		}
		return BuildTable(weights)
	}

	dist := distributeWeights(nonZero)
	redistributeWeights(dist, bits.Len(uint(len(dist)-1))+2)

	type idxCount struct {
		symbol int
		count  int64
	}
	var sortedByCount []idxCount
	for sym, c := range counts {
		if c > 0 {
			sortedByCount = append(sortedByCount, idxCount{sym, c})
		}
	}
	sort.Slice(sortedByCount, func(i, j int) bool { return sortedByCount[i].count < sortedByCount[j].count })

	weights := make([]uint8, len(counts))
	for i, ic := range sortedByCount {
		weights[ic.symbol] = dist[i]
	}
	return BuildTable(weights)
}

// distributeWeights produces `amount` weights, smallest first, whose Kraft
// sum (sum of 1<<(weight-1)) is a power of two - the un-squeezed starting
// point before redistributeWeights enforces a maximum code length.
func distributeWeights(amount int) []uint8 {
	weights := []uint8{1, 1}
	targetWeight := 1
	weightCounter := 2
	for len(weights) < amount {
		addNew := 1 << (weightCounter - targetWeight)
		available := amount - len(weights)
		if addNew > available {
			targetWeight = weightCounter
			addNew = 1
		}
		for i := 0; i < addNew; i++ {
			weights = append(weights, uint8(targetWeight))
		}
		weightCounter++
	}
	return weights
}

// redistributeWeights squeezes weights so the resulting code length never
// exceeds maxNumBits, borrowing Kraft budget from the smallest weights
// (which become the longest codes) first.
func redistributeWeights(weights []uint8, maxNumBits int) {
	sum := 0
	for _, w := range weights {
		sum += 1 << w
	}
	weightSumLog := bits.Len(uint(sum)) - 1
	if weightSumLog < maxNumBits {
		return
	}
	decreaseBy := weightSumLog - maxNumBits + 1
	added := 0
	for i, w := range weights {
		if int(w) < decreaseBy {
			for add := int(w); add < decreaseBy; add++ {
				added += 1 << add
			}
			weights[i] = uint8(decreaseBy)
		}
	}

	for added > 0 {
		currentIdx := -1
		currentWeight := 0
		for i, w := range weights {
			if 1<<(w-1) > added {
				break
			}
			if int(w) > currentWeight {
				currentWeight = int(w)
				currentIdx = i
			}
		}
		if currentIdx < 0 {
			break
		}
		added -= 1 << (currentWeight - 1)
		weights[currentIdx]--
	}

	if weights[0] > 1 {
		offset := weights[0] - 1
		for i := range weights {
			weights[i] -= offset
		}
	}
}

// WriteWeights emits a Huffman tree description for t, choosing the
// direct nibble form when there are few enough symbols and the
// FSE-compressed form otherwise, mirroring write_table.
func WriteWeights(w *bitio.BitWriter, t *Table) error {
	var weights []uint8
	maxBits := t.maxBits
	for sym := 0; sym < 256; sym++ {
		c := t.codes[sym]
		if c.numBits == 0 {
			weights = append(weights, 0)
			continue
		}
		weights = append(weights, maxBits-c.numBits+1)
	}
	for len(weights) > 0 && weights[len(weights)-1] == 0 {
		weights = weights[:len(weights)-1]
	}
	explicit := weights[:len(weights)-1] // last weight is implied, never written

	if len(explicit) > 16 {
		counts := make([]int64, maxWeightSymbol+1)
		for _, wt := range explicit {
			counts[wt]++
		}
		norm := countsFromFrequencies(counts, 6)
		ft, err := fse.Build(norm, 6)
		if err != nil {
			// Falls back to the direct form - a pathological weight
			// distribution that can't be FSE-modeled at accuracy 6 is rare
			// enough not to warrant a second compressed encoding attempt.
			writeDirectWeights(w, explicit)
			return nil
		}
		// The table description comes first, padded to a byte boundary,
		// followed by the reverse-read weight bitstream.
		desc := bitio.NewBitWriter()
		fse.WriteNormalizedCounts(desc, norm, 6)
		body := bitio.NewBitWriter()
		if err := encodeWeightsInterleaved(body, ft, explicit); err != nil {
			return err
		}
		body.AddBits(1, 1)
		payload := append(desc.Flush(), body.Flush()...)
		w.AddBits(uint64(len(payload)), 8)
		for _, b := range payload {
			w.AddBits(uint64(b), 8)
		}
		return nil
	}
	writeDirectWeights(w, explicit)
	return nil
}

// encodeWeightsInterleaved FSE-encodes data using two independent states
// that alternate consuming the array back to front, the throughput trick
// the format mandates for this particular stream (mirroring
// FSEEncoder::encode_interleaved): state1 seeds from the last element and
// then walks every other element down to index 1 (plus index 0 when len is
// odd); state2 seeds from the second-to-last element and walks the
// remaining ones. Both final states are flushed at the tail, state1 last
// when an odd leftover was folded into it so the decoder - which always
// reads the tail-first flush as the state for index 0 - sees the right one
// regardless of parity.
func encodeWeightsInterleaved(w *bitio.BitWriter, t *fse.Table, data []uint8) error {
	n := len(data)
	state1 := fse.NewEncState(t)
	state2 := fse.NewEncState(t)
	if err := state1.Encode(w, data[n-1]); err != nil {
		return err
	}
	if err := state2.Encode(w, data[n-2]); err != nil {
		return err
	}

	idx := n - 4
	for {
		if err := state1.Encode(w, data[idx+1]); err != nil {
			return err
		}
		if err := state2.Encode(w, data[idx]); err != nil {
			return err
		}
		if idx < 2 {
			break
		}
		idx -= 2
	}

	if idx == 1 {
		if err := state1.Encode(w, data[0]); err != nil {
			return err
		}
		state2.Flush(w)
		state1.Flush(w)
	} else {
		state1.Flush(w)
		state2.Flush(w)
	}
	return nil
}

func writeDirectWeights(w *bitio.BitWriter, explicit []uint8) {
	w.AddBits(uint64(len(explicit))+127, 8)
	for i := 0; i < len(explicit); i += 2 {
		high := explicit[i]
		var low uint8
		if i+1 < len(explicit) {
			low = explicit[i+1]
		}
		w.AddBits(uint64(low), 4)
		w.AddBits(uint64(high), 4)
	}
}

// countsFromFrequencies turns raw occurrence counts into FSE normalized
// counts at the given accuracy log, the same probability-normalization
// build_table_from_counts performs before spreading.
func countsFromFrequencies(freq []int64, accuracyLog uint8) []int32 {
	var total int64
	for _, f := range freq {
		total += f
	}
	if total == 0 {
		return make([]int32, len(freq))
	}
	size := int64(1) << accuracyLog
	counts := make([]int32, len(freq))
	remaining := size
	maxSym, maxVal := -1, int64(0)
	for sym, f := range freq {
		if f == 0 {
			continue
		}
		c := (f*size + total/2) / total
		if c == 0 {
			c = 1
		}
		counts[sym] = int32(c)
		remaining -= c
		if f > maxVal {
			maxVal, maxSym = f, sym
		}
	}
	if maxSym >= 0 {
		counts[maxSym] += int32(remaining)
	}
	return counts
}

// EncodeSingleStream writes data as one Huffman-coded stream.
func EncodeSingleStream(t *Table, data []byte) []byte {
	w := bitio.NewBitWriter()
	for i := len(data) - 1; i >= 0; i-- {
		v, n, err := t.encodeSymbol(data[i])
		if err != nil {
			continue
		}
		w.AddBits(uint64(v), uint(n))
	}
	w.AddBits(1, 1)
	return w.Flush()
}

// EncodeFourStreams splits data into four nearly-equal pieces and encodes
// each independently, prefixed by the 6-byte jump table DecodeFourStreams
// expects.
func EncodeFourStreams(t *Table, data []byte) []byte {
	splitSize := (len(data) + 3) / 4
	clamp := func(s int) []byte {
		if s > len(data) {
			s = len(data)
		}
		return data[:s]
	}
	s1 := clamp(splitSize)
	rest1 := data[len(s1):]
	s2 := rest1
	if len(s2) > splitSize {
		s2 = s2[:splitSize]
	}
	rest2 := rest1[len(s2):]
	s3 := rest2
	if len(s3) > splitSize {
		s3 = s3[:splitSize]
	}
	s4 := rest2[len(s3):]

	e1 := EncodeSingleStream(t, s1)
	e2 := EncodeSingleStream(t, s2)
	e3 := EncodeSingleStream(t, s3)
	e4 := EncodeSingleStream(t, s4)

	out := make([]byte, 6, 6+len(e1)+len(e2)+len(e3)+len(e4))
	binary.LittleEndian.PutUint16(out[0:2], uint16(len(e1)))
	binary.LittleEndian.PutUint16(out[2:4], uint16(len(e2)))
	binary.LittleEndian.PutUint16(out[4:6], uint16(len(e3)))
	out = append(out, e1...)
	out = append(out, e2...)
	out = append(out, e3...)
	out = append(out, e4...)
	return out
}
