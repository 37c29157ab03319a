package zstd

import (
	"encoding/binary"
	"math/bits"

	"github.com/zstdgo/zstd/pkg/zstd/bitio"
	"github.com/zstdgo/zstd/pkg/zstd/fse"
	"github.com/zstdgo/zstd/pkg/zstd/huff0"
)

// Level selects the encoder's compression/speed tradeoff. Only the two
// levels below are accepted; anything else is rejected rather than
// silently downgraded (see DESIGN.md's Open Questions).
type Level int

const (
	LevelUncompressed Level = iota
	LevelFastest
)

const minMatch = 4

// Compress encodes input as a single zstd frame at the given level.
func Compress(input []byte, level Level) ([]byte, error) {
	if level != LevelUncompressed && level != LevelFastest {
		return nil, newErr(KindUnsupportedLevel, -1, nil)
	}

	out := frameHeaderBytes(len(input))

	if len(input) == 0 {
		hdr := writeBlockHeader(true, blockRaw, 0)
		return append(out, hdr[:]...), nil
	}

	offsets := newOffsetHistory()
	for start := 0; start < len(input); start += maxBlockSize {
		end := start + maxBlockSize
		if end > len(input) {
			end = len(input)
		}
		chunk := input[start:end]
		last := end == len(input)
		block, err := encodeBlock(chunk, last, level, &offsets)
		if err != nil {
			return nil, err
		}
		out = append(out, block...)
	}
	return out, nil
}

// encodeBlock chooses Raw, RLE or Compressed for one chunk, preferring
// whichever produces the smallest block. A rejected Compressed attempt
// must not leave the repeat-offset history advanced, since the decoder
// never saw the sequences that would have advanced it.
func encodeBlock(chunk []byte, last bool, level Level, offsets *offsetHistory) ([]byte, error) {
	if level == LevelUncompressed {
		return wrapBlock(last, blockRaw, chunk), nil
	}
	if allSameByte(chunk) {
		hdr := writeBlockHeader(last, blockRLE, len(chunk))
		return append(hdr[:], chunk[0]), nil
	}

	saved := *offsets
	body, ok, err := compressBlockFastest(chunk, offsets)
	if err != nil {
		return nil, err
	}
	if !ok {
		*offsets = saved
		return wrapBlock(last, blockRaw, chunk), nil
	}
	return wrapBlock(last, blockCompressed, body), nil
}

func wrapBlock(last bool, bt blockType, payload []byte) []byte {
	hdr := writeBlockHeader(last, bt, len(payload))
	out := make([]byte, 0, 3+len(payload))
	out = append(out, hdr[:]...)
	return append(out, payload...)
}

func allSameByte(b []byte) bool {
	for i := 1; i < len(b); i++ {
		if b[i] != b[0] {
			return false
		}
	}
	return true
}

// frameHeaderBytes writes a single-segment frame header (window size is
// implied by content size, so the whole input must fit within the
// decoder's window-size cap to round-trip under its default config)
// with no dictionary and no checksum.
func frameHeaderBytes(contentSize int) []byte {
	var desc byte = 0x20 // single segment, no checksum, no dictionary
	var sizeBytes []byte
	switch {
	case contentSize < 256:
		sizeBytes = []byte{byte(contentSize)}
	case contentSize < 65536+256:
		desc |= 1 << 6
		v := contentSize - 256
		sizeBytes = []byte{byte(v), byte(v >> 8)}
	case uint64(contentSize) <= 0xFFFFFFFF:
		desc |= 2 << 6
		sizeBytes = make([]byte, 4)
		binary.LittleEndian.PutUint32(sizeBytes, uint32(contentSize))
	default:
		desc |= 3 << 6
		sizeBytes = make([]byte, 8)
		binary.LittleEndian.PutUint64(sizeBytes, uint64(contentSize))
	}

	out := make([]byte, 4)
	binary.LittleEndian.PutUint32(out, magicNumber)
	out = append(out, desc)
	return append(out, sizeBytes...)
}

// rawSeq is one match found by the block's match finder, paired with
// the literal run immediately preceding it.
type rawSeq struct {
	litLen   int
	offset   int
	matchLen int
}

// compressBlockFastest runs the greedy hash-chain matcher, builds the
// literals and sequences sections, and reports whether the result beats
// sending the chunk raw.
func compressBlockFastest(chunk []byte, offsets *offsetHistory) ([]byte, bool, error) {
	seqs, tailStart := findSequences(chunk)
	literals := buildLiteralsBuffer(chunk, seqs, tailStart)

	litSection := writeLiteralsSection(literals)
	seqSection, err := writeSequencesSection(seqs, offsets)
	if err != nil {
		return nil, false, err
	}

	body := make([]byte, 0, len(litSection)+len(seqSection))
	body = append(body, litSection...)
	body = append(body, seqSection...)
	return body, len(body) < len(chunk), nil
}

// findSequences runs a greedy hash-chain match finder over chunk,
// requiring matches of at least minMatch bytes, and returns the
// sequences found plus the offset of the unmatched tail.
func findSequences(chunk []byte) ([]rawSeq, int) {
	const hashBits = 17
	const hashSize = 1 << hashBits
	const maxChainDepth = 32

	head := make([]int32, hashSize)
	for i := range head {
		head[i] = -1
	}
	chain := make([]int32, len(chunk))

	hashAt := func(i int) uint32 {
		v := binary.LittleEndian.Uint32(chunk[i:])
		return (v * 2654435761) >> (32 - hashBits)
	}
	matchLenAt := func(a, b int) int {
		n := 0
		for b+n < len(chunk) && chunk[a+n] == chunk[b+n] {
			n++
		}
		return n
	}
	insert := func(i int) {
		h := hashAt(i)
		chain[i] = head[h]
		head[h] = int32(i)
	}

	var seqs []rawSeq
	litStart := 0
	i := 0
	for i+minMatch <= len(chunk) {
		h := hashAt(i)
		candidate := head[h]
		bestLen, bestPos := 0, -1
		for depth := 0; candidate >= 0 && depth < maxChainDepth; depth++ {
			if l := matchLenAt(int(candidate), i); l > bestLen {
				bestLen, bestPos = l, int(candidate)
			}
			candidate = chain[candidate]
		}
		insert(i)

		if bestLen < minMatch {
			i++
			continue
		}

		seqs = append(seqs, rawSeq{litLen: i - litStart, offset: i - bestPos, matchLen: bestLen})
		end := i + bestLen
		for j := i + 1; j < end && j+minMatch <= len(chunk); j++ {
			insert(j)
		}
		i = end
		litStart = i
	}
	return seqs, litStart
}

// buildLiteralsBuffer concatenates every sequence's preceding literal
// run with the final unmatched tail, in order - the single pool the
// block's literals section holds and the sequence loop consumes from.
func buildLiteralsBuffer(chunk []byte, seqs []rawSeq, tailStart int) []byte {
	var buf []byte
	pos := 0
	for _, s := range seqs {
		buf = append(buf, chunk[pos:pos+s.litLen]...)
		pos += s.litLen + s.matchLen
	}
	return append(buf, chunk[tailStart:]...)
}

// llCodeFor and its siblings below are the encode-side inverse of the
// baseline/extra-bits tables decodeSequences reads forward.
func llCodeFor(v uint64) (code uint8, extra uint64) {
	for c := len(fse.LLBaseline) - 1; c >= 0; c-- {
		if v >= uint64(fse.LLBaseline[c]) {
			return uint8(c), v - uint64(fse.LLBaseline[c])
		}
	}
	return 0, v
}

func mlCodeFor(v uint64) (code uint8, extra uint64) {
	for c := len(fse.MLBaseline) - 1; c >= 0; c-- {
		if v >= uint64(fse.MLBaseline[c]) {
			return uint8(c), v - uint64(fse.MLBaseline[c])
		}
	}
	return 0, v
}

// ofCodeFor turns an offset value (>= 1) into its code (the position of
// its highest set bit) and the extra bits below it - the format defines
// offsetValue = (1<<code) + extra directly, with no separate baseline
// table.
func ofCodeFor(v uint64) (code uint8, extra uint64) {
	c := uint8(bits.Len64(v) - 1)
	return c, v - (uint64(1) << c)
}

// writeSequencesSection builds the numSequences/mode header followed by
// the three interleaved FSE streams, using the format's Predefined
// distributions for LL, OF and ML rather than rebuilding per-block
// tables from observed frequencies - a baseline encoder doesn't need
// the custom-table machinery the decoder already supports for other
// producers' streams.
func writeSequencesSection(seqs []rawSeq, offsets *offsetHistory) ([]byte, error) {
	if len(seqs) == 0 {
		return []byte{0}, nil // numSequences == 0 has no mode byte at all
	}
	out := writeSequencesHeaderBytes(len(seqs))
	out = append(out, 0x00) // LL, OF, ML all Predefined

	n := len(seqs)
	llCodes := make([]uint8, n)
	mlCodes := make([]uint8, n)
	ofCodes := make([]uint8, n)
	llExtra := make([]uint64, n)
	mlExtra := make([]uint64, n)
	ofExtra := make([]uint64, n)

	for i, s := range seqs {
		llCodes[i], llExtra[i] = llCodeFor(uint64(s.litLen))
		mlCodes[i], mlExtra[i] = mlCodeFor(uint64(s.matchLen))
		offsetValue := offsets.encode(uint64(s.offset), uint64(s.litLen))
		ofCodes[i], ofExtra[i] = ofCodeFor(offsetValue)
	}

	llTable, _ := fse.Build(fse.LiteralLengthDefaultDistribution, fse.LiteralLengthDefaultAccuracyLog)
	ofTable, _ := fse.Build(fse.OffsetDefaultDistribution, fse.OffsetDefaultAccuracyLog)
	mlTable, _ := fse.Build(fse.MatchLengthDefaultDistribution, fse.MatchLengthDefaultAccuracyLog)

	w := bitio.NewBitWriter()
	encLL := fse.NewEncState(llTable)
	encML := fse.NewEncState(mlTable)
	encOF := fse.NewEncState(ofTable)

	last := n - 1
	if err := encLL.Encode(w, llCodes[last]); err != nil {
		return nil, err
	}
	if err := encML.Encode(w, mlCodes[last]); err != nil {
		return nil, err
	}
	if err := encOF.Encode(w, ofCodes[last]); err != nil {
		return nil, err
	}

	// The decoder reads, per sequence in index order, offset/match/literal
	// extra bits then (except after the last sequence) updates the LL, ML
	// and OF states in that order; writing forward produces bits a
	// ReverseBitReader consumes starting from the tail, so every field
	// above is emitted here in the exact reverse order and index sequence.
	for i := last; i >= 0; i-- {
		w.AddBits(llExtra[i], uint(fse.LLExtraBits[llCodes[i]]))
		w.AddBits(mlExtra[i], uint(fse.MLExtraBits[mlCodes[i]]))
		w.AddBits(ofExtra[i], uint(ofCodes[i]))
		if i > 0 {
			if err := encOF.Encode(w, ofCodes[i-1]); err != nil {
				return nil, err
			}
			if err := encML.Encode(w, mlCodes[i-1]); err != nil {
				return nil, err
			}
			if err := encLL.Encode(w, llCodes[i-1]); err != nil {
				return nil, err
			}
		} else {
			encML.Flush(w)
			encOF.Flush(w)
			encLL.Flush(w)
		}
	}
	w.AddBits(1, 1)
	return append(out, w.Flush()...), nil
}

// writeSequencesHeaderBytes is the inverse of parseSequencesHeader's
// variable-width count encoding, choosing the shortest valid form.
func writeSequencesHeaderBytes(numSeq int) []byte {
	switch {
	case numSeq == 0:
		return []byte{0}
	case numSeq < 128:
		return []byte{byte(numSeq)}
	case numSeq < 32512:
		return []byte{byte(128 + numSeq>>8), byte(numSeq)}
	default:
		v := numSeq - 0x7F00
		return []byte{255, byte(v), byte(v >> 8)}
	}
}

// writeLiteralsSection picks Raw, RLE or Huffman-Compressed for the
// block's literal pool, falling back to Raw whenever compression
// doesn't actually shrink it.
func writeLiteralsSection(literals []byte) []byte {
	if len(literals) == 0 {
		return writeRawOrRLEHeader(literalsRaw, 0)
	}
	if allSameByte(literals) {
		return append(writeRawOrRLEHeader(literalsRLE, len(literals)), literals[0])
	}

	if compressed, ok := encodeLiteralsHuffman(literals); ok {
		return compressed
	}
	return append(writeRawOrRLEHeader(literalsRaw, len(literals)), literals...)
}

func encodeLiteralsHuffman(literals []byte) ([]byte, bool) {
	counts := make([]int64, 256)
	for _, b := range literals {
		counts[b]++
	}
	tree, err := huff0.BuildTableFromCounts(counts)
	if err != nil {
		return nil, false
	}

	weightsW := bitio.NewBitWriter()
	if err := huff0.WriteWeights(weightsW, tree); err != nil {
		return nil, false
	}
	weightsBytes := weightsW.Flush()

	streams := 4
	payload := huff0.EncodeFourStreams(tree, literals)
	if len(literals) < 1024 {
		single := huff0.EncodeSingleStream(tree, literals)
		if len(weightsBytes)+len(single) < 1024 {
			payload, streams = single, 1
		}
	}

	compSize := len(weightsBytes) + len(payload)
	if compSize >= len(literals) {
		return nil, false
	}

	sizeFormat, headerLen, bitsField := literalsCompressedFormat(streams, len(literals), compSize)
	header := writeCompressedLiteralsHeader(literalsCompressed, sizeFormat, headerLen, bitsField, len(literals), compSize)
	out := make([]byte, 0, len(header)+compSize)
	out = append(out, header...)
	out = append(out, weightsBytes...)
	return append(out, payload...), true
}

func literalsCompressedFormat(streams, regSize, compSize int) (sizeFormat byte, headerLen, bits int) {
	if streams == 1 {
		return 0, 3, 10
	}
	if regSize < 16384 && compSize < 16384 {
		return 2, 4, 14
	}
	return 3, 5, 18
}

// writeCompressedLiteralsHeader is the inverse of parseLiteralsHeader's
// compressed-section bit packing: a little-endian integer built from
// the header's bytes, with blockType/sizeFormat in the low nibble and
// regSize/compSize packed above it.
func writeCompressedLiteralsHeader(blockType literalsBlockType, sizeFormat byte, headerLen, bitsField, regSize, compSize int) []byte {
	value := uint64(regSize) | uint64(compSize)<<bitsField
	packed := value<<4 | uint64(blockType) | uint64(sizeFormat)<<2
	out := make([]byte, headerLen)
	for i := 0; i < headerLen; i++ {
		out[i] = byte(packed)
		packed >>= 8
	}
	return out
}

// writeRawOrRLEHeader is the inverse of parseLiteralsHeader's Raw/RLE
// case, picking the 1/2/3-byte form by size.
func writeRawOrRLEHeader(blockType literalsBlockType, size int) []byte {
	switch {
	case size < 32:
		return []byte{byte(blockType) | byte(size)<<3}
	case size < 4096:
		return []byte{
			byte(blockType) | 1<<2 | byte(size&0xF)<<4,
			byte(size >> 4),
		}
	default:
		return []byte{
			byte(blockType) | 3<<2 | byte(size&0xF)<<4,
			byte((size >> 4) & 0xFF),
			byte((size >> 12) & 0xFF),
		}
	}
}
