package huff0

import (
	"encoding/binary"
	"fmt"

	"github.com/zstdgo/zstd/pkg/zstd/bitio"
)

// DecodeSingleStream decodes exactly outLen symbols from a single Huffman
// bitstream (literal blocks with fewer than four streams' worth of data).
func DecodeSingleStream(t *Table, src []byte, outLen int) ([]byte, error) {
	r, err := bitio.NewReverseBitReader(src)
	if err != nil {
		return nil, err
	}
	out := make([]byte, outLen)
	for i := 0; i < outLen; i++ {
		sym, err := t.decodeOne(r)
		if err != nil {
			return nil, err
		}
		out[i] = sym
	}
	return out, nil
}

// DecodeFourStreams decodes the standard 4-stream literal layout: a
// 6-byte jump table gives the first three streams' sizes (the fourth is
// whatever remains), each stream independently Huffman-decoded and
// concatenated. outLen is split into four nearly-equal pieces the same
// way the encoder split it: ceil(outLen/4) for streams 1-3, remainder
// for stream 4.
func DecodeFourStreams(t *Table, src []byte, outLen int) ([]byte, error) {
	if len(src) < 6 {
		return nil, fmt.Errorf("huff0: four-stream literal payload too short for jump table")
	}
	size1 := int(binary.LittleEndian.Uint16(src[0:2]))
	size2 := int(binary.LittleEndian.Uint16(src[2:4]))
	size3 := int(binary.LittleEndian.Uint16(src[4:6]))
	offset := 6
	if offset+size1+size2+size3 > len(src) {
		return nil, fmt.Errorf("huff0: four-stream jump table out of range")
	}
	stream1 := src[offset : offset+size1]
	offset += size1
	stream2 := src[offset : offset+size2]
	offset += size2
	stream3 := src[offset : offset+size3]
	offset += size3
	stream4 := src[offset:]

	splitSize := (outLen + 3) / 4
	out1Len := splitSize
	out2Len := splitSize
	out3Len := splitSize
	out4Len := outLen - 3*splitSize
	if out4Len < 0 {
		return nil, fmt.Errorf("huff0: four-stream output length too small")
	}

	out := make([]byte, 0, outLen)
	for _, s := range []struct {
		data []byte
		n    int
	}{{stream1, out1Len}, {stream2, out2Len}, {stream3, out3Len}, {stream4, out4Len}} {
		decoded, err := DecodeSingleStream(t, s.data, s.n)
		if err != nil {
			return nil, err
		}
		out = append(out, decoded...)
	}
	return out, nil
}
