package zstd

import "github.com/zstdgo/zstd/pkg/zstd/huff0"

type literalsBlockType uint8

const (
	literalsRaw            literalsBlockType = 0
	literalsRLE            literalsBlockType = 1
	literalsCompressed     literalsBlockType = 2
	literalsCompressedRepeat literalsBlockType = 3
)

type literalsHeader struct {
	blockType       literalsBlockType
	regeneratedSize int
	compressedSize  int // only meaningful for the two compressed types
	streams         int
	headerLen       int
}

// parseLiteralsHeader reads the 1-to-5 byte literals section header. The
// header's bit layout packs Literals_Block_Type (2 bits) and Size_Format
// (2 bits) into the low nibble of the first byte, then one or two
// variable-width size fields across the rest of the header bytes -
// simplest to decode by building a little-endian integer from the whole
// header and slicing bitfields out of it directly, rather than threading
// a generic bit reader through the type/size-format quirk where Raw and
// RLE blocks reuse Size_Format's high bit as the size field's low bit.
func parseLiteralsHeader(data []byte) (literalsHeader, error) {
	if len(data) == 0 {
		return literalsHeader{}, newErr(KindTruncatedInput, -1, nil)
	}
	blockType := literalsBlockType(data[0] & 0x3)
	sizeFormat := (data[0] >> 2) & 0x3

	switch blockType {
	case literalsRaw, literalsRLE:
		var headerLen, size int
		switch sizeFormat {
		case 0, 2:
			headerLen, size = 1, int(data[0]>>3)
		case 1:
			headerLen = 2
			if len(data) < 2 {
				return literalsHeader{}, newErr(KindTruncatedInput, -1, nil)
			}
			size = int(data[0]>>4) | int(data[1])<<4
		default:
			headerLen = 3
			if len(data) < 3 {
				return literalsHeader{}, newErr(KindTruncatedInput, -1, nil)
			}
			size = int(data[0]>>4) | int(data[1])<<4 | int(data[2])<<12
		}
		return literalsHeader{blockType: blockType, regeneratedSize: size, headerLen: headerLen}, nil

	case literalsCompressed, literalsCompressedRepeat:
		var headerLen, streams, bits int
		switch sizeFormat {
		case 0:
			headerLen, streams, bits = 3, 1, 10
		case 1:
			headerLen, streams, bits = 3, 4, 10
		case 2:
			headerLen, streams, bits = 4, 4, 14
		default:
			headerLen, streams, bits = 5, 4, 18
		}
		if len(data) < headerLen {
			return literalsHeader{}, newErr(KindTruncatedInput, -1, nil)
		}
		var packed uint64
		for i := headerLen - 1; i >= 0; i-- {
			packed = packed<<8 | uint64(data[i])
		}
		packed >>= 4
		mask := uint64(1)<<bits - 1
		regSize := packed & mask
		compSize := (packed >> bits) & mask
		return literalsHeader{
			blockType:       blockType,
			regeneratedSize: int(regSize),
			compressedSize:  int(compSize),
			streams:         streams,
			headerLen:       headerLen,
		}, nil
	}
	return literalsHeader{}, newErr(KindReservedBit, -1, nil)
}

// decodeLiterals parses and decodes a block's literals section, returning
// the literal byte buffer and the number of bytes of blockBody consumed.
// prevTree is the frame's currently active Huffman tree (nil if none has
// been built yet this frame); a "new tree" section replaces *prevTree.
func decodeLiterals(blockBody []byte, prevTree **huff0.Table) ([]byte, int, error) {
	h, err := parseLiteralsHeader(blockBody)
	if err != nil {
		return nil, 0, err
	}

	switch h.blockType {
	case literalsRaw:
		end := h.headerLen + h.regeneratedSize
		if end > len(blockBody) {
			return nil, 0, newErr(KindTruncatedInput, -1, nil)
		}
		return blockBody[h.headerLen:end], end, nil

	case literalsRLE:
		if h.headerLen >= len(blockBody) {
			return nil, 0, newErr(KindTruncatedInput, -1, nil)
		}
		b := blockBody[h.headerLen]
		out := make([]byte, h.regeneratedSize)
		for i := range out {
			out[i] = b
		}
		return out, h.headerLen + 1, nil
	}

	// Compressed or Compressed_Repeat.
	payloadStart := h.headerLen
	payloadEnd := payloadStart + h.compressedSize
	if payloadEnd > len(blockBody) {
		return nil, 0, newErr(KindTruncatedInput, -1, nil)
	}
	payload := blockBody[payloadStart:payloadEnd]

	var tree *huff0.Table
	if h.blockType == literalsCompressed {
		weights, consumed, err := huff0.ReadWeights(payload)
		if err != nil {
			return nil, 0, newErr(KindCorruptedHuffmanTree, -1, err)
		}
		tree, err = huff0.BuildTable(weights)
		if err != nil {
			return nil, 0, newErr(KindCorruptedHuffmanTree, -1, err)
		}
		payload = payload[consumed:]
		*prevTree = tree
	} else {
		if *prevTree == nil {
			return nil, 0, newErr(KindMissingPreviousTable, -1, nil)
		}
		tree = *prevTree
	}

	var out []byte
	var derr error
	if h.streams == 1 {
		out, derr = huff0.DecodeSingleStream(tree, payload, h.regeneratedSize)
	} else {
		out, derr = huff0.DecodeFourStreams(tree, payload, h.regeneratedSize)
	}
	if derr != nil {
		return nil, 0, newErr(KindCorruptedHuffmanTree, -1, derr)
	}
	return out, payloadEnd, nil
}
