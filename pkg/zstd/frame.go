package zstd

import (
	"encoding/binary"

	"github.com/zstdgo/zstd/pkg/zstd/bitio"
)

const (
	magicNumber          = 0xFD2FB528
	skippableMagicLow    = 0x184D2A50
	skippableMagicHigh   = 0x184D2A5F
	defaultMaxWindowSize = 8 << 20 // 8 MiB
	maxBlockSize         = 128 << 10
)

// Frame holds the parsed contents of a zstd frame header.
type Frame struct {
	DictionaryID      uint32
	HasContentSize    bool
	ContentSizeValue  uint64
	SingleSegment     bool
	ChecksumFlag      bool
	WindowDescriptor  uint8
	windowSize        int
}

// ContentSize returns the frame's declared decompressed size and whether
// one was declared at all (it's optional in the format).
func (f *Frame) ContentSize() (uint64, bool) {
	return f.ContentSizeValue, f.HasContentSize
}

// WindowSize returns the derived addressable-history size for this frame.
func (f *Frame) WindowSize() int {
	return f.windowSize
}

// parseFrameHeader reads everything after the magic number. maxWindowSize
// bounds the derived window size; exceeding it is WindowTooLarge.
func parseFrameHeader(r *bitio.ForwardBitReader, maxWindowSize int) (*Frame, error) {
	descRaw, err := r.GetBits(8)
	if err != nil {
		return nil, newErr(KindTruncatedInput, -1, err)
	}
	desc := byte(descRaw)

	dictIDFlag := desc & 0x3
	checksumFlag := desc&0x4 != 0
	reserved := desc & 0x8
	singleSegment := desc&0x20 != 0
	contentSizeFlag := (desc >> 6) & 0x3

	if reserved != 0 {
		return nil, newErr(KindReservedBit, -1, nil)
	}

	f := &Frame{SingleSegment: singleSegment, ChecksumFlag: checksumFlag}

	if !singleSegment {
		wdRaw, err := r.GetBits(8)
		if err != nil {
			return nil, newErr(KindTruncatedInput, -1, err)
		}
		f.WindowDescriptor = uint8(wdRaw)
		exponent := int(f.WindowDescriptor >> 3)
		mantissa := int(f.WindowDescriptor & 0x7)
		windowBase := 1 << (10 + exponent)
		windowAdd := (windowBase / 8) * mantissa
		f.windowSize = windowBase + windowAdd
	}

	if dictIDFlag != 0 {
		n := map[byte]int{1: 1, 2: 2, 3: 4}[dictIDFlag]
		v, err := r.GetBits(n * 8)
		if err != nil {
			return nil, newErr(KindTruncatedInput, -1, err)
		}
		f.DictionaryID = uint32(v)
		return nil, ErrDictionaryUnsupported
	}

	if contentSizeFlag != 0 || singleSegment {
		var n int
		switch contentSizeFlag {
		case 0:
			n = 1 // only valid when single-segment
		case 1:
			n = 2
		case 2:
			n = 4
		case 3:
			n = 8
		}
		v, err := r.GetBits(n * 8)
		if err != nil {
			return nil, newErr(KindTruncatedInput, -1, err)
		}
		if contentSizeFlag == 1 {
			v += 256 // 2-byte form is biased, per the format
		}
		f.ContentSizeValue = v
		f.HasContentSize = true
	}

	if singleSegment {
		f.windowSize = int(f.ContentSizeValue)
		if f.windowSize == 0 {
			f.windowSize = 1
		}
	}

	if f.windowSize < 1024 {
		f.windowSize = 1024
	}
	if f.windowSize > maxWindowSize {
		return nil, newErr(KindWindowTooLarge, -1, nil)
	}

	return f, nil
}

// isSkippableMagic reports whether magic falls in zstd's skippable-frame
// range.
func isSkippableMagic(magic uint32) bool {
	return magic >= skippableMagicLow && magic <= skippableMagicHigh
}

// readMagic reads a 4-byte little-endian magic number.
func readMagic(src []byte) (uint32, error) {
	if len(src) < 4 {
		return 0, newErr(KindTruncatedInput, -1, nil)
	}
	return binary.LittleEndian.Uint32(src[:4]), nil
}
