package zstd

import (
	"bytes"
	"io"

	"github.com/apex/log"
	"github.com/pkg/errors"

	"github.com/zstdgo/zstd/internal/utils"
	"github.com/zstdgo/zstd/internal/xxhash"
	"github.com/zstdgo/zstd/pkg/zstd/bitio"
	"github.com/zstdgo/zstd/pkg/zstd/huff0"
)

// Config holds the decoder's caller-tunable knobs.
type Config struct {
	MaxWindowSize          int
	VerifyChecksum         bool
	AllowConcatenatedFrames bool
	IgnoreSkippableFrames  bool
}

// DefaultConfig returns the decoder's default policy: an 8 MiB window
// cap, checksum verification on, concatenated frames allowed, skippable
// frames ignored.
func DefaultConfig() Config {
	return Config{
		MaxWindowSize:           defaultMaxWindowSize,
		VerifyChecksum:          true,
		AllowConcatenatedFrames: true,
		IgnoreSkippableFrames:   true,
	}
}

type decoderState int

const (
	stateReadingMagic decoderState = iota
	stateReadingHeader
	stateReadingBlockHeader
	stateReadingBlockBody
	stateReadingChecksum
	stateFrameComplete
	stateDone
	statePoisoned
)

// StreamingDecoder pulls zstd-compressed bytes from src and exposes
// decompressed output through Read, driving the frame/block state
// machine one call at a time so a short read from src never loses
// progress already made.
type StreamingDecoder struct {
	src    io.Reader
	cfg    Config
	state  decoderState
	poison error

	frame          *Frame
	window         *window
	offsets        offsetHistory
	tables         sequenceTables
	huffTree       *huff0.Table
	checksum       *xxhash.Digest
	curBlockHeader blockHeader

	done bool
}

// NewStreamingDecoder wraps src for pull-style decompression.
func NewStreamingDecoder(src io.Reader, cfg Config) *StreamingDecoder {
	return &StreamingDecoder{src: src, cfg: cfg, state: stateReadingMagic}
}

// Read implements io.Reader, running the frame/block state machine until
// it has at least one byte of drainable output or the stream ends.
func (d *StreamingDecoder) Read(buf []byte) (int, error) {
	if d.poison != nil {
		return 0, d.poison
	}
	if len(buf) == 0 {
		return 0, nil
	}

	for {
		if d.window != nil && d.window.drainable() > 0 {
			return d.window.drain(buf), nil
		}
		if d.done {
			return 0, io.EOF
		}
		if err := d.step(); err != nil {
			d.poison = err
			return 0, err
		}
	}
}

// step advances the state machine by exactly one unit of work: parsing a
// header field or decoding one block.
func (d *StreamingDecoder) step() error {
	switch d.state {
	case stateReadingMagic:
		return d.readMagic()
	case stateReadingHeader:
		return d.readFrameHeader()
	case stateReadingBlockHeader:
		return d.readBlockHeader()
	case stateReadingBlockBody:
		return d.readBlockBody()
	case stateReadingChecksum:
		return d.readChecksum()
	case stateFrameComplete:
		d.frame = nil
		if !d.cfg.AllowConcatenatedFrames {
			d.done = true
			return nil
		}
		d.state = stateReadingMagic
		return nil
	default:
		d.done = true
		return nil
	}
}

func (d *StreamingDecoder) readExact(n int) ([]byte, error) {
	buf := make([]byte, n)
	_, err := io.ReadFull(d.src, buf)
	if err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return nil, newErr(KindTruncatedInput, -1, err)
		}
		return nil, errors.Wrap(err, "zstd: reading from source")
	}
	return buf, nil
}

func (d *StreamingDecoder) readMagic() error {
	magicBytes, err := d.readExact(4)
	if err != nil {
		if d.frame == nil && isEOFErr(err) {
			d.done = true
			return nil
		}
		return err
	}
	magic, err := readMagic(magicBytes)
	if err != nil {
		return err
	}
	if isSkippableMagic(magic) {
		return d.skipFrame()
	}
	if magic != magicNumber {
		return newErr(KindBadMagic, -1, nil)
	}
	d.state = stateReadingHeader
	return nil
}

func isEOFErr(err error) bool {
	zerr, ok := err.(*Error)
	return ok && zerr.Kind == KindTruncatedInput
}

func (d *StreamingDecoder) skipFrame() error {
	if !d.cfg.IgnoreSkippableFrames {
		return newErr(KindBadMagic, -1, nil)
	}
	sizeBytes, err := d.readExact(4)
	if err != nil {
		return err
	}
	size := int(sizeBytes[0]) | int(sizeBytes[1])<<8 | int(sizeBytes[2])<<16 | int(sizeBytes[3])<<24
	if _, err := d.readExact(size); err != nil {
		return err
	}
	d.state = stateReadingMagic
	return nil
}

func (d *StreamingDecoder) readFrameHeader() error {
	// The frame header is 2-14 bytes; read the descriptor first to know
	// the rest of the layout, matching the field-at-a-time parse
	// parseFrameHeader expects.
	descByte, err := d.readExact(1)
	if err != nil {
		return err
	}
	desc := descByte[0]
	dictIDFlag := desc & 0x3
	singleSegment := desc&0x20 != 0
	contentSizeFlag := (desc >> 6) & 0x3

	rest := 0
	if !singleSegment {
		rest++ // window descriptor
	}
	rest += map[byte]int{0: 0, 1: 1, 2: 2, 3: 4}[dictIDFlag]
	if contentSizeFlag != 0 || singleSegment {
		rest += map[byte]int{0: 1, 1: 2, 2: 4, 3: 8}[contentSizeFlag]
	}

	restBytes, err := d.readExact(rest)
	if err != nil {
		return err
	}

	headerBytes := append(append([]byte{}, descByte...), restBytes...)
	fr := bitio.NewForwardBitReader(headerBytes)
	frame, err := parseFrameHeader(fr, d.cfg.MaxWindowSize)
	if err != nil {
		return err
	}

	log.WithFields(log.Fields{
		"window_size":     frame.windowSize,
		"checksum":        frame.ChecksumFlag,
		"single_segment":  frame.SingleSegment,
	}).Debug("parsed zstd frame header")

	d.frame = frame
	d.window = newWindow(frame.windowSize)
	d.offsets = newOffsetHistory()
	d.tables = sequenceTables{}
	d.huffTree = nil
	if frame.ChecksumFlag && d.cfg.VerifyChecksum {
		d.checksum = xxhash.New()
	} else {
		d.checksum = nil
	}
	d.state = stateReadingBlockHeader
	return nil
}

func (d *StreamingDecoder) readBlockHeader() error {
	hdrBytes, err := d.readExact(3)
	if err != nil {
		return err
	}
	h, err := parseBlockHeader(hdrBytes)
	if err != nil {
		return err
	}
	d.curBlockHeader = h
	d.state = stateReadingBlockBody
	return nil
}

func (d *StreamingDecoder) readBlockBody() error {
	h := d.curBlockHeader
	switch h.blockType {
	case blockRaw:
		body, err := d.readExact(h.size)
		if err != nil {
			return err
		}
		d.window.append(body)
		if d.checksum != nil {
			d.checksum.Write(body)
		}

	case blockRLE:
		body, err := d.readExact(1)
		if err != nil {
			return err
		}
		rle := make([]byte, h.size)
		for i := range rle {
			rle[i] = body[0]
		}
		utils.DebugHexDump(log.Log, rle)
		d.window.append(rle)
		if d.checksum != nil {
			d.checksum.Write(rle)
		}

	case blockCompressed:
		body, err := d.readExact(h.size)
		if err != nil {
			return err
		}
		produced, err := d.decodeCompressedBlock(body)
		if err != nil {
			return err
		}
		if d.checksum != nil {
			d.checksum.Write(produced)
		}
	}

	if h.last {
		if d.frame.ChecksumFlag {
			d.state = stateReadingChecksum
		} else {
			d.state = stateFrameComplete
		}
	} else {
		d.state = stateReadingBlockHeader
	}
	return nil
}

// decodeCompressedBlock runs the literals+sequences pipeline and
// executes every sequence into the window, returning the bytes produced
// (for checksum purposes).
func (d *StreamingDecoder) decodeCompressedBlock(body []byte) ([]byte, error) {
	literals, consumed, err := decodeLiterals(body, &d.huffTree)
	if err != nil {
		return nil, err
	}
	seqData := body[consumed:]
	seqs, err := decodeSequences(seqData, &d.tables)
	if err != nil {
		return nil, err
	}

	before := d.window.emitted()

	litCursor := 0
	for _, s := range seqs {
		if litCursor+int(s.literalLength) > len(literals) {
			return nil, newErr(KindCorruptedSequence, -1, nil)
		}
		d.window.append(literals[litCursor : litCursor+int(s.literalLength)])
		litCursor += int(s.literalLength)

		actualOffset := d.offsets.resolve(s.offsetCode, s.literalLength)
		if actualOffset == 0 || int64(actualOffset) > d.window.emitted() || int(actualOffset) > d.frame.windowSize {
			return nil, newErr(KindCorruptedSequence, -1, nil)
		}
		if err := d.window.copyMatch(int(actualOffset), int(s.matchLength)); err != nil {
			return nil, newErr(KindCorruptedSequence, -1, err)
		}
	}
	if litCursor < len(literals) {
		d.window.append(literals[litCursor:])
	}

	// The checksum accumulator needs the actual produced bytes, not just a
	// count; re-slice them out of the window's tail before compaction gets
	// a chance to discard them. compact() never discards bytes still
	// pending drain, and these were just appended, so they're still at the
	// end of buf.
	total := int(d.window.emitted() - before)
	tail := d.window.buf[len(d.window.buf)-total:]
	return tail, nil
}

func (d *StreamingDecoder) readChecksum() error {
	sumBytes, err := d.readExact(4)
	if err != nil {
		return err
	}
	if d.checksum != nil {
		want := uint32(sumBytes[0]) | uint32(sumBytes[1])<<8 | uint32(sumBytes[2])<<16 | uint32(sumBytes[3])<<24
		if d.checksum.Checksum32() != want {
			return newErr(KindChecksumMismatch, -1, nil)
		}
	}
	d.state = stateFrameComplete
	return nil
}

// DecodeAll decompresses a complete zstd byte stream (one or more
// concatenated frames) in one call.
func DecodeAll(input []byte) ([]byte, error) {
	dec := NewStreamingDecoder(bytes.NewReader(input), DefaultConfig())
	out := []byte{}
	buf := make([]byte, 64*1024)
	for {
		n, err := dec.Read(buf)
		out = append(out, buf[:n]...)
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
		if n == 0 {
			return out, nil
		}
	}
}
