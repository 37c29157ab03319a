package zstd

import (
	"github.com/zstdgo/zstd/pkg/zstd/bitio"
	"github.com/zstdgo/zstd/pkg/zstd/fse"
)

type symbolMode uint8

const (
	modePredefined   symbolMode = 0
	modeRLE          symbolMode = 1
	modeFSECompressed symbolMode = 2
	modeRepeat       symbolMode = 3
)

// symbolSource is either a real FSE table or a degenerate RLE "table"
// that always yields the same symbol and never consumes bits - both are
// valid targets for Repeat mode in a later block.
type symbolSource struct {
	mode      symbolMode
	table     *fse.Table
	rleSymbol uint8
}

// sourceState drives one of the three interleaved FSE streams (or stands
// in for an RLE source, which needs no stream at all).
type sourceState struct {
	src   *symbolSource
	state *fse.State
}

func newSourceState(src *symbolSource, r *bitio.ReverseBitReader) (*sourceState, error) {
	s := &sourceState{src: src}
	if src.mode != modeRLE {
		st, err := fse.NewState(src.table, r)
		if err != nil {
			return nil, err
		}
		s.state = st
	}
	return s, nil
}

func (s *sourceState) symbol() uint8 {
	if s.src.mode == modeRLE {
		return s.src.rleSymbol
	}
	return s.state.Symbol()
}

func (s *sourceState) update(r *bitio.ReverseBitReader) error {
	if s.src.mode == modeRLE {
		return nil
	}
	return s.state.Update(r)
}

// sequenceTables holds the frame-scoped symbolSource for each of the
// three alphabets, replaced on Predefined/RLE/FSE_Compressed and held
// as-is across blocks using Repeat.
type sequenceTables struct {
	ll, of, ml *symbolSource
}

// parseSequencesHeader reads the variable-width sequence count followed
// by the symbol-compression-modes byte.
func parseSequencesHeader(data []byte) (numSequences int, modes [3]symbolMode, headerLen int, err error) {
	if len(data) == 0 {
		return 0, modes, 0, newErr(KindTruncatedInput, -1, nil)
	}
	b0 := data[0]
	switch {
	case b0 == 0:
		return 0, modes, 1, nil
	case b0 < 128:
		numSequences, headerLen = int(b0), 1
	case b0 < 255:
		if len(data) < 2 {
			return 0, modes, 0, newErr(KindTruncatedInput, -1, nil)
		}
		numSequences, headerLen = (int(b0-128)<<8)+int(data[1]), 2
	default:
		if len(data) < 3 {
			return 0, modes, 0, newErr(KindTruncatedInput, -1, nil)
		}
		numSequences, headerLen = int(data[1])+int(data[2])<<8+0x7F00, 3
	}
	if headerLen >= len(data) {
		return 0, modes, 0, newErr(KindTruncatedInput, -1, nil)
	}
	modeByte := data[headerLen]
	modes[0] = symbolMode((modeByte >> 6) & 0x3)
	modes[1] = symbolMode((modeByte >> 4) & 0x3)
	modes[2] = symbolMode((modeByte >> 2) & 0x3)
	headerLen++
	return numSequences, modes, headerLen, nil
}

// buildSource constructs the symbolSource for one alphabet, advancing r
// (a forward reader over the remaining table-description bytes) as
// needed, and consulting/updating the frame's persisted table on
// Predefined/RLE/FSE_Compressed/Repeat.
func buildSource(r *bitio.ForwardBitReader, data []byte, mode symbolMode, maxSymbol int, maxAccLog uint8,
	predefined []int32, predefinedAccLog uint8, prev **symbolSource) (*symbolSource, error) {

	switch mode {
	case modePredefined:
		tbl, err := fse.Build(predefined, predefinedAccLog)
		if err != nil {
			return nil, newErr(KindCorruptedFseTable, -1, err)
		}
		src := &symbolSource{mode: modePredefined, table: tbl}
		*prev = src
		return src, nil

	case modeRLE:
		pos := r.BytePos()
		if pos >= len(data) {
			return nil, newErr(KindTruncatedInput, -1, nil)
		}
		sym := data[pos]
		if _, err := r.GetBits(8); err != nil {
			return nil, newErr(KindTruncatedInput, -1, err)
		}
		src := &symbolSource{mode: modeRLE, rleSymbol: sym}
		*prev = src
		return src, nil

	case modeFSECompressed:
		counts, accLog, err := fse.ReadNormalizedCounts(r, maxSymbol, maxAccLog)
		if err != nil {
			return nil, newErr(KindCorruptedFseTable, -1, err)
		}
		tbl, err := fse.Build(counts, accLog)
		if err != nil {
			return nil, newErr(KindCorruptedFseTable, -1, err)
		}
		src := &symbolSource{mode: modeFSECompressed, table: tbl}
		*prev = src
		return src, nil

	case modeRepeat:
		if *prev == nil {
			return nil, newErr(KindMissingPreviousTable, -1, nil)
		}
		return *prev, nil
	}
	return nil, newErr(KindReservedBit, -1, nil)
}

// decodedSequence is one (literal_length, offset_code, match_length)
// triple before repeat-offset resolution.
type decodedSequence struct {
	literalLength uint64
	offsetCode    uint64
	matchLength   uint64
}

// decodeSequences parses the symbol-compression-mode table descriptions
// and the reverse-read sequence bitstream, returning the raw sequences.
// Per spec: within the bitstream, extra bits are read in order offset,
// match-length, literal-length; states are updated (after every sequence
// but the last) in order LL, ML, OF.
func decodeSequences(data []byte, tables *sequenceTables) ([]decodedSequence, error) {
	numSeq, modes, headerLen, err := parseSequencesHeader(data)
	if err != nil {
		return nil, err
	}
	if numSeq == 0 {
		return nil, nil
	}

	fr := bitio.NewForwardBitReader(data[headerLen:])
	llSrc, err := buildSource(fr, data[headerLen:], modes[0], fse.MaxLiteralLengthCode, fse.MaxAccuracyLogLL,
		fse.LiteralLengthDefaultDistribution, fse.LiteralLengthDefaultAccuracyLog, &tables.ll)
	if err != nil {
		return nil, err
	}
	ofSrc, err := buildSource(fr, data[headerLen:], modes[1], fse.MaxOffsetCode, fse.MaxAccuracyLogOF,
		fse.OffsetDefaultDistribution, fse.OffsetDefaultAccuracyLog, &tables.of)
	if err != nil {
		return nil, err
	}
	mlSrc, err := buildSource(fr, data[headerLen:], modes[2], fse.MaxMatchLengthCode, fse.MaxAccuracyLogML,
		fse.MatchLengthDefaultDistribution, fse.MatchLengthDefaultAccuracyLog, &tables.ml)
	if err != nil {
		return nil, err
	}

	bitstreamStart := headerLen + fr.BytePos()
	if bitstreamStart > len(data) {
		return nil, newErr(KindTruncatedInput, -1, nil)
	}
	rr, err := bitio.NewReverseBitReader(data[bitstreamStart:])
	if err != nil {
		return nil, newErr(KindTruncatedInput, -1, err)
	}

	ll, err := newSourceState(llSrc, rr)
	if err != nil {
		return nil, newErr(KindNotEnoughBits, -1, err)
	}
	of, err := newSourceState(ofSrc, rr)
	if err != nil {
		return nil, newErr(KindNotEnoughBits, -1, err)
	}
	ml, err := newSourceState(mlSrc, rr)
	if err != nil {
		return nil, newErr(KindNotEnoughBits, -1, err)
	}

	out := make([]decodedSequence, numSeq)
	for i := 0; i < numSeq; i++ {
		ofCode := of.symbol()
		ofExtra, err := rr.GetBits(int(ofCode))
		if err != nil {
			return nil, newErr(KindNotEnoughBits, -1, err)
		}
		offsetValue := (uint64(1) << ofCode) + ofExtra

		mlCode := ml.symbol()
		mlExtraBits := fse.MLExtraBits[mlCode]
		mlExtra, err := rr.GetBits(int(mlExtraBits))
		if err != nil {
			return nil, newErr(KindNotEnoughBits, -1, err)
		}
		matchLength := uint64(fse.MLBaseline[mlCode]) + mlExtra

		llCode := ll.symbol()
		llExtraBits := fse.LLExtraBits[llCode]
		llExtra, err := rr.GetBits(int(llExtraBits))
		if err != nil {
			return nil, newErr(KindNotEnoughBits, -1, err)
		}
		literalLength := uint64(fse.LLBaseline[llCode]) + llExtra

		out[i] = decodedSequence{literalLength: literalLength, offsetCode: offsetValue, matchLength: matchLength}

		if i != numSeq-1 {
			if err := ll.update(rr); err != nil {
				return nil, newErr(KindNotEnoughBits, -1, err)
			}
			if err := ml.update(rr); err != nil {
				return nil, newErr(KindNotEnoughBits, -1, err)
			}
			if err := of.update(rr); err != nil {
				return nil, newErr(KindNotEnoughBits, -1, err)
			}
		}
	}

	if err := rr.Finish(); err != nil {
		return nil, newErr(KindExtraBits, -1, err)
	}
	return out, nil
}
