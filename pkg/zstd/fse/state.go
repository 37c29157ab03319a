package fse

import (
	"fmt"

	"github.com/zstdgo/zstd/pkg/zstd/bitio"
)

// State drives one FSE decode stream against a built Table.
type State struct {
	table *Table
	value uint32
}

// NewState initializes a decode state by pulling AccuracyLog bits directly
// off the reverse bitstream — this is always the first thing a sequences
// section or a Huffman-irrelevant FSE stream does after its table and
// bitstream are both in hand.
func NewState(t *Table, r *bitio.ReverseBitReader) (*State, error) {
	v, err := r.GetBits(int(t.AccuracyLog))
	if err != nil {
		return nil, err
	}
	return &State{table: t, value: uint32(v)}, nil
}

// Symbol reports the symbol the current state decodes to.
func (s *State) Symbol() uint8 {
	return s.table.Decode[s.value].Symbol
}

// Update consumes the current state's NumBits from r and advances to the
// next state; call after Symbol() has been consumed by the caller.
func (s *State) Update(r *bitio.ReverseBitReader) error {
	entry := s.table.Decode[s.value]
	if entry.NumBits == 0 {
		s.value = uint32(entry.BaseState)
		return nil
	}
	bits, err := r.GetBits(int(entry.NumBits))
	if err != nil {
		return err
	}
	s.value = uint32(entry.BaseState) + uint32(bits)
	return nil
}

// EncState drives one FSE encode stream against a built Table. Symbols are
// fed in the REVERSE of their logical order (zstd sequence/weight streams
// are FSE-encoded back to front so the decoder's final-byte-first reverse
// read sees the first logical symbol last).
type EncState struct {
	table *Table
	entry EncoderEntry
	init  bool
}

// NewEncState prepares an encode stream. The first call to Encode selects
// the initial state without writing anything (the accuracy-log-wide final
// state value is instead written explicitly by Flush, once all symbols of
// the stream have been processed).
func NewEncState(t *Table) *EncState {
	return &EncState{table: t}
}

// Encode transitions to symbol's state, writing the bits needed to
// distinguish it among symbol's possible states given the current one.
func (s *EncState) Encode(w *bitio.BitWriter, symbol uint8) error {
	occs := s.table.Encode[symbol]
	if len(occs) == 0 {
		return fmt.Errorf("fse: symbol %d has zero probability in table", symbol)
	}
	if !s.init {
		s.entry = occs[0]
		s.init = true
		return nil
	}
	cur := s.entry.TableState
	next, err := findOccurrence(occs, cur)
	if err != nil {
		return err
	}
	w.AddBits(uint64(cur)-uint64(next.BaseState), uint(next.NumBits))
	s.entry = next
	return nil
}

// Flush writes the final state value (AccuracyLog bits) at the tail of the
// stream; a decoder's NewState reads exactly this many bits first.
func (s *EncState) Flush(w *bitio.BitWriter) {
	w.AddBits(uint64(s.entry.TableState), uint(s.table.AccuracyLog))
}

func findOccurrence(occs []EncoderEntry, state uint32) (EncoderEntry, error) {
	for _, o := range occs {
		if state >= o.BaseState && state <= o.LastState {
			return o, nil
		}
	}
	return EncoderEntry{}, fmt.Errorf("fse: state %d not covered by symbol's occurrences", state)
}
