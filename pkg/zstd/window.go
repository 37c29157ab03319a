package zstd

// window is the sliding output buffer sequences copy matches out of. It
// retains at most windowSize bytes of history behind the already-drained
// read cursor, growing up to that cap as bytes are emitted rather than
// allocating it eagerly.
type window struct {
	buf         []byte // buf[0:readPos] already handed to the caller
	readPos     int
	windowSize  int
	totalEmitted int64
}

func newWindow(windowSize int) *window {
	return &window{windowSize: windowSize}
}

// append adds literal bytes directly to the window.
func (w *window) append(p []byte) {
	w.buf = append(w.buf, p...)
	w.totalEmitted += int64(len(p))
	w.compact()
}

// appendByte adds a single byte. RLE blocks and copyMatch append through
// their own paths and do not call it.
func (w *window) appendByte(b byte) {
	w.buf = append(w.buf, b)
	w.totalEmitted++
}

// copyMatch copies matchLen bytes starting offset bytes behind the
// current end of buffer, into the same buffer (so it may read bytes it
// itself is writing). Implemented byte-by-byte, which is the only
// correct approach when offset < matchLen: a bulk copy would read bytes
// not yet written.
func (w *window) copyMatch(offset, matchLen int) error {
	if offset <= 0 || offset > len(w.buf) {
		return errOffsetOutOfRange
	}
	srcIdx := len(w.buf) - offset
	for i := 0; i < matchLen; i++ {
		w.buf = append(w.buf, w.buf[srcIdx+i])
	}
	w.totalEmitted += int64(matchLen)
	w.compact()
	return nil
}

// compact drops already-drained bytes once they fall outside the window,
// so memory stays bounded by windowSize plus undrained output.
func (w *window) compact() {
	keepFrom := len(w.buf) - w.windowSize
	if keepFrom > w.readPos {
		keepFrom = w.readPos
	}
	if keepFrom <= 0 {
		return
	}
	copy(w.buf, w.buf[keepFrom:])
	w.buf = w.buf[:len(w.buf)-keepFrom]
	w.readPos -= keepFrom
}

// drain copies up to len(dst) undrained bytes into dst and returns how
// many were copied.
func (w *window) drain(dst []byte) int {
	avail := len(w.buf) - w.readPos
	n := len(dst)
	if n > avail {
		n = avail
	}
	copy(dst, w.buf[w.readPos:w.readPos+n])
	w.readPos += n
	w.compact()
	return n
}

// drainable reports how many bytes are waiting to be handed to the caller.
func (w *window) drainable() int {
	return len(w.buf) - w.readPos
}

// emitted reports the total number of bytes ever appended to the window
// within the current frame, used for offset-range validation.
func (w *window) emitted() int64 { return w.totalEmitted }

var errOffsetOutOfRange = newErr(KindCorruptedSequence, -1, nil)
