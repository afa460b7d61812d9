package markio

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
)

// Reader adds buffering and a bounded mark/reset window to a ByteSource.
//
// All methods except Close serialize on an internal mutex. Close may run
// concurrently with a blocked Read; the blocked call completes and every
// later call fails with ErrStreamClosed.
type Reader struct {
	mu     sync.Mutex
	win    window[byte]
	src    ByteSource
	err    error // pending source error, reported once the buffer drains
	logger *slog.Logger
}

// NewReader returns a Reader over src. The default buffer size is
// DefaultBufferSize.
func NewReader(src ByteSource, opts ...Option) (*Reader, error) {
	o := buildOptions(opts)
	r := &Reader{src: src, logger: o.logger}
	if err := r.win.init(o.size, o.maxSize); err != nil {
		return nil, err
	}
	return r, nil
}

// NewReaderSize returns a Reader whose buffer initially holds size bytes.
func NewReaderSize(src ByteSource, size int, opts ...Option) (*Reader, error) {
	return NewReader(src, append(opts, WithBufferSize(size))...)
}

// readErr returns and clears the pending source error. A drained source
// without a recorded error is at its end.
func (r *Reader) readErr() error {
	err := r.err
	r.err = nil
	if err == nil {
		return io.EOF
	}
	return err
}

// pendingErr returns and clears a pending non-EOF error.
func (r *Reader) pendingErr() error {
	err := r.err
	r.err = nil
	if err == io.EOF {
		return nil
	}
	return err
}

// fill performs the buffer bookkeeping chosen by planByteFill, then issues
// exactly one read from the source. A zero-length result leaves the buffer
// exhausted; the caller observes the end of stream on its own check.
func (r *Reader) fill() error {
	p, err := r.win.load()
	if err != nil {
		return err
	}
	w := &r.win
	size := len(*p)
	act := planByteFill(w.markPos, w.pos, size, w.markLimit, w.maxSize)
	switch act {
	case fillDiscard:
		w.pos = 0
	case fillAppend:
	case fillCompact:
		w.compact(*p)
	case fillInvalidate:
		w.invalidate()
		w.pos = 0
	case fillOverflow:
		w.invalidate()
		w.pos = 0
		w.count = 0
		return fmt.Errorf("%w: mark needs more than %d bytes", ErrOutOfMemory, w.maxSize)
	case fillGrow:
		nsz := byteGrowSize(w.pos, w.markLimit, w.maxSize)
		if p, err = w.grow(p, nsz); err != nil {
			return err
		}
	}
	if act != fillDiscard && act != fillAppend {
		r.logger.Debug("markio: fill", "action", act, "size", size, "new_size", len(*p), "pos", w.pos)
	}

	buf := *p
	w.count = w.pos
	n, err := r.src.Read(buf[w.pos:])
	if n < 0 {
		return errNegativeRead
	}
	if n > 0 {
		w.count = w.pos + n
	}
	if err != nil {
		r.err = err
	}
	return nil
}

// ensure makes at least one unit available. It reports false when the
// source is drained; the caller then returns readErr.
func (r *Reader) ensure() (bool, error) {
	if !r.win.exhausted() {
		return true, nil
	}
	if r.err != nil {
		return false, nil
	}
	if err := r.fill(); err != nil {
		return false, err
	}
	return !r.win.exhausted(), nil
}

// ReadByte reads and returns a single byte. At the end of the stream it
// returns io.EOF. At most one fill is attempted.
func (r *Reader) ReadByte() (byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, err := r.win.load(); err != nil {
		return 0, err
	}
	ok, err := r.ensure()
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, r.readErr()
	}
	p, err := r.win.load()
	if err != nil {
		return 0, err
	}
	c := (*p)[r.win.pos]
	r.win.pos++
	return c, nil
}

// read1 transfers at most one buffer's worth into dst.
func (r *Reader) read1(dst []byte) (int, error) {
	if r.win.exhausted() {
		if r.err != nil {
			return 0, r.readErr()
		}
		// Large reads with no mark bypass the buffer so stacked buffered
		// readers do not multiply copies.
		if len(dst) >= r.win.size() && !r.win.marked() {
			return r.bypass(dst)
		}
		if err := r.fill(); err != nil {
			return 0, err
		}
		if r.win.exhausted() {
			return 0, r.readErr()
		}
	}
	p, err := r.win.load()
	if err != nil {
		return 0, err
	}
	n := copy(dst, (*p)[r.win.pos:r.win.count])
	r.win.pos += n
	return n, nil
}

func (r *Reader) bypass(dst []byte) (int, error) {
	n, err := r.src.Read(dst)
	if n < 0 {
		return 0, errNegativeRead
	}
	r.logger.Debug("markio: bypass read", "len", len(dst), "n", n)
	if n > 0 {
		if err != nil {
			r.err = err
		}
		return n, nil
	}
	if err == nil {
		err = io.EOF
	}
	return 0, err
}

// ReadInto reads up to n bytes into dst[off:off+n].
//
// It keeps reading until n bytes arrive, the stream ends, or the source
// reports that no more data is available without blocking. The last rule
// trades throughput for latency: a short count does not imply the end of
// the stream. End of stream is reported as io.EOF only when no byte was
// transferred. An error hit after some bytes were transferred is returned by
// the next call.
func (r *Reader) ReadInto(dst []byte, off, n int) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, err := r.win.load(); err != nil {
		return 0, err
	}
	if err := checkBounds(len(dst), off, n); err != nil {
		return 0, err
	}
	if n == 0 {
		return 0, nil
	}
	dst = dst[off : off+n]

	total := 0
	for {
		nr, err := r.read1(dst[total:])
		if err != nil {
			if total == 0 {
				return 0, err
			}
			if !errors.Is(err, io.EOF) {
				r.err = err
			}
			return total, nil
		}
		total += nr
		if total >= n {
			return total, nil
		}
		if available(r.src) <= 0 {
			return total, nil
		}
	}
}

// Read implements io.Reader. See ReadInto for when it returns fewer than
// len(p) bytes.
func (r *Reader) Read(p []byte) (int, error) {
	return r.ReadInto(p, 0, len(p))
}

// Skip discards up to n bytes and returns how many were skipped. With an
// empty buffer and no mark the skip is delegated to the source; otherwise at
// most the buffered bytes are skipped.
func (r *Reader) Skip(n int64) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, err := r.win.load(); err != nil {
		return 0, err
	}
	if n <= 0 {
		return 0, nil
	}
	if r.win.exhausted() {
		if err := r.pendingErr(); err != nil {
			return 0, err
		}
		if !r.win.marked() {
			return skipSource(r.src, n)
		}
		if err := r.fill(); err != nil {
			return 0, err
		}
		if r.win.exhausted() {
			return 0, r.pendingErr()
		}
	}
	skipped := min(int64(r.win.buffered()), n)
	r.win.pos += int(skipped)
	return skipped, nil
}

// Available estimates how many bytes can be read without blocking: the
// buffered bytes plus the source's own estimate, saturating at math.MaxInt.
func (r *Reader) Available() (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, err := r.win.load(); err != nil {
		return 0, err
	}
	return saturatingAdd(r.win.buffered(), available(r.src)), nil
}

// Buffered returns the number of bytes that can be read from the buffer
// without touching the source.
func (r *Reader) Buffered() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.win.buffered()
}

// Size returns the current buffer length, or 0 after Close.
func (r *Reader) Size() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.win.size()
}

// Mark records the current position. Up to limit bytes may be read before
// the mark may be dropped; a limit of 0 drops it on the next fill.
func (r *Reader) Mark(limit int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, err := r.win.load(); err != nil {
		return err
	}
	if limit < 0 {
		return fmt.Errorf("%w: mark limit %d < 0", ErrInvalidArgument, limit)
	}
	r.win.mark(limit)
	return nil
}

// Reset rewinds to the last mark. It fails with ErrInvalidMark if no mark
// is set or the mark was dropped.
func (r *Reader) Reset() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, err := r.win.load(); err != nil {
		return err
	}
	return r.win.reset()
}

// Peek returns the next n bytes without consuming them. Fewer bytes are
// returned together with an error when the stream ends first. Peek clears
// any mark set before it.
func (r *Reader) Peek(n int) ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, err := r.win.load(); err != nil {
		return nil, err
	}
	if n < 0 {
		return nil, fmt.Errorf("%w: peek length %d < 0", ErrInvalidArgument, n)
	}

	r.win.mark(n)
	out := make([]byte, n)
	got := 0
	var rerr error
	for got < n {
		nr, err := r.read1(out[got:])
		got += nr
		if err != nil {
			rerr = err
			break
		}
	}
	if err := r.win.reset(); err != nil {
		return nil, err
	}
	r.win.unmark()
	return out[:got], rerr
}

// Close releases the buffer and closes the source. Only the first call
// closes the source; later or concurrent calls return nil.
func (r *Reader) Close() error {
	if !r.win.release() {
		return nil
	}
	return r.src.Close()
}
