package markio

import (
	"fmt"
	"sync/atomic"
)

// Mark states stored in window.markPos when no valid mark index is held.
const (
	unmarked    = -1
	invalidated = -2
)

// fillAction is the buffer bookkeeping a fill performs before reading from
// the source.
type fillAction int

const (
	// fillDiscard drops all buffered content; no mark is held.
	fillDiscard fillAction = iota
	// fillAppend reads into the free tail of the buffer.
	fillAppend
	// fillCompact moves [markPos, pos) to the front of the buffer.
	fillCompact
	// fillInvalidate drops the mark and all buffered content.
	fillInvalidate
	// fillOverflow means honoring the mark would exceed the size ceiling.
	fillOverflow
	// fillGrow swaps in a larger buffer holding [markPos, pos).
	fillGrow
)

func (a fillAction) String() string {
	switch a {
	case fillDiscard:
		return "discard"
	case fillAppend:
		return "append"
	case fillCompact:
		return "compact"
	case fillInvalidate:
		return "invalidate"
	case fillOverflow:
		return "overflow"
	case fillGrow:
		return "grow"
	}
	return fmt.Sprintf("fillAction(%d)", int(a))
}

// planByteFill decides the bookkeeping for a byte stream fill. Compaction is
// deferred until the buffer is physically exhausted; growth happens only
// once the mark sits at offset 0.
func planByteFill(markPos, pos, size, markLimit, maxSize int) fillAction {
	switch {
	case markPos < 0:
		return fillDiscard
	case pos < size:
		return fillAppend
	case markPos > 0:
		return fillCompact
	case size >= markLimit:
		return fillInvalidate
	case size >= maxSize:
		return fillOverflow
	default:
		return fillGrow
	}
}

// byteGrowSize doubles pos, saturating at maxSize, and never exceeds
// markLimit.
func byteGrowSize(pos, markLimit, maxSize int) int {
	n := maxSize
	if pos <= maxSize-pos {
		n = pos * 2
	}
	return min(n, markLimit)
}

// planTextFill decides the bookkeeping for a text stream fill. The read-ahead
// limit is used directly as the new buffer size when it exceeds the current
// one.
func planTextFill(markPos, pos, size, limit, maxSize int) fillAction {
	switch {
	case markPos < 0:
		return fillDiscard
	case pos-markPos >= limit:
		return fillInvalidate
	case limit <= size:
		return fillCompact
	case limit > maxSize:
		return fillOverflow
	default:
		return fillGrow
	}
}

// window is the buffer state of one open stream. Every field except buf is
// guarded by the owning stream's mutex; buf is swapped atomically so Close
// can release it without the mutex.
type window[T any] struct {
	buf atomic.Pointer[[]T]

	count     int // one past the last valid unit
	pos       int // next unit to deliver
	markPos   int // unmarked, invalidated or an index <= pos
	markLimit int
	maxSize   int
}

func checkSize(size, maxSize int) error {
	if size <= 0 {
		return fmt.Errorf("%w: buffer size %d <= 0", ErrInvalidArgument, size)
	}
	if size > maxSize {
		return fmt.Errorf("%w: buffer size %d exceeds maximum %d", ErrInvalidArgument, size, maxSize)
	}
	return nil
}

func (w *window[T]) init(size, maxSize int) error {
	if err := checkSize(size, maxSize); err != nil {
		return err
	}
	b := make([]T, size)
	w.buf.Store(&b)
	w.markPos = unmarked
	w.maxSize = maxSize
	return nil
}

// load returns the current storage, or ErrStreamClosed once released.
func (w *window[T]) load() (*[]T, error) {
	p := w.buf.Load()
	if p == nil {
		return nil, ErrStreamClosed
	}
	return p, nil
}

// release transfers ownership of the storage away from the stream. Exactly
// one caller observes true.
func (w *window[T]) release() bool {
	for {
		p := w.buf.Load()
		if p == nil {
			return false
		}
		if w.buf.CompareAndSwap(p, nil) {
			return true
		}
		// A fill swapped in a larger buffer; retry against it.
	}
}

func (w *window[T]) size() int {
	p := w.buf.Load()
	if p == nil {
		return 0
	}
	return len(*p)
}

func (w *window[T]) buffered() int { return w.count - w.pos }

func (w *window[T]) exhausted() bool { return w.pos >= w.count }

func (w *window[T]) marked() bool { return w.markPos >= 0 }

func (w *window[T]) mark(limit int) {
	w.markLimit = limit
	w.markPos = w.pos
}

func (w *window[T]) unmark() {
	w.markPos = unmarked
	w.markLimit = 0
}

func (w *window[T]) invalidate() {
	w.markPos = invalidated
	w.markLimit = 0
}

func (w *window[T]) reset() error {
	switch w.markPos {
	case unmarked:
		return fmt.Errorf("%w: stream not marked", ErrInvalidMark)
	case invalidated:
		return fmt.Errorf("%w: read-ahead limit exceeded", ErrInvalidMark)
	}
	w.pos = w.markPos
	return nil
}

// compact moves the marked region to the front of buf.
func (w *window[T]) compact(buf []T) {
	n := copy(buf, buf[w.markPos:w.pos])
	w.pos = n
	w.markPos = 0
}

// grow copies the marked region into a new buffer of the given size and
// installs it. It fails with ErrStreamClosed if Close released the storage
// concurrently.
func (w *window[T]) grow(old *[]T, size int) (*[]T, error) {
	nbuf := make([]T, size)
	n := copy(nbuf, (*old)[w.markPos:w.pos])
	if !w.buf.CompareAndSwap(old, &nbuf) {
		return nil, ErrStreamClosed
	}
	w.pos = n
	w.markPos = 0
	return &nbuf, nil
}

// checkBounds validates an (off, n) window into a slice of length size.
func checkBounds(size, off, n int) error {
	if off < 0 || n < 0 || off > size || n > size-off {
		return fmt.Errorf("%w: offset %d length %d out of range for %d", ErrInvalidArgument, off, n, size)
	}
	return nil
}
