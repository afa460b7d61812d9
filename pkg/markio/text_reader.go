package markio

import (
	"errors"
	"fmt"
	"io"
	"iter"
	"log/slog"
	"strings"
	"sync"
	"unicode/utf8"
)

// expectedLineLength sizes the builder used when a line spans refills.
const expectedLineLength = 80

// TextReader adds buffering, line extraction and a bounded mark/reset window
// to a RuneSource.
//
// A carriage return followed by a line feed counts as one line terminator.
// The fold is tracked with a single pending flag instead of a two-unit
// lookahead, so a "\r" at the end of a buffer does not force a fill.
type TextReader struct {
	mu     sync.Mutex
	win    window[rune]
	src    RuneSource
	err    error
	logger *slog.Logger

	skipLF       bool // drop the next unit if it is '\n'
	markedSkipLF bool // skipLF at the time of Mark
}

// NewTextReader returns a TextReader over src.
func NewTextReader(src RuneSource, opts ...Option) (*TextReader, error) {
	o := buildOptions(opts)
	r := &TextReader{src: src, logger: o.logger}
	if err := r.win.init(o.size, o.maxSize); err != nil {
		return nil, err
	}
	return r, nil
}

// NewTextReaderSize returns a TextReader whose buffer holds size runes.
func NewTextReaderSize(src RuneSource, size int, opts ...Option) (*TextReader, error) {
	return NewTextReader(src, append(opts, WithBufferSize(size))...)
}

func (r *TextReader) readErr() error {
	err := r.err
	r.err = nil
	if err == nil {
		return io.EOF
	}
	return err
}

func (r *TextReader) pendingErr() error {
	err := r.err
	r.err = nil
	if err == io.EOF {
		return nil
	}
	return err
}

// readSource reads from the source, retrying reads that make no progress
// without reporting an error.
func (r *TextReader) readSource(p []rune) (int, error) {
	for {
		n, err := r.src.Read(p)
		if n < 0 {
			return 0, errNegativeRead
		}
		if n > 0 || err != nil {
			return n, err
		}
	}
}

func (r *TextReader) fill() error {
	p, err := r.win.load()
	if err != nil {
		return err
	}
	w := &r.win
	size := len(*p)
	act := planTextFill(w.markPos, w.pos, size, w.markLimit, w.maxSize)
	switch act {
	case fillDiscard:
		w.pos = 0
	case fillInvalidate:
		w.invalidate()
		w.pos = 0
	case fillCompact:
		w.compact(*p)
	case fillOverflow:
		w.invalidate()
		w.pos = 0
		w.count = 0
		return fmt.Errorf("%w: read-ahead limit %d exceeds %d", ErrOutOfMemory, w.markLimit, w.maxSize)
	case fillGrow:
		if p, err = w.grow(p, w.markLimit); err != nil {
			return err
		}
	}
	if act != fillDiscard {
		r.logger.Debug("markio: text fill", "action", act, "size", size, "new_size", len(*p), "pos", w.pos)
	}

	buf := *p
	w.count = w.pos
	n, err := r.readSource(buf[w.pos:])
	if n > 0 {
		w.count = w.pos + n
	}
	if err != nil {
		r.err = err
	}
	return nil
}

// ensure makes at least one rune available, reporting false at the end of
// the stream or when a source error is pending.
func (r *TextReader) ensure() (bool, error) {
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

// consumeSkipLF clears the fold flag, dropping the next rune if it is a line
// feed. It must be called with at least one rune buffered.
func (r *TextReader) consumeSkipLF(buf []rune) {
	if !r.skipLF {
		return
	}
	r.skipLF = false
	if buf[r.win.pos] == '\n' {
		r.win.pos++
	}
}

// ReadRune implements io.RuneReader. size is the UTF-8 length of r.
func (r *TextReader) ReadRune() (c rune, size int, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, err := r.win.load(); err != nil {
		return 0, 0, err
	}
	for {
		ok, err := r.ensure()
		if err != nil {
			return 0, 0, err
		}
		if !ok {
			return 0, 0, r.readErr()
		}
		p, err := r.win.load()
		if err != nil {
			return 0, 0, err
		}
		buf := *p
		if r.skipLF {
			r.consumeSkipLF(buf)
			continue
		}
		c = buf[r.win.pos]
		r.win.pos++
		if size = utf8.RuneLen(c); size < 0 {
			size = 1
		}
		return c, size, nil
	}
}

func (r *TextReader) read1(dst []rune) (int, error) {
	if r.win.exhausted() {
		if r.err != nil {
			return 0, r.readErr()
		}
		if len(dst) >= r.win.size() && !r.win.marked() && !r.skipLF {
			n, err := r.readSource(dst)
			r.logger.Debug("markio: text bypass read", "len", len(dst), "n", n)
			if n > 0 {
				if err != nil {
					r.err = err
				}
				return n, nil
			}
			return 0, err
		}
		if err := r.fill(); err != nil {
			return 0, err
		}
	}
	if r.win.exhausted() {
		return 0, r.readErr()
	}
	p, err := r.win.load()
	if err != nil {
		return 0, err
	}
	if r.skipLF {
		r.consumeSkipLF(*p)
		if r.win.exhausted() {
			if err := r.fill(); err != nil {
				return 0, err
			}
			if r.win.exhausted() {
				return 0, r.readErr()
			}
			if p, err = r.win.load(); err != nil {
				return 0, err
			}
		}
	}
	n := copy(dst, (*p)[r.win.pos:r.win.count])
	r.win.pos += n
	return n, nil
}

// ReadInto reads up to n runes into dst[off:off+n]. After the first chunk
// it keeps reading only while the source reports Ready, so a short count
// does not imply the end of the stream.
func (r *TextReader) ReadInto(dst []rune, off, n int) (int, error) {
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

	total, err := r.read1(dst)
	if err != nil {
		return 0, err
	}
	for total < n && r.src.Ready() {
		nr, err := r.read1(dst[total:])
		if err != nil {
			if !errors.Is(err, io.EOF) {
				r.err = err
			}
			break
		}
		total += nr
	}
	return total, nil
}

// Read reads up to len(p) runes. See ReadInto.
func (r *TextReader) Read(p []rune) (int, error) {
	return r.ReadInto(p, 0, len(p))
}

// ReadLine returns the next line without its terminator. A line ends at
// '\n', '\r' or "\r\n". At the end of the stream a non-empty partial line is
// returned; after that ReadLine returns io.EOF.
func (r *TextReader) ReadLine() (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, err := r.win.load(); err != nil {
		return "", err
	}

	var sb strings.Builder
	omitLF := r.skipLF
	for {
		ok, err := r.ensure()
		if err != nil {
			return "", err
		}
		if !ok {
			if sb.Len() > 0 {
				return sb.String(), nil
			}
			return "", r.readErr()
		}
		p, err := r.win.load()
		if err != nil {
			return "", err
		}
		buf := *p
		w := &r.win

		if omitLF && buf[w.pos] == '\n' {
			w.pos++
		}
		r.skipLF = false
		omitLF = false

		i := w.pos
		for i < w.count && buf[i] != '\n' && buf[i] != '\r' {
			i++
		}
		start := w.pos
		w.pos = i
		if i < w.count {
			if sb.Len() == 0 {
				sb.Grow(i - start)
			}
			writeRunes(&sb, buf[start:i])
			w.pos++
			if buf[i] == '\r' {
				r.skipLF = true
			}
			return sb.String(), nil
		}
		if sb.Len() == 0 {
			sb.Grow(expectedLineLength)
		}
		writeRunes(&sb, buf[start:i])
	}
}

func writeRunes(sb *strings.Builder, rs []rune) {
	for _, c := range rs {
		sb.WriteRune(c)
	}
}

// Lines returns an iterator over the remaining lines. Iteration stops at the
// end of the stream or after yielding the first error.
func (r *TextReader) Lines() iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		for {
			line, err := r.ReadLine()
			if errors.Is(err, io.EOF) {
				return
			}
			if !yield(line, err) || err != nil {
				return
			}
		}
	}
}

// Skip discards up to n runes, folding "\r\n" as ReadRune does, and returns
// how many were skipped.
func (r *TextReader) Skip(n int64) (int64, error) {
	if n < 0 {
		return 0, fmt.Errorf("%w: skip count %d < 0", ErrInvalidArgument, n)
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, err := r.win.load(); err != nil {
		return 0, err
	}
	rem := n
	for rem > 0 {
		if r.win.exhausted() && r.err != nil {
			if err := r.pendingErr(); err != nil {
				return n - rem, err
			}
			break
		}
		ok, err := r.ensure()
		if err != nil {
			return n - rem, err
		}
		if !ok {
			break
		}
		p, err := r.win.load()
		if err != nil {
			return n - rem, err
		}
		r.consumeSkipLF(*p)
		d := int64(r.win.buffered())
		if rem <= d {
			r.win.pos += int(rem)
			rem = 0
			break
		}
		rem -= d
		r.win.pos = r.win.count
	}
	return n - rem, nil
}

// Ready reports whether the next read is guaranteed not to block. It fills
// the buffer only when the source itself reports readiness.
func (r *TextReader) Ready() (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, err := r.win.load(); err != nil {
		return false, err
	}
	if r.skipLF {
		if r.win.exhausted() && r.src.Ready() {
			if err := r.fill(); err != nil {
				return false, err
			}
		}
		if !r.win.exhausted() {
			p, err := r.win.load()
			if err != nil {
				return false, err
			}
			r.consumeSkipLF(*p)
		}
	}
	return !r.win.exhausted() || r.src.Ready(), nil
}

// Mark records the current position. Up to limit runes may be read before
// the mark is dropped; the buffer is reallocated to limit runes if needed.
func (r *TextReader) Mark(limit int) error {
	if limit < 0 {
		return fmt.Errorf("%w: read-ahead limit %d < 0", ErrInvalidArgument, limit)
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, err := r.win.load(); err != nil {
		return err
	}
	r.win.mark(limit)
	r.markedSkipLF = r.skipLF
	return nil
}

// Reset rewinds to the last mark and restores the line-feed fold state
// recorded with it.
func (r *TextReader) Reset() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, err := r.win.load(); err != nil {
		return err
	}
	if err := r.win.reset(); err != nil {
		return err
	}
	r.skipLF = r.markedSkipLF
	return nil
}

// Buffered returns the number of runes held in the buffer.
func (r *TextReader) Buffered() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.win.buffered()
}

// Size returns the current buffer length, or 0 after Close.
func (r *TextReader) Size() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.win.size()
}

// Close releases the buffer and closes the source exactly once.
func (r *TextReader) Close() error {
	if !r.win.release() {
		return nil
	}
	return r.src.Close()
}
