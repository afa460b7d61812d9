package markio

import (
	"errors"
	"io"
	"sync"
	"unicode/utf8"
)

// Writer buffers bytes written to an io.Writer. Writes at least as large as
// the buffer flush pending data and go straight to the sink.
type Writer struct {
	mu     sync.Mutex
	w      io.Writer
	buf    []byte
	n      int
	closed bool
}

// NewWriter returns a Writer over w with DefaultBufferSize unless
// WithBufferSize is given.
func NewWriter(w io.Writer, opts ...Option) (*Writer, error) {
	o := buildOptions(opts)
	if err := checkSize(o.size, o.maxSize); err != nil {
		return nil, err
	}
	return &Writer{w: w, buf: make([]byte, o.size)}, nil
}

// NewWriterSize returns a Writer with a buffer of size bytes.
func NewWriterSize(w io.Writer, size int) (*Writer, error) {
	return NewWriter(w, WithBufferSize(size))
}

func (w *Writer) flushBuffer() error {
	if w.n == 0 {
		return nil
	}
	n, err := w.w.Write(w.buf[:w.n])
	if n < w.n && err == nil {
		err = io.ErrShortWrite
	}
	if err != nil {
		if n > 0 && n < w.n {
			copy(w.buf, w.buf[n:w.n])
		}
		w.n -= max(n, 0)
		return err
	}
	w.n = 0
	return nil
}

// WriteByte buffers a single byte.
func (w *Writer) WriteByte(c byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return ErrStreamClosed
	}
	if w.n >= len(w.buf) {
		if err := w.flushBuffer(); err != nil {
			return err
		}
	}
	w.buf[w.n] = c
	w.n++
	return nil
}

// Write implements io.Writer.
func (w *Writer) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return 0, ErrStreamClosed
	}
	if len(p) >= len(w.buf) {
		if err := w.flushBuffer(); err != nil {
			return 0, err
		}
		return w.w.Write(p)
	}
	if len(p) > len(w.buf)-w.n {
		if err := w.flushBuffer(); err != nil {
			return 0, err
		}
	}
	copy(w.buf[w.n:], p)
	w.n += len(p)
	return len(p), nil
}

// Flush writes buffered data to the sink and flushes the sink if it has a
// Flush method.
func (w *Writer) Flush() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return ErrStreamClosed
	}
	return w.flush()
}

func (w *Writer) flush() error {
	if err := w.flushBuffer(); err != nil {
		return err
	}
	if f, ok := w.w.(interface{ Flush() error }); ok {
		return f.Flush()
	}
	return nil
}

// Buffered returns the number of bytes waiting to be flushed.
func (w *Writer) Buffered() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.n
}

// Close flushes and, if the sink is an io.Closer, closes it. Later calls
// return nil.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil
	}
	w.closed = true
	err := w.flush()
	if c, ok := w.w.(io.Closer); ok {
		err = errors.Join(err, c.Close())
	}
	w.buf = nil
	return err
}

// TextWriter buffers runes written to a RuneSink.
type TextWriter struct {
	mu     sync.Mutex
	sink   RuneSink
	buf    []rune
	n      int
	closed bool
}

// NewTextWriter returns a TextWriter over sink.
func NewTextWriter(sink RuneSink, opts ...Option) (*TextWriter, error) {
	o := buildOptions(opts)
	if err := checkSize(o.size, o.maxSize); err != nil {
		return nil, err
	}
	return &TextWriter{sink: sink, buf: make([]rune, o.size)}, nil
}

func (w *TextWriter) flushBuffer() error {
	if w.n == 0 {
		return nil
	}
	n, err := w.sink.WriteRunes(w.buf[:w.n])
	if n < w.n && err == nil {
		err = io.ErrShortWrite
	}
	if err != nil {
		if n > 0 && n < w.n {
			copy(w.buf, w.buf[n:w.n])
		}
		w.n -= max(n, 0)
		return err
	}
	w.n = 0
	return nil
}

// WriteRune buffers a single rune.
func (w *TextWriter) WriteRune(c rune) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return ErrStreamClosed
	}
	if w.n >= len(w.buf) {
		if err := w.flushBuffer(); err != nil {
			return err
		}
	}
	w.buf[w.n] = c
	w.n++
	return nil
}

// WriteRunes buffers p. Slices at least as long as the buffer are written to
// the sink directly after pending runes are flushed.
func (w *TextWriter) WriteRunes(p []rune) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return 0, ErrStreamClosed
	}
	if len(p) >= len(w.buf) {
		if err := w.flushBuffer(); err != nil {
			return 0, err
		}
		return w.sink.WriteRunes(p)
	}
	written := 0
	for written < len(p) {
		d := copy(w.buf[w.n:], p[written:])
		written += d
		w.n += d
		if w.n >= len(w.buf) {
			if err := w.flushBuffer(); err != nil {
				return written, err
			}
		}
	}
	return written, nil
}

// WriteString buffers the runes of s.
func (w *TextWriter) WriteString(s string) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return 0, ErrStreamClosed
	}
	written := 0
	for _, c := range s {
		if w.n >= len(w.buf) {
			if err := w.flushBuffer(); err != nil {
				return written, err
			}
		}
		w.buf[w.n] = c
		w.n++
		written++
	}
	return written, nil
}

// NewLine writes a line separator.
func (w *TextWriter) NewLine() error {
	return w.WriteRune('\n')
}

// Flush writes buffered runes to the sink and flushes the sink if it has a
// Flush method.
func (w *TextWriter) Flush() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return ErrStreamClosed
	}
	return w.flush()
}

func (w *TextWriter) flush() error {
	if err := w.flushBuffer(); err != nil {
		return err
	}
	if f, ok := w.sink.(interface{ Flush() error }); ok {
		return f.Flush()
	}
	return nil
}

// Close flushes and closes the sink if it is an io.Closer. Later calls
// return nil.
func (w *TextWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil
	}
	w.closed = true
	err := w.flush()
	if c, ok := w.sink.(io.Closer); ok {
		err = errors.Join(err, c.Close())
	}
	w.buf = nil
	return err
}

// UTF8Sink returns a RuneSink that encodes runes as UTF-8 onto w.
func UTF8Sink(w io.Writer) RuneSink {
	return &utf8Sink{w: w}
}

type utf8Sink struct {
	w       io.Writer
	scratch []byte
}

func (s *utf8Sink) WriteRunes(p []rune) (int, error) {
	s.scratch = s.scratch[:0]
	for _, c := range p {
		s.scratch = utf8.AppendRune(s.scratch, c)
	}
	if _, err := s.w.Write(s.scratch); err != nil {
		return 0, err
	}
	return len(p), nil
}

func (s *utf8Sink) Flush() error {
	if f, ok := s.w.(interface{ Flush() error }); ok {
		return f.Flush()
	}
	return nil
}

func (s *utf8Sink) Close() error {
	if c, ok := s.w.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
