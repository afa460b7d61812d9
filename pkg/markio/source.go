package markio

import (
	"io"
	"math"
)

// ByteSource is the underlying byte producer of a Reader. Read may block.
type ByteSource interface {
	io.Reader
	io.Closer
}

// RuneSource is the underlying text-unit producer of a TextReader.
//
// Ready reports, without blocking, whether the next Read is guaranteed not
// to block.
type RuneSource interface {
	Read(p []rune) (n int, err error)
	Ready() bool
	Close() error
}

// Availabler is implemented by sources that can estimate, without blocking,
// how many units can be read before a Read would block.
type Availabler interface {
	Available() int
}

// Skipper is implemented by sources that can discard unread data without
// handing it to the caller.
type Skipper interface {
	Skip(n int64) (int64, error)
}

// RuneSink is the underlying text-unit consumer of a TextWriter.
type RuneSink interface {
	WriteRunes(p []rune) (n int, err error)
}

// available asks src for a non-blocking estimate. Sources that expose
// neither Available nor Len report 0.
func available(src any) int {
	switch s := src.(type) {
	case Availabler:
		return max(s.Available(), 0)
	case interface{ Len() int }:
		return max(s.Len(), 0)
	}
	return 0
}

// skipSource discards n bytes from src, preferring the source's own Skip.
func skipSource(src io.Reader, n int64) (int64, error) {
	if s, ok := src.(Skipper); ok {
		return s.Skip(n)
	}
	if s, ok := src.(io.Seeker); ok {
		return skipSeeker(s, n)
	}
	skipped, err := io.CopyN(io.Discard, src, n)
	if err == io.EOF {
		err = nil
	}
	return skipped, err
}

func skipSeeker(s io.Seeker, n int64) (int64, error) {
	cur, err := s.Seek(0, io.SeekCurrent)
	if err != nil {
		return 0, err
	}
	end, err := s.Seek(0, io.SeekEnd)
	if err != nil {
		return 0, err
	}
	n = min(n, max(end-cur, 0))
	if _, err := s.Seek(cur+n, io.SeekStart); err != nil {
		return 0, err
	}
	return n, nil
}

// saturatingAdd returns a+b for non-negative operands, clamped to
// math.MaxInt.
func saturatingAdd(a, b int) int {
	if a > math.MaxInt-b {
		return math.MaxInt
	}
	return a + b
}

// NopCloser returns a ByteSource with a no-op Close wrapping r. Available and
// Skip are forwarded when r supports them (including Len and Seek, as on
// bytes.Reader and strings.Reader).
func NopCloser(r io.Reader) ByteSource {
	return nopSource{r}
}

type nopSource struct {
	io.Reader
}

func (nopSource) Close() error { return nil }

func (s nopSource) Available() int { return available(s.Reader) }

func (s nopSource) Skip(n int64) (int64, error) { return skipSource(s.Reader, n) }
