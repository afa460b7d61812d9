// Package charset decodes byte streams in a named character encoding into
// runes, producing a markio.RuneSource that a markio.TextReader can buffer.
package charset

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/haivivi/markio/pkg/markio"
)

// ErrUnknownCharset is returned for a label that names no known encoding.
var ErrUnknownCharset = errors.New("charset: unknown charset")

// decodeBufferSize is the size of the UTF-8 staging buffer between the
// transform and rune assembly.
const decodeBufferSize = 4096

// Lookup returns the encoding for a WHATWG label such as "utf-8", "latin1",
// "shift_jis" or "gbk", and its canonical name. An empty label selects
// UTF-8. UTF-8 decoding strips a leading byte order mark.
func Lookup(label string) (encoding.Encoding, string, error) {
	label = strings.TrimSpace(label)
	if label == "" {
		label = "utf-8"
	}
	enc, err := htmlindex.Get(label)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %q", ErrUnknownCharset, label)
	}
	name, err := htmlindex.Name(enc)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %q", ErrUnknownCharset, label)
	}
	if enc == unicode.UTF8 {
		enc = unicode.UTF8BOM
	}
	return enc, name, nil
}

// Decoder reads bytes from a source and returns them as runes. Malformed
// input decodes to utf8.RuneError.
type Decoder struct {
	src  markio.ByteSource
	br   *bufio.Reader
	name string
}

// NewDecoder returns a Decoder reading src in the encoding named by label.
func NewDecoder(src markio.ByteSource, label string) (*Decoder, error) {
	enc, name, err := Lookup(label)
	if err != nil {
		return nil, err
	}
	tr := transform.NewReader(src, enc.NewDecoder())
	return &Decoder{
		src:  src,
		br:   bufio.NewReaderSize(tr, decodeBufferSize),
		name: name,
	}, nil
}

// Name returns the canonical name of the decoded encoding.
func (d *Decoder) Name() string { return d.name }

// Read decodes up to len(p) runes. It blocks only for the first rune; after
// that it stops as soon as no complete rune is staged.
func (d *Decoder) Read(p []rune) (int, error) {
	n := 0
	for n < len(p) {
		if n > 0 && !d.staged() {
			break
		}
		c, _, err := d.br.ReadRune()
		if err != nil {
			if n > 0 {
				return n, nil
			}
			return 0, err
		}
		p[n] = c
		n++
	}
	return n, nil
}

// staged reports whether a complete rune is already decoded.
func (d *Decoder) staged() bool {
	b, _ := d.br.Peek(d.br.Buffered())
	return len(b) > 0 && utf8.FullRune(b)
}

// Ready reports whether a complete rune is staged or the byte source can
// supply at least utf8.UTFMax bytes without blocking, which completes any
// character of the supported encodings. Fewer available bytes may be a
// truncated sequence, so Ready is false for them even when the stream is
// about to end.
func (d *Decoder) Ready() bool {
	if d.staged() {
		return true
	}
	switch s := d.src.(type) {
	case interface{ Available() (int, error) }:
		n, err := s.Available()
		return err != nil || n >= utf8.UTFMax
	case markio.Availabler:
		return s.Available() >= utf8.UTFMax
	}
	return false
}

// Close closes the byte source.
func (d *Decoder) Close() error {
	return d.src.Close()
}

var _ markio.RuneSource = (*Decoder)(nil)

// Decode is a convenience that decodes all of r in the named encoding.
func Decode(r io.Reader, label string) (string, error) {
	enc, _, err := Lookup(label)
	if err != nil {
		return "", err
	}
	b, err := io.ReadAll(transform.NewReader(r, enc.NewDecoder()))
	return string(b), err
}
