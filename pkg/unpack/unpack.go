// Package unpack sniffs the compression format of a buffered byte stream and
// returns a transparently decompressing reader.
//
// Detection peeks at the stream's magic number through the reader's mark and
// reset window, so the stream is left positioned at its first byte.
package unpack

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"

	"github.com/haivivi/markio/pkg/markio"
)

// Codec names a compression format.
type Codec string

const (
	Auto Codec = "auto"
	None Codec = "none"
	Gzip Codec = "gzip"
	Zstd Codec = "zstd"
)

// ErrUnknownCodec is returned for a codec name that is not supported.
var ErrUnknownCodec = errors.New("unpack: unknown codec")

var (
	gzipMagic = []byte{0x1f, 0x8b}
	zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}
)

// magicLen is the longest magic number checked by Detect.
const magicLen = 4

// ParseCodec parses a codec name. The empty string selects Auto.
func ParseCodec(s string) (Codec, error) {
	switch c := Codec(strings.ToLower(strings.TrimSpace(s))); c {
	case "":
		return Auto, nil
	case Auto, None, Gzip, Zstd:
		return c, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownCodec, s)
}

// Detect reports the compression format of r without consuming any byte.
// Streams shorter than a magic number are None.
func Detect(r *markio.Reader) (Codec, error) {
	head, err := r.Peek(magicLen)
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	switch {
	case bytes.HasPrefix(head, zstdMagic):
		return Zstd, nil
	case bytes.HasPrefix(head, gzipMagic):
		return Gzip, nil
	}
	return None, nil
}

// Open returns a reader that decompresses r with codec c, detecting the
// codec first when c is Auto. The returned codec is the one applied.
// Closing the returned reader closes r.
func Open(r *markio.Reader, c Codec) (io.ReadCloser, Codec, error) {
	if c == Auto || c == "" {
		var err error
		if c, err = Detect(r); err != nil {
			return nil, "", err
		}
	}
	switch c {
	case None:
		return r, None, nil
	case Gzip:
		zr, err := gzip.NewReader(r)
		if err != nil {
			return nil, "", fmt.Errorf("unpack: gzip: %w", err)
		}
		return &readCloser{Reader: zr, close: func() error {
			return errors.Join(zr.Close(), r.Close())
		}}, Gzip, nil
	case Zstd:
		zr, err := zstd.NewReader(r, zstd.WithDecoderConcurrency(1))
		if err != nil {
			return nil, "", fmt.Errorf("unpack: zstd: %w", err)
		}
		return &readCloser{Reader: zr, close: func() error {
			zr.Close()
			return r.Close()
		}}, Zstd, nil
	}
	return nil, "", fmt.Errorf("%w: %q", ErrUnknownCodec, c)
}

type readCloser struct {
	io.Reader
	close func() error
}

func (rc *readCloser) Close() error { return rc.close() }
