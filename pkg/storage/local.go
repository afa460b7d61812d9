package storage

import (
	"context"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
)

// Local implements Store on top of the local filesystem. Relative paths are
// resolved against the root directory; absolute paths are used as is.
type Local struct {
	root string
}

// NewLocal creates a Local store rooted at dir.
// The directory is created (with parents) if it does not already exist.
func NewLocal(dir string) (*Local, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, err
	}
	return &Local{root: abs}, nil
}

func (l *Local) resolve(path string) string {
	path = filepath.FromSlash(path)
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	return filepath.Join(l.root, path)
}

// Open opens the named file for reading.
func (l *Local) Open(_ context.Context, path string) (Source, error) {
	f, err := os.Open(l.resolve(path))
	if err != nil {
		return nil, err
	}
	return newFileSource(f, true), nil
}

// Create opens the named file for writing, creating parent directories as
// needed. If the file already exists it is truncated.
func (l *Local) Create(_ context.Context, path string) (io.WriteCloser, error) {
	full := l.resolve(path)
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return nil, err
	}
	f, err := os.Create(full)
	if err != nil {
		return nil, err
	}
	return f, nil
}

// Stat returns the size of the named file.
func (l *Local) Stat(_ context.Context, path string) (Info, error) {
	fi, err := os.Stat(l.resolve(path))
	if err != nil {
		return Info{}, err
	}
	if fi.IsDir() {
		return Info{}, fmt.Errorf("storage: %s is a directory", path)
	}
	return Info{Path: path, Size: fi.Size()}, nil
}

// fileSource adapts an *os.File. Regular files report their remaining length
// and skip by seeking; pipes and terminals report 0 and skip by reading.
type fileSource struct {
	f       *os.File
	regular bool
	owned   bool
}

func newFileSource(f *os.File, owned bool) *fileSource {
	fi, err := f.Stat()
	return &fileSource{
		f:       f,
		regular: err == nil && fi.Mode().IsRegular(),
		owned:   owned,
	}
}

func (s *fileSource) Read(p []byte) (int, error) {
	return s.f.Read(p)
}

// remaining returns the current offset and the bytes left after it.
func (s *fileSource) remaining() (int64, int64, error) {
	off, err := s.f.Seek(0, io.SeekCurrent)
	if err != nil {
		return 0, 0, err
	}
	fi, err := s.f.Stat()
	if err != nil {
		return 0, 0, err
	}
	return off, max(fi.Size()-off, 0), nil
}

func (s *fileSource) Available() int {
	if !s.regular {
		return 0
	}
	_, rem, err := s.remaining()
	if err != nil {
		return 0
	}
	return int(min(rem, math.MaxInt))
}

func (s *fileSource) Skip(n int64) (int64, error) {
	if n <= 0 {
		return 0, nil
	}
	if !s.regular {
		skipped, err := io.CopyN(io.Discard, s.f, n)
		if err == io.EOF {
			err = nil
		}
		return skipped, err
	}
	off, rem, err := s.remaining()
	if err != nil {
		return 0, err
	}
	n = min(n, rem)
	if _, err := s.f.Seek(off+n, io.SeekStart); err != nil {
		return 0, err
	}
	return n, nil
}

// Close closes the file unless it belongs to the process (stdin).
func (s *fileSource) Close() error {
	if !s.owned {
		return nil
	}
	return s.f.Close()
}
