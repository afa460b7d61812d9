// Package storage opens byte sources and sinks on the local filesystem, the
// process's standard streams and S3-compatible object stores.
//
// Sources report a non-blocking Available estimate and can Skip without
// handing data to the caller, so buffered readers stacked on top of them can
// delegate both.
package storage

import (
	"context"
	"io"
)

// Source is a readable object with a known or estimated remaining length.
type Source interface {
	io.ReadCloser

	// Available estimates how many bytes can be read before a Read would
	// block. It never blocks itself; 0 means none or unknown.
	Available() int

	// Skip discards up to n bytes and returns how many were discarded.
	Skip(n int64) (int64, error)
}

// Info describes a stored object.
type Info struct {
	Path string `json:"path" yaml:"path"`
	Size int64  `json:"size" yaml:"size"`
}

// Store opens objects by path.
//
// Paths are forward-slash separated. Implementations must be safe for
// concurrent use.
type Store interface {
	// Open opens the named object for reading. The caller must close the
	// returned Source. If the object does not exist, an error wrapping
	// os.ErrNotExist is returned.
	Open(ctx context.Context, path string) (Source, error)

	// Create opens the named object for writing, truncating it if it
	// exists. The caller must close the returned WriteCloser to flush data.
	Create(ctx context.Context, path string) (io.WriteCloser, error)

	// Stat returns the object's size. If the object does not exist, an
	// error wrapping os.ErrNotExist is returned.
	Stat(ctx context.Context, path string) (Info, error)
}
