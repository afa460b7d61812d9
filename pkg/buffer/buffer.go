package buffer

import (
	"fmt"
	"io"
	"sync"
)

// Buffer is a thread-safe growable pipe. Write never blocks; Read blocks
// until data arrives or the write side is closed.
type Buffer[T any] struct {
	writeNotify chan struct{}

	mu         sync.Mutex
	closeWrite bool
	closeErr   error
	buf        []T
}

// N creates a Buffer with an initial capacity of n elements.
func N[T any](n int) *Buffer[T] {
	return &Buffer[T]{
		writeNotify: make(chan struct{}, 1),
		buf:         make([]T, 0, n),
	}
}

// Write appends p. It returns an error wrapping io.ErrClosedPipe after
// CloseWrite.
func (b *Buffer[T]) Write(p []T) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closeErr != nil {
		return 0, fmt.Errorf("buffer: write to closed buffer: %w", b.closeErr)
	}
	if b.closeWrite {
		return 0, fmt.Errorf("buffer: write to closed buffer: %w", io.ErrClosedPipe)
	}
	b.buf = append(b.buf, p...)
	select {
	case b.writeNotify <- struct{}{}:
	default:
	}
	return len(p), nil
}

// Read copies buffered elements into p, blocking while the buffer is empty
// and the write side is open. It returns io.EOF once the write side is
// closed and the buffer drained.
func (b *Buffer[T]) Read(p []T) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closeErr != nil {
		return 0, fmt.Errorf("buffer: read from closed buffer: %w", b.closeErr)
	}
	for len(b.buf) == 0 {
		if b.closeWrite {
			return 0, io.EOF
		}
		b.mu.Unlock()
		<-b.writeNotify
		b.mu.Lock()
		if b.closeErr != nil {
			return 0, fmt.Errorf("buffer: read from closed buffer: %w", b.closeErr)
		}
	}
	n := copy(p, b.buf)
	b.buf = b.buf[n:]
	return n, nil
}

// Skip discards up to n buffered elements without blocking and returns how
// many were discarded.
func (b *Buffer[T]) Skip(n int64) (int64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closeErr != nil {
		return 0, fmt.Errorf("buffer: skip from closed buffer: %w", b.closeErr)
	}
	n = min(n, int64(len(b.buf)))
	b.buf = b.buf[n:]
	return n, nil
}

// Available returns the number of elements a Read can return without
// blocking.
func (b *Buffer[T]) Available() int {
	return b.Len()
}

// Ready reports whether the next Read returns without blocking: either data
// is buffered or the buffer is closed.
func (b *Buffer[T]) Ready() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.buf) > 0 || b.closeWrite || b.closeErr != nil
}

// Len returns the number of buffered elements.
func (b *Buffer[T]) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.buf)
}

// CloseWrite ends the stream: reads drain the remaining data, then return
// io.EOF.
func (b *Buffer[T]) CloseWrite() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closeWrite {
		return nil
	}
	b.closeWrite = true
	close(b.writeNotify)
	return nil
}

// CloseWithError fails all pending and future operations with err
// (io.ErrClosedPipe if nil) and drops buffered data.
func (b *Buffer[T]) CloseWithError(err error) error {
	if err == nil {
		err = io.ErrClosedPipe
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closeErr != nil {
		return nil
	}
	b.closeErr = err
	b.buf = nil
	if !b.closeWrite {
		b.closeWrite = true
		close(b.writeNotify)
	}
	return nil
}

// Close is CloseWithError(io.ErrClosedPipe).
func (b *Buffer[T]) Close() error {
	return b.CloseWithError(io.ErrClosedPipe)
}

// Error returns the error the buffer was closed with, if any.
func (b *Buffer[T]) Error() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.closeErr
}
