package buffer

import (
	"fmt"
	"io"
	"sync"
)

// BlockBuffer is a thread-safe fixed-size circular pipe. Write blocks while
// the buffer is full and Read blocks while it is empty, so a slow consumer
// throttles its producer.
type BlockBuffer[T any] struct {
	cond *sync.Cond

	mu         sync.Mutex
	buf        []T
	head, tail int64
	closeWrite bool
	closeErr   error
}

// Block creates a BlockBuffer using buf as storage.
func Block[T any](buf []T) *BlockBuffer[T] {
	v := &BlockBuffer[T]{
		buf: buf,
	}
	v.cond = sync.NewCond(&v.mu)
	return v
}

// BlockN creates a BlockBuffer holding at most size elements.
func BlockN[T any](size int) *BlockBuffer[T] {
	return Block(make([]T, size))
}

// Read copies up to len(p) elements, blocking until at least one is
// available. It returns io.EOF after CloseWrite once drained.
func (bb *BlockBuffer[T]) Read(p []T) (int, error) {
	bb.mu.Lock()
	defer bb.mu.Unlock()

	if bb.closeErr != nil {
		return 0, fmt.Errorf("buffer: read from closed buffer: %w", bb.closeErr)
	}
	for bb.head == bb.tail {
		if bb.closeWrite {
			return 0, io.EOF
		}
		bb.cond.Wait()
		if bb.closeErr != nil {
			return 0, fmt.Errorf("buffer: read from closed buffer: %w", bb.closeErr)
		}
	}

	avail := int(bb.tail - bb.head)
	head := int(bb.head % int64(len(bb.buf)))

	var n int
	if head+avail <= len(bb.buf) {
		n = copy(p, bb.buf[head:head+avail])
	} else {
		n = copy(p, bb.buf[head:])
		n += copy(p[n:], bb.buf[:avail-n])
	}
	bb.head += int64(n)
	bb.cond.Broadcast()
	return n, nil
}

// Write copies all of p into the buffer, blocking while it is full.
func (bb *BlockBuffer[T]) Write(p []T) (int, error) {
	bb.mu.Lock()
	defer bb.mu.Unlock()
	if err := bb.writableLocked(); err != nil {
		return 0, err
	}

	wn := 0
	bufsz := int64(len(bb.buf))
	for len(p) > 0 {
		for bb.tail-bb.head == bufsz {
			bb.cond.Wait()
			if err := bb.writableLocked(); err != nil {
				return wn, err
			}
		}
		avail := int(bufsz - (bb.tail - bb.head))
		tail := int(bb.tail % bufsz)

		var n int
		if tail+avail <= len(bb.buf) {
			n = copy(bb.buf[tail:tail+avail], p)
		} else {
			n = copy(bb.buf[tail:], p)
			n += copy(bb.buf[:avail-n], p[n:])
		}
		bb.tail += int64(n)
		p = p[n:]
		wn += n
		bb.cond.Broadcast()
	}
	return wn, nil
}

func (bb *BlockBuffer[T]) writableLocked() error {
	if bb.closeErr != nil {
		return fmt.Errorf("buffer: write to closed buffer: %w", bb.closeErr)
	}
	if bb.closeWrite {
		return fmt.Errorf("buffer: write to closed buffer: %w", io.ErrClosedPipe)
	}
	return nil
}

// Skip discards up to n buffered elements without blocking.
func (bb *BlockBuffer[T]) Skip(n int64) (int64, error) {
	bb.mu.Lock()
	defer bb.mu.Unlock()
	if bb.closeErr != nil {
		return 0, fmt.Errorf("buffer: skip from closed buffer: %w", bb.closeErr)
	}
	n = min(n, bb.tail-bb.head)
	bb.head += n
	bb.cond.Broadcast()
	return n, nil
}

// Available returns the number of buffered elements.
func (bb *BlockBuffer[T]) Available() int {
	return bb.Len()
}

// Ready reports whether Read would return without blocking.
func (bb *BlockBuffer[T]) Ready() bool {
	bb.mu.Lock()
	defer bb.mu.Unlock()
	return bb.head != bb.tail || bb.closeWrite || bb.closeErr != nil
}

// Len returns the number of buffered elements.
func (bb *BlockBuffer[T]) Len() int {
	bb.mu.Lock()
	defer bb.mu.Unlock()
	return int(bb.tail - bb.head)
}

// CloseWrite ends the stream; readers drain then see io.EOF and blocked
// writers fail.
func (bb *BlockBuffer[T]) CloseWrite() error {
	bb.mu.Lock()
	defer bb.mu.Unlock()
	if bb.closeWrite {
		return nil
	}
	bb.closeWrite = true
	bb.cond.Broadcast()
	return nil
}

// CloseWithError fails all pending and future operations with err
// (io.ErrClosedPipe if nil).
func (bb *BlockBuffer[T]) CloseWithError(err error) error {
	if err == nil {
		err = io.ErrClosedPipe
	}
	bb.mu.Lock()
	defer bb.mu.Unlock()
	if bb.closeErr != nil {
		return nil
	}
	bb.closeErr = err
	bb.closeWrite = true
	bb.cond.Broadcast()
	return nil
}

// Close is CloseWithError(io.ErrClosedPipe).
func (bb *BlockBuffer[T]) Close() error {
	return bb.CloseWithError(io.ErrClosedPipe)
}

// Error returns the error the buffer was closed with, if any.
func (bb *BlockBuffer[T]) Error() error {
	bb.mu.Lock()
	defer bb.mu.Unlock()
	return bb.closeErr
}
