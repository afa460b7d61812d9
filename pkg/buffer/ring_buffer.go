package buffer

import (
	"slices"
	"sync"
)

// RingBuffer keeps the most recent elements written to it, overwriting the
// oldest once full. It never blocks.
type RingBuffer[T any] struct {
	mu         sync.Mutex
	buf        []T
	head, tail int64
}

// RingN creates a RingBuffer that keeps the last size elements.
func RingN[T any](size int) *RingBuffer[T] {
	return &RingBuffer[T]{buf: make([]T, size)}
}

// Add appends t, dropping the oldest element if the ring is full.
func (rb *RingBuffer[T]) Add(t T) {
	rb.mu.Lock()
	defer rb.mu.Unlock()
	if len(rb.buf) == 0 {
		return
	}
	rb.buf[rb.tail%int64(len(rb.buf))] = t
	rb.tail++
	if rb.tail-rb.head > int64(len(rb.buf)) {
		rb.head++
	}
}

// Write appends p. Only the last len(buffer) elements of the combined
// stream are kept.
func (rb *RingBuffer[T]) Write(p []T) (int, error) {
	rb.mu.Lock()
	defer rb.mu.Unlock()
	size := int64(len(rb.buf))
	if size == 0 {
		return len(p), nil
	}
	keep := p
	if int64(len(keep)) > size {
		keep = keep[int64(len(keep))-size:]
		// Everything buffered so far is overwritten.
		rb.head = rb.tail + int64(len(p)) - size
		rb.tail = rb.head
	}
	for _, v := range keep {
		rb.buf[rb.tail%size] = v
		rb.tail++
	}
	if rb.tail-rb.head > size {
		rb.head = rb.tail - size
	}
	return len(p), nil
}

// Bytes returns a copy of the kept elements, oldest first.
func (rb *RingBuffer[T]) Bytes() []T {
	rb.mu.Lock()
	defer rb.mu.Unlock()
	if rb.head == rb.tail {
		return nil
	}
	size := int64(len(rb.buf))
	h := rb.head % size
	t := rb.tail % size
	if h < t {
		return slices.Clone(rb.buf[h:t])
	}
	return slices.Concat(rb.buf[h:], rb.buf[:t])
}

// Len returns the number of kept elements.
func (rb *RingBuffer[T]) Len() int {
	rb.mu.Lock()
	defer rb.mu.Unlock()
	return int(rb.tail - rb.head)
}

// Reset drops all kept elements.
func (rb *RingBuffer[T]) Reset() {
	rb.mu.Lock()
	defer rb.mu.Unlock()
	rb.head = 0
	rb.tail = 0
}
