package cli

import "github.com/haivivi/markio/pkg/buffer"

// TailBuffer keeps the most recent lines added to it.
type TailBuffer = buffer.RingBuffer[string]

// NewTailBuffer creates a buffer that keeps the last n lines.
func NewTailBuffer(n int) *TailBuffer {
	return buffer.RingN[string](n)
}
