package markio

import (
	"log/slog"
	"math"
)

const (
	// DefaultBufferSize is the initial buffer length used when no size is given.
	DefaultBufferSize = 8192

	// MaxBufferSize is the default ceiling for buffer growth while a mark is
	// held.
	MaxBufferSize = math.MaxInt32 - 8
)

// Option configures a reader or writer.
type Option func(*options)

type options struct {
	size    int
	maxSize int
	logger  *slog.Logger
}

// WithBufferSize sets the initial buffer length. It must be positive.
func WithBufferSize(n int) Option {
	return func(o *options) { o.size = n }
}

// WithMaxBufferSize caps how far a buffer may grow to honor a mark.
// Values <= 0 select MaxBufferSize.
func WithMaxBufferSize(n int) Option {
	return func(o *options) { o.maxSize = n }
}

// WithLogger sets the logger for buffer lifecycle events. If nil,
// slog.Default() is used.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

func buildOptions(opts []Option) options {
	o := options{size: DefaultBufferSize}
	for _, opt := range opts {
		opt(&o)
	}
	if o.maxSize <= 0 {
		o.maxSize = MaxBufferSize
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	return o
}
