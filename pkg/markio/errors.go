package markio

import "errors"

// Sentinel errors. Operations wrap them with context; match with errors.Is.
var (
	// ErrInvalidArgument is returned for a non-positive buffer size, a
	// negative limit or an out-of-range offset/length.
	ErrInvalidArgument = errors.New("markio: invalid argument")

	// ErrStreamClosed is returned by any operation after Close.
	ErrStreamClosed = errors.New("markio: stream closed")

	// ErrInvalidMark is returned by Reset when no mark is set or the mark
	// was dropped after its read-ahead limit was exceeded.
	ErrInvalidMark = errors.New("markio: invalid mark")

	// ErrOutOfMemory is returned when keeping a mark would need a buffer
	// larger than the configured maximum. The mark is dropped; the stream
	// stays usable.
	ErrOutOfMemory = errors.New("markio: required buffer size too large")
)

var errNegativeRead = errors.New("markio: source returned negative count from Read")
