// Package markio provides buffered readers and writers with a bounded
// mark/reset window over sources that cannot seek.
//
// Two engines share one buffer-management policy:
//
//   - Reader buffers raw bytes read from a ByteSource. Reads are amplified
//     into block-sized reads of the source, and Mark/Reset lets a consumer
//     rewind up to a caller-chosen number of bytes.
//
//   - TextReader buffers decoded text units (runes) from a RuneSource and adds
//     line extraction, carriage-return/line-feed folding and a non-blocking
//     readiness probe.
//
// Both engines serialize operations with a per-instance mutex, except Close,
// which may be called concurrently with an in-flight read and with itself.
// The underlying source is closed exactly once.
//
// Example usage:
//
//	r, err := markio.NewReaderSize(src, 4096)
//	if err != nil {
//		return err
//	}
//	defer r.Close()
//
//	r.Mark(16)
//	head := make([]byte, 4)
//	n, err := r.Read(head)
//	// inspect head[:n] ...
//	if err := r.Reset(); err != nil {
//		return err
//	}
//
// Writer and TextWriter are the buffered sink counterparts.
package markio
