// Package buffer provides thread-safe in-memory buffers generic over the
// element type.
//
//   - Buffer: a growable pipe. Reads block until data is written or the write
//     side is closed.
//   - BlockBuffer: a fixed-size circular pipe. Writes block while full and
//     reads block while empty, giving producers back-pressure.
//   - RingBuffer: a fixed-size window that overwrites the oldest elements,
//     used to keep the most recent N items.
//
// Buffer and BlockBuffer expose Available, Ready and Skip, so a
// Buffer[byte] or BlockBuffer[byte] can feed a markio.Reader and a
// Buffer[rune] can feed a markio.TextReader:
//
//	pipe := buffer.N[byte](1024)
//	r, _ := markio.NewReaderSize(pipe, 256)
//	go func() {
//		pipe.Write(data)
//		pipe.CloseWrite()
//	}()
//	io.Copy(os.Stdout, r)
//
// CloseWrite ends the stream gracefully (readers drain then see io.EOF);
// CloseWithError and Close fail pending and future operations at once.
package buffer
