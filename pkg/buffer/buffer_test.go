package buffer

import (
	"bytes"
	"errors"
	"io"
	"sync"
	"testing"
	"time"
)

func TestBuffer_WriteRead(t *testing.T) {
	buf := N[byte](10)

	n, err := buf.Write([]byte{1, 2, 3, 4, 5})
	if err != nil {
		t.Fatalf("Write error: %v", err)
	}
	if n != 5 {
		t.Fatalf("Write returned %d, want 5", n)
	}
	if buf.Available() != 5 {
		t.Fatalf("Available() = %d, want 5", buf.Available())
	}
	buf.CloseWrite()

	got := make([]byte, 10)
	n, err = buf.Read(got)
	if err != nil {
		t.Fatalf("Read error: %v", err)
	}
	if !bytes.Equal(got[:n], []byte{1, 2, 3, 4, 5}) {
		t.Fatalf("Read got %v, want [1,2,3,4,5]", got[:n])
	}
	if _, err = buf.Read(got); err != io.EOF {
		t.Fatalf("expected EOF, got %v", err)
	}
}

func TestBuffer_ConcurrentWriteRead(t *testing.T) {
	buf := N[byte](100)

	data := make([]byte, 256)
	for i := range data {
		data[i] = byte(i)
	}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < len(data); i += 32 {
			if _, err := buf.Write(data[i:min(i+32, len(data))]); err != nil {
				t.Errorf("Write error: %v", err)
				return
			}
		}
		buf.CloseWrite()
	}()

	var received []byte
	go func() {
		defer wg.Done()
		tmp := make([]byte, 64)
		for {
			n, err := buf.Read(tmp)
			if err == io.EOF {
				return
			}
			if err != nil {
				t.Errorf("Read error: %v", err)
				return
			}
			received = append(received, tmp[:n]...)
		}
	}()
	wg.Wait()

	if !bytes.Equal(received, data) {
		t.Errorf("received data mismatch")
	}
}

func TestBuffer_Runes(t *testing.T) {
	buf := N[rune](4)
	buf.Write([]rune("héllo"))
	buf.CloseWrite()

	got, err := readAll[rune](buf)
	if err != nil {
		t.Fatalf("read error: %v", err)
	}
	if string(got) != "héllo" {
		t.Fatalf("got %q, want %q", string(got), "héllo")
	}
}

func TestBuffer_Skip(t *testing.T) {
	buf := N[byte](10)
	buf.Write([]byte{1, 2, 3, 4, 5})

	n, err := buf.Skip(2)
	if err != nil || n != 2 {
		t.Fatalf("Skip(2) = %d, %v; want 2, nil", n, err)
	}
	if buf.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", buf.Len())
	}
	n, err = buf.Skip(100)
	if err != nil || n != 3 {
		t.Fatalf("Skip(100) = %d, %v; want 3, nil", n, err)
	}
	if buf.Len() != 0 {
		t.Fatalf("Len() = %d, want 0", buf.Len())
	}
}

func TestBuffer_Ready(t *testing.T) {
	buf := N[byte](10)
	if buf.Ready() {
		t.Fatal("empty open buffer should not be ready")
	}
	buf.Write([]byte{1})
	if !buf.Ready() {
		t.Fatal("buffer with data should be ready")
	}
	buf.Skip(1)
	buf.CloseWrite()
	if !buf.Ready() {
		t.Fatal("closed buffer should be ready: Read returns EOF at once")
	}
}

func TestBuffer_CloseWithError(t *testing.T) {
	buf := N[byte](10)
	buf.Write([]byte{1, 2, 3})

	customErr := errors.New("custom error")
	buf.CloseWithError(customErr)

	if buf.Error() != customErr {
		t.Fatalf("Error() = %v, want %v", buf.Error(), customErr)
	}
	if _, err := buf.Write([]byte{4, 5}); !errors.Is(err, customErr) {
		t.Fatalf("Write error should wrap customErr, got %v", err)
	}
	if _, err := buf.Read(make([]byte, 10)); !errors.Is(err, customErr) {
		t.Fatalf("Read error should wrap customErr, got %v", err)
	}
	if _, err := buf.Skip(1); err == nil {
		t.Fatal("Skip should fail after CloseWithError")
	}
}

func TestBuffer_Close(t *testing.T) {
	buf := N[byte](10)
	buf.Write([]byte{1, 2, 3})
	buf.Close()

	_, err := buf.Write([]byte{4, 5})
	if !errors.Is(err, io.ErrClosedPipe) {
		t.Fatalf("Write error should wrap ErrClosedPipe, got %v", err)
	}
}

func TestBuffer_BlockingRead(t *testing.T) {
	buf := N[byte](10)

	done := make(chan struct{})
	go func() {
		defer close(done)
		tmp := make([]byte, 5)
		n, err := buf.Read(tmp)
		if err != nil {
			t.Errorf("Read error: %v", err)
			return
		}
		if n != 3 {
			t.Errorf("Read returned %d, want 3", n)
		}
	}()

	time.Sleep(50 * time.Millisecond)
	buf.Write([]byte{1, 2, 3})

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Read did not unblock")
	}
}

func TestBuffer_CloseUnblocksRead(t *testing.T) {
	buf := N[byte](10)

	errc := make(chan error, 1)
	go func() {
		_, err := buf.Read(make([]byte, 4))
		errc <- err
	}()

	time.Sleep(20 * time.Millisecond)
	buf.Close()

	select {
	case err := <-errc:
		if !errors.Is(err, io.ErrClosedPipe) {
			t.Fatalf("Read error = %v, want ErrClosedPipe", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Close did not unblock Read")
	}
}

func TestBuffer_DoubleClose(t *testing.T) {
	buf := N[byte](10)

	if err := buf.CloseWrite(); err != nil {
		t.Fatalf("first CloseWrite error: %v", err)
	}
	if err := buf.CloseWrite(); err != nil {
		t.Fatalf("second CloseWrite error: %v", err)
	}

	err1 := errors.New("error1")
	buf.CloseWithError(err1)
	buf.CloseWithError(errors.New("error2"))
	if buf.Error() != err1 {
		t.Fatalf("Error() = %v, want %v", buf.Error(), err1)
	}
}

type reader[T any] interface {
	Read(p []T) (int, error)
}

func readAll[T any](r reader[T]) ([]T, error) {
	var out []T
	tmp := make([]T, 3)
	for {
		n, err := r.Read(tmp)
		out = append(out, tmp[:n]...)
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return out, err
		}
	}
}
