package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"

	"github.com/haivivi/markio/pkg/markio"
)

// ---------------------------------------------------------------------------
// mock S3 client
// ---------------------------------------------------------------------------

// apiError implements smithy.APIError for test assertions.
type apiError struct {
	code string
	msg  string
}

func (e *apiError) Error() string                 { return e.msg }
func (e *apiError) ErrorCode() string             { return e.code }
func (e *apiError) ErrorMessage() string          { return e.msg }
func (e *apiError) ErrorFault() smithy.ErrorFault { return smithy.FaultClient }

var errNoSuchKey = &apiError{code: "NoSuchKey", msg: "no such key"}
var errNotFound = &apiError{code: "NotFound", msg: "not found"}

// mockS3 is a thread-safe in-memory S3 backend for testing.
type mockS3 struct {
	mu      sync.Mutex
	objects map[string][]byte
	ranges  []string

	// Optional hooks to inject errors or custom bodies.
	getOut  func(*s3.GetObjectInput) *s3.GetObjectOutput
	getErr  error
	putErr  error
	headErr error
}

func newMockS3() *mockS3 {
	return &mockS3{objects: make(map[string][]byte)}
}

func (m *mockS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	if m.getOut != nil {
		return m.getOut(in), nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.objects[*in.Key]
	if !ok {
		return nil, errNoSuchKey
	}
	if in.Range != nil {
		m.ranges = append(m.ranges, *in.Range)
		var off int
		if _, err := fmt.Sscanf(*in.Range, "bytes=%d-", &off); err != nil {
			return nil, err
		}
		data = data[min(off, len(data)):]
	}
	return &s3.GetObjectOutput{
		Body:          io.NopCloser(bytes.NewReader(data)),
		ContentLength: aws.Int64(int64(len(data))),
	}, nil
}

func (m *mockS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if m.putErr != nil {
		return nil, m.putErr
	}
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[*in.Key] = data
	return &s3.PutObjectOutput{}, nil
}

func (m *mockS3) HeadObject(_ context.Context, in *s3.HeadObjectInput, _ ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
	if m.headErr != nil {
		return nil, m.headErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.objects[*in.Key]
	if !ok {
		return nil, errNotFound
	}
	return &s3.HeadObjectOutput{ContentLength: aws.Int64(int64(len(data)))}, nil
}

// ---------------------------------------------------------------------------
// S3Store tests
// ---------------------------------------------------------------------------

func newTestS3(t *testing.T) (*S3Store, *mockS3) {
	t.Helper()
	mock := newMockS3()
	store := NewS3(mock, "test-bucket", "")
	return store, mock
}

func TestS3CreateAndOpen(t *testing.T) {
	store, _ := newTestS3(t)
	ctx := context.Background()

	const data = "hello s3"
	writeFile(t, store, "obj.txt", data)

	r, err := store.Open(ctx, "obj.txt")
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()
	if rem := r.(*s3Source).remaining; rem != int64(len(data)) {
		t.Fatalf("remaining = %d, want %d", rem, len(data))
	}
	got, err := io.ReadAll(r)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != data {
		t.Fatalf("got %q, want %q", got, data)
	}
	if rem := r.(*s3Source).remaining; rem != 0 {
		t.Fatalf("remaining at end = %d, want 0", rem)
	}
}

func TestS3OpenNotExist(t *testing.T) {
	store, _ := newTestS3(t)

	_, err := store.Open(context.Background(), "missing")
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected os.ErrNotExist, got %v", err)
	}
}

func TestS3OpenOtherError(t *testing.T) {
	store, mock := newTestS3(t)
	mock.getErr = &apiError{code: "AccessDenied", msg: "forbidden"}

	_, err := store.Open(context.Background(), "x")
	if err == nil {
		t.Fatal("expected error")
	}
	if errors.Is(err, os.ErrNotExist) {
		t.Fatal("AccessDenied should not map to ErrNotExist")
	}
}

func TestS3SkipShort(t *testing.T) {
	store, mock := newTestS3(t)
	writeFile(t, store, "k", "0123456789")

	r, err := store.Open(context.Background(), "k")
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()
	if n, err := r.Skip(4); n != 4 || err != nil {
		t.Fatalf("Skip(4) = %d, %v", n, err)
	}
	got, _ := io.ReadAll(r)
	if string(got) != "456789" {
		t.Fatalf("got %q", got)
	}
	if len(mock.ranges) != 0 {
		t.Fatalf("short skip issued range requests: %v", mock.ranges)
	}
}

func TestS3SkipRange(t *testing.T) {
	store, mock := newTestS3(t)
	data := strings.Repeat("a", rangeSkipThreshold) + "tail"
	writeFile(t, store, "big", data)

	r, err := store.Open(context.Background(), "big")
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()
	if n, err := r.Skip(int64(rangeSkipThreshold)); n != int64(rangeSkipThreshold) || err != nil {
		t.Fatalf("Skip = %d, %v", n, err)
	}
	if rem := r.(*s3Source).remaining; rem != 4 {
		t.Fatalf("remaining = %d, want 4", rem)
	}
	got, _ := io.ReadAll(r)
	if string(got) != "tail" {
		t.Fatalf("got %q, want tail", got)
	}
	want := fmt.Sprintf("bytes=%d-", rangeSkipThreshold)
	if len(mock.ranges) != 1 || mock.ranges[0] != want {
		t.Fatalf("ranges = %v, want [%s]", mock.ranges, want)
	}
}

func TestS3SlowBody(t *testing.T) {
	store, mock := newTestS3(t)
	pr, pw := io.Pipe()
	defer pw.Close()
	mock.getOut = func(*s3.GetObjectInput) *s3.GetObjectOutput {
		return &s3.GetObjectOutput{Body: pr, ContentLength: aws.Int64(100)}
	}
	go pw.Write([]byte("0123456789"))

	src, err := store.Open(context.Background(), "slow")
	if err != nil {
		t.Fatal(err)
	}
	if src.Available() != 0 {
		t.Fatalf("Available() = %d, want 0 for a network body", src.Available())
	}
	r, err := markio.NewReaderSize(src, 8)
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()

	type result struct {
		n   int
		err error
	}
	done := make(chan result, 1)
	p := make([]byte, 64)
	go func() {
		n, err := r.Read(p)
		done <- result{n, err}
	}()
	select {
	case res := <-done:
		if res.err != nil || res.n != 10 || string(p[:10]) != "0123456789" {
			t.Fatalf("Read = %d, %v, %q", res.n, res.err, p[:res.n])
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Read blocked waiting for the rest of the body")
	}
}

func TestS3Stat(t *testing.T) {
	store, _ := newTestS3(t)
	ctx := context.Background()

	if _, err := store.Stat(ctx, "missing"); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("Stat(missing) = %v, want os.ErrNotExist", err)
	}
	writeFile(t, store, "present", "abcd")
	info, err := store.Stat(ctx, "present")
	if err != nil {
		t.Fatal(err)
	}
	if info.Size != 4 {
		t.Fatalf("Size = %d, want 4", info.Size)
	}
}

func TestS3StatOtherError(t *testing.T) {
	store, mock := newTestS3(t)
	mock.headErr = errors.New("network error")

	_, err := store.Stat(context.Background(), "x")
	if err == nil || errors.Is(err, os.ErrNotExist) {
		t.Fatalf("Stat = %v, want a non-not-exist error", err)
	}
}

func TestS3CreateUploadError(t *testing.T) {
	store, mock := newTestS3(t)
	mock.putErr = errors.New("upload failed")

	w, err := store.Create(context.Background(), "obj")
	if err != nil {
		t.Fatal(err)
	}
	w.Write([]byte("data"))
	if err := w.Close(); err == nil {
		t.Fatal("expected upload error from Close")
	}
}

func TestS3KeyPrefix(t *testing.T) {
	mock := newMockS3()
	store := NewS3(mock, "bucket", "pfx")
	writeFile(t, store, "file.bin", "x")

	mock.mu.Lock()
	_, ok := mock.objects["pfx/file.bin"]
	mock.mu.Unlock()
	if !ok {
		t.Fatal("expected key with prefix pfx/file.bin")
	}
}

func TestIsS3NotFound(t *testing.T) {
	tests := []struct {
		err  error
		want bool
	}{
		{errNoSuchKey, true},
		{errNotFound, true},
		{fmt.Errorf("wrapped: %w", errNoSuchKey), true},
		{&apiError{code: "AccessDenied"}, false},
		{errors.New("plain"), false},
	}
	for _, tt := range tests {
		if got := isS3NotFound(tt.err); got != tt.want {
			t.Errorf("isS3NotFound(%v) = %v, want %v", tt.err, got, tt.want)
		}
	}
}
