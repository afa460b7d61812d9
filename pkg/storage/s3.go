package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
)

// rangeSkipThreshold is the skip length above which an S3 source reopens the
// object at the new offset instead of reading and discarding.
const rangeSkipThreshold = 256 << 10

// S3Client abstracts the S3 API operations used by [S3Store].
// The [s3.Client] type satisfies this interface.
type S3Client interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
}

// S3Store implements Store backed by Amazon S3 or any S3-compatible object
// store (MinIO, R2, etc.).
//
// All storage paths are mapped to S3 keys under an optional prefix.
// The caller is responsible for configuring the [s3.Client] with appropriate
// credentials, region, and endpoint.
type S3Store struct {
	client S3Client
	bucket string
	prefix string
}

// NewS3 creates an S3-backed Store. Prefix is prepended to all object keys;
// pass "" for no prefix.
func NewS3(client S3Client, bucket, prefix string) *S3Store {
	return &S3Store{client: client, bucket: bucket, prefix: prefix}
}

func (s *S3Store) key(path string) string {
	if s.prefix == "" {
		return path
	}
	return s.prefix + "/" + path
}

// get issues a GetObject starting at byte off.
func (s *S3Store) get(ctx context.Context, path string, off int64) (*s3.GetObjectOutput, error) {
	in := &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(path)),
	}
	if off > 0 {
		in.Range = aws.String(fmt.Sprintf("bytes=%d-", off))
	}
	out, err := s.client.GetObject(ctx, in)
	if err != nil {
		if isS3NotFound(err) {
			return nil, fmt.Errorf("storage: open %s: %w", path, os.ErrNotExist)
		}
		return nil, err
	}
	return out, nil
}

// Open opens the named object for reading via GetObject.
// Returns an error wrapping os.ErrNotExist if the key does not exist.
func (s *S3Store) Open(ctx context.Context, path string) (Source, error) {
	out, err := s.get(ctx, path, 0)
	if err != nil {
		return nil, err
	}
	rem := int64(-1)
	if out.ContentLength != nil {
		rem = *out.ContentLength
	}
	return &s3Source{ctx: ctx, store: s, path: path, body: out.Body, remaining: rem}, nil
}

// Create returns a writer that streams data to S3 via PutObject.
//
// A background goroutine performs the upload, reading from an [io.Pipe].
// The caller must close the writer to complete the upload; Close blocks
// until the upload finishes and returns any S3 error.
func (s *S3Store) Create(ctx context.Context, path string) (io.WriteCloser, error) {
	pr, pw := io.Pipe()
	w := &s3Writer{pw: pw, done: make(chan struct{})}
	go func() {
		defer close(w.done)
		_, w.uploadErr = s.client.PutObject(ctx, &s3.PutObjectInput{
			Bucket: aws.String(s.bucket),
			Key:    aws.String(s.key(path)),
			Body:   pr,
		})
		// Unblock pending writes if the upload failed early.
		pr.CloseWithError(w.uploadErr)
	}()
	return w, nil
}

// Stat returns the object's size via HeadObject.
func (s *S3Store) Stat(ctx context.Context, path string) (Info, error) {
	out, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(path)),
	})
	if err != nil {
		if isS3NotFound(err) {
			return Info{}, fmt.Errorf("storage: stat %s: %w", path, os.ErrNotExist)
		}
		return Info{}, err
	}
	return Info{Path: path, Size: aws.ToInt64(out.ContentLength)}, nil
}

// s3Source reads an object body. The remaining length comes from
// Content-Length; -1 means the server did not send one.
type s3Source struct {
	ctx   context.Context
	store *S3Store
	path  string

	body      io.ReadCloser
	off       int64
	remaining int64
}

func (s *s3Source) advance(n int64) {
	s.off += n
	if s.remaining >= 0 {
		s.remaining = max(s.remaining-n, 0)
	}
}

func (s *s3Source) Read(p []byte) (int, error) {
	n, err := s.body.Read(p)
	s.advance(int64(n))
	return n, err
}

// Available reports 0: any read of a network body may block. The remaining
// Content-Length only bounds Skip.
func (s *s3Source) Available() int { return 0 }

// Skip discards short spans from the body and reopens the object with a
// Range request for long ones.
func (s *s3Source) Skip(n int64) (int64, error) {
	if n <= 0 {
		return 0, nil
	}
	if s.remaining >= 0 {
		n = min(n, s.remaining)
	}
	if n < rangeSkipThreshold || s.remaining < 0 {
		skipped, err := io.CopyN(io.Discard, s.body, n)
		s.advance(skipped)
		if err == io.EOF {
			err = nil
		}
		return skipped, err
	}
	out, err := s.store.get(s.ctx, s.path, s.off+n)
	if err != nil {
		return 0, err
	}
	s.body.Close()
	s.body = out.Body
	s.advance(n)
	return n, nil
}

func (s *s3Source) Close() error {
	return s.body.Close()
}

// s3Writer streams data to a background PutObject call through an io.Pipe.
type s3Writer struct {
	pw        *io.PipeWriter
	done      chan struct{}
	uploadErr error
}

func (w *s3Writer) Write(p []byte) (int, error) {
	return w.pw.Write(p)
}

// Close signals EOF to the PutObject reader, waits for the upload to
// complete, and returns the upload error (if any).
func (w *s3Writer) Close() error {
	w.pw.Close()
	<-w.done
	return w.uploadErr
}

// isS3NotFound reports whether err indicates the S3 object does not exist.
func isS3NotFound(err error) bool {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NotFound", "NoSuchKey":
			return true
		}
	}
	return false
}

var (
	_ Store = (*S3Store)(nil)
	_ Store = (*Local)(nil)
)
