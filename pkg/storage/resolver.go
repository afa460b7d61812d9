package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"
)

// Schemes recognized by ParseURI.
const (
	SchemeFile  = "file"
	SchemeS3    = "s3"
	SchemeStdio = "-"
)

var (
	// ErrInvalidURI is returned for a URI that cannot name an object.
	ErrInvalidURI = errors.New("storage: invalid uri")

	// ErrNoS3Client is returned for an s3:// URI when the Resolver has no
	// client configured.
	ErrNoS3Client = errors.New("storage: no s3 client configured")
)

// Location is a parsed object URI.
type Location struct {
	Scheme string
	Bucket string // s3 only
	Path   string // file path or object key
}

// ParseURI parses "-" (standard streams), "s3://bucket/key", "file://path"
// and plain filesystem paths.
func ParseURI(uri string) (Location, error) {
	switch {
	case uri == "":
		return Location{}, fmt.Errorf("%w: empty", ErrInvalidURI)
	case uri == SchemeStdio:
		return Location{Scheme: SchemeStdio}, nil
	case strings.HasPrefix(uri, "file://"):
		p := strings.TrimPrefix(uri, "file://")
		if p == "" {
			return Location{}, fmt.Errorf("%w: %s", ErrInvalidURI, uri)
		}
		return Location{Scheme: SchemeFile, Path: p}, nil
	case strings.HasPrefix(uri, "s3://"):
		u, err := url.Parse(uri)
		if err != nil {
			return Location{}, fmt.Errorf("%w: %v", ErrInvalidURI, err)
		}
		key := strings.TrimPrefix(u.Path, "/")
		if u.Host == "" || key == "" {
			return Location{}, fmt.Errorf("%w: %s needs a bucket and a key", ErrInvalidURI, uri)
		}
		return Location{Scheme: SchemeS3, Bucket: u.Host, Path: key}, nil
	case strings.Contains(uri, "://"):
		return Location{}, fmt.Errorf("%w: unsupported scheme in %s", ErrInvalidURI, uri)
	}
	return Location{Scheme: SchemeFile, Path: uri}, nil
}

// Resolver dispatches URIs to the matching store.
//
// A zero Resolver resolves relative paths against the working directory,
// reads "-" from os.Stdin, writes "-" to os.Stdout and rejects s3:// URIs.
type Resolver struct {
	Local  *Local
	S3     S3Client
	Stdin  *os.File
	Stdout io.Writer
}

func (r *Resolver) store(loc Location) (Store, error) {
	switch loc.Scheme {
	case SchemeS3:
		if r.S3 == nil {
			return nil, ErrNoS3Client
		}
		return NewS3(r.S3, loc.Bucket, ""), nil
	default:
		if r.Local != nil {
			return r.Local, nil
		}
		return &Local{}, nil
	}
}

// Open opens uri for reading.
func (r *Resolver) Open(ctx context.Context, uri string) (Source, error) {
	loc, err := ParseURI(uri)
	if err != nil {
		return nil, err
	}
	if loc.Scheme == SchemeStdio {
		in := r.Stdin
		if in == nil {
			in = os.Stdin
		}
		return newFileSource(in, false), nil
	}
	s, err := r.store(loc)
	if err != nil {
		return nil, err
	}
	return s.Open(ctx, loc.Path)
}

// Create opens uri for writing. Closing the writer for "-" leaves the
// underlying stream open.
func (r *Resolver) Create(ctx context.Context, uri string) (io.WriteCloser, error) {
	loc, err := ParseURI(uri)
	if err != nil {
		return nil, err
	}
	if loc.Scheme == SchemeStdio {
		var out io.Writer = os.Stdout
		if r.Stdout != nil {
			out = r.Stdout
		}
		return nopWriteCloser{out}, nil
	}
	s, err := r.store(loc)
	if err != nil {
		return nil, err
	}
	return s.Create(ctx, loc.Path)
}

// Stat returns the size of the object named by uri. Standard input reports
// its size only when redirected from a regular file.
func (r *Resolver) Stat(ctx context.Context, uri string) (Info, error) {
	loc, err := ParseURI(uri)
	if err != nil {
		return Info{}, err
	}
	if loc.Scheme == SchemeStdio {
		in := r.Stdin
		if in == nil {
			in = os.Stdin
		}
		fi, err := in.Stat()
		if err != nil {
			return Info{}, err
		}
		info := Info{Path: uri}
		if fi.Mode().IsRegular() {
			info.Size = fi.Size()
		}
		return info, nil
	}
	s, err := r.store(loc)
	if err != nil {
		return Info{}, err
	}
	info, err := s.Stat(ctx, loc.Path)
	if err != nil {
		return Info{}, err
	}
	info.Path = uri
	return info, nil
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }
