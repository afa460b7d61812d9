package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/spf13/cobra"

	"github.com/haivivi/markio/cmd/markcat/internal/config"
	"github.com/haivivi/markio/pkg/cli"
	"github.com/haivivi/markio/pkg/markio"
	"github.com/haivivi/markio/pkg/storage"
	"github.com/haivivi/markio/pkg/unpack"
)

// streamFlags are the flags shared by commands that read sources.
type streamFlags struct {
	bufferSize string
	decompress string
}

func (f *streamFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.bufferSize, "buffer-size", "", "stream buffer size, e.g. 8KiB (default from config or 8KiB)")
	cmd.Flags().StringVar(&f.decompress, "decompress", "", "codec: auto, none, gzip, zstd (default from config or auto)")
}

// options resolves the flags against the configuration.
func (f *streamFlags) options(cfg *config.Config) (size int, codec unpack.Codec, err error) {
	size = markio.DefaultBufferSize
	sizeStr := f.bufferSize
	if sizeStr == "" {
		sizeStr = cfg.BufferSize
	}
	if sizeStr != "" {
		if size, err = cli.ParseBytes(sizeStr); err != nil {
			return 0, "", fmt.Errorf("invalid buffer size %q: %w", sizeStr, err)
		}
	}
	codecStr := f.decompress
	if codecStr == "" {
		codecStr = cfg.Decompress
	}
	if codec, err = unpack.ParseCodec(codecStr); err != nil {
		return 0, "", err
	}
	return size, codec, nil
}

// newResolver builds a storage resolver, with an S3 client when the
// configuration has an s3 section.
func newResolver(cfg *config.Config) *storage.Resolver {
	r := &storage.Resolver{}
	if cfg.S3.Enabled() {
		r.S3 = newS3Client(cfg.S3)
	}
	return r
}

func newS3Client(c config.S3) *s3.Client {
	opts := s3.Options{
		Region:       c.Region,
		UsePathStyle: c.PathStyle,
	}
	if c.Endpoint != "" {
		opts.BaseEndpoint = aws.String(c.Endpoint)
	}
	if c.AccessKey != "" {
		creds := aws.Credentials{
			AccessKeyID:     c.AccessKey,
			SecretAccessKey: c.SecretKey,
			Source:          "markcat config",
		}
		opts.Credentials = aws.CredentialsProviderFunc(func(context.Context) (aws.Credentials, error) {
			return creds, nil
		})
	}
	return s3.New(opts)
}

// openStream opens uri through a buffered markio.Reader and strips the
// compression layer. Closing the result closes the source.
func openStream(ctx context.Context, res *storage.Resolver, uri string, size int, codec unpack.Codec) (io.ReadCloser, unpack.Codec, error) {
	src, err := res.Open(ctx, uri)
	if err != nil {
		return nil, "", err
	}
	br, err := markio.NewReader(src, markio.WithBufferSize(size), markio.WithLogger(slog.Default()))
	if err != nil {
		src.Close()
		return nil, "", err
	}
	rc, applied, err := unpack.Open(br, codec)
	if err != nil {
		br.Close()
		return nil, "", fmt.Errorf("%s: %w", uri, err)
	}
	slog.Debug("markcat: opened", "uri", uri, "codec", applied, "buffer_size", size)
	return rc, applied, nil
}

// argsOrStdin returns args, or "-" when none are given.
func argsOrStdin(args []string) []string {
	if len(args) == 0 {
		return []string{storage.SchemeStdio}
	}
	return args
}
