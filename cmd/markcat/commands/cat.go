package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/haivivi/markio/pkg/markio"
	"github.com/haivivi/markio/pkg/storage"
	"github.com/haivivi/markio/pkg/unpack"
)

var catFlags streamFlags

var catCmd = &cobra.Command{
	Use:   "cat [URI...]",
	Short: "Copy sources to stdout",
	Long: `Copy one or more sources to stdout through buffered readers.

Compressed sources are decompressed unless --decompress none is given.
Without arguments, standard input is read.

Examples:
  markcat cat a.log b.log.gz
  curl -s https://example.com/x.zst | markcat cat
  markcat cat --buffer-size 1MiB s3://bucket/big.bin > big.bin`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := GetConfig()
		if err != nil {
			return err
		}
		size, codec, err := catFlags.options(cfg)
		if err != nil {
			return err
		}
		res := newResolver(cfg)
		ctx := cmd.Context()

		out, err := res.Create(ctx, storage.SchemeStdio)
		if err != nil {
			return err
		}
		w, err := markio.NewWriter(out, markio.WithBufferSize(size))
		if err != nil {
			return err
		}
		defer w.Close()

		for _, uri := range argsOrStdin(args) {
			if err := catOne(ctx, res, uri, size, codec, w); err != nil {
				return err
			}
		}
		return w.Flush()
	},
}

func catOne(ctx context.Context, res *storage.Resolver, uri string, size int, codec unpack.Codec, w *markio.Writer) error {
	rc, _, err := openStream(ctx, res, uri, size, codec)
	if err != nil {
		return err
	}
	defer rc.Close()

	if _, err := io.Copy(w, rc); err != nil {
		return fmt.Errorf("%s: %w", uri, err)
	}
	return nil
}

func init() {
	catFlags.register(catCmd)
	rootCmd.AddCommand(catCmd)
}
