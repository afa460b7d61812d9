package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/haivivi/markio/pkg/buffer"
	"github.com/haivivi/markio/pkg/cli"
	"github.com/haivivi/markio/pkg/markio"
)

var cpFlags streamFlags

var cpCmd = &cobra.Command{
	Use:   "cp SRC DST",
	Short: "Copy a source to a destination",
	Long: `Copy SRC to DST. Either side may be a local path, "-" or an s3:// URI.

The source is decompressed according to --decompress (auto by default), so
copying a .gz file to a plain name stores the expanded content.

Examples:
  markcat cp notes.txt s3://bucket/notes.txt
  markcat cp --decompress none s3://bucket/raw.gz raw.gz`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := GetConfig()
		if err != nil {
			return err
		}
		size, codec, err := cpFlags.options(cfg)
		if err != nil {
			return err
		}
		res := newResolver(cfg)
		ctx := cmd.Context()
		src, dst := args[0], args[1]

		rc, applied, err := openStream(ctx, res, src, size, codec)
		if err != nil {
			return err
		}
		defer rc.Close()

		out, err := res.Create(ctx, dst)
		if err != nil {
			return err
		}
		w, err := markio.NewWriter(out, markio.WithBufferSize(size))
		if err != nil {
			out.Close()
			return err
		}
		n, err := pipeCopy(ctx, w, rc, size)
		if err != nil {
			w.Close()
			return fmt.Errorf("copy %s: %w", src, err)
		}
		if err := w.Close(); err != nil {
			return fmt.Errorf("write %s: %w", dst, err)
		}

		cli.PrintVerbose(IsVerbose(), "codec %s", applied)
		cli.PrintSuccess("Copied %s to %s (%s)", src, dst, cli.FormatBytes(n))
		return nil
	},
}

// pipeCopy moves src into dst through a bounded block pipe. The source is
// drained on its own goroutine so decoding overlaps the destination writes,
// and at most size bytes sit between the two sides.
func pipeCopy(ctx context.Context, dst io.Writer, src io.Reader, size int) (int64, error) {
	pipe := buffer.BlockN[byte](size)
	stop := context.AfterFunc(ctx, func() { pipe.CloseWithError(ctx.Err()) })
	defer stop()

	var g errgroup.Group
	g.Go(func() error {
		if _, err := io.Copy(pipe, src); err != nil {
			pipe.CloseWithError(err)
			return err
		}
		return pipe.CloseWrite()
	})
	var n int64
	g.Go(func() error {
		var err error
		n, err = io.Copy(dst, pipe)
		if err != nil {
			pipe.CloseWithError(err)
		}
		return err
	})
	return n, g.Wait()
}

func init() {
	cpFlags.register(cpCmd)
	rootCmd.AddCommand(cpCmd)
}
