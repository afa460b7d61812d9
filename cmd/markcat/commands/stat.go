package commands

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/haivivi/markio/pkg/cli"
	"github.com/haivivi/markio/pkg/storage"
	"github.com/haivivi/markio/pkg/unpack"
)

var (
	statFlags  streamFlags
	statFormat string
	statFrom   string
	statJobs   int
)

// statResult describes one source.
type statResult struct {
	URI       string       `json:"uri" yaml:"uri"`
	Size      int64        `json:"size" yaml:"size"`
	SizeHuman string       `json:"size_human" yaml:"size_human"`
	Codec     unpack.Codec `json:"codec" yaml:"codec"`
	Bytes     int64        `json:"bytes" yaml:"bytes"`
	Lines     int64        `json:"lines" yaml:"lines"`
	ElapsedMs int64        `json:"elapsed_ms" yaml:"elapsed_ms"`
}

var statCmd = &cobra.Command{
	Use:   "stat [URI...]",
	Short: "Count bytes and lines of sources",
	Long: `Read sources concurrently and report their stored size, compression,
decompressed byte count and line count.

Sources may also be listed in a YAML or JSON file given with --from
("-" reads the list from stdin):

  uris:
    - a.log
    - s3://bucket/b.log.gz

Examples:
  markcat stat *.log
  markcat stat --format json --jobs 8 --from sources.yaml
  markcat stat --format raw big.zst`,
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := cli.ParseOutputFormat(statFormat)
		if err != nil {
			return err
		}
		uris := args
		if statFrom != "" {
			listed, err := cli.LoadURIList(statFrom)
			if err != nil {
				return err
			}
			uris = append(uris, listed...)
		}
		if len(uris) == 0 {
			return errors.New("no sources given")
		}

		cfg, err := GetConfig()
		if err != nil {
			return err
		}
		size, codec, err := statFlags.options(cfg)
		if err != nil {
			return err
		}
		res := newResolver(cfg)

		results := make([]statResult, len(uris))
		g, ctx := errgroup.WithContext(cmd.Context())
		g.SetLimit(max(statJobs, 1))
		for i, uri := range uris {
			g.Go(func() error {
				r, err := statOne(ctx, res, uri, size, codec)
				if err != nil {
					return err
				}
				results[i] = r
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}

		if format == cli.FormatRaw {
			return printStats(results)
		}
		return cli.Output(os.Stdout, format, results)
	},
}

func statOne(ctx context.Context, res *storage.Resolver, uri string, size int, codec unpack.Codec) (statResult, error) {
	start := time.Now()
	info, err := res.Stat(ctx, uri)
	if err != nil {
		return statResult{}, fmt.Errorf("stat %s: %w", uri, err)
	}
	rc, applied, err := openStream(ctx, res, uri, size, codec)
	if err != nil {
		return statResult{}, err
	}
	defer rc.Close()

	r := statResult{
		URI:       uri,
		Size:      info.Size,
		SizeHuman: cli.FormatBytes(info.Size),
		Codec:     applied,
	}
	buf := make([]byte, size)
	var last byte
	for {
		if err := ctx.Err(); err != nil {
			return statResult{}, err
		}
		n, err := rc.Read(buf)
		if n > 0 {
			r.Bytes += int64(n)
			r.Lines += int64(bytes.Count(buf[:n], []byte{'\n'}))
			last = buf[n-1]
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return statResult{}, fmt.Errorf("read %s: %w", uri, err)
		}
	}
	if r.Bytes > 0 && last != '\n' {
		r.Lines++
	}
	r.ElapsedMs = time.Since(start).Milliseconds()
	return r, nil
}

func printStats(results []statResult) error {
	s := cli.NewStyles(os.Stdout, cli.DefaultTheme)
	for _, r := range results {
		fmt.Print(s.Heading(r.URI))
		fmt.Printf("  %s %s\n", s.Label.Render("size: "), cli.FormatBytes(r.Size))
		fmt.Printf("  %s %s\n", s.Label.Render("codec:"), r.Codec)
		fmt.Printf("  %s %s\n", s.Label.Render("bytes:"), cli.FormatCount(r.Bytes))
		fmt.Printf("  %s %s\n", s.Label.Render("lines:"), cli.FormatCount(r.Lines))
		fmt.Printf("  %s %s\n", s.Label.Render("time: "), s.Help.Render(cli.FormatDuration(r.ElapsedMs)))
	}
	return nil
}

func init() {
	statFlags.register(statCmd)
	statCmd.Flags().StringVar(&statFormat, "format", "yaml", "output format: yaml, json, raw")
	statCmd.Flags().StringVar(&statFrom, "from", "", "read additional URIs from a YAML/JSON file (- for stdin)")
	statCmd.Flags().IntVar(&statJobs, "jobs", 4, "number of sources read concurrently")
	rootCmd.AddCommand(statCmd)
}
