package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/goccy/go-yaml"
)

// OutputFormat is the value of a --format flag.
type OutputFormat string

const (
	FormatYAML OutputFormat = "yaml"
	FormatJSON OutputFormat = "json"
	// FormatRaw writes bytes and strings unchanged. Commands with a line
	// oriented rendering (stat) print it themselves.
	FormatRaw OutputFormat = "raw"
)

// ParseOutputFormat validates a --format flag value. Empty means YAML.
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch f := OutputFormat(s); f {
	case "":
		return FormatYAML, nil
	case FormatYAML, FormatJSON, FormatRaw:
		return f, nil
	}
	return "", fmt.Errorf("unsupported output format: %s", s)
}

// Output encodes v to w. Raw output of anything other than bytes or a
// string falls back to YAML.
func Output(w io.Writer, format OutputFormat, v any) error {
	switch format {
	case FormatYAML, "":
		return writeYAML(w, v)
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case FormatRaw:
		switch b := v.(type) {
		case []byte:
			_, err := w.Write(b)
			return err
		case string:
			_, err := io.WriteString(w, b)
			return err
		}
		return writeYAML(w, v)
	}
	return fmt.Errorf("unsupported output format: %s", format)
}

func writeYAML(w io.Writer, v any) error {
	data, err := yaml.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode yaml: %w", err)
	}
	_, err = w.Write(data)
	return err
}

// Status lines go to stderr so stdout carries only data.

// PrintSuccess prints a checkmarked status line.
func PrintSuccess(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "✓ "+format+"\n", args...)
}

func PrintError(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
}

// PrintVerbose prints only when verbose is set.
func PrintVerbose(verbose bool, format string, args ...any) {
	if verbose {
		fmt.Fprintf(os.Stderr, "[verbose] "+format+"\n", args...)
	}
}
