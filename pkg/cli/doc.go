// Package cli provides common utilities for the markcat command-line tool.
//
// This package includes:
//   - Output formatting (YAML, JSON, raw)
//   - Human-readable sizes and counts
//   - Terminal styles for headings and line-number gutters
//   - Source list loading for --from (YAML or JSON)
//   - A bounded line window for tailing
//
// Example usage:
//
//	cli.Output(os.Stdout, cli.FormatJSON, stats)
package cli
