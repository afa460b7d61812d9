// Package main is the entry point for the markcat CLI.
//
// Usage:
//
//	markcat [flags] <command> [args]
//
// Commands:
//
//	cat      - Copy streams to stdout, decompressing on the fly
//	lines    - Print decoded lines, optionally numbered or tailed
//	stat     - Count bytes and lines of many sources concurrently
//	cp       - Copy one source to a destination
//	config   - Show the configuration
//	version  - Show version information
package main

import (
	"fmt"
	"os"

	"github.com/haivivi/markio/cmd/markcat/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
