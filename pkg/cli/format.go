package cli

import (
	"fmt"

	"github.com/dustin/go-humanize"
)

// FormatDuration formats milliseconds to human readable string
func FormatDuration(ms int64) string {
	if ms < 1000 {
		return fmt.Sprintf("%dms", ms)
	}
	secs := float64(ms) / 1000
	if secs < 60 {
		return fmt.Sprintf("%.1fs", secs)
	}
	mins := int64(secs / 60)
	secs -= float64(mins * 60)
	return fmt.Sprintf("%dm%.1fs", mins, secs)
}

// FormatBytes formats a byte count with binary units ("1.5 KiB").
// Negative counts format as "0 B".
func FormatBytes(n int64) string {
	return humanize.IBytes(uint64(max(n, 0)))
}

// FormatCount formats a count with thousands separators ("1,234,567").
func FormatCount(n int64) string {
	return humanize.Comma(n)
}

// ParseBytes parses a size such as "64KiB", "1 MB" or "4096".
func ParseBytes(s string) (int, error) {
	n, err := humanize.ParseBytes(s)
	if err != nil {
		return 0, fmt.Errorf("invalid size %q: %w", s, err)
	}
	if n > uint64(maxInt) {
		return 0, fmt.Errorf("invalid size %q: too large", s)
	}
	return int(n), nil
}

const maxInt = int(^uint(0) >> 1)
