package cli

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
)

// Theme defines the color scheme for terminal output.
type Theme struct {
	Primary lipgloss.Color // Main accent color
	Dim     lipgloss.Color // Dimmed/help text color
}

// DefaultTheme is the default bright green theme.
var DefaultTheme = Theme{
	Primary: lipgloss.Color("#00ff9f"),
	Dim:     lipgloss.Color("#6e7681"),
}

// Styles holds all styles derived from a theme for one output. Colors are
// dropped automatically when the output is not a terminal.
type Styles struct {
	Title  lipgloss.Style
	Label  lipgloss.Style
	Gutter lipgloss.Style
	Help   lipgloss.Style
}

// NewStyles creates styles from a theme, rendering for w.
func NewStyles(w io.Writer, t Theme) Styles {
	r := lipgloss.NewRenderer(w)
	return Styles{
		Title:  r.NewStyle().Bold(true).Foreground(t.Primary),
		Label:  r.NewStyle().Bold(true).Foreground(t.Primary),
		Gutter: r.NewStyle().Foreground(t.Dim),
		Help:   r.NewStyle().Foreground(t.Dim),
	}
}

// LineNumber renders n right-aligned in width columns followed by a
// separator, as a gutter for numbered output.
func (s Styles) LineNumber(n int64, width int) string {
	return s.Gutter.Render(fmt.Sprintf("%*d │", width, n)) + " "
}

// Heading renders a section heading followed by a newline.
func (s Styles) Heading(text string) string {
	return s.Title.Render(text) + "\n"
}
