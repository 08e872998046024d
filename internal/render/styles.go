package render

import (
	"io"

	"github.com/charmbracelet/lipgloss"
)

// Adaptive palette shared by every console style of the tool.
var (
	ColorWhite  = lipgloss.AdaptiveColor{Light: "0", Dark: "15"}
	ColorDim    = lipgloss.AdaptiveColor{Light: "242", Dark: "240"}
	ColorGreen  = lipgloss.AdaptiveColor{Light: "28", Dark: "40"}
	ColorRed    = lipgloss.AdaptiveColor{Light: "160", Dark: "196"}
	ColorYellow = lipgloss.AdaptiveColor{Light: "136", Dark: "220"}
	ColorCyan   = lipgloss.AdaptiveColor{Light: "30", Dark: "45"}
)

// styles are bound to the renderer of the output they print to, so piping
// to a file drops the escape codes.
type styles struct {
	label   lipgloss.Style
	value   lipgloss.Style
	header  lipgloss.Style
	inbound lipgloss.Style
	outward lipgloss.Style
	success lipgloss.Style
	warning lipgloss.Style
	failure lipgloss.Style
	dim     lipgloss.Style
}

func newStyles(w io.Writer) styles {
	r := lipgloss.NewRenderer(w)
	return styles{
		label:   r.NewStyle().Foreground(ColorDim),
		value:   r.NewStyle().Foreground(ColorWhite),
		header:  r.NewStyle().Bold(true).Foreground(ColorCyan),
		inbound: r.NewStyle().Foreground(ColorCyan),
		outward: r.NewStyle().Foreground(ColorYellow),
		success: r.NewStyle().Foreground(ColorGreen),
		warning: r.NewStyle().Bold(true).Foreground(ColorYellow),
		failure: r.NewStyle().Bold(true).Foreground(ColorRed),
		dim:     r.NewStyle().Foreground(ColorDim),
	}
}
