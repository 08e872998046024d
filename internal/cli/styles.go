package cli

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/rc-tools/rccalllog/internal/render"
)

// Semantic styles for CLI output.
var (
	styleBrand   = lipgloss.NewStyle().Bold(true).Foreground(render.ColorCyan)
	styleVersion = lipgloss.NewStyle().Foreground(render.ColorGreen)
	styleLabel   = lipgloss.NewStyle().Foreground(render.ColorDim)
	styleValue   = lipgloss.NewStyle().Foreground(render.ColorWhite)
	styleError   = lipgloss.NewStyle().Bold(true).Foreground(render.ColorRed)
	styleHint    = lipgloss.NewStyle().Foreground(render.ColorDim)
)
