package tui

import (
	"fmt"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/certprep/internal/decay"
)

// Color palette
var (
	Primary   = lipgloss.Color("#2563EB") // Blue
	Secondary = lipgloss.Color("#14B8A6") // Teal
	Accent    = lipgloss.Color("#F59E0B") // Amber
	Success   = lipgloss.Color("#22C55E") // Green
	Error     = lipgloss.Color("#F43F5E") // Rose
	Text      = lipgloss.Color("#F8FAFC") // White
	TextDim   = lipgloss.Color("#94A3B8") // Slate
	BgCard    = lipgloss.Color("#1E293B") // Dark Slate
	Border    = lipgloss.Color("#334155") // Slate
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(Primary)

	infoStyle = lipgloss.NewStyle().
			Foreground(TextDim)

	promptStyle = lipgloss.NewStyle().
			Foreground(Text).
			Bold(true)

	hintStyle = lipgloss.NewStyle().
			Foreground(TextDim).
			Italic(true)

	cardStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(Border).
			Padding(1, 2)

	selectedStyle = lipgloss.NewStyle().
			Foreground(Primary).
			Bold(true)

	optionStyle = lipgloss.NewStyle().
			Foreground(Text)

	dimStyle = lipgloss.NewStyle().
			Foreground(TextDim)

	correctStyle = lipgloss.NewStyle().
			Foreground(Success).
			Bold(true)

	incorrectStyle = lipgloss.NewStyle().
			Foreground(Error).
			Bold(true)

	rememberStyle = lipgloss.NewStyle().
			Foreground(Accent)
)

// BandStyle returns the style for a decay strength band.
func BandStyle(b decay.Band) lipgloss.Style {
	switch b {
	case decay.BandHealthy:
		return lipgloss.NewStyle().Foreground(Success)
	case decay.BandWarning:
		return lipgloss.NewStyle().Foreground(Accent)
	default:
		return lipgloss.NewStyle().Foreground(Error)
	}
}

// RenderStrength formats a decay strength with its band color.
func RenderStrength(strength int) string {
	return BandStyle(decay.StrengthColor(strength)).Render(fmt.Sprintf("%3d/100", strength))
}
