package ui

import "github.com/charmbracelet/lipgloss"

// Color palette - single lime accent over grays, readable on dark terminals.
const (
	ColorLime     = "154" // Primary accent - prompt, banner
	ColorWhite    = "255" // Result text
	ColorGray     = "245" // Timestamps, distances
	ColorDarkGray = "238" // Separators
	ColorRed      = "196" // Errors
	ColorYellow   = "220" // Warnings, repeat summaries
)

// Styles holds the rendering styles for the interactive query loop.
type Styles struct {
	Banner  lipgloss.Style
	Prompt  lipgloss.Style
	Result  lipgloss.Style
	Meta    lipgloss.Style
	Notice  lipgloss.Style
	Error   lipgloss.Style
	Divider lipgloss.Style
}

// DefaultStyles returns the colored styles used when stdout is a terminal.
func DefaultStyles() Styles {
	return Styles{
		Banner:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(ColorLime)),
		Prompt:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(ColorLime)),
		Result:  lipgloss.NewStyle().Foreground(lipgloss.Color(ColorWhite)),
		Meta:    lipgloss.NewStyle().Foreground(lipgloss.Color(ColorGray)),
		Notice:  lipgloss.NewStyle().Foreground(lipgloss.Color(ColorYellow)),
		Error:   lipgloss.NewStyle().Foreground(lipgloss.Color(ColorRed)),
		Divider: lipgloss.NewStyle().Foreground(lipgloss.Color(ColorDarkGray)),
	}
}

// NoColorStyles returns unstyled components for piped output.
func NoColorStyles() Styles {
	return Styles{
		Banner:  lipgloss.NewStyle(),
		Prompt:  lipgloss.NewStyle(),
		Result:  lipgloss.NewStyle(),
		Meta:    lipgloss.NewStyle(),
		Notice:  lipgloss.NewStyle(),
		Error:   lipgloss.NewStyle(),
		Divider: lipgloss.NewStyle(),
	}
}
