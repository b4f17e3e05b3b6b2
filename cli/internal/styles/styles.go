// ABOUTME: Shared lipgloss styles for consistent CLI output
// ABOUTME: Maps mental-state colours and summary provenance onto terminal styles

package styles

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	// Colors - Core palette
	Primary   = lipgloss.Color("#7C3AED") // Purple
	Secondary = lipgloss.Color("#10B981") // Green
	Warning   = lipgloss.Color("#F59E0B") // Amber
	Danger    = lipgloss.Color("#EF4444") // Red
	Muted     = lipgloss.Color("#6B7280") // Gray

	Title = lipgloss.NewStyle().
		Bold(true).
		Foreground(Primary)

	Label = lipgloss.NewStyle().
		Foreground(Muted)

	// Status indicators
	StatusOK = lipgloss.NewStyle().
			Foreground(Secondary).
			Bold(true)

	StatusWarning = lipgloss.NewStyle().
			Foreground(Warning).
			Bold(true)

	StatusCritical = lipgloss.NewStyle().
			Foreground(Danger).
			Bold(true)

	// Fallback marks canned output so it is never mistaken for a model summary
	Fallback = lipgloss.NewStyle().
			Foreground(Warning).
			Border(lipgloss.NormalBorder(), false, false, false, true).
			BorderForeground(Warning).
			PaddingLeft(1)
)

// MentalState returns the style for a Green/Amber/Red well-being colour.
// Unknown colours render muted.
func MentalState(color string) lipgloss.Style {
	switch strings.ToLower(color) {
	case "green":
		return StatusOK
	case "amber":
		return StatusWarning
	case "red":
		return StatusCritical
	default:
		return Label
	}
}
