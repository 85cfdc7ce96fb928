package components

import (
	"strings"

	"github.com/theirongolddev/fincoach/internal/tui/theme"

	"github.com/charmbracelet/lipgloss"
)

// Status carries the facts shown in the bottom status bar.
type Status struct {
	Month string
	// Backend is "" while unknown, "up" or "down".
	Backend string
	Busy    string
	Hint    string
}

// RenderStatusBar renders the bottom status bar.
func RenderStatusBar(width int, s Status) string {
	t := theme.Active

	style := lipgloss.NewStyle().Foreground(t.TextMuted).Width(width)

	left := " [?]help  [c]hat  [q]uit"
	if s.Hint != "" {
		left += "  " + s.Hint
	}

	var right []string
	if s.Busy != "" {
		right = append(right, lipgloss.NewStyle().Foreground(t.Yellow).Render(s.Busy))
	}
	if s.Month != "" {
		right = append(right, s.Month)
	}
	switch s.Backend {
	case "up":
		right = append(right, lipgloss.NewStyle().Foreground(t.Gain()).Render("● backend"))
	case "down":
		right = append(right, lipgloss.NewStyle().Foreground(t.Loss()).Render("● backend offline"))
	default:
		right = append(right, lipgloss.NewStyle().Foreground(t.TextDim).Render("○ backend"))
	}
	rightStr := strings.Join(right, "  ") + " "

	padding := width - lipgloss.Width(left) - lipgloss.Width(rightStr)
	if padding < 1 {
		padding = 1
	}
	return style.Render(left + strings.Repeat(" ", padding) + rightStr)
}
