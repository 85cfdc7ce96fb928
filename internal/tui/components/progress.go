package components

import (
	"fmt"
	"strings"

	"github.com/theirongolddev/fincoach/internal/tui/theme"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"
)

// ProgressBar renders a progress bar followed by its percentage.
func ProgressBar(pct float64, width int) string {
	t := theme.Active
	pct = clampPct(pct)
	filled := int(pct * float64(width))
	if filled > width {
		filled = width
	}

	var barColor lipgloss.Color
	switch {
	case pct >= 0.8:
		barColor = t.AccentBright
	case pct >= 0.5:
		barColor = t.Accent
	default:
		barColor = t.Cyan
	}

	filledStyle := lipgloss.NewStyle().Foreground(barColor)
	emptyStyle := lipgloss.NewStyle().Foreground(t.TextDim)
	pctStyle := lipgloss.NewStyle().Foreground(barColor).Bold(true)

	var b strings.Builder
	b.WriteString(filledStyle.Render(strings.Repeat("█", filled)))
	b.WriteString(emptyStyle.Render(strings.Repeat("░", width-filled)))
	return b.String() + " " + pctStyle.Render(fmt.Sprintf("%.0f%%", pct*100))
}

// CategoryBar renders a labeled share bar in the category's own color,
// followed by the share and the formatted amount.
func CategoryBar(label, amount string, pct float64, color string, labelW, barWidth int) string {
	t := theme.Active
	pct = clampPct(pct)

	if color == "" {
		color = string(t.Accent)
	}
	bar := progress.New(
		progress.WithSolidFill(color),
		progress.WithWidth(barWidth),
		progress.WithoutPercentage(),
	)
	bar.EmptyColor = string(t.TextDim)

	swatch := lipgloss.NewStyle().Foreground(lipgloss.Color(color)).Render("■")
	labelStyle := lipgloss.NewStyle().Foreground(t.TextMuted)
	pctStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(color)).Bold(true)
	amountStyle := lipgloss.NewStyle().Foreground(t.TextPrimary)

	if lipgloss.Width(label) > labelW {
		label = truncate(label, labelW)
	}
	return swatch + " " +
		labelStyle.Render(fmt.Sprintf("%-*s", labelW, label)) + " " +
		bar.ViewAs(pct) + " " +
		pctStyle.Render(fmt.Sprintf("%3.0f%%", pct*100)) + "  " +
		amountStyle.Render(amount)
}

func clampPct(pct float64) float64 {
	if pct < 0 {
		return 0
	}
	if pct > 1 {
		return 1
	}
	return pct
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 1 {
		return string(r[:n])
	}
	return string(r[:n-1]) + "…"
}
