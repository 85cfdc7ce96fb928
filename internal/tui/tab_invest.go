package tui

import (
	"fmt"
	"strings"

	"github.com/theirongolddev/fincoach/internal/cli"
	"github.com/theirongolddev/fincoach/internal/dataset"
	"github.com/theirongolddev/fincoach/internal/model"
	"github.com/theirongolddev/fincoach/internal/tui/components"
	"github.com/theirongolddev/fincoach/internal/tui/theme"

	"github.com/charmbracelet/lipgloss"
)

func (a App) renderInvestTab(cw int) string {
	t := theme.Active
	snap := a.store.Snapshot()
	var b strings.Builder

	value := "—"
	if n := len(snap.InvestmentHistory); n > 0 {
		value = cli.FormatUSD(snap.InvestmentHistory[n-1].Amount)
	}
	note, trend := seriesChange(snap.InvestmentHistory)
	b.WriteString(components.MetricCardRow([]components.Metric{
		{Label: "Portfolio", Value: value, Note: note, Trend: trend},
		{Label: "Watchlist", Value: fmt.Sprintf("%d symbols", len(snap.Watchlist))},
	}, cw))
	b.WriteString("\n")

	chartW, sideW := cw, cw
	if !a.isCompactLayout() {
		cols := components.LayoutRow(cw, 3)
		chartW, sideW = cols[0]+cols[1], cols[2]
	}
	chart := seriesCard("Portfolio Value", snap.InvestmentHistory, t.Green, chartW, 10)
	side := components.ContentCard("Watchlist", renderWatchlist(snap.Watchlist, components.CardInnerWidth(sideW)), sideW) +
		"\n" + insightCard(dataset.InvestInsight, sideW)

	if a.isCompactLayout() {
		b.WriteString(chart)
		b.WriteString("\n")
		b.WriteString(side)
	} else {
		b.WriteString(components.CardRow([]string{chart, side}))
	}
	return b.String()
}

func renderWatchlist(holdings []model.Holding, innerW int) string {
	t := theme.Active
	nameStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Bold(true)
	if len(holdings) == 0 {
		return lipgloss.NewStyle().Foreground(t.TextDim).Render("Nothing on the watchlist")
	}

	rows := make([]string, len(holdings))
	for i, h := range holdings {
		color := t.Loss()
		arrow := "▼"
		if h.Positive {
			color, arrow = t.Gain(), "▲"
		}
		change := lipgloss.NewStyle().Foreground(color).Render(arrow + " " + h.Change)
		gap := innerW - lipgloss.Width(h.Name) - lipgloss.Width(change)
		if gap < 1 {
			gap = 1
		}
		rows[i] = nameStyle.Render(truncStr(h.Name, innerW-lipgloss.Width(change)-1)) + strings.Repeat(" ", gap) + change
	}
	return strings.Join(rows, "\n")
}
