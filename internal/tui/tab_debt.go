package tui

import (
	"strings"

	"github.com/theirongolddev/fincoach/internal/cli"
	"github.com/theirongolddev/fincoach/internal/dataset"
	"github.com/theirongolddev/fincoach/internal/tui/components"
	"github.com/theirongolddev/fincoach/internal/tui/theme"

	"github.com/charmbracelet/lipgloss"
)

func (a App) renderDebtTab(cw int) string {
	t := theme.Active
	snap := a.store.Snapshot()
	var b strings.Builder

	payoff, interest, strategy := "—", "—", "default"
	if p := a.lastPlan; p != nil {
		payoff = cli.FormatPayoff(p.PayoffMonths)
		interest = cli.FormatUSD(p.TotalInterestPaid)
		if p.Strategy != "" {
			strategy = p.Strategy
		}
	}
	b.WriteString(components.MetricCardRow([]components.Metric{
		{Label: "Total Debt", Value: cli.FormatUSD(snap.Totals.TotalDebt)},
		{Label: "Debt-free in", Value: payoff},
		{Label: "Interest to pay", Value: interest},
		{Label: "Strategy", Value: strategy},
	}, cw))
	b.WriteString("\n")

	chartW, sideW := cw, cw
	if !a.isCompactLayout() {
		cols := components.LayoutRow(cw, 3)
		chartW, sideW = cols[0]+cols[1], cols[2]
	}
	chart := seriesCard("Payoff Projection", snap.DebtHistory, t.Orange, chartW, 10)

	var side strings.Builder
	side.WriteString(insightCard(dataset.DebtInsight, sideW))
	if len(snap.DebtHistory) >= 2 {
		first := snap.DebtHistory[0].Amount
		last := snap.DebtHistory[len(snap.DebtHistory)-1].Amount
		if first.IsPositive() {
			pct := first.Sub(last).Div(first).InexactFloat64()
			barW := components.CardInnerWidth(sideW) - 6
			side.WriteString("\n")
			side.WriteString(components.ContentCard("Paid down over the projection",
				components.ProgressBar(pct, barW), sideW))
		}
	}
	if a.lastPlan != nil && a.lastPlan.Note != "" {
		side.WriteString("\n")
		side.WriteString(components.ContentCard("Note",
			lipgloss.NewStyle().Foreground(t.TextMuted).Width(components.CardInnerWidth(sideW)).Render(a.lastPlan.Note),
			sideW))
	}

	if a.isCompactLayout() {
		b.WriteString(chart)
		b.WriteString("\n")
		b.WriteString(side.String())
	} else {
		b.WriteString(components.CardRow([]string{chart, side.String()}))
	}
	return b.String()
}
