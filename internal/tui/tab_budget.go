package tui

import (
	"fmt"
	"strings"

	"github.com/theirongolddev/fincoach/internal/cli"
	"github.com/theirongolddev/fincoach/internal/dataset"
	"github.com/theirongolddev/fincoach/internal/tui/components"
	"github.com/theirongolddev/fincoach/internal/tui/theme"

	"github.com/charmbracelet/lipgloss"
)

func (a App) renderBudgetTab(cw int) string {
	t := theme.Active
	snap := a.store.Snapshot()
	window := a.cursor.Window()
	var b strings.Builder

	// Month selector
	arrowStyle := lipgloss.NewStyle().Foreground(t.Accent).Bold(true)
	dimStyle := lipgloss.NewStyle().Foreground(t.TextDim)
	monthStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Bold(true)

	prev, next := a.cursor.Peek(-1), a.cursor.Peek(1)
	left := dimStyle.Render("   ")
	if prev != "" {
		left = arrowStyle.Render("◀ ") + dimStyle.Render(prev)
	}
	right := ""
	if next != "" {
		right = dimStyle.Render(next) + arrowStyle.Render(" ▶")
	}
	selector := left + "    " + monthStyle.Render(window.String()) + "    " + right
	b.WriteString(lipgloss.PlaceHorizontal(cw, lipgloss.Center, selector))
	b.WriteString("\n")

	// Headline figures
	top := "—"
	if len(snap.BudgetSlices) > 0 {
		top = snap.BudgetSlices[0].Category
	}
	b.WriteString(components.MetricCardRow([]components.Metric{
		{Label: "Spent", Value: cli.FormatUSD(snap.Totals.TotalBudget), Note: window.StartDate() + " → " + window.EndDate()},
		{Label: "Categories", Value: fmt.Sprintf("%d", len(snap.BudgetSlices)), Note: fmt.Sprintf("top %d shown", a.topK)},
		{Label: "Largest", Value: top},
	}, cw))
	b.WriteString("\n")

	// Category breakdown beside the insight
	breakdownW, insightW := cw, cw
	if !a.isCompactLayout() {
		cols := components.LayoutRow(cw, 3)
		breakdownW, insightW = cols[0]+cols[1], cols[2]
	}
	breakdown := components.ContentCard("Top Categories", a.renderBudgetBreakdown(components.CardInnerWidth(breakdownW)), breakdownW)
	insight := insightCard(dataset.BudgetInsight, insightW)
	if a.isCompactLayout() {
		b.WriteString(breakdown)
		b.WriteString("\n")
		b.WriteString(insight)
	} else {
		b.WriteString(components.CardRow([]string{breakdown, insight}))
	}

	return b.String()
}

func (a App) renderBudgetBreakdown(innerW int) string {
	t := theme.Active
	snap := a.store.Snapshot()
	dimStyle := lipgloss.NewStyle().Foreground(t.TextDim)

	if a.budgetLoading && len(snap.BudgetSlices) == 0 {
		return a.spinner.View() + dimStyle.Render(" Loading "+a.cursor.Window().String()+"...")
	}
	if len(snap.BudgetSlices) == 0 {
		msg := "No spending recorded for " + a.cursor.Window().String()
		if a.budgetErr != nil {
			msg = "Could not load spending for " + a.cursor.Window().String()
			return lipgloss.NewStyle().Foreground(t.Orange).Render(msg)
		}
		return dimStyle.Render(msg)
	}

	shares := dataset.BudgetShare(snap.BudgetSlices)
	colors := make([]string, len(snap.BudgetSlices))
	for i, s := range snap.BudgetSlices {
		colors[i] = s.Color
	}

	var b strings.Builder
	b.WriteString(components.ShareBar(shares, colors, innerW))
	b.WriteString("\n\n")

	labelW := 14
	amountW := 12
	barW := innerW - labelW - amountW - 10
	if barW < 8 {
		barW = 8
	}
	for i, s := range snap.BudgetSlices {
		b.WriteString(components.CategoryBar(s.Category, cli.FormatUSD(s.Amount), shares[i], s.Color, labelW, barW))
		if i < len(snap.BudgetSlices)-1 {
			b.WriteString("\n")
		}
	}
	return b.String()
}
