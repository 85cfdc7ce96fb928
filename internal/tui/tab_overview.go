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
	"github.com/shopspring/decimal"
)

func (a App) renderOverviewTab(cw int) string {
	t := theme.Active
	snap := a.store.Snapshot()
	var b strings.Builder

	// Row 1: headline figures
	netNote, netTrend := seriesChange(snap.NetWorthHistory)
	debtNote := "across your accounts"
	if a.debtCount > 0 {
		debtNote = fmt.Sprintf("across %d accounts", a.debtCount)
	}
	if a.debtErr != nil {
		debtNote = "last known balance"
	}
	b.WriteString(components.MetricCardRow([]components.Metric{
		{Label: "Net Worth", Value: cli.FormatUSD(snap.Totals.NetWorth), Note: netNote, Trend: netTrend},
		{Label: "Total Debt", Value: cli.FormatUSD(snap.Totals.TotalDebt), Note: debtNote},
		{Label: "Spent", Value: cli.FormatUSD(snap.Totals.TotalBudget), Note: "in " + a.cursor.Window().String()},
	}, cw))
	b.WriteString("\n")

	// Row 2: net worth trend beside the coach insight
	if a.isCompactLayout() {
		b.WriteString(seriesCard("Net Worth", snap.NetWorthHistory, t.Accent, cw, 8))
		b.WriteString("\n")
		b.WriteString(insightCard(dataset.DefaultInsight, cw))
	} else {
		cols := components.LayoutRow(cw, 3)
		b.WriteString(components.CardRow([]string{
			seriesCard("Net Worth", snap.NetWorthHistory, t.Accent, cols[0]+cols[1], 10),
			insightCard(dataset.DefaultInsight, cols[2]),
		}))
	}
	b.WriteString("\n")

	// Row 3: sparklines
	halves := components.LayoutRow(cw, 2)
	b.WriteString(components.CardRow([]string{
		sparkCard("Debt", snap.DebtHistory, t.Loss(), halves[0]),
		sparkCard("Investments", snap.InvestmentHistory, t.Gain(), halves[1]),
	}))

	return b.String()
}

// seriesCard renders a bar chart of a money series inside a content card.
func seriesCard(title string, points []model.ChartPoint, color lipgloss.Color, outerW, chartH int) string {
	values, labels := chartSeries(points)
	if len(values) == 0 {
		return components.ContentCard(title, lipgloss.NewStyle().Foreground(theme.Active.TextDim).Render("No data"), outerW)
	}
	return components.ContentCard(title,
		components.BarChart(values, labels, color, components.CardInnerWidth(outerW), chartH),
		outerW)
}

func sparkCard(title string, points []model.ChartPoint, color lipgloss.Color, outerW int) string {
	t := theme.Active
	values, _ := chartSeries(points)
	if len(values) == 0 {
		return components.ContentCard(title, lipgloss.NewStyle().Foreground(t.TextDim).Render("No data"), outerW)
	}
	last := points[len(points)-1]
	note, trend := seriesChange(points)
	noteColor := t.TextDim
	if trend > 0 {
		noteColor = t.Gain()
	} else if trend < 0 {
		noteColor = t.Loss()
	}
	body := components.Sparkline(values, color) + "  " +
		lipgloss.NewStyle().Foreground(t.TextPrimary).Bold(true).Render(cli.FormatUSD(last.Amount)) + "  " +
		lipgloss.NewStyle().Foreground(noteColor).Render(note)
	return components.ContentCard(title, body, outerW)
}

func insightCard(text string, outerW int) string {
	t := theme.Active
	inner := components.CardInnerWidth(outerW)
	body := lipgloss.NewStyle().Foreground(t.TextPrimary).Width(inner).Render(text) + "\n\n" +
		lipgloss.NewStyle().Foreground(t.TextDim).Render("[a] ask the coach about this")
	return components.FocusCard("Coach Insight", body, outerW)
}

// chartSeries converts chart points to plot values at the drawing edge.
func chartSeries(points []model.ChartPoint) ([]float64, []string) {
	values := make([]float64, len(points))
	labels := make([]string, len(points))
	for i, p := range points {
		values[i] = p.Amount.InexactFloat64()
		labels[i] = p.Label
	}
	return values, labels
}

// seriesChange describes the move from the first to the last point and
// returns its direction.
func seriesChange(points []model.ChartPoint) (string, int) {
	if len(points) < 2 {
		return "", 0
	}
	first, last := points[0], points[len(points)-1]
	delta := last.Amount.Sub(first.Amount)
	note := cli.FormatDelta(last.Amount, first.Amount) + " since " + first.Label
	return note, delta.Cmp(decimal.Zero)
}
