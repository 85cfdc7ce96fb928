package cmd

import (
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/theirongolddev/fincoach/internal/calendar"
	"github.com/theirongolddev/fincoach/internal/cli"
	"github.com/theirongolddev/fincoach/internal/dataset"
	"github.com/theirongolddev/fincoach/internal/model"

	"github.com/spf13/cobra"
)

var flagMonth string

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Headline totals with net worth, debt and investment trends",
	RunE:  runSummary,
}

func init() {
	summaryCmd.Flags().StringVarP(&flagMonth, "month", "m", "JAN", "Budget month (JAN..DEC)")
	rootCmd.AddCommand(summaryCmd)
}

// resolveWindow finds the month window labelled label in year.
func resolveWindow(label string, year int) (model.MonthWindow, error) {
	if year == 0 {
		year = calendar.DefaultYear
	}
	want := strings.ToUpper(strings.TrimSpace(label))
	for _, w := range calendar.Windows(year) {
		if w.Label == want {
			return w, nil
		}
	}
	return model.MonthWindow{}, fmt.Errorf("unknown month %q (use JAN..DEC)", label)
}

func runSummary(cmd *cobra.Command, _ []string) error {
	s, err := openSession("")
	if err != nil {
		return err
	}
	defer s.Close()

	window, err := resolveWindow(flagMonth, s.cfg.Budget.Year)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	store := dataset.New()

	debt := s.client.FetchDebt(ctx, s.planOptions())
	store.ApplyDebtList(debt.Debts, debt.DebtsErr)
	store.ApplyDebtPlan(debt.Plan, debt.PlanErr)

	budget := s.client.FetchBudget(ctx, s.cfg.Budget.TopK, window)
	store.ApplySpendSummary(budget.Summary, budget.SummaryErr)
	store.ApplyTopCategories(budget.Categories, s.cfg.Budget.TopK, budget.CategoriesErr)

	snap := store.Snapshot()

	fmt.Println()
	fmt.Println(cli.RenderTitle("FINCOACH  " + window.String()))
	fmt.Println()

	rows := [][]string{
		{"Net Worth", cli.FormatUSD(snap.Totals.NetWorth)},
		{"Total Debt", cli.FormatUSD(snap.Totals.TotalDebt)},
		{"Spent (" + window.Label + ")", cli.FormatUSD(snap.Totals.TotalBudget)},
		{"---"},
		{"Net Worth trend", trendCell(snap.NetWorthHistory)},
		{"Debt trend", trendCell(snap.DebtHistory)},
		{"Investments trend", trendCell(snap.InvestmentHistory)},
	}
	if p := debt.Plan; debt.PlanErr == nil && p != nil {
		rows = append(rows,
			[]string{"---"},
			[]string{"Debt-free in", cli.FormatPayoff(p.PayoffMonths)},
			[]string{"Interest to pay", cli.FormatUSD(p.TotalInterestPaid)},
		)
	}
	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"Metric", "Value"},
		Rows:    rows,
	}))

	if len(snap.BudgetSlices) > 0 {
		fmt.Println()
		fmt.Print(renderBudgetSlices(snap.BudgetSlices))
	}

	printFailures(map[string]error{
		"debt list":      debt.DebtsErr,
		"debt plan":      debt.PlanErr,
		"spend summary":  budget.SummaryErr,
		"top categories": budget.CategoriesErr,
	})
	return nil
}

func trendCell(points []model.ChartPoint) string {
	if len(points) == 0 {
		return "-"
	}
	values := make([]float64, len(points))
	for i, p := range points {
		values[i] = p.Amount.InexactFloat64()
	}
	first, last := points[0].Amount, points[len(points)-1].Amount
	return cli.RenderSparkline(values) + "  " + cli.RenderChange(cli.FormatDelta(last, first), !last.LessThan(first))
}

func renderBudgetSlices(budget []model.BudgetSlice) string {
	shares := dataset.BudgetShare(budget)
	var b strings.Builder
	b.WriteString("  Top categories\n")
	for i, sl := range budget {
		label := fmt.Sprintf("%-14s %12s %5s", sl.Category, cli.FormatUSD(sl.Amount), cli.FormatPercent(shares[i]))
		b.WriteString(cli.RenderHorizontalBar(label, shares[i], 1, 30, sl.Color))
		b.WriteString("\n")
	}
	return b.String()
}

// printFailures lists the queries that fell back, in a stable order.
func printFailures(errs map[string]error) {
	names := make([]string, 0, len(errs))
	for name, err := range errs {
		if err != nil {
			names = append(names, name)
		}
	}
	if len(names) == 0 {
		return
	}
	slices.Sort(names)
	fmt.Fprintln(os.Stderr)
	for _, name := range names {
		fmt.Fprintln(os.Stderr, cli.RenderWarning(fmt.Sprintf("%s failed: %v", name, errs[name])))
	}
}
