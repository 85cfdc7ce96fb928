package cmd

import (
	"fmt"

	"github.com/theirongolddev/fincoach/internal/cli"
	"github.com/theirongolddev/fincoach/internal/model"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

var flagDebtCompare bool

var debtCmd = &cobra.Command{
	Use:   "debt",
	Short: "Debts and the payoff plan",
	RunE:  runDebt,
}

func init() {
	debtCmd.Flags().BoolVar(&flagDebtCompare, "compare", false, "Compare avalanche and snowball strategies")
	rootCmd.AddCommand(debtCmd)
}

func runDebt(cmd *cobra.Command, _ []string) error {
	s, err := openSession("")
	if err != nil {
		return err
	}
	defer s.Close()
	ctx := cmd.Context()

	data := s.client.FetchDebt(ctx, s.planOptions())

	fmt.Println()
	fmt.Println(cli.RenderTitle("DEBT"))
	fmt.Println()

	if data.DebtsErr == nil {
		total := decimal.Zero
		var rows [][]string
		for _, d := range data.Debts {
			total = total.Add(d.Balance)
			rows = append(rows, []string{d.Name, cli.FormatUSD(d.Balance), d.APR.StringFixed(2) + "%", cli.FormatUSD(d.MinPayment)})
		}
		rows = append(rows, []string{"---"}, []string{"Total", cli.FormatUSD(total), "", ""})
		fmt.Print(cli.RenderTable(cli.Table{
			Headers: []string{"Debt", "Balance", "APR", "Min payment"},
			Rows:    rows,
		}))
	}

	if p := data.Plan; data.PlanErr == nil && p != nil {
		fmt.Println()
		fmt.Print(renderPlan("Payoff plan", p))
	}

	failures := map[string]error{
		"debt list": data.DebtsErr,
		"debt plan": data.PlanErr,
	}

	if flagDebtCompare {
		cmp, err := s.client.CompareStrategies(ctx, s.cfg.Debt.ExtraPayment)
		failures["strategy compare"] = err
		if err == nil && cmp != nil {
			fmt.Println()
			fmt.Print(renderComparison(cmp))
		}
	}

	printFailures(failures)
	return nil
}

func renderPlan(title string, p *model.DebtPlan) string {
	strategy := p.Strategy
	if strategy == "" {
		strategy = "default"
	}
	rows := [][]string{
		{"Strategy", strategy},
		{"Extra payment", cli.FormatUSD(p.ExtraPayment)},
		{"Debt-free in", cli.FormatPayoff(p.PayoffMonths)},
		{"Interest to pay", cli.FormatUSD(p.TotalInterestPaid)},
	}
	for _, period := range p.SchedulePreview {
		remaining := decimal.Zero
		for _, d := range period.Debts {
			remaining = remaining.Add(d.EndingBalance)
		}
		rows = append(rows, []string{fmt.Sprintf("Month %d", period.Month),
			cli.FormatUSD(remaining) + " left, paid " + cli.FormatUSD(period.TotalPayment)})
	}
	out := cli.RenderTable(cli.Table{Title: title, Headers: []string{"Plan", "Value"}, Rows: rows})
	if p.Note != "" {
		out += "  " + p.Note + "\n"
	}
	return out
}

func renderComparison(c *model.StrategyComparison) string {
	rows := [][]string{
		{"Debt-free in", cli.FormatPayoff(c.Avalanche.PayoffMonths), cli.FormatPayoff(c.Snowball.PayoffMonths)},
		{"Interest to pay", cli.FormatUSD(c.Avalanche.TotalInterestPaid), cli.FormatUSD(c.Snowball.TotalInterestPaid)},
	}
	out := cli.RenderTable(cli.Table{
		Title:   "Strategy comparison (extra " + cli.FormatUSD(c.ExtraPayment) + "/mo)",
		Headers: []string{"", "Avalanche", "Snowball"},
		Rows:    rows,
	})
	if c.Recommended != nil {
		line := "  Recommended: " + *c.Recommended
		if c.InterestDifference.Valid {
			line += " (saves " + cli.FormatUSD(c.InterestDifference.Decimal.Abs()) + " in interest)"
		}
		out += line + "\n"
	}
	return out
}
