package cmd

import (
	"fmt"

	"github.com/theirongolddev/fincoach/internal/cli"
	"github.com/theirongolddev/fincoach/internal/dataset"

	"github.com/spf13/cobra"
)

var flagBudgetDetail bool

var budgetCmd = &cobra.Command{
	Use:   "budget",
	Short: "Monthly spending by category",
	RunE:  runBudget,
}

func init() {
	budgetCmd.Flags().StringVarP(&flagMonth, "month", "m", "JAN", "Budget month (JAN..DEC)")
	budgetCmd.Flags().BoolVar(&flagBudgetDetail, "detail", false, "Also show payment methods and income for the month")
	rootCmd.AddCommand(budgetCmd)
}

func runBudget(cmd *cobra.Command, _ []string) error {
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

	data := s.client.FetchBudget(ctx, s.cfg.Budget.TopK, window)
	store := dataset.New()
	store.ApplySpendSummary(data.Summary, data.SummaryErr)
	store.ApplyTopCategories(data.Categories, s.cfg.Budget.TopK, data.CategoriesErr)
	snap := store.Snapshot()

	fmt.Println()
	fmt.Println(cli.RenderTitle(fmt.Sprintf("BUDGET  %s  (%s → %s)", window.String(), window.StartDate(), window.EndDate())))
	fmt.Println()

	rows := [][]string{{"Total spent", cli.FormatUSD(snap.Totals.TotalBudget)}}
	if sum := data.Summary; data.SummaryErr == nil && sum != nil {
		rows = append(rows, []string{"Transactions", cli.FormatNumber(int64(sum.NumTransactions))})
		if sum.AvgSpend.Valid {
			rows = append(rows, []string{"Average", cli.FormatUSD(sum.AvgSpend.Decimal)})
		}
	}
	fmt.Print(cli.RenderTable(cli.Table{Headers: []string{"Metric", "Value"}, Rows: rows}))

	if len(snap.BudgetSlices) > 0 {
		fmt.Println()
		fmt.Print(renderBudgetSlices(snap.BudgetSlices))
	} else if data.CategoriesErr == nil {
		fmt.Printf("\n  No spending recorded for %s.\n", window.String())
	}

	failures := map[string]error{
		"spend summary":  data.SummaryErr,
		"top categories": data.CategoriesErr,
	}

	if flagBudgetDetail {
		split, splitErr := s.client.PaymentSplit(ctx, window)
		failures["payment split"] = splitErr
		if splitErr == nil && len(split) > 0 {
			var rows [][]string
			for _, p := range split {
				rows = append(rows, []string{p.PaymentMode, cli.FormatUSD(p.TotalSpend), cli.FormatNumber(int64(p.TxnCount))})
			}
			fmt.Println()
			fmt.Print(cli.RenderTable(cli.Table{
				Title:   "Payment methods",
				Headers: []string{"Method", "Spent", "Txns"},
				Rows:    rows,
			}))
		}

		income, incomeErr := s.client.IncomeSummary(ctx, window)
		failures["income summary"] = incomeErr
		if incomeErr == nil && income != nil {
			net := income.TotalIncome.Sub(snap.Totals.TotalBudget)
			fmt.Println()
			fmt.Print(cli.RenderTable(cli.Table{
				Title:   "Income",
				Headers: []string{"Metric", "Value"},
				Rows: [][]string{
					{"Income events", cli.FormatNumber(int64(income.NumIncomeEvents))},
					{"Total income", cli.FormatUSD(income.TotalIncome)},
					{"Net after spending", cli.RenderChange(cli.FormatDelta(income.TotalIncome, snap.Totals.TotalBudget), !net.IsNegative())},
				},
			}))
		}
	}

	printFailures(failures)
	return nil
}
