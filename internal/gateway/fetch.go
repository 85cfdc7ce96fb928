package gateway

import (
	"context"

	"github.com/theirongolddev/fincoach/internal/model"
)

// DebtData is the outcome of the two debt queries. Each half carries its
// own error; one failing does not void the other.
type DebtData struct {
	Debts    []model.Debt
	DebtsErr error
	Plan     *model.DebtPlan
	PlanErr  error
}

// FetchDebt lists debts and requests a payoff plan.
func (c *Client) FetchDebt(ctx context.Context, opts PlanOptions) DebtData {
	var d DebtData
	d.Debts, d.DebtsErr = c.ListDebts(ctx)
	d.Plan, d.PlanErr = c.DebtPlan(ctx, opts)
	return d
}

// BudgetData is the outcome of the two budget queries for one month.
type BudgetData struct {
	Window        model.MonthWindow
	Summary       *model.SpendSummary
	SummaryErr    error
	Categories    []model.CategorySpend
	CategoriesErr error
}

// FetchBudget requests the spend summary and then the top k categories of w.
// The category query is issued whether or not the summary succeeded.
func (c *Client) FetchBudget(ctx context.Context, k int, w model.MonthWindow) BudgetData {
	d := BudgetData{Window: w}
	d.Summary, d.SummaryErr = c.SpendSummary(ctx, w)
	d.Categories, d.CategoriesErr = c.TopCategories(ctx, k, w)
	return d
}

// Err returns the first failure of either half, for status display.
func (d DebtData) Err() error {
	if d.DebtsErr != nil {
		return d.DebtsErr
	}
	return d.PlanErr
}

// Err returns the first failure of either half, for status display.
func (d BudgetData) Err() error {
	if d.SummaryErr != nil {
		return d.SummaryErr
	}
	return d.CategoriesErr
}
