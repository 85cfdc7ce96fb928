// Package dataset holds the dashboard's headline totals and chart series and
// reconciles remote query results with the fallback data.
//
// Every update replaces whole values; nothing is patched in place, so a
// Snapshot taken earlier never observes a later change.
package dataset

import (
	"fmt"
	"slices"

	"github.com/shopspring/decimal"

	"github.com/theirongolddev/fincoach/internal/model"
)

// DefaultTopK is the number of budget categories requested per month.
const DefaultTopK = 5

// Palette colors budget slices by position, cycling when k exceeds its length.
var Palette = []string{"#FF6384", "#36A2EB", "#FFCE56", "#4BC0C0", "#9966FF"}

// SliceColor returns the palette color for the slice at position i.
func SliceColor(i int) string {
	return Palette[i%len(Palette)]
}

// Snapshot is a point-in-time copy of the dataset.
type Snapshot struct {
	Totals            model.Totals
	NetWorthHistory   []model.ChartPoint
	DebtHistory       []model.ChartPoint
	InvestmentHistory []model.ChartPoint
	BudgetSlices      []model.BudgetSlice
	Watchlist         []model.Holding
}

// Store is the live dataset. The zero value is not usable; call New.
type Store struct {
	snap Snapshot
}

// New returns a store seeded with the fallback dataset.
func New() Store {
	return Store{snap: Fallback()}
}

// Snapshot returns a copy that is safe to hold across later updates.
func (s *Store) Snapshot() Snapshot {
	return Snapshot{
		Totals:            s.snap.Totals,
		NetWorthHistory:   slices.Clone(s.snap.NetWorthHistory),
		DebtHistory:       slices.Clone(s.snap.DebtHistory),
		InvestmentHistory: slices.Clone(s.snap.InvestmentHistory),
		BudgetSlices:      slices.Clone(s.snap.BudgetSlices),
		Watchlist:         slices.Clone(s.snap.Watchlist),
	}
}

// Totals returns the current headline figures.
func (s *Store) Totals() model.Totals {
	return s.snap.Totals
}

// ApplyDebtList sets the total debt to the sum of all balances.
// A failed query leaves the previous value in place.
func (s *Store) ApplyDebtList(debts []model.Debt, err error) {
	if err != nil {
		return
	}
	total := decimal.Zero
	for _, d := range debts {
		total = total.Add(d.Balance)
	}
	totals := s.snap.Totals
	totals.TotalDebt = total
	s.snap.Totals = totals
}

// ApplyDebtPlan replaces the debt history with one point per scheduled
// period, each the sum of ending balances across debts. A failed query or a
// response without a schedule preview leaves the previous history in place.
func (s *Store) ApplyDebtPlan(plan *model.DebtPlan, err error) {
	if err != nil || plan == nil || plan.SchedulePreview == nil {
		return
	}
	periods := slices.Clone(plan.SchedulePreview)
	slices.SortStableFunc(periods, func(a, b model.PlanPeriod) int {
		return a.Month - b.Month
	})

	history := make([]model.ChartPoint, 0, len(periods))
	for _, p := range periods {
		remaining := decimal.Zero
		for _, d := range p.Debts {
			remaining = remaining.Add(d.EndingBalance)
		}
		history = append(history, model.ChartPoint{
			Label:  fmt.Sprintf("Month %d", p.Month),
			Amount: remaining,
		})
	}
	s.snap.DebtHistory = history
}

// ApplySpendSummary sets the month's total spend, or zero when the query
// failed or carried no usable total.
func (s *Store) ApplySpendSummary(summary *model.SpendSummary, err error) {
	total := decimal.Zero
	if err == nil && summary != nil && summary.TotalSpend.Valid {
		total = summary.TotalSpend.Decimal
	}
	totals := s.snap.Totals
	totals.TotalBudget = total
	s.snap.Totals = totals
}

// ApplyTopCategories replaces the budget slices with at most k entries.
//
// Unlike the debt series, a failure here does not keep stale data: the
// slices become empty and the month's total spend drops to zero.
func (s *Store) ApplyTopCategories(categories []model.CategorySpend, k int, err error) {
	if err != nil {
		totals := s.snap.Totals
		totals.TotalBudget = decimal.Zero
		s.snap.Totals = totals
		s.snap.BudgetSlices = []model.BudgetSlice{}
		return
	}
	if k < 0 {
		k = 0
	}
	n := min(len(categories), k)
	budget := make([]model.BudgetSlice, n)
	for i, c := range categories[:n] {
		budget[i] = model.BudgetSlice{
			Category: c.Category,
			Amount:   c.TotalSpend,
			Color:    SliceColor(i),
		}
	}
	s.snap.BudgetSlices = budget
}

// BudgetShare returns each slice's fraction of the combined slice amount.
func BudgetShare(budget []model.BudgetSlice) []float64 {
	total := decimal.Zero
	for _, b := range budget {
		total = total.Add(b.Amount)
	}
	shares := make([]float64, len(budget))
	if !total.IsPositive() {
		return shares
	}
	for i, b := range budget {
		shares[i] = b.Amount.Div(total).InexactFloat64()
	}
	return shares
}
