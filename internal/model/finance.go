// Package model defines domain types for the fincoach dashboard and chat.
package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// ChartPoint is one period of a time series. Series are ordered by period.
type ChartPoint struct {
	Label  string          `json:"label"`
	Amount decimal.Decimal `json:"amount"`
}

// BudgetSlice is one spending category's share of a month window.
// Color is assigned by position from a fixed palette, never by category.
type BudgetSlice struct {
	Category string          `json:"category"`
	Amount   decimal.Decimal `json:"amount"`
	Color    string          `json:"color"`
}

// Totals holds the headline figures. Each is sourced independently and may
// reflect fallback data while another reflects live data.
type Totals struct {
	NetWorth    decimal.Decimal `json:"net_worth"`
	TotalDebt   decimal.Decimal `json:"total_debt"`
	TotalBudget decimal.Decimal `json:"total_budget"`
}

// Holding is a watchlist row on the investments tab.
type Holding struct {
	Name     string `json:"name"`
	Change   string `json:"change"`
	Positive bool   `json:"positive"`
}

// MonthWindow is one calendar month used to scope budget queries.
type MonthWindow struct {
	Label string
	Start time.Time
	End   time.Time
}

// StartDate returns the window start as YYYY-MM-DD.
func (w MonthWindow) StartDate() string {
	return w.Start.Format(time.DateOnly)
}

// EndDate returns the inclusive window end as YYYY-MM-DD.
func (w MonthWindow) EndDate() string {
	return w.End.Format(time.DateOnly)
}

// String returns e.g. "MAR 2024".
func (w MonthWindow) String() string {
	if w.Start.IsZero() {
		return w.Label
	}
	return w.Label + " " + w.Start.Format("2006")
}
