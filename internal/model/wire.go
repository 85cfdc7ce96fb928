package model

import "github.com/shopspring/decimal"

// Debt is one entry of GET /debt/list.
type Debt struct {
	Name       string          `json:"name"`
	Balance    decimal.Decimal `json:"balance"`
	APR        decimal.Decimal `json:"apr"`
	MinPayment decimal.Decimal `json:"min_payment"`
}

// PeriodDebt is one debt's state at the end of a scheduled period.
type PeriodDebt struct {
	Name          string          `json:"name"`
	Interest      decimal.Decimal `json:"interest"`
	Payment       decimal.Decimal `json:"payment"`
	EndingBalance decimal.Decimal `json:"ending_balance"`
}

// PlanPeriod is one month of a payoff schedule preview.
type PlanPeriod struct {
	Month        int             `json:"month"`
	Debts        []PeriodDebt    `json:"debts"`
	TotalPayment decimal.Decimal `json:"total_payment"`
}

// DebtPlan is the response of GET /debt/plan.
// SchedulePreview is nil when the field was absent from the response.
type DebtPlan struct {
	Strategy          string              `json:"strategy"`
	ExtraPayment      decimal.Decimal     `json:"extra_payment"`
	PayoffMonths      *int                `json:"payoff_months"`
	PayoffYears       decimal.NullDecimal `json:"payoff_years"`
	TotalInterestPaid decimal.Decimal     `json:"total_interest_paid"`
	SchedulePreview   []PlanPeriod        `json:"schedule_preview"`
	Note              string              `json:"note"`
}

// StrategyComparison is the response of GET /debt/compare.
type StrategyComparison struct {
	ExtraPayment       decimal.Decimal     `json:"extra_payment"`
	Avalanche          DebtPlan            `json:"avalanche"`
	Snowball           DebtPlan            `json:"snowball"`
	Recommended        *string             `json:"recommended"`
	InterestDifference decimal.NullDecimal `json:"interest_difference"`
}

// SpendSummary is the response of GET /spend/summary.
type SpendSummary struct {
	NumTransactions int                 `json:"num_transactions"`
	TotalSpend      decimal.NullDecimal `json:"total_spend"`
	AvgSpend        decimal.NullDecimal `json:"avg_spend"`
	MinDate         *string             `json:"min_date"`
	MaxDate         *string             `json:"max_date"`
}

// CategorySpend is one entry of GET /spend/top_categories.
type CategorySpend struct {
	Category   string          `json:"Category"`
	TotalSpend decimal.Decimal `json:"total_spend"`
	TxnCount   int             `json:"txn_count"`
}

// PaymentModeSpend is one entry of GET /spend/payment_split.
type PaymentModeSpend struct {
	PaymentMode string          `json:"Payment_Mode"`
	TotalSpend  decimal.Decimal `json:"total_spend"`
	TxnCount    int             `json:"txn_count"`
}

// IncomeSummary is the response of GET /income/summary.
type IncomeSummary struct {
	NumIncomeEvents int             `json:"num_income_events"`
	TotalIncome     decimal.Decimal `json:"total_income"`
	AvgIncome       decimal.Decimal `json:"avg_income"`
	MinDate         *string         `json:"min_date"`
	MaxDate         *string         `json:"max_date"`
}
