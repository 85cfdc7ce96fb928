package dataset

import (
	"github.com/shopspring/decimal"

	"github.com/theirongolddev/fincoach/internal/model"
)

// Coaching insights shown on each tab. Opening chat from one of them seeds
// a fresh conversation with the insight text.
const (
	BudgetInsight  = "Your Housing category takes up the largest portion of your budget at $2,000. Consider reviewing your utility and subscription costs to find extra savings."
	DebtInsight    = "You currently owe $24,500. At your current payoff rate, you are on track to be debt-free in 18 months. Keep up the great work!"
	InvestInsight  = "Your portfolio has grown consistently. Tech stocks like NVDA are driving your gains, but you may want to consider diversifying into more index funds."
	DefaultInsight = "Hello! How can I help you analyze your finances today?"
)

var (
	fallbackNetWorth  = decimal.NewFromInt(145250)
	fallbackTotalDebt = decimal.NewFromInt(24500)
)

func point(label string, amount int64) model.ChartPoint {
	return model.ChartPoint{Label: label, Amount: decimal.NewFromInt(amount)}
}

func series(labels []string, amounts ...int64) []model.ChartPoint {
	out := make([]model.ChartPoint, len(amounts))
	for i, a := range amounts {
		out[i] = point(labels[i], a)
	}
	return out
}

var quarterLabels = []string{"Jan", "Feb", "Mar", "Apr"}

// Fallback returns the dataset shown until a remote query succeeds.
// Every call returns freshly allocated slices.
func Fallback() Snapshot {
	return Snapshot{
		Totals: model.Totals{
			NetWorth:    fallbackNetWorth,
			TotalDebt:   fallbackTotalDebt,
			TotalBudget: decimal.Zero,
		},
		NetWorthHistory:   series(quarterLabels, 130000, 135000, 132000, 145250),
		DebtHistory:       series(quarterLabels, 28000, 26500, 25000, 24500),
		InvestmentHistory: series(quarterLabels, 85000, 88000, 86000, 92000),
		BudgetSlices: []model.BudgetSlice{
			{Category: "Housing", Amount: decimal.NewFromInt(2000), Color: Palette[0]},
			{Category: "Food", Amount: decimal.NewFromInt(600), Color: Palette[1]},
			{Category: "Transport", Amount: decimal.NewFromInt(400), Color: Palette[2]},
			{Category: "Entertainment", Amount: decimal.NewFromInt(300), Color: Palette[3]},
		},
		Watchlist: []model.Holding{
			{Name: "Apple (AAPL)", Change: "+1.2%", Positive: true},
			{Name: "Tesla (TSLA)", Change: "-0.8%", Positive: false},
			{Name: "S&P 500 (VOO)", Change: "+0.5%", Positive: true},
			{Name: "Nvidia (NVDA)", Change: "+3.4%", Positive: true},
		},
	}
}
