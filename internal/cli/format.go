// Package cli provides formatting and rendering utilities for terminal output.
package cli

import (
	"fmt"
	"math"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"
)

// FormatUSD formats an amount with thousands separators and cents.
// e.g., 145250 -> "$145,250.00", -12.5 -> "-$12.50"
func FormatUSD(d decimal.Decimal) string {
	sign := ""
	if d.IsNegative() {
		sign = "-"
		d = d.Neg()
	}
	return sign + "$" + humanize.FormatFloat("#,###.##", d.Round(2).InexactFloat64())
}

// FormatUSDCompact formats an amount for chart axes.
// e.g., 850 -> "$850", 24500 -> "$24.5k", 1250000 -> "$1.3M"
func FormatUSDCompact(d decimal.Decimal) string {
	f := d.InexactFloat64()
	abs := math.Abs(f)
	sign := ""
	if f < 0 {
		sign = "-"
	}

	switch {
	case abs >= 1_000_000:
		return fmt.Sprintf("%s$%.1fM", sign, abs/1_000_000)
	case abs >= 100_000:
		return fmt.Sprintf("%s$%.0fk", sign, abs/1_000)
	case abs >= 1_000:
		return fmt.Sprintf("%s$%.1fk", sign, abs/1_000)
	default:
		return fmt.Sprintf("%s$%.0f", sign, abs)
	}
}

// FormatNumber adds comma separators to an integer.
// e.g., 1234567 -> "1,234,567"
func FormatNumber(n int64) string {
	return humanize.Comma(n)
}

// FormatPercent formats a 0-1 float as a percentage string.
func FormatPercent(f float64) string {
	return fmt.Sprintf("%.1f%%", f*100)
}

// FormatDelta formats the change between two amounts with a sign.
func FormatDelta(current, previous decimal.Decimal) string {
	delta := current.Sub(previous)
	if delta.IsNegative() {
		return "-" + FormatUSD(delta.Neg())
	}
	return "+" + FormatUSD(delta)
}

// FormatPayoff describes a payoff horizon in months.
// e.g., 18 -> "18 months (1.5 yrs)", nil -> "not within horizon"
func FormatPayoff(months *int) string {
	if months == nil {
		return "not within horizon"
	}
	switch m := *months; {
	case m <= 0:
		return "paid off"
	case m == 1:
		return "1 month"
	case m < 12:
		return fmt.Sprintf("%d months", m)
	default:
		return fmt.Sprintf("%d months (%.1f yrs)", m, float64(m)/12)
	}
}

// FormatLatency formats a request duration.
// e.g., 40ms -> "40ms", 1500ms -> "1.5s"
func FormatLatency(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	return fmt.Sprintf("%.1fs", d.Seconds())
}

// FormatAgo formats a past instant relative to now, e.g. "3 minutes ago".
func FormatAgo(t time.Time) string {
	if t.IsZero() {
		return "never"
	}
	return humanize.Time(t)
}
