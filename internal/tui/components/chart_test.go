package components

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/theirongolddev/fincoach/internal/tui/theme"
)

func TestFormatChartLabel(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{150000, "$150k"},
		{2500, "$2.5k"},
		{3000000, "$3M"},
		{40, "$40"},
	}
	for _, tt := range tests {
		if got := formatChartLabel(tt.in); got != tt.want {
			t.Errorf("formatChartLabel(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestBarChartLabels(t *testing.T) {
	theme.SetActive("flexoki-dark")

	out := BarChart([]float64{130000, 135000, 132000, 145250}, []string{"Jan", "Feb", "Mar", "Apr"}, theme.Active.Accent, 60, 8)
	if !strings.Contains(out, "Jan") || !strings.Contains(out, "Apr") {
		t.Errorf("chart missing x labels:\n%s", out)
	}
	if BarChart(nil, nil, theme.Active.Accent, 60, 8) != "" {
		t.Error("empty series should render nothing")
	}
}

func TestBarChartNegativeValues(t *testing.T) {
	out := BarChart([]float64{-500, 1000}, []string{"a", "b"}, theme.Active.Accent, 40, 6)
	if out == "" {
		t.Fatal("chart should render with a negative point")
	}
}

func TestShareBarWidth(t *testing.T) {
	theme.SetActive("flexoki-dark")

	bar := ShareBar([]float64{0.6, 0.3, 0.1}, []string{"#FF6384", "#36A2EB", "#FFCE56"}, 33)
	if w := lipgloss.Width(bar); w != 33 {
		t.Errorf("ShareBar width = %d, want 33", w)
	}
	if w := lipgloss.Width(ShareBar(nil, nil, 20)); w != 20 {
		t.Errorf("empty ShareBar width = %d, want 20", w)
	}
}

func TestCategoryBarTruncatesLabel(t *testing.T) {
	out := CategoryBar("Entertainment and Leisure", "$300.00", 0.25, "#4BC0C0", 10, 20)
	if !strings.Contains(out, "Entertain…") {
		t.Errorf("label not truncated: %q", out)
	}
	if !strings.Contains(out, "25%") {
		t.Errorf("missing share: %q", out)
	}
}
