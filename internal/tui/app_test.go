package tui

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/theirongolddev/fincoach/internal/chat"
	"github.com/theirongolddev/fincoach/internal/config"
	"github.com/theirongolddev/fincoach/internal/dataset"
	"github.com/theirongolddev/fincoach/internal/gateway"
	"github.com/theirongolddev/fincoach/internal/model"
	"github.com/theirongolddev/fincoach/internal/tui/components"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/shopspring/decimal"
)

type stubBackend struct{}

func (stubBackend) FetchDebt(context.Context, gateway.PlanOptions) gateway.DebtData {
	return gateway.DebtData{}
}

func (stubBackend) FetchBudget(_ context.Context, _ int, w model.MonthWindow) gateway.BudgetData {
	return gateway.BudgetData{Window: w}
}

func (stubBackend) Chat(context.Context, string) (string, error) { return "ok", nil }

func (stubBackend) Health(context.Context) error { return nil }

func newTestApp(t *testing.T) App {
	t.Helper()
	a := NewApp(Options{Backend: stubBackend{}, Config: config.DefaultConfig()})
	a = update(t, a, tea.WindowSizeMsg{Width: 140, Height: 45})
	return update(t, a, splashMsg{gen: 0, phase: splashDone})
}

func update(t *testing.T, a App, msg tea.Msg) App {
	t.Helper()
	m, _ := a.Update(msg)
	next, ok := m.(App)
	if !ok {
		t.Fatalf("Update returned %T, want App", m)
	}
	return next
}

func updateCmd(t *testing.T, a App, msg tea.Msg) (App, tea.Cmd) {
	t.Helper()
	m, cmd := a.Update(msg)
	return m.(App), cmd
}

func keyRunes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func budgetData(w model.MonthWindow, total int64) gateway.BudgetData {
	return gateway.BudgetData{
		Window:  w,
		Summary: &model.SpendSummary{TotalSpend: decimal.NewNullDecimal(decimal.NewFromInt(total))},
		Categories: []model.CategorySpend{
			{Category: "Groceries", TotalSpend: decimal.NewFromInt(total)},
		},
	}
}

func TestTabAtXMatchesTabWidths(t *testing.T) {
	for active := range components.Tabs {
		a := App{activeTab: active}
		pos := 1 // leading space
		for i, tab := range components.Tabs {
			w := components.TabVisualWidth(tab, i == active)
			if got := a.tabAtX(pos + w/2); got != i {
				t.Fatalf("active=%d x=%d -> tab=%d, want %d", active, pos+w/2, got, i)
			}
			pos += w + 2
		}
		if got := a.tabAtX(0); got != -1 {
			t.Errorf("x=0 -> tab=%d, want -1", got)
		}
	}
}

func TestSplashPhases(t *testing.T) {
	a := NewApp(Options{Backend: stubBackend{}})
	a = update(t, a, splashMsg{gen: 0, phase: splashFading})
	if a.splash != splashFading {
		t.Fatalf("splash = %v, want fading", a.splash)
	}
	a = update(t, a, splashMsg{gen: 0, phase: splashDone})
	if a.splash != splashDone {
		t.Fatalf("splash = %v, want done", a.splash)
	}
}

func TestSplashSkipDropsPendingTicks(t *testing.T) {
	a := NewApp(Options{Backend: stubBackend{}})
	a = update(t, a, keyRunes("x"))
	if a.splash != splashDone {
		t.Fatal("key press should dismiss the splash")
	}
	a = update(t, a, splashMsg{gen: 0, phase: splashFading})
	if a.splash != splashDone {
		t.Error("tick from the dismissed splash must be ignored")
	}
}

func TestMonthChangeDropsStaleBudget(t *testing.T) {
	a := newTestApp(t)

	a, cmd := updateCmd(t, a, keyRunes("]"))
	if cmd == nil {
		t.Fatal("moving to FEB should issue a fetch")
	}
	febEpoch, feb := a.cursor.Epoch(), a.cursor.Window()

	a, cmd = updateCmd(t, a, keyRunes("]"))
	if cmd == nil {
		t.Fatal("moving to MAR should issue a fetch")
	}
	marEpoch, mar := a.cursor.Epoch(), a.cursor.Window()

	// MAR resolves first, then the slower FEB response arrives.
	a = update(t, a, BudgetMsg{Epoch: marEpoch, Data: budgetData(mar, 300)})
	a = update(t, a, BudgetMsg{Epoch: febEpoch, Data: budgetData(feb, 200)})

	if got := a.store.Totals().TotalBudget; !got.Equal(decimal.NewFromInt(300)) {
		t.Errorf("TotalBudget = %s, want 300 (MAR)", got)
	}
	if a.cursor.Window().Label != "MAR" {
		t.Errorf("cursor = %s, want MAR", a.cursor.Window().Label)
	}
	if a.budgetLoading {
		t.Error("budgetLoading should clear once the current month resolves")
	}
}

func TestMonthBoundaryIssuesNoFetch(t *testing.T) {
	a := newTestApp(t)
	epoch := a.cursor.Epoch()
	a, cmd := updateCmd(t, a, keyRunes("["))
	if cmd != nil {
		t.Error("previous at JAN should not fetch")
	}
	if a.cursor.Epoch() != epoch {
		t.Error("boundary press should not change the epoch")
	}
}

func TestBudgetCategoryFailureClearsSlices(t *testing.T) {
	a := newTestApp(t)
	w := a.cursor.Window()

	a = update(t, a, BudgetMsg{Epoch: a.cursor.Epoch(), Data: budgetData(w, 900)})
	data := budgetData(w, 900)
	data.Categories, data.CategoriesErr = nil, gateway.ErrStatus
	a = update(t, a, BudgetMsg{Epoch: a.cursor.Epoch(), Data: data})

	snap := a.store.Snapshot()
	if len(snap.BudgetSlices) != 0 {
		t.Errorf("slices = %d, want 0", len(snap.BudgetSlices))
	}
	if !snap.Totals.TotalBudget.IsZero() {
		t.Errorf("TotalBudget = %s, want 0", snap.Totals.TotalBudget)
	}
	if a.budgetErr == nil {
		t.Error("budgetErr should record the failure")
	}
}

func TestDebtFailureKeepsFallback(t *testing.T) {
	a := newTestApp(t)
	before := a.store.Snapshot()

	a = update(t, a, DebtMsg{Data: gateway.DebtData{DebtsErr: gateway.ErrTransport, PlanErr: gateway.ErrTransport}})

	after := a.store.Snapshot()
	if !after.Totals.TotalDebt.Equal(before.Totals.TotalDebt) {
		t.Errorf("TotalDebt = %s, want %s", after.Totals.TotalDebt, before.Totals.TotalDebt)
	}
	if len(after.DebtHistory) != len(before.DebtHistory) {
		t.Errorf("debt history replaced on failure")
	}
	if a.lastPlan != nil {
		t.Error("lastPlan should stay nil")
	}
}

func TestDebtSuccessUpdatesTotals(t *testing.T) {
	a := newTestApp(t)
	months := 7
	a = update(t, a, DebtMsg{Data: gateway.DebtData{
		Debts: []model.Debt{{Balance: decimal.NewFromInt(1200)}, {Balance: decimal.RequireFromString("300.50")}},
		Plan: &model.DebtPlan{PayoffMonths: &months, SchedulePreview: []model.PlanPeriod{
			{Month: 1, Debts: []model.PeriodDebt{{EndingBalance: decimal.NewFromInt(1000)}}},
		}},
	}})
	if got := a.store.Totals().TotalDebt; !got.Equal(decimal.RequireFromString("1500.50")) {
		t.Errorf("TotalDebt = %s, want 1500.50", got)
	}
	if a.debtCount != 2 || a.lastPlan == nil {
		t.Errorf("debtCount=%d lastPlan=%v", a.debtCount, a.lastPlan)
	}
	a = update(t, a, keyRunes("d"))
	if !strings.Contains(a.View(), "7 months") {
		t.Error("debt tab should show the payoff horizon")
	}
}

func TestChatRoundTrip(t *testing.T) {
	a := newTestApp(t)

	a, cmd := updateCmd(t, a, keyRunes("c"))
	if !a.chat.IsOpen() || cmd == nil {
		t.Fatal("c should open the chat and schedule focus")
	}
	a = update(t, a, focusMsg{gen: a.focusGen})
	if !a.input.Focused() {
		t.Fatal("input should be focused after the focus tick")
	}

	a = update(t, a, keyRunes("how much did I spend?"))
	a, cmd = updateCmd(t, a, tea.KeyMsg{Type: tea.KeyEnter})
	if cmd == nil || !a.chat.Pending() {
		t.Fatal("enter should start a turn")
	}
	if a.input.Value() != "" {
		t.Errorf("input = %q, want cleared", a.input.Value())
	}

	log := a.chat.Log()
	user := log[len(log)-1]
	if user.Sender != model.SenderUser || user.Text != "how much did I spend?" {
		t.Fatalf("last message = %+v", user)
	}

	a = update(t, a, ChatReplyMsg{Turn: chat.Turn{ID: user.ID, Text: user.Text}, Reply: "About **$900**."})
	if a.chat.Pending() {
		t.Error("pending should clear after the reply")
	}
	log = a.chat.Log()
	if got := log[len(log)-1]; got.Sender != model.SenderAssistant || got.Text != "About **$900**." {
		t.Errorf("reply = %+v", got)
	}
	if !strings.Contains(a.View(), "Financial Coach") {
		t.Error("chat overlay should render")
	}
}

func TestChatBlankSendIgnored(t *testing.T) {
	a := newTestApp(t)
	a = update(t, a, keyRunes("c"))
	a = update(t, a, focusMsg{gen: a.focusGen})
	a, cmd := updateCmd(t, a, tea.KeyMsg{Type: tea.KeyEnter})
	if cmd != nil || a.chat.Pending() {
		t.Error("blank input should not start a turn")
	}
	if n := len(a.chat.Log()); n != 1 {
		t.Errorf("log length = %d, want 1", n)
	}
}

func TestChatFailureAppendsDiagnostic(t *testing.T) {
	a := newTestApp(t)
	a = update(t, a, keyRunes("c"))
	turn, _ := a.chat.Begin("hello")

	a = update(t, a, ChatReplyMsg{Turn: turn, Err: errors.New("connection refused")})
	log := a.chat.Log()
	if got := log[len(log)-1].Text; got != chat.BlockedText {
		t.Errorf("last message = %q, want diagnostic", got)
	}
	if a.chat.Pending() {
		t.Error("pending should clear on failure")
	}
}

func TestFocusTickAfterCloseDropped(t *testing.T) {
	a := newTestApp(t)
	a = update(t, a, keyRunes("c"))
	gen := a.focusGen
	a = update(t, a, tea.KeyMsg{Type: tea.KeyEsc})
	if a.chat.IsOpen() {
		t.Fatal("esc should close the chat")
	}
	a = update(t, a, focusMsg{gen: gen})
	if a.input.Focused() {
		t.Error("focus tick from a closed overlay must be ignored")
	}
}

func TestTabSwitchClosesChat(t *testing.T) {
	a := newTestApp(t)
	a = update(t, a, keyRunes("c"))
	a = update(t, a, tea.KeyMsg{Type: tea.KeyTab})
	if a.chat.IsOpen() {
		t.Error("changing tab should close the chat")
	}
	if a.activeTab != tabBudget {
		t.Errorf("activeTab = %d, want %d", a.activeTab, tabBudget)
	}
}

func TestAskSeedsTabInsight(t *testing.T) {
	a := newTestApp(t)
	a = update(t, a, keyRunes("b"))
	a = update(t, a, keyRunes("a"))

	log := a.chat.Log()
	if len(log) != 1 || log[0].Text != dataset.BudgetInsight || log[0].Sender != model.SenderAssistant {
		t.Errorf("log = %+v, want budget insight seed", log)
	}
	if !a.chat.IsOpen() {
		t.Error("ask should open the chat")
	}
}

func TestReplyAfterReseedLandsInNewLog(t *testing.T) {
	a := newTestApp(t)
	a = update(t, a, keyRunes("c"))
	turn, _ := a.chat.Begin("first question")

	a = update(t, a, tea.KeyMsg{Type: tea.KeyEsc})
	a = update(t, a, keyRunes("a"))
	a = update(t, a, ChatReplyMsg{Turn: turn, Reply: "late answer"})

	log := a.chat.Log()
	if len(log) != 2 || log[1].Text != "late answer" {
		t.Errorf("log = %+v", log)
	}
	if log[1].ID <= log[0].ID {
		t.Errorf("ids not increasing: %d then %d", log[0].ID, log[1].ID)
	}
}

func TestViewRendersEachTab(t *testing.T) {
	a := newTestApp(t)
	want := map[string]string{
		"o": "Net Worth",
		"b": "Top Categories",
		"d": "Payoff Projection",
		"i": "Watchlist",
	}
	for key, text := range want {
		a = update(t, a, keyRunes(key))
		if view := a.View(); !strings.Contains(view, text) {
			t.Errorf("tab %q view missing %q", key, text)
		}
	}
}

func TestViewTooNarrow(t *testing.T) {
	a := newTestApp(t)
	a = update(t, a, tea.WindowSizeMsg{Width: 60, Height: 20})
	if !strings.Contains(a.View(), "too narrow") {
		t.Error("narrow terminals should get the warning view")
	}
}
