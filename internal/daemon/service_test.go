package daemon

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/theirongolddev/fincoach/internal/calendar"
	"github.com/theirongolddev/fincoach/internal/gateway"
	"github.com/theirongolddev/fincoach/internal/model"
	"github.com/theirongolddev/fincoach/internal/widget"
)

type fakeBackend struct {
	mu        sync.Mutex
	debtErr   error
	budgetErr error
	windows   []string
	// gate, when set, blocks FetchBudget for the named month until closed.
	gate      map[string]chan struct{}
}

func (f *fakeBackend) Health(context.Context) error { return nil }

func (f *fakeBackend) FetchDebt(context.Context, gateway.PlanOptions) gateway.DebtData {
	if f.debtErr != nil {
		return gateway.DebtData{DebtsErr: f.debtErr, PlanErr: f.debtErr}
	}
	return gateway.DebtData{
		Debts: []model.Debt{{Name: "Card", Balance: decimal.NewFromInt(1000)}, {Name: "Car", Balance: decimal.NewFromInt(500)}},
		Plan: &model.DebtPlan{SchedulePreview: []model.PlanPeriod{
			{Month: 1, Debts: []model.PeriodDebt{{EndingBalance: decimal.NewFromInt(1400)}}},
		}},
	}
}

func (f *fakeBackend) FetchBudget(_ context.Context, _ int, w model.MonthWindow) gateway.BudgetData {
	f.mu.Lock()
	f.windows = append(f.windows, w.Label)
	gate := f.gate[w.Label]
	f.mu.Unlock()
	if gate != nil {
		<-gate
	}
	if f.budgetErr != nil {
		return gateway.BudgetData{Window: w, SummaryErr: f.budgetErr, CategoriesErr: f.budgetErr}
	}
	return gateway.BudgetData{
		Window:  w,
		Summary: &model.SpendSummary{TotalSpend: decimal.NewNullDecimal(decimal.NewFromInt(int64(100 * (w.Start.Month()))))},
		Categories: []model.CategorySpend{
			{Category: "Food " + w.Label, TotalSpend: decimal.NewFromInt(60)},
		},
	}
}

func newTestService(b Backend) *Service {
	return New(Config{EventsBuffer: 4}, b, widget.NewBridge(widget.DefaultConfig()), nil)
}

func TestSyncOnce_AppliesResults(t *testing.T) {
	s := newTestService(&fakeBackend{})
	s.SyncOnce(context.Background())

	snap := s.Snapshot()
	if !snap.Totals.TotalDebt.Equal(decimal.NewFromInt(1500)) {
		t.Errorf("total debt = %s, want 1500", snap.Totals.TotalDebt)
	}
	if len(snap.DebtHistory) != 1 || snap.DebtHistory[0].Label != "Month 1" {
		t.Errorf("debt history = %+v", snap.DebtHistory)
	}
	if !snap.Totals.TotalBudget.Equal(decimal.NewFromInt(100)) {
		t.Errorf("total budget = %s, want 100", snap.Totals.TotalBudget)
	}
	if len(snap.Budget) != 1 || snap.Budget[0].Category != "Food JAN" {
		t.Errorf("budget = %+v", snap.Budget)
	}

	st := s.snapshotStatus()
	if st.SyncCount != 1 || st.LastError != "" || st.EventCount != 1 || !st.BackendHealthy {
		t.Errorf("status = %+v", st)
	}
}

func TestSyncOnce_FailurePolicy(t *testing.T) {
	boom := errors.New("boom")
	s := newTestService(&fakeBackend{debtErr: boom, budgetErr: boom})
	s.SyncOnce(context.Background())

	snap := s.Snapshot()
	if !snap.Totals.TotalDebt.Equal(decimal.NewFromInt(24500)) {
		t.Errorf("total debt = %s, want fallback 24500", snap.Totals.TotalDebt)
	}
	if len(snap.DebtHistory) != 4 {
		t.Errorf("debt history = %+v, want fallback", snap.DebtHistory)
	}
	if len(snap.Budget) != 0 || !snap.Totals.TotalBudget.IsZero() {
		t.Errorf("budget = %+v total=%s, want reset", snap.Budget, snap.Totals.TotalBudget)
	}
	if st := s.snapshotStatus(); st.LastError != "boom" {
		t.Errorf("last error = %q", st.LastError)
	}
}

func TestMoveMonth_StaleResponseDropped(t *testing.T) {
	febGate := make(chan struct{})
	b := &fakeBackend{gate: map[string]chan struct{}{"FEB": febGate}}
	s := newTestService(b)

	s.moveMonth(func(c *calendar.Cursor) bool { return c.Next() }) // FEB, blocked
	s.moveMonth(func(c *calendar.Cursor) bool { return c.Next() }) // MAR
	waitFor(t, func() bool {
		return s.Snapshot().Totals.TotalBudget.Equal(decimal.NewFromInt(300))
	})

	close(febGate)
	s.budgetWG.Wait()

	snap := s.Snapshot()
	if snap.Month != "MAR 2024" {
		t.Fatalf("month = %s", snap.Month)
	}
	if len(snap.Budget) != 1 || snap.Budget[0].Category != "Food MAR" {
		t.Fatalf("budget = %+v, want MAR data", snap.Budget)
	}
	if !snap.Totals.TotalBudget.Equal(decimal.NewFromInt(300)) {
		t.Fatalf("total budget = %s, want 300", snap.Totals.TotalBudget)
	}
}

func TestRun_ShutdownCancelsStalledMonthFetch(t *testing.T) {
	release := make(chan struct{})
	febRequested := make(chan struct{}, 1)
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/spend/") && r.URL.Query().Get("start") == "2024-02-01" {
			select {
			case febRequested <- struct{}{}:
			default:
			}
			select {
			case <-r.Context().Done():
			case <-release:
			}
			return
		}
		http.NotFound(w, r)
	}))
	defer backend.Close()
	defer close(release)

	s := New(Config{Addr: "127.0.0.1:0"}, gateway.NewClient(backend.URL), widget.NewBridge(widget.DefaultConfig()), nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	waitFor(t, func() bool { return s.snapshotStatus().SyncCount == 1 })
	if _, moved := s.moveMonth(func(c *calendar.Cursor) bool { return c.Next() }); !moved {
		t.Fatal("cursor did not move to FEB")
	}
	select {
	case <-febRequested:
	case <-time.After(2 * time.Second):
		t.Fatal("FEB fetch never reached the backend")
	}

	cancel()
	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("Run still blocked after cancel while a month fetch was stalled")
	}
}

func TestPublishEventRingBuffer(t *testing.T) {
	s := New(Config{EventsBuffer: 2}, &fakeBackend{}, widget.NewBridge(widget.DefaultConfig()), nil)

	s.publishEvent(Event{ID: "1"})
	s.publishEvent(Event{ID: "2"})
	s.publishEvent(Event{ID: "3"})

	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.events) != 2 {
		t.Fatalf("events len = %d, want 2", len(s.events))
	}
	if s.events[0].ID != "2" || s.events[1].ID != "3" {
		t.Fatalf("events ring contains IDs [%s, %s], want [2, 3]", s.events[0].ID, s.events[1].ID)
	}
}

func TestRouter(t *testing.T) {
	s := newTestService(&fakeBackend{})
	s.SyncOnce(context.Background())
	srv := httptest.NewServer(s.Router())
	defer srv.Close()

	t.Run("healthz", func(t *testing.T) {
		body := get(t, srv.URL+"/healthz", http.StatusOK)
		if body != "ok\n" {
			t.Fatalf("body = %q", body)
		}
	})

	t.Run("snapshot", func(t *testing.T) {
		var snap Snapshot
		if err := json.Unmarshal([]byte(get(t, srv.URL+"/v1/snapshot", http.StatusOK)), &snap); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if snap.Month != "JAN 2024" || len(snap.Watchlist) != 4 {
			t.Fatalf("snapshot = %+v", snap)
		}
	})

	t.Run("assistant", func(t *testing.T) {
		body := get(t, srv.URL+"/assistant", http.StatusOK)
		if !strings.Contains(body, `data-wxo-loader="true"`) {
			t.Fatalf("assistant page missing loader:\n%s", body)
		}
	})

	t.Run("month", func(t *testing.T) {
		var resp monthResponse
		post(t, http.MethodPost, srv.URL+"/v1/month/prev", &resp)
		if resp.Changed || resp.Month != "JAN 2024" {
			t.Fatalf("prev at JAN = %+v", resp)
		}
		post(t, http.MethodPut, srv.URL+"/v1/month/feb", &resp)
		if !resp.Changed || resp.Start != "2024-02-01" || resp.End != "2024-02-29" {
			t.Fatalf("seek FEB = %+v", resp)
		}
		s.budgetWG.Wait()

		req, _ := http.NewRequest(http.MethodPut, srv.URL+"/v1/month/xyz", nil)
		r, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatal(err)
		}
		_ = r.Body.Close()
		if r.StatusCode != http.StatusNotFound {
			t.Fatalf("unknown month status = %d", r.StatusCode)
		}
	})
}

func TestStream_SendsCurrentSnapshot(t *testing.T) {
	s := newTestService(&fakeBackend{})
	srv := httptest.NewServer(s.Router())
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/v1/stream", nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("GET stream: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()

	sc := bufio.NewScanner(resp.Body)
	var lines []string
	for sc.Scan() && len(lines) < 3 {
		lines = append(lines, sc.Text())
	}
	if len(lines) < 3 || !strings.HasPrefix(lines[0], "id: ") || lines[1] != "event: snapshot" || !strings.HasPrefix(lines[2], "data: ") {
		t.Fatalf("stream lines = %q", lines)
	}
}

func get(t *testing.T, url string, wantStatus int) string {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer func() { _ = resp.Body.Close() }()
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != wantStatus {
		t.Fatalf("GET %s status = %d, want %d", url, resp.StatusCode, wantStatus)
	}
	return string(body)
}

func post(t *testing.T, method, url string, dst any) {
	t.Helper()
	req, _ := http.NewRequest(method, url, nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	defer func() { _ = resp.Body.Close() }()
	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		t.Fatalf("decode %s: %v", url, err)
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met in time")
}
