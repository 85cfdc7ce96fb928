package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/theirongolddev/fincoach/internal/calendar"
)

func newBackend(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL + "/")
}

func TestNewClient_DefaultBaseURL(t *testing.T) {
	if got := NewClient("  ").BaseURL(); got != DefaultBaseURL {
		t.Fatalf("base url = %q, want %q", got, DefaultBaseURL)
	}
}

func TestListDebts(t *testing.T) {
	c := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/debt/list" || r.Method != http.MethodGet {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		_, _ = io.WriteString(w, `[{"name":"Card","balance":1200.5,"apr":0.24,"min_payment":35},
			{"name":"Car","balance":8000,"apr":0.06,"min_payment":250}]`)
	})

	debts, err := c.ListDebts(context.Background())
	if err != nil {
		t.Fatalf("ListDebts: %v", err)
	}
	if len(debts) != 2 || debts[0].Name != "Card" {
		t.Fatalf("debts = %+v", debts)
	}
	if !debts[0].Balance.Equal(decimal.RequireFromString("1200.5")) {
		t.Errorf("balance = %s", debts[0].Balance)
	}
}

func TestDebtPlan_Query(t *testing.T) {
	c := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("schedule_months") != "12" || q.Get("strategy") != "snowball" || q.Get("extra_payment") != "150" {
			t.Errorf("query = %s", r.URL.RawQuery)
		}
		_, _ = io.WriteString(w, `{"strategy":"snowball","payoff_months":18,
			"schedule_preview":[{"month":1,"debts":[{"name":"Card","ending_balance":900}],"total_payment":300}]}`)
	})

	plan, err := c.DebtPlan(context.Background(), PlanOptions{Strategy: "snowball", ExtraPayment: 150})
	if err != nil {
		t.Fatalf("DebtPlan: %v", err)
	}
	if plan.PayoffMonths == nil || *plan.PayoffMonths != 18 {
		t.Fatalf("payoff months = %v", plan.PayoffMonths)
	}
	if len(plan.SchedulePreview) != 1 || plan.SchedulePreview[0].Month != 1 {
		t.Fatalf("preview = %+v", plan.SchedulePreview)
	}
}

func TestDebtPlan_AbsentPreviewIsNil(t *testing.T) {
	c := newBackend(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `{"strategy":"avalanche","note":"no debts"}`)
	})

	plan, err := c.DebtPlan(context.Background(), PlanOptions{})
	if err != nil {
		t.Fatalf("DebtPlan: %v", err)
	}
	if plan.SchedulePreview != nil {
		t.Fatalf("preview = %+v, want nil", plan.SchedulePreview)
	}
}

func TestBudgetQueries_Window(t *testing.T) {
	cur := calendar.NewCursor(calendar.DefaultYear)
	cur.Seek("FEB")

	c := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("start") != "2024-02-01" || q.Get("end") != "2024-02-29" {
			t.Errorf("%s window = %s..%s", r.URL.Path, q.Get("start"), q.Get("end"))
		}
		switch r.URL.Path {
		case "/spend/summary":
			_, _ = io.WriteString(w, `{"num_transactions":3,"total_spend":812.4,"avg_spend":270.8}`)
		case "/spend/top_categories":
			if q.Get("k") != "5" {
				t.Errorf("k = %q", q.Get("k"))
			}
			_, _ = io.WriteString(w, `[{"Category":"Food","total_spend":500,"txn_count":2}]`)
		default:
			http.NotFound(w, r)
		}
	})

	d := c.FetchBudget(context.Background(), 5, cur.Window())
	if d.Err() != nil {
		t.Fatalf("FetchBudget: %v", d.Err())
	}
	if !d.Summary.TotalSpend.Valid || !d.Summary.TotalSpend.Decimal.Equal(decimal.RequireFromString("812.4")) {
		t.Errorf("summary = %+v", d.Summary)
	}
	if len(d.Categories) != 1 || d.Categories[0].Category != "Food" {
		t.Errorf("categories = %+v", d.Categories)
	}
}

func TestFetchBudget_CategoriesStillIssuedAfterSummaryFailure(t *testing.T) {
	var mu sync.Mutex
	var paths []string
	c := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		paths = append(paths, r.URL.Path)
		mu.Unlock()
		if r.URL.Path == "/spend/summary" {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = io.WriteString(w, `[]`)
	})

	d := c.FetchBudget(context.Background(), 5, calendar.Windows(2024)[0])
	if !errors.Is(d.SummaryErr, ErrStatus) {
		t.Fatalf("summary err = %v, want ErrStatus", d.SummaryErr)
	}
	if d.CategoriesErr != nil {
		t.Fatalf("categories err = %v", d.CategoriesErr)
	}
	if len(paths) != 2 || paths[0] != "/spend/summary" || paths[1] != "/spend/top_categories" {
		t.Fatalf("request order = %v", paths)
	}
}

func TestErrorTaxonomy(t *testing.T) {
	t.Run("status", func(t *testing.T) {
		c := newBackend(t, func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		})
		_, err := c.ListDebts(context.Background())
		var se *StatusError
		if !errors.As(err, &se) || se.Code != http.StatusBadGateway {
			t.Fatalf("err = %v, want StatusError 502", err)
		}
		if !errors.Is(err, ErrStatus) {
			t.Fatalf("err = %v, want ErrStatus", err)
		}
	})

	t.Run("decode", func(t *testing.T) {
		c := newBackend(t, func(w http.ResponseWriter, _ *http.Request) {
			_, _ = io.WriteString(w, `{not json`)
		})
		_, err := c.ListDebts(context.Background())
		if !errors.Is(err, ErrDecode) {
			t.Fatalf("err = %v, want ErrDecode", err)
		}
	})

	t.Run("transport", func(t *testing.T) {
		srv := httptest.NewServer(http.NotFoundHandler())
		base := srv.URL
		srv.Close()

		_, err := NewClient(base).ListDebts(context.Background())
		if !errors.Is(err, ErrTransport) {
			t.Fatalf("err = %v, want ErrTransport", err)
		}
	})
}

func TestChat(t *testing.T) {
	c := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/agent/chat" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("content type = %q", ct)
		}
		var req struct {
			Text string `json:"text"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.Text == "silent" {
			_, _ = io.WriteString(w, `{}`)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"reply": "echo: " + req.Text})
	})

	reply, err := c.Chat(context.Background(), "hi")
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if reply != "echo: hi" {
		t.Fatalf("reply = %q", reply)
	}

	reply, err = c.Chat(context.Background(), "silent")
	if err != nil || reply != "" {
		t.Fatalf("missing reply = %q, %v", reply, err)
	}
}

func TestHealth(t *testing.T) {
	ok := true
	c := newBackend(t, func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]bool{"ok": ok})
	})
	if err := c.Health(context.Background()); err != nil {
		t.Fatalf("Health: %v", err)
	}
	ok = false
	if err := c.Health(context.Background()); err == nil {
		t.Fatal("Health: want error when ok=false")
	}
}

func TestObserver(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	var calls []Call
	c := NewClient(srv.URL, WithObserver(func(call Call) { calls = append(calls, call) }))
	_, _ = c.SpendSummary(context.Background(), calendar.Windows(2024)[2])

	if len(calls) != 1 {
		t.Fatalf("calls = %d, want 1", len(calls))
	}
	got := calls[0]
	if got.Endpoint != "/spend/summary" || got.Status != http.StatusNotFound || got.Err == nil {
		t.Fatalf("call = %+v", got)
	}
	if got.Query != "end=2024-03-31&start=2024-03-01" {
		t.Fatalf("query = %q", got.Query)
	}
}

func TestKind(t *testing.T) {
	cases := map[string]error{
		"":          nil,
		"transport": ErrTransport,
		"status":    &StatusError{Endpoint: "/x", Code: 500},
		"decode":    ErrDecode,
		"other":     context.Canceled,
	}
	for want, err := range cases {
		if got := Kind(err); got != want {
			t.Errorf("Kind(%v) = %q, want %q", err, got, want)
		}
	}
}
