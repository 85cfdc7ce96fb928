// Package gateway is the HTTP client for the finance backend.
//
// Requests carry no timeout and are never retried. Every failure is reported
// wrapped around one of ErrTransport, ErrStatus or ErrDecode.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/theirongolddev/fincoach/internal/model"
)

const (
	// DefaultBaseURL is the backend address used when none is configured.
	DefaultBaseURL = "http://localhost:8000"

	// DefaultScheduleMonths is the payoff preview length requested by the dashboard.
	DefaultScheduleMonths = 12

	maxBodySize = 1 << 20 // 1 MB
	userAgent   = "fincoach/1.0"
)

var (
	// ErrTransport indicates the request never produced a response.
	ErrTransport = errors.New("gateway: transport failure")
	// ErrStatus indicates a non-2xx response.
	ErrStatus = errors.New("gateway: unexpected status")
	// ErrDecode indicates a 2xx response whose body could not be parsed.
	ErrDecode = errors.New("gateway: malformed response")
)

// StatusError carries the HTTP status of a non-2xx response.
// errors.Is(err, ErrStatus) holds for every StatusError.
type StatusError struct {
	Endpoint string
	Code     int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("gateway: %s returned status %d", e.Endpoint, e.Code)
}

func (e *StatusError) Unwrap() error { return ErrStatus }

// Call describes one completed request.
type Call struct {
	Method   string
	Endpoint string
	Query    string
	Status   int
	Duration time.Duration
	Err      error
}

// Observer receives every completed call. It runs on the calling goroutine.
type Observer func(Call)

// Client talks to the finance backend.
type Client struct {
	baseURL  string
	http     *http.Client
	observer Observer
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithObserver installs a hook that sees every call's outcome.
func WithObserver(o Observer) Option {
	return func(c *Client) { c.observer = o }
}

// NewClient creates a client for the given base URL.
// An empty base URL selects DefaultBaseURL.
func NewClient(baseURL string, opts ...Option) *Client {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL: baseURL,
		http:    &http.Client{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the backend address.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// PlanOptions parameterizes a payoff plan request.
// Zero values leave the choice to the backend.
type PlanOptions struct {
	ScheduleMonths int
	Strategy       string
	ExtraPayment   float64
}

func (o PlanOptions) values() url.Values {
	q := url.Values{}
	months := o.ScheduleMonths
	if months <= 0 {
		months = DefaultScheduleMonths
	}
	q.Set("schedule_months", strconv.Itoa(months))
	if o.Strategy != "" {
		q.Set("strategy", o.Strategy)
	}
	if o.ExtraPayment > 0 {
		q.Set("extra_payment", strconv.FormatFloat(o.ExtraPayment, 'f', -1, 64))
	}
	return q
}

func windowValues(w model.MonthWindow) url.Values {
	q := url.Values{}
	q.Set("start", w.StartDate())
	q.Set("end", w.EndDate())
	return q
}

// ListDebts returns every outstanding debt.
func (c *Client) ListDebts(ctx context.Context) ([]model.Debt, error) {
	var debts []model.Debt
	if err := c.getJSON(ctx, "/debt/list", nil, &debts); err != nil {
		return nil, err
	}
	return debts, nil
}

// DebtPlan returns a simulated payoff plan.
func (c *Client) DebtPlan(ctx context.Context, opts PlanOptions) (*model.DebtPlan, error) {
	var plan model.DebtPlan
	if err := c.getJSON(ctx, "/debt/plan", opts.values(), &plan); err != nil {
		return nil, err
	}
	return &plan, nil
}

// CompareStrategies simulates both payoff strategies with the same extra payment.
func (c *Client) CompareStrategies(ctx context.Context, extraPayment float64) (*model.StrategyComparison, error) {
	q := url.Values{}
	q.Set("extra_payment", strconv.FormatFloat(extraPayment, 'f', -1, 64))

	var cmp model.StrategyComparison
	if err := c.getJSON(ctx, "/debt/compare", q, &cmp); err != nil {
		return nil, err
	}
	return &cmp, nil
}

// SpendSummary aggregates spending within w.
func (c *Client) SpendSummary(ctx context.Context, w model.MonthWindow) (*model.SpendSummary, error) {
	var s model.SpendSummary
	if err := c.getJSON(ctx, "/spend/summary", windowValues(w), &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// TopCategories returns up to k categories within w, largest first.
func (c *Client) TopCategories(ctx context.Context, k int, w model.MonthWindow) ([]model.CategorySpend, error) {
	q := windowValues(w)
	q.Set("k", strconv.Itoa(k))

	var cats []model.CategorySpend
	if err := c.getJSON(ctx, "/spend/top_categories", q, &cats); err != nil {
		return nil, err
	}
	return cats, nil
}

// PaymentSplit returns spending within w grouped by payment mode.
func (c *Client) PaymentSplit(ctx context.Context, w model.MonthWindow) ([]model.PaymentModeSpend, error) {
	var split []model.PaymentModeSpend
	if err := c.getJSON(ctx, "/spend/payment_split", windowValues(w), &split); err != nil {
		return nil, err
	}
	return split, nil
}

// IncomeSummary aggregates income within w.
func (c *Client) IncomeSummary(ctx context.Context, w model.MonthWindow) (*model.IncomeSummary, error) {
	var s model.IncomeSummary
	if err := c.getJSON(ctx, "/income/summary", windowValues(w), &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// Health probes the backend. A nil error means it answered {"ok": true}.
func (c *Client) Health(ctx context.Context) error {
	var h struct {
		OK bool `json:"ok"`
	}
	if err := c.getJSON(ctx, "/health", nil, &h); err != nil {
		return err
	}
	if !h.OK {
		return fmt.Errorf("%w: /health reported not ok", ErrDecode)
	}
	return nil
}

// Chat sends one user message to the coaching agent and returns its reply.
// A reply missing from the response is returned as "".
func (c *Client) Chat(ctx context.Context, text string) (string, error) {
	payload, err := json.Marshal(struct {
		Text string `json:"text"`
	}{Text: text})
	if err != nil {
		return "", fmt.Errorf("gateway: encoding chat request: %w", err)
	}

	body, err := c.do(ctx, http.MethodPost, "/agent/chat", nil, payload)
	if err != nil {
		return "", err
	}

	var resp struct {
		Reply string `json:"reply"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("%w: /agent/chat: %w", ErrDecode, err)
	}
	return resp.Reply, nil
}

func (c *Client) getJSON(ctx context.Context, path string, q url.Values, dst any) error {
	body, err := c.do(ctx, http.MethodGet, path, q, nil)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrDecode, path, err)
	}
	return nil
}

// do performs one request and returns the body of a 2xx response.
func (c *Client) do(ctx context.Context, method, path string, q url.Values, payload []byte) (body []byte, err error) {
	call := Call{Method: method, Endpoint: path, Query: q.Encode()}
	start := time.Now()
	defer func() {
		if c.observer == nil {
			return
		}
		call.Duration = time.Since(start)
		call.Err = err
		c.observer(call)
	}()

	target := c.baseURL + path
	if len(q) > 0 {
		target += "?" + call.Query
	}

	var reqBody io.Reader
	if payload != nil {
		reqBody = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, reqBody)
	if err != nil {
		return nil, fmt.Errorf("gateway: creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s %s: %w", ErrTransport, method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()
	call.Status = resp.StatusCode

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodySize))
		return nil, &StatusError{Endpoint: path, Code: resp.StatusCode}
	}

	body, err = io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s: %w", ErrTransport, path, err)
	}
	return body, nil
}

// Kind names the failure class of err: "transport", "status", "decode",
// "other", or "" for nil.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrTransport):
		return "transport"
	case errors.Is(err, ErrStatus):
		return "status"
	case errors.Is(err, ErrDecode):
		return "decode"
	default:
		return "other"
	}
}
