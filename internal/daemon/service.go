// Package daemon provides the long-running sync service behind `fincoach serve`.
//
// The service refreshes the dataset on a cron schedule, keeps the latest
// snapshot in memory, streams updates over SSE and hosts the assistant
// widget page.
package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/theirongolddev/fincoach/internal/calendar"
	"github.com/theirongolddev/fincoach/internal/dataset"
	"github.com/theirongolddev/fincoach/internal/gateway"
	"github.com/theirongolddev/fincoach/internal/logging"
	"github.com/theirongolddev/fincoach/internal/model"
	"github.com/theirongolddev/fincoach/internal/widget"
)

// Backend is the subset of the gateway the service syncs from.
type Backend interface {
	FetchDebt(ctx context.Context, opts gateway.PlanOptions) gateway.DebtData
	FetchBudget(ctx context.Context, k int, w model.MonthWindow) gateway.BudgetData
	Health(ctx context.Context) error
}

// Config controls the service runtime behavior.
type Config struct {
	Addr         string
	Schedule     string
	EventsBuffer int
	Year         int
	TopK         int
	Plan         gateway.PlanOptions
}

// Snapshot is the dataset state served at /v1/snapshot and in events.
type Snapshot struct {
	At                time.Time           `json:"at"`
	Month             string              `json:"month"`
	Epoch             uint64              `json:"epoch"`
	Totals            model.Totals        `json:"totals"`
	NetWorthHistory   []model.ChartPoint  `json:"net_worth_history"`
	DebtHistory       []model.ChartPoint  `json:"debt_history"`
	InvestmentHistory []model.ChartPoint  `json:"investment_history"`
	Budget            []model.BudgetSlice `json:"budget"`
	Watchlist         []model.Holding     `json:"watchlist"`
}

// Event is emitted whenever the snapshot is refreshed.
type Event struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Snapshot  Snapshot  `json:"snapshot"`
	Errors    []string  `json:"errors,omitempty"`
}

// Status is served at /v1/status.
type Status struct {
	StartedAt       time.Time `json:"started_at"`
	LastSyncAt      time.Time `json:"last_sync_at"`
	Schedule        string    `json:"schedule"`
	SyncCount       int64     `json:"sync_count"`
	Month           string    `json:"month"`
	BackendHealthy  bool      `json:"backend_healthy"`
	LastError       string    `json:"last_error,omitempty"`
	EventCount      int       `json:"event_count"`
	SubscriberCount int       `json:"subscriber_count"`
}

// Service provides the sync runtime and HTTP API.
type Service struct {
	cfg     Config
	backend Backend
	bridge  *widget.Bridge
	log     *zap.Logger

	mu             sync.RWMutex
	startedAt      time.Time
	lastSyncAt     time.Time
	syncCount      int64
	lastError      string
	backendHealthy bool
	store          dataset.Store
	cursor         calendar.Cursor
	events         []Event

	nextSubID int
	subs      map[int]chan Event

	// runCtx scopes background month refreshes to the Run lifetime.
	runCtx   context.Context
	budgetWG sync.WaitGroup
}

// New returns a service syncing from backend.
func New(cfg Config, backend Backend, bridge *widget.Bridge, log *zap.Logger) *Service {
	if cfg.EventsBuffer < 1 {
		cfg.EventsBuffer = 200
	}
	if cfg.Addr == "" {
		cfg.Addr = "127.0.0.1:8787"
	}
	if cfg.Schedule == "" {
		cfg.Schedule = "@every 5m"
	}
	if cfg.Year == 0 {
		cfg.Year = calendar.DefaultYear
	}
	if cfg.TopK < 1 {
		cfg.TopK = dataset.DefaultTopK
	}
	if log == nil {
		log = zap.NewNop()
	}

	return &Service{
		cfg:       cfg,
		backend:   backend,
		bridge:    bridge,
		log:       log,
		startedAt: time.Now(),
		runCtx:    context.Background(),
		store:     dataset.New(),
		cursor:    calendar.NewCursor(cfg.Year),
		subs:      make(map[int]chan Event),
	}
}

// Router returns the HTTP API.
func (s *Service) Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	r.Handle("/assistant", s.bridge.Handler("fincoach assistant")).Methods(http.MethodGet)

	api := r.PathPrefix("/v1").Subrouter()
	api.HandleFunc("/status", s.handleStatus).Methods(http.MethodGet)
	api.HandleFunc("/snapshot", s.handleSnapshot).Methods(http.MethodGet)
	api.HandleFunc("/events", s.handleEvents).Methods(http.MethodGet)
	api.HandleFunc("/stream", s.handleStream).Methods(http.MethodGet)
	api.HandleFunc("/month/{dir:prev|next}", s.handleMonthStep).Methods(http.MethodPost)
	api.HandleFunc("/month/{label:[A-Za-z]{3}}", s.handleMonthSeek).Methods(http.MethodPut)
	return r
}

// Run starts HTTP endpoints and the sync schedule until ctx is canceled.
func (s *Service) Run(ctx context.Context) error {
	s.mu.Lock()
	s.runCtx = ctx
	s.mu.Unlock()

	server := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// Seed initial snapshot so status is useful immediately.
	s.SyncOnce(ctx)

	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cronLogger{s.log.Sugar()})))
	if _, err := c.AddFunc(s.cfg.Schedule, func() { s.SyncOnce(ctx) }); err != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
		return fmt.Errorf("daemon schedule %q: %w", s.cfg.Schedule, err)
	}
	c.Start()
	defer func() { <-c.Stop().Done() }()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		err := server.Shutdown(shutdownCtx)
		s.waitRefreshes(shutdownCtx)
		return err
	case err := <-errCh:
		return fmt.Errorf("daemon http server: %w", err)
	}
}

// SyncOnce refreshes the debt figures and the selected month's budget.
func (s *Service) SyncOnce(ctx context.Context) {
	var errs []string

	healthErr := s.backend.Health(ctx)
	if healthErr != nil {
		s.log.Warn("backend health probe failed", logging.Endpoint("/health"), zap.Error(healthErr))
	}

	debt := s.backend.FetchDebt(ctx, s.cfg.Plan)
	if debt.DebtsErr != nil {
		errs = append(errs, debt.DebtsErr.Error())
		s.log.Warn("debt list failed, keeping previous total", logging.Endpoint("/debt/list"), zap.Error(debt.DebtsErr))
	}
	if debt.PlanErr != nil {
		errs = append(errs, debt.PlanErr.Error())
		s.log.Warn("debt plan failed, keeping previous history", logging.Endpoint("/debt/plan"), zap.Error(debt.PlanErr))
	}

	s.mu.Lock()
	s.store.ApplyDebtList(debt.Debts, debt.DebtsErr)
	s.store.ApplyDebtPlan(debt.Plan, debt.PlanErr)
	window, epoch := s.cursor.Window(), s.cursor.Epoch()
	s.mu.Unlock()

	errs = append(errs, s.refreshBudget(ctx, window, epoch)...)

	now := time.Now()
	s.mu.Lock()
	s.lastSyncAt = now
	s.syncCount++
	s.backendHealthy = healthErr == nil
	s.lastError = ""
	if len(errs) > 0 {
		s.lastError = errs[0]
	}
	ev := s.newEventLocked("sync", now, errs)
	s.mu.Unlock()

	s.publishEvent(ev)
}

// refreshBudget fetches one month and applies it if the cursor has not
// moved on since epoch. It returns the failures it logged.
func (s *Service) refreshBudget(ctx context.Context, w model.MonthWindow, epoch uint64) []string {
	d := s.backend.FetchBudget(ctx, s.cfg.TopK, w)

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.cursor.IsCurrent(epoch) {
		s.log.Debug("dropping stale budget response", logging.Window(w.String()), logging.Epoch(epoch))
		return nil
	}

	var errs []string
	if d.SummaryErr != nil {
		errs = append(errs, d.SummaryErr.Error())
		s.log.Warn("spend summary failed", logging.Endpoint("/spend/summary"), logging.Window(w.String()), zap.Error(d.SummaryErr))
	}
	if d.CategoriesErr != nil {
		errs = append(errs, d.CategoriesErr.Error())
		s.log.Warn("top categories failed, clearing budget", logging.Endpoint("/spend/top_categories"), logging.Window(w.String()), zap.Error(d.CategoriesErr))
	}
	s.store.ApplySpendSummary(d.Summary, d.SummaryErr)
	s.store.ApplyTopCategories(d.Categories, s.cfg.TopK, d.CategoriesErr)
	return errs
}

// waitRefreshes waits for background month refreshes until ctx is done.
func (s *Service) waitRefreshes(ctx context.Context) {
	done := make(chan struct{})
	go func() {
		s.budgetWG.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		s.log.Warn("month refresh still running at shutdown")
	}
}

// moveMonth applies a cursor change and refreshes the new month in the
// background. The refresh outlives the request but not Run.
// It reports whether the cursor moved.
func (s *Service) moveMonth(move func(*calendar.Cursor) bool) (model.MonthWindow, bool) {
	s.mu.Lock()
	moved := move(&s.cursor)
	window, epoch := s.cursor.Window(), s.cursor.Epoch()
	ctx := s.runCtx
	s.mu.Unlock()
	if !moved {
		return window, false
	}

	s.budgetWG.Add(1)
	go func() {
		defer s.budgetWG.Done()
		errs := s.refreshBudget(ctx, window, epoch)

		s.mu.Lock()
		if !s.cursor.IsCurrent(epoch) {
			s.mu.Unlock()
			return
		}
		ev := s.newEventLocked("month", time.Now(), errs)
		s.mu.Unlock()
		s.publishEvent(ev)
	}()
	return window, true
}

func (s *Service) newEventLocked(typ string, at time.Time, errs []string) Event {
	return Event{
		ID:        uuid.NewString(),
		Type:      typ,
		Timestamp: at,
		Snapshot:  s.snapshotLocked(at),
		Errors:    errs,
	}
}

func (s *Service) snapshotLocked(at time.Time) Snapshot {
	snap := s.store.Snapshot()
	return Snapshot{
		At:                at,
		Month:             s.cursor.Window().String(),
		Epoch:             s.cursor.Epoch(),
		Totals:            snap.Totals,
		NetWorthHistory:   snap.NetWorthHistory,
		DebtHistory:       snap.DebtHistory,
		InvestmentHistory: snap.InvestmentHistory,
		Budget:            snap.BudgetSlices,
		Watchlist:         snap.Watchlist,
	}
}

// Snapshot returns the current dataset state.
func (s *Service) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked(time.Now())
}

func (s *Service) publishEvent(ev Event) {
	s.mu.Lock()
	s.events = append(s.events, ev)
	if len(s.events) > s.cfg.EventsBuffer {
		s.events = s.events[len(s.events)-s.cfg.EventsBuffer:]
	}

	for _, ch := range s.subs {
		select {
		case ch <- ev:
		default:
		}
	}
	s.mu.Unlock()
}

func (s *Service) snapshotStatus() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return Status{
		StartedAt:       s.startedAt,
		LastSyncAt:      s.lastSyncAt,
		Schedule:        s.cfg.Schedule,
		SyncCount:       s.syncCount,
		Month:           s.cursor.Window().String(),
		BackendHealthy:  s.backendHealthy,
		LastError:       s.lastError,
		EventCount:      len(s.events),
		SubscriberCount: len(s.subs),
	}
}

func (s *Service) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok\n"))
}

func (s *Service) handleStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.snapshotStatus())
}

func (s *Service) handleSnapshot(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.Snapshot())
}

func (s *Service) handleEvents(w http.ResponseWriter, _ *http.Request) {
	s.mu.RLock()
	events := make([]Event, len(s.events))
	copy(events, s.events)
	s.mu.RUnlock()

	writeJSON(w, http.StatusOK, events)
}

type monthResponse struct {
	Month   string `json:"month"`
	Start   string `json:"start"`
	End     string `json:"end"`
	Changed bool   `json:"changed"`
}

func (s *Service) handleMonthStep(w http.ResponseWriter, r *http.Request) {
	step := (*calendar.Cursor).Next
	if mux.Vars(r)["dir"] == "prev" {
		step = (*calendar.Cursor).Previous
	}
	window, moved := s.moveMonth(step)
	s.respondMonth(w, window, moved)
}

func (s *Service) handleMonthSeek(w http.ResponseWriter, r *http.Request) {
	label := mux.Vars(r)["label"]
	window, moved := s.moveMonth(func(c *calendar.Cursor) bool {
		return c.Seek(label)
	})
	if !moved && !strings.EqualFold(window.Label, label) {
		http.Error(w, "unknown month "+label, http.StatusNotFound)
		return
	}
	s.respondMonth(w, window, moved)
}

func (s *Service) respondMonth(w http.ResponseWriter, window model.MonthWindow, moved bool) {
	writeJSON(w, http.StatusOK, monthResponse{
		Month:   window.String(),
		Start:   window.StartDate(),
		End:     window.EndDate(),
		Changed: moved,
	})
}

func (s *Service) handleStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch := make(chan Event, 16)
	id := s.addSubscriber(ch)
	defer s.removeSubscriber(id)

	// Send current snapshot immediately.
	now := time.Now()
	current := Event{
		ID:        uuid.NewString(),
		Type:      "snapshot",
		Timestamp: now,
		Snapshot:  s.Snapshot(),
	}
	writeSSE(w, current)
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case ev := <-ch:
			writeSSE(w, ev)
			flusher.Flush()
		}
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeSSE(w http.ResponseWriter, ev Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		return
	}
	_, _ = fmt.Fprintf(w, "id: %s\n", ev.ID)
	_, _ = fmt.Fprintf(w, "event: %s\n", ev.Type)
	_, _ = fmt.Fprintf(w, "data: %s\n\n", data)
}

func (s *Service) addSubscriber(ch chan Event) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextSubID++
	id := s.nextSubID
	s.subs[id] = ch
	return id
}

func (s *Service) removeSubscriber(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.subs, id)
}

// cronLogger routes scheduler messages to zap.
type cronLogger struct {
	log *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.log.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.log.Errorw(msg, append(keysAndValues, "error", err)...)
}
