// Package journal records backend fetch outcomes in SQLite for diagnostics.
// It never stores financial data or chat text.
package journal

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/theirongolddev/fincoach/internal/gateway"

	_ "modernc.org/sqlite" // register sqlite driver
)

// timeLayout sorts lexically in time order, unlike RFC3339Nano which trims
// trailing zeros.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// Entry is one recorded backend call.
type Entry struct {
	ID        string
	At        time.Time
	Method    string
	Endpoint  string
	Query     string
	Status    int
	Duration  time.Duration
	ErrorKind string
	Error     string
}

// OK reports whether the call succeeded.
func (e Entry) OK() bool { return e.ErrorKind == "" }

// EndpointStats aggregates the calls made to one endpoint.
type EndpointStats struct {
	Endpoint    string
	Calls       int
	Failures    int
	AvgDuration time.Duration
	LastAt      time.Time
}

// Journal is a SQLite-backed fetch log.
type Journal struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens or creates the journal database at the given path.
func Open(dbPath string) (*Journal, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("creating journal dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=synchronous(normal)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening journal db: %w", err)
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &Journal{db: db, now: time.Now}, nil
}

// Close closes the journal database.
func (j *Journal) Close() error {
	return j.db.Close()
}

// Record stores one completed gateway call.
func (j *Journal) Record(ctx context.Context, call gateway.Call) (Entry, error) {
	e := Entry{
		ID:        uuid.NewString(),
		At:        j.now().UTC(),
		Method:    call.Method,
		Endpoint:  call.Endpoint,
		Query:     call.Query,
		Status:    call.Status,
		Duration:  call.Duration,
		ErrorKind: gateway.Kind(call.Err),
	}
	if call.Err != nil {
		e.Error = call.Err.Error()
	}

	_, err := j.db.ExecContext(ctx, `INSERT INTO fetches
		(id, at, method, endpoint, query, status, duration_ms, error_kind, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.At.Format(timeLayout), e.Method, e.Endpoint, e.Query,
		e.Status, e.Duration.Milliseconds(), e.ErrorKind, e.Error,
	)
	if err != nil {
		return Entry{}, fmt.Errorf("journal: recording %s: %w", call.Endpoint, err)
	}
	return e, nil
}

// Observer returns a gateway hook that records every call. Write failures
// are logged and otherwise ignored.
func (j *Journal) Observer(log *zap.Logger) gateway.Observer {
	return func(call gateway.Call) {
		if _, err := j.Record(context.Background(), call); err != nil {
			log.Warn("journal write failed", zap.String("endpoint", call.Endpoint), zap.Error(err))
		}
	}
}

// Recent returns up to limit entries, newest first. A non-empty endpoint
// restricts the result to that endpoint.
func (j *Journal) Recent(ctx context.Context, limit int, endpoint string) ([]Entry, error) {
	query := `SELECT id, at, method, endpoint, query, status, duration_ms, error_kind, error
		FROM fetches`
	var args []any
	if endpoint != "" {
		query += " WHERE endpoint = ?"
		args = append(args, endpoint)
	}
	query += " ORDER BY at DESC LIMIT ?"
	args = append(args, limit)

	rows, err := j.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []Entry
	for rows.Next() {
		var (
			e          Entry
			at         string
			q, kind, m sql.NullString
			status     sql.NullInt64
			durMs      int64
		)
		if err := rows.Scan(&e.ID, &at, &e.Method, &e.Endpoint, &q, &status, &durMs, &kind, &m); err != nil {
			return nil, err
		}
		e.At, _ = time.Parse(timeLayout, at)
		e.Query = q.String
		e.Status = int(status.Int64)
		e.Duration = time.Duration(durMs) * time.Millisecond
		e.ErrorKind = kind.String
		e.Error = m.String
		out = append(out, e)
	}
	return out, rows.Err()
}

// Stats aggregates calls per endpoint, busiest first.
func (j *Journal) Stats(ctx context.Context) ([]EndpointStats, error) {
	rows, err := j.db.QueryContext(ctx, `SELECT endpoint,
			COUNT(*),
			SUM(CASE WHEN error_kind IS NOT NULL AND error_kind != '' THEN 1 ELSE 0 END),
			AVG(duration_ms),
			MAX(at)
		FROM fetches
		GROUP BY endpoint
		ORDER BY COUNT(*) DESC, endpoint`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []EndpointStats
	for rows.Next() {
		var (
			s      EndpointStats
			avgMs  float64
			lastAt string
		)
		if err := rows.Scan(&s.Endpoint, &s.Calls, &s.Failures, &avgMs, &lastAt); err != nil {
			return nil, err
		}
		s.AvgDuration = time.Duration(avgMs * float64(time.Millisecond))
		s.LastAt, _ = time.Parse(timeLayout, lastAt)
		out = append(out, s)
	}
	return out, rows.Err()
}

// Prune deletes entries recorded before cutoff and returns how many went.
func (j *Journal) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := j.db.ExecContext(ctx, "DELETE FROM fetches WHERE at < ?", cutoff.UTC().Format(timeLayout))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
