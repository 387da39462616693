// Package progress persists which tours a user has finished or skipped.
//
// SQLiteStore is the durable implementation used by the CLI. MemoryStore
// serves tests and read-only environments.
package progress

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/vanderheijden86/guidepost/pkg/debug"
	"github.com/vanderheijden86/guidepost/pkg/tour"
)

// Record is the latest outcome for one page.
type Record struct {
	PageKey     string       `json:"page_key"`
	Outcome     tour.Outcome `json:"outcome"`
	StepsViewed int          `json:"steps_viewed"`
	RunID       string       `json:"run_id"`
	UpdatedAt   time.Time    `json:"updated_at"`
	Resets      int          `json:"resets,omitempty"`
}

// Run is one recorded tour outcome.
type Run struct {
	ID          string       `json:"id"`
	RunID       string       `json:"run_id"`
	PageKey     string       `json:"page_key"`
	Outcome     tour.Outcome `json:"outcome"`
	StepsViewed int          `json:"steps_viewed"`
	RecordedAt  time.Time    `json:"recorded_at"`
}

// Store is a tour.ProgressStore that can also list what it holds.
type Store interface {
	tour.ProgressStore
	List(ctx context.Context) ([]Record, error)
	Close() error
}

// SQLiteStore keeps progress in a SQLite database.
type SQLiteStore struct {
	db   *sql.DB
	path string
	now  func() time.Time
}

var _ Store = (*SQLiteStore)(nil)

// Open opens (creating if needed) the progress database at path and
// applies migrations. ":memory:" gives a private in-memory database.
func Open(path string) (*SQLiteStore, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create progress dir: %w", err)
		}
	}
	dsn := path
	if path != ":memory:" {
		dsn = fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", path)
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open progress database: %w", err)
	}
	// One writer; also keeps ":memory:" on a single connection.
	db.SetMaxOpenConns(1)

	if err := Migrate(db); err != nil {
		db.Close()
		return nil, err
	}
	debug.Log("progress: opened %s", path)
	return &SQLiteStore{db: db, path: path, now: time.Now}, nil
}

// Path returns the database path.
func (s *SQLiteStore) Path() string { return s.path }

// Close closes the database.
func (s *SQLiteStore) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// HasCompleted reports whether the page's tour was completed or skipped.
func (s *SQLiteStore) HasCompleted(ctx context.Context, pageKey string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM tour_progress WHERE page_key = ?`, pageKey).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("query progress: %w", err)
	}
	return n > 0, nil
}

// ResetProgress forgets the page's outcome. Run history is kept.
func (s *SQLiteStore) ResetProgress(ctx context.Context, pageKey string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin reset: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM tour_progress WHERE page_key = ?`, pageKey); err != nil {
		return fmt.Errorf("reset progress: %w", err)
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO tour_resets (page_key, count, last_at) VALUES (?, 1, ?)
		ON CONFLICT(page_key) DO UPDATE SET count = count + 1, last_at = excluded.last_at`,
		pageKey, s.now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("count reset: %w", err)
	}
	return tx.Commit()
}

// RecordOutcome stores the outcome as the page's latest and appends it to
// the run history.
func (s *SQLiteStore) RecordOutcome(ctx context.Context, pageKey string, stepsViewed int, outcome tour.Outcome) error {
	now := s.now().UTC().Format(time.RFC3339Nano)
	id := uuid.NewString()
	runID := runIDFrom(ctx)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin record: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO tour_progress (page_key, outcome, steps_viewed, run_id, updated_at) VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(page_key) DO UPDATE SET
			outcome = excluded.outcome,
			steps_viewed = excluded.steps_viewed,
			run_id = excluded.run_id,
			updated_at = excluded.updated_at`,
		pageKey, string(outcome), stepsViewed, runID, now)
	if err != nil {
		return fmt.Errorf("record progress: %w", err)
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO tour_runs (id, run_id, page_key, outcome, steps_viewed, recorded_at) VALUES (?, ?, ?, ?, ?, ?)`,
		id, runID, pageKey, string(outcome), stepsViewed, now)
	if err != nil {
		return fmt.Errorf("record run: %w", err)
	}
	return tx.Commit()
}

// List returns the latest outcome of every page that has one, plus reset
// counts, ordered by page key.
func (s *SQLiteStore) List(ctx context.Context) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT p.page_key, p.outcome, p.steps_viewed, p.run_id, p.updated_at, COALESCE(r.count, 0)
		FROM tour_progress p
		LEFT JOIN tour_resets r ON r.page_key = p.page_key
		ORDER BY p.page_key`)
	if err != nil {
		return nil, fmt.Errorf("list progress: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var rec Record
		var outcome, updated string
		if err := rows.Scan(&rec.PageKey, &outcome, &rec.StepsViewed, &rec.RunID, &updated, &rec.Resets); err != nil {
			return nil, fmt.Errorf("scan progress: %w", err)
		}
		rec.Outcome = tour.Outcome(outcome)
		rec.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updated)
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Runs returns the recorded history for pageKey, oldest first. An empty
// key returns every run.
func (s *SQLiteStore) Runs(ctx context.Context, pageKey string) ([]Run, error) {
	query := `SELECT id, run_id, page_key, outcome, steps_viewed, recorded_at FROM tour_runs`
	var args []any
	if pageKey != "" {
		query += ` WHERE page_key = ?`
		args = append(args, pageKey)
	}
	query += ` ORDER BY recorded_at, id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		var r Run
		var outcome, at string
		if err := rows.Scan(&r.ID, &r.RunID, &r.PageKey, &outcome, &r.StepsViewed, &at); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		r.Outcome = tour.Outcome(outcome)
		r.RecordedAt, _ = time.Parse(time.RFC3339Nano, at)
		out = append(out, r)
	}
	return out, rows.Err()
}

// runIDFrom returns the tour run id carried by ctx. Outcomes recorded
// outside a tour run (the CLI, tests) get a fresh id.
func runIDFrom(ctx context.Context) string {
	if id, ok := tour.RunIDFromContext(ctx); ok {
		return id
	}
	return uuid.NewString()
}

// MemoryStore is an in-process Store.
type MemoryStore struct {
	mu      sync.Mutex
	records map[string]Record
	resets  map[string]int
	now     func() time.Time
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]Record), resets: make(map[string]int), now: time.Now}
}

func (m *MemoryStore) HasCompleted(_ context.Context, pageKey string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.records[pageKey]
	return ok, nil
}

func (m *MemoryStore) ResetProgress(_ context.Context, pageKey string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.records, pageKey)
	m.resets[pageKey]++
	return nil
}

func (m *MemoryStore) RecordOutcome(ctx context.Context, pageKey string, stepsViewed int, outcome tour.Outcome) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[pageKey] = Record{
		PageKey:     pageKey,
		Outcome:     outcome,
		StepsViewed: stepsViewed,
		RunID:       runIDFrom(ctx),
		UpdatedAt:   m.now().UTC(),
	}
	return nil
}

func (m *MemoryStore) List(_ context.Context) ([]Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Record, 0, len(m.records))
	for _, r := range m.records {
		r.Resets = m.resets[r.PageKey]
		out = append(out, r)
	}
	sortRecords(out)
	return out, nil
}

// Close is a no-op.
func (m *MemoryStore) Close() error { return nil }
