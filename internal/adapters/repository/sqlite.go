package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/okian/fundineed/internal/domain/analytics"
	"github.com/okian/fundineed/internal/domain/model"
	"github.com/okian/fundineed/pkg/logger"
	"github.com/okian/fundineed/pkg/metrics"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// SQLiteStore persists collections in a single SQLite file. Records are
// stored as JSON payloads next to the columns the back-office filters on.
type SQLiteStore struct {
	db          *sql.DB
	dbPath      string
	busyTimeout time.Duration
	journalMode string
	logger      logger.Logger
}

var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore opens (creating if needed) the database at dbPath. Call
// Migrate before use.
func NewSQLiteStore(dbPath string, opts ...Option) (*SQLiteStore, error) {
	if dbPath == "" {
		return nil, errors.New("dbPath is required")
	}

	s := &SQLiteStore{
		dbPath:      dbPath,
		busyTimeout: defaultBusyTimeout,
		journalMode: defaultJournalMode,
		logger:      logger.Get().Named("sqlite"),
	}
	for _, opt := range opts {
		opt(s)
	}

	if err := os.MkdirAll(filepath.Dir(dbPath), 0o750); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	dsn := fmt.Sprintf("%s?_journal_mode=%s&_busy_timeout=%d", dbPath, s.journalMode, s.busyTimeout.Milliseconds())
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// One connection serializes writers and keeps WAL simple.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s.db = db
	return s, nil
}

// Ping checks that the database is reachable.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) insertPayload(ctx context.Context, table, id string, v any, createdAt time.Time) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", table, err)
	}
	q := fmt.Sprintf("INSERT INTO %s (id, payload, created_at) VALUES (?, ?, ?)", table) //nolint:gosec // table is a package constant
	if _, err := s.db.ExecContext(ctx, q, id, string(payload), createdAt.UTC()); err != nil {
		return fmt.Errorf("insert %s: %w", table, err)
	}
	s.updateRecordGauge(ctx, table)
	return nil
}

func (s *SQLiteStore) updateRecordGauge(ctx context.Context, table string) {
	var n int
	q := fmt.Sprintf("SELECT COUNT(*) FROM %s", table) //nolint:gosec // table is a package constant
	if err := s.db.QueryRowContext(ctx, q).Scan(&n); err == nil {
		metrics.UpdateRepositoryRecords(table, n)
	}
}

// listPayloads decodes the newest limit rows of table into T.
func listPayloads[T any](ctx context.Context, db *sql.DB, table string, limit int) ([]T, error) {
	if err := checkLimit(limit); err != nil {
		return nil, err
	}
	q := fmt.Sprintf("SELECT payload FROM %s ORDER BY seq DESC LIMIT ?", table) //nolint:gosec // table is a package constant
	rows, err := db.QueryContext(ctx, q, limit)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", table, err)
	}
	defer func() { _ = rows.Close() }()

	out := make([]T, 0, limit)
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan %s: %w", table, err)
		}
		var v T
		if err := json.Unmarshal([]byte(payload), &v); err != nil {
			return nil, fmt.Errorf("decode %s: %w", table, err)
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s: %w", table, err)
	}
	return out, nil
}

func (s *SQLiteStore) SaveEligibilityCheck(ctx context.Context, c model.EligibilityCheck) error {
	defer observe("save_eligibility_check", time.Now())
	payload, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("encode eligibility check: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO eligibility_checks (id, score, tier, payload, created_at) VALUES (?, ?, ?, ?, ?)`,
		c.ID, c.Result.Score, string(c.Result.Tier), string(payload), c.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("insert eligibility check: %w", err)
	}
	s.updateRecordGauge(ctx, collectionEligibility)
	return nil
}

func (s *SQLiteStore) ListEligibilityChecks(ctx context.Context, limit int) ([]model.EligibilityCheck, error) {
	defer observe("list_eligibility_checks", time.Now())
	return listPayloads[model.EligibilityCheck](ctx, s.db, collectionEligibility, limit)
}

func (s *SQLiteStore) SaveEMICalculation(ctx context.Context, c model.EMICalculation) error {
	defer observe("save_emi_calculation", time.Now())
	return s.insertPayload(ctx, collectionEMI, c.ID, c, c.CreatedAt)
}

func (s *SQLiteStore) ListEMICalculations(ctx context.Context, limit int) ([]model.EMICalculation, error) {
	defer observe("list_emi_calculations", time.Now())
	return listPayloads[model.EMICalculation](ctx, s.db, collectionEMI, limit)
}

func (s *SQLiteStore) SaveApplication(ctx context.Context, a model.Application) error { //nolint:gocritic // hugeParam: encoded by value
	defer observe("save_application", time.Now())
	payload, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("encode application: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO applications (id, status, payload, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		a.ID, string(a.Status), string(payload), a.CreatedAt.UTC(), a.UpdatedAt.UTC())
	if err != nil {
		if exists, _ := s.applicationExists(ctx, a.ID); exists {
			return fmt.Errorf("%w: %s", ErrDuplicateID, a.ID)
		}
		return fmt.Errorf("insert application: %w", err)
	}
	s.updateRecordGauge(ctx, collectionApplications)
	return nil
}

func (s *SQLiteStore) applicationExists(ctx context.Context, id string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM applications WHERE id = ?`, id).Scan(&n)
	return n > 0, err
}

type rowQuerier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func getApplication(ctx context.Context, q rowQuerier, id string) (model.Application, error) {
	var payload string
	err := q.QueryRowContext(ctx, `SELECT payload FROM applications WHERE id = ?`, id).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Application{}, fmt.Errorf("application %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return model.Application{}, fmt.Errorf("query application: %w", err)
	}
	var a model.Application
	if err := json.Unmarshal([]byte(payload), &a); err != nil {
		return model.Application{}, fmt.Errorf("decode application: %w", err)
	}
	return a, nil
}

func (s *SQLiteStore) GetApplication(ctx context.Context, id string) (model.Application, error) {
	defer observe("get_application", time.Now())
	return getApplication(ctx, s.db, id)
}

func (s *SQLiteStore) ListApplications(ctx context.Context, limit int) ([]model.Application, error) {
	defer observe("list_applications", time.Now())
	return listPayloads[model.Application](ctx, s.db, collectionApplications, limit)
}

func (s *SQLiteStore) UpdateApplicationStatus(ctx context.Context, id string, next model.Status, at time.Time) (model.Application, error) {
	defer observe("update_application_status", time.Now())

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return model.Application{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	a, err := getApplication(ctx, tx, id)
	if err != nil {
		return model.Application{}, err
	}
	if err := transition(&a, next, at); err != nil {
		return model.Application{}, err
	}

	payload, err := json.Marshal(a)
	if err != nil {
		return model.Application{}, fmt.Errorf("encode application: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE applications SET status = ?, payload = ?, updated_at = ? WHERE id = ?`,
		string(a.Status), string(payload), a.UpdatedAt.UTC(), id); err != nil {
		return model.Application{}, fmt.Errorf("update application: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return model.Application{}, fmt.Errorf("commit status update: %w", err)
	}
	return a, nil
}

func (s *SQLiteStore) SaveEnquiry(ctx context.Context, e model.Enquiry) error {
	defer observe("save_enquiry", time.Now())
	return s.insertPayload(ctx, collectionEnquiries, e.ID, e, e.CreatedAt)
}

func (s *SQLiteStore) ListEnquiries(ctx context.Context, limit int) ([]model.Enquiry, error) {
	defer observe("list_enquiries", time.Now())
	return listPayloads[model.Enquiry](ctx, s.db, collectionEnquiries, limit)
}

// RecordEvent inserts e, ignoring an event id that was already stored.
func (s *SQLiteStore) RecordEvent(ctx context.Context, e analytics.Event) error {
	defer observe("record_event", time.Now())
	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO events (event_id, session_id, kind, path, label, ts) VALUES (?, ?, ?, ?, ?, ?)`,
		e.EventID, e.SessionID, string(e.Kind), e.Path, e.Label, e.TS.UTC())
	if err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Counters(ctx context.Context) (analytics.Counters, error) {
	defer observe("counters", time.Now())
	c := analytics.NewCounters()

	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COUNT(DISTINCT session_id) FROM events`).Scan(&c.Total, &c.Sessions); err != nil {
		return c, fmt.Errorf("count events: %w", err)
	}

	if err := s.groupCount(ctx, `SELECT kind, COUNT(*) FROM events GROUP BY kind`, func(k string, n int64) {
		c.ByKind[analytics.Kind(k)] = n
	}); err != nil {
		return c, err
	}
	if err := s.groupCount(ctx, `SELECT path, COUNT(*) FROM events WHERE path <> '' GROUP BY path`, func(p string, n int64) {
		c.ByPath[p] = n
	}); err != nil {
		return c, err
	}
	return c, nil
}

func (s *SQLiteStore) groupCount(ctx context.Context, q string, fn func(string, int64)) error {
	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return fmt.Errorf("group events: %w", err)
	}
	defer func() { _ = rows.Close() }()
	for rows.Next() {
		var key string
		var n int64
		if err := rows.Scan(&key, &n); err != nil {
			return fmt.Errorf("scan group: %w", err)
		}
		fn(key, n)
	}
	return rows.Err()
}

func (s *SQLiteStore) Count(ctx context.Context) (Totals, error) {
	var t Totals
	err := s.db.QueryRowContext(ctx, `SELECT
		(SELECT COUNT(*) FROM eligibility_checks),
		(SELECT COUNT(*) FROM emi_calculations),
		(SELECT COUNT(*) FROM applications),
		(SELECT COUNT(*) FROM enquiries),
		(SELECT COUNT(*) FROM events)`).
		Scan(&t.EligibilityChecks, &t.EMICalculations, &t.Applications, &t.Enquiries, &t.Events)
	if err != nil {
		return Totals{}, fmt.Errorf("count records: %w", err)
	}
	return t, nil
}
