package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"

	"github.com/abustosp/app-presupuesto/internal/core/domain"
)

// timeLayout is fixed-width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS budgets (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL,
	timestamp  INTEGER NOT NULL,
	state      TEXT NOT NULL,
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_budgets_timestamp ON budgets (timestamp);
`

// SQLiteConfig configures an SQLite-backed table.
type SQLiteConfig struct {
	// Path is the database file, or ":memory:".
	Path string

	// BusyTimeout is how long a writer waits for the database lock.
	// Default: 5s
	BusyTimeout time.Duration
}

// SQLiteTable implements Table on a single SQLite table.
type SQLiteTable struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewSQLiteTable opens the database, creating its parent directory and the
// schema when missing.
func NewSQLiteTable(ctx context.Context, cfg SQLiteConfig, logger *slog.Logger) (*SQLiteTable, error) {
	path := strings.TrimSpace(cfg.Path)
	if path == "" {
		return nil, fmt.Errorf("sqlite: path is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	busy := cfg.BusyTimeout
	if busy <= 0 {
		busy = 5 * time.Second
	}

	inMemory := path == ":memory:"
	if !inMemory {
		path = filepath.Clean(path)
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o750); err != nil {
				return nil, fmt.Errorf("sqlite: create data dir: %w", err)
			}
		}
	}

	dsn := fmt.Sprintf("%s?_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_pragma=busy_timeout(%d)&_txlock=immediate",
		path, busy.Milliseconds())
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open: %w", err)
	}
	if inMemory {
		// Every connection would otherwise see its own empty database.
		db.SetMaxOpenConns(1)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite: ping: %w", err)
	}
	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite: create schema: %w", err)
	}

	logger.Info("sqlite table opened", "path", path)
	return &SQLiteTable{db: db, logger: logger}, nil
}

// Insert stores a new record. An existing id yields ErrRecordConflict.
func (t *SQLiteTable) Insert(ctx context.Context, b *domain.Budget) error {
	rec, err := NewRecord(b)
	if err != nil {
		return err
	}

	return t.inTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO budgets (id, name, timestamp, state, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			rec.ID, rec.Name, rec.Timestamp, rec.State,
			formatTime(rec.CreatedAt), formatTime(rec.UpdatedAt),
		)
		if err != nil {
			if isUniqueViolation(err) {
				return ErrRecordConflict
			}
			return fmt.Errorf("insert budget: %w", err)
		}
		return nil
	})
}

// Get retrieves a record by id.
func (t *SQLiteTable) Get(ctx context.Context, id string) (*domain.Budget, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	row := t.db.QueryRowContext(ctx,
		`SELECT id, name, timestamp, state, created_at, updated_at
		   FROM budgets
		  WHERE id = ?`, id)
	rec, err := scanRecord(row)
	if err != nil {
		return nil, err
	}
	return rec.Budget()
}

// Update applies mutate to the stored record and writes it back in the same
// transaction.
func (t *SQLiteTable) Update(ctx context.Context, id string, mutate func(*domain.Budget)) (*domain.Budget, error) {
	var result *domain.Budget
	err := t.inTx(ctx, func(tx *sql.Tx) error {
		row := tx.QueryRowContext(ctx,
			`SELECT id, name, timestamp, state, created_at, updated_at
			   FROM budgets
			  WHERE id = ?`, id)
		prev, err := scanRecord(row)
		if err != nil {
			return err
		}
		budget, err := prev.Budget()
		if err != nil {
			return err
		}

		mutate(budget)
		budget.ID = prev.ID
		budget.CreatedAt = prev.CreatedAt

		next, err := NewRecord(budget)
		if err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx,
			`UPDATE budgets
			    SET name = ?, timestamp = ?, state = ?, updated_at = ?
			  WHERE id = ?`,
			next.Name, next.Timestamp, next.State, formatTime(next.UpdatedAt), next.ID,
		)
		if err != nil {
			return fmt.Errorf("update budget: %w", err)
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			return domain.ErrBudgetNotFound
		}
		result = budget
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Delete removes a record permanently.
func (t *SQLiteTable) Delete(ctx context.Context, id string) error {
	return t.inTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `DELETE FROM budgets WHERE id = ?`, id)
		if err != nil {
			return fmt.Errorf("delete budget: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("delete budget: %w", err)
		}
		if n == 0 {
			return domain.ErrBudgetNotFound
		}
		return nil
	})
}

// List returns summaries in list order.
func (t *SQLiteTable) List(ctx context.Context) ([]domain.Summary, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	rows, err := t.db.QueryContext(ctx,
		`SELECT id, name, timestamp, created_at, updated_at
		   FROM budgets
		  ORDER BY timestamp DESC, created_at DESC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}
	defer rows.Close()

	items := []domain.Summary{}
	for rows.Next() {
		var (
			s                  domain.Summary
			createdAt, updated string
		)
		if err := rows.Scan(&s.ID, &s.Name, &s.Timestamp, &createdAt, &updated); err != nil {
			return nil, fmt.Errorf("scan budget: %w", err)
		}
		if s.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, err
		}
		if s.UpdatedAt, err = parseTime(updated); err != nil {
			return nil, err
		}
		items = append(items, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}
	return items, nil
}

// Ping checks the database connection.
func (t *SQLiteTable) Ping(ctx context.Context) error {
	return t.db.PingContext(ctx)
}

// Close closes the database handle.
func (t *SQLiteTable) Close() error {
	if t == nil || t.db == nil {
		return nil
	}
	t.logger.Info("closing sqlite table")
	return t.db.Close()
}

// inTx runs fn inside a transaction. The transaction is rolled back on every
// path that does not reach Commit.
func (t *SQLiteTable) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	tx, err := t.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (Record, error) {
	var (
		rec                Record
		createdAt, updated string
	)
	if err := row.Scan(&rec.ID, &rec.Name, &rec.Timestamp, &rec.State, &createdAt, &updated); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Record{}, domain.ErrBudgetNotFound
		}
		return Record{}, fmt.Errorf("scan budget: %w", err)
	}

	var err error
	if rec.CreatedAt, err = parseTime(createdAt); err != nil {
		return Record{}, err
	}
	if rec.UpdatedAt, err = parseTime(updated); err != nil {
		return Record{}, err
	}
	return rec, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		// Rows written by other tools may carry any RFC 3339 form.
		t, err = time.Parse(time.RFC3339Nano, s)
		if err != nil {
			return time.Time{}, fmt.Errorf("parse stored time %q: %w", s, err)
		}
	}
	return t.UTC(), nil
}

func isUniqueViolation(err error) bool {
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3lib.SQLITE_CONSTRAINT_UNIQUE:
			return true
		}
	}
	return strings.Contains(strings.ToLower(err.Error()), "unique constraint failed")
}
