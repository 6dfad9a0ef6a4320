/*
Package sqlite provides the SQLite-backed engine.Store.

PURPOSE:
  Persists every record the policy engine reads or writes: the append-only
  entry ledger, products, rate tables, holders, underwriting, premium
  ledgers, loans, claims and agents. Rate tables double as a
  ratetable.Source so lookups inside a transaction see uncommitted rows.

INTERFACES IMPLEMENTED:
  generic.Store:     Append-only entry ledger
  ratetable.Source:  Band lookups over the stored rate tables
  engine.Repos:      Record repositories
  engine.Store:      Repos plus WithTx

APPEND-ONLY ENFORCEMENT:
  - No UPDATE or DELETE statements on the entries table
  - Idempotency keys are UNIQUE; a repeat maps to ErrDuplicateIdempotencyKey

OPTIMISTIC LOCKING:
  premium_ledgers and loans carry a version column. Updates match on the
  version the caller read and increment it; zero affected rows on an
  existing record is ErrConcurrencyConflict.

CONNECTIONS:
  The pool is capped at one connection, so transactions are serialized.
  Inside WithTx only the Repos passed to fn may be used: a read through the
  outer Store would wait for the connection the transaction holds.

USAGE:
  store, err := sqlite.New("./data/policy.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

  eng := engine.New(store, 0, logger)

SEE ALSO:
  - schema.go: Table definitions
  - engine/store.go: Interface definitions
  - generic/store/memory.go: In-memory entry store for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/warp/policy-engine/engine"
	"github.com/warp/policy-engine/generic"
)

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// repo implements engine.Repos over a querier.
type repo struct {
	q querier
}

// Store implements engine.Store using SQLite.
type Store struct {
	repo
	db *sql.DB
}

var _ engine.Store = (*Store)(nil)

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One connection keeps ":memory:" databases alive and serializes writers.
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(0)

	store := &Store{repo: repo{q: db}, db: db}
	if err := store.migrate(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, schema)
	return err
}

// Ping reports whether the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// =============================================================================
// TRANSACTIONS
// =============================================================================

// WithTx executes fn within a database transaction. Any error rolls back
// every write fn made.
func (s *Store) WithTx(ctx context.Context, fn func(tx engine.Repos) error) error {
	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	if err := fn(&repo{q: sqlTx}); err != nil {
		return err
	}

	if err := sqlTx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// =============================================================================
// HELPERS
// =============================================================================

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

// dateArg stores a zero date as NULL.
func dateArg(d generic.Date) any {
	if d.IsZero() {
		return nil
	}
	return d.String()
}

// dateCol scans a TEXT date column; NULL leaves the zero date.
type dateCol struct {
	d *generic.Date
}

func (c dateCol) Scan(src any) error {
	var s string
	switch v := src.(type) {
	case nil:
		*c.d = generic.Date{}
		return nil
	case string:
		s = v
	case []byte:
		s = string(v)
	case time.Time:
		*c.d = generic.DateOf(v)
		return nil
	default:
		return fmt.Errorf("cannot scan %T into date", src)
	}
	if s == "" {
		*c.d = generic.Date{}
		return nil
	}
	if len(s) > len(generic.DateLayout) {
		s = s[:len(generic.DateLayout)]
	}
	d, err := generic.ParseDate(s)
	if err != nil {
		return err
	}
	*c.d = d
	return nil
}

func notFound(kind, id string) error {
	return &generic.NotFoundError{Kind: kind, ID: id}
}

// one maps sql.ErrNoRows to a NotFoundError.
func one(err error, kind, id string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return notFound(kind, id)
	}
	if err != nil {
		return fmt.Errorf("failed to load %s %s: %w", kind, id, err)
	}
	return nil
}

func isUniqueConstraintError(err error) bool {
	return err != nil && (strings.Contains(err.Error(), "UNIQUE constraint failed") ||
		strings.Contains(err.Error(), "PRIMARY KEY"))
}

// casResult interprets the affected rows of a versioned update.
func (r *repo) casResult(ctx context.Context, res sql.Result, table, keyCol, kind, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 1 {
		return nil
	}
	var exists int
	if err := r.q.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+table+" WHERE "+keyCol+" = ?", id).Scan(&exists); err != nil {
		return err
	}
	if exists == 0 {
		return notFound(kind, id)
	}
	return fmt.Errorf("%s %s: %w", kind, id, generic.ErrConcurrencyConflict)
}
