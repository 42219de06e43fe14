package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	moderncsqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/mesh-intelligence/stamped/pkg/types"
)

// querier is satisfied by both *sql.DB and *sql.Tx. Helpers that run inside
// a transaction take a querier so they never reach past the transaction to
// the pool, which holds a single connection.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// inTx runs fn inside a transaction and commits when fn returns nil.
func inTx(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// classify maps SQLite constraint failures to ErrConstraintViolation and
// leaves every other error untouched.
func classify(err error) error {
	if err == nil {
		return nil
	}
	var se *moderncsqlite.Error
	if errors.As(err, &se) && se.Code()&0xff == sqlite3.SQLITE_CONSTRAINT {
		return fmt.Errorf("%w: %v", types.ErrConstraintViolation, err)
	}
	return err
}

// requireAffected returns ErrNotFound when res touched no rows.
func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("reading rows affected: %w", err)
	}
	if n == 0 {
		return types.ErrNotFound
	}
	return nil
}

// formatTime renders timestamps the way every table stores them.
func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}

// nullable converts an optional value to a driver argument.
func nullable[T any](p *T) any {
	if p == nil {
		return nil
	}
	return *p
}

// ptrOf converts a scanned nullable column to an optional value.
func ptrOf[T any](n sql.Null[T]) *T {
	if !n.Valid {
		return nil
	}
	v := n.V
	return &v
}

// placeholders returns "?, ?, ?" with n markers.
func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

// int64Args converts ids to driver arguments.
func int64Args(ids []int64) []any {
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return args
}

// validID returns ErrInvalidID for non-positive identifiers.
func validID(id int64) error {
	if id <= 0 {
		return types.ErrInvalidID
	}
	return nil
}
