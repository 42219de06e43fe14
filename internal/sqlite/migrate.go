package sqlite

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mesh-intelligence/stamped/pkg/types"
)

// checksum fingerprints a migration's statements.
func (m migration) checksum() string {
	sum := sha256.Sum256([]byte(strings.Join(m.statements, "\n")))
	return hex.EncodeToString(sum[:])
}

// Migrate brings the schema up to date. It creates the migration journal if
// needed and applies every migration not yet recorded there, each in its own
// transaction together with its journal row. It returns the ids applied by
// this call, which is empty when the schema was already current.
//
// Every failure wraps types.ErrMigrationFailed. An applied migration whose
// checksum no longer matches additionally wraps types.ErrMigrationChecksum.
func Migrate(ctx context.Context, db *sql.DB) ([]string, error) {
	applied, err := appliedMigrations(ctx, db)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", types.ErrMigrationFailed, err)
	}

	var ran []string
	for _, m := range migrations {
		if sum, ok := applied[m.id]; ok {
			if sum != m.checksum() {
				return ran, fmt.Errorf("%w: %w: %s", types.ErrMigrationFailed, types.ErrMigrationChecksum, m.id)
			}
			continue
		}
		if err := applyMigration(ctx, db, m); err != nil {
			return ran, fmt.Errorf("%w: applying %s: %w", types.ErrMigrationFailed, m.id, err)
		}
		slog.Debug("applied migration", "id", m.id)
		ran = append(ran, m.id)
	}
	return ran, nil
}

// PendingMigrations lists, in order, the migration ids not yet applied.
func PendingMigrations(ctx context.Context, db *sql.DB) ([]string, error) {
	applied, err := appliedMigrations(ctx, db)
	if err != nil {
		return nil, err
	}
	var pending []string
	for _, m := range migrations {
		if _, ok := applied[m.id]; !ok {
			pending = append(pending, m.id)
		}
	}
	return pending, nil
}

// appliedMigrations returns the journal as id -> checksum, creating the
// journal table on first use.
func appliedMigrations(ctx context.Context, db *sql.DB) (map[string]string, error) {
	if _, err := db.ExecContext(ctx, createMigrationJournal); err != nil {
		return nil, fmt.Errorf("creating migration journal: %w", err)
	}

	rows, err := db.QueryContext(ctx, "SELECT id, checksum FROM schema_migrations")
	if err != nil {
		return nil, fmt.Errorf("reading migration journal: %w", err)
	}
	defer rows.Close()

	applied := make(map[string]string)
	for rows.Next() {
		var id, sum string
		if err := rows.Scan(&id, &sum); err != nil {
			return nil, fmt.Errorf("scanning migration journal: %w", err)
		}
		applied[id] = sum
	}
	return applied, rows.Err()
}

func applyMigration(ctx context.Context, db *sql.DB, m migration) error {
	return inTx(ctx, db, func(tx *sql.Tx) error {
		for _, stmt := range m.statements {
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				return err
			}
		}
		_, err := tx.ExecContext(ctx,
			"INSERT INTO schema_migrations (id, checksum, applied_at) VALUES (?, ?, ?)",
			m.id, m.checksum(), formatTime(time.Now()))
		if err != nil {
			return fmt.Errorf("recording migration: %w", err)
		}
		return nil
	})
}

// MigrationStatus reports whether one known migration has been applied.
type MigrationStatus struct {
	ID        string     `json:"id"`
	AppliedAt *time.Time `json:"applied_at,omitempty"`
}

// Status lists every known migration in order with its applied time. Unlike
// Migrate it never writes: a database without a migration journal reports
// everything as pending.
func Status(ctx context.Context, db *sql.DB) ([]MigrationStatus, error) {
	var n int
	err := db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = 'schema_migrations'").Scan(&n)
	if err != nil {
		return nil, fmt.Errorf("checking migration journal: %w", err)
	}

	appliedAt := make(map[string]time.Time)
	if n > 0 {
		rows, err := db.QueryContext(ctx, "SELECT id, applied_at FROM schema_migrations")
		if err != nil {
			return nil, fmt.Errorf("reading migration journal: %w", err)
		}
		defer rows.Close()
		for rows.Next() {
			var id, at string
			if err := rows.Scan(&id, &at); err != nil {
				return nil, fmt.Errorf("scanning migration journal: %w", err)
			}
			t, err := parseTime(at)
			if err != nil {
				return nil, fmt.Errorf("parsing applied_at of %s: %w", id, err)
			}
			appliedAt[id] = t
		}
		if err := rows.Err(); err != nil {
			return nil, err
		}
	}

	out := make([]MigrationStatus, 0, len(migrations))
	for _, m := range migrations {
		s := MigrationStatus{ID: m.id}
		if t, ok := appliedAt[m.id]; ok {
			s.AppliedAt = &t
		}
		out = append(out, s)
	}
	return out, nil
}

// StatusAt reports migration status for the journal in dataDir without
// attaching to it. A missing database file reports every migration pending.
func StatusAt(ctx context.Context, dataDir string) ([]MigrationStatus, error) {
	path := filepath.Join(dataDir, DatabaseFile)
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		out := make([]MigrationStatus, 0, len(migrations))
		for _, m := range migrations {
			out = append(out, MigrationStatus{ID: m.id})
		}
		return out, nil
	}

	db, err := sql.Open("sqlite", dsn(path))
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()
	return Status(ctx, db)
}
