package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/stamped/pkg/types"
)

func ptr[T any](v T) *T { return &v }

// attachTestBackend attaches a fresh journal in a temp directory.
func attachTestBackend(t *testing.T) *Backend {
	t.Helper()
	b := NewBackend()
	require.NoError(t, b.Attach(types.Config{Backend: types.BackendSQLite, DataDir: t.TempDir()}))
	t.Cleanup(func() { b.Detach() })
	return b
}

// openTestDB opens a bare database the way Attach does, without migrating.
func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", dsn(filepath.Join(t.TempDir(), DatabaseFile)))
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	return db
}

// frozenClock pins the backend clock so timestamp ordering is deterministic.
func frozenClock(b *Backend, at time.Time) {
	b.now = func() time.Time { return at }
}

func mustPlace(t *testing.T, b *Backend, name string, categoryID *int64) *types.Place {
	t.Helper()
	p, err := b.Places().Insert(context.Background(), types.PlaceInput{
		Name:       name,
		Latitude:   52.37,
		Longitude:  4.89,
		CategoryID: categoryID,
	})
	require.NoError(t, err)
	return p
}

func mustVisit(t *testing.T, b *Backend, in types.VisitInput) *types.Visit {
	t.Helper()
	v, err := b.Visits().Insert(context.Background(), in)
	require.NoError(t, err)
	return v
}

// mustPhoto writes a placeholder file into the photo directory and records it.
func mustPhoto(t *testing.T, b *Backend, visitID int64, name string) *types.Photo {
	t.Helper()
	require.NoError(t, os.MkdirAll(b.photos.Dir(), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(b.photos.Dir(), name), []byte("jpeg"), 0o644))
	p, err := b.Photos().Insert(context.Background(), visitID, name)
	require.NoError(t, err)
	return p
}

func photoPath(b *Backend, uri string) string {
	return b.photos.Resolver().Resolve(uri)
}

// countRows counts rows of table whose column equals id.
func countRows(t *testing.T, b *Backend, table, column string, id int64) int {
	t.Helper()
	var n int
	require.NoError(t, b.db.QueryRow(
		"SELECT COUNT(*) FROM "+table+" WHERE "+column+" = ?", id).Scan(&n))
	return n
}

func TestBackend_Attach(t *testing.T) {
	tmpDir := t.TempDir()

	b := NewBackend()
	config := types.Config{Backend: types.BackendSQLite, DataDir: tmpDir}

	if err := b.Attach(config); err != nil {
		t.Fatalf("Attach failed: %v", err)
	}
	defer b.Detach()

	if _, err := os.Stat(filepath.Join(tmpDir, DatabaseFile)); os.IsNotExist(err) {
		t.Errorf("%s not created", DatabaseFile)
	}
	if _, err := os.Stat(filepath.Join(tmpDir, types.DefaultPhotoDirName)); !os.IsNotExist(err) {
		t.Errorf("photo directory should be created lazily, stat err = %v", err)
	}

	if err := b.Attach(config); err != types.ErrAlreadyAttached {
		t.Errorf("expected ErrAlreadyAttached, got %v", err)
	}
}

func TestBackend_AttachInvalidConfig(t *testing.T) {
	b := NewBackend()
	err := b.Attach(types.Config{DataDir: t.TempDir()})
	assert.ErrorIs(t, err, types.ErrBackendEmpty)

	_, err = b.Categories().GetAll(context.Background())
	assert.ErrorIs(t, err, types.ErrJournalDetached)
}

func TestBackend_Detach(t *testing.T) {
	b := NewBackend()
	if err := b.Attach(types.Config{Backend: types.BackendSQLite, DataDir: t.TempDir()}); err != nil {
		t.Fatalf("Attach failed: %v", err)
	}

	if err := b.Detach(); err != nil {
		t.Fatalf("Detach failed: %v", err)
	}
	if err := b.Detach(); err != nil {
		t.Errorf("second Detach should not error, got %v", err)
	}

	ctx := context.Background()
	_, err := b.Places().GetAll(ctx)
	assert.ErrorIs(t, err, types.ErrJournalDetached)
	_, err = b.Stats().Overall(ctx, types.DateRange{})
	assert.ErrorIs(t, err, types.ErrJournalDetached)
	assert.ErrorIs(t, b.DeleteVisitCascade(ctx, 1), types.ErrJournalDetached)
	_, err = b.SweepOrphanPlaces(ctx)
	assert.ErrorIs(t, err, types.ErrJournalDetached)
	_, err = b.MigrationStatus(ctx)
	assert.ErrorIs(t, err, types.ErrJournalDetached)
}

func TestBackend_ReattachKeepsData(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	config := types.Config{Backend: types.BackendSQLite, DataDir: dir}

	b := NewBackend()
	require.NoError(t, b.Attach(config))
	p := mustPlace(t, b, "Corner Bakery", nil)
	require.NoError(t, b.Detach())

	b2 := NewBackend()
	require.NoError(t, b2.Attach(config))
	defer b2.Detach()

	got, err := b2.Places().GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Corner Bakery", got.Name)

	cats, err := b2.Categories().GetAll(ctx)
	require.NoError(t, err)
	assert.Len(t, cats, len(defaultCategories), "reattach must not reseed")
}

func TestBackend_AttachFailsOnTamperedMigration(t *testing.T) {
	dir := t.TempDir()
	config := types.Config{Backend: types.BackendSQLite, DataDir: dir}

	b := NewBackend()
	require.NoError(t, b.Attach(config))
	_, err := b.db.Exec("UPDATE schema_migrations SET checksum = 'edited' WHERE id = ?", migrations[1].id)
	require.NoError(t, err)
	require.NoError(t, b.Detach())

	err = b.Attach(config)
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrMigrationFailed)
	assert.ErrorIs(t, err, types.ErrMigrationChecksum)

	_, err = b.Visits().GetByID(context.Background(), 1)
	assert.True(t, errors.Is(err, types.ErrJournalDetached), "journal must stay detached, got %v", err)
}

func TestBackend_ForeignKeysEnforced(t *testing.T) {
	b := attachTestBackend(t)

	_, err := b.Visits().Insert(context.Background(), types.VisitInput{PlaceID: 999, Date: "2024-01-01"})
	assert.ErrorIs(t, err, types.ErrConstraintViolation)
}
