package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/mesh-intelligence/stamped/internal/photos"
	"github.com/mesh-intelligence/stamped/pkg/types"
)

// Backend implements types.Journal on a single SQLite database file.
type Backend struct {
	mu       sync.RWMutex
	attached bool
	config   types.Config
	db       *sql.DB
	photos   *photos.Store

	// now stamps created_at and updated_at; tests replace it.
	now func() time.Time
}

// NewBackend creates a new SQLite backend instance.
// The backend is not attached; call Attach with a Config to initialize.
func NewBackend() *Backend {
	return &Backend{now: time.Now}
}

// dsn enables foreign keys on every connection the driver opens.
func dsn(path string) string {
	return "file:" + path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
}

// Attach opens the journal in config.DataDir, applies pending migrations and
// seeds the default categories. When migration or seeding fails the database
// is closed again and the backend stays detached.
// Returns ErrAlreadyAttached if already attached.
func (b *Backend) Attach(config types.Config) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.attached {
		return types.ErrAlreadyAttached
	}
	if err := config.Validate(); err != nil {
		return err
	}

	dataDir := config.DataDir
	if dataDir == "" {
		dataDir = "."
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}
	photoDir := config.PhotoDir
	if photoDir == "" {
		photoDir = filepath.Join(dataDir, types.DefaultPhotoDirName)
	}

	dbPath := filepath.Join(dataDir, DatabaseFile)
	db, err := sql.Open("sqlite", dsn(dbPath))
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	db.SetMaxOpenConns(1)

	ctx := context.Background()
	applied, err := Migrate(ctx, db)
	if err != nil {
		db.Close()
		return err
	}
	seeded, err := Seed(ctx, db)
	if err != nil {
		db.Close()
		return err
	}
	if len(applied) > 0 || seeded > 0 {
		slog.Info("journal prepared", "path", dbPath, "migrations", applied, "seeded_categories", seeded)
	}

	b.db = db
	b.config = config
	b.photos = photos.NewStore(photoDir)
	b.attached = true
	return nil
}

// Detach closes the database. After Detach, all operations return
// ErrJournalDetached. Detach is idempotent.
func (b *Backend) Detach() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.attached {
		return nil
	}
	b.attached = false
	db := b.db
	b.db = nil
	if err := db.Close(); err != nil {
		return fmt.Errorf("closing database: %w", err)
	}
	return nil
}

// database returns the open handle or ErrJournalDetached.
func (b *Backend) database() (*sql.DB, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.attached {
		return nil, types.ErrJournalDetached
	}
	return b.db, nil
}

// MigrationStatus lists every known migration of the attached journal with
// the time it was applied.
func (b *Backend) MigrationStatus(ctx context.Context) ([]MigrationStatus, error) {
	db, err := b.database()
	if err != nil {
		return nil, err
	}
	return Status(ctx, db)
}

func (b *Backend) Categories() types.CategoryTable { return &categoriesTable{backend: b} }
func (b *Backend) People() types.PersonTable       { return &peopleTable{backend: b} }
func (b *Backend) Tags() types.TagTable            { return &tagsTable{backend: b} }
func (b *Backend) Places() types.PlaceTable        { return &placesTable{backend: b} }
func (b *Backend) Visits() types.VisitTable        { return &visitsTable{backend: b} }
func (b *Backend) Photos() types.PhotoTable        { return &photosTable{backend: b} }
func (b *Backend) Stats() types.StatsTable         { return &statsTable{backend: b} }

// removePhotoFiles unlinks the files behind already-deleted photo rows.
// Failures are logged and otherwise ignored; a stray file is harmless.
func (b *Backend) removePhotoFiles(uris []string) {
	if len(uris) == 0 {
		return
	}
	b.mu.RLock()
	store := b.photos
	b.mu.RUnlock()
	if store == nil {
		return
	}
	for _, uri := range uris {
		if err := store.Remove(uri); err != nil {
			slog.Warn("removing photo file", "uri", uri, "error", err)
		}
	}
}

var _ types.Journal = (*Backend)(nil)
