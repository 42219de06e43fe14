package types

import (
	"context"
	"errors"
)

// Journal defines the interface for backend-agnostic access to the visit
// journal. Callers attach to a backend, reach entities through the table
// accessors, and detach when done.
type Journal interface {
	// Attach opens the backend described by config, applies pending schema
	// migrations and seeds default categories. Attach fails, and the journal
	// stays detached, if any migration fails. Returns ErrAlreadyAttached if
	// called while attached.
	Attach(config Config) error

	// Detach releases backend resources. Idempotent: multiple calls succeed.
	// After Detach, operations return ErrJournalDetached.
	Detach() error

	Categories() CategoryTable
	People() PersonTable
	Tags() TagTable
	Places() PlaceTable
	Visits() VisitTable
	Photos() PhotoTable
	Stats() StatsTable

	// DeletePlace removes a place together with all of its visits, their tag
	// links and their photos (rows and files).
	DeletePlace(ctx context.Context, placeID int64) error

	// DeleteOrphanPlace deletes the place when it has no remaining visits and
	// reports whether it did.
	DeleteOrphanPlace(ctx context.Context, placeID int64) (bool, error)

	// DeleteVisitCascade deletes a visit's photos, its tag links and the visit
	// row, then removes its place if that was the place's last visit. The row
	// changes commit as one unit; photo files are unlinked after the commit.
	DeleteVisitCascade(ctx context.Context, visitID int64) error

	// CreateVisitAtNewPlace inserts a place and its first visit atomically.
	CreateVisitAtNewPlace(ctx context.Context, place PlaceInput, visit VisitInput) (*Place, *Visit, error)

	// SweepOrphanPlaces deletes every place that has no visits and returns
	// how many were removed.
	SweepOrphanPlaces(ctx context.Context) (int, error)
}

// Journal lifecycle errors.
var (
	ErrJournalDetached = errors.New("journal is detached")
	ErrAlreadyAttached = errors.New("journal is already attached")
)

// Migration errors. A migration failure is fatal: the journal refuses to
// attach rather than run against a partially migrated schema.
var (
	ErrMigrationFailed   = errors.New("schema migration failed")
	ErrMigrationChecksum = errors.New("applied migration does not match its definition")
)
