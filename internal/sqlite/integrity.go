package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/mesh-intelligence/stamped/pkg/types"
)

// placeVisits selects the ids of a place's visits.
const placeVisits = "SELECT id FROM visits WHERE place_id = ?"

// DeletePlace removes the place, its visits, their tag links and photo rows
// in one transaction, then unlinks the photo files.
func (b *Backend) DeletePlace(ctx context.Context, placeID int64) error {
	if err := validID(placeID); err != nil {
		return err
	}
	db, err := b.database()
	if err != nil {
		return err
	}

	var uris []string
	err = inTx(ctx, db, func(tx *sql.Tx) error {
		var one int
		err := tx.QueryRowContext(ctx, "SELECT 1 FROM places WHERE id = ?", placeID).Scan(&one)
		if errors.Is(err, sql.ErrNoRows) {
			return types.ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("checking place %d: %w", placeID, err)
		}

		uris, err = deletePhotoRows(ctx, tx, "visit_id IN ("+placeVisits+")", placeID)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			"DELETE FROM visit_tags WHERE visit_id IN ("+placeVisits+")", placeID); err != nil {
			return fmt.Errorf("deleting tag links: %w", err)
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM visits WHERE place_id = ?", placeID); err != nil {
			return fmt.Errorf("deleting visits: %w", err)
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM places WHERE id = ?", placeID); err != nil {
			return fmt.Errorf("deleting place %d: %w", placeID, classify(err))
		}
		return nil
	})
	if err != nil {
		return err
	}
	b.removePhotoFiles(uris)
	return nil
}

// DeleteOrphanPlace deletes the place if no visit references it and reports
// whether it did. A missing place reports false.
func (b *Backend) DeleteOrphanPlace(ctx context.Context, placeID int64) (bool, error) {
	if err := validID(placeID); err != nil {
		return false, err
	}
	db, err := b.database()
	if err != nil {
		return false, err
	}
	return deleteOrphanPlace(ctx, db, placeID)
}

func deleteOrphanPlace(ctx context.Context, q querier, placeID int64) (bool, error) {
	res, err := q.ExecContext(ctx,
		"DELETE FROM places WHERE id = ? AND NOT EXISTS (SELECT 1 FROM visits WHERE place_id = ?)",
		placeID, placeID)
	if err != nil {
		return false, fmt.Errorf("deleting orphan place %d: %w", placeID, classify(err))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("reading rows affected: %w", err)
	}
	return n > 0, nil
}

// DeleteVisitCascade deletes the visit's photo rows, its tag links and the
// visit itself, then removes the place if no visits remain. All row changes
// commit together; the photo files are unlinked afterwards.
func (b *Backend) DeleteVisitCascade(ctx context.Context, visitID int64) error {
	if err := validID(visitID); err != nil {
		return err
	}
	db, err := b.database()
	if err != nil {
		return err
	}

	var (
		uris      []string
		placeID   int64
		placeGone bool
	)
	err = inTx(ctx, db, func(tx *sql.Tx) error {
		err := tx.QueryRowContext(ctx, "SELECT place_id FROM visits WHERE id = ?", visitID).Scan(&placeID)
		if errors.Is(err, sql.ErrNoRows) {
			return types.ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("reading visit %d: %w", visitID, err)
		}

		if uris, err = deletePhotoRows(ctx, tx, "visit_id = ?", visitID); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM visit_tags WHERE visit_id = ?", visitID); err != nil {
			return fmt.Errorf("deleting tag links: %w", err)
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM visits WHERE id = ?", visitID); err != nil {
			return fmt.Errorf("deleting visit %d: %w", visitID, classify(err))
		}
		placeGone, err = deleteOrphanPlace(ctx, tx, placeID)
		return err
	})
	if err != nil {
		return err
	}
	if placeGone {
		slog.Debug("removed place with no visits left", "place_id", placeID)
	}
	b.removePhotoFiles(uris)
	return nil
}

// CreateVisitAtNewPlace inserts the place and its first visit in one
// transaction. visit.PlaceID is ignored.
func (b *Backend) CreateVisitAtNewPlace(ctx context.Context, place types.PlaceInput, visit types.VisitInput) (*types.Place, *types.Visit, error) {
	if err := place.Validate(); err != nil {
		return nil, nil, err
	}
	visit.PlaceID = 0
	if err := visit.Validate(); err != nil {
		return nil, nil, err
	}
	db, err := b.database()
	if err != nil {
		return nil, nil, err
	}

	now := b.now()
	var (
		p *types.Place
		v *types.Visit
	)
	err = inTx(ctx, db, func(tx *sql.Tx) error {
		var err error
		if p, err = insertPlace(ctx, tx, place, now); err != nil {
			return err
		}
		visit.PlaceID = p.ID
		v, err = insertVisit(ctx, tx, visit, now)
		return err
	})
	if err != nil {
		return nil, nil, err
	}
	return p, v, nil
}

// SweepOrphanPlaces deletes every place without visits and returns the
// count.
func (b *Backend) SweepOrphanPlaces(ctx context.Context) (int, error) {
	db, err := b.database()
	if err != nil {
		return 0, err
	}
	res, err := db.ExecContext(ctx,
		"DELETE FROM places WHERE NOT EXISTS (SELECT 1 FROM visits WHERE visits.place_id = places.id)")
	if err != nil {
		return 0, fmt.Errorf("sweeping orphan places: %w", classify(err))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("reading rows affected: %w", err)
	}
	if n > 0 {
		slog.Info("swept orphan places", "count", n)
	}
	return int(n), nil
}
