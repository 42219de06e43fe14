package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mesh-intelligence/stamped/internal/photos"
	"github.com/mesh-intelligence/stamped/pkg/types"
)

var _ types.PhotoTable = (*photosTable)(nil)

type photosTable struct {
	backend *Backend
}

// GetAll returns every photo ordered by id.
func (pt *photosTable) GetAll(ctx context.Context) ([]*types.Photo, error) {
	db, err := pt.backend.database()
	if err != nil {
		return nil, err
	}
	return queryPhotos(ctx, db, "SELECT id, visit_id, uri, created_at FROM photos ORDER BY id")
}

// GetForVisit returns the visit's photos in the order they were added.
func (pt *photosTable) GetForVisit(ctx context.Context, visitID int64) ([]*types.Photo, error) {
	if err := validID(visitID); err != nil {
		return nil, err
	}
	db, err := pt.backend.database()
	if err != nil {
		return nil, err
	}
	return queryPhotos(ctx, db,
		"SELECT id, visit_id, uri, created_at FROM photos WHERE visit_id = ? ORDER BY id", visitID)
}

// Insert records a photo that is already in the photo directory. Only bare
// filenames are accepted; legacy absolute paths are read-only.
func (pt *photosTable) Insert(ctx context.Context, visitID int64, uri string) (*types.Photo, error) {
	if err := validID(visitID); err != nil {
		return nil, err
	}
	if !photos.IsFilename(uri) {
		return nil, types.ErrInvalidPhotoRef
	}
	db, err := pt.backend.database()
	if err != nil {
		return nil, err
	}

	p := &types.Photo{VisitID: visitID, URI: uri, CreatedAt: pt.backend.now().UTC()}
	res, err := db.ExecContext(ctx,
		"INSERT INTO photos (visit_id, uri, created_at) VALUES (?, ?, ?)",
		p.VisitID, p.URI, formatTime(p.CreatedAt))
	if err != nil {
		return nil, fmt.Errorf("inserting photo: %w", classify(err))
	}
	if p.ID, err = res.LastInsertId(); err != nil {
		return nil, fmt.Errorf("reading photo id: %w", err)
	}
	return p, nil
}

// Delete removes the photo row, then its file.
func (pt *photosTable) Delete(ctx context.Context, id int64) error {
	if err := validID(id); err != nil {
		return err
	}
	db, err := pt.backend.database()
	if err != nil {
		return err
	}

	var uri string
	err = inTx(ctx, db, func(tx *sql.Tx) error {
		err := tx.QueryRowContext(ctx, "SELECT uri FROM photos WHERE id = ?", id).Scan(&uri)
		if errors.Is(err, sql.ErrNoRows) {
			return types.ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("reading photo %d: %w", id, err)
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM photos WHERE id = ?", id); err != nil {
			return fmt.Errorf("deleting photo %d: %w", id, err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	pt.backend.removePhotoFiles([]string{uri})
	return nil
}

// DeleteForVisit removes every photo of the visit, rows first, then files.
func (pt *photosTable) DeleteForVisit(ctx context.Context, visitID int64) error {
	if err := validID(visitID); err != nil {
		return err
	}
	db, err := pt.backend.database()
	if err != nil {
		return err
	}

	var uris []string
	err = inTx(ctx, db, func(tx *sql.Tx) error {
		var err error
		uris, err = deletePhotoRows(ctx, tx, "visit_id = ?", visitID)
		return err
	})
	if err != nil {
		return err
	}
	pt.backend.removePhotoFiles(uris)
	return nil
}

// deletePhotoRows deletes the photo rows matching where and returns their
// uris so the caller can unlink the files once the transaction commits.
func deletePhotoRows(ctx context.Context, tx *sql.Tx, where string, args ...any) ([]string, error) {
	rows, err := tx.QueryContext(ctx, "SELECT uri FROM photos WHERE "+where, args...)
	if err != nil {
		return nil, fmt.Errorf("querying photos: %w", err)
	}
	var uris []string
	for rows.Next() {
		var uri string
		if err := rows.Scan(&uri); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scanning photo uri: %w", err)
		}
		uris = append(uris, uri)
	}
	err = rows.Err()
	rows.Close()
	if err != nil {
		return nil, fmt.Errorf("iterating photos: %w", err)
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM photos WHERE "+where, args...); err != nil {
		return nil, fmt.Errorf("deleting photos: %w", err)
	}
	return uris, nil
}

func queryPhotos(ctx context.Context, q querier, query string, args ...any) ([]*types.Photo, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying photos: %w", err)
	}
	defer rows.Close()

	var out []*types.Photo
	for rows.Next() {
		var (
			p         types.Photo
			createdAt string
		)
		if err := rows.Scan(&p.ID, &p.VisitID, &p.URI, &createdAt); err != nil {
			return nil, fmt.Errorf("hydrating photo: %w", err)
		}
		if p.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, fmt.Errorf("parsing created_at: %w", err)
		}
		out = append(out, &p)
	}
	return out, rows.Err()
}
