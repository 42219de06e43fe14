package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/mesh-intelligence/stamped/pkg/types"
)

var _ types.TagTable = (*tagsTable)(nil)

type tagsTable struct {
	backend *Backend
}

// GetAll returns every tag ordered by label.
func (tt *tagsTable) GetAll(ctx context.Context) ([]*types.Tag, error) {
	db, err := tt.backend.database()
	if err != nil {
		return nil, err
	}
	return queryTags(ctx, db, "SELECT id, label, color FROM tags ORDER BY label, id")
}

func (tt *tagsTable) Insert(ctx context.Context, label, color string) (*types.Tag, error) {
	label = strings.TrimSpace(label)
	if label == "" {
		return nil, types.ErrInvalidName
	}
	db, err := tt.backend.database()
	if err != nil {
		return nil, err
	}
	res, err := db.ExecContext(ctx, "INSERT INTO tags (label, color) VALUES (?, ?)", label, color)
	if err != nil {
		return nil, fmt.Errorf("inserting tag: %w", classify(err))
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("reading tag id: %w", err)
	}
	return &types.Tag{ID: id, Label: label, Color: color}, nil
}

func (tt *tagsTable) Update(ctx context.Context, id int64, label, color string) error {
	if err := validID(id); err != nil {
		return err
	}
	label = strings.TrimSpace(label)
	if label == "" {
		return types.ErrInvalidName
	}
	db, err := tt.backend.database()
	if err != nil {
		return err
	}
	res, err := db.ExecContext(ctx, "UPDATE tags SET label = ?, color = ? WHERE id = ?", label, color, id)
	if err != nil {
		return fmt.Errorf("updating tag %d: %w", id, classify(err))
	}
	return requireAffected(res)
}

// Delete removes the tag; its visit links go with it through the cascading
// foreign key.
func (tt *tagsTable) Delete(ctx context.Context, id int64) error {
	if err := validID(id); err != nil {
		return err
	}
	db, err := tt.backend.database()
	if err != nil {
		return err
	}
	res, err := db.ExecContext(ctx, "DELETE FROM tags WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting tag %d: %w", id, classify(err))
	}
	return requireAffected(res)
}

// GetForVisit returns the tags linked to the visit ordered by label.
func (tt *tagsTable) GetForVisit(ctx context.Context, visitID int64) ([]*types.Tag, error) {
	if err := validID(visitID); err != nil {
		return nil, err
	}
	db, err := tt.backend.database()
	if err != nil {
		return nil, err
	}
	return queryTags(ctx, db, `SELECT t.id, t.label, t.color
FROM visit_tags vt
JOIN tags t ON t.id = vt.tag_id
WHERE vt.visit_id = ?
ORDER BY t.label, t.id`, visitID)
}

// SetForVisit replaces the visit's links in one transaction. Duplicate ids
// collapse to one link. An unknown visit is ErrNotFound; an unknown tag is a
// constraint violation and leaves the previous links in place.
func (tt *tagsTable) SetForVisit(ctx context.Context, visitID int64, tagIDs []int64) error {
	if err := validID(visitID); err != nil {
		return err
	}
	for _, id := range tagIDs {
		if err := validID(id); err != nil {
			return err
		}
	}
	db, err := tt.backend.database()
	if err != nil {
		return err
	}
	return inTx(ctx, db, func(tx *sql.Tx) error {
		var one int
		err := tx.QueryRowContext(ctx, "SELECT 1 FROM visits WHERE id = ?", visitID).Scan(&one)
		if errors.Is(err, sql.ErrNoRows) {
			return types.ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("checking visit %d: %w", visitID, err)
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM visit_tags WHERE visit_id = ?", visitID); err != nil {
			return fmt.Errorf("clearing tags of visit %d: %w", visitID, err)
		}
		seen := make(map[int64]bool, len(tagIDs))
		for _, tagID := range tagIDs {
			if seen[tagID] {
				continue
			}
			seen[tagID] = true
			if _, err := tx.ExecContext(ctx,
				"INSERT INTO visit_tags (visit_id, tag_id) VALUES (?, ?)", visitID, tagID); err != nil {
				return fmt.Errorf("linking tag %d: %w", tagID, classify(err))
			}
		}
		return nil
	})
}

func queryTags(ctx context.Context, q querier, query string, args ...any) ([]*types.Tag, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying tags: %w", err)
	}
	defer rows.Close()

	var out []*types.Tag
	for rows.Next() {
		var t types.Tag
		if err := rows.Scan(&t.ID, &t.Label, &t.Color); err != nil {
			return nil, fmt.Errorf("hydrating tag: %w", err)
		}
		out = append(out, &t)
	}
	return out, rows.Err()
}
