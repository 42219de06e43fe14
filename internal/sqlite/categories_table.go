package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/mesh-intelligence/stamped/pkg/types"
)

var _ types.CategoryTable = (*categoriesTable)(nil)

type categoriesTable struct {
	backend *Backend
}

// GetAll returns every category ordered by name.
func (ct *categoriesTable) GetAll(ctx context.Context) ([]*types.Category, error) {
	db, err := ct.backend.database()
	if err != nil {
		return nil, err
	}
	rows, err := db.QueryContext(ctx, "SELECT id, name, icon FROM categories ORDER BY name, id")
	if err != nil {
		return nil, fmt.Errorf("querying categories: %w", err)
	}
	defer rows.Close()

	var out []*types.Category
	for rows.Next() {
		c, err := hydrateCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("hydrating category: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (ct *categoriesTable) GetByID(ctx context.Context, id int64) (*types.Category, error) {
	if err := validID(id); err != nil {
		return nil, err
	}
	db, err := ct.backend.database()
	if err != nil {
		return nil, err
	}
	c, err := hydrateCategory(db.QueryRowContext(ctx,
		"SELECT id, name, icon FROM categories WHERE id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, types.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting category %d: %w", id, err)
	}
	return c, nil
}

func (ct *categoriesTable) Insert(ctx context.Context, name, icon string) (*types.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, types.ErrInvalidName
	}
	db, err := ct.backend.database()
	if err != nil {
		return nil, err
	}
	res, err := db.ExecContext(ctx, "INSERT INTO categories (name, icon) VALUES (?, ?)", name, icon)
	if err != nil {
		return nil, fmt.Errorf("inserting category: %w", classify(err))
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("reading category id: %w", err)
	}
	return &types.Category{ID: id, Name: name, Icon: icon}, nil
}

func (ct *categoriesTable) Update(ctx context.Context, id int64, name, icon string) error {
	if err := validID(id); err != nil {
		return err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return types.ErrInvalidName
	}
	db, err := ct.backend.database()
	if err != nil {
		return err
	}
	res, err := db.ExecContext(ctx, "UPDATE categories SET name = ?, icon = ? WHERE id = ?", name, icon, id)
	if err != nil {
		return fmt.Errorf("updating category %d: %w", id, classify(err))
	}
	return requireAffected(res)
}

// Delete removes the category and uncategorizes its places in one
// transaction.
func (ct *categoriesTable) Delete(ctx context.Context, id int64) error {
	if err := validID(id); err != nil {
		return err
	}
	db, err := ct.backend.database()
	if err != nil {
		return err
	}
	return inTx(ctx, db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			"UPDATE places SET category_id = NULL WHERE category_id = ?", id); err != nil {
			return fmt.Errorf("uncategorizing places: %w", err)
		}
		res, err := tx.ExecContext(ctx, "DELETE FROM categories WHERE id = ?", id)
		if err != nil {
			return fmt.Errorf("deleting category %d: %w", id, classify(err))
		}
		return requireAffected(res)
	})
}

func hydrateCategory(s scanner) (*types.Category, error) {
	var c types.Category
	if err := s.Scan(&c.ID, &c.Name, &c.Icon); err != nil {
		return nil, err
	}
	return &c, nil
}
