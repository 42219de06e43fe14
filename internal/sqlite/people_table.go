package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/mesh-intelligence/stamped/pkg/types"
)

var _ types.PersonTable = (*peopleTable)(nil)

type peopleTable struct {
	backend *Backend
}

// GetAll returns every person ordered by name.
func (pt *peopleTable) GetAll(ctx context.Context) ([]*types.Person, error) {
	db, err := pt.backend.database()
	if err != nil {
		return nil, err
	}
	rows, err := db.QueryContext(ctx, "SELECT id, name FROM people ORDER BY name, id")
	if err != nil {
		return nil, fmt.Errorf("querying people: %w", err)
	}
	defer rows.Close()

	var out []*types.Person
	for rows.Next() {
		var p types.Person
		if err := rows.Scan(&p.ID, &p.Name); err != nil {
			return nil, fmt.Errorf("hydrating person: %w", err)
		}
		out = append(out, &p)
	}
	return out, rows.Err()
}

func (pt *peopleTable) Insert(ctx context.Context, name string) (*types.Person, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, types.ErrInvalidName
	}
	db, err := pt.backend.database()
	if err != nil {
		return nil, err
	}
	res, err := db.ExecContext(ctx, "INSERT INTO people (name) VALUES (?)", name)
	if err != nil {
		return nil, fmt.Errorf("inserting person: %w", classify(err))
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("reading person id: %w", err)
	}
	return &types.Person{ID: id, Name: name}, nil
}

func (pt *peopleTable) Update(ctx context.Context, id int64, name string) error {
	if err := validID(id); err != nil {
		return err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return types.ErrInvalidName
	}
	db, err := pt.backend.database()
	if err != nil {
		return err
	}
	res, err := db.ExecContext(ctx, "UPDATE people SET name = ? WHERE id = ?", name, id)
	if err != nil {
		return fmt.Errorf("updating person %d: %w", id, classify(err))
	}
	return requireAffected(res)
}

// Delete removes the person and clears them as payer of any visit.
func (pt *peopleTable) Delete(ctx context.Context, id int64) error {
	if err := validID(id); err != nil {
		return err
	}
	db, err := pt.backend.database()
	if err != nil {
		return err
	}
	return inTx(ctx, db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			"UPDATE visits SET who_paid_id = NULL WHERE who_paid_id = ?", id); err != nil {
			return fmt.Errorf("clearing payer: %w", err)
		}
		res, err := tx.ExecContext(ctx, "DELETE FROM people WHERE id = ?", id)
		if err != nil {
			return fmt.Errorf("deleting person %d: %w", id, classify(err))
		}
		return requireAffected(res)
	})
}
