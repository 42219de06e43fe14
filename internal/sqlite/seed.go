package sqlite

import (
	"context"
	"database/sql"
	"fmt"
)

// defaultCategory describes a category seeded on attach.
type defaultCategory struct {
	name string
	icon string
}

// defaultCategories are the categories every journal starts with.
var defaultCategories = []defaultCategory{
	{"Restaurant", "🍽️"},
	{"Cafe", "☕"},
	{"Bar", "🍸"},
	{"Shopping", "🛍️"},
	{"Event", "🎉"},
	{"Travel", "✈️"},
	{"Health", "🏥"},
	{"Other", "📍"},
}

// Seed inserts every default category whose name is not already present and
// returns how many were inserted. Matching is by exact name, so running it
// again is a no-op and a renamed default is re-created under its original
// name. Seed must run after Migrate.
func Seed(ctx context.Context, db *sql.DB) (int, error) {
	inserted := 0
	err := inTx(ctx, db, func(tx *sql.Tx) error {
		existing, err := categoryNames(ctx, tx)
		if err != nil {
			return err
		}
		for _, c := range defaultCategories {
			if existing[c.name] {
				continue
			}
			if _, err := tx.ExecContext(ctx,
				"INSERT INTO categories (name, icon) VALUES (?, ?)", c.name, c.icon); err != nil {
				return fmt.Errorf("inserting category %q: %w", c.name, err)
			}
			inserted++
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("seeding categories: %w", err)
	}
	return inserted, nil
}

func categoryNames(ctx context.Context, q querier) (map[string]bool, error) {
	rows, err := q.QueryContext(ctx, "SELECT name FROM categories")
	if err != nil {
		return nil, fmt.Errorf("querying category names: %w", err)
	}
	defer rows.Close()

	names := make(map[string]bool)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scanning category name: %w", err)
		}
		names[name] = true
	}
	return names, rows.Err()
}
