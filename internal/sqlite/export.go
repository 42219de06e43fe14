package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/mesh-intelligence/stamped/pkg/types"
)

// Export writes every table to <dir>/<table>.jsonl from one consistent
// snapshot and returns the record count per table. Photo files are not
// copied.
func (b *Backend) Export(ctx context.Context, dir string) (map[string]int, error) {
	db, err := b.database()
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating export directory: %w", err)
	}

	tables := make(map[string][]json.RawMessage, len(types.StandardTableNames))
	err = inTx(ctx, db, func(tx *sql.Tx) error {
		for _, name := range types.StandardTableNames {
			recs, err := exportTable(ctx, tx, name)
			if err != nil {
				return fmt.Errorf("exporting %s: %w", name, err)
			}
			tables[name] = recs
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int, len(tables))
	for _, name := range types.StandardTableNames {
		if err := writeJSONL(jsonlPath(dir, name), tables[name]); err != nil {
			return nil, fmt.Errorf("writing %s: %w", name, err)
		}
		counts[name] = len(tables[name])
	}
	slog.Info("exported journal", "dir", dir, "counts", counts)
	return counts, nil
}

func exportTable(ctx context.Context, q querier, table string) ([]json.RawMessage, error) {
	switch table {
	case types.TableCategories:
		cats, err := collect(ctx, q, "SELECT id, name, icon FROM categories ORDER BY id", hydrateCategory)
		if err != nil {
			return nil, err
		}
		return marshalRecords(cats)
	case types.TablePlaces:
		details, err := collect(ctx, q,
			"SELECT "+placeDetailColumns+"\n"+placeDetailFrom+"\nORDER BY p.id",
			func(s scanner) (*types.PlaceDetail, error) { return hydratePlaceDetail(s) })
		if err != nil {
			return nil, err
		}
		places := make([]types.Place, len(details))
		for i, d := range details {
			places[i] = d.Place
		}
		return marshalRecords(places)
	case types.TablePeople:
		people, err := collect(ctx, q, "SELECT id, name FROM people ORDER BY id",
			func(s scanner) (types.Person, error) {
				var p types.Person
				err := s.Scan(&p.ID, &p.Name)
				return p, err
			})
		if err != nil {
			return nil, err
		}
		return marshalRecords(people)
	case types.TableVisits:
		visits, err := queryVisits(ctx, q, "SELECT "+visitColumns+"\nFROM visits v\nORDER BY v.id")
		if err != nil {
			return nil, err
		}
		return marshalRecords(visits)
	case types.TableTags:
		tags, err := queryTags(ctx, q, "SELECT id, label, color FROM tags ORDER BY id")
		if err != nil {
			return nil, err
		}
		return marshalRecords(tags)
	case types.TableVisitTags:
		links, err := collect(ctx, q, "SELECT visit_id, tag_id FROM visit_tags ORDER BY visit_id, tag_id",
			func(s scanner) (types.VisitTag, error) {
				var vt types.VisitTag
				err := s.Scan(&vt.VisitID, &vt.TagID)
				return vt, err
			})
		if err != nil {
			return nil, err
		}
		return marshalRecords(links)
	case types.TablePhotos:
		ps, err := queryPhotos(ctx, q, "SELECT id, visit_id, uri, created_at FROM photos ORDER BY id")
		if err != nil {
			return nil, err
		}
		return marshalRecords(ps)
	}
	return nil, fmt.Errorf("unknown table %q", table)
}

// Import loads an export produced by Export into an empty journal in one
// transaction, keeping every id. The journal counts as empty when it holds
// nothing but default categories; those are replaced by the imported ones.
// A missing table file imports as an empty table.
func (b *Backend) Import(ctx context.Context, dir string) (map[string]int, error) {
	db, err := b.database()
	if err != nil {
		return nil, err
	}

	if _, err := os.Stat(dir); err != nil {
		return nil, fmt.Errorf("reading export directory: %w", err)
	}

	records := make(map[string][]json.RawMessage, len(types.StandardTableNames))
	for _, name := range types.StandardTableNames {
		recs, err := readJSONL(jsonlPath(dir, name))
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, err
		}
		records[name] = recs
	}

	counts := make(map[string]int, len(records))
	err = inTx(ctx, db, func(tx *sql.Tx) error {
		if err := requireEmpty(ctx, tx); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM categories"); err != nil {
			return fmt.Errorf("clearing default categories: %w", err)
		}
		for _, name := range types.StandardTableNames {
			for i, rec := range records[name] {
				if err := importRecord(ctx, tx, name, rec); err != nil {
					return fmt.Errorf("importing %s record %d: %w", name, i+1, err)
				}
			}
			counts[name] = len(records[name])
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	slog.Info("imported journal", "dir", dir, "counts", counts)
	return counts, nil
}

// requireEmpty returns ErrJournalNotEmpty unless the journal holds only
// default categories.
func requireEmpty(ctx context.Context, q querier) error {
	var used bool
	err := q.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM places)
    OR EXISTS (SELECT 1 FROM visits)
    OR EXISTS (SELECT 1 FROM people)
    OR EXISTS (SELECT 1 FROM tags)
    OR EXISTS (SELECT 1 FROM visit_tags)
    OR EXISTS (SELECT 1 FROM photos)`).Scan(&used)
	if err != nil {
		return fmt.Errorf("checking journal contents: %w", err)
	}
	if used {
		return types.ErrJournalNotEmpty
	}

	names, err := categoryNames(ctx, q)
	if err != nil {
		return err
	}
	defaults := make(map[string]bool, len(defaultCategories))
	for _, c := range defaultCategories {
		defaults[c.name] = true
	}
	for name := range names {
		if !defaults[name] {
			return types.ErrJournalNotEmpty
		}
	}
	return nil
}

func importRecord(ctx context.Context, tx *sql.Tx, table string, rec json.RawMessage) error {
	var (
		query string
		args  []any
	)
	switch table {
	case types.TableCategories:
		var c types.Category
		if err := json.Unmarshal(rec, &c); err != nil {
			return err
		}
		query, args = "INSERT INTO categories (id, name, icon) VALUES (?, ?, ?)",
			[]any{c.ID, c.Name, c.Icon}
	case types.TablePlaces:
		var p types.Place
		if err := json.Unmarshal(rec, &p); err != nil {
			return err
		}
		if err := validatePlaceRecord(p); err != nil {
			return err
		}
		query = `INSERT INTO places (id, name, address, latitude, longitude, category_id, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?)`
		args = []any{p.ID, p.Name, nullable(p.Address), p.Latitude, p.Longitude,
			nullable(p.CategoryID), formatTime(p.CreatedAt)}
	case types.TablePeople:
		var p types.Person
		if err := json.Unmarshal(rec, &p); err != nil {
			return err
		}
		query, args = "INSERT INTO people (id, name) VALUES (?, ?)", []any{p.ID, p.Name}
	case types.TableVisits:
		var v types.Visit
		if err := json.Unmarshal(rec, &v); err != nil {
			return err
		}
		if err := validateVisitRecord(v); err != nil {
			return err
		}
		if v.Currency == "" {
			v.Currency = types.DefaultCurrency
		}
		query = `INSERT INTO visits
    (id, place_id, date, rating, cost, currency, who_paid_id, price_level, attendee_count, notes, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
		args = []any{v.ID, v.PlaceID, v.Date, nullable(v.Rating), nullable(v.Cost), v.Currency,
			nullable(v.WhoPaidID), nullable(v.PriceLevel), nullable(v.AttendeeCount), nullable(v.Notes),
			formatTime(v.CreatedAt), formatTime(v.UpdatedAt)}
	case types.TableTags:
		var t types.Tag
		if err := json.Unmarshal(rec, &t); err != nil {
			return err
		}
		query, args = "INSERT INTO tags (id, label, color) VALUES (?, ?, ?)", []any{t.ID, t.Label, t.Color}
	case types.TableVisitTags:
		var vt types.VisitTag
		if err := json.Unmarshal(rec, &vt); err != nil {
			return err
		}
		query, args = "INSERT INTO visit_tags (visit_id, tag_id) VALUES (?, ?)", []any{vt.VisitID, vt.TagID}
	case types.TablePhotos:
		var p types.Photo
		if err := json.Unmarshal(rec, &p); err != nil {
			return err
		}
		if p.URI == "" {
			return types.ErrInvalidPhotoRef
		}
		query, args = "INSERT INTO photos (id, visit_id, uri, created_at) VALUES (?, ?, ?, ?)",
			[]any{p.ID, p.VisitID, p.URI, formatTime(p.CreatedAt)}
	default:
		return fmt.Errorf("unknown table %q", table)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return classify(err)
	}
	return nil
}

func validatePlaceRecord(p types.Place) error {
	if p.ID <= 0 {
		return types.ErrInvalidID
	}
	return types.PlaceInput{Name: p.Name, Latitude: p.Latitude, Longitude: p.Longitude}.Validate()
}

func validateVisitRecord(v types.Visit) error {
	if v.ID <= 0 || v.PlaceID <= 0 {
		return types.ErrInvalidID
	}
	return types.VisitInput{
		PlaceID:       v.PlaceID,
		Date:          v.Date,
		Rating:        v.Rating,
		Cost:          v.Cost,
		PriceLevel:    v.PriceLevel,
		AttendeeCount: v.AttendeeCount,
	}.Validate()
}

// collect runs query and hydrates every row.
func collect[T any](ctx context.Context, q querier, query string, hydrate func(scanner) (T, error)) ([]T, error) {
	rows, err := q.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []T
	for rows.Next() {
		v, err := hydrate(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}
