package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mesh-intelligence/stamped/pkg/types"
)

var _ types.PlaceTable = (*placesTable)(nil)

type placesTable struct {
	backend *Backend
}

// placeDetailColumns selects a place joined with its category. The join is
// LEFT so a missing category reads as uncategorized.
const placeDetailColumns = `p.id, p.name, p.address, p.latitude, p.longitude, p.category_id, p.created_at,
       c.name, c.icon`

const placeDetailFrom = `FROM places p
LEFT JOIN categories c ON c.id = p.category_id`

// GetAll returns every place with its category, ordered by name.
func (pt *placesTable) GetAll(ctx context.Context) ([]*types.PlaceDetail, error) {
	db, err := pt.backend.database()
	if err != nil {
		return nil, err
	}
	rows, err := db.QueryContext(ctx,
		"SELECT "+placeDetailColumns+"\n"+placeDetailFrom+"\nORDER BY p.name COLLATE NOCASE, p.id")
	if err != nil {
		return nil, fmt.Errorf("querying places: %w", err)
	}
	defer rows.Close()

	var out []*types.PlaceDetail
	for rows.Next() {
		d, err := hydratePlaceDetail(rows)
		if err != nil {
			return nil, fmt.Errorf("hydrating place: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (pt *placesTable) GetByID(ctx context.Context, id int64) (*types.PlaceDetail, error) {
	if err := validID(id); err != nil {
		return nil, err
	}
	db, err := pt.backend.database()
	if err != nil {
		return nil, err
	}
	d, err := hydratePlaceDetail(db.QueryRowContext(ctx,
		"SELECT "+placeDetailColumns+"\n"+placeDetailFrom+"\nWHERE p.id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, types.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting place %d: %w", id, err)
	}
	return d, nil
}

// GetWithStats returns the place with its visit count, average rating over
// rated visits, and total spend with missing costs counted as zero.
func (pt *placesTable) GetWithStats(ctx context.Context, id int64) (*types.PlaceWithStats, error) {
	if err := validID(id); err != nil {
		return nil, err
	}
	db, err := pt.backend.database()
	if err != nil {
		return nil, err
	}

	var (
		s   types.PlaceWithStats
		avg sql.Null[float64]
	)
	row := db.QueryRowContext(ctx, "SELECT "+placeDetailColumns+`,
       COUNT(v.id), AVG(v.rating), COALESCE(SUM(v.cost), 0)
`+placeDetailFrom+`
LEFT JOIN visits v ON v.place_id = p.id
WHERE p.id = ?
GROUP BY p.id`, id)
	d, err := hydratePlaceDetail(row, &s.VisitCount, &avg, &s.TotalSpent)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, types.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting place %d with stats: %w", id, err)
	}
	s.PlaceDetail = *d
	s.AvgRating = ptrOf(avg)
	return &s, nil
}

func (pt *placesTable) Insert(ctx context.Context, in types.PlaceInput) (*types.Place, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	db, err := pt.backend.database()
	if err != nil {
		return nil, err
	}
	return insertPlace(ctx, db, in, pt.backend.now())
}

// Update applies a partial update. An update with nothing to change still
// reports ErrNotFound for a missing place.
func (pt *placesTable) Update(ctx context.Context, id int64, upd types.PlaceUpdate) error {
	if err := validID(id); err != nil {
		return err
	}
	if err := upd.Validate(); err != nil {
		return err
	}
	db, err := pt.backend.database()
	if err != nil {
		return err
	}

	var (
		sets []string
		args []any
	)
	set := func(column string, v any) {
		sets = append(sets, column+" = ?")
		args = append(args, v)
	}
	if upd.Name != nil {
		set("name", strings.TrimSpace(*upd.Name))
	}
	if upd.Address != nil {
		set("address", *upd.Address)
	}
	if upd.Latitude != nil {
		set("latitude", *upd.Latitude)
	}
	if upd.Longitude != nil {
		set("longitude", *upd.Longitude)
	}
	if upd.CategoryID != nil {
		set("category_id", *upd.CategoryID)
	}
	for _, f := range upd.Unset {
		sets = append(sets, string(f)+" = NULL")
	}

	if len(sets) == 0 {
		var one int
		err := db.QueryRowContext(ctx, "SELECT 1 FROM places WHERE id = ?", id).Scan(&one)
		if errors.Is(err, sql.ErrNoRows) {
			return types.ErrNotFound
		}
		return err
	}

	args = append(args, id)
	res, err := db.ExecContext(ctx,
		"UPDATE places SET "+strings.Join(sets, ", ")+" WHERE id = ?", args...)
	if err != nil {
		return fmt.Errorf("updating place %d: %w", id, classify(err))
	}
	return requireAffected(res)
}

// Delete removes the place with everything that hangs off it.
func (pt *placesTable) Delete(ctx context.Context, id int64) error {
	return pt.backend.DeletePlace(ctx, id)
}

func insertPlace(ctx context.Context, q querier, in types.PlaceInput, now time.Time) (*types.Place, error) {
	p := &types.Place{
		Name:       strings.TrimSpace(in.Name),
		Address:    in.Address,
		Latitude:   in.Latitude,
		Longitude:  in.Longitude,
		CategoryID: in.CategoryID,
		CreatedAt:  now.UTC(),
	}
	res, err := q.ExecContext(ctx,
		`INSERT INTO places (name, address, latitude, longitude, category_id, created_at)
VALUES (?, ?, ?, ?, ?, ?)`,
		p.Name, nullable(p.Address), p.Latitude, p.Longitude, nullable(p.CategoryID), formatTime(p.CreatedAt))
	if err != nil {
		return nil, fmt.Errorf("inserting place: %w", classify(err))
	}
	if p.ID, err = res.LastInsertId(); err != nil {
		return nil, fmt.Errorf("reading place id: %w", err)
	}
	return p, nil
}

// hydratePlaceDetail scans placeDetailColumns followed by any extra columns.
func hydratePlaceDetail(s scanner, extra ...any) (*types.PlaceDetail, error) {
	var (
		d                         types.PlaceDetail
		address, catName, catIcon sql.Null[string]
		categoryID                sql.Null[int64]
		createdAt                 string
	)
	dest := append([]any{
		&d.ID, &d.Name, &address, &d.Latitude, &d.Longitude, &categoryID, &createdAt,
		&catName, &catIcon,
	}, extra...)
	if err := s.Scan(dest...); err != nil {
		return nil, err
	}
	t, err := parseTime(createdAt)
	if err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}
	d.CreatedAt = t
	d.Address = ptrOf(address)
	d.CategoryID = ptrOf(categoryID)
	d.CategoryName = ptrOf(catName)
	d.CategoryIcon = ptrOf(catIcon)
	return &d, nil
}
