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

var _ types.VisitTable = (*visitsTable)(nil)

type visitsTable struct {
	backend *Backend
}

const visitColumns = `v.id, v.place_id, v.date, v.rating, v.cost, v.currency, v.who_paid_id,
       v.price_level, v.attendee_count, v.notes, v.created_at, v.updated_at`

// visitDetailColumns adds the place, category and payer to visitColumns.
const visitDetailColumns = visitColumns + `,
       p.name, p.address, p.latitude, p.longitude, p.category_id, c.name, c.icon, pe.name`

const visitDetailFrom = `FROM visits v
LEFT JOIN places p ON p.id = v.place_id
LEFT JOIN categories c ON c.id = p.category_id
LEFT JOIN people pe ON pe.id = v.who_paid_id`

func (vt *visitsTable) GetByID(ctx context.Context, id int64) (*types.VisitDetail, error) {
	if err := validID(id); err != nil {
		return nil, err
	}
	db, err := vt.backend.database()
	if err != nil {
		return nil, err
	}
	d, err := hydrateVisitDetail(db.QueryRowContext(ctx,
		"SELECT "+visitDetailColumns+"\n"+visitDetailFrom+"\nWHERE v.id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, types.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting visit %d: %w", id, err)
	}
	return d, nil
}

// GetByPlaceID returns the place's visits, newest date first.
func (vt *visitsTable) GetByPlaceID(ctx context.Context, placeID int64) ([]*types.Visit, error) {
	if err := validID(placeID); err != nil {
		return nil, err
	}
	db, err := vt.backend.database()
	if err != nil {
		return nil, err
	}
	return queryVisits(ctx, db,
		"SELECT "+visitColumns+"\nFROM visits v\nWHERE v.place_id = ?\nORDER BY v.date DESC, v.id DESC", placeID)
}

func (vt *visitsTable) Insert(ctx context.Context, in types.VisitInput) (*types.Visit, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	if in.PlaceID == 0 {
		return nil, types.ErrInvalidID
	}
	db, err := vt.backend.database()
	if err != nil {
		return nil, err
	}
	return insertVisit(ctx, db, in, vt.backend.now())
}

// Update applies a partial update and refreshes updated_at. The new
// updated_at is strictly later than the previous one even when the clock
// has not advanced.
func (vt *visitsTable) Update(ctx context.Context, id int64, upd types.VisitUpdate) error {
	if err := validID(id); err != nil {
		return err
	}
	if err := upd.Validate(); err != nil {
		return err
	}
	db, err := vt.backend.database()
	if err != nil {
		return err
	}

	now := vt.backend.now().UTC()
	return inTx(ctx, db, func(tx *sql.Tx) error {
		var prevRaw string
		err := tx.QueryRowContext(ctx, "SELECT updated_at FROM visits WHERE id = ?", id).Scan(&prevRaw)
		if errors.Is(err, sql.ErrNoRows) {
			return types.ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("reading visit %d: %w", id, err)
		}
		prev, err := parseTime(prevRaw)
		if err != nil {
			return fmt.Errorf("parsing updated_at: %w", err)
		}
		if !now.After(prev) {
			now = prev.Add(time.Microsecond)
		}

		sets, args := visitUpdateSets(upd)
		sets = append(sets, "updated_at = ?")
		args = append(args, formatTime(now), id)
		if _, err := tx.ExecContext(ctx,
			"UPDATE visits SET "+strings.Join(sets, ", ")+" WHERE id = ?", args...); err != nil {
			return fmt.Errorf("updating visit %d: %w", id, classify(err))
		}
		return nil
	})
}

// Delete removes the visit row. Tag links and photo rows cascade in the
// schema; photo files and an emptied place are left behind.
func (vt *visitsTable) Delete(ctx context.Context, id int64) error {
	if err := validID(id); err != nil {
		return err
	}
	db, err := vt.backend.database()
	if err != nil {
		return err
	}
	res, err := db.ExecContext(ctx, "DELETE FROM visits WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting visit %d: %w", id, classify(err))
	}
	return requireAffected(res)
}

func visitUpdateSets(upd types.VisitUpdate) ([]string, []any) {
	var (
		sets []string
		args []any
	)
	set := func(column string, v any) {
		sets = append(sets, column+" = ?")
		args = append(args, v)
	}
	if upd.Date != nil {
		set("date", *upd.Date)
	}
	if upd.Rating != nil {
		set("rating", *upd.Rating)
	}
	if upd.Cost != nil {
		set("cost", *upd.Cost)
	}
	if upd.Currency != nil {
		set("currency", *upd.Currency)
	}
	if upd.WhoPaidID != nil {
		set("who_paid_id", *upd.WhoPaidID)
	}
	if upd.PriceLevel != nil {
		set("price_level", *upd.PriceLevel)
	}
	if upd.AttendeeCount != nil {
		set("attendee_count", *upd.AttendeeCount)
	}
	if upd.Notes != nil {
		set("notes", *upd.Notes)
	}
	for _, f := range upd.Unset {
		sets = append(sets, string(f)+" = NULL")
	}
	return sets, args
}

func insertVisit(ctx context.Context, q querier, in types.VisitInput, now time.Time) (*types.Visit, error) {
	currency := in.Currency
	if currency == "" {
		currency = types.DefaultCurrency
	}
	v := &types.Visit{
		PlaceID:       in.PlaceID,
		Date:          in.Date,
		Rating:        in.Rating,
		Cost:          in.Cost,
		Currency:      currency,
		WhoPaidID:     in.WhoPaidID,
		PriceLevel:    in.PriceLevel,
		AttendeeCount: in.AttendeeCount,
		Notes:         in.Notes,
		CreatedAt:     now.UTC(),
		UpdatedAt:     now.UTC(),
	}
	stamp := formatTime(v.CreatedAt)
	res, err := q.ExecContext(ctx, `INSERT INTO visits
    (place_id, date, rating, cost, currency, who_paid_id, price_level, attendee_count, notes, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		v.PlaceID, v.Date, nullable(v.Rating), nullable(v.Cost), v.Currency, nullable(v.WhoPaidID),
		nullable(v.PriceLevel), nullable(v.AttendeeCount), nullable(v.Notes), stamp, stamp)
	if err != nil {
		return nil, fmt.Errorf("inserting visit: %w", classify(err))
	}
	if v.ID, err = res.LastInsertId(); err != nil {
		return nil, fmt.Errorf("reading visit id: %w", err)
	}
	return v, nil
}

func queryVisits(ctx context.Context, q querier, query string, args ...any) ([]*types.Visit, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying visits: %w", err)
	}
	defer rows.Close()

	var out []*types.Visit
	for rows.Next() {
		v, err := hydrateVisit(rows)
		if err != nil {
			return nil, fmt.Errorf("hydrating visit: %w", err)
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// hydrateVisit scans visitColumns followed by any extra columns.
func hydrateVisit(s scanner, extra ...any) (*types.Visit, error) {
	var (
		v                         types.Visit
		rating, cost              sql.Null[float64]
		currency, notes           sql.Null[string]
		whoPaid, price, attendees sql.Null[int64]
		createdAt, updatedAt      string
	)
	dest := append([]any{
		&v.ID, &v.PlaceID, &v.Date, &rating, &cost, &currency, &whoPaid,
		&price, &attendees, &notes, &createdAt, &updatedAt,
	}, extra...)
	if err := s.Scan(dest...); err != nil {
		return nil, err
	}

	var err error
	if v.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}
	if v.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, fmt.Errorf("parsing updated_at: %w", err)
	}
	v.Rating = ptrOf(rating)
	v.Cost = ptrOf(cost)
	v.Currency = types.DefaultCurrency
	if currency.Valid && currency.V != "" {
		v.Currency = currency.V
	}
	v.WhoPaidID = ptrOf(whoPaid)
	v.PriceLevel = ptrOf(price)
	v.AttendeeCount = ptrOf(attendees)
	v.Notes = ptrOf(notes)
	return &v, nil
}

func hydrateVisitDetail(s scanner) (*types.VisitDetail, error) {
	var (
		placeName, address, catName, catIcon, payer sql.Null[string]
		lat, lng                                    sql.Null[float64]
		categoryID                                  sql.Null[int64]
	)
	v, err := hydrateVisit(s, &placeName, &address, &lat, &lng, &categoryID, &catName, &catIcon, &payer)
	if err != nil {
		return nil, err
	}
	return &types.VisitDetail{
		Visit:          *v,
		PlaceName:      placeName.V,
		PlaceAddress:   ptrOf(address),
		PlaceLatitude:  lat.V,
		PlaceLongitude: lng.V,
		CategoryID:     ptrOf(categoryID),
		CategoryName:   ptrOf(catName),
		CategoryIcon:   ptrOf(catIcon),
		WhoPaidName:    ptrOf(payer),
	}, nil
}
