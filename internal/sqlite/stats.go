package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/mesh-intelligence/stamped/pkg/types"
)

var _ types.StatsTable = (*statsTable)(nil)

type statsTable struct {
	backend *Backend
}

// periodFormats are the strftime formats that truncate a visit date to its
// bucket key.
var periodFormats = map[types.Granularity]string{
	types.GranularityDay:   "%Y-%m-%d",
	types.GranularityWeek:  "%Y-W%W",
	types.GranularityMonth: "%Y-%m",
	types.GranularityYear:  "%Y",
}

// dateWhere renders the inclusive date bounds of r as a WHERE clause over
// visits aliased v.
func dateWhere(r types.DateRange) (string, []any) {
	var (
		conds []string
		args  []any
	)
	if r.From != "" {
		conds = append(conds, "v.date >= ?")
		args = append(args, r.From)
	}
	if r.To != "" {
		conds = append(conds, "v.date <= ?")
		args = append(args, r.To)
	}
	if len(conds) == 0 {
		return "", nil
	}
	return "\nWHERE " + strings.Join(conds, " AND "), args
}

func (st *statsTable) Overall(ctx context.Context, r types.DateRange) (*types.OverallStats, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	db, err := st.backend.database()
	if err != nil {
		return nil, err
	}

	where, args := dateWhere(r)
	var (
		s   types.OverallStats
		avg sql.Null[float64]
	)
	err = db.QueryRowContext(ctx,
		"SELECT COUNT(*), AVG(v.rating), COALESCE(SUM(v.cost), 0)\nFROM visits v"+where, args...).
		Scan(&s.TotalVisits, &avg, &s.TotalSpent)
	if err != nil {
		return nil, fmt.Errorf("computing overall stats: %w", err)
	}
	s.AvgRating = ptrOf(avg)
	return &s, nil
}

// ByCategory groups visits by their place's category, busiest first.
// Visits at uncategorized places form one bucket with a nil Name.
func (st *statsTable) ByCategory(ctx context.Context, r types.DateRange) ([]*types.CategoryStats, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	db, err := st.backend.database()
	if err != nil {
		return nil, err
	}

	where, args := dateWhere(r)
	rows, err := db.QueryContext(ctx, `SELECT c.id, c.name, c.icon, COUNT(v.id), COALESCE(SUM(v.cost), 0)
FROM visits v
LEFT JOIN places p ON p.id = v.place_id
LEFT JOIN categories c ON c.id = p.category_id`+where+`
GROUP BY c.id
ORDER BY COUNT(v.id) DESC, c.name`, args...)
	if err != nil {
		return nil, fmt.Errorf("querying category stats: %w", err)
	}
	defer rows.Close()

	var out []*types.CategoryStats
	for rows.Next() {
		var (
			s          types.CategoryStats
			id         sql.Null[int64]
			name, icon sql.Null[string]
		)
		if err := rows.Scan(&id, &name, &icon, &s.VisitCount, &s.TotalSpent); err != nil {
			return nil, fmt.Errorf("scanning category stats: %w", err)
		}
		s.CategoryID = ptrOf(id)
		s.Name = ptrOf(name)
		s.Icon = ptrOf(icon)
		out = append(out, &s)
	}
	return out, rows.Err()
}

// ByTimePeriod buckets visits by day, week, month or year in ascending
// period order.
func (st *statsTable) ByTimePeriod(ctx context.Context, g types.Granularity, r types.DateRange) ([]*types.PeriodStats, error) {
	format, ok := periodFormats[g]
	if !ok {
		return nil, types.ErrInvalidGranularity
	}
	if err := r.Validate(); err != nil {
		return nil, err
	}
	db, err := st.backend.database()
	if err != nil {
		return nil, err
	}

	where, args := dateWhere(r)
	args = append([]any{format}, args...)
	rows, err := db.QueryContext(ctx, `SELECT strftime(?, v.date) AS period, COUNT(*), COALESCE(SUM(v.cost), 0)
FROM visits v`+where+`
GROUP BY period
ORDER BY period`, args...)
	if err != nil {
		return nil, fmt.Errorf("querying period stats: %w", err)
	}
	defer rows.Close()

	var out []*types.PeriodStats
	for rows.Next() {
		var (
			s      types.PeriodStats
			period sql.Null[string]
		)
		if err := rows.Scan(&period, &s.VisitCount, &s.TotalSpent); err != nil {
			return nil, fmt.Errorf("scanning period stats: %w", err)
		}
		s.Period = period.V
		out = append(out, &s)
	}
	return out, rows.Err()
}

// TopPlaces ranks places by visit count. Ties go to the higher average
// rating, then to the name.
func (st *statsTable) TopPlaces(ctx context.Context, limit int, r types.DateRange) ([]*types.TopPlace, error) {
	if limit < 1 {
		return nil, types.ErrInvalidLimit
	}
	if err := r.Validate(); err != nil {
		return nil, err
	}
	db, err := st.backend.database()
	if err != nil {
		return nil, err
	}

	where, args := dateWhere(r)
	args = append(args, limit)
	rows, err := db.QueryContext(ctx, `SELECT p.id, p.name, c.icon, COUNT(v.id), AVG(v.rating)
FROM visits v
JOIN places p ON p.id = v.place_id
LEFT JOIN categories c ON c.id = p.category_id`+where+`
GROUP BY p.id
ORDER BY COUNT(v.id) DESC, AVG(v.rating) DESC, p.name COLLATE NOCASE
LIMIT ?`, args...)
	if err != nil {
		return nil, fmt.Errorf("querying top places: %w", err)
	}
	defer rows.Close()

	var out []*types.TopPlace
	for rows.Next() {
		var (
			tp   types.TopPlace
			icon sql.Null[string]
			avg  sql.Null[float64]
		)
		if err := rows.Scan(&tp.PlaceID, &tp.Name, &icon, &tp.VisitCount, &avg); err != nil {
			return nil, fmt.Errorf("scanning top place: %w", err)
		}
		tp.CategoryIcon = ptrOf(icon)
		tp.AvgRating = ptrOf(avg)
		out = append(out, &tp)
	}
	return out, rows.Err()
}
