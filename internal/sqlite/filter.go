package sqlite

import (
	"context"
	"fmt"
	"strings"

	"github.com/mesh-intelligence/stamped/pkg/types"
)

// sortColumns maps sort fields to ORDER BY expressions.
var sortColumns = map[types.SortField]string{
	types.SortByDate:   "v.date",
	types.SortByRating: "v.rating",
	types.SortByCost:   "v.cost",
	types.SortByName:   "p.name COLLATE NOCASE",
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// GetFiltered returns the visits matching every set filter. Tag filtering
// happens after the main query: a visit is kept when it carries any of the
// requested tags, and the SQL order is preserved.
func (vt *visitsTable) GetFiltered(ctx context.Context, f types.VisitFilters) ([]*types.VisitDetail, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	db, err := vt.backend.database()
	if err != nil {
		return nil, err
	}

	query, args := buildFilteredQuery(f)
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying filtered visits: %w", err)
	}
	var out []*types.VisitDetail
	for rows.Next() {
		d, err := hydrateVisitDetail(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("hydrating visit: %w", err)
		}
		out = append(out, d)
	}
	err = rows.Err()
	rows.Close()
	if err != nil {
		return nil, fmt.Errorf("iterating filtered visits: %w", err)
	}

	if len(f.TagIDs) == 0 || len(out) == 0 {
		return out, nil
	}
	tagged, err := visitIDsWithAnyTag(ctx, db, f.TagIDs)
	if err != nil {
		return nil, err
	}
	kept := out[:0]
	for _, d := range out {
		if tagged[d.ID] {
			kept = append(kept, d)
		}
	}
	return kept, nil
}

// buildFilteredQuery renders the SQL phase of GetFiltered.
func buildFilteredQuery(f types.VisitFilters) (string, []any) {
	var (
		conds []string
		args  []any
	)
	if f.CategoryID != nil {
		conds = append(conds, "p.category_id = ?")
		args = append(args, *f.CategoryID)
	}
	if f.MinRating != nil {
		conds = append(conds, "v.rating >= ?")
		args = append(args, *f.MinRating)
	}
	if f.WhoPaidID != nil {
		conds = append(conds, "v.who_paid_id = ?")
		args = append(args, *f.WhoPaidID)
	}
	if f.DateFrom != "" {
		conds = append(conds, "v.date >= ?")
		args = append(args, f.DateFrom)
	}
	if f.DateTo != "" {
		conds = append(conds, "v.date <= ?")
		args = append(args, f.DateTo)
	}
	if q := strings.TrimSpace(f.SearchQuery); q != "" {
		pattern := "%" + likeEscaper.Replace(q) + "%"
		conds = append(conds, `(p.name LIKE ? ESCAPE '\' OR v.notes LIKE ? ESCAPE '\')`)
		args = append(args, pattern, pattern)
	}

	var b strings.Builder
	b.WriteString("SELECT " + visitDetailColumns + "\n" + visitDetailFrom)
	if len(conds) > 0 {
		b.WriteString("\nWHERE " + strings.Join(conds, " AND "))
	}
	field, order := f.Sort()
	dir := "DESC"
	if order == types.SortAsc {
		dir = "ASC"
	}
	fmt.Fprintf(&b, "\nORDER BY %s %s, v.id DESC", sortColumns[field], dir)
	return b.String(), args
}

// visitIDsWithAnyTag returns the ids of visits linked to at least one of
// tagIDs.
func visitIDsWithAnyTag(ctx context.Context, q querier, tagIDs []int64) (map[int64]bool, error) {
	rows, err := q.QueryContext(ctx,
		"SELECT DISTINCT visit_id FROM visit_tags WHERE tag_id IN ("+placeholders(len(tagIDs))+")",
		int64Args(tagIDs)...)
	if err != nil {
		return nil, fmt.Errorf("querying tagged visits: %w", err)
	}
	defer rows.Close()

	ids := make(map[int64]bool)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning tagged visit: %w", err)
		}
		ids[id] = true
	}
	return ids, rows.Err()
}
