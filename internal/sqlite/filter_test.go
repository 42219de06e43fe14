package sqlite

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/stamped/pkg/types"
)

// filterFixture is a small journal shared by the filter cases.
type filterFixture struct {
	b                     *Backend
	cafe, bar             int64
	ana                   int64
	spicy, cheap, outdoor int64
	// visits by name
	v map[string]*types.Visit
}

func newFilterFixture(t *testing.T) *filterFixture {
	t.Helper()
	ctx := context.Background()
	b := attachTestBackend(t)
	f := &filterFixture{b: b, v: make(map[string]*types.Visit)}

	cats, err := b.Categories().GetAll(ctx)
	require.NoError(t, err)
	for _, c := range cats {
		switch c.Name {
		case "Cafe":
			f.cafe = c.ID
		case "Bar":
			f.bar = c.ID
		}
	}
	ana, err := b.People().Insert(ctx, "Ana")
	require.NoError(t, err)
	f.ana = ana.ID
	for label, dst := range map[string]*int64{"spicy": &f.spicy, "cheap": &f.cheap, "outdoor": &f.outdoor} {
		tag, err := b.Tags().Insert(ctx, label, "#123456")
		require.NoError(t, err)
		*dst = tag.ID
	}

	beans := mustPlace(t, b, "Beans & Co", &f.cafe)
	tiki := mustPlace(t, b, "Tiki Lounge", &f.bar)
	pct := mustPlace(t, b, "100% Juice", nil)

	add := func(name string, in types.VisitInput, tags ...int64) {
		v := mustVisit(t, b, in)
		if len(tags) > 0 {
			require.NoError(t, b.Tags().SetForVisit(ctx, v.ID, tags))
		}
		f.v[name] = v
	}
	add("beans-jan", types.VisitInput{PlaceID: beans.ID, Date: "2024-01-05", Rating: ptr(4.0), Cost: ptr(6.0), Notes: ptr("Great FLAT white")}, f.cheap)
	add("beans-feb", types.VisitInput{PlaceID: beans.ID, Date: "2024-02-01", Rating: ptr(2.5), Cost: ptr(5.0), WhoPaidID: &f.ana})
	add("tiki-jan", types.VisitInput{PlaceID: tiki.ID, Date: "2024-01-31", Rating: ptr(5.0), Cost: ptr(40.0), WhoPaidID: &f.ana}, f.spicy, f.outdoor)
	add("tiki-dec", types.VisitInput{PlaceID: tiki.ID, Date: "2023-12-31", Cost: ptr(25.0)}, f.outdoor)
	add("juice-jan", types.VisitInput{PlaceID: pct.ID, Date: "2024-01-01", Rating: ptr(4.5), Notes: ptr("under_score")}, f.spicy)
	return f
}

func (f *filterFixture) names(t *testing.T, filters types.VisitFilters) []string {
	t.Helper()
	got, err := f.b.Visits().GetFiltered(context.Background(), filters)
	require.NoError(t, err)
	byID := make(map[int64]string, len(f.v))
	for name, v := range f.v {
		byID[v.ID] = name
	}
	out := make([]string, 0, len(got))
	for _, d := range got {
		out = append(out, byID[d.ID])
	}
	return out
}

func TestGetFiltered(t *testing.T) {
	f := newFilterFixture(t)

	tests := []struct {
		name    string
		filters func(f *filterFixture) types.VisitFilters
		want    []string
	}{
		{
			name:    "no filters returns all visits newest first",
			filters: func(*filterFixture) types.VisitFilters { return types.VisitFilters{} },
			want:    []string{"beans-feb", "tiki-jan", "beans-jan", "juice-jan", "tiki-dec"},
		},
		{
			name: "min rating keeps rating at or above and drops unrated",
			filters: func(*filterFixture) types.VisitFilters {
				return types.VisitFilters{MinRating: ptr(4.0)}
			},
			want: []string{"tiki-jan", "beans-jan", "juice-jan"},
		},
		{
			name: "category",
			filters: func(f *filterFixture) types.VisitFilters {
				return types.VisitFilters{CategoryID: &f.bar}
			},
			want: []string{"tiki-jan", "tiki-dec"},
		},
		{
			name: "payer",
			filters: func(f *filterFixture) types.VisitFilters {
				return types.VisitFilters{WhoPaidID: &f.ana}
			},
			want: []string{"beans-feb", "tiki-jan"},
		},
		{
			name: "date range is inclusive on both ends",
			filters: func(*filterFixture) types.VisitFilters {
				return types.VisitFilters{DateFrom: "2024-01-01", DateTo: "2024-01-31"}
			},
			want: []string{"tiki-jan", "beans-jan", "juice-jan"},
		},
		{
			name: "search matches place name case-insensitively",
			filters: func(*filterFixture) types.VisitFilters {
				return types.VisitFilters{SearchQuery: "tIKi"}
			},
			want: []string{"tiki-jan", "tiki-dec"},
		},
		{
			name: "search matches notes",
			filters: func(*filterFixture) types.VisitFilters {
				return types.VisitFilters{SearchQuery: "flat"}
			},
			want: []string{"beans-jan"},
		},
		{
			name: "search treats percent literally",
			filters: func(*filterFixture) types.VisitFilters {
				return types.VisitFilters{SearchQuery: "100%"}
			},
			want: []string{"juice-jan"},
		},
		{
			name: "search matches a literal underscore",
			filters: func(*filterFixture) types.VisitFilters {
				return types.VisitFilters{SearchQuery: "r_s"}
			},
			want: []string{"juice-jan"},
		},
		{
			name: "search underscore is not a wildcard",
			filters: func(*filterFixture) types.VisitFilters {
				return types.VisitFilters{SearchQuery: "bean_"}
			},
			want: []string{},
		},
		{
			name: "tags match any requested tag without duplicates",
			filters: func(f *filterFixture) types.VisitFilters {
				return types.VisitFilters{TagIDs: []int64{f.spicy, f.outdoor}}
			},
			want: []string{"tiki-jan", "juice-jan", "tiki-dec"},
		},
		{
			name: "tags combine with other filters",
			filters: func(f *filterFixture) types.VisitFilters {
				return types.VisitFilters{TagIDs: []int64{f.spicy, f.cheap}, MinRating: ptr(4.5)}
			},
			want: []string{"tiki-jan", "juice-jan"},
		},
		{
			name: "sort by cost ascending",
			filters: func(*filterFixture) types.VisitFilters {
				return types.VisitFilters{SortField: types.SortByCost, SortOrder: types.SortAsc}
			},
			want: []string{"juice-jan", "beans-feb", "beans-jan", "tiki-dec", "tiki-jan"},
		},
		{
			name: "sort by name ascending breaks ties by newest id",
			filters: func(*filterFixture) types.VisitFilters {
				return types.VisitFilters{SortField: types.SortByName, SortOrder: types.SortAsc}
			},
			want: []string{"juice-jan", "beans-feb", "beans-jan", "tiki-dec", "tiki-jan"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, f.names(t, tt.filters(f)))
		})
	}
}

func TestGetFiltered_Invalid(t *testing.T) {
	b := attachTestBackend(t)
	ctx := context.Background()

	_, err := b.Visits().GetFiltered(ctx, types.VisitFilters{SortField: "price"})
	assert.ErrorIs(t, err, types.ErrInvalidFilter)
	_, err = b.Visits().GetFiltered(ctx, types.VisitFilters{DateFrom: "2024-02-01", DateTo: "2024-01-01"})
	assert.ErrorIs(t, err, types.ErrInvalidFilter)
	_, err = b.Visits().GetFiltered(ctx, types.VisitFilters{DateFrom: "yesterday"})
	assert.ErrorIs(t, err, types.ErrInvalidDate)
}

func TestBuildFilteredQuery(t *testing.T) {
	query, args := buildFilteredQuery(types.VisitFilters{
		CategoryID:  ptr(int64(3)),
		SearchQuery: `50%_off\`,
	})
	assert.Contains(t, query, "p.category_id = ?")
	assert.Contains(t, query, "ORDER BY v.date DESC, v.id DESC")
	assert.Equal(t, []any{int64(3), `%50\%\_off\\%`, `%50\%\_off\\%`}, args)
}
