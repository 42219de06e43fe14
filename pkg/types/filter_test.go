package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVisitFiltersValidate(t *testing.T) {
	tests := []struct {
		name    string
		filters VisitFilters
		wantErr error
	}{
		{name: "empty filters", filters: VisitFilters{}},
		{
			name: "every option set",
			filters: VisitFilters{
				CategoryID:  ptr(int64(1)),
				MinRating:   ptr(4.0),
				WhoPaidID:   ptr(int64(2)),
				DateFrom:    "2024-01-01",
				DateTo:      "2024-01-31",
				SearchQuery: "pizza",
				TagIDs:      []int64{1, 2},
				SortField:   SortByCost,
				SortOrder:   SortAsc,
			},
		},
		{name: "unknown sort field", filters: VisitFilters{SortField: "price"}, wantErr: ErrInvalidFilter},
		{name: "unknown sort order", filters: VisitFilters{SortOrder: "up"}, wantErr: ErrInvalidFilter},
		{name: "min rating above five", filters: VisitFilters{MinRating: ptr(7.0)}, wantErr: ErrInvalidFilter},
		{name: "malformed date", filters: VisitFilters{DateFrom: "2024-1-1"}, wantErr: ErrInvalidDate},
		{
			name:    "inverted range",
			filters: VisitFilters{DateFrom: "2024-02-01", DateTo: "2024-01-01"},
			wantErr: ErrInvalidFilter,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.filters.Validate()
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestVisitFiltersSortDefaults(t *testing.T) {
	field, order := VisitFilters{}.Sort()
	assert.Equal(t, SortByDate, field)
	assert.Equal(t, SortDesc, order)

	field, order = VisitFilters{SortField: SortByName}.Sort()
	assert.Equal(t, SortByName, field)
	assert.Equal(t, SortDesc, order)
}

func TestGranularityValid(t *testing.T) {
	for _, g := range []Granularity{GranularityDay, GranularityWeek, GranularityMonth, GranularityYear} {
		assert.True(t, g.Valid(), string(g))
	}
	assert.False(t, Granularity("hour").Valid())
	assert.False(t, Granularity("").Valid())
}
