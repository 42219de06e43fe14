package sqlite

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/stamped/pkg/types"
)

func TestPlaces_InsertAndGet(t *testing.T) {
	ctx := context.Background()
	b := attachTestBackend(t)

	cats, err := b.Categories().GetAll(ctx)
	require.NoError(t, err)
	bar := cats[0]

	p, err := b.Places().Insert(ctx, types.PlaceInput{
		Name:       " Blue Door ",
		Address:    ptr("1 Canal St"),
		Latitude:   -33.86,
		Longitude:  151.2,
		CategoryID: &bar.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, "Blue Door", p.Name)
	assert.False(t, p.CreatedAt.IsZero())

	got, err := b.Places().GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, p.ID, got.ID)
	assert.Equal(t, "1 Canal St", *got.Address)
	assert.Equal(t, -33.86, got.Latitude)
	assert.Equal(t, 151.2, got.Longitude)
	assert.Equal(t, bar.Name, *got.CategoryName)
	assert.Equal(t, bar.Icon, *got.CategoryIcon)
	assert.True(t, p.CreatedAt.Equal(got.CreatedAt))

	all, err := b.Places().GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, p.ID, all[0].ID)
}

func TestPlaces_InsertValidation(t *testing.T) {
	ctx := context.Background()
	b := attachTestBackend(t)

	tests := []struct {
		name    string
		in      types.PlaceInput
		wantErr error
	}{
		{"blank name", types.PlaceInput{Name: "  "}, types.ErrInvalidName},
		{"latitude out of range", types.PlaceInput{Name: "X", Latitude: 91}, types.ErrInvalidCoordinates},
		{"longitude out of range", types.PlaceInput{Name: "X", Longitude: -181}, types.ErrInvalidCoordinates},
		{"unknown category", types.PlaceInput{Name: "X", CategoryID: ptr(int64(9999))}, types.ErrConstraintViolation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := b.Places().Insert(ctx, tt.in)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestPlaces_NoLocationSentinel(t *testing.T) {
	b := attachTestBackend(t)
	p, err := b.Places().Insert(context.Background(), types.PlaceInput{Name: "Somewhere"})
	require.NoError(t, err)
	assert.False(t, p.HasLocation())
}

func TestPlaces_Update(t *testing.T) {
	ctx := context.Background()
	b := attachTestBackend(t)
	cats, err := b.Categories().GetAll(ctx)
	require.NoError(t, err)

	p, err := b.Places().Insert(ctx, types.PlaceInput{
		Name: "Old", Address: ptr("Somewhere 1"), Latitude: 1, Longitude: 2, CategoryID: &cats[1].ID,
	})
	require.NoError(t, err)

	require.NoError(t, b.Places().Update(ctx, p.ID, types.PlaceUpdate{
		Name:  ptr("New"),
		Unset: []types.Field{types.FieldAddress, types.FieldCategory},
	}))
	got, err := b.Places().GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "New", got.Name)
	assert.Nil(t, got.Address)
	assert.Nil(t, got.CategoryID)
	assert.Equal(t, 1.0, got.Latitude, "untouched fields keep their values")

	assert.NoError(t, b.Places().Update(ctx, p.ID, types.PlaceUpdate{}))
	assert.ErrorIs(t, b.Places().Update(ctx, 9999, types.PlaceUpdate{}), types.ErrNotFound)
	assert.ErrorIs(t, b.Places().Update(ctx, 9999, types.PlaceUpdate{Name: ptr("X")}), types.ErrNotFound)
	assert.ErrorIs(t, b.Places().Update(ctx, p.ID, types.PlaceUpdate{Latitude: ptr(100.0)}), types.ErrInvalidCoordinates)
	assert.ErrorIs(t, b.Places().Update(ctx, p.ID, types.PlaceUpdate{Unset: []types.Field{types.FieldNotes}}), types.ErrInvalidFilter)
}

func TestPlaces_GetWithStats(t *testing.T) {
	ctx := context.Background()
	b := attachTestBackend(t)

	p := mustPlace(t, b, "Noodle Bar", nil)
	mustVisit(t, b, types.VisitInput{PlaceID: p.ID, Date: "2024-01-01", Rating: ptr(4.0), Cost: ptr(12.5)})
	mustVisit(t, b, types.VisitInput{PlaceID: p.ID, Date: "2024-01-02", Rating: ptr(3.0)})
	mustVisit(t, b, types.VisitInput{PlaceID: p.ID, Date: "2024-01-03", Cost: ptr(7.5)})

	s, err := b.Places().GetWithStats(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Noodle Bar", s.Name)
	assert.EqualValues(t, 3, s.VisitCount)
	require.NotNil(t, s.AvgRating)
	assert.InDelta(t, 3.5, *s.AvgRating, 1e-9, "unrated visits are excluded from the average")
	assert.InDelta(t, 20.0, s.TotalSpent, 1e-9)

	empty := mustPlace(t, b, "Fresh", nil)
	s, err = b.Places().GetWithStats(ctx, empty.ID)
	require.NoError(t, err)
	assert.Zero(t, s.VisitCount)
	assert.Nil(t, s.AvgRating)
	assert.Zero(t, s.TotalSpent)

	_, err = b.Places().GetWithStats(ctx, 9999)
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestPlaces_DanglingCategoryReadsAsUncategorized(t *testing.T) {
	ctx := context.Background()
	b := attachTestBackend(t)
	p := mustPlace(t, b, "Legacy", nil)

	_, err := b.db.Exec("PRAGMA foreign_keys = OFF")
	require.NoError(t, err)
	_, err = b.db.Exec("UPDATE places SET category_id = 4242 WHERE id = ?", p.ID)
	require.NoError(t, err)
	_, err = b.db.Exec("PRAGMA foreign_keys = ON")
	require.NoError(t, err)

	got, err := b.Places().GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(4242), *got.CategoryID)
	assert.Nil(t, got.CategoryName)
	assert.Nil(t, got.CategoryIcon)
}
