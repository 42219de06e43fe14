package types

import (
	"context"
	"errors"
)

// CategoryTable reads and writes place categories.
type CategoryTable interface {
	GetAll(ctx context.Context) ([]*Category, error)
	GetByID(ctx context.Context, id int64) (*Category, error)
	Insert(ctx context.Context, name, icon string) (*Category, error)
	Update(ctx context.Context, id int64, name, icon string) error
	// Delete removes the category. Places that referenced it become
	// uncategorized; they are never deleted.
	Delete(ctx context.Context, id int64) error
}

// PersonTable reads and writes people who can pay for visits.
type PersonTable interface {
	GetAll(ctx context.Context) ([]*Person, error)
	Insert(ctx context.Context, name string) (*Person, error)
	Update(ctx context.Context, id int64, name string) error
	// Delete removes the person. Visits they paid for keep existing with no
	// payer.
	Delete(ctx context.Context, id int64) error
}

// TagTable reads and writes tags and their assignment to visits.
type TagTable interface {
	GetAll(ctx context.Context) ([]*Tag, error)
	Insert(ctx context.Context, label, color string) (*Tag, error)
	Update(ctx context.Context, id int64, label, color string) error
	Delete(ctx context.Context, id int64) error

	GetForVisit(ctx context.Context, visitID int64) ([]*Tag, error)
	// SetForVisit replaces every tag link of the visit with tagIDs. An empty
	// slice leaves the visit untagged.
	SetForVisit(ctx context.Context, visitID int64, tagIDs []int64) error
}

// PlaceTable reads and writes places.
type PlaceTable interface {
	GetAll(ctx context.Context) ([]*PlaceDetail, error)
	GetByID(ctx context.Context, id int64) (*PlaceDetail, error)
	GetWithStats(ctx context.Context, id int64) (*PlaceWithStats, error)
	Insert(ctx context.Context, in PlaceInput) (*Place, error)
	Update(ctx context.Context, id int64, upd PlaceUpdate) error
	// Delete removes the place and, transitively, its visits and photos.
	Delete(ctx context.Context, id int64) error
}

// VisitTable reads and writes visits.
type VisitTable interface {
	GetByID(ctx context.Context, id int64) (*VisitDetail, error)
	GetByPlaceID(ctx context.Context, placeID int64) ([]*Visit, error)
	GetFiltered(ctx context.Context, filters VisitFilters) ([]*VisitDetail, error)
	Insert(ctx context.Context, in VisitInput) (*Visit, error)
	Update(ctx context.Context, id int64, upd VisitUpdate) error
	// Delete removes the visit row only. Photo files and orphan places are
	// left to Journal.DeleteVisitCascade.
	Delete(ctx context.Context, id int64) error
}

// PhotoTable reads and writes visit photos.
type PhotoTable interface {
	GetAll(ctx context.Context) ([]*Photo, error)
	GetForVisit(ctx context.Context, visitID int64) ([]*Photo, error)
	// Insert records a photo already written to the photo directory. uri
	// must be a bare filename.
	Insert(ctx context.Context, visitID int64, uri string) (*Photo, error)
	// Delete removes the photo row and its file. File errors are logged and
	// do not stop the row deletion.
	Delete(ctx context.Context, id int64) error
	DeleteForVisit(ctx context.Context, visitID int64) error
}

// StatsTable computes aggregate statistics. Results are never cached.
type StatsTable interface {
	Overall(ctx context.Context, r DateRange) (*OverallStats, error)
	ByCategory(ctx context.Context, r DateRange) ([]*CategoryStats, error)
	ByTimePeriod(ctx context.Context, g Granularity, r DateRange) ([]*PeriodStats, error)
	TopPlaces(ctx context.Context, limit int, r DateRange) ([]*TopPlace, error)
}

// Table operation errors.
var (
	ErrNotFound            = errors.New("entity not found")
	ErrInvalidID           = errors.New("invalid entity ID")
	ErrConstraintViolation = errors.New("constraint violation")
	ErrJournalNotEmpty     = errors.New("journal is not empty")
)

// Validation errors.
var (
	ErrInvalidName          = errors.New("invalid name")
	ErrInvalidDate          = errors.New("date must be YYYY-MM-DD")
	ErrInvalidRating        = errors.New("rating must be between 0 and 5 in steps of 0.5")
	ErrInvalidCost          = errors.New("cost must not be negative")
	ErrInvalidCoordinates   = errors.New("invalid coordinates")
	ErrInvalidPriceLevel    = errors.New("price level must be between 1 and 4")
	ErrInvalidAttendeeCount = errors.New("attendee count must be positive")
	ErrInvalidFilter        = errors.New("invalid filter value")
	ErrInvalidGranularity   = errors.New("invalid granularity")
	ErrInvalidLimit         = errors.New("limit must be positive")
	ErrInvalidPhotoRef      = errors.New("photo reference must be a bare filename")
)
