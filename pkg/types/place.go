package types

import (
	"math"
	"strings"
	"time"
)

// Place is a physical location that has been visited at least once.
type Place struct {
	ID         int64     `json:"id"`
	Name       string    `json:"name"`
	Address    *string   `json:"address,omitempty"`
	Latitude   float64   `json:"latitude"`
	Longitude  float64   `json:"longitude"`
	CategoryID *int64    `json:"category_id,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// HasLocation reports whether the place has real coordinates. (0,0) is the
// "no location" sentinel.
func (p *Place) HasLocation() bool {
	return p.Latitude != 0 || p.Longitude != 0
}

// PlaceDetail is a place joined with its category. CategoryName and
// CategoryIcon are nil for uncategorized places, including places whose
// category row no longer exists.
type PlaceDetail struct {
	Place
	CategoryName *string `json:"category_name,omitempty"`
	CategoryIcon *string `json:"category_icon,omitempty"`
}

// PlaceWithStats is a place joined with aggregates over its visits.
type PlaceWithStats struct {
	PlaceDetail
	VisitCount int64    `json:"visit_count"`
	AvgRating  *float64 `json:"avg_rating,omitempty"`
	TotalSpent float64  `json:"total_spent"`
}

// PlaceInput carries the fields of a new place.
type PlaceInput struct {
	Name       string  `json:"name"`
	Address    *string `json:"address,omitempty"`
	Latitude   float64 `json:"latitude"`
	Longitude  float64 `json:"longitude"`
	CategoryID *int64  `json:"category_id,omitempty"`
}

// Validate checks the name and coordinates.
func (in PlaceInput) Validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return ErrInvalidName
	}
	return ValidateCoordinates(in.Latitude, in.Longitude)
}

// PlaceUpdate is a partial update. Nil fields are left unchanged; fields
// listed in Unset are set to NULL. Only FieldAddress and FieldCategory can be
// unset.
type PlaceUpdate struct {
	Name       *string
	Address    *string
	Latitude   *float64
	Longitude  *float64
	CategoryID *int64
	Unset      []Field
}

// Validate checks the fields that are being set.
func (u PlaceUpdate) Validate() error {
	if u.Name != nil && strings.TrimSpace(*u.Name) == "" {
		return ErrInvalidName
	}
	if u.Latitude != nil && !validLatitude(*u.Latitude) {
		return ErrInvalidCoordinates
	}
	if u.Longitude != nil && !validLongitude(*u.Longitude) {
		return ErrInvalidCoordinates
	}
	for _, f := range u.Unset {
		if f != FieldAddress && f != FieldCategory {
			return ErrInvalidFilter
		}
	}
	return nil
}

// ValidateCoordinates returns ErrInvalidCoordinates unless latitude lies in
// [-90,90] and longitude in [-180,180].
func ValidateCoordinates(lat, lng float64) error {
	if !validLatitude(lat) || !validLongitude(lng) {
		return ErrInvalidCoordinates
	}
	return nil
}

func validLatitude(v float64) bool {
	return !math.IsNaN(v) && v >= -90 && v <= 90
}

func validLongitude(v float64) bool {
	return !math.IsNaN(v) && v >= -180 && v <= 180
}
