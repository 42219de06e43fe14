package types

import (
	"math"
	"time"
)

// DefaultCurrency is stored when a visit is inserted without a currency.
const DefaultCurrency = "USD"

// DateLayout is the layout of Visit.Date. Zero-padded ISO dates compare
// correctly as strings.
const DateLayout = "2006-01-02"

// Field names a nullable column that a partial update can reset to NULL.
type Field string

// Nullable fields.
const (
	FieldAddress       Field = "address"
	FieldCategory      Field = "category_id"
	FieldRating        Field = "rating"
	FieldCost          Field = "cost"
	FieldWhoPaid       Field = "who_paid_id"
	FieldPriceLevel    Field = "price_level"
	FieldAttendeeCount Field = "attendee_count"
	FieldNotes         Field = "notes"
)

// visitNullable is the set of visit columns VisitUpdate.Unset accepts.
var visitNullable = map[Field]bool{
	FieldRating:        true,
	FieldCost:          true,
	FieldWhoPaid:       true,
	FieldPriceLevel:    true,
	FieldAttendeeCount: true,
	FieldNotes:         true,
}

// Visit is one dated occurrence of visiting a place.
type Visit struct {
	ID            int64     `json:"id"`
	PlaceID       int64     `json:"place_id"`
	Date          string    `json:"date"`
	Rating        *float64  `json:"rating,omitempty"`
	Cost          *float64  `json:"cost,omitempty"`
	Currency      string    `json:"currency"`
	WhoPaidID     *int64    `json:"who_paid_id,omitempty"`
	PriceLevel    *int64    `json:"price_level,omitempty"`
	AttendeeCount *int64    `json:"attendee_count,omitempty"`
	Notes         *string   `json:"notes,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// VisitDetail is a visit joined with its place, the place's category, and
// the payer's name.
type VisitDetail struct {
	Visit
	PlaceName      string  `json:"place_name"`
	PlaceAddress   *string `json:"place_address,omitempty"`
	PlaceLatitude  float64 `json:"place_latitude"`
	PlaceLongitude float64 `json:"place_longitude"`
	CategoryID     *int64  `json:"category_id,omitempty"`
	CategoryName   *string `json:"category_name,omitempty"`
	CategoryIcon   *string `json:"category_icon,omitempty"`
	WhoPaidName    *string `json:"who_paid_name,omitempty"`
}

// VisitInput carries the fields of a new visit.
type VisitInput struct {
	PlaceID       int64    `json:"place_id"`
	Date          string   `json:"date"`
	Rating        *float64 `json:"rating,omitempty"`
	Cost          *float64 `json:"cost,omitempty"`
	Currency      string   `json:"currency,omitempty"`
	WhoPaidID     *int64   `json:"who_paid_id,omitempty"`
	PriceLevel    *int64   `json:"price_level,omitempty"`
	AttendeeCount *int64   `json:"attendee_count,omitempty"`
	Notes         *string  `json:"notes,omitempty"`
}

// Validate checks every field of the input. PlaceID may be zero only when
// the visit is created together with its place.
func (in VisitInput) Validate() error {
	if in.PlaceID < 0 {
		return ErrInvalidID
	}
	if err := ValidateDate(in.Date); err != nil {
		return err
	}
	return validateVisitOptionals(in.Rating, in.Cost, in.PriceLevel, in.AttendeeCount)
}

// VisitUpdate is a partial update. Nil fields are left unchanged; fields
// listed in Unset are set to NULL.
type VisitUpdate struct {
	Date          *string
	Rating        *float64
	Cost          *float64
	Currency      *string
	WhoPaidID     *int64
	PriceLevel    *int64
	AttendeeCount *int64
	Notes         *string
	Unset         []Field
}

// Validate checks the fields that are being set.
func (u VisitUpdate) Validate() error {
	if u.Date != nil {
		if err := ValidateDate(*u.Date); err != nil {
			return err
		}
	}
	if u.Currency != nil && *u.Currency == "" {
		return ErrInvalidName
	}
	for _, f := range u.Unset {
		if !visitNullable[f] {
			return ErrInvalidFilter
		}
	}
	return validateVisitOptionals(u.Rating, u.Cost, u.PriceLevel, u.AttendeeCount)
}

func validateVisitOptionals(rating, cost *float64, priceLevel, attendees *int64) error {
	if rating != nil {
		if err := ValidateRating(*rating); err != nil {
			return err
		}
	}
	if cost != nil && (math.IsNaN(*cost) || *cost < 0) {
		return ErrInvalidCost
	}
	if priceLevel != nil && (*priceLevel < 1 || *priceLevel > 4) {
		return ErrInvalidPriceLevel
	}
	if attendees != nil && *attendees < 1 {
		return ErrInvalidAttendeeCount
	}
	return nil
}

// ValidateDate returns ErrInvalidDate unless s is a real calendar date in
// YYYY-MM-DD form.
func ValidateDate(s string) error {
	if len(s) != len(DateLayout) {
		return ErrInvalidDate
	}
	if _, err := time.Parse(DateLayout, s); err != nil {
		return ErrInvalidDate
	}
	return nil
}

// ValidateRating returns ErrInvalidRating unless r lies in [0,5] and is a
// multiple of 0.5.
func ValidateRating(r float64) error {
	if math.IsNaN(r) || r < 0 || r > 5 || math.Mod(r*2, 1) != 0 {
		return ErrInvalidRating
	}
	return nil
}
