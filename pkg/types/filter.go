package types

// SortField selects the column GetFiltered orders by.
type SortField string

// Sort fields.
const (
	SortByDate   SortField = "date"
	SortByRating SortField = "rating"
	SortByCost   SortField = "cost"
	SortByName   SortField = "name"
)

// SortOrder selects ascending or descending order.
type SortOrder string

// Sort orders.
const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// VisitFilters configures VisitTable.GetFiltered. Every field is optional;
// the zero value returns all visits, newest date first.
type VisitFilters struct {
	// CategoryID keeps visits whose place has this category.
	CategoryID *int64 `json:"category_id,omitempty"`
	// MinRating keeps visits rated at least this much. Unrated visits are
	// excluded when set.
	MinRating *float64 `json:"min_rating,omitempty"`
	// WhoPaidID keeps visits paid by this person.
	WhoPaidID *int64 `json:"who_paid_id,omitempty"`
	// DateFrom and DateTo bound Visit.Date inclusively.
	DateFrom string `json:"date_from,omitempty"`
	DateTo   string `json:"date_to,omitempty"`
	// SearchQuery is a case-insensitive substring matched against the place
	// name or the visit notes.
	SearchQuery string `json:"search_query,omitempty"`
	// TagIDs keeps visits tagged with any of these tags.
	TagIDs []int64 `json:"tag_ids,omitempty"`

	SortField SortField `json:"sort_field,omitempty"`
	SortOrder SortOrder `json:"sort_order,omitempty"`
}

// Validate returns ErrInvalidFilter or ErrInvalidDate for malformed filters.
func (f VisitFilters) Validate() error {
	switch f.SortField {
	case "", SortByDate, SortByRating, SortByCost, SortByName:
	default:
		return ErrInvalidFilter
	}
	switch f.SortOrder {
	case "", SortAsc, SortDesc:
	default:
		return ErrInvalidFilter
	}
	if f.MinRating != nil && (*f.MinRating < 0 || *f.MinRating > 5) {
		return ErrInvalidFilter
	}
	return DateRange{From: f.DateFrom, To: f.DateTo}.Validate()
}

// Sort returns the effective sort field and order, applying the date
// descending default.
func (f VisitFilters) Sort() (SortField, SortOrder) {
	field, order := f.SortField, f.SortOrder
	if field == "" {
		field = SortByDate
	}
	if order == "" {
		order = SortDesc
	}
	return field, order
}

// DateRange is an optional inclusive window over Visit.Date. Empty bounds
// are open.
type DateRange struct {
	From string `json:"from,omitempty"`
	To   string `json:"to,omitempty"`
}

// Validate checks both bounds and that From does not come after To.
func (r DateRange) Validate() error {
	if r.From != "" {
		if err := ValidateDate(r.From); err != nil {
			return err
		}
	}
	if r.To != "" {
		if err := ValidateDate(r.To); err != nil {
			return err
		}
	}
	if r.From != "" && r.To != "" && r.From > r.To {
		return ErrInvalidFilter
	}
	return nil
}
