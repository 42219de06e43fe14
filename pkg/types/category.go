package types

// Category classifies places. A place references at most one category.
type Category struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Icon string `json:"icon"`
}

// Person is someone who can pay for a visit.
type Person struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Tag is a user-defined label attachable to many visits.
type Tag struct {
	ID    int64  `json:"id"`
	Label string `json:"label"`
	Color string `json:"color"`
}

// VisitTag links a visit to a tag.
type VisitTag struct {
	VisitID int64 `json:"visit_id"`
	TagID   int64 `json:"tag_id"`
}
