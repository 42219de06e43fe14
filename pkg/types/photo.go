package types

import "time"

// Photo is an image attached to a visit. URI is a bare filename inside the
// photo directory, or a legacy absolute path written by older versions.
type Photo struct {
	ID        int64     `json:"id"`
	VisitID   int64     `json:"visit_id"`
	URI       string    `json:"uri"`
	CreatedAt time.Time `json:"created_at"`
}
