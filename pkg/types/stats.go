package types

// Granularity is the bucket size of ByTimePeriod.
type Granularity string

// Granularities.
const (
	GranularityDay   Granularity = "day"
	GranularityWeek  Granularity = "week"
	GranularityMonth Granularity = "month"
	GranularityYear  Granularity = "year"
)

// Valid reports whether g is one of the known granularities.
func (g Granularity) Valid() bool {
	switch g {
	case GranularityDay, GranularityWeek, GranularityMonth, GranularityYear:
		return true
	}
	return false
}

// OverallStats aggregates every visit in a date range. AvgRating ignores
// unrated visits and is nil when none are rated; missing costs count as 0.
type OverallStats struct {
	TotalVisits int64    `json:"total_visits"`
	AvgRating   *float64 `json:"avg_rating,omitempty"`
	TotalSpent  float64  `json:"total_spent"`
}

// CategoryStats aggregates visits per place category. The bucket with a nil
// Name collects visits at uncategorized places.
type CategoryStats struct {
	CategoryID *int64  `json:"category_id,omitempty"`
	Name       *string `json:"name"`
	Icon       *string `json:"icon,omitempty"`
	VisitCount int64   `json:"visit_count"`
	TotalSpent float64 `json:"total_spent"`
}

// PeriodStats aggregates visits in one time bucket. Period is the truncated
// date key, e.g. "2024-03" for monthly buckets.
type PeriodStats struct {
	Period     string  `json:"period"`
	VisitCount int64   `json:"visit_count"`
	TotalSpent float64 `json:"total_spent"`
}

// TopPlace is a place ranked by visit count.
type TopPlace struct {
	PlaceID      int64    `json:"place_id"`
	Name         string   `json:"name"`
	CategoryIcon *string  `json:"category_icon,omitempty"`
	VisitCount   int64    `json:"visit_count"`
	AvgRating    *float64 `json:"avg_rating,omitempty"`
}
