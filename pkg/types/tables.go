package types

// Standard table names. Export and import use them as file stems.
const (
	TableCategories = "categories"
	TablePlaces     = "places"
	TablePeople     = "people"
	TableVisits     = "visits"
	TableTags       = "tags"
	TableVisitTags  = "visit_tags"
	TablePhotos     = "photos"
)

// StandardTableNames lists all tables in foreign-key dependency order:
// every table appears after the tables it references.
var StandardTableNames = []string{
	TableCategories,
	TablePlaces,
	TablePeople,
	TableVisits,
	TableTags,
	TableVisitTags,
	TablePhotos,
}
