// Package sqlite implements the SQLite-backed place-visit journal: schema
// migrations, default seeding, the query layer, and the cascade helpers that
// keep places, visits, tags and photos consistent.
package sqlite

// DatabaseFile is the journal database filename inside the data directory.
const DatabaseFile = "stamped.db"

// Initial schema DDL.
const (
	createCategories = `CREATE TABLE categories (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    name TEXT NOT NULL,
    icon TEXT NOT NULL
);`

	createPlaces = `CREATE TABLE places (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    name TEXT NOT NULL,
    address TEXT,
    latitude REAL NOT NULL,
    longitude REAL NOT NULL,
    category_id INTEGER REFERENCES categories(id),
    created_at TEXT NOT NULL
);`

	createPeople = `CREATE TABLE people (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    name TEXT NOT NULL
);`

	createVisits = `CREATE TABLE visits (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    place_id INTEGER NOT NULL REFERENCES places(id),
    date TEXT NOT NULL,
    rating REAL,
    cost REAL,
    currency TEXT DEFAULT 'USD',
    who_paid_id INTEGER REFERENCES people(id),
    notes TEXT,
    created_at TEXT NOT NULL,
    updated_at TEXT NOT NULL
);`

	createTags = `CREATE TABLE tags (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    label TEXT NOT NULL,
    color TEXT NOT NULL
);`

	createVisitTags = `CREATE TABLE visit_tags (
    visit_id INTEGER NOT NULL REFERENCES visits(id) ON DELETE CASCADE,
    tag_id INTEGER NOT NULL REFERENCES tags(id) ON DELETE CASCADE
);`

	createPhotos = `CREATE TABLE photos (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    visit_id INTEGER NOT NULL REFERENCES visits(id) ON DELETE CASCADE,
    uri TEXT NOT NULL,
    created_at TEXT NOT NULL
);`
)

// Later column additions.
const (
	addVisitPriceLevel    = `ALTER TABLE visits ADD COLUMN price_level INTEGER;`
	addVisitAttendeeCount = `ALTER TABLE visits ADD COLUMN attendee_count INTEGER;`
)

// Index DDL. Duplicate tag links are collapsed before the unique index is
// built so journals written before it existed still migrate.
const (
	dedupeVisitTags = `DELETE FROM visit_tags WHERE rowid NOT IN (
    SELECT MIN(rowid) FROM visit_tags GROUP BY visit_id, tag_id
);`
	indexVisitTagsPair  = `CREATE UNIQUE INDEX idx_visit_tags_pair ON visit_tags (visit_id, tag_id);`
	indexVisitTagsTag   = `CREATE INDEX idx_visit_tags_tag ON visit_tags (tag_id);`
	indexVisitsPlace    = `CREATE INDEX idx_visits_place ON visits (place_id);`
	indexVisitsDate     = `CREATE INDEX idx_visits_date ON visits (date);`
	indexVisitsWhoPaid  = `CREATE INDEX idx_visits_who_paid ON visits (who_paid_id);`
	indexPlacesCategory = `CREATE INDEX idx_places_category ON places (category_id);`
	indexPhotosVisit    = `CREATE INDEX idx_photos_visit ON photos (visit_id);`
)

// createMigrationJournal records which migrations have been applied.
const createMigrationJournal = `CREATE TABLE IF NOT EXISTS schema_migrations (
    id TEXT PRIMARY KEY,
    checksum TEXT NOT NULL,
    applied_at TEXT NOT NULL
);`

// migration is one forward-only schema step. Statements run in order inside
// a single transaction.
type migration struct {
	id         string
	statements []string
}

// migrations is the ordered schema history. Entries are append-only: editing
// an applied migration makes Migrate fail with ErrMigrationChecksum.
var migrations = []migration{
	{
		id: "0000_initial_schema",
		statements: []string{
			createCategories,
			createPlaces,
			createPeople,
			createVisits,
			createTags,
			createVisitTags,
			createPhotos,
		},
	},
	{
		id:         "0001_add_price_level",
		statements: []string{addVisitPriceLevel},
	},
	{
		id:         "0002_add_attendee_count",
		statements: []string{addVisitAttendeeCount},
	},
	{
		id: "0003_indexes",
		statements: []string{
			dedupeVisitTags,
			indexVisitTagsPair,
			indexVisitTagsTag,
			indexVisitsPlace,
			indexVisitsDate,
			indexVisitsWhoPaid,
			indexPlacesCategory,
			indexPhotosVisit,
		},
	},
}
