// Package types defines the Journal interface, the per-entity table
// interfaces, entity and query types, and the standard errors for the
// Stamped place-visit journal.
//
// Callers attach a Journal to a backend, reach each entity through its table
// accessor, and detach when done. Multi-step mutations that must stay
// consistent (place deletion, visit deletion with orphan cleanup) are exposed
// directly on the Journal so a backend can run them atomically.
package types
