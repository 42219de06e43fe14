// Package sqlite provides the public API for the SQLite journal backend.
// This package exposes the factory function for creating SQLite backends
// while keeping implementation details internal.
package sqlite

import (
	"github.com/mesh-intelligence/stamped/internal/sqlite"
	"github.com/mesh-intelligence/stamped/pkg/types"
)

// NewBackend creates a new SQLite backend instance.
// The backend is not attached; call Attach with a Config to initialize.
//
// Example:
//
//	journal := sqlite.NewBackend()
//	err := journal.Attach(types.Config{
//	    Backend: types.BackendSQLite,
//	    DataDir: "/var/lib/stamped",
//	})
//	defer journal.Detach()
func NewBackend() types.Journal {
	return sqlite.NewBackend()
}
