// Package tenant implements the multi-tenant connection routing layer:
// the unit registry, the shared connection cache, the schema initializer
// and the backend-agnostic database adapter.
//
// # Usage
//
//	reg := tenant.NewRegistry(cfg.Database.DataDir, cfg.Database.CentralFile, nil, logger)
//	mgr := tenant.NewManager(reg, tenant.NewEngineRegistry(poolCfg, logger), logger)
//	db, err := mgr.Resolve(ctx, "unit_a")
package tenant

import "regexp"

// BackendKind identifies the database engine backing a unit.
type BackendKind string

const (
	// BackendEmbedded is a SQLite database stored as a single file
	// under the data directory.
	BackendEmbedded BackendKind = "sqlite"
	// BackendServer is a PostgreSQL database reached over the network
	// through a pooled engine.
	BackendServer BackendKind = "postgres"
)

// CentralKey is the reserved cache key for the central database.
// It is never a valid unit id.
const CentralKey = "__central__"

var unitIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// ValidUnitID reports whether id is acceptable as a unit identifier.
func ValidUnitID(id string) bool {
	return unitIDPattern.MatchString(id)
}

// Descriptor describes a registered unit and how to reach its database.
type Descriptor struct {
	ID          string      `json:"id"`
	DisplayName string      `json:"name"`
	Description string      `json:"description"`
	Backend     BackendKind `json:"backend"`
	// Locator is the database file name relative to the data directory
	// for embedded units, or a connection string for server units.
	Locator string `json:"locator"`
	Active  bool   `json:"active"`
}
