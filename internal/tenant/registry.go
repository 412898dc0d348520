package tenant

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

// Registry resolves unit ids to connection descriptors. It merges an
// in-memory default set with the units table of the central database;
// in-memory entries win on id collision. The central database is read
// through short-lived connections so the registry never competes with
// the connection cache for the shared handle.
type Registry struct {
	mu          sync.RWMutex
	defaults    map[string]Descriptor
	dataDir     string
	centralFile string
	log         *zap.SugaredLogger
}

// NewRegistry creates a registry rooted at dataDir. defaults may be
// nil; entries are keyed by descriptor id.
func NewRegistry(dataDir, centralFile string, defaults []Descriptor, log *zap.SugaredLogger) *Registry {
	m := make(map[string]Descriptor, len(defaults))
	for _, d := range defaults {
		m[d.ID] = d
	}
	return &Registry{
		defaults:    m,
		dataDir:     dataDir,
		centralFile: centralFile,
		log:         log,
	}
}

// DataDir returns the directory holding unit database files.
func (r *Registry) DataDir() string { return r.dataDir }

// CentralPath returns the path of the central database file.
func (r *Registry) CentralPath() string {
	return filepath.Join(r.dataDir, r.centralFile)
}

// UnitPath returns the database file path for an embedded unit.
func (r *Registry) UnitPath(d Descriptor) string {
	return filepath.Join(r.dataDir, d.Locator)
}

// ResolveConfig returns the descriptor for a unit id, checking the
// in-memory defaults first and falling back to the central registry
// table. Returns ErrTenantNotFound for unknown ids.
func (r *Registry) ResolveConfig(id string) (Descriptor, error) {
	r.mu.RLock()
	d, ok := r.defaults[id]
	r.mu.RUnlock()
	if ok {
		return d, nil
	}

	row, err := r.queryCentral("SELECT * FROM units WHERE id = ?", id)
	if err != nil {
		return Descriptor{}, err
	}
	if row == nil {
		return Descriptor{}, fmt.Errorf("%w: %s", ErrTenantNotFound, id)
	}
	return descriptorFromRow(*row), nil
}

// ListAll returns every known unit keyed by id: the in-memory defaults
// merged with the central table. A central database that does not exist
// yet yields the defaults alone; a central database that exists but
// cannot be read is an error.
func (r *Registry) ListAll() (map[string]Descriptor, error) {
	r.mu.RLock()
	units := make(map[string]Descriptor, len(r.defaults))
	for id, d := range r.defaults {
		units[id] = d
	}
	r.mu.RUnlock()

	rows, err := r.queryCentralAll("SELECT * FROM units")
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		id := row.String("id")
		if _, ok := units[id]; ok {
			continue
		}
		units[id] = descriptorFromRow(row)
	}
	return units, nil
}

// RegisterUnit validates and persists a new unit, then publishes it to
// the in-memory set. The in-memory update only happens after the
// persisted insert succeeds.
func (r *Registry) RegisterUnit(d Descriptor) error {
	if !ValidUnitID(d.ID) {
		return fmt.Errorf("%w: %q", ErrInvalidTenantID, d.ID)
	}
	// The reserved central key (and its unprefixed spelling) must never
	// collide with a unit database.
	if d.ID == CentralKey || d.ID == "central" {
		return fmt.Errorf("%w: %q is reserved", ErrDuplicateTenant, d.ID)
	}

	if d.DisplayName == "" {
		d.DisplayName = d.ID
	}
	if d.Backend == "" {
		d.Backend = BackendEmbedded
	}
	if d.Locator == "" {
		d.Locator = d.ID + ".db"
	}
	d.Active = true

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.defaults[d.ID]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateTenant, d.ID)
	}

	if err := os.MkdirAll(r.dataDir, 0o755); err != nil {
		return fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
	db, err := sql.Open("sqlite3", r.CentralPath())
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
	defer db.Close()

	if err := ensureUnitsTable(db); err != nil {
		return fmt.Errorf("failed to prepare units table: %w", err)
	}

	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM units WHERE id = ?", d.ID).Scan(&count); err != nil {
		return fmt.Errorf("failed to check for existing unit: %w", err)
	}
	if count > 0 {
		return fmt.Errorf("%w: %s", ErrDuplicateTenant, d.ID)
	}

	_, err = db.Exec(
		`INSERT INTO units (id, name, description, locator, backend, active) VALUES (?, ?, ?, ?, ?, 1)`,
		d.ID, d.DisplayName, d.Description, d.Locator, string(d.Backend),
	)
	if err != nil {
		return fmt.Errorf("failed to register unit %s: %w", d.ID, err)
	}

	r.defaults[d.ID] = d
	r.log.Infow("unit registered", "unit", d.ID, "backend", d.Backend, "locator", d.Locator)
	return nil
}

// Deactivate soft-flags a unit inactive in the central table and drops
// it from the in-memory set. The unit row and its data file are kept.
func (r *Registry) Deactivate(id string) error {
	r.mu.Lock()
	delete(r.defaults, id)
	r.mu.Unlock()

	db, err := sql.Open("sqlite3", r.CentralPath())
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
	defer db.Close()

	if _, err := db.Exec("UPDATE units SET active = 0 WHERE id = ?", id); err != nil {
		return fmt.Errorf("failed to deactivate unit %s: %w", id, err)
	}
	return nil
}

// UpdateUnit rewrites the mutable descriptor fields of an existing
// registered unit (rename/relocate).
func (r *Registry) UpdateUnit(d Descriptor) error {
	db, err := sql.Open("sqlite3", r.CentralPath())
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
	defer db.Close()

	res, err := db.Exec(
		"UPDATE units SET name = ?, description = ?, locator = ?, backend = ? WHERE id = ?",
		d.DisplayName, d.Description, d.Locator, string(d.Backend), d.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update unit %s: %w", d.ID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		r.mu.RLock()
		_, inMemory := r.defaults[d.ID]
		r.mu.RUnlock()
		if !inMemory {
			return fmt.Errorf("%w: %s", ErrTenantNotFound, d.ID)
		}
	}

	r.mu.Lock()
	if cur, ok := r.defaults[d.ID]; ok {
		d.Active = cur.Active
		r.defaults[d.ID] = d
	}
	r.mu.Unlock()
	return nil
}

// queryCentral returns a single row from the central database, nil
// when the database file does not exist or the row is absent.
func (r *Registry) queryCentral(query string, args ...any) (*Row, error) {
	rows, err := r.queryCentralAll(query, args...)
	if err != nil || len(rows) == 0 {
		return nil, err
	}
	return &rows[0], nil
}

func (r *Registry) queryCentralAll(query string, args ...any) ([]Row, error) {
	path := r.CentralPath()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, nil
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
	defer db.Close()

	rows, err := db.Query(query, args...)
	if err != nil {
		// The units table may not exist yet on fresh deployments;
		// anything else is a real failure and must surface.
		if strings.Contains(err.Error(), "no such table") {
			return nil, nil
		}
		r.log.Warnw("central registry query failed", "error", err)
		return nil, fmt.Errorf("central registry query failed: %w", err)
	}
	return scanRows(rows)
}

// descriptorFromRow builds a descriptor tolerating schema drift in
// legacy central databases: missing optional columns fall back to
// defaults derived from the id.
func descriptorFromRow(row Row) Descriptor {
	id := row.String("id")

	d := Descriptor{
		ID:          id,
		DisplayName: id,
		Backend:     BackendEmbedded,
		Locator:     id + ".db",
		Active:      true,
	}
	if row.Has("name") && row.String("name") != "" {
		d.DisplayName = row.String("name")
	}
	if row.Has("description") {
		d.Description = row.String("description")
	}
	if row.Has("locator") && row.String("locator") != "" {
		d.Locator = row.String("locator")
	}
	if row.Has("backend") && row.String("backend") != "" {
		d.Backend = BackendKind(row.String("backend"))
	}
	if row.Has("active") {
		d.Active = row.Bool("active")
	}
	return d
}
