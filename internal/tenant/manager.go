package tenant

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

// cacheEntry is a live embedded handle. At most one entry exists per
// cache key at any time. Only the native handle is cached; adapters
// carry buffered result state and are minted per Resolve so concurrent
// requests never share a cursor.
type cacheEntry struct {
	db *sql.DB
}

// Manager is the shared connection cache. It resolves unit ids to
// adapters, lazily creating and caching embedded handles (one per
// unit, plus the reserved central key) and delegating server-backed
// units to the engine registry. Dead cached handles are evicted and
// recreated transparently.
//
// Managers are constructed explicitly and passed by reference; the
// lifecycle is New -> Resolve... -> CloseAll.
type Manager struct {
	mu       sync.Mutex
	handles  map[string]*cacheEntry
	registry *Registry
	engines  *EngineRegistry
	log      *zap.SugaredLogger
}

func NewManager(registry *Registry, engines *EngineRegistry, log *zap.SugaredLogger) *Manager {
	return &Manager{
		handles:  make(map[string]*cacheEntry),
		registry: registry,
		engines:  engines,
		log:      log,
	}
}

// Registry exposes the unit registry backing this manager.
func (m *Manager) Registry() *Registry { return m.registry }

// Resolve returns an adapter for a unit, reusing the cached handle
// when it is still live. An empty unit id resolves the central
// database. Unknown or archived ids return ErrTenantNotFound; open
// failures return ErrBackendUnavailable.
func (m *Manager) Resolve(ctx context.Context, unitID string) (Adapter, error) {
	return m.resolve(ctx, unitID, true)
}

// Open returns a fresh, uncached adapter. Meant for maintenance flows
// that must not disturb the shared cache.
func (m *Manager) Open(ctx context.Context, unitID string) (Adapter, error) {
	return m.resolve(ctx, unitID, false)
}

func cacheKey(unitID string) string {
	if unitID == "" {
		return CentralKey
	}
	return unitID
}

func (m *Manager) resolve(ctx context.Context, unitID string, useCache bool) (Adapter, error) {
	key := cacheKey(unitID)

	m.mu.Lock()
	defer m.mu.Unlock()

	if useCache {
		if entry, ok := m.handles[key]; ok {
			if probe(ctx, entry.db) == nil {
				return newEmbeddedAdapter(entry.db), nil
			}
			// Stale handle: evict and fall through to recreation. The
			// probe failure itself is never surfaced to the caller.
			m.log.Warnw("stale connection evicted", "unit", key)
			_ = entry.db.Close()
			delete(m.handles, key)
		}
	}

	desc, err := m.descriptorFor(key, unitID)
	if err != nil {
		return nil, err
	}

	switch desc.Backend {
	case BackendServer:
		return m.openServer(ctx, unitID, desc)
	default:
		return m.openEmbedded(ctx, key, desc, useCache)
	}
}

// descriptorFor returns a synthetic descriptor for the central key and
// consults the registry for everything else.
func (m *Manager) descriptorFor(key, unitID string) (Descriptor, error) {
	if key == CentralKey {
		return Descriptor{
			ID:      CentralKey,
			Backend: BackendEmbedded,
			Locator: filepath.Base(m.registry.CentralPath()),
			Active:  true,
		}, nil
	}
	desc, err := m.registry.ResolveConfig(unitID)
	if err != nil {
		return Descriptor{}, err
	}
	if !desc.Active {
		return Descriptor{}, fmt.Errorf("%w: %s is archived", ErrTenantNotFound, unitID)
	}
	return desc, nil
}

func (m *Manager) openEmbedded(ctx context.Context, key string, desc Descriptor, useCache bool) (Adapter, error) {
	var path string
	if key == CentralKey {
		path = m.registry.CentralPath()
	} else {
		path = m.registry.UnitPath(desc)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}

	db, err := openSQLite(ctx, path)
	if err != nil {
		// One retry with a fresh connection before propagating.
		db, err = openSQLite(ctx, path)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrBackendUnavailable, path, err)
	}

	adapter := newEmbeddedAdapter(db)

	// Structure is ensured whenever a handle is created; every step is
	// idempotent. Failures are logged and the handle still returned so
	// repair paths can proceed best-effort.
	if err := ensureTables(ctx, adapter, tablesFor(key), m.log); err != nil {
		m.log.Warnw("schema initialization failed", "unit", key, "error", err)
	}

	if useCache {
		m.handles[key] = &cacheEntry{db: db}
	}
	return adapter, nil
}

func (m *Manager) openServer(ctx context.Context, unitID string, desc Descriptor) (Adapter, error) {
	pool, created, err := m.engines.Engine(ctx, unitID, desc.Locator)
	if err != nil {
		return nil, err
	}

	if created {
		if err := m.initServerSchema(ctx, pool); err != nil {
			m.log.Warnw("schema initialization failed", "unit", unitID, "error", err)
		}
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
	return newServerAdapter(tx), nil
}

// initServerSchema runs schema initialization in its own transaction
// scope so the caller still receives a usable adapter afterwards.
func (m *Manager) initServerSchema(ctx context.Context, pool *pgxpool.Pool) error {
	tx, err := pool.Begin(ctx)
	if err != nil {
		return err
	}
	a := newServerAdapter(tx)
	defer a.Close()
	return ensureTables(ctx, a, unitTables, m.log)
}

// EnsureSchema ensures the expected table set for a unit (or for the
// central database when unitID is empty). Safe to re-run; also used as
// a standalone repair operation against populated databases.
func (m *Manager) EnsureSchema(ctx context.Context, unitID string) error {
	a, err := m.Resolve(ctx, unitID)
	if err != nil {
		return err
	}
	err = ensureTables(ctx, a, tablesFor(cacheKey(unitID)), m.log)
	if a.Backend() == BackendServer {
		defer a.Close()
	}
	return err
}

// CloseConnection evicts and closes the cached handle (and pooled
// engine) for a unit. Best-effort: close-time errors are swallowed
// since the handle is being discarded regardless.
func (m *Manager) CloseConnection(unitID string) {
	key := cacheKey(unitID)

	m.mu.Lock()
	if entry, ok := m.handles[key]; ok {
		_ = entry.db.Close()
		delete(m.handles, key)
	}
	m.mu.Unlock()

	if unitID != "" {
		m.engines.Close(unitID)
	}
}

// CloseAll drains the cache: every embedded handle and every pooled
// engine is closed. Called on shutdown so no file locks or pool
// connections are leaked.
func (m *Manager) CloseAll() {
	m.mu.Lock()
	for key, entry := range m.handles {
		_ = entry.db.Close()
		delete(m.handles, key)
	}
	m.mu.Unlock()

	m.engines.CloseAll()
}

// Sweep probes every cached handle and evicts the dead ones. Scheduled
// in the background to complement the resolve-time probes.
func (m *Manager) Sweep(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for key, entry := range m.handles {
		if err := probe(ctx, entry.db); err != nil {
			m.log.Warnw("dead handle swept", "unit", key, "error", err)
			_ = entry.db.Close()
			delete(m.handles, key)
		}
	}
}

// CachedUnits returns the cache keys currently holding live handles.
func (m *Manager) CachedUnits() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	keys := make([]string, 0, len(m.handles))
	for key := range m.handles {
		keys = append(keys, key)
	}
	return keys
}

// CentralDB returns the shared database/sql handle of the central
// database, resolving it first if needed. The session store persists
// into this handle.
func (m *Manager) CentralDB(ctx context.Context) (*sql.DB, error) {
	if _, err := m.Resolve(ctx, ""); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	entry, ok := m.handles[CentralKey]
	if !ok {
		return nil, ErrBackendUnavailable
	}
	return entry.db, nil
}

// probe issues the cheap liveness query against an embedded handle.
func probe(ctx context.Context, db *sql.DB) error {
	var one int
	return db.QueryRowContext(ctx, "SELECT 1").Scan(&one)
}

func openSQLite(ctx context.Context, path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}
