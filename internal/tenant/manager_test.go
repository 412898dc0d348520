package tenant

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	reg := NewRegistry(t.TempDir(), "central.db", nil, testLogger())
	m := NewManager(reg, NewEngineRegistry(PoolConfig{}, testLogger()), testLogger())
	t.Cleanup(m.CloseAll)
	return m
}

func TestManager_ResolveCentral(t *testing.T) {
	m := newTestManager(t)

	a, err := m.Resolve(context.Background(), "")
	require.NoError(t, err)
	require.NotNil(t, a)

	// The central schema is ensured on first use.
	require.NoError(t, a.Execute(context.Background(), "SELECT COUNT(*) AS n FROM users"))
	row, err := a.FetchOne()
	require.NoError(t, err)
	require.NotNil(t, row)
	assert.Equal(t, int64(0), row.Int("n"))
}

func TestManager_CacheHitSharesNativeHandle(t *testing.T) {
	m := newTestManager(t)
	require.NoError(t, m.Registry().RegisterUnit(Descriptor{ID: "unit_a"}))

	first, err := m.Resolve(context.Background(), "unit_a")
	require.NoError(t, err)
	second, err := m.Resolve(context.Background(), "unit_a")
	require.NoError(t, err)

	// The native handle is cached and shared, but each Resolve mints
	// its own adapter so result buffers stay per caller.
	assert.NotSame(t, first, second)
	assert.Same(t, first.(*embeddedAdapter).db, second.(*embeddedAdapter).db)
}

func TestManager_ResolveIsolatesBufferedResults(t *testing.T) {
	m := newTestManager(t)
	require.NoError(t, m.Registry().RegisterUnit(Descriptor{ID: "unit_a"}))
	ctx := context.Background()

	a, err := m.Resolve(ctx, "unit_a")
	require.NoError(t, err)
	b, err := m.Resolve(ctx, "unit_a")
	require.NoError(t, err)

	require.NoError(t, a.Execute(ctx,
		"INSERT INTO sectors (name) VALUES (:name)", map[string]any{"name": "icu"}))

	// A buffers a result, then B runs its own statement before A
	// fetches. A must still see its own rows.
	require.NoError(t, a.Execute(ctx, "SELECT name FROM sectors"))
	require.NoError(t, b.Execute(ctx, "SELECT 42 AS answer"))

	rows, err := a.FetchAll()
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "icu", rows[0].String("name"))

	row, err := b.FetchOne()
	require.NoError(t, err)
	require.NotNil(t, row)
	assert.Equal(t, int64(42), row.Int("answer"))
}

func TestManager_SelfHealsAfterExternalClose(t *testing.T) {
	m := newTestManager(t)
	require.NoError(t, m.Registry().RegisterUnit(Descriptor{ID: "unit_a"}))

	stale, err := m.Resolve(context.Background(), "unit_a")
	require.NoError(t, err)

	// Kill the underlying handle behind the cache's back.
	m.mu.Lock()
	require.NoError(t, m.handles["unit_a"].db.Close())
	m.mu.Unlock()

	fresh, err := m.Resolve(context.Background(), "unit_a")
	require.NoError(t, err)
	assert.NotSame(t, stale, fresh)

	require.NoError(t, fresh.Execute(context.Background(), "SELECT 1 AS one"))
	row, err := fresh.FetchOne()
	require.NoError(t, err)
	require.NotNil(t, row)
	assert.Equal(t, int64(1), row.Int("one"))
}

func TestManager_ResolveUnknownUnit(t *testing.T) {
	m := newTestManager(t)

	_, err := m.Resolve(context.Background(), "ghost")
	assert.ErrorIs(t, err, ErrTenantNotFound)
}

func TestManager_ResolveArchivedUnit(t *testing.T) {
	m := newTestManager(t)
	require.NoError(t, m.Registry().RegisterUnit(Descriptor{ID: "unit_a"}))
	require.NoError(t, m.Registry().Deactivate("unit_a"))

	_, err := m.Resolve(context.Background(), "unit_a")
	assert.ErrorIs(t, err, ErrTenantNotFound)
}

func TestManager_ConcurrentResolveSingleCreation(t *testing.T) {
	m := newTestManager(t)
	require.NoError(t, m.Registry().RegisterUnit(Descriptor{ID: "unit_c"}))

	const callers = 16
	adapters := make([]Adapter, callers)

	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			a, err := m.Resolve(context.Background(), "unit_c")
			assert.NoError(t, err)
			adapters[i] = a
		}(i)
	}
	wg.Wait()

	// Exactly one native handle was created and every caller's adapter
	// wraps it.
	assert.Len(t, m.CachedUnits(), 1)
	for _, a := range adapters {
		require.NotNil(t, a)
		assert.Same(t, adapters[0].(*embeddedAdapter).db, a.(*embeddedAdapter).db)
		require.NoError(t, a.Execute(context.Background(), "SELECT 1"))
	}
}

func TestManager_OpenBypassesCache(t *testing.T) {
	m := newTestManager(t)
	require.NoError(t, m.Registry().RegisterUnit(Descriptor{ID: "unit_a"}))

	a, err := m.Open(context.Background(), "unit_a")
	require.NoError(t, err)
	require.NotNil(t, a)
	assert.Empty(t, m.CachedUnits())

	cached, err := m.Resolve(context.Background(), "unit_a")
	require.NoError(t, err)
	assert.NotSame(t, a, cached)
}

func TestManager_CloseConnectionEvicts(t *testing.T) {
	m := newTestManager(t)
	require.NoError(t, m.Registry().RegisterUnit(Descriptor{ID: "unit_a"}))

	first, err := m.Resolve(context.Background(), "unit_a")
	require.NoError(t, err)

	m.CloseConnection("unit_a")
	assert.Empty(t, m.CachedUnits())

	second, err := m.Resolve(context.Background(), "unit_a")
	require.NoError(t, err)
	assert.NotSame(t, first, second)
}

func TestManager_CloseAllDrains(t *testing.T) {
	m := newTestManager(t)
	require.NoError(t, m.Registry().RegisterUnit(Descriptor{ID: "unit_a"}))

	_, err := m.Resolve(context.Background(), "")
	require.NoError(t, err)
	_, err = m.Resolve(context.Background(), "unit_a")
	require.NoError(t, err)

	m.CloseAll()
	assert.Empty(t, m.CachedUnits())

	// The cache is usable again after a drain.
	_, err = m.Resolve(context.Background(), "unit_a")
	require.NoError(t, err)
}

func TestManager_SweepEvictsDeadHandles(t *testing.T) {
	m := newTestManager(t)
	require.NoError(t, m.Registry().RegisterUnit(Descriptor{ID: "unit_a"}))
	require.NoError(t, m.Registry().RegisterUnit(Descriptor{ID: "unit_b"}))

	_, err := m.Resolve(context.Background(), "unit_a")
	require.NoError(t, err)
	_, err = m.Resolve(context.Background(), "unit_b")
	require.NoError(t, err)

	m.mu.Lock()
	require.NoError(t, m.handles["unit_a"].db.Close())
	m.mu.Unlock()

	m.Sweep(context.Background())

	keys := m.CachedUnits()
	assert.Equal(t, []string{"unit_b"}, keys)
}

func TestManager_CentralDB(t *testing.T) {
	m := newTestManager(t)

	db, err := m.CentralDB(context.Background())
	require.NoError(t, err)
	require.NoError(t, db.Ping())
}
