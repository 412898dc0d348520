package tenant

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tableNames(t *testing.T, a Adapter) map[string]bool {
	t.Helper()
	require.NoError(t, a.Execute(context.Background(),
		"SELECT name FROM sqlite_master WHERE type = 'table'"))
	rows, err := a.FetchAll()
	require.NoError(t, err)
	names := make(map[string]bool, len(rows))
	for _, row := range rows {
		names[row.String("name")] = true
	}
	return names
}

func TestEnsureSchema_CentralTables(t *testing.T) {
	m := newTestManager(t)

	a, err := m.Resolve(context.Background(), "")
	require.NoError(t, err)

	names := tableNames(t, a)
	assert.True(t, names["users"])
	assert.True(t, names["units"])
}

func TestEnsureSchema_UnitTables(t *testing.T) {
	m := newTestManager(t)
	require.NoError(t, m.Registry().RegisterUnit(Descriptor{ID: "unit_a"}))

	a, err := m.Resolve(context.Background(), "unit_a")
	require.NoError(t, err)

	names := tableNames(t, a)
	for _, table := range []string{"products", "stock_movements", "sectors", "suppliers", "categories"} {
		assert.True(t, names[table], "missing table %s", table)
	}
}

func TestEnsureSchema_Idempotent(t *testing.T) {
	m := newTestManager(t)
	require.NoError(t, m.Registry().RegisterUnit(Descriptor{ID: "unit_a"}))

	a, err := m.Resolve(context.Background(), "unit_a")
	require.NoError(t, err)

	require.NoError(t, a.Execute(context.Background(),
		"INSERT INTO products (name, quantity) VALUES ('gauze', 10)"))
	require.NoError(t, a.Commit())

	before, err := tableColumns(context.Background(), a, "products")
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		require.NoError(t, m.EnsureSchema(context.Background(), "unit_a"))
	}

	after, err := tableColumns(context.Background(), a, "products")
	require.NoError(t, err)
	assert.Equal(t, before, after)

	// Zero data loss.
	require.NoError(t, a.Execute(context.Background(),
		"SELECT quantity FROM products WHERE name = 'gauze'"))
	row, err := a.FetchOne()
	require.NoError(t, err)
	require.NotNil(t, row)
	assert.Equal(t, int64(10), row.Int("quantity"))
}

func TestEnsureSchema_DriftRepair(t *testing.T) {
	// A populated database from an older version: the products table
	// exists but lacks most of the expected columns.
	dir := t.TempDir()
	reg := NewRegistry(dir, "central.db", nil, testLogger())
	require.NoError(t, reg.RegisterUnit(Descriptor{ID: "unit_a"}))

	db, err := sql.Open("sqlite3", filepath.Join(dir, "unit_a.db"))
	require.NoError(t, err)
	_, err = db.Exec("CREATE TABLE products (id INTEGER PRIMARY KEY AUTOINCREMENT, name TEXT NOT NULL)")
	require.NoError(t, err)
	_, err = db.Exec("INSERT INTO products (name) VALUES ('syringe')")
	require.NoError(t, err)
	require.NoError(t, db.Close())

	m := NewManager(reg, NewEngineRegistry(PoolConfig{}, testLogger()), testLogger())
	t.Cleanup(m.CloseAll)

	a, err := m.Resolve(context.Background(), "unit_a")
	require.NoError(t, err)

	cols, err := tableColumns(context.Background(), a, "products")
	require.NoError(t, err)
	for _, c := range []string{"quantity", "barcode", "unit_of_measure", "min_stock", "active"} {
		assert.True(t, cols[c], "missing repaired column %s", c)
	}

	// The pre-existing row survives the repair.
	require.NoError(t, a.Execute(context.Background(), "SELECT name FROM products"))
	rows, err := a.FetchAll()
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "syringe", rows[0].String("name"))
}
