package tenant

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// columnDef carries the column definition per dialect. sqliteAdd and
// postgresAdd override the definition used for drift-repair ALTERs,
// where constraints like NOT NULL or CURRENT_TIMESTAMP defaults are
// not allowed on populated tables.
type columnDef struct {
	name        string
	sqlite      string
	postgres    string
	sqliteAdd   string
	postgresAdd string
}

type indexDef struct {
	name   string
	column string
}

type tableDef struct {
	name    string
	columns []columnDef
	indexes []indexDef
}

func col(name, sqlite, postgres string) columnDef {
	return columnDef{name: name, sqlite: sqlite, postgres: postgres}
}

func timestampCol(name string) columnDef {
	return columnDef{
		name:        name,
		sqlite:      "DATETIME DEFAULT CURRENT_TIMESTAMP",
		postgres:    "TIMESTAMPTZ DEFAULT now()",
		sqliteAdd:   "DATETIME",
		postgresAdd: "TIMESTAMPTZ",
	}
}

var unitsTable = tableDef{
	name: "units",
	columns: []columnDef{
		col("id", "TEXT PRIMARY KEY", "TEXT PRIMARY KEY"),
		{name: "name", sqlite: "TEXT NOT NULL", postgres: "TEXT NOT NULL", sqliteAdd: "TEXT", postgresAdd: "TEXT"},
		col("description", "TEXT", "TEXT"),
		col("locator", "TEXT", "TEXT"),
		col("backend", "TEXT", "TEXT"),
		col("active", "INTEGER DEFAULT 1", "INTEGER DEFAULT 1"),
		timestampCol("created_at"),
	},
	indexes: []indexDef{
		{name: "idx_units_active", column: "active"},
	},
}

var centralTables = []tableDef{
	{
		name: "users",
		columns: []columnDef{
			col("id", "INTEGER PRIMARY KEY AUTOINCREMENT", "BIGSERIAL PRIMARY KEY"),
			{name: "name", sqlite: "TEXT NOT NULL", postgres: "TEXT NOT NULL", sqliteAdd: "TEXT", postgresAdd: "TEXT"},
			{name: "email", sqlite: "TEXT UNIQUE NOT NULL", postgres: "TEXT UNIQUE NOT NULL", sqliteAdd: "TEXT", postgresAdd: "TEXT"},
			{name: "password", sqlite: "TEXT NOT NULL", postgres: "TEXT NOT NULL", sqliteAdd: "TEXT", postgresAdd: "TEXT"},
			col("role", "TEXT DEFAULT 'user'", "TEXT DEFAULT 'user'"),
			col("unit_access", "TEXT", "TEXT"),
			col("can_register", "INTEGER DEFAULT 1", "INTEGER DEFAULT 1"),
			col("menu_permissions", "TEXT", "TEXT"),
			col("active", "INTEGER DEFAULT 1", "INTEGER DEFAULT 1"),
			timestampCol("created_at"),
		},
		indexes: []indexDef{
			{name: "idx_users_email", column: "email"},
			{name: "idx_users_active", column: "active"},
			{name: "idx_users_role", column: "role"},
		},
	},
	unitsTable,
}

var unitTables = []tableDef{
	{
		name: "products",
		columns: []columnDef{
			col("id", "INTEGER PRIMARY KEY AUTOINCREMENT", "BIGSERIAL PRIMARY KEY"),
			{name: "name", sqlite: "TEXT NOT NULL", postgres: "TEXT NOT NULL", sqliteAdd: "TEXT", postgresAdd: "TEXT"},
			col("description", "TEXT", "TEXT"),
			col("quantity", "INTEGER DEFAULT 0", "BIGINT DEFAULT 0"),
			col("category", "TEXT", "TEXT"),
			timestampCol("created_at"),
			timestampCol("updated_at"),
			col("user_id", "INTEGER", "BIGINT"),
			col("barcode", "TEXT", "TEXT"),
			col("unit_of_measure", "TEXT DEFAULT 'un'", "TEXT DEFAULT 'un'"),
			col("min_stock", "INTEGER DEFAULT 5", "BIGINT DEFAULT 5"),
			col("active", "INTEGER DEFAULT 1", "INTEGER DEFAULT 1"),
		},
		indexes: []indexDef{
			{name: "idx_products_name", column: "name"},
			{name: "idx_products_category", column: "category"},
			{name: "idx_products_active", column: "active"},
			{name: "idx_products_min_stock", column: "min_stock"},
		},
	},
	{
		name: "stock_movements",
		columns: []columnDef{
			col("id", "INTEGER PRIMARY KEY AUTOINCREMENT", "BIGSERIAL PRIMARY KEY"),
			{name: "product_id", sqlite: "INTEGER NOT NULL", postgres: "BIGINT NOT NULL", sqliteAdd: "INTEGER", postgresAdd: "BIGINT"},
			{name: "direction", sqlite: "TEXT NOT NULL", postgres: "TEXT NOT NULL", sqliteAdd: "TEXT", postgresAdd: "TEXT"},
			{name: "quantity", sqlite: "INTEGER NOT NULL", postgres: "BIGINT NOT NULL", sqliteAdd: "INTEGER", postgresAdd: "BIGINT"},
			{name: "user_id", sqlite: "INTEGER NOT NULL", postgres: "BIGINT NOT NULL", sqliteAdd: "INTEGER", postgresAdd: "BIGINT"},
			col("source", "TEXT", "TEXT"),
			col("destination", "TEXT", "TEXT"),
			col("invoice", "TEXT", "TEXT"),
			col("service_order", "TEXT", "TEXT"),
			col("reason", "TEXT", "TEXT"),
			timestampCol("moved_at"),
		},
		indexes: []indexDef{
			{name: "idx_stock_movements_product_id", column: "product_id"},
			{name: "idx_stock_movements_direction", column: "direction"},
			{name: "idx_stock_movements_moved_at", column: "moved_at"},
			{name: "idx_stock_movements_user_id", column: "user_id"},
		},
	},
	{
		name: "sectors",
		columns: []columnDef{
			col("id", "INTEGER PRIMARY KEY AUTOINCREMENT", "BIGSERIAL PRIMARY KEY"),
			{name: "name", sqlite: "TEXT NOT NULL", postgres: "TEXT NOT NULL", sqliteAdd: "TEXT", postgresAdd: "TEXT"},
			col("description", "TEXT", "TEXT"),
			col("responsible", "TEXT", "TEXT"),
			col("active", "INTEGER DEFAULT 1", "INTEGER DEFAULT 1"),
		},
		indexes: []indexDef{
			{name: "idx_sectors_name", column: "name"},
			{name: "idx_sectors_active", column: "active"},
		},
	},
	{
		name: "suppliers",
		columns: []columnDef{
			col("id", "INTEGER PRIMARY KEY AUTOINCREMENT", "BIGSERIAL PRIMARY KEY"),
			{name: "name", sqlite: "TEXT NOT NULL", postgres: "TEXT NOT NULL", sqliteAdd: "TEXT", postgresAdd: "TEXT"},
			col("tax_id", "TEXT", "TEXT"),
			col("phone", "TEXT", "TEXT"),
			col("email", "TEXT", "TEXT"),
			col("address", "TEXT", "TEXT"),
			col("active", "INTEGER DEFAULT 1", "INTEGER DEFAULT 1"),
		},
		indexes: []indexDef{
			{name: "idx_suppliers_name", column: "name"},
			{name: "idx_suppliers_tax_id", column: "tax_id"},
			{name: "idx_suppliers_active", column: "active"},
		},
	},
	{
		name: "categories",
		columns: []columnDef{
			col("id", "INTEGER PRIMARY KEY AUTOINCREMENT", "BIGSERIAL PRIMARY KEY"),
			{name: "name", sqlite: "TEXT NOT NULL", postgres: "TEXT NOT NULL", sqliteAdd: "TEXT", postgresAdd: "TEXT"},
			col("description", "TEXT", "TEXT"),
			col("active", "INTEGER DEFAULT 1", "INTEGER DEFAULT 1"),
		},
		indexes: []indexDef{
			{name: "idx_categories_name", column: "name"},
			{name: "idx_categories_active", column: "active"},
		},
	},
}

func (c columnDef) createDef(backend BackendKind) string {
	if backend == BackendServer {
		return c.postgres
	}
	return c.sqlite
}

func (c columnDef) addDef(backend BackendKind) string {
	if backend == BackendServer {
		if c.postgresAdd != "" {
			return c.postgresAdd
		}
		return c.postgres
	}
	if c.sqliteAdd != "" {
		return c.sqliteAdd
	}
	return c.sqlite
}

func (t tableDef) createStatement(backend BackendKind) string {
	defs := make([]string, len(t.columns))
	for i, c := range t.columns {
		defs[i] = c.name + " " + c.createDef(backend)
	}
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", t.name, strings.Join(defs, ", "))
}

// ensureTables applies the expected table, column and index set over
// an adapter. Creation is create-if-absent; tables that already exist
// get any missing columns added in place (schema drift repair).
// Existing data is never dropped or truncated.
func ensureTables(ctx context.Context, a Adapter, tables []tableDef, log *zap.SugaredLogger) error {
	for _, t := range tables {
		if err := a.Execute(ctx, t.createStatement(a.Backend())); err != nil {
			return fmt.Errorf("failed to create table %s: %w", t.name, err)
		}

		existing, err := tableColumns(ctx, a, t.name)
		if err != nil {
			return fmt.Errorf("failed to inspect table %s: %w", t.name, err)
		}
		for _, c := range t.columns {
			if existing[c.name] {
				continue
			}
			stmt := fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", t.name, c.name, c.addDef(a.Backend()))
			if err := a.Execute(ctx, stmt); err != nil {
				return fmt.Errorf("failed to add column %s.%s: %w", t.name, c.name, err)
			}
			log.Infow("schema drift repaired", "table", t.name, "column", c.name)
		}

		for _, idx := range t.indexes {
			stmt := fmt.Sprintf("CREATE INDEX IF NOT EXISTS %s ON %s(%s)", idx.name, t.name, idx.column)
			if err := a.Execute(ctx, stmt); err != nil {
				return fmt.Errorf("failed to create index %s: %w", idx.name, err)
			}
		}
	}
	return a.Commit()
}

// tableColumns returns the set of column names a table currently has.
func tableColumns(ctx context.Context, a Adapter, table string) (map[string]bool, error) {
	var err error
	if a.Backend() == BackendServer {
		err = a.Execute(ctx,
			"SELECT column_name AS name FROM information_schema.columns WHERE table_name = $1", table)
	} else {
		err = a.Execute(ctx, fmt.Sprintf("PRAGMA table_info(%s)", table))
	}
	if err != nil {
		return nil, err
	}

	rows, err := a.FetchAll()
	if err != nil {
		return nil, err
	}
	cols := make(map[string]bool, len(rows))
	for _, row := range rows {
		cols[row.String("name")] = true
	}
	return cols, nil
}

// ensureUnitsTable prepares the central units table on a raw handle.
// Used by the registry before inserting a registration row, since the
// central database may predate the locator and backend columns.
func ensureUnitsTable(db *sql.DB) error {
	return ensureTables(context.Background(), newEmbeddedAdapter(db), []tableDef{unitsTable}, zap.NewNop().Sugar())
}

// tablesFor picks the expected table set for a cache key.
func tablesFor(key string) []tableDef {
	if key == CentralKey {
		return centralTables
	}
	return unitTables
}
