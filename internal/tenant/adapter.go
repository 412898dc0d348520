package tenant

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/jackc/pgx/v5"
)

// Adapter is the backend-agnostic database handle handed to business
// logic. Exactly two implementations exist: the embedded SQLite
// adapter and the PostgreSQL server adapter. Calling code never
// branches on the backend kind.
//
// Execute runs a statement; row-returning statements buffer their
// result for FetchAll/FetchOne. Commit after a failed Execute reports
// that failure instead of silently succeeding, and Rollback is always
// safe to call.
type Adapter interface {
	Backend() BackendKind
	Execute(ctx context.Context, query string, args ...any) error
	// FetchAll returns the rows of the last row-returning statement
	// that have not been consumed yet.
	FetchAll() ([]Row, error)
	// FetchOne returns the next unconsumed row, or nil when the
	// result set is exhausted.
	FetchOne() (*Row, error)
	// RowsAffected reports the row count of the last non-returning
	// statement.
	RowsAffected() int64
	Commit() error
	Rollback() error
	Close() error
}

// returnsRows reports whether a statement produces a result set. The
// two drivers want different call paths for queries and commands, so
// the adapter sniffs the leading keyword plus RETURNING clauses.
func returnsRows(query string) bool {
	q := strings.ToUpper(strings.TrimSpace(query))
	for _, kw := range []string{"SELECT", "WITH", "PRAGMA", "EXPLAIN", "SHOW", "VALUES"} {
		if strings.HasPrefix(q, kw) {
			return true
		}
	}
	return strings.Contains(q, " RETURNING ")
}

// namedArg extracts a named-parameter mapping when the caller passed
// exactly one map argument.
func namedArg(args []any) (map[string]any, bool) {
	if len(args) != 1 {
		return nil, false
	}
	m, ok := args[0].(map[string]any)
	return m, ok
}

// namedToPgx rewrites :name placeholders into the @name form that
// pgx.NamedArgs understands. Postgres casts (::type) and quoted
// literals pass through untouched.
func namedToPgx(query string) string {
	var b strings.Builder
	b.Grow(len(query))
	inLiteral := false
	for i := 0; i < len(query); i++ {
		ch := query[i]
		switch {
		case ch == '\'':
			inLiteral = !inLiteral
			b.WriteByte(ch)
		case ch == ':' && !inLiteral:
			if i+1 < len(query) && query[i+1] == ':' {
				b.WriteString("::")
				i++
			} else if i+1 < len(query) && isNameByte(query[i+1]) {
				b.WriteByte('@')
			} else {
				b.WriteByte(ch)
			}
		default:
			b.WriteByte(ch)
		}
	}
	return b.String()
}

func isNameByte(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

// embeddedAdapter wraps the shared database/sql handle of a SQLite
// unit. The handle is owned by the Manager and survives this adapter,
// so Close is a no-op; eviction happens through Manager.CloseConnection.
// The buffered result state below belongs to one adapter instance, and
// the Manager mints a fresh instance per Resolve, so concurrent
// requests against the same unit never see each other's results.
type embeddedAdapter struct {
	db *sql.DB

	mu           sync.Mutex
	result       []Row
	cursor       int
	rowsAffected int64
	execErr      error
}

func newEmbeddedAdapter(db *sql.DB) *embeddedAdapter {
	return &embeddedAdapter{db: db}
}

func (a *embeddedAdapter) Backend() BackendKind { return BackendEmbedded }

func (a *embeddedAdapter) Execute(ctx context.Context, query string, args ...any) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	// SQLite has no native named-parameter maps through database/sql
	// positional args; translate a single map argument to sql.Named.
	if m, ok := namedArg(args); ok {
		args = args[:0]
		for k, v := range m {
			args = append(args, sql.Named(k, v))
		}
	}

	if returnsRows(query) {
		rows, err := a.db.QueryContext(ctx, query, args...)
		if err != nil {
			a.execErr = err
			return fmt.Errorf("query failed: %w", err)
		}
		result, err := scanRows(rows)
		if err != nil {
			a.execErr = err
			return fmt.Errorf("query failed: %w", err)
		}
		a.result = result
		a.cursor = 0
		a.rowsAffected = 0
		a.execErr = nil
		return nil
	}

	res, err := a.db.ExecContext(ctx, query, args...)
	if err != nil {
		a.execErr = err
		return fmt.Errorf("statement failed: %w", err)
	}
	a.result = nil
	a.cursor = 0
	a.rowsAffected, _ = res.RowsAffected()
	a.execErr = nil
	return nil
}

func (a *embeddedAdapter) FetchAll() ([]Row, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	rows := a.result[a.cursor:]
	a.cursor = len(a.result)
	return rows, nil
}

func (a *embeddedAdapter) FetchOne() (*Row, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.cursor >= len(a.result) {
		return nil, nil
	}
	row := a.result[a.cursor]
	a.cursor++
	return &row, nil
}

func (a *embeddedAdapter) RowsAffected() int64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.rowsAffected
}

// Commit is a no-op for SQLite, which runs in autocommit mode, except
// after a failed Execute where it must not report silent success.
func (a *embeddedAdapter) Commit() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.execErr != nil {
		return fmt.Errorf("commit after failed statement: %w", a.execErr)
	}
	return nil
}

func (a *embeddedAdapter) Rollback() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.execErr = nil
	a.result = nil
	a.cursor = 0
	return nil
}

func (a *embeddedAdapter) Close() error { return nil }

// serverAdapter runs every statement inside a transaction scope begun
// at construction time. Commit or Rollback finalize the scope; a
// finalized adapter rejects further statements and a fresh one must be
// obtained through Manager.Resolve.
type serverAdapter struct {
	tx pgx.Tx

	mu           sync.Mutex
	done         bool
	result       []Row
	cursor       int
	rowsAffected int64
	execErr      error
}

func newServerAdapter(tx pgx.Tx) *serverAdapter {
	return &serverAdapter{tx: tx}
}

func (a *serverAdapter) Backend() BackendKind { return BackendServer }

func (a *serverAdapter) Execute(ctx context.Context, query string, args ...any) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.done {
		return ErrAdapterClosed
	}

	err := a.execute(ctx, query, args)
	if err != nil {
		// Positional binding may fail when the driver expects named
		// style; retry once with named-style binding. The :name
		// placeholders are rewritten to the @name form on the way.
		if m, ok := namedArg(args); ok {
			err = a.execute(ctx, namedToPgx(query), []any{pgx.NamedArgs(m)})
		}
	}
	if err != nil {
		a.execErr = err
		return fmt.Errorf("statement failed: %w", err)
	}
	a.execErr = nil
	return nil
}

func (a *serverAdapter) execute(ctx context.Context, query string, args []any) error {
	if returnsRows(query) {
		rows, err := a.tx.Query(ctx, query, args...)
		if err != nil {
			return err
		}
		result, err := collectPgxRows(rows)
		if err != nil {
			return err
		}
		a.result = result
		a.cursor = 0
		a.rowsAffected = 0
		return nil
	}

	tag, err := a.tx.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	a.result = nil
	a.cursor = 0
	a.rowsAffected = tag.RowsAffected()
	return nil
}

func (a *serverAdapter) FetchAll() ([]Row, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	rows := a.result[a.cursor:]
	a.cursor = len(a.result)
	return rows, nil
}

func (a *serverAdapter) FetchOne() (*Row, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.cursor >= len(a.result) {
		return nil, nil
	}
	row := a.result[a.cursor]
	a.cursor++
	return &row, nil
}

func (a *serverAdapter) RowsAffected() int64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.rowsAffected
}

func (a *serverAdapter) Commit() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.done {
		return ErrAdapterClosed
	}
	a.done = true
	if a.execErr != nil {
		_ = a.tx.Rollback(context.Background())
		return fmt.Errorf("commit after failed statement: %w", a.execErr)
	}
	if err := a.tx.Commit(context.Background()); err != nil {
		return fmt.Errorf("commit failed: %w", err)
	}
	return nil
}

func (a *serverAdapter) Rollback() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.done {
		return nil
	}
	a.done = true
	a.execErr = nil
	if err := a.tx.Rollback(context.Background()); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		return fmt.Errorf("rollback failed: %w", err)
	}
	return nil
}

// Close releases the transaction scope back to the pool, rolling back
// anything uncommitted.
func (a *serverAdapter) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.done {
		a.done = true
		_ = a.tx.Rollback(context.Background())
	}
	return nil
}

// collectPgxRows materializes a pgx result set into ordered Rows.
func collectPgxRows(rows pgx.Rows) ([]Row, error) {
	defer rows.Close()

	fields := rows.FieldDescriptions()
	columns := make([]string, len(fields))
	for i, f := range fields {
		columns[i] = string(f.Name)
	}

	var out []Row
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, fmt.Errorf("failed to read row: %w", err)
		}
		for i, v := range values {
			if b, ok := v.([]byte); ok {
				values[i] = string(b)
			}
		}
		out = append(out, Row{columns: columns, values: values})
	}
	return out, rows.Err()
}
