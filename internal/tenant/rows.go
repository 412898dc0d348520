package tenant

import (
	"database/sql"
	"fmt"
	"strconv"
	"time"
)

// Row is a single query result row: an ordered mapping from column
// name to value. Ad-hoc query results stay as Rows; only the hot-path
// entities get dedicated structs.
type Row struct {
	columns []string
	values  []any
}

// NewRow builds a row from parallel column/value slices. Mostly useful
// in tests.
func NewRow(columns []string, values []any) Row {
	return Row{columns: columns, values: values}
}

// Columns returns the column names in result order.
func (r Row) Columns() []string { return r.columns }

// Has reports whether the row carries the named column. Legacy
// databases may lack columns newer code expects.
func (r Row) Has(col string) bool {
	for _, c := range r.columns {
		if c == col {
			return true
		}
	}
	return false
}

// Value returns the raw driver value for col, or nil when the column
// is absent or NULL.
func (r Row) Value(col string) any {
	for i, c := range r.columns {
		if c == col {
			return r.values[i]
		}
	}
	return nil
}

// String returns the column as a string, with NULL and absent columns
// mapping to "".
func (r Row) String(col string) string {
	switch v := r.Value(col).(type) {
	case nil:
		return ""
	case string:
		return v
	case []byte:
		return string(v)
	case time.Time:
		return v.Format(time.RFC3339)
	default:
		return fmt.Sprint(v)
	}
}

// Int returns the column as an int64, with NULL, absent and
// unparseable values mapping to 0.
func (r Row) Int(col string) int64 {
	switch v := r.Value(col).(type) {
	case int64:
		return v
	case int:
		return int64(v)
	case int32:
		return int64(v)
	case float64:
		return int64(v)
	case []byte:
		n, _ := strconv.ParseInt(string(v), 10, 64)
		return n
	case string:
		n, _ := strconv.ParseInt(v, 10, 64)
		return n
	default:
		return 0
	}
}

// Bool returns the column as a bool. Integer columns follow the
// SQLite convention of non-zero meaning true.
func (r Row) Bool(col string) bool {
	switch v := r.Value(col).(type) {
	case bool:
		return v
	case int64:
		return v != 0
	case int:
		return v != 0
	case string:
		b, _ := strconv.ParseBool(v)
		return b
	default:
		return false
	}
}

// Time returns the column as a time.Time, zero when absent or not a
// recognizable timestamp.
func (r Row) Time(col string) time.Time {
	switch v := r.Value(col).(type) {
	case time.Time:
		return v
	case string:
		return parseTimestamp(v)
	case []byte:
		return parseTimestamp(string(v))
	default:
		return time.Time{}
	}
}

func parseTimestamp(s string) time.Time {
	for _, layout := range []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

// scanRows materializes every remaining row of a database/sql result
// set into ordered Rows and closes it.
func scanRows(rows *sql.Rows) ([]Row, error) {
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to read result columns: %w", err)
	}

	var out []Row
	for rows.Next() {
		values := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		for i, v := range values {
			// Normalize byte slices so rows stay valid after Close.
			if b, ok := v.([]byte); ok {
				values[i] = string(b)
			}
		}
		out = append(out, Row{columns: columns, values: values})
	}
	return out, rows.Err()
}
