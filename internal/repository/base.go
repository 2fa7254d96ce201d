package repository

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Row is a single result row keyed by column name. The data-access layer
// hands rows back as maps so joined and derived columns flow to the caller
// without a struct per view.
type Row map[string]any

// String returns the named column as a string, converting []byte results
// from the driver. Missing or NULL columns yield "".
func (r Row) String(key string) string {
	switch v := r[key].(type) {
	case string:
		return v
	case []byte:
		return string(v)
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}

// Int64 returns the named column as an int64, tolerating the textual form
// the driver produces for aggregate columns. Missing or NULL yields 0.
func (r Row) Int64(key string) int64 {
	switch v := r[key].(type) {
	case int64:
		return v
	case int:
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

// Float64 returns the named column as a float64. Missing or NULL yields 0.
func (r Row) Float64(key string) float64 {
	switch v := r[key].(type) {
	case float64:
		return v
	case int64:
		return float64(v)
	case []byte:
		f, _ := strconv.ParseFloat(string(v), 64)
		return f
	case string:
		f, _ := strconv.ParseFloat(v, 64)
		return f
	default:
		return 0
	}
}

// Time returns the named column as a time.Time. The driver is configured
// with parseTime=true so DATETIME columns scan directly; textual fallbacks
// cover rows produced by expressions.
func (r Row) Time(key string) time.Time {
	switch v := r[key].(type) {
	case time.Time:
		return v
	case []byte:
		t, _ := time.Parse("2006-01-02 15:04:05", string(v))
		return t
	case string:
		t, _ := time.Parse("2006-01-02 15:04:05", v)
		return t
	default:
		return time.Time{}
	}
}

// Table configures a Base repository for one table. Name and PrimaryKey are
// trusted identifiers baked in by the entity repository constructors; they
// are never user input, which is what keeps the string-built SQL safe. All
// values travel as bound parameters.
type Table struct {
	Name       string
	PrimaryKey string
}

// Base provides table-agnostic CRUD over a single table. Entity repositories
// embed it and add joined views, filtered listings and aggregates on top.
type Base struct {
	db    *sql.DB
	table Table
}

// NewBase binds a Base repository to a pool handle and a table description.
func NewBase(db *sql.DB, t Table) *Base {
	if t.PrimaryKey == "" {
		t.PrimaryKey = "id"
	}
	return &Base{db: db, table: t}
}

// DB exposes the underlying pool for entity repositories that join across
// tables.
func (b *Base) DB() *sql.DB { return b.db }

// Table returns the bound table description.
func (b *Base) Table() Table { return b.table }

// GetAll returns every row of the table, optionally ordered and limited.
// orderBy is a trusted column expression; pass "" to skip, limit <= 0 for
// no limit.
func (b *Base) GetAll(ctx context.Context, orderBy string, limit int) ([]Row, error) {
	q := "SELECT * FROM " + b.table.Name
	if orderBy != "" {
		q += " ORDER BY " + orderBy
	}
	if limit > 0 {
		q += fmt.Sprintf(" LIMIT %d", limit)
	}
	return b.Query(ctx, q)
}

// GetByID returns the row with the given primary key, or ErrNotFound.
func (b *Base) GetByID(ctx context.Context, id int64) (Row, error) {
	q := fmt.Sprintf("SELECT * FROM %s WHERE %s = ? LIMIT 1", b.table.Name, b.table.PrimaryKey)
	return b.QueryOne(ctx, q, id)
}

// Insert writes a new row from a column-to-value map and returns the
// generated identifier. Columns render in sorted order so the statement is
// deterministic. A uniqueness violation surfaces as ErrDuplicate.
func (b *Base) Insert(ctx context.Context, fields map[string]any) (int64, error) {
	cols := sortedKeys(fields)
	args := make([]any, 0, len(cols))
	for _, c := range cols {
		args = append(args, fields[c])
	}
	q := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		b.table.Name, strings.Join(cols, ", "), placeholders(len(cols)))
	res, err := b.db.ExecContext(ctx, q, args...)
	if err != nil {
		if isDuplicate(err) {
			return 0, ErrDuplicate
		}
		return 0, err
	}
	return res.LastInsertId()
}

// Update changes the listed columns of one row and reports whether exactly
// one row matched.
func (b *Base) Update(ctx context.Context, id int64, fields map[string]any) (bool, error) {
	cols := sortedKeys(fields)
	sets := make([]string, 0, len(cols))
	args := make([]any, 0, len(cols)+1)
	for _, c := range cols {
		sets = append(sets, c+" = ?")
		args = append(args, fields[c])
	}
	args = append(args, id)
	q := fmt.Sprintf("UPDATE %s SET %s WHERE %s = ?",
		b.table.Name, strings.Join(sets, ", "), b.table.PrimaryKey)
	res, err := b.db.ExecContext(ctx, q, args...)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// Delete removes one row by primary key and reports whether exactly one row
// matched.
func (b *Base) Delete(ctx context.Context, id int64) (bool, error) {
	q := fmt.Sprintf("DELETE FROM %s WHERE %s = ?", b.table.Name, b.table.PrimaryKey)
	res, err := b.db.ExecContext(ctx, q, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// Find returns every row whose columns equal-match all conditions. Matching
// is conjunctive and exact-equality only; range or LIKE filters belong to
// the entity repositories. Condition columns render in sorted order.
func (b *Base) Find(ctx context.Context, conditions map[string]any, orderBy string, limit int) ([]Row, error) {
	where, args := equalityWhere(conditions)
	q := "SELECT * FROM " + b.table.Name + where
	if orderBy != "" {
		q += " ORDER BY " + orderBy
	}
	if limit > 0 {
		q += fmt.Sprintf(" LIMIT %d", limit)
	}
	return b.Query(ctx, q, args...)
}

// FindOne returns the first row matching all conditions, or ErrNotFound.
func (b *Base) FindOne(ctx context.Context, conditions map[string]any) (Row, error) {
	where, args := equalityWhere(conditions)
	q := "SELECT * FROM " + b.table.Name + where + " LIMIT 1"
	return b.QueryOne(ctx, q, args...)
}

// Count returns the number of rows, optionally filtered by equality
// conditions. Pass nil to count the whole table.
func (b *Base) Count(ctx context.Context, conditions map[string]any) (int64, error) {
	where, args := equalityWhere(conditions)
	q := "SELECT COUNT(*) FROM " + b.table.Name + where
	var n int64
	if err := b.db.QueryRowContext(ctx, q, args...).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// Query runs an arbitrary parameterized statement and returns all rows as
// maps. It is the escape hatch the entity repositories build their joined
// and aggregate views on.
func (b *Base) Query(ctx context.Context, query string, args ...any) ([]Row, error) {
	rows, err := b.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRows(rows)
}

// QueryOne runs an arbitrary parameterized statement and returns the first
// row, or ErrNotFound when the result set is empty.
func (b *Base) QueryOne(ctx context.Context, query string, args ...any) (Row, error) {
	out, err := b.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, ErrNotFound
	}
	return out[0], nil
}

// Exec runs an arbitrary parameterized write statement and reports whether
// exactly one row changed.
func (b *Base) Exec(ctx context.Context, query string, args ...any) (bool, error) {
	res, err := b.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// BeginTx delegates to the store's transaction primitives. There are no
// savepoints and no nesting; committing or rolling back is entirely the
// caller's responsibility.
func (b *Base) BeginTx(ctx context.Context) (*sql.Tx, error) {
	return b.db.BeginTx(ctx, nil)
}

// cloneFields copies a field map so default-filling writes never mutate the
// caller's map.
func cloneFields(fields map[string]any) map[string]any {
	out := make(map[string]any, len(fields))
	for k, v := range fields {
		out[k] = v
	}
	return out
}

// scanRows maps a result set to []Row. Byte slices are converted to strings
// so rows marshal cleanly to JSON.
func scanRows(rows *sql.Rows) ([]Row, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	var out []Row
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		row := make(Row, len(cols))
		for i, c := range cols {
			if b, ok := vals[i].([]byte); ok {
				row[c] = string(b)
			} else {
				row[c] = vals[i]
			}
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// equalityWhere renders a conjunctive equality WHERE clause from a condition
// map, with columns in sorted order so the statement text is stable.
func equalityWhere(conditions map[string]any) (string, []any) {
	if len(conditions) == 0 {
		return "", nil
	}
	cols := sortedKeys(conditions)
	parts := make([]string, 0, len(cols))
	args := make([]any, 0, len(cols))
	for _, c := range cols {
		parts = append(parts, c+" = ?")
		args = append(args, conditions[c])
	}
	return " WHERE " + strings.Join(parts, " AND "), args
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func placeholders(n int) string {
	if n == 0 {
		return ""
	}
	return strings.Repeat("?, ", n-1) + "?"
}

// isDuplicate reports whether the driver error is a MySQL 1062 duplicate-key
// violation.
func isDuplicate(err error) bool {
	return err != nil && strings.Contains(strings.ToLower(err.Error()), "1062")
}
