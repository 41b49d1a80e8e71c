// Package inspector reads structure and row counts from the connected
// database.
package inspector

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/asakaida/telops/internal/infrastructure/database"
	"github.com/asakaida/telops/internal/repositories/sqlrepo"
	"github.com/asakaida/telops/internal/sqlerr"
)

// ErrTableNotFound is returned when the named table does not exist
var ErrTableNotFound = errors.New("table not found")

// Column describes one column of a table
type Column struct {
	Name       string
	Type       string
	Nullable   bool
	Default    sql.NullString
	PrimaryKey bool
}

// Table is a table and its columns in ordinal order
type Table struct {
	Name    string
	Columns []Column
}

// Column returns the named column, nil when absent
func (t *Table) Column(name string) *Column {
	for i := range t.Columns {
		if t.Columns[i].Name == name {
			return &t.Columns[i]
		}
	}
	return nil
}

// ForeignKey is one referencing column of a table
type ForeignKey struct {
	Name      string
	Table     string
	Column    string
	RefTable  string
	RefColumn string
}

// TableSummary is a table name with its row count
type TableSummary struct {
	Name string
	Rows int64
}

// QueryResult holds an ad-hoc query rendered to strings
type QueryResult struct {
	Columns []string
	Rows    [][]string
}

// Inspector queries the catalog of one database
type Inspector struct {
	db      sqlrepo.DBTX
	dialect database.Dialect
	// schema is only consulted for postgres
	schema string
}

// New creates an inspector. schema defaults to public.
func New(db sqlrepo.DBTX, dialect database.Dialect, schema string) *Inspector {
	if schema == "" {
		schema = "public"
	}
	return &Inspector{db: db, dialect: dialect, schema: schema}
}

// ListTables returns the base tables sorted by name
func (i *Inspector) ListTables(ctx context.Context) ([]string, error) {
	var (
		query string
		args  []any
	)
	switch i.dialect {
	case database.MySQL:
		query = `SELECT table_name FROM information_schema.tables
			WHERE table_schema = DATABASE() AND table_type = 'BASE TABLE'`
	case database.SQLite:
		query = `SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%'`
	default:
		query = `SELECT table_name FROM information_schema.tables
			WHERE table_schema = ? AND table_type = 'BASE TABLE'`
		args = append(args, i.schema)
	}

	// without args a ? may be a jsonb operator, so the text is sent as written
	if len(args) > 0 {
		query = i.dialect.Rebind(query)
	}
	rows, err := i.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list tables: %w", err)
	}
	defer rows.Close()

	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan table name: %w", err)
		}
		tables = append(tables, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate tables: %w", err)
	}

	sort.Strings(tables)
	return tables, nil
}

// DescribeTable returns the columns of a table in ordinal order
func (i *Inspector) DescribeTable(ctx context.Context, name string) (*Table, error) {
	var (
		query string
		args  []any
	)
	switch i.dialect {
	case database.MySQL:
		query = `SELECT column_name, column_type, is_nullable = 'YES', column_default, column_key = 'PRI'
			FROM information_schema.columns
			WHERE table_schema = DATABASE() AND table_name = ?
			ORDER BY ordinal_position`
		args = append(args, name)
	case database.SQLite:
		query = `SELECT name, type, "notnull" = 0, dflt_value, pk > 0
			FROM pragma_table_info(?)
			ORDER BY cid`
		args = append(args, name)
	default:
		query = `SELECT c.column_name, c.data_type, c.is_nullable = 'YES', c.column_default,
				EXISTS (
					SELECT 1
					FROM information_schema.table_constraints tc
					JOIN information_schema.key_column_usage k
						ON k.constraint_name = tc.constraint_name
						AND k.table_schema = tc.table_schema
						AND k.table_name = tc.table_name
					WHERE tc.constraint_type = 'PRIMARY KEY'
						AND tc.table_schema = c.table_schema
						AND tc.table_name = c.table_name
						AND k.column_name = c.column_name
				)
			FROM information_schema.columns c
			WHERE c.table_schema = ? AND c.table_name = ?
			ORDER BY c.ordinal_position`
		args = append(args, i.schema, name)
	}

	// without args a ? may be a jsonb operator, so the text is sent as written
	if len(args) > 0 {
		query = i.dialect.Rebind(query)
	}
	rows, err := i.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to describe table %s: %w", name, err)
	}
	defer rows.Close()

	table := &Table{Name: name}
	for rows.Next() {
		var col Column
		if err := rows.Scan(&col.Name, &col.Type, &col.Nullable, &col.Default, &col.PrimaryKey); err != nil {
			return nil, fmt.Errorf("failed to scan column: %w", err)
		}
		table.Columns = append(table.Columns, col)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate columns: %w", err)
	}

	if len(table.Columns) == 0 {
		return nil, fmt.Errorf("%s: %w", name, ErrTableNotFound)
	}
	return table, nil
}

// ForeignKeys returns the foreign keys declared on a table ordered by column
func (i *Inspector) ForeignKeys(ctx context.Context, table string) ([]ForeignKey, error) {
	if i.dialect == database.SQLite {
		return i.sqliteForeignKeys(ctx, table)
	}

	var (
		query string
		args  []any
	)
	if i.dialect == database.MySQL {
		query = `SELECT constraint_name, column_name, referenced_table_name, referenced_column_name
			FROM information_schema.key_column_usage
			WHERE table_schema = DATABASE() AND table_name = ? AND referenced_table_name IS NOT NULL
			ORDER BY column_name`
		args = append(args, table)
	} else {
		query = `SELECT tc.constraint_name, kcu.column_name, ccu.table_name, ccu.column_name
			FROM information_schema.table_constraints tc
			JOIN information_schema.key_column_usage kcu
				ON kcu.constraint_name = tc.constraint_name
				AND kcu.table_schema = tc.table_schema
			JOIN information_schema.constraint_column_usage ccu
				ON ccu.constraint_name = tc.constraint_name
				AND ccu.constraint_schema = tc.table_schema
			WHERE tc.constraint_type = 'FOREIGN KEY' AND tc.table_schema = ? AND tc.table_name = ?
			ORDER BY kcu.column_name`
		args = append(args, i.schema, table)
	}

	// without args a ? may be a jsonb operator, so the text is sent as written
	if len(args) > 0 {
		query = i.dialect.Rebind(query)
	}
	rows, err := i.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list foreign keys of %s: %w", table, err)
	}
	defer rows.Close()

	var fks []ForeignKey
	for rows.Next() {
		fk := ForeignKey{Table: table}
		if err := rows.Scan(&fk.Name, &fk.Column, &fk.RefTable, &fk.RefColumn); err != nil {
			return nil, fmt.Errorf("failed to scan foreign key: %w", err)
		}
		fks = append(fks, fk)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate foreign keys: %w", err)
	}
	return fks, nil
}

func (i *Inspector) sqliteForeignKeys(ctx context.Context, table string) ([]ForeignKey, error) {
	rows, err := i.db.QueryContext(ctx,
		`SELECT id, "table", "from", "to" FROM pragma_foreign_key_list(?) ORDER BY id, seq`, table)
	if err != nil {
		return nil, fmt.Errorf("failed to list foreign keys of %s: %w", table, err)
	}
	defer rows.Close()

	var fks []ForeignKey
	for rows.Next() {
		var (
			id int
			to sql.NullString
		)
		fk := ForeignKey{Table: table}
		if err := rows.Scan(&id, &fk.RefTable, &fk.Column, &to); err != nil {
			return nil, fmt.Errorf("failed to scan foreign key: %w", err)
		}
		// a NULL target references the primary key
		fk.RefColumn = to.String
		if !to.Valid {
			fk.RefColumn = "id"
		}
		fk.Name = fmt.Sprintf("%s_%s_fkey", table, fk.Column)
		fks = append(fks, fk)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate foreign keys: %w", err)
	}

	sort.SliceStable(fks, func(a, b int) bool { return fks[a].Column < fks[b].Column })
	return fks, nil
}

// RowCount returns the number of rows in a table
func (i *Inspector) RowCount(ctx context.Context, table string) (int64, error) {
	var n int64
	query := fmt.Sprintf("SELECT COUNT(*) FROM %s", i.dialect.QuoteIdent(table))
	if err := i.db.QueryRowContext(ctx, query).Scan(&n); err != nil {
		if sqlerr.Classify(err) == sqlerr.UndefinedTable {
			return 0, fmt.Errorf("%s: %w", table, ErrTableNotFound)
		}
		return 0, fmt.Errorf("failed to count rows of %s: %w", table, err)
	}
	return n, nil
}

// Summary returns every table with its row count
func (i *Inspector) Summary(ctx context.Context) ([]TableSummary, error) {
	tables, err := i.ListTables(ctx)
	if err != nil {
		return nil, err
	}

	summary := make([]TableSummary, 0, len(tables))
	for _, name := range tables {
		n, err := i.RowCount(ctx, name)
		if err != nil {
			return nil, err
		}
		summary = append(summary, TableSummary{Name: name, Rows: n})
	}
	return summary, nil
}

// Query runs an ad-hoc read query and renders every value as text
func (i *Inspector) Query(ctx context.Context, query string, args ...any) (*QueryResult, error) {
	// without args a ? may be a jsonb operator, so the text is sent as written
	if len(args) > 0 {
		query = i.dialect.Rebind(query)
	}
	rows, err := i.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to run query: %w", err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to read columns: %w", err)
	}

	result := &QueryResult{Columns: columns}
	values := make([]any, len(columns))
	dest := make([]any, len(columns))
	for k := range values {
		dest[k] = &values[k]
	}

	for rows.Next() {
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		row := make([]string, len(values))
		for k, v := range values {
			row[k] = formatValue(v)
		}
		result.Rows = append(result.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate rows: %w", err)
	}
	return result, nil
}

func formatValue(v any) string {
	switch v := v.(type) {
	case nil:
		return "NULL"
	case []byte:
		return string(v)
	case time.Time:
		return v.Format(time.RFC3339)
	default:
		return fmt.Sprint(v)
	}
}
