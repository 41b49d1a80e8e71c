// Package sqlrepo implements the repositories over database/sql for the
// postgres, mysql and sqlite dialects.
package sqlrepo

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/asakaida/telops/internal/infrastructure/database"
)

// DBTX is satisfied by *sql.DB and *sql.Tx so repositories can join a transaction
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Table names of the application schema
const (
	tableCompany     = "company"
	tableUser        = "user"
	tableProvider    = "provider"
	tableSegment     = "segment"
	tablePermissions = "permissions"
)

type base struct {
	db      DBTX
	dialect database.Dialect
}

func (b base) q(query string) string {
	return b.dialect.Rebind(query)
}

func (b base) table(name string) string {
	return b.dialect.QuoteIdent(name)
}

// insert runs an INSERT and returns the generated id
func (b base) insert(ctx context.Context, query string, args ...any) (int64, error) {
	if b.dialect == database.Postgres {
		var id int64
		if err := b.db.QueryRowContext(ctx, b.q(query)+" RETURNING id", args...).Scan(&id); err != nil {
			return 0, err
		}
		return id, nil
	}

	result, err := b.db.ExecContext(ctx, b.q(query), args...)
	if err != nil {
		return 0, err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get inserted id: %w", err)
	}
	return id, nil
}

// ensure returns the id of the row whose name matches, inserting it when missing
func (b base) ensure(ctx context.Context, table, name string, insertQuery string, args ...any) (int64, error) {
	var id int64
	err := b.db.QueryRowContext(ctx,
		b.q(fmt.Sprintf("SELECT id FROM %s WHERE name = ?", b.table(table))), name,
	).Scan(&id)
	if err == nil {
		return id, nil
	}
	if err != sql.ErrNoRows {
		return 0, fmt.Errorf("failed to look up %s %q: %w", table, name, err)
	}

	id, err = b.insert(ctx, insertQuery, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to create %s %q: %w", table, name, err)
	}
	return id, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func limitClause(limit int) string {
	if limit <= 0 {
		return ""
	}
	return fmt.Sprintf(" LIMIT %d", limit)
}
