// Package patcher applies idempotent structural fixes to the application
// schema.
package patcher

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"github.com/asakaida/telops/internal/infrastructure/database"
	"github.com/asakaida/telops/internal/repositories/sqlrepo"
	"github.com/asakaida/telops/internal/services/inspector"
	"github.com/asakaida/telops/internal/sqlerr"
	"github.com/rs/zerolog"
)

// ErrInvalidIdentifier is returned for names that cannot be interpolated into DDL
var ErrInvalidIdentifier = errors.New("invalid identifier")

var sqlTypePattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_ ]*(\([0-9, ]+\))?$`)

// ForeignKeyBackfill fills Table.Column with RefTable.RefColumn of the row
// whose RefMatchColumn equals Table.MatchColumn
type ForeignKeyBackfill struct {
	Table          string
	Column         string
	RefTable       string
	RefColumn      string
	MatchColumn    string
	RefMatchColumn string
}

func (b ForeignKeyBackfill) validate() error {
	for _, name := range []string{b.Table, b.Column, b.RefTable, b.RefColumn, b.MatchColumn, b.RefMatchColumn} {
		if !database.ValidIdentifier(name) {
			return fmt.Errorf("%w: %q", ErrInvalidIdentifier, name)
		}
	}
	return nil
}

// Patcher issues DDL and backfills against one database
type Patcher struct {
	db        sqlrepo.DBTX
	dialect   database.Dialect
	inspector *inspector.Inspector
	log       zerolog.Logger
}

// New creates a patcher
func New(db sqlrepo.DBTX, dialect database.Dialect, schema string, log zerolog.Logger) *Patcher {
	return &Patcher{
		db:        db,
		dialect:   dialect,
		inspector: inspector.New(db, dialect, schema),
		log:       log,
	}
}

// EnsureColumn adds table.column when it is missing and reports whether it did
func (p *Patcher) EnsureColumn(ctx context.Context, table, column, sqlType string) (bool, error) {
	if !database.ValidIdentifier(table) {
		return false, fmt.Errorf("%w: %q", ErrInvalidIdentifier, table)
	}
	if !database.ValidIdentifier(column) {
		return false, fmt.Errorf("%w: %q", ErrInvalidIdentifier, column)
	}
	if !sqlTypePattern.MatchString(sqlType) {
		return false, fmt.Errorf("invalid column type: %q", sqlType)
	}

	t, err := p.inspector.DescribeTable(ctx, table)
	if err != nil {
		return false, err
	}
	if t.Column(column) != nil {
		p.log.Debug().Str("table", table).Str("column", column).Msg("column already present")
		return false, nil
	}

	ddl := fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s NULL",
		p.dialect.QuoteIdent(table), p.dialect.QuoteIdent(column), sqlType)
	if _, err := p.db.ExecContext(ctx, ddl); err != nil {
		// added by someone else between the check and the ALTER
		if sqlerr.IsDuplicateColumn(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to add column %s.%s: %w", table, column, err)
	}

	p.log.Info().Str("table", table).Str("column", column).Str("type", sqlType).Msg("column added")
	return true, nil
}

// Backfill sets the foreign key where it is NULL and a matching row exists.
// It returns the number of updated rows.
func (p *Patcher) Backfill(ctx context.Context, b ForeignKeyBackfill) (int64, error) {
	if err := b.validate(); err != nil {
		return 0, err
	}

	q := p.dialect.QuoteIdent
	match := fmt.Sprintf("%s.%s = %s.%s", q(b.RefTable), q(b.RefMatchColumn), q(b.Table), q(b.MatchColumn))
	query := fmt.Sprintf(`UPDATE %[1]s SET %[2]s = (
		SELECT MIN(%[3]s.%[4]s) FROM %[3]s WHERE %[5]s
	)
	WHERE %[2]s IS NULL AND EXISTS (SELECT 1 FROM %[3]s WHERE %[5]s)`,
		q(b.Table), q(b.Column), q(b.RefTable), q(b.RefColumn), match)

	result, err := p.db.ExecContext(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("failed to backfill %s.%s: %w", b.Table, b.Column, err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	p.log.Info().Str("table", b.Table).Str("column", b.Column).Int64("rows", rows).Msg("backfilled")
	return rows, nil
}
