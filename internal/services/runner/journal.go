package runner

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/asakaida/telops/internal/infrastructure/database"
)

// JournalTable records scripts applied with tracking enabled
const JournalTable = "ops_script_log"

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type journal struct {
	dialect database.Dialect
}

func (j journal) ensure(ctx context.Context, q execer) error {
	ddl := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
    name        VARCHAR(255) PRIMARY KEY,
    checksum    VARCHAR(64) NOT NULL,
    applied_at  BIGINT NOT NULL,
    duration_ms BIGINT NOT NULL
)`, JournalTable)
	if _, err := q.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("failed to ensure %s: %w", JournalTable, err)
	}
	return nil
}

// checksum returns the recorded checksum of name, found=false when not applied
func (j journal) checksum(ctx context.Context, q execer, name string) (string, bool, error) {
	var sum string
	query := j.dialect.Rebind(fmt.Sprintf("SELECT checksum FROM %s WHERE name = ?", JournalTable))
	err := q.QueryRowContext(ctx, query, name).Scan(&sum)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read %s: %w", JournalTable, err)
	}
	return sum, true, nil
}

func (j journal) record(ctx context.Context, q execer, s Script, took time.Duration) error {
	query := j.dialect.Rebind(fmt.Sprintf(
		"INSERT INTO %s (name, checksum, applied_at, duration_ms) VALUES (?, ?, ?, ?)", JournalTable))
	if _, err := q.ExecContext(ctx, query, s.Name, s.Checksum, time.Now().UTC().UnixMilli(), took.Milliseconds()); err != nil {
		return fmt.Errorf("failed to record %s: %w", s.Name, err)
	}
	return nil
}
