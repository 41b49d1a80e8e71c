package database

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"time"

	"github.com/asakaida/telops/internal/infrastructure/config"
	"github.com/golang-migrate/migrate/v4"
	migratedb "github.com/golang-migrate/migrate/v4/database"
	migratemysql "github.com/golang-migrate/migrate/v4/database/mysql"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	_ "github.com/golang-migrate/migrate/v4/source/file"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// pingTimeout bounds the initial connectivity check
const pingTimeout = 10 * time.Second

// Database represents an open connection to one of the supported databases
type Database struct {
	DB      *sql.DB
	Dialect Dialect
}

// Open connects to the database described by cfg
func Open(cfg *config.DatabaseConfig) (*Database, error) {
	dialect, err := ParseDialect(cfg.Driver)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(dialect.DriverName(), cfg.ConnectionString())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if dialect == SQLite {
		// in-memory databases live on a single connection
		db.SetMaxOpenConns(1)
	} else {
		// tools run one statement at a time
		db.SetMaxOpenConns(4)
		db.SetMaxIdleConns(2)
		db.SetConnMaxLifetime(5 * time.Minute)
		db.SetConnMaxIdleTime(1 * time.Minute)
	}

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Database{DB: db, Dialect: dialect}, nil
}

// HealthCheck checks if the database connection is healthy
func (d *Database) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := d.DB.PingContext(ctx); err != nil {
		return fmt.Errorf("database health check failed: %w", err)
	}

	return nil
}

// Close closes the database connection
func (d *Database) Close() error {
	if d != nil && d.DB != nil {
		return d.DB.Close()
	}
	return nil
}

// NewMigrateDriver returns the golang-migrate driver for the dialect
func (d *Database) NewMigrateDriver() (migratedb.Driver, error) {
	switch d.Dialect {
	case MySQL:
		return migratemysql.WithInstance(d.DB, &migratemysql.Config{})
	case SQLite:
		return migratesqlite.WithInstance(d.DB, &migratesqlite.Config{})
	default:
		return postgres.WithInstance(d.DB, &postgres.Config{})
	}
}

// NewMigrator builds a golang-migrate instance over the versioned migrations in dir
func (d *Database) NewMigrator(dir string) (*migrate.Migrate, error) {
	driver, err := d.NewMigrateDriver()
	if err != nil {
		return nil, fmt.Errorf("failed to create migration driver: %w", err)
	}

	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve migrations path: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(
		fmt.Sprintf("file://%s", filepath.ToSlash(abs)),
		d.Dialect.String(),
		driver,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create migration instance: %w", err)
	}

	return m, nil
}

// RunMigrations applies all pending versioned migrations
func (d *Database) RunMigrations(dir string) error {
	m, err := d.NewMigrator(dir)
	if err != nil {
		return err
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}
