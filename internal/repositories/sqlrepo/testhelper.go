package sqlrepo

import (
	"testing"

	"github.com/asakaida/telops/internal/infrastructure/config"
	"github.com/asakaida/telops/internal/infrastructure/database"
)

// TestSchema mirrors the application tables the tools touch, in SQLite syntax
var TestSchema = []string{
	`CREATE TABLE provider (id INTEGER PRIMARY KEY AUTOINCREMENT, name TEXT NOT NULL UNIQUE, kind TEXT)`,
	`CREATE TABLE segment (id INTEGER PRIMARY KEY AUTOINCREMENT, name TEXT NOT NULL UNIQUE)`,
	`CREATE TABLE permissions (id INTEGER PRIMARY KEY AUTOINCREMENT, name TEXT NOT NULL UNIQUE, description TEXT)`,
	`CREATE TABLE company (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		cnpj TEXT,
		provider_name TEXT,
		provider_id INTEGER REFERENCES provider(id),
		segment_id INTEGER REFERENCES segment(id),
		assets TEXT
	)`,
	`CREATE TABLE "user" (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		email TEXT NOT NULL UNIQUE,
		role TEXT,
		company_id INTEGER REFERENCES company(id)
	)`,
}

// OpenTestDB opens an empty in-memory SQLite database closed at test cleanup
func OpenTestDB(t *testing.T) *database.Database {
	t.Helper()

	db, err := database.Open(&config.DatabaseConfig{Driver: "sqlite", Database: ":memory:"})
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Logf("Warning: Failed to close database: %v", err)
		}
	})
	return db
}

// SetupTestDB opens an in-memory database with the given statements applied,
// TestSchema when none are passed
func SetupTestDB(t *testing.T, schema ...string) *database.Database {
	t.Helper()

	if len(schema) == 0 {
		schema = TestSchema
	}

	db := OpenTestDB(t)
	for _, stmt := range schema {
		if _, err := db.DB.Exec(stmt); err != nil {
			t.Fatalf("Failed to apply test schema: %v\n%s", err, stmt)
		}
	}
	return db
}
