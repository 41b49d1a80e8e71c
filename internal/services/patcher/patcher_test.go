package patcher

import (
	"context"
	"errors"
	"testing"

	"github.com/asakaida/telops/internal/infrastructure/database"
	"github.com/asakaida/telops/internal/repositories/sqlrepo"
	"github.com/asakaida/telops/internal/services/inspector"
	"github.com/rs/zerolog"
)

// legacySchema is the company table before the assets and provider_id columns existed
var legacySchema = []string{
	`CREATE TABLE provider (id INTEGER PRIMARY KEY AUTOINCREMENT, name TEXT NOT NULL UNIQUE, kind TEXT)`,
	`CREATE TABLE company (id INTEGER PRIMARY KEY AUTOINCREMENT, name TEXT NOT NULL, provider_name TEXT)`,
	`INSERT INTO provider (name) VALUES ('Vivo'), ('Claro')`,
	`INSERT INTO company (name, provider_name) VALUES ('Acme', 'Vivo'), ('Globex', 'Claro'), ('Initech', 'Unknown'), ('Hooli', NULL)`,
}

func setupPatcher(t *testing.T, schema ...string) (*Patcher, *database.Database) {
	t.Helper()
	db := sqlrepo.SetupTestDB(t, schema...)
	return New(db.DB, db.Dialect, "", zerolog.Nop()), db
}

func TestPatcher_EnsureColumn(t *testing.T) {
	p, db := setupPatcher(t, legacySchema...)
	ctx := context.Background()

	added, err := p.EnsureColumn(ctx, "company", "assets", "TEXT")
	if err != nil {
		t.Fatalf("EnsureColumn() error = %v", err)
	}
	if !added {
		t.Error("EnsureColumn() added = false on first call")
	}

	added, err = p.EnsureColumn(ctx, "company", "assets", "TEXT")
	if err != nil {
		t.Fatalf("second EnsureColumn() error = %v", err)
	}
	if added {
		t.Error("EnsureColumn() added the column twice")
	}

	table, err := inspector.New(db.DB, db.Dialect, "").DescribeTable(ctx, "company")
	if err != nil {
		t.Fatal(err)
	}
	if c := table.Column("assets"); c == nil || !c.Nullable {
		t.Errorf("assets column = %+v", c)
	}
}

func TestPatcher_EnsureColumn_Invalid(t *testing.T) {
	p, _ := setupPatcher(t, legacySchema...)
	ctx := context.Background()

	tests := []struct {
		name    string
		table   string
		column  string
		sqlType string
		wantErr error
	}{
		{"bad table", "company; DROP TABLE provider", "assets", "TEXT", ErrInvalidIdentifier},
		{"bad column", "company", "as sets", "TEXT", ErrInvalidIdentifier},
		{"bad type", "company", "assets", "TEXT; DROP TABLE company", nil},
		{"missing table", "nope", "assets", "TEXT", inspector.ErrTableNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := p.EnsureColumn(ctx, tt.table, tt.column, tt.sqlType)
			if err == nil {
				t.Fatal("EnsureColumn() expected error")
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("EnsureColumn() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestPatcher_Backfill(t *testing.T) {
	p, db := setupPatcher(t, legacySchema...)
	ctx := context.Background()

	if _, err := p.EnsureColumn(ctx, "company", "provider_id", "BIGINT"); err != nil {
		t.Fatal(err)
	}

	fill := ForeignKeyBackfill{
		Table: "company", Column: "provider_id",
		RefTable: "provider", RefColumn: "id",
		MatchColumn: "provider_name", RefMatchColumn: "name",
	}

	rows, err := p.Backfill(ctx, fill)
	if err != nil {
		t.Fatalf("Backfill() error = %v", err)
	}
	if rows != 2 {
		t.Errorf("Backfill() rows = %d, want 2", rows)
	}

	var providerID int64
	if err := db.DB.QueryRow("SELECT provider_id FROM company WHERE name = 'Globex'").Scan(&providerID); err != nil {
		t.Fatal(err)
	}
	if providerID != 2 {
		t.Errorf("Globex provider_id = %d, want 2", providerID)
	}

	rows, err = p.Backfill(ctx, fill)
	if err != nil {
		t.Fatalf("second Backfill() error = %v", err)
	}
	if rows != 0 {
		t.Errorf("second Backfill() rows = %d, want 0", rows)
	}

	fill.RefTable = "provider)"
	if _, err := p.Backfill(ctx, fill); !errors.Is(err, ErrInvalidIdentifier) {
		t.Errorf("Backfill() error = %v, want ErrInvalidIdentifier", err)
	}
}

func TestPatcher_Apply(t *testing.T) {
	p, _ := setupPatcher(t, legacySchema...)
	ctx := context.Background()

	outcomes, err := p.Apply(ctx, "company-assets", "company-provider")
	if err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	if len(outcomes) != 2 {
		t.Fatalf("Apply() = %+v", outcomes)
	}
	for _, o := range outcomes {
		if !o.Changed {
			t.Errorf("%s: Changed = false on first apply", o.Patch)
		}
	}
	if outcomes[1].Detail != "2 companies linked" {
		t.Errorf("Detail = %q", outcomes[1].Detail)
	}

	outcomes, err = p.Apply(ctx, "company-assets", "company-provider")
	if err != nil {
		t.Fatalf("second Apply() error = %v", err)
	}
	for _, o := range outcomes {
		if o.Changed {
			t.Errorf("%s: Changed = true on second apply", o.Patch)
		}
	}
}

func TestPatcher_ApplyUnknown(t *testing.T) {
	p, db := setupPatcher(t, legacySchema...)

	_, err := p.Apply(context.Background(), "company-assets", "drop-everything")
	if !errors.Is(err, ErrUnknownPatch) {
		t.Fatalf("Apply() error = %v, want ErrUnknownPatch", err)
	}

	table, err := inspector.New(db.DB, db.Dialect, "").DescribeTable(context.Background(), "company")
	if err != nil {
		t.Fatal(err)
	}
	if table.Column("assets") != nil {
		t.Error("known patch ran before the unknown name was rejected")
	}
}

func TestPatches(t *testing.T) {
	patches := Patches()
	if len(patches) != 2 || patches[0].Name != "company-assets" || patches[1].Name != "company-provider" {
		t.Errorf("Patches() = %+v", patches)
	}
	for _, patch := range patches {
		if patch.Description == "" {
			t.Errorf("%s has no description", patch.Name)
		}
	}
}
