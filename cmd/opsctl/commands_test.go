package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/asakaida/telops/internal/entities"
	"github.com/asakaida/telops/internal/infrastructure/config"
	"github.com/asakaida/telops/internal/infrastructure/database"
	"github.com/asakaida/telops/internal/repositories/sqlrepo"
)

// useSQLiteFile creates a database file with schema applied and points the
// configuration at it. TestSchema is used when no statements are passed.
func useSQLiteFile(t *testing.T, schema ...string) string {
	t.Helper()
	if len(schema) == 0 {
		schema = sqlrepo.TestSchema
	}

	path := filepath.Join(t.TempDir(), "telops.db")
	db, err := database.Open(&config.DatabaseConfig{Driver: "sqlite", Database: path})
	if err != nil {
		t.Fatalf("Failed to open database file: %v", err)
	}
	for _, stmt := range schema {
		if _, err := db.DB.Exec(stmt); err != nil {
			t.Fatalf("Failed to apply schema: %v\n%s", err, stmt)
		}
	}
	if err := db.Close(); err != nil {
		t.Fatal(err)
	}

	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("DB_NAME", path)
	t.Setenv("DB_PASSWORD", "")
	t.Setenv("LOG_LEVEL", "error")
	return path
}

func TestSeedAndInspectCommands(t *testing.T) {
	useSQLiteFile(t)

	out, err := execute(t, "seed", "--companies", "3", "--users", "1", "--no-assets=false", "--tag", "cmdtest")
	if err != nil {
		t.Fatalf("seed error = %v\n%s", err, out)
	}
	if want := "tag cmdtest: 4 providers, 3 segments, 3 permissions, 3 companies, 3 users\n"; out != want {
		t.Errorf("seed output = %q, want %q", out, want)
	}

	out, err = execute(t, "inspect", "count", "company")
	if err != nil {
		t.Fatalf("inspect count error = %v", err)
	}
	if out != "3\n" {
		t.Errorf("inspect count output = %q, want 3", out)
	}

	out, err = execute(t, "inspect", "tables")
	if err != nil {
		t.Fatalf("inspect tables error = %v", err)
	}
	for _, table := range []string{"company", "provider", "segment", "permissions", "user"} {
		if !strings.Contains(out, table+"\n") {
			t.Errorf("inspect tables output = %q, missing %s", out, table)
		}
	}

	out, err = execute(t, "inspect", "query", "SELECT name FROM company ORDER BY id LIMIT 1")
	if err != nil {
		t.Fatalf("inspect query error = %v", err)
	}
	if !strings.Contains(out, "cmdtest") || !strings.Contains(out, "(1 rows)") {
		t.Errorf("inspect query output = %q", out)
	}

	if _, err := execute(t, "inspect", "count", "missing"); err == nil {
		t.Error("inspect count expected error for a missing table")
	}
}

func TestPatchCommands(t *testing.T) {
	useSQLiteFile(t,
		`CREATE TABLE provider (id INTEGER PRIMARY KEY AUTOINCREMENT, name TEXT NOT NULL UNIQUE)`,
		`CREATE TABLE company (id INTEGER PRIMARY KEY AUTOINCREMENT, name TEXT NOT NULL, provider_name TEXT)`,
		`INSERT INTO provider (name) VALUES ('Vivo')`,
		`INSERT INTO company (name, provider_name) VALUES ('Acme', 'Vivo')`,
	)

	out, err := execute(t, "patch", "list")
	if err != nil {
		t.Fatalf("patch list error = %v", err)
	}
	if !strings.Contains(out, "company-assets") || !strings.Contains(out, "company-provider") {
		t.Errorf("patch list output = %q", out)
	}

	out, err = execute(t, "patch", "apply", "company-assets", "company-provider")
	if err != nil {
		t.Fatalf("patch apply error = %v\n%s", err, out)
	}
	want := "company-assets: changed (assets column added)\n" +
		"company-provider: changed (1 companies linked)\n"
	if out != want {
		t.Errorf("patch apply output = %q, want %q", out, want)
	}

	out, err = execute(t, "patch", "apply", "company-assets")
	if err != nil {
		t.Fatalf("second patch apply error = %v", err)
	}
	if out != "company-assets: unchanged (assets column already present)\n" {
		t.Errorf("second patch apply output = %q", out)
	}

	if _, err := execute(t, "patch", "apply", "company-assets", "nope"); err == nil {
		t.Error("patch apply expected error for an unknown patch")
	}
}

// smokeBackend serves the endpoints the smoke run calls
func smokeBackend(t *testing.T) *httptest.Server {
	t.Helper()
	var (
		mu        sync.Mutex
		companies []entities.Company
	)
	writeJSON := func(w http.ResponseWriter, status int, v any) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(v)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/login", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"access_token": "t0ken"})
	})
	mux.HandleFunc("POST /companies", func(w http.ResponseWriter, r *http.Request) {
		var c entities.Company
		if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		mu.Lock()
		c.ID = int64(len(companies) + 1)
		companies = append(companies, c)
		mu.Unlock()
		writeJSON(w, http.StatusCreated, c)
	})
	mux.HandleFunc("GET /companies", func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()
		writeJSON(w, http.StatusOK, companies)
	})
	mux.HandleFunc("GET /companies/{id}", func(w http.ResponseWriter, r *http.Request) {
		id, _ := strconv.ParseInt(r.PathValue("id"), 10, 64)
		mu.Lock()
		defer mu.Unlock()
		for _, c := range companies {
			if c.ID == id {
				writeJSON(w, http.StatusOK, c)
				return
			}
		}
		http.NotFound(w, r)
	})
	mux.HandleFunc("GET /segments", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, []entities.Segment{{ID: 1, Name: "Retail"}})
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestSmokeCommand_Metrics(t *testing.T) {
	useSQLiteFile(t)
	srv := smokeBackend(t)
	t.Setenv("API_BASE_URL", srv.URL)
	t.Setenv("API_EMAIL", "ops@example.test")

	tests := []struct {
		name     string
		password string
		wantErr  bool
		want     []string
	}{
		{
			name:     "passing run",
			password: "pw",
			want: []string{
				`telops_smoke_steps_total{result="passed",step="login"} 1`,
				`telops_smoke_steps_total{result="passed",step="list segments"} 1`,
				`telops_last_run_success{command="smoke"} 1`,
			},
		},
		{
			name:    "missing credentials",
			wantErr: true,
			want: []string{
				`telops_smoke_steps_total{result="failed",step="login"} 1`,
				`telops_last_run_success{command="smoke"} 0`,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("API_PASSWORD", tt.password)
			file := filepath.Join(t.TempDir(), "smoke.prom")

			out, err := execute(t, "smoke", "--metrics-file", file)
			if (err != nil) != tt.wantErr {
				t.Fatalf("smoke error = %v, wantErr %v\n%s", err, tt.wantErr, out)
			}

			raw, err := os.ReadFile(file)
			if err != nil {
				t.Fatalf("metrics file not written: %v", err)
			}
			for _, line := range tt.want {
				if !strings.Contains(string(raw), line) {
					t.Errorf("metrics file missing %q:\n%s", line, raw)
				}
			}
		})
	}
}
