package config

import (
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
)

func TestDatabaseConfig_ConnectionString(t *testing.T) {
	tests := []struct {
		name string
		cfg  DatabaseConfig
		want string
	}{
		{
			name: "standard postgres configuration",
			cfg: DatabaseConfig{
				Driver:   "postgres",
				Host:     "localhost",
				Port:     5432,
				User:     "testuser",
				Password: "testpass",
				Database: "testdb",
				SSLMode:  "disable",
			},
			want: "host=localhost port=5432 user=testuser password=testpass dbname=testdb sslmode=disable",
		},
		{
			name: "postgres password with spaces and quotes",
			cfg: DatabaseConfig{
				Driver:   "postgres",
				Host:     "db.example.com",
				Port:     5433,
				User:     "produser",
				Password: `it's a secret`,
				Database: "proddb",
				SSLMode:  "require",
			},
			want: `host=db.example.com port=5433 user=produser password='it\'s a secret' dbname=proddb sslmode=require`,
		},
		{
			name: "sqlite path",
			cfg: DatabaseConfig{
				Driver:   "sqlite",
				Database: "/tmp/telops.db",
			},
			want: "/tmp/telops.db",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.cfg.ConnectionString(); got != tt.want {
				t.Errorf("DatabaseConfig.ConnectionString() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDatabaseConfig_ConnectionString_MySQL(t *testing.T) {
	cfg := DatabaseConfig{
		Driver:   "mysql",
		Host:     "maria.internal",
		Port:     3306,
		User:     "ops",
		Password: "p@ss",
		Database: "telephony",
	}

	got := cfg.ConnectionString()
	for _, part := range []string{"ops:p@ss@tcp(maria.internal:3306)/telephony", "multiStatements=true", "parseTime=true"} {
		if !strings.Contains(got, part) {
			t.Errorf("ConnectionString() = %q, want it to contain %q", got, part)
		}
	}
}

func TestDatabaseConfig_Redacted(t *testing.T) {
	cfg := DatabaseConfig{Driver: "postgres", Host: "db", Port: 5432, User: "ops", Password: "secret", Database: "app"}
	got := cfg.Redacted()
	if strings.Contains(got, "secret") {
		t.Errorf("Redacted() = %q leaks the password", got)
	}
	if got != "postgres://ops@db:5432/app" {
		t.Errorf("Redacted() = %q", got)
	}
}

func setupEnv(t *testing.T, env map[string]string) {
	t.Helper()
	viper.Reset()
	for k, v := range env {
		t.Setenv(k, v)
	}
	if err := InitConfig("test"); err != nil {
		t.Fatalf("InitConfig() error = %v", err)
	}
}

func TestLoad_Defaults(t *testing.T) {
	setupEnv(t, map[string]string{"DB_PASSWORD": "pw"})

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Database.Driver != "postgres" {
		t.Errorf("Driver = %v, want postgres", cfg.Database.Driver)
	}
	if cfg.Database.Port != 5432 {
		t.Errorf("Port = %v, want 5432", cfg.Database.Port)
	}
	if cfg.Database.Schema != "public" {
		t.Errorf("Schema = %v, want public", cfg.Database.Schema)
	}
	if cfg.API.BaseURL != "http://localhost:3000" {
		t.Errorf("API.BaseURL = %v", cfg.API.BaseURL)
	}
	if cfg.API.Timeout != 10*time.Second {
		t.Errorf("API.Timeout = %v, want 10s", cfg.API.Timeout)
	}
	if !strings.HasSuffix(cfg.Migrations.ScriptsDir, "migrations") {
		t.Errorf("ScriptsDir = %v", cfg.Migrations.ScriptsDir)
	}
	if cfg.Log.Level != "info" || cfg.Log.Format != "console" {
		t.Errorf("Log = %+v", cfg.Log)
	}
}

func TestLoad(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr string
		check   func(t *testing.T, cfg *Config)
	}{
		{
			name:    "missing password",
			env:     map[string]string{},
			wantErr: "DB_PASSWORD is required",
		},
		{
			name: "sqlite needs no password",
			env:  map[string]string{"DB_DRIVER": "sqlite", "DB_NAME": ":memory:"},
			check: func(t *testing.T, cfg *Config) {
				if cfg.Database.Port != 0 {
					t.Errorf("Port = %d, want 0", cfg.Database.Port)
				}
			},
		},
		{
			name: "mysql default port",
			env:  map[string]string{"DB_DRIVER": "MySQL", "DB_PASSWORD": "pw"},
			check: func(t *testing.T, cfg *Config) {
				if cfg.Database.Driver != "mysql" {
					t.Errorf("Driver = %q, want mysql", cfg.Database.Driver)
				}
				if cfg.Database.Port != 3306 {
					t.Errorf("Port = %d, want 3306", cfg.Database.Port)
				}
			},
		},
		{
			name: "explicit port wins",
			env:  map[string]string{"DB_DRIVER": "mysql", "DB_PASSWORD": "pw", "DB_PORT": "13306"},
			check: func(t *testing.T, cfg *Config) {
				if cfg.Database.Port != 13306 {
					t.Errorf("Port = %d, want 13306", cfg.Database.Port)
				}
			},
		},
		{
			name:    "unknown driver",
			env:     map[string]string{"DB_DRIVER": "oracle", "DB_PASSWORD": "pw"},
			wantErr: "invalid configuration",
		},
		{
			name:    "invalid log level",
			env:     map[string]string{"DB_PASSWORD": "pw", "LOG_LEVEL": "verbose"},
			wantErr: "invalid configuration",
		},
		{
			name:    "invalid api url",
			env:     map[string]string{"DB_PASSWORD": "pw", "API_BASE_URL": "not a url"},
			wantErr: "invalid configuration",
		},
		{
			name: "trailing slash trimmed",
			env:  map[string]string{"DB_PASSWORD": "pw", "API_BASE_URL": "http://api.local:8080/"},
			check: func(t *testing.T, cfg *Config) {
				if cfg.API.BaseURL != "http://api.local:8080" {
					t.Errorf("BaseURL = %q", cfg.API.BaseURL)
				}
			},
		},
		{
			name: "absolute scripts dir kept",
			env:  map[string]string{"DB_PASSWORD": "pw", "SCRIPTS_DIR": "/srv/sql"},
			check: func(t *testing.T, cfg *Config) {
				if cfg.Migrations.ScriptsDir != "/srv/sql" {
					t.Errorf("ScriptsDir = %q", cfg.Migrations.ScriptsDir)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// DB_PASSWORD may be exported in the developer shell
			t.Setenv("DB_PASSWORD", "")
			setupEnv(t, tt.env)

			cfg, err := Load()
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("Load() error = %v, want %q", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Load() error = %v", err)
			}
			if tt.check != nil {
				tt.check(t, cfg)
			}
		})
	}
}

func TestConfig_Resolve(t *testing.T) {
	cfg := &Config{Root: "/srv/telops"}

	tests := []struct {
		in   string
		want string
	}{
		{"migrations", "/srv/telops/migrations"},
		{"sql/../scripts", "/srv/telops/scripts"},
		{"/abs/dir", "/abs/dir"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := cfg.Resolve(tt.in); got != tt.want {
			t.Errorf("Resolve(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
