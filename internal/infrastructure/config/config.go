package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/go-sql-driver/mysql"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config represents the tool configuration
type Config struct {
	// Root is the directory relative paths are resolved against
	Root       string
	Database   DatabaseConfig
	Migrations MigrationsConfig
	API        APIConfig
	Log        LogConfig
}

// DatabaseConfig represents database configuration
type DatabaseConfig struct {
	Driver   string `validate:"oneof=postgres mysql sqlite"`
	Host     string `validate:"required_unless=Driver sqlite"`
	Port     int    `validate:"max=65535"`
	User     string `validate:"required_unless=Driver sqlite"`
	Password string
	Database string `validate:"required"`
	SSLMode  string
	// Schema is the postgres schema inspected by the inspect commands
	Schema string
}

// MigrationsConfig locates the SQL files
type MigrationsConfig struct {
	// ScriptsDir holds plain .sql files run in filename order
	ScriptsDir string `validate:"required"`
	// VersionedDir holds golang-migrate NNN_name.up.sql / .down.sql pairs
	VersionedDir string `validate:"required"`
}

// APIConfig represents the backend REST API used by the smoke command
type APIConfig struct {
	BaseURL  string `validate:"required,url"`
	Email    string
	Password string
	Timeout  time.Duration `validate:"min=1s"`
}

// LogConfig represents logging configuration
type LogConfig struct {
	Level  string `validate:"oneof=debug info warn error"`
	Format string `validate:"oneof=console json"`
}

var projectRoot string

// findProjectRoot finds the project root directory by looking for go.mod.
// Outside a checkout the working directory is used.
func findProjectRoot() (string, error) {
	wd, err := os.Getwd()
	if err != nil {
		return "", err
	}

	// Walk up the directory tree until we find go.mod
	dir := wd
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return wd, nil
		}
		dir = parent
	}
}

// InitConfig initializes viper configuration
// env: environment name (dev, test, prod)
func InitConfig(env string) error {
	if env == "" {
		env = "dev"
	}

	root, err := findProjectRoot()
	if err != nil {
		return fmt.Errorf("failed to find project root: %w", err)
	}
	projectRoot = root

	// .env only fills variables that are not already set
	if err := godotenv.Load(filepath.Join(root, ".env")); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to load .env: %w", err)
	}

	// Set config file name based on environment
	viper.SetConfigName(fmt.Sprintf(".env.%s", env))
	viper.SetConfigType("env")
	viper.AddConfigPath(root)

	// Read config file (optional, ignore error if not found)
	_ = viper.ReadInConfig()

	// Environment variables take precedence over config file
	viper.AutomaticEnv()

	viper.SetDefault("DB_DRIVER", "postgres")
	viper.SetDefault("DB_HOST", "localhost")
	viper.SetDefault("DB_USER", "telops")
	viper.SetDefault("DB_NAME", "telops_dev")
	viper.SetDefault("DB_SSLMODE", "disable")
	viper.SetDefault("DB_SCHEMA", "public")

	viper.SetDefault("SCRIPTS_DIR", "migrations")
	viper.SetDefault("MIGRATIONS_DIR", "migrations/versioned")

	viper.SetDefault("API_BASE_URL", "http://localhost:3000")
	viper.SetDefault("API_TIMEOUT_SECONDS", 10)

	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("LOG_FORMAT", "console")

	return nil
}

// Load loads configuration from viper
func Load() (*Config, error) {
	driver := strings.ToLower(viper.GetString("DB_DRIVER"))

	// DB_PASSWORD is required for security
	dbPassword := viper.GetString("DB_PASSWORD")
	if dbPassword == "" && driver != "sqlite" {
		return nil, fmt.Errorf("DB_PASSWORD is required (set via environment variable or .env file)")
	}

	root := projectRoot
	if root == "" {
		root = "."
	}

	cfg := &Config{
		Root: root,
		Database: DatabaseConfig{
			Driver:   driver,
			Host:     viper.GetString("DB_HOST"),
			Port:     viper.GetInt("DB_PORT"),
			User:     viper.GetString("DB_USER"),
			Password: dbPassword,
			Database: viper.GetString("DB_NAME"),
			SSLMode:  viper.GetString("DB_SSLMODE"),
			Schema:   viper.GetString("DB_SCHEMA"),
		},
		Migrations: MigrationsConfig{
			ScriptsDir:   resolve(root, viper.GetString("SCRIPTS_DIR")),
			VersionedDir: resolve(root, viper.GetString("MIGRATIONS_DIR")),
		},
		API: APIConfig{
			BaseURL:  strings.TrimRight(viper.GetString("API_BASE_URL"), "/"),
			Email:    viper.GetString("API_EMAIL"),
			Password: viper.GetString("API_PASSWORD"),
			Timeout:  time.Duration(viper.GetInt("API_TIMEOUT_SECONDS")) * time.Second,
		},
		Log: LogConfig{
			Level:  strings.ToLower(viper.GetString("LOG_LEVEL")),
			Format: strings.ToLower(viper.GetString("LOG_FORMAT")),
		},
	}

	if cfg.Database.Port == 0 {
		cfg.Database.Port = defaultPort(driver)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func defaultPort(driver string) int {
	switch driver {
	case "mysql":
		return 3306
	case "sqlite":
		return 0
	default:
		return 5432
	}
}

// Resolve makes a relative path relative to the project root
func (c *Config) Resolve(path string) string {
	return resolve(c.Root, path)
}

func resolve(root, path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(root, path)
}

// ConnectionString returns the driver specific data source name
func (c *DatabaseConfig) ConnectionString() string {
	switch c.Driver {
	case "mysql":
		mc := mysql.NewConfig()
		mc.User = c.User
		mc.Passwd = c.Password
		mc.Net = "tcp"
		mc.Addr = net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
		mc.DBName = c.Database
		mc.ParseTime = true
		// ad-hoc scripts may be executed as a single multi-statement Exec
		mc.MultiStatements = true
		return mc.FormatDSN()
	case "sqlite":
		return c.Database
	default:
		return fmt.Sprintf(
			"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
			pqValue(c.Host),
			c.Port,
			pqValue(c.User),
			pqValue(c.Password),
			pqValue(c.Database),
			pqValue(c.SSLMode),
		)
	}
}

// pqValue quotes a key/value connection string value when lib/pq needs it to.
func pqValue(v string) string {
	if v != "" && !strings.ContainsAny(v, ` '\`) {
		return v
	}
	v = strings.ReplaceAll(v, `\`, `\\`)
	v = strings.ReplaceAll(v, `'`, `\'`)
	return "'" + v + "'"
}

// Redacted returns a description of the target safe to log
func (c *DatabaseConfig) Redacted() string {
	if c.Driver == "sqlite" {
		return fmt.Sprintf("sqlite:%s", c.Database)
	}
	return fmt.Sprintf("%s://%s@%s:%d/%s", c.Driver, c.User, c.Host, c.Port, c.Database)
}
