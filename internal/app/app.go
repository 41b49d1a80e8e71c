// Package app wires configuration, logging and the database connection for
// the command line tools.
package app

import (
	"fmt"
	"io"

	"github.com/asakaida/telops/internal/infrastructure/config"
	"github.com/asakaida/telops/internal/infrastructure/database"
	"github.com/asakaida/telops/internal/infrastructure/logger"
	"github.com/rs/zerolog"
)

// App holds what every command needs
type App struct {
	Config *config.Config
	Log    zerolog.Logger
	DB     *database.Database
}

// Setup loads the configuration for env and builds the logger
func Setup(env string, logOut io.Writer) (*App, error) {
	if err := config.InitConfig(env); err != nil {
		return nil, fmt.Errorf("failed to initialize config: %w", err)
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	log, err := logger.New(cfg.Log.Level, cfg.Log.Format, logOut)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}
	log.Debug().Str("env", env).Str("root", cfg.Root).Msg("configuration loaded")

	return &App{Config: cfg, Log: log}, nil
}

// Connect opens the configured database
func (a *App) Connect() error {
	db, err := database.Open(&a.Config.Database)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	a.DB = db
	a.Log.Info().Str("target", a.Config.Database.Redacted()).Msg("connected to database")
	return nil
}

// Close releases the database connection
func (a *App) Close() {
	if a == nil || a.DB == nil {
		return
	}
	if err := a.DB.Close(); err != nil {
		a.Log.Warn().Err(err).Msg("failed to close database")
	}
}
