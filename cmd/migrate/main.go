package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/asakaida/telops/internal/app"
	"github.com/asakaida/telops/internal/infrastructure/database"
	"github.com/asakaida/telops/internal/infrastructure/metrics"
	"github.com/asakaida/telops/internal/services/runner"
	"github.com/golang-migrate/migrate/v4"
	"github.com/spf13/cobra"
)

var (
	envFlag string
	dirFlag string
	ops     *app.App

	runFlags struct {
		tx             string
		split          bool
		ignoreExisting bool
		track          bool
		dryRun         bool
		from           string
		dir            string
		metricsFile    string
	}
)

var rootCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Database migration tool for telops",
	Long: `Database migration tool for telops.
Manages versioned schema migrations with golang-migrate and runs ad-hoc
.sql scripts against PostgreSQL, MySQL/MariaDB or SQLite.`,
	SilenceUsage:      true,
	PersistentPreRunE: setupDatabase,
	PersistentPostRun: func(cmd *cobra.Command, args []string) { ops.Close() },
}

var upCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply all pending migrations",
	Long:  `Apply all pending versioned migrations to the database.`,
	Args:  cobra.NoArgs,
	RunE:  runUp,
}

var downCmd = &cobra.Command{
	Use:   "down [steps]",
	Short: "Rollback migrations",
	Long:  `Rollback the specified number of migrations (default: 1).`,
	Args:  cobra.MaximumNArgs(1),
	RunE:  runDown,
}

var gotoCmd = &cobra.Command{
	Use:   "goto <version>",
	Short: "Migrate to a specific version",
	Long:  `Migrate up or down to a specific version number.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runGoto,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show current migration version",
	Long:  `Display the current migration version of the database.`,
	Args:  cobra.NoArgs,
	RunE:  runVersion,
}

var forceCmd = &cobra.Command{
	Use:   "force <version>",
	Short: "Force set migration version (use with caution)",
	Long:  `Force set the migration version without running migrations. Use with caution.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runForce,
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run ad-hoc .sql scripts in filename order",
	Long: `Run every .sql file of the scripts directory in filename order.

Scripts are executed one after the other and the run stops at the first
failure. Use --tx to choose the transaction boundary, --split to execute
statement by statement and --ignore-existing to tolerate DDL that already
ran (duplicate column, table or index).`,
	Args: cobra.NoArgs,
	RunE: runScripts,
}

func init() {
	// Add global flags to all commands
	rootCmd.PersistentFlags().StringVarP(&envFlag, "env", "e", "dev", "Environment to use (dev, test, prod)")
	rootCmd.PersistentFlags().StringVar(&dirFlag, "path", "", "Versioned migrations directory (default MIGRATIONS_DIR)")

	runCmd.Flags().StringVar(&runFlags.tx, "tx", "file", "Transaction mode: none, file or all")
	runCmd.Flags().BoolVar(&runFlags.split, "split", true, "Execute statement by statement")
	runCmd.Flags().BoolVar(&runFlags.ignoreExisting, "ignore-existing", false, "Ignore duplicate column/table/index errors")
	runCmd.Flags().BoolVar(&runFlags.track, "track", false, "Record applied scripts and skip them on later runs")
	runCmd.Flags().BoolVar(&runFlags.dryRun, "dry-run", false, "Print the statements without executing them")
	runCmd.Flags().StringVar(&runFlags.from, "from", "", "Skip scripts whose name sorts before this one")
	runCmd.Flags().StringVar(&runFlags.dir, "dir", "", "Scripts directory (default SCRIPTS_DIR)")
	runCmd.Flags().StringVar(&runFlags.metricsFile, "metrics-file", "", "Write Prometheus textfile metrics of the run to this path")

	// Add subcommands
	rootCmd.AddCommand(upCmd)
	rootCmd.AddCommand(downCmd)
	rootCmd.AddCommand(gotoCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(forceCmd)
	rootCmd.AddCommand(runCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

func setupDatabase(cmd *cobra.Command, args []string) error {
	var err error
	ops, err = app.Setup(envFlag, os.Stderr)
	if err != nil {
		return err
	}
	ops.Log.Info().Str("env", envFlag).Msg("using environment")

	// a dry run never needs a connection
	if cmd == runCmd && runFlags.dryRun {
		return nil
	}
	return ops.Connect()
}

func migrationsPath() string {
	if dirFlag != "" {
		return ops.Config.Resolve(dirFlag)
	}
	return ops.Config.Migrations.VersionedDir
}

func createMigrate() (*migrate.Migrate, error) {
	path := migrationsPath()
	ops.Log.Info().Str("path", path).Msg("using migrations path")

	m, err := ops.DB.NewMigrator(path)
	if err != nil {
		return nil, err
	}
	return m, nil
}

func closeMigrate(m *migrate.Migrate) {
	if srcErr, dbErr := m.Close(); srcErr != nil || dbErr != nil {
		ops.Log.Warn().AnErr("source", srcErr).AnErr("database", dbErr).Msg("failed to close migrate instance")
	}
	// the migrate driver owns the connection once created
	ops.DB = nil
}

func parseVersion(arg string) (int, error) {
	v, err := strconv.Atoi(arg)
	if err != nil || v < 0 {
		return 0, fmt.Errorf("invalid version %q: must be a non-negative integer", arg)
	}
	return v, nil
}

func runUp(cmd *cobra.Command, args []string) error {
	m, err := createMigrate()
	if err != nil {
		return err
	}
	defer closeMigrate(m)

	err = m.Up()
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration up failed: %w", err)
	}

	if errors.Is(err, migrate.ErrNoChange) {
		ops.Log.Info().Msg("no migrations to apply")
	} else {
		ops.Log.Info().Msg("migration up completed successfully")
	}
	return nil
}

func runDown(cmd *cobra.Command, args []string) error {
	steps := 1 // Default: rollback 1 migration
	if len(args) > 0 {
		n, err := strconv.Atoi(args[0])
		if err != nil || n < 1 {
			return fmt.Errorf("invalid steps %q: must be a positive integer", args[0])
		}
		steps = n
	}

	m, err := createMigrate()
	if err != nil {
		return err
	}
	defer closeMigrate(m)

	err = m.Steps(-steps)
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration down failed: %w", err)
	}

	if errors.Is(err, migrate.ErrNoChange) {
		ops.Log.Info().Msg("no migrations to rollback")
	} else {
		ops.Log.Info().Int("steps", steps).Msg("migration down completed successfully")
	}
	return nil
}

func runGoto(cmd *cobra.Command, args []string) error {
	version, err := parseVersion(args[0])
	if err != nil {
		return err
	}

	m, err := createMigrate()
	if err != nil {
		return err
	}
	defer closeMigrate(m)

	err = m.Migrate(uint(version))
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration goto failed: %w", err)
	}

	if errors.Is(err, migrate.ErrNoChange) {
		ops.Log.Info().Int("version", version).Msg("already at version")
	} else {
		ops.Log.Info().Int("version", version).Msg("migration goto completed successfully")
	}
	return nil
}

func runVersion(cmd *cobra.Command, args []string) error {
	m, err := createMigrate()
	if err != nil {
		return err
	}
	defer closeMigrate(m)

	version, dirty, err := m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		fmt.Fprintln(cmd.OutOrStdout(), "Current version: No migrations applied yet")
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to get version: %w", err)
	}

	if dirty {
		fmt.Fprintf(cmd.OutOrStdout(), "Current version: %d (dirty - migration may have failed)\n", version)
	} else {
		fmt.Fprintf(cmd.OutOrStdout(), "Current version: %d\n", version)
	}
	return nil
}

func runForce(cmd *cobra.Command, args []string) error {
	version, err := strconv.Atoi(args[0])
	if err != nil || version < -1 {
		return fmt.Errorf("invalid version %q: must be an integer >= -1", args[0])
	}

	m, err := createMigrate()
	if err != nil {
		return err
	}
	defer closeMigrate(m)

	if err := m.Force(version); err != nil {
		return fmt.Errorf("migration force failed: %w", err)
	}

	ops.Log.Warn().Int("version", version).Msg("migration version forced")
	return nil
}

func runScripts(cmd *cobra.Command, args []string) error {
	mode, err := runner.ParseTxMode(runFlags.tx)
	if err != nil {
		return err
	}

	dir := ops.Config.Migrations.ScriptsDir
	if runFlags.dir != "" {
		dir = ops.Config.Resolve(runFlags.dir)
	}
	scripts, err := runner.Load(os.DirFS(dir), ".")
	if err != nil {
		return err
	}
	ops.Log.Info().Str("dir", dir).Int("scripts", len(scripts)).Msg("loaded scripts")

	opts := runner.Options{
		Mode:           mode,
		Split:          runFlags.split,
		IgnoreExisting: runFlags.ignoreExisting,
		Track:          runFlags.track,
		DryRun:         runFlags.dryRun,
		Out:            cmd.OutOrStdout(),
		From:           runFlags.from,
	}
	if err := opts.Validate(); err != nil {
		return fmt.Errorf("--ignore-existing needs --split: %w", err)
	}

	if opts.DryRun {
		// statements are only rendered; the dialect decides how they split
		dialect, err := database.ParseDialect(ops.Config.Database.Driver)
		if err != nil {
			return err
		}
		_, err = runner.New(nil, dialect, ops.Log, opts).Run(cmd.Context(), scripts)
		return err
	}

	report, err := runner.New(ops.DB.DB, ops.DB.Dialect, ops.Log, opts).Run(cmd.Context(), scripts)
	ops.Log.Info().
		Int("applied", report.Applied()).
		Int("skipped", report.Skipped()).
		Str("tx", mode.String()).
		Msg("run finished")

	if runFlags.metricsFile != "" {
		if mErr := writeRunMetrics(runFlags.metricsFile, report, err == nil); mErr != nil {
			ops.Log.Warn().Err(mErr).Msg("metrics not written")
		}
	}
	return err
}

func writeRunMetrics(path string, report *runner.Report, success bool) error {
	e := metrics.NewExporter()
	for _, res := range report.Results {
		result := metrics.Applied
		switch {
		case res.Err != nil:
			result = metrics.Failed
		case res.Skipped:
			result = metrics.Skipped
		}
		e.RecordScript(result, res.Statements, res.Ignored, res.Duration)
	}
	e.RecordRun("migrate_run", success, time.Now())
	return e.WriteTextfile(path)
}
