package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/asakaida/telops/internal/app"
	"github.com/spf13/cobra"
)

var (
	envFlag string
	ops     *app.App
)

var rootCmd = &cobra.Command{
	Use:   "opsctl",
	Short: "Operational tooling for the telops database",
	Long: `Operational tooling for the telops database.
Inspects the schema, seeds sample data, applies structural patches,
smoke-tests the REST backend and builds robot action lists.`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
	PersistentPostRun: func(cmd *cobra.Command, args []string) { ops.Close() },
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&envFlag, "env", "e", "dev", "Environment to use (dev, test, prod)")

	rootCmd.AddCommand(inspectCmd)
	rootCmd.AddCommand(seedCmd)
	rootCmd.AddCommand(patchCmd)
	rootCmd.AddCommand(smokeCmd)
	rootCmd.AddCommand(robotCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

func setup(cmd *cobra.Command, args []string) error {
	var err error
	ops, err = app.Setup(envFlag, os.Stderr)
	return err
}

// connect is called by the commands that talk to the database
func connect() error {
	return ops.Connect()
}
