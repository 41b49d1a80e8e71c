package main

import (
	"fmt"

	"github.com/asakaida/telops/internal/services/inspector"
	"github.com/spf13/cobra"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Inspect tables, columns, foreign keys and row counts",
}

var inspectTablesCmd = &cobra.Command{
	Use:   "tables",
	Short: "List tables",
	Args:  cobra.NoArgs,
	RunE: withInspector(func(cmd *cobra.Command, in *inspector.Inspector, args []string) error {
		tables, err := in.ListTables(cmd.Context())
		if err != nil {
			return err
		}
		return inspector.WriteTables(cmd.OutOrStdout(), tables)
	}),
}

var inspectDescribeCmd = &cobra.Command{
	Use:   "describe <table>",
	Short: "Show the columns of a table",
	Args:  cobra.ExactArgs(1),
	RunE: withInspector(func(cmd *cobra.Command, in *inspector.Inspector, args []string) error {
		table, err := in.DescribeTable(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return inspector.WriteTable(cmd.OutOrStdout(), table)
	}),
}

var inspectFKsCmd = &cobra.Command{
	Use:   "fks <table>",
	Short: "Show the foreign keys of a table",
	Args:  cobra.ExactArgs(1),
	RunE: withInspector(func(cmd *cobra.Command, in *inspector.Inspector, args []string) error {
		fks, err := in.ForeignKeys(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return inspector.WriteForeignKeys(cmd.OutOrStdout(), fks)
	}),
}

var inspectCountCmd = &cobra.Command{
	Use:   "count <table>",
	Short: "Count the rows of a table",
	Args:  cobra.ExactArgs(1),
	RunE: withInspector(func(cmd *cobra.Command, in *inspector.Inspector, args []string) error {
		n, err := in.RowCount(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), n)
		return err
	}),
}

var inspectSummaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "List every table with its row count",
	Args:  cobra.NoArgs,
	RunE: withInspector(func(cmd *cobra.Command, in *inspector.Inspector, args []string) error {
		summary, err := in.Summary(cmd.Context())
		if err != nil {
			return err
		}
		return inspector.WriteSummary(cmd.OutOrStdout(), summary)
	}),
}

var inspectQueryCmd = &cobra.Command{
	Use:   "query <sql>",
	Short: "Run a read query and print the result",
	Args:  cobra.ExactArgs(1),
	RunE: withInspector(func(cmd *cobra.Command, in *inspector.Inspector, args []string) error {
		result, err := in.Query(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return inspector.WriteQuery(cmd.OutOrStdout(), result)
	}),
}

func init() {
	inspectCmd.AddCommand(inspectTablesCmd)
	inspectCmd.AddCommand(inspectDescribeCmd)
	inspectCmd.AddCommand(inspectFKsCmd)
	inspectCmd.AddCommand(inspectCountCmd)
	inspectCmd.AddCommand(inspectSummaryCmd)
	inspectCmd.AddCommand(inspectQueryCmd)
}

func withInspector(fn func(cmd *cobra.Command, in *inspector.Inspector, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		if err := connect(); err != nil {
			return err
		}
		in := inspector.New(ops.DB.DB, ops.DB.Dialect, ops.Config.Database.Schema)
		return fn(cmd, in, args)
	}
}
