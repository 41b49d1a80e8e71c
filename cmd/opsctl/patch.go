package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/asakaida/telops/internal/services/patcher"
	"github.com/spf13/cobra"
)

var patchCmd = &cobra.Command{
	Use:   "patch",
	Short: "Apply idempotent structural patches",
}

var patchListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the available patches",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		for _, p := range patcher.Patches() {
			fmt.Fprintf(tw, "%s\t%s\n", p.Name, p.Description)
		}
		return tw.Flush()
	},
}

var patchApplyCmd = &cobra.Command{
	Use:   "apply <name>...",
	Short: "Apply patches in the given order",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := connect(); err != nil {
			return err
		}

		p := patcher.New(ops.DB.DB, ops.DB.Dialect, ops.Config.Database.Schema, ops.Log)
		outcomes, err := p.Apply(cmd.Context(), args...)
		for _, o := range outcomes {
			state := "unchanged"
			if o.Changed {
				state = "changed"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s (%s)\n", o.Patch, state, o.Detail)
		}
		return err
	},
}

func init() {
	patchCmd.AddCommand(patchListCmd)
	patchCmd.AddCommand(patchApplyCmd)
}
