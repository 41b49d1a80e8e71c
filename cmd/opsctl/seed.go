package main

import (
	"fmt"

	"github.com/asakaida/telops/internal/services/seeder"
	"github.com/spf13/cobra"
)

var seedFlags struct {
	companies int
	users     int
	noAssets  bool
	tag       string
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Insert linked sample providers, segments, companies and users",
	Long: `Insert sample data in a single transaction.

Lookup rows (providers, segments, permissions) are reused when they exist.
Companies and users are tagged with a short run id so repeated runs do not
collide.`,
	Args: cobra.NoArgs,
	RunE: runSeed,
}

func init() {
	defaults := seeder.DefaultPlan()
	seedCmd.Flags().IntVar(&seedFlags.companies, "companies", defaults.Companies, "Number of companies to create")
	seedCmd.Flags().IntVar(&seedFlags.users, "users", defaults.UsersPerCompany, "Users per company")
	seedCmd.Flags().BoolVar(&seedFlags.noAssets, "no-assets", false, "Leave company assets empty")
	seedCmd.Flags().StringVar(&seedFlags.tag, "tag", "", "Run tag used in generated names (default random)")
}

func runSeed(cmd *cobra.Command, args []string) error {
	if err := connect(); err != nil {
		return err
	}

	plan := seeder.DefaultPlan()
	plan.Companies = seedFlags.companies
	plan.UsersPerCompany = seedFlags.users
	plan.WithAssets = !seedFlags.noAssets
	plan.Tag = seedFlags.tag

	result, err := seeder.New(ops.DB.DB, ops.DB.Dialect, ops.Log).Seed(cmd.Context(), plan)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "tag %s: %d providers, %d segments, %d permissions, %d companies, %d users\n",
		result.Tag, len(result.ProviderIDs), len(result.SegmentIDs), len(result.PermissionIDs),
		len(result.CompanyIDs), result.Users)
	return nil
}
