package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/asakaida/telops/internal/apiclient"
	"github.com/asakaida/telops/internal/infrastructure/metrics"
	"github.com/spf13/cobra"
)

var (
	smokeBaseURL     string
	smokeMetricsFile string
)

var smokeCmd = &cobra.Command{
	Use:   "smoke",
	Short: "Smoke-test the REST backend",
	Long: `Log in to the backend, create a company with assets, read it back and
compare the assets, then list companies and segments.`,
	Args: cobra.NoArgs,
	RunE: runSmoke,
}

func init() {
	smokeCmd.Flags().StringVar(&smokeBaseURL, "base-url", "", "Backend base URL (default API_BASE_URL)")
	smokeCmd.Flags().StringVar(&smokeMetricsFile, "metrics-file", "", "Write Prometheus textfile metrics of the run to this path")
}

func runSmoke(cmd *cobra.Command, args []string) error {
	cfg := ops.Config.API
	baseURL := cfg.BaseURL
	if smokeBaseURL != "" {
		baseURL = smokeBaseURL
	}

	client := apiclient.New(baseURL, cfg.Timeout)
	ops.Log.Info().Str("base_url", client.BaseURL).Msg("running smoke test")

	report, err := apiclient.RunSmoke(cmd.Context(), client,
		apiclient.Credentials{Email: cfg.Email, Password: cfg.Password}, ops.Log)

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	for _, s := range report.Steps {
		status := "PASS"
		if !s.Passed {
			status = "FAIL"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", status, s.Name, s.Duration.Round(time.Millisecond), s.Detail)
	}
	if flushErr := tw.Flush(); flushErr != nil && err == nil {
		err = flushErr
	}

	if smokeMetricsFile != "" {
		e := metrics.NewExporter()
		for _, s := range report.Steps {
			e.RecordSmokeStep(s.Name, s.Passed)
		}
		e.RecordRun("smoke", report.Passed(), time.Now())
		if mErr := e.WriteTextfile(smokeMetricsFile); mErr != nil {
			ops.Log.Warn().Err(mErr).Msg("metrics not written")
		}
	}
	return err
}
