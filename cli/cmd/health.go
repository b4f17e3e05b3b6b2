// ABOUTME: Health command for the journey CLI
// ABOUTME: Checks backend connectivity and summarization readiness

package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/clinicflow/patient-journey/cli/internal/client"
	"github.com/spf13/cobra"
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check backend connectivity",
	Long:  `Check connectivity to the Patient Journey backend and report which summarization backend is live.`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		exitCode := runHealth(ctx, os.Stdout)
		if exitCode != 0 {
			os.Exit(exitCode)
		}
	},
}

func init() {
	rootCmd.AddCommand(healthCmd)
}

// runHealth executes the health check and returns exit code
func runHealth(ctx context.Context, w io.Writer) int {
	url := GetAPIURL()
	c := client.New(url)

	resp, err := c.Health(ctx)
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return 2
	}

	if IsJSONOutput() {
		fmt.Fprintln(w, formatHealthJSON(url, resp))
	} else {
		fmt.Fprintln(w, formatHealthHuman(url, resp))
	}

	return 0
}

// formatHealthHuman formats health response for human readability
func formatHealthHuman(url string, resp *client.HealthResponse) string {
	return fmt.Sprintf(`Backend:      %s
Records API:  %s
Provider:     %s
Summarizer:   %s
Demo Mode:    %t`, url, resp.RecordsAPI, resp.SummaryProvider, resp.SummaryBackend, resp.DemoMode)
}

// formatHealthJSON formats health response as JSON
func formatHealthJSON(url string, resp *client.HealthResponse) string {
	output := map[string]interface{}{
		"backend":          url,
		"ok":               resp.OK,
		"records_api":      resp.RecordsAPI,
		"summary_provider": resp.SummaryProvider,
		"summary_backend":  resp.SummaryBackend,
		"demo_mode":        resp.DemoMode,
	}
	data, _ := json.MarshalIndent(output, "", "  ")
	return string(data)
}
