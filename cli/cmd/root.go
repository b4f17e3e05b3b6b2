// ABOUTME: Root command for the journey CLI
// ABOUTME: Handles global flags and configuration

package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	apiURL     string
	jsonOutput bool
)

const defaultAPIURL = "http://localhost:8080"

// rootCmd is the base command
var rootCmd = &cobra.Command{
	Use:   "journey",
	Short: "CLI for the Patient Journey backend",
	Long: `journey is a command-line interface for the Patient Journey backend.

It lists a patient's prescription documents and prints the summarized
patient journey, and can be used as a smoke check in CI/CD pipelines.

Environment Variables:
  JOURNEY_API_URL  Backend API URL (default: http://localhost:8080)`,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&apiURL, "api-url", "", "Backend API URL (overrides JOURNEY_API_URL)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output JSON instead of human-readable text")
}

// GetAPIURL returns the API URL from flag, env, or default (in priority order)
func GetAPIURL() string {
	if apiURL != "" {
		return apiURL
	}
	if envURL := os.Getenv("JOURNEY_API_URL"); envURL != "" {
		return envURL
	}
	return defaultAPIURL
}

// IsJSONOutput returns whether JSON output is requested
func IsJSONOutput() bool {
	return jsonOutput
}
