// ABOUTME: URLs command for the journey CLI
// ABOUTME: Lists prescription and consultation document URLs for a patient page

package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/clinicflow/patient-journey/cli/internal/client"
	"github.com/spf13/cobra"
)

var (
	urlsPatient string
	urlsPage    int
)

var urlsCmd = &cobra.Command{
	Use:   "urls",
	Short: "List a patient's document URLs",
	Long: `List the prescription and consultation document URLs the backend
discovers in one page of a patient's appointment history.

Exit codes:
  0 - URLs listed (possibly none)
  2 - Error (connectivity, invalid input, records API failure)`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		exitCode := runURLs(ctx, os.Stdout)
		if exitCode != 0 {
			os.Exit(exitCode)
		}
	},
}

func init() {
	rootCmd.AddCommand(urlsCmd)
	urlsCmd.Flags().StringVar(&urlsPatient, "patient", "", "Patient identifier (required)")
	urlsCmd.Flags().IntVar(&urlsPage, "page", 0, "Appointment page number")
}

// runURLs fetches document URLs and returns exit code
func runURLs(ctx context.Context, w io.Writer) int {
	if err := validatePatientFlags(urlsPatient, urlsPage); err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return 2
	}

	c := client.New(GetAPIURL())
	resp, err := c.URLs(ctx, urlsPatient, urlsPage)
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return 2
	}

	if IsJSONOutput() {
		data, _ := json.MarshalIndent(resp, "", "  ")
		fmt.Fprintln(w, string(data))
	} else {
		fmt.Fprintln(w, formatURLsHuman(resp))
	}
	return 0
}

// validatePatientFlags checks the flags shared by urls and summary
func validatePatientFlags(patient string, page int) error {
	if strings.TrimSpace(patient) == "" {
		return fmt.Errorf("--patient is required")
	}
	if page < 0 {
		return fmt.Errorf("--page must be >= 0")
	}
	return nil
}

// formatURLsHuman prints one URL per line under a count header
func formatURLsHuman(resp *client.URLsResponse) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Patient %s: %d document(s)", resp.PatientID, resp.Count)
	for _, u := range resp.URLs {
		fmt.Fprintf(&b, "\n  %s", u)
	}
	return b.String()
}
