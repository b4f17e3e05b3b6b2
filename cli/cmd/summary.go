// ABOUTME: Summary command for the journey CLI
// ABOUTME: Prints a patient's summarized journey with a coloured mental-state indicator

package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/clinicflow/patient-journey/cli/internal/client"
	"github.com/clinicflow/patient-journey/cli/internal/styles"
	"github.com/spf13/cobra"
)

var (
	summaryPatient  string
	summaryPage     int
	summaryMaxDocs  int
	summaryMaxChars int
	failOnFallback  bool
)

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Summarize a patient's journey",
	Long: `Fetch the summarized patient journey: narrative, timeline, findings,
medications, follow-ups, and a Green/Amber/Red mental-state estimate.

Exit codes:
  0 - Summary printed
  1 - Result is a fallback and --fail-on-fallback is set
  2 - Error (connectivity, invalid input, records API failure)`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		exitCode := runSummary(ctx, os.Stdout)
		if exitCode != 0 {
			os.Exit(exitCode)
		}
	},
}

func init() {
	rootCmd.AddCommand(summaryCmd)
	summaryCmd.Flags().StringVar(&summaryPatient, "patient", "", "Patient identifier (required)")
	summaryCmd.Flags().IntVar(&summaryPage, "page", 0, "Appointment page number")
	summaryCmd.Flags().IntVar(&summaryMaxDocs, "max-docs", 0, "Maximum documents to ingest (backend default when 0)")
	summaryCmd.Flags().IntVar(&summaryMaxChars, "max-chars", 0, "Maximum characters per document (backend default when 0)")
	summaryCmd.Flags().BoolVar(&failOnFallback, "fail-on-fallback", false, "Exit 1 when the backend returns a fallback summary")
}

// runSummary fetches the summary and returns exit code
func runSummary(ctx context.Context, w io.Writer) int {
	if err := validatePatientFlags(summaryPatient, summaryPage); err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return 2
	}
	if summaryMaxDocs < 0 || summaryMaxChars < 0 {
		fmt.Fprintln(w, "Error: --max-docs and --max-chars must be >= 0")
		return 2
	}

	c := client.New(GetAPIURL())
	result, err := c.Summary(ctx, client.SummaryRequest{
		PatientID:      summaryPatient,
		PageNo:         summaryPage,
		MaxDocs:        summaryMaxDocs,
		PerDocMaxChars: summaryMaxChars,
	})
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return 2
	}

	if IsJSONOutput() {
		fmt.Fprintln(w, string(result.Raw))
	} else {
		fmt.Fprintln(w, formatSummaryHuman(result))
	}

	if failOnFallback && result.IsFallback() {
		return 1
	}
	return 0
}

// formatSummaryHuman renders the journey as labelled sections
func formatSummaryHuman(r *client.SummaryResult) string {
	var b strings.Builder

	if r.IsFallback() {
		note := "Fallback summary (no model output)"
		if r.Debug.Reason != "" {
			note += ": " + r.Debug.Reason
		}
		b.WriteString(styles.Fallback.Render(note))
		b.WriteString("\n\n")
	}

	fmt.Fprintf(&b, "%s %s\n", styles.Title.Render("Patient"), r.PatientID)
	fmt.Fprintf(&b, "%s %d of %d\n\n", styles.Label.Render("Documents ingested:"), r.IngestedDocs, r.SourceCount)
	b.WriteString(r.Summary)
	b.WriteString("\n")

	if len(r.Timeline) > 0 {
		b.WriteString("\n" + styles.Title.Render("Timeline") + "\n")
		for _, e := range r.Timeline {
			date := "undated"
			if e.Date != nil {
				date = *e.Date
			}
			fmt.Fprintf(&b, "  %-10s  %s", date, e.Title)
			if e.Details != "" {
				fmt.Fprintf(&b, ": %s", e.Details)
			}
			b.WriteString("\n")
		}
	}

	writeList(&b, "Key findings", r.KeyFindings)
	writeList(&b, "Medications", r.MedicationsMentioned)
	writeList(&b, "Follow-ups", r.FollowupsOrActions)

	ms := r.MentalState
	fmt.Fprintf(&b, "\n%s %s (confidence %.2f)\n  %s",
		styles.Title.Render("Mental state"),
		styles.MentalState(ms.Color).Render(ms.Color),
		ms.Confidence,
		ms.Explanation,
	)
	return b.String()
}

func writeList(b *strings.Builder, title string, items []string) {
	if len(items) == 0 {
		return
	}
	b.WriteString("\n" + styles.Title.Render(title) + "\n")
	for _, item := range items {
		fmt.Fprintf(b, "  - %s\n", item)
	}
}
