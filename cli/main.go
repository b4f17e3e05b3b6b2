// ABOUTME: Entry point for the journey CLI
// ABOUTME: Operator tool for checking the backend and fetching patient summaries

package main

import (
	"fmt"
	"os"

	"github.com/clinicflow/patient-journey/cli/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
