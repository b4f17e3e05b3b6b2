// ABOUTME: Input validation functions for API parameters
// ABOUTME: Rejects patient identifiers that could smuggle query syntax or forge log lines

package services

import (
	"fmt"
	"regexp"
	"strings"
)

const maxPatientIDLength = 128

// patientIDPattern admits the identifier shapes the records API issues:
// numeric ids, UUIDs, and prefixed slugs.
var patientIDPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._:@+-]*$`)

// sanitizeForLog removes control characters from strings to prevent log injection
// when including user input in error messages
func sanitizeForLog(s string) string {
	return strings.Map(func(r rune) rune {
		if r < 32 || r == 127 {
			return -1
		}
		return r
	}, s)
}

// ValidatePatientID checks that a patient identifier is safe to forward to
// the records API and to use as a cache key.
func ValidatePatientID(id string) error {
	if id == "" {
		return fmt.Errorf("patient_id is required")
	}
	if len(id) > maxPatientIDLength {
		return fmt.Errorf("patient_id must be at most %d characters", maxPatientIDLength)
	}
	if !patientIDPattern.MatchString(id) {
		return fmt.Errorf("invalid patient_id format: %s", sanitizeForLog(id))
	}
	return nil
}
