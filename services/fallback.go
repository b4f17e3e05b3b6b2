// ABOUTME: Deterministic substitute summaries for when the model cannot be used
// ABOUTME: Every substitute is labelled in debug metadata with the condition that triggered it

package services

import "github.com/clinicflow/patient-journey/backend/models"

// Reasons recorded on fallback results.
const (
	ReasonBackendUnavailable = "backend_unavailable"
	ReasonDemoMode           = "demo_mode"
	ReasonTimeout            = "timeout"
	ReasonModelError         = "model_error"
	ReasonInvalidOutput      = "invalid_output"
)

const fallbackNote = "Fallback summary used (invalid/missing summarization API key, error, or timeout)"

var fallbackReasonNotes = map[string]string{
	ReasonBackendUnavailable: "Fast path: skipped downloads because no valid summarization key is configured",
	ReasonDemoMode:           "Demo fast path: skipped downloads because DEMO_MODE is set",
	ReasonTimeout:            fallbackNote,
	ReasonModelError:         fallbackNote,
	ReasonInvalidOutput:      "Summarization model returned non-JSON or invalid JSON; showing fallback",
}

func ptr(s string) *string { return &s }

// FallbackSummary returns the fixed illustrative summary.
func FallbackSummary(patientID, reason string) *models.SummaryResult {
	note, ok := fallbackReasonNotes[reason]
	if !ok {
		note = fallbackNote
	}
	return &models.SummaryResult{
		PatientID: patientID,
		Summary: "The patient initially presented with fever and cough. Subsequent consultations indicate " +
			"gradual improvement with a shift from empirical antibiotics to supportive care and follow-up monitoring. " +
			"No red-flag deterioration is evident in the available notes.",
		Timeline: []models.TimelineEntry{
			{Date: ptr("2024-01-05"), Title: "Initial Visit", Details: "Complaints of fever and cough; basic labs ordered."},
			{Date: ptr("2024-02-02"), Title: "Follow-up", Details: "Symptoms improved; medication adjusted; advised rest and fluids."},
			{Date: ptr("2024-03-10"), Title: "Latest Visit", Details: "Stable condition; supportive care continued; routine follow-up."},
		},
		KeyFindings:          []string{"Fever and cough at onset", "Gradual symptomatic improvement", "No alarming findings"},
		MedicationsMentioned: []string{"Antibiotics (empirical)", "Paracetamol", "Vitamin supplements"},
		FollowupsOrActions: []string{
			"Ensure medication adherence and hydration",
			"Re-check if fever persists or worsens",
			"Routine follow-up to confirm full recovery",
		},
		MentalState: models.MentalState{
			Color:       models.MentalStateGreen,
			Explanation: "Notes imply stable progress and no documented mental distress.",
			Confidence:  0.8,
		},
		Debug: &models.SummaryDebug{
			Source: models.SourceFallback,
			Note:   note,
			Reason: reason,
		},
	}
}

// NoDocumentsSummary is returned when the listing yields no document URLs.
func NoDocumentsSummary(patientID string, listingKeys []string) *models.SummaryResult {
	r := &models.SummaryResult{
		PatientID: patientID,
		Summary:   "No prescription/document URLs found in the records API response. Please verify the patient_id or API scopes.",
		MentalState: models.MentalState{
			Color:       models.MentalStateAmber,
			Explanation: "Insufficient data",
			Confidence:  0.2,
		},
		Debug: &models.SummaryDebug{
			Source:      models.SourceNoDocuments,
			ListingKeys: listingKeys,
		},
	}
	r.EnsureSlices()
	return r
}
