// ABOUTME: Patient journey summary and document snippet models
// ABOUTME: JSON shapes returned to the clinician UI and produced by the summarization model

package models

// Mental state colours reported by the model.
const (
	MentalStateGreen = "Green"
	MentalStateAmber = "Amber"
	MentalStateRed   = "Red"
)

// Summary sources recorded in debug metadata.
const (
	SourceModel       = "model"
	SourceFallback    = "fallback"
	SourceNoDocuments = "no_documents"
)

// DocumentSnippet is the text of one discovered document, or an error
// placeholder when it could not be read.
type DocumentSnippet struct {
	Name string `json:"name"`
	Text string `json:"text"`
}

// TimelineEntry is one dated event in the patient journey. Date is nil when
// the documents do not say.
type TimelineEntry struct {
	Date    *string `json:"date"`
	Title   string  `json:"title"`
	Details string  `json:"details"`
}

// MentalState approximates overall psychological well-being implied by the notes.
type MentalState struct {
	Color       string  `json:"color"`
	Explanation string  `json:"explanation"`
	Confidence  float64 `json:"confidence"`
}

// SummaryDebug distinguishes genuine model output from substitutes.
type SummaryDebug struct {
	Source        string   `json:"source"`
	Note          string   `json:"note,omitempty"`
	Reason        string   `json:"reason,omitempty"`
	Provider      string   `json:"provider,omitempty"`
	PromptTokens  int      `json:"prompt_tokens,omitempty"`
	ListingDigest string   `json:"listing_digest,omitempty"`
	ListingKeys   []string `json:"listing_keys,omitempty"`
	Raw           string   `json:"raw,omitempty"`
}

// SummaryResult is the structured patient journey.
type SummaryResult struct {
	PatientID            string          `json:"patient_id"`
	Summary              string          `json:"summary"`
	Timeline             []TimelineEntry `json:"timeline"`
	KeyFindings          []string        `json:"key_findings"`
	MedicationsMentioned []string        `json:"medications_mentioned"`
	FollowupsOrActions   []string        `json:"followups_or_actions"`
	MentalState          MentalState     `json:"mental_state"`

	IngestedDocs int           `json:"_ingested_docs"`
	SourceCount  int           `json:"_source_count"`
	Debug        *SummaryDebug `json:"debug,omitempty"`
}

// IsFallback reports whether the result was substituted for model output.
func (r *SummaryResult) IsFallback() bool {
	return r.Debug != nil && r.Debug.Source == SourceFallback
}

// EnsureSlices replaces nil slices so they encode as [] rather than null.
func (r *SummaryResult) EnsureSlices() {
	if r.Timeline == nil {
		r.Timeline = []TimelineEntry{}
	}
	if r.KeyFindings == nil {
		r.KeyFindings = []string{}
	}
	if r.MedicationsMentioned == nil {
		r.MedicationsMentioned = []string{}
	}
	if r.FollowupsOrActions == nil {
		r.FollowupsOrActions = []string{}
	}
}
