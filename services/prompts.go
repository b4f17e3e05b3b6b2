// ABOUTME: Prompt text for patient journey summarization
// ABOUTME: Kept apart from the orchestrator so the wording can be tuned on its own

package services

import (
	"fmt"
	"strings"

	"github.com/clinicflow/patient-journey/backend/models"
)

// summaryInstruction is filled with the patient id and the joined document blocks.
const summaryInstruction = `You are a clinical documentation AI assisting doctors at a primary care clinic in India.
You will receive multiple prescription/consultation notes for a single patient (id: %s).
Create a concise but comprehensive "Patient Journey" summary across time with a short timeline
of key events, medications, diagnoses, and follow-ups. Be factual and only use information
present in the provided documents. If dates are missing, infer relative order conservatively
and mention uncertainty.

Return ONLY valid JSON that conforms to this schema (no Markdown, no extra text):

{
  "patient_id": "string",
  "summary": "2-3 short paragraphs summarizing the patient's journey.",
  "timeline": [
    {"date": "YYYY-MM-DD or null if unknown", "title": "Short event title", "details": "1-2 lines"}
  ],
  "key_findings": [
    "bullet finding 1", "bullet finding 2"
  ],
  "medications_mentioned": [
    "Drug name (strength, frequency)"
  ],
  "followups_or_actions": [
    "Non-diagnostic suggestions for clinicians (e.g., reconcile meds, check adherence, consider labs)"
  ],
  "mental_state": {
    "color": "Green|Amber|Red",
    "explanation": "Why you chose this color from the notes",
    "confidence": 0.0
  }
}

Rules:
- "mental_state.color" approximates overall mental/psychological well-being implied by the notes:
  Green = generally stable/positive; Amber = mild/moderate concerns or inconsistent adherence;
  Red = clear distress, significant depressive/anxiety symptoms, suicidality, or severe psychosocial factors.
- If mental health is not discussed, choose "Amber" with low confidence and explain uncertainty.
- Do NOT invent diagnoses. Mark unknown fields as null where appropriate.
- Keep the whole output under ~1200 words.

Documents:
%s`

// BuildSummaryPrompt renders the prompt for one patient.
func BuildSummaryPrompt(patientID string, snippets []models.DocumentSnippet) string {
	blocks := make([]string, 0, len(snippets))
	for _, s := range snippets {
		name := s.Name
		if name == "" {
			name = "document"
		}
		blocks = append(blocks, fmt.Sprintf("### %s\n%s", name, strings.TrimSpace(s.Text)))
	}
	return strings.TrimSpace(fmt.Sprintf(summaryInstruction, patientID, strings.Join(blocks, "\n\n")))
}
