package services

import (
	"strings"
	"testing"

	"github.com/clinicflow/patient-journey/backend/models"
)

func TestParseModelOutput(t *testing.T) {
	result, err := ParseModelOutput(validModelOutput, "ignored")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if result.PatientID != "p-1" {
		t.Errorf("Expected model patient id to win, got %s", result.PatientID)
	}
	if len(result.Timeline) != 1 || *result.Timeline[0].Date != "2024-05-01" {
		t.Errorf("Unexpected timeline: %+v", result.Timeline)
	}
	if result.MentalState.Confidence != 0.6 {
		t.Errorf("Expected confidence 0.6, got %v", result.MentalState.Confidence)
	}
}

func TestParseModelOutput_CodeFence(t *testing.T) {
	text := "```json\n{\"summary\":\"s\",\"mental_state\":{\"color\":\"Green\",\"confidence\":1}}\n```"
	result, err := ParseModelOutput(text, "p-9")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if result.PatientID != "p-9" {
		t.Errorf("Expected patient id filled in, got %q", result.PatientID)
	}
	if result.KeyFindings == nil || result.Timeline == nil {
		t.Error("Expected missing arrays to become empty slices")
	}
}

func TestParseModelOutput_NullDate(t *testing.T) {
	text := `{"summary":"s","timeline":[{"date":null,"title":"t","details":"d"}],"mental_state":{"color":"Red","confidence":0.3}}`
	result, err := ParseModelOutput(text, "p-1")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if result.Timeline[0].Date != nil {
		t.Errorf("Expected nil date, got %v", *result.Timeline[0].Date)
	}
	if result.MentalState.Color != models.MentalStateRed {
		t.Errorf("Expected Red, got %s", result.MentalState.Color)
	}
}

func TestParseModelOutput_Rejects(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"prose", "The patient is doing well."},
		{"missing summary", `{"mental_state":{"color":"Green","confidence":0.5}}`},
		{"missing mental state", `{"summary":"s"}`},
		{"unknown colour", `{"summary":"s","mental_state":{"color":"Blue","confidence":0.5}}`},
		{"confidence above one", `{"summary":"s","mental_state":{"color":"Green","confidence":1.5}}`},
		{"findings not strings", `{"summary":"s","key_findings":[1,2],"mental_state":{"color":"Green","confidence":0.5}}`},
		{"array root", `[]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseModelOutput(tt.text, "p-1"); err == nil {
				t.Errorf("Expected rejection for %s", tt.text)
			}
		})
	}
}

func TestCountPromptTokens(t *testing.T) {
	if n := countPromptTokens("Patient presented with fever and cough."); n <= 0 {
		t.Errorf("Expected positive token count, got %d", n)
	}
	if n := countPromptTokens(""); n != 0 {
		t.Errorf("Expected 0 tokens for empty prompt, got %d", n)
	}
}

func TestBuildSummaryPrompt(t *testing.T) {
	prompt := BuildSummaryPrompt("p-42", []models.DocumentSnippet{
		{Name: "doc_1", Text: "  first note  "},
		{Name: "doc_2", Text: "second note"},
	})
	if !strings.Contains(prompt, "(id: p-42)") {
		t.Error("Expected patient id in prompt")
	}
	if !strings.Contains(prompt, "### doc_1\nfirst note\n\n### doc_2\nsecond note") {
		t.Error("Expected document blocks separated by a blank line")
	}
}

func TestFallbackSummary(t *testing.T) {
	r := FallbackSummary("p-1", ReasonTimeout)
	if !r.IsFallback() || r.Debug.Note != fallbackNote {
		t.Errorf("Unexpected debug: %+v", r.Debug)
	}
	if r.MentalState.Color != models.MentalStateGreen || r.MentalState.Confidence != 0.8 {
		t.Errorf("Unexpected mental state: %+v", r.MentalState)
	}
	if len(r.Timeline) != 3 {
		t.Errorf("Expected 3 timeline entries, got %d", len(r.Timeline))
	}
	if d := FallbackSummary("p-1", ReasonDemoMode); !strings.Contains(d.Debug.Note, "DEMO_MODE") {
		t.Errorf("Expected demo note, got %s", d.Debug.Note)
	}
}
