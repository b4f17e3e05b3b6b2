// ABOUTME: Validation and decoding of model output into a SummaryResult
// ABOUTME: Uses a JSON Schema so malformed answers are rejected before decoding

package services

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/kaptinlin/jsonschema"
	"github.com/tiktoken-go/tokenizer"

	"github.com/clinicflow/patient-journey/backend/models"
)

const summarySchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["summary", "mental_state"],
  "properties": {
    "patient_id": {"type": ["string", "null"]},
    "summary": {"type": "string"},
    "timeline": {
      "type": "array",
      "items": {
        "type": "object",
        "properties": {
          "date": {"type": ["string", "null"]},
          "title": {"type": ["string", "null"]},
          "details": {"type": ["string", "null"]}
        }
      }
    },
    "key_findings": {"type": "array", "items": {"type": "string"}},
    "medications_mentioned": {"type": "array", "items": {"type": "string"}},
    "followups_or_actions": {"type": "array", "items": {"type": "string"}},
    "mental_state": {
      "type": "object",
      "required": ["color", "confidence"],
      "properties": {
        "color": {"enum": ["Green", "Amber", "Red"]},
        "explanation": {"type": ["string", "null"]},
        "confidence": {"type": "number", "minimum": 0, "maximum": 1}
      }
    }
  }
}`

var (
	schemaOnce     sync.Once
	compiledSchema *jsonschema.Schema
	schemaErr      error

	codecOnce sync.Once
	codec     tokenizer.Codec
)

func loadSummarySchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		compiledSchema, schemaErr = compiler.Compile([]byte(summarySchema))
	})
	return compiledSchema, schemaErr
}

// ParseModelOutput validates and decodes the model's answer. A surrounding
// Markdown code fence is tolerated.
func ParseModelOutput(text, patientID string) (*models.SummaryResult, error) {
	data := []byte(stripCodeFence(text))
	if !json.Valid(data) {
		return nil, fmt.Errorf("model output is not JSON")
	}

	schema, err := loadSummarySchema()
	if err != nil {
		return nil, fmt.Errorf("compile summary schema: %w", err)
	}
	if result := schema.ValidateJSON(data); !result.IsValid() {
		return nil, fmt.Errorf("model output failed schema validation: %v", result.Errors)
	}

	var out models.SummaryResult
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("decode model output: %w", err)
	}
	if out.PatientID == "" {
		out.PatientID = patientID
	}
	out.EnsureSlices()
	return &out, nil
}

func stripCodeFence(text string) string {
	t := strings.TrimSpace(text)
	if !strings.HasPrefix(t, "```") {
		return t
	}
	t = strings.TrimPrefix(t, "```")
	if nl := strings.IndexByte(t, '\n'); nl >= 0 {
		t = t[nl+1:]
	}
	t = strings.TrimSuffix(strings.TrimSpace(t), "```")
	return strings.TrimSpace(t)
}

// countPromptTokens estimates prompt size with the cl100k encoding. Returns 0
// when the encoding is unavailable.
func countPromptTokens(prompt string) int {
	codecOnce.Do(func() {
		c, err := tokenizer.Get(tokenizer.Cl100kBase)
		if err == nil {
			codec = c
		}
	})
	if codec == nil {
		return 0
	}
	ids, _, err := codec.Encode(prompt)
	if err != nil {
		return 0
	}
	return len(ids)
}
