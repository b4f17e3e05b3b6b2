// ABOUTME: JSON error response helper for middleware
// ABOUTME: Ensures middleware error responses match the API's JSON error shape

package middleware

import (
	"encoding/json"
	"net/http"
)

type errorBody struct {
	Error      string `json:"error"`
	Details    string `json:"details,omitempty"`
	Code       int    `json:"code"`
	RetryAfter int    `json:"retry_after,omitempty"`
}

// writeJSONError writes an error response as JSON with the given status code.
// Matches the format used by handlers.writeError for consistency.
func writeJSONError(w http.ResponseWriter, body errorBody) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(body.Code)
	json.NewEncoder(w).Encode(body)
}
