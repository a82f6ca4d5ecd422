package handlers

import (
	"encoding/json"
	"net/http"

	"rolebot/core/log"
)

// writeJSONResponse writes data as JSON with the given status
func writeJSONResponse(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Error("❌ Failed to encode JSON response: %v", err)
	}
}

// writeErrorResponse writes the {success:false, error} shape used by the operator endpoints
func writeErrorResponse(w http.ResponseWriter, statusCode int, message string) {
	writeJSONResponse(w, statusCode, map[string]any{
		"success": false,
		"error":   message,
	})
}
