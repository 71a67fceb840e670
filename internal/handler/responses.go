// Package handler provides the HTTP surface for Gatekeep.
package handler

import (
	"encoding/json"
	"net/http"
)

// writeJSON writes a JSON response body with the given status.
func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// writeMessage writes a plain-text client error body. Validation and
// conflict responses carry a human-readable message, not JSON.
func writeMessage(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(message))
}

// writeStatus writes a status code with an empty body.
func writeStatus(w http.ResponseWriter, status int) {
	w.WriteHeader(status)
}
