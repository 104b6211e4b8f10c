// Package respond writes the API's common JSON envelope.
package respond

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// Envelope is the standard API response wrapper used across handlers.
type Envelope struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// JSON writes a success or informational response using the common envelope.
func JSON(w http.ResponseWriter, status int, message string, data any) {
	write(w, status, Envelope{Code: status, Message: message, Data: data})
}

// Error writes an error response with the shared envelope structure.
func Error(w http.ResponseWriter, status int, message string) {
	write(w, status, Envelope{Code: status, Message: message})
}

// Validation writes a 400 response carrying field-keyed validation messages.
func Validation(w http.ResponseWriter, fields map[string]string) {
	write(w, http.StatusBadRequest, Envelope{
		Code:    http.StatusBadRequest,
		Message: "validation failed",
		Data:    map[string]any{"errors": fields},
	})
}

func write(w http.ResponseWriter, status int, payload Envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Error("Failed encoding response payload", "error", err)
	}
}
