package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"
)

// successBody is the shape of every 2xx JSON response.
type successBody struct {
	Success   bool   `json:"success"`
	Data      any    `json:"data"`
	Message   string `json:"message,omitempty"`
	Timestamp string `json:"timestamp"`
}

// errorBody is the shape of every error response.
type errorBody struct {
	Success   bool        `json:"success"`
	Error     errorDetail `json:"error"`
	Timestamp string      `json:"timestamp"`
	Path      string      `json:"path"`
}

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

func timestamp() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to write JSON response", "error", err)
	}
}

// writeData wraps data in the success envelope.
func writeData(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, successBody{Success: true, Data: data, Timestamp: timestamp()})
}

// writeMessage wraps data in the success envelope with a human readable message.
func writeMessage(w http.ResponseWriter, status int, data any, msg string) {
	writeJSON(w, status, successBody{Success: true, Data: data, Message: msg, Timestamp: timestamp()})
}
