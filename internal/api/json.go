package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode failed", slog.String("error", err.Error()))
	}
}

// failBody mirrors the backend envelope so browser code handles gateway
// errors and backend errors identically.
type failBody struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func errorBody(msg string) failBody {
	return failBody{Success: false, Message: msg}
}

type okBody struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

func successBody(msg string, data any) okBody {
	return okBody{Success: true, Message: msg, Data: data}
}
