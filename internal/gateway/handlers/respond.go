package handlers

import (
	"encoding/json"
	"net/http"
)

// errorResponse is the uniform JSON error body for every rejected or
// failed request.
type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func writeError(w http.ResponseWriter, status int, errName, message string) {
	writeJSON(w, status, errorResponse{Error: errName, Message: message})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
