package http

import (
	"encoding/json"
	"log"
	"net/http"
)

type ErrorResponse struct {
	Message string   `json:"message"`
	Errors  []string `json:"errors,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("failed to encode response: %v", err)
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, ErrorResponse{Message: message})
}

// respondValidationError lists every violated field, not just the first.
func respondValidationError(w http.ResponseWriter, errs []string) {
	respondJSON(w, http.StatusBadRequest, ErrorResponse{
		Message: "invalid request payload",
		Errors:  errs,
	})
}
