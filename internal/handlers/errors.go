package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/calebmoss/storyweave/pkg/engine"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, logger *slog.Logger, status int, body any) {
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Error("Failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, logger *slog.Logger, status int, message string) {
	writeJSON(w, logger, status, ErrorResponse{Error: message})
}

// writeEngineError maps the engine's failure taxonomy onto HTTP
// statuses. Every failure degrades to a readable message the UI can
// show with a retry option.
func writeEngineError(w http.ResponseWriter, logger *slog.Logger, err error) {
	switch {
	case errors.Is(err, engine.ErrNotFound):
		writeError(w, logger, http.StatusNotFound, err.Error())
	case errors.Is(err, engine.ErrInvalidChoice):
		writeError(w, logger, http.StatusBadRequest, err.Error())
	case errors.Is(err, engine.ErrDanglingReference):
		writeError(w, logger, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, engine.ErrPersistence):
		logger.Error("Persistence failure", "error", err)
		writeError(w, logger, http.StatusServiceUnavailable, "Could not save progress. Please try again.")
	default:
		logger.Error("Unexpected error", "error", err)
		writeError(w, logger, http.StatusInternalServerError, "Something went wrong. Please try again.")
	}
}
