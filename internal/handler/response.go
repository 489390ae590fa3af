package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/templui/tutordesk/internal/service"
)

const maxBodyBytes = 1 << 20

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	err := json.NewEncoder(w).Encode(v)
	if err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// writeStoreError maps goal store errors to status codes.
func writeStoreError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		writeError(w, http.StatusBadRequest, verr.Message)
	case errors.Is(err, service.ErrGoalNotFound):
		writeError(w, http.StatusNotFound, "Goal not found")
	case errors.Is(err, service.ErrGoalCompleted):
		writeError(w, http.StatusConflict, "Goal is already completed")
	case errors.Is(err, service.ErrInvalidTransition):
		writeError(w, http.StatusConflict, "Goal cannot change to that status")
	default:
		slog.Error("goal operation failed", "error", err, "path", r.URL.Path, "goal_id", r.PathValue("id"))
		writeError(w, http.StatusInternalServerError, "Something went wrong")
	}
}

// decodeJSON reads a JSON body, rejecting unknown fields. An empty body leaves v untouched.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()

	err := dec.Decode(v)
	if errors.Is(err, io.EOF) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}
