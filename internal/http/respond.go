package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/isagiyoichii/financial-tracker/internal/auth"
	"github.com/isagiyoichii/financial-tracker/internal/services"
	"github.com/isagiyoichii/financial-tracker/internal/storage"
)

type errorBody struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Response encoding failed", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorBody{Error: message})
}

// writeServiceError maps service-layer errors to HTTP statuses. Unknown
// errors become a generic 500 so internals never leak to clients.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, services.ErrValidation):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, auth.ErrRequiresRecentLogin):
		writeError(w, http.StatusForbidden, auth.Message(err))
	case errors.Is(err, auth.ErrInvalidCredentials),
		errors.Is(err, auth.ErrSessionExpired):
		writeError(w, http.StatusUnauthorized, auth.Message(err))
	case errors.Is(err, auth.ErrEmailTaken):
		writeError(w, http.StatusConflict, auth.Message(err))
	case errors.Is(err, auth.ErrWeakPassword),
		errors.Is(err, auth.ErrInvalidResetToken):
		writeError(w, http.StatusUnprocessableEntity, auth.Message(err))
	default:
		slog.ErrorContext(r.Context(), "Request failed",
			"error", err, "path", r.URL.Path)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
