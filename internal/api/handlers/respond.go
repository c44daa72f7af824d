package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/zatekoja/ticketassistant/internal/infrastructure/observability"
	apperrors "github.com/zatekoja/ticketassistant/pkg/errors"
)

func respondWithJSON(w http.ResponseWriter, statusCode int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		observability.GetLogger().Warn().Err(err).Msg("failed to encode response")
	}
}

func respondWithError(w http.ResponseWriter, statusCode int, message string) {
	respondWithJSON(w, statusCode, map[string]string{
		"error": message,
	})
}

// respondWithAppError maps typed errors to their status. Only client-facing
// types expose their message.
func respondWithAppError(w http.ResponseWriter, err error, fallback string) {
	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) {
		respondWithError(w, http.StatusInternalServerError, fallback)
		return
	}
	switch appErr.Type {
	case apperrors.ErrorTypeNotFound, apperrors.ErrorTypeValidation, apperrors.ErrorTypeConflict:
		respondWithError(w, appErr.HTTPStatus(), appErr.Message)
	default:
		respondWithError(w, appErr.HTTPStatus(), fallback)
	}
}
