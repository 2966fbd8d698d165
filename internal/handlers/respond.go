package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/healthbridge/medgrant/internal/apperrors"
	"github.com/rs/zerolog/log"
)

type errorResponse struct {
	Error string `json:"error"`
}

// respondMessage emits the error envelope with an explicit message, for
// guard-clause rejections that never reach a service.
func respondMessage(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, errorResponse{Error: message})
}

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		json.NewEncoder(w).Encode(payload)
	}
}

// respondError maps domain errors onto the HTTP taxonomy. The invalid-code
// body is identical for every underlying cause.
func respondError(w http.ResponseWriter, err error) {
	switch {
	case apperrors.IsValidation(err):
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
	case errors.Is(err, apperrors.ErrUnauthenticated):
		respondJSON(w, http.StatusUnauthorized, errorResponse{Error: "invalid credentials"})
	case errors.Is(err, apperrors.ErrForbidden):
		respondJSON(w, http.StatusForbidden, errorResponse{Error: err.Error()})
	case errors.Is(err, apperrors.ErrInvalidOrExpiredCode):
		respondJSON(w, http.StatusNotFound, errorResponse{Error: apperrors.InvalidCodeMessage})
	case errors.Is(err, apperrors.ErrConflict):
		respondJSON(w, http.StatusConflict, errorResponse{Error: "already exists"})
	case errors.Is(err, apperrors.ErrNotFound):
		respondJSON(w, http.StatusNotFound, errorResponse{Error: "not found"})
	case errors.Is(err, apperrors.ErrCodeSpaceExhausted):
		log.Error().Err(err).Msg("Code space exhausted")
		respondJSON(w, http.StatusInternalServerError, errorResponse{Error: "could not allocate an access code"})
	default:
		log.Error().Err(err).Msg("Unhandled service error")
		respondJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal server error"})
	}
}
