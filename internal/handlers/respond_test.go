package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/healthbridge/medgrant/internal/apperrors"
	"github.com/stretchr/testify/assert"
)

func record(err error) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	respondError(rec, err)
	return rec
}

func TestRespondErrorTaxonomy(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
	}{
		{"validation", apperrors.NewValidation("email", "is invalid"), http.StatusBadRequest},
		{"unauthenticated", apperrors.ErrUnauthenticated, http.StatusUnauthorized},
		{"forbidden", apperrors.ErrForbidden, http.StatusForbidden},
		{"invalid code", apperrors.ErrInvalidOrExpiredCode, http.StatusNotFound},
		{"conflict", apperrors.ErrConflict, http.StatusConflict},
		{"not found", apperrors.ErrNotFound, http.StatusNotFound},
		{"code space exhausted", apperrors.ErrCodeSpaceExhausted, http.StatusInternalServerError},
		{"unknown", errors.New("disk on fire"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := record(tc.err)
			assert.Equal(t, tc.status, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
		})
	}
}

// Every path that ends in an invalid-code rejection must produce the same
// status and the same body, however the sentinel was wrapped on the way up.
func TestInvalidCodeResponsesAreByteIdentical(t *testing.T) {
	causes := []error{
		apperrors.ErrInvalidOrExpiredCode,
		fmt.Errorf("grant lookup: %w", apperrors.ErrInvalidOrExpiredCode),
		fmt.Errorf("bind lost: %w", apperrors.ErrInvalidOrExpiredCode),
	}

	reference := record(causes[0])
	for _, cause := range causes[1:] {
		rec := record(cause)
		assert.Equal(t, reference.Code, rec.Code)
		assert.Equal(t, reference.Body.Bytes(), rec.Body.Bytes())
	}
	assert.Contains(t, reference.Body.String(), apperrors.InvalidCodeMessage)
}

func TestUnknownErrorsNeverLeakDetails(t *testing.T) {
	rec := record(errors.New("pq: connection refused to 10.0.3.7"))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "10.0.3.7")
	assert.Contains(t, rec.Body.String(), "internal server error")
}
