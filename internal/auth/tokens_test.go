package auth

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/healthbridge/medgrant/internal/apperrors"
	"github.com/healthbridge/medgrant/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	issuer := NewTokenIssuer("test-secret", time.Hour)
	account := &models.Account{ID: uuid.New(), Role: models.RolePatient}

	token, expiresAt, err := issuer.Issue(account)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, 5*time.Second)

	subject, err := issuer.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, account.ID, subject)
}

func TestParseRejectsWrongSecret(t *testing.T) {
	issuer := NewTokenIssuer("test-secret", time.Hour)
	other := NewTokenIssuer("another-secret", time.Hour)

	token, _, err := issuer.Issue(&models.Account{ID: uuid.New(), Role: models.RoleDoctor})
	require.NoError(t, err)

	_, err = other.Parse(token)
	assert.ErrorIs(t, err, apperrors.ErrUnauthenticated)
}

func TestParseRejectsExpiredToken(t *testing.T) {
	issuer := NewTokenIssuer("test-secret", -time.Minute)

	token, _, err := issuer.Issue(&models.Account{ID: uuid.New(), Role: models.RolePatient})
	require.NoError(t, err)

	_, err = issuer.Parse(token)
	assert.ErrorIs(t, err, apperrors.ErrUnauthenticated)
}

func TestParseRejectsGarbage(t *testing.T) {
	issuer := NewTokenIssuer("test-secret", time.Hour)

	for _, tokenString := range []string{"", "garbage", "a.b.c"} {
		_, err := issuer.Parse(tokenString)
		assert.ErrorIs(t, err, apperrors.ErrUnauthenticated, "token %q", tokenString)
	}
}

func TestPasswordHashRoundTrip(t *testing.T) {
	hash, err := HashPassword("correcthorse")
	require.NoError(t, err)
	assert.NotEqual(t, "correcthorse", hash)

	assert.True(t, CheckPassword(hash, "correcthorse"))
	assert.False(t, CheckPassword(hash, "Correcthorse"))
	assert.False(t, CheckPassword("", "correcthorse"))
}
