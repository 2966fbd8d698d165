package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/healthbridge/medgrant/internal/apperrors"
	"github.com/healthbridge/medgrant/internal/models"
)

// TokenIssuer mints and verifies bearer tokens. The role inside a token is a
// hint only; callers must re-resolve the durable role from storage.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenIssuer creates a token issuer with the given signing secret and
// token lifetime.
func NewTokenIssuer(secret string, ttl time.Duration) *TokenIssuer {
	return &TokenIssuer{secret: []byte(secret), ttl: ttl}
}

// Issue creates a signed bearer token for an account.
func (t *TokenIssuer) Issue(account *models.Account) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(t.ttl)

	claims := models.TokenClaims{
		AccountID: account.ID,
		RoleHint:  account.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   account.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(t.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}

	return signed, expiresAt, nil
}

// Parse verifies a bearer token and returns the subject account id. Any
// parse, signature or expiry failure maps to ErrUnauthenticated.
func (t *TokenIssuer) Parse(tokenString string) (uuid.UUID, error) {
	claims := &models.TokenClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return t.secret, nil
	})
	if err != nil || !token.Valid {
		return uuid.Nil, apperrors.ErrUnauthenticated
	}

	if claims.AccountID == uuid.Nil {
		return uuid.Nil, apperrors.ErrUnauthenticated
	}

	return claims.AccountID, nil
}
