package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/healthbridge/medgrant/internal/apperrors"
	"github.com/healthbridge/medgrant/internal/auth"
	"github.com/healthbridge/medgrant/internal/models"
	"github.com/healthbridge/medgrant/internal/repository"
	"github.com/rs/zerolog/log"
)

type contextKey string

const CallerKey contextKey = "caller"

// AuthGate authenticates bearer tokens and enforces role-gated access. The
// role hint inside a token is never trusted: the durable role is re-read from
// the account store on every request.
type AuthGate struct {
	tokens   *auth.TokenIssuer
	accounts repository.AccountStore
}

// NewAuthGate creates an auth gate over the given token issuer and account
// store.
func NewAuthGate(tokens *auth.TokenIssuer, accounts repository.AccountStore) *AuthGate {
	return &AuthGate{tokens: tokens, accounts: accounts}
}

// Authenticate extracts and verifies the bearer credential, resolves the
// caller's durable role from storage and attaches a CallerIdentity to the
// request context. Missing or invalid credentials get 401.
func (g *AuthGate) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if header == "" || !strings.HasPrefix(header, "Bearer ") {
			writeError(w, http.StatusUnauthorized, "authorization required")
			return
		}

		accountID, err := g.tokens.Parse(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			writeError(w, http.StatusUnauthorized, "invalid or expired token")
			return
		}

		account, err := g.accounts.GetByID(r.Context(), accountID)
		if err != nil {
			if errors.Is(err, apperrors.ErrNotFound) {
				writeError(w, http.StatusUnauthorized, "invalid or expired token")
				return
			}
			log.Error().Err(err).Msg("Failed to resolve caller account")
			writeError(w, http.StatusInternalServerError, "internal server error")
			return
		}

		// A doctor whose approval was withdrawn keeps a syntactically valid
		// token but loses access here.
		if !account.CanLogin() {
			writeError(w, http.StatusForbidden, "account not approved")
			return
		}

		caller := models.CallerIdentity{ID: account.ID, Role: account.Role, Name: account.Name}
		ctx := context.WithValue(r.Context(), CallerKey, caller)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireRole rejects callers whose durable role differs from required.
// Distinct from authentication failure: the caller is known, 403 not 401.
func (g *AuthGate) RequireRole(required models.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			caller, ok := GetCaller(r.Context())
			if !ok {
				writeError(w, http.StatusUnauthorized, "authorization required")
				return
			}

			if caller.Role != required {
				log.Warn().
					Str("caller_id", caller.ID.String()).
					Str("role", string(caller.Role)).
					Str("required", string(required)).
					Str("path", r.URL.Path).
					Msg("Role denied")
				writeError(w, http.StatusForbidden, "forbidden")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// GetCaller extracts the authenticated caller from context
func GetCaller(ctx context.Context) (models.CallerIdentity, bool) {
	caller, ok := ctx.Value(CallerKey).(models.CallerIdentity)
	return caller, ok
}

// WithCaller returns a context carrying the given caller. Test helper and
// internal plumbing only.
func WithCaller(ctx context.Context, id uuid.UUID, role models.Role, name string) context.Context {
	return context.WithValue(ctx, CallerKey, models.CallerIdentity{ID: id, Role: role, Name: name})
}
