package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/tendant/krishi-auth/internal/httputil"
	"github.com/tendant/krishi-auth/pkg/auth"
	"github.com/tendant/krishi-auth/pkg/domain"
)

type contextKey string

// AccountKey is the context key for the authenticated account.
const AccountKey contextKey = "account"

// Messages returned by RequireSession.
const (
	msgNoToken         = "Access denied. No token provided."
	msgInvalidToken    = "Invalid token."
	msgAccountNotFound = "Invalid token. User not found."
)

// SessionResolver turns a session token into an account.
type SessionResolver interface {
	Resolve(ctx context.Context, token string) auth.SessionResult
}

// TokenFromRequest returns the session token presented with r.
// Checks Authorization header first, then falls back to cookie for web clients.
func TokenFromRequest(r *http.Request) string {
	// Try Authorization header first (mobile clients and API calls)
	if authHeader := r.Header.Get("Authorization"); authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			if token := strings.TrimSpace(parts[1]); token != "" {
				return token
			}
		}
	}

	// Fall back to cookie (web clients)
	if token, ok := httputil.GetSessionTokenFromCookie(r); ok {
		return token
	}
	return ""
}

// RequireSession rejects requests without a valid session with 401.
func RequireSession(sessions SessionResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			result := sessions.Resolve(r.Context(), TokenFromRequest(r))

			switch result.Status {
			case auth.SessionValid:
				next.ServeHTTP(w, r.WithContext(WithAccount(r.Context(), result.Account)))
			case auth.SessionMissing:
				httputil.Error(w, http.StatusUnauthorized, msgNoToken)
			case auth.SessionAccountMissing:
				httputil.Error(w, http.StatusUnauthorized, msgAccountNotFound)
			default:
				httputil.Error(w, http.StatusUnauthorized, msgInvalidToken)
			}
		})
	}
}

// OptionalSession attaches the account when a valid session is presented and
// otherwise passes the request through untouched.
func OptionalSession(sessions SessionResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if result := sessions.Resolve(r.Context(), TokenFromRequest(r)); result.Valid() {
				r = r.WithContext(WithAccount(r.Context(), result.Account))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// WithAccount returns a copy of ctx carrying account.
func WithAccount(ctx context.Context, account *domain.Account) context.Context {
	return context.WithValue(ctx, AccountKey, account)
}

// AccountFrom extracts the authenticated account from the request context.
func AccountFrom(ctx context.Context) (*domain.Account, bool) {
	account, ok := ctx.Value(AccountKey).(*domain.Account)
	return account, ok && account != nil
}
