package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/Abdurahmanit/rental-listing-service/internal/auth"
	"github.com/Abdurahmanit/rental-listing-service/internal/listing/domain"
	"github.com/Abdurahmanit/rental-listing-service/internal/platform/logger"
	"go.uber.org/zap"
)

// ContextKey is a custom type for context keys to avoid collisions.
type ContextKey string

const (
	// UserIDCtxKey holds the authenticated caller's user id.
	UserIDCtxKey = ContextKey("user_id")

	// TokenPresentCtxKey records whether the request carried any token at all.
	TokenPresentCtxKey = ContextKey("token_present")
)

// Authenticator resolves a raw token to a user id.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (string, error)
}

func UserIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(UserIDCtxKey).(string)
	return id, ok && id != ""
}

func TokenPresent(ctx context.Context) bool {
	present, _ := ctx.Value(TokenPresentCtxKey).(bool)
	return present
}

// RequireAuth rejects requests whose token does not resolve to an existing, non-revoked user.
func RequireAuth(authenticator Authenticator, cookieName string, log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := auth.TokenFromRequest(r, cookieName)
			if token == "" {
				writeError(w, http.StatusUnauthorized, "No token provided")
				return
			}

			userID, err := authenticator.Authenticate(r.Context(), token)
			if err != nil {
				status, msg := authFailure(err)
				if status >= http.StatusInternalServerError {
					log.Error("Authentication lookup failed", zap.String("path", r.URL.Path), zap.Error(err))
				} else {
					log.Debug("Request rejected by auth", zap.String("path", r.URL.Path), zap.Error(err))
				}
				writeError(w, status, msg)
				return
			}

			ctx := context.WithValue(r.Context(), UserIDCtxKey, userID)
			ctx = context.WithValue(ctx, TokenPresentCtxKey, true)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// OptionalToken only notes whether a token was sent. The token is not verified.
func OptionalToken(cookieName string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			present := auth.TokenFromRequest(r, cookieName) != ""
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), TokenPresentCtxKey, present)))
		})
	}
}

func authFailure(err error) (int, string) {
	switch {
	case domain.IsTimeout(err):
		return http.StatusGatewayTimeout, "Request timed out."
	case errors.Is(err, domain.ErrTokenRevoked):
		return http.StatusUnauthorized, "Token is blacklisted"
	case errors.Is(err, domain.ErrUnauthenticated):
		return http.StatusUnauthorized, "Unauthorized"
	default:
		return http.StatusInternalServerError, "Internal server error."
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
