package auth

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/Abdurahmanit/rental-listing-service/internal/listing/domain"
	"github.com/Abdurahmanit/rental-listing-service/internal/platform/logger"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

// Claims is the token payload issued by the auth service.
type Claims struct {
	UserID string `json:"userId"`
	jwt.RegisteredClaims
}

type UserLookup interface {
	Exists(ctx context.Context, userID string) (bool, error)
}

// Gate verifies tokens, resolves them to an existing user and rejects revoked ones.
type Gate struct {
	secret    []byte
	users     UserLookup
	blacklist domain.TokenBlacklist
	logger    *logger.Logger
}

func NewGate(secret string, users UserLookup, blacklist domain.TokenBlacklist, log *logger.Logger) *Gate {
	return &Gate{
		secret:    []byte(secret),
		users:     users,
		blacklist: blacklist,
		logger:    log.Named("auth"),
	}
}

// Authenticate returns the caller's user id.
// Failures are ErrUnauthenticated or ErrTokenRevoked; lookup errors are passed through.
func (g *Gate) Authenticate(ctx context.Context, token string) (string, error) {
	if token == "" {
		return "", fmt.Errorf("%w: token not provided", domain.ErrUnauthenticated)
	}

	claims := &Claims{}
	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return g.secret, nil
	}, jwt.WithValidMethods([]string{"HS256", "HS384", "HS512"}))
	if err != nil {
		g.logger.Debug("Token rejected", zap.Error(err))
		return "", fmt.Errorf("%w: %w", domain.ErrUnauthenticated, err)
	}
	if claims.UserID == "" {
		return "", fmt.Errorf("%w: userId claim missing", domain.ErrUnauthenticated)
	}

	exists, err := g.users.Exists(ctx, claims.UserID)
	if err != nil {
		return "", err
	}
	if !exists {
		g.logger.Info("Token subject does not exist", zap.String("user_id", claims.UserID))
		return "", fmt.Errorf("%w: unknown user", domain.ErrUnauthenticated)
	}

	revoked, err := g.blacklist.IsRevoked(ctx, token)
	if err != nil {
		return "", err
	}
	if revoked {
		return "", domain.ErrTokenRevoked
	}
	return claims.UserID, nil
}

// TokenFromRequest reads the token from the named cookie, falling back to an
// "Authorization: Bearer <token>" header.
func TokenFromRequest(r *http.Request, cookieName string) string {
	if c, err := r.Cookie(cookieName); err == nil && c.Value != "" {
		return c.Value
	}
	parts := strings.Fields(r.Header.Get("Authorization"))
	if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
		return parts[1]
	}
	return ""
}
