package api

import (
	"context"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenSource supplies the bearer token for sync calls. Authentication
// itself is an external collaborator; the engine only carries the token.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// StaticTokenSource returns a fixed token, e.g. one injected via config.
type StaticTokenSource struct {
	token string
}

func NewStaticTokenSource(token string) *StaticTokenSource {
	return &StaticTokenSource{token: token}
}

func (s *StaticTokenSource) Token(ctx context.Context) (string, error) {
	return s.token, nil
}

// tokenExpired inspects the exp claim of a JWT without verifying its
// signature, so an obviously stale token surfaces as an auth error before a
// network round trip is spent on it. Opaque (non-JWT) tokens pass through;
// the remote service is the authority either way.
func tokenExpired(token string, now time.Time) bool {
	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return false
	}
	if claims.ExpiresAt == nil {
		return false
	}
	return now.After(claims.ExpiresAt.Time)
}
