package ports

import (
	"context"
	"time"

	"github.com/ishmeet5ingh/tracking-backend/internal/core/domain"
)

// AuthService covers account creation, login and session lifecycle.
type AuthService interface {
	Register(ctx context.Context, username, email, password string) (string, *domain.User, error)
	Login(ctx context.Context, email, password string) (string, *domain.User, error)
	Profile(ctx context.Context, userID string) (*domain.User, error)
	Logout(ctx context.Context, tokenID string, expiresAt time.Time) error
}

// TokenService issues and verifies bearer session tokens without any
// server-side lookup.
type TokenService interface {
	Issue(userID string) (string, error)
	Verify(token string) (*domain.TokenClaims, error)
}

// TokenDenylist records tokens revoked by logout.
type TokenDenylist interface {
	Revoke(ctx context.Context, tokenID string, expiresAt time.Time) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}
