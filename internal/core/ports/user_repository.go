package ports

import (
	"context"

	"github.com/ishmeet5ingh/tracking-backend/internal/core/domain"
)

// UserRepository persists credentials and enforces username/email uniqueness.
type UserRepository interface {
	// Create stores a new user. A uniqueness violation on either username or
	// email returns domain.ErrDuplicateIdentity.
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	FindByEmailOrUsername(ctx context.Context, email, username string) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindByID(ctx context.Context, id string) (*domain.User, error)
}
