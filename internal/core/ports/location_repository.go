package ports

import (
	"context"

	"github.com/ishmeet5ingh/tracking-backend/internal/core/domain"
)

// LocationRepository owns the lastKnownLocation and isBeingTracked fields.
type LocationRepository interface {
	// SetLocation stores the point and marks the user as tracked.
	SetLocation(ctx context.Context, userID string, coords domain.Coordinates) (*domain.LocationRecord, error)
	StopTracking(ctx context.Context, userID string) error
	// ListTracked returns every tracked user in no particular order.
	ListTracked(ctx context.Context) ([]domain.TrackedUser, error)
}
