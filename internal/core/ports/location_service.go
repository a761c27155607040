package ports

import (
	"context"

	"github.com/ishmeet5ingh/tracking-backend/internal/core/domain"
)

// LocationSource labels where a location update came from.
type LocationSource string

const (
	SourceREST     LocationSource = "rest"
	SourceRealtime LocationSource = "realtime"
)

// LocationService applies location changes for both REST and realtime clients.
type LocationService interface {
	UpdateLocation(ctx context.Context, userID string, coords domain.Coordinates, source LocationSource) (*domain.LocationRecord, error)
	StopTracking(ctx context.Context, userID string) error
	ListTracked(ctx context.Context) ([]domain.TrackedUser, error)
}
