package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/ishmeet5ingh/tracking-backend/internal/api/metrics"
	"github.com/ishmeet5ingh/tracking-backend/internal/core/domain"
	"github.com/ishmeet5ingh/tracking-backend/internal/core/ports"
)

type locationService struct {
	repo ports.LocationRepository
	log  zerolog.Logger
}

// NewLocationService returns a LocationService backed by repo.
func NewLocationService(repo ports.LocationRepository, log zerolog.Logger) ports.LocationService {
	return &locationService{repo: repo, log: log}
}

// UpdateLocation persists coords as the user's last known location and marks
// the user as tracked.
func (s *locationService) UpdateLocation(ctx context.Context, userID string, coords domain.Coordinates, source ports.LocationSource) (*domain.LocationRecord, error) {
	if err := coords.Validate(); err != nil {
		return nil, err
	}

	start := time.Now()
	rec, err := s.repo.SetLocation(ctx, userID, coords)
	metrics.LocationUpdateDuration.WithLabelValues(string(source)).Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, fmt.Errorf("update location: %w", err)
	}

	metrics.LocationUpdatesTotal.WithLabelValues(string(source)).Inc()
	s.log.Debug().
		Str("user_id", userID).
		Str("source", string(source)).
		Float64("lat", coords.Latitude).
		Float64("lon", coords.Longitude).
		Msg("location updated")
	return rec, nil
}

// StopTracking clears the tracked flag. The stored point is kept.
func (s *locationService) StopTracking(ctx context.Context, userID string) error {
	if err := s.repo.StopTracking(ctx, userID); err != nil {
		return fmt.Errorf("stop tracking: %w", err)
	}
	s.log.Info().Str("user_id", userID).Msg("user stopped sharing location")
	return nil
}

func (s *locationService) ListTracked(ctx context.Context) ([]domain.TrackedUser, error) {
	users, err := s.repo.ListTracked(ctx)
	if err != nil {
		return nil, fmt.Errorf("list tracked: %w", err)
	}
	if users == nil {
		users = []domain.TrackedUser{}
	}
	return users, nil
}
