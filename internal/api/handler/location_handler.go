package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/ishmeet5ingh/tracking-backend/internal/core/domain"
	"github.com/ishmeet5ingh/tracking-backend/internal/core/ports"
)

// LocationHandler serves the REST side of location sharing.
type LocationHandler struct {
	service ports.LocationService
}

func NewLocationHandler(service ports.LocationService) *LocationHandler {
	return &LocationHandler{service: service}
}

// Pointers so that 0 is accepted and an absent field is not.
type updateLocationRequest struct {
	Latitude  *float64 `json:"latitude" validate:"required"`
	Longitude *float64 `json:"longitude" validate:"required"`
}

type updateLocationResponse struct {
	Message           string          `json:"message"`
	LastKnownLocation domain.GeoPoint `json:"lastKnownLocation"`
}

// UpdateLocation stores the caller's position and marks them as tracked.
//
// @Summary      Update my location
// @Tags         location
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      updateLocationRequest  true  "Position"
// @Success      200   {object}  updateLocationResponse
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Router       /api/users/location [post]
func (h *LocationHandler) UpdateLocation(c echo.Context) error {
	userID, err := ctxUserID(c)
	if err != nil {
		return err
	}

	var req updateLocationRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Latitude and longitude are required")
	}

	coords := domain.Coordinates{Latitude: *req.Latitude, Longitude: *req.Longitude}
	rec, err := h.service.UpdateLocation(c.Request().Context(), userID, coords, ports.SourceREST)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, updateLocationResponse{
		Message:           "Location updated",
		LastKnownLocation: rec.LastKnownLocation,
	})
}

// StopTracking stops sharing the caller's position. The last point is kept.
//
// @Summary      Stop sharing my location
// @Tags         location
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  messageResponse
// @Failure      401  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /api/users/stop-tracking [post]
func (h *LocationHandler) StopTracking(c echo.Context) error {
	userID, err := ctxUserID(c)
	if err != nil {
		return err
	}
	if err := h.service.StopTracking(c.Request().Context(), userID); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, messageResponse{Message: "Stopped tracking user"})
}

// ListTracked returns everyone currently sharing their location.
//
// @Summary      Tracked users
// @Tags         location
// @Produce      json
// @Success      200  {array}   domain.TrackedUser
// @Router       /api/users/tracked-users [get]
func (h *LocationHandler) ListTracked(c echo.Context) error {
	users, err := h.service.ListTracked(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, users)
}
