package handler

import (
	"fmt"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/ishmeet5ingh/tracking-backend/internal/api/middleware"
	"github.com/ishmeet5ingh/tracking-backend/internal/core/domain"
)

// ctxUserID returns the user id injected by the Auth middleware. An empty
// value means the route was mounted without it.
func ctxUserID(c echo.Context) (string, error) {
	userID, _ := c.Get(middleware.CtxUserID).(string)
	if userID == "" {
		return "", fmt.Errorf("%w: missing authentication claims", domain.ErrUnauthorized)
	}
	return userID, nil
}

func ctxToken(c echo.Context) (tokenID string, expiresAt time.Time) {
	tokenID, _ = c.Get(middleware.CtxTokenID).(string)
	expiresAt, _ = c.Get(middleware.CtxTokenExpiresAt).(time.Time)
	return tokenID, expiresAt
}
