package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/ishmeet5ingh/tracking-backend/internal/api/metrics"
	"github.com/ishmeet5ingh/tracking-backend/internal/core/ports"
)

// Context keys set by Auth.
const (
	CtxUserID         = "user_id"
	CtxTokenID        = "token_id"
	CtxTokenExpiresAt = "token_expires_at"
)

// Auth verifies the bearer token and injects its claims into the context.
// Websocket upgrades may pass the token as ?token= instead of a header.
// denylist may be nil; a denylist lookup failure lets the request through.
func Auth(tokens ports.TokenService, denylist ports.TokenDenylist, log zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw, reason := extractToken(c)
			if reason != "" {
				metrics.AuthRejectionsTotal.WithLabelValues(reason).Inc()
				if reason == "missing_header" {
					return echo.NewHTTPError(http.StatusUnauthorized, "missing authorization header")
				}
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization header")
			}

			claims, err := tokens.Verify(raw)
			if err != nil {
				metrics.AuthRejectionsTotal.WithLabelValues("invalid_token").Inc()
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}

			if denylist != nil && claims.TokenID != "" {
				revoked, err := denylist.IsRevoked(c.Request().Context(), claims.TokenID)
				switch {
				case err != nil:
					log.Warn().Err(err).Str("token_id", claims.TokenID).Msg("denylist lookup failed, allowing request")
				case revoked:
					metrics.AuthRejectionsTotal.WithLabelValues("revoked").Inc()
					return echo.NewHTTPError(http.StatusUnauthorized, "token has been revoked")
				}
			}

			c.Set(CtxUserID, claims.UserID)
			c.Set(CtxTokenID, claims.TokenID)
			c.Set(CtxTokenExpiresAt, claims.ExpiresAt)

			return next(c)
		}
	}
}

func extractToken(c echo.Context) (token, reason string) {
	authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
	if authHeader == "" {
		if isUpgrade(c.Request()) {
			if q := c.QueryParam("token"); q != "" {
				return q, ""
			}
		}
		return "", "missing_header"
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", "malformed_header"
	}
	return strings.TrimSpace(parts[1]), ""
}

func isUpgrade(r *http.Request) bool {
	return strings.EqualFold(r.Header.Get("Upgrade"), "websocket")
}
