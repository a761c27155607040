package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/ishmeet5ingh/tracking-backend/internal/core/domain"
)

// errorResponse is the body of every API error.
type errorResponse struct {
	Error string `json:"error"`
}

// errorMapping binds a domain sentinel to its HTTP rendering. An empty
// message means the wrapped error text is shown as is.
type errorMapping struct {
	target  error
	code    int
	message string
}

// First match wins.
var errorMappings = []errorMapping{
	{domain.ErrValidation, http.StatusBadRequest, ""},
	{domain.ErrDuplicateIdentity, http.StatusBadRequest, domain.ErrDuplicateIdentity.Error()},
	{domain.ErrInvalidCredentials, http.StatusUnauthorized, domain.ErrInvalidCredentials.Error()},
	{domain.ErrInvalidToken, http.StatusUnauthorized, "unauthorized"},
	{domain.ErrUnauthorized, http.StatusUnauthorized, "unauthorized"},
	{domain.ErrUserNotFound, http.StatusNotFound, domain.ErrUserNotFound.Error()},
}

// NewHTTPErrorHandler renders handler errors as {"error": "..."}. Errors with
// no mapping become a 500 whose cause is logged but never returned.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code, msg := resolveError(err)
		if code == http.StatusInternalServerError {
			log.Error().
				Err(err).
				Str("method", c.Request().Method).
				Str("path", c.Path()).
				Str("request_id", c.Response().Header().Get(echo.HeaderXRequestID)).
				Msg("unhandled error")
		}

		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(code)
			return
		}
		_ = c.JSON(code, errorResponse{Error: msg})
	}
}

func resolveError(err error) (int, string) {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code, fmt.Sprintf("%v", he.Message)
	}

	for _, m := range errorMappings {
		if errors.Is(err, m.target) {
			if m.message == "" {
				return m.code, err.Error()
			}
			return m.code, m.message
		}
	}
	return http.StatusInternalServerError, "internal server error"
}
