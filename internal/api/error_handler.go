package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/byJim/salinas-api/internal/core/domain"
)

// errorResponse is the body of every error reply: {"error": "<message>"}.
type errorResponse struct {
	Error string `json:"error"`
}

type errorMapping struct {
	target  error
	status  int
	message string
}

// Order matters only for errors that wrap more than one sentinel.
var domainErrors = []errorMapping{
	{domain.ErrInvalidCredentials, http.StatusUnauthorized, "invalid credentials"},
	{domain.ErrDuplicateAccount, http.StatusConflict, "account already exists"},
	{domain.ErrInvalidToken, http.StatusUnauthorized, "unauthorized"},
	{domain.ErrSessionExpired, http.StatusUnauthorized, "unauthorized"},
	{domain.ErrUnauthorized, http.StatusUnauthorized, "unauthorized"},
	{domain.ErrInvalidInput, http.StatusBadRequest, "invalid input"},
}

// NewHTTPErrorHandler renders handler errors. Domain sentinels map through
// domainErrors, echo.HTTPError keeps its own code, and anything else is
// logged and reported as a bare 500.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status, msg := statusFor(err)
		if status == http.StatusInternalServerError {
			log.Error().
				Err(err).
				Str("method", c.Request().Method).
				Str("path", c.Path()).
				Msg("unhandled error")
		} else if status == http.StatusUnauthorized {
			log.Debug().Err(err).Str("path", c.Path()).Msg("request unauthorized")
		}

		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(status)
			return
		}
		_ = c.JSON(status, errorResponse{Error: msg})
	}
}

func statusFor(err error) (int, string) {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code, fmt.Sprintf("%v", he.Message)
	}
	for _, m := range domainErrors {
		if errors.Is(err, m.target) {
			return m.status, m.message
		}
	}
	return http.StatusInternalServerError, "internal server error"
}
