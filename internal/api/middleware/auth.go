package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/byJim/salinas-api/internal/api/metrics"
	"github.com/byJim/salinas-api/internal/core/domain"
	"github.com/byJim/salinas-api/internal/core/ports"
)

// Auth resolves the access token (cookie first, then the Authorization
// bearer header) to an identity and injects it into the request. Every
// rejection is a bare 401; the reason only reaches logs and metrics.
func Auth(authn ports.Authenticator, cookieName string, log zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token := extractToken(c, cookieName)
			if token == "" {
				return reject(c, log, "no_token", nil)
			}

			id, err := authn.Authenticate(c.Request().Context(), token)
			switch {
			case err == nil:
			case errors.Is(err, domain.ErrInvalidToken):
				return reject(c, log, "invalid_token", err)
			case errors.Is(err, domain.ErrSessionExpired):
				return reject(c, log, "session_invalid", err)
			default:
				return err
			}

			c.Set(IdentityKey, id)
			c.SetRequest(c.Request().WithContext(WithIdentity(c.Request().Context(), id)))
			return next(c)
		}
	}
}

func extractToken(c echo.Context, cookieName string) string {
	if cookieName != "" {
		if ck, err := c.Cookie(cookieName); err == nil && ck.Value != "" {
			return ck.Value
		}
	}

	parts := strings.SplitN(c.Request().Header.Get(echo.HeaderAuthorization), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func reject(c echo.Context, log zerolog.Logger, reason string, err error) error {
	metrics.GuardRejectionsTotal.WithLabelValues(reason).Inc()
	log.Debug().Err(err).Str("reason", reason).Str("path", c.Path()).Msg("request rejected by guard")
	return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
}
