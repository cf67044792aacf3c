package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/byJim/salinas-api/internal/api/middleware"
	"github.com/byJim/salinas-api/internal/core/domain"
)

// ctxIdentity returns the identity injected by the Auth middleware. A missing
// identity means the route was mounted without the guard.
func ctxIdentity(c echo.Context) (*domain.Identity, error) {
	id, ok := middleware.Identity(c)
	if !ok || id.AccountID == "" {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	return id, nil
}

// bindAndValidate binds the JSON body into req and runs the struct tags
// through the registered validator. Both failures are 400s.
func bindAndValidate(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return nil
}
