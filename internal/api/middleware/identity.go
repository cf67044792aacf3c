package middleware

import (
	"context"

	"github.com/labstack/echo/v4"

	"github.com/byJim/salinas-api/internal/core/domain"
)

// IdentityKey is the echo.Context key the guard stores the identity under.
const IdentityKey = "identity"

type identityCtxKey struct{}

// WithIdentity attaches id to ctx so code below the HTTP layer can read it.
func WithIdentity(ctx context.Context, id *domain.Identity) context.Context {
	return context.WithValue(ctx, identityCtxKey{}, id)
}

// IdentityFromContext returns the identity set by the guard, if any.
func IdentityFromContext(ctx context.Context) (*domain.Identity, bool) {
	id, ok := ctx.Value(identityCtxKey{}).(*domain.Identity)
	return id, ok && id != nil
}

// Identity reads the identity from the echo context.
func Identity(c echo.Context) (*domain.Identity, bool) {
	id, ok := c.Get(IdentityKey).(*domain.Identity)
	return id, ok && id != nil
}
