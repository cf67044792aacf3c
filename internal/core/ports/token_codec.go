package ports

import (
	"time"

	"github.com/byJim/salinas-api/internal/core/domain"
)

// TokenCodec signs and verifies tokens with an asymmetric key pair.
type TokenCodec interface {
	Sign(payload domain.TokenPayload, ttl time.Duration) (string, error)
	// Verify fails with an error wrapping domain.ErrInvalidToken when the token is
	// malformed, signed by another key, or expired.
	Verify(token string) (*domain.TokenPayload, error)
}

// PasswordHasher hashes passwords with a slow salted scheme.
type PasswordHasher interface {
	Hash(password string) (string, error)
	// Compare returns nil when password matches hash.
	Compare(hash, password string) error
}
