// Package token signs and verifies the access and refresh tokens.
//
// Tokens are JWTs signed with the private half of an asymmetric pair (RS256 or
// ES256), so any holder of the public key can verify them without being able
// to mint new ones. The payload is sub (session id), role (access tokens only),
// iat and exp.
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/byJim/salinas-api/internal/core/domain"
	"github.com/byJim/salinas-api/internal/core/ports"
	"github.com/byJim/salinas-api/internal/infrastructure/keys"
)

type claims struct {
	Role domain.Role `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// Codec is safe for concurrent use; it holds only the immutable key pair.
type Codec struct {
	pair   *keys.Pair
	method jwt.SigningMethod
	now    func() time.Time
}

var _ ports.TokenCodec = (*Codec)(nil)

// Option configures a Codec.
type Option func(*Codec)

// WithClock overrides the time source used for iat/exp and for validation.
func WithClock(now func() time.Time) Option {
	return func(c *Codec) {
		if now != nil {
			c.now = now
		}
	}
}

func NewCodec(pair *keys.Pair, opts ...Option) (*Codec, error) {
	if pair == nil {
		return nil, keys.ErrInvalidKey
	}

	var method jwt.SigningMethod
	switch pair.Algorithm() {
	case keys.AlgRS256:
		method = jwt.SigningMethodRS256
	case keys.AlgES256:
		method = jwt.SigningMethodES256
	default:
		return nil, keys.ErrUnsupportedKey
	}

	c := &Codec{pair: pair, method: method, now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Algorithm returns the JWS alg this codec signs with and accepts.
func (c *Codec) Algorithm() string {
	return c.method.Alg()
}

// Sign serializes payload and signs it, expiring ttl from now.
func (c *Codec) Sign(payload domain.TokenPayload, ttl time.Duration) (string, error) {
	if payload.Subject == "" {
		return "", errors.New("token: empty subject")
	}
	if ttl <= 0 {
		return "", fmt.Errorf("token: non-positive ttl %s", ttl)
	}

	now := c.now()
	t := jwt.NewWithClaims(c.method, claims{
		Role: payload.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   payload.Subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	})

	signed, err := t.SignedString(c.pair.Private)
	if err != nil {
		return "", fmt.Errorf("token: sign: %w", err)
	}
	return signed, nil
}

// Verify checks signature, algorithm and expiry. A token is expired from the
// exact instant of its exp claim onwards. Every failure wraps
// domain.ErrInvalidToken together with the underlying jwt error.
func (c *Codec) Verify(tokenString string) (*domain.TokenPayload, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &claims{}, func(*jwt.Token) (any, error) {
		return c.pair.Public, nil
	},
		jwt.WithValidMethods([]string{c.method.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrInvalidToken, err)
	}

	cl, ok := parsed.Claims.(*claims)
	if !ok || !parsed.Valid || cl.Subject == "" {
		return nil, fmt.Errorf("%w: missing subject", domain.ErrInvalidToken)
	}

	payload := &domain.TokenPayload{
		Subject:   cl.Subject,
		Role:      cl.Role,
		ExpiresAt: cl.ExpiresAt.Time,
	}
	if cl.IssuedAt != nil {
		payload.IssuedAt = cl.IssuedAt.Time
	}
	return payload, nil
}

// IsExpired reports whether a Verify error was caused by an elapsed exp claim.
func IsExpired(err error) bool {
	return errors.Is(err, jwt.ErrTokenExpired)
}
