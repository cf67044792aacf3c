package ports

import (
	"context"
	"time"

	"github.com/byJim/salinas-api/internal/core/domain"
)

// SessionStore persists session records. Implementations own their concurrency
// control; operations on a single session id are expected to be linearizable.
type SessionStore interface {
	// Create persists a new session for accountID expiring ttl from now.
	Create(ctx context.Context, accountID string, ttl time.Duration) (*domain.Session, error)

	// FindValid returns the session only while now < ExpiresAt. An expired row
	// that is still physically present yields domain.ErrSessionNotFound.
	FindValid(ctx context.Context, sessionID string) (*domain.Session, error)

	// Extend moves the expiry of a valid session to now + ttl.
	Extend(ctx context.Context, sessionID string, ttl time.Duration) error
}
