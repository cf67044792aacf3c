package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/byJim/salinas-api/internal/core/domain"
	"github.com/byJim/salinas-api/internal/core/ports"
)

// SessionAuthenticator turns an access token into an Identity by verifying the
// token and cross-checking the session it names. It never mutates the session.
type SessionAuthenticator struct {
	codec    ports.TokenCodec
	sessions ports.SessionStore
	accounts ports.AccountRepository
}

var _ ports.Authenticator = (*SessionAuthenticator)(nil)

func NewSessionAuthenticator(codec ports.TokenCodec, sessions ports.SessionStore, accounts ports.AccountRepository) *SessionAuthenticator {
	return &SessionAuthenticator{codec: codec, sessions: sessions, accounts: accounts}
}

// Authenticate returns an error wrapping domain.ErrInvalidToken when the token
// does not verify, or domain.ErrSessionExpired when its session (or the owning
// account) is gone.
func (a *SessionAuthenticator) Authenticate(ctx context.Context, token string) (*domain.Identity, error) {
	payload, err := a.codec.Verify(token)
	if err != nil {
		return nil, err
	}
	if payload.IsRefresh() {
		return nil, fmt.Errorf("refresh token presented: %w", domain.ErrInvalidToken)
	}

	session, err := a.sessions.FindValid(ctx, payload.Subject)
	if err != nil {
		return nil, sessionError("authenticate: find session", err)
	}

	account, err := a.accounts.FindByID(ctx, session.AccountID)
	if err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			return nil, fmt.Errorf("authenticate: owner gone: %w", domain.ErrSessionExpired)
		}
		return nil, fmt.Errorf("authenticate: lookup account: %w", err)
	}

	return domain.NewIdentity(account, session), nil
}
