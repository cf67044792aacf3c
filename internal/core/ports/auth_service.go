package ports

import (
	"context"

	"github.com/byJim/salinas-api/internal/core/domain"
)

// RegisterInput carries the credentials and profile fields of a new account.
type RegisterInput struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
}

// AuthResult is returned by Register and SignIn. Account never carries the
// password hash.
type AuthResult struct {
	Account *domain.Account
	Tokens  domain.TokenPair
}

type AuthService interface {
	Register(ctx context.Context, in RegisterInput) (*AuthResult, error)
	SignIn(ctx context.Context, email, password string) (*AuthResult, error)
	IssueTokens(ctx context.Context, accountID string) (domain.TokenPair, error)
	RotateTokens(ctx context.Context, refreshToken string) (domain.TokenPair, error)
}

// Authenticator resolves a raw access token into the identity behind it.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*domain.Identity, error)
}
