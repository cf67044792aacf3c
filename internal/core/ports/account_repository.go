package ports

import (
	"context"

	"github.com/byJim/salinas-api/internal/core/domain"
)

// AccountRepository is the account collaborator consumed by the auth core.
// Lookups return domain.ErrAccountNotFound when nothing matches; Create returns
// domain.ErrDuplicateAccount when the email is taken.
type AccountRepository interface {
	FindByEmail(ctx context.Context, email string) (*domain.Account, error)
	FindByID(ctx context.Context, id string) (*domain.Account, error)
	Create(ctx context.Context, account *domain.Account) (*domain.Account, error)
}
