package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/byJim/salinas-api/internal/core/domain"
	"github.com/byJim/salinas-api/internal/core/ports"
	"github.com/byJim/salinas-api/internal/infrastructure/ids"
)

const accountColumns = `id, email, first_name, last_name, password_hash, role, created_at, updated_at`

type AccountRepository struct {
	db *sql.DB
}

var _ ports.AccountRepository = (*AccountRepository)(nil)

func NewAccountRepository(db *sql.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

// Create inserts the account under a fresh UUID. A unique violation on email
// comes back as domain.ErrDuplicateAccount.
func (r *AccountRepository) Create(ctx context.Context, account *domain.Account) (*domain.Account, error) {
	if r.db == nil {
		return nil, errNoDB
	}

	row := r.db.QueryRowContext(ctx, `
		insert into accounts (id, email, first_name, last_name, password_hash, role, created_at, updated_at)
		values ($1, $2, $3, $4, $5, $6, $7, $8)
		returning `+accountColumns,
		ids.NewAccountID(), account.Email, account.FirstName, account.LastName,
		account.PasswordHash, string(account.Role), account.CreatedAt, account.UpdatedAt,
	)
	created, err := scanAccount(row)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, domain.ErrDuplicateAccount
		}
		return nil, fmt.Errorf("insert account: %w", err)
	}
	return created, nil
}

func (r *AccountRepository) FindByEmail(ctx context.Context, email string) (*domain.Account, error) {
	return r.findOne(ctx, `select `+accountColumns+` from accounts where email = $1`, email)
}

func (r *AccountRepository) FindByID(ctx context.Context, id string) (*domain.Account, error) {
	return r.findOne(ctx, `select `+accountColumns+` from accounts where id = $1`, id)
}

func (r *AccountRepository) findOne(ctx context.Context, query string, arg string) (*domain.Account, error) {
	if r.db == nil {
		return nil, errNoDB
	}
	account, err := scanAccount(r.db.QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrAccountNotFound
		}
		return nil, fmt.Errorf("find account: %w", err)
	}
	return account, nil
}

func scanAccount(row *sql.Row) (*domain.Account, error) {
	var (
		a    domain.Account
		role string
	)
	if err := row.Scan(&a.ID, &a.Email, &a.FirstName, &a.LastName, &a.PasswordHash, &role, &a.CreatedAt, &a.UpdatedAt); err != nil {
		return nil, err
	}
	a.Role = domain.Role(role)
	a.CreatedAt = a.CreatedAt.UTC()
	a.UpdatedAt = a.UpdatedAt.UTC()
	return &a, nil
}
