package domain

import "time"

// Role is the authorization level of an account.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleUser
}

// Account models a registered user. PasswordHash never leaves the account store
// boundary: it is excluded from JSON and stripped before an Identity is built.
type Account struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Public returns a copy of the account with the password hash cleared.
func (a *Account) Public() *Account {
	if a == nil {
		return nil
	}
	clone := *a
	clone.PasswordHash = ""
	return &clone
}

// Identity is the authenticated principal attached to a request by the guard.
type Identity struct {
	AccountID        string    `json:"id"`
	Email            string    `json:"email"`
	FirstName        string    `json:"first_name"`
	LastName         string    `json:"last_name"`
	Role             Role      `json:"role"`
	SessionID        string    `json:"session_id"`
	SessionExpiresAt time.Time `json:"session_expires_at"`
}

// NewIdentity builds the request identity from a session and its owning account.
func NewIdentity(account *Account, session *Session) *Identity {
	return &Identity{
		AccountID:        account.ID,
		Email:            account.Email,
		FirstName:        account.FirstName,
		LastName:         account.LastName,
		Role:             account.Role,
		SessionID:        session.ID,
		SessionExpiresAt: session.ExpiresAt,
	}
}
