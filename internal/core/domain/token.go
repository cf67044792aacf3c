package domain

import "time"

// TokenPayload is the content of a signed token. Access tokens carry a role,
// refresh tokens never do.
type TokenPayload struct {
	Subject   string
	Role      Role
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// IsRefresh reports whether the payload has the refresh shape.
func (p *TokenPayload) IsRefresh() bool {
	return p.Role == ""
}

// TokenPair is what a successful sign-in, registration or rotation returns.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}
