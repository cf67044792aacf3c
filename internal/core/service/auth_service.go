package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/byJim/salinas-api/internal/core/domain"
	"github.com/byJim/salinas-api/internal/core/ports"
)

const (
	defaultAccessTTL  = 15 * time.Minute
	defaultRefreshTTL = 7 * 24 * time.Hour

	dummyPassword = "salinas-timing-equaliser"
	// Well-formed cost-10 bcrypt hash used when the configured hasher cannot
	// produce one at startup.
	fallbackDummyHash = "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"
)

// TokenTTLs groups the lifetimes used at issuance. Refresh also sizes the
// session window.
type TokenTTLs struct {
	Access  time.Duration
	Refresh time.Duration
}

// AuthService implements registration, sign-in, issuance and rotation.
type AuthService struct {
	accounts ports.AccountRepository
	sessions ports.SessionStore
	codec    ports.TokenCodec
	hasher   ports.PasswordHasher
	ttl      TokenTTLs
	log      zerolog.Logger

	dummyHash string
}

var _ ports.AuthService = (*AuthService)(nil)

func NewAuthService(
	accounts ports.AccountRepository,
	sessions ports.SessionStore,
	codec ports.TokenCodec,
	hasher ports.PasswordHasher,
	ttl TokenTTLs,
	log zerolog.Logger,
) *AuthService {
	if ttl.Access <= 0 {
		ttl.Access = defaultAccessTTL
	}
	if ttl.Refresh <= 0 {
		ttl.Refresh = defaultRefreshTTL
	}
	dummyHash, err := hasher.Hash(dummyPassword)
	if err != nil {
		log.Warn().Err(err).Msg("could not prepare timing hash, using fallback")
		dummyHash = fallbackDummyHash
	}
	return &AuthService{
		accounts:  accounts,
		sessions:  sessions,
		codec:     codec,
		hasher:    hasher,
		ttl:       ttl,
		log:       log,
		dummyHash: dummyHash,
	}
}

// Register creates the account and signs it in straight away.
func (s *AuthService) Register(ctx context.Context, in ports.RegisterInput) (*ports.AuthResult, error) {
	email := normalizeEmail(in.Email)
	if email == "" || in.Password == "" {
		return nil, domain.ErrInvalidInput
	}

	_, err := s.accounts.FindByEmail(ctx, email)
	switch {
	case err == nil:
		return nil, domain.ErrDuplicateAccount
	case !errors.Is(err, domain.ErrAccountNotFound):
		return nil, fmt.Errorf("register: lookup account: %w", err)
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("register: hash password: %w", err)
	}

	now := time.Now().UTC()
	created, err := s.accounts.Create(ctx, &domain.Account{
		Email:        email,
		FirstName:    strings.TrimSpace(in.FirstName),
		LastName:     strings.TrimSpace(in.LastName),
		PasswordHash: hash,
		Role:         domain.RoleUser,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		if errors.Is(err, domain.ErrDuplicateAccount) {
			return nil, domain.ErrDuplicateAccount
		}
		return nil, fmt.Errorf("register: create account: %w", err)
	}

	tokens, err := s.issueFor(ctx, created)
	if err != nil {
		return nil, err
	}

	s.log.Info().Str("account_id", created.ID).Msg("account registered")
	return &ports.AuthResult{Account: created.Public(), Tokens: tokens}, nil
}

// SignIn checks the credentials and opens a new session. Unknown email and
// wrong password both yield domain.ErrInvalidCredentials.
func (s *AuthService) SignIn(ctx context.Context, email, password string) (*ports.AuthResult, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, domain.ErrInvalidCredentials
	}

	account, err := s.accounts.FindByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, domain.ErrAccountNotFound) {
			return nil, fmt.Errorf("sign in: lookup account: %w", err)
		}
		// Unknown emails still pay for one comparison.
		_ = s.hasher.Compare(s.dummyHash, password)
		s.log.Debug().Str("reason", "unknown_email").Msg("sign-in rejected")
		return nil, domain.ErrInvalidCredentials
	}

	if err := s.hasher.Compare(account.PasswordHash, password); err != nil {
		s.log.Debug().Str("reason", "password_mismatch").Str("account_id", account.ID).Msg("sign-in rejected")
		return nil, domain.ErrInvalidCredentials
	}

	tokens, err := s.issueFor(ctx, account)
	if err != nil {
		return nil, err
	}
	return &ports.AuthResult{Account: account.Public(), Tokens: tokens}, nil
}

// IssueTokens opens a session for accountID and signs a token pair bound to it.
func (s *AuthService) IssueTokens(ctx context.Context, accountID string) (domain.TokenPair, error) {
	account, err := s.accounts.FindByID(ctx, accountID)
	if err != nil {
		return domain.TokenPair{}, fmt.Errorf("issue tokens: %w", err)
	}
	return s.issueFor(ctx, account)
}

// RotateTokens exchanges a valid refresh token for a new pair bound to the same
// session, and slides the session expiry to a full refresh window. The role is
// re-read from the account so role changes apply on the next refresh.
func (s *AuthService) RotateTokens(ctx context.Context, refreshToken string) (domain.TokenPair, error) {
	payload, err := s.codec.Verify(refreshToken)
	if err != nil {
		return domain.TokenPair{}, fmt.Errorf("rotate tokens: %w", err)
	}
	if !payload.IsRefresh() {
		return domain.TokenPair{}, fmt.Errorf("rotate tokens: access token presented: %w", domain.ErrInvalidToken)
	}

	session, err := s.sessions.FindValid(ctx, payload.Subject)
	if err != nil {
		return domain.TokenPair{}, sessionError("rotate tokens: find session", err)
	}

	account, err := s.accounts.FindByID(ctx, session.AccountID)
	if err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			return domain.TokenPair{}, fmt.Errorf("rotate tokens: owner gone: %w", domain.ErrSessionExpired)
		}
		return domain.TokenPair{}, fmt.Errorf("rotate tokens: lookup account: %w", err)
	}

	if err := s.sessions.Extend(ctx, session.ID, s.ttl.Refresh); err != nil {
		return domain.TokenPair{}, sessionError("rotate tokens: extend session", err)
	}

	tokens, err := s.sign(session.ID, account.Role)
	if err != nil {
		return domain.TokenPair{}, err
	}

	s.log.Info().Str("session_id", session.ID).Str("account_id", account.ID).Msg("tokens rotated")
	return tokens, nil
}

func (s *AuthService) issueFor(ctx context.Context, account *domain.Account) (domain.TokenPair, error) {
	session, err := s.sessions.Create(ctx, account.ID, s.ttl.Refresh)
	if err != nil {
		return domain.TokenPair{}, fmt.Errorf("issue tokens: create session: %w", err)
	}

	tokens, err := s.sign(session.ID, account.Role)
	if err != nil {
		return domain.TokenPair{}, err
	}

	s.log.Info().Str("session_id", session.ID).Str("account_id", account.ID).Msg("session created")
	return tokens, nil
}

func (s *AuthService) sign(sessionID string, role domain.Role) (domain.TokenPair, error) {
	// An access token must always carry a role; it is what tells it apart from a refresh token.
	if !role.Valid() {
		role = domain.RoleUser
	}

	access, err := s.codec.Sign(domain.TokenPayload{Subject: sessionID, Role: role}, s.ttl.Access)
	if err != nil {
		return domain.TokenPair{}, fmt.Errorf("sign access token: %w", err)
	}
	refresh, err := s.codec.Sign(domain.TokenPayload{Subject: sessionID}, s.ttl.Refresh)
	if err != nil {
		return domain.TokenPair{}, fmt.Errorf("sign refresh token: %w", err)
	}
	return domain.TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// sessionError turns a missing session into domain.ErrSessionExpired and keeps
// every other store failure as is.
func sessionError(op string, err error) error {
	if errors.Is(err, domain.ErrSessionNotFound) {
		return fmt.Errorf("%s: %w", op, domain.ErrSessionExpired)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
