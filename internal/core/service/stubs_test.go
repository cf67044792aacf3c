package service

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/byJim/salinas-api/internal/core/domain"
	"github.com/byJim/salinas-api/internal/core/ports"
	"github.com/byJim/salinas-api/internal/infrastructure/keys"
	"github.com/byJim/salinas-api/internal/infrastructure/password"
	"github.com/byJim/salinas-api/internal/infrastructure/token"
)

// ---------------------------------------------------------------------------
// Stubs
// ---------------------------------------------------------------------------

type recordingHasher struct {
	ports.PasswordHasher
	hashErr  error
	hashes   int
	compared []string
}

func (h *recordingHasher) Hash(pass string) (string, error) {
	h.hashes++
	if h.hashErr != nil {
		return "", h.hashErr
	}
	return h.PasswordHasher.Hash(pass)
}

func (h *recordingHasher) Compare(hash, pass string) error {
	h.compared = append(h.compared, hash)
	return h.PasswordHasher.Compare(hash, pass)
}

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

type stubAccountRepo struct {
	mu        sync.Mutex
	byID      map[string]*domain.Account
	createErr error
	seq       int
}

func newStubAccountRepo() *stubAccountRepo {
	return &stubAccountRepo{byID: make(map[string]*domain.Account)}
}

func cloneAccount(a *domain.Account) *domain.Account {
	if a == nil {
		return nil
	}
	clone := *a
	return &clone
}

func (r *stubAccountRepo) Create(_ context.Context, a *domain.Account) (*domain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return nil, r.createErr
	}
	for _, existing := range r.byID {
		if existing.Email == a.Email {
			return nil, domain.ErrDuplicateAccount
		}
	}
	r.seq++
	copy := cloneAccount(a)
	copy.ID = fmt.Sprintf("acc-%d", r.seq)
	r.byID[copy.ID] = copy
	return cloneAccount(copy), nil
}

func (r *stubAccountRepo) FindByEmail(_ context.Context, email string) (*domain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.byID {
		if a.Email == email {
			return cloneAccount(a), nil
		}
	}
	return nil, domain.ErrAccountNotFound
}

func (r *stubAccountRepo) FindByID(_ context.Context, id string) (*domain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrAccountNotFound
	}
	return cloneAccount(a), nil
}

func (r *stubAccountRepo) countByEmail(email string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, a := range r.byID {
		if a.Email == email {
			n++
		}
	}
	return n
}

func (r *stubAccountRepo) setRole(id string, role domain.Role) {
	r.mu.Lock()
	r.byID[id].Role = role
	r.mu.Unlock()
}

func (r *stubAccountRepo) delete(id string) {
	r.mu.Lock()
	delete(r.byID, id)
	r.mu.Unlock()
}

type stubSessionStore struct {
	mu          sync.Mutex
	clock       *fakeClock
	sessions    map[string]*domain.Session
	seq         int
	extendCalls int
}

func newStubSessionStore(clock *fakeClock) *stubSessionStore {
	return &stubSessionStore{clock: clock, sessions: make(map[string]*domain.Session)}
}

func (s *stubSessionStore) Create(_ context.Context, accountID string, ttl time.Duration) (*domain.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	now := s.clock.Now()
	sess := &domain.Session{
		ID:        fmt.Sprintf("sess-%d", s.seq),
		AccountID: accountID,
		ExpiresAt: now.Add(ttl),
		CreatedAt: now,
	}
	s.sessions[sess.ID] = sess
	clone := *sess
	return &clone, nil
}

func (s *stubSessionStore) FindValid(_ context.Context, id string) (*domain.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok || !sess.ValidAt(s.clock.Now()) {
		return nil, domain.ErrSessionNotFound
	}
	clone := *sess
	return &clone, nil
}

func (s *stubSessionStore) Extend(_ context.Context, id string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.extendCalls++
	sess, ok := s.sessions[id]
	if !ok || !sess.ValidAt(s.clock.Now()) {
		return domain.ErrSessionNotFound
	}
	sess.ExpiresAt = s.clock.Now().Add(ttl)
	return nil
}

func (s *stubSessionStore) get(id string) *domain.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil
	}
	clone := *sess
	return &clone
}

func (s *stubSessionStore) expire(id string) {
	s.mu.Lock()
	s.sessions[id].ExpiresAt = s.clock.Now()
	s.mu.Unlock()
}

// ---------------------------------------------------------------------------
// Fixture
// ---------------------------------------------------------------------------

const (
	testAccessTTL  = 15 * time.Minute
	testRefreshTTL = 24 * time.Hour
)

type fixture struct {
	clock    *fakeClock
	accounts *stubAccountRepo
	sessions *stubSessionStore
	codec    *token.Codec
	svc      *AuthService
	guard    *SessionAuthenticator
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	priv, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	pair, err := keys.NewPair(priv, &priv.PublicKey)
	if err != nil {
		t.Fatalf("key pair: %v", err)
	}

	clock := &fakeClock{t: time.Unix(1_760_000_000, 0).UTC()}
	codec, err := token.NewCodec(pair, token.WithClock(clock.Now))
	if err != nil {
		t.Fatalf("codec: %v", err)
	}

	accounts := newStubAccountRepo()
	sessions := newStubSessionStore(clock)
	svc := NewAuthService(accounts, sessions, codec, password.NewBcryptHasher(bcrypt.MinCost),
		TokenTTLs{Access: testAccessTTL, Refresh: testRefreshTTL}, zerolog.Nop())

	return &fixture{
		clock:    clock,
		accounts: accounts,
		sessions: sessions,
		codec:    codec,
		svc:      svc,
		guard:    NewSessionAuthenticator(codec, sessions, accounts),
	}
}

func (f *fixture) register(t *testing.T, email, pass string) *ports.AuthResult {
	t.Helper()
	res, err := f.svc.Register(context.Background(), ports.RegisterInput{
		Email:     email,
		Password:  pass,
		FirstName: "Test",
		LastName:  "User",
	})
	if err != nil {
		t.Fatalf("register %s: %v", email, err)
	}
	return res
}
