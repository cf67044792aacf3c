package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/byJim/salinas-api/internal/core/domain"
	"github.com/byJim/salinas-api/internal/core/ports"
	"github.com/byJim/salinas-api/internal/infrastructure/ids"
)

const keyPrefix = "session:"

// kv is the subset of redis.Cmdable the session store needs.
type kv interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd
	SetXX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd
}

// SessionStore keeps each session as a JSON value under session:<id> whose
// key TTL tracks the session expiry.
// Key format: session:<ulid>
type SessionStore struct {
	client kv
	now    func() time.Time
}

var _ ports.SessionStore = (*SessionStore)(nil)

func NewSessionStore(client *redis.Client) *SessionStore {
	return &SessionStore{client: client, now: time.Now}
}

type sessionValue struct {
	AccountID string    `json:"account_id"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

func (s *SessionStore) Create(ctx context.Context, accountID string, ttl time.Duration) (*domain.Session, error) {
	if accountID == "" || ttl <= 0 {
		return nil, domain.ErrInvalidInput
	}

	now := s.now().UTC()
	sess := &domain.Session{
		ID:        ids.NewSessionID(now),
		AccountID: accountID,
		ExpiresAt: now.Add(ttl),
		CreatedAt: now,
	}
	raw, err := encode(sess)
	if err != nil {
		return nil, err
	}

	ok, err := s.client.SetNX(ctx, s.key(sess.ID), raw, ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("store session: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("store session: id %s already taken", sess.ID)
	}
	return sess, nil
}

// FindValid re-checks the stored expiry against the store clock as well as
// relying on the key TTL.
func (s *SessionStore) FindValid(ctx context.Context, id string) (*domain.Session, error) {
	raw, err := s.client.Get(ctx, s.key(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, domain.ErrSessionNotFound
		}
		return nil, fmt.Errorf("load session: %w", err)
	}

	var v sessionValue
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, fmt.Errorf("decode session %s: %w", id, err)
	}
	sess := &domain.Session{ID: id, AccountID: v.AccountID, ExpiresAt: v.ExpiresAt.UTC(), CreatedAt: v.CreatedAt.UTC()}
	if !sess.ValidAt(s.now()) {
		return nil, domain.ErrSessionNotFound
	}
	return sess, nil
}

func (s *SessionStore) Extend(ctx context.Context, id string, ttl time.Duration) error {
	if ttl <= 0 {
		return domain.ErrInvalidInput
	}

	sess, err := s.FindValid(ctx, id)
	if err != nil {
		return err
	}
	sess.ExpiresAt = s.now().UTC().Add(ttl)

	raw, err := encode(sess)
	if err != nil {
		return err
	}
	ok, err := s.client.SetXX(ctx, s.key(id), raw, ttl).Result()
	if err != nil {
		return fmt.Errorf("extend session: %w", err)
	}
	if !ok {
		return domain.ErrSessionNotFound
	}
	return nil
}

func (s *SessionStore) key(id string) string {
	return keyPrefix + id
}

func encode(sess *domain.Session) ([]byte, error) {
	raw, err := json.Marshal(sessionValue{AccountID: sess.AccountID, ExpiresAt: sess.ExpiresAt, CreatedAt: sess.CreatedAt})
	if err != nil {
		return nil, fmt.Errorf("encode session: %w", err)
	}
	return raw, nil
}
