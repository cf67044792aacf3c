package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/byJim/salinas-api/internal/core/domain"
	"github.com/byJim/salinas-api/internal/core/ports"
	"github.com/byJim/salinas-api/internal/infrastructure/ids"
)

// SessionStore keeps sessions in the sessions table. Expiry is compared
// against the store clock, never against the database's now().
type SessionStore struct {
	db  *sql.DB
	now func() time.Time
}

var _ ports.SessionStore = (*SessionStore)(nil)

type SessionOption func(*SessionStore)

// WithSessionClock overrides the clock used to stamp and check expiry.
func WithSessionClock(now func() time.Time) SessionOption {
	return func(s *SessionStore) { s.now = now }
}

func NewSessionStore(db *sql.DB, opts ...SessionOption) *SessionStore {
	s := &SessionStore{db: db, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *SessionStore) Create(ctx context.Context, accountID string, ttl time.Duration) (*domain.Session, error) {
	if s.db == nil {
		return nil, errNoDB
	}
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
	if _, err := s.db.ExecContext(ctx, `
		insert into sessions (id, account_id, expires_at, created_at)
		values ($1, $2, $3, $4)
	`, sess.ID, sess.AccountID, sess.ExpiresAt, sess.CreatedAt); err != nil {
		return nil, fmt.Errorf("insert session: %w", err)
	}
	return sess, nil
}

// FindValid returns domain.ErrSessionNotFound for both unknown and expired ids.
func (s *SessionStore) FindValid(ctx context.Context, id string) (*domain.Session, error) {
	if s.db == nil {
		return nil, errNoDB
	}

	var sess domain.Session
	err := s.db.QueryRowContext(ctx, `
		select id, account_id, expires_at, created_at
		from sessions
		where id = $1 and expires_at > $2
	`, id, s.now().UTC()).Scan(&sess.ID, &sess.AccountID, &sess.ExpiresAt, &sess.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrSessionNotFound
		}
		return nil, fmt.Errorf("find session: %w", err)
	}
	sess.ExpiresAt = sess.ExpiresAt.UTC()
	sess.CreatedAt = sess.CreatedAt.UTC()
	return &sess, nil
}

// Extend moves the expiry of a still-valid session to now+ttl.
func (s *SessionStore) Extend(ctx context.Context, id string, ttl time.Duration) error {
	if s.db == nil {
		return errNoDB
	}
	if ttl <= 0 {
		return domain.ErrInvalidInput
	}

	now := s.now().UTC()
	res, err := s.db.ExecContext(ctx, `
		update sessions set expires_at = $2
		where id = $1 and expires_at > $3
	`, id, now.Add(ttl), now)
	if err != nil {
		return fmt.Errorf("extend session: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("extend session: %w", err)
	}
	if n == 0 {
		return domain.ErrSessionNotFound
	}
	return nil
}

// PurgeExpired deletes sessions whose expiry has passed and reports how many
// rows went away.
func (s *SessionStore) PurgeExpired(ctx context.Context) (int64, error) {
	if s.db == nil {
		return 0, errNoDB
	}
	res, err := s.db.ExecContext(ctx, `delete from sessions where expires_at <= $1`, s.now().UTC())
	if err != nil {
		return 0, fmt.Errorf("purge sessions: %w", err)
	}
	return res.RowsAffected()
}
