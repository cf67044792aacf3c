package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/byJim/salinas-api/internal/core/domain"
	"github.com/byJim/salinas-api/internal/core/ports"
	"github.com/byJim/salinas-api/internal/infrastructure/ids"
)

const sessionsCollection = "sessions"

// SessionStore keeps one document per session. Expired documents are filtered
// out on read and reaped by the TTL index on expires_at.
type SessionStore struct {
	coll *mongo.Collection
	now  func() time.Time
}

var _ ports.SessionStore = (*SessionStore)(nil)

func NewSessionStore(db *mongo.Database) *SessionStore {
	return &SessionStore{coll: db.Collection(sessionsCollection), now: time.Now}
}

type sessionDoc struct {
	ID        string    `bson:"_id"`
	AccountID string    `bson:"account_id"`
	ExpiresAt time.Time `bson:"expires_at"`
	CreatedAt time.Time `bson:"created_at"`
}

func (s *SessionStore) Create(ctx context.Context, accountID string, ttl time.Duration) (*domain.Session, error) {
	if accountID == "" || ttl <= 0 {
		return nil, domain.ErrInvalidInput
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	now := s.now().UTC()
	doc := sessionDoc{
		ID:        ids.NewSessionID(now),
		AccountID: accountID,
		ExpiresAt: now.Add(ttl),
		CreatedAt: now,
	}
	if _, err := s.coll.InsertOne(ctx, doc); err != nil {
		return nil, fmt.Errorf("insert session: %w", err)
	}
	return &domain.Session{ID: doc.ID, AccountID: doc.AccountID, ExpiresAt: doc.ExpiresAt, CreatedAt: doc.CreatedAt}, nil
}

func (s *SessionStore) FindValid(ctx context.Context, id string) (*domain.Session, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := bson.M{"_id": id, "expires_at": bson.M{"$gt": s.now().UTC()}}

	var doc sessionDoc
	if err := s.coll.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrSessionNotFound
		}
		return nil, fmt.Errorf("find session: %w", err)
	}
	return &domain.Session{
		ID:        doc.ID,
		AccountID: doc.AccountID,
		ExpiresAt: doc.ExpiresAt.UTC(),
		CreatedAt: doc.CreatedAt.UTC(),
	}, nil
}

func (s *SessionStore) Extend(ctx context.Context, id string, ttl time.Duration) error {
	if ttl <= 0 {
		return domain.ErrInvalidInput
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	now := s.now().UTC()
	res, err := s.coll.UpdateOne(ctx,
		bson.M{"_id": id, "expires_at": bson.M{"$gt": now}},
		bson.M{"$set": bson.M{"expires_at": now.Add(ttl)}},
	)
	if err != nil {
		return fmt.Errorf("extend session: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrSessionNotFound
	}
	return nil
}
