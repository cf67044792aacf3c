package mongo

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"github.com/byJim/salinas-api/internal/core/domain"
)

var testNow = time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

func TestAccountRepository(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("create", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse())
		repo := NewAccountRepository(mt.DB)

		got, err := repo.Create(context.Background(), &domain.Account{
			Email: "alice@example.com", PasswordHash: "hash", Role: domain.RoleUser,
			CreatedAt: testNow, UpdatedAt: testNow,
		})
		if err != nil {
			mt.Fatalf("Create: %v", err)
		}
		if got.ID == "" || got.Email != "alice@example.com" {
			mt.Fatalf("unexpected account: %+v", got)
		}
	})

	mt.Run("create duplicate", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{
			Index: 0, Code: 11000, Message: "E11000 duplicate key error",
		}))
		repo := NewAccountRepository(mt.DB)

		_, err := repo.Create(context.Background(), &domain.Account{Email: "alice@example.com"})
		if !errors.Is(err, domain.ErrDuplicateAccount) {
			mt.Fatalf("expected ErrDuplicateAccount, got %v", err)
		}
	})

	mt.Run("find by email", func(mt *mtest.T) {
		ns := mt.DB.Name() + "." + accountsCollection
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, bson.D{
			{Key: "_id", Value: "acc-1"},
			{Key: "email", Value: "bob@example.com"},
			{Key: "password_hash", Value: "hash"},
			{Key: "role", Value: "admin"},
			{Key: "created_at", Value: testNow.Unix()},
		}))
		repo := NewAccountRepository(mt.DB)

		got, err := repo.FindByEmail(context.Background(), "bob@example.com")
		if err != nil {
			mt.Fatalf("FindByEmail: %v", err)
		}
		if got.ID != "acc-1" || got.Role != domain.RoleAdmin || !got.CreatedAt.Equal(testNow) {
			mt.Fatalf("unexpected account: %+v", got)
		}
	})

	mt.Run("find by id missing", func(mt *mtest.T) {
		ns := mt.DB.Name() + "." + accountsCollection
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch))
		repo := NewAccountRepository(mt.DB)

		if _, err := repo.FindByID(context.Background(), "nope"); !errors.Is(err, domain.ErrAccountNotFound) {
			mt.Fatalf("expected ErrAccountNotFound, got %v", err)
		}
	})
}

func TestSessionStore(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	newStore := func(mt *mtest.T) *SessionStore {
		s := NewSessionStore(mt.DB)
		s.now = func() time.Time { return testNow }
		return s
	}

	mt.Run("create", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		sess, err := newStore(mt).Create(context.Background(), "acc-1", time.Hour)
		if err != nil {
			mt.Fatalf("Create: %v", err)
		}
		if sess.ID == "" || !sess.ExpiresAt.Equal(testNow.Add(time.Hour)) {
			mt.Fatalf("unexpected session: %+v", sess)
		}
	})

	mt.Run("create invalid", func(mt *mtest.T) {
		if _, err := newStore(mt).Create(context.Background(), "acc-1", 0); !errors.Is(err, domain.ErrInvalidInput) {
			mt.Fatalf("expected ErrInvalidInput, got %v", err)
		}
	})

	mt.Run("find valid", func(mt *mtest.T) {
		ns := mt.DB.Name() + "." + sessionsCollection
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, bson.D{
			{Key: "_id", Value: "sess-1"},
			{Key: "account_id", Value: "acc-1"},
			{Key: "expires_at", Value: testNow.Add(time.Hour)},
			{Key: "created_at", Value: testNow},
		}))

		sess, err := newStore(mt).FindValid(context.Background(), "sess-1")
		if err != nil {
			mt.Fatalf("FindValid: %v", err)
		}
		if sess.AccountID != "acc-1" || !sess.ExpiresAt.Equal(testNow.Add(time.Hour)) {
			mt.Fatalf("unexpected session: %+v", sess)
		}
	})

	mt.Run("find expired", func(mt *mtest.T) {
		ns := mt.DB.Name() + "." + sessionsCollection
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch))

		if _, err := newStore(mt).FindValid(context.Background(), "sess-1"); !errors.Is(err, domain.ErrSessionNotFound) {
			mt.Fatalf("expected ErrSessionNotFound, got %v", err)
		}
	})

	mt.Run("extend", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "n", Value: 1},
			bson.E{Key: "nModified", Value: 1},
		))

		if err := newStore(mt).Extend(context.Background(), "sess-1", time.Hour); err != nil {
			mt.Fatalf("Extend: %v", err)
		}
	})

	mt.Run("extend expired", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "n", Value: 0},
			bson.E{Key: "nModified", Value: 0},
		))

		if err := newStore(mt).Extend(context.Background(), "sess-1", time.Hour); !errors.Is(err, domain.ErrSessionNotFound) {
			mt.Fatalf("expected ErrSessionNotFound, got %v", err)
		}
	})
}
