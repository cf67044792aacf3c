package main

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/byJim/salinas-api/internal/api/handler"
	"github.com/byJim/salinas-api/internal/core/ports"
	"github.com/byJim/salinas-api/internal/infrastructure/db/mongo"
	"github.com/byJim/salinas-api/internal/infrastructure/db/postgres"
	"github.com/byJim/salinas-api/internal/infrastructure/db/redis"
	"github.com/byJim/salinas-api/internal/pkg/config"
)

type stores struct {
	accounts  ports.AccountRepository
	sessions  ports.SessionStore
	readiness map[string]handler.PingFunc
	closers   []func()
}

func (s *stores) close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
}

// openStores wires the account repository from STORE_DRIVER and the session
// store from SESSION_BACKEND.
func openStores(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*stores, error) {
	st := &stores{readiness: make(map[string]handler.PingFunc)}

	var dbSessions ports.SessionStore
	switch cfg.StoreDriver {
	case config.DriverPostgres:
		db, err := postgres.Open(ctx, postgres.Config{
			URL:             cfg.Postgres.URL,
			MaxOpenConns:    20,
			MaxIdleConns:    5,
			ConnMaxLifetime: 30 * time.Minute,
		})
		if err != nil {
			return nil, err
		}
		st.closers = append(st.closers, func() { _ = db.Close() })
		st.readiness["postgres"] = db.PingContext
		st.accounts = postgres.NewAccountRepository(db)
		dbSessions = postgres.NewSessionStore(db)

	case config.DriverMongo:
		ms, err := mongo.Connect(ctx, mongo.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
		if err != nil {
			return nil, err
		}
		st.closers = append(st.closers, func() {
			closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = ms.Close(closeCtx)
		})
		st.readiness["mongodb"] = ms.Ping
		st.accounts = mongo.NewAccountRepository(ms.DB)
		dbSessions = mongo.NewSessionStore(ms.DB)

	default:
		st.close()
		return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}

	switch cfg.SessionBackend {
	case config.SessionsRedis:
		rdb, err := redis.Connect(ctx, redis.Config{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		if err != nil {
			st.close()
			return nil, err
		}
		st.closers = append(st.closers, func() { _ = rdb.Close() })
		st.readiness["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
		st.sessions = redis.NewSessionStore(rdb)
	default:
		st.sessions = dbSessions
	}

	log.Info().Str("accounts", cfg.StoreDriver).Str("sessions", cfg.SessionBackend).Msg("stores ready")
	return st, nil
}
