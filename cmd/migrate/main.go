// migrate applies the embedded Postgres schema migrations and, on request,
// deletes expired session rows.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/byJim/salinas-api/internal/infrastructure/db/postgres"
	"github.com/byJim/salinas-api/internal/pkg/config"
	"github.com/byJim/salinas-api/pkg/logger"
)

func main() {
	direction := flag.String("direction", "up", "Migration direction: up or down")
	purge := flag.Bool("purge-expired-sessions", false, "Delete expired session rows instead of migrating")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	log := logger.Init(logger.Options{Level: cfg.LogLevel, Pretty: !cfg.IsProduction(), Service: "salinas-migrate"})

	if cfg.StoreDriver != config.DriverPostgres {
		log.Info().Str("store", cfg.StoreDriver).Msg("no SQL migrations for this store driver")
		return
	}

	if *purge {
		purgeExpiredSessions(cfg.Postgres.URL, log)
		return
	}

	if err := postgres.Migrate(cfg.Postgres.URL, *direction); err != nil {
		if errors.Is(err, postgres.ErrNoChange) {
			log.Info().Str("direction", *direction).Msg("schema already at target version")
			return
		}
		log.Fatal().Err(err).Msg("migrate")
	}
	log.Info().Str("direction", *direction).Msg("migrations applied")
}

func purgeExpiredSessions(dsn string, log zerolog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	db, err := postgres.Open(ctx, postgres.Config{URL: dsn})
	if err != nil {
		log.Fatal().Err(err).Msg("open postgres")
	}
	defer db.Close()

	n, err := postgres.NewSessionStore(db).PurgeExpired(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("purge expired sessions")
	}
	log.Info().Int64("deleted", n).Msg("expired sessions purged")
}
