// @title        Salinas Auth API
// @version      1.0
// @description  Session-backed JWT authentication service.
// @BasePath     /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/byJim/salinas-api/internal/api"
	"github.com/byJim/salinas-api/internal/api/handler"
	"github.com/byJim/salinas-api/internal/core/service"
	"github.com/byJim/salinas-api/internal/infrastructure/keys"
	"github.com/byJim/salinas-api/internal/infrastructure/password"
	"github.com/byJim/salinas-api/internal/infrastructure/token"
	"github.com/byJim/salinas-api/internal/pkg/config"
	"github.com/byJim/salinas-api/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  !cfg.IsProduction(),
		Service: "salinas-api",
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Bad key material is fatal at startup.
	pair, err := keys.Load(cfg.Auth.PrivateKey, cfg.Auth.PublicKey)
	if err != nil {
		log.Fatal().Err(err).Msg("load jwt keys")
	}
	codec, err := token.NewCodec(pair)
	if err != nil {
		log.Fatal().Err(err).Msg("token codec")
	}
	log.Info().Str("alg", codec.Algorithm()).Msg("jwt keys loaded")

	st, err := openStores(ctx, cfg, logger.Component("store"))
	if err != nil {
		log.Fatal().Err(err).Msg("open stores")
	}
	defer st.close()

	authService := service.NewAuthService(
		st.accounts,
		st.sessions,
		codec,
		password.NewBcryptHasher(cfg.Auth.BcryptCost),
		service.TokenTTLs{Access: cfg.Auth.AccessTTL, Refresh: cfg.Auth.RefreshTTL},
		logger.Component("auth"),
	)

	e := api.NewRouter(api.Dependencies{
		AuthService:   authService,
		Authenticator: service.NewSessionAuthenticator(codec, st.sessions, st.accounts),
		Cookies: handler.CookieConfig{
			AccessName:  cfg.Auth.AccessCookieName,
			RefreshName: cfg.Auth.RefreshCookieName,
			AccessTTL:   cfg.Auth.AccessTTL,
			RefreshTTL:  cfg.Auth.RefreshTTL,
			Secure:      cfg.IsProduction(),
		},
		Readiness: st.readiness,
		RateLimit: cfg.Auth.RateLimit,
		RateBurst: cfg.Auth.RateBurst,
		Log:       logger.Component("http"),
	})

	go func() {
		addr := ":" + cfg.Port
		log.Info().Str("addr", addr).Str("store", cfg.StoreDriver).Str("sessions", cfg.SessionBackend).Msg("http server starting")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("http server")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown")
	}
}
