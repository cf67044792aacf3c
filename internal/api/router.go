package api

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"
	"golang.org/x/time/rate"

	_ "github.com/byJim/salinas-api/docs"
	"github.com/byJim/salinas-api/internal/api/handler"
	"github.com/byJim/salinas-api/internal/api/middleware"
	"github.com/byJim/salinas-api/internal/core/ports"
)

const rateLimiterExpiry = 3 * time.Minute

// Dependencies is everything the router needs from main.
type Dependencies struct {
	AuthService   ports.AuthService
	Authenticator ports.Authenticator
	Cookies       handler.CookieConfig
	Readiness     map[string]handler.PingFunc

	// RateLimit and RateBurst throttle register and login per client IP.
	// A zero RateLimit disables throttling.
	RateLimit float64
	RateBurst int

	Log zerolog.Logger
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(deps Dependencies) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(deps.Log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(requestLogger(deps.Log))

	// --- Dependencies ---
	authHandler := handler.NewAuthHandler(deps.AuthService, deps.Cookies)
	guard := middleware.Auth(deps.Authenticator, deps.Cookies.AccessName, deps.Log)
	throttle := credentialThrottle(deps.RateLimit, deps.RateBurst)

	// --- Auth routes ---
	auth := e.Group("/auth")
	auth.POST("/register", authHandler.Register, throttle...)
	auth.POST("/login", authHandler.Login, throttle...)
	auth.POST("/refresh", authHandler.Refresh)
	auth.GET("/me", authHandler.Me, guard)

	// --- Health probes (no auth required) ---
	e.GET("/health", handler.NewHealthHandler().Liveness)                         // liveness: is the process alive?
	e.GET("/health/ready", handler.NewReadinessHandler(deps.Readiness).Readiness) // readiness: are the stores up?

	// --- Ops ---
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	return e
}

func credentialThrottle(limit float64, burst int) []echo.MiddlewareFunc {
	if limit <= 0 {
		return nil
	}
	store := echomiddleware.NewRateLimiterMemoryStoreWithConfig(echomiddleware.RateLimiterMemoryStoreConfig{
		Rate:      rate.Limit(limit),
		Burst:     burst,
		ExpiresIn: rateLimiterExpiry,
	})
	return []echo.MiddlewareFunc{echomiddleware.RateLimiterWithConfig(echomiddleware.RateLimiterConfig{
		Store: store,
		IdentifierExtractor: func(c echo.Context) (string, error) {
			return c.RealIP(), nil
		},
		ErrorHandler: func(c echo.Context, err error) error {
			return errThrottled()
		},
		DenyHandler: func(c echo.Context, identifier string, err error) error {
			return errThrottled()
		},
	})}
}

func errThrottled() *echo.HTTPError {
	return echo.NewHTTPError(http.StatusTooManyRequests, "too many requests")
}

func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogRemoteIP:  true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			ev := log.Info()
			if v.Error != nil {
				ev = log.Warn().Err(v.Error)
			}
			ev.Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID).
				Str("remote_ip", v.RemoteIP).
				Msg("request")
			return nil
		},
	})
}
