package config

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

const (
	DriverPostgres = "postgres"
	DriverMongo    = "mongo"

	SessionsDatabase = "database"
	SessionsRedis    = "redis"
)

type Config struct {
	Port     string `env:"PORT,      default=8080"`
	Env      string `env:"ENV,       default=development"`
	LogLevel string `env:"LOG_LEVEL, default=info"`

	StoreDriver    string `env:"STORE_DRIVER,    default=postgres"`
	SessionBackend string `env:"SESSION_BACKEND, default=database"`

	Auth     AuthConfig
	Postgres PostgresConfig
	Mongo    MongoConfig
	Redis    RedisConfig
}

type AuthConfig struct {
	PrivateKey        string        `env:"APP_JWT_PRIVATE_KEY"`
	PublicKey         string        `env:"APP_JWT_PUBLIC_KEY"`
	AccessTTL         time.Duration `env:"ACCESS_TOKEN_TTL,    default=15m"`
	RefreshTTL        time.Duration `env:"REFRESH_TOKEN_TTL,   default=168h"`
	BcryptCost        int           `env:"BCRYPT_COST,         default=10"`
	AccessCookieName  string        `env:"ACCESS_COOKIE_NAME,  default=salinas_access_token"`
	RefreshCookieName string        `env:"REFRESH_COOKIE_NAME, default=salinas_refresh_token"`
	RateLimit         float64       `env:"AUTH_RATE_LIMIT,     default=5"`
	RateBurst         int           `env:"AUTH_RATE_BURST,     default=10"`
}

type PostgresConfig struct {
	URL string `env:"DATABASE_URL, default=postgres://localhost:5432/salinas?sslmode=disable"`
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=salinas"`
}

type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR,     default=localhost:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB,       default=0"`
}

// Load reads configuration from environment variables using go-envconfig.
func Load() (*Config, error) {
	return load(envconfig.OsLookuper())
}

func load(l envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(context.Background(), &envconfig.Config{
		Target:   &cfg,
		Lookuper: l,
	}); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate reports every problem at once. Key material is checked later, when
// the keys are parsed.
func (c *Config) Validate() error {
	var errs []error
	switch c.StoreDriver {
	case DriverPostgres, DriverMongo:
	default:
		errs = append(errs, fmt.Errorf("STORE_DRIVER must be %q or %q, got %q", DriverPostgres, DriverMongo, c.StoreDriver))
	}
	switch c.SessionBackend {
	case SessionsDatabase, SessionsRedis:
	default:
		errs = append(errs, fmt.Errorf("SESSION_BACKEND must be %q or %q, got %q", SessionsDatabase, SessionsRedis, c.SessionBackend))
	}
	if c.Auth.AccessTTL <= 0 {
		errs = append(errs, errors.New("ACCESS_TOKEN_TTL must be positive"))
	}
	if c.Auth.RefreshTTL <= 0 {
		errs = append(errs, errors.New("REFRESH_TOKEN_TTL must be positive"))
	}
	if c.Auth.AccessCookieName == "" || c.Auth.RefreshCookieName == "" {
		errs = append(errs, errors.New("cookie names must not be empty"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("config: %w", errors.Join(errs...))
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}
