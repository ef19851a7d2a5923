package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"
)

// Session storage backends.
const (
	BackendFile  = "file"
	BackendRedis = "redis"
	BackendMongo = "mongo"
)

type Config struct {
	ListenAddr string `env:"LISTEN_ADDR, default=127.0.0.1:8080"`
	Env        string `env:"ENV,         default=development"`
	LogLevel   string `env:"LOG_LEVEL,   default=info"`

	OrderRedirectDelay time.Duration `env:"ORDER_REDIRECT_DELAY, default=2s"`

	API     APIConfig
	Session SessionConfig
	Mongo   MongoConfig
	Redis   RedisConfig
	StubAPI StubAPIConfig
}

type APIConfig struct {
	BaseURL   string        `env:"API_BASE_URL,   default=http://localhost:3000/api"`
	Timeout   time.Duration `env:"API_TIMEOUT,    default=10s"`
	RateLimit float64       `env:"API_RATE_LIMIT, default=0"`
}

type SessionConfig struct {
	Backend string `env:"SESSION_BACKEND, default=file"`
	File    string `env:"SESSION_FILE,    default=.storefront/session.json"`
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=storefront"`
}

type RedisConfig struct {
	Addr       string `env:"REDIS_ADDR,        default=localhost:6379"`
	Password   string `env:"REDIS_PASSWORD"`
	DB         int    `env:"REDIS_DB,          default=0"`
	SessionKey string `env:"REDIS_SESSION_KEY, default=storefront:session"`
}

type StubAPIConfig struct {
	Port      string `env:"STUBAPI_PORT,      default=3000"`
	JWTSecret string `env:"JWT_SECRET"`
	SeedFile  string `env:"STUBAPI_SEED_FILE"`
}

// IsDevelopment reports whether pretty logs and other dev conveniences apply.
func (c *Config) IsDevelopment() bool {
	return strings.EqualFold(c.Env, "development")
}

// Validate checks cross-field constraints envconfig cannot express.
func (c *Config) Validate() error {
	var errs []error
	switch c.Session.Backend {
	case BackendFile:
		if c.Session.File == "" {
			errs = append(errs, errors.New("SESSION_FILE is required for the file backend"))
		}
	case BackendRedis, BackendMongo:
	default:
		errs = append(errs, fmt.Errorf("SESSION_BACKEND %q is not one of file, redis, mongo", c.Session.Backend))
	}
	if c.API.BaseURL == "" {
		errs = append(errs, errors.New("API_BASE_URL is required"))
	}
	if c.API.RateLimit < 0 {
		errs = append(errs, errors.New("API_RATE_LIMIT must not be negative"))
	}
	if c.OrderRedirectDelay < 0 {
		errs = append(errs, errors.New("ORDER_REDIRECT_DELAY must not be negative"))
	}
	return errors.Join(errs...)
}

// Load reads an optional .env file, then the process environment.
// Variables already set in the environment win over .env entries.
func Load(ctx context.Context, envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("config: load %s: %w", f, err)
		}
	}
	return process(ctx, envconfig.OsLookuper())
}

// LoadFrom reads configuration from the given map only.
func LoadFrom(ctx context.Context, env map[string]string) (*Config, error) {
	return process(ctx, envconfig.MapLookuper(env))
}

func process(ctx context.Context, lookuper envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: lookuper}); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return &cfg, nil
}
