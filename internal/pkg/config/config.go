package config

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

const (
	StoreFile  = "file"
	StoreRedis = "redis"

	CredentialsStatic = "static"
	CredentialsMongo  = "mongo"
)

type Config struct {
	Port     string `env:"PORT,      default=8080"`
	Env      string `env:"ENV,       default=development"`
	LogLevel string `env:"LOG_LEVEL, default=info"`

	Session SessionConfig
	Mongo   MongoConfig
	Redis   RedisConfig
}

type SessionConfig struct {
	LoginDelay       time.Duration `env:"LOGIN_DELAY,         default=1s"`
	Store            string        `env:"SESSION_STORE,       default=file"`
	StorageKey       string        `env:"SESSION_STORAGE_KEY, default=user"`
	Dir              string        `env:"SESSION_DIR,         default=.session"`
	CredentialSource string        `env:"CREDENTIAL_SOURCE,   default=static"`
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=health_portal"`
}

type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR, default=localhost:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB,   default=0"`
}

// Development reports whether human-friendly logging should be used.
func (c *Config) Development() bool {
	return c.Env == "development"
}

// Validate rejects unknown backend selections.
func (c *Config) Validate() error {
	switch c.Session.Store {
	case StoreFile, StoreRedis:
	default:
		return fmt.Errorf("config: unknown SESSION_STORE %q", c.Session.Store)
	}
	switch c.Session.CredentialSource {
	case CredentialsStatic, CredentialsMongo:
	default:
		return fmt.Errorf("config: unknown CREDENTIAL_SOURCE %q", c.Session.CredentialSource)
	}
	if c.Session.StorageKey == "" {
		return fmt.Errorf("config: SESSION_STORAGE_KEY must not be empty")
	}
	return nil
}

// Load reads configuration from environment variables using go-envconfig.
func Load() *Config {
	cfg, err := LoadFrom(context.Background(), nil)
	if err != nil {
		panic(fmt.Sprintf("config: failed to load configuration: %v", err))
	}
	return cfg
}

// LoadFrom processes configuration from lookuper, or the OS environment when
// lookuper is nil.
func LoadFrom(ctx context.Context, lookuper envconfig.Lookuper) (*Config, error) {
	if lookuper == nil {
		lookuper = envconfig.OsLookuper()
	}
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: lookuper}); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
