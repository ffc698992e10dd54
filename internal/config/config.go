// Package config loads server settings from flag defaults, an optional YAML
// file, environment variables and explicitly set flags, in that order of
// increasing precedence.
package config

import (
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/spf13/pflag"
)

// DefaultJWTSecret is the development signing secret. Starting in
// production with it is refused by Validate.
const DefaultJWTSecret = "secret-to-change-in-production"

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
	EnvTest        = "test"
)

// Config holds runtime settings for the API server.
type Config struct {
	Port          string        `koanf:"port"`
	DatabaseURL   string        `koanf:"database_url"`
	JWTSecret     string        `koanf:"jwt_secret"`
	Env           string        `koanf:"env"`
	LogFormat     string        `koanf:"log_format"`
	LogLevel      string        `koanf:"log_level"`
	DBMaxOpen     int           `koanf:"db_max_open"`
	DBMaxIdle     int           `koanf:"db_max_idle"`
	DBMaxLifetime time.Duration `koanf:"db_max_lifetime"`
}

// IsProduction reports whether cookies must be marked Secure.
func (c *Config) IsProduction() bool {
	return c.Env == EnvProduction
}

// envKeys maps environment variables onto config keys.
var envKeys = map[string]string{
	"PORT":            "port",
	"DATABASE_URL":    "database_url",
	"JWT_SECRET":      "jwt_secret",
	"APP_ENV":         "env",
	"LOG_FORMAT":      "log_format",
	"LOG_LEVEL":       "log_level",
	"DB_MAX_OPEN":     "db_max_open",
	"DB_MAX_IDLE":     "db_max_idle",
	"DB_MAX_LIFETIME": "db_max_lifetime",
}

// RegisterFlags declares every setting on fs with its default value.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.String("port", "4000", "HTTP listen port")
	fs.String("database_url", "", "PostgreSQL connection string")
	fs.String("jwt_secret", DefaultJWTSecret, "HMAC secret for session tokens")
	fs.String("env", EnvDevelopment, "environment: development, test or production")
	fs.String("log_format", "json", "log format: json or text")
	fs.String("log_level", "info", "log level: debug, info, warn or error")
	fs.Int("db_max_open", 25, "maximum open database connections")
	fs.Int("db_max_idle", 25, "maximum idle database connections")
	fs.Duration("db_max_lifetime", 5*time.Minute, "maximum database connection lifetime")
}

// Load builds a Config. configFile may be empty; lookupEnv is usually
// os.LookupEnv.
func Load(fs *pflag.FlagSet, configFile string, lookupEnv func(string) (string, bool)) (*Config, error) {
	k := koanf.New(".")

	if configFile != "" {
		if err := k.Load(file.Provider(configFile), yaml.Parser()); err != nil {
			return nil, oops.Code("CONFIG_LOAD_FAILED").
				With("file", configFile).
				Wrap(err)
		}
	}

	if lookupEnv == nil {
		lookupEnv = os.LookupEnv
	}
	for env, key := range envKeys {
		if v, ok := lookupEnv(env); ok && strings.TrimSpace(v) != "" {
			if err := k.Set(key, v); err != nil {
				return nil, oops.Code("CONFIG_LOAD_FAILED").With("env", env).Wrap(err)
			}
		}
	}

	// Unchanged flags only fill keys nothing else has set.
	if err := k.Load(posflag.Provider(fs, ".", k), nil); err != nil {
		return nil, oops.Code("CONFIG_LOAD_FAILED").With("source", "flags").Wrap(err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, oops.Code("CONFIG_LOAD_FAILED").With("operation", "unmarshal").Wrap(err)
	}
	cfg.Env = strings.ToLower(strings.TrimSpace(cfg.Env))

	return cfg, nil
}

// Validate rejects configurations the server must not start with.
func (c *Config) Validate() error {
	if c.DatabaseURL == "" {
		return oops.Code("CONFIG_INVALID").Errorf("database_url is required")
	}

	switch c.Env {
	case EnvDevelopment, EnvTest, EnvProduction:
	default:
		return oops.Code("CONFIG_INVALID").With("env", c.Env).Errorf("unknown environment %q", c.Env)
	}

	if c.JWTSecret == "" {
		return oops.Code("CONFIG_INVALID").Errorf("jwt_secret is required")
	}
	if c.IsProduction() && c.JWTSecret == DefaultJWTSecret {
		return oops.Code("CONFIG_INVALID").Errorf("jwt_secret must be overridden in production")
	}

	return nil
}
