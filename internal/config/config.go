// Package config handles loading and parsing application configuration.
// Values come from three sources, later ones winning:
//  1. A YAML file, located via CONFIG_PATH or the --config flag
//  2. A .env file in the working directory (never overrides real env vars)
//  3. Process environment variables (env:"..." tags)
//
// The parsed values are returned as a *Config pointer so the struct is
// shared by reference rather than copied everywhere.
package config

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"net"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

// Supported database drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// minSecretLen is the shortest HS256 signing key the server accepts.
const minSecretLen = 32

// dotEnvFile is read before the environment is consulted. Tests point it
// elsewhere.
var dotEnvFile = ".env"

// Config is the root configuration structure.
// Every field maps to a key in the YAML file AND can be overridden
// by the corresponding environment variable (env:"...").
type Config struct {
	// Env controls log format and verbosity. Valid values: "dev", "staging", "prod".
	Env string `yaml:"env" env:"ENV" env-required:"true"`

	// Salt is the application-wide pepper mixed into every password hash.
	// It deliberately has no DB_ prefix.
	Salt string `yaml:"salt" env:"SALT" env-required:"true"`

	Database   Database   `yaml:"database"`
	HTTPServer HTTPServer `yaml:"http_server"`
	Auth       Auth       `yaml:"auth"`
}

// Database selects the SQL backend and how to reach it.
type Database struct {
	Driver   string `yaml:"driver"   env:"DB_DRIVER"   env-default:"sqlite"`
	Path     string `yaml:"path"     env:"DB_PATH"`
	Host     string `yaml:"host"     env:"DB_HOST"`
	User     string `yaml:"user"     env:"DB_USER"`
	Password string `yaml:"password" env:"DB_PASSWORD"`
	Name     string `yaml:"name"     env:"DB_NAME"`
	Port     int    `yaml:"port"     env:"DB_PORT"     env-default:"5432"`
	SSLMode  string `yaml:"sslmode"  env:"DB_SSLMODE"  env-default:"disable"`
}

// HTTPServer holds settings specific to the HTTP server.
type HTTPServer struct {
	// Addr is the TCP address the server listens on, e.g. "localhost:8082".
	Addr string `yaml:"address" env:"HTTP_SERVER_ADDR" env-default:"localhost:8082"`
}

// Auth configures token issuing and login throttling.
type Auth struct {
	JWTSecret      string        `yaml:"jwt_secret"       env:"JWT_SECRET"`
	Issuer         string        `yaml:"issuer"           env:"JWT_ISSUER"       env-default:"users-api"`
	TokenTTL       time.Duration `yaml:"token_ttl"        env:"JWT_TTL"          env-default:"1h"`
	LoginRateLimit int           `yaml:"login_rate_limit" env:"LOGIN_RATE_LIMIT" env-default:"10"`
}

// Load reads .env (if present), then the YAML file at path, then applies
// environment overrides and validates the result.
func Load(path string) (*Config, error) {
	if err := loadDotEnv(dotEnvFile); err != nil {
		return nil, err
	}

	if path == "" {
		return nil, errors.New("config path is not set: use --config flag or CONFIG_PATH env var")
	}
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("config file %s: %w", path, err)
	}

	// cleanenv.ReadConfig reads the YAML file, overlays env:"..." fields
	// from the environment, fills env-default values, and enforces
	// env-required constraints.
	var cfg Config
	if err := cleanenv.ReadConfig(path, &cfg); err != nil {
		return nil, fmt.Errorf("cannot read config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// MustLoad resolves the config path from CONFIG_PATH or the --config flag
// and loads it. It exits the process on any failure: if this returns, the
// config is valid.
func MustLoad() *Config {
	configPath := os.Getenv("CONFIG_PATH")

	if configPath == "" {
		flags := flag.String("config", "", "Path to the configuration YAML file")
		flag.Parse()
		configPath = *flags
	}

	cfg, err := Load(configPath)
	if err != nil {
		log.Fatal(err)
	}
	return cfg
}

// Validate checks cross-field rules that struct tags cannot express.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case DriverSQLite:
		if c.Database.Path == "" {
			return errors.New("database.path is required for the sqlite driver")
		}
	case DriverPostgres:
		if c.Database.Host == "" || c.Database.User == "" || c.Database.Name == "" {
			return errors.New("database.host, database.user and database.name are required for the postgres driver")
		}
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}
	return nil
}

// ValidateServer adds the checks only the HTTP API needs.
func (c *Config) ValidateServer() error {
	if len(c.Auth.JWTSecret) < minSecretLen {
		return fmt.Errorf("auth.jwt_secret must be at least %d bytes", minSecretLen)
	}
	if c.Auth.TokenTTL <= 0 {
		return errors.New("auth.token_ttl must be positive")
	}
	if c.Auth.LoginRateLimit <= 0 {
		return errors.New("auth.login_rate_limit must be positive")
	}
	return nil
}

// DSN renders the data source name for the configured driver.
func (d Database) DSN() string {
	if d.Driver == DriverPostgres {
		u := url.URL{
			Scheme:   "postgresql",
			User:     url.UserPassword(d.User, d.Password),
			Host:     net.JoinHostPort(d.Host, strconv.Itoa(d.Port)),
			Path:     "/" + d.Name,
			RawQuery: url.Values{"sslmode": {d.SSLMode}}.Encode(),
		}
		return u.String()
	}
	return "file:" + d.Path + "?_busy_timeout=5000"
}

// MaskSecret keeps the first four characters of s for log correlation.
func MaskSecret(s string) string {
	if len(s) <= 4 {
		return "****"
	}
	return s[:4] + "****"
}

func loadDotEnv(path string) error {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}
