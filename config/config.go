// Package config loads storefront configuration. Values are layered from
// lowest to highest priority:
//
//  1. Defaults (in code)
//  2. An optional YAML file
//  3. STOREFRONT_* environment variables
//
// The result is validated before it is returned.
package config

import (
	"time"

	"github.com/goliatone/go-storefront/cache"
	"github.com/goliatone/go-storefront/internal/observability"
)

// Store drivers.
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config is the full service configuration.
type Config struct {
	Server ServerConfig            `yaml:"server"`
	Store  StoreConfig             `yaml:"store"`
	Cache  cache.Config            `yaml:"cache"`
	Auth   AuthConfig              `yaml:"auth"`
	Cart   CartConfig              `yaml:"cart"`
	Log    observability.LogConfig `yaml:"log"`
}

type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	CORSOrigins     []string      `yaml:"cors_origins"`
}

type StoreConfig struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
}

type AuthConfig struct {
	JWTSecret string        `yaml:"jwt_secret"`
	Issuer    string        `yaml:"issuer"`
	TokenTTL  time.Duration `yaml:"token_ttl"`
	// BcryptCost of zero uses the bcrypt default.
	BcryptCost int `yaml:"bcrypt_cost"`
	// AllowAdminRegistration lets /register create admin accounts.
	AllowAdminRegistration bool `yaml:"allow_admin_registration"`
}

type CartConfig struct {
	SerializedWrites bool `yaml:"serialized_writes"`
}

// Default returns the configuration used when nothing else is supplied.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Addr:            ":5001",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			CORSOrigins:     []string{"*"},
		},
		Store: StoreConfig{
			Driver: DriverSQLite,
			DSN:    "file:storefront.db?cache=shared&_fk=1",
		},
		Cache: cache.DefaultConfig(),
		Auth: AuthConfig{
			Issuer:   "storefront",
			TokenTTL: 24 * time.Hour,
		},
		Log: observability.LogConfig{Level: "info"},
	}
}
