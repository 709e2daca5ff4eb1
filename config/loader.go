package config

import (
	"bytes"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// EnvPrefix is prepended to every environment override.
const EnvPrefix = "STOREFRONT_"

// LookupFunc reads an environment variable.
type LookupFunc func(key string) (string, bool)

// Load reads path (if not empty) over the defaults, applies environment
// overrides from the process environment and validates the result.
func Load(path string) (*Config, error) {
	return LoadWithEnv(path, os.LookupEnv)
}

// LoadWithEnv is Load with a custom environment source.
func LoadWithEnv(path string, lookup LookupFunc) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	}

	if err := applyEnv(&cfg, lookup); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &cfg, nil
}

type envBinding struct {
	key   string
	apply func(cfg *Config, val string) error
}

func setString(dst func(*Config) *string) func(*Config, string) error {
	return func(cfg *Config, val string) error {
		*dst(cfg) = val
		return nil
	}
}

func setDuration(dst func(*Config) *time.Duration) func(*Config, string) error {
	return func(cfg *Config, val string) error {
		d, err := time.ParseDuration(val)
		if err != nil {
			return err
		}
		*dst(cfg) = d
		return nil
	}
}

func setBool(dst func(*Config) *bool) func(*Config, string) error {
	return func(cfg *Config, val string) error {
		b, err := strconv.ParseBool(val)
		if err != nil {
			return err
		}
		*dst(cfg) = b
		return nil
	}
}

func setInt(dst func(*Config) *int) func(*Config, string) error {
	return func(cfg *Config, val string) error {
		n, err := strconv.Atoi(val)
		if err != nil {
			return err
		}
		*dst(cfg) = n
		return nil
	}
}

var envBindings = []envBinding{
	{"SERVER_ADDR", setString(func(c *Config) *string { return &c.Server.Addr })},
	{"SERVER_SHUTDOWN_TIMEOUT", setDuration(func(c *Config) *time.Duration { return &c.Server.ShutdownTimeout })},
	{"SERVER_CORS_ORIGINS", func(c *Config, val string) error {
		c.Server.CORSOrigins = splitList(val)
		return nil
	}},
	{"STORE_DRIVER", setString(func(c *Config) *string { return &c.Store.Driver })},
	{"STORE_DSN", setString(func(c *Config) *string { return &c.Store.DSN })},
	{"CACHE_BACKEND", setString(func(c *Config) *string { return &c.Cache.Backend })},
	{"CACHE_REDIS_URL", setString(func(c *Config) *string { return &c.Cache.RedisURL })},
	{"CACHE_TTL", setDuration(func(c *Config) *time.Duration { return &c.Cache.TTL })},
	{"CACHE_OP_TIMEOUT", setDuration(func(c *Config) *time.Duration { return &c.Cache.OpTimeout })},
	{"CACHE_CODEC", setString(func(c *Config) *string { return &c.Cache.Codec })},
	{"CACHE_CAPACITY", setInt(func(c *Config) *int { return &c.Cache.Capacity })},
	{"AUTH_JWT_SECRET", setString(func(c *Config) *string { return &c.Auth.JWTSecret })},
	{"AUTH_ISSUER", setString(func(c *Config) *string { return &c.Auth.Issuer })},
	{"AUTH_TOKEN_TTL", setDuration(func(c *Config) *time.Duration { return &c.Auth.TokenTTL })},
	{"AUTH_ALLOW_ADMIN_REGISTRATION", setBool(func(c *Config) *bool { return &c.Auth.AllowAdminRegistration })},
	{"CART_SERIALIZED_WRITES", setBool(func(c *Config) *bool { return &c.Cart.SerializedWrites })},
	{"LOG_LEVEL", setString(func(c *Config) *string { return &c.Log.Level })},
	{"LOG_DEVELOPMENT", setBool(func(c *Config) *bool { return &c.Log.Development })},
}

func applyEnv(cfg *Config, lookup LookupFunc) error {
	if lookup == nil {
		return nil
	}
	for _, b := range envBindings {
		val, ok := lookup(EnvPrefix + b.key)
		if !ok || strings.TrimSpace(val) == "" {
			continue
		}
		if err := b.apply(cfg, strings.TrimSpace(val)); err != nil {
			return fmt.Errorf("invalid %s%s: %w", EnvPrefix, b.key, err)
		}
	}
	return nil
}

func splitList(val string) []string {
	var out []string
	for _, part := range strings.Split(val, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
