package config

import (
	"errors"
	"sort"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/goliatone/go-storefront/internal/cacheinfra"
)

// ConfigError represents a configuration validation error.
type ConfigError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	return "config error in field " + e.Field + ": " + e.Message
}

// Validate checks the whole configuration and reports the first problem.
func (c Config) Validate() error {
	if err := validateSection("server", validation.ValidateStruct(&c.Server,
		validation.Field(&c.Server.Addr, validation.Required),
		validation.Field(&c.Server.ShutdownTimeout, validation.Min(0)),
	)); err != nil {
		return err
	}

	if err := validateSection("store", validation.ValidateStruct(&c.Store,
		validation.Field(&c.Store.Driver, validation.Required, validation.In(DriverMemory, DriverSQLite, DriverPostgres)),
		validation.Field(&c.Store.DSN, validation.When(c.Store.Driver != DriverMemory, validation.Required)),
	)); err != nil {
		return err
	}

	if err := validateSection("auth", validation.ValidateStruct(&c.Auth,
		validation.Field(&c.Auth.JWTSecret, validation.Required, validation.Length(16, 0)),
		validation.Field(&c.Auth.TokenTTL, validation.Required),
		validation.Field(&c.Auth.BcryptCost, validation.When(c.Auth.BcryptCost != 0, validation.Min(4), validation.Max(31))),
	)); err != nil {
		return err
	}

	if err := c.Cache.Validate(); err != nil {
		var cfgErr *cacheinfra.ConfigError
		if errors.As(err, &cfgErr) {
			return &ConfigError{Field: "cache." + cfgErr.Field, Message: cfgErr.Message}
		}
		return &ConfigError{Field: "cache", Message: err.Error()}
	}

	return nil
}

// validateSection turns ozzo field errors into a ConfigError for the first
// field in name order.
func validateSection(section string, err error) error {
	if err == nil {
		return nil
	}
	var fieldErrs validation.Errors
	if !errors.As(err, &fieldErrs) {
		return &ConfigError{Field: section, Message: err.Error()}
	}
	fields := make([]string, 0, len(fieldErrs))
	for field := range fieldErrs {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	first := fields[0]
	return &ConfigError{Field: section + "." + first, Message: fieldErrs[first].Error()}
}
