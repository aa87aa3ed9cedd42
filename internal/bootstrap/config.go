// config.go - Environment configuration for ensure-db.
//
// All variables are optional. Every invalid value is collected and reported
// together so a broken deployment shows all of its problems at once.
package bootstrap

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Config holds the tunables read from the environment.
type Config struct {
	WaitTimeout    time.Duration
	ConnectTimeout time.Duration
	AdminDatabase  string
	LogFormat      string
	LogLevel       LogLevel
}

// ConfigValidationError represents a configuration validation error.
type ConfigValidationError struct {
	Field   string
	Message string
}

func (e ConfigValidationError) Error() string {
	return fmt.Sprintf("config validation failed for %s: %s", e.Field, e.Message)
}

// ConfigValidator accumulates validation errors.
type ConfigValidator struct {
	errors []ConfigValidationError
}

// NewConfigValidator creates a new configuration validator.
func NewConfigValidator() *ConfigValidator {
	return &ConfigValidator{
		errors: make([]ConfigValidationError, 0),
	}
}

// AddError adds a validation error.
func (v *ConfigValidator) AddError(field, message string) {
	v.errors = append(v.errors, ConfigValidationError{
		Field:   field,
		Message: message,
	})
}

// HasErrors returns true if there are validation errors.
func (v *ConfigValidator) HasErrors() bool {
	return len(v.errors) > 0
}

// ErrorString returns a formatted string of all errors.
func (v *ConfigValidator) ErrorString() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("configuration validation failed with %d error(s):", len(v.errors)))
	for i, err := range v.errors {
		sb.WriteString(fmt.Sprintf(" %d. %s;", i+1, err.Error()))
	}
	return strings.TrimSuffix(sb.String(), ";")
}

// ValidateEnum validates that a value is one of allowed options.
func (v *ConfigValidator) ValidateEnum(key, value string, allowed []string) {
	if value == "" {
		return
	}

	for _, opt := range allowed {
		if value == opt {
			return
		}
	}

	v.AddError(key, fmt.Sprintf("must be one of: %s (got: %s)", strings.Join(allowed, ", "), value))
}

// ValidateDuration parses a positive Go duration, returning def when value
// is empty or invalid.
func (v *ConfigValidator) ValidateDuration(key, value string, def time.Duration) time.Duration {
	if value == "" {
		return def
	}

	d, err := time.ParseDuration(value)
	if err != nil {
		v.AddError(key, fmt.Sprintf("must be a valid duration such as 60s or 2m (got: %s)", value))
		return def
	}
	if d <= 0 {
		v.AddError(key, "must be a positive duration")
		return def
	}
	return d
}

// ValidateIdentifier rejects values PostgreSQL cannot use as a database name.
func (v *ConfigValidator) ValidateIdentifier(key, value string) {
	if value == "" {
		return
	}
	if strings.ContainsRune(value, 0) {
		v.AddError(key, "must not contain NUL bytes")
	}
	if len(value) > maxIdentifierLen {
		v.AddError(key, fmt.Sprintf("must be at most %d bytes long (got %d)", maxIdentifierLen, len(value)))
	}
}

// getenvDefault reads key through getenv and returns def if it is unset.
func getenvDefault(getenv func(string) string, key, def string) string {
	if v := getenv(key); v != "" {
		return v
	}
	return def
}

// LoadConfig reads and validates ENSUREDB_* variables through getenv.
func LoadConfig(getenv func(string) string) (Config, error) {
	v := NewConfigValidator()

	cfg := Config{
		WaitTimeout:    v.ValidateDuration("ENSUREDB_WAIT_TIMEOUT", getenv("ENSUREDB_WAIT_TIMEOUT"), DefaultWaitTimeout),
		ConnectTimeout: v.ValidateDuration("ENSUREDB_CONNECT_TIMEOUT", getenv("ENSUREDB_CONNECT_TIMEOUT"), DefaultConnectTimeout),
		AdminDatabase:  getenvDefault(getenv, "ENSUREDB_ADMIN_DB", DefaultAdminDatabase),
		LogFormat:      getenvDefault(getenv, "ENSUREDB_LOG_FORMAT", "text"),
		LogLevel:       LogLevel(getenvDefault(getenv, "ENSUREDB_LOG_LEVEL", string(LogLevelWarn))),
	}

	v.ValidateIdentifier("ENSUREDB_ADMIN_DB", cfg.AdminDatabase)
	v.ValidateEnum("ENSUREDB_LOG_FORMAT", cfg.LogFormat, []string{"json", "text"})
	v.ValidateEnum("ENSUREDB_LOG_LEVEL", string(cfg.LogLevel), []string{"debug", "info", "warn", "error"})

	if v.HasErrors() {
		return Config{}, errors.New(v.ErrorString())
	}

	return cfg, nil
}
