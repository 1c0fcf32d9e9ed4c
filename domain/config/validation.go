package config

import (
	"fmt"
	"strings"

	"github.com/felixgeelhaar/storage-mcp/domain/storage"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	// Path is the dotted path to the invalid field.
	Path string
	// Message describes the validation error.
	Message string
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	if e.Path == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors []ValidationError

// Error implements the error interface.
func (e ValidationErrors) Error() string {
	switch len(e) {
	case 0:
		return "no validation errors"
	case 1:
		return e[0].Error()
	}
	msgs := make([]string, len(e))
	for i, err := range e {
		msgs[i] = err.Error()
	}
	return fmt.Sprintf("%d validation errors:\n  - %s", len(e), strings.Join(msgs, "\n  - "))
}

// HasErrors returns true if there are any validation errors.
func (e ValidationErrors) HasErrors() bool {
	return len(e) > 0
}

var (
	validLevels    = map[string]bool{"trace": true, "debug": true, "info": true, "warn": true, "error": true}
	validFormats   = map[string]bool{"console": true, "json": true}
	validExporters = map[string]bool{"stdout": true, "otlp": true, "noop": true}
)

// Validator validates server configuration.
type Validator struct {
	errors ValidationErrors
}

// NewValidator creates a new validator.
func NewValidator() *Validator {
	return &Validator{}
}

// Validate validates the configuration and returns any errors.
// Empty fields are accepted; ApplyDefaults fills them.
func (v *Validator) Validate(cfg *ServerConfig) ValidationErrors {
	v.errors = nil

	v.validateLog(cfg.Log)
	v.validateLimits(cfg.Limits)
	v.validateTracing(cfg.Tracing)
	v.validateStorage(cfg.Storage)

	return v.errors
}

func (v *Validator) addError(path, format string, args ...any) {
	v.errors = append(v.errors, ValidationError{Path: path, Message: fmt.Sprintf(format, args...)})
}

func (v *Validator) validateLog(c LogConfig) {
	if c.Level != "" && !validLevels[strings.ToLower(c.Level)] {
		v.addError("log.level", "invalid level: %s", c.Level)
	}
	if c.Format != "" && !validFormats[c.Format] {
		v.addError("log.format", "invalid format: %s (must be console or json)", c.Format)
	}
}

func (v *Validator) validateLimits(c LimitsConfig) {
	if c.MaxConcurrent < 0 {
		v.addError("limits.max_concurrent", "must be non-negative")
	}
	if c.MaxObjectSize < 0 {
		v.addError("limits.max_object_size", "must be non-negative")
	}
	if c.CallTimeout < 0 {
		v.addError("limits.call_timeout", "must be non-negative")
	}
	if c.RateLimit < 0 {
		v.addError("limits.rate_limit", "must be non-negative")
	}
	if c.RateBurst < 0 {
		v.addError("limits.rate_burst", "must be non-negative")
	}
}

func (v *Validator) validateTracing(c TracingConfig) {
	if c.Exporter != "" && !validExporters[c.Exporter] {
		v.addError("tracing.exporter", "invalid exporter: %s (must be stdout, otlp or noop)", c.Exporter)
	}
	if c.SampleRate < 0 || c.SampleRate > 1 {
		v.addError("tracing.sample_rate", "must be between 0 and 1")
	}
	if c.Enabled && c.Exporter == "otlp" && c.Endpoint == "" {
		v.addError("tracing.endpoint", "required for the otlp exporter")
	}
}

func (v *Validator) validateStorage(c StorageConfig) {
	if c.AutoInit && len(c.Config) == 0 && c.Backend == "" {
		v.addError("storage.auto_init", "requires storage.config or storage.backend")
	}
	if c.Backend != "" && !storage.IsKnownBackend(storage.NormalizeBackend(c.Backend)) {
		v.addError("storage.backend", "unknown backend: %s", c.Backend)
	}
	if len(c.Config) == 0 {
		return
	}
	if _, err := storage.ParseConfig(c.InitRequest()); err != nil {
		v.addError("storage.config", "%v", err)
	}
}
