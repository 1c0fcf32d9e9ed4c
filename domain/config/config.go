// Package config provides domain models for server configuration.
package config

import (
	"time"

	"github.com/felixgeelhaar/storage-mcp/domain/storage"
)

// Defaults applied by Default and by the loader for omitted fields.
const (
	DefaultServerName    = "storage-mcp"
	DefaultMaxConcurrent = 8
	DefaultMaxObjectSize = 10 << 20
	DefaultLogLevel      = "info"
	DefaultLogFormat     = "console"
	DefaultExporter      = "stdout"
)

// ServerConfig represents the complete server configuration.
type ServerConfig struct {
	// Server contains MCP server identity and transport settings.
	Server ServerSettings `json:"server" yaml:"server"`
	// Log contains logging settings.
	Log LogConfig `json:"log,omitempty" yaml:"log,omitempty"`
	// Limits bounds tool execution.
	Limits LimitsConfig `json:"limits,omitempty" yaml:"limits,omitempty"`
	// Tracing contains OpenTelemetry tracing settings.
	Tracing TracingConfig `json:"tracing,omitempty" yaml:"tracing,omitempty"`
	// Metrics contains tool call metrics settings.
	Metrics MetricsConfig `json:"metrics,omitempty" yaml:"metrics,omitempty"`
	// Storage holds the default backend configuration.
	Storage StorageConfig `json:"storage,omitempty" yaml:"storage,omitempty"`
}

// ServerSettings identifies the MCP server.
type ServerSettings struct {
	// Name is reported to MCP clients.
	Name string `json:"name" yaml:"name"`
	// Version is reported to MCP clients. Empty means the build version.
	Version string `json:"version,omitempty" yaml:"version,omitempty"`
	// Instructions are sent to clients on initialize.
	Instructions string `json:"instructions,omitempty" yaml:"instructions,omitempty"`
	// HTTPAddr serves the HTTP transport instead of stdio when set.
	HTTPAddr string `json:"http_addr,omitempty" yaml:"http_addr,omitempty"`
}

// LogConfig configures structured logging.
type LogConfig struct {
	// Level is one of trace, debug, info, warn, error.
	Level string `json:"level,omitempty" yaml:"level,omitempty"`
	// Format is console or json.
	Format string `json:"format,omitempty" yaml:"format,omitempty"`
}

// LimitsConfig bounds tool execution.
type LimitsConfig struct {
	// MaxConcurrent is the number of tool calls allowed in flight.
	MaxConcurrent int `json:"max_concurrent,omitempty" yaml:"max_concurrent,omitempty"`
	// MaxObjectSize caps the bytes returned by get-object and get-cloudobject.
	MaxObjectSize int64 `json:"max_object_size,omitempty" yaml:"max_object_size,omitempty"`
	// CallTimeout bounds one tool call. Zero means no timeout.
	CallTimeout Duration `json:"call_timeout,omitempty" yaml:"call_timeout,omitempty"`
	// RateLimit is the sustained tool calls per second. Zero disables limiting.
	RateLimit int `json:"rate_limit,omitempty" yaml:"rate_limit,omitempty"`
	// RateBurst is the burst size for RateLimit.
	RateBurst int `json:"rate_burst,omitempty" yaml:"rate_burst,omitempty"`
}

// TracingConfig configures span export.
type TracingConfig struct {
	Enabled    bool    `json:"enabled,omitempty" yaml:"enabled,omitempty"`
	Exporter   string  `json:"exporter,omitempty" yaml:"exporter,omitempty"`
	Endpoint   string  `json:"endpoint,omitempty" yaml:"endpoint,omitempty"`
	Insecure   bool    `json:"insecure,omitempty" yaml:"insecure,omitempty"`
	SampleRate float64 `json:"sample_rate,omitempty" yaml:"sample_rate,omitempty"`
}

// MetricsConfig configures tool call metrics.
type MetricsConfig struct {
	// Enabled collects call counts and durations, summarized at shutdown.
	Enabled bool `json:"enabled,omitempty" yaml:"enabled,omitempty"`
}

// StorageConfig holds the backend configuration used when init-backend is
// called without one.
type StorageConfig struct {
	// AutoInit initializes the backend at startup.
	AutoInit bool `json:"auto_init,omitempty" yaml:"auto_init,omitempty"`
	// Backend overrides the backend selected in Config.
	Backend string `json:"backend,omitempty" yaml:"backend,omitempty"`
	// Config has the init-backend layout: a "lithops" section plus one
	// section per backend.
	Config map[string]any `json:"config,omitempty" yaml:"config,omitempty"`
}

// InitRequest converts the storage section into an init-backend request.
func (s StorageConfig) InitRequest() storage.InitRequest {
	return storage.InitRequest{
		Config:  s.Config,
		Backend: s.Backend,
	}
}

// Default returns a configuration with every default applied.
func Default() *ServerConfig {
	cfg := &ServerConfig{}
	cfg.ApplyDefaults()
	return cfg
}

// ApplyDefaults fills zero-valued fields with their defaults.
func (c *ServerConfig) ApplyDefaults() {
	if c.Server.Name == "" {
		c.Server.Name = DefaultServerName
	}
	if c.Log.Level == "" {
		c.Log.Level = DefaultLogLevel
	}
	if c.Log.Format == "" {
		c.Log.Format = DefaultLogFormat
	}
	if c.Limits.MaxConcurrent == 0 {
		c.Limits.MaxConcurrent = DefaultMaxConcurrent
	}
	if c.Limits.MaxObjectSize == 0 {
		c.Limits.MaxObjectSize = DefaultMaxObjectSize
	}
	if c.Limits.RateLimit > 0 && c.Limits.RateBurst == 0 {
		c.Limits.RateBurst = c.Limits.RateLimit
	}
	if c.Tracing.Exporter == "" {
		c.Tracing.Exporter = DefaultExporter
	}
	if c.Tracing.Enabled && c.Tracing.SampleRate == 0 {
		c.Tracing.SampleRate = 1
	}
}

// Duration is a time.Duration that supports JSON/YAML string representation.
type Duration time.Duration

// MarshalJSON implements json.Marshaler.
func (d Duration) MarshalJSON() ([]byte, error) {
	return []byte(`"` + time.Duration(d).String() + `"`), nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *Duration) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		return nil
	}

	s := string(b)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}

	dur, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(dur)
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(unmarshal func(any) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	dur, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(dur)
	return nil
}

// Duration returns the underlying time.Duration.
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}
