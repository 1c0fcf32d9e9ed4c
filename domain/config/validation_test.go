package config

import (
	"strings"
	"testing"
)

func TestValidator_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		config    *ServerConfig
		wantPaths []string
	}{
		{
			name:   "empty config",
			config: &ServerConfig{},
		},
		{
			name: "full valid config",
			config: &ServerConfig{
				Log:     LogConfig{Level: "debug", Format: "json"},
				Limits:  LimitsConfig{MaxConcurrent: 4, MaxObjectSize: 1024, RateLimit: 10, RateBurst: 20},
				Tracing: TracingConfig{Enabled: true, Exporter: "otlp", Endpoint: "localhost:4317", SampleRate: 0.1},
				Storage: StorageConfig{
					AutoInit: true,
					Config: map[string]any{
						"lithops": map[string]any{"backend": "memory", "storage_bucket": "b1"},
					},
				},
			},
		},
		{
			name:      "bad log settings",
			config:    &ServerConfig{Log: LogConfig{Level: "loud", Format: "xml"}},
			wantPaths: []string{"log.level", "log.format"},
		},
		{
			name:      "negative limits",
			config:    &ServerConfig{Limits: LimitsConfig{MaxConcurrent: -1, MaxObjectSize: -1, CallTimeout: -1}},
			wantPaths: []string{"limits.max_concurrent", "limits.max_object_size", "limits.call_timeout"},
		},
		{
			name:      "negative rate limit",
			config:    &ServerConfig{Limits: LimitsConfig{RateLimit: -1, RateBurst: -2}},
			wantPaths: []string{"limits.rate_limit", "limits.rate_burst"},
		},
		{
			name:      "unknown exporter",
			config:    &ServerConfig{Tracing: TracingConfig{Exporter: "zipkin"}},
			wantPaths: []string{"tracing.exporter"},
		},
		{
			name:      "sample rate above one",
			config:    &ServerConfig{Tracing: TracingConfig{SampleRate: 1.5}},
			wantPaths: []string{"tracing.sample_rate"},
		},
		{
			name:      "otlp without endpoint",
			config:    &ServerConfig{Tracing: TracingConfig{Enabled: true, Exporter: "otlp"}},
			wantPaths: []string{"tracing.endpoint"},
		},
		{
			name:      "auto init without config",
			config:    &ServerConfig{Storage: StorageConfig{AutoInit: true}},
			wantPaths: []string{"storage.auto_init"},
		},
		{
			name:      "unknown backend override",
			config:    &ServerConfig{Storage: StorageConfig{Backend: "ftp"}},
			wantPaths: []string{"storage.backend"},
		},
		{
			name: "unknown backend in config",
			config: &ServerConfig{Storage: StorageConfig{Config: map[string]any{
				"lithops": map[string]any{"backend": "tape"},
			}}},
			wantPaths: []string{"storage.config"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			errs := NewValidator().Validate(tt.config)
			if len(errs) != len(tt.wantPaths) {
				t.Fatalf("Validate() = %v, want paths %v", errs, tt.wantPaths)
			}
			for i, path := range tt.wantPaths {
				if errs[i].Path != path {
					t.Errorf("errs[%d].Path = %q, want %q", i, errs[i].Path, path)
				}
			}
		})
	}
}

func TestValidationErrors_Error(t *testing.T) {
	t.Parallel()

	if got := (ValidationErrors{}).Error(); got != "no validation errors" {
		t.Errorf("empty Error() = %q", got)
	}

	one := ValidationErrors{{Path: "log.level", Message: "invalid level: loud"}}
	if got := one.Error(); got != "log.level: invalid level: loud" {
		t.Errorf("single Error() = %q", got)
	}

	two := append(one, ValidationError{Message: "bare"})
	got := two.Error()
	if !strings.HasPrefix(got, "2 validation errors:") || !strings.Contains(got, "  - bare") {
		t.Errorf("multi Error() = %q", got)
	}
}
