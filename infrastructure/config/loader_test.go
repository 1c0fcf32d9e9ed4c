package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	domainconfig "github.com/felixgeelhaar/storage-mcp/domain/config"
	"github.com/felixgeelhaar/storage-mcp/domain/storage"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestLoader_LoadFile_YAML(t *testing.T) {
	t.Parallel()

	path := writeFile(t, "server.yaml", `
server:
  name: objects
  instructions: Use init-backend first.
log:
  level: debug
  format: json
limits:
  max_concurrent: 4
  call_timeout: 30s
tracing:
  enabled: true
  exporter: otlp
  endpoint: ${OTLP_ENDPOINT:-localhost:4317}
storage:
  auto_init: true
  config:
    lithops:
      backend: aws_s3
      storage_bucket: ${BUCKET}
    aws_s3:
      region: eu-west-1
      access_key_id: AKIA
`)

	loader := NewLoader(WithLookupEnv(fakeEnv(map[string]string{"BUCKET": "jobs"})))
	cfg, err := loader.LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}

	if cfg.Server.Name != "objects" {
		t.Errorf("Server.Name = %q, want objects", cfg.Server.Name)
	}
	if cfg.Log.Level != "debug" || cfg.Log.Format != "json" {
		t.Errorf("Log = %+v", cfg.Log)
	}
	if cfg.Limits.MaxConcurrent != 4 {
		t.Errorf("MaxConcurrent = %d, want 4", cfg.Limits.MaxConcurrent)
	}
	if cfg.Limits.CallTimeout.Duration() != 30*time.Second {
		t.Errorf("CallTimeout = %v, want 30s", cfg.Limits.CallTimeout.Duration())
	}
	if cfg.Limits.MaxObjectSize != domainconfig.DefaultMaxObjectSize {
		t.Errorf("MaxObjectSize = %d, want default", cfg.Limits.MaxObjectSize)
	}
	if cfg.Tracing.Endpoint != "localhost:4317" {
		t.Errorf("Tracing.Endpoint = %q, want expanded default", cfg.Tracing.Endpoint)
	}
	if cfg.Tracing.SampleRate != 1 {
		t.Errorf("Tracing.SampleRate = %v, want 1", cfg.Tracing.SampleRate)
	}

	sc, err := storage.ParseConfig(cfg.Storage.InitRequest())
	if err != nil {
		t.Fatalf("ParseConfig() error = %v", err)
	}
	if sc.Backend != storage.BackendS3 || sc.Bucket != "jobs" {
		t.Errorf("storage = %s/%s, want aws_s3/jobs", sc.Backend, sc.Bucket)
	}
	if sc.Section.String("region") != "eu-west-1" {
		t.Errorf("region = %q", sc.Section.String("region"))
	}
}

func TestLoader_LoadFile_JSON(t *testing.T) {
	t.Parallel()

	path := writeFile(t, "server.json", `{
  "server": {"name": "objects", "http_addr": ":8080"},
  "limits": {"max_object_size": 1024, "rate_limit": 5},
  "storage": {"backend": "memory"}
}`)

	cfg, err := NewLoader().LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}
	if cfg.Server.HTTPAddr != ":8080" {
		t.Errorf("HTTPAddr = %q, want :8080", cfg.Server.HTTPAddr)
	}
	if cfg.Limits.MaxObjectSize != 1024 {
		t.Errorf("MaxObjectSize = %d, want 1024", cfg.Limits.MaxObjectSize)
	}
	if cfg.Limits.RateBurst != 5 {
		t.Errorf("RateBurst = %d, want 5", cfg.Limits.RateBurst)
	}
	if cfg.Storage.Backend != "memory" {
		t.Errorf("Storage.Backend = %q, want memory", cfg.Storage.Backend)
	}
}

func TestLoader_LoadFile_Errors(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	tests := []struct {
		name    string
		path    string
		wantErr error
	}{
		{name: "missing file", path: filepath.Join(dir, "nope.yaml"), wantErr: domainconfig.ErrConfigNotFound},
		{name: "unsupported extension", path: writeFile(t, "server.toml", "x = 1"), wantErr: domainconfig.ErrUnsupportedFormat},
		{name: "directory", path: filepath.Join(dir, "sub.yaml"), wantErr: domainconfig.ErrInvalidFormat},
		{name: "malformed yaml", path: writeFile(t, "bad.yaml", "server: [unterminated"), wantErr: domainconfig.ErrInvalidFormat},
		{name: "malformed json", path: writeFile(t, "bad.json", "{"), wantErr: domainconfig.ErrInvalidFormat},
		{name: "invalid values", path: writeFile(t, "invalid.yaml", "log:\n  level: loud\n"), wantErr: domainconfig.ErrValidationFailed},
	}
	if err := os.Mkdir(filepath.Join(dir, "sub.yaml"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := NewLoader().LoadFile(tt.path)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("LoadFile() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoader_Options(t *testing.T) {
	t.Parallel()

	content := "server:\n  name: ${NAME}\nlog:\n  level: loud\n"
	env := fakeEnv(map[string]string{"NAME": "svc"})

	t.Run("without validation", func(t *testing.T) {
		t.Parallel()
		cfg, err := NewLoader(WithValidation(false), WithLookupEnv(env)).LoadString(content, FormatYAML)
		if err != nil {
			t.Fatalf("LoadString() error = %v", err)
		}
		if cfg.Server.Name != "svc" {
			t.Errorf("Server.Name = %q, want svc", cfg.Server.Name)
		}
	})

	t.Run("without expansion", func(t *testing.T) {
		t.Parallel()
		cfg, err := NewLoader(WithValidation(false), WithEnvExpansion(false)).LoadString(content, FormatYAML)
		if err != nil {
			t.Fatalf("LoadString() error = %v", err)
		}
		if cfg.Server.Name != "${NAME}" {
			t.Errorf("Server.Name = %q, want literal", cfg.Server.Name)
		}
	})

	t.Run("strict env", func(t *testing.T) {
		t.Parallel()
		_, err := NewLoader(WithStrictEnv(true), WithLookupEnv(fakeEnv(nil))).LoadString(content, FormatYAML)
		if !errors.Is(err, domainconfig.ErrMissingEnvVar) {
			t.Errorf("LoadString() error = %v, want ErrMissingEnvVar", err)
		}
	})

	t.Run("unknown format", func(t *testing.T) {
		t.Parallel()
		_, err := NewLoader().LoadString("{}", Format("toml"))
		if !errors.Is(err, domainconfig.ErrUnsupportedFormat) {
			t.Errorf("LoadString() error = %v, want ErrUnsupportedFormat", err)
		}
	})
}

func TestLoader_Resolve(t *testing.T) {
	t.Parallel()

	path := writeFile(t, "env.yaml", "server:\n  name: from-env\n")

	t.Run("defaults without path", func(t *testing.T) {
		t.Parallel()
		cfg, err := NewLoader(WithLookupEnv(fakeEnv(nil))).Resolve("")
		if err != nil {
			t.Fatalf("Resolve() error = %v", err)
		}
		if cfg.Server.Name != domainconfig.DefaultServerName {
			t.Errorf("Server.Name = %q, want default", cfg.Server.Name)
		}
	})

	t.Run("path from environment", func(t *testing.T) {
		t.Parallel()
		loader := NewLoader(WithLookupEnv(fakeEnv(map[string]string{EnvConfigPath: path})))
		cfg, err := loader.Resolve("")
		if err != nil {
			t.Fatalf("Resolve() error = %v", err)
		}
		if cfg.Server.Name != "from-env" {
			t.Errorf("Server.Name = %q, want from-env", cfg.Server.Name)
		}
	})

	t.Run("explicit path wins", func(t *testing.T) {
		t.Parallel()
		other := writeFile(t, "flag.yaml", "server:\n  name: from-flag\n")
		loader := NewLoader(WithLookupEnv(fakeEnv(map[string]string{EnvConfigPath: path})))
		cfg, err := loader.Resolve(other)
		if err != nil {
			t.Fatalf("Resolve() error = %v", err)
		}
		if cfg.Server.Name != "from-flag" {
			t.Errorf("Server.Name = %q, want from-flag", cfg.Server.Name)
		}
	})
}
