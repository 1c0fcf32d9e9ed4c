package storage

import (
	"encoding/json"
	"fmt"
	"maps"
	"strconv"
	"strings"
	"sync/atomic"
)

// Backend names.
const (
	BackendMemory    = "memory"
	BackendLocalhost = "localhost"
	BackendS3        = "aws_s3"
	BackendMinIO     = "minio"
	BackendCeph      = "ceph"
	BackendGCS       = "gcp_storage"
	BackendAzure     = "azure_storage"
	BackendRedis     = "redis"
)

// rootSection is the top-level config section holding the backend selector.
const rootSection = "lithops"

var backendAliases = map[string]string{
	"s3":    BackendS3,
	"aws":   BackendS3,
	"gcs":   BackendGCS,
	"gcp":   BackendGCS,
	"azure": BackendAzure,
	"local": BackendLocalhost,
}

// secretFields are masked when a configuration is reported back to callers.
var secretFields = map[string]bool{
	"secret_access_key":   true,
	"session_token":       true,
	"password":            true,
	"storage_account_key": true,
	"connection_string":   true,
	"credentials_json":    true,
}

const maskedValue = "********"

// InitRequest is the payload of the init-backend tool.
type InitRequest struct {
	// Config is the nested configuration: a "lithops" section selecting the
	// backend and default bucket plus one section per backend.
	Config map[string]any `json:"config"`

	// Backend overrides the backend selected in Config.
	Backend string `json:"backend,omitempty"`

	// StorageConfig overrides the selected backend's section.
	StorageConfig map[string]any `json:"storage_config,omitempty"`
}

// IsEmpty reports whether the request carries no configuration at all.
func (r InitRequest) IsEmpty() bool {
	return len(r.Config) == 0 && r.Backend == "" && len(r.StorageConfig) == 0
}

// Config is a resolved backend configuration.
type Config struct {
	// Backend is the canonical backend name.
	Backend string

	// Bucket is the default bucket, possibly empty.
	Bucket string

	// SessionID namespaces generated cloudobject keys.
	SessionID string

	// Keys numbers generated cloudobject keys. Clients built for the same
	// session share it, so a re-initialized client never reuses a key.
	// Nil gives the client a sequence of its own.
	Keys *KeySequence

	// Section is the backend-specific settings.
	Section Section
}

// KeySequence hands out the ordinals of generated cloudobject keys.
type KeySequence struct {
	n atomic.Uint64
}

// Next returns the next ordinal, starting at zero.
func (q *KeySequence) Next() uint64 {
	return q.n.Add(1) - 1
}

// ParseConfig resolves an init-backend request into a Config.
func ParseConfig(req InitRequest) (Config, error) {
	root := Section(req.Config).Map(rootSection)

	name := req.Backend
	for _, k := range []string{"backend", "storage", "storage_backend"} {
		if name != "" {
			break
		}
		name = root.String(k)
	}
	if name == "" {
		name = BackendLocalhost
	}
	name = NormalizeBackend(name)
	if !IsKnownBackend(name) {
		return Config{}, fmt.Errorf("%w: %q", ErrUnknownBackend, name)
	}

	section := Section(req.Config).Map(name)
	if req.StorageConfig != nil {
		section = Section(req.StorageConfig)
	}
	section = section.Clone()

	bucket := section.String("storage_bucket")
	if bucket == "" {
		bucket = root.String("storage_bucket")
	}

	return Config{
		Backend: name,
		Bucket:  bucket,
		Section: section,
	}, nil
}

// NormalizeBackend maps aliases onto canonical backend names.
func NormalizeBackend(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	if canonical, ok := backendAliases[name]; ok {
		return canonical
	}
	return name
}

// IsKnownBackend reports whether name is a canonical backend name.
func IsKnownBackend(name string) bool {
	switch name {
	case BackendMemory, BackendLocalhost, BackendS3, BackendMinIO, BackendCeph,
		BackendGCS, BackendAzure, BackendRedis:
		return true
	}
	return false
}

// Masked returns the configuration as reported by get-storage-config.
func (c Config) Masked() map[string]any {
	section := make(map[string]any, len(c.Section))
	for k, v := range c.Section {
		if secretFields[k] {
			section[k] = maskedValue
			continue
		}
		section[k] = v
	}
	return map[string]any{
		"backend":        c.Backend,
		"storage_bucket": c.Bucket,
		c.Backend:        section,
	}
}

// Section is a free-form configuration map with typed accessors.
// Numeric values may arrive as float64 (JSON), int (YAML) or strings.
type Section map[string]any

// Map returns the nested section under key, or nil.
func (s Section) Map(key string) Section {
	switch v := s[key].(type) {
	case map[string]any:
		return Section(v)
	case Section:
		return v
	}
	return nil
}

// Clone returns a shallow copy.
func (s Section) Clone() Section {
	out := make(Section, len(s))
	maps.Copy(out, s)
	return out
}

// String returns the value under key formatted as a string, or "".
func (s Section) String(key string) string {
	switch v := s[key].(type) {
	case nil:
		return ""
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
}

// StringOr returns the string under key, or def when missing or empty.
func (s Section) StringOr(key, def string) string {
	if v := s.String(key); v != "" {
		return v
	}
	return def
}

// Int64 returns the integer under key, or def when missing.
func (s Section) Int64(key string, def int64) (int64, error) {
	switch v := s[key].(type) {
	case nil:
		return def, nil
	case int:
		return int64(v), nil
	case int64:
		return v, nil
	case float64:
		if v != float64(int64(v)) {
			return 0, fmt.Errorf("%s: %v is not an integer", key, v)
		}
		return int64(v), nil
	case json.Number:
		return v.Int64()
	case string:
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("%s: %w", key, err)
		}
		return n, nil
	default:
		return 0, fmt.Errorf("%s: expected integer, got %T", key, v)
	}
}

// Bool returns the boolean under key, or def when missing.
func (s Section) Bool(key string, def bool) (bool, error) {
	switch v := s[key].(type) {
	case nil:
		return def, nil
	case bool:
		return v, nil
	case string:
		b, err := strconv.ParseBool(v)
		if err != nil {
			return false, fmt.Errorf("%s: %w", key, err)
		}
		return b, nil
	default:
		return false, fmt.Errorf("%s: expected boolean, got %T", key, v)
	}
}
