package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	domainconfig "github.com/felixgeelhaar/storage-mcp/domain/config"
)

// envPattern matches ${VAR}, ${VAR:-default}, ${VAR:?message} and $VAR.
var envPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(?:(:[-?])([^}]*))?\}|\$([A-Za-z_][A-Za-z0-9_]*)`)

// LookupFunc resolves an environment variable.
type LookupFunc func(key string) (string, bool)

// envExpander expands environment variables in configuration text.
type envExpander struct {
	lookup LookupFunc
	// strict reports unset variables referenced without a default.
	strict bool
}

func newEnvExpander(lookup LookupFunc, strict bool) *envExpander {
	if lookup == nil {
		lookup = os.LookupEnv
	}
	return &envExpander{lookup: lookup, strict: strict}
}

// Expand replaces every variable reference in input in a single pass, so
// expanded values are never expanded again. ${VAR:?msg} fails when VAR is
// unset or empty regardless of strictness.
func (e *envExpander) Expand(input string) (string, error) {
	var missing []string

	result := envPattern.ReplaceAllStringFunc(input, func(match string) string {
		m := envPattern.FindStringSubmatch(match)
		name, op, arg := m[1], m[2], m[3]
		if name == "" {
			name = m[4]
		}

		value, ok := e.lookup(name)
		switch op {
		case ":-":
			if value == "" {
				return arg
			}
		case ":?":
			if value == "" {
				missing = append(missing, fmt.Sprintf("%s: %s", name, arg))
				return match
			}
		default:
			if !ok && e.strict {
				missing = append(missing, name)
			}
		}
		return value
	})

	if len(missing) > 0 {
		return "", fmt.Errorf("%w: %s", domainconfig.ErrMissingEnvVar, strings.Join(missing, ", "))
	}
	return result, nil
}

// ExpandEnv expands environment variables, leaving unset ones empty.
func ExpandEnv(input string) string {
	result, _ := newEnvExpander(nil, false).Expand(input)
	return result
}

// ExpandEnvStrict expands environment variables and returns an error for missing vars.
func ExpandEnvStrict(input string) (string, error) {
	return newEnvExpander(nil, true).Expand(input)
}
