// Package transport implements the secure HTTP client: endpoint
// resolution against the endpoint registry, mutual TLS, and the
// MLE (message-level encryption) envelope wrapping for routes that
// require it (§4.3, §6).
package transport

import (
	"encoding/json"
	"os"
	"regexp"
	"strings"

	"visadirect-sdk-go/internal/payout"
)

// Route describes one API path and whether it must travel wrapped in a
// JWE envelope.
type Route struct {
	Path        string `json:"path"`
	RequiresMLE bool   `json:"requiresMLE"`
}

// JWKSConfig points at the key-rotation endpoint and how long its
// response may be cached before the next lookup re-fetches it.
type JWKSConfig struct {
	URL             string `json:"url"`
	CacheTTLSeconds int    `json:"cacheTtlSeconds"`
}

// Registry is the parsed shape of endpoints.json: base URLs, the JWKS
// endpoint, and the route table that drives requires-MLE lookups.
type Registry struct {
	BaseURLs struct {
		Visa string `json:"visa"`
	} `json:"baseUrls"`
	JWKS   JWKSConfig `json:"jwks"`
	Routes []Route    `json:"routes"`
}

var envSubstPattern = regexp.MustCompile(`\$\{([^:}]+)(?::-(.*?))?}`)

// substituteEnv replaces ${VAR} and ${VAR:-default} placeholders with the
// named environment variable, or default when it's unset.
func substituteEnv(raw []byte) []byte {
	return envSubstPattern.ReplaceAllFunc(raw, func(match []byte) []byte {
		groups := envSubstPattern.FindSubmatch(match)
		name := string(groups[1])
		def := string(groups[2])
		if value, ok := os.LookupEnv(name); ok {
			return []byte(value)
		}
		return []byte(def)
	})
}

// LoadRegistry reads and parses an endpoint registry file, substituting
// ${VAR:-default} placeholders against the process environment first.
func LoadRegistry(path string) (*Registry, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, payout.Wrap(payout.KindPolicyNotFound, "endpoint registry not found at "+path, err)
	}

	substituted := substituteEnv(raw)

	var reg Registry
	if err := json.Unmarshal(substituted, &reg); err != nil {
		return nil, payout.Wrap(payout.KindPolicyNotFound, "endpoint registry is not valid JSON", err)
	}
	return &reg, nil
}

// RequiresMLE reports whether path must be wrapped in a JWE envelope,
// matching exact paths first and ":param" wildcard templates second.
func (r *Registry) RequiresMLE(path string) bool {
	for _, route := range r.Routes {
		if route.Path == path || matchParamRoute(route.Path, path) {
			return route.RequiresMLE
		}
	}
	return false
}

func matchParamRoute(template, actual string) bool {
	if !strings.Contains(template, ":") {
		return false
	}
	t := strings.Split(template, "/")
	a := strings.Split(actual, "/")
	if len(t) != len(a) {
		return false
	}
	for i := range t {
		if strings.HasPrefix(t[i], ":") {
			continue
		}
		if t[i] != a[i] {
			return false
		}
	}
	return true
}
