package ratelimit

import (
	"net/http"
	"strings"
)

// MatchEndpoint returns the rule for a request, or nil when the default applies.
// Rule paths are matched segment by segment; "*" matches any one segment.
// GET /health is never limited.
func MatchEndpoint(path, method string, configs []EndpointConfig) *EndpointConfig {
	if path == "/health" && method == http.MethodGet {
		return &EndpointConfig{Path: path, Method: method}
	}

	segments := splitPath(path)
	for i := range configs {
		cfg := &configs[i]
		if cfg.Method != method {
			continue
		}
		if matchSegments(splitPath(cfg.Path), segments) {
			return cfg
		}
	}
	return nil
}

func splitPath(p string) []string {
	return strings.Split(strings.Trim(p, "/"), "/")
}

func matchSegments(pattern, segments []string) bool {
	if len(pattern) != len(segments) {
		return false
	}
	for i, part := range pattern {
		if part != "*" && part != segments[i] {
			return false
		}
	}
	return true
}
