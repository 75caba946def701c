package ratelimit

import (
	"net/http"
	"time"
)

// EndpointConfig is the limit for one route. Path segments of "*" match any single segment.
type EndpointConfig struct {
	Path   string
	Method string
	Limit  int
	Window time.Duration
	Burst  int // defaults to Limit when zero
}

// Settings is the operator-facing rate limit configuration, decoded from the "ratelimit" config block
type Settings struct {
	Enabled         bool          `mapstructure:"enabled"`
	DefaultLimit    int           `mapstructure:"default_limit"`
	DefaultWindow   time.Duration `mapstructure:"default_window"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`
	IdleTTL         time.Duration `mapstructure:"idle_ttl"`
	Allow           []string      `mapstructure:"allow"`
	Deny            []string      `mapstructure:"deny"`
}

// Config builds the limiter configuration, applying the per-route table and the built-in defaults
func (s Settings) Config() *Config {
	if !s.Enabled {
		return &Config{}
	}
	cfg := &Config{
		Enabled:         true,
		DefaultLimit:    s.DefaultLimit,
		DefaultWindow:   s.DefaultWindow,
		CleanupInterval: s.CleanupInterval,
		IdleTTL:         s.IdleTTL,
		Whitelist:       ipSet(s.Allow),
		Blacklist:       ipSet(s.Deny),
		EndpointConfigs: DefaultEndpointConfigs(),
	}
	if cfg.DefaultLimit <= 0 {
		cfg.DefaultLimit = 1000
	}
	if cfg.DefaultWindow <= 0 {
		cfg.DefaultWindow = time.Minute
	}
	if cfg.CleanupInterval <= 0 {
		cfg.CleanupInterval = 5 * time.Minute
	}
	return cfg
}

// DefaultEndpointConfigs returns the per-route limits.
// Model calls and compiles get the tight hourly budget; other writes get a per-minute one.
func DefaultEndpointConfigs() []EndpointConfig {
	costly := func(method, path string) EndpointConfig {
		return EndpointConfig{Path: path, Method: method, Limit: 20, Window: time.Hour, Burst: 3}
	}
	write := func(method, path string) EndpointConfig {
		return EndpointConfig{Path: path, Method: method, Limit: 100, Window: time.Minute, Burst: 10}
	}
	return []EndpointConfig{
		costly(http.MethodPost, "/resumes/extract"),
		costly(http.MethodPost, "/resumes/*/tailor"),
		costly(http.MethodPost, "/resumes/*/generate-pdf"),
		costly(http.MethodPost, "/resumes/*/pdf/stream"),
		costly(http.MethodGet, "/resumes/*/pdf"),
		costly(http.MethodPost, "/generate-pdf"),
		costly(http.MethodPost, "/resumes/*/job-descriptions"),

		write(http.MethodPost, "/resumes"),
		write(http.MethodPut, "/resumes/*"),
		write(http.MethodDelete, "/resumes/*"),
		write(http.MethodPost, "/resumes/*/generate-latex"),
		write(http.MethodPost, "/resumes/*/pdf/jobs"),
		write(http.MethodPost, "/generate-latex"),
	}
}

func ipSet(ips []string) map[string]bool {
	set := make(map[string]bool, len(ips))
	for _, ip := range ips {
		if ip != "" {
			set[ip] = true
		}
	}
	return set
}
