package ratelimit

import (
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLimiter(t *testing.T, cfg *Config) *Limiter {
	t.Helper()
	l := NewLimiter(cfg)
	t.Cleanup(l.Stop)
	return l
}

func TestLimiter_Allow(t *testing.T) {
	limiter := newTestLimiter(t, &Config{Enabled: true, DefaultLimit: 10, DefaultWindow: time.Minute})
	now := time.Now()
	limiter.now = func() time.Time { return now }

	for i := 0; i < 10; i++ {
		allowed, info := limiter.Allow("127.0.0.1", "/resumes", "GET")
		require.True(t, allowed, "request %d", i+1)
		assert.Equal(t, 10, info.Limit)
		assert.Equal(t, 9-i, info.Remaining)
	}

	allowed, info := limiter.Allow("127.0.0.1", "/resumes", "GET")
	assert.False(t, allowed)
	assert.Equal(t, 0, info.Remaining)
	assert.InDelta(t, float64(6*time.Second), float64(info.RetryAfter), float64(time.Millisecond))
	assert.True(t, info.ResetTime.After(now))
}

func TestLimiter_Refill(t *testing.T) {
	limiter := newTestLimiter(t, &Config{Enabled: true, DefaultLimit: 60, DefaultWindow: time.Minute})
	now := time.Now()
	limiter.now = func() time.Time { return now }

	for i := 0; i < 60; i++ {
		allowed, _ := limiter.Allow("c", "/x", "GET")
		require.True(t, allowed)
	}
	allowed, _ := limiter.Allow("c", "/x", "GET")
	require.False(t, allowed)

	now = now.Add(time.Second)
	allowed, _ = limiter.Allow("c", "/x", "GET")
	assert.True(t, allowed)
	allowed, _ = limiter.Allow("c", "/x", "GET")
	assert.False(t, allowed)
}

func TestLimiter_WhitelistAndBlacklist(t *testing.T) {
	limiter := newTestLimiter(t, &Config{
		Enabled:       true,
		DefaultLimit:  1,
		DefaultWindow: time.Minute,
		Whitelist:     map[string]bool{"10.0.0.1": true},
		Blacklist:     map[string]bool{"10.0.0.2": true},
	})

	for i := 0; i < 50; i++ {
		allowed, info := limiter.Allow("10.0.0.1", "/resumes", "GET")
		require.True(t, allowed)
		assert.Zero(t, info.Limit)
	}

	allowed, _ := limiter.Allow("10.0.0.2", "/resumes", "GET")
	assert.False(t, allowed)
}

func TestLimiter_Disabled(t *testing.T) {
	limiter := newTestLimiter(t, &Config{Enabled: false})
	assert.False(t, limiter.Enabled())

	for i := 0; i < 100; i++ {
		allowed, info := limiter.Allow("127.0.0.1", "/resumes/extract", "POST")
		require.True(t, allowed)
		assert.Zero(t, info.Limit)
	}
}

func TestLimiter_EndpointSpecific(t *testing.T) {
	limiter := newTestLimiter(t, &Config{
		Enabled:         true,
		DefaultLimit:    1000,
		DefaultWindow:   time.Minute,
		EndpointConfigs: []EndpointConfig{{Path: "/resumes/*/tailor", Method: "POST", Limit: 5, Window: time.Hour, Burst: 5}},
	})

	// Different resumes share the route bucket
	for i := 0; i < 5; i++ {
		allowed, info := limiter.Allow("c", fmt.Sprintf("/resumes/id-%d/tailor", i), "POST")
		require.True(t, allowed)
		assert.Equal(t, 5, info.Limit)
	}
	allowed, _ := limiter.Allow("c", "/resumes/other/tailor", "POST")
	assert.False(t, allowed)

	allowed, info := limiter.Allow("c", "/resumes/other", "GET")
	assert.True(t, allowed)
	assert.Equal(t, 1000, info.Limit)
}

func TestLimiter_Burst(t *testing.T) {
	limiter := newTestLimiter(t, &Config{
		Enabled:         true,
		DefaultLimit:    10,
		DefaultWindow:   time.Minute,
		EndpointConfigs: []EndpointConfig{{Path: "/generate-pdf", Method: "POST", Limit: 10, Window: time.Minute, Burst: 5}},
	})
	now := time.Now()
	limiter.now = func() time.Time { return now }

	for i := 0; i < 5; i++ {
		allowed, _ := limiter.Allow("c", "/generate-pdf", "POST")
		require.True(t, allowed)
	}
	allowed, _ := limiter.Allow("c", "/generate-pdf", "POST")
	assert.False(t, allowed)
}

func TestLimiter_Concurrent(t *testing.T) {
	limiter := newTestLimiter(t, &Config{Enabled: true, DefaultLimit: 100, DefaultWindow: time.Hour})

	var wg sync.WaitGroup
	var allowedCount atomic.Int32
	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if allowed, _ := limiter.Allow("127.0.0.1", "/resumes", "GET"); allowed {
				allowedCount.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(100), allowedCount.Load())
}

func TestLimiter_EvictIdle(t *testing.T) {
	limiter := newTestLimiter(t, &Config{Enabled: true, DefaultLimit: 10, DefaultWindow: time.Minute, IdleTTL: time.Minute})
	now := time.Now()
	limiter.now = func() time.Time { return now }

	for i := 0; i < 10; i++ {
		limiter.Allow(fmt.Sprintf("10.0.0.%d", i), "/resumes", "GET")
	}
	now = now.Add(30 * time.Second)
	for i := 0; i < 5; i++ {
		limiter.Allow(fmt.Sprintf("10.0.0.%d", i), "/resumes", "GET")
	}

	now = now.Add(45 * time.Second)
	assert.Equal(t, 5, limiter.evictIdle())
	assert.Len(t, limiter.buckets, 5)
}

func TestLimiter_StopTwice(t *testing.T) {
	limiter := NewLimiter(&Config{Enabled: true, DefaultLimit: 1, DefaultWindow: time.Minute, CleanupInterval: time.Millisecond})
	limiter.Stop()
	limiter.Stop()
}

func TestNewLimiter_NilConfig(t *testing.T) {
	limiter := newTestLimiter(t, nil)

	allowed, info := limiter.Allow("127.0.0.1", "/resumes", "GET")
	assert.True(t, allowed)
	assert.Equal(t, 1000, info.Limit)
}

func TestMatchEndpoint(t *testing.T) {
	configs := DefaultEndpointConfigs()

	tests := []struct {
		path, method string
		wantPath     string
	}{
		{"/resumes/extract", "POST", "/resumes/extract"},
		{"/resumes/abc/tailor", "POST", "/resumes/*/tailor"},
		{"/resumes/abc/pdf", "GET", "/resumes/*/pdf"},
		{"/resumes/abc/pdf/jobs", "POST", "/resumes/*/pdf/jobs"},
		{"/resumes/abc", "PUT", "/resumes/*"},
		{"/resumes", "POST", "/resumes"},
		{"/resumes/abc", "GET", ""},
		{"/resumes/abc/tailor/extra", "POST", ""},
	}
	for _, tt := range tests {
		match := MatchEndpoint(tt.path, tt.method, configs)
		if tt.wantPath == "" {
			assert.Nil(t, match, "%s %s", tt.method, tt.path)
			continue
		}
		require.NotNil(t, match, "%s %s", tt.method, tt.path)
		assert.Equal(t, tt.wantPath, match.Path)
	}

	health := MatchEndpoint("/health", "GET", configs)
	require.NotNil(t, health)
	assert.Zero(t, health.Limit)
}

func TestSettings_Config(t *testing.T) {
	cfg := Settings{Enabled: true, DefaultLimit: 42, Allow: []string{"10.0.0.1", "10.0.0.2"}, Deny: []string{"192.0.2.7"}}.Config()
	assert.True(t, cfg.Enabled)
	assert.Equal(t, 42, cfg.DefaultLimit)
	assert.Equal(t, time.Minute, cfg.DefaultWindow)
	assert.Equal(t, 5*time.Minute, cfg.CleanupInterval)
	assert.True(t, cfg.Whitelist["10.0.0.2"])
	assert.True(t, cfg.Blacklist["192.0.2.7"])
	assert.NotEmpty(t, cfg.EndpointConfigs)

	off := Settings{DefaultLimit: 42}.Config()
	assert.False(t, off.Enabled)
	assert.Empty(t, off.EndpointConfigs)
}
