package config

import (
	"fmt"
	"time"
)

// AuthConfig holds what the API needs to verify bearer tokens issued by the identity provider.
// Issuer and Audience are checked only when set.
type AuthConfig struct {
	JWTSecret string        `mapstructure:"jwt_secret"`
	Issuer    string        `mapstructure:"issuer"`
	Audience  string        `mapstructure:"audience"`
	Leeway    time.Duration `mapstructure:"leeway"`
}

// minSecretLength is the shortest HMAC secret accepted
const minSecretLength = 16

// RequireAuth validates the token settings needed to serve authenticated routes
func (c AuthConfig) RequireAuth() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("config error: 'auth.jwt_secret' (JWT_SECRET) is required")
	}
	if len(c.JWTSecret) < minSecretLength {
		return fmt.Errorf("config error: 'auth.jwt_secret' must be at least %d characters", minSecretLength)
	}
	return nil
}
