package server

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/resume-builder/internal/config"
)

const testSecret = "test-secret-0123456789"

func signToken(t *testing.T, secret string, method jwt.SigningMethod, claims jwt.RegisteredClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(method, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func validClaims(userID uuid.UUID) jwt.RegisteredClaims {
	now := time.Now()
	return jwt.RegisteredClaims{
		Subject:   userID.String(),
		Issuer:    "https://auth.example.com",
		Audience:  jwt.ClaimStrings{"authenticated"},
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
	}
}

func TestTokenVerifier_Valid(t *testing.T) {
	userID := uuid.New()
	verifier := NewTokenVerifier(config.AuthConfig{JWTSecret: testSecret, Issuer: "https://auth.example.com", Audience: "authenticated"})

	got, err := verifier.ValidateToken(signToken(t, testSecret, jwt.SigningMethodHS256, validClaims(userID)))
	require.NoError(t, err)
	assert.Equal(t, userID, got)
}

func TestTokenVerifier_Rejects(t *testing.T) {
	userID := uuid.New()
	verifier := NewTokenVerifier(config.AuthConfig{JWTSecret: testSecret, Issuer: "https://auth.example.com", Audience: "authenticated"})

	expired := validClaims(userID)
	expired.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Hour))

	noExpiry := validClaims(userID)
	noExpiry.ExpiresAt = nil

	wrongIssuer := validClaims(userID)
	wrongIssuer.Issuer = "https://evil.example.com"

	wrongAudience := validClaims(userID)
	wrongAudience.Audience = jwt.ClaimStrings{"anon"}

	badSubject := validClaims(userID)
	badSubject.Subject = "not-a-uuid"

	tests := []struct {
		name  string
		token string
		want  string
	}{
		{"empty", "", "empty"},
		{"malformed", "not.a.token", "malformed"},
		{"wrong secret", signToken(t, "another-secret-0123456789", jwt.SigningMethodHS256, validClaims(userID)), "signature"},
		{"wrong algorithm", signToken(t, testSecret, jwt.SigningMethodHS512, validClaims(userID)), "signature"},
		{"expired", signToken(t, testSecret, jwt.SigningMethodHS256, expired), "expired"},
		{"no expiry", signToken(t, testSecret, jwt.SigningMethodHS256, noExpiry), "failed to parse"},
		{"wrong issuer", signToken(t, testSecret, jwt.SigningMethodHS256, wrongIssuer), "failed to parse"},
		{"wrong audience", signToken(t, testSecret, jwt.SigningMethodHS256, wrongAudience), "failed to parse"},
		{"bad subject", signToken(t, testSecret, jwt.SigningMethodHS256, badSubject), "subject"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := verifier.ValidateToken(tt.token)
			assert.ErrorContains(t, err, tt.want)
		})
	}
}

func TestTokenVerifier_Leeway(t *testing.T) {
	userID := uuid.New()
	claims := validClaims(userID)
	claims.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-10 * time.Second))
	token := signToken(t, testSecret, jwt.SigningMethodHS256, claims)

	strict := NewTokenVerifier(config.AuthConfig{JWTSecret: testSecret})
	_, err := strict.ValidateToken(token)
	assert.Error(t, err)

	lenient := NewTokenVerifier(config.AuthConfig{JWTSecret: testSecret, Leeway: time.Minute})
	got, err := lenient.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, userID, got)
}
