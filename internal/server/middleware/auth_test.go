package middleware

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticValidator map[string]uuid.UUID

func (v staticValidator) ValidateToken(token string) (uuid.UUID, error) {
	userID, ok := v[token]
	if !ok {
		return uuid.Nil, errors.New("invalid token")
	}
	return userID, nil
}

func protected(t *testing.T, validator TokenValidator) (http.Handler, *uuid.UUID) {
	t.Helper()
	seen := new(uuid.UUID)
	handler := Auth(validator)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, ok := UserID(r.Context())
		require.True(t, ok)
		*seen = userID
		w.WriteHeader(http.StatusNoContent)
	}))
	return handler, seen
}

func TestAuth_ValidToken(t *testing.T) {
	userID := uuid.New()
	handler, seen := protected(t, staticValidator{"good": userID})

	for _, header := range []string{"Bearer good", "bearer good", "BEARER   good"} {
		req := httptest.NewRequest(http.MethodGet, "/resumes", nil)
		req.Header.Set("Authorization", header)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNoContent, w.Code, header)
		assert.Equal(t, userID, *seen)
	}
}

func TestAuth_Rejects(t *testing.T) {
	handler, _ := protected(t, staticValidator{"good": uuid.New(), "nil-user": uuid.Nil})

	headers := []string{"", "good", "Basic good", "Bearer", "Bearer bad", "Bearer good extra", "Bearer nil-user"}
	for _, header := range headers {
		req := httptest.NewRequest(http.MethodGet, "/resumes", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code, header)
		assert.Contains(t, w.Header().Get("WWW-Authenticate"), "Bearer")

		var body map[string]string
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, "unauthorized", body["error"], header)
		assert.NotEmpty(t, body["message"])
	}
}

func TestUserID_MissingFromContext(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	_, ok := UserID(req.Context())
	assert.False(t, ok)

	_, ok = UserID(WithUserID(req.Context(), uuid.Nil))
	assert.False(t, ok)
}
