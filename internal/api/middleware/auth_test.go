package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taskshare/task-api/internal/service/auth"
)

type stubJWTService struct {
	claims *auth.Claims
	err    error
}

func (s *stubJWTService) GenerateToken(context.Context, uuid.UUID) (string, error) {
	return "", nil
}

func (s *stubJWTService) ValidateToken(context.Context, string) (*auth.Claims, error) {
	return s.claims, s.err
}

func (s *stubJWTService) GenerateRefreshToken(context.Context, uuid.UUID) (string, error) {
	return "", nil
}

func (s *stubJWTService) ValidateRefreshToken(context.Context, string) (*auth.Claims, error) {
	return s.claims, s.err
}

func (s *stubJWTService) AccessTokenLifetime() time.Duration { return time.Hour }

func authedProbe(t *testing.T, jwt auth.JWTService, header string) (*httptest.ResponseRecorder, uuid.UUID, bool) {
	t.Helper()

	var gotID uuid.UUID
	var gotOK bool
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotID, gotOK = GetUserID(r)
		w.WriteHeader(http.StatusOK)
	})

	r := httptest.NewRequest(http.MethodGet, "/api/tasks", nil)
	if header != "" {
		r.Header.Set("Authorization", header)
	}
	w := httptest.NewRecorder()

	NewAuthMiddleware(jwt).Authenticate(next).ServeHTTP(w, r)
	return w, gotID, gotOK
}

func TestAuthenticate(t *testing.T) {
	userID := uuid.New()

	t.Run("valid token reaches the handler with the user ID", func(t *testing.T) {
		jwt := &stubJWTService{claims: &auth.Claims{UserID: userID, TokenType: "access"}}

		w, gotID, gotOK := authedProbe(t, jwt, "Bearer good-token")

		require.Equal(t, http.StatusOK, w.Code)
		assert.True(t, gotOK)
		assert.Equal(t, userID, gotID)
	})

	t.Run("missing header", func(t *testing.T) {
		w, _, gotOK := authedProbe(t, &stubJWTService{}, "")

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "Authorization header required")
		assert.False(t, gotOK)
	})

	t.Run("not a bearer scheme", func(t *testing.T) {
		w, _, _ := authedProbe(t, &stubJWTService{}, "Basic dXNlcjpwYXNz")

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "Invalid authorization format")
	})

	t.Run("expired token", func(t *testing.T) {
		jwt := &stubJWTService{err: auth.ErrExpiredToken}

		w, _, _ := authedProbe(t, jwt, "Bearer stale-token")

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "Token expired")
	})

	t.Run("refresh token on an access route", func(t *testing.T) {
		jwt := &stubJWTService{err: auth.ErrWrongTokenType}

		w, _, _ := authedProbe(t, jwt, "Bearer refresh-token")

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "Invalid token")
	})

	t.Run("validator failure is a server error", func(t *testing.T) {
		jwt := &stubJWTService{err: assert.AnError}

		w, _, _ := authedProbe(t, jwt, "Bearer token")

		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})
}

func TestGetUserIDWithoutAuthentication(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/api/tasks", nil)
	_, ok := GetUserID(r)
	assert.False(t, ok)
}
