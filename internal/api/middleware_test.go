package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/pratikx150/chat-app/internal/auth"
	"github.com/pratikx150/chat-app/internal/database"
	"github.com/stretchr/testify/assert"
)

func TestAuthMiddleware(t *testing.T) {
	validToken := func(t *testing.T) string {
		token, err := newTestAuthenticator(t).CreateToken("testuser", auth.DefaultTokenExpiration)
		assert.NoError(t, err, "failed to create token")
		return token
	}

	tcases := []struct {
		name       string
		authHeader func(t *testing.T) string
		expectNext bool
	}{
		{
			name:       "valid bearer token passes through",
			authHeader: func(t *testing.T) string { return "Bearer " + validToken(t) },
			expectNext: true,
		},
		{
			name:       "missing header is rejected",
			authHeader: func(t *testing.T) string { return "" },
		},
		{
			name:       "missing bearer prefix is rejected",
			authHeader: func(t *testing.T) string { return validToken(t) },
		},
		{
			name:       "garbage token is rejected",
			authHeader: func(t *testing.T) string { return "Bearer not-a-jwt" },
		},
		{
			name: "token signed with another key is rejected",
			authHeader: func(t *testing.T) string {
				other, err := auth.NewAuthenticator([]byte("some-other-key"))
				assert.NoError(t, err, "failed to create authenticator")
				token, err := other.CreateToken("testuser", auth.DefaultTokenExpiration)
				assert.NoError(t, err, "failed to create token")
				return "Bearer " + token
			},
		},
		{
			name: "expired token is rejected",
			authHeader: func(t *testing.T) string {
				token, err := newTestAuthenticator(t).CreateToken("testuser", -auth.DefaultTokenExpiration)
				assert.NoError(t, err, "failed to create token")
				return "Bearer " + token
			},
		},
	}

	for _, tc := range tcases {
		t.Run(tc.name, func(t *testing.T) {
			app := newTestApp(t, &database.MockChatRepository{}, nil, nil)

			var nextCalled bool
			handler := app.authMiddleware(func(w http.ResponseWriter, r *http.Request) {
				nextCalled = true
				username, ok := Username(r.Context())
				assert.True(t, ok, "expected identity in request context")
				assert.Equal(t, "testuser", username, "expected identity to match the token subject")
				w.WriteHeader(http.StatusOK)
			})

			req := httptest.NewRequest(http.MethodPost, "/api/messages", nil)
			if header := tc.authHeader(t); header != "" {
				req.Header.Set("Authorization", header)
			}

			rr := httptest.NewRecorder()
			handler(rr, req)

			assert.Equal(t, tc.expectNext, nextCalled, "expected next handler invocation to match")
			if tc.expectNext {
				assert.Equal(t, http.StatusOK, rr.Code)
				assert.Contains(t, rr.Header().Get("Cache-Control"), "no-store", "expected authenticated responses to be uncacheable")
			} else {
				var apiErr ApiError
				err := json.NewDecoder(rr.Body).Decode(&apiErr)
				assert.NoError(t, err, "failed to decode error response")
				assert.Equal(t, http.StatusUnauthorized, rr.Code)
				assert.Equal(t, *NewUnauthorizedError(), apiErr)
			}
		})
	}
}

func TestErrorHandler(t *testing.T) {
	app := newTestApp(t, &database.MockChatRepository{}, nil, nil)

	handler := app.errorHandler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic(errors.New("boom"))
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/messages", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusInternalServerError, rr.Code, "expected panic to become a 500")

	var apiErr ApiError
	err := json.NewDecoder(rr.Body).Decode(&apiErr)
	assert.NoError(t, err, "failed to decode error response")
	assert.Equal(t, http.StatusInternalServerError, apiErr.StatusCode)
}

func TestUsernameContext(t *testing.T) {
	ctx := WithUsername(context.Background(), "alice")
	username, ok := Username(ctx)
	assert.True(t, ok, "expected identity to be present")
	assert.Equal(t, "alice", username)

	_, ok = Username(context.Background())
	assert.False(t, ok, "expected no identity on a bare context")
}
