package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gptstir/chat-gateway/internal/store"
)

type fakeUserStore struct {
	users map[string]*store.User
}

func (f *fakeUserStore) GetUser(ctx context.Context, id string) (*store.User, error) {
	user, ok := f.users[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return user, nil
}

func setupMiddleware(t *testing.T) (*JWTVerifier, http.Handler, *store.User) {
	t.Helper()

	user := &store.User{ID: "user-1", Email: "a@example.com", Name: "Alice"}
	users := &fakeUserStore{users: map[string]*store.User{user.ID: user}}
	verifier := NewJWTVerifier([]byte("test-secret"))

	handler := Middleware(users, verifier)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got := UserFromContext(r.Context())
		require.NotNil(t, got)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(got.ID))
	}))

	return verifier, handler, user
}

func TestMiddleware_ValidToken(t *testing.T) {
	verifier, handler, user := setupMiddleware(t)

	token, err := verifier.Generate(user.ID, time.Hour)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/chat/conversations", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, user.ID, rec.Body.String())
}

func TestMiddleware_Rejections(t *testing.T) {
	verifier, handler, _ := setupMiddleware(t)

	unknownUserToken, err := verifier.Generate("no-such-user", time.Hour)
	require.NoError(t, err)

	otherSecret, err := NewJWTVerifier([]byte("other-secret")).Generate("user-1", time.Hour)
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"not bearer", "Basic dXNlcjpwYXNz"},
		{"empty token", "Bearer "},
		{"bad signature", "Bearer " + otherSecret},
		{"unknown user", "Bearer " + unknownUserToken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/chat/conversations", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Contains(t, rec.Body.String(), "error")
		})
	}
}

func TestUserFromContext_Absent(t *testing.T) {
	assert.Nil(t, UserFromContext(context.Background()))
}
