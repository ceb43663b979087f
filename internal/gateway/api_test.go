package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gptstir/chat-gateway/internal/auth"
	"github.com/gptstir/chat-gateway/internal/chat"
	"github.com/gptstir/chat-gateway/internal/config"
	"github.com/gptstir/chat-gateway/internal/provider"
	"github.com/gptstir/chat-gateway/internal/store"
)

type fakeInvoker struct {
	reply string
	err   error
}

func (f *fakeInvoker) Invoke(ctx context.Context, modelID, prompt string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

type testGateway struct {
	handler  http.Handler
	store    *store.SQLiteStore
	verifier *auth.JWTVerifier
}

func setupGateway(t *testing.T, invokers map[provider.Kind]provider.Invoker) *testGateway {
	t.Helper()

	st, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	registry := provider.NewRegistryWithInvokers(invokers)
	logger := slog.Default()

	cfg := &config.Config{
		CORS: config.CORSConfig{AllowedOrigins: []string{"http://localhost:3000"}},
	}
	gw := &Gateway{
		config:    cfg,
		store:     st,
		chat:      chat.New(st, registry, logger),
		providers: registry,
		logger:    logger,
	}

	verifier := auth.NewJWTVerifier([]byte("test-secret"))
	mux := gw.buildMux(verifier)

	return &testGateway{
		handler:  corsMiddleware(cfg.CORS.AllowedOrigins)(mux),
		store:    st,
		verifier: verifier,
	}
}

func (tg *testGateway) createUser(t *testing.T) (*store.User, string) {
	t.Helper()
	user := &store.User{
		ID:        uuid.New().String(),
		Email:     uuid.New().String() + "@example.com",
		Name:      "Test User",
		CreatedAt: time.Now(),
	}
	require.NoError(t, tg.store.CreateUser(context.Background(), user))

	token, err := tg.verifier.Generate(user.ID, time.Hour)
	require.NoError(t, err)
	return user, token
}

func (tg *testGateway) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	tg.handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&v))
	return v
}

func TestHealth_NoAuthRequired(t *testing.T) {
	tg := setupGateway(t, nil)

	rec := tg.do(t, http.MethodGet, "/health", "", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())
}

func TestSend_RequiresAuth(t *testing.T) {
	tg := setupGateway(t, nil)

	rec := tg.do(t, http.MethodPost, "/api/chat", "", SendRequest{
		Provider: "openai", Model: "gpt-4", Prompt: "hi",
	})

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestSend(t *testing.T) {
	tg := setupGateway(t, map[provider.Kind]provider.Invoker{
		provider.KindOpenAI: &fakeInvoker{reply: "Hello there!"},
	})
	_, token := tg.createUser(t)

	rec := tg.do(t, http.MethodPost, "/api/chat", token, SendRequest{
		Provider: "openai", Model: "GPT 4", Prompt: "Say hello",
	})

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	resp := decodeBody[SendResponse](t, rec)
	assert.Equal(t, "Hello there!", resp.Reply)
	assert.NotEmpty(t, resp.ConversationID)
	assert.NotEmpty(t, resp.MessageID)
}

func TestSend_Validation(t *testing.T) {
	tg := setupGateway(t, map[provider.Kind]provider.Invoker{
		provider.KindOpenAI: &fakeInvoker{reply: "x"},
	})
	_, token := tg.createUser(t)

	tests := []struct {
		name string
		req  SendRequest
	}{
		{"empty prompt", SendRequest{Provider: "openai", Model: "gpt-4"}},
		{"unknown provider", SendRequest{Provider: "gemini", Model: "m", Prompt: "hi"}},
		{"unconfigured provider", SendRequest{Provider: "grok", Model: "m", Prompt: "hi"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := tg.do(t, http.MethodPost, "/api/chat", token, tt.req)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestSend_ProviderFailure(t *testing.T) {
	tg := setupGateway(t, map[provider.Kind]provider.Invoker{
		provider.KindOpenAI: &fakeInvoker{err: &provider.Error{Kind: provider.KindOpenAI, Message: "boom"}},
	})
	_, token := tg.createUser(t)

	rec := tg.do(t, http.MethodPost, "/api/chat", token, SendRequest{
		Provider: "openai", Model: "gpt-4", Prompt: "hi",
	})

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	resp := decodeBody[map[string]string](t, rec)
	assert.Equal(t, "internal server error", resp["error"])
}

func TestSend_ForeignConversation(t *testing.T) {
	tg := setupGateway(t, map[provider.Kind]provider.Invoker{
		provider.KindOpenAI: &fakeInvoker{reply: "x"},
	})
	_, ownerToken := tg.createUser(t)
	_, intruderToken := tg.createUser(t)

	created := tg.do(t, http.MethodPost, "/api/chat/conversation", ownerToken, CreateConversationRequest{Title: "Private"})
	require.Equal(t, http.StatusCreated, created.Code)
	conv := decodeBody[ConversationResponse](t, created)

	rec := tg.do(t, http.MethodPost, "/api/chat", intruderToken, SendRequest{
		ConversationID: conv.ID, Provider: "openai", Model: "gpt-4", Prompt: "hi",
	})

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestConversationLifecycle(t *testing.T) {
	tg := setupGateway(t, map[provider.Kind]provider.Invoker{
		provider.KindClaude: &fakeInvoker{reply: "the reply"},
	})
	_, token := tg.createUser(t)

	// Create
	created := tg.do(t, http.MethodPost, "/api/chat/conversation", token, CreateConversationRequest{Title: "Planning"})
	require.Equal(t, http.StatusCreated, created.Code)
	conv := decodeBody[ConversationResponse](t, created)
	assert.Equal(t, "Planning", conv.Title)

	// Send into it
	sent := tg.do(t, http.MethodPost, "/api/chat", token, SendRequest{
		ConversationID: conv.ID, Provider: "claude", Model: "claude-sonnet-4-20250514", Prompt: "hello",
	})
	require.Equal(t, http.StatusOK, sent.Code)

	// History shows both turns
	hist := tg.do(t, http.MethodGet, "/api/chat/conversation/"+conv.ID, token, nil)
	require.Equal(t, http.StatusOK, hist.Code)
	msgs := decodeBody[[]MessageResponse](t, hist)
	require.Len(t, msgs, 2)
	assert.Equal(t, "user", msgs[0].Role)
	assert.Equal(t, "assistant", msgs[1].Role)
	assert.Equal(t, "claude-sonnet-4-20250514", msgs[0].Model)

	// Listing carries the preview
	list := tg.do(t, http.MethodGet, "/api/chat/conversations", token, nil)
	require.Equal(t, http.StatusOK, list.Code)
	convs := decodeBody[[]ConversationResponse](t, list)
	require.Len(t, convs, 1)
	require.NotNil(t, convs[0].LastMessage)
	assert.Equal(t, "the reply", *convs[0].LastMessage)

	// Rename
	renamed := tg.do(t, http.MethodPut, "/api/chat/conversation/"+conv.ID, token, RenameConversationRequest{Title: "Done"})
	require.Equal(t, http.StatusOK, renamed.Code)
	assert.Equal(t, "Done", decodeBody[ConversationResponse](t, renamed).Title)

	// Delete
	deleted := tg.do(t, http.MethodDelete, "/api/chat/conversation/"+conv.ID, token, nil)
	require.Equal(t, http.StatusNoContent, deleted.Code)

	gone := tg.do(t, http.MethodGet, "/api/chat/conversation/"+conv.ID, token, nil)
	assert.Equal(t, http.StatusNotFound, gone.Code)
}

func TestConversationRoutes_Ownership(t *testing.T) {
	tg := setupGateway(t, nil)
	_, ownerToken := tg.createUser(t)
	_, intruderToken := tg.createUser(t)

	created := tg.do(t, http.MethodPost, "/api/chat/conversation", ownerToken, CreateConversationRequest{})
	require.Equal(t, http.StatusCreated, created.Code)
	conv := decodeBody[ConversationResponse](t, created)

	// History read by a stranger is forbidden
	hist := tg.do(t, http.MethodGet, "/api/chat/conversation/"+conv.ID, intruderToken, nil)
	assert.Equal(t, http.StatusForbidden, hist.Code)

	// Rename and delete look like a missing conversation
	renamed := tg.do(t, http.MethodPut, "/api/chat/conversation/"+conv.ID, intruderToken, RenameConversationRequest{Title: "Mine"})
	assert.Equal(t, http.StatusNotFound, renamed.Code)

	deleted := tg.do(t, http.MethodDelete, "/api/chat/conversation/"+conv.ID, intruderToken, nil)
	assert.Equal(t, http.StatusNotFound, deleted.Code)

	// The stranger's listing stays empty
	list := tg.do(t, http.MethodGet, "/api/chat/conversations", intruderToken, nil)
	require.Equal(t, http.StatusOK, list.Code)
	assert.Empty(t, decodeBody[[]ConversationResponse](t, list))
}

func TestRename_EmptyTitle(t *testing.T) {
	tg := setupGateway(t, nil)
	_, token := tg.createUser(t)

	created := tg.do(t, http.MethodPost, "/api/chat/conversation", token, CreateConversationRequest{})
	conv := decodeBody[ConversationResponse](t, created)

	rec := tg.do(t, http.MethodPut, "/api/chat/conversation/"+conv.ID, token, RenameConversationRequest{Title: "  "})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMethodNotAllowed(t *testing.T) {
	tg := setupGateway(t, nil)
	_, token := tg.createUser(t)

	rec := tg.do(t, http.MethodDelete, "/api/chat", token, nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)

	rec = tg.do(t, http.MethodPost, "/api/chat/conversations", token, nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestCORS(t *testing.T) {
	tg := setupGateway(t, nil)

	req := httptest.NewRequest(http.MethodOptions, "/api/chat", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	rec := httptest.NewRecorder()
	tg.handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))

	// Unknown origins get no CORS headers
	req = httptest.NewRequest(http.MethodOptions, "/api/chat", nil)
	req.Header.Set("Origin", "http://evil.example.com")
	rec = httptest.NewRecorder()
	tg.handler.ServeHTTP(rec, req)

	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}
