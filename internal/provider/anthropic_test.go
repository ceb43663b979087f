package provider

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnthropicClient_Invoke(t *testing.T) {
	var gotPath, gotKey, gotVersion string
	var gotReq anthropicRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get("x-api-key")
		gotVersion = r.Header.Get("anthropic-version")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"content": []map[string]string{
				{"type": "text", "text": "Greetings!"},
			},
		})
	}))
	defer srv.Close()

	client := NewAnthropicClient(ClientConfig{APIKey: "sk-ant-test", BaseURL: srv.URL})

	reply, err := client.Invoke(context.Background(), "claude-sonnet-4-20250514", "Say hello")
	require.NoError(t, err)
	assert.Equal(t, "Greetings!", reply)

	assert.Equal(t, "/v1/messages", gotPath)
	assert.Equal(t, "sk-ant-test", gotKey)
	assert.Equal(t, anthropicVersion, gotVersion)
	assert.Equal(t, "claude-sonnet-4-20250514", gotReq.Model)
	assert.Equal(t, defaultMaxTokens, gotReq.MaxTokens)
	require.Len(t, gotReq.Messages, 1)
	assert.Equal(t, "user", gotReq.Messages[0].Role)
}

func TestAnthropicClient_Invoke_UpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"invalid x-api-key"}}`))
	}))
	defer srv.Close()

	client := NewAnthropicClient(ClientConfig{APIKey: "bad-key", BaseURL: srv.URL})

	_, err := client.Invoke(context.Background(), "claude-sonnet-4-20250514", "hi")
	require.Error(t, err)

	var provErr *Error
	require.True(t, errors.As(err, &provErr))
	assert.Equal(t, KindClaude, provErr.Kind)
	assert.Contains(t, provErr.Message, "invalid x-api-key")
}

func TestAnthropicClient_Invoke_NoTextBlock(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"content":[]}`))
	}))
	defer srv.Close()

	client := NewAnthropicClient(ClientConfig{APIKey: "sk-ant-test", BaseURL: srv.URL})

	_, err := client.Invoke(context.Background(), "claude-sonnet-4-20250514", "hi")
	var provErr *Error
	require.True(t, errors.As(err, &provErr))
	assert.Contains(t, provErr.Message, "empty completion")
}

func TestAnthropicClient_MaxTokensFromConfig(t *testing.T) {
	var gotReq anthropicRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		_, _ = w.Write([]byte(`{"content":[{"type":"text","text":"ok"}]}`))
	}))
	defer srv.Close()

	client := NewAnthropicClient(ClientConfig{APIKey: "k", BaseURL: srv.URL, MaxTokens: 4096})

	_, err := client.Invoke(context.Background(), "claude-sonnet-4-20250514", "hi")
	require.NoError(t, err)
	assert.Equal(t, 4096, gotReq.MaxTokens)
}
