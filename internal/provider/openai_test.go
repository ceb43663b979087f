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

func TestOpenAIClient_Invoke(t *testing.T) {
	var gotPath, gotAuth string
	var gotReq chatCompletionRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]string{"role": "assistant", "content": "Hello there!"}},
			},
		})
	}))
	defer srv.Close()

	client := NewOpenAIClient(KindOpenAI, ClientConfig{APIKey: "sk-test", BaseURL: srv.URL})

	reply, err := client.Invoke(context.Background(), "gpt-4-turbo", "Say hello")
	require.NoError(t, err)
	assert.Equal(t, "Hello there!", reply)

	assert.Equal(t, "/chat/completions", gotPath)
	assert.Equal(t, "Bearer sk-test", gotAuth)
	assert.Equal(t, "gpt-4-turbo", gotReq.Model)
	require.Len(t, gotReq.Messages, 1)
	assert.Equal(t, "user", gotReq.Messages[0].Role)
	assert.Equal(t, "Say hello", gotReq.Messages[0].Content)
}

func TestOpenAIClient_Invoke_UpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"rate limit exceeded"}}`))
	}))
	defer srv.Close()

	client := NewOpenAIClient(KindGrok, ClientConfig{APIKey: "xai-test", BaseURL: srv.URL})

	_, err := client.Invoke(context.Background(), "grok-2-latest", "hi")
	require.Error(t, err)

	var provErr *Error
	require.True(t, errors.As(err, &provErr))
	assert.Equal(t, KindGrok, provErr.Kind)
	assert.Contains(t, provErr.Message, "rate limit exceeded")
	assert.Contains(t, provErr.Message, "429")
}

func TestOpenAIClient_Invoke_EmptyCompletion(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	client := NewOpenAIClient(KindDeepseek, ClientConfig{APIKey: "ds-test", BaseURL: srv.URL})

	_, err := client.Invoke(context.Background(), "deepseek-chat", "hi")
	var provErr *Error
	require.True(t, errors.As(err, &provErr))
	assert.Equal(t, KindDeepseek, provErr.Kind)
	assert.Contains(t, provErr.Message, "empty completion")
}

func TestOpenAIClient_Invoke_EmptyPrompt(t *testing.T) {
	client := NewOpenAIClient(KindOpenAI, ClientConfig{APIKey: "sk-test"})

	_, err := client.Invoke(context.Background(), "gpt-4", "")
	var provErr *Error
	require.True(t, errors.As(err, &provErr))
	assert.Contains(t, provErr.Message, "empty prompt")
}

func TestOpenAIClient_Invoke_ContextCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	client := NewOpenAIClient(KindOpenAI, ClientConfig{APIKey: "sk-test", BaseURL: srv.URL})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.Invoke(ctx, "gpt-4", "hi")
	var provErr *Error
	require.True(t, errors.As(err, &provErr))
	assert.Equal(t, KindOpenAI, provErr.Kind)
}

func TestOpenAIClient_DefaultBaseURLs(t *testing.T) {
	assert.Equal(t, deepseekBaseURL, NewOpenAIClient(KindDeepseek, ClientConfig{}).baseURL)
	assert.Equal(t, grokBaseURL, NewOpenAIClient(KindGrok, ClientConfig{}).baseURL)
	assert.Equal(t, openAIBaseURL, NewOpenAIClient(KindOpenAI, ClientConfig{}).baseURL)
}
