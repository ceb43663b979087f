// ABOUTME: OpenAI-compatible chat completion client used for openai, deepseek, and grok
// ABOUTME: Same wire envelope, different base URLs and credentials per kind

package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// Default endpoints for the OpenAI-compatible backends.
const (
	openAIBaseURL   = "https://api.openai.com/v1"
	deepseekBaseURL = "https://api.deepseek.com/v1"
	grokBaseURL     = "https://api.x.ai/v1"
)

// defaultTimeout bounds a single completion call when the config doesn't
// set one. A hung provider must not hang the request.
const defaultTimeout = 60 * time.Second

// ClientConfig holds per-backend settings supplied from configuration.
type ClientConfig struct {
	APIKey    string
	BaseURL   string
	Timeout   time.Duration
	MaxTokens int
}

// OpenAIClient speaks the OpenAI chat-completions envelope. Deepseek and
// Grok expose the same API shape, so one client type serves all three kinds.
type OpenAIClient struct {
	kind    Kind
	baseURL string
	apiKey  string
	client  *http.Client
	logger  *slog.Logger
}

// NewOpenAIClient creates a client for one of the OpenAI-compatible kinds.
// An empty BaseURL selects the kind's default endpoint.
func NewOpenAIClient(kind Kind, cfg ClientConfig) *OpenAIClient {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		switch kind {
		case KindDeepseek:
			baseURL = deepseekBaseURL
		case KindGrok:
			baseURL = grokBaseURL
		default:
			baseURL = openAIBaseURL
		}
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	return &OpenAIClient{
		kind:    kind,
		baseURL: baseURL,
		apiKey:  cfg.APIKey,
		client:  &http.Client{Timeout: timeout},
		logger:  slog.Default().With("component", "provider", "kind", string(kind)),
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Invoke sends a single-turn completion request and returns the reply text.
func (c *OpenAIClient) Invoke(ctx context.Context, modelID, prompt string) (string, error) {
	if prompt == "" {
		return "", newError(c.kind, nil, "empty prompt")
	}

	body, err := json.Marshal(chatCompletionRequest{
		Model:    modelID,
		Messages: []chatMessage{{Role: "user", Content: prompt}},
	})
	if err != nil {
		return "", newError(c.kind, err, "encoding request")
	}

	url := c.baseURL + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", newError(c.kind, err, "creating request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		return "", newError(c.kind, err, "calling %s", url)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", newError(c.kind, err, "reading response")
	}

	if resp.StatusCode != http.StatusOK {
		return "", newError(c.kind, nil, "status %d: %s", resp.StatusCode, upstreamMessage(respBody))
	}

	var completion chatCompletionResponse
	if err := json.Unmarshal(respBody, &completion); err != nil {
		return "", newError(c.kind, err, "decoding response")
	}

	if len(completion.Choices) == 0 || completion.Choices[0].Message.Content == "" {
		return "", newError(c.kind, nil, "empty completion for model %s", modelID)
	}

	c.logger.Debug("completion received", "model", modelID, "duration", time.Since(start))
	return completion.Choices[0].Message.Content, nil
}

// upstreamMessage extracts a human-readable error message from an error
// response body, falling back to a truncated raw body.
func upstreamMessage(body []byte) string {
	var parsed struct {
		Error *struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &parsed); err == nil && parsed.Error != nil && parsed.Error.Message != "" {
		return parsed.Error.Message
	}
	const maxLen = 200
	if len(body) > maxLen {
		return fmt.Sprintf("%s...", body[:maxLen])
	}
	return string(body)
}

var _ Invoker = (*OpenAIClient)(nil)
