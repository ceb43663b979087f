// ABOUTME: Anthropic messages API client for the claude provider kind
// ABOUTME: Distinct envelope from the OpenAI-compatible backends (x-api-key, content blocks)

package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"time"
)

const (
	anthropicBaseURL = "https://api.anthropic.com"
	anthropicVersion = "2023-06-01"

	// defaultMaxTokens caps the completion length when config doesn't set one.
	// The messages API requires max_tokens on every request.
	defaultMaxTokens = 1000
)

// AnthropicClient speaks the Anthropic messages envelope.
type AnthropicClient struct {
	baseURL   string
	apiKey    string
	maxTokens int
	client    *http.Client
	logger    *slog.Logger
}

// NewAnthropicClient creates a client for the claude kind.
func NewAnthropicClient(cfg ClientConfig) *AnthropicClient {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = anthropicBaseURL
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}

	return &AnthropicClient{
		baseURL:   baseURL,
		apiKey:    cfg.APIKey,
		maxTokens: maxTokens,
		client:    &http.Client{Timeout: timeout},
		logger:    slog.Default().With("component", "provider", "kind", string(KindClaude)),
	}
}

type anthropicRequest struct {
	Model     string        `json:"model"`
	MaxTokens int           `json:"max_tokens"`
	Messages  []chatMessage `json:"messages"`
}

type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Invoke sends a single-turn message request and returns the reply text.
func (c *AnthropicClient) Invoke(ctx context.Context, modelID, prompt string) (string, error) {
	if prompt == "" {
		return "", newError(KindClaude, nil, "empty prompt")
	}

	body, err := json.Marshal(anthropicRequest{
		Model:     modelID,
		MaxTokens: c.maxTokens,
		Messages:  []chatMessage{{Role: "user", Content: prompt}},
	})
	if err != nil {
		return "", newError(KindClaude, err, "encoding request")
	}

	url := c.baseURL + "/v1/messages"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", newError(KindClaude, err, "creating request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("anthropic-version", anthropicVersion)

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		return "", newError(KindClaude, err, "calling %s", url)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", newError(KindClaude, err, "reading response")
	}

	if resp.StatusCode != http.StatusOK {
		return "", newError(KindClaude, nil, "status %d: %s", resp.StatusCode, upstreamMessage(respBody))
	}

	var message anthropicResponse
	if err := json.Unmarshal(respBody, &message); err != nil {
		return "", newError(KindClaude, err, "decoding response")
	}

	for _, block := range message.Content {
		if block.Type == "text" && block.Text != "" {
			c.logger.Debug("completion received", "model", modelID, "duration", time.Since(start))
			return block.Text, nil
		}
	}

	return "", newError(KindClaude, nil, "empty completion for model %s", modelID)
}

var _ Invoker = (*AnthropicClient)(nil)
