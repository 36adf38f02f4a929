package remote

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/bytedance/sonic"

	"github.com/gy212/cheekai-detect/internal/config"
)

type anthropicRequest struct {
	Model     string        `json:"model"`
	MaxTokens int           `json:"max_tokens"`
	Messages  []chatMessage `json:"messages"`
}

type anthropicContentBlock struct {
	Text *string `json:"text"`
}

type anthropicResponse struct {
	Content []anthropicContentBlock `json:"content"`
}

// isOfficialAnthropicURL reports whether url points at Anthropic's own API
// (which wants x-api-key) as opposed to a relay expecting Bearer auth.
func isOfficialAnthropicURL(url string) bool {
	return strings.Contains(url, "api.anthropic.com")
}

// callAnthropic combines system+user into one user message (some relays
// this pipeline targets don't honor a separate system field) and sets both
// x-api-key and, for non-official relays, a Bearer Authorization header.
func (c *Client) callAnthropic(ctx context.Context, url, model, apiKey, system, user string, maxTokens int) (ChatResult, error) {
	req := anthropicRequest{
		Model:     model,
		MaxTokens: maxTokens,
		Messages: []chatMessage{
			{Role: "user", Content: joinSystemUser(system, user)},
		},
	}
	buf, err := sonic.Marshal(req)
	if err != nil {
		return ChatResult{}, fmt.Errorf("remote: marshal anthropic request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(buf))
	if err != nil {
		return ChatResult{}, fmt.Errorf("remote: build anthropic request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if isOfficialAnthropicURL(url) {
		httpReq.Header.Set("x-api-key", apiKey)
	} else {
		httpReq.Header.Set("Authorization", "Bearer "+apiKey)
		httpReq.Header.Set("x-api-key", apiKey)
	}
	httpReq.Header.Set("anthropic-version", "2024-10-22")

	start := time.Now()
	resp, err := c.HTTP.Do(httpReq)
	if err != nil {
		return ChatResult{}, fmt.Errorf("remote: anthropic request failed: %w", err)
	}
	defer resp.Body.Close()
	latency := time.Since(start).Milliseconds()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return ChatResult{}, fmt.Errorf("remote: read anthropic response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return ChatResult{}, &APIError{Provider: config.ProviderAnthropic, Status: resp.StatusCode, Body: string(body)}
	}

	var parsed anthropicResponse
	if err := sonic.Unmarshal(body, &parsed); err != nil {
		return ChatResult{}, fmt.Errorf("remote: decode anthropic response: %w", err)
	}
	if len(parsed.Content) == 0 || parsed.Content[0].Text == nil {
		return ChatResult{}, ErrMissingContent
	}
	return ChatResult{Content: *parsed.Content[0].Text, LatencyMs: latency}, nil
}
