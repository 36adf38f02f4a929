// Package remote implements component F: bounded-concurrency calls to the
// five supported chat-completion providers (GLM, DeepSeek, OpenAI, Gemini,
// Anthropic/Claude), with a uniform ChatResult regardless of the wire shape
// each provider's API actually uses.
package remote

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"golang.org/x/sync/semaphore"

	"github.com/gy212/cheekai-detect/internal/config"
)

// AnalyzerSem bounds the number of in-flight paragraph/segment analyzer
// calls across the whole process, regardless of provider.
var AnalyzerSem = semaphore.NewWeighted(int64(config.AnalyzerConcurrency))

// DeepSeekSentenceSem bounds the number of in-flight DeepSeek sentence-pass
// calls independently of AnalyzerSem, so the two passes can run in parallel
// without starving each other.
var DeepSeekSentenceSem = semaphore.NewWeighted(int64(config.DeepSeekSentenceConcurrency))

var ErrMissingContent = errors.New("remote: response carried no usable content")
var ErrMissingAPIKey = errors.New("remote: no API key configured for provider")

// APIError wraps a non-2xx HTTP response from a provider.
type APIError struct {
	Provider config.Provider
	Status   int
	Body     string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("remote: %s returned status %d: %s", e.Provider, e.Status, truncate(e.Body, 300))
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}

// ChatOptions configures a single Call.
type ChatOptions struct {
	MaxTokens  int
	JSONFormat bool
	Reasoning  bool
	// Model overrides the provider's configured default model when non-empty.
	Model string
}

// ChatResult is the provider-agnostic outcome of a chat completion call.
type ChatResult struct {
	Content   string
	LatencyMs int64
	Reasoning string
}

// Client dispatches chat completion calls to whichever provider the caller
// names, resolving the API key via the configured KeyStore.
type Client struct {
	HTTP     *http.Client
	KeyStore config.KeyStore
}

// NewClient builds a Client with a generous provider-call timeout; each
// pipeline stage that needs a tighter per-call deadline should pass a
// context.WithTimeout instead of relying on this default. A PROXY_URL entry
// in the config store routes every provider call through that proxy;
// otherwise the standard HTTPS_PROXY/HTTP_PROXY environment handling
// applies.
func NewClient(store config.KeyStore) *Client {
	transport := http.DefaultTransport
	if proxyURL, ok := config.ResolveProxyURL(store); ok {
		transport = &http.Transport{Proxy: http.ProxyURL(proxyURL)}
	}
	return &Client{
		HTTP:     &http.Client{Timeout: 180 * time.Second, Transport: transport},
		KeyStore: store,
	}
}

// ResolveProvider returns preferred if an API key is configured for it,
// otherwise the first provider in config.FallbackOrder that has one. If none
// do, it returns preferred unchanged so the caller's eventual Call fails with
// ErrMissingAPIKey rather than silently picking an equally keyless provider.
func (c *Client) ResolveProvider(preferred config.Provider) config.Provider {
	if _, ok := config.ResolveAPIKey(c.KeyStore, preferred); ok {
		return preferred
	}
	for _, p := range config.FallbackOrder {
		if p == preferred {
			continue
		}
		if _, ok := config.ResolveAPIKey(c.KeyStore, p); ok {
			return p
		}
	}
	return preferred
}

// Call dispatches to the provider-specific implementation. system may be
// empty; providers that don't support a system role fold it into the user
// message.
func (c *Client) Call(ctx context.Context, provider config.Provider, system, user string, opts ChatOptions) (ChatResult, error) {
	apiKey, ok := config.ResolveAPIKey(c.KeyStore, provider)
	if !ok {
		return ChatResult{}, fmt.Errorf("%w: %s", ErrMissingAPIKey, provider)
	}

	model := opts.Model
	if model == "" {
		model = config.DefaultModels[provider]
	}
	url := config.BaseURL(provider)

	switch provider {
	case config.ProviderGLM:
		return c.callChatCompletions(ctx, provider, url, model, apiKey, system, user, opts.MaxTokens, opts.Reasoning, true, opts.JSONFormat)
	case config.ProviderDeepSeek:
		return c.callChatCompletions(ctx, provider, url, model, apiKey, system, user, opts.MaxTokens, false, false, opts.JSONFormat)
	case config.ProviderGemini:
		return c.callGemini(ctx, url, model, apiKey, system, user, opts.MaxTokens)
	case config.ProviderAnthropic:
		return c.callAnthropic(ctx, url, model, apiKey, system, user, opts.MaxTokens)
	case config.ProviderOpenAI:
		return c.callOpenAIResponses(ctx, url, model, apiKey, joinSystemUser(system, user))
	default:
		return ChatResult{}, fmt.Errorf("remote: unknown provider %q", provider)
	}
}

func joinSystemUser(system, user string) string {
	if system == "" {
		return user
	}
	return system + "\n\n" + user
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type reasoningConfig struct {
	Effort string `json:"effort"`
}

type chatRequest struct {
	Model           string           `json:"model"`
	Messages        []chatMessage    `json:"messages"`
	MaxTokens       int              `json:"max_tokens"`
	Temperature     float64          `json:"temperature"`
	ResponseFormat  *responseFormat  `json:"response_format,omitempty"`
	Reasoning       *reasoningConfig `json:"reasoning,omitempty"`
}

type chatMessageResponse struct {
	Content          *string `json:"content"`
	ReasoningContent *string `json:"reasoning_content"`
}

type chatChoice struct {
	Message *chatMessageResponse `json:"message"`
}

type chatResponse struct {
	Choices          []chatChoice `json:"choices"`
	ReasoningContent *string      `json:"reasoning_content"`
}

var jsonObjectRe = regexp.MustCompile(`(?s)\{.*\}`)

// callChatCompletions implements the OpenAI-compatible chat-completions
// shape used by GLM and DeepSeek. retryOnEmpty controls whether a reasoning
// call that produced no content is retried once without reasoning enabled.
func (c *Client) callChatCompletions(ctx context.Context, provider config.Provider, url, model, apiKey, system, user string, maxTokens int, enableReasoning, retryOnEmpty, jsonFormat bool) (ChatResult, error) {
	req := chatRequest{
		Model: model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		MaxTokens:   maxTokens,
		Temperature: 0.0,
	}
	if jsonFormat {
		req.ResponseFormat = &responseFormat{Type: "json_object"}
	}
	if enableReasoning {
		req.Reasoning = &reasoningConfig{Effort: "high"}
	}

	body, latency, status, err := c.post(ctx, url, apiKey, req)
	if err != nil {
		return ChatResult{}, err
	}
	if status < 200 || status >= 300 {
		return ChatResult{}, &APIError{Provider: provider, Status: status, Body: string(body)}
	}

	var parsed chatResponse
	if err := sonic.Unmarshal(body, &parsed); err != nil {
		return ChatResult{}, fmt.Errorf("remote: decode %s response: %w", provider, err)
	}

	var content, reasoning string
	if len(parsed.Choices) > 0 && parsed.Choices[0].Message != nil {
		if parsed.Choices[0].Message.Content != nil {
			content = *parsed.Choices[0].Message.Content
		}
		if parsed.Choices[0].Message.ReasoningContent != nil {
			reasoning = *parsed.Choices[0].Message.ReasoningContent
		}
	}
	if reasoning == "" && parsed.ReasoningContent != nil {
		reasoning = *parsed.ReasoningContent
	}

	if content == "" && reasoning != "" {
		if m := jsonObjectRe.FindString(reasoning); m != "" {
			content = m
		}
	}

	if content == "" && retryOnEmpty && enableReasoning {
		return c.callChatCompletions(ctx, provider, url, model, apiKey, system, user, maxTokens, false, false, jsonFormat)
	}
	if content == "" {
		return ChatResult{}, ErrMissingContent
	}

	return ChatResult{Content: content, LatencyMs: latency, Reasoning: reasoning}, nil
}

func (c *Client) post(ctx context.Context, url, apiKey string, payload any) ([]byte, int64, int, error) {
	buf, err := sonic.Marshal(payload)
	if err != nil {
		return nil, 0, 0, fmt.Errorf("remote: marshal request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(buf))
	if err != nil {
		return nil, 0, 0, fmt.Errorf("remote: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+apiKey)

	start := time.Now()
	resp, err := c.HTTP.Do(httpReq)
	if err != nil {
		return nil, 0, 0, fmt.Errorf("remote: request failed: %w", err)
	}
	defer resp.Body.Close()
	latency := time.Since(start).Milliseconds()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, latency, resp.StatusCode, fmt.Errorf("remote: read response: %w", err)
	}
	return body, latency, resp.StatusCode, nil
}

// extractFirstJSONObject scans s for the first balanced {...} object,
// respecting string/escape state, tolerating SSE noise or prose wrapped
// around the object some relays emit.
func extractFirstJSONObject(s string) (string, bool) {
	i := strings.IndexByte(s, '{')
	if i < 0 {
		return "", false
	}
	depth := 0
	inString := false
	escape := false
	for idx := i; idx < len(s); idx++ {
		b := s[idx]
		if inString {
			if escape {
				escape = false
				continue
			}
			if b == '\\' {
				escape = true
				continue
			}
			if b == '"' {
				inString = false
			}
			continue
		}
		switch b {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[i : idx+1], true
			}
		}
	}
	return "", false
}
