package remote

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/bytedance/sonic"

	"github.com/gy212/cheekai-detect/internal/config"
)

const openaiDefaultMaxOutputTokens = 8192

type openaiResponsesRequest struct {
	Model           string                  `json:"model"`
	MaxOutputTokens int                     `json:"max_output_tokens"`
	MaxTokens       int                     `json:"max_tokens"`
	Input           []openaiResponsesInput  `json:"input"`
}

type openaiResponsesInput struct {
	Role    string                    `json:"role"`
	Content []openaiResponsesInputPart `json:"content"`
}

type openaiResponsesInputPart struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// callOpenAIResponses posts to the Responses-API-shaped endpoint this
// pipeline targets and tolerates several response variants: the native
// output[].content[].text shape, a Chat Completions choices[] fallback some
// gateways proxy instead, and a string-wrapped or SSE-polluted body that
// itself contains one JSON object.
func (c *Client) callOpenAIResponses(ctx context.Context, url, model, apiKey, input string) (ChatResult, error) {
	req := openaiResponsesRequest{
		Model:           model,
		MaxOutputTokens: openaiDefaultMaxOutputTokens,
		MaxTokens:       openaiDefaultMaxOutputTokens,
		Input: []openaiResponsesInput{
			{Role: "user", Content: []openaiResponsesInputPart{{Type: "input_text", Text: input}}},
		},
	}
	buf, err := sonic.Marshal(req)
	if err != nil {
		return ChatResult{}, fmt.Errorf("remote: marshal openai request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(buf))
	if err != nil {
		return ChatResult{}, fmt.Errorf("remote: build openai request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+apiKey)

	start := time.Now()
	resp, err := c.HTTP.Do(httpReq)
	if err != nil {
		return ChatResult{}, fmt.Errorf("remote: openai request failed: %w", err)
	}
	defer resp.Body.Close()
	latency := time.Since(start).Milliseconds()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return ChatResult{}, fmt.Errorf("remote: read openai response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return ChatResult{}, &APIError{Provider: config.ProviderOpenAI, Status: resp.StatusCode, Body: string(body)}
	}

	var raw any
	if err := sonic.Unmarshal(body, &raw); err != nil {
		obj, found := extractFirstJSONObject(string(body))
		if !found {
			return ChatResult{}, fmt.Errorf("remote: decode openai response: %w", err)
		}
		if err := sonic.UnmarshalString(obj, &raw); err != nil {
			return ChatResult{}, fmt.Errorf("remote: decode openai response: %w", err)
		}
	}
	if s, ok := raw.(string); ok {
		var reparsed any
		if err := sonic.UnmarshalString(s, &reparsed); err == nil {
			raw = reparsed
		} else if obj, found := extractFirstJSONObject(s); found {
			var reparsed2 any
			if err := sonic.UnmarshalString(obj, &reparsed2); err == nil {
				raw = reparsed2
			}
		}
	}

	content, ok := extractOpenAIContent(raw)
	if !ok || content == "" {
		return ChatResult{}, ErrMissingContent
	}
	return ChatResult{Content: content, LatencyMs: latency}, nil
}

func extractOpenAIContent(raw any) (string, bool) {
	obj, ok := raw.(map[string]any)
	if !ok {
		return "", false
	}
	if output, ok := obj["output"].([]any); ok && len(output) > 0 {
		if msg, ok := output[0].(map[string]any); ok {
			if parts, ok := msg["content"].([]any); ok {
				for _, p := range parts {
					if part, ok := p.(map[string]any); ok {
						if text, ok := part["text"].(string); ok && text != "" {
							return text, true
						}
					}
				}
			}
		}
	}
	if choices, ok := obj["choices"].([]any); ok && len(choices) > 0 {
		if choice, ok := choices[0].(map[string]any); ok {
			if message, ok := choice["message"].(map[string]any); ok {
				if content, ok := message["content"].(string); ok && content != "" {
					return content, true
				}
			}
		}
	}
	return "", false
}
