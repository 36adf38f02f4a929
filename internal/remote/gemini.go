package remote

import (
	"context"
	"fmt"

	"github.com/bytedance/sonic"

	"github.com/gy212/cheekai-detect/internal/config"
)

type geminiRequestMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type geminiRequest struct {
	Model     string                 `json:"model"`
	Messages  []geminiRequestMessage `json:"messages"`
	MaxTokens int                    `json:"max_tokens"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
	Text  string       `json:"text"`
}

type geminiCandidate struct {
	Content geminiContent `json:"content"`
}

type geminiEnvelope struct {
	Candidates []geminiCandidate `json:"candidates"`
}

type geminiResponse struct {
	Response *geminiEnvelope `json:"response"`
	// Some gateways return an OpenAI-compatible payload instead.
	Choices []chatChoice `json:"choices"`
}

// callGemini uses the OpenAI-compatible request shape but the nested
// response.candidates[].content.parts[].text response shape documented by
// the gateway this pipeline was built against, falling back to an
// OpenAI-style choices[] envelope when the gateway proxies one instead.
func (c *Client) callGemini(ctx context.Context, url, model, apiKey, system, user string, maxTokens int) (ChatResult, error) {
	req := geminiRequest{
		Model: model,
		Messages: []geminiRequestMessage{
			{Role: "user", Content: joinSystemUser(system, user)},
		},
		MaxTokens: maxTokens,
	}

	body, latency, status, err := c.post(ctx, url, apiKey, req)
	if err != nil {
		return ChatResult{}, err
	}
	if status < 200 || status >= 300 {
		return ChatResult{}, &APIError{Provider: config.ProviderGemini, Status: status, Body: string(body)}
	}

	var parsed geminiResponse
	if err := sonic.Unmarshal(body, &parsed); err != nil {
		return ChatResult{}, fmt.Errorf("remote: decode gemini response: %w", err)
	}

	content := ""
	if parsed.Response != nil && len(parsed.Response.Candidates) > 0 {
		cand := parsed.Response.Candidates[0].Content
		for _, p := range cand.Parts {
			if p.Text != "" {
				content = p.Text
				break
			}
		}
		if content == "" {
			content = cand.Text
		}
	}
	if content == "" && len(parsed.Choices) > 0 && parsed.Choices[0].Message != nil && parsed.Choices[0].Message.Content != nil {
		content = *parsed.Choices[0].Message.Content
	}
	if content == "" {
		return ChatResult{}, ErrMissingContent
	}
	return ChatResult{Content: content, LatencyMs: latency}, nil
}
