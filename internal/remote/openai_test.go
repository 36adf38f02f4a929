package remote

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestCallOpenAIResponsesNativeOutputShape(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"output":[{"content":[{"type":"output_text","text":"native response"}]}]}`))
	}))
	defer srv.Close()

	c := &Client{HTTP: http.DefaultClient}
	result, err := c.callOpenAIResponses(context.Background(), srv.URL, "gpt-model", "k", "prompt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Content != "native response" {
		t.Errorf("Content = %q", result.Content)
	}
}

func TestCallOpenAIResponsesChatCompletionsFallbackShape(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"proxied chat completions content"}}]}`))
	}))
	defer srv.Close()

	c := &Client{HTTP: http.DefaultClient}
	result, err := c.callOpenAIResponses(context.Background(), srv.URL, "gpt-model", "k", "prompt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Content != "proxied chat completions content" {
		t.Errorf("Content = %q", result.Content)
	}
}

func TestCallOpenAIResponsesStringWrappedBodyIsReparsed(t *testing.T) {
	// Some relays double-encode the whole payload as a JSON string.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`"{\"output\":[{\"content\":[{\"type\":\"output_text\",\"text\":\"wrapped response\"}]}]}"`))
	}))
	defer srv.Close()

	c := &Client{HTTP: http.DefaultClient}
	result, err := c.callOpenAIResponses(context.Background(), srv.URL, "gpt-model", "k", "prompt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Content != "wrapped response" {
		t.Errorf("Content = %q", result.Content)
	}
}

func TestCallOpenAIResponsesSSEPollutedStringBodyExtractsObject(t *testing.T) {
	// A quote-wrapped body whose inner quotes are not escaped, so the body is
	// not valid JSON; behind its SSE noise prefix sits one balanced JSON object.
	inner := `event: message\ndata: {"output":[{"content":[{"type":"output_text","text":"sse response"}]}]}`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`"` + inner + `"`))
	}))
	defer srv.Close()

	c := &Client{HTTP: http.DefaultClient}
	result, err := c.callOpenAIResponses(context.Background(), srv.URL, "gpt-model", "k", "prompt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Content != "sse response" {
		t.Errorf("Content = %q, want the object recovered from behind the SSE prefix", result.Content)
	}
}

func TestCallOpenAIResponsesNonSuccessStatusReturnsAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte("bad key"))
	}))
	defer srv.Close()

	c := &Client{HTTP: http.DefaultClient}
	_, err := c.callOpenAIResponses(context.Background(), srv.URL, "gpt-model", "k", "prompt")
	apiErr, ok := err.(*APIError)
	if !ok {
		t.Fatalf("expected *APIError, got %T: %v", err, err)
	}
	if apiErr.Status != http.StatusUnauthorized {
		t.Errorf("Status = %d, want 401", apiErr.Status)
	}
}

func TestExtractOpenAIContentEmptyTextSkipped(t *testing.T) {
	raw := map[string]any{
		"output": []any{
			map[string]any{"content": []any{
				map[string]any{"type": "output_text", "text": ""},
				map[string]any{"type": "output_text", "text": "second part wins"},
			}},
		},
	}
	content, ok := extractOpenAIContent(raw)
	if !ok {
		t.Fatal("expected extraction to succeed")
	}
	if content != "second part wins" {
		t.Errorf("content = %q, want the first non-empty text part", content)
	}
}

func TestExtractOpenAIContentNotAnObjectFails(t *testing.T) {
	_, ok := extractOpenAIContent([]any{"not", "an", "object"})
	if ok {
		t.Error("expected extraction to fail for a non-object root value")
	}
}
