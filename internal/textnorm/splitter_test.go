package textnorm

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestSplitterClientHealthy(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/health" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	}))
	defer srv.Close()

	c := &SplitterClient{BaseURL: srv.URL, HTTP: &http.Client{Timeout: 5 * time.Second}}
	if !c.Healthy(context.Background()) {
		t.Error("expected Healthy() to be true")
	}
}

func TestSplitterClientHealthyUnreachable(t *testing.T) {
	c := &SplitterClient{BaseURL: "http://127.0.0.1:1", HTTP: &http.Client{Timeout: 500 * time.Millisecond}}
	if c.Healthy(context.Background()) {
		t.Error("expected Healthy() to be false for unreachable server")
	}
}

func TestSplitterClientSegmentByteOffsets(t *testing.T) {
	text := "Hello world. Second sentence."
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"sentences":[{"text":"Hello world.","start":0,"end":12},{"text":"Second sentence.","start":13,"end":29}]}`))
	}))
	defer srv.Close()

	c := &SplitterClient{BaseURL: srv.URL, HTTP: &http.Client{Timeout: 5 * time.Second}}
	spans, err := c.Segment(context.Background(), text, "en")
	if err != nil {
		t.Fatalf("Segment() error: %v", err)
	}
	if len(spans) != 2 {
		t.Fatalf("got %d spans, want 2", len(spans))
	}
	if text[spans[0].Start:spans[0].End] != "Hello world." {
		t.Errorf("span 0 = %q", text[spans[0].Start:spans[0].End])
	}
}

func TestSplitterClientSegmentCharOffsets(t *testing.T) {
	text := "中文测试。More text."
	// Splitter reports character offsets (0..4) for the CJK sentence, not
	// byte offsets; the client must detect this via the text mismatch and
	// reinterpret as character counts.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"sentences":[{"text":"中文测试。","start":0,"end":5}]}`))
	}))
	defer srv.Close()

	c := &SplitterClient{BaseURL: srv.URL, HTTP: &http.Client{Timeout: 5 * time.Second}}
	spans, err := c.Segment(context.Background(), text, "zh")
	if err != nil {
		t.Fatalf("Segment() error: %v", err)
	}
	if len(spans) != 1 {
		t.Fatalf("got %d spans, want 1", len(spans))
	}
	if text[spans[0].Start:spans[0].End] != "中文测试。" {
		t.Errorf("span = %q, want %q", text[spans[0].Start:spans[0].End], "中文测试。")
	}
}
