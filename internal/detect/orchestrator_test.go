package detect

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gy212/cheekai-detect/internal/config"
	"github.com/gy212/cheekai-detect/internal/model"
	"github.com/gy212/cheekai-detect/internal/remote"
)

type fixedKeyStore map[string]string

func (s fixedKeyStore) Get(key string) (string, bool) {
	v, ok := s[key]
	return v, ok
}

// routingHandler inspects the system message of each chat-completions
// request to decide which of the three remote concerns (content filter,
// document profile, segment judgment) is calling, and returns the matching
// response shape.
func routingHandler(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("failed to decode request body: %v", err)
		}
		var system string
		for _, m := range req.Messages {
			if m.Role == "system" {
				system = m.Content
			}
		}

		w.Header().Set("Content-Type", "application/json")
		switch {
		case strings.Contains(system, "document structure classifier"):
			_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"{\"results\":[]}"}}]}`))
		case strings.Contains(system, "document classifier for academic"):
			_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"{\"category\":\"工学\",\"discipline\":\"计算机科学与技术\",\"summary\":\"a short paper about software testing\"}"}}]}`))
		case strings.Contains(system, "AI-generated-text detector"):
			_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"{\"probability\":0.3,\"confidence\":0.7,\"uncertainty\":0.2,\"signals\":[{\"id\":\"human_detail\",\"score\":0.6,\"evidence\":\"specific concrete example\"}]}"}}]}`))
		case strings.Contains(system, "adjacent sentence fragments"):
			_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"{\"merge\":[]}"}}]}`))
		default:
			t.Fatalf("unexpected system prompt: %q", system)
		}
	}
}

func TestAnalyzeFiltersNonBodyParagraphsBeforeScoring(t *testing.T) {
	srv := httptest.NewServer(routingHandler(t))
	defer srv.Close()
	t.Setenv("GLM_API_URL", srv.URL)
	t.Setenv("DEEPSEEK_API_URL", srv.URL)

	client := &remote.Client{HTTP: http.DefaultClient, KeyStore: fixedKeyStore{"GLM_API_KEY": "k", "DEEPSEEK_API_KEY": "k"}}

	body := strings.Repeat("这是一段正常的学术论文正文内容，包含足够的字数用于判断这是正文段落而不是标题或者目录。", 6)
	text := "目录\n\n第一章 绪论.......... 1\n\n" + body + "\n\n参考文献\n\n[1] Zhang, 2020."

	result, err := Analyze(context.Background(), text, Options{
		Provider:    config.ProviderGLM,
		Sensitivity: "medium",
		Language:    "zh",
		Client:      client,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.FilterSummary == nil {
		t.Fatal("expected a FilterSummary")
	}
	if result.FilterSummary.BodyCount != 1 {
		t.Errorf("BodyCount = %d, want 1 (only the long paragraph should survive filtering)", result.FilterSummary.BodyCount)
	}
	if len(result.Paragraph.Segments) != 1 {
		t.Fatalf("got %d paragraph segments, want 1", len(result.Paragraph.Segments))
	}
	if result.DocumentProfile == nil {
		t.Fatal("expected a document profile for a long-enough document")
	}
	if result.FusedAggregation == nil {
		t.Fatal("expected a fused aggregation")
	}
}

func TestAnalyzeNilClientTakesLocalFallbackPath(t *testing.T) {
	text := "The committee convened to discuss the quarterly results and outline next steps for the coming year."
	result, err := Analyze(context.Background(), text, Options{
		Provider:    config.ProviderGLM,
		Sensitivity: "medium",
		Language:    "en",
		Client:      nil,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.FilterSummary != nil {
		t.Error("expected no FilterSummary on the local-only fallback path")
	}
	if result.DocumentProfile != nil {
		t.Error("expected no DocumentProfile on the local-only fallback path")
	}
	if len(result.Paragraph.Segments) != 1 {
		t.Fatalf("got %d paragraph segments, want 1", len(result.Paragraph.Segments))
	}
}

func TestAnalyzeSegmentEvidenceSurvivesFusion(t *testing.T) {
	srv := httptest.NewServer(routingHandler(t))
	defer srv.Close()
	t.Setenv("GLM_API_URL", srv.URL)
	t.Setenv("DEEPSEEK_API_URL", srv.URL)

	client := &remote.Client{HTTP: http.DefaultClient, KeyStore: fixedKeyStore{"GLM_API_KEY": "k", "DEEPSEEK_API_KEY": "k"}}
	body := strings.Repeat("这是一段正常的学术论文正文内容，包含足够的字数用于判断这是正文段落而不是标题或者目录。", 3)

	result, err := Analyze(context.Background(), body, Options{
		Provider:    config.ProviderGLM,
		Sensitivity: "medium",
		Language:    "zh",
		Client:      client,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	seg := result.Paragraph.Segments[0]
	found := false
	for _, e := range seg.Signals.LLMJudgment.Evidence {
		if e.ID == model.EvidenceHumanDetail {
			found = true
		}
	}
	if !found {
		t.Errorf("expected human_detail evidence from the mocked judgment to survive into the segment, got %+v", seg.Signals.LLMJudgment.Evidence)
	}
}
