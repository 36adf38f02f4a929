package textnorm

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/bytedance/sonic"
	"github.com/rs/zerolog/log"

	"github.com/gy212/cheekai-detect/internal/config"
	"github.com/gy212/cheekai-detect/internal/model"
)

// SplitterClient talks to the optional out-of-process sentence/paragraph
// splitter (spaCy/wtpsplit-style). A nil
// *SplitterClient (or one whose BaseURL is unreachable) means callers
// should fall back to SplitSentencesFallback.
type SplitterClient struct {
	BaseURL string
	HTTP    *http.Client
}

// NewSplitterClient builds a client against the configured (or default)
// splitter endpoint.
func NewSplitterClient() *SplitterClient {
	return &SplitterClient{
		BaseURL: config.SplitterBaseURL(),
		HTTP:    &http.Client{Timeout: config.SplitterTimeoutSeconds * time.Second},
	}
}

// Healthy reports whether GET /health responds {"status":"ok"}.
func (c *SplitterClient) Healthy(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/health", nil)
	if err != nil {
		return false
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return false
	}
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return false
	}
	var body struct {
		Status string `json:"status"`
	}
	if err := sonic.Unmarshal(raw, &body); err != nil {
		return false
	}
	return body.Status == "ok"
}

type splitterSentence struct {
	Text  string `json:"text"`
	Start int    `json:"start"`
	End   int    `json:"end"`
}

type segmentRequest struct {
	Text     string `json:"text"`
	Language string `json:"language"`
}

type segmentResponse struct {
	Sentences []splitterSentence `json:"sentences"`
}

// Segment calls POST /segment and returns byte-exact spans into text,
// detecting and converting character-unit offsets if the remote splitter
// returned those instead of byte offsets.
func (c *SplitterClient) Segment(ctx context.Context, text, language string) ([]model.SentenceSpan, error) {
	payload, err := sonic.Marshal(segmentRequest{Text: text, Language: language})
	if err != nil {
		return nil, fmt.Errorf("marshal segment request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/segment", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build segment request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call splitter /segment: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("splitter /segment returned status %d", resp.StatusCode)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read splitter /segment response: %w", err)
	}
	var parsed segmentResponse
	if err := sonic.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("decode splitter /segment response: %w", err)
	}

	spans := make([]model.SentenceSpan, 0, len(parsed.Sentences))
	for _, s := range parsed.Sentences {
		start, end, ok := resolveOffsets(text, s)
		if !ok {
			log.Warn().Int("start", s.Start).Int("end", s.End).Msg("splitter returned unresolvable offsets, skipping span")
			continue
		}
		spans = append(spans, model.SentenceSpan{Start: start, End: end})
	}
	return spans, nil
}

// resolveOffsets detects whether the splitter's offsets are byte- or
// char-indexed by checking whether the byte-offset slice round-trips to
// the splitter's own reported text; if not, it reinterprets the offsets
// as character counts via CharToByteOffset.
func resolveOffsets(text string, s splitterSentence) (int, int, bool) {
	if s.Start >= 0 && s.End <= len(text) && s.Start < s.End {
		if s.Text == "" || text[s.Start:s.End] == s.Text {
			return s.Start, s.End, true
		}
	}
	start, ok1 := CharToByteOffset(text, s.Start)
	end, ok2 := CharToByteOffset(text, s.End)
	if !ok1 || !ok2 || start >= end {
		return 0, 0, false
	}
	return start, end, true
}
