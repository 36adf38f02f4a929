// Package contentfilter implements component C: classifying each paragraph
// block into {body, title, toc, reference, auxiliary, noise}, first via a
// rule cascade and then, for whatever the rules leave uncertain, via a
// single batched remote classification call.
package contentfilter

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/rs/zerolog/log"

	"github.com/gy212/cheekai-detect/internal/config"
	"github.com/gy212/cheekai-detect/internal/model"
	"github.com/gy212/cheekai-detect/internal/remote"
)

var (
	figureTableRe  = regexp.MustCompile(`^(图|表|Figure|Fig\.|Table)\s*\d+`)
	tocPageMarkRe  = regexp.MustCompile(`[.·\-]{3,}\s*\d+$`)
	tocNumberedRe  = regexp.MustCompile(`^\d+\.?\d*\.?\d*\s+.+\s+\d+$`)
	refBracketRe   = regexp.MustCompile(`^\[\d+\]`)
	refYearRe      = regexp.MustCompile(`(19|20)\d{2}`)
	numberedHeadRe = regexp.MustCompile(`^(\d+(\.\d+)*|[一二三四五六七八九十]+[、.]|Chapter\s+\d+|Section\s+\d+|Part\s+\d+|第[一二三四五六七八九十百千]+[章节部分条款])\s*\S`)
	sentenceEndRe  = regexp.MustCompile(`[。！？.!?]\s*["'"'」』)\]]*\s*$`)
)

const previewChars = 200

// Classify runs the phase-1 rule cascade over blocks, then dispatches any
// uncertain paragraphs to a single batched remote call via client (which may
// be nil to force the offline fallback), returning the retained body blocks
// in document order together with a FilterSummary.
func Classify(ctx context.Context, client *remote.Client, provider config.Provider, blocks []model.TextBlock) ([]model.TextBlock, model.FilterSummary) {
	summary := model.FilterSummary{
		TotalParagraphs: len(blocks),
		CategoryCounts:  map[string]int{},
	}

	classifications := make([]model.ParagraphClassification, len(blocks))
	var uncertainIdx []int
	for i, b := range blocks {
		cat, reason := classifyByRule(b.Text)
		classifications[i] = model.ParagraphClassification{Index: i, Category: cat, Confidence: 1.0, Reason: reason}
		if cat == "" {
			uncertainIdx = append(uncertainIdx, i)
		}
	}

	if len(uncertainIdx) > 0 {
		resolved := classifyUncertain(ctx, client, provider, blocks, uncertainIdx)
		for _, idx := range uncertainIdx {
			classifications[idx] = resolved[idx]
			summary.FilteredByLLM++
		}
	}

	var kept []model.TextBlock
	newIdx := 0
	for i, b := range blocks {
		cat := classifications[i].Category
		if cat == "" {
			cat = model.CategoryBody
		}
		summary.CategoryCounts[string(cat)]++
		if cat == model.CategoryBody {
			b.Index = newIdx
			b.Detection = true
			kept = append(kept, b)
			newIdx++
			summary.BodyCount++
		} else if strings.HasPrefix(classifications[i].Reason, "rule_") {
			summary.FilteredByRule++
		}
	}
	return kept, summary
}

// classifyByRule returns ("", "") when phase 1 leaves the paragraph
// uncertain, otherwise the decided category and the rule that fired.
func classifyByRule(text string) (model.ParagraphCategory, string) {
	trimmed := strings.TrimSpace(text)
	charCount := utf8.RuneCountInString(trimmed)
	digitRatio := runeRatio(trimmed, unicode.IsDigit)
	letterCJKRatio := runeRatio(trimmed, isLetterOrCJK)
	hasSentenceEnd := sentenceEndRe.MatchString(trimmed)

	// 1. Noise
	if figureTableRe.MatchString(trimmed) ||
		digitRatio > 0.6 ||
		(charCount < 25 && !hasSentenceEnd && digitRatio > 0.3) ||
		(letterCJKRatio < 0.1 && charCount < 50) {
		return model.CategoryNoise, "rule_noise"
	}

	// 2. TOC
	lower := strings.ToLower(trimmed)
	if lower == "目录" || lower == "contents" || lower == "table of contents" ||
		tocPageMarkRe.MatchString(trimmed) ||
		(tocNumberedRe.MatchString(trimmed) && charCount < 80) {
		return model.CategoryTOC, "rule_toc"
	}

	// 3. Reference
	if lower == "参考文献" || lower == "references" || lower == "bibliography" || lower == "works cited" ||
		refBracketRe.MatchString(trimmed) ||
		isCitationShape(trimmed, charCount) {
		return model.CategoryReference, "rule_reference"
	}

	// 4. Title
	if charCount <= 60 && !hasSentenceEnd &&
		(numberedHeadRe.MatchString(trimmed) || (charCount <= 30 && runeRatio(trimmed, isLetterOrCJK) >= 0.7)) {
		return model.CategoryTitle, "rule_title"
	}

	// 5. Body
	if charCount > 100 && hasSentenceEnd {
		return model.CategoryBody, "rule_body"
	}

	return "", ""
}

func isCitationShape(text string, charCount int) bool {
	if !refYearRe.MatchString(text) {
		return false
	}
	hasMarker := strings.Contains(text, "Vol.") || strings.Contains(text, "pp.") ||
		strings.Contains(text, "doi:") || strings.Contains(text, "ISBN")
	return hasMarker || charCount < 200
}

func runeRatio(s string, pred func(rune) bool) float64 {
	total := utf8.RuneCountInString(s)
	if total == 0 {
		return 0
	}
	count := 0
	for _, r := range s {
		if pred(r) {
			count++
		}
	}
	return float64(count) / float64(total)
}

func isLetterOrCJK(r rune) bool {
	return unicode.IsLetter(r) || (r >= 0x4E00 && r <= 0x9FFF)
}

type llmClassification struct {
	Index      int     `json:"index"`
	Category   string  `json:"category"`
	Confidence float64 `json:"confidence"`
}

type llmClassifyResponse struct {
	Results []llmClassification `json:"results"`
}

var knownCategories = map[string]model.ParagraphCategory{
	"body": model.CategoryBody, "title": model.CategoryTitle, "toc": model.CategoryTOC,
	"reference": model.CategoryReference, "auxiliary": model.CategoryAuxiliary, "noise": model.CategoryNoise,
}

// classifyUncertain batches every uncertain paragraph into one remote call.
// On any failure (no client, missing key, transport error, decode error) it
// retains every uncertain paragraph as body with reason llm_fallback.
func classifyUncertain(ctx context.Context, client *remote.Client, provider config.Provider, blocks []model.TextBlock, idx []int) map[int]model.ParagraphClassification {
	fallback := func() map[int]model.ParagraphClassification {
		out := make(map[int]model.ParagraphClassification, len(idx))
		for _, i := range idx {
			out[i] = model.ParagraphClassification{Index: i, Category: model.CategoryBody, Confidence: 0.5, Reason: "llm_fallback"}
		}
		return out
	}
	if client == nil {
		return fallback()
	}

	var sb strings.Builder
	sb.WriteString("Classify each paragraph into one of body/title/toc/reference/auxiliary/noise. Respond as JSON: {\"results\":[{\"index\":N,\"category\":\"...\",\"confidence\":0.0}]}.\n\n")
	for _, i := range idx {
		preview := previewOf(blocks[i].Text, previewChars)
		fmt.Fprintf(&sb, "[%d] %s\n", i, preview)
	}

	result, err := client.Call(ctx, client.ResolveProvider(provider), "You are a precise document structure classifier. Reply with JSON only.", sb.String(), remote.ChatOptions{MaxTokens: 2048, JSONFormat: true})
	if err != nil {
		log.Warn().Err(err).Msg("content filter remote classification failed, defaulting uncertain paragraphs to body")
		return fallback()
	}

	var parsed llmClassifyResponse
	if err := remote.DecodeJSONLenient(result.Content, &parsed); err != nil {
		log.Warn().Err(err).Msg("content filter remote response unparseable, defaulting uncertain paragraphs to body")
		return fallback()
	}

	byIndex := make(map[int]llmClassification, len(parsed.Results))
	for _, r := range parsed.Results {
		byIndex[r.Index] = r
	}

	out := make(map[int]model.ParagraphClassification, len(idx))
	for _, i := range idx {
		r, ok := byIndex[i]
		if !ok {
			out[i] = model.ParagraphClassification{Index: i, Category: model.CategoryBody, Confidence: 0.5, Reason: "llm_missing_default"}
			continue
		}
		cat, known := knownCategories[strings.ToLower(strings.TrimSpace(r.Category))]
		if !known {
			cat = model.CategoryBody
		}
		out[i] = model.ParagraphClassification{Index: i, Category: cat, Confidence: r.Confidence, Reason: "llm_classified"}
	}
	return out
}

func previewOf(text string, maxChars int) string {
	r := []rune(text)
	if len(r) <= maxChars {
		return text
	}
	return string(r[:maxChars])
}
