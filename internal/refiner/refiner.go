// Package refiner implements component G: optionally merging ambiguous
// sentence boundaries via a remote model, and packing the resulting spans
// into sentence blocks that respect hard breaks (paragraph boundaries whose
// content was filtered out).
package refiner

import (
	"context"
	"regexp"
	"strings"
	"unicode"

	"github.com/rs/zerolog/log"

	"github.com/gy212/cheekai-detect/internal/config"
	"github.com/gy212/cheekai-detect/internal/model"
	"github.com/gy212/cheekai-detect/internal/remote"
)

var abbreviations = map[string]bool{
	"e.g.": true, "i.e.": true, "etc.": true, "vs.": true,
	"mr.": true, "mrs.": true, "ms.": true, "dr.": true, "prof.": true, "st.": true,
}

const (
	maxPairChars         = 240
	maxPairsPerCall      = 80
	maxCallsPerDocument  = 3
)

// Refine optionally merges ambiguous boundaries between adjacent spans
// using client, then packs the result into sentence blocks via Pack. It is
// a no-op pass-through to Pack when client is nil, sentence refinement is
// disabled by config, or no provider key is available.
func Refine(ctx context.Context, client *remote.Client, provider config.Provider, text string, spans []model.SentenceSpan, hardBreaks map[int]bool, targetChars, maxChars int) []model.TextBlock {
	merged := spans
	if client != nil && !config.SentenceRefineDisabled() {
		merged = mergeAmbiguous(ctx, client, provider, text, spans, hardBreaks)
	}
	return Pack(text, merged, hardBreaks, targetChars, maxChars)
}

// ambiguous reports whether the boundary between left and right (the
// verbatim text of two adjacent spans) should be considered for merging.
func ambiguous(left, right string) bool {
	left = strings.TrimRight(left, " \t\n")
	right = strings.TrimLeft(right, " \t\n")
	if left == "" || right == "" {
		return false
	}
	lastRune := []rune(left)
	last := lastRune[len(lastRune)-1]

	if !isTerminalPunct(last) {
		return true
	}
	if oddQuoteCount(left) || oddQuoteCount(right) {
		return true
	}
	if unbalancedParens(left) {
		return true
	}
	if endsWithAbbreviation(left) {
		return true
	}
	if last == '.' {
		firstRight := []rune(right)[0]
		if unicode.IsLower(firstRight) {
			return true
		}
	}
	return false
}

func isTerminalPunct(r rune) bool {
	switch r {
	case '。', '！', '？', '.', '!', '?':
		return true
	}
	return false
}

func oddQuoteCount(s string) bool {
	count := 0
	for _, r := range s {
		if r == '"' || r == '\'' {
			count++
		}
	}
	return count%2 != 0
}

func unbalancedParens(s string) bool {
	depth := 0
	for _, r := range s {
		switch r {
		case '(', '（':
			depth++
		case ')', '）':
			depth--
		}
	}
	return depth != 0
}

var singleInitialRe = regexp.MustCompile(`\b[A-Z]\.$`)

func endsWithAbbreviation(s string) bool {
	trimmed := strings.TrimSpace(s)
	lower := strings.ToLower(trimmed)
	for abbr := range abbreviations {
		if strings.HasSuffix(lower, abbr) {
			return true
		}
	}
	return singleInitialRe.MatchString(trimmed)
}

type mergePair struct {
	Index int    `json:"index"`
	Left  string `json:"left"`
	Right string `json:"right"`
}

type mergeRequest struct {
	Pairs []mergePair `json:"pairs"`
}

type mergeResponse struct {
	Merge []int `json:"merge"`
}

const mergeSystemPrompt = `You decide whether two adjacent sentence fragments are actually one sentence. ` +
	`Respond with strict JSON: {"merge":[indices to merge]}. An index means the boundary at that pair should be merged.`

// mergeAmbiguous finds ambiguous boundaries, batches them to the remote
// model (up to maxPairsPerCall pairs per call, up to maxCallsPerDocument
// calls), and transitively merges the indices the model returns. Pairs
// spanning a hard break are never offered for merging.
func mergeAmbiguous(ctx context.Context, client *remote.Client, provider config.Provider, text string, spans []model.SentenceSpan, hardBreaks map[int]bool) []model.SentenceSpan {
	if len(spans) < 2 {
		return spans
	}

	var candidates []int
	for i := 0; i < len(spans)-1; i++ {
		if hardBreaks[i] {
			continue
		}
		left := text[spans[i].Start:spans[i].End]
		right := text[spans[i+1].Start:spans[i+1].End]
		if ambiguous(left, right) {
			candidates = append(candidates, i)
		}
	}
	if len(candidates) == 0 {
		return spans
	}

	toMerge := make(map[int]bool)
	calls := 0
	for start := 0; start < len(candidates) && calls < maxCallsPerDocument; start += maxPairsPerCall {
		end := start + maxPairsPerCall
		if end > len(candidates) {
			end = len(candidates)
		}
		batch := candidates[start:end]
		calls++

		var pairs []mergePair
		for _, idx := range batch {
			left := tail(text[spans[idx].Start:spans[idx].End], maxPairChars)
			right := head(text[spans[idx+1].Start:spans[idx+1].End], maxPairChars)
			pairs = append(pairs, mergePair{Index: idx, Left: left, Right: right})
		}

		if err := remote.AnalyzerSem.Acquire(ctx, 1); err != nil {
			break
		}
		result, err := client.Call(ctx, client.ResolveProvider(provider), mergeSystemPrompt, encodePairs(pairs), remote.ChatOptions{MaxTokens: 512, JSONFormat: true})
		remote.AnalyzerSem.Release(1)
		if err != nil {
			log.Warn().Err(err).Msg("sentence refiner remote call failed, leaving batch unmerged")
			continue
		}

		var parsed mergeResponse
		if err := remote.DecodeJSONLenient(result.Content, &parsed); err != nil {
			log.Warn().Err(err).Msg("sentence refiner response unparseable, leaving batch unmerged")
			continue
		}
		for _, idx := range parsed.Merge {
			if !hardBreaks[idx] {
				toMerge[idx] = true
			}
		}
	}

	if len(toMerge) == 0 {
		return spans
	}
	return applyMerges(spans, toMerge)
}

func encodePairs(pairs []mergePair) string {
	var sb strings.Builder
	for _, p := range pairs {
		sb.WriteString("[")
		sb.WriteString(itoa(p.Index))
		sb.WriteString("] LEFT: ")
		sb.WriteString(p.Left)
		sb.WriteString(" || RIGHT: ")
		sb.WriteString(p.Right)
		sb.WriteString("\n")
	}
	return sb.String()
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

func tail(s string, maxChars int) string {
	r := []rune(s)
	if len(r) <= maxChars {
		return s
	}
	return string(r[len(r)-maxChars:])
}

func head(s string, maxChars int) string {
	r := []rune(s)
	if len(r) <= maxChars {
		return s
	}
	return string(r[:maxChars])
}

// applyMerges collapses transitive merge chains: merging boundary i joins
// spans[i] and spans[i+1] into one span.
func applyMerges(spans []model.SentenceSpan, toMerge map[int]bool) []model.SentenceSpan {
	var out []model.SentenceSpan
	cur := spans[0]
	for i := 1; i < len(spans); i++ {
		if toMerge[i-1] {
			cur.End = spans[i].End
			continue
		}
		out = append(out, cur)
		cur = spans[i]
	}
	out = append(out, cur)
	return out
}
