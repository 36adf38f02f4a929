// Package stylometry implements component B: local, deterministic
// stylometric features (TTR, repeat ratio, n-gram repeat, average sentence
// length, punctuation ratio) and the perplexity surrogate.
package stylometry

import (
	"math"
	"strings"

	"github.com/gy212/cheekai-detect/internal/model"
	"github.com/gy212/cheekai-detect/internal/textnorm"
)

// functionWords is a fixed small set of common Chinese function words used
// for the function_word_ratio feature.
var functionWords = map[string]bool{
	"的": true, "了": true, "是": true, "在": true, "和": true,
	"与": true, "也": true, "都": true, "而": true, "但": true,
	"就": true, "还": true, "又": true, "等": true, "被": true,
	"把": true, "这": true, "那": true, "之": true, "其": true,
	"于": true, "及": true, "或": true, "即": true, "则": true,
}

// tokenize splits text into tokens: a maximal run of ASCII
// alphanumeric/underscore characters, or a single CJK ideograph
// (U+4E00..U+9FFF).
func tokenize(text string) []string {
	var tokens []string
	runes := []rune(text)
	var cur strings.Builder
	flush := func() {
		if cur.Len() > 0 {
			tokens = append(tokens, cur.String())
			cur.Reset()
		}
	}
	for _, r := range runes {
		switch {
		case isASCIIWord(r):
			cur.WriteRune(r)
		case r >= 0x4E00 && r <= 0x9FFF:
			flush()
			tokens = append(tokens, string(r))
		default:
			flush()
		}
	}
	flush()
	return tokens
}

func isASCIIWord(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '_'
}

// Compute extracts StylometryMetrics for a segment's text, given the
// sentences (from component A) that fall within it.
func Compute(text string, sentences []model.SentenceSpan) model.StylometryMetrics {
	tokens := tokenize(text)
	metrics := model.StylometryMetrics{}

	freq := make(map[string]int, len(tokens))
	for _, t := range tokens {
		freq[t]++
	}
	if len(tokens) > 0 {
		metrics.TTR = float64(len(freq)) / float64(len(tokens))
	}

	if len(freq) > 0 {
		repeated := 0
		for _, c := range freq {
			if c >= 3 {
				repeated++
			}
		}
		rr := float64(repeated) / float64(len(freq))
		metrics.RepeatRatio = &rr
	}

	if n := ngramRepeatRate(tokens, 3); n != nil {
		metrics.NgramRepeatRate = n
	}

	metrics.AvgSentenceLen = avgSentenceLen(text, sentences)

	fwr := functionWordRatio(tokens)
	metrics.FunctionWordRatio = &fwr

	pr := punctuationRatio(text)
	metrics.PunctuationRatio = &pr

	return metrics
}

func ngramRepeatRate(tokens []string, n int) *float64 {
	if len(tokens) < n {
		return nil
	}
	total := len(tokens) - n + 1
	seen := make(map[string]int, total)
	repeatedPositions := 0
	for i := 0; i+n <= len(tokens); i++ {
		key := strings.Join(tokens[i:i+n], "\x1f")
		seen[key]++
		if seen[key] > 1 {
			repeatedPositions++
		}
	}
	rate := float64(repeatedPositions) / float64(total)
	return &rate
}

func avgSentenceLen(text string, sentences []model.SentenceSpan) float64 {
	if len(sentences) == 0 {
		return float64(len([]rune(text)))
	}
	total := 0
	for _, s := range sentences {
		total += len([]rune(textnorm.SafeSlice(text, s.Start, s.End)))
	}
	return float64(total) / float64(len(sentences))
}

func functionWordRatio(tokens []string) float64 {
	if len(tokens) == 0 {
		return 0
	}
	count := 0
	for _, t := range tokens {
		if functionWords[t] {
			count++
		}
	}
	return float64(count) / float64(len(tokens))
}

func punctuationRatio(text string) float64 {
	runes := []rune(text)
	if len(runes) == 0 {
		return 0
	}
	count := 0
	for _, r := range runes {
		switch r {
		case '，', '。', '！', '？', '.', '!', '?':
			count++
		}
	}
	return float64(count) / float64(len(runes))
}

// Perplexity computes the deterministic diversity/length surrogate: Shannon
// entropy over the segment's own token distribution, blended with a
// length/diversity baseline. It is not a real language-model perplexity.
func Perplexity(text string) float64 {
	tokens := tokenize(text)
	charCount := len([]rune(text))
	if len(tokens) == 0 {
		return 20.0
	}

	freq := make(map[string]int, len(tokens))
	for _, t := range tokens {
		freq[t]++
	}
	total := float64(len(tokens))
	var entropy float64
	for _, c := range freq {
		p := float64(c) / total
		entropy -= p * math.Log(p)
	}
	unigramPerplexity := math.Exp(entropy)

	pplScaled := 20 + math.Min(280, (unigramPerplexity-1)*22.5)
	baseOld := 120 - float64(len(freq))/total*60 + float64(charCount)/500

	ppl := 0.5*pplScaled + 0.5*baseOld
	ppl = clamp(ppl, 20, 300)
	return math.Round(ppl*100) / 100
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
