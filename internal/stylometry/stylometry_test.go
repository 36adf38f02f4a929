package stylometry

import (
	"math"
	"testing"

	"github.com/gy212/cheekai-detect/internal/model"
)

func TestComputeTTRAllUnique(t *testing.T) {
	text := "alpha beta gamma delta"
	m := Compute(text, nil)
	if m.TTR != 1.0 {
		t.Errorf("TTR = %v, want 1.0", m.TTR)
	}
}

func TestComputeTTRHeavyRepetition(t *testing.T) {
	text := "中中中中中中中中中中"
	m := Compute(text, nil)
	if m.TTR != 0.1 {
		t.Errorf("TTR = %v, want 0.1 (1 unique token / 10 occurrences)", m.TTR)
	}
	if m.RepeatRatio == nil || *m.RepeatRatio != 1.0 {
		t.Errorf("RepeatRatio = %v, want 1.0", m.RepeatRatio)
	}
}

func TestComputeRatiosInRange(t *testing.T) {
	text := "The quick brown fox jumps over the lazy dog again and again, the fox runs."
	m := Compute(text, nil)
	if m.TTR < 0 || m.TTR > 1 {
		t.Errorf("TTR out of range: %v", m.TTR)
	}
	if m.RepeatRatio != nil && (*m.RepeatRatio < 0 || *m.RepeatRatio > 1) {
		t.Errorf("RepeatRatio out of range: %v", *m.RepeatRatio)
	}
	if m.NgramRepeatRate != nil && (*m.NgramRepeatRate < 0 || *m.NgramRepeatRate > 1) {
		t.Errorf("NgramRepeatRate out of range: %v", *m.NgramRepeatRate)
	}
	if m.PunctuationRatio != nil && (*m.PunctuationRatio < 0 || *m.PunctuationRatio > 1) {
		t.Errorf("PunctuationRatio out of range: %v", *m.PunctuationRatio)
	}
}

func TestComputeAvgSentenceLenUsesSentences(t *testing.T) {
	text := "One two three. Four five."
	sentences := []model.SentenceSpan{{Start: 0, End: 15}, {Start: 15, End: len(text)}}
	m := Compute(text, sentences)
	if m.AvgSentenceLen <= 0 {
		t.Errorf("AvgSentenceLen = %v, want > 0", m.AvgSentenceLen)
	}
}

func TestComputeAvgSentenceLenFallsBackToWholeDoc(t *testing.T) {
	text := "no sentence spans here"
	m := Compute(text, nil)
	if m.AvgSentenceLen != float64(len([]rune(text))) {
		t.Errorf("AvgSentenceLen = %v, want %v", m.AvgSentenceLen, len([]rune(text)))
	}
}

func TestNgramRepeatRateShortText(t *testing.T) {
	// Fewer than 3 tokens: no 3-gram positions exist.
	m := Compute("one two", nil)
	if m.NgramRepeatRate != nil {
		t.Errorf("NgramRepeatRate = %v, want nil for too-short token stream", *m.NgramRepeatRate)
	}
}

func TestPerplexityDeterministic(t *testing.T) {
	text := "This is a moderately diverse sentence with some repeated words repeated words."
	p1 := Perplexity(text)
	p2 := Perplexity(text)
	if p1 != p2 {
		t.Errorf("Perplexity not deterministic: %v != %v", p1, p2)
	}
	if p1 < 20 || p1 > 300 {
		t.Errorf("Perplexity out of bounds: %v", p1)
	}
}

func TestPerplexityEmptyTokens(t *testing.T) {
	if got := Perplexity("...,,,!!!"); got != 20.0 {
		t.Errorf("Perplexity() = %v, want 20.0 for no tokens", got)
	}
}

func TestPerplexityRoundedToTwoDecimals(t *testing.T) {
	text := "alpha beta gamma delta epsilon zeta eta theta"
	p := Perplexity(text)
	rounded := math.Round(p*100) / 100
	if p != rounded {
		t.Errorf("Perplexity() = %v, not rounded to 2 decimals", p)
	}
}

func TestFunctionWordRatioChinese(t *testing.T) {
	text := "这是一个测试的句子"
	m := Compute(text, nil)
	if m.FunctionWordRatio == nil {
		t.Fatal("FunctionWordRatio is nil")
	}
	if *m.FunctionWordRatio <= 0 {
		t.Errorf("FunctionWordRatio = %v, want > 0 (contains 是/的)", *m.FunctionWordRatio)
	}
}
