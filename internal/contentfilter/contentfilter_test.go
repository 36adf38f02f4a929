package contentfilter

import (
	"context"
	"testing"

	"github.com/gy212/cheekai-detect/internal/model"
)

func block(i int, text string) model.TextBlock {
	return model.TextBlock{Index: i, Start: 0, End: len(text), Text: text}
}

func TestClassifyRuleCascadeTOCAndReference(t *testing.T) {
	blocks := []model.TextBlock{
		block(0, "目录"),
		block(1, "1.2 Introduction to the Subject .......... 12"),
		block(2, "[1] Smith, J. (2020). A study of things. Vol. 3, pp. 12-34."),
		block(3, "This is a sufficiently long body paragraph that discusses the methodology in depth and ends with a period."),
	}
	kept, summary := Classify(context.Background(), nil, "", blocks)

	if len(kept) != 1 {
		t.Fatalf("got %d kept blocks, want 1 (only the body paragraph): %+v", len(kept), kept)
	}
	if kept[0].Text != blocks[3].Text {
		t.Errorf("kept block = %q, want the body paragraph", kept[0].Text)
	}
	if summary.TotalParagraphs != 4 {
		t.Errorf("TotalParagraphs = %d, want 4", summary.TotalParagraphs)
	}
	if summary.BodyCount != 1 {
		t.Errorf("BodyCount = %d, want 1", summary.BodyCount)
	}
	if summary.CategoryCounts[string(model.CategoryTOC)] != 2 {
		t.Errorf("CategoryCounts[toc] = %d, want 2", summary.CategoryCounts[string(model.CategoryTOC)])
	}
	if summary.CategoryCounts[string(model.CategoryReference)] != 1 {
		t.Errorf("CategoryCounts[reference] = %d, want 1", summary.CategoryCounts[string(model.CategoryReference)])
	}
}

func TestClassifyReindexesKeptBlocksInOrder(t *testing.T) {
	blocks := []model.TextBlock{
		block(0, "目录"),
		block(1, "This is a sufficiently long body paragraph ending in a period for the rule cascade."),
		block(2, "参考文献"),
		block(3, "Another sufficiently long body paragraph that also ends with a period here."),
	}
	kept, _ := Classify(context.Background(), nil, "", blocks)
	if len(kept) != 2 {
		t.Fatalf("got %d kept blocks, want 2", len(kept))
	}
	if kept[0].Index != 0 || kept[1].Index != 1 {
		t.Errorf("kept indices = %d,%d, want 0,1 (reindexed)", kept[0].Index, kept[1].Index)
	}
}

func TestClassifyUncertainParagraphWithNilClientFallsBackToBody(t *testing.T) {
	// A short paragraph without a clear sentence-ending punctuation mark and
	// without digit/title shape is ambiguous under the rule cascade; with a
	// nil client it must default to body rather than being dropped silently.
	ambiguous := "a rather unusual short fragment of text without terminal punctuation"
	blocks := []model.TextBlock{block(0, ambiguous)}
	kept, summary := Classify(context.Background(), nil, "", blocks)
	if len(kept) != 1 {
		t.Fatalf("got %d kept blocks, want 1 (fallback to body)", len(kept))
	}
	if summary.FilteredByLLM != 1 {
		t.Errorf("FilteredByLLM = %d, want 1", summary.FilteredByLLM)
	}
}

func TestClassifyByRuleNoiseDigitHeavy(t *testing.T) {
	cat, reason := classifyByRule("123456789 0123 456 789012")
	if cat != model.CategoryNoise {
		t.Errorf("category = %q, want noise", cat)
	}
	if reason != "rule_noise" {
		t.Errorf("reason = %q, want rule_noise", reason)
	}
}

func TestClassifyByRuleTitleShortNoSentenceEnd(t *testing.T) {
	cat, _ := classifyByRule("Chapter One Overview")
	if cat != model.CategoryTitle {
		t.Errorf("category = %q, want title", cat)
	}
}

func TestClassifyByRuleTitleNumberedHeadings(t *testing.T) {
	// Longer than the 30-char fallback branch allows, so these rely on the
	// numbered-heading pattern specifically.
	cases := []string{
		"Chapter 12 Methodology and Experimental Design",
		"Section 3 Evaluation Protocol and Metrics Used",
		"Part 2 Background and Related Work Overview",
		"第三章 实验设计与结果分析以及相关工作的讨论与总结和未来展望概述",
	}
	for _, text := range cases {
		cat, _ := classifyByRule(text)
		if cat != model.CategoryTitle {
			t.Errorf("classifyByRule(%q) = %q, want title", text, cat)
		}
	}
}
