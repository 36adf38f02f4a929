package refiner

import (
	"testing"

	"github.com/gy212/cheekai-detect/internal/model"
)

func span(text string, start int) model.SentenceSpan {
	return model.SentenceSpan{Start: start, End: start + len(text)}
}

func TestPackMergesShortSpansUpToTarget(t *testing.T) {
	text := "One. Two. Three. "
	spans := []model.SentenceSpan{
		{Start: 0, End: 4},
		{Start: 5, End: 9},
		{Start: 10, End: 17},
	}
	blocks := Pack(text, spans, nil, 100, 200)
	if len(blocks) != 1 {
		t.Fatalf("got %d blocks, want 1 (all spans fit within target)", len(blocks))
	}
	if blocks[0].Text != text[:17] {
		t.Errorf("block text = %q, want %q", blocks[0].Text, text[:17])
	}
	if blocks[0].SentenceCnt != 3 {
		t.Errorf("SentenceCnt = %d, want 3", blocks[0].SentenceCnt)
	}
}

func TestPackFlushesOnHardBreak(t *testing.T) {
	text := "First span. Second span."
	spans := []model.SentenceSpan{
		{Start: 0, End: 11},
		{Start: 12, End: 24},
	}
	hardBreaks := map[int]bool{0: true}
	blocks := Pack(text, spans, hardBreaks, 1000, 2000)
	if len(blocks) != 2 {
		t.Fatalf("got %d blocks, want 2 (hard break forces a flush)", len(blocks))
	}
	if blocks[0].Text != text[0:11] {
		t.Errorf("block 0 text = %q, want %q", blocks[0].Text, text[0:11])
	}
	if blocks[1].Text != text[12:24] {
		t.Errorf("block 1 text = %q, want %q", blocks[1].Text, text[12:24])
	}
}

func TestPackSpanLongerThanMaxCharsBecomesStandalone(t *testing.T) {
	text := "short. " + stringOfLen(300) + " tail."
	spans := []model.SentenceSpan{
		{Start: 0, End: 6},
		{Start: 7, End: 7 + 300},
		{Start: 7 + 300 + 1, End: len(text)},
	}
	blocks := Pack(text, spans, nil, 100, 200)
	foundStandalone := false
	for _, b := range blocks {
		if b.SentenceCnt == 1 && len(b.Text) >= 300 {
			foundStandalone = true
		}
	}
	if !foundStandalone {
		t.Error("expected the oversized span to become a standalone block")
	}
}

func TestPackEmptySpansReturnsNoBlocks(t *testing.T) {
	if blocks := Pack("text", nil, nil, 100, 200); blocks != nil {
		t.Errorf("expected nil blocks for empty spans, got %v", blocks)
	}
}

func TestPackIndicesAreSequential(t *testing.T) {
	text := "a. b. c. d."
	spans := []model.SentenceSpan{
		{Start: 0, End: 2}, {Start: 3, End: 5}, {Start: 6, End: 8}, {Start: 9, End: 11},
	}
	hardBreaks := map[int]bool{1: true}
	blocks := Pack(text, spans, hardBreaks, 1000, 2000)
	for i, b := range blocks {
		if b.Index != i {
			t.Errorf("block %d: Index = %d, want %d", i, b.Index, i)
		}
	}
}

func stringOfLen(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = 'x'
	}
	return string(b)
}
