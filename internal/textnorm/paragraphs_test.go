package textnorm

import "testing"

func TestBuildParagraphBlocksSliceInvariant(t *testing.T) {
	text := "First paragraph here.\n\nSecond paragraph, a bit longer than the first one.\n\n\nThird."
	blocks := BuildParagraphBlocks(text)
	if len(blocks) != 3 {
		t.Fatalf("got %d blocks, want 3", len(blocks))
	}
	for i, b := range blocks {
		if b.Index != i {
			t.Errorf("block %d: Index = %d, want %d", i, b.Index, i)
		}
		if text[b.Start:b.End] != b.Text {
			t.Errorf("block %d: slice mismatch: text[%d:%d]=%q, Text=%q", i, b.Start, b.End, text[b.Start:b.End], b.Text)
		}
		if b.Start < 0 || b.End > len(text) || b.Start > b.End {
			t.Errorf("block %d: invalid range [%d,%d)", i, b.Start, b.End)
		}
	}
	if blocks[0].Text != "First paragraph here." {
		t.Errorf("block 0 text = %q", blocks[0].Text)
	}
	if blocks[2].Text != "Third." {
		t.Errorf("block 2 text = %q", blocks[2].Text)
	}
}

func TestBuildParagraphBlocksEmpty(t *testing.T) {
	if blocks := BuildParagraphBlocks(""); blocks != nil {
		t.Errorf("expected nil blocks for empty text, got %v", blocks)
	}
	if blocks := BuildParagraphBlocks("\n\n\n"); len(blocks) != 0 {
		t.Errorf("expected no blocks for all-blank text, got %v", blocks)
	}
}

func TestBuildParagraphBlocksDocumentOrderUniqueIndices(t *testing.T) {
	text := "a\n\nb\n\nc\n\nd"
	blocks := BuildParagraphBlocks(text)
	seen := map[int]bool{}
	lastEnd := -1
	for _, b := range blocks {
		if seen[b.Index] {
			t.Fatalf("duplicate index %d", b.Index)
		}
		seen[b.Index] = true
		if b.Start < lastEnd {
			t.Fatalf("block %d out of document order: start=%d lastEnd=%d", b.Index, b.Start, lastEnd)
		}
		lastEnd = b.End
	}
}
