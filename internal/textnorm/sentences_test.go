package textnorm

import (
	"testing"
	"unicode/utf8"
)

func TestSplitSentencesFallbackBasic(t *testing.T) {
	text := "This is one. This is two! Is this three? Yes."
	spans := SplitSentencesFallback(text)
	if len(spans) != 4 {
		t.Fatalf("got %d spans, want 4: %+v", len(spans), spans)
	}
	for _, s := range spans {
		if text[s.Start:s.End] == "" {
			t.Errorf("empty sentence span [%d,%d)", s.Start, s.End)
		}
	}
}

func TestSplitSentencesFallbackNeverSplitsInsideQuotes(t *testing.T) {
	text := `She said "Is this real. Or not?" and left.`
	spans := SplitSentencesFallback(text)
	if len(spans) != 1 {
		t.Fatalf("got %d spans, want 1 (no split inside the quoted question): %+v", len(spans), spans)
	}
	for _, s := range spans {
		slice := text[s.Start:s.End]
		if slice == `"Is this real.` {
			t.Fatalf("split happened inside quotes: %q", slice)
		}
	}
}

func TestSplitSentencesFallbackDigitPeriodGuard(t *testing.T) {
	text := "The value is 3.14 exactly."
	spans := SplitSentencesFallback(text)
	if len(spans) != 1 {
		t.Fatalf("got %d spans, want 1 (no split inside 3.14): %+v", len(spans), spans)
	}
}

func TestSplitSentencesFallbackCJKNoTerminator(t *testing.T) {
	text := "中" // no terminator at all, single CJK char run
	spans := SplitSentencesFallback(text)
	if len(spans) != 1 {
		t.Fatalf("got %d spans, want 1", len(spans))
	}
	if spans[0].Start != 0 || spans[0].End != len(text) {
		t.Errorf("span = %+v, want full range", spans[0])
	}
}

func TestSplitSentencesFallbackEmpty(t *testing.T) {
	if spans := SplitSentencesFallback(""); spans != nil {
		t.Errorf("expected nil spans for empty text, got %v", spans)
	}
}

func TestCharToByteOffsetASCII(t *testing.T) {
	text := "hello world"
	b, ok := CharToByteOffset(text, 5)
	if !ok || b != 5 {
		t.Errorf("CharToByteOffset(5) = (%d,%v), want (5,true)", b, ok)
	}
}

func TestCharToByteOffsetMultiByte(t *testing.T) {
	text := "中文test"
	// "中" and "文" are each 3 bytes in UTF-8.
	b, ok := CharToByteOffset(text, 2)
	if !ok || b != 6 {
		t.Errorf("CharToByteOffset(2) = (%d,%v), want (6,true)", b, ok)
	}
}

func TestCharToByteOffsetAtEnd(t *testing.T) {
	text := "中文"
	total := len([]rune(text))
	b, ok := CharToByteOffset(text, total)
	if !ok || b != len(text) {
		t.Errorf("CharToByteOffset(total) = (%d,%v), want (%d,true)", b, ok, len(text))
	}
}

func TestCharToByteOffsetFailsPastEnd(t *testing.T) {
	_, ok := CharToByteOffset("abc", 10)
	if ok {
		t.Error("expected failure for out-of-range char count")
	}
}

func TestSafeSliceNeverPanicsOnMultiByteBoundary(t *testing.T) {
	text := "中文混合text"
	for s := 0; s <= len(text); s++ {
		for e := s; e <= len(text); e++ {
			result := SafeSlice(text, s, e)
			// Must always be valid UTF-8 (Go strings are byte slices, but a
			// mis-sliced multi-byte boundary would produce an invalid string
			// detectable via utf8.ValidString, and must never panic getting
			// here).
			if !utf8.ValidString(result) {
				t.Errorf("SafeSlice(%d,%d) = %q, not valid UTF-8", s, e, result)
			}
		}
	}
}

func TestSafeSliceSnapsToCharBoundary(t *testing.T) {
	text := "中文"
	// Byte 1 and 2 are mid-rune for "中" (3 bytes); start should snap forward.
	result := SafeSlice(text, 1, len(text))
	if result != "文" {
		t.Errorf("SafeSlice(1,end) = %q, want %q", result, "文")
	}
}

func TestSafeSliceInvalidRangeReturnsEmpty(t *testing.T) {
	if got := SafeSlice("abc", 2, 1); got != "" {
		t.Errorf("SafeSlice with end<start = %q, want empty", got)
	}
}
