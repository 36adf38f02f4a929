package textnorm

import (
	"unicode"
	"unicode/utf8"

	"github.com/gy212/cheekai-detect/internal/model"
)

// terminators are the candidate sentence-ending punctuation marks.
var terminators = map[rune]bool{
	'。': true, '！': true, '？': true,
	'.': true, '!': true, '?': true,
}

// SplitSentencesFallback is the local sentence splitter used when no
// out-of-process splitter is configured. It walks characters tracking a
// quote-state, treats 。！？.!? as candidate terminators, never splits
// inside quotes, never splits a period between two digits, and consumes
// trailing whitespace into the current sentence.
func SplitSentencesFallback(text string) []model.SentenceSpan {
	if text == "" {
		return nil
	}
	var spans []model.SentenceSpan
	inDoubleQuote := false
	inSingleQuote := false
	start := 0

	runes := []rune(text)
	byteOffsets := make([]int, len(runes)+1)
	{
		b := 0
		for i, r := range runes {
			byteOffsets[i] = b
			b += utf8.RuneLen(r)
		}
		byteOffsets[len(runes)] = b
	}

	flush := func(endRuneIdx int) {
		// Consume trailing whitespace into the current sentence.
		j := endRuneIdx
		for j < len(runes) && unicode.IsSpace(runes[j]) {
			j++
		}
		s := byteOffsets[start]
		e := byteOffsets[j]
		if e > s {
			spans = append(spans, model.SentenceSpan{Start: s, End: e})
		}
		start = j
	}

	for i := 0; i < len(runes); i++ {
		r := runes[i]
		switch r {
		case '"':
			inDoubleQuote = !inDoubleQuote
			continue
		case '\'':
			inSingleQuote = !inSingleQuote
			continue
		}
		if !terminators[r] {
			continue
		}
		if inDoubleQuote || inSingleQuote {
			continue
		}
		if r == '.' {
			prevDigit := i > 0 && unicode.IsDigit(runes[i-1])
			nextDigit := i+1 < len(runes) && unicode.IsDigit(runes[i+1])
			if prevDigit && nextDigit {
				continue
			}
		}
		// Absorb runs of terminators (e.g. "?!" or "......") into one boundary.
		end := i + 1
		for end < len(runes) && terminators[runes[end]] {
			end++
		}
		flush(end)
		i = end - 1
	}
	if start < len(runes) {
		flush(len(runes))
	}
	return spans
}

// CharToByteOffset converts a character count into a byte offset by
// walking the string's rune sequence. Returns len(text) if count equals
// the total character count, and ok=false for a negative count or one past
// the end.
func CharToByteOffset(text string, charCount int) (int, bool) {
	if charCount < 0 {
		return 0, false
	}
	n := 0
	b := 0
	for _, r := range text {
		if n == charCount {
			return b, true
		}
		b += utf8.RuneLen(r)
		n++
	}
	if n == charCount {
		return len(text), true
	}
	return 0, false
}

// SafeSlice snaps start forward and end backward to the nearest valid
// character boundary before slicing, so it never panics on a multi-byte
// boundary. Invalid ranges (end <= start after snapping) return "".
func SafeSlice(text string, start, end int) string {
	if start < 0 {
		start = 0
	}
	if end > len(text) {
		end = len(text)
	}
	if start >= end {
		return ""
	}
	for start < end && !utf8.RuneStart(text[start]) {
		start++
	}
	for end > start && end < len(text) && !utf8.RuneStart(text[end]) {
		end--
	}
	if start >= end {
		return ""
	}
	return text[start:end]
}
