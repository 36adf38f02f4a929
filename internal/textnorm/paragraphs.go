package textnorm

import (
	"regexp"

	"github.com/gy212/cheekai-detect/internal/model"
)

var blankLineRun = regexp.MustCompile(`\n\s*\n`)

// BuildParagraphBlocks splits normalized text on runs of blank lines and
// returns one TextBlock per non-empty paragraph, with exact byte spans
// into text.
func BuildParagraphBlocks(text string) []model.TextBlock {
	if text == "" {
		return nil
	}
	var blocks []model.TextBlock
	start := 0
	idx := 0
	appendIfNonEmpty := func(s, e int) {
		if e <= s {
			return
		}
		slice := text[s:e]
		if len(trimmed(slice)) == 0 {
			return
		}
		// Trim the slice's own surrounding whitespace, but keep offsets
		// snapped to the trimmed boundaries so slice == text[start:end].
		ts, te := trimRange(text, s, e)
		if te <= ts {
			return
		}
		blocks = append(blocks, model.TextBlock{
			Index: idx,
			Start: ts,
			End:   te,
			Text:  text[ts:te],
			Label: model.BlockLabelBody,
		})
		idx++
	}

	locs := blankLineRun.FindAllStringIndex(text, -1)
	for _, loc := range locs {
		appendIfNonEmpty(start, loc[0])
		start = loc[1]
	}
	appendIfNonEmpty(start, len(text))
	return blocks
}

func trimmed(s string) string {
	return string(trimBytes([]byte(s)))
}

func trimBytes(b []byte) []byte {
	i, j := 0, len(b)
	for i < j && isSpaceByte(b[i]) {
		i++
	}
	for j > i && isSpaceByte(b[j-1]) {
		j--
	}
	return b[i:j]
}

func isSpaceByte(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r'
}

// trimRange returns [ts, te) trimmed of leading/trailing whitespace, with
// both bounds snapped to character boundaries (ASCII whitespace only, so
// no multi-byte snapping is actually needed here, but we keep the helper
// byte-safe for defense).
func trimRange(text string, s, e int) (int, int) {
	for s < e && isSpaceByte(text[s]) {
		s++
	}
	for e > s && isSpaceByte(text[e-1]) {
		e--
	}
	return s, e
}
