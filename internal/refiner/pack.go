package refiner

import "github.com/gy212/cheekai-detect/internal/model"

// Pack greedily packs sentence spans into blocks: a block grows while its
// character span stays within targetChars when possible, never exceeds
// maxChars, flushes after any span whose index carries a hard break, and a
// span longer than maxChars on its own becomes a standalone block. Block
// text is the exact byte slice from the first span's start to the last
// span's end, preserving inter-sentence whitespace.
func Pack(text string, spans []model.SentenceSpan, hardBreaks map[int]bool, targetChars, maxChars int) []model.TextBlock {
	var blocks []model.TextBlock
	if len(spans) == 0 {
		return blocks
	}

	idx := 0
	flushStart := -1
	flush := func(endSpanIdx int) {
		if flushStart < 0 || endSpanIdx < flushStart {
			return
		}
		start := spans[flushStart].Start
		end := spans[endSpanIdx].End
		blocks = append(blocks, model.TextBlock{
			Index:       idx,
			Start:       start,
			End:         end,
			Text:        text[start:end],
			Label:       model.BlockLabelSentence,
			Detection:   true,
			SentenceCnt: endSpanIdx - flushStart + 1,
		})
		idx++
		flushStart = -1
	}

	for i, s := range spans {
		spanChars := runeCount(text[s.Start:s.End])
		if spanChars > maxChars {
			flush(i - 1)
			blocks = append(blocks, model.TextBlock{
				Index:       idx,
				Start:       s.Start,
				End:         s.End,
				Text:        text[s.Start:s.End],
				Label:       model.BlockLabelSentence,
				Detection:   true,
				SentenceCnt: 1,
			})
			idx++
			flushStart = -1
			continue
		}

		if flushStart < 0 {
			flushStart = i
		} else {
			candidateChars := runeCount(text[spans[flushStart].Start:s.End])
			if candidateChars > maxChars {
				flush(i - 1)
				flushStart = i
			} else if candidateChars > targetChars {
				flush(i - 1)
				flushStart = i
			}
		}

		if hardBreaks[i] {
			flush(i)
		}
	}
	flush(len(spans) - 1)
	return blocks
}

func runeCount(s string) int {
	n := 0
	for range s {
		n++
	}
	return n
}
