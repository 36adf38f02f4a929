package detect

import (
	"fmt"
	"strings"

	"github.com/gy212/cheekai-detect/internal/model"
)

const previousNextContextChars = 600

// buildSegmentPrompt assembles the single-segment judgment prompt: an
// optional document-profile header, the previous and next neighbor blocks
// (truncated to previousNextContextChars) labelled 上一段/下一段 for
// continuity only, the segment itself labelled 本段, and chunk_id/start/end
// for traceability in logs.
func buildSegmentPrompt(blocks []model.TextBlock, i int, profile *model.DocumentProfile) string {
	var sb strings.Builder
	if profile != nil {
		sb.WriteString("[Document Profile] category=")
		sb.WriteString(profile.Category)
		if profile.Discipline != "" {
			sb.WriteString(" discipline=" + profile.Discipline)
		}
		if profile.PaperType != "" {
			sb.WriteString(" paper_type=" + profile.PaperType)
		}
		if profile.Summary != "" {
			sb.WriteString("\nsummary: " + profile.Summary)
		}
		sb.WriteString("\n\n")
	}

	fmt.Fprintf(&sb, "chunk_id=%d start=%d end=%d\n\n", blocks[i].Index, blocks[i].Start, blocks[i].End)

	if i > 0 {
		sb.WriteString("上一段: " + tailChars(blocks[i-1].Text, previousNextContextChars) + "\n\n")
	}
	sb.WriteString("本段: " + blocks[i].Text + "\n\n")
	if i < len(blocks)-1 {
		sb.WriteString("下一段: " + headChars(blocks[i+1].Text, previousNextContextChars) + "\n\n")
	}
	sb.WriteString("Judge only 本段.")
	return sb.String()
}

func tailChars(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[len(r)-n:])
}

func headChars(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
