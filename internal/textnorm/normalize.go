// Package textnorm implements component A: punctuation normalization,
// byte-exact paragraph/sentence spans, and the fallback sentence splitter
// used when no out-of-process splitter is configured.
package textnorm

import "strings"

var (
	fancyQuoteReplacer = strings.NewReplacer(
		"“", `"`, "”", `"`, // “ ”
		"‘", "'", "’", "'", // ‘ ’
		"–", "-", "—", "-", // – —
		" ", " ", // nbsp
		"　", " ", // ideographic space
		"\r\n", "\n",
		"\r", "\n",
	)
)

// Normalize maps fancy quotes/dashes to ASCII, ideographic/non-breaking
// spaces to ordinary space, normalizes line endings, collapses runs of
// horizontal whitespace on each line, trims each line, and trims the
// document ends.
func Normalize(text string) string {
	s := fancyQuoteReplacer.Replace(text)
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = collapseHorizontalWhitespace(strings.TrimRight(line, " \t"))
	}
	s = strings.Join(lines, "\n")
	return strings.Trim(s, "\n \t")
}

func collapseHorizontalWhitespace(line string) string {
	var b strings.Builder
	b.Grow(len(line))
	inRun := false
	for _, r := range line {
		if r == ' ' || r == '\t' {
			inRun = true
			continue
		}
		if inRun {
			if b.Len() > 0 {
				b.WriteByte(' ')
			}
			inRun = false
		}
		b.WriteRune(r)
	}
	return strings.TrimLeft(b.String(), " ")
}
