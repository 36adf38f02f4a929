package detect

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/gy212/cheekai-detect/internal/model"
	"github.com/gy212/cheekai-detect/internal/refiner"
	"github.com/gy212/cheekai-detect/internal/textnorm"
)

// buildSentenceBlocks builds sentence spans for every body paragraph,
// offset into document-absolute coordinates, with a hard break forced at
// every paragraph boundary so sentence packing (and ambiguous-boundary
// merging) never crosses a paragraph that content filtering already
// dropped. The combined spans are then refined (component G) into the
// sentence-granularity TextBlocks used for the sentence pass.
func buildSentenceBlocks(ctx context.Context, opts Options, text string, bodyBlocks []model.TextBlock) []model.TextBlock {
	var spans []model.SentenceSpan
	hardBreaks := map[int]bool{}
	for _, block := range bodyBlocks {
		blockSpans := splitSentences(ctx, opts, block.Text, block.Start)
		if len(blockSpans) == 0 {
			continue
		}
		spans = append(spans, blockSpans...)
		hardBreaks[len(spans)-1] = true
	}
	if len(spans) == 0 {
		return nil
	}
	return refiner.Refine(ctx, opts.Client, opts.Provider, text, spans, hardBreaks, sentenceTargetChars, sentenceMaxChars)
}

// splitSentences prefers the configured out-of-process splitter when it
// reports healthy, falling back to the local splitter otherwise, and shifts
// every returned span by offset into document-absolute coordinates.
func splitSentences(ctx context.Context, opts Options, blockText string, offset int) []model.SentenceSpan {
	var spans []model.SentenceSpan
	if opts.Splitter != nil && opts.Splitter.Healthy(ctx) {
		remoteSpans, err := opts.Splitter.Segment(ctx, blockText, opts.Language)
		if err != nil {
			log.Warn().Err(err).Msg("external sentence splitter call failed, using local fallback splitter")
		} else {
			spans = remoteSpans
		}
	}
	if spans == nil {
		spans = textnorm.SplitSentencesFallback(blockText)
	}
	out := make([]model.SentenceSpan, len(spans))
	for i, s := range spans {
		out[i] = model.SentenceSpan{Start: s.Start + offset, End: s.End + offset}
	}
	return out
}
