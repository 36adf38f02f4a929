package detect

import (
	"context"

	"github.com/gy212/cheekai-detect/internal/aggregate"
	"github.com/gy212/cheekai-detect/internal/config"
	"github.com/gy212/cheekai-detect/internal/fusion"
	"github.com/gy212/cheekai-detect/internal/model"
	"github.com/gy212/cheekai-detect/internal/segment"
	"github.com/gy212/cheekai-detect/internal/textnorm"
)

// AnalyzeLocal runs the sync fallback path: no content filtering, document
// profiling, sentence refinement or remote judgments, just component E over
// raw paragraph blocks, the same decision gate from component H, and
// per-mode aggregation. The sentence mode of the returned DualResult is
// always empty, so Fused falls back to the paragraph-only result.
func AnalyzeLocal(_ context.Context, requestID, text string, paragraphBlocks []model.TextBlock, opts Options) (model.DualResult, error) {
	segments := make([]model.Segment, len(paragraphBlocks))
	for i, block := range paragraphBlocks {
		sentences := textnorm.SplitSentencesFallback(block.Text)
		local := segment.Build(block.Text, sentences, opts.Language, nil, opts.UsePerplexity, opts.UseStylometry)

		seg := model.Segment{
			ChunkID:          block.Index,
			Language:         opts.Language,
			Offsets:          model.SegmentOffsets{Start: block.Start, End: block.End},
			LocalProbability: local.RawProbability,
			RawProbability:   local.RawProbability,
			Confidence:       local.Confidence,
			Uncertainty:      local.Uncertainty,
			Explanations:     local.Explanations,
		}
		seg.Signals.Stylometry = local.Stylometry
		seg.Signals.Perplexity = model.SignalPerplexity{PPL: local.PPL}
		seg.Decision = fusion.DecideSegment(seg.RawProbability, seg.Uncertainty, nil, opts.Sensitivity, config.DecisionMargin)
		segments[i] = seg
	}

	paragraphAgg := aggregate.Mode(segments, opts.Sensitivity)
	sentenceAgg := aggregate.Mode(nil, opts.Sensitivity)
	comparison := aggregate.Compare(text, segments, nil)
	fused := aggregate.Fused(paragraphAgg, segments, sentenceAgg, nil, opts.Sensitivity)

	return model.DualResult{
		RequestID:        requestID,
		Paragraph:        model.ModeResult{Aggregation: paragraphAgg, Segments: segments, SegmentCount: len(segments)},
		Sentence:         model.ModeResult{Aggregation: sentenceAgg, Segments: nil, SegmentCount: 0},
		Comparison:       comparison,
		FusedAggregation: &fused,
	}, nil
}
