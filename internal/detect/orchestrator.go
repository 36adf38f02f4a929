// Package detect implements component J: the top-level orchestrator that
// wires normalization, content filtering, document profiling, segment
// building, remote analysis and fusion/aggregation into the dual-mode
// verdict described by the rest of this module.
package detect

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/gy212/cheekai-detect/internal/aggregate"
	"github.com/gy212/cheekai-detect/internal/config"
	"github.com/gy212/cheekai-detect/internal/contentfilter"
	"github.com/gy212/cheekai-detect/internal/model"
	"github.com/gy212/cheekai-detect/internal/profiler"
	"github.com/gy212/cheekai-detect/internal/remote"
	"github.com/gy212/cheekai-detect/internal/textnorm"
)

const (
	sentenceTargetChars = 220
	sentenceMaxChars    = 480
)

// Options configures one Analyze call.
type Options struct {
	Provider      config.Provider
	Sensitivity   config.Sensitivity
	Language      string
	UsePerplexity bool
	// UseStylometry controls whether component B's repeat-ratio/n-gram/
	// function-word/punctuation signals participate in the segment score.
	// TTR and avg_sentence_len are always computed regardless.
	UseStylometry bool
	// Client is the remote analyzer. A nil Client forces the fully local
	// sync fallback path: no content filtering, profiling, sentence
	// refinement or remote judgments, just the paragraph-granularity local
	// segment builder, fusion and aggregation.
	Client *remote.Client
	// Splitter is the optional out-of-process sentence splitter. Nil uses
	// the built-in fallback splitter.
	Splitter *textnorm.SplitterClient
}

// Analyze runs the full seven-step pipeline from document text to a
// DualResult: paragraph blocks, content filtering, document profiling,
// sentence blocks constrained to body paragraphs, concurrent paragraph- and
// sentence-granularity analysis, per-mode aggregation, comparison and
// fusion.
func Analyze(ctx context.Context, text string, opts Options) (model.DualResult, error) {
	requestID := uuid.NewString()
	logger := log.With().Str("request_id", requestID).Logger()

	normalized := textnorm.Normalize(text)
	paragraphBlocks := textnorm.BuildParagraphBlocks(normalized)

	if opts.Client == nil {
		logger.Info().Msg("no remote client configured, running local-only sync fallback")
		return AnalyzeLocal(ctx, requestID, normalized, paragraphBlocks, opts)
	}

	logger.Info().Int("paragraphs", len(paragraphBlocks)).Msg("starting detection pipeline")

	bodyBlocks, filterSummary := contentfilter.Classify(ctx, opts.Client, opts.Provider, paragraphBlocks)

	profile, err := profiler.Profile(ctx, opts.Client, opts.Provider, bodyBlocks)
	if err != nil {
		logger.Warn().Err(err).Msg("document profiling failed, continuing without a profile")
		profile = nil
	}

	sentenceBlocks := buildSentenceBlocks(ctx, opts, normalized, bodyBlocks)

	var paragraphSegments, sentenceSegments []model.Segment
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		segs, err := analyzeBlocks(gctx, opts, bodyBlocks, profile, false)
		paragraphSegments = segs
		return err
	})
	g.Go(func() error {
		segs, err := analyzeBlocks(gctx, opts, sentenceBlocks, profile, true)
		sentenceSegments = segs
		return err
	})
	if err := g.Wait(); err != nil {
		return model.DualResult{}, err
	}

	paragraphAgg := aggregate.Mode(paragraphSegments, opts.Sensitivity)
	sentenceAgg := aggregate.Mode(sentenceSegments, opts.Sensitivity)
	comparison := aggregate.Compare(normalized, paragraphSegments, sentenceSegments)
	fused := aggregate.Fused(paragraphAgg, paragraphSegments, sentenceAgg, sentenceSegments, opts.Sensitivity)

	result := model.DualResult{
		RequestID:        requestID,
		Paragraph:        model.ModeResult{Aggregation: paragraphAgg, Segments: paragraphSegments, SegmentCount: len(paragraphSegments)},
		Sentence:         model.ModeResult{Aggregation: sentenceAgg, Segments: sentenceSegments, SegmentCount: len(sentenceSegments)},
		Comparison:       comparison,
		FusedAggregation: &fused,
		FilterSummary:    &filterSummary,
		DocumentProfile:  profile,
	}
	logger.Info().
		Float64("fused_probability", fused.OverallProbability).
		Str("decision", string(fused.Decision)).
		Msg("detection pipeline complete")
	return result, nil
}
