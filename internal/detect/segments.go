package detect

import (
	"context"
	"errors"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/gy212/cheekai-detect/internal/catalog"
	"github.com/gy212/cheekai-detect/internal/config"
	"github.com/gy212/cheekai-detect/internal/fusion"
	"github.com/gy212/cheekai-detect/internal/model"
	"github.com/gy212/cheekai-detect/internal/remote"
	"github.com/gy212/cheekai-detect/internal/segment"
	"github.com/gy212/cheekai-detect/internal/textnorm"
)

const (
	sentenceLocalMinChars  = 10
	sentenceRemoteMinChars = 50
	deepSeekChatMaxChars   = 300
)

// analyzeBlocks runs component E (local scoring), then for each block either
// the single-segment remote flow (paragraph granularity) or the tiered
// DeepSeek sentence flow (sentence granularity), fusing and gating a
// decision for every block concurrently.
func analyzeBlocks(ctx context.Context, opts Options, blocks []model.TextBlock, profile *model.DocumentProfile, sentenceMode bool) ([]model.Segment, error) {
	segments := make([]model.Segment, len(blocks))
	if len(blocks) == 0 {
		return segments, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	for i := range blocks {
		i := i
		g.Go(func() error {
			segments[i] = analyzeOneBlock(gctx, opts, blocks, i, profile, sentenceMode)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return segments, nil
}

func analyzeOneBlock(ctx context.Context, opts Options, blocks []model.TextBlock, i int, profile *model.DocumentProfile, sentenceMode bool) model.Segment {
	block := blocks[i]
	localSentences := textnorm.SplitSentencesFallback(block.Text)
	local := segment.Build(block.Text, localSentences, opts.Language, profile, opts.UsePerplexity, opts.UseStylometry)

	seg := model.Segment{
		ChunkID:          block.Index,
		Language:         opts.Language,
		Offsets:          model.SegmentOffsets{Start: block.Start, End: block.End},
		LocalProbability: local.RawProbability,
		RawProbability:   local.RawProbability,
		Confidence:       local.Confidence,
		Uncertainty:      local.Uncertainty,
		Explanations:     append([]string(nil), local.Explanations...),
	}
	seg.Signals.Stylometry = local.Stylometry
	seg.Signals.Perplexity = model.SignalPerplexity{PPL: local.PPL}

	if sentenceMode {
		applySentenceTier(ctx, opts, blocks, i, &seg, local)
	} else {
		applyParagraphJudgment(ctx, opts, blocks, i, profile, &seg, local)
	}

	seg.Decision = fusion.DecideSegment(seg.RawProbability, seg.Uncertainty, seg.Signals.LLMJudgment.Evidence, opts.Sensitivity, config.DecisionMargin)
	return seg
}

// applyParagraphJudgment implements the single-segment remote flow against
// the caller's configured provider, falling back silently to the local-only
// score on any failure.
func applyParagraphJudgment(ctx context.Context, opts Options, blocks []model.TextBlock, i int, profile *model.DocumentProfile, seg *model.Segment, local segment.Result) {
	if err := remote.AnalyzerSem.Acquire(ctx, 1); err != nil {
		return
	}
	defer remote.AnalyzerSem.Release(1)

	callCtx, cancel := context.WithTimeout(ctx, config.SegmentAnalysisTimeoutSeconds*time.Second)
	defer cancel()

	prompt := buildSegmentPrompt(blocks, i, profile)
	judgment, confidence, err := opts.Client.AnalyzeSegment(callCtx, opts.Provider, prompt, remote.ChatOptions{MaxTokens: 768})
	if err != nil {
		log.Warn().Err(err).Int("chunk_id", blocks[i].Index).Msg("paragraph segment analysis failed, using local-only score")
		if errors.Is(err, remote.ErrMissingAPIKey) {
			seg.Explanations = append(seg.Explanations, "no_"+string(opts.Provider)+"_key_local_only")
		} else {
			seg.Explanations = append(seg.Explanations, "llm_failed_local_only")
			if seg.Uncertainty < 0.5 {
				seg.Uncertainty = 0.5
			}
		}
		return
	}
	fuseInto(seg, local, judgment, confidence, utf8.RuneCountInString(blocks[i].Text), profile)
}

// applySentenceTier implements the three-tier sentence flow: under 10 chars
// skips remote analysis entirely, 10..49 chars uses a simplified local-only
// score, and 50+ chars calls DeepSeek (deepseek-chat up to 300 chars,
// deepseek-reasoner beyond) with retries, falling back to a low-confidence
// local score after the retry budget is exhausted.
func applySentenceTier(ctx context.Context, opts Options, blocks []model.TextBlock, i int, seg *model.Segment, local segment.Result) {
	block := blocks[i]
	charCount := utf8.RuneCountInString(block.Text)

	if charCount < sentenceLocalMinChars {
		return
	}
	if charCount < sentenceRemoteMinChars {
		simplified := segment.Build(block.Text, textnorm.SplitSentencesFallback(block.Text), opts.Language, nil, false, opts.UseStylometry)
		seg.RawProbability = simplified.RawProbability
		seg.Confidence = 0.5
		seg.Uncertainty = clampUncertainty(1 - seg.Confidence)
		seg.Signals.Stylometry = simplified.Stylometry
		seg.Signals.Perplexity = model.SignalPerplexity{}
		return
	}

	modelName := "deepseek-chat"
	if charCount > deepSeekChatMaxChars {
		modelName = "deepseek-reasoner"
	}
	prompt := buildSegmentPrompt(blocks, i, nil)

	var judgment model.SignalLLMJudgment
	var confidence float64
	var err error
	for attempt := 1; attempt <= config.DeepSeekSentenceMaxAttempts; attempt++ {
		if aerr := remote.DeepSeekSentenceSem.Acquire(ctx, 1); aerr != nil {
			err = aerr
			break
		}
		callCtx, cancel := context.WithTimeout(ctx, config.DeepSeekSentenceTimeoutSeconds*time.Second)
		judgment, confidence, err = opts.Client.AnalyzeSegment(callCtx, config.ProviderDeepSeek, prompt, remote.ChatOptions{MaxTokens: 512, Model: modelName})
		cancel()
		remote.DeepSeekSentenceSem.Release(1)
		if err == nil {
			break
		}
		if attempt < config.DeepSeekSentenceMaxAttempts {
			if ctxCanceled(ctx, time.Duration(attempt*config.DeepSeekSentenceBackoffMillis)*time.Millisecond) {
				break
			}
		}
	}
	if err != nil {
		log.Warn().Err(err).Int("chunk_id", block.Index).Msg("sentence-level deepseek analysis failed after retries, using local-only score")
		seg.Confidence = 0.4
		seg.Uncertainty = clampUncertainty(1 - seg.Confidence)
		seg.Explanations = append(seg.Explanations, "deepseek_sentence_fallback")
		return
	}
	fuseInto(seg, local, judgment, confidence, charCount, nil)
}

// fuseInto applies component H (fusion.Fuse) to blend a remote judgment with
// the local score and writes the result onto seg.
func fuseInto(seg *model.Segment, local segment.Result, judgment model.SignalLLMJudgment, confidence float64, textLen int, profile *model.DocumentProfile) {
	seg.Signals.LLMJudgment = judgment

	pLLM := local.RawProbability
	if judgment.Prob != nil {
		pLLM = *judgment.Prob
	}

	out := fusion.Fuse(fusion.Inputs{
		PLLM:             pLLM,
		CLLM:             confidence,
		ULLM:             judgment.Uncertainty,
		Evidence:         judgment.Evidence,
		PLocal:           local.RawProbability,
		CLocal:           local.Confidence,
		TextLen:          textLen,
		AcademicStrength: catalog.AcademicStrength(profile),
	})
	seg.RawProbability = out.RawProbability
	seg.Confidence = out.Confidence
	seg.Uncertainty = out.Uncertainty
	seg.Explanations = append(seg.Explanations, out.Explanations...)
}

// ctxCanceled waits up to d (or until ctx is done), reporting whether ctx
// ended the wait early.
func ctxCanceled(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return true
	case <-timer.C:
		return false
	}
}

func clampUncertainty(v float64) float64 {
	if v < 0.05 {
		return 0.05
	}
	if v > 0.9 {
		return 0.9
	}
	return v
}
