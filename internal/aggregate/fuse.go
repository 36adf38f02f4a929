package aggregate

import (
	"github.com/gy212/cheekai-detect/internal/config"
	"github.com/gy212/cheekai-detect/internal/fusion"
	"github.com/gy212/cheekai-detect/internal/model"
)

// Fused combines the paragraph and sentence mode aggregations into the
// top-level fused verdict: p_fused = 0.6*p_para + 0.4*p_sent (paragraph-only
// if the sentence mode is empty), using the paragraph segment set's mean
// uncertainty as the overall uncertainty proxy.
func Fused(paragraph model.Aggregation, paragraphSegments []model.Segment, sentence model.Aggregation, sentenceSegments []model.Segment, sensitivity config.Sensitivity) model.Aggregation {
	thresholds := fusion.DecisionThresholds(sensitivity)
	agg := model.Aggregation{
		Method:             "fused",
		Thresholds:         model.DefaultAggregationThresholds,
		DecisionThresholds: thresholds,
		RubricVersion:      model.RubricVersion,
		BufferMargin:       config.DecisionMargin,
	}

	if len(sentenceSegments) == 0 {
		agg.OverallProbability = paragraph.OverallProbability
		agg.OverallConfidence = paragraph.OverallConfidence
		agg.OverallUncertainty = paragraph.OverallUncertainty
	} else {
		agg.OverallProbability = config.ParagraphFusionWeight*paragraph.OverallProbability + config.SentenceFusionWeight*sentence.OverallProbability
		agg.OverallConfidence = config.ParagraphFusionWeight*paragraph.OverallConfidence + config.SentenceFusionWeight*sentence.OverallConfidence
		agg.OverallUncertainty = paragraphUncertaintyMean(paragraphSegments)
	}

	agg.Decision = fusion.DecideOverall(agg.OverallProbability, agg.OverallUncertainty, paragraphSegments, sensitivity, config.DecisionMargin)
	return agg
}

func paragraphUncertaintyMean(segments []model.Segment) float64 {
	if len(segments) == 0 {
		return 0
	}
	sum := 0.0
	for _, s := range segments {
		sum += s.Uncertainty
	}
	return sum / float64(len(segments))
}
