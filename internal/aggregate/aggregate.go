// Package aggregate implements component I: per-mode aggregation, overall
// decision gating, optional contrast sharpening, dual-mode comparison, and
// the paragraph/sentence fusion that produces the final DualResult.
package aggregate

import (
	"math"
	"sort"

	"github.com/gy212/cheekai-detect/internal/config"
	"github.com/gy212/cheekai-detect/internal/fusion"
	"github.com/gy212/cheekai-detect/internal/model"
)

// segmentWeight is w_i = max(50, len)^0.5 * max(0.3, confidence).
func segmentWeight(seg model.Segment) float64 {
	length := float64(seg.Offsets.End - seg.Offsets.Start)
	if length < 50 {
		length = 50
	}
	c := seg.Confidence
	if c < 0.3 {
		c = 0.3
	}
	return math.Sqrt(length) * c
}

// Mode aggregates one granularity's segments into a model.Aggregation,
// applying the same sensitivity-gated decision as the per-segment gate, but
// demoting a flag unless at least one segment individually clears the gate.
func Mode(segments []model.Segment, sensitivity config.Sensitivity) model.Aggregation {
	thresholds := fusion.DecisionThresholds(sensitivity)
	agg := model.Aggregation{
		Method:             "weighted",
		Thresholds:         model.DefaultAggregationThresholds,
		DecisionThresholds: thresholds,
		RubricVersion:      model.RubricVersion,
		BufferMargin:       config.DecisionMargin,
		Decision:           model.DecisionPass,
	}
	if len(segments) == 0 {
		return agg
	}

	sorted := make([]model.Segment, len(segments))
	copy(sorted, segments)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ChunkID < sorted[j].ChunkID })

	weights := make([]float64, len(sorted))
	totalWeight := 0.0
	weightedProb := 0.0
	weightedConf := 0.0
	weightedUnc := 0.0
	for i, seg := range sorted {
		w := segmentWeight(seg)
		weights[i] = w
		totalWeight += w
		weightedProb += w * seg.RawProbability
		weightedConf += w * seg.Confidence
		weightedUnc += w * seg.Uncertainty
	}
	if totalWeight == 0 {
		totalWeight = 1
	}
	pw := weightedProb / totalWeight

	overall := pw
	if len(sorted) >= 5 {
		probs := make([]float64, len(sorted))
		for i, seg := range sorted {
			probs[i] = seg.RawProbability
		}
		sort.Float64s(probs)
		trim := int(math.Ceil(float64(len(probs)) * 0.1))
		trimmed := probs[trim : len(probs)-trim]
		sum := 0.0
		for _, p := range trimmed {
			sum += p
		}
		pt := sum / float64(len(trimmed))
		overall = 0.7*pw + 0.3*pt
	}

	overallConfidence := weightedConf / totalWeight
	overallUncertainty := weightedUnc / totalWeight
	qualityScore := 0.5 + (overallConfidence-0.5)*0.6

	agg.OverallProbability = clamp(overall, 0, 1)
	agg.OverallConfidence = clamp(overallConfidence, 0, 1)
	agg.OverallUncertainty = clamp(overallUncertainty, 0, 1)
	agg.QualityScoreNormalized = &qualityScore
	agg.Decision = fusion.DecideOverall(agg.OverallProbability, agg.OverallUncertainty, sorted, sensitivity, config.DecisionMargin)
	return agg
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
