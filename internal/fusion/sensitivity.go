// Package fusion implements component H: combining a segment's local score
// with its remote judgment's evidence into a calibrated probability,
// confidence and uncertainty, then gating a pass/review/flag decision.
package fusion

import (
	"github.com/gy212/cheekai-detect/internal/config"
	"github.com/gy212/cheekai-detect/internal/model"
)

type decisionProfile struct {
	thresholds        model.DecisionThresholds
	reviewUncertainty float64
	flagUncertainty   float64
	contentMin        float64
	humanMax          float64
}

func profileFor(sensitivity config.Sensitivity) decisionProfile {
	switch sensitivity {
	case config.SensitivityLow:
		return decisionProfile{model.DecisionThresholds{Review: 0.72, Flag: 0.88}, 0.60, 0.30, 0.55, 0.35}
	case config.SensitivityHigh:
		return decisionProfile{model.DecisionThresholds{Review: 0.55, Flag: 0.75}, 0.62, 0.45, 0.0, 0.55}
	default:
		return decisionProfile{model.DecisionThresholds{Review: 0.65, Flag: 0.85}, 0.60, 0.35, 0.45, 0.45}
	}
}

// DecisionThresholds exposes the sensitivity-specific {review, flag} band.
func DecisionThresholds(sensitivity config.Sensitivity) model.DecisionThresholds {
	return profileFor(sensitivity).thresholds
}

// EvidenceSummary rolls evidence items up into the three strength axes the
// decision gate consults, each taken as a MAX (not a sum) across matching
// evidence ids.
type EvidenceSummary struct {
	ContentStrength    float64
	HumanStrength      float64
	StructuralStrength float64
}

func SummarizeEvidence(items []model.EvidenceItem) EvidenceSummary {
	var s EvidenceSummary
	for _, item := range items {
		switch item.ID {
		case model.EvidenceLowSpecificity, model.EvidenceLogicalLeaps:
			if item.Score > s.ContentStrength {
				s.ContentStrength = maxF(item.Score, 0)
			}
		case model.EvidenceHumanDetail, model.EvidenceStylisticVariance:
			if item.Score < 0 {
				s.HumanStrength = maxF(s.HumanStrength, -item.Score)
			}
		case model.EvidenceTemplateLike, model.EvidenceUniformStructure, model.EvidenceHighRepetition, model.EvidenceWeakHumanTrace:
			if item.Score > s.StructuralStrength {
				s.StructuralStrength = maxF(item.Score, 0)
			}
		}
	}
	return s
}

func maxF(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

func baseDecision(prob float64, t model.DecisionThresholds, margin float64) model.Decision {
	switch {
	case prob < t.Review-margin:
		return model.DecisionPass
	case prob < t.Flag-margin:
		return model.DecisionReview
	default:
		return model.DecisionFlag
	}
}

// DecideSegment applies the sensitivity-gated per-segment decision: a base
// probability band, then uncertainty- and evidence-composition gates that
// promote a pass or demote a flag to review.
func DecideSegment(prob, uncertainty float64, evidence []model.EvidenceItem, sensitivity config.Sensitivity, margin float64) model.Decision {
	profile := profileFor(sensitivity)
	summary := SummarizeEvidence(evidence)
	decision := baseDecision(prob, profile.thresholds, margin)

	if decision == model.DecisionPass && uncertainty >= profile.reviewUncertainty {
		decision = model.DecisionReview
	}

	if decision == model.DecisionFlag {
		switch {
		case uncertainty > profile.flagUncertainty:
			decision = model.DecisionReview
		case profile.contentMin > 0 && summary.ContentStrength < profile.contentMin:
			decision = model.DecisionReview
		case summary.HumanStrength >= profile.humanMax:
			decision = model.DecisionReview
		}
	}
	return decision
}

// DecideOverall applies the document-level decision gate: the same base band
// and uncertainty promotion as DecideSegment, but a flag is kept only if at
// least one segment individually clears the per-segment flag gate.
func DecideOverall(prob, overallUncertainty float64, segments []model.Segment, sensitivity config.Sensitivity, margin float64) model.Decision {
	profile := profileFor(sensitivity)
	decision := baseDecision(prob, profile.thresholds, margin)

	if decision == model.DecisionPass && overallUncertainty >= profile.reviewUncertainty {
		decision = model.DecisionReview
	}

	if decision == model.DecisionFlag {
		if overallUncertainty > profile.flagUncertainty {
			decision = model.DecisionReview
		} else {
			hasGate := false
			for _, seg := range segments {
				if seg.RawProbability < profile.thresholds.Flag-margin {
					continue
				}
				if seg.Uncertainty > profile.flagUncertainty {
					continue
				}
				summary := SummarizeEvidence(seg.Signals.LLMJudgment.Evidence)
				if profile.contentMin > 0 && summary.ContentStrength < profile.contentMin {
					continue
				}
				if summary.HumanStrength >= profile.humanMax {
					continue
				}
				hasGate = true
				break
			}
			if !hasGate {
				decision = model.DecisionReview
			}
		}
	}
	return decision
}
