package fusion

import (
	"math"
	"strings"

	"github.com/gy212/cheekai-detect/internal/model"
)

var baseEvidenceWeights = map[model.EvidenceID]float64{
	model.EvidenceTemplateLike:      1.0,
	model.EvidenceLowSpecificity:    0.9,
	model.EvidenceUniformStructure:  0.8,
	model.EvidenceHighRepetition:    0.9,
	model.EvidenceWeakHumanTrace:    0.7,
	model.EvidenceLogicalLeaps:      0.7,
	model.EvidenceHumanDetail:       1.0,
	model.EvidenceStylisticVariance: 0.7,
}

// NormalizeEvidence lowercases/trims ids, clamps scores to [-1,1], and drops
// empty evidence or ids outside the closed set.
func NormalizeEvidence(items []model.EvidenceItem) []model.EvidenceItem {
	out := make([]model.EvidenceItem, 0, len(items))
	for _, item := range items {
		id := model.EvidenceID(strings.ToLower(strings.TrimSpace(string(item.ID))))
		if !model.ValidEvidenceIDs[id] {
			continue
		}
		if strings.TrimSpace(item.Evidence) == "" {
			continue
		}
		item.ID = id
		item.Score = clamp(item.Score, -1, 1)
		out = append(out, item)
	}
	return out
}

// evidenceWeight returns the academic-adjusted weight for id, or 0 for ids
// outside the base table so they can never contribute.
func evidenceWeight(id model.EvidenceID, academicStrength float64) float64 {
	w, ok := baseEvidenceWeights[id]
	if !ok {
		return 0
	}
	if academicStrength <= 0 {
		return w
	}
	s := academicStrength
	switch id {
	case model.EvidenceTemplateLike, model.EvidenceUniformStructure:
		w *= 1 - 0.6*s
	case model.EvidenceHighRepetition:
		w *= 1 - 0.4*s
	case model.EvidenceWeakHumanTrace:
		w *= 1 - 0.65*s
	case model.EvidenceLowSpecificity:
		w *= 1 - 0.25*s
	}
	return w
}

// EvidenceProbability computes p_e = sigmoid(sum(w_i*score_i)), clamped to
// [-3,3] before the sigmoid. ok is false when no items survive weighting.
func EvidenceProbability(items []model.EvidenceItem, academicStrength float64) (pe float64, ok bool) {
	sum := 0.0
	any := false
	for _, item := range items {
		w := evidenceWeight(item.ID, academicStrength)
		if w == 0 {
			continue
		}
		sum += w * item.Score
		any = true
	}
	if !any {
		return 0, false
	}
	sum = clamp(sum, -3, 3)
	return sigmoid(sum), true
}

func sigmoid(x float64) float64 {
	return 1.0 / (1.0 + math.Exp(-x))
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

// Inputs bundles the per-segment values Fuse needs: the remote judgment
// (pLLM, cLLM, uLLM, evidence), the local score (pLocal, cLocal), the
// segment's character length, and the document's academic strength.
type Inputs struct {
	PLLM             float64
	CLLM             float64
	ULLM             *float64
	Evidence         []model.EvidenceItem
	PLocal           float64
	CLocal           float64
	TextLen          int
	AcademicStrength float64
}

// Output is the fused per-segment result.
type Output struct {
	RawProbability float64
	Confidence     float64
	Uncertainty    float64
	Explanations   []string
}

// Fuse blends a segment's remote judgment with its local score: evidence
// normalization/weighting, the LLM/evidence probability blend, confidence
// adjustment, local/remote fusion, and uncertainty composition.
func Fuse(in Inputs) Output {
	evidence := NormalizeEvidence(in.Evidence)
	pe, hasPE := EvidenceProbability(evidence, in.AcademicStrength)

	var pAdj float64
	if hasPE {
		m := 0.20 + 0.40*math.Abs(in.PLLM-pe)
		pAdj = in.PLLM*(1-m) + pe*m
	} else {
		pAdj = in.PLLM
	}

	ullm := 0.0
	if in.ULLM != nil {
		ullm = *in.ULLM
	}
	cAdj := in.CLLM * (1 - ullm)
	if hasPE {
		cAdj *= 0.6 + 0.4*(1-math.Abs(in.PLLM-pe))
	}

	lenFactor := clamp(float64(in.TextLen)/1200.0, 0, 1)
	conflict := math.Abs(in.PLLM - in.PLocal)
	if hasPE {
		conflict = math.Max(conflict, 0.8*math.Abs(in.PLLM-pe))
	}
	w := clamp(0.27+0.45*cAdj+0.15*lenFactor-0.75*conflict, 0.15, 0.62)

	rawProbability := w*pAdj + (1-w)*in.PLocal
	confidence := (0.55*cAdj + 0.45*in.CLocal) * (1 - 0.35*conflict)

	var uncertainty float64
	if in.ULLM != nil {
		uncertainty = ullm
	} else {
		uncertainty = 1 - cAdj
	}
	var explanations []string
	if hasPE {
		uncertainty += 0.35 * math.Abs(pAdj-pe)
	} else {
		uncertainty = math.Max(uncertainty, 0.5)
	}

	if in.AcademicStrength > 0 {
		summary := SummarizeEvidence(evidence)
		if summary.StructuralStrength > 0.45 && summary.ContentStrength < 0.2 {
			uncertainty += 0.12 * in.AcademicStrength
			explanations = append(explanations, "academic_structure_uncertainty_boost")
		}
	}

	return Output{
		RawProbability: clamp(rawProbability, 0.02, 0.98),
		Confidence:     clamp(confidence, 0, 1),
		Uncertainty:    clamp(uncertainty, 0.05, 0.9),
		Explanations:   explanations,
	}
}
