package remote

import (
	"context"
	"fmt"
	"strings"

	"github.com/gy212/cheekai-detect/internal/config"
	"github.com/gy212/cheekai-detect/internal/model"
)

const batchSystemPrompt = `You are an AI-generated-text detector. Judge every numbered segment independently. ` +
	`Respond with strict JSON: {"segments":[{"chunk_id":0,"probability":0.0,"confidence":0.0,` +
	`"uncertainty":0.0,"signals":[{"id":"...","score":0.0,"evidence":"..."}]}]}. ` +
	`signals[].id must be one of: template_like, low_specificity, uniform_structure, high_repetition, ` +
	`weak_human_trace, logical_leaps, human_detail, stylistic_variance. Provide 3 to 6 signals per segment.`

// BatchSegmentInput is one paragraph offered to the GLM batch path.
type BatchSegmentInput struct {
	ChunkID int
	Text    string
}

// BatchJudgment is one chunk's parsed judgment plus the remote confidence,
// keyed back to the caller by chunk_id.
type BatchJudgment struct {
	Judgment   model.SignalLLMJudgment
	Confidence float64
}

type batchSegmentResult struct {
	ChunkID     int                  `json:"chunk_id"`
	Probability *float64             `json:"probability"`
	Confidence  *float64             `json:"confidence"`
	Uncertainty *float64             `json:"uncertainty"`
	Signals     []model.EvidenceItem `json:"signals"`
}

type batchResponse struct {
	Segments []batchSegmentResult `json:"segments"`
}

// AnalyzeSegmentsBatch sends every paragraph in a single GLM call, keyed by
// chunk_id, and returns the judgments it could parse back. Chunks the model
// skipped are simply absent from the result; the caller keeps its local
// score for those. This path always targets GLM, which is the provider the
// batch response contract was built against.
func (c *Client) AnalyzeSegmentsBatch(ctx context.Context, segments []BatchSegmentInput, opts ChatOptions) (map[int]BatchJudgment, error) {
	if len(segments) == 0 {
		return map[int]BatchJudgment{}, nil
	}

	var sb strings.Builder
	for _, s := range segments {
		fmt.Fprintf(&sb, "[chunk_id=%d]\n%s\n\n", s.ChunkID, s.Text)
	}

	opts.JSONFormat = true
	result, err := c.Call(ctx, config.ProviderGLM, batchSystemPrompt, sb.String(), opts)
	if err != nil {
		return nil, err
	}

	var parsed batchResponse
	if err := DecodeJSONLenient(result.Content, &parsed); err != nil {
		return nil, err
	}

	modelName := resolvedModel(config.ProviderGLM, opts)
	out := make(map[int]BatchJudgment, len(parsed.Segments))
	for _, r := range parsed.Segments {
		evidence := make([]model.EvidenceItem, 0, len(r.Signals))
		for _, item := range r.Signals {
			id := model.EvidenceID(strings.ToLower(strings.TrimSpace(string(item.ID))))
			if !model.ValidEvidenceIDs[id] {
				continue
			}
			item.ID = id
			evidence = append(evidence, item)
		}
		confidence := 0.6
		if r.Confidence != nil {
			confidence = *r.Confidence
		}
		out[r.ChunkID] = BatchJudgment{
			Judgment: model.SignalLLMJudgment{
				Prob:        r.Probability,
				Models:      []string{string(config.ProviderGLM) + ":" + modelName},
				Uncertainty: r.Uncertainty,
				Evidence:    evidence,
			},
			Confidence: confidence,
		}
	}
	return out, nil
}
