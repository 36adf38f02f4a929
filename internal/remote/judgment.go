package remote

import (
	"context"
	"strings"

	"github.com/gy212/cheekai-detect/internal/config"
	"github.com/gy212/cheekai-detect/internal/model"
)

const judgmentSystemPrompt = `You are an AI-generated-text detector. Judge only the marked segment, using ` +
	`surrounding context only for continuity. Respond with strict JSON: {"probability":0.0,"confidence":0.0,` +
	`"uncertainty":0.0,"signals":[{"id":"...","score":0.0,"evidence":"..."}],"reasoning":"..."}. ` +
	`signals[].id must be one of: template_like, low_specificity, uniform_structure, high_repetition, ` +
	`weak_human_trace, logical_leaps, human_detail, stylistic_variance. Provide 3 to 6 signals.`

type judgmentResponse struct {
	Probability *float64             `json:"probability"`
	Confidence  *float64             `json:"confidence"`
	Uncertainty *float64             `json:"uncertainty"`
	Signals     []model.EvidenceItem `json:"signals"`
	Reasoning   string               `json:"reasoning"`
}

// AnalyzeSegment sends prompt (already containing the profile header and
// surrounding-paragraph context) to provider under system role
// judgmentSystemPrompt, and decodes the resulting SignalLLMJudgment plus
// the remote confidence (used transiently in fusion, never persisted onto
// the segment). Unknown evidence ids are dropped at parse time as defense in
// depth; fusion re-normalizes regardless.
func (c *Client) AnalyzeSegment(ctx context.Context, provider config.Provider, prompt string, opts ChatOptions) (model.SignalLLMJudgment, float64, error) {
	resolved := c.ResolveProvider(provider)
	if resolved != provider {
		// A fallback provider won't know the requested provider's model names;
		// let it use its own default.
		opts.Model = ""
	}
	provider = resolved
	opts.JSONFormat = true
	result, err := c.Call(ctx, provider, judgmentSystemPrompt, prompt, opts)
	if err != nil {
		return model.SignalLLMJudgment{}, 0, err
	}

	var parsed judgmentResponse
	if err := DecodeJSONLenient(result.Content, &parsed); err != nil {
		return model.SignalLLMJudgment{}, 0, err
	}

	evidence := make([]model.EvidenceItem, 0, len(parsed.Signals))
	for _, item := range parsed.Signals {
		id := model.EvidenceID(strings.ToLower(strings.TrimSpace(string(item.ID))))
		if !model.ValidEvidenceIDs[id] {
			continue
		}
		item.ID = id
		evidence = append(evidence, item)
	}

	confidence := 0.6
	if parsed.Confidence != nil {
		confidence = *parsed.Confidence
	}

	return model.SignalLLMJudgment{
		Prob:        parsed.Probability,
		Models:      []string{string(provider) + ":" + resolvedModel(provider, opts)},
		Uncertainty: parsed.Uncertainty,
		Evidence:    evidence,
	}, confidence, nil
}

func resolvedModel(provider config.Provider, opts ChatOptions) string {
	if opts.Model != "" {
		return opts.Model
	}
	if m, ok := config.DefaultModels[provider]; ok {
		return m
	}
	return "default"
}
