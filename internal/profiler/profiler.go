// Package profiler implements component D: a one-shot document-level
// classification call producing {category, discipline, subfield,
// paper_type, summary, conventions}, validated against the subject catalog.
package profiler

import (
	"context"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/gy212/cheekai-detect/internal/catalog"
	"github.com/gy212/cheekai-detect/internal/config"
	"github.com/gy212/cheekai-detect/internal/model"
	"github.com/gy212/cheekai-detect/internal/remote"
)

const (
	minDocumentChars = 200
	tokenBudget      = 6000
	// charsPerTokenEstimate approximates CJK-heavy text, where one token is
	// roughly one to two characters.
	charsPerTokenEstimate = 1.6
	headParagraphs        = 3
	tailParagraphs        = 2
)

const systemPrompt = `You are a document classifier for academic and general writing. ` +
	`Respond with strict JSON: {"category":"...","discipline":"...","subfield":"...", ` +
	`"paper_type":"...","summary":"...","conventions":["..."]}. No prose outside the JSON object.`

type profileResponse struct {
	Category    string   `json:"category"`
	Discipline  string   `json:"discipline"`
	Subfield    string   `json:"subfield"`
	PaperType   string   `json:"paper_type"`
	Summary     string   `json:"summary"`
	Conventions []string `json:"conventions"`
}

// Profile classifies the whole document in one remote call. It returns nil
// (no error) if the document is too short to profile meaningfully.
func Profile(ctx context.Context, client *remote.Client, provider config.Provider, blocks []model.TextBlock) (*model.DocumentProfile, error) {
	totalChars := 0
	for _, b := range blocks {
		totalChars += len([]rune(b.Text))
	}
	if totalChars < minDocumentChars {
		return nil, nil
	}

	digest := buildDigest(blocks, totalChars)

	if client == nil {
		return nil, nil
	}
	if err := remote.AnalyzerSem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer remote.AnalyzerSem.Release(1)

	result, err := client.Call(ctx, client.ResolveProvider(provider), systemPrompt, digest, remote.ChatOptions{MaxTokens: 1024, JSONFormat: true})
	if err != nil {
		log.Warn().Err(err).Msg("document profiler remote call failed, skipping profile")
		return nil, nil
	}

	var parsed profileResponse
	if err := remote.DecodeJSONLenient(result.Content, &parsed); err != nil {
		log.Warn().Err(err).Msg("document profiler response unparseable, skipping profile")
		return nil, nil
	}

	profile := &model.DocumentProfile{
		Discipline:  strings.TrimSpace(parsed.Discipline),
		Subfield:    strings.TrimSpace(parsed.Subfield),
		PaperType:   strings.TrimSpace(parsed.PaperType),
		Summary:     strings.TrimSpace(parsed.Summary),
		Conventions: parsed.Conventions,
	}

	category, looksLikePaperType := catalog.NormalizeCategory(parsed.Category)
	if looksLikePaperType {
		if profile.PaperType == "" {
			profile.PaperType = strings.TrimSpace(parsed.Category)
		}
		category = "交叉学科"
	}
	profile.Category = category

	catalog.ValidateDocumentProfile(profile)
	return profile, nil
}

// buildDigest returns the whole document if it fits the token budget, else
// a sampled digest: the first headParagraphs, as many evenly spaced middle
// paragraphs as fit, and the last tailParagraphs, cumulatively under budget.
func buildDigest(blocks []model.TextBlock, totalChars int) string {
	estTokens := float64(totalChars) / charsPerTokenEstimate
	if estTokens <= tokenBudget || len(blocks) <= headParagraphs+tailParagraphs {
		var sb strings.Builder
		for _, b := range blocks {
			sb.WriteString(b.Text)
			sb.WriteString("\n\n")
		}
		return sb.String()
	}

	budgetChars := int(tokenBudget * charsPerTokenEstimate)
	var chosen []model.TextBlock
	used := 0

	addIfFits := func(b model.TextBlock) bool {
		n := len([]rune(b.Text))
		if used+n > budgetChars {
			return false
		}
		chosen = append(chosen, b)
		used += n
		return true
	}

	head := blocks[:headParagraphs]
	tail := blocks[len(blocks)-tailParagraphs:]
	middle := blocks[headParagraphs : len(blocks)-tailParagraphs]

	for _, b := range head {
		addIfFits(b)
	}

	if len(middle) > 0 {
		tailChars := 0
		for _, b := range tail {
			tailChars += len([]rune(b.Text))
		}
		remainingBudget := budgetChars - used - tailChars
		avgMiddleLen := 1
		if len(middle) > 0 {
			total := 0
			for _, b := range middle {
				total += len([]rune(b.Text))
			}
			avgMiddleLen = total / len(middle)
			if avgMiddleLen == 0 {
				avgMiddleLen = 1
			}
		}
		maxMiddleCount := remainingBudget / avgMiddleLen
		if maxMiddleCount > 0 {
			step := len(middle) / maxMiddleCount
			if step < 1 {
				step = 1
			}
			for i := 0; i < len(middle); i += step {
				if used+len([]rune(middle[i].Text))+tailChars > budgetChars {
					break
				}
				addIfFits(middle[i])
			}
		}
	}

	for _, b := range tail {
		addIfFits(b)
	}

	var sb strings.Builder
	for _, b := range chosen {
		sb.WriteString(b.Text)
		sb.WriteString("\n\n")
	}
	return sb.String()
}
