package aggregate

import (
	"math"

	"github.com/gy212/cheekai-detect/internal/config"
	"github.com/gy212/cheekai-detect/internal/model"
	"github.com/gy212/cheekai-detect/internal/textnorm"
)

const previewMaxBytes = 100

// Compare aligns paragraph segments to sentence segments by byte-range
// overlap (counting a pair only when the overlap covers more than half of
// both sides), computing consistency and any divergent regions.
func Compare(text string, paragraphs, sentences []model.Segment) model.Comparison {
	if len(paragraphs) == 0 || len(sentences) == 0 {
		return model.Comparison{ProbabilityDiff: 0, ConsistencyScore: 1.0}
	}

	paraAvg := avgProbability(paragraphs)
	sentAvg := avgProbability(sentences)
	probabilityDiff := math.Abs(paraAvg - sentAvg)

	var divergent []model.DivergentRegion
	consistentCount := 0
	totalComparisons := 0

	for _, p := range paragraphs {
		pStart, pEnd := p.Offsets.Start, p.Offsets.End
		for _, s := range sentences {
			sStart, sEnd := s.Offsets.Start, s.Offsets.End

			overlapStart := max(pStart, sStart)
			overlapEnd := min(pEnd, sEnd)
			overlapLen := overlapEnd - overlapStart
			if overlapLen <= 0 {
				continue
			}

			pCoverage := float64(overlapLen) / float64(max(pEnd-pStart, 1))
			sCoverage := float64(overlapLen) / float64(max(sEnd-sStart, 1))
			if pCoverage <= 0.5 || sCoverage <= 0.5 {
				continue
			}

			totalComparisons++
			pDirection := p.RawProbability > 0.5
			sDirection := s.RawProbability > 0.5
			if pDirection == sDirection {
				consistentCount++
			}

			probDiff := math.Abs(p.RawProbability - s.RawProbability)
			if probDiff > config.DivergentRegionThreshold {
				previewEnd := min(overlapStart+previewMaxBytes, overlapEnd)
				preview := textnorm.SafeSlice(text, overlapStart, previewEnd)
				if previewEnd < overlapEnd {
					preview += "..."
				}
				divergent = append(divergent, model.DivergentRegion{
					ParagraphSegmentID: p.ChunkID,
					SentenceSegmentID:  s.ChunkID,
					ProbabilityDiff:    round4(probDiff),
					ParagraphProb:      round4(p.RawProbability),
					SentenceProb:       round4(s.RawProbability),
					TextPreview:        preview,
				})
			}
		}
	}

	consistency := 1.0
	if totalComparisons > 0 {
		consistency = float64(consistentCount) / float64(totalComparisons)
	}

	return model.Comparison{
		ProbabilityDiff:  round4(probabilityDiff),
		ConsistencyScore: round4(consistency),
		DivergentRegions: divergent,
	}
}

func avgProbability(segs []model.Segment) float64 {
	sum := 0.0
	for _, s := range segs {
		sum += s.RawProbability
	}
	return sum / float64(len(segs))
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
