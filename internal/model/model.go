// Package model holds the data types shared across every stage of the
// detection pipeline: text blocks, segments, evidence, profiles and the
// aggregated/dual-mode results returned to callers.
package model

// BlockLabel distinguishes how a TextBlock was produced.
type BlockLabel string

const (
	BlockLabelBody     BlockLabel = "body"
	BlockLabelSentence BlockLabel = "sentence_block"
)

// TextBlock is a half-open byte range [Start, End) into the normalized
// document text, together with its verbatim slice.
type TextBlock struct {
	Index       int
	Start       int
	End         int
	Text        string
	Label       BlockLabel
	Detection   bool
	SentenceCnt int
}

// SentenceSpan is a half-open byte range used internally before sentences
// are packed into TextBlocks.
type SentenceSpan struct {
	Start int
	End   int
}

// StylometryMetrics are the local, deterministic stylometric features
// computed for a segment.
type StylometryMetrics struct {
	TTR               float64  `json:"ttr"`
	AvgSentenceLen    float64  `json:"avg_sentence_len"`
	FunctionWordRatio *float64 `json:"function_word_ratio,omitempty"`
	RepeatRatio       *float64 `json:"repeat_ratio,omitempty"`
	NgramRepeatRate   *float64 `json:"ngram_repeat_rate,omitempty"`
	PunctuationRatio  *float64 `json:"punctuation_ratio,omitempty"`
}

// EvidenceID is the closed set of identifiers a remote judgment's evidence
// items may carry. Anything outside this set is dropped on parse.
type EvidenceID string

const (
	EvidenceTemplateLike      EvidenceID = "template_like"
	EvidenceLowSpecificity    EvidenceID = "low_specificity"
	EvidenceUniformStructure  EvidenceID = "uniform_structure"
	EvidenceHighRepetition    EvidenceID = "high_repetition"
	EvidenceWeakHumanTrace    EvidenceID = "weak_human_trace"
	EvidenceLogicalLeaps      EvidenceID = "logical_leaps"
	EvidenceHumanDetail       EvidenceID = "human_detail"
	EvidenceStylisticVariance EvidenceID = "stylistic_variance"
)

// ValidEvidenceIDs is the authoritative closed set; every component that
// parses, weighs or gates on evidence ids reads from this single map.
var ValidEvidenceIDs = map[EvidenceID]bool{
	EvidenceTemplateLike:      true,
	EvidenceLowSpecificity:    true,
	EvidenceUniformStructure:  true,
	EvidenceHighRepetition:    true,
	EvidenceWeakHumanTrace:    true,
	EvidenceLogicalLeaps:      true,
	EvidenceHumanDetail:       true,
	EvidenceStylisticVariance: true,
}

// EvidenceItem is one tagged, weighted claim produced by the remote model.
type EvidenceItem struct {
	ID       EvidenceID `json:"id"`
	Score    float64    `json:"score"`
	Evidence string     `json:"evidence"`
}

// ProfileValidity reflects whether a DocumentProfile's discipline belongs
// to its (possibly corrected) category's discipline set.
type ProfileValidity string

const (
	ValidityValid   ProfileValidity = "valid"
	ValidityPartial ProfileValidity = "partial"
	ValidityInvalid ProfileValidity = "invalid"
)

// DocumentProfile is the one-shot classification of the whole document.
type DocumentProfile struct {
	Category    string          `json:"category"`
	Discipline  string          `json:"discipline,omitempty"`
	Subfield    string          `json:"subfield,omitempty"`
	PaperType   string          `json:"paper_type,omitempty"`
	Summary     string          `json:"summary"`
	Conventions []string        `json:"conventions,omitempty"`
	Validity    ProfileValidity `json:"validity"`
}

// ParagraphCategory is the phase-1/phase-2 content-filter classification.
type ParagraphCategory string

const (
	CategoryBody      ParagraphCategory = "body"
	CategoryTitle     ParagraphCategory = "title"
	CategoryTOC       ParagraphCategory = "toc"
	CategoryReference ParagraphCategory = "reference"
	CategoryAuxiliary ParagraphCategory = "auxiliary"
	CategoryNoise     ParagraphCategory = "noise"
)

// ParagraphClassification is the content filter's verdict for one paragraph.
type ParagraphClassification struct {
	Index      int
	Category   ParagraphCategory
	Confidence float64
	Reason     string
}

// FilterSummary reports how many paragraphs were kept/removed, split by
// the phase (rule vs remote) that decided them.
type FilterSummary struct {
	TotalParagraphs   int            `json:"total_paragraphs"`
	BodyCount         int            `json:"body_count"`
	FilteredByRule    int            `json:"filtered_by_rule"`
	FilteredByLLM     int            `json:"filtered_by_llm"`
	CategoryCounts    map[string]int `json:"category_counts"`
}

// Decision is the per-segment / per-document verdict.
type Decision string

const (
	DecisionPass   Decision = "pass"
	DecisionReview Decision = "review"
	DecisionFlag   Decision = "flag"
)

// SegmentOffsets is the byte range of a segment within the document used to
// build it.
type SegmentOffsets struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// SignalLLMJudgment is the remote model's raw judgment for a segment.
type SignalLLMJudgment struct {
	Prob        *float64       `json:"prob,omitempty"`
	Models      []string       `json:"models"`
	Uncertainty *float64       `json:"uncertainty,omitempty"`
	Evidence    []EvidenceItem `json:"evidence"`
}

// SignalPerplexity carries the perplexity-surrogate feature.
type SignalPerplexity struct {
	PPL *float64 `json:"ppl,omitempty"`
}

// SegmentSignals bundles the three signal families a Segment accumulates.
type SegmentSignals struct {
	LLMJudgment SignalLLMJudgment `json:"llm_judgment"`
	Perplexity  SignalPerplexity  `json:"perplexity"`
	Stylometry  StylometryMetrics `json:"stylometry"`
}

// Segment is a scored region of text at either paragraph or sentence
// granularity.
type Segment struct {
	ChunkID        int            `json:"chunk_id"`
	Language       string         `json:"language"`
	Offsets        SegmentOffsets `json:"offsets"`
	RawProbability float64        `json:"raw_probability"`
	Confidence     float64        `json:"confidence"`
	Uncertainty    float64        `json:"uncertainty"`
	Decision       Decision       `json:"decision"`
	Signals        SegmentSignals `json:"signals"`
	Explanations   []string       `json:"explanations"`

	// LocalProbability is the pre-fusion, local-only estimate from the
	// segment builder; fusion blends it with the remote judgment.
	LocalProbability float64 `json:"-"`
}

// DecisionThresholds is the sensitivity-specific {review, flag} band.
type DecisionThresholds struct {
	Review float64 `json:"review"`
	Flag   float64 `json:"flag"`
}

// AggregationThresholds are the fixed taxonomy bands reported alongside the
// sensitivity-specific decision thresholds.
type AggregationThresholds struct {
	Low    float64 `json:"low"`
	Medium float64 `json:"medium"`
	High   float64 `json:"high"`
}

// DefaultAggregationThresholds mirrors the fixed taxonomy bands used for
// reporting (distinct from the sensitivity-specific decision gate).
var DefaultAggregationThresholds = AggregationThresholds{Low: 0.55, Medium: 0.65, High: 0.85}

const RubricVersion = "rubric-v1.2"

// Aggregation is the document-level (or per-mode) aggregate verdict.
type Aggregation struct {
	OverallProbability        float64                `json:"overall_probability"`
	OverallConfidence         float64                `json:"overall_confidence"`
	OverallUncertainty        float64                `json:"overall_uncertainty"`
	Method                    string                 `json:"method"`
	Thresholds                AggregationThresholds  `json:"thresholds"`
	DecisionThresholds        DecisionThresholds     `json:"decision_thresholds"`
	RubricVersion             string                 `json:"rubric_version"`
	Decision                  Decision               `json:"decision"`
	BufferMargin              float64                `json:"buffer_margin"`
	StylometryProbability     *float64               `json:"stylometry_probability,omitempty"`
	QualityScoreNormalized    *float64               `json:"quality_score_normalized,omitempty"`
}

// ModeResult is the per-granularity (paragraph or sentence) result.
type ModeResult struct {
	Aggregation  Aggregation `json:"aggregation"`
	Segments     []Segment   `json:"segments"`
	SegmentCount int         `json:"segment_count"`
}

// DivergentRegion records a byte-overlap span where paragraph and sentence
// mode disagree by more than the configured threshold.
type DivergentRegion struct {
	ParagraphSegmentID int     `json:"paragraph_segment_id"`
	SentenceSegmentID  int     `json:"sentence_segment_id"`
	ProbabilityDiff    float64 `json:"probability_diff"`
	ParagraphProb      float64 `json:"paragraph_prob"`
	SentenceProb       float64 `json:"sentence_prob"`
	TextPreview        string  `json:"text_preview"`
}

// Comparison is the side-by-side comparison of paragraph vs sentence mode.
type Comparison struct {
	ProbabilityDiff  float64           `json:"probability_diff"`
	ConsistencyScore float64           `json:"consistency_score"`
	DivergentRegions []DivergentRegion `json:"divergent_regions"`
}

// DualResult is the top-level verdict: both modes, their comparison, and
// the fused aggregation.
type DualResult struct {
	RequestID          string           `json:"request_id"`
	Paragraph          ModeResult       `json:"paragraph"`
	Sentence           ModeResult       `json:"sentence"`
	Comparison         Comparison       `json:"comparison"`
	FusedAggregation   *Aggregation     `json:"fused_aggregation,omitempty"`
	FilterSummary      *FilterSummary   `json:"filter_summary,omitempty"`
	DocumentProfile    *DocumentProfile `json:"document_profile,omitempty"`
}
