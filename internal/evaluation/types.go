// Package evaluation scores a candidate's interview answer against a
// reference answer. Everything here is local and deterministic: the same
// request always produces the same Result.
package evaluation

import "strings"

// Request is one answer to evaluate.
type Request struct {
	Question  string   `json:"question" mapstructure:"question"`
	Answer    string   `json:"answer" mapstructure:"answer"`
	Reference string   `json:"reference,omitempty" mapstructure:"reference"`
	Skills    []string `json:"skills,omitempty" mapstructure:"skills"`
}

// Source tells how a Result was produced.
type Source string

const (
	SourceGenerative  Source = "generative"
	SourceHeuristic   Source = "heuristic"
	SourceUnavailable Source = "unavailable"
)

// Result is the structured evaluation of one answer.
type Result struct {
	Score              int                   `json:"score"`
	Label              Label                 `json:"label"`
	Strengths          []string              `json:"strengths"`
	Weaknesses         []string              `json:"weaknesses"`
	Feedback           string                `json:"feedback"`
	SkillBreakdown     map[string]SkillScore `json:"skill_breakdown"`
	Comparison         Comparison            `json:"comparison"`
	SimilarityScore    float64               `json:"similarity_score"`
	PriorityActions    []string              `json:"priority_actions"`
	RecommendedSnippet string                `json:"recommended_snippet"`
	ReferenceAnswer    string                `json:"reference_answer,omitempty"`
	Source             Source                `json:"source"`
	Degraded           bool                  `json:"degraded"`
}

// SkillScore is the per-skill part of a Result.
type SkillScore struct {
	Score          int      `json:"score"`
	Strengths      []string `json:"strengths"`
	Weaknesses     []string `json:"weaknesses"`
	Feedback       string   `json:"feedback"`
	ExampleSnippet string   `json:"example_snippet,omitempty"`
}

// Comparison describes how the answer covers the reference.
type Comparison struct {
	OverlapWords       []string        `json:"overlap_words"`
	MissingModelPoints []string        `json:"missing_model_points"`
	SentenceMatches    []SentenceMatch `json:"sentence_matches"`
}

// SentenceMatch pairs a reference sentence with the closest candidate sentence.
type SentenceMatch struct {
	Reference string  `json:"reference"`
	Candidate string  `json:"candidate"`
	Ratio     float64 `json:"ratio"`
}

// Label is a coarse band of the score.
type Label string

const (
	LabelPoor      Label = "Poor"
	LabelNeedsWork Label = "Needs work"
	LabelAverage   Label = "Average"
	LabelStrong    Label = "Strong"
	LabelExcellent Label = "Excellent"
)

// LabelFor maps a score to its label.
func LabelFor(score int) Label {
	switch {
	case score >= 85:
		return LabelExcellent
	case score >= 70:
		return LabelStrong
	case score >= 50:
		return LabelAverage
	case score >= 30:
		return LabelNeedsWork
	default:
		return LabelPoor
	}
}

// Rank orders labels from worst (0) to best (4).
func (l Label) Rank() int {
	switch l {
	case LabelExcellent:
		return 4
	case LabelStrong:
		return 3
	case LabelAverage:
		return 2
	case LabelNeedsWork:
		return 1
	default:
		return 0
	}
}

// SkillProfile maps a lowercase skill name to its keywords.
type SkillProfile map[string][]string

// DefaultSkills is used when a request carries no skill tags.
var DefaultSkills = []string{
	"growth",
	"user experience",
	"analytics",
	"vision",
	"social impact",
	"product strategy",
	"execution",
}

// DefaultSkillProfile returns the built-in keyword table.
func DefaultSkillProfile() SkillProfile {
	return SkillProfile{
		"growth":           {"growth", "activation", "retention", "acquisition", "funnel", "experiment", "a/b", "ab test", "conversion", "kpi", "metric"},
		"user experience":  {"ux", "user research", "usability", "persona", "wireframe", "prototype", "usability test", "user interview", "journey"},
		"analytics":        {"sql", "analytics", "data", "cohort", "segmentation", "dashboard", "metric", "kpi", "funnel", "measurement"},
		"vision":           {"vision", "roadmap", "strategy", "long-term", "north star", "product vision", "mission"},
		"social impact":    {"impact", "sustainability", "social", "community", "ethics", "accessibility"},
		"product strategy": {"strategy", "market", "positioning", "value proposition", "differentiation", "segmentation"},
		"execution":        {"execution", "launch", "timeline", "milestone", "stakeholder", "resourcing", "delivery", "implementation"},
	}
}

// Keywords returns the keywords of skill, case-insensitively. Unknown skills
// use the words of their own name.
func (p SkillProfile) Keywords(skill string) []string {
	key := strings.ToLower(strings.TrimSpace(skill))
	if kws, ok := p[key]; ok && len(kws) > 0 {
		return kws
	}
	return strings.Fields(key)
}

// Weights holds every tunable constant of the scorer.
type Weights struct {
	SemanticOverlap    float64 `mapstructure:"semantic-overlap" validate:"gte=0,lte=1"`
	SemanticSimilarity float64 `mapstructure:"semantic-similarity" validate:"gte=0,lte=1"`
	SemanticLength     float64 `mapstructure:"semantic-length" validate:"gte=0,lte=1"`

	LexicalOverlap float64 `mapstructure:"lexical-overlap" validate:"gte=0,lte=1"`
	LexicalFuzzy   float64 `mapstructure:"lexical-fuzzy" validate:"gte=0,lte=1"`
	LexicalLength  float64 `mapstructure:"lexical-length" validate:"gte=0,lte=1"`

	StructureBonus float64 `mapstructure:"structure-bonus" validate:"gte=0,lte=30"`
	ExampleBonus   float64 `mapstructure:"example-bonus" validate:"gte=0,lte=30"`
	MetricBonus    float64 `mapstructure:"metric-bonus" validate:"gte=0,lte=30"`

	Noise      float64 `mapstructure:"noise" validate:"gte=0,lte=20"`
	SkillNoise float64 `mapstructure:"skill-noise" validate:"gte=0,lte=20"`

	LengthNormalizer int `mapstructure:"length-normalizer" validate:"gte=1"`

	Skill SkillWeights `mapstructure:"skill"`
}

// SkillWeights are the per-skill score components, in points.
type SkillWeights struct {
	Affinity  float64 `mapstructure:"affinity" validate:"gte=0,lte=100"`
	Overlap   float64 `mapstructure:"overlap" validate:"gte=0,lte=100"`
	Length    float64 `mapstructure:"length" validate:"gte=0,lte=100"`
	Example   float64 `mapstructure:"example" validate:"gte=0,lte=100"`
	Metric    float64 `mapstructure:"metric" validate:"gte=0,lte=100"`
	Structure float64 `mapstructure:"structure" validate:"gte=0,lte=100"`
}

// DefaultWeights returns the stock tuning.
func DefaultWeights() Weights {
	return Weights{
		SemanticOverlap:    0.25,
		SemanticSimilarity: 0.60,
		SemanticLength:     0.15,
		LexicalOverlap:     0.50,
		LexicalFuzzy:       0.25,
		LexicalLength:      0.25,
		StructureBonus:     6,
		ExampleBonus:       10,
		MetricBonus:        8,
		Noise:              5,
		SkillNoise:         6,
		LengthNormalizer:   50,
		Skill: SkillWeights{
			Affinity:  40,
			Overlap:   10,
			Length:    10,
			Example:   20,
			Metric:    10,
			Structure: 10,
		},
	}
}
