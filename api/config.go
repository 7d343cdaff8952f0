package api

import (
	"fmt"
	"strings"
)

// Strategy selects how a metric family computes its score
type Strategy string

const (
	StrategyLLMWithReference    Strategy = "llm_with_reference"
	StrategyLLMWithoutReference Strategy = "llm_without_reference"
	StrategyNonLLM              Strategy = "non_llm"
	StrategyIDBased             Strategy = "id_based"
)

// Strategies lists every known strategy
var Strategies = []Strategy{
	StrategyLLMWithReference,
	StrategyLLMWithoutReference,
	StrategyNonLLM,
	StrategyIDBased,
}

// Known reports whether s is one of Strategies
func (s Strategy) Known() bool {
	for _, k := range Strategies {
		if s == k {
			return true
		}
	}
	return false
}

// UsesLLM reports whether the strategy calls the LLM capability
func (s Strategy) UsesLLM() bool {
	return s == StrategyLLMWithReference || s == StrategyLLMWithoutReference
}

// Family names a metric
type Family string

const (
	FamilyFaithfulness          Family = "faithfulness"
	FamilyFactualCorrectness    Family = "factual_correctness"
	FamilyContextRecall         Family = "context_recall"
	FamilyContextPrecision      Family = "context_precision"
	FamilyNoiseSensitivity      Family = "noise_sensitivity"
	FamilyContextEntitiesRecall Family = "context_entities_recall"
	FamilyToolCallF1            Family = "tool_call_f1"
	FamilyToolCallAccuracy      Family = "tool_call_accuracy"
	FamilyAspectCritic          Family = "aspect_critic"
	FamilySimpleCriteria        Family = "simple_criteria"
	FamilyAgentGoalAccuracy     Family = "agent_goal_accuracy"
	FamilySemanticSimilarity    Family = "semantic_similarity"
	FamilyStringSimilarity      Family = "string_similarity"
	FamilyExactMatch            Family = "exact_match"
	FamilyStringPresence        Family = "string_presence"
	FamilyResponseRelevancy     Family = "response_relevancy"
)

// Mode selects which component of a precision/recall comparison is reported
type Mode string

const (
	ModeF1        Mode = "F1"
	ModePrecision Mode = "precision"
	ModeRecall    Mode = "recall"
)

// Level is a high/low knob used for claim atomicity and coverage
type Level string

const (
	LevelHigh Level = "high"
	LevelLow  Level = "low"
)

// NoiseMode selects which contexts noise sensitivity attributes errors to
type NoiseMode string

const (
	NoiseRelevant   NoiseMode = "relevant"
	NoiseIrrelevant NoiseMode = "irrelevant"
)

// SimilarityMeasure selects the string measure used by non_llm strategies
type SimilarityMeasure string

const (
	SimilarityLevenshtein SimilarityMeasure = "levenshtein"
	SimilarityJaro        SimilarityMeasure = "jaro"
	SimilarityJaroWinkler SimilarityMeasure = "jaro_winkler"
	// SimilarityEmbedding uses cosine similarity of the Embedder capability
	SimilarityEmbedding SimilarityMeasure = "embedding"
)

// Aspect is a free-form criterion judged by aspect_critic
type Aspect struct {
	Name       string `json:"name" yaml:"name" mapstructure:"name"`
	Definition string `json:"definition" yaml:"definition" mapstructure:"definition"`
}

// Config carries the per-metric options. Zero values select the defaults
// documented on each field.
type Config struct {
	Family Family `json:"family" yaml:"family" mapstructure:"family"`
	// Mode defaults to F1
	Mode Mode `json:"mode,omitempty" yaml:"mode,omitempty" mapstructure:"mode"`
	// Atomicity and Coverage default to high
	Atomicity Level `json:"atomicity,omitempty" yaml:"atomicity,omitempty" mapstructure:"atomicity"`
	Coverage  Level `json:"coverage,omitempty" yaml:"coverage,omitempty" mapstructure:"coverage"`
	// CaseSensitive applies to string and identifier comparisons
	CaseSensitive bool `json:"case_sensitive,omitempty" yaml:"case_sensitive,omitempty" mapstructure:"case_sensitive"`
	// ScoreRange bounds simple_criteria scores; defaults to [0,5]
	ScoreRange [2]int `json:"score_range,omitempty" yaml:"score_range,omitempty" mapstructure:"score_range"`
	// Samples is the number of self-consistency judgments per decision; defaults to 1
	Samples int `json:"samples,omitempty" yaml:"samples,omitempty" mapstructure:"samples"`
	// Strict turns undetermined verdicts into ErrAmbiguousVerdict
	Strict bool `json:"strict,omitempty" yaml:"strict,omitempty" mapstructure:"strict"`
	// NoiseMode defaults to relevant
	NoiseMode NoiseMode `json:"noise_mode,omitempty" yaml:"noise_mode,omitempty" mapstructure:"noise_mode"`
	// Similarity defaults to levenshtein
	Similarity SimilarityMeasure `json:"similarity,omitempty" yaml:"similarity,omitempty" mapstructure:"similarity"`
	// Threshold is the similarity in [0,1] at which non_llm strategies count
	// a match. 0 selects the default of 0.5; negative values are rejected.
	Threshold float64 `json:"threshold,omitempty" yaml:"threshold,omitempty" mapstructure:"threshold"`
	// Aspect is required by aspect_critic
	Aspect Aspect `json:"aspect,omitempty" yaml:"aspect,omitempty" mapstructure:"aspect"`
	// Criteria is the scoring definition for simple_criteria
	Criteria string `json:"criteria,omitempty" yaml:"criteria,omitempty" mapstructure:"criteria"`
	// Questions is how many questions response_relevancy generates; defaults to 3
	Questions int `json:"questions,omitempty" yaml:"questions,omitempty" mapstructure:"questions"`
}

// WithDefaults returns a copy of c with zero values replaced by defaults
func (c Config) WithDefaults() Config {
	if c.Mode == "" {
		c.Mode = ModeF1
	}
	if c.Atomicity == "" {
		c.Atomicity = LevelHigh
	}
	if c.Coverage == "" {
		c.Coverage = LevelHigh
	}
	if c.ScoreRange == [2]int{} {
		c.ScoreRange = [2]int{0, 5}
	}
	if c.Samples < 1 {
		c.Samples = 1
	}
	if c.NoiseMode == "" {
		c.NoiseMode = NoiseRelevant
	}
	if c.Similarity == "" {
		c.Similarity = SimilarityLevenshtein
	}
	if c.Threshold == 0 {
		c.Threshold = 0.5
	}
	if c.Questions < 1 {
		c.Questions = 3
	}
	return c
}

// Validate checks enumerated values. It expects defaults to be applied.
func (c Config) Validate() error {
	var problems []string
	switch c.Mode {
	case ModeF1, ModePrecision, ModeRecall:
	default:
		problems = append(problems, fmt.Sprintf("mode %q", c.Mode))
	}
	if c.Atomicity != LevelHigh && c.Atomicity != LevelLow {
		problems = append(problems, fmt.Sprintf("atomicity %q", c.Atomicity))
	}
	if c.Coverage != LevelHigh && c.Coverage != LevelLow {
		problems = append(problems, fmt.Sprintf("coverage %q", c.Coverage))
	}
	switch c.NoiseMode {
	case NoiseRelevant, NoiseIrrelevant:
	default:
		problems = append(problems, fmt.Sprintf("noise_mode %q", c.NoiseMode))
	}
	switch c.Similarity {
	case SimilarityLevenshtein, SimilarityJaro, SimilarityJaroWinkler, SimilarityEmbedding:
	default:
		problems = append(problems, fmt.Sprintf("similarity %q", c.Similarity))
	}
	if c.ScoreRange[0] >= c.ScoreRange[1] {
		problems = append(problems, fmt.Sprintf("score_range %v", c.ScoreRange))
	}
	if c.Threshold < 0 || c.Threshold > 1 {
		problems = append(problems, fmt.Sprintf("threshold %v", c.Threshold))
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: invalid %s", ErrInvalidConfig, strings.Join(problems, ", "))
	}
	return nil
}
