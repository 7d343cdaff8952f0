package api

import "context"

// LLMGenerator is an interface for generating text using an LLM
// This interface must be implemented by library consumers
// Gemini and OpenAI implementations are provided in the gemini and openai subpackages
type LLMGenerator interface {
	// Generate returns n independent completions for the prompt
	// n < 1 is treated as 1
	Generate(ctx context.Context, prompt string, n int) ([]string, error)

	// StructuredGenerate generates structured data based on the provided prompt and JSON schema
	// schema must be a valid JSON schema (map[string]interface{})
	// Returns the generated data as a map[string]interface{} or an error
	StructuredGenerate(ctx context.Context, prompt string, schema map[string]interface{}) (map[string]interface{}, error)
}

// Embedder generates vector embeddings for text
type Embedder interface {
	// Embed generates an embedding vector for the given text
	Embed(ctx context.Context, text string) ([]float64, error)
}

// EntityExtractor returns the named entities mentioned in a text
// A Google Cloud Natural Language implementation is provided in the gemini subpackage
type EntityExtractor interface {
	Entities(ctx context.Context, text string) ([]string, error)
}

// Capabilities bundles the external collaborators a metric may need.
// It is passed explicitly into every evaluation; nil members are allowed
// as long as the selected strategy does not need them.
type Capabilities struct {
	LLM      LLMGenerator
	Embedder Embedder
	Entities EntityExtractor
}

// ScoreResult represents the result of an evaluation
type ScoreResult struct {
	// Name identifies the metric that produced this result
	Name string
	// Strategy is the strategy that was used
	Strategy Strategy
	// Score is the metric value, in [0,1] unless the metric declares another range
	Score float64
	// Metadata contains additional information about the scoring process
	Metadata map[string]any
	// Error contains any error that occurred during scoring
	Error error
}

// Scorer evaluates one sample
type Scorer interface {
	Score(ctx context.Context, s Sample) ScoreResult
}

// ScorerFunc adapts a function to the Scorer interface
type ScorerFunc func(ctx context.Context, s Sample) ScoreResult

// Score implements Scorer
func (f ScorerFunc) Score(ctx context.Context, s Sample) ScoreResult {
	return f(ctx, s)
}

// NewResult returns an empty result for the named metric
func NewResult(name string) ScoreResult {
	return ScoreResult{
		Name:     name,
		Metadata: make(map[string]any),
	}
}

// Fail sets err on the result and zeroes its score
func (r ScoreResult) Fail(err error) ScoreResult {
	r.Error = err
	r.Score = 0
	return r
}

// SimilarityFunc scores how similar two texts are, in [0,1]
type SimilarityFunc func(ctx context.Context, a, b string) (float64, error)
