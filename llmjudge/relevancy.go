package llmjudge

import (
	"context"
	"fmt"
	"math"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/datar-psa/rageval/api"
	"github.com/datar-psa/rageval/embedding"
)

// ResponseRelevancy returns a scorer that asks the LLM to reverse engineer
// Config.Questions questions from the response and scores the mean cosine
// similarity between their embeddings and the user input's embedding.
// A noncommittal response scores 0, and so does a negative mean.
func ResponseRelevancy(opts Options) api.Scorer {
	if opts.Strategy == "" {
		opts.Strategy = api.StrategyLLMWithoutReference
	}
	return &responseRelevancyScorer{opts: opts.withDefaults()}
}

type responseRelevancyScorer struct {
	opts Options
}

const relevancyPromptTemplate = `Generate %d different questions that the response below answers. Each
question should be answerable from the response alone.

Also decide whether the response is noncommittal: evasive, vague or
explicitly declining to answer, such as "I don't know" or "I'm not sure".

[BEGIN DATA]
[Response]: %s
[END DATA]`

var relevancySchema = map[string]interface{}{
	"type": "object",
	"properties": map[string]interface{}{
		"questions": map[string]interface{}{
			"type":        "array",
			"items":       map[string]interface{}{"type": "string"},
			"description": "Questions the response answers",
		},
		"noncommittal": map[string]interface{}{
			"type":        "boolean",
			"description": "True when the response is evasive or declines to answer",
		},
	},
	"required": []string{"questions", "noncommittal"},
}

func (s *responseRelevancyScorer) Score(ctx context.Context, in api.Sample) api.ScoreResult {
	result, err := newResult(api.FamilyResponseRelevancy, s.opts)
	if err != nil {
		return result.Fail(err)
	}
	if err := checkStrategy(api.FamilyResponseRelevancy, s.opts.Strategy, api.StrategyLLMWithoutReference); err != nil {
		return result.Fail(err)
	}
	if err := in.Require(api.FamilyResponseRelevancy, s.opts.Strategy, api.FieldUserInput, api.FieldResponse); err != nil {
		return result.Fail(err)
	}
	if s.opts.Embedder == nil {
		return result.Fail(fmt.Errorf("%w: response_relevancy needs an embedder", api.ErrCapabilityRequired))
	}

	questions, noncommittal, err := s.generateQuestions(ctx, in.Response)
	if err != nil {
		return result.Fail(err)
	}
	api.EnterStage(ctx, api.StageClaimsExtracted)

	// vectors[0] is the user input, the rest follow questions
	texts := append([]string{in.UserInput}, questions...)
	vectors := make([][]float64, len(texts))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.MaxConcurrency)
	for i, text := range texts {
		g.Go(func() error {
			v, err := s.opts.Embedder.Embed(gctx, text)
			if err != nil {
				return &api.ExtractionError{Err: fmt.Errorf("failed to embed question: %w", err)}
			}
			vectors[i] = v
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return result.Fail(err)
	}

	similarities := make([]float64, len(questions))
	var sum float64
	for i := range questions {
		similarities[i] = embedding.CosineSimilarity(vectors[0], vectors[i+1])
		sum += similarities[i]
	}
	mean := sum / float64(len(questions))
	api.EnterStage(ctx, api.StageDirectlyCompared)

	if !noncommittal {
		result.Score = math.Max(0, mean)
	}
	api.EnterStage(ctx, api.StageAggregated)

	result.Metadata["questions"] = questions
	result.Metadata["similarities"] = similarities
	result.Metadata["mean_cosine"] = mean
	result.Metadata["noncommittal"] = noncommittal
	return result
}

func (s *responseRelevancyScorer) generateQuestions(ctx context.Context, response string) ([]string, bool, error) {
	n := s.opts.Config.Questions
	resp, err := s.opts.LLM.StructuredGenerate(ctx, fmt.Sprintf(relevancyPromptTemplate, n, response), relevancySchema)
	if err != nil {
		return nil, false, &api.ExtractionError{Err: fmt.Errorf("%w: %w", api.ErrLLMGenerationFailed, err)}
	}

	raw, ok := resp["questions"].([]interface{})
	if !ok {
		return nil, false, &api.ExtractionError{Err: fmt.Errorf("response has no questions array")}
	}
	questions := make([]string, 0, n)
	for _, item := range raw {
		q, ok := item.(string)
		if !ok {
			return nil, false, &api.ExtractionError{Err: fmt.Errorf("question %v is not a string", item)}
		}
		if q = strings.TrimSpace(q); q != "" && len(questions) < n {
			questions = append(questions, q)
		}
	}
	if len(questions) == 0 {
		return nil, false, &api.ExtractionError{Err: fmt.Errorf("no questions generated")}
	}

	noncommittal, _ := resp["noncommittal"].(bool)
	return questions, noncommittal, nil
}
