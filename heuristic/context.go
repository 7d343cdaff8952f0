package heuristic

import (
	"context"
	"fmt"

	"github.com/datar-psa/rageval/aggregate"
	"github.com/datar-psa/rageval/api"
)

// ContextOptions configures the non-LLM context scorers
type ContextOptions struct {
	// Similarity compares two contexts. Required.
	Similarity api.SimilarityFunc
	// Threshold is the similarity in [0,1] at which two contexts match.
	// 0 selects 0.5.
	Threshold float64
}

func (o ContextOptions) threshold() float64 {
	if o.Threshold == 0 {
		return 0.5
	}
	return o.Threshold
}

func (o ContextOptions) validate() error {
	if o.Similarity == nil {
		return fmt.Errorf("%w: similarity function is required", api.ErrCapabilityRequired)
	}
	if o.Threshold < 0 || o.Threshold > 1 {
		return fmt.Errorf("%w: threshold %v outside [0,1]", api.ErrInvalidConfig, o.Threshold)
	}
	return nil
}

// ContextRecall returns a scorer that counts a reference context as
// recalled when some retrieved context is at least Threshold similar to it.
// Score = recalled / reference contexts, 1 when there are none.
func ContextRecall(opts ContextOptions) api.Scorer {
	return &contextRecallScorer{opts: opts}
}

type contextRecallScorer struct {
	opts ContextOptions
}

func (s *contextRecallScorer) Score(ctx context.Context, in api.Sample) api.ScoreResult {
	result := api.NewResult(string(api.FamilyContextRecall))
	result.Strategy = api.StrategyNonLLM

	if err := in.Require(api.FamilyContextRecall, api.StrategyNonLLM, api.FieldReferenceContexts, api.FieldRetrievedContexts); err != nil {
		return result.Fail(err)
	}
	if err := s.opts.validate(); err != nil {
		return result.Fail(err)
	}

	var recalled int
	for _, ref := range in.ReferenceContexts {
		best, err := bestSimilarity(ctx, s.opts.Similarity, ref, in.RetrievedContexts)
		if err != nil {
			return result.Fail(err)
		}
		if best >= s.opts.threshold() {
			recalled++
		}
	}
	result.Score = aggregate.Recall(recalled, len(in.ReferenceContexts)-recalled)
	api.EnterStage(ctx, api.StageDirectlyCompared)

	result.Metadata["recalled"] = recalled
	result.Metadata["total"] = len(in.ReferenceContexts)
	result.Metadata["threshold"] = s.opts.threshold()
	return result
}

// ContextPrecision returns a scorer that flags a retrieved context as
// relevant when some reference context is at least Threshold similar to
// it, and scores the ranked flags with aggregate.ContextPrecision.
func ContextPrecision(opts ContextOptions) api.Scorer {
	return &contextPrecisionScorer{opts: opts}
}

type contextPrecisionScorer struct {
	opts ContextOptions
}

func (s *contextPrecisionScorer) Score(ctx context.Context, in api.Sample) api.ScoreResult {
	result := api.NewResult(string(api.FamilyContextPrecision))
	result.Strategy = api.StrategyNonLLM

	if err := in.Require(api.FamilyContextPrecision, api.StrategyNonLLM, api.FieldReferenceContexts, api.FieldRetrievedContexts); err != nil {
		return result.Fail(err)
	}
	if err := s.opts.validate(); err != nil {
		return result.Fail(err)
	}

	flags := make([]bool, len(in.RetrievedContexts))
	for i, chunk := range in.RetrievedContexts {
		best, err := bestSimilarity(ctx, s.opts.Similarity, chunk, in.ReferenceContexts)
		if err != nil {
			return result.Fail(err)
		}
		flags[i] = best >= s.opts.threshold()
	}
	result.Score = aggregate.ContextPrecision(flags)
	api.EnterStage(ctx, api.StageDirectlyCompared)

	result.Metadata["relevance"] = flags
	result.Metadata["threshold"] = s.opts.threshold()
	return result
}

func bestSimilarity(ctx context.Context, sim api.SimilarityFunc, text string, candidates []string) (float64, error) {
	var best float64
	for _, c := range candidates {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		v, err := sim(ctx, text, c)
		if err != nil {
			return 0, err
		}
		if v > best {
			best = v
		}
	}
	return best, nil
}
