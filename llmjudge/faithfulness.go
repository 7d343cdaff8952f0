package llmjudge

import (
	"context"

	"github.com/datar-psa/rageval/aggregate"
	"github.com/datar-psa/rageval/api"
)

// Faithfulness returns a scorer that measures how many claims of the
// response are supported by the retrieved contexts.
//
// Score = supported response claims / response claims, 0 when the response
// makes no claims.
func Faithfulness(opts Options) api.Scorer {
	return &faithfulnessScorer{opts: opts.withDefaults()}
}

type faithfulnessScorer struct {
	opts Options
}

func (s *faithfulnessScorer) Score(ctx context.Context, in api.Sample) api.ScoreResult {
	result, err := newResult(api.FamilyFaithfulness, s.opts)
	if err != nil {
		return result.Fail(err)
	}
	if err := checkStrategy(api.FamilyFaithfulness, s.opts.Strategy, api.StrategyLLMWithReference, api.StrategyLLMWithoutReference); err != nil {
		return result.Fail(err)
	}
	if err := in.Require(api.FamilyFaithfulness, s.opts.Strategy, api.FieldResponse, api.FieldRetrievedContexts); err != nil {
		return result.Fail(err)
	}

	set, err := s.opts.extract(ctx, in.Response)
	if err != nil {
		return result.Fail(err)
	}
	api.EnterStage(ctx, api.StageClaimsExtracted)

	verdicts, err := s.opts.matcher().MatchAll(ctx, set, in.RetrievedContexts)
	if err != nil {
		return result.Fail(err)
	}
	api.EnterStage(ctx, api.StageClaimsMatched)

	supported, unsupported, err := aggregate.CountVerdicts(verdicts, s.opts.Config.Strict)
	if err != nil {
		return result.Fail(err)
	}
	result.Score = aggregate.Precision(supported, unsupported)
	api.EnterStage(ctx, api.StageAggregated)

	result.Metadata["claims"] = set.Texts()
	result.Metadata["verdicts"] = verdictStrings(verdicts)
	result.Metadata["supported"] = supported
	result.Metadata["total"] = set.Len()
	return result
}
