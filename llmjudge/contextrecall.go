package llmjudge

import (
	"context"

	"github.com/datar-psa/rageval/aggregate"
	"github.com/datar-psa/rageval/api"
)

// ContextRecall returns a scorer that measures how many claims of the
// reference are supported by the retrieved contexts. A reference without
// claims scores 1.
func ContextRecall(opts Options) api.Scorer {
	return &contextRecallScorer{opts: opts.withDefaults()}
}

type contextRecallScorer struct {
	opts Options
}

func (s *contextRecallScorer) Score(ctx context.Context, in api.Sample) api.ScoreResult {
	result, err := newResult(api.FamilyContextRecall, s.opts)
	if err != nil {
		return result.Fail(err)
	}
	if err := checkStrategy(api.FamilyContextRecall, s.opts.Strategy, api.StrategyLLMWithReference); err != nil {
		return result.Fail(err)
	}
	if err := in.Require(api.FamilyContextRecall, s.opts.Strategy, api.FieldReference, api.FieldRetrievedContexts); err != nil {
		return result.Fail(err)
	}

	set, err := s.opts.extract(ctx, in.Reference)
	if err != nil {
		return result.Fail(err)
	}
	api.EnterStage(ctx, api.StageClaimsExtracted)

	verdicts, err := s.opts.matcher().MatchAll(ctx, set, in.RetrievedContexts)
	if err != nil {
		return result.Fail(err)
	}
	api.EnterStage(ctx, api.StageClaimsMatched)

	attributed, missed, err := aggregate.CountVerdicts(verdicts, s.opts.Config.Strict)
	if err != nil {
		return result.Fail(err)
	}
	result.Score = aggregate.Recall(attributed, missed)
	api.EnterStage(ctx, api.StageAggregated)

	result.Metadata["claims"] = set.Texts()
	result.Metadata["verdicts"] = verdictStrings(verdicts)
	result.Metadata["attributed"] = attributed
	result.Metadata["total"] = set.Len()
	return result
}
