package heuristic

import (
	"context"

	"github.com/datar-psa/rageval/aggregate"
	"github.com/datar-psa/rageval/api"
)

// IDOptions configures the identifier based context scorers
type IDOptions struct {
	CaseSensitive bool
}

// IDContextRecall returns a scorer reporting |retrieved ∩ reference| / |reference|
// over context identifiers, 1 when there are no reference identifiers
func IDContextRecall(opts IDOptions) api.Scorer {
	return &idScorer{family: api.FamilyContextRecall, opts: opts}
}

// IDContextPrecision returns a scorer reporting |retrieved ∩ reference| / |retrieved|
// over context identifiers, 0 when nothing was retrieved
func IDContextPrecision(opts IDOptions) api.Scorer {
	return &idScorer{family: api.FamilyContextPrecision, opts: opts}
}

type idScorer struct {
	family api.Family
	opts   IDOptions
}

func (s *idScorer) Score(ctx context.Context, in api.Sample) api.ScoreResult {
	result := api.NewResult(string(s.family))
	result.Strategy = api.StrategyIDBased

	if err := in.Require(s.family, api.StrategyIDBased, api.FieldRetrievedContextIDs, api.FieldReferenceContextIDs); err != nil {
		return result.Fail(err)
	}

	counts := aggregate.SetCounts(in.RetrievedContextIDs, in.ReferenceContextIDs, s.opts.CaseSensitive)
	if s.family == api.FamilyContextPrecision {
		result.Score = aggregate.CountsPrecision(counts)
	} else {
		result.Score = aggregate.CountsRecall(counts)
	}
	api.EnterStage(ctx, api.StageDirectlyCompared)

	result.Metadata["counts"] = counts
	return result
}
