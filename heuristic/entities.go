package heuristic

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/datar-psa/rageval/aggregate"
	"github.com/datar-psa/rageval/api"
)

// EntitiesRecallOptions configures the NER based EntitiesRecall scorer
type EntitiesRecallOptions struct {
	// Extractor finds named entities. Required.
	Extractor     api.EntityExtractor
	CaseSensitive bool
}

// EntitiesRecall returns a scorer reporting the share of reference entities
// that also occur in the retrieved contexts, using an NER capability.
// A reference without entities scores 1.
func EntitiesRecall(opts EntitiesRecallOptions) api.Scorer {
	return &entitiesRecallScorer{opts: opts}
}

type entitiesRecallScorer struct {
	opts EntitiesRecallOptions
}

func (s *entitiesRecallScorer) Score(ctx context.Context, in api.Sample) api.ScoreResult {
	result := api.NewResult(string(api.FamilyContextEntitiesRecall))
	result.Strategy = api.StrategyNonLLM

	if err := in.Require(api.FamilyContextEntitiesRecall, api.StrategyNonLLM, api.FieldReference, api.FieldRetrievedContexts); err != nil {
		return result.Fail(err)
	}
	if s.opts.Extractor == nil {
		return result.Fail(fmt.Errorf("%w: entity extractor is required", api.ErrCapabilityRequired))
	}

	var refEntities []string
	ctxEntities := make([][]string, len(in.RetrievedContexts))
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		refEntities, err = s.opts.Extractor.Entities(gctx, in.Reference)
		return err
	})
	for i, c := range in.RetrievedContexts {
		g.Go(func() error {
			var err error
			ctxEntities[i], err = s.opts.Extractor.Entities(gctx, c)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return result.Fail(&api.ExtractionError{Err: err})
	}
	api.EnterStage(ctx, api.StageClaimsExtracted)

	var found []string
	for _, es := range ctxEntities {
		found = append(found, es...)
	}
	counts := aggregate.SetCounts(found, refEntities, s.opts.CaseSensitive)
	result.Score = aggregate.CountsRecall(counts)
	api.EnterStage(ctx, api.StageDirectlyCompared)

	result.Metadata["reference_entities"] = refEntities
	result.Metadata["matched"] = counts.TruePositive
	return result
}
