package llmjudge

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/datar-psa/rageval/aggregate"
	"github.com/datar-psa/rageval/api"
	"github.com/datar-psa/rageval/claims"
)

// ContextEntitiesRecall returns a scorer that extracts named entities from
// the reference and from the retrieved contexts with the LLM and reports
// the share of reference entities found in the contexts.
func ContextEntitiesRecall(opts Options) api.Scorer {
	return &entitiesRecallScorer{opts: opts.withDefaults()}
}

type entitiesRecallScorer struct {
	opts Options
}

const entitiesPromptTemplate = `List the unique named entities mentioned in the text below: people, places,
organizations, dates, quantities and other proper nouns. Use the surface form
found in the text and do not repeat an entity.

[BEGIN DATA]
[Text]: %s
[END DATA]

Return a JSON object with an "entities" array of strings.`

func (s *entitiesRecallScorer) Score(ctx context.Context, in api.Sample) api.ScoreResult {
	result, err := newResult(api.FamilyContextEntitiesRecall, s.opts)
	if err != nil {
		return result.Fail(err)
	}
	if err := checkStrategy(api.FamilyContextEntitiesRecall, s.opts.Strategy, api.StrategyLLMWithReference); err != nil {
		return result.Fail(err)
	}
	if err := in.Require(api.FamilyContextEntitiesRecall, s.opts.Strategy, api.FieldReference, api.FieldRetrievedContexts); err != nil {
		return result.Fail(err)
	}

	var refEntities, ctxEntities []string
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		refEntities, err = s.entities(gctx, in.Reference)
		return err
	})
	g.Go(func() error {
		var err error
		ctxEntities, err = s.entities(gctx, strings.Join(in.RetrievedContexts, "\n"))
		return err
	})
	if err := g.Wait(); err != nil {
		return result.Fail(err)
	}
	api.EnterStage(ctx, api.StageClaimsExtracted)

	counts := aggregate.SetCounts(ctxEntities, refEntities, s.opts.Config.CaseSensitive)
	result.Score = aggregate.CountsRecall(counts)
	api.EnterStage(ctx, api.StageAggregated)

	result.Metadata["reference_entities"] = refEntities
	result.Metadata["context_entities"] = ctxEntities
	result.Metadata["matched"] = counts.TruePositive
	return result
}

func (s *entitiesRecallScorer) entities(ctx context.Context, text string) ([]string, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}
	return claims.ExtractList(ctx, s.opts.LLM, fmt.Sprintf(entitiesPromptTemplate, text), "entities", "Named entities mentioned in the text")
}
