package llmjudge

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/datar-psa/rageval/aggregate"
	"github.com/datar-psa/rageval/api"
)

// ContextPrecision returns a scorer that judges every retrieved chunk for
// usefulness and scores the ranking with aggregate.ContextPrecision.
// With reference, chunks are judged against the reference answer; without
// reference, against the response.
func ContextPrecision(opts Options) api.Scorer {
	return &contextPrecisionScorer{opts: opts.withDefaults()}
}

type contextPrecisionScorer struct {
	opts Options
}

const contextPrecisionPromptTemplate = `Given a question, an answer and a context, decide whether the context was useful in arriving at the answer.

[BEGIN DATA]
[Question]: %s
[Answer]: %s
[Context]: %s
[END DATA]

Explain your reasoning briefly, then end your response with "VERDICT: YES" if the context was useful or "VERDICT: NO" if it was not.`

func (s *contextPrecisionScorer) Score(ctx context.Context, in api.Sample) api.ScoreResult {
	result, err := newResult(api.FamilyContextPrecision, s.opts)
	if err != nil {
		return result.Fail(err)
	}

	var answer string
	switch s.opts.Strategy {
	case api.StrategyLLMWithReference:
		err = in.Require(api.FamilyContextPrecision, s.opts.Strategy, api.FieldUserInput, api.FieldReference, api.FieldRetrievedContexts)
		answer = in.Reference
	case api.StrategyLLMWithoutReference:
		err = in.Require(api.FamilyContextPrecision, s.opts.Strategy, api.FieldUserInput, api.FieldResponse, api.FieldRetrievedContexts)
		answer = in.Response
	default:
		err = &api.UnknownStrategyError{Family: api.FamilyContextPrecision, Strategy: s.opts.Strategy}
	}
	if err != nil {
		return result.Fail(err)
	}

	matcher := s.opts.matcher()
	verdicts := make([]api.Verdict, len(in.RetrievedContexts))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.MaxConcurrency)
	for i, chunk := range in.RetrievedContexts {
		g.Go(func() error {
			v, err := matcher.Judge(gctx, fmt.Sprintf(contextPrecisionPromptTemplate, in.UserInput, answer, chunk))
			if err != nil {
				return err
			}
			verdicts[i] = v
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return result.Fail(err)
	}
	api.EnterStage(ctx, api.StageClaimsMatched)

	flags := make([]bool, len(verdicts))
	for i, v := range verdicts {
		if v == api.Undetermined && s.opts.Config.Strict {
			return result.Fail(api.ErrAmbiguousVerdict)
		}
		flags[i] = v == api.Supported
	}
	result.Score = aggregate.ContextPrecision(flags)
	api.EnterStage(ctx, api.StageAggregated)

	result.Metadata["relevance"] = flags
	result.Metadata["verdicts"] = verdictStrings(verdicts)
	return result
}
