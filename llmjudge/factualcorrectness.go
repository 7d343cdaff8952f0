package llmjudge

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/datar-psa/rageval/aggregate"
	"github.com/datar-psa/rageval/api"
)

// FactualCorrectness returns a scorer that compares the claims of the
// response with the claims of the reference.
//
// True positives are response claims supported by the reference, false
// positives are response claims it does not support, and false negatives
// are reference claims the response does not support. Config.Mode picks
// precision, recall or F1. In precision mode the reference is not
// decomposed.
func FactualCorrectness(opts Options) api.Scorer {
	return &factualCorrectnessScorer{opts: opts.withDefaults()}
}

type factualCorrectnessScorer struct {
	opts Options
}

func (s *factualCorrectnessScorer) Score(ctx context.Context, in api.Sample) api.ScoreResult {
	result, err := newResult(api.FamilyFactualCorrectness, s.opts)
	if err != nil {
		return result.Fail(err)
	}
	if err := checkStrategy(api.FamilyFactualCorrectness, s.opts.Strategy, api.StrategyLLMWithReference); err != nil {
		return result.Fail(err)
	}
	if err := in.Require(api.FamilyFactualCorrectness, s.opts.Strategy, api.FieldResponse, api.FieldReference); err != nil {
		return result.Fail(err)
	}

	mode := s.opts.Config.Mode
	needRecall := mode != api.ModePrecision

	var responseClaims, referenceClaims api.ClaimSet
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		responseClaims, err = s.opts.extract(gctx, in.Response)
		return err
	})
	if needRecall {
		g.Go(func() error {
			var err error
			referenceClaims, err = s.opts.extract(gctx, in.Reference)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return result.Fail(err)
	}
	api.EnterStage(ctx, api.StageClaimsExtracted)

	matcher := s.opts.matcher()
	var responseVerdicts, referenceVerdicts []api.Verdict
	g, gctx = errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		responseVerdicts, err = matcher.MatchAll(gctx, responseClaims, []string{in.Reference})
		return err
	})
	if needRecall {
		g.Go(func() error {
			var err error
			referenceVerdicts, err = matcher.MatchAll(gctx, referenceClaims, []string{in.Response})
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return result.Fail(err)
	}
	api.EnterStage(ctx, api.StageClaimsMatched)

	tp, fp, err := aggregate.CountVerdicts(responseVerdicts, s.opts.Config.Strict)
	if err != nil {
		return result.Fail(err)
	}
	_, fn, err := aggregate.CountVerdicts(referenceVerdicts, s.opts.Config.Strict)
	if err != nil {
		return result.Fail(err)
	}
	counts := api.ConfusionCounts{TruePositive: tp, FalsePositive: fp, FalseNegative: fn}
	result.Score = aggregate.Select(counts, mode)
	api.EnterStage(ctx, api.StageAggregated)

	result.Metadata["mode"] = string(mode)
	result.Metadata["counts"] = counts
	result.Metadata["response_claims"] = responseClaims.Texts()
	result.Metadata["response_verdicts"] = verdictStrings(responseVerdicts)
	if needRecall {
		result.Metadata["reference_claims"] = referenceClaims.Texts()
		result.Metadata["reference_verdicts"] = verdictStrings(referenceVerdicts)
	}
	return result
}
