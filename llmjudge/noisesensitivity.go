package llmjudge

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/datar-psa/rageval/api"
)

// NoiseSensitivity returns a scorer that measures how often the response
// makes incorrect claims that the retrieved contexts led it to. Lower is
// better.
//
// A context is relevant when it supports at least one reference claim. A
// response claim is incorrect when the reference does not support it. In
// relevant mode the score is the share of response claims that are
// incorrect and supported by a relevant context; in irrelevant mode, the
// share that are incorrect and supported only by irrelevant contexts.
func NoiseSensitivity(opts Options) api.Scorer {
	return &noiseSensitivityScorer{opts: opts.withDefaults()}
}

type noiseSensitivityScorer struct {
	opts Options
}

func (s *noiseSensitivityScorer) Score(ctx context.Context, in api.Sample) api.ScoreResult {
	result, err := newResult(api.FamilyNoiseSensitivity, s.opts)
	if err != nil {
		return result.Fail(err)
	}
	if err := checkStrategy(api.FamilyNoiseSensitivity, s.opts.Strategy, api.StrategyLLMWithReference); err != nil {
		return result.Fail(err)
	}
	if err := in.Require(api.FamilyNoiseSensitivity, s.opts.Strategy,
		api.FieldUserInput, api.FieldResponse, api.FieldReference, api.FieldRetrievedContexts); err != nil {
		return result.Fail(err)
	}

	var responseClaims, referenceClaims api.ClaimSet
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		responseClaims, err = s.opts.extract(gctx, in.Response)
		return err
	})
	g.Go(func() error {
		var err error
		referenceClaims, err = s.opts.extract(gctx, in.Reference)
		return err
	})
	if err := g.Wait(); err != nil {
		return result.Fail(err)
	}
	api.EnterStage(ctx, api.StageClaimsExtracted)

	matcher := s.opts.matcher()
	contexts := in.RetrievedContexts
	// byContext[i][j] is the verdict of claim j against context i
	refByContext := make([][]api.Verdict, len(contexts))
	respByContext := make([][]api.Verdict, len(contexts))
	for i := range contexts {
		refByContext[i] = make([]api.Verdict, referenceClaims.Len())
		respByContext[i] = make([]api.Verdict, responseClaims.Len())
	}
	respVsReference := make([]api.Verdict, responseClaims.Len())

	// Every (claim, context) pair shares one bound on in-flight judgments.
	g, gctx = errgroup.WithContext(ctx)
	g.SetLimit(s.opts.MaxConcurrency)
	match := func(dst *api.Verdict, claim api.Claim, c string) {
		g.Go(func() error {
			v, err := matcher.Match(gctx, claim, []string{c})
			if err != nil {
				return err
			}
			*dst = v
			return nil
		})
	}
	for j, claim := range responseClaims.Claims {
		match(&respVsReference[j], claim, in.Reference)
	}
	for i, c := range contexts {
		for j, claim := range referenceClaims.Claims {
			match(&refByContext[i][j], claim, c)
		}
		for j, claim := range responseClaims.Claims {
			match(&respByContext[i][j], claim, c)
		}
	}
	if err := g.Wait(); err != nil {
		return result.Fail(err)
	}
	api.EnterStage(ctx, api.StageClaimsMatched)

	strict := s.opts.Config.Strict
	relevant := make([]bool, len(contexts))
	for i := range contexts {
		for _, v := range refByContext[i] {
			ok, err := supported(v, strict)
			if err != nil {
				return result.Fail(err)
			}
			relevant[i] = relevant[i] || ok
		}
	}

	var noisy int
	for j := range responseClaims.Claims {
		correct, err := supported(respVsReference[j], strict)
		if err != nil {
			return result.Fail(err)
		}
		if correct {
			continue
		}
		var byRelevant, byIrrelevant bool
		for i := range contexts {
			ok, err := supported(respByContext[i][j], strict)
			if err != nil {
				return result.Fail(err)
			}
			if !ok {
				continue
			}
			if relevant[i] {
				byRelevant = true
			} else {
				byIrrelevant = true
			}
		}
		switch s.opts.Config.NoiseMode {
		case api.NoiseIrrelevant:
			if byIrrelevant && !byRelevant {
				noisy++
			}
		default:
			if byRelevant {
				noisy++
			}
		}
	}

	if n := responseClaims.Len(); n > 0 {
		result.Score = float64(noisy) / float64(n)
	}
	api.EnterStage(ctx, api.StageAggregated)

	result.Metadata["mode"] = string(s.opts.Config.NoiseMode)
	result.Metadata["response_claims"] = responseClaims.Texts()
	result.Metadata["reference_claims"] = referenceClaims.Texts()
	result.Metadata["relevant_contexts"] = relevant
	result.Metadata["incorrect_claims"] = noisy
	return result
}

func supported(v api.Verdict, strict bool) (bool, error) {
	if v == api.Undetermined && strict {
		return false, api.ErrAmbiguousVerdict
	}
	return v == api.Supported, nil
}
