package llmjudge

import (
	"context"
	"fmt"

	"github.com/datar-psa/rageval/aggregate"
	"github.com/datar-psa/rageval/api"
	"github.com/datar-psa/rageval/claims"
)

// AspectCritic returns a scorer that judges the response against a free-form
// aspect such as harmfulness or conciseness. Config.Samples completions are
// requested in one call and reduced by majority vote: 1 when the response
// has the aspect, 0 otherwise. A tie scores 0, or fails with
// api.ErrAmbiguousVerdict in strict mode.
func AspectCritic(opts Options) api.Scorer {
	return &aspectCriticScorer{opts: opts.withDefaults()}
}

type aspectCriticScorer struct {
	opts Options
}

const aspectCriticPromptTemplate = `Evaluate the response against the criterion below.

Criterion %q: %s

[BEGIN DATA]
[Input]: %s
[Response]: %s%s
[END DATA]

Explain your reasoning briefly, then end your response with "VERDICT: YES" if the response meets the criterion or "VERDICT: NO" if it does not.`

func (s *aspectCriticScorer) Score(ctx context.Context, in api.Sample) api.ScoreResult {
	result, err := newResult(api.FamilyAspectCritic, s.opts)
	if err != nil {
		return result.Fail(err)
	}
	aspect := s.opts.Config.Aspect
	if aspect.Name == "" || aspect.Definition == "" {
		return result.Fail(fmt.Errorf("%w: aspect_critic needs an aspect name and definition", api.ErrInvalidConfig))
	}
	reference, err := referenceBlock(in, api.FamilyAspectCritic, s.opts.Strategy, api.FieldUserInput, api.FieldResponse)
	if err != nil {
		return result.Fail(err)
	}

	prompt := fmt.Sprintf(aspectCriticPromptTemplate, aspect.Name, aspect.Definition, in.UserInput, in.Response, reference)
	completions, err := s.opts.LLM.Generate(ctx, prompt, s.opts.Config.Samples)
	if err != nil {
		return result.Fail(&api.MatchError{Err: fmt.Errorf("%w: %w", api.ErrLLMGenerationFailed, err)})
	}
	votes, err := claims.ParseVotes(completions)
	if err != nil {
		result.Metadata["raw_responses"] = completions
		return result.Fail(&api.MatchError{Err: err})
	}
	if len(votes) == 0 {
		return result.Fail(&api.MatchError{Err: fmt.Errorf("%w: no completion returned", api.ErrLLMGenerationFailed)})
	}
	api.EnterStage(ctx, api.StageClaimsMatched)

	outcome := aggregate.Majority(votes)
	switch outcome {
	case api.OutcomeSupport:
		result.Score = 1
	case api.OutcomeTie:
		if s.opts.Config.Strict {
			return result.Fail(api.ErrAmbiguousVerdict)
		}
	}
	api.EnterStage(ctx, api.StageAggregated)

	result.Metadata["aspect"] = aspect.Name
	result.Metadata["outcome"] = outcome.String()
	result.Metadata["votes"] = len(votes)
	return result
}

// referenceBlock validates the fields of a with/without reference judgment
// and returns the prompt line carrying the reference, if any
func referenceBlock(in api.Sample, family api.Family, strategy api.Strategy, fields ...string) (string, error) {
	switch strategy {
	case api.StrategyLLMWithReference:
		if err := in.Require(family, strategy, append(fields, api.FieldReference)...); err != nil {
			return "", err
		}
		return "\n[Reference]: " + in.Reference, nil
	case api.StrategyLLMWithoutReference:
		return "", in.Require(family, strategy, fields...)
	default:
		return "", &api.UnknownStrategyError{Family: family, Strategy: strategy}
	}
}
