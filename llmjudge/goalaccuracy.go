package llmjudge

import (
	"context"
	"fmt"

	"github.com/datar-psa/rageval/api"
)

// AgentGoalAccuracy returns a scorer that judges whether an agent achieved
// its goal: 1 when it did, 0 otherwise. With reference, the outcome in the
// response is compared with the reference outcome; without reference, it
// is judged against the goal alone.
func AgentGoalAccuracy(opts Options) api.Scorer {
	return &goalAccuracyScorer{opts: opts.withDefaults()}
}

type goalAccuracyScorer struct {
	opts Options
}

const goalWithReferencePromptTemplate = `An AI agent was given a goal. Compare the outcome the agent reached with the desired outcome.

[BEGIN DATA]
[Goal]: %s
[Agent outcome]: %s
[Desired outcome]: %s
[END DATA]

Explain your reasoning briefly, then end your response with "VERDICT: YES" if the agent's outcome achieves the desired outcome or "VERDICT: NO" if it does not.`

const goalWithoutReferencePromptTemplate = `An AI agent was given a goal. Decide whether the agent achieved it.

[BEGIN DATA]
[Goal]: %s
[Agent outcome]: %s
[END DATA]

Explain your reasoning briefly, then end your response with "VERDICT: YES" if the goal was achieved or "VERDICT: NO" if it was not.`

func (s *goalAccuracyScorer) Score(ctx context.Context, in api.Sample) api.ScoreResult {
	result, err := newResult(api.FamilyAgentGoalAccuracy, s.opts)
	if err != nil {
		return result.Fail(err)
	}
	if _, err := referenceBlock(in, api.FamilyAgentGoalAccuracy, s.opts.Strategy, api.FieldGoal, api.FieldResponse); err != nil {
		return result.Fail(err)
	}

	prompt := fmt.Sprintf(goalWithoutReferencePromptTemplate, in.Goal, in.Response)
	if s.opts.Strategy == api.StrategyLLMWithReference {
		prompt = fmt.Sprintf(goalWithReferencePromptTemplate, in.Goal, in.Response, in.Reference)
	}

	verdict, err := s.opts.matcher().Judge(ctx, prompt)
	if err != nil {
		return result.Fail(err)
	}
	api.EnterStage(ctx, api.StageClaimsMatched)

	switch verdict {
	case api.Supported:
		result.Score = 1
	case api.Undetermined:
		if s.opts.Config.Strict {
			return result.Fail(api.ErrAmbiguousVerdict)
		}
	}
	api.EnterStage(ctx, api.StageAggregated)

	result.Metadata["verdict"] = verdict.String()
	return result
}
