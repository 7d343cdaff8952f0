package heuristic

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/datar-psa/rageval/api"
)

// ToolCallAccuracy returns an order sensitive tool call scorer. The agent's
// call names must equal the reference sequence; otherwise the score is 0.
// For an aligned sequence each pair scores the share of reference
// arguments the agent passed with equal values, and the score is the mean
// over pairs. No calls expected and none made scores 1.
func ToolCallAccuracy() api.Scorer {
	return api.ScorerFunc(scoreToolCallAccuracy)
}

func scoreToolCallAccuracy(ctx context.Context, in api.Sample) api.ScoreResult {
	result := api.NewResult(string(api.FamilyToolCallAccuracy))
	result.Strategy = api.StrategyIDBased

	if err := in.Require(api.FamilyToolCallAccuracy, api.StrategyIDBased, api.FieldToolCalls, api.FieldReferenceToolCalls); err != nil {
		return result.Fail(err)
	}

	aligned := sequenceAligned(in.ToolCalls, in.ReferenceToolCalls)
	argScores := make([]float64, 0, len(in.ReferenceToolCalls))
	if aligned {
		var sum float64
		for i, ref := range in.ReferenceToolCalls {
			s := argumentScore(in.ToolCalls[i].Args, ref.Args)
			argScores = append(argScores, s)
			sum += s
		}
		result.Score = 1
		if n := len(in.ReferenceToolCalls); n > 0 {
			result.Score = sum / float64(n)
		}
	}
	api.EnterStage(ctx, api.StageDirectlyCompared)

	result.Metadata["sequence_aligned"] = aligned
	result.Metadata["argument_scores"] = argScores
	return result
}

func sequenceAligned(calls, reference []api.ToolCall) bool {
	if len(calls) != len(reference) {
		return false
	}
	for i := range calls {
		if calls[i].Name != reference[i].Name {
			return false
		}
	}
	return true
}

// argumentScore is the share of reference arguments present in args with an
// equal JSON value
func argumentScore(args, reference map[string]any) float64 {
	if len(reference) == 0 {
		return 1
	}
	var equal int
	for k, want := range reference {
		got, ok := args[k]
		if ok && jsonValue(got) == jsonValue(want) {
			equal++
		}
	}
	return float64(equal) / float64(len(reference))
}

func jsonValue(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(b)
}
