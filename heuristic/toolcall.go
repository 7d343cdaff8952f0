package heuristic

import (
	"context"

	"github.com/datar-psa/rageval/aggregate"
	"github.com/datar-psa/rageval/api"
)

// ToolCallF1 returns a scorer comparing the tool calls an agent made with
// the expected calls. A call matches when its name and arguments are equal;
// the score is the F1 of the resulting precision and recall.
func ToolCallF1() api.Scorer {
	return api.ScorerFunc(scoreToolCalls)
}

func scoreToolCalls(ctx context.Context, in api.Sample) api.ScoreResult {
	result := api.NewResult(string(api.FamilyToolCallF1))
	result.Strategy = api.StrategyIDBased

	if err := in.Require(api.FamilyToolCallF1, api.StrategyIDBased, api.FieldToolCalls, api.FieldReferenceToolCalls); err != nil {
		return result.Fail(err)
	}

	counts := aggregate.SetCounts(toolKeys(in.ToolCalls), toolKeys(in.ReferenceToolCalls), true)
	result.Score = aggregate.CountsF1(counts)
	api.EnterStage(ctx, api.StageDirectlyCompared)

	result.Metadata["counts"] = counts
	result.Metadata["precision"] = aggregate.CountsPrecision(counts)
	result.Metadata["recall"] = aggregate.CountsRecall(counts)
	return result
}

func toolKeys(calls []api.ToolCall) []string {
	keys := make([]string, len(calls))
	for i, c := range calls {
		keys[i] = c.Key()
	}
	return keys
}
