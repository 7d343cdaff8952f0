// Package heuristic provides the scorers that compare samples directly,
// without an LLM judge: string and identifier comparisons, tool call
// matching and NER based entity recall.
package heuristic

import (
	"context"
	"strings"

	"github.com/datar-psa/rageval/api"
)

// ExactMatchOptions configures the ExactMatch scorer
type ExactMatchOptions struct {
	// CaseSensitive disables case folding before comparing
	CaseSensitive bool
	// TrimWhitespace determines if leading and trailing whitespace should be trimmed
	TrimWhitespace bool
}

// ExactMatch returns a scorer that checks if the response exactly matches the reference
func ExactMatch(opts ExactMatchOptions) api.Scorer {
	return &exactMatchScorer{opts: opts}
}

type exactMatchScorer struct {
	opts ExactMatchOptions
}

func (s *exactMatchScorer) Score(ctx context.Context, in api.Sample) api.ScoreResult {
	result := api.NewResult(string(api.FamilyExactMatch))
	result.Strategy = api.StrategyNonLLM

	if err := in.Require(api.FamilyExactMatch, api.StrategyNonLLM, api.FieldResponse, api.FieldReference); err != nil {
		return result.Fail(err)
	}

	response, reference := in.Response, in.Reference
	if s.opts.TrimWhitespace {
		response = strings.TrimSpace(response)
		reference = strings.TrimSpace(reference)
	}
	if !s.opts.CaseSensitive {
		response = strings.ToLower(response)
		reference = strings.ToLower(reference)
	}

	if response == reference {
		result.Score = 1.0
	}
	api.EnterStage(ctx, api.StageDirectlyCompared)

	result.Metadata["case_sensitive"] = s.opts.CaseSensitive
	result.Metadata["trim_whitespace"] = s.opts.TrimWhitespace
	result.Metadata["response_length"] = len(in.Response)
	result.Metadata["reference_length"] = len(in.Reference)

	return result
}
