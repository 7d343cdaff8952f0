package heuristic

import (
	"context"
	"strings"

	"github.com/datar-psa/rageval/aggregate"
	"github.com/datar-psa/rageval/api"
)

// StringPresenceOptions configures the StringPresence scorer
type StringPresenceOptions struct {
	// CaseSensitive disables case folding before searching
	CaseSensitive bool
}

// StringPresence returns a scorer that treats each non-blank line of the
// reference as a string the response must contain. Score = present lines /
// total lines, so a single-line reference scores 1 or 0.
func StringPresence(opts StringPresenceOptions) api.Scorer {
	return &stringPresenceScorer{opts: opts}
}

type stringPresenceScorer struct {
	opts StringPresenceOptions
}

func (s *stringPresenceScorer) Score(ctx context.Context, in api.Sample) api.ScoreResult {
	result := api.NewResult(string(api.FamilyStringPresence))
	result.Strategy = api.StrategyNonLLM

	if err := in.Require(api.FamilyStringPresence, api.StrategyNonLLM, api.FieldResponse, api.FieldReference); err != nil {
		return result.Fail(err)
	}

	response := in.Response
	if !s.opts.CaseSensitive {
		response = strings.ToLower(response)
	}

	var present int
	var missing []string
	wanted := referenceStrings(in.Reference)
	for _, w := range wanted {
		needle := w
		if !s.opts.CaseSensitive {
			needle = strings.ToLower(w)
		}
		if strings.Contains(response, needle) {
			present++
		} else {
			missing = append(missing, w)
		}
	}
	result.Score = aggregate.Recall(present, len(wanted)-present)
	api.EnterStage(ctx, api.StageDirectlyCompared)

	result.Metadata["present"] = present
	result.Metadata["total"] = len(wanted)
	result.Metadata["missing"] = missing
	return result
}

func referenceStrings(reference string) []string {
	var out []string
	for _, line := range strings.Split(reference, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}
	return out
}
