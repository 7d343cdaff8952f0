package heuristic

import (
	"context"
	"fmt"
	"strings"

	"github.com/hbollon/go-edlib"

	"github.com/datar-psa/rageval/api"
)

var edlibAlgorithms = map[api.SimilarityMeasure]edlib.Algorithm{
	api.SimilarityLevenshtein: edlib.Levenshtein,
	api.SimilarityJaro:        edlib.Jaro,
	api.SimilarityJaroWinkler: edlib.JaroWinkler,
}

// StringMeasure returns a similarity function for one of the edit distance
// measures. Levenshtein is reported as 1 - distance / longest length.
func StringMeasure(measure api.SimilarityMeasure, caseSensitive bool) (api.SimilarityFunc, error) {
	if measure == "" {
		measure = api.SimilarityLevenshtein
	}
	algo, ok := edlibAlgorithms[measure]
	if !ok {
		return nil, fmt.Errorf("%w: %q is not a string similarity measure", api.ErrInvalidConfig, measure)
	}
	return func(_ context.Context, a, b string) (float64, error) {
		if !caseSensitive {
			a, b = strings.ToLower(a), strings.ToLower(b)
		}
		if a == b {
			return 1, nil
		}
		if a == "" || b == "" {
			return 0, nil
		}
		sim, err := edlib.StringsSimilarity(a, b, algo)
		if err != nil {
			return 0, fmt.Errorf("%s similarity: %w", measure, err)
		}
		return clamp01(float64(sim)), nil
	}, nil
}

// StringSimilarityOptions configures the StringSimilarity scorer
type StringSimilarityOptions struct {
	// Measure defaults to levenshtein
	Measure       api.SimilarityMeasure
	CaseSensitive bool
}

// StringSimilarity returns a scorer that compares response and reference
// with an edit distance measure
func StringSimilarity(opts StringSimilarityOptions) api.Scorer {
	if opts.Measure == "" {
		opts.Measure = api.SimilarityLevenshtein
	}
	return &stringSimilarityScorer{opts: opts}
}

type stringSimilarityScorer struct {
	opts StringSimilarityOptions
}

func (s *stringSimilarityScorer) Score(ctx context.Context, in api.Sample) api.ScoreResult {
	result := api.NewResult(string(api.FamilyStringSimilarity))
	result.Strategy = api.StrategyNonLLM

	if err := in.Require(api.FamilyStringSimilarity, api.StrategyNonLLM, api.FieldResponse, api.FieldReference); err != nil {
		return result.Fail(err)
	}
	sim, err := StringMeasure(s.opts.Measure, s.opts.CaseSensitive)
	if err != nil {
		return result.Fail(err)
	}
	score, err := sim(ctx, in.Response, in.Reference)
	if err != nil {
		return result.Fail(err)
	}
	result.Score = score
	api.EnterStage(ctx, api.StageDirectlyCompared)

	result.Metadata["measure"] = string(s.opts.Measure)
	return result
}

func clamp01(v float64) float64 {
	if v < 0 || v != v {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
