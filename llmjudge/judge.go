// Package llmjudge provides the LLM-judged metric families. Claim based
// metrics extract claims with claims.Extractor, verify them with
// claims.Matcher and reduce the verdicts with the aggregate package.
package llmjudge

import (
	"context"
	"fmt"

	"github.com/datar-psa/rageval/api"
	"github.com/datar-psa/rageval/claims"
)

// Options configures every scorer in this package
type Options struct {
	// LLM is the language model used for extraction and judgment
	LLM api.LLMGenerator
	// Embedder is used by response_relevancy only
	Embedder api.Embedder
	// Strategy selects with or without reference; defaults to llm_with_reference
	Strategy api.Strategy
	// Config carries metric options; zero values select defaults
	Config api.Config
	// MaxConcurrency bounds concurrent judgments per sample; defaults to
	// claims.DefaultMaxConcurrency. Each judgment issues Config.Samples votes.
	MaxConcurrency int
}

func (o Options) withDefaults() Options {
	if o.Strategy == "" {
		o.Strategy = api.StrategyLLMWithReference
	}
	o.Config = o.Config.WithDefaults()
	if o.MaxConcurrency < 1 {
		o.MaxConcurrency = claims.DefaultMaxConcurrency
	}
	return o
}

func (o Options) extractor() *claims.Extractor {
	return claims.NewExtractor(o.LLM)
}

func (o Options) matcher() *claims.Matcher {
	return claims.NewMatcher(o.LLM, claims.MatcherOptions{
		Samples:        o.Config.Samples,
		MaxConcurrency: o.MaxConcurrency,
	})
}

func (o Options) extract(ctx context.Context, text string) (api.ClaimSet, error) {
	return o.extractor().Extract(ctx, text, o.Config.Atomicity, o.Config.Coverage)
}

// newResult starts a result for family and rejects a missing LLM
func newResult(family api.Family, o Options) (api.ScoreResult, error) {
	result := api.NewResult(string(family))
	result.Strategy = o.Strategy
	if o.LLM == nil {
		return result, fmt.Errorf("%w: %s needs an LLM generator", api.ErrCapabilityRequired, family)
	}
	return result, nil
}

// checkStrategy rejects strategies the family does not implement
func checkStrategy(family api.Family, s api.Strategy, supported ...api.Strategy) error {
	for _, ok := range supported {
		if s == ok {
			return nil
		}
	}
	return &api.UnknownStrategyError{Family: family, Strategy: s}
}

func verdictStrings(vs []api.Verdict) []string {
	out := make([]string, len(vs))
	for i, v := range vs {
		out[i] = v.String()
	}
	return out
}

