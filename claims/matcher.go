package claims

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/datar-psa/rageval/aggregate"
	"github.com/datar-psa/rageval/api"
)

// DefaultMaxConcurrency bounds how many claims MatchAll judges at once
const DefaultMaxConcurrency = 8

// MatcherOptions configures a Matcher
type MatcherOptions struct {
	// Samples is the number of independent judgments per decision, reduced by
	// majority vote. Defaults to 1.
	Samples int
	// MaxConcurrency bounds concurrent claims in MatchAll. Defaults to 8.
	MaxConcurrency int
}

// Matcher decides whether claims are supported by a set of contexts
type Matcher struct {
	llm  api.LLMGenerator
	opts MatcherOptions
}

// NewMatcher returns a Matcher backed by llm
func NewMatcher(llm api.LLMGenerator, opts MatcherOptions) *Matcher {
	if opts.Samples < 1 {
		opts.Samples = 1
	}
	if opts.MaxConcurrency < 1 {
		opts.MaxConcurrency = DefaultMaxConcurrency
	}
	return &Matcher{llm: llm, opts: opts}
}

const matchPromptTemplate = `Your task is to judge whether a statement can be directly inferred from a context.

[BEGIN DATA]
[Context]: %s
[Statement]: %s
[END DATA]

Answer YES only if the statement follows from the context alone. Answer NO if the
context contradicts the statement or does not contain enough information.

Explain your reasoning briefly, then end your response with "VERDICT: YES" or "VERDICT: NO".`

// Match checks claim against each context in order. The claim is Supported
// as soon as one context supports it; otherwise it is Undetermined if any
// context produced a tied vote, and Unsupported if not. An empty context
// set yields Unsupported without any LLM call.
func (m *Matcher) Match(ctx context.Context, claim api.Claim, contexts []string) (api.Verdict, error) {
	if len(contexts) == 0 {
		return api.Unsupported, nil
	}

	verdict := api.Unsupported
	for _, c := range contexts {
		v, err := m.judge(ctx, fmt.Sprintf(matchPromptTemplate, c, claim.Text))
		if err != nil {
			return api.Unsupported, &api.MatchError{Claim: claim.Text, Err: err}
		}
		switch v {
		case api.Supported:
			return api.Supported, nil
		case api.Undetermined:
			verdict = api.Undetermined
		}
	}
	return verdict, nil
}

// MatchAll matches every claim of set concurrently and returns verdicts in
// claim order. The first failure cancels the remaining judgments.
func (m *Matcher) MatchAll(ctx context.Context, set api.ClaimSet, contexts []string) ([]api.Verdict, error) {
	verdicts := make([]api.Verdict, len(set.Claims))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(m.opts.MaxConcurrency)
	for i, claim := range set.Claims {
		g.Go(func() error {
			v, err := m.Match(gctx, claim, contexts)
			if err != nil {
				return err
			}
			verdicts[i] = v
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return verdicts, nil
}

// Judge applies the configured number of votes to an arbitrary yes/no
// prompt. The prompt must ask for a "VERDICT: YES|NO" line.
func (m *Matcher) Judge(ctx context.Context, prompt string) (api.Verdict, error) {
	v, err := m.judge(ctx, prompt)
	if err != nil {
		return api.Unsupported, &api.MatchError{Err: err}
	}
	return v, nil
}

func (m *Matcher) judge(ctx context.Context, prompt string) (api.Verdict, error) {
	if m.llm == nil {
		return api.Unsupported, api.ErrCapabilityRequired
	}

	votes := make([]api.Vote, m.opts.Samples)
	g, gctx := errgroup.WithContext(ctx)
	for i := range votes {
		g.Go(func() error {
			out, err := m.llm.Generate(gctx, prompt, 1)
			if err != nil {
				return fmt.Errorf("%w: %w", api.ErrLLMGenerationFailed, err)
			}
			if len(out) == 0 {
				return fmt.Errorf("%w: no completion returned", api.ErrLLMGenerationFailed)
			}
			vote, err := ParseVote(out[0])
			if err != nil {
				return err
			}
			votes[i] = vote
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return api.Unsupported, err
	}
	return aggregate.Majority(votes).Verdict(), nil
}

var verdictRegex = regexp.MustCompile(`(?i)VERDICT:\s*\**\s*(YES|NO)\b`)

// ParseVote reads the last "VERDICT: YES|NO" line of a completion
func ParseVote(completion string) (api.Vote, error) {
	matches := verdictRegex.FindAllStringSubmatch(completion, -1)
	if len(matches) == 0 {
		return api.Reject, fmt.Errorf("could not find VERDICT pattern in response")
	}
	if strings.EqualFold(matches[len(matches)-1][1], "YES") {
		return api.Support, nil
	}
	return api.Reject, nil
}

// ParseVotes parses every completion, failing on the first unparseable one
func ParseVotes(completions []string) ([]api.Vote, error) {
	votes := make([]api.Vote, 0, len(completions))
	for i, c := range completions {
		v, err := ParseVote(c)
		if err != nil {
			return nil, fmt.Errorf("completion %d: %w", i, err)
		}
		votes = append(votes, v)
	}
	return votes, nil
}
