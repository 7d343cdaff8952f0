package llmjudge

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/datar-psa/rageval/api"
)

// SimpleCriteria returns a scorer that grades the response on an integer
// scale defined by Config.Criteria and Config.ScoreRange. Config.Samples
// completions are requested in one call; the most frequent score wins and
// ties go to the lower score. The score is reported on the raw scale.
func SimpleCriteria(opts Options) api.Scorer {
	return &simpleCriteriaScorer{opts: opts.withDefaults()}
}

type simpleCriteriaScorer struct {
	opts Options
}

const simpleCriteriaPromptTemplate = `Evaluate the response using the criteria below.

Criteria: %s

[BEGIN DATA]
[Input]: %s
[Response]: %s%s
[END DATA]

Think step by step, then give a whole-number score from %d to %d.

End your response with: "SCORE: X" where X is a number from %d to %d.`

func (s *simpleCriteriaScorer) Score(ctx context.Context, in api.Sample) api.ScoreResult {
	result, err := newResult(api.FamilySimpleCriteria, s.opts)
	if err != nil {
		return result.Fail(err)
	}
	if strings.TrimSpace(s.opts.Config.Criteria) == "" {
		return result.Fail(fmt.Errorf("%w: simple_criteria needs a criteria definition", api.ErrInvalidConfig))
	}
	reference, err := referenceBlock(in, api.FamilySimpleCriteria, s.opts.Strategy, api.FieldUserInput, api.FieldResponse)
	if err != nil {
		return result.Fail(err)
	}

	lo, hi := s.opts.Config.ScoreRange[0], s.opts.Config.ScoreRange[1]
	prompt := fmt.Sprintf(simpleCriteriaPromptTemplate, s.opts.Config.Criteria, in.UserInput, in.Response, reference, lo, hi, lo, hi)

	completions, err := s.opts.LLM.Generate(ctx, prompt, s.opts.Config.Samples)
	if err != nil {
		return result.Fail(&api.MatchError{Err: fmt.Errorf("%w: %w", api.ErrLLMGenerationFailed, err)})
	}
	if len(completions) == 0 {
		return result.Fail(&api.MatchError{Err: fmt.Errorf("%w: no completion returned", api.ErrLLMGenerationFailed)})
	}

	scores := make([]int, 0, len(completions))
	var reasoning string
	for _, c := range completions {
		score, why, err := extractScore(c, lo, hi)
		if err != nil {
			result.Metadata["raw_response"] = c
			return result.Fail(&api.MatchError{Err: fmt.Errorf("failed to extract score: %w", err)})
		}
		scores = append(scores, score)
		if reasoning == "" {
			reasoning = why
		}
	}
	api.EnterStage(ctx, api.StageClaimsMatched)

	winner := modeLowest(scores)
	result.Score = float64(winner)
	api.EnterStage(ctx, api.StageAggregated)

	result.Metadata["scores"] = scores
	result.Metadata["score_range"] = s.opts.Config.ScoreRange
	result.Metadata["reasoning"] = reasoning
	return result
}

var scoreRegex = regexp.MustCompile(`SCORE:\s*(-?\d+)`)

// extractScore reads the last "SCORE: N" line of the LLM response.
// Returns the score, the reasoning before it, and any error
func extractScore(response string, lo, hi int) (int, string, error) {
	matches := scoreRegex.FindAllStringSubmatchIndex(response, -1)
	if len(matches) == 0 {
		return 0, "", fmt.Errorf("could not find SCORE pattern in response")
	}
	last := matches[len(matches)-1]

	score, err := strconv.Atoi(response[last[2]:last[3]])
	if err != nil {
		return 0, "", fmt.Errorf("invalid score value: %w", err)
	}

	if score < lo || score > hi {
		return 0, "", fmt.Errorf("score out of range: %d", score)
	}

	reasoning := strings.TrimSpace(response[:last[0]])
	return score, reasoning, nil
}

// modeLowest returns the most frequent value, preferring the lower value on ties
func modeLowest(values []int) int {
	counts := make(map[int]int, len(values))
	best, bestCount := 0, 0
	for _, v := range values {
		counts[v]++
	}
	for v, c := range counts {
		if c > bestCount || (c == bestCount && v < best) {
			best, bestCount = v, c
		}
	}
	return best
}
