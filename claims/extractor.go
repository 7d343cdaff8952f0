// Package claims decomposes text into atomic claims and verifies them
// against a set of contexts using an LLM judge.
package claims

import (
	"context"
	"fmt"
	"strings"

	"github.com/datar-psa/rageval/api"
)

// Extractor decomposes text into claims with one structured LLM call
type Extractor struct {
	llm api.LLMGenerator
}

// NewExtractor returns an Extractor backed by llm
func NewExtractor(llm api.LLMGenerator) *Extractor {
	return &Extractor{llm: llm}
}

// claimsSchema is the JSON schema of the extraction response
var claimsSchema = map[string]interface{}{
	"type": "object",
	"properties": map[string]interface{}{
		"claims": map[string]interface{}{
			"type":        "array",
			"items":       map[string]interface{}{"type": "string"},
			"description": "Standalone factual statements made by the text",
		},
	},
	"required": []string{"claims"},
}

const extractPromptTemplate = `Decompose the text below into standalone factual claims.

Each claim must be understandable without the rest of the text: replace pronouns
with the entities they refer to. Do not add information that is not in the text.
%s
%s

[BEGIN DATA]
[Text]: %s
[END DATA]

Return the claims as a JSON object with a "claims" array of strings.`

var atomicityInstructions = map[api.Level]string{
	api.LevelHigh: "Split the text into the smallest possible claims: every claim states exactly one fact.",
	api.LevelLow:  "Keep closely related facts together: a claim may combine facts about the same subject.",
}

var coverageInstructions = map[api.Level]string{
	api.LevelHigh: "Cover every fact in the text, including qualifiers, numbers and dates.",
	api.LevelLow:  "Cover only the main points of the text and skip minor details.",
}

// Extract returns the claims made by text. Blank text yields an empty set
// without calling the LLM. Any failure is returned as *api.ExtractionError.
func (e *Extractor) Extract(ctx context.Context, text string, atomicity, coverage api.Level) (api.ClaimSet, error) {
	set := api.ClaimSet{Source: text}
	if strings.TrimSpace(text) == "" {
		return set, nil
	}
	if e.llm == nil {
		return set, &api.ExtractionError{Err: api.ErrCapabilityRequired}
	}

	prompt := fmt.Sprintf(extractPromptTemplate,
		instruction(atomicityInstructions, atomicity),
		instruction(coverageInstructions, coverage),
		text)

	resp, err := e.llm.StructuredGenerate(ctx, prompt, claimsSchema)
	if err != nil {
		return set, &api.ExtractionError{Err: fmt.Errorf("%w: %w", api.ErrLLMGenerationFailed, err)}
	}

	texts, err := stringList(resp, "claims")
	if err != nil {
		return set, &api.ExtractionError{Err: err}
	}
	for _, t := range texts {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		set.Claims = append(set.Claims, api.Claim{Text: t, Source: text})
	}
	return set, nil
}

func instruction(m map[api.Level]string, l api.Level) string {
	if s, ok := m[l]; ok {
		return s
	}
	return m[api.LevelHigh]
}

// stringList reads resp[key] as a list of strings
func stringList(resp map[string]interface{}, key string) ([]string, error) {
	raw, ok := resp[key]
	if !ok {
		return nil, fmt.Errorf("missing %q field in response", key)
	}
	switch v := raw.(type) {
	case []string:
		return v, nil
	case []interface{}:
		out := make([]string, 0, len(v))
		for i, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("%s[%d] is %T, not a string", key, i, item)
			}
			out = append(out, s)
		}
		return out, nil
	case nil:
		return nil, nil
	default:
		return nil, fmt.Errorf("%q field is %T, not a list", key, raw)
	}
}

// ExtractList runs a structured call whose response is {key: [string]} and
// returns the trimmed non-blank items. It backs list-shaped extractions
// other than claims, such as named entities.
func ExtractList(ctx context.Context, llm api.LLMGenerator, prompt, key, description string) ([]string, error) {
	if llm == nil {
		return nil, &api.ExtractionError{Err: api.ErrCapabilityRequired}
	}
	schema := map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			key: map[string]interface{}{
				"type":        "array",
				"items":       map[string]interface{}{"type": "string"},
				"description": description,
			},
		},
		"required": []string{key},
	}
	resp, err := llm.StructuredGenerate(ctx, prompt, schema)
	if err != nil {
		return nil, &api.ExtractionError{Err: fmt.Errorf("%w: %w", api.ErrLLMGenerationFailed, err)}
	}
	items, err := stringList(resp, key)
	if err != nil {
		return nil, &api.ExtractionError{Err: err}
	}
	out := items[:0:0]
	for _, s := range items {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out, nil
}
