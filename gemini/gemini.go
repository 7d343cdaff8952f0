// Package gemini implements the rageval capabilities on Google's Gemini
// models and the Cloud Natural Language API.
package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/datar-psa/rageval/api"
)

// Generator wraps a genai.Client to implement the LLMGenerator interface
type Generator struct {
	client    *genai.Client
	modelName string
}

// NewGenerator creates a new Gemini generator
// client: genai.Client from google.golang.org/genai
// modelName: the model to use (e.g., "gemini-2.5-flash")
func NewGenerator(client *genai.Client, modelName string) *Generator {
	return &Generator{
		client:    client,
		modelName: modelName,
	}
}

func userContent(prompt string) []*genai.Content {
	return []*genai.Content{{
		Role: "user",
		Parts: []*genai.Part{
			{Text: prompt},
		},
	}}
}

// Generate implements LLMGenerator.Generate
// n > 1 is served by one request with CandidateCount set
func (g *Generator) Generate(ctx context.Context, prompt string, n int) ([]string, error) {
	if n < 1 {
		n = 1
	}
	resp, err := g.client.Models.GenerateContent(
		ctx,
		g.modelName,
		userContent(prompt),
		&genai.GenerateContentConfig{CandidateCount: int32(n)},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to generate content: %w", err)
	}

	if len(resp.Candidates) == 0 {
		return nil, fmt.Errorf("no candidates returned")
	}

	out := make([]string, 0, len(resp.Candidates))
	for _, c := range resp.Candidates {
		if c.Content == nil || len(c.Content.Parts) == 0 {
			return nil, fmt.Errorf("no parts in response")
		}
		var b strings.Builder
		for _, p := range c.Content.Parts {
			b.WriteString(p.Text)
		}
		out = append(out, b.String())
	}
	return out, nil
}

// StructuredGenerate implements LLMGenerator.StructuredGenerate
// The schema is sent as the response JSON schema and the reply is decoded as a JSON object
func (g *Generator) StructuredGenerate(ctx context.Context, prompt string, schema map[string]interface{}) (map[string]interface{}, error) {
	resp, err := g.client.Models.GenerateContent(
		ctx,
		g.modelName,
		userContent(prompt),
		&genai.GenerateContentConfig{
			ResponseMIMEType:   "application/json",
			ResponseJsonSchema: schema,
		},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to generate content: %w", err)
	}

	text := resp.Text()
	if text == "" {
		return nil, fmt.Errorf("empty structured response")
	}

	var result map[string]interface{}
	if err := json.Unmarshal([]byte(text), &result); err != nil {
		return nil, fmt.Errorf("failed to parse structured response: %w", err)
	}
	return result, nil
}

// Verify that Generator implements LLMGenerator
var _ api.LLMGenerator = (*Generator)(nil)
