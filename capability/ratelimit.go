package capability

import (
	"context"

	"golang.org/x/time/rate"

	"github.com/datar-psa/rageval/api"
)

// RateLimited returns caps with every non-nil member waiting on one shared
// limiter before each call. requestsPerSecond <= 0 returns caps unchanged.
func RateLimited(caps api.Capabilities, requestsPerSecond float64, burst int) api.Capabilities {
	if requestsPerSecond <= 0 {
		return caps
	}
	if burst <= 0 {
		burst = 1
	}
	l := rate.NewLimiter(rate.Limit(requestsPerSecond), burst)

	if caps.LLM != nil {
		caps.LLM = &limitedLLM{next: caps.LLM, l: l}
	}
	if caps.Embedder != nil {
		caps.Embedder = &limitedEmbedder{next: caps.Embedder, l: l}
	}
	if caps.Entities != nil {
		caps.Entities = &limitedEntities{next: caps.Entities, l: l}
	}
	return caps
}

type limitedLLM struct {
	next api.LLMGenerator
	l    *rate.Limiter
}

func (m *limitedLLM) Generate(ctx context.Context, prompt string, n int) ([]string, error) {
	if err := m.l.Wait(ctx); err != nil {
		return nil, err
	}
	return m.next.Generate(ctx, prompt, n)
}

func (m *limitedLLM) StructuredGenerate(ctx context.Context, prompt string, schema map[string]interface{}) (map[string]interface{}, error) {
	if err := m.l.Wait(ctx); err != nil {
		return nil, err
	}
	return m.next.StructuredGenerate(ctx, prompt, schema)
}

type limitedEmbedder struct {
	next api.Embedder
	l    *rate.Limiter
}

func (m *limitedEmbedder) Embed(ctx context.Context, text string) ([]float64, error) {
	if err := m.l.Wait(ctx); err != nil {
		return nil, err
	}
	return m.next.Embed(ctx, text)
}

type limitedEntities struct {
	next api.EntityExtractor
	l    *rate.Limiter
}

func (m *limitedEntities) Entities(ctx context.Context, text string) ([]string, error) {
	if err := m.l.Wait(ctx); err != nil {
		return nil, err
	}
	return m.next.Entities(ctx, text)
}
