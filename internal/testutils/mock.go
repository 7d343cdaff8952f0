package testutils

import (
	"context"
	"strings"
	"sync/atomic"
)

// MockLLM is a scripted api.LLMGenerator that counts its calls.
// Unset funcs answer with an empty result.
type MockLLM struct {
	GenerateFunc   func(prompt string, n int) ([]string, error)
	StructuredFunc func(prompt string, schema map[string]interface{}) (map[string]interface{}, error)

	generateCalls   atomic.Int64
	structuredCalls atomic.Int64
}

func (m *MockLLM) Generate(ctx context.Context, prompt string, n int) ([]string, error) {
	m.generateCalls.Add(1)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if n < 1 {
		n = 1
	}
	if m.GenerateFunc == nil {
		return make([]string, n), nil
	}
	return m.GenerateFunc(prompt, n)
}

func (m *MockLLM) StructuredGenerate(ctx context.Context, prompt string, schema map[string]interface{}) (map[string]interface{}, error) {
	m.structuredCalls.Add(1)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if m.StructuredFunc == nil {
		return map[string]interface{}{}, nil
	}
	return m.StructuredFunc(prompt, schema)
}

// GenerateCalls returns the number of Generate calls
func (m *MockLLM) GenerateCalls() int { return int(m.generateCalls.Load()) }

// StructuredCalls returns the number of StructuredGenerate calls
func (m *MockLLM) StructuredCalls() int { return int(m.structuredCalls.Load()) }

// Calls returns the total number of calls
func (m *MockLLM) Calls() int { return m.GenerateCalls() + m.StructuredCalls() }

// Repeat returns n copies of s
func Repeat(s string, n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = s
	}
	return out
}

// ClaimsByText answers claim extraction prompts by looking up which key of
// claims appears in the prompt's text section
func ClaimsByText(claims map[string][]string) func(string, map[string]interface{}) (map[string]interface{}, error) {
	return func(prompt string, _ map[string]interface{}) (map[string]interface{}, error) {
		for text, cs := range claims {
			if strings.Contains(prompt, "[Text]: "+text+"\n") {
				items := make([]interface{}, len(cs))
				for i, c := range cs {
					items[i] = c
				}
				return map[string]interface{}{"claims": items}, nil
			}
		}
		return map[string]interface{}{"claims": []interface{}{}}, nil
	}
}

// SupportedPairs answers claim matching prompts with YES when the
// statement is listed under the prompt's context, and NO otherwise
func SupportedPairs(pairs map[string][]string) func(string, int) ([]string, error) {
	return func(prompt string, n int) ([]string, error) {
		for context, statements := range pairs {
			if !strings.Contains(prompt, "[Context]: "+context+"\n") {
				continue
			}
			for _, st := range statements {
				if strings.Contains(prompt, "[Statement]: "+st+"\n") {
					return Repeat("Follows from the context. VERDICT: YES", n), nil
				}
			}
		}
		return Repeat("Not stated. VERDICT: NO", n), nil
	}
}

// MockEmbedder maps texts to fixed vectors
type MockEmbedder struct {
	Vectors map[string][]float64
	Err     error

	calls atomic.Int64
}

func (m *MockEmbedder) Embed(ctx context.Context, text string) ([]float64, error) {
	m.calls.Add(1)
	if m.Err != nil {
		return nil, m.Err
	}
	if v, ok := m.Vectors[text]; ok {
		return v, nil
	}
	return []float64{0, 0, 1}, nil
}

// Calls returns the number of Embed calls
func (m *MockEmbedder) Calls() int { return int(m.calls.Load()) }

// MockEntities maps texts to fixed entity lists
type MockEntities struct {
	ByText map[string][]string
	Err    error

	calls atomic.Int64
}

func (m *MockEntities) Entities(ctx context.Context, text string) ([]string, error) {
	m.calls.Add(1)
	if m.Err != nil {
		return nil, m.Err
	}
	return m.ByText[text], nil
}

// Calls returns the number of Entities calls
func (m *MockEntities) Calls() int { return int(m.calls.Load()) }
