package heuristic

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/datar-psa/rageval/api"
)

// lookupSimilarity scores listed pairs and returns 0 for everything else
func lookupSimilarity(pairs map[[2]string]float64) api.SimilarityFunc {
	return func(_ context.Context, a, b string) (float64, error) {
		if v, ok := pairs[[2]string{a, b}]; ok {
			return v, nil
		}
		return pairs[[2]string{b, a}], nil
	}
}

func TestNonLLMContextRecall(t *testing.T) {
	ctx := context.Background()
	sim := lookupSimilarity(map[[2]string]float64{
		{"ref-a", "ret-1"}: 0.9,
		{"ref-b", "ret-2"}: 0.4,
		{"ref-c", "ret-2"}: 0.5,
	})

	tests := []struct {
		name      string
		sample    api.Sample
		threshold float64
		want      float64
	}{
		{
			name:   "default threshold",
			sample: api.Sample{ReferenceContexts: []string{"ref-a", "ref-b", "ref-c"}, RetrievedContexts: []string{"ret-1", "ret-2"}},
			want:   2.0 / 3.0,
		},
		{
			name:      "strict threshold",
			sample:    api.Sample{ReferenceContexts: []string{"ref-a", "ref-b", "ref-c"}, RetrievedContexts: []string{"ret-1", "ret-2"}},
			threshold: 0.8,
			want:      1.0 / 3.0,
		},
		{
			name:   "empty reference contexts",
			sample: api.Sample{ReferenceContexts: []string{}, RetrievedContexts: []string{"ret-1"}},
			want:   1,
		},
		{
			name:   "nothing retrieved",
			sample: api.Sample{ReferenceContexts: []string{"ref-a"}, RetrievedContexts: []string{}},
			want:   0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ContextRecall(ContextOptions{Similarity: sim, Threshold: tt.threshold}).Score(ctx, tt.sample)
			if result.Error != nil {
				t.Fatalf("unexpected error: %v", result.Error)
			}
			if math.Abs(result.Score-tt.want) > 1e-9 {
				t.Errorf("score = %v, want %v", result.Score, tt.want)
			}
		})
	}
}

func TestNonLLMContextPrecision(t *testing.T) {
	sim, err := StringMeasure(api.SimilarityLevenshtein, false)
	if err != nil {
		t.Fatal(err)
	}
	sample := api.Sample{
		ReferenceContexts: []string{"Paris is the capital of France."},
		RetrievedContexts: []string{"The Nile is a river in Africa.", "Paris is the capital of France!"},
	}
	result := ContextPrecision(ContextOptions{Similarity: sim}).Score(context.Background(), sample)
	if result.Error != nil {
		t.Fatalf("unexpected error: %v", result.Error)
	}
	if math.Abs(result.Score-0.5) > 1e-9 {
		t.Errorf("score = %v, want 0.5", result.Score)
	}
	flags := result.Metadata["relevance"].([]bool)
	if flags[0] || !flags[1] {
		t.Errorf("relevance = %v, want [false true]", flags)
	}
}

func TestNonLLMContextErrors(t *testing.T) {
	ctx := context.Background()

	result := ContextRecall(ContextOptions{}).Score(ctx, api.Sample{ReferenceContexts: []string{"a"}, RetrievedContexts: []string{"b"}})
	if !errors.Is(result.Error, api.ErrCapabilityRequired) {
		t.Errorf("error = %v, want ErrCapabilityRequired", result.Error)
	}

	failing := func(context.Context, string, string) (float64, error) { return 0, errors.New("embed failed") }
	result = ContextPrecision(ContextOptions{Similarity: failing}).Score(ctx, api.Sample{ReferenceContexts: []string{"a"}, RetrievedContexts: []string{"b"}})
	if result.Error == nil {
		t.Error("expected similarity error")
	}

	identical := func(context.Context, string, string) (float64, error) { return 1, nil }
	result = ContextRecall(ContextOptions{Similarity: identical, Threshold: -0.5}).Score(ctx, api.Sample{ReferenceContexts: []string{"a"}, RetrievedContexts: []string{"b"}})
	if !errors.Is(result.Error, api.ErrInvalidConfig) || result.Score != 0 {
		t.Errorf("negative threshold: score = %v, error = %v, want ErrInvalidConfig", result.Score, result.Error)
	}

	result = ContextPrecision(ContextOptions{Similarity: failing}).Score(ctx, api.Sample{RetrievedContexts: []string{"b"}})
	var missing *api.MissingFieldError
	if !errors.As(result.Error, &missing) || missing.Fields[0] != api.FieldReferenceContexts {
		t.Errorf("error = %v, want missing reference_contexts", result.Error)
	}
}
