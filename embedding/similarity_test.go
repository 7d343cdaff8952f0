package embedding

import (
	"context"
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/datar-psa/rageval/api"
	"github.com/datar-psa/rageval/internal/testutils"
)

func TestSemanticSimilarity_Unit(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name         string
		embeddings   map[string][]float64
		embedErr     error
		response     string
		reference    string
		wantErr      error
		wantMinScore float64
		wantMaxScore float64
	}{
		{
			name: "identical embeddings",
			embeddings: map[string][]float64{
				"hello": {1.0, 0.0, 0.0},
			},
			response:     "hello",
			reference:    "hello",
			wantMinScore: 0.99,
			wantMaxScore: 1.0,
		},
		{
			name: "very similar embeddings",
			embeddings: map[string][]float64{
				"What is the type of leave?":       {1.0, 0.1, 0.0},
				"Please provide type of the leave": {1.0, 0.15, 0.05},
			},
			response:     "What is the type of leave?",
			reference:    "Please provide type of the leave",
			wantMinScore: 0.8,
			wantMaxScore: 1.0,
		},
		{
			name: "orthogonal embeddings",
			embeddings: map[string][]float64{
				"a": {1.0, 0.0, 0.0},
				"b": {0.0, 1.0, 0.0},
			},
			response:     "a",
			reference:    "b",
			wantMinScore: 0.4, // Normalized from 0 to [0,1] range
			wantMaxScore: 0.6,
		},
		{
			name: "opposite embeddings",
			embeddings: map[string][]float64{
				"a": {1.0, 0.0, 0.0},
				"b": {-1.0, 0.0, 0.0},
			},
			response:     "a",
			reference:    "b",
			wantMinScore: 0.0,
			wantMaxScore: 0.1, // Normalized from -1 to [0,1] range
		},
		{
			name:         "no reference",
			response:     "hello",
			reference:    "",
			wantErr:      api.ErrMissingField,
			wantMinScore: 0.0,
			wantMaxScore: 0.0,
		},
		{
			name:         "embedder error",
			embedErr:     fmt.Errorf("API error"),
			wantErr:      api.ErrExtraction,
			response:     "hello",
			reference:    "world",
			wantMinScore: 0.0,
			wantMaxScore: 0.0,
		},
		{
			name:         "embedder deadline",
			embedErr:     context.DeadlineExceeded,
			wantErr:      context.DeadlineExceeded,
			response:     "hello",
			reference:    "world",
			wantMinScore: 0.0,
			wantMaxScore: 0.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockEmbed := &testutils.MockEmbedder{
				Vectors: tt.embeddings,
				Err:     tt.embedErr,
			}

			scorer := SemanticSimilarity(mockEmbed)

			result := scorer.Score(ctx, api.Sample{Response: tt.response, Reference: tt.reference})

			if tt.wantErr != nil {
				if !errors.Is(result.Error, tt.wantErr) {
					t.Errorf("SemanticSimilarity.Score() error = %v, wantErr %v", result.Error, tt.wantErr)
				}
				if tt.embedErr != nil && !errors.Is(result.Error, api.ErrExtraction) {
					t.Errorf("SemanticSimilarity.Score() error = %v, want ErrExtraction", result.Error)
				}
			} else {
				if result.Error != nil {
					t.Errorf("SemanticSimilarity.Score() unexpected error = %v", result.Error)
				}
			}

			if result.Score < tt.wantMinScore || result.Score > tt.wantMaxScore {
				t.Errorf("SemanticSimilarity.Score() score = %v, want between %v and %v", result.Score, tt.wantMinScore, tt.wantMaxScore)
			}

			if result.Name != "semantic_similarity" {
				t.Errorf("SemanticSimilarity.Score() name = %v, want 'semantic_similarity'", result.Name)
			}
		})
	}
}

func TestSemanticSimilarity_NoEmbedder(t *testing.T) {
	ctx := context.Background()

	scorer := SemanticSimilarity(nil)
	result := scorer.Score(ctx, api.Sample{Response: "response", Reference: "reference"})

	if !errors.Is(result.Error, api.ErrCapabilityRequired) {
		t.Errorf("SemanticSimilarity.Score() error = %v, want ErrCapabilityRequired", result.Error)
	}

	if result.Score != 0 {
		t.Errorf("SemanticSimilarity.Score() score = %v, want 0", result.Score)
	}
}

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name    string
		a       []float64
		b       []float64
		wantSim float64
		epsilon float64
	}{
		{
			name:    "identical vectors",
			a:       []float64{1.0, 0.0, 0.0},
			b:       []float64{1.0, 0.0, 0.0},
			wantSim: 1.0,
			epsilon: 0.001,
		},
		{
			name:    "orthogonal vectors",
			a:       []float64{1.0, 0.0, 0.0},
			b:       []float64{0.0, 1.0, 0.0},
			wantSim: 0.0,
			epsilon: 0.001,
		},
		{
			name:    "opposite vectors",
			a:       []float64{1.0, 0.0, 0.0},
			b:       []float64{-1.0, 0.0, 0.0},
			wantSim: -1.0,
			epsilon: 0.001,
		},
		{
			name:    "similar vectors",
			a:       []float64{1.0, 0.1, 0.0},
			b:       []float64{1.0, 0.15, 0.05},
			wantSim: 0.98, // Approximately
			epsilon: 0.02,
		},
		{
			name:    "different lengths",
			a:       []float64{1.0, 0.0},
			b:       []float64{1.0, 0.0, 0.0},
			wantSim: 0.0,
			epsilon: 0.001,
		},
		{
			name:    "zero vector",
			a:       []float64{0.0, 0.0, 0.0},
			b:       []float64{1.0, 0.0, 0.0},
			wantSim: 0.0,
			epsilon: 0.001,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sim := CosineSimilarity(tt.a, tt.b)
			if math.Abs(sim-tt.wantSim) > tt.epsilon {
				t.Errorf("CosineSimilarity() = %v, want %v (+/-%v)", sim, tt.wantSim, tt.epsilon)
			}
		})
	}
}

func TestMeasure(t *testing.T) {
	ctx := context.Background()
	embedder := &testutils.MockEmbedder{Vectors: map[string][]float64{
		"a":    {1, 0},
		"same": {2, 0},
		"b":    {0, 1},
		"neg":  {-1, 0},
	}}
	sim := Measure(embedder)

	tests := []struct {
		a, b string
		want float64
	}{
		{a: "a", b: "same", want: 1},
		{a: "a", b: "b", want: 0},
		{a: "a", b: "neg", want: 0},
	}
	for _, tt := range tests {
		got, err := sim(ctx, tt.a, tt.b)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("Measure(%s, %s) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}

	failing := Measure(&testutils.MockEmbedder{Err: context.DeadlineExceeded})
	_, err := failing(ctx, "a", "b")
	if !errors.Is(err, api.ErrExtraction) || !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("error = %v, want ErrExtraction wrapping DeadlineExceeded", err)
	}
}
