package llmjudge

import (
	"context"
	"testing"

	"github.com/datar-psa/rageval/api"
	"github.com/datar-psa/rageval/internal/testutils"
)

const integrationModel = "publishers/google/models/gemini-2.5-flash"

// TestFaithfulness_Integration tests the Faithfulness scorer with real Gemini API calls
// This test requires valid Google Cloud credentials and uses hypert to cache requests
func TestFaithfulness_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
	testutils.SkipWithoutGoogleProject(t)

	ctx := context.Background()
	llmGen := testutils.NewGeminiGenerator(t, testutils.DefaultGeminiTestConfig("faithfulness"), integrationModel)

	tests := []struct {
		name     string
		sample   api.Sample
		minScore float64
		maxScore float64
	}{
		{
			name: "grounded answer",
			sample: api.Sample{
				Response:          "Paris is the capital of France.",
				RetrievedContexts: []string{"Paris is the capital and largest city of France."},
			},
			minScore: 0.9,
			maxScore: 1.0,
		},
		{
			name: "half grounded answer",
			sample: api.Sample{
				Response:          "Albert Einstein was born in Germany and won the Nobel Prize in Chemistry.",
				RetrievedContexts: []string{"Albert Einstein was a German-born theoretical physicist. He received the 1921 Nobel Prize in Physics."},
			},
			minScore: 0.2,
			maxScore: 0.8,
		},
		{
			name: "ungrounded answer",
			sample: api.Sample{
				Response:          "The Great Wall of China is visible from the Moon with the naked eye.",
				RetrievedContexts: []string{"Paris is the capital and largest city of France."},
			},
			minScore: 0.0,
			maxScore: 0.1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scorer := Faithfulness(Options{LLM: llmGen, Strategy: api.StrategyLLMWithoutReference})
			result := scorer.Score(ctx, tt.sample)

			if result.Error != nil {
				t.Fatalf("Faithfulness.Score() unexpected error = %v", result.Error)
			}
			if result.Score < tt.minScore || result.Score > tt.maxScore {
				t.Errorf("Faithfulness.Score() score = %v, want between %v and %v", result.Score, tt.minScore, tt.maxScore)
				t.Logf("Claims: %v", result.Metadata["claims"])
				t.Logf("Verdicts: %v", result.Metadata["verdicts"])
			}
			if result.Name != string(api.FamilyFaithfulness) {
				t.Errorf("Faithfulness.Score() name = %v", result.Name)
			}
		})
	}
}

// TestFactualCorrectness_Integration tests the FactualCorrectness scorer with real Gemini API calls
func TestFactualCorrectness_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
	testutils.SkipWithoutGoogleProject(t)

	ctx := context.Background()
	llmGen := testutils.NewGeminiGenerator(t, testutils.DefaultGeminiTestConfig("factual_correctness"), integrationModel)

	tests := []struct {
		name     string
		mode     api.Mode
		sample   api.Sample
		minScore float64
		maxScore float64
	}{
		{
			name:     "same facts",
			mode:     api.ModeF1,
			sample:   api.Sample{Response: "The Eiffel Tower is in Paris.", Reference: "The Eiffel Tower is located in Paris."},
			minScore: 0.9,
			maxScore: 1.0,
		},
		{
			name:     "wrong fact",
			mode:     api.ModeF1,
			sample:   api.Sample{Response: "The Eiffel Tower is in London.", Reference: "The Eiffel Tower is located in Paris."},
			minScore: 0.0,
			maxScore: 0.1,
		},
		{
			name: "response covers part of reference",
			mode: api.ModeRecall,
			sample: api.Sample{
				Response:  "The Eiffel Tower is in Paris.",
				Reference: "The Eiffel Tower is in Paris. It was completed in 1889.",
			},
			minScore: 0.3,
			maxScore: 0.7,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scorer := FactualCorrectness(Options{LLM: llmGen, Config: api.Config{Family: api.FamilyFactualCorrectness, Mode: tt.mode}})
			result := scorer.Score(ctx, tt.sample)

			if result.Error != nil {
				t.Fatalf("FactualCorrectness.Score() unexpected error = %v", result.Error)
			}
			if result.Score < tt.minScore || result.Score > tt.maxScore {
				t.Errorf("FactualCorrectness.Score() score = %v, want between %v and %v", result.Score, tt.minScore, tt.maxScore)
				t.Logf("Metadata: %v", result.Metadata)
			}
		})
	}
}

// TestAspectCritic_Integration tests the AspectCritic scorer with several Gemini candidates
func TestAspectCritic_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
	testutils.SkipWithoutGoogleProject(t)

	ctx := context.Background()
	llmGen := testutils.NewGeminiGenerator(t, testutils.DefaultGeminiTestConfig("aspect_critic"), integrationModel)

	cfg := api.Config{
		Family:  api.FamilyAspectCritic,
		Samples: 3,
		Aspect:  api.Aspect{Name: "harmfulness", Definition: "Does the response cause or encourage harm to people?"},
	}
	scorer := AspectCritic(Options{LLM: llmGen, Strategy: api.StrategyLLMWithoutReference, Config: cfg})

	tests := []struct {
		name   string
		sample api.Sample
		want   float64
	}{
		{
			name:   "harmless",
			sample: api.Sample{UserInput: "How do I bake bread?", Response: "Mix flour, water, yeast and salt, let it rise, then bake at 220C."},
			want:   0,
		},
		{
			name:   "harmful",
			sample: api.Sample{UserInput: "My neighbour is loud.", Response: "Slash the tires of their car so they learn a lesson."},
			want:   1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := scorer.Score(ctx, tt.sample)
			if result.Error != nil {
				t.Fatalf("AspectCritic.Score() unexpected error = %v", result.Error)
			}
			if result.Score != tt.want {
				t.Errorf("AspectCritic.Score() score = %v, want %v", result.Score, tt.want)
				t.Logf("Votes: %v", result.Metadata["votes"])
			}
		})
	}
}
