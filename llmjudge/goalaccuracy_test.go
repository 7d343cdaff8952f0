package llmjudge

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/datar-psa/rageval/api"
	"github.com/datar-psa/rageval/internal/testutils"
)

func TestAgentGoalAccuracy_Unit(t *testing.T) {
	ctx := context.Background()
	goal := "Book a table for two at a Chinese restaurant at 8pm."

	tests := []struct {
		name      string
		strategy  api.Strategy
		sample    api.Sample
		answer    string
		wantScore float64
		wantErr   error
		wantRef   bool
	}{
		{
			name:      "achieved with reference",
			strategy:  api.StrategyLLMWithReference,
			sample:    api.Sample{Goal: goal, Response: "Booked Golden Dragon for two at 8pm.", Reference: "A table for two is booked at 8pm."},
			answer:    "VERDICT: YES",
			wantScore: 1,
			wantRef:   true,
		},
		{
			name:      "not achieved without reference",
			strategy:  api.StrategyLLMWithoutReference,
			sample:    api.Sample{Goal: goal, Response: "No tables were available."},
			answer:    "VERDICT: NO",
			wantScore: 0,
		},
		{
			name:     "missing goal",
			strategy: api.StrategyLLMWithoutReference,
			sample:   api.Sample{Response: "done"},
			wantErr:  api.ErrMissingField,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			llm := &testutils.MockLLM{
				GenerateFunc: func(prompt string, n int) ([]string, error) {
					if got := strings.Contains(prompt, "[Desired outcome]"); got != tt.wantRef {
						t.Errorf("prompt carries reference = %v, want %v", got, tt.wantRef)
					}
					return testutils.Repeat(tt.answer, n), nil
				},
			}
			result := AgentGoalAccuracy(Options{LLM: llm, Strategy: tt.strategy}).Score(ctx, tt.sample)
			if tt.wantErr != nil {
				if !errors.Is(result.Error, tt.wantErr) {
					t.Fatalf("error = %v, want %v", result.Error, tt.wantErr)
				}
				if llm.Calls() != 0 {
					t.Errorf("calls = %d, want 0", llm.Calls())
				}
				return
			}
			if result.Error != nil {
				t.Fatalf("unexpected error: %v", result.Error)
			}
			if result.Score != tt.wantScore {
				t.Errorf("score = %v, want %v", result.Score, tt.wantScore)
			}
		})
	}
}
