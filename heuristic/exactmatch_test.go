package heuristic

import (
	"context"
	"errors"
	"testing"

	"github.com/datar-psa/rageval/api"
)

func TestExactMatch(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name      string
		opts      ExactMatchOptions
		response  string
		reference string
		wantErr   error
		wantScore float64
	}{
		{
			name:      "exact match",
			opts:      ExactMatchOptions{CaseSensitive: true},
			response:  "4",
			reference: "4",
			wantScore: 1.0,
		},
		{
			name:      "no match",
			response:  "5",
			reference: "4",
			wantScore: 0.0,
		},
		{
			name:      "case sensitive mismatch",
			opts:      ExactMatchOptions{CaseSensitive: true},
			response:  "Paris",
			reference: "paris",
			wantScore: 0.0,
		},
		{
			name:      "case folded match",
			opts:      ExactMatchOptions{},
			response:  "Paris",
			reference: "paris",
			wantScore: 1.0,
		},
		{
			name:      "whitespace sensitive mismatch",
			opts:      ExactMatchOptions{TrimWhitespace: false},
			response:  "4 ",
			reference: "4",
			wantScore: 0.0,
		},
		{
			name:      "whitespace trimmed match",
			opts:      ExactMatchOptions{TrimWhitespace: true},
			response:  "  4  ",
			reference: "4",
			wantScore: 1.0,
		},
		{
			name:      "combined options match",
			opts:      ExactMatchOptions{TrimWhitespace: true},
			response:  "  PARIS  ",
			reference: "paris",
			wantScore: 1.0,
		},
		{
			name:      "no reference",
			response:  "4",
			reference: "",
			wantErr:   api.ErrMissingField,
			wantScore: 0.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scorer := ExactMatch(tt.opts)
			result := scorer.Score(ctx, api.Sample{Response: tt.response, Reference: tt.reference})

			if !errors.Is(result.Error, tt.wantErr) {
				t.Errorf("ExactMatch.Score() error = %v, wantErr %v", result.Error, tt.wantErr)
			}

			if result.Score != tt.wantScore {
				t.Errorf("ExactMatch.Score() score = %v, wantScore %v", result.Score, tt.wantScore)
			}

			if result.Name != "exact_match" {
				t.Errorf("ExactMatch.Score() name = %v, want 'exact_match'", result.Name)
			}

			if result.Metadata == nil {
				t.Error("ExactMatch.Score() metadata is nil")
			}
		})
	}
}
