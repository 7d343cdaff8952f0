package heuristic

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/datar-psa/rageval/api"
	"github.com/datar-psa/rageval/internal/testutils"
)

func TestEntitiesRecall(t *testing.T) {
	ctx := context.Background()
	ner := &testutils.MockEntities{ByText: map[string][]string{
		"The Eiffel Tower in Paris was finished in 1889.": {"Eiffel Tower", "Paris", "1889"},
		"Gustave Eiffel's company built the tower.":       {"Gustave Eiffel"},
		"It stands in paris.":                             {"paris"},
	}}
	sample := api.Sample{
		Reference:         "The Eiffel Tower in Paris was finished in 1889.",
		RetrievedContexts: []string{"Gustave Eiffel's company built the tower.", "It stands in paris."},
	}

	result := EntitiesRecall(EntitiesRecallOptions{Extractor: ner}).Score(ctx, sample)
	if result.Error != nil {
		t.Fatalf("unexpected error: %v", result.Error)
	}
	if math.Abs(result.Score-1.0/3.0) > 1e-9 {
		t.Errorf("score = %v, want 1/3", result.Score)
	}
	if ner.Calls() != 3 {
		t.Errorf("calls = %d, want 3", ner.Calls())
	}

	result = EntitiesRecall(EntitiesRecallOptions{Extractor: ner, CaseSensitive: true}).Score(ctx, sample)
	if result.Score != 0 {
		t.Errorf("case sensitive score = %v, want 0", result.Score)
	}
}

func TestEntitiesRecallErrors(t *testing.T) {
	ctx := context.Background()
	sample := api.Sample{Reference: "r", RetrievedContexts: []string{"c"}}

	result := EntitiesRecall(EntitiesRecallOptions{}).Score(ctx, sample)
	if !errors.Is(result.Error, api.ErrCapabilityRequired) {
		t.Errorf("error = %v, want ErrCapabilityRequired", result.Error)
	}

	ner := &testutils.MockEntities{Err: errors.New("quota")}
	result = EntitiesRecall(EntitiesRecallOptions{Extractor: ner}).Score(ctx, sample)
	if !errors.Is(result.Error, api.ErrExtraction) {
		t.Errorf("error = %v, want ErrExtraction", result.Error)
	}
}
