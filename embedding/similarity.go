// Package embedding scores texts by the cosine similarity of their
// embedding vectors.
package embedding

import (
	"context"
	"fmt"
	"math"

	"github.com/datar-psa/rageval/api"
)

// SemanticSimilarity returns a scorer that measures semantic similarity using embeddings
// It computes cosine similarity between the response and reference embeddings
// and maps it from [-1,1] to [0,1]
func SemanticSimilarity(embedder api.Embedder) api.Scorer {
	return &semanticSimilarityScorer{embedder: embedder}
}

type semanticSimilarityScorer struct {
	embedder api.Embedder
}

func (s *semanticSimilarityScorer) Score(ctx context.Context, in api.Sample) api.ScoreResult {
	result := api.NewResult(string(api.FamilySemanticSimilarity))
	result.Strategy = api.StrategyNonLLM

	if err := in.Require(api.FamilySemanticSimilarity, api.StrategyNonLLM, api.FieldResponse, api.FieldReference); err != nil {
		return result.Fail(err)
	}

	if s.embedder == nil {
		return result.Fail(fmt.Errorf("%w: embedder is required", api.ErrCapabilityRequired))
	}

	responseEmbed, err := s.embedder.Embed(ctx, in.Response)
	if err != nil {
		return result.Fail(&api.ExtractionError{Err: fmt.Errorf("failed to embed response: %w", err)})
	}

	referenceEmbed, err := s.embedder.Embed(ctx, in.Reference)
	if err != nil {
		return result.Fail(&api.ExtractionError{Err: fmt.Errorf("failed to embed reference: %w", err)})
	}

	similarity := CosineSimilarity(responseEmbed, referenceEmbed)
	result.Score = normalize(similarity)
	api.EnterStage(ctx, api.StageDirectlyCompared)

	result.Metadata["cosine_similarity"] = similarity
	result.Metadata["embedding_dim"] = len(responseEmbed)

	return result
}

// Measure returns a similarity function backed by embedder for the non-LLM
// context scorers. Negative cosine similarity counts as 0, so the
// function's range is [0,1]. Embedding failures are ExtractionErrors.
func Measure(embedder api.Embedder) api.SimilarityFunc {
	return func(ctx context.Context, a, b string) (float64, error) {
		ea, err := embedder.Embed(ctx, a)
		if err != nil {
			return 0, &api.ExtractionError{Err: fmt.Errorf("failed to embed text: %w", err)}
		}
		eb, err := embedder.Embed(ctx, b)
		if err != nil {
			return 0, &api.ExtractionError{Err: fmt.Errorf("failed to embed text: %w", err)}
		}
		return math.Max(0, CosineSimilarity(ea, eb)), nil
	}
}

// normalize maps a cosine similarity from [-1,1] to [0,1]
func normalize(similarity float64) float64 {
	score := (similarity + 1.0) / 2.0
	if score < 0 {
		score = 0
	}
	if score > 1 {
		score = 1
	}
	return score
}

// CosineSimilarity computes the cosine similarity between two vectors.
// Returns a value between -1 and 1, where 1 means identical direction
func CosineSimilarity(a, b []float64) float64 {
	if len(a) != len(b) {
		return 0
	}

	var dotProduct, normA, normB float64
	for i := range a {
		dotProduct += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}

	normA = math.Sqrt(normA)
	normB = math.Sqrt(normB)

	if normA == 0 || normB == 0 {
		return 0
	}

	return math.Max(-1, math.Min(1, dotProduct/(normA*normB)))
}
