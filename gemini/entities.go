package gemini

import (
	"context"
	"fmt"

	language "cloud.google.com/go/language/apiv1"
	languagepb "cloud.google.com/go/language/apiv1/languagepb"

	"github.com/datar-psa/rageval/api"
)

// EntityExtractor implements api.EntityExtractor with the Google Cloud
// Natural Language entity analysis
type EntityExtractor struct {
	client *language.Client
	// MinSalience drops entities below this salience; 0 keeps all
	MinSalience float32
}

// NewEntityExtractor creates an extractor using a preconfigured *language.Client (auth handled by caller)
func NewEntityExtractor(client *language.Client) *EntityExtractor {
	return &EntityExtractor{client: client}
}

// Entities returns the distinct entity names found in text, in order of appearance
func (e *EntityExtractor) Entities(ctx context.Context, text string) ([]string, error) {
	if e.client == nil {
		return nil, fmt.Errorf("language client is required")
	}

	req := &languagepb.AnalyzeEntitiesRequest{
		Document: &languagepb.Document{
			Type: languagepb.Document_PLAIN_TEXT,
			Source: &languagepb.Document_Content{
				Content: text,
			},
		},
		EncodingType: languagepb.EncodingType_UTF8,
	}

	resp, err := e.client.AnalyzeEntities(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("analyze entities failed: %w", err)
	}

	seen := make(map[string]bool, len(resp.Entities))
	names := make([]string, 0, len(resp.Entities))
	for _, ent := range resp.Entities {
		if ent.Salience < e.MinSalience || seen[ent.Name] {
			continue
		}
		seen[ent.Name] = true
		names = append(names, ent.Name)
	}
	return names, nil
}

// Verify that EntityExtractor implements api.EntityExtractor
var _ api.EntityExtractor = (*EntityExtractor)(nil)
