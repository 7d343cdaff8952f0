package llmjudge

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/datar-psa/rageval/api"
	"github.com/datar-psa/rageval/internal/testutils"
)

func questionsReply(noncommittal bool, questions ...string) func(string, map[string]interface{}) (map[string]interface{}, error) {
	return func(prompt string, _ map[string]interface{}) (map[string]interface{}, error) {
		items := make([]interface{}, len(questions))
		for i, q := range questions {
			items[i] = q
		}
		return map[string]interface{}{"questions": items, "noncommittal": noncommittal}, nil
	}
}

func TestResponseRelevancy_Unit(t *testing.T) {
	ctx := context.Background()
	sample := api.Sample{UserInput: "Where is the Eiffel Tower?", Response: "The Eiffel Tower is in Paris."}

	embedder := &testutils.MockEmbedder{Vectors: map[string][]float64{
		"Where is the Eiffel Tower?":         {1, 0},
		"Where is the Eiffel Tower located?": {1, 0},
		"Which city has the Eiffel Tower?":   {0.6, 0.8},
		"What is Paris known for?":           {0, 1},
		"Why is the sky blue?":               {-1, 0},
	}}

	tests := []struct {
		name         string
		questions    []string
		noncommittal bool
		cfg          api.Config
		want         float64
	}{
		{
			name:      "mean of three",
			questions: []string{"Where is the Eiffel Tower located?", "Which city has the Eiffel Tower?", "What is Paris known for?"},
			want:      1.6 / 3,
		},
		{
			name:      "extra questions are dropped",
			questions: []string{"Where is the Eiffel Tower located?", "Which city has the Eiffel Tower?", "What is Paris known for?"},
			cfg:       api.Config{Questions: 2},
			want:      0.8,
		},
		{
			name:         "noncommittal answer",
			questions:    []string{"Where is the Eiffel Tower located?"},
			noncommittal: true,
			want:         0,
		},
		{
			name:      "negative mean floors at zero",
			questions: []string{"Why is the sky blue?"},
			want:      0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			llm := &testutils.MockLLM{StructuredFunc: questionsReply(tt.noncommittal, tt.questions...)}
			result := ResponseRelevancy(Options{LLM: llm, Embedder: embedder, Config: tt.cfg}).Score(ctx, sample)
			if result.Error != nil {
				t.Fatalf("unexpected error: %v", result.Error)
			}
			if math.Abs(result.Score-tt.want) > 1e-9 {
				t.Errorf("score = %v, want %v", result.Score, tt.want)
			}
			if result.Strategy != api.StrategyLLMWithoutReference {
				t.Errorf("strategy = %v", result.Strategy)
			}
		})
	}
}

func TestResponseRelevancy_Prompt(t *testing.T) {
	var prompt string
	llm := &testutils.MockLLM{StructuredFunc: func(p string, schema map[string]interface{}) (map[string]interface{}, error) {
		prompt = p
		return questionsReply(false, "q")(p, schema)
	}}
	sample := api.Sample{UserInput: "u", Response: "The answer."}
	result := ResponseRelevancy(Options{LLM: llm, Embedder: &testutils.MockEmbedder{}}).Score(context.Background(), sample)
	if result.Error != nil {
		t.Fatalf("unexpected error: %v", result.Error)
	}
	if !strings.Contains(prompt, "Generate 3 different questions") || !strings.Contains(prompt, "[Response]: The answer.") {
		t.Errorf("prompt = %q", prompt)
	}
	// identical default vectors
	if math.Abs(result.Score-1) > 1e-9 {
		t.Errorf("score = %v, want 1", result.Score)
	}
}

func TestResponseRelevancy_Errors(t *testing.T) {
	ctx := context.Background()
	sample := api.Sample{UserInput: "u", Response: "r"}
	ok := &testutils.MockLLM{StructuredFunc: questionsReply(false, "q1", "q2")}

	tests := []struct {
		name    string
		opts    Options
		sample  api.Sample
		wantErr error
	}{
		{
			name:    "no embedder",
			opts:    Options{LLM: ok},
			sample:  sample,
			wantErr: api.ErrCapabilityRequired,
		},
		{
			name:    "no llm",
			opts:    Options{Embedder: &testutils.MockEmbedder{}},
			sample:  sample,
			wantErr: api.ErrCapabilityRequired,
		},
		{
			name:    "missing user input",
			opts:    Options{LLM: ok, Embedder: &testutils.MockEmbedder{}},
			sample:  api.Sample{Response: "r"},
			wantErr: api.ErrMissingField,
		},
		{
			name:    "with reference strategy",
			opts:    Options{LLM: ok, Embedder: &testutils.MockEmbedder{}, Strategy: api.StrategyLLMWithReference},
			sample:  sample,
			wantErr: api.ErrUnknownStrategy,
		},
		{
			name:    "embedder deadline",
			opts:    Options{LLM: ok, Embedder: &testutils.MockEmbedder{Err: context.DeadlineExceeded}},
			sample:  sample,
			wantErr: context.DeadlineExceeded,
		},
		{
			name: "generation failure",
			opts: Options{LLM: &testutils.MockLLM{StructuredFunc: func(string, map[string]interface{}) (map[string]interface{}, error) {
				return nil, errors.New("quota")
			}}, Embedder: &testutils.MockEmbedder{}},
			sample:  sample,
			wantErr: api.ErrLLMGenerationFailed,
		},
		{
			name:    "no questions",
			opts:    Options{LLM: &testutils.MockLLM{StructuredFunc: questionsReply(false, " ")}, Embedder: &testutils.MockEmbedder{}},
			sample:  sample,
			wantErr: api.ErrExtraction,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ResponseRelevancy(tt.opts).Score(ctx, tt.sample)
			if !errors.Is(result.Error, tt.wantErr) {
				t.Fatalf("error = %v, want %v", result.Error, tt.wantErr)
			}
			if result.Score != 0 {
				t.Errorf("score = %v, want 0", result.Score)
			}
			if errors.Is(tt.wantErr, context.DeadlineExceeded) && !errors.Is(result.Error, api.ErrExtraction) {
				t.Errorf("error = %v, want ErrExtraction", result.Error)
			}
		})
	}
}
