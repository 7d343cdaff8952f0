package claims

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/datar-psa/rageval/api"
	"github.com/datar-psa/rageval/internal/testutils"
)

func TestParseVote(t *testing.T) {
	tests := []struct {
		completion string
		want       api.Vote
		wantErr    bool
	}{
		{completion: "VERDICT: YES", want: api.Support},
		{completion: "reasoning...\nverdict: no", want: api.Reject},
		{completion: "VERDICT: **YES**", want: api.Support},
		{completion: "First VERDICT: NO, on reflection VERDICT: YES", want: api.Support},
		{completion: "I think yes", wantErr: true},
		{completion: "", wantErr: true},
	}
	for _, tt := range tests {
		got, err := ParseVote(tt.completion)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseVote(%q) error = %v, wantErr %v", tt.completion, err, tt.wantErr)
			continue
		}
		if err == nil && got != tt.want {
			t.Errorf("ParseVote(%q) = %v, want %v", tt.completion, got, tt.want)
		}
	}
}

func TestMatch(t *testing.T) {
	ctx := context.Background()
	claim := api.Claim{Text: "Paris is the capital of France."}

	tests := []struct {
		name        string
		contexts    []string
		samples     int
		answers     map[string][]string // context -> completions, consumed in order
		wantVerdict api.Verdict
		wantCalls   int
		wantErr     error
	}{
		{
			name:        "empty context set",
			contexts:    nil,
			wantVerdict: api.Unsupported,
			wantCalls:   0,
		},
		{
			name:        "supported by first context",
			contexts:    []string{"ctx-a", "ctx-b"},
			answers:     map[string][]string{"ctx-a": {"VERDICT: YES"}},
			wantVerdict: api.Supported,
			wantCalls:   1,
		},
		{
			name:        "supported by second context",
			contexts:    []string{"ctx-a", "ctx-b"},
			answers:     map[string][]string{"ctx-a": {"VERDICT: NO"}, "ctx-b": {"VERDICT: YES"}},
			wantVerdict: api.Supported,
			wantCalls:   2,
		},
		{
			name:        "unsupported everywhere",
			contexts:    []string{"ctx-a", "ctx-b"},
			answers:     map[string][]string{"ctx-a": {"VERDICT: NO"}, "ctx-b": {"VERDICT: NO"}},
			wantVerdict: api.Unsupported,
			wantCalls:   2,
		},
		{
			name:        "majority of three",
			contexts:    []string{"ctx-a"},
			samples:     3,
			answers:     map[string][]string{"ctx-a": {"VERDICT: YES", "VERDICT: NO", "VERDICT: YES"}},
			wantVerdict: api.Supported,
			wantCalls:   3,
		},
		{
			name:        "tie is undetermined",
			contexts:    []string{"ctx-a"},
			samples:     2,
			answers:     map[string][]string{"ctx-a": {"VERDICT: YES", "VERDICT: NO"}},
			wantVerdict: api.Undetermined,
			wantCalls:   2,
		},
		{
			name:        "unparseable completion",
			contexts:    []string{"ctx-a"},
			answers:     map[string][]string{"ctx-a": {"maybe"}},
			wantVerdict: api.Unsupported,
			wantCalls:   1,
			wantErr:     api.ErrMatch,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			counters := map[string]*atomic.Int64{}
			for c := range tt.answers {
				counters[c] = &atomic.Int64{}
			}
			llm := &testutils.MockLLM{
				GenerateFunc: func(prompt string, n int) ([]string, error) {
					for c, answers := range tt.answers {
						if strings.Contains(prompt, "[Context]: "+c+"\n") {
							i := counters[c].Add(1) - 1
							return []string{answers[int(i)%len(answers)]}, nil
						}
					}
					return nil, fmt.Errorf("unexpected prompt")
				},
			}
			m := NewMatcher(llm, MatcherOptions{Samples: tt.samples})
			got, err := m.Match(ctx, claim, tt.contexts)

			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("error = %v, want %v", err, tt.wantErr)
				}
			} else if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.wantVerdict {
				t.Errorf("verdict = %v, want %v", got, tt.wantVerdict)
			}
			if calls := llm.GenerateCalls(); calls != tt.wantCalls {
				t.Errorf("calls = %d, want %d", calls, tt.wantCalls)
			}
		})
	}
}

func TestMatchUndeterminedWhenNoContextSupports(t *testing.T) {
	var n atomic.Int64
	llm := &testutils.MockLLM{
		GenerateFunc: func(prompt string, _ int) ([]string, error) {
			if strings.Contains(prompt, "[Context]: tie\n") {
				if n.Add(1)%2 == 0 {
					return []string{"VERDICT: NO"}, nil
				}
				return []string{"VERDICT: YES"}, nil
			}
			return []string{"VERDICT: NO"}, nil
		},
	}
	m := NewMatcher(llm, MatcherOptions{Samples: 2})
	got, err := m.Match(context.Background(), api.Claim{Text: "x"}, []string{"no", "tie", "no"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != api.Undetermined {
		t.Errorf("verdict = %v, want undetermined", got)
	}
}

func TestMatchLLMError(t *testing.T) {
	llm := &testutils.MockLLM{
		GenerateFunc: func(string, int) ([]string, error) { return nil, fmt.Errorf("timeout") },
	}
	_, err := NewMatcher(llm, MatcherOptions{}).Match(context.Background(), api.Claim{Text: "x"}, []string{"c"})
	var matchErr *api.MatchError
	if !errors.As(err, &matchErr) {
		t.Fatalf("error %v is not *api.MatchError", err)
	}
	if matchErr.Claim != "x" {
		t.Errorf("claim = %q", matchErr.Claim)
	}
	if !errors.Is(err, api.ErrLLMGenerationFailed) {
		t.Errorf("error should wrap ErrLLMGenerationFailed: %v", err)
	}
}

func TestMatchAll(t *testing.T) {
	llm := &testutils.MockLLM{
		GenerateFunc: testutils.SupportedPairs(map[string][]string{
			"Paris is the capital and largest city of France.": {"Paris is the capital of France."},
		}),
	}
	set := api.ClaimSet{Claims: []api.Claim{
		{Text: "Paris is the capital of France."},
		{Text: "Paris has ten million bridges."},
		{Text: "Paris is the capital of France."},
	}}
	got, err := NewMatcher(llm, MatcherOptions{MaxConcurrency: 2}).MatchAll(context.Background(), set,
		[]string{"Paris is the capital and largest city of France."})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []api.Verdict{api.Supported, api.Unsupported, api.Supported}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("verdict[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestMatchAllCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	llm := &testutils.MockLLM{
		GenerateFunc: func(string, int) ([]string, error) { return []string{"VERDICT: YES"}, nil },
	}
	set := api.ClaimSet{Claims: []api.Claim{{Text: "a"}, {Text: "b"}}}
	_, err := NewMatcher(llm, MatcherOptions{}).MatchAll(ctx, set, []string{"c"})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
	if !errors.Is(err, api.ErrMatch) {
		t.Errorf("error = %v, want ErrMatch", err)
	}
}

func TestJudge(t *testing.T) {
	llm := &testutils.MockLLM{
		GenerateFunc: func(string, int) ([]string, error) { return []string{"VERDICT: YES"}, nil },
	}
	v, err := NewMatcher(llm, MatcherOptions{Samples: 3}).Judge(context.Background(), "Is it good? VERDICT: YES|NO")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v != api.Supported {
		t.Errorf("verdict = %v", v)
	}
	if llm.GenerateCalls() != 3 {
		t.Errorf("calls = %d, want 3", llm.GenerateCalls())
	}
}

func TestExtractAndMatchParis(t *testing.T) {
	ctx := context.Background()
	response := "Paris is the capital of France."
	contexts := []string{"Paris is the capital and largest city of France."}

	llm := &testutils.MockLLM{
		StructuredFunc: testutils.ClaimsByText(map[string][]string{response: {"Paris is the capital of France."}}),
		GenerateFunc:   testutils.SupportedPairs(map[string][]string{contexts[0]: {"Paris is the capital of France."}}),
	}
	set, err := NewExtractor(llm).Extract(ctx, response, api.LevelHigh, api.LevelHigh)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if set.Len() != 1 {
		t.Fatalf("claims = %v, want one", set.Texts())
	}
	verdicts, err := NewMatcher(llm, MatcherOptions{}).MatchAll(ctx, set, contexts)
	if err != nil {
		t.Fatalf("match: %v", err)
	}
	if verdicts[0] != api.Supported {
		t.Errorf("verdict = %v, want supported", verdicts[0])
	}
}
