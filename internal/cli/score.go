package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	language "cloud.google.com/go/language/apiv1"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/datar-psa/rageval"
	"github.com/datar-psa/rageval/api"
	"github.com/datar-psa/rageval/batch"
	"github.com/datar-psa/rageval/openai"
)

// maxLineSize bounds one JSONL sample
const maxLineSize = 16 << 20

func (a *app) newScoreCmd() *cobra.Command {
	var (
		output  string
		noCache bool
	)
	cmd := &cobra.Command{
		Use:   "score <samples.jsonl>",
		Short: "Score a JSONL file of samples",
		Long: `Score reads one sample per line (use - for stdin), evaluates the selected
metric under the selected strategy and writes one JSON result per line.
A summary of the batch is printed to stderr.

Example:
  rageval score samples.jsonl --metric faithfulness --strategy llm_without_reference --provider gemini
  rageval score samples.jsonl --metric context_recall --strategy id_based
  rageval score samples.jsonl --metric factual_correctness --mode precision --provider openai -o results.jsonl`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := loadSettings(a.v)
			if err != nil {
				return err
			}
			if noCache {
				s.CacheTTL = ""
			}
			return a.runScore(cmd, args[0], output, s)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&output, "output", "o", "", "output file (default: stdout)")
	f.BoolVar(&noCache, "no-cache", false, "disable the capability cache")
	f.String("metric", "", "metric family")
	f.String("strategy", "", "strategy: llm_with_reference, llm_without_reference, non_llm, id_based")
	f.String("provider", "", "capability provider: none, gemini, openai")
	f.String("mode", "", "F1, precision or recall")
	f.Int("votes", 0, "self-consistency judgments per decision")
	f.Bool("strict", false, "fail on tied votes instead of treating them as unsupported")
	f.Bool("case-sensitive", false, "compare strings and ids case sensitively")
	f.String("similarity", "", "non_llm similarity: levenshtein, jaro, jaro_winkler, embedding")
	f.Float64("threshold", 0, "non_llm similarity threshold")
	f.Int("questions", 0, "questions generated by response_relevancy")
	f.Int("concurrency", 0, "samples evaluated at once")
	f.Float64("rate-limit", 0, "capability calls per second (0 = unlimited)")
	f.String("timeout", "", "total timeout, e.g. 10m")

	bindings := map[string]string{
		"metric.family":         "metric",
		"strategy":              "strategy",
		"provider":              "provider",
		"metric.mode":           "mode",
		"metric.samples":        "votes",
		"metric.strict":         "strict",
		"metric.case_sensitive": "case-sensitive",
		"metric.similarity":     "similarity",
		"metric.threshold":      "threshold",
		"metric.questions":      "questions",
		"concurrency":           "concurrency",
		"rate_limit":            "rate-limit",
		"timeout":               "timeout",
	}
	for key, flag := range bindings {
		_ = a.v.BindPFlag(key, f.Lookup(flag))
	}
	return cmd
}

func (a *app) runScore(cmd *cobra.Command, path, output string, s Settings) error {
	samples, err := readSamplesFile(path, cmd.InOrStdin())
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if timeout, _ := s.timeout(); timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	engine, cleanup, err := a.newEngine(ctx, s)
	if err != nil {
		return err
	}
	defer cleanup()

	a.logger.Info("scoring",
		zap.String("family", string(s.Metric.Family)),
		zap.String("strategy", string(s.Strategy)),
		zap.String("provider", s.Provider),
		zap.Int("samples", len(samples)))

	results := engine.EvaluateBatch(ctx, samples, s.Strategy, s.Metric,
		batch.WithConcurrency(s.Concurrency),
		batch.WithProgress(func(done, total int) {
			a.logger.Debug("progress", zap.Int("done", done), zap.Int("total", total))
		}))

	out := cmd.OutOrStdout()
	if output != "" {
		file, err := os.Create(output)
		if err != nil {
			return fmt.Errorf("create output: %w", err)
		}
		defer file.Close()
		out = file
	}
	if err := writeResults(out, results); err != nil {
		return err
	}

	summary := batch.Summarize(results)
	enc := json.NewEncoder(cmd.ErrOrStderr())
	enc.SetIndent("", "  ")
	return enc.Encode(summary)
}

// newEngine builds the engine for s.Provider. cleanup releases clients.
func (a *app) newEngine(ctx context.Context, s Settings) (*rageval.Engine, func(), error) {
	cleanup := func() {}
	ttl, _ := s.cacheTTL()

	opts := []func(*rageval.EngineOptions){
		rageval.WithLogger(a.logger),
		rageval.WithRateLimit(s.RateLimit, s.Burst),
	}
	if ttl > 0 {
		opts = append(opts, rageval.WithCache(ttl))
	}

	switch s.Provider {
	case ProviderNone:
		return rageval.NewEngine(opts...), cleanup, nil

	case ProviderOpenAI:
		engine, err := rageval.NewOpenAIEngine(openai.Config{
			APIKey:         s.OpenAI.APIKey,
			BaseURL:        s.OpenAI.BaseURL,
			Model:          s.OpenAI.Model,
			EmbeddingModel: s.OpenAI.EmbeddingModel,
		}, opts...)
		return engine, cleanup, err

	case ProviderGemini:
		client, err := genai.NewClient(ctx, &genai.ClientConfig{
			Backend:  genai.BackendVertexAI,
			Project:  s.Gemini.Project,
			Location: s.Gemini.Location,
		})
		if err != nil {
			return nil, cleanup, fmt.Errorf("create genai client: %w", err)
		}
		gopts := []func(*rageval.GeminiOptions){
			rageval.WithGenaiClient(client),
			rageval.WithModelName(s.Gemini.Model),
			rageval.WithEmbeddingModelName(s.Gemini.EmbeddingModel),
			rageval.WithEngineOptions(opts...),
		}
		if s.Gemini.Entities {
			lang, err := language.NewRESTClient(ctx)
			if err != nil {
				return nil, cleanup, fmt.Errorf("create language client: %w", err)
			}
			cleanup = func() { _ = lang.Close() }
			gopts = append(gopts, rageval.WithLanguageClient(lang))
		}
		return rageval.NewGeminiEngine(gopts...), cleanup, nil
	}
	return nil, cleanup, fmt.Errorf("%w: unknown provider %q", api.ErrInvalidConfig, s.Provider)
}

func readSamplesFile(path string, stdin io.Reader) ([]api.Sample, error) {
	if path == "-" {
		return readSamples(stdin)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open samples: %w", err)
	}
	defer f.Close()
	return readSamples(f)
}

// readSamples decodes one JSON sample per non-blank line
func readSamples(r io.Reader) ([]api.Sample, error) {
	var samples []api.Sample
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" {
			continue
		}
		var s api.Sample
		if err := json.Unmarshal([]byte(text), &s); err != nil {
			return nil, fmt.Errorf("samples line %d: %w", line, err)
		}
		samples = append(samples, s)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read samples: %w", err)
	}
	return samples, nil
}

// resultRecord is the JSON form of one result
type resultRecord struct {
	Index    int            `json:"index"`
	Name     string         `json:"name"`
	Strategy api.Strategy   `json:"strategy"`
	Score    float64        `json:"score"`
	Error    string         `json:"error,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

func writeResults(w io.Writer, results []api.ScoreResult) error {
	enc := json.NewEncoder(w)
	for i, r := range results {
		rec := resultRecord{Index: i, Name: r.Name, Strategy: r.Strategy, Score: r.Score, Metadata: r.Metadata}
		if r.Error != nil {
			rec.Error = r.Error.Error()
		}
		if err := enc.Encode(rec); err != nil {
			return fmt.Errorf("write result %d: %w", i, err)
		}
	}
	return nil
}
