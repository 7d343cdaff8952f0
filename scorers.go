// Package rageval scores RAG and agent pipeline outputs by extracting
// atomic claims and judging them against contexts and references.
package rageval

import (
	"context"
	"time"

	language "cloud.google.com/go/language/apiv1"
	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/datar-psa/rageval/api"
	"github.com/datar-psa/rageval/batch"
	"github.com/datar-psa/rageval/capability"
	"github.com/datar-psa/rageval/dispatch"
	"github.com/datar-psa/rageval/gemini"
	"github.com/datar-psa/rageval/openai"
)

// Engine evaluates samples with a fixed set of capabilities
type Engine struct {
	caps       api.Capabilities
	dispatcher *dispatch.Dispatcher
}

// EngineOptions configures Engine creation
type EngineOptions struct {
	caps           api.Capabilities
	logger         *zap.Logger
	maxConcurrency int
	cacheTTL       time.Duration
	cache          bool
	rps            float64
	burst          int
}

// WithLLMGenerator sets the LLM generator for the engine
func WithLLMGenerator(llm api.LLMGenerator) func(*EngineOptions) {
	return func(opts *EngineOptions) {
		opts.caps.LLM = llm
	}
}

// WithEmbedder sets the embedder for the engine
func WithEmbedder(embedder api.Embedder) func(*EngineOptions) {
	return func(opts *EngineOptions) {
		opts.caps.Embedder = embedder
	}
}

// WithEntityExtractor sets the NER capability for the engine
func WithEntityExtractor(entities api.EntityExtractor) func(*EngineOptions) {
	return func(opts *EngineOptions) {
		opts.caps.Entities = entities
	}
}

// WithLogger sets the logger used for stage transitions and failures
func WithLogger(logger *zap.Logger) func(*EngineOptions) {
	return func(opts *EngineOptions) {
		opts.logger = logger
	}
}

// WithMaxConcurrency bounds concurrent judgments within one sample
func WithMaxConcurrency(n int) func(*EngineOptions) {
	return func(opts *EngineOptions) {
		opts.maxConcurrency = n
	}
}

// WithCache caches structured generations, embeddings and entity lists
// in memory for ttl
func WithCache(ttl time.Duration) func(*EngineOptions) {
	return func(opts *EngineOptions) {
		opts.cache = true
		opts.cacheTTL = ttl
	}
}

// WithRateLimit caps capability calls at requestsPerSecond
func WithRateLimit(requestsPerSecond float64, burst int) func(*EngineOptions) {
	return func(opts *EngineOptions) {
		opts.rps = requestsPerSecond
		opts.burst = burst
	}
}

// NewEngine creates a new Engine using functional options.
func NewEngine(opts ...func(*EngineOptions)) *Engine {
	options := &EngineOptions{}
	for _, opt := range opts {
		opt(options)
	}

	caps := options.caps
	// rate limit below the cache so hits are not throttled
	caps = capability.RateLimited(caps, options.rps, options.burst)
	if options.cache {
		caps = capability.NewCache(options.cacheTTL).Wrap(caps)
	}

	var dopts []dispatch.Option
	if options.logger != nil {
		dopts = append(dopts, dispatch.WithLogger(options.logger))
	}
	if options.maxConcurrency > 0 {
		dopts = append(dopts, dispatch.WithMaxConcurrency(options.maxConcurrency))
	}
	return &Engine{caps: caps, dispatcher: dispatch.New(dopts...)}
}

// GeminiOptions configures Gemini Engine creation
type GeminiOptions struct {
	genaiClient    *genai.Client
	modelName      string
	embeddingModel string
	langClient     *language.Client
	engine         []func(*EngineOptions)
}

// WithGenaiClient sets the Gemini client
func WithGenaiClient(client *genai.Client) func(*GeminiOptions) {
	return func(opts *GeminiOptions) {
		opts.genaiClient = client
	}
}

// WithModelName sets the generation model name
func WithModelName(modelName string) func(*GeminiOptions) {
	return func(opts *GeminiOptions) {
		opts.modelName = modelName
	}
}

// WithEmbeddingModelName sets the embedding model name
func WithEmbeddingModelName(modelName string) func(*GeminiOptions) {
	return func(opts *GeminiOptions) {
		opts.embeddingModel = modelName
	}
}

// WithLanguageClient sets the Google Cloud Language client used for entity extraction
func WithLanguageClient(langClient *language.Client) func(*GeminiOptions) {
	return func(opts *GeminiOptions) {
		opts.langClient = langClient
	}
}

// WithEngineOptions passes options through to NewEngine
func WithEngineOptions(opts ...func(*EngineOptions)) func(*GeminiOptions) {
	return func(o *GeminiOptions) {
		o.engine = append(o.engine, opts...)
	}
}

// NewGeminiEngine creates an Engine backed by Gemini and Cloud Natural Language.
// Example models: "publishers/google/models/gemini-2.5-flash", "text-embedding-005".
func NewGeminiEngine(opts ...func(*GeminiOptions)) *Engine {
	options := &GeminiOptions{}
	for _, opt := range opts {
		opt(options)
	}

	var engineOptions []func(*EngineOptions)

	// Only add LLM generator if genaiClient is provided
	if options.genaiClient != nil && options.modelName != "" {
		engineOptions = append(engineOptions, WithLLMGenerator(gemini.NewGenerator(options.genaiClient, options.modelName)))
	}
	if options.genaiClient != nil && options.embeddingModel != "" {
		engineOptions = append(engineOptions, WithEmbedder(gemini.NewEmbedder(options.genaiClient, options.embeddingModel)))
	}
	if options.langClient != nil {
		engineOptions = append(engineOptions, WithEntityExtractor(gemini.NewEntityExtractor(options.langClient)))
	}

	return NewEngine(append(engineOptions, options.engine...)...)
}

// NewOpenAIEngine creates an Engine whose LLM and embedder use the OpenAI API
func NewOpenAIEngine(config openai.Config, opts ...func(*EngineOptions)) (*Engine, error) {
	client, err := openai.New(config)
	if err != nil {
		return nil, err
	}
	return NewEngine(append([]func(*EngineOptions){WithLLMGenerator(client), WithEmbedder(client)}, opts...)...), nil
}

// Capabilities returns the capabilities the engine evaluates with
func (e *Engine) Capabilities() api.Capabilities {
	return e.caps
}

// Evaluate scores one sample with cfg.Family under strategy
func (e *Engine) Evaluate(ctx context.Context, sample api.Sample, strategy api.Strategy, cfg api.Config) (api.ScoreResult, error) {
	return e.dispatcher.Evaluate(ctx, e.caps, sample, strategy, cfg)
}

// Metric returns a Scorer for cfg.Family under strategy
func (e *Engine) Metric(strategy api.Strategy, cfg api.Config) api.Scorer {
	return e.dispatcher.Scorer(e.caps, strategy, cfg)
}

// EvaluateBatch scores samples concurrently, keeping input order
func (e *Engine) EvaluateBatch(ctx context.Context, samples []api.Sample, strategy api.Strategy, cfg api.Config, opts ...batch.Option) []api.ScoreResult {
	return batch.EvaluateBatch(ctx, e.dispatcher, e.caps, samples, strategy, cfg, opts...)
}
