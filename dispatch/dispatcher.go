// Package dispatch routes a sample to the scorer of a metric family and
// strategy. It validates the configuration, the sample fields and the
// capabilities before any capability call is made.
package dispatch

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/datar-psa/rageval/api"
	"github.com/datar-psa/rageval/claims"
)

// Dispatcher evaluates samples against the registered metric families
type Dispatcher struct {
	logger         *zap.Logger
	maxConcurrency int
}

// Option configures a Dispatcher
type Option func(*Dispatcher)

// WithLogger sets the logger used for stage transitions and failures
func WithLogger(logger *zap.Logger) Option {
	return func(d *Dispatcher) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// WithMaxConcurrency bounds the concurrent judgments within one sample
func WithMaxConcurrency(n int) Option {
	return func(d *Dispatcher) {
		if n > 0 {
			d.maxConcurrency = n
		}
	}
}

// New creates a Dispatcher
func New(opts ...Option) *Dispatcher {
	d := &Dispatcher{
		logger:         zap.NewNop(),
		maxConcurrency: claims.DefaultMaxConcurrency,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Evaluate scores one sample with the scorer registered for cfg.Family and
// strategy. The returned error is the same as the result's Error.
func (d *Dispatcher) Evaluate(ctx context.Context, caps api.Capabilities, sample api.Sample, strategy api.Strategy, cfg api.Config) (api.ScoreResult, error) {
	log := d.logger.With(zap.String("family", string(cfg.Family)), zap.String("strategy", string(strategy)))
	rec := &stageLog{logger: log}
	ctx = api.WithStageRecorder(ctx, rec)
	api.EnterStage(ctx, api.StagePending)

	result, err := d.evaluate(ctx, caps, sample, strategy, cfg)
	if result.Metadata == nil {
		result.Metadata = make(map[string]any)
	}
	if result.Name == "" {
		result.Name = string(cfg.Family)
	}
	if result.Strategy == "" {
		result.Strategy = strategy
	}
	if err == nil {
		err = result.Error
	}
	if err != nil {
		result = result.Fail(err)
		api.EnterStage(ctx, api.StageFailed)
		log.Warn("evaluation failed", zap.Error(err))
	} else {
		api.EnterStage(ctx, api.StageScored)
		log.Debug("evaluation scored", zap.Float64("score", result.Score))
	}
	result.Metadata["stages"] = rec.Stages()
	return result, err
}

func (d *Dispatcher) evaluate(ctx context.Context, caps api.Capabilities, sample api.Sample, strategy api.Strategy, cfg api.Config) (api.ScoreResult, error) {
	result := api.NewResult(string(cfg.Family))
	result.Strategy = strategy

	cfg = cfg.WithDefaults()
	if _, ok := registry[cfg.Family]; !ok {
		return result, fmt.Errorf("%w: unknown family %q", api.ErrInvalidConfig, cfg.Family)
	}
	if err := cfg.Validate(); err != nil {
		return result, err
	}

	e, err := lookup(cfg.Family, strategy)
	if err != nil {
		return result, err
	}

	if err := sample.Require(cfg.Family, strategy, e.required...); err != nil {
		return result, err
	}
	api.EnterStage(ctx, api.StageFieldsValidated)

	if err := checkCapabilities(e.needs, caps, cfg); err != nil {
		return result, err
	}

	scorer, err := e.build(caps, strategy, cfg, d)
	if err != nil {
		return result, err
	}
	res := scorer.Score(ctx, sample)
	return res, res.Error
}

// Scorer binds caps, strategy and cfg into an api.Scorer backed by Evaluate
func (d *Dispatcher) Scorer(caps api.Capabilities, strategy api.Strategy, cfg api.Config) api.Scorer {
	return api.ScorerFunc(func(ctx context.Context, s api.Sample) api.ScoreResult {
		res, _ := d.Evaluate(ctx, caps, s, strategy, cfg)
		return res
	})
}

func lookup(family api.Family, strategy api.Strategy) (entry, error) {
	if !strategy.Known() {
		return entry{}, &api.UnknownStrategyError{Strategy: strategy}
	}
	strategies, ok := registry[family]
	if !ok {
		return entry{}, fmt.Errorf("%w: unknown family %q", api.ErrInvalidConfig, family)
	}
	e, ok := strategies[strategy]
	if !ok {
		return entry{}, &api.UnknownStrategyError{Family: family, Strategy: strategy}
	}
	return e, nil
}

func checkCapabilities(needs capability, caps api.Capabilities, cfg api.Config) error {
	switch needs {
	case needsLLM:
		if caps.LLM == nil {
			return fmt.Errorf("%w: %s needs an LLM generator", api.ErrCapabilityRequired, cfg.Family)
		}
	case needsEmbedder:
		if caps.Embedder == nil {
			return fmt.Errorf("%w: %s needs an embedder", api.ErrCapabilityRequired, cfg.Family)
		}
	case needsSimilarity:
		if cfg.Similarity == api.SimilarityEmbedding && caps.Embedder == nil {
			return fmt.Errorf("%w: embedding similarity needs an embedder", api.ErrCapabilityRequired)
		}
	case needsEntities:
		if caps.Entities == nil {
			return fmt.Errorf("%w: %s needs an entity extractor", api.ErrCapabilityRequired, cfg.Family)
		}
	case needsLLMAndEmbedder:
		if caps.LLM == nil || caps.Embedder == nil {
			return fmt.Errorf("%w: %s needs an LLM generator and an embedder", api.ErrCapabilityRequired, cfg.Family)
		}
	}
	return nil
}

// stageLog records visited stages and logs each transition
type stageLog struct {
	logger *zap.Logger
	mu     sync.Mutex
	stages []api.Stage
}

func (s *stageLog) Enter(stage api.Stage) {
	s.mu.Lock()
	s.stages = append(s.stages, stage)
	s.mu.Unlock()
	s.logger.Debug("stage", zap.String("stage", string(stage)))
}

// Stages returns a copy of the visited stages
func (s *stageLog) Stages() []api.Stage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]api.Stage(nil), s.stages...)
}

func sortFamilies(fs []api.Family) {
	sort.Slice(fs, func(i, j int) bool { return fs[i] < fs[j] })
}
