// Package batch evaluates many samples concurrently with a Dispatcher.
package batch

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/datar-psa/rageval/api"
	"github.com/datar-psa/rageval/dispatch"
)

// DefaultConcurrency is the number of samples evaluated at once
const DefaultConcurrency = 4

type options struct {
	concurrency int
	progress    func(done, total int)
}

// Option configures EvaluateBatch
type Option func(*options)

// WithConcurrency bounds the number of samples evaluated at once
func WithConcurrency(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.concurrency = n
		}
	}
}

// WithProgress registers a callback invoked after each finished sample.
// Calls are serialized.
func WithProgress(fn func(done, total int)) Option {
	return func(o *options) {
		o.progress = fn
	}
}

// EvaluateBatch scores samples with d and returns one result per sample,
// in input order. A failed sample does not stop the others; its error is
// kept in the result's Error. Samples not started before ctx is done fail
// with the context error.
func EvaluateBatch(ctx context.Context, d *dispatch.Dispatcher, caps api.Capabilities, samples []api.Sample, strategy api.Strategy, cfg api.Config, opts ...Option) []api.ScoreResult {
	o := options{concurrency: DefaultConcurrency}
	for _, opt := range opts {
		opt(&o)
	}

	results := make([]api.ScoreResult, len(samples))
	done := make(chan struct{}, len(samples))

	var g errgroup.Group
	g.SetLimit(o.concurrency)

	var progress errgroup.Group
	if o.progress != nil {
		progress.Go(func() error {
			for n := 1; n <= len(samples); n++ {
				<-done
				o.progress(n, len(samples))
			}
			return nil
		})
	}

	for i := range samples {
		g.Go(func() error {
			defer func() { done <- struct{}{} }()
			if err := ctx.Err(); err != nil {
				res := api.NewResult(string(cfg.Family))
				res.Strategy = strategy
				results[i] = res.Fail(err)
				return nil
			}
			results[i], _ = d.Evaluate(ctx, caps, samples[i], strategy, cfg)
			return nil
		})
	}
	_ = g.Wait()
	_ = progress.Wait()
	return results
}

// Summary aggregates the scores of a batch
type Summary struct {
	Total  int     `json:"total" yaml:"total"`
	Scored int     `json:"scored" yaml:"scored"`
	Failed int     `json:"failed" yaml:"failed"`
	Mean   float64 `json:"mean" yaml:"mean"`
	Min    float64 `json:"min" yaml:"min"`
	Max    float64 `json:"max" yaml:"max"`
}

// Summarize computes the mean, min and max over results without an error
func Summarize(results []api.ScoreResult) Summary {
	s := Summary{Total: len(results)}
	var sum float64
	for _, r := range results {
		if r.Error != nil {
			s.Failed++
			continue
		}
		if s.Scored == 0 || r.Score < s.Min {
			s.Min = r.Score
		}
		if s.Scored == 0 || r.Score > s.Max {
			s.Max = r.Score
		}
		s.Scored++
		sum += r.Score
	}
	if s.Scored > 0 {
		s.Mean = sum / float64(s.Scored)
	}
	return s
}
