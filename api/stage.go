package api

import "context"

// Stage is a step of a single sample evaluation
type Stage string

const (
	StagePending          Stage = "pending"
	StageFieldsValidated  Stage = "fields_validated"
	StageClaimsExtracted  Stage = "claims_extracted"
	StageClaimsMatched    Stage = "claims_matched"
	StageAggregated       Stage = "aggregated"
	StageDirectlyCompared Stage = "directly_compared"
	StageScored           Stage = "scored"
	StageFailed           Stage = "failed"
)

// StageRecorder receives stage transitions of one evaluation
type StageRecorder interface {
	Enter(stage Stage)
}

type stageKey struct{}

// WithStageRecorder returns a context that reports stage transitions to r
func WithStageRecorder(ctx context.Context, r StageRecorder) context.Context {
	return context.WithValue(ctx, stageKey{}, r)
}

// EnterStage reports stage to the recorder installed in ctx, if any
func EnterStage(ctx context.Context, stage Stage) {
	if r, ok := ctx.Value(stageKey{}).(StageRecorder); ok && r != nil {
		r.Enter(stage)
	}
}
