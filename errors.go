package rageval

import "github.com/datar-psa/rageval/api"

var (
	ErrMissingField        = api.ErrMissingField
	ErrUnknownStrategy     = api.ErrUnknownStrategy
	ErrExtraction          = api.ErrExtraction
	ErrMatch               = api.ErrMatch
	ErrAmbiguousVerdict    = api.ErrAmbiguousVerdict
	ErrInvalidConfig       = api.ErrInvalidConfig
	ErrCapabilityRequired  = api.ErrCapabilityRequired
	ErrLLMGenerationFailed = api.ErrLLMGenerationFailed
)

type MissingFieldError = api.MissingFieldError
type UnknownStrategyError = api.UnknownStrategyError
type ExtractionError = api.ExtractionError
type MatchError = api.MatchError
