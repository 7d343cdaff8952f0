package api

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrMissingField is returned when a sample lacks a field the strategy requires
	ErrMissingField = errors.New("missing required field")
	// ErrUnknownStrategy is returned for an unknown or unsupported strategy
	ErrUnknownStrategy = errors.New("unknown strategy")
	// ErrExtraction is returned when claim or entity extraction fails
	ErrExtraction = errors.New("extraction failed")
	// ErrMatch is returned when a judgment call fails
	ErrMatch = errors.New("match failed")
	// ErrAmbiguousVerdict is returned in strict mode when votes tie
	ErrAmbiguousVerdict = errors.New("ambiguous verdict")
	// ErrInvalidConfig is returned when a Config holds an unknown value
	ErrInvalidConfig = errors.New("invalid config")
	// ErrCapabilityRequired is returned when the strategy needs a capability that was not provided
	ErrCapabilityRequired = errors.New("capability required")
	// ErrLLMGenerationFailed is returned when LLM generation fails
	ErrLLMGenerationFailed = errors.New("LLM generation failed")
)

// MissingFieldError names the sample fields a strategy needed but did not find
type MissingFieldError struct {
	Family   Family
	Strategy Strategy
	Fields   []string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("%s/%s: missing required field(s): %s", e.Family, e.Strategy, strings.Join(e.Fields, ", "))
}

// Is matches ErrMissingField
func (e *MissingFieldError) Is(target error) bool { return target == ErrMissingField }

// UnknownStrategyError reports a strategy that is unknown or not supported by the family
type UnknownStrategyError struct {
	Family   Family
	Strategy Strategy
}

func (e *UnknownStrategyError) Error() string {
	if e.Family == "" {
		return fmt.Sprintf("unknown strategy %q", e.Strategy)
	}
	return fmt.Sprintf("strategy %q is not supported by %s", e.Strategy, e.Family)
}

// Is matches ErrUnknownStrategy
func (e *UnknownStrategyError) Is(target error) bool { return target == ErrUnknownStrategy }

// ExtractionError wraps a capability failure during extraction
type ExtractionError struct {
	Err error
}

func (e *ExtractionError) Error() string { return fmt.Sprintf("extraction failed: %v", e.Err) }

func (e *ExtractionError) Unwrap() error { return e.Err }

// Is matches ErrExtraction
func (e *ExtractionError) Is(target error) bool { return target == ErrExtraction }

// MatchError wraps a capability failure while judging a claim
type MatchError struct {
	Claim string
	Err   error
}

func (e *MatchError) Error() string {
	if e.Claim == "" {
		return fmt.Sprintf("match failed: %v", e.Err)
	}
	return fmt.Sprintf("match failed for claim %q: %v", e.Claim, e.Err)
}

func (e *MatchError) Unwrap() error { return e.Err }

// Is matches ErrMatch
func (e *MatchError) Is(target error) bool { return target == ErrMatch }
