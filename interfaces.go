package rageval

import (
	"github.com/datar-psa/rageval/api"
)

type LLMGenerator = api.LLMGenerator
type Embedder = api.Embedder
type EntityExtractor = api.EntityExtractor
type Capabilities = api.Capabilities

type Sample = api.Sample
type ToolCall = api.ToolCall
type IDs = api.IDs
type ScoreResult = api.ScoreResult
type Scorer = api.Scorer
type Config = api.Config
type Aspect = api.Aspect
type Family = api.Family
type Strategy = api.Strategy
type Stage = api.Stage
