package dispatch

import (
	"github.com/datar-psa/rageval/api"
	"github.com/datar-psa/rageval/embedding"
	"github.com/datar-psa/rageval/heuristic"
	"github.com/datar-psa/rageval/llmjudge"
)

// capability names a collaborator a strategy cannot run without
type capability int

const (
	needsNothing capability = iota
	needsLLM
	needsEmbedder
	needsEntities
	needsLLMAndEmbedder
	// needsSimilarity means an embedder when Config.Similarity is embedding
	needsSimilarity
)

type builder func(caps api.Capabilities, strategy api.Strategy, cfg api.Config, d *Dispatcher) (api.Scorer, error)

type entry struct {
	required []string
	needs    capability
	build    builder
}

func llmScorer(f func(llmjudge.Options) api.Scorer) builder {
	return func(caps api.Capabilities, strategy api.Strategy, cfg api.Config, d *Dispatcher) (api.Scorer, error) {
		return f(llmjudge.Options{
			LLM:            caps.LLM,
			Embedder:       caps.Embedder,
			Strategy:       strategy,
			Config:         cfg,
			MaxConcurrency: d.maxConcurrency,
		}), nil
	}
}

func similarity(caps api.Capabilities, cfg api.Config) (api.SimilarityFunc, error) {
	if cfg.Similarity == api.SimilarityEmbedding {
		return embedding.Measure(caps.Embedder), nil
	}
	return heuristic.StringMeasure(cfg.Similarity, cfg.CaseSensitive)
}

func contextScorer(f func(heuristic.ContextOptions) api.Scorer) builder {
	return func(caps api.Capabilities, _ api.Strategy, cfg api.Config, _ *Dispatcher) (api.Scorer, error) {
		sim, err := similarity(caps, cfg)
		if err != nil {
			return nil, err
		}
		return f(heuristic.ContextOptions{Similarity: sim, Threshold: cfg.Threshold}), nil
	}
}

func idScorer(f func(heuristic.IDOptions) api.Scorer) builder {
	return func(_ api.Capabilities, _ api.Strategy, cfg api.Config, _ *Dispatcher) (api.Scorer, error) {
		return f(heuristic.IDOptions{CaseSensitive: cfg.CaseSensitive}), nil
	}
}

var (
	fieldsResponseContexts  = []string{api.FieldResponse, api.FieldRetrievedContexts}
	fieldsResponseReference = []string{api.FieldResponse, api.FieldReference}
	fieldsNonLLMContexts    = []string{api.FieldReferenceContexts, api.FieldRetrievedContexts}
	fieldsContextIDs        = []string{api.FieldRetrievedContextIDs, api.FieldReferenceContextIDs}
)

// registry declares, per family and strategy, the required sample fields,
// the capability the strategy needs and how to build its scorer
var registry = map[api.Family]map[api.Strategy]entry{
	api.FamilyFaithfulness: {
		api.StrategyLLMWithReference:    {required: fieldsResponseContexts, needs: needsLLM, build: llmScorer(llmjudge.Faithfulness)},
		api.StrategyLLMWithoutReference: {required: fieldsResponseContexts, needs: needsLLM, build: llmScorer(llmjudge.Faithfulness)},
	},
	api.FamilyFactualCorrectness: {
		api.StrategyLLMWithReference: {required: fieldsResponseReference, needs: needsLLM, build: llmScorer(llmjudge.FactualCorrectness)},
	},
	api.FamilyContextRecall: {
		api.StrategyLLMWithReference: {
			required: []string{api.FieldReference, api.FieldRetrievedContexts},
			needs:    needsLLM,
			build:    llmScorer(llmjudge.ContextRecall),
		},
		api.StrategyNonLLM:  {required: fieldsNonLLMContexts, needs: needsSimilarity, build: contextScorer(heuristic.ContextRecall)},
		api.StrategyIDBased: {required: fieldsContextIDs, build: idScorer(heuristic.IDContextRecall)},
	},
	api.FamilyContextPrecision: {
		api.StrategyLLMWithReference: {
			required: []string{api.FieldUserInput, api.FieldReference, api.FieldRetrievedContexts},
			needs:    needsLLM,
			build:    llmScorer(llmjudge.ContextPrecision),
		},
		api.StrategyLLMWithoutReference: {
			required: []string{api.FieldUserInput, api.FieldResponse, api.FieldRetrievedContexts},
			needs:    needsLLM,
			build:    llmScorer(llmjudge.ContextPrecision),
		},
		api.StrategyNonLLM:  {required: fieldsNonLLMContexts, needs: needsSimilarity, build: contextScorer(heuristic.ContextPrecision)},
		api.StrategyIDBased: {required: fieldsContextIDs, build: idScorer(heuristic.IDContextPrecision)},
	},
	api.FamilyNoiseSensitivity: {
		api.StrategyLLMWithReference: {
			required: []string{api.FieldUserInput, api.FieldResponse, api.FieldReference, api.FieldRetrievedContexts},
			needs:    needsLLM,
			build:    llmScorer(llmjudge.NoiseSensitivity),
		},
	},
	api.FamilyContextEntitiesRecall: {
		api.StrategyLLMWithReference: {
			required: []string{api.FieldReference, api.FieldRetrievedContexts},
			needs:    needsLLM,
			build:    llmScorer(llmjudge.ContextEntitiesRecall),
		},
		api.StrategyNonLLM: {
			required: []string{api.FieldReference, api.FieldRetrievedContexts},
			needs:    needsEntities,
			build: func(caps api.Capabilities, _ api.Strategy, cfg api.Config, _ *Dispatcher) (api.Scorer, error) {
				return heuristic.EntitiesRecall(heuristic.EntitiesRecallOptions{Extractor: caps.Entities, CaseSensitive: cfg.CaseSensitive}), nil
			},
		},
	},
	api.FamilyToolCallF1: {
		api.StrategyIDBased: {
			required: []string{api.FieldToolCalls, api.FieldReferenceToolCalls},
			build: func(api.Capabilities, api.Strategy, api.Config, *Dispatcher) (api.Scorer, error) {
				return heuristic.ToolCallF1(), nil
			},
		},
	},
	api.FamilyAspectCritic: {
		api.StrategyLLMWithReference:    {required: []string{api.FieldUserInput, api.FieldResponse, api.FieldReference}, needs: needsLLM, build: llmScorer(llmjudge.AspectCritic)},
		api.StrategyLLMWithoutReference: {required: []string{api.FieldUserInput, api.FieldResponse}, needs: needsLLM, build: llmScorer(llmjudge.AspectCritic)},
	},
	api.FamilySimpleCriteria: {
		api.StrategyLLMWithReference:    {required: []string{api.FieldUserInput, api.FieldResponse, api.FieldReference}, needs: needsLLM, build: llmScorer(llmjudge.SimpleCriteria)},
		api.StrategyLLMWithoutReference: {required: []string{api.FieldUserInput, api.FieldResponse}, needs: needsLLM, build: llmScorer(llmjudge.SimpleCriteria)},
	},
	api.FamilyAgentGoalAccuracy: {
		api.StrategyLLMWithReference:    {required: []string{api.FieldGoal, api.FieldResponse, api.FieldReference}, needs: needsLLM, build: llmScorer(llmjudge.AgentGoalAccuracy)},
		api.StrategyLLMWithoutReference: {required: []string{api.FieldGoal, api.FieldResponse}, needs: needsLLM, build: llmScorer(llmjudge.AgentGoalAccuracy)},
	},
	api.FamilySemanticSimilarity: {
		api.StrategyNonLLM: {
			required: fieldsResponseReference,
			needs:    needsEmbedder,
			build: func(caps api.Capabilities, _ api.Strategy, _ api.Config, _ *Dispatcher) (api.Scorer, error) {
				return embedding.SemanticSimilarity(caps.Embedder), nil
			},
		},
	},
	api.FamilyStringSimilarity: {
		api.StrategyNonLLM: {
			required: fieldsResponseReference,
			build: func(_ api.Capabilities, _ api.Strategy, cfg api.Config, _ *Dispatcher) (api.Scorer, error) {
				return heuristic.StringSimilarity(heuristic.StringSimilarityOptions{Measure: cfg.Similarity, CaseSensitive: cfg.CaseSensitive}), nil
			},
		},
	},
	api.FamilyToolCallAccuracy: {
		api.StrategyIDBased: {
			required: []string{api.FieldToolCalls, api.FieldReferenceToolCalls},
			build: func(api.Capabilities, api.Strategy, api.Config, *Dispatcher) (api.Scorer, error) {
				return heuristic.ToolCallAccuracy(), nil
			},
		},
	},
	api.FamilyResponseRelevancy: {
		api.StrategyLLMWithoutReference: {
			required: []string{api.FieldUserInput, api.FieldResponse},
			needs:    needsLLMAndEmbedder,
			build:    llmScorer(llmjudge.ResponseRelevancy),
		},
	},
	api.FamilyStringPresence: {
		api.StrategyNonLLM: {
			required: fieldsResponseReference,
			build: func(_ api.Capabilities, _ api.Strategy, cfg api.Config, _ *Dispatcher) (api.Scorer, error) {
				return heuristic.StringPresence(heuristic.StringPresenceOptions{CaseSensitive: cfg.CaseSensitive}), nil
			},
		},
	},
	api.FamilyExactMatch: {
		api.StrategyNonLLM: {
			required: fieldsResponseReference,
			build: func(_ api.Capabilities, _ api.Strategy, cfg api.Config, _ *Dispatcher) (api.Scorer, error) {
				return heuristic.ExactMatch(heuristic.ExactMatchOptions{CaseSensitive: cfg.CaseSensitive, TrimWhitespace: true}), nil
			},
		},
	},
}

// Families lists every registered family
func Families() []api.Family {
	out := make([]api.Family, 0, len(registry))
	for f := range registry {
		out = append(out, f)
	}
	sortFamilies(out)
	return out
}

// Strategies lists the strategies family supports, in api.Strategies order
func Strategies(family api.Family) []api.Strategy {
	var out []api.Strategy
	for _, s := range api.Strategies {
		if _, ok := registry[family][s]; ok {
			out = append(out, s)
		}
	}
	return out
}

// RequiredFields returns the sample fields family needs under strategy
func RequiredFields(family api.Family, strategy api.Strategy) ([]string, error) {
	e, err := lookup(family, strategy)
	if err != nil {
		return nil, err
	}
	return append([]string(nil), e.required...), nil
}
