package cli

import (
	"fmt"
	"time"

	"github.com/spf13/viper"

	"github.com/datar-psa/rageval/api"
)

// Provider backends selectable from the CLI
const (
	ProviderNone   = "none"
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
)

// Settings is the CLI configuration, layered from flags, RAGEVAL_* env,
// the config file and defaults
type Settings struct {
	Provider    string         `yaml:"provider" mapstructure:"provider"`
	Strategy    api.Strategy   `yaml:"strategy" mapstructure:"strategy"`
	Metric      api.Config     `yaml:"metric" mapstructure:"metric"`
	Concurrency int            `yaml:"concurrency" mapstructure:"concurrency"`
	RateLimit   float64        `yaml:"rate_limit" mapstructure:"rate_limit"`
	Burst       int            `yaml:"burst" mapstructure:"burst"`
	CacheTTL    string         `yaml:"cache_ttl" mapstructure:"cache_ttl"`
	Timeout     string         `yaml:"timeout" mapstructure:"timeout"`
	Gemini      GeminiSettings `yaml:"gemini" mapstructure:"gemini"`
	OpenAI      OpenAISettings `yaml:"openai" mapstructure:"openai"`
}

// GeminiSettings configures the Vertex AI backend
type GeminiSettings struct {
	Project        string `yaml:"project" mapstructure:"project"`
	Location       string `yaml:"location" mapstructure:"location"`
	Model          string `yaml:"model" mapstructure:"model"`
	EmbeddingModel string `yaml:"embedding_model" mapstructure:"embedding_model"`
	// Entities enables Cloud Natural Language entity extraction
	Entities bool `yaml:"entities" mapstructure:"entities"`
}

// OpenAISettings configures the OpenAI backend
type OpenAISettings struct {
	APIKey         string `yaml:"api_key,omitempty" mapstructure:"api_key"`
	BaseURL        string `yaml:"base_url,omitempty" mapstructure:"base_url"`
	Model          string `yaml:"model" mapstructure:"model"`
	EmbeddingModel string `yaml:"embedding_model" mapstructure:"embedding_model"`
}

// DefaultSettings returns the built-in defaults
func DefaultSettings() Settings {
	return Settings{
		Provider:    ProviderNone,
		Strategy:    api.StrategyLLMWithReference,
		Metric:      api.Config{Family: api.FamilyFaithfulness}.WithDefaults(),
		Concurrency: 4,
		Burst:       1,
		CacheTTL:    "1h",
		Timeout:     "30m",
		Gemini: GeminiSettings{
			Location:       "us-central1",
			Model:          "publishers/google/models/gemini-2.5-flash",
			EmbeddingModel: "text-embedding-005",
		},
		OpenAI: OpenAISettings{
			Model:          "gpt-4o-mini",
			EmbeddingModel: "text-embedding-3-small",
		},
	}
}

// setDefaults registers DefaultSettings with v
func setDefaults(v *viper.Viper) {
	d := DefaultSettings()
	v.SetDefault("provider", d.Provider)
	v.SetDefault("strategy", string(d.Strategy))
	v.SetDefault("metric.family", string(d.Metric.Family))
	v.SetDefault("metric.mode", string(d.Metric.Mode))
	v.SetDefault("metric.atomicity", string(d.Metric.Atomicity))
	v.SetDefault("metric.coverage", string(d.Metric.Coverage))
	v.SetDefault("metric.samples", d.Metric.Samples)
	v.SetDefault("metric.noise_mode", string(d.Metric.NoiseMode))
	v.SetDefault("metric.similarity", string(d.Metric.Similarity))
	v.SetDefault("metric.threshold", d.Metric.Threshold)
	v.SetDefault("metric.questions", d.Metric.Questions)
	v.SetDefault("concurrency", d.Concurrency)
	v.SetDefault("burst", d.Burst)
	v.SetDefault("cache_ttl", d.CacheTTL)
	v.SetDefault("timeout", d.Timeout)
	v.SetDefault("gemini.location", d.Gemini.Location)
	v.SetDefault("gemini.model", d.Gemini.Model)
	v.SetDefault("gemini.embedding_model", d.Gemini.EmbeddingModel)
	v.SetDefault("openai.model", d.OpenAI.Model)
	v.SetDefault("openai.embedding_model", d.OpenAI.EmbeddingModel)

	// keys without a default are invisible to AutomaticEnv during Unmarshal
	_ = v.BindEnv("openai.api_key", "RAGEVAL_OPENAI_API_KEY", "OPENAI_API_KEY")
	_ = v.BindEnv("openai.base_url", "RAGEVAL_OPENAI_BASE_URL", "OPENAI_BASE_URL")
	_ = v.BindEnv("gemini.project", "RAGEVAL_GEMINI_PROJECT", "GOOGLE_PROJECT_ID")
}

// loadSettings decodes v into Settings and validates the metric config
func loadSettings(v *viper.Viper) (Settings, error) {
	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return s, fmt.Errorf("decode config: %w", err)
	}
	s.Metric = s.Metric.WithDefaults()
	if err := s.Metric.Validate(); err != nil {
		return s, err
	}
	switch s.Provider {
	case ProviderNone, ProviderGemini, ProviderOpenAI:
	default:
		return s, fmt.Errorf("%w: unknown provider %q", api.ErrInvalidConfig, s.Provider)
	}
	if _, err := s.cacheTTL(); err != nil {
		return s, err
	}
	if _, err := s.timeout(); err != nil {
		return s, err
	}
	return s, nil
}

func (s Settings) cacheTTL() (time.Duration, error) {
	return parseDuration("cache_ttl", s.CacheTTL)
}

func (s Settings) timeout() (time.Duration, error) {
	return parseDuration("timeout", s.Timeout)
}

func parseDuration(key, value string) (time.Duration, error) {
	if value == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%w: %s %q: %v", api.ErrInvalidConfig, key, value, err)
	}
	return d, nil
}
