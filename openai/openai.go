// Package openai implements the rageval capabilities on the OpenAI chat
// completion and embedding APIs, or any server compatible with them.
package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	goopenai "github.com/sashabaranov/go-openai"

	"github.com/datar-psa/rageval/api"
)

// Config configures the OpenAI client
type Config struct {
	APIKey  string
	BaseURL string
	// Model defaults to gpt-4o-mini
	Model string
	// EmbeddingModel defaults to text-embedding-3-small
	EmbeddingModel string
	// Temperature applies to Generate; structured calls always use 0
	Temperature float32
	// Timeout in seconds per request; defaults to 60
	Timeout int
}

// Client implements api.LLMGenerator and api.Embedder
type Client struct {
	client *goopenai.Client
	config Config
}

// New creates a new OpenAI client
func New(config Config) (*Client, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}

	clientConfig := goopenai.DefaultConfig(config.APIKey)
	if config.BaseURL != "" {
		clientConfig.BaseURL = config.BaseURL
	}
	if config.Model == "" {
		config.Model = goopenai.GPT4oMini
	}
	if config.EmbeddingModel == "" {
		config.EmbeddingModel = string(goopenai.SmallEmbedding3)
	}

	return &Client{
		client: goopenai.NewClientWithConfig(clientConfig),
		config: config,
	}, nil
}

func (c *Client) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	timeout := time.Duration(c.config.Timeout) * time.Second
	if timeout == 0 {
		timeout = 60 * time.Second
	}
	return context.WithTimeout(ctx, timeout)
}

func userMessage(prompt string) []goopenai.ChatCompletionMessage {
	return []goopenai.ChatCompletionMessage{
		{
			Role:    goopenai.ChatMessageRoleUser,
			Content: prompt,
		},
	}
}

// Generate implements LLMGenerator.Generate
// n > 1 is served by one request with N set
func (c *Client) Generate(ctx context.Context, prompt string, n int) ([]string, error) {
	if n < 1 {
		n = 1
	}
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	resp, err := c.client.CreateChatCompletion(ctx, goopenai.ChatCompletionRequest{
		Model:       c.config.Model,
		Messages:    userMessage(prompt),
		N:           n,
		Temperature: c.config.Temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("OpenAI API error: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no response from OpenAI")
	}

	out := make([]string, len(resp.Choices))
	for i, choice := range resp.Choices {
		out[i] = choice.Message.Content
	}
	return out, nil
}

// rawSchema lets a map-shaped JSON schema satisfy json.Marshaler
type rawSchema map[string]interface{}

func (s rawSchema) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]interface{}(s))
}

// StructuredGenerate implements LLMGenerator.StructuredGenerate using a
// json_schema response format
func (c *Client) StructuredGenerate(ctx context.Context, prompt string, schema map[string]interface{}) (map[string]interface{}, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	resp, err := c.client.CreateChatCompletion(ctx, goopenai.ChatCompletionRequest{
		Model:    c.config.Model,
		Messages: userMessage(prompt),
		ResponseFormat: &goopenai.ChatCompletionResponseFormat{
			Type: goopenai.ChatCompletionResponseFormatTypeJSONSchema,
			JSONSchema: &goopenai.ChatCompletionResponseFormatJSONSchema{
				Name:   "response",
				Schema: rawSchema(schema),
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("OpenAI API error: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no response from OpenAI")
	}

	var result map[string]interface{}
	if err := json.Unmarshal([]byte(resp.Choices[0].Message.Content), &result); err != nil {
		return nil, fmt.Errorf("failed to parse structured response: %w", err)
	}
	return result, nil
}

// Embed implements Embedder.Embed
func (c *Client) Embed(ctx context.Context, text string) ([]float64, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	resp, err := c.client.CreateEmbeddings(ctx, goopenai.EmbeddingRequest{
		Input: []string{text},
		Model: goopenai.EmbeddingModel(c.config.EmbeddingModel),
	})
	if err != nil {
		return nil, fmt.Errorf("OpenAI embeddings error: %w", err)
	}
	if len(resp.Data) == 0 || len(resp.Data[0].Embedding) == 0 {
		return nil, fmt.Errorf("no embeddings returned")
	}

	values := resp.Data[0].Embedding
	embedding := make([]float64, len(values))
	for i, v := range values {
		embedding[i] = float64(v)
	}
	return embedding, nil
}

var (
	_ api.LLMGenerator = (*Client)(nil)
	_ api.Embedder     = (*Client)(nil)
)
