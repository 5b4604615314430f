// Package llm provides chat completion clients used by the LLM-backed entity
// recognizer. Every provider answers a single system + user prompt.
package llm

import (
	"context"
	"time"
)

// Provider defines the interface for LLM providers
type Provider interface {
	// Name returns the provider name
	Name() string

	// Complete sends one prompt and returns the model's answer
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)

	// IsAvailable checks if the provider is properly configured and accessible
	IsAvailable(ctx context.Context) bool
}

// CompletionRequest contains the input of one completion
type CompletionRequest struct {
	// System is the instruction prompt
	System string

	// Prompt is the user content, here the document chunk
	Prompt string

	// JSON asks the provider for a JSON object answer when supported
	JSON bool

	// Model overrides the configured model
	Model string

	// MaxTokens limits the response length
	MaxTokens int
}

// CompletionResponse contains the model output
type CompletionResponse struct {
	// Content is the raw answer text
	Content string

	// Model is the model that generated the response
	Model string

	// TokensUsed tracks token consumption
	TokensUsed int
}

// Config holds LLM provider configuration
type Config struct {
	// Provider name: "openai", "anthropic", "ollama"
	Provider string

	// Model name (provider-specific)
	Model string

	// APIKey for OpenAI/Anthropic
	APIKey string

	// BaseURL for custom endpoints (e.g., Ollama)
	BaseURL string

	// Timeout for API requests
	Timeout time.Duration

	// MaxTokens for response generation
	MaxTokens int

	// Proxy settings
	HTTPProxy  string
	HTTPSProxy string
	NoProxy    string
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Timeout:   30 * time.Second,
		MaxTokens: 2000,
	}
}

// Temperature used for extraction; low so answers stay close to the source text
const temperature = 0.1

func (c Config) model(req CompletionRequest, fallback string) string {
	if req.Model != "" {
		return req.Model
	}
	if c.Model != "" {
		return c.Model
	}
	return fallback
}

func (c Config) maxTokens(req CompletionRequest) int {
	if req.MaxTokens > 0 {
		return req.MaxTokens
	}
	if c.MaxTokens > 0 {
		return c.MaxTokens
	}
	return 2000
}

func (c Config) timeout(fallback time.Duration) time.Duration {
	if c.Timeout > 0 {
		return c.Timeout
	}
	return fallback
}
