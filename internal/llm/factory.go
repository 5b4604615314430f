package llm

import (
	"fmt"
	"strings"

	"github.com/ppiankov/legalner/internal/model"
)

// NewProvider creates a new LLM provider based on configuration
func NewProvider(config Config) (Provider, error) {
	provider := strings.ToLower(config.Provider)

	switch provider {
	case "openai":
		return NewOpenAIProvider(config)

	case "anthropic", "claude":
		return NewAnthropicProvider(config)

	case "ollama":
		return NewOllamaProvider(config)

	default:
		return nil, fmt.Errorf("unknown LLM provider: %s (supported: openai, anthropic, ollama)", config.Provider)
	}
}

// ConfigFromModel converts model.ModelConfig to llm.Config.
// Zero timeout and max tokens keep the defaults.
func ConfigFromModel(modelConfig model.ModelConfig) Config {
	config := DefaultConfig()
	config.Provider = strings.TrimSpace(modelConfig.Name)
	config.Model = modelConfig.LLMModel
	config.APIKey = modelConfig.APIKey
	config.BaseURL = modelConfig.BaseURL
	config.HTTPProxy = modelConfig.HTTPProxy
	config.HTTPSProxy = modelConfig.HTTPSProxy
	config.NoProxy = modelConfig.NoProxy

	if modelConfig.Timeout > 0 {
		config.Timeout = modelConfig.Timeout
	}
	if modelConfig.MaxTokens > 0 {
		config.MaxTokens = modelConfig.MaxTokens
	}
	return config
}
