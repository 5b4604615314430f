package model

import "time"

// Config holds the complete legalner configuration
type Config struct {
	Model   ModelConfig   `yaml:"model" mapstructure:"model"`
	Lexicon LexiconConfig `yaml:"lexicon" mapstructure:"lexicon"`
	Output  OutputConfig  `yaml:"output" mapstructure:"output"`
	Batch   BatchConfig   `yaml:"batch" mapstructure:"batch"`
}

// ModelConfig selects and tunes the NLP model
type ModelConfig struct {
	// Name of the model backend: "rules", "http", "openai", "anthropic", "ollama"
	Name string `yaml:"name" mapstructure:"name"`

	// Catalog is an optional YAML file mapping label -> description
	Catalog string `yaml:"catalog,omitempty" mapstructure:"catalog"`

	// Gazetteer is an optional YAML file replacing the built-in word lists (rules only)
	Gazetteer string `yaml:"gazetteer,omitempty" mapstructure:"gazetteer"`

	// BaseURL of the model server (http) or API endpoint override (LLM backends)
	BaseURL string `yaml:"base_url,omitempty" mapstructure:"base_url"`

	// APIKey for openai/anthropic; prefer OPENAI_API_KEY or ANTHROPIC_API_KEY
	APIKey string `yaml:"api_key,omitempty" mapstructure:"api_key"`

	// LLMModel is the chat model of the openai, anthropic and ollama backends.
	// Empty selects the provider default (ollama requires one).
	LLMModel string `yaml:"llm_model" mapstructure:"llm_model"`

	// MaxTokens limits each LLM answer
	MaxTokens int `yaml:"max_tokens" mapstructure:"max_tokens"`

	Timeout           time.Duration `yaml:"timeout" mapstructure:"timeout"`
	RequestsPerSecond float64       `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	Burst             int           `yaml:"burst" mapstructure:"burst"`

	// ChunkSize is the max characters sent per remote request
	ChunkSize int `yaml:"chunk_size" mapstructure:"chunk_size"`

	// CacheTTL for repeated chunk annotations within one run
	CacheTTL time.Duration `yaml:"cache_ttl" mapstructure:"cache_ttl"`

	// Proxy settings for remote backends; empty falls back to HTTP_PROXY etc.
	HTTPProxy  string `yaml:"http_proxy,omitempty" mapstructure:"http_proxy"`
	HTTPSProxy string `yaml:"https_proxy,omitempty" mapstructure:"https_proxy"`
	NoProxy    string `yaml:"no_proxy,omitempty" mapstructure:"no_proxy"`
}

// LexiconConfig extends the built-in legal lexicon
type LexiconConfig struct {
	// Extra maps additional trigger words to LAW or NORM
	Extra map[string]string `yaml:"extra,omitempty" mapstructure:"extra"`
}

// OutputConfig controls rendering
type OutputConfig struct {
	Indent  int  `yaml:"indent" mapstructure:"indent"`
	Verbose bool `yaml:"verbose" mapstructure:"verbose"`
}

// BatchConfig controls the batch command
type BatchConfig struct {
	// Workers is the number of documents processed concurrently
	Workers int `yaml:"workers" mapstructure:"workers"`
}

// DefaultConfig returns the configuration used when nothing is set
func DefaultConfig() *Config {
	return &Config{
		Model: ModelConfig{
			Name:              "rules",
			MaxTokens:         2000,
			Timeout:           30 * time.Second,
			RequestsPerSecond: 2,
			Burst:             4,
			ChunkSize:         4000,
			CacheTTL:          10 * time.Minute,
		},
		Output: OutputConfig{
			Indent: 2,
		},
		Batch: BatchConfig{
			Workers: 4,
		},
	}
}
