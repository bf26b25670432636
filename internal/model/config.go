package model

import "time"

// Config holds all runtime configuration
type Config struct {
	LLM         LLMConfig         `yaml:"llm" json:"llm"`
	Classifier  ClassifierConfig  `yaml:"classifier" json:"classifier"`
	Agent       AgentConfig       `yaml:"agent" json:"agent"`
	Store       StoreConfig       `yaml:"store" json:"store"`
	Concurrency ConcurrencyConfig `yaml:"concurrency" json:"concurrency"`
	Output      OutputConfig      `yaml:"output" json:"output"`
}

// LLMConfig configures the reasoning engine provider
type LLMConfig struct {
	Provider  string `yaml:"provider" json:"provider"` // "openai", "anthropic"
	Model     string `yaml:"model" json:"model"`
	APIKey    string `yaml:"api_key,omitempty" json:"api_key,omitempty"`
	BaseURL   string `yaml:"base_url,omitempty" json:"base_url,omitempty"`
	Timeout   int    `yaml:"timeout" json:"timeout"` // seconds, per request
	MaxTokens int    `yaml:"max_tokens" json:"max_tokens"`

	// Proxy settings
	HTTPProxy  string `yaml:"http_proxy,omitempty" json:"http_proxy,omitempty"`
	HTTPSProxy string `yaml:"https_proxy,omitempty" json:"https_proxy,omitempty"`
	NoProxy    string `yaml:"no_proxy,omitempty" json:"no_proxy,omitempty"`
}

// ClassifierConfig configures the relevance classifier service
type ClassifierConfig struct {
	BaseURL         string        `yaml:"base_url" json:"base_url"` // Empty disables the classifier (fail-open)
	Timeout         time.Duration `yaml:"timeout" json:"timeout"`
	Threshold       float64       `yaml:"threshold" json:"threshold"` // Weighted relevance pass threshold
	MaxBodyBytes    int64         `yaml:"max_body_bytes" json:"max_body_bytes"`
	CacheTTL        time.Duration `yaml:"cache_ttl" json:"cache_ttl"`
	CacheCleanup    time.Duration `yaml:"cache_cleanup" json:"cache_cleanup"`
	MaxContentChars int           `yaml:"max_content_chars" json:"max_content_chars"`
}

// AgentConfig configures the orchestration loop
type AgentConfig struct {
	MaxSteps           int `yaml:"max_steps" json:"max_steps"`
	SourcePreviewChars int `yaml:"source_preview_chars" json:"source_preview_chars"`
}

// StoreConfig configures the persistence sink
type StoreConfig struct {
	Path string `yaml:"path" json:"path"` // SQLite database path
}

// ConcurrencyConfig bounds parallel work
type ConcurrencyConfig struct {
	BatchWorkers      int     `yaml:"batch_workers" json:"batch_workers"`
	RequestsPerSecond float64 `yaml:"requests_per_second" json:"requests_per_second"` // LLM call pacing, per provider
	Burst             int     `yaml:"burst" json:"burst"`
}

// OutputConfig controls CLI output behavior
type OutputConfig struct {
	Verbose bool `yaml:"verbose" json:"verbose"`
}

// DefaultConfig returns sensible defaults
func DefaultConfig() *Config {
	return &Config{
		LLM: LLMConfig{
			Provider:  "",
			Timeout:   60,
			MaxTokens: 8192,
		},
		Classifier: ClassifierConfig{
			BaseURL:         "",
			Timeout:         30 * time.Second,
			Threshold:       0.30,
			MaxBodyBytes:    2_000_000,
			CacheTTL:        10 * time.Minute,
			CacheCleanup:    15 * time.Minute,
			MaxContentChars: 2000,
		},
		Agent: AgentConfig{
			MaxSteps:           10,
			SourcePreviewChars: 500,
		},
		Store: StoreConfig{
			Path: "projectiq.db",
		},
		Concurrency: ConcurrencyConfig{
			BatchWorkers:      3,
			RequestsPerSecond: 2,
			Burst:             5,
		},
		Output: OutputConfig{
			Verbose: false,
		},
	}
}
