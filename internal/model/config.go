package model

import "time"

// Config is the complete dashforge configuration
type Config struct {
	HTTP        HTTPConfig        `yaml:"http" json:"http"`
	Cache       CacheConfig       `yaml:"cache" json:"cache"`
	LLM         LLMConfig         `yaml:"llm" json:"llm"`
	Pipeline    PipelineConfig    `yaml:"pipeline" json:"pipeline"`
	Verify      VerifyConfig      `yaml:"verify" json:"verify"`
	Lineage     LineageConfig     `yaml:"lineage" json:"lineage"`
	Catalog     CatalogConfig     `yaml:"catalog" json:"catalog"`
	Concurrency ConcurrencyConfig `yaml:"concurrency" json:"concurrency"`
	Output      OutputConfig      `yaml:"output" json:"output"`
}

// HTTPConfig controls document fetching
type HTTPConfig struct {
	Timeout      time.Duration `yaml:"timeout" json:"timeout"`
	UserAgent    string        `yaml:"user_agent" json:"user_agent"`
	MaxBodyBytes int64         `yaml:"max_body_bytes" json:"max_body_bytes"`
	InsecureTLS  bool          `yaml:"insecure_tls" json:"insecure_tls"`
	HTTPProxy    string        `yaml:"http_proxy,omitempty" json:"http_proxy,omitempty"`
	HTTPSProxy   string        `yaml:"https_proxy,omitempty" json:"https_proxy,omitempty"`
	NoProxy      string        `yaml:"no_proxy,omitempty" json:"no_proxy,omitempty"`
}

// CacheConfig controls the document text cache
type CacheConfig struct {
	Enabled   bool          `yaml:"enabled" json:"enabled"`
	Dir       string        `yaml:"dir" json:"dir"`
	MemoryTTL time.Duration `yaml:"memory_ttl" json:"memory_ttl"`
	DiskTTL   time.Duration `yaml:"disk_ttl" json:"disk_ttl"`
}

// LLMConfig selects and configures the completion provider
type LLMConfig struct {
	Provider  string  `yaml:"provider" json:"provider"` // openai, ollama
	Model     string  `yaml:"model" json:"model"`
	APIKey    string  `yaml:"-" json:"-"` // Never serialized; from env only
	BaseURL   string  `yaml:"base_url,omitempty" json:"base_url,omitempty"`
	Timeout   int     `yaml:"timeout" json:"timeout"` // seconds
	MaxTokens int     `yaml:"max_tokens" json:"max_tokens"`
	RateLimit float64 `yaml:"rate_limit" json:"rate_limit"` // completion calls per second
	RateBurst int     `yaml:"rate_burst" json:"rate_burst"`
}

// PipelineConfig controls the extraction retry loop
type PipelineConfig struct {
	MaxRetries     int    `yaml:"max_retries" json:"max_retries"`
	MinExtractions int    `yaml:"min_extractions" json:"min_extractions"`
	AgentName      string `yaml:"agent_name" json:"agent_name"`
}

// VerifyConfig controls source grounding
type VerifyConfig struct {
	FuzzyEnabled     bool    `yaml:"fuzzy_enabled" json:"fuzzy_enabled"`
	FuzzyThreshold   float64 `yaml:"fuzzy_threshold" json:"fuzzy_threshold"`
	WindowSize       int     `yaml:"window_size" json:"window_size"`
	NumericTolerance float64 `yaml:"numeric_tolerance" json:"numeric_tolerance"`
}

// LineageConfig controls the audit trail store
type LineageConfig struct {
	Enabled bool   `yaml:"enabled" json:"enabled"`
	Path    string `yaml:"path" json:"path"` // sqlite file path
}

// CatalogConfig points at the metrics catalog
type CatalogConfig struct {
	Path string `yaml:"path,omitempty" json:"path,omitempty"` // empty = embedded default
}

// ConcurrencyConfig bounds parallel work
type ConcurrencyConfig struct {
	ExtractionWorkers int `yaml:"extraction_workers" json:"extraction_workers"`
}

// OutputConfig controls CLI output
type OutputConfig struct {
	Verbose bool `yaml:"verbose" json:"verbose"`
}

// DefaultConfig returns sensible defaults
func DefaultConfig() *Config {
	return &Config{
		HTTP: HTTPConfig{
			Timeout:      30 * time.Second,
			UserAgent:    "Dashforge/0.3 (+https://github.com/halcyonhealth/dashforge)",
			MaxBodyBytes: 2_000_000,
		},
		Cache: CacheConfig{
			Enabled:   true,
			MemoryTTL: 15 * time.Minute,
			DiskTTL:   24 * time.Hour,
		},
		LLM: LLMConfig{
			Provider:  "",
			Timeout:   60,
			MaxTokens: 4000,
			RateLimit: 1,
			RateBurst: 2,
		},
		Pipeline: PipelineConfig{
			MaxRetries:     3,
			MinExtractions: 3,
			AgentName:      "roi-extraction",
		},
		Verify: VerifyConfig{
			FuzzyEnabled:     true,
			FuzzyThreshold:   0.85,
			WindowSize:       200,
			NumericTolerance: 0.01,
		},
		Lineage: LineageConfig{
			Enabled: true,
			Path:    "dashforge-lineage.db",
		},
		Concurrency: ConcurrencyConfig{
			ExtractionWorkers: 4,
		},
	}
}
