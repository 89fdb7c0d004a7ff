package llm

import (
	"context"

	"github.com/halcyonhealth/dashforge/internal/model"
)

// Completer is the narrow interface the extraction pipeline depends on: a
// text prompt in, completion text out. Each provider backend implements it
// natively, so no client patching is ever needed.
type Completer interface {
	// Name returns the provider name
	Name() string

	// ModelID returns the model identifier recorded in lineage
	ModelID() string

	// Complete sends one prompt and returns the raw completion text
	Complete(ctx context.Context, prompt string) (string, error)

	// IsAvailable checks if the provider is properly configured and reachable
	IsAvailable(ctx context.Context) bool
}

// Config holds provider configuration
type Config struct {
	// Provider name: "openai", "ollama"
	Provider string

	// Model name (provider-specific)
	Model string

	// APIKey for hosted providers
	APIKey string

	// BaseURL for custom endpoints (e.g., Ollama, proxies)
	BaseURL string

	// Timeout for API requests, in seconds
	Timeout int

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
		Timeout:   60,
		MaxTokens: 4000,
	}
}

// ConfigFromModel converts model config sections to llm.Config
func ConfigFromModel(mc model.LLMConfig, hc model.HTTPConfig) Config {
	return Config{
		Provider:   mc.Provider,
		Model:      mc.Model,
		APIKey:     mc.APIKey,
		BaseURL:    mc.BaseURL,
		Timeout:    mc.Timeout,
		MaxTokens:  mc.MaxTokens,
		HTTPProxy:  hc.HTTPProxy,
		HTTPSProxy: hc.HTTPSProxy,
		NoProxy:    hc.NoProxy,
	}
}
