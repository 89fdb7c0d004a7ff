package llm

import (
	"fmt"
	"strings"
)

// NewCompleter creates a completion provider based on configuration.
// An empty provider name returns (nil, nil): callers that require a completer
// must treat nil as disabled.
func NewCompleter(config Config) (Completer, error) {
	switch strings.ToLower(config.Provider) {
	case "openai":
		return NewOpenAIProvider(config)

	case "ollama":
		return NewOllamaProvider(config)

	case "":
		return nil, nil

	default:
		return nil, fmt.Errorf("unknown LLM provider: %s (supported: openai, ollama)", config.Provider)
	}
}
