package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/dooshek/honey/internal/types"
)

// ChatCompletionMessage represents a message in a chat completion request
type ChatCompletionMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ErrNoChoices is returned when a completion response carries no choices
var ErrNoChoices = errors.New("no completion choices returned")

const (
	RoleSystem = "system"
	RoleUser   = "user"
)

// CompletionRequest represents the parameters for a completion request
type CompletionRequest struct {
	Model       string                  `json:"model"`
	Messages    []ChatCompletionMessage `json:"messages"`
	MaxTokens   int                     `json:"max_tokens,omitempty"`
	Temperature float32                 `json:"temperature,omitempty"`
}

// Provider defines the interface for LLM providers
type Provider interface {
	Completion(ctx context.Context, req CompletionRequest) (string, error)
}

// NewProvider creates the text generation provider named in config
func NewProvider(config types.LLMConfig, creds types.Credentials, httpClient *http.Client) (Provider, error) {
	switch types.LLMProvider(config.Provider) {
	case types.ProviderOpenAI:
		if creds.OpenAIKey != "" {
			return NewOpenAIProvider(creds.OpenAIKey, config.BaseURL, httpClient), nil
		}
		return nil, fmt.Errorf("OPENAI_API_KEY is required for provider %s", config.Provider)
	case types.ProviderGroq:
		if creds.GroqKey != "" {
			return NewGroqProvider(creds.GroqKey, httpClient), nil
		}
		return nil, fmt.Errorf("GROQ_API_KEY is required for provider %s", config.Provider)
	default:
		return nil, fmt.Errorf("unsupported provider type: %s", config.Provider)
	}
}
