package llm

import (
	"context"
	"fmt"
	"net/http"

	"github.com/dooshek/honey/internal/logger"
	"github.com/sashabaranov/go-openai"
)

// OpenAIProvider implements Provider interface using OpenAI
type OpenAIProvider struct {
	client *openai.Client
}

// NewOpenAIProvider creates new OpenAI provider instance. An empty baseURL
// and a nil httpClient use the library defaults.
func NewOpenAIProvider(apiKey, baseURL string, httpClient *http.Client) *OpenAIProvider {
	logger.Debugf("Creating OpenAI provider")

	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}
	if httpClient != nil {
		config.HTTPClient = httpClient
	}

	return &OpenAIProvider{
		client: openai.NewClientWithConfig(config),
	}
}

// Completion sends a completion request to OpenAI API
func (p *OpenAIProvider) Completion(ctx context.Context, req CompletionRequest) (string, error) {
	logger.Debugf("Sending completion request with model: %s", req.Model)

	messages := make([]openai.ChatCompletionMessage, len(req.Messages))
	for i, msg := range req.Messages {
		messages[i] = openai.ChatCompletionMessage{
			Role:    msg.Role,
			Content: msg.Content,
		}
	}

	resp, err := p.client.CreateChatCompletion(
		ctx,
		openai.ChatCompletionRequest{
			Model:       req.Model,
			Messages:    messages,
			MaxTokens:   req.MaxTokens,
			Temperature: req.Temperature,
		},
	)
	if err != nil {
		return "", fmt.Errorf("error creating completion with OpenAI: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w from OpenAI", ErrNoChoices)
	}

	return resp.Choices[0].Message.Content, nil
}
