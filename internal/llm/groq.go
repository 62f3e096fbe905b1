package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/dooshek/honey/internal/logger"
)

const groqBaseURL = "https://api.groq.com/openai/v1"

// GroqProvider implements Provider interface using Groq's OpenAI-compatible API
type GroqProvider struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

type groqRequest struct {
	Model       string        `json:"model"`
	Messages    []groqMessage `json:"messages"`
	MaxTokens   int           `json:"max_completion_tokens,omitempty"`
	Temperature float32       `json:"temperature,omitempty"`
}

type groqMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type groqResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// NewGroqProvider creates new Groq provider instance. A nil httpClient uses
// http.DefaultClient.
func NewGroqProvider(apiKey string, httpClient *http.Client) *GroqProvider {
	logger.Debugf("Creating Groq provider")
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &GroqProvider{
		apiKey:     apiKey,
		baseURL:    groqBaseURL,
		httpClient: httpClient,
	}
}

// Completion sends a completion request to Groq API
func (p *GroqProvider) Completion(ctx context.Context, req CompletionRequest) (string, error) {
	logger.Debugf("Sending completion request with model: %s", req.Model)

	messages := make([]groqMessage, len(req.Messages))
	for i, msg := range req.Messages {
		messages[i] = groqMessage(msg)
	}

	jsonData, err := json.Marshal(groqRequest{
		Model:       req.Model,
		Messages:    messages,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
	})
	if err != nil {
		return "", fmt.Errorf("error marshaling request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/chat/completions", bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fmt.Errorf("error creating request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("error sending request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("error reading response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status code %d: %s", resp.StatusCode, string(body))
	}

	var groqResp groqResponse
	if err := json.Unmarshal(body, &groqResp); err != nil {
		return "", fmt.Errorf("error unmarshaling response: %w", err)
	}

	if groqResp.Error != nil {
		return "", fmt.Errorf("groq API error: %s", groqResp.Error.Message)
	}

	if len(groqResp.Choices) == 0 {
		return "", fmt.Errorf("%w from Groq", ErrNoChoices)
	}

	return groqResp.Choices[0].Message.Content, nil
}
