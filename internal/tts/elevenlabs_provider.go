package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/dooshek/honey/internal/logger"
)

const (
	elevenlabsBaseURL      = "https://api.elevenlabs.io/v1"
	elevenlabsOutputFormat = "mp3_44100_128"
)

// ElevenLabsConfig holds ElevenLabs request settings
type ElevenLabsConfig struct {
	BaseURL         string
	Model           string
	Stability       float64
	SimilarityBoost float64
	Style           float64
	UseSpeakerBoost bool
}

type elevenlabsRequest struct {
	Text          string                  `json:"text"`
	ModelID       string                  `json:"model_id,omitempty"`
	VoiceSettings elevenlabsVoiceSettings `json:"voice_settings"`
}

type elevenlabsVoiceSettings struct {
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`
	Style           float64 `json:"style"`
	UseSpeakerBoost bool    `json:"use_speaker_boost"`
}

// APIError is a non-200 answer from the ElevenLabs API
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("elevenlabs: status %d: %s", e.StatusCode, e.Message)
}

// ElevenLabsProvider implements Provider for the ElevenLabs text-to-speech
// endpoint. Voice handles are ElevenLabs voice ids.
type ElevenLabsProvider struct {
	apiKey     string
	config     ElevenLabsConfig
	httpClient *http.Client
}

// NewElevenLabsProvider creates a new ElevenLabs provider. A nil httpClient
// uses http.DefaultClient.
func NewElevenLabsProvider(apiKey string, config ElevenLabsConfig, httpClient *http.Client) *ElevenLabsProvider {
	if config.BaseURL == "" {
		config.BaseURL = elevenlabsBaseURL
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &ElevenLabsProvider{
		apiKey:     strings.TrimSpace(apiKey),
		config:     config,
		httpClient: httpClient,
	}
}

// Synthesize posts text to /text-to-speech/{voice handle} and returns the mp3 body
func (p *ElevenLabsProvider) Synthesize(ctx context.Context, text string, voice Voice) (*Audio, error) {
	endpoint, err := url.JoinPath(p.config.BaseURL, "text-to-speech", voice.Handle)
	if err != nil {
		return nil, fmt.Errorf("invalid ElevenLabs URL: %w", err)
	}
	endpoint += "?output_format=" + elevenlabsOutputFormat

	body, err := json.Marshal(elevenlabsRequest{
		Text:    text,
		ModelID: p.config.Model,
		VoiceSettings: elevenlabsVoiceSettings{
			Stability:       p.config.Stability,
			SimilarityBoost: p.config.SimilarityBoost,
			Style:           p.config.Style,
			UseSpeakerBoost: p.config.UseSpeakerBoost,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("error marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "audio/mpeg")
	req.Header.Set("xi-api-key", p.apiKey)

	logger.Infof("Generating TTS for text (length: %d chars) with voice: %s", len(text), voice.Handle)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error sending request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, newAPIError(resp)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read audio data: %w", err)
	}

	logger.Debugf("Generated %s of mp3 audio", formatSize(len(data)))
	return &Audio{Data: data, Format: FormatMP3}, nil
}

func (p *ElevenLabsProvider) Name() string {
	return "ElevenLabs"
}

// newAPIError extracts detail.message (or the raw body) from an error response
func newAPIError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

	var parsed struct {
		Detail json.RawMessage `json:"detail"`
	}
	msg := strings.TrimSpace(string(raw))
	if err := json.Unmarshal(raw, &parsed); err == nil && len(parsed.Detail) > 0 {
		var detail struct {
			Message string `json:"message"`
		}
		var text string
		if json.Unmarshal(parsed.Detail, &detail) == nil && detail.Message != "" {
			msg = detail.Message
		} else if json.Unmarshal(parsed.Detail, &text) == nil && text != "" {
			msg = text
		}
	}
	if msg == "" {
		msg = http.StatusText(resp.StatusCode)
	}

	return &APIError{StatusCode: resp.StatusCode, Message: msg}
}
