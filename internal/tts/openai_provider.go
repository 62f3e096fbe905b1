package tts

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/dooshek/honey/internal/logger"
	"github.com/dooshek/honey/internal/types"
	"github.com/sashabaranov/go-openai"
)

// OpenAITTSProvider implements Provider for the OpenAI speech endpoint. The
// stored voice handles are ElevenLabs ids, so the OpenAI voice is chosen by
// the stored voice gender.
type OpenAITTSProvider struct {
	client *openai.Client
	config OpenAIConfig
}

// OpenAIConfig holds OpenAI TTS configuration
type OpenAIConfig struct {
	BaseURL string
	Model   string  // "tts-1" or "tts-1-hd"
	Speed   float64 // 0.25-4.0, default 1.0

	// Voices maps a stored voice gender to an OpenAI voice name
	Voices map[string]string
}

// NewOpenAITTSProvider creates a new OpenAI TTS provider
func NewOpenAITTSProvider(apiKey string, config OpenAIConfig, httpClient *http.Client) *OpenAITTSProvider {
	clientConfig := openai.DefaultConfig(apiKey)
	if config.BaseURL != "" {
		clientConfig.BaseURL = config.BaseURL
	}
	if httpClient != nil {
		clientConfig.HTTPClient = httpClient
	}

	if config.Model == "" {
		config.Model = "tts-1-hd"
	}
	if config.Speed == 0 {
		config.Speed = 1.0
	}
	if len(config.Voices) == 0 {
		config.Voices = types.DefaultOpenAIVoices()
	}

	return &OpenAITTSProvider{
		client: openai.NewClientWithConfig(clientConfig),
		config: config,
	}
}

// voiceName returns the OpenAI voice for v. A gender without a mapping falls
// back to the handle, which then has to be an OpenAI voice name itself.
func (p *OpenAITTSProvider) voiceName(v Voice) string {
	if name, ok := p.config.Voices[strings.ToLower(v.Gender)]; ok && name != "" {
		return name
	}
	return v.Handle
}

// Synthesize requests mp3 audio for text
func (p *OpenAITTSProvider) Synthesize(ctx context.Context, text string, voice Voice) (*Audio, error) {
	name := p.voiceName(voice)
	logger.Infof("Generating TTS for text (length: %d chars) with voice: %s", len(text), name)

	response, err := p.client.CreateSpeech(ctx, openai.CreateSpeechRequest{
		Model:          openai.SpeechModel(p.config.Model),
		Input:          text,
		Voice:          openai.SpeechVoice(name),
		Speed:          p.config.Speed,
		ResponseFormat: openai.SpeechResponseFormatMp3,
	})
	if err != nil {
		return nil, fmt.Errorf("TTS request failed: %w", err)
	}
	defer response.Close()

	data, err := io.ReadAll(response)
	if err != nil {
		return nil, fmt.Errorf("failed to read audio data: %w", err)
	}

	logger.Debugf("Generated %s of mp3 audio", formatSize(len(data)))
	return &Audio{Data: data, Format: FormatMP3}, nil
}

func (p *OpenAITTSProvider) Name() string {
	return "OpenAI TTS"
}

// formatSize provides a human-readable size
func formatSize(bytes int) string {
	if bytes < 1024 {
		return fmt.Sprintf("%d B", bytes)
	} else if bytes < 1024*1024 {
		return fmt.Sprintf("%.1f KB", float64(bytes)/1024)
	}
	return fmt.Sprintf("%.1f MB", float64(bytes)/(1024*1024))
}
