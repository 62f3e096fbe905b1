package tts

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/dooshek/honey/internal/logger"
	"github.com/dooshek/honey/internal/types"
)

var (
	ErrTextRequired  = errors.New("text cannot be empty")
	ErrVoiceRequired = errors.New("voice handle cannot be empty")
)

// Manager wraps the configured TTS provider
type Manager struct {
	provider Provider
}

// NewManager creates a Manager for the provider named in config
func NewManager(config types.TTSConfig, creds types.Credentials, httpClient *http.Client) (*Manager, error) {
	provider, err := createProvider(config, creds, httpClient)
	if err != nil {
		return nil, fmt.Errorf("failed to create TTS provider: %w", err)
	}

	logger.Debugf("Initialized TTS Manager with provider: %s", provider.Name())

	return NewManagerWithProvider(provider), nil
}

func NewManagerWithProvider(provider Provider) *Manager {
	return &Manager{provider: provider}
}

// Synthesize converts text to speech with the given voice
func (m *Manager) Synthesize(ctx context.Context, text string, voice Voice) (*Audio, error) {
	if text == "" {
		return nil, ErrTextRequired
	}
	if voice.Handle == "" {
		return nil, ErrVoiceRequired
	}

	audio, err := m.provider.Synthesize(ctx, text, voice)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", m.provider.Name(), err)
	}
	if len(audio.Data) == 0 {
		return nil, fmt.Errorf("%s returned no audio", m.provider.Name())
	}
	return audio, nil
}

// ProviderName returns the name of the current provider
func (m *Manager) ProviderName() string {
	return m.provider.Name()
}

func createProvider(config types.TTSConfig, creds types.Credentials, httpClient *http.Client) (Provider, error) {
	switch types.TTSProvider(config.Provider) {
	case types.TTSProviderElevenLabs:
		if creds.ElevenLabsKey == "" {
			return nil, fmt.Errorf("ELEVENLABS_API_KEY is required for the ElevenLabs TTS provider")
		}
		return NewElevenLabsProvider(creds.ElevenLabsKey, ElevenLabsConfig{
			BaseURL:         config.ElevenLabs.BaseURL,
			Model:           config.Model,
			Stability:       valueOr(config.ElevenLabs.Stability, 0.1),
			SimilarityBoost: valueOr(config.ElevenLabs.SimilarityBoost, 0.3),
			Style:           valueOr(config.ElevenLabs.Style, 0.2),
			UseSpeakerBoost: config.ElevenLabs.UseSpeakerBoost == nil || *config.ElevenLabs.UseSpeakerBoost,
		}, httpClient), nil

	case types.TTSProviderOpenAI:
		if creds.OpenAIKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY is required for the OpenAI TTS provider")
		}
		return NewOpenAITTSProvider(creds.OpenAIKey, OpenAIConfig{
			BaseURL: config.OpenAI.BaseURL,
			Model:   config.OpenAI.Model,
			Speed:   config.OpenAI.Speed,
			Voices:  config.OpenAI.Voices,
		}, httpClient), nil

	default:
		return nil, fmt.Errorf("unsupported TTS provider: %s (supported: elevenlabs, openai)", config.Provider)
	}
}

func valueOr(v *float64, def float64) float64 {
	if v == nil {
		return def
	}
	return *v
}
