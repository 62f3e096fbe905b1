package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/dooshek/honey/internal/fileops"
	"github.com/dooshek/honey/internal/logger"
	"github.com/dooshek/honey/internal/types"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	configFilename = "honey.yaml"
)

// LoadConfig reads honey.yaml from the config directory. It returns nil, nil
// when no config has been written yet.
func LoadConfig(fileOps fileops.FileOps) (*types.Config, error) {
	if err := fileOps.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("failed to create directories: %w", err)
	}

	data, err := fileOps.LoadConfig(configFilename)
	if err != nil {
		if errors.Is(err, fileops.ErrConfigNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config types.Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return &config, nil
}

func SaveConfig(fileOps fileops.FileOps, config *types.Config) error {
	existingConfig, err := LoadConfig(fileOps)
	if err != nil {
		logger.Warnf("Failed to load existing config: %v", err)
	} else if existingConfig != nil {
		mergeConfigs(existingConfig, config)
		config = existingConfig
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := fileOps.SaveConfig(configFilename, data); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	return nil
}

// LoadEnv loads KEY=VALUE pairs from the given dotenv files into the process
// environment. Missing files are skipped, variables already set win.
func LoadEnv(filenames ...string) error {
	for _, name := range filenames {
		if err := godotenv.Load(name); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("failed to load %s: %w", name, err)
		}
		logger.Debugf("Loaded environment from %s", name)
	}
	return nil
}

// ApplyEnv fills the credentials of config from the environment
func ApplyEnv(config *types.Config) {
	config.Credentials = types.Credentials{
		OpenAIKey:          os.Getenv("OPENAI_API_KEY"),
		GroqKey:            os.Getenv("GROQ_API_KEY"),
		ElevenLabsKey:      os.Getenv("ELEVENLABS_API_KEY"),
		AWSAccessKeyID:     os.Getenv("AWS_ACCESS_KEY_ID"),
		AWSSecretAccessKey: os.Getenv("AWS_SECRET_ACCESS_KEY"),
		AWSRegion:          os.Getenv("AWS_REGION_NAME"),
		S3Bucket:           os.Getenv("AWS_S3_BUCKET_NAME"),
		NATSURL:            os.Getenv("NATS_URL"),
	}
}

// mergeConfigs merges sourceConfig into targetConfig, keeping target values
// that are not explicitly set in sourceConfig
func mergeConfigs(targetConfig, sourceConfig *types.Config) {
	if sourceConfig.LLM.Provider != "" {
		targetConfig.LLM.Provider = sourceConfig.LLM.Provider
	}
	if sourceConfig.LLM.Model != "" {
		targetConfig.LLM.Model = sourceConfig.LLM.Model
	}
	if sourceConfig.LLM.BaseURL != "" {
		targetConfig.LLM.BaseURL = sourceConfig.LLM.BaseURL
	}
	if sourceConfig.LLM.Temperature != 0 {
		targetConfig.LLM.Temperature = sourceConfig.LLM.Temperature
	}
	if sourceConfig.LLM.MaxTokens != 0 {
		targetConfig.LLM.MaxTokens = sourceConfig.LLM.MaxTokens
	}
	if sourceConfig.LLM.MaxSymbols != 0 {
		targetConfig.LLM.MaxSymbols = sourceConfig.LLM.MaxSymbols
	}

	if sourceConfig.TTS.Provider != "" {
		targetConfig.TTS.Provider = sourceConfig.TTS.Provider
	}
	if sourceConfig.TTS.Model != "" {
		targetConfig.TTS.Model = sourceConfig.TTS.Model
	}
	if sourceConfig.TTS.Format != "" {
		targetConfig.TTS.Format = sourceConfig.TTS.Format
	}
	if sourceConfig.TTS.ElevenLabs.BaseURL != "" {
		targetConfig.TTS.ElevenLabs.BaseURL = sourceConfig.TTS.ElevenLabs.BaseURL
	}
	if sourceConfig.TTS.ElevenLabs.Stability != nil {
		targetConfig.TTS.ElevenLabs.Stability = sourceConfig.TTS.ElevenLabs.Stability
	}
	if sourceConfig.TTS.ElevenLabs.SimilarityBoost != nil {
		targetConfig.TTS.ElevenLabs.SimilarityBoost = sourceConfig.TTS.ElevenLabs.SimilarityBoost
	}
	if sourceConfig.TTS.ElevenLabs.Style != nil {
		targetConfig.TTS.ElevenLabs.Style = sourceConfig.TTS.ElevenLabs.Style
	}
	if sourceConfig.TTS.ElevenLabs.UseSpeakerBoost != nil {
		targetConfig.TTS.ElevenLabs.UseSpeakerBoost = sourceConfig.TTS.ElevenLabs.UseSpeakerBoost
	}
	if sourceConfig.TTS.OpenAI.Model != "" {
		targetConfig.TTS.OpenAI.Model = sourceConfig.TTS.OpenAI.Model
	}
	if sourceConfig.TTS.OpenAI.Speed != 0 {
		targetConfig.TTS.OpenAI.Speed = sourceConfig.TTS.OpenAI.Speed
	}
	if sourceConfig.TTS.OpenAI.BaseURL != "" {
		targetConfig.TTS.OpenAI.BaseURL = sourceConfig.TTS.OpenAI.BaseURL
	}
	if len(sourceConfig.TTS.OpenAI.Voices) > 0 {
		targetConfig.TTS.OpenAI.Voices = sourceConfig.TTS.OpenAI.Voices
	}

	if sourceConfig.Storage.Backend != "" {
		targetConfig.Storage.Backend = sourceConfig.Storage.Backend
	}
	if sourceConfig.Storage.Prefix != "" {
		targetConfig.Storage.Prefix = sourceConfig.Storage.Prefix
	}
	if sourceConfig.Storage.LocalDir != "" {
		targetConfig.Storage.LocalDir = sourceConfig.Storage.LocalDir
	}
	if sourceConfig.Storage.NATSBucket != "" {
		targetConfig.Storage.NATSBucket = sourceConfig.Storage.NATSBucket
	}

	if sourceConfig.Store.Backend != "" {
		targetConfig.Store.Backend = sourceConfig.Store.Backend
	}
	if sourceConfig.Store.DataDir != "" {
		targetConfig.Store.DataDir = sourceConfig.Store.DataDir
	}

	if sourceConfig.HTTPTimeoutSeconds != 0 {
		targetConfig.HTTPTimeoutSeconds = sourceConfig.HTTPTimeoutSeconds
	}
}
