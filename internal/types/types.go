package types

import "github.com/sashabaranov/go-openai"

type LLMProvider string

const (
	ProviderOpenAI LLMProvider = "openai"
	ProviderGroq   LLMProvider = "groq"
)

type TTSProvider string

const (
	TTSProviderElevenLabs TTSProvider = "elevenlabs"
	TTSProviderOpenAI     TTSProvider = "openai"
)

type StorageBackend string

const (
	StorageS3    StorageBackend = "s3"
	StorageNATS  StorageBackend = "nats"
	StorageLocal StorageBackend = "local"
)

type StoreBackend string

const (
	StoreJSON StoreBackend = "json"
	StoreBolt StoreBackend = "bolt"
)

// Credentials are read from the environment only and never written to honey.yaml
type Credentials struct {
	OpenAIKey     string
	GroqKey       string
	ElevenLabsKey string

	AWSAccessKeyID     string
	AWSSecretAccessKey string
	AWSRegion          string
	S3Bucket           string

	NATSURL string
}

// String keeps secrets out of log lines and panics
func (Credentials) String() string {
	return "<Credentials [REDACTED]>"
}

type LLMConfig struct {
	Provider    string  `yaml:"provider"`
	Model       string  `yaml:"model"`
	BaseURL     string  `yaml:"base_url"` // OpenAI-compatible endpoint, empty for the provider default
	Temperature float32 `yaml:"temperature"`
	MaxTokens   int     `yaml:"max_tokens"`
	MaxSymbols  int     `yaml:"max_symbols"` // upper bound on clip text length asked of the model
}

// TTSConfig holds configuration for speech synthesis
type TTSConfig struct {
	Provider   string              `yaml:"provider"` // "elevenlabs", "openai"
	Model      string              `yaml:"model"`
	Format     string              `yaml:"format"` // output format after transcoding: "mp3", "ogg", "opus", "wav"
	ElevenLabs TTSElevenLabsConfig `yaml:"elevenlabs"`
	OpenAI     TTSOpenAIConfig     `yaml:"openai"`
}

type TTSElevenLabsConfig struct {
	BaseURL         string   `yaml:"base_url"`
	Stability       *float64 `yaml:"stability"`
	SimilarityBoost *float64 `yaml:"similarity_boost"`
	Style           *float64 `yaml:"style"`
	UseSpeakerBoost *bool    `yaml:"use_speaker_boost"`
}

// TTSOpenAIConfig holds OpenAI TTS specific configuration
type TTSOpenAIConfig struct {
	BaseURL string  `yaml:"base_url"`
	Model   string  `yaml:"model"` // "tts-1" or "tts-1-hd"
	Speed   float64 `yaml:"speed"` // 0.25-4.0, default 1.0

	// Voices maps a voice gender from the record store to an OpenAI voice name
	Voices map[string]string `yaml:"voices"`
}

// DefaultOpenAIVoices returns the OpenAI voice used for each stored voice gender
func DefaultOpenAIVoices() map[string]string {
	return map[string]string{
		"female": "nova",
		"male":   "onyx",
	}
}

type StorageConfig struct {
	Backend    string `yaml:"backend"`
	Prefix     string `yaml:"prefix"`
	LocalDir   string `yaml:"local_dir"`
	NATSBucket string `yaml:"nats_bucket"`
}

type StoreConfig struct {
	Backend string `yaml:"backend"`
	DataDir string `yaml:"data_dir"`
}

type Config struct {
	LLM                LLMConfig     `yaml:"llm"`
	TTS                TTSConfig     `yaml:"tts"`
	Storage            StorageConfig `yaml:"storage"`
	Store              StoreConfig   `yaml:"store"`
	HTTPTimeoutSeconds int           `yaml:"http_timeout_seconds"`

	Credentials Credentials `yaml:"-"`
}

// GetLLMConfig returns text generation configuration with defaults
func (c *Config) GetLLMConfig() LLMConfig {
	config := c.LLM

	if config.Provider == "" {
		config.Provider = string(ProviderOpenAI)
	}
	if config.Model == "" {
		switch LLMProvider(config.Provider) {
		case ProviderGroq:
			config.Model = GroqModelLLama3_3_70B
		default:
			config.Model = OpenAIModelGPT4oMini
		}
	}
	if config.Temperature == 0 {
		config.Temperature = 0.7
	}
	if config.MaxTokens == 0 {
		config.MaxTokens = 400
	}
	if config.MaxSymbols == 0 {
		config.MaxSymbols = 400
	}

	return config
}

// GetTTSConfig returns TTS configuration with defaults
func (c *Config) GetTTSConfig() TTSConfig {
	config := c.TTS

	if config.Provider == "" {
		config.Provider = string(TTSProviderElevenLabs)
	}
	if config.Model == "" {
		config.Model = "eleven_multilingual_v2"
	}
	if config.Format == "" {
		config.Format = "mp3"
	}

	// Voice settings the clips were tuned with
	if config.ElevenLabs.BaseURL == "" {
		config.ElevenLabs.BaseURL = "https://api.elevenlabs.io/v1"
	}
	if config.ElevenLabs.Stability == nil {
		config.ElevenLabs.Stability = floatPtr(0.1)
	}
	if config.ElevenLabs.SimilarityBoost == nil {
		config.ElevenLabs.SimilarityBoost = floatPtr(0.3)
	}
	if config.ElevenLabs.Style == nil {
		config.ElevenLabs.Style = floatPtr(0.2)
	}
	if config.ElevenLabs.UseSpeakerBoost == nil {
		boost := true
		config.ElevenLabs.UseSpeakerBoost = &boost
	}

	if config.OpenAI.Model == "" {
		config.OpenAI.Model = "tts-1-hd"
	}
	if config.OpenAI.Speed == 0 {
		config.OpenAI.Speed = 1.0
	}
	if len(config.OpenAI.Voices) == 0 {
		config.OpenAI.Voices = DefaultOpenAIVoices()
	}

	return config
}

func floatPtr(v float64) *float64 {
	return &v
}

func (c *Config) GetStorageConfig() StorageConfig {
	config := c.Storage

	if config.Backend == "" {
		config.Backend = string(StorageS3)
	}
	if config.Prefix == "" {
		config.Prefix = "audio_files"
	}
	if config.NATSBucket == "" {
		config.NATSBucket = "honey-audio"
	}

	return config
}

func (c *Config) GetStoreConfig() StoreConfig {
	config := c.Store
	if config.Backend == "" {
		config.Backend = string(StoreJSON)
	}
	return config
}

func (c *Config) GetHTTPTimeoutSeconds() int {
	if c.HTTPTimeoutSeconds <= 0 {
		return 120
	}
	return c.HTTPTimeoutSeconds
}

const (
	OpenAIModelGPT4oMini string = string(openai.GPT4oMini)
	OpenAIModelGPT4o     string = string(openai.GPT4o)
)

// Groq LLM Models
const (
	GroqModelLLama3_1_8B  string = "llama-3.1-8b-instant"
	GroqModelLLama3_3_70B string = "llama-3.3-70b-versatile"
	GroqModelGemma2_9B    string = "gemma2-9b-it"
)
