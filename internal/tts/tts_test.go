package tts

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/dooshek/honey/internal/store"
	"github.com/dooshek/honey/internal/types"
	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestElevenLabsSynthesize(t *testing.T) {
	var got elevenlabsRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/text-to-speech/K8lgMMdmFr7QoEooafEf", r.URL.Path)
		assert.Equal(t, "mp3_44100_128", r.URL.Query().Get("output_format"))
		assert.Equal(t, "el-key", r.Header.Get("xi-api-key"))

		body, err := io.ReadAll(r.Body)
		assert.NoError(t, err)
		assert.NoError(t, json.Unmarshal(body, &got))

		w.Header().Set("Content-Type", "audio/mpeg")
		w.Write([]byte("ID3-fake-mp3"))
	}))
	defer srv.Close()

	cfg := (&types.Config{}).GetTTSConfig()
	p := NewElevenLabsProvider(" el-key\n", ElevenLabsConfig{
		BaseURL:         srv.URL + "/v1",
		Model:           cfg.Model,
		Stability:       *cfg.ElevenLabs.Stability,
		SimilarityBoost: *cfg.ElevenLabs.SimilarityBoost,
		Style:           *cfg.ElevenLabs.Style,
		UseSpeakerBoost: true,
	}, srv.Client())

	audio, err := p.Synthesize(context.Background(), "Stay strong", Voice{Handle: "K8lgMMdmFr7QoEooafEf", Gender: "female"})
	require.NoError(t, err)

	assert.Equal(t, []byte("ID3-fake-mp3"), audio.Data)
	assert.Equal(t, FormatMP3, audio.Format)
	assert.Equal(t, "Stay strong", got.Text)
	assert.Equal(t, "eleven_multilingual_v2", got.ModelID)
	assert.InEpsilon(t, 0.1, got.VoiceSettings.Stability, 0.001)
	assert.InEpsilon(t, 0.3, got.VoiceSettings.SimilarityBoost, 0.001)
	assert.InEpsilon(t, 0.2, got.VoiceSettings.Style, 0.001)
	assert.True(t, got.VoiceSettings.UseSpeakerBoost)
}

func TestElevenLabsAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"detail":{"status":"invalid_api_key","message":"Invalid API key"}}`))
	}))
	defer srv.Close()

	p := NewElevenLabsProvider("bad", ElevenLabsConfig{BaseURL: srv.URL}, srv.Client())

	_, err := p.Synthesize(context.Background(), "hi", Voice{Handle: "voice"})
	require.Error(t, err)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	assert.Equal(t, "Invalid API key", apiErr.Message)
}

func TestElevenLabsAPIErrorPlainDetail(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"detail":"text too long"}`))
	}))
	defer srv.Close()

	_, err := NewElevenLabsProvider("k", ElevenLabsConfig{BaseURL: srv.URL}, nil).
		Synthesize(context.Background(), "hi", Voice{Handle: "voice"})

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "text too long", apiErr.Message)
}

type stubProvider struct {
	audio *Audio
	err   error
}

func (s stubProvider) Synthesize(context.Context, string, Voice) (*Audio, error) {
	return s.audio, s.err
}

func (stubProvider) Name() string { return "stub" }

func TestManagerValidatesInput(t *testing.T) {
	m := NewManagerWithProvider(stubProvider{audio: &Audio{Data: []byte("x"), Format: FormatMP3}})

	_, err := m.Synthesize(context.Background(), "", Voice{Handle: "voice"})
	require.ErrorIs(t, err, ErrTextRequired)

	_, err = m.Synthesize(context.Background(), "text", Voice{Gender: "female"})
	require.ErrorIs(t, err, ErrVoiceRequired)

	audio, err := m.Synthesize(context.Background(), "text", Voice{Handle: "voice"})
	require.NoError(t, err)
	assert.Equal(t, []byte("x"), audio.Data)
}

func TestManagerRejectsEmptyAudio(t *testing.T) {
	m := NewManagerWithProvider(stubProvider{audio: &Audio{Format: FormatMP3}})

	_, err := m.Synthesize(context.Background(), "text", Voice{Handle: "voice"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no audio")
}

func TestNewManager(t *testing.T) {
	cfg := (&types.Config{}).GetTTSConfig()

	_, err := NewManager(cfg, types.Credentials{}, nil)
	require.Error(t, err)

	m, err := NewManager(cfg, types.Credentials{ElevenLabsKey: "k"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "ElevenLabs", m.ProviderName())

	cfg.Provider = "openai"
	m, err = NewManager(cfg, types.Credentials{OpenAIKey: "k"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "OpenAI TTS", m.ProviderName())

	cfg.Provider = "espeak"
	_, err = NewManager(cfg, types.Credentials{}, nil)
	require.Error(t, err)
}

func TestAudioFormat(t *testing.T) {
	assert.Equal(t, "audio/mpeg", FormatMP3.ContentType())
	assert.Equal(t, "audio/ogg", FormatOpus.ContentType())
	assert.Equal(t, ".wav", FormatWAV.Extension())
	assert.Equal(t, ".bin", AudioFormat("").Extension())
}

// speechServer serves /audio/speech and records every request body
func speechServer(t *testing.T, got *[]openai.CreateSpeechRequest) *httptest.Server {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/audio/speech", r.URL.Path)
		assert.Equal(t, "Bearer oa-key", r.Header.Get("Authorization"))

		var req openai.CreateSpeechRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		*got = append(*got, req)

		w.Header().Set("Content-Type", "audio/mpeg")
		w.Write([]byte("ID3-openai"))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestOpenAISynthesizeSeededVoices(t *testing.T) {
	var got []openai.CreateSpeechRequest
	srv := speechServer(t, &got)

	st, err := store.Open(store.NewFilePersister(filepath.Join(t.TempDir(), "db.json")))
	require.NoError(t, err)

	cfg := (&types.Config{TTS: types.TTSConfig{
		Provider: "openai",
		OpenAI:   types.TTSOpenAIConfig{BaseURL: srv.URL + "/v1"},
	}}).GetTTSConfig()
	m, err := NewManager(cfg, types.Credentials{OpenAIKey: "oa-key"}, srv.Client())
	require.NoError(t, err)

	for _, gender := range []string{"female", "male"} {
		v, err := st.LookupVoice(gender, 0)
		require.NoError(t, err)

		audio, err := m.Synthesize(context.Background(), "Stay strong", Voice{
			Handle: v.ExternalVoiceHandle,
			Gender: v.Gender,
		})
		require.NoError(t, err)
		assert.Equal(t, []byte("ID3-openai"), audio.Data)
		assert.Equal(t, FormatMP3, audio.Format)
	}

	require.Len(t, got, 2)
	assert.Equal(t, openai.VoiceNova, got[0].Voice)
	assert.Equal(t, openai.VoiceOnyx, got[1].Voice)
	for _, req := range got {
		assert.Equal(t, openai.SpeechModel("tts-1-hd"), req.Model)
		assert.Equal(t, "Stay strong", req.Input)
		assert.Equal(t, openai.SpeechResponseFormatMp3, req.ResponseFormat)
		assert.InEpsilon(t, 1.0, req.Speed, 0.001)
	}
}

func TestOpenAISynthesizeVoiceMapping(t *testing.T) {
	var got []openai.CreateSpeechRequest
	srv := speechServer(t, &got)

	p := NewOpenAITTSProvider("oa-key", OpenAIConfig{
		BaseURL: srv.URL + "/v1",
		Model:   "tts-1",
		Speed:   1.25,
		Voices:  map[string]string{"female": "shimmer"},
	}, srv.Client())

	_, err := p.Synthesize(context.Background(), "hi", Voice{Handle: "K8lgMMdmFr7QoEooafEf", Gender: "Female"})
	require.NoError(t, err)
	// No mapping for the gender, so the handle is used as the voice name.
	_, err = p.Synthesize(context.Background(), "hi", Voice{Handle: "echo", Gender: "male"})
	require.NoError(t, err)

	require.Len(t, got, 2)
	assert.Equal(t, openai.VoiceShimmer, got[0].Voice)
	assert.Equal(t, openai.SpeechVoice("echo"), got[1].Voice)
	assert.Equal(t, openai.SpeechModel("tts-1"), got[0].Model)
	assert.InEpsilon(t, 1.25, got[0].Speed, 0.001)
}

func TestOpenAISynthesizeAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":{"message":"Invalid voice","type":"invalid_request_error"}}`))
	}))
	defer srv.Close()

	p := NewOpenAITTSProvider("oa-key", OpenAIConfig{BaseURL: srv.URL + "/v1"}, srv.Client())

	_, err := p.Synthesize(context.Background(), "hi", Voice{Handle: "x", Gender: "female"})
	require.Error(t, err)

	var apiErr *openai.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.HTTPStatusCode)
}

func TestElevenLabsZeroVoiceSettings(t *testing.T) {
	var got elevenlabsRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Write([]byte("mp3"))
	}))
	defer srv.Close()

	zero := 0.0
	cfg := (&types.Config{TTS: types.TTSConfig{ElevenLabs: types.TTSElevenLabsConfig{
		BaseURL:   srv.URL,
		Stability: &zero,
		Style:     &zero,
	}}}).GetTTSConfig()
	m, err := NewManager(cfg, types.Credentials{ElevenLabsKey: "k"}, srv.Client())
	require.NoError(t, err)

	_, err = m.Synthesize(context.Background(), "hi", Voice{Handle: "voice"})
	require.NoError(t, err)

	assert.Zero(t, got.VoiceSettings.Stability)
	assert.Zero(t, got.VoiceSettings.Style)
	assert.InEpsilon(t, 0.3, got.VoiceSettings.SimilarityBoost, 0.001)
}
