// Package generation runs one personalized clip generation end to end: resolve
// language and voice, generate text, synthesize and upload audio, then record
// the generation in the store and the text archive.
package generation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/dooshek/honey/internal/archive"
	"github.com/dooshek/honey/internal/llm"
	"github.com/dooshek/honey/internal/logger"
	"github.com/dooshek/honey/internal/storage"
	"github.com/dooshek/honey/internal/store"
	"github.com/dooshek/honey/internal/tts"
)

var (
	// ErrValidation wraps store.ErrNotFound for an unknown language or voice.
	ErrValidation = errors.New("validation error")

	// ErrExternalService covers text generation, synthesis, transcoding and upload.
	ErrExternalService = errors.New("external service error")

	// ErrStore covers reading or writing the record store and text archive.
	ErrStore = errors.New("store error")
)

type TextGenerator interface {
	GenerateText(ctx context.Context, p llm.Personalization) (string, error)
}

type Synthesizer interface {
	Synthesize(ctx context.Context, text string, voice tts.Voice) (*tts.Audio, error)
}

type Transcoder interface {
	Transcode(ctx context.Context, in *tts.Audio, format tts.AudioFormat) (*tts.Audio, error)
}

// KeyFunc returns the storage key for a clip with the given file extension
type KeyFunc func(ext string) string

// Request is one generation as entered by the operator
type Request struct {
	Language    string
	VoiceGender string
	UserName    *string
	UserGender  *string
	Category    string
}

// Result describes a committed generation
type Result struct {
	RecordID    int
	Language    store.Language
	Voice       store.Voice
	NameID      *int
	CategoryID  int
	AudioFile   string
	Text        string
	SymbolCount int
}

type Service struct {
	store   *store.Store
	archive *archive.Archive
	text    TextGenerator
	speech  Synthesizer
	audio   storage.AudioStore

	transcoder Transcoder
	format     tts.AudioFormat
	newKey     KeyFunc
}

// New returns a service storing clips under "audio_files/<uuid><ext>"
func New(st *store.Store, ar *archive.Archive, text TextGenerator, speech Synthesizer, audio storage.AudioStore) *Service {
	return &Service{
		store:   st,
		archive: ar,
		text:    text,
		speech:  speech,
		audio:   audio,
		newKey: func(ext string) string {
			return storage.ObjectKey("audio_files", ext)
		},
	}
}

// WithTranscoder converts synthesized audio to format before upload
func (s *Service) WithTranscoder(t Transcoder, format tts.AudioFormat) *Service {
	s.transcoder = t
	s.format = format
	return s
}

func (s *Service) WithKeyFunc(fn KeyFunc) *Service {
	s.newKey = fn
	return s
}

// Generate runs every step in order. Nothing is written to the record store
// or the archive unless all external steps succeed.
func (s *Service) Generate(ctx context.Context, req Request) (*Result, error) {
	req = withDefaults(req)
	if req.Category == "" {
		return nil, fmt.Errorf("category is required: %w", ErrValidation)
	}

	language, err := s.store.LookupLanguage(req.Language)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrValidation, err)
	}

	voice, err := s.store.LookupVoice(req.VoiceGender, language.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrValidation, err)
	}
	logger.Debugf("Using voice %s (%s) for %s", voice.Name, voice.ExternalVoiceHandle, language.Name)

	text, err := s.text.GenerateText(ctx, llm.Personalization{
		Language:     language.Name,
		LanguageCode: language.Code,
		UserName:     req.UserName,
		UserGender:   req.UserGender,
		Category:     req.Category,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: text generation: %w", ErrExternalService, err)
	}
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: text generation: %w", ErrExternalService, llm.ErrEmptyText)
	}

	audioFile, err := s.produceAudio(ctx, text, voice)
	if err != nil {
		return nil, err
	}

	gender := ""
	if req.UserGender != nil {
		gender = *req.UserGender
	}
	nameID, err := s.store.FindOrCreateName(req.UserName, gender, language.ID)
	if err != nil {
		return nil, s.orphaned(audioFile, err)
	}
	categoryID, err := s.store.FindOrCreateCategory(req.Category, language.ID)
	if err != nil {
		return nil, s.orphaned(audioFile, err)
	}

	symbols := utf8.RuneCountInString(text)
	recordID, err := s.store.AppendGeneration(store.GenerationRecord{
		VoiceID:     voice.ID,
		CategoryID:  categoryID,
		NameID:      nameID,
		LanguageID:  language.ID,
		AudioFile:   audioFile,
		SymbolCount: symbols,
	})
	if err != nil {
		return nil, s.orphaned(audioFile, err)
	}
	if err := s.store.Save(); err != nil {
		return nil, s.orphaned(audioFile, err)
	}
	if err := s.archive.AppendText(recordID, text); err != nil {
		return nil, fmt.Errorf("%w: record %d saved but text not archived: %w", ErrStore, recordID, err)
	}

	logger.Generation(recordID, audioFile, symbols)

	return &Result{
		RecordID:    recordID,
		Language:    language,
		Voice:       voice,
		NameID:      nameID,
		CategoryID:  categoryID,
		AudioFile:   audioFile,
		Text:        text,
		SymbolCount: symbols,
	}, nil
}

// produceAudio synthesizes text, converts it when a format is configured and
// uploads it, returning the storage reference.
func (s *Service) produceAudio(ctx context.Context, text string, voice store.Voice) (string, error) {
	audio, err := s.speech.Synthesize(ctx, text, tts.Voice{
		Handle: voice.ExternalVoiceHandle,
		Gender: voice.Gender,
	})
	if err != nil {
		return "", fmt.Errorf("%w: speech synthesis: %w", ErrExternalService, err)
	}

	if s.transcoder != nil && s.format != "" {
		audio, err = s.transcoder.Transcode(ctx, audio, s.format)
		if err != nil {
			return "", fmt.Errorf("%w: transcode: %w", ErrExternalService, err)
		}
	}

	key := s.newKey(audio.Format.Extension())
	ref, err := s.audio.Upload(ctx, key, audio.Data, audio.Format.ContentType())
	if err != nil {
		return "", fmt.Errorf("%w: upload: %w", ErrExternalService, err)
	}

	logger.Infof("Uploaded %d bytes of audio as %s", len(audio.Data), ref)
	return ref, nil
}

// orphaned reports a store failure that left an uploaded clip unreferenced
func (s *Service) orphaned(audioFile string, err error) error {
	logger.Warnf("Uploaded audio %s is not referenced by any record: %v", audioFile, err)
	return fmt.Errorf("%w: %w", ErrStore, err)
}

func withDefaults(req Request) Request {
	req.Language = strings.TrimSpace(req.Language)
	if req.Language == "" {
		req.Language = store.DefaultLanguage
	}
	req.VoiceGender = strings.ToLower(strings.TrimSpace(req.VoiceGender))
	if req.VoiceGender == "" {
		req.VoiceGender = store.DefaultVoiceGender
	}
	req.Category = strings.TrimSpace(req.Category)
	return req
}
