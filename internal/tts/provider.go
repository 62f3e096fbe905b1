package tts

import (
	"context"
)

// Provider defines the interface for text-to-speech providers
type Provider interface {
	// Synthesize converts text to speech in the given voice
	Synthesize(ctx context.Context, text string, voice Voice) (*Audio, error)

	// Name returns the name of the provider
	Name() string
}

// Voice is a stored voice as seen by a provider. Handle is the external voice
// id kept in the record store; providers that do not share those ids pick a
// voice by Gender.
type Voice struct {
	Handle string
	Gender string
}

// AudioFormat represents supported audio formats
type AudioFormat string

const (
	FormatMP3  AudioFormat = "mp3"
	FormatOpus AudioFormat = "opus"
	FormatOGG  AudioFormat = "ogg"
	FormatAAC  AudioFormat = "aac"
	FormatFLAC AudioFormat = "flac"
	FormatWAV  AudioFormat = "wav"
)

// ContentType returns the MIME type used when uploading the format
func (f AudioFormat) ContentType() string {
	switch f {
	case FormatMP3:
		return "audio/mpeg"
	case FormatOpus, FormatOGG:
		return "audio/ogg"
	case FormatAAC:
		return "audio/aac"
	case FormatFLAC:
		return "audio/flac"
	case FormatWAV:
		return "audio/wav"
	default:
		return "application/octet-stream"
	}
}

// Extension returns the file extension including the dot
func (f AudioFormat) Extension() string {
	if f == "" {
		return ".bin"
	}
	return "." + string(f)
}

// Audio is a synthesized clip
type Audio struct {
	Data   []byte
	Format AudioFormat
}
