// Package audio converts synthesized clips between container formats.
package audio

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"time"

	"github.com/dooshek/honey/internal/logger"
	"github.com/dooshek/honey/internal/tts"
	ffmpeg "github.com/u2takey/ffmpeg-go"
)

var (
	ErrFFmpegNotInstalled = errors.New("FFmpeg is not installed. Please install FFmpeg or set tts.format to mp3")
	ErrUnsupportedFormat  = errors.New("unsupported audio format")
)

func init() {
	ffmpeg.LogCompiledCommand = false
}

// outputArgs maps a target format to ffmpeg muxer and codec arguments
var outputArgs = map[tts.AudioFormat]ffmpeg.KwArgs{
	tts.FormatMP3:  {"format": "mp3", "acodec": "libmp3lame", "b:a": "128k"},
	tts.FormatOGG:  {"format": "ogg", "acodec": "libvorbis", "q:a": "5"},
	tts.FormatOpus: {"format": "ogg", "acodec": "libopus", "b:a": "64k"},
	tts.FormatWAV:  {"format": "wav", "acodec": "pcm_s16le"},
	tts.FormatFLAC: {"format": "flac"},
	tts.FormatAAC:  {"format": "adts", "acodec": "aac", "b:a": "128k"},
}

// Transcoder pipes audio through the ffmpeg binary
type Transcoder struct {
	lookPath func(string) (string, error)
}

func NewTranscoder() *Transcoder {
	return &Transcoder{lookPath: exec.LookPath}
}

// Transcode returns in converted to format. Audio already in format is
// returned unchanged without touching ffmpeg.
func (t *Transcoder) Transcode(ctx context.Context, in *tts.Audio, format tts.AudioFormat) (*tts.Audio, error) {
	if format == "" || format == in.Format {
		return in, nil
	}

	args, ok := outputArgs[format]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}
	if _, err := t.lookPath("ffmpeg"); err != nil {
		return nil, ErrFFmpegNotInstalled
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out := make(ffmpeg.KwArgs, len(args)+1)
	for k, v := range args {
		out[k] = v
	}
	out["loglevel"] = "error"

	var stdout, stderr bytes.Buffer
	start := time.Now()
	err := ffmpeg.Input("pipe:", ffmpeg.KwArgs{"format": string(in.Format)}).
		Output("pipe:", out).
		WithInput(bytes.NewReader(in.Data)).
		WithOutput(&stdout).
		WithErrorOutput(&stderr).
		Run()
	if err != nil {
		return nil, fmt.Errorf("ffmpeg %s -> %s failed: %w: %s", in.Format, format, err, bytes.TrimSpace(stderr.Bytes()))
	}

	logger.Debugf("Transcoded %d bytes of %s to %d bytes of %s in %d ms",
		len(in.Data), in.Format, stdout.Len(), format, time.Since(start).Milliseconds())

	return &tts.Audio{Data: stdout.Bytes(), Format: format}, nil
}
