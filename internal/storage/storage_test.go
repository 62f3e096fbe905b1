package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dooshek/honey/internal/types"
	"github.com/google/uuid"
	"github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats-server/v2/test"
	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObjectKey(t *testing.T) {
	key := ObjectKey("audio_files", ".mp3")
	require.True(t, strings.HasPrefix(key, "audio_files/"))
	require.True(t, strings.HasSuffix(key, ".mp3"))

	id := strings.TrimSuffix(strings.TrimPrefix(key, "audio_files/"), ".mp3")
	_, err := uuid.Parse(id)
	assert.NoError(t, err)

	assert.NotEqual(t, key, ObjectKey("audio_files", ".mp3"))
	assert.False(t, strings.Contains(ObjectKey("", ".ogg"), "/"))
	assert.True(t, strings.HasPrefix(ObjectKey("/clips/", ".ogg"), "clips/"))
}

func TestLocalStoreUpload(t *testing.T) {
	dir := t.TempDir()
	s := NewLocalStore(dir)

	ref, err := s.Upload(context.Background(), "audio_files/a.mp3", []byte("mp3"), "audio/mpeg")
	require.NoError(t, err)
	assert.Equal(t, "audio_files/a.mp3", ref)

	data, err := os.ReadFile(filepath.Join(dir, "audio_files", "a.mp3"))
	require.NoError(t, err)
	assert.Equal(t, []byte("mp3"), data)
}

func TestLocalStoreRejectsEscapingKey(t *testing.T) {
	s := NewLocalStore(t.TempDir())

	_, err := s.Upload(context.Background(), "../outside.mp3", []byte("x"), "audio/mpeg")
	require.Error(t, err)
}

func TestLocalStoreCanceledContext(t *testing.T) {
	dir := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewLocalStore(dir).Upload(ctx, "a.mp3", []byte("x"), "audio/mpeg")
	require.ErrorIs(t, err, context.Canceled)
	assert.NoFileExists(t, filepath.Join(dir, "a.mp3"))
}

func startNATS(t *testing.T) *server.Server {
	t.Helper()

	opts := test.DefaultTestOptions
	opts.Port = -1
	opts.JetStream = true
	opts.StoreDir = t.TempDir()
	srv := test.RunServer(&opts)
	t.Cleanup(srv.Shutdown)
	return srv
}

func TestNATSStoreUploadDownload(t *testing.T) {
	srv := startNATS(t)

	conn, err := nats.Connect(srv.ClientURL())
	require.NoError(t, err)
	defer conn.Close()

	js, err := conn.JetStream()
	require.NoError(t, err)

	s, err := NewNATSStore(js, "clips")
	require.NoError(t, err)

	ctx := context.Background()
	ref, err := s.Upload(ctx, "audio_files/a.mp3", []byte("hello"), "audio/mpeg")
	require.NoError(t, err)
	assert.Equal(t, "audio_files/a.mp3", ref)

	data, err := s.Download(ctx, ref)
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), data)

	// Binding a second time reuses the bucket.
	again, err := NewNATSStore(js, "clips")
	require.NoError(t, err)
	data, err = again.Download(ctx, ref)
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), data)
}

func TestNewFromConfig(t *testing.T) {
	srv := startNATS(t)
	ctx := context.Background()

	s, closeFn, err := New(ctx, types.StorageConfig{Backend: "nats", NATSBucket: "honey-audio"},
		types.Credentials{NATSURL: srv.ClientURL()}, "")
	require.NoError(t, err)
	defer closeFn()
	assert.IsType(t, &NATSStore{}, s)

	dir := t.TempDir()
	s, closeFn, err = New(ctx, types.StorageConfig{Backend: "local"}, types.Credentials{}, dir)
	require.NoError(t, err)
	closeFn()
	assert.Equal(t, dir, s.(*LocalStore).Path)

	_, _, err = New(ctx, types.StorageConfig{Backend: "s3"}, types.Credentials{}, "")
	require.Error(t, err)

	s, _, err = New(ctx, types.StorageConfig{Backend: "s3"}, types.Credentials{
		AWSRegion: "eu-west-1",
		S3Bucket:  "honey",
	}, "")
	require.NoError(t, err)
	assert.Equal(t, "honey", s.(*S3Store).bucket)

	_, _, err = New(ctx, types.StorageConfig{Backend: "ftp"}, types.Credentials{}, "")
	require.Error(t, err)
}
