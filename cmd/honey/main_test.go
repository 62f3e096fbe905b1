package main

import (
	"bytes"
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/dooshek/honey/internal/archive"
	"github.com/dooshek/honey/internal/fileops"
	"github.com/dooshek/honey/internal/generation"
	"github.com/dooshek/honey/internal/prompt"
	"github.com/dooshek/honey/internal/store"
	"github.com/dooshek/honey/internal/types"
	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExitCode(t *testing.T) {
	assert.Equal(t, exitUsage, exitCode(prompt.ErrCategoryRequired))
	assert.Equal(t, exitFailure, exitCode(fmt.Errorf("%w: voice", generation.ErrValidation)))
	assert.Equal(t, exitFailure, exitCode(generation.ErrStore))
	assert.Equal(t, exitFailure, exitCode(errors.New("boom")))
}

func TestOpenStoreBackends(t *testing.T) {
	for _, backend := range []string{"json", "bolt"} {
		t.Run(backend, func(t *testing.T) {
			fileOps := fileops.NewFileOps(t.TempDir())
			require.NoError(t, fileOps.EnsureDirectories())
			cfg := &types.Config{Store: types.StoreConfig{Backend: backend}}

			st, closeStore, err := openStore(cfg, fileOps)
			require.NoError(t, err)
			defer closeStore()

			assert.Equal(t, store.Counts{Languages: 1, Voices: 2}, st.Counts())
			assert.FileExists(t, fileOps.DatabasePath(backend))
		})
	}

	_, _, err := openStore(&types.Config{Store: types.StoreConfig{Backend: "sqlite"}}, fileops.NewFileOps(t.TempDir()))
	require.Error(t, err)
}

func TestPrintHistory(t *testing.T) {
	color.NoColor = true
	dir := t.TempDir()

	st, err := store.Open(store.NewFilePersister(filepath.Join(dir, "db.json")))
	require.NoError(t, err)
	ar := archive.New(filepath.Join(dir, "texts.json"))

	var buf bytes.Buffer
	require.NoError(t, printHistory(&buf, st, ar, 5))
	assert.Contains(t, buf.String(), "No generations yet")

	name := "Sam"
	nameID, err := st.FindOrCreateName(&name, "male", 0)
	require.NoError(t, err)
	catID, err := st.FindOrCreateCategory("support", 0)
	require.NoError(t, err)
	for i, text := range []string{"first", "second", "third"} {
		id, err := st.AppendGeneration(store.GenerationRecord{
			VoiceID:     1,
			CategoryID:  catID,
			NameID:      nameID,
			AudioFile:   fmt.Sprintf("audio_files/%d.mp3", i),
			SymbolCount: len(text),
		})
		require.NoError(t, err)
		require.NoError(t, ar.AppendText(id, text))
	}

	buf.Reset()
	require.NoError(t, printHistory(&buf, st, ar, 2))
	out := buf.String()

	assert.NotContains(t, out, "#0 ")
	assert.Contains(t, out, "#1 ")
	assert.Contains(t, out, "#2 ")
	assert.Contains(t, out, "second")
	assert.Contains(t, out, "third")
	assert.NotContains(t, out, "first")
	assert.Contains(t, out, "Alex")
	assert.Contains(t, out, "Sam")
	assert.Contains(t, out, "audio_files/2.mp3")
}

func TestPrintResult(t *testing.T) {
	color.NoColor = true

	var buf bytes.Buffer
	printResult(&buf, &generation.Result{
		RecordID:    4,
		Voice:       store.Voice{Name: "Alice", Gender: "female"},
		AudioFile:   "audio_files/x.mp3",
		Text:        "Stay strong",
		SymbolCount: 11,
	})

	out := buf.String()
	assert.Contains(t, out, "record 4")
	assert.Contains(t, out, "Alice (female)")
	assert.Contains(t, out, "audio_files/x.mp3")
	assert.Contains(t, out, "11")
	assert.Contains(t, out, "Stay strong")
}
