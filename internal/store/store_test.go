package store

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dooshek/honey/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	logger.SetLevel("error")
}

func openTestStore(t *testing.T) (*Store, string) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "db.json")
	s, err := Open(NewFilePersister(path))
	require.NoError(t, err)
	return s, path
}

func strptr(s string) *string { return &s }

func TestOpenSeedsNewStore(t *testing.T) {
	s, path := openTestStore(t)

	assert.Equal(t, Counts{Languages: 1, Voices: 2}, s.Counts())
	assert.FileExists(t, path)

	var doc Document
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Equal(t, "English", doc.Languages[0].Name)
	assert.Len(t, doc.Voices, 2)
	assert.NotNil(t, doc.Generations)
}

func TestOpenLoadsExistingVerbatim(t *testing.T) {
	path := filepath.Join(t.TempDir(), "db.json")
	doc := SeedDocument()
	doc.Languages = append(doc.Languages, Language{ID: 1, Name: "Polski", Code: "pl"})
	doc.Voices = append(doc.Voices, Voice{ID: 2, Name: "Zofia", ExternalVoiceHandle: "pl-f", Gender: GenderFemale, LanguageID: 1})
	doc.Sequences.Languages = 2
	doc.Sequences.Voices = 3
	data, err := json.Marshal(doc)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0o644))

	s, err := Open(NewFilePersister(path))
	require.NoError(t, err)

	lang, err := s.LookupLanguage("polski")
	require.NoError(t, err)
	assert.Equal(t, 1, lang.ID)

	voice, err := s.LookupVoice("FEMALE", lang.ID)
	require.NoError(t, err)
	assert.Equal(t, "pl-f", voice.ExternalVoiceHandle)
}

func TestOpenTreatsEmptyFileAsMissing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "db.json")
	require.NoError(t, os.WriteFile(path, nil, 0o644))

	s, err := Open(NewFilePersister(path))
	require.NoError(t, err)
	assert.Equal(t, 2, s.Counts().Voices)
}

func TestOpenMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "db.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	_, err := Open(NewFilePersister(path))
	require.ErrorIs(t, err, ErrMalformed)
}

func TestOpenRejectsDuplicateIDs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "db.json")
	doc := SeedDocument()
	doc.Voices[1].ID = 0
	data, err := json.Marshal(doc)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0o644))

	_, err = Open(NewFilePersister(path))
	require.ErrorIs(t, err, ErrMalformed)
}

func TestLookupLanguageIsCaseInsensitive(t *testing.T) {
	s, _ := openTestStore(t)

	lower, err := s.LookupLanguage("english")
	require.NoError(t, err)
	upper, err := s.LookupLanguage("English")
	require.NoError(t, err)

	assert.Equal(t, lower.ID, upper.ID)
	assert.Equal(t, 0, lower.ID)

	_, err = s.LookupLanguage("Klingon")
	require.ErrorIs(t, err, ErrNotFound)
	assert.Contains(t, err.Error(), "Klingon")
}

func TestLookupVoice(t *testing.T) {
	s, _ := openTestStore(t)

	v, err := s.LookupVoice("female", 0)
	require.NoError(t, err)
	assert.Equal(t, 0, v.ID)
	assert.Equal(t, "K8lgMMdmFr7QoEooafEf", v.ExternalVoiceHandle)

	m, err := s.LookupVoice("Male", 0)
	require.NoError(t, err)
	assert.Equal(t, 1, m.ID)

	_, err = s.LookupVoice("male", 1)
	require.ErrorIs(t, err, ErrNotFound)
	assert.Contains(t, err.Error(), `"male"`)
}

func TestFailedLookupDoesNotMutate(t *testing.T) {
	s, _ := openTestStore(t)
	before := s.Counts()

	_, _ = s.LookupLanguage("Nope")
	_, _ = s.LookupVoice("other", 0)

	assert.Equal(t, before, s.Counts())
}

func TestFindOrCreateCategory(t *testing.T) {
	s, _ := openTestStore(t)

	first, err := s.FindOrCreateCategory("Motivation", 0)
	require.NoError(t, err)
	second, err := s.FindOrCreateCategory("Motivation", 0)
	require.NoError(t, err)
	third, err := s.FindOrCreateCategory("motivation", 0)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, first, third)
	assert.Equal(t, 1, s.Counts().Categories)

	_, err = s.FindOrCreateCategory("  ", 0)
	require.ErrorIs(t, err, ErrInvalid)

	_, err = s.FindOrCreateCategory("support", 7)
	require.ErrorIs(t, err, ErrInvalid)
	assert.Equal(t, 1, s.Counts().Categories)
}

func TestFindOrCreateName(t *testing.T) {
	s, _ := openTestStore(t)

	id, err := s.FindOrCreateName(nil, "male", 0)
	require.NoError(t, err)
	assert.Nil(t, id)
	assert.Equal(t, 0, s.Counts().Names)

	id, err = s.FindOrCreateName(strptr(""), "male", 0)
	require.NoError(t, err)
	assert.Nil(t, id)

	sam, err := s.FindOrCreateName(strptr("Sam"), "", 0)
	require.NoError(t, err)
	require.NotNil(t, sam)
	assert.Equal(t, 0, *sam)

	again, err := s.FindOrCreateName(strptr("SAM"), "female", 0)
	require.NoError(t, err)
	require.NotNil(t, again)
	assert.Equal(t, *sam, *again)
	assert.Equal(t, 1, s.Counts().Names)

	n, ok := s.Name(*sam)
	require.True(t, ok)
	assert.Equal(t, UnknownGender, n.Gender)
}

func TestAppendGeneration(t *testing.T) {
	s, path := openTestStore(t)
	s.Now = func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }

	cat, err := s.FindOrCreateCategory("support", 0)
	require.NoError(t, err)

	id, err := s.AppendGeneration(GenerationRecord{
		VoiceID:     0,
		CategoryID:  cat,
		LanguageID:  0,
		AudioFile:   "audio/1.mp3",
		SymbolCount: 5,
	})
	require.NoError(t, err)
	assert.Equal(t, 0, id)
	require.NoError(t, s.Save())

	reloaded, err := Open(NewFilePersister(path))
	require.NoError(t, err)
	gens := reloaded.Generations()
	require.Len(t, gens, 1)
	assert.Equal(t, "audio/1.mp3", gens[0].AudioFile)
	assert.Nil(t, gens[0].NameID)
	assert.Equal(t, time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC), gens[0].CreatedAt)
}

func TestAppendGenerationRejectsDanglingReferences(t *testing.T) {
	s, _ := openTestStore(t)

	_, err := s.AppendGeneration(GenerationRecord{VoiceID: 0, CategoryID: 3, LanguageID: 0})
	require.ErrorIs(t, err, ErrInvalid)

	cat, err := s.FindOrCreateCategory("support", 0)
	require.NoError(t, err)

	_, err = s.AppendGeneration(GenerationRecord{VoiceID: 9, CategoryID: cat, LanguageID: 0})
	require.ErrorIs(t, err, ErrInvalid)

	missing := 4
	_, err = s.AppendGeneration(GenerationRecord{VoiceID: 0, CategoryID: cat, LanguageID: 0, NameID: &missing})
	require.ErrorIs(t, err, ErrInvalid)

	assert.Equal(t, 0, s.Counts().Generations)
}

func TestIDsAreNeverReused(t *testing.T) {
	path := filepath.Join(t.TempDir(), "db.json")
	doc := SeedDocument()
	doc.Categories = []Category{{ID: 4, Name: "legacy", LanguageID: 0}}
	doc.Sequences.Categories = 0
	data, err := json.Marshal(doc)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0o644))

	s, err := Open(NewFilePersister(path))
	require.NoError(t, err)

	id, err := s.FindOrCreateCategory("support", 0)
	require.NoError(t, err)
	assert.Equal(t, 5, id)
}

func TestSaveFailsWhenDocumentRemoved(t *testing.T) {
	s, path := openTestStore(t)
	require.NoError(t, os.Remove(path))

	err := s.Save()
	require.ErrorIs(t, err, ErrMissing)
}

func TestUnsavedMutationsStayInMemory(t *testing.T) {
	s, path := openTestStore(t)
	before, err := os.ReadFile(path)
	require.NoError(t, err)

	_, err = s.FindOrCreateCategory("support", 0)
	require.NoError(t, err)

	after, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestDefaultsResolveInSeed(t *testing.T) {
	s, _ := openTestStore(t)

	lang, err := s.LookupLanguage(DefaultLanguage)
	require.NoError(t, err)
	voice, err := s.LookupVoice(DefaultVoiceGender, lang.ID)
	require.NoError(t, err)
	assert.Equal(t, "Alice", voice.Name)
}
