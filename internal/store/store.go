// Package store implements the record store: the reference tables (languages,
// voices, names, categories) and the append-only generation log.
//
// Every entity carries a surrogate id issued from a per-table counter kept in
// the document. Ids are never reused, so entries may be moved or removed
// without changing the identity of the others.
package store

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	// ErrNotFound is returned when a lookup has no match
	ErrNotFound = errors.New("not found")

	// ErrMissing is returned when the backing document does not exist
	ErrMissing = errors.New("record store does not exist")

	// ErrMalformed is returned when the backing document cannot be decoded or
	// violates the id invariants
	ErrMalformed = errors.New("malformed record store")

	// ErrInvalid is returned for rejected input such as a blank category name
	// or a dangling reference
	ErrInvalid = errors.New("invalid record")
)

const (
	GenderMale   = "male"
	GenderFemale = "female"

	// UnknownGender is stored for names created without a gender
	UnknownGender = "unknown"

	// DefaultLanguage and DefaultVoiceGender are used when a request leaves
	// them blank. Both exist in the seed document.
	DefaultLanguage    = "English"
	DefaultVoiceGender = GenderFemale
)

type Language struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
	Code string `json:"code"`
}

type Voice struct {
	ID                  int    `json:"id"`
	Name                string `json:"name"`
	ExternalVoiceHandle string `json:"external_voice_handle"`
	Gender              string `json:"gender"`
	LanguageID          int    `json:"language_id"`
}

type Name struct {
	ID         int    `json:"id"`
	Name       string `json:"name"`
	Gender     string `json:"gender"`
	LanguageID int    `json:"language_id"`
}

type Category struct {
	ID         int    `json:"id"`
	Name       string `json:"name"`
	LanguageID int    `json:"language_id"`
}

// GenerationRecord is one committed clip. Its id keys the text archive.
type GenerationRecord struct {
	ID          int       `json:"id"`
	VoiceID     int       `json:"voice_id"`
	CategoryID  int       `json:"category_id"`
	NameID      *int      `json:"name_id"`
	LanguageID  int       `json:"language_id"`
	AudioFile   string    `json:"audio_file"`
	SymbolCount int       `json:"symbol_count"`
	CreatedAt   time.Time `json:"created_at"`
}

// Sequences holds the next id to issue for each table
type Sequences struct {
	Languages   int `json:"languages"`
	Voices      int `json:"voices"`
	Names       int `json:"names"`
	Categories  int `json:"categories"`
	Generations int `json:"generations"`
}

// Document is the persisted form of the record store
type Document struct {
	Languages   []Language         `json:"languages"`
	Voices      []Voice            `json:"voices"`
	Names       []Name             `json:"names"`
	Categories  []Category         `json:"categories"`
	Generations []GenerationRecord `json:"generations"`
	Sequences   Sequences          `json:"sequences"`
}

// Counts reports the size of each table
type Counts struct {
	Languages   int
	Voices      int
	Names       int
	Categories  int
	Generations int
}

// SeedDocument returns the document a new store starts from: English and one
// voice per gender.
func SeedDocument() *Document {
	return &Document{
		Languages: []Language{
			{ID: 0, Name: DefaultLanguage, Code: "en"},
		},
		Voices: []Voice{
			{ID: 0, Name: "Alice", ExternalVoiceHandle: "K8lgMMdmFr7QoEooafEf", Gender: GenderFemale, LanguageID: 0},
			{ID: 1, Name: "Alex", ExternalVoiceHandle: "UvSWlWKwkwKAshx25ieK", Gender: GenderMale, LanguageID: 0},
		},
		Names:       []Name{},
		Categories:  []Category{},
		Generations: []GenerationRecord{},
		Sequences: Sequences{
			Languages: 1,
			Voices:    2,
		},
	}
}

// Persister loads and saves whole documents.
type Persister interface {
	// Load returns ErrMissing when no document has been created yet.
	Load() (*Document, error)

	// Create writes the first document.
	Create(doc *Document) error

	// Save overwrites an existing document and returns ErrMissing if it is gone.
	Save(doc *Document) error
}

// Store is an in-memory record store backed by a Persister. Mutations stay in
// memory until Save.
type Store struct {
	persister Persister
	doc       *Document

	Now func() time.Time
}

// Open loads the document from p, creating and persisting the seed document
// when none exists yet.
func Open(p Persister) (*Store, error) {
	doc, err := p.Load()
	switch {
	case errors.Is(err, ErrMissing):
		doc = SeedDocument()
		if err := p.Create(doc); err != nil {
			return nil, fmt.Errorf("failed to initialize record store: %w", err)
		}
	case err != nil:
		return nil, err
	}

	if err := normalize(doc); err != nil {
		return nil, err
	}

	return &Store{persister: p, doc: doc, Now: time.Now}, nil
}

// Save persists the whole document
func (s *Store) Save() error {
	return s.persister.Save(s.doc)
}

// LookupLanguage returns the language whose name matches case-insensitively
func (s *Store) LookupLanguage(name string) (Language, error) {
	for _, l := range s.doc.Languages {
		if strings.EqualFold(l.Name, name) {
			return l, nil
		}
	}
	return Language{}, fmt.Errorf("language %q: %w", name, ErrNotFound)
}

// LookupVoice returns the first voice with the given gender (case-insensitive)
// in the given language
func (s *Store) LookupVoice(gender string, languageID int) (Voice, error) {
	for _, v := range s.doc.Voices {
		if strings.EqualFold(v.Gender, gender) && v.LanguageID == languageID {
			return v, nil
		}
	}
	return Voice{}, fmt.Errorf("voice with gender %q in language %d: %w", gender, languageID, ErrNotFound)
}

// FindOrCreateName returns the id of the name in the given language, adding it
// first if it is new. A nil or blank name yields a nil id and adds nothing.
func (s *Store) FindOrCreateName(name *string, gender string, languageID int) (*int, error) {
	if name == nil || strings.TrimSpace(*name) == "" {
		return nil, nil
	}
	if !s.hasLanguage(languageID) {
		return nil, fmt.Errorf("name %q references language %d: %w", *name, languageID, ErrInvalid)
	}

	for _, n := range s.doc.Names {
		if strings.EqualFold(n.Name, *name) && n.LanguageID == languageID {
			id := n.ID
			return &id, nil
		}
	}

	if gender == "" {
		gender = UnknownGender
	}
	id := s.doc.Sequences.Names
	s.doc.Names = append(s.doc.Names, Name{
		ID:         id,
		Name:       *name,
		Gender:     gender,
		LanguageID: languageID,
	})
	s.doc.Sequences.Names++

	return &id, nil
}

// FindOrCreateCategory returns the id of the category in the given language,
// adding it first if it is new.
func (s *Store) FindOrCreateCategory(name string, languageID int) (int, error) {
	if strings.TrimSpace(name) == "" {
		return 0, fmt.Errorf("category name is required: %w", ErrInvalid)
	}
	if !s.hasLanguage(languageID) {
		return 0, fmt.Errorf("category %q references language %d: %w", name, languageID, ErrInvalid)
	}

	for _, c := range s.doc.Categories {
		if strings.EqualFold(c.Name, name) && c.LanguageID == languageID {
			return c.ID, nil
		}
	}

	id := s.doc.Sequences.Categories
	s.doc.Categories = append(s.doc.Categories, Category{
		ID:         id,
		Name:       name,
		LanguageID: languageID,
	})
	s.doc.Sequences.Categories++

	return id, nil
}

// AppendGeneration checks the references of rec, assigns its id and creation
// time and appends it to the generation log.
func (s *Store) AppendGeneration(rec GenerationRecord) (int, error) {
	if !s.hasLanguage(rec.LanguageID) {
		return 0, fmt.Errorf("generation references language %d: %w", rec.LanguageID, ErrInvalid)
	}
	if !s.hasVoice(rec.VoiceID) {
		return 0, fmt.Errorf("generation references voice %d: %w", rec.VoiceID, ErrInvalid)
	}
	if !s.hasCategory(rec.CategoryID) {
		return 0, fmt.Errorf("generation references category %d: %w", rec.CategoryID, ErrInvalid)
	}
	if rec.NameID != nil && !s.hasName(*rec.NameID) {
		return 0, fmt.Errorf("generation references name %d: %w", *rec.NameID, ErrInvalid)
	}

	rec.ID = s.doc.Sequences.Generations
	rec.CreatedAt = s.Now().UTC()
	s.doc.Generations = append(s.doc.Generations, rec)
	s.doc.Sequences.Generations++

	return rec.ID, nil
}

// Languages returns a copy of the language table
func (s *Store) Languages() []Language {
	return append([]Language(nil), s.doc.Languages...)
}

// Voices returns a copy of the voice table
func (s *Store) Voices() []Voice {
	return append([]Voice(nil), s.doc.Voices...)
}

// Generations returns a copy of the generation log, oldest first
func (s *Store) Generations() []GenerationRecord {
	return append([]GenerationRecord(nil), s.doc.Generations...)
}

// Name returns the name entry with the given id
func (s *Store) Name(id int) (Name, bool) {
	for _, n := range s.doc.Names {
		if n.ID == id {
			return n, true
		}
	}
	return Name{}, false
}

// Category returns the category entry with the given id
func (s *Store) Category(id int) (Category, bool) {
	for _, c := range s.doc.Categories {
		if c.ID == id {
			return c, true
		}
	}
	return Category{}, false
}

func (s *Store) Counts() Counts {
	return Counts{
		Languages:   len(s.doc.Languages),
		Voices:      len(s.doc.Voices),
		Names:       len(s.doc.Names),
		Categories:  len(s.doc.Categories),
		Generations: len(s.doc.Generations),
	}
}

func (s *Store) hasLanguage(id int) bool {
	for _, l := range s.doc.Languages {
		if l.ID == id {
			return true
		}
	}
	return false
}

func (s *Store) hasVoice(id int) bool {
	for _, v := range s.doc.Voices {
		if v.ID == id {
			return true
		}
	}
	return false
}

func (s *Store) hasName(id int) bool {
	_, ok := s.Name(id)
	return ok
}

func (s *Store) hasCategory(id int) bool {
	_, ok := s.Category(id)
	return ok
}

// normalize fills nil tables and checks that ids are unique and below their
// sequence. A sequence behind its table is raised so ids are never reissued.
func normalize(doc *Document) error {
	if doc.Languages == nil {
		doc.Languages = []Language{}
	}
	if doc.Voices == nil {
		doc.Voices = []Voice{}
	}
	if doc.Names == nil {
		doc.Names = []Name{}
	}
	if doc.Categories == nil {
		doc.Categories = []Category{}
	}
	if doc.Generations == nil {
		doc.Generations = []GenerationRecord{}
	}

	ids := func(table string, n int, id func(i int) int, seq *int) error {
		seen := make(map[int]struct{}, n)
		for i := 0; i < n; i++ {
			v := id(i)
			if v < 0 {
				return fmt.Errorf("%s: negative id %d: %w", table, v, ErrMalformed)
			}
			if _, dup := seen[v]; dup {
				return fmt.Errorf("%s: duplicate id %d: %w", table, v, ErrMalformed)
			}
			seen[v] = struct{}{}
			if v >= *seq {
				*seq = v + 1
			}
		}
		return nil
	}

	if err := ids("languages", len(doc.Languages), func(i int) int { return doc.Languages[i].ID }, &doc.Sequences.Languages); err != nil {
		return err
	}
	if err := ids("voices", len(doc.Voices), func(i int) int { return doc.Voices[i].ID }, &doc.Sequences.Voices); err != nil {
		return err
	}
	if err := ids("names", len(doc.Names), func(i int) int { return doc.Names[i].ID }, &doc.Sequences.Names); err != nil {
		return err
	}
	if err := ids("categories", len(doc.Categories), func(i int) int { return doc.Categories[i].ID }, &doc.Sequences.Categories); err != nil {
		return err
	}
	if err := ids("generations", len(doc.Generations), func(i int) int { return doc.Generations[i].ID }, &doc.Sequences.Generations); err != nil {
		return err
	}

	languages := make(map[int]struct{}, len(doc.Languages))
	for _, l := range doc.Languages {
		languages[l.ID] = struct{}{}
	}
	for _, v := range doc.Voices {
		if _, ok := languages[v.LanguageID]; !ok {
			return fmt.Errorf("voice %d references unknown language %d: %w", v.ID, v.LanguageID, ErrMalformed)
		}
	}

	return nil
}
