package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"github.com/dooshek/honey/internal/fileops"
	"github.com/dooshek/honey/internal/logger"
)

var _ Persister = (*FilePersister)(nil)

// FilePersister keeps the document as pretty-printed JSON in a single file.
// Each save rewrites the whole file. There is no locking.
type FilePersister struct {
	Path string
}

func NewFilePersister(path string) *FilePersister {
	return &FilePersister{Path: path}
}

// Load reads the document. A missing or empty file counts as no document.
func (p *FilePersister) Load() (*Document, error) {
	data, err := os.ReadFile(p.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrMissing
		}
		return nil, fmt.Errorf("failed to read record store: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, ErrMissing
	}

	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%s: %v: %w", p.Path, err, ErrMalformed)
	}

	logger.Debugf("Loaded record store from %s", p.Path)
	return &doc, nil
}

func (p *FilePersister) Create(doc *Document) error {
	if err := fileops.WriteJSON(p.Path, doc); err != nil {
		return err
	}
	logger.Infof("Initialized record store at %s", p.Path)
	return nil
}

func (p *FilePersister) Save(doc *Document) error {
	if _, err := os.Stat(p.Path); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%s: %w", p.Path, ErrMissing)
		}
		return fmt.Errorf("failed to stat record store: %w", err)
	}

	if err := fileops.WriteJSON(p.Path, doc); err != nil {
		return err
	}
	logger.Debugf("Saved record store to %s", p.Path)
	return nil
}
