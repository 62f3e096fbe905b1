// Package archive keeps the full generated texts in a document separate from
// the record store, keyed by the decimal generation record id.
package archive

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"unicode/utf8"

	"github.com/dooshek/honey/internal/fileops"
	"github.com/dooshek/honey/internal/logger"
)

// Archive is the texts document at Path
type Archive struct {
	Path string
}

func New(path string) *Archive {
	return &Archive{Path: path}
}

// AppendText stores text under the string form of recordID, creating the
// document if absent. The whole document is rewritten.
func (a *Archive) AppendText(recordID int, text string) error {
	texts, err := a.load()
	if err != nil {
		return err
	}

	texts[strconv.Itoa(recordID)] = text

	if err := fileops.WriteJSON(a.Path, texts); err != nil {
		return fmt.Errorf("failed to save text archive: %w", err)
	}

	logger.Debugf("Archived %d symbols for record %d", utf8.RuneCountInString(text), recordID)
	return nil
}

// Text returns the archived text of recordID
func (a *Archive) Text(recordID int) (string, bool, error) {
	texts, err := a.load()
	if err != nil {
		return "", false, err
	}
	text, ok := texts[strconv.Itoa(recordID)]
	return text, ok, nil
}

func (a *Archive) load() (map[string]string, error) {
	data, err := os.ReadFile(a.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("failed to read text archive: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return map[string]string{}, nil
	}

	texts := map[string]string{}
	if err := json.Unmarshal(data, &texts); err != nil {
		return nil, fmt.Errorf("failed to parse text archive %s: %w", a.Path, err)
	}
	return texts, nil
}
