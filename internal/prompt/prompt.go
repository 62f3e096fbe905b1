// Package prompt collects generation parameters from an interactive terminal.
package prompt

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/dooshek/honey/internal/store"
	"github.com/fatih/color"
)

// ErrCategoryRequired is returned when the category answer is blank
var ErrCategoryRequired = errors.New("category is required")

// Answers holds one run's worth of user input
type Answers struct {
	Language    string
	VoiceGender string
	UserName    *string
	UserGender  *string
	Category    string
}

// Prompter reads answers line by line from in and writes prompts to out
type Prompter struct {
	reader *bufio.Reader
	out    io.Writer
	label  *color.Color
	hint   *color.Color
}

func New(in io.Reader, out io.Writer) *Prompter {
	return &Prompter{
		reader: bufio.NewReader(in),
		out:    out,
		label:  color.New(color.FgCyan),
		hint:   color.New(color.Faint),
	}
}

// Ask prints question and returns the cleaned answer. An empty answer yields def.
// EOF after a partial line counts as an answer; EOF on an empty line yields def.
func (p *Prompter) Ask(question, def string) (string, error) {
	p.label.Fprint(p.out, question)
	if def != "" {
		p.hint.Fprintf(p.out, " [%s]", def)
	}
	fmt.Fprint(p.out, ": ")

	line, err := p.reader.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("failed to read input: %w", err)
	}

	answer := clean(line)
	if answer == "" {
		return def, nil
	}
	return answer, nil
}

// Confirm asks a yes/no question, defaulting to yes
func (p *Prompter) Confirm(question string) (bool, error) {
	answer, err := p.Ask(question+" [Y/n]", "")
	if err != nil {
		return false, err
	}
	answer = strings.ToLower(answer)
	return answer == "" || answer == "y" || answer == "yes", nil
}

// Collect asks for language, voice gender, name, user gender and category
func (p *Prompter) Collect() (*Answers, error) {
	language, err := p.Ask("Enter the language", store.DefaultLanguage)
	if err != nil {
		return nil, err
	}

	voiceGender, err := p.Ask("Enter the voice gender (male/female)", store.DefaultVoiceGender)
	if err != nil {
		return nil, err
	}

	userName, err := p.Ask("Enter your name (optional)", "")
	if err != nil {
		return nil, err
	}

	userGender, err := p.Ask("Enter your gender (male/female, optional)", "")
	if err != nil {
		return nil, err
	}

	category, err := p.Ask("Enter the category (e.g., support, motivation, consolation)", "")
	if err != nil {
		return nil, err
	}
	if category == "" {
		return nil, ErrCategoryRequired
	}

	return &Answers{
		Language:    language,
		VoiceGender: strings.ToLower(voiceGender),
		UserName:    optional(userName),
		UserGender:  optional(strings.ToLower(userGender)),
		Category:    category,
	}, nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// clean trims whitespace and drops ASCII control characters left by terminals
func clean(s string) string {
	s = strings.TrimSpace(s)
	s = strings.Map(func(r rune) rune {
		if r < 32 || r == 127 {
			return -1
		}
		return r
	}, s)
	return strings.TrimSpace(s)
}
