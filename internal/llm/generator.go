package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dooshek/honey/internal/logger"
	"github.com/dooshek/honey/internal/types"
)

// ErrEmptyText is returned when the model answers with nothing usable
var ErrEmptyText = errors.New("model returned empty text")

// Personalization is everything the clip text is tailored to
type Personalization struct {
	Language     string
	LanguageCode string
	UserName     *string
	UserGender   *string
	Category     string
}

// Generator turns a Personalization into clip text using a Provider
type Generator struct {
	provider Provider
	config   types.LLMConfig
}

func NewGenerator(provider Provider, config types.LLMConfig) *Generator {
	return &Generator{provider: provider, config: config}
}

// GenerateText asks the model for one short message to be read aloud
func (g *Generator) GenerateText(ctx context.Context, p Personalization) (string, error) {
	req := CompletionRequest{
		Model:       g.config.Model,
		MaxTokens:   g.config.MaxTokens,
		Temperature: g.config.Temperature,
		Messages: []ChatCompletionMessage{
			{Role: RoleSystem, Content: systemPrompt(p.Language, g.config.MaxSymbols)},
			{Role: RoleUser, Content: userPrompt(p)},
		},
	}

	logger.Debugf("Generating %q text in %s", p.Category, p.Language)
	text, err := g.provider.Completion(ctx, req)
	if err != nil {
		return "", err
	}

	text = cleanText(text)
	if text == "" {
		return "", ErrEmptyText
	}
	return text, nil
}

func systemPrompt(language string, maxSymbols int) string {
	var b strings.Builder
	b.WriteString("You write short, warm, personal messages that a speech synthesizer will read aloud.\n")
	fmt.Fprintf(&b, "Write in %s.\n", language)
	b.WriteString("Reply with the message text only: no title, no quotes, no stage directions, no emoji, no markdown.\n")
	if maxSymbols > 0 {
		fmt.Fprintf(&b, "Keep it under %d characters.\n", maxSymbols)
	}
	return b.String()
}

func userPrompt(p Personalization) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Category: %s.\n", p.Category)
	if p.LanguageCode != "" {
		fmt.Fprintf(&b, "Language code: %s.\n", p.LanguageCode)
	}
	if p.UserName != nil && *p.UserName != "" {
		fmt.Fprintf(&b, "Address the listener by name: %s.\n", *p.UserName)
	} else {
		b.WriteString("The listener's name is unknown; do not invent one.\n")
	}
	if p.UserGender != nil && *p.UserGender != "" {
		fmt.Fprintf(&b, "The listener is %s; use grammatically matching forms.\n", *p.UserGender)
	}
	return b.String()
}

// cleanText trims whitespace and one pair of wrapping quotes
func cleanText(s string) string {
	s = strings.TrimSpace(s)
	for _, q := range [][2]string{{`"`, `"`}, {"“", "”"}, {"'", "'"}} {
		if len(s) >= len(q[0])+len(q[1]) && strings.HasPrefix(s, q[0]) && strings.HasSuffix(s, q[1]) {
			s = strings.TrimSpace(s[len(q[0]) : len(s)-len(q[1])])
			break
		}
	}
	return s
}
