// Package nlp defines the NLP model boundary used for general named-entity
// recognition and provides the built-in backends.
//
// A Model turns raw text into a Doc: tokens with character offsets and the
// entity spans the model recognized. Offsets are counted in Unicode code
// points, not bytes, so they can be used directly by consumers of the JSON
// output.
package nlp

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ppiankov/legalner/internal/model"
)

// ErrModelUnavailable is returned when a model or its catalog cannot be loaded
var ErrModelUnavailable = errors.New("nlp model unavailable")

// Token is a single token produced by a model
type Token struct {
	Index   int    `json:"i"`
	Text    string `json:"text"`
	Start   int    `json:"start"`
	End     int    `json:"end"`
	IsDigit bool   `json:"is_digit"`
	IsSpace bool   `json:"is_space"`
}

// Span is an entity recognized by a model
type Span struct {
	Text  string `json:"text"`
	Start int    `json:"start"`
	End   int    `json:"end"`
	Label string `json:"label"`
}

// Doc is the annotation of one text
type Doc struct {
	Text     string
	Tokens   []Token
	Entities []Span

	runes []rune
}

// NewDoc creates an empty Doc over text
func NewDoc(text string) *Doc {
	return &Doc{Text: text, runes: []rune(text)}
}

// Len returns the length of the text in characters
func (d *Doc) Len() int {
	if d.runes == nil && d.Text != "" {
		d.runes = []rune(d.Text)
	}
	return len(d.runes)
}

// Slice returns the text between two character offsets, clamped to the document
func (d *Doc) Slice(start, end int) string {
	n := d.Len()
	if start < 0 {
		start = 0
	}
	if end > n {
		end = n
	}
	if start >= end {
		return ""
	}
	return string(d.runes[start:end])
}

// Model is the capability boundary for general-purpose NER
type Model interface {
	// Name returns the backend name
	Name() string

	// Annotate tokenizes text and returns the recognized entities
	Annotate(ctx context.Context, text string) (*Doc, error)

	// Explain returns the human-readable description of a label
	Explain(label string) (string, bool)

	// Labels returns the label catalog
	Labels() map[string]string
}

// Load builds the model selected by cfg. Any failure wraps ErrModelUnavailable.
func Load(ctx context.Context, cfg model.ModelConfig) (Model, error) {
	name := strings.ToLower(strings.TrimSpace(cfg.Name))

	var (
		m   Model
		err error
	)
	switch name {
	case "", "rules":
		m, err = NewRuleModel(cfg)

	case "http":
		m, err = NewHTTPModel(ctx, cfg)

	case "openai", "anthropic", "claude", "ollama":
		m, err = NewLLMModel(ctx, cfg)

	default:
		return nil, fmt.Errorf("%w: unknown model %q (supported: rules, http, openai, anthropic, ollama)", ErrModelUnavailable, cfg.Name)
	}
	if err != nil {
		if errors.Is(err, ErrModelUnavailable) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %s: %v", ErrModelUnavailable, name, err)
	}
	return m, nil
}
