// Package extract turns model annotations into the entity list written to disk.
package extract

import (
	"context"
	"fmt"

	"github.com/ppiankov/legalner/internal/lexicon"
	"github.com/ppiankov/legalner/internal/model"
	"github.com/ppiankov/legalner/internal/nlp"
)

// Extractor combines model entities with legal references
type Extractor struct {
	model    nlp.Model
	expander *LegalExpander
}

// NewExtractor creates an extractor over m and lx
func NewExtractor(m nlp.Model, lx *lexicon.Lexicon) *Extractor {
	return &Extractor{
		model:    m,
		expander: NewLegalExpander(lx),
	}
}

// Extract returns the model entities in model order, followed by the legal
// references in scan order. A model failure yields no entities.
func (e *Extractor) Extract(ctx context.Context, text string) ([]model.Entity, error) {
	doc, err := e.model.Annotate(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("annotate with %s model: %w", e.model.Name(), err)
	}

	entities := make([]model.Entity, 0, len(doc.Entities))
	for _, span := range doc.Entities {
		ent := model.Entity{
			Text:  span.Text,
			Start: span.Start,
			End:   span.End,
			Type:  span.Label,
		}
		if desc, ok := e.model.Explain(span.Label); ok {
			ent.Description = model.StringPtr(desc)
		}
		entities = append(entities, ent)
	}

	return append(entities, e.expander.Expand(doc, entities)...), nil
}
