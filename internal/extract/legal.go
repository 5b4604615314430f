package extract

import (
	"github.com/ppiankov/legalner/internal/lexicon"
	"github.com/ppiankov/legalner/internal/model"
	"github.com/ppiankov/legalner/internal/nlp"
)

// descriptionPrefix precedes the trigger word in legal reference descriptions
const descriptionPrefix = "Referencia legal: "

// LegalExpander finds digit-led legal references such as "Ley 45 de 2007"
type LegalExpander struct {
	lexicon *lexicon.Lexicon
}

// NewLegalExpander creates an expander over lx; a nil lexicon uses the built-in one
func NewLegalExpander(lx *lexicon.Lexicon) *LegalExpander {
	if lx == nil {
		lx = lexicon.Default()
	}
	return &LegalExpander{lexicon: lx}
}

// Expand scans doc.Tokens and returns the legal references not already present
// in existing (compared by exact offsets). existing is not modified.
//
// A reference starts at a trigger word immediately followed by a numeric token
// and extends through numeric tokens and connectors. Overlapping references
// with different offsets are all kept.
func (x *LegalExpander) Expand(doc *nlp.Doc, existing []model.Entity) []model.Entity {
	seen := make(map[[2]int]bool, len(existing))
	for _, e := range existing {
		seen[e.Offsets()] = true
	}

	tokens := doc.Tokens
	var found []model.Entity
	for i := 0; i < len(tokens); i++ {
		entry, ok := x.lexicon.Match(tokens[i].Text)
		if !ok || i+1 >= len(tokens) || !tokens[i+1].IsDigit {
			continue
		}

		end := i + 2
		for end < len(tokens) && (tokens[end].IsDigit || x.lexicon.IsConnector(tokens[end].Text)) {
			end++
		}

		start, stop := tokens[i].Start, tokens[end-1].End
		if seen[[2]int{start, stop}] {
			continue
		}
		seen[[2]int{start, stop}] = true

		found = append(found, model.Entity{
			Text:        doc.Slice(start, stop),
			Start:       start,
			End:         stop,
			Type:        string(entry.Category),
			Description: model.StringPtr(descriptionPrefix + entry.Trigger),
		})
	}
	return found
}
