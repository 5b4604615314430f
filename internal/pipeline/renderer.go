package pipeline

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ppiankov/legalner/internal/model"
)

// Renderer writes entity lists
type Renderer struct {
	indent string
}

// NewRenderer creates a renderer; indent <= 0 writes compact JSON
func NewRenderer(indent int) *Renderer {
	if indent < 0 {
		indent = 0
	}
	return &Renderer{indent: strings.Repeat(" ", indent)}
}

// Encode returns the JSON array of entities. Non-ASCII text is kept as is and
// an empty list is written as [].
func (r *Renderer) Encode(entities []model.Entity) ([]byte, error) {
	if entities == nil {
		entities = []model.Entity{}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if r.indent != "" {
		enc.SetIndent("", r.indent)
	}
	if err := enc.Encode(entities); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// RenderJSON writes entities to path, overwriting it
func (r *Renderer) RenderJSON(entities []model.Entity, path string) error {
	data, err := r.Encode(entities)
	if err != nil {
		return fmt.Errorf("marshal entities: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// RenderSummary prints the one-line completion message
func (r *Renderer) RenderSummary(w io.Writer, count int) {
	_, _ = fmt.Fprintf(w, "Processing complete. Found %d entities.\n", count)
}
