package pipeline

import (
	"context"
	"fmt"
	"io"
	"os"
	"unicode/utf8"

	"github.com/ppiankov/legalner/internal/extract"
	"github.com/ppiankov/legalner/internal/lexicon"
	"github.com/ppiankov/legalner/internal/model"
	"github.com/ppiankov/legalner/internal/nlp"
)

// Pipeline reads one document, extracts its entities and writes them as JSON
type Pipeline struct {
	extractor *extract.Extractor
	renderer  *Renderer
	config    *model.Config
	log       io.Writer
}

// NewPipeline creates a new pipeline over an already loaded model
func NewPipeline(cfg *model.Config, m nlp.Model, lx *lexicon.Lexicon) *Pipeline {
	if cfg == nil {
		cfg = model.DefaultConfig()
	}
	return &Pipeline{
		extractor: extract.NewExtractor(m, lx),
		renderer:  NewRenderer(cfg.Output.Indent),
		config:    cfg,
		log:       io.Discard,
	}
}

// SetLog sets the writer for progress messages (verbose mode)
func (p *Pipeline) SetLog(w io.Writer) {
	if w == nil {
		w = io.Discard
	}
	p.log = w
}

// Extract returns the entities of text
func (p *Pipeline) Extract(ctx context.Context, text string) ([]model.Entity, error) {
	return p.extractor.Extract(ctx, text)
}

// ProcessFile extracts the entities of inputPath and writes them to outputPath,
// replacing any existing file. It returns the number of entities written.
func (p *Pipeline) ProcessFile(ctx context.Context, inputPath, outputPath string) (int, error) {
	data, err := os.ReadFile(inputPath)
	if err != nil {
		return 0, fmt.Errorf("read input: %w", err)
	}
	if !utf8.Valid(data) {
		return 0, fmt.Errorf("read input: %s is not valid UTF-8", inputPath)
	}
	_, _ = fmt.Fprintf(p.log, "⚙️  Read %d bytes from %s\n", len(data), inputPath)

	entities, err := p.extractor.Extract(ctx, string(data))
	if err != nil {
		return 0, fmt.Errorf("extract entities: %w", err)
	}
	_, _ = fmt.Fprintf(p.log, "✓ Extracted %d entities\n", len(entities))

	if err := p.renderer.RenderJSON(entities, outputPath); err != nil {
		return 0, fmt.Errorf("render JSON: %w", err)
	}
	_, _ = fmt.Fprintf(p.log, "✓ Wrote JSON: %s\n", outputPath)

	return len(entities), nil
}

// RenderSummary prints the completion message for count entities
func (p *Pipeline) RenderSummary(w io.Writer, count int) {
	p.renderer.RenderSummary(w, count)
}
