package nlp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/ppiankov/legalner/internal/cache"
	"github.com/ppiankov/legalner/internal/llm"
	"github.com/ppiankov/legalner/internal/model"
)

// LLMModel recognizes entities with a chat model asked for JSON.
// Tokens come from the local tokenizer; the model only names the spans.
type LLMModel struct {
	provider llm.Provider
	catalog  *Catalog
	chunker  *chunker
}

type llmEntities struct {
	Entities []struct {
		Text  string `json:"text"`
		Label string `json:"label"`
	} `json:"entities"`
}

// NewLLMModel creates the backend for cfg.Name (openai, anthropic or ollama).
// A local Ollama server is probed at load time.
func NewLLMModel(ctx context.Context, cfg model.ModelConfig) (*LLMModel, error) {
	catalog, err := LoadCatalog(cfg.Catalog)
	if err != nil {
		return nil, err
	}

	provider, err := llm.NewProvider(llm.ConfigFromModel(cfg))
	if err != nil {
		return nil, err
	}
	return newLLMModel(ctx, provider, catalog, cfg)
}

func newLLMModel(ctx context.Context, provider llm.Provider, catalog *Catalog, cfg model.ModelConfig) (*LLMModel, error) {
	if provider.Name() == "ollama" && !provider.IsAvailable(ctx) {
		return nil, fmt.Errorf("ollama server is not reachable")
	}

	name := provider.Name() + ":" + cfg.LLMModel
	return &LLMModel{
		provider: provider,
		catalog:  catalog,
		chunker:  newChunker(name, cfg.ChunkSize, cache.NewMemoryCache(cfg.CacheTTL, time.Minute), cfg.CacheTTL, cfg.RequestsPerSecond, cfg.Burst),
	}, nil
}

// Name returns the provider name
func (m *LLMModel) Name() string {
	return m.provider.Name()
}

// Explain returns the catalog description of label
func (m *LLMModel) Explain(label string) (string, bool) {
	return m.catalog.Explain(label)
}

// Labels returns the label catalog
func (m *LLMModel) Labels() map[string]string {
	return m.catalog.Labels()
}

// Annotate sends the text to the chat model chunk by chunk
func (m *LLMModel) Annotate(ctx context.Context, text string) (*Doc, error) {
	return m.chunker.annotate(ctx, text, m.annotateChunk)
}

func (m *LLMModel) annotateChunk(ctx context.Context, chunk string) (*Doc, error) {
	resp, err := m.provider.Complete(ctx, llm.CompletionRequest{
		System: m.systemPrompt(),
		Prompt: chunk,
		JSON:   true,
	})
	if err != nil {
		return nil, err
	}

	var parsed llmEntities
	if err := json.Unmarshal([]byte(strings.TrimSpace(resp.Content)), &parsed); err != nil {
		return nil, fmt.Errorf("decode %s entities: %w", m.provider.Name(), err)
	}

	doc := NewDoc(chunk)
	doc.Tokens = Tokenize(chunk)
	offsets := runeOffsets(chunk)

	// Spans are located left to right; a text not found after the previous
	// span is dropped.
	cursor := 0
	for _, e := range parsed.Entities {
		label := strings.ToUpper(strings.TrimSpace(e.Label))
		text := strings.TrimSpace(e.Text)
		if text == "" || !m.catalog.Has(label) {
			continue
		}

		idx := strings.Index(chunk[cursor:], text)
		if idx < 0 {
			continue
		}
		idx += cursor

		doc.Entities = append(doc.Entities, Span{Text: text, Start: offsets[idx], End: offsets[idx+len(text)], Label: label})
		cursor = idx + len(text)
	}

	return doc, nil
}

func (m *LLMModel) systemPrompt() string {
	var b strings.Builder
	b.WriteString("You are a named-entity recognizer for Spanish legal documents.\n")
	b.WriteString("Return a JSON object {\"entities\": [{\"text\": ..., \"label\": ...}]} listing every entity in the user text, in order of appearance.\n")
	b.WriteString("\"text\" MUST be copied exactly from the input. Use only these labels:\n")
	for _, name := range m.catalog.Names() {
		if name == "LAW" {
			continue
		}
		desc, _ := m.catalog.Explain(name)
		fmt.Fprintf(&b, "- %s: %s\n", name, desc)
	}
	b.WriteString("Do not tag references to laws, articles or decrees; they are handled separately.\n")
	return b.String()
}
