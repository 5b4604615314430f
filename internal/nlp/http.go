package nlp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ppiankov/legalner/internal/cache"
	"github.com/ppiankov/legalner/internal/model"
	"github.com/ppiankov/legalner/internal/util"
)

// HTTPModel delegates annotation to a model server that returns spaCy
// Doc.to_json() payloads, e.g. a small service wrapping es_core_news_lg.
type HTTPModel struct {
	baseURL string
	client  *http.Client
	catalog *Catalog
	chunker *chunker
}

type annotateRequest struct {
	Text string `json:"text"`
}

// spacyDoc is the subset of spaCy's Doc.to_json() we rely on
type spacyDoc struct {
	Text   string `json:"text"`
	Tokens []struct {
		ID    int `json:"id"`
		Start int `json:"start"`
		End   int `json:"end"`
	} `json:"tokens"`
	Ents []struct {
		Start int    `json:"start"`
		End   int    `json:"end"`
		Label string `json:"label"`
	} `json:"ents"`
}

// NewHTTPModel creates the model and fetches the label catalog from the server.
// An unreachable server is a load failure.
func NewHTTPModel(ctx context.Context, cfg model.ModelConfig) (*HTTPModel, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("model.base_url is required for the http model")
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	m := &HTTPModel{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		client:  util.NewHTTPClient(timeout, cfg.HTTPProxy, cfg.HTTPSProxy, cfg.NoProxy),
		chunker: newChunker("http:"+cfg.BaseURL, cfg.ChunkSize, cache.NewMemoryCache(cfg.CacheTTL, time.Minute), cfg.CacheTTL, cfg.RequestsPerSecond, cfg.Burst),
	}

	labels, err := m.fetchLabels(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch labels from %s: %w", m.baseURL, err)
	}
	m.catalog = NewCatalog(labels)

	if cfg.Catalog != "" {
		override, err := LoadCatalog(cfg.Catalog)
		if err != nil {
			return nil, err
		}
		m.catalog = override
	}
	return m, nil
}

// Name returns the backend name
func (m *HTTPModel) Name() string {
	return "http"
}

// Explain returns the catalog description of label
func (m *HTTPModel) Explain(label string) (string, bool) {
	return m.catalog.Explain(label)
}

// Labels returns the label catalog
func (m *HTTPModel) Labels() map[string]string {
	return m.catalog.Labels()
}

// Annotate sends the text to the server chunk by chunk
func (m *HTTPModel) Annotate(ctx context.Context, text string) (*Doc, error) {
	return m.chunker.annotate(ctx, text, m.annotateChunk)
}

func (m *HTTPModel) fetchLabels(ctx context.Context) (map[string]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, m.baseURL+"/labels", nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := m.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	var labels map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&labels); err != nil {
		return nil, fmt.Errorf("decode labels: %w", err)
	}
	if len(labels) == 0 {
		return nil, fmt.Errorf("server returned an empty label catalog")
	}
	return labels, nil
}

func (m *HTTPModel) annotateChunk(ctx context.Context, chunk string) (*Doc, error) {
	body, err := json.Marshal(annotateRequest{Text: chunk})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.baseURL+"/annotate", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("model server returned %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var sd spacyDoc
	if err := json.NewDecoder(resp.Body).Decode(&sd); err != nil {
		return nil, fmt.Errorf("decode annotation: %w", err)
	}
	return docFromSpacy(chunk, sd)
}

// docFromSpacy converts a spaCy payload, dropping whitespace tokens
func docFromSpacy(text string, sd spacyDoc) (*Doc, error) {
	doc := NewDoc(text)
	n := doc.Len()

	for _, t := range sd.Tokens {
		if t.Start < 0 || t.End > n || t.Start > t.End {
			return nil, fmt.Errorf("token %d has invalid offsets [%d, %d)", t.ID, t.Start, t.End)
		}
		if t.Start == t.End {
			continue
		}
		word := doc.Slice(t.Start, t.End)
		doc.Tokens = append(doc.Tokens, Token{
			Index:   len(doc.Tokens),
			Text:    word,
			Start:   t.Start,
			End:     t.End,
			IsDigit: isDigits(word),
			IsSpace: strings.TrimSpace(word) == "",
		})
	}

	for _, e := range sd.Ents {
		if e.Start < 0 || e.End > n || e.Start >= e.End {
			return nil, fmt.Errorf("entity %s has invalid offsets [%d, %d)", e.Label, e.Start, e.End)
		}
		doc.Entities = append(doc.Entities, Span{
			Text:  doc.Slice(e.Start, e.End),
			Start: e.Start,
			End:   e.End,
			Label: e.Label,
		})
	}
	return doc, nil
}
