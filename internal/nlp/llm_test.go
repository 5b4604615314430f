package nlp

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ppiankov/legalner/internal/llm"
	"github.com/ppiankov/legalner/internal/model"
	"github.com/sashabaranov/go-openai"
)

// mockProvider implements llm.Provider for testing
type mockProvider struct {
	name      string
	available bool
	content   string
	err       error
	requests  []llm.CompletionRequest
}

func (p *mockProvider) Name() string { return p.name }

func (p *mockProvider) Complete(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	p.requests = append(p.requests, req)
	if p.err != nil {
		return nil, p.err
	}
	return &llm.CompletionResponse{Content: p.content}, nil
}

func (p *mockProvider) IsAvailable(ctx context.Context) bool { return p.available }

func TestLLMModel_Annotate(t *testing.T) {
	provider := &mockProvider{
		name: "mock",
		content: `{"entities": [
			{"text": "Juan Pérez", "label": "PER"},
			{"text": "Panamá", "label": "loc"},
			{"text": "Juan Pérez", "label": "PER"},
			{"text": "Panamá", "label": "LOC"},
			{"text": "Ley 45", "label": "STATUTE"},
			{"text": "Bogotá", "label": "LOC"}
		]}`,
	}
	m, err := newLLMModel(context.Background(), provider, DefaultCatalog(), model.ModelConfig{})
	if err != nil {
		t.Fatalf("Failed to create model: %v", err)
	}

	text := "El Dr. Juan Pérez vive en Panamá. Juan Pérez trabaja."
	doc, err := m.Annotate(context.Background(), text)
	if err != nil {
		t.Fatalf("Annotate failed: %v", err)
	}

	want := []Span{
		{Text: "Juan Pérez", Start: 7, End: 17, Label: "PER"},
		{Text: "Panamá", Start: 26, End: 32, Label: "LOC"},
		{Text: "Juan Pérez", Start: 34, End: 44, Label: "PER"},
	}
	if len(doc.Entities) != len(want) {
		t.Fatalf("Expected %d entities, got %+v", len(want), doc.Entities)
	}
	for i, w := range want {
		if doc.Entities[i] != w {
			t.Errorf("Entity %d: expected %+v, got %+v", i, w, doc.Entities[i])
		}
	}
	if len(doc.Tokens) == 0 {
		t.Error("Expected local tokens")
	}

	if len(provider.requests) != 1 || !provider.requests[0].JSON || provider.requests[0].Prompt != text {
		t.Errorf("Unexpected provider requests: %+v", provider.requests)
	}
}

func TestLLMModel_Errors(t *testing.T) {
	boom := errors.New("rate limited")
	tests := []struct {
		name     string
		provider *mockProvider
	}{
		{"provider error", &mockProvider{name: "mock", err: boom}},
		{"invalid JSON", &mockProvider{name: "mock", content: "Aquí están las entidades"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := newLLMModel(context.Background(), tt.provider, DefaultCatalog(), model.ModelConfig{})
			if err != nil {
				t.Fatalf("Failed to create model: %v", err)
			}
			if _, err := m.Annotate(context.Background(), "Juan Pérez"); err == nil {
				t.Fatal("Expected error, got nil")
			}
		})
	}
}

func TestLLMModel_OllamaUnavailable(t *testing.T) {
	provider := &mockProvider{name: "ollama", available: false}
	if _, err := newLLMModel(context.Background(), provider, DefaultCatalog(), model.ModelConfig{}); err == nil {
		t.Fatal("Expected load failure for unreachable ollama")
	}

	provider.available = true
	if _, err := newLLMModel(context.Background(), provider, DefaultCatalog(), model.ModelConfig{}); err != nil {
		t.Fatalf("Expected reachable ollama to load, got %v", err)
	}
}

func TestLLMModel_SystemPrompt(t *testing.T) {
	m, err := newLLMModel(context.Background(), &mockProvider{name: "mock"}, DefaultCatalog(), model.ModelConfig{})
	if err != nil {
		t.Fatalf("Failed to create model: %v", err)
	}

	prompt := m.systemPrompt()
	if !strings.Contains(prompt, "- PER: Named person or family.") {
		t.Errorf("Expected PER in prompt, got:\n%s", prompt)
	}
	if strings.Contains(prompt, "- LAW:") {
		t.Error("Expected LAW to be left out of the prompt")
	}
}

func TestLLMModel_OpenAIEndToEnd(t *testing.T) {
	// Mock server
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("Expected path /chat/completions, got %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer test-key" {
			t.Errorf("Expected Authorization header Bearer test-key, got %s", r.Header.Get("Authorization"))
		}

		resp := openai.ChatCompletionResponse{
			ID:     "chatcmpl-123",
			Object: "chat.completion",
			Model:  "gpt-4o-mini",
			Choices: []openai.ChatCompletionChoice{
				{
					Message: openai.ChatCompletionMessage{
						Role:    "assistant",
						Content: `{"entities": [{"text": "Autoridad del Canal de Panamá", "label": "ORG"}]}`,
					},
					FinishReason: "stop",
				},
			},
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	m, err := Load(context.Background(), model.ModelConfig{Name: "openai", APIKey: "test-key", BaseURL: server.URL})
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	doc, err := m.Annotate(context.Background(), "Contrato con la Autoridad del Canal de Panamá.")
	if err != nil {
		t.Fatalf("Annotate failed: %v", err)
	}
	if len(doc.Entities) != 1 || doc.Entities[0].Start != 16 || doc.Entities[0].End != 45 {
		t.Errorf("Unexpected entities: %+v", doc.Entities)
	}
}

func TestLLMModel_NeverReusesEarlierOccurrence(t *testing.T) {
	provider := &mockProvider{
		name: "mock",
		content: `{"entities": [
			{"text": "Juan Pérez", "label": "PER"},
			{"text": "Juan Pérez", "label": "PER"},
			{"text": "Juan Pérez", "label": "PER"},
			{"text": "Panamá", "label": "LOC"}
		]}`,
	}
	m, err := newLLMModel(context.Background(), provider, DefaultCatalog(), model.ModelConfig{})
	if err != nil {
		t.Fatalf("Failed to create model: %v", err)
	}

	// The third name and the earlier Panamá have no occurrence after the cursor
	doc, err := m.Annotate(context.Background(), "En Panamá, Juan Pérez y Juan Pérez.")
	if err != nil {
		t.Fatalf("Annotate failed: %v", err)
	}

	want := []Span{
		{Text: "Juan Pérez", Start: 11, End: 21, Label: "PER"},
		{Text: "Juan Pérez", Start: 24, End: 34, Label: "PER"},
	}
	if len(doc.Entities) != len(want) {
		t.Fatalf("Expected %d entities, got %+v", len(want), doc.Entities)
	}
	for i, w := range want {
		if doc.Entities[i] != w {
			t.Errorf("Entity %d: expected %+v, got %+v", i, w, doc.Entities[i])
		}
	}
}
