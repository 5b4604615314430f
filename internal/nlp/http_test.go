package nlp

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ppiankov/legalner/internal/model"
)

// newModelServer serves /labels and answers /annotate with the given payload
func newModelServer(t *testing.T, payload string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/labels":
			_ = json.NewEncoder(w).Encode(map[string]string{
				"PER":  "Named person or family.",
				"LOC":  "Name of politically or geographically defined location.",
				"MISC": "Miscellaneous entities",
			})
		case "/annotate":
			if r.Method != http.MethodPost {
				t.Errorf("Expected POST, got %s", r.Method)
			}
			var req annotateRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Text == "" {
				t.Errorf("Expected text in request body, got %q (%v)", req.Text, err)
			}
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(payload))
		default:
			http.NotFound(w, r)
		}
	}))
}

func TestHTTPModel_Annotate(t *testing.T) {
	// spaCy emits a whitespace token for the double space
	payload := `{
		"text": "Vive  en Panamá",
		"tokens": [
			{"id": 0, "start": 0, "end": 4},
			{"id": 1, "start": 5, "end": 6},
			{"id": 2, "start": 6, "end": 8},
			{"id": 3, "start": 9, "end": 15}
		],
		"ents": [{"start": 9, "end": 15, "label": "LOC"}]
	}`
	server := newModelServer(t, payload)
	defer server.Close()

	m, err := NewHTTPModel(context.Background(), model.ModelConfig{BaseURL: server.URL + "/"})
	if err != nil {
		t.Fatalf("Failed to create model: %v", err)
	}
	if m.Name() != "http" {
		t.Errorf("Expected name http, got %s", m.Name())
	}
	if d, ok := m.Explain("PER"); !ok || d != "Named person or family." {
		t.Errorf("Expected server catalog, got %q (%v)", d, ok)
	}

	doc, err := m.Annotate(context.Background(), "Vive  en Panamá")
	if err != nil {
		t.Fatalf("Annotate failed: %v", err)
	}

	if len(doc.Tokens) != 4 {
		t.Fatalf("Expected whitespace token to be kept, got %+v", doc.Tokens)
	}
	for i, tok := range doc.Tokens {
		if tok.Index != i {
			t.Errorf("Token %q has index %d, expected %d", tok.Text, tok.Index, i)
		}
	}
	if space := doc.Tokens[1]; space.Text != " " || !space.IsSpace || space.IsDigit {
		t.Errorf("Expected whitespace token, got %+v", space)
	}
	if doc.Tokens[3].Text != "Panamá" || doc.Tokens[3].IsSpace {
		t.Errorf("Expected Panamá, got %+v", doc.Tokens[3])
	}
	if len(doc.Entities) != 1 || doc.Entities[0].Text != "Panamá" || doc.Entities[0].Label != "LOC" {
		t.Errorf("Unexpected entities: %+v", doc.Entities)
	}
}

func TestHTTPModel_InvalidOffsets(t *testing.T) {
	payload := `{"text": "Panamá", "tokens": [{"id": 0, "start": 0, "end": 6}], "ents": [{"start": 0, "end": 99, "label": "LOC"}]}`
	server := newModelServer(t, payload)
	defer server.Close()

	m, err := NewHTTPModel(context.Background(), model.ModelConfig{BaseURL: server.URL})
	if err != nil {
		t.Fatalf("Failed to create model: %v", err)
	}
	if _, err := m.Annotate(context.Background(), "Panamá"); err == nil {
		t.Fatal("Expected error for invalid entity offsets")
	}
}

func TestHTTPModel_AnnotateServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/labels" {
			_, _ = w.Write([]byte(`{"PER": "Persona"}`))
			return
		}
		http.Error(w, "model crashed", http.StatusInternalServerError)
	}))
	defer server.Close()

	m, err := NewHTTPModel(context.Background(), model.ModelConfig{BaseURL: server.URL})
	if err != nil {
		t.Fatalf("Failed to create model: %v", err)
	}
	if _, err := m.Annotate(context.Background(), "Juan"); err == nil {
		t.Fatal("Expected error for server failure")
	}
}

func TestNewHTTPModel_LoadFailures(t *testing.T) {
	empty := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}))
	defer empty.Close()

	down := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	downURL := down.URL
	down.Close()

	tests := []struct {
		name    string
		baseURL string
	}{
		{"missing url", ""},
		{"empty catalog", empty.URL},
		{"server down", downURL},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(context.Background(), model.ModelConfig{Name: "http", BaseURL: tt.baseURL})
			if !errors.Is(err, ErrModelUnavailable) {
				t.Errorf("Expected ErrModelUnavailable, got %v", err)
			}
		})
	}
}
