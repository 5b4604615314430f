package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestAnthropicProvider_Complete_Success(t *testing.T) {
	// Mock server
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Verify request
		if r.URL.Path != "/v1/messages" {
			t.Errorf("Expected path /v1/messages, got %s", r.URL.Path)
		}
		if r.Header.Get("x-api-key") != "test-key" {
			t.Errorf("Expected x-api-key header test-key, got %s", r.Header.Get("x-api-key"))
		}
		if r.Header.Get("anthropic-version") == "" {
			t.Error("Expected anthropic-version header")
		}

		var req anthropicRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("Failed to decode request: %v", err)
		}
		if req.Model != defaultAnthropicModel {
			t.Errorf("Expected default model, got %s", req.Model)
		}
		if !strings.Contains(req.System, "JSON object") {
			t.Errorf("Expected JSON instruction in system prompt, got %q", req.System)
		}

		// Return success response wrapped in a code fence
		_, _ = w.Write([]byte(`{
			"id": "msg_123",
			"type": "message",
			"role": "assistant",
			"model": "claude-3-5-haiku-20241022",
			"content": [{"type": "text", "text": "` + "```json\\n{\\\"entities\\\": []}\\n```" + `"}],
			"usage": {"input_tokens": 12, "output_tokens": 8}
		}`))
	}))
	defer server.Close()

	provider, err := NewAnthropicProvider(Config{
		APIKey:  "test-key",
		BaseURL: server.URL,
	})
	if err != nil {
		t.Fatalf("Failed to create provider: %v", err)
	}

	resp, err := provider.Complete(context.Background(), CompletionRequest{
		System: "Extrae entidades",
		Prompt: "Juan Pérez",
		JSON:   true,
	})
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}

	if resp.Content != `{"entities": []}` {
		t.Errorf("Expected code fence to be stripped, got %q", resp.Content)
	}
	if resp.TokensUsed != 20 {
		t.Errorf("Expected 20 tokens used, got %d", resp.TokensUsed)
	}
}

func TestAnthropicProvider_Complete_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"type": "error", "error": {"type": "authentication_error", "message": "invalid x-api-key"}}`))
	}))
	defer server.Close()

	provider, _ := NewAnthropicProvider(Config{APIKey: "bad-key", BaseURL: server.URL})

	_, err := provider.Complete(context.Background(), CompletionRequest{Prompt: "x"})
	if err == nil {
		t.Fatal("Expected error, got nil")
	}
	if !strings.Contains(err.Error(), "authentication_error") {
		t.Errorf("Expected authentication error, got %v", err)
	}
}

func TestAnthropicProvider_Complete_EmptyContent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id": "msg_1", "content": []}`))
	}))
	defer server.Close()

	provider, _ := NewAnthropicProvider(Config{APIKey: "test-key", BaseURL: server.URL})
	if _, err := provider.Complete(context.Background(), CompletionRequest{Prompt: "x"}); err == nil {
		t.Fatal("Expected error for empty content")
	}
}

func TestNewAnthropicProvider_MissingKey(t *testing.T) {
	if _, err := NewAnthropicProvider(Config{}); err == nil {
		t.Fatal("Expected error for missing API key")
	}
}

func TestStripCodeFence(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{`{"a": 1}`, `{"a": 1}`},
		{"```json\n{\"a\": 1}\n```", `{"a": 1}`},
		{"```\n{\"a\": 1}```", `{"a": 1}`},
	}
	for _, tt := range tests {
		if got := stripCodeFence(tt.in); got != tt.want {
			t.Errorf("stripCodeFence(%q) = %q, expected %q", tt.in, got, tt.want)
		}
	}
}
