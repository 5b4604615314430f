package util

import (
	"net/http"
	"testing"
)

func TestNewProxyFunc(t *testing.T) {
	proxy := NewProxyFunc("http://proxy:3128", "http://secure-proxy:3128", "internal.example.com, .corp")

	tests := []struct {
		url  string
		want string
	}{
		{"http://api.example.com/v1", "http://proxy:3128"},
		{"https://api.openai.com/v1", "http://secure-proxy:3128"},
		{"http://internal.example.com/annotate", ""},
		{"http://ner.corp/annotate", ""},
		{"http://localhost:8000/labels", ""},
		{"http://127.0.0.1:11434/api/tags", ""},
	}
	for _, tt := range tests {
		req, _ := http.NewRequest(http.MethodGet, tt.url, nil)
		got, err := proxy(req)
		if err != nil {
			t.Fatalf("proxy(%s) failed: %v", tt.url, err)
		}
		gotStr := ""
		if got != nil {
			gotStr = got.String()
		}
		if gotStr != tt.want {
			t.Errorf("proxy(%s) = %q, expected %q", tt.url, gotStr, tt.want)
		}
	}
}

func TestNewProxyFunc_Wildcard(t *testing.T) {
	proxy := NewProxyFunc("http://proxy:3128", "", "*")
	req, _ := http.NewRequest(http.MethodGet, "http://api.example.com", nil)
	if got, _ := proxy(req); got != nil {
		t.Errorf("Expected no proxy for wildcard, got %v", got)
	}
}

func TestNewHTTPClient(t *testing.T) {
	client := NewHTTPClient(0, "", "", "")
	transport, ok := client.Transport.(*http.Transport)
	if !ok || transport.Proxy == nil {
		t.Fatal("Expected transport with proxy function")
	}
}
