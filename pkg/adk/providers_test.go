package adk

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
)

func TestOpenAIProvider(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer sk-test" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		switch r.URL.Path {
		case "/chat/completions":
			var body struct {
				Model    string          `json:"model"`
				Messages []openAIMessage `json:"messages"`
			}
			if err := json.NewDecoder(r.Body).Decode(&body); err != nil || len(body.Messages) != 1 {
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			json.NewEncoder(w).Encode(map[string]interface{}{
				"choices": []map[string]interface{}{
					{"message": map[string]string{"role": "assistant", "content": "echo: " + body.Messages[0].Content}},
				},
			})
		case "/models":
			json.NewEncoder(w).Encode(map[string]interface{}{
				"data": []map[string]string{{"id": "gpt-4o"}, {"id": "whisper-1"}, {"id": "o3-mini"}},
			})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	p := NewOpenAIProvider("sk-test", "")
	p.BaseURL = server.URL

	text, err := p.Generate(context.Background(), "hello")
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if text != "echo: hello" {
		t.Errorf("Unexpected text %q", text)
	}

	models, err := p.ListModels(context.Background())
	if err != nil {
		t.Fatalf("ListModels failed: %v", err)
	}
	if !reflect.DeepEqual(models, []string{"gpt-4o", "o3-mini"}) {
		t.Errorf("Unexpected models %v", models)
	}

	p.APIKey = "wrong"
	if _, err := p.Generate(context.Background(), "hello"); err == nil {
		t.Errorf("Expected error on non-200 status")
	}
}

func TestAnthropicProvider(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("x-api-key") != "ak-test" || r.Header.Get("anthropic-version") != anthropicVersion {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		switch r.URL.Path {
		case "/messages":
			var body struct {
				MaxTokens int `json:"max_tokens"`
			}
			json.NewDecoder(r.Body).Decode(&body)
			if body.MaxTokens == 0 {
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			json.NewEncoder(w).Encode(map[string]interface{}{
				"content": []map[string]string{
					{"type": "text", "text": "[{\"title\":"},
					{"type": "tool_use", "text": "ignored"},
					{"type": "text", "text": "\"x\"}]"},
				},
			})
		case "/models":
			json.NewEncoder(w).Encode(map[string]interface{}{
				"data": []map[string]string{{"id": "claude-a"}, {"id": "claude-b"}},
			})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	p := NewAnthropicProvider("ak-test", "")
	p.BaseURL = server.URL

	text, err := p.Generate(context.Background(), "hello")
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if text != `[{"title":"x"}]` {
		t.Errorf("Expected text blocks concatenated, got %q", text)
	}

	models, err := p.ListModels(context.Background())
	if err != nil {
		t.Fatalf("ListModels failed: %v", err)
	}
	if len(models) != 2 {
		t.Errorf("Expected 2 models, got %v", models)
	}
}

func TestNewProviderUnknown(t *testing.T) {
	if _, err := NewProvider(context.Background(), "llama", "key", ""); err == nil {
		t.Errorf("Expected error for unknown provider")
	}
	p, err := NewProvider(context.Background(), "openai", "key", "gpt-4o")
	if err != nil {
		t.Fatalf("NewProvider failed: %v", err)
	}
	if p.(*OpenAIProvider).Model != "gpt-4o" {
		t.Errorf("Expected model to be passed through")
	}
}
