package openai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"

	"github.com/paddocklabs/regsearch/internal/domain"
)

func chatServer(t *testing.T, content string, check func(r *http.Request, body map[string]any)) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if check != nil {
			check(r, body)
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"object": "chat.completion",
			"model":  "test-model",
			"choices": []map[string]any{
				{"index": 0, "message": map[string]any{"role": "assistant", "content": content}},
			},
		})
	}))
}

func TestGenerator_Complete(t *testing.T) {
	server := chatServer(t, "- The minimum weight is 798 kg. [1]", func(_ *http.Request, body map[string]any) {
		msgs, _ := body["messages"].([]any)
		if len(msgs) != 2 {
			t.Errorf("expected system+user messages, got %d", len(msgs))
		}
		if temp, ok := body["temperature"].(float64); ok && temp != 0 {
			t.Errorf("temperature must be 0, got %v", temp)
		}
	})
	defer server.Close()

	gen := NewGenerator(&Config{
		APIKey:   "test-key",
		BaseURL:  server.URL,
		Model:    "test-model",
		Provider: "test",
		Logger:   zap.NewNop(),
	})

	answer, err := gen.Complete(context.Background(), "system prompt", "user prompt")
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
	if answer != "- The minimum weight is 798 kg. [1]" {
		t.Fatalf("unexpected answer: %q", answer)
	}
}

func TestGenerator_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadGateway)
		json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{"message": "upstream unavailable", "type": "server_error"},
		})
	}))
	defer server.Close()

	gen := NewGenerator(&Config{
		APIKey:   "test-key",
		BaseURL:  server.URL,
		Model:    "test-model",
		Provider: "test",
		Logger:   zap.NewNop(),
	})

	_, err := gen.Complete(context.Background(), "s", "u")
	if !errors.Is(err, domain.ErrGenerationProviderError) {
		t.Fatalf("expected provider error, got: %v", err)
	}
}
