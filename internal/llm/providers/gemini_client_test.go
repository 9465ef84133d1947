// File path: internal/llm/providers/gemini_client_test.go
package providers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestGeminiChat(t *testing.T) {
	var gotPath string
	var gotBody map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode body: %v", err)
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"candidates": []map[string]interface{}{
				{"content": map[string]interface{}{"parts": []map[string]string{{"text": "a neutral overview"}}}},
			},
		})
	}))
	defer server.Close()
	t.Setenv("GEMINI_ENDPOINT", server.URL)
	t.Setenv("GEMINI_CHAT_MODEL", "gemini-2.0-flash")

	provider := NewGeminiProvider("test-key")
	answer, err := provider.Chat(context.Background(), []Message{{Role: "user", Content: "summarize the timeline"}})
	if err != nil {
		t.Fatalf("chat: %v", err)
	}
	if answer != "a neutral overview" {
		t.Fatalf("unexpected answer: %q", answer)
	}
	if !strings.Contains(gotPath, "gemini-2.0-flash:generateContent") {
		t.Fatalf("unexpected path: %q", gotPath)
	}
	contents, ok := gotBody["contents"].([]interface{})
	if !ok || len(contents) != 1 {
		t.Fatalf("unexpected contents: %v", gotBody)
	}
}

func TestGeminiChatNoCandidates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"candidates": []interface{}{}})
	}))
	defer server.Close()
	t.Setenv("GEMINI_ENDPOINT", server.URL)

	provider := NewGeminiProvider("test-key")
	if _, err := provider.Chat(context.Background(), []Message{{Role: "user", Content: "hi"}}); err == nil {
		t.Fatalf("expected error for empty candidates")
	}
}

func TestGeminiEmbed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]interface{}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode body: %v", err)
		}
		requests := body["requests"].([]interface{})
		embeddings := make([]map[string]interface{}, len(requests))
		for i := range requests {
			embeddings[i] = map[string]interface{}{"values": []float32{0.1, 0.2, 0.3}}
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"embeddings": embeddings})
	}))
	defer server.Close()
	t.Setenv("GEMINI_ENDPOINT", server.URL)

	provider := NewGeminiProvider("test-key")
	vectors, err := provider.Embed(context.Background(), []string{"first record", "second record"})
	if err != nil {
		t.Fatalf("embed: %v", err)
	}
	if len(vectors) != 2 || len(vectors[0]) != 3 {
		t.Fatalf("unexpected vectors: %v", vectors)
	}
}

func TestGeminiServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer server.Close()
	t.Setenv("GEMINI_ENDPOINT", server.URL)

	provider := NewGeminiProvider("test-key")
	if _, err := provider.Chat(context.Background(), []Message{{Role: "user", Content: "hi"}}); err == nil {
		t.Fatalf("expected error for 429 response")
	}
}
