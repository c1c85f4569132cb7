package embeddings

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestNewSelectsProvider(t *testing.T) {
	e, err := New(ProviderOpenAI, "", "sk-test", "")
	if err != nil {
		t.Fatalf("New(openai): %v", err)
	}
	if e.Name() != DefaultOpenAIModel {
		t.Errorf("openai name = %q, want default model", e.Name())
	}

	e, err = New(ProviderOllama, "", "", "")
	if err != nil {
		t.Fatalf("New(ollama): %v", err)
	}
	if e.Name() != "ollama/"+DefaultOllamaModel {
		t.Errorf("ollama name = %q", e.Name())
	}

	if _, err := New(ProviderOpenAI, "", "", ""); err == nil {
		t.Error("openai without api key did not error")
	}
	if _, err := New("typo", "", "", ""); err == nil {
		t.Error("unknown provider did not error")
	}
}

func TestOllamaEmbed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/embed" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		var req ollamaRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decoding request: %v", err)
		}
		if req.Model != "test-model" || len(req.Input) != 2 {
			t.Errorf("request = %+v", req)
		}
		json.NewEncoder(w).Encode(ollamaResponse{
			Embeddings: [][]float32{{0.1, 0.2}, {0.3, 0.4}},
		})
	}))
	defer srv.Close()

	e := NewOllama("test-model", srv.URL)
	vecs, err := e.Embed(context.Background(), []string{"una", "pangalawa"})
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if len(vecs) != 2 || vecs[1][0] != 0.3 {
		t.Errorf("vecs = %v", vecs)
	}
}

func TestOllamaEmbedErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	}))
	defer srv.Close()

	e := NewOllama("missing", srv.URL)
	if _, err := e.Embed(context.Background(), []string{"una"}); err == nil {
		t.Error("Embed against erroring server succeeded")
	}
}

func TestOllamaEmbedCountMismatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		json.NewEncoder(w).Encode(ollamaResponse{Embeddings: [][]float32{{0.1}}})
	}))
	defer srv.Close()

	e := NewOllama("test-model", srv.URL)
	if _, err := e.Embed(context.Background(), []string{"a", "b"}); err == nil {
		t.Error("short embedding response did not error")
	}
}

func TestEmbedNoTexts(t *testing.T) {
	e := NewOllama("test-model", "http://127.0.0.1:1")
	vecs, err := e.Embed(context.Background(), nil)
	if err != nil || vecs != nil {
		t.Errorf("Embed(nil) = %v, %v; want no call and no vectors", vecs, err)
	}
}
