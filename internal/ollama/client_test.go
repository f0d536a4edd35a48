package ollama

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestListModels(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/tags" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		fmt.Fprint(w, `{"models":[{"name":"llama3:8b","size":4661224676},{"name":"phi3:mini","size":2176178913}]}`)
	}))
	defer srv.Close()

	c := New(Config{BaseURL: srv.URL})
	models, err := c.ListModels(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(models) != 2 || models[0].Name != "llama3:8b" {
		t.Fatalf("models: %+v", models)
	}
}

func TestListModelsServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := New(Config{BaseURL: srv.URL})
	if _, err := c.ListModels(context.Background()); err == nil {
		t.Fatalf("expected error on 500")
	} else if !strings.Contains(err.Error(), "500") {
		t.Fatalf("error should carry status: %v", err)
	}
}

func TestChatStreaming(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/chat" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		fmt.Fprintln(w, `{"message":{"role":"assistant","content":"Hel"},"done":false}`)
		fmt.Fprintln(w, `{"message":{"role":"assistant","content":"lo!"},"done":false}`)
		fmt.Fprintln(w, `{"message":{"role":"assistant","content":""},"done":true}`)
	}))
	defer srv.Close()

	c := New(Config{BaseURL: srv.URL})
	var chunks []string
	full, err := c.Chat(context.Background(), ChatRequest{
		Model:    "llama3:8b",
		Messages: []Message{{Role: "user", Content: "hi"}},
		Options:  &Options{Temperature: 0.7, TopP: 0.9, NumPredict: 512},
	}, func(chunk string) { chunks = append(chunks, chunk) })
	if err != nil {
		t.Fatalf("chat: %v", err)
	}
	if full != "Hello!" {
		t.Fatalf("full reply: %q", full)
	}
	if len(chunks) != 2 {
		t.Fatalf("chunk callbacks: %v", chunks)
	}
}

func TestChatGenerateStyleChunks(t *testing.T) {
	// /api/generate style chunks carry "response" instead of "message".
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintln(w, `{"response":"one ","done":false}`)
		fmt.Fprintln(w, `{"response":"two","done":true}`)
	}))
	defer srv.Close()

	c := New(Config{BaseURL: srv.URL})
	full, err := c.Chat(context.Background(), ChatRequest{Model: "m"}, nil)
	if err != nil {
		t.Fatalf("chat: %v", err)
	}
	if full != "one two" {
		t.Fatalf("full reply: %q", full)
	}
}

func TestEmbeddings(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/embeddings" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		fmt.Fprint(w, `{"embedding":[0.1,0.2,0.3]}`)
	}))
	defer srv.Close()

	c := New(Config{BaseURL: srv.URL})
	emb, err := c.Embeddings(context.Background(), "llama3:8b", "hello")
	if err != nil {
		t.Fatalf("embeddings: %v", err)
	}
	if len(emb) != 3 || emb[1] != 0.2 {
		t.Fatalf("embedding: %v", emb)
	}
}
