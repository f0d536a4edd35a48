package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// DefaultBaseURL is where a locally installed Ollama daemon listens.
const DefaultBaseURL = "http://127.0.0.1:11434"

// Client talks to an Ollama daemon over its HTTP API.
type Client struct {
	baseURL string
	client  *http.Client
}

// Config holds client configuration.
type Config struct {
	BaseURL string
	Timeout time.Duration
	// Client overrides the constructed http.Client when set.
	Client *http.Client
}

// New creates an Ollama API client. Zero-value config targets the local daemon.
func New(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	hc := cfg.Client
	if hc == nil {
		// No overall timeout by default: chat streams can be long-lived.
		hc = &http.Client{Timeout: cfg.Timeout}
	}
	return &Client{baseURL: strings.TrimRight(cfg.BaseURL, "/"), client: hc}
}

// BaseURL returns the daemon endpoint this client targets.
func (c *Client) BaseURL() string { return c.baseURL }

// ListModels fetches the installed models from /api/tags.
func (c *Client) ListModels(ctx context.Context) ([]Model, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/tags", nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("list models: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if err := checkStatus(resp); err != nil {
		return nil, fmt.Errorf("list models: %w", err)
	}
	var tr tagsResponse
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return nil, fmt.Errorf("list models: decode: %w", err)
	}
	return tr.Models, nil
}

// Chat posts a streaming chat request and invokes fn for every content chunk
// as it arrives. fn may be nil. The accumulated assistant reply is returned.
func (c *Client) Chat(ctx context.Context, creq ChatRequest, fn func(chunk string)) (string, error) {
	creq.Stream = true
	body, err := json.Marshal(creq)
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("chat: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if err := checkStatus(resp); err != nil {
		return "", fmt.Errorf("chat: %w", err)
	}

	// Responses stream as NDJSON, one chunk object per line.
	var full strings.Builder
	dec := json.NewDecoder(resp.Body)
	for {
		var ch chatChunk
		if err := dec.Decode(&ch); err != nil {
			if err == io.EOF {
				break
			}
			return full.String(), fmt.Errorf("chat: decode stream: %w", err)
		}
		piece := ch.Message.Content
		if piece == "" {
			piece = ch.Response
		}
		if piece != "" {
			full.WriteString(piece)
			if fn != nil {
				fn(piece)
			}
		}
		if ch.Done {
			break
		}
	}
	return full.String(), nil
}

// Embeddings requests an embedding vector for prompt from /api/embeddings.
func (c *Client) Embeddings(ctx context.Context, model, prompt string) ([]float64, error) {
	body, err := json.Marshal(EmbeddingsRequest{Model: model, Prompt: prompt})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/embeddings", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("embeddings: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if err := checkStatus(resp); err != nil {
		return nil, fmt.Errorf("embeddings: %w", err)
	}
	var er embeddingsResponse
	if err := json.NewDecoder(resp.Body).Decode(&er); err != nil {
		return nil, fmt.Errorf("embeddings: decode: %w", err)
	}
	return er.Embedding, nil
}

func checkStatus(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	msg := strings.TrimSpace(string(b))
	if msg == "" {
		msg = resp.Status
	}
	return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, msg)
}
