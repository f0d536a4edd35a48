package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client provides HTTP client functionality to communicate with an llmstack daemon.
type Client struct {
	baseURL string
	client  *http.Client
	logger  *slog.Logger
}

// Config holds client configuration.
type Config struct {
	BaseURL string
	Timeout time.Duration
	Logger  *slog.Logger // Optional logger for client operations
}

// DefaultConfig returns default client configuration.
func DefaultConfig() Config {
	return Config{
		BaseURL: "http://127.0.0.1:8080/api",
		Timeout: 10 * time.Second,
	}
}

// New creates a new llmstack API client.
func New(config Config) *Client {
	if config.BaseURL == "" {
		config.BaseURL = "http://127.0.0.1:8080/api"
	}
	if config.Timeout == 0 {
		config.Timeout = 10 * time.Second
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	return &Client{
		baseURL: strings.TrimRight(config.BaseURL, "/"),
		logger:  config.Logger,
		client:  &http.Client{Timeout: config.Timeout},
	}
}

// IsReachable checks if the daemon is running and reachable.
func (c *Client) IsReachable(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/services", nil)
	if err != nil {
		return false
	}
	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.Debug("daemon unreachable", "error", err)
		return false
	}
	defer func() { _ = resp.Body.Close() }()
	return resp.StatusCode != http.StatusNotFound
}

// Services fetches the probe-only readiness snapshot.
func (c *Client) Services(ctx context.Context) ([]ServiceState, error) {
	var out []ServiceState
	if err := c.get(ctx, "/services", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Up asks the daemon to drive all declared services to readiness.
// The launch report is returned even when a required service failed,
// in which case ok is false.
func (c *Client) Up(ctx context.Context) (report []ServiceStatus, ok bool, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/services/up", nil)
	if err != nil {
		return nil, false, err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, false, err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusBadGateway {
		return nil, false, decodeError(resp)
	}
	if err := json.NewDecoder(resp.Body).Decode(&report); err != nil {
		return nil, false, err
	}
	return report, resp.StatusCode == http.StatusOK, nil
}

// Models lists the daemon's installed Ollama models.
func (c *Client) Models(ctx context.Context) ([]Model, error) {
	var out []Model
	if err := c.get(ctx, "/models", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// History fetches a user's conversation history.
func (c *Client) History(ctx context.Context, user string) ([]Message, error) {
	var out []Message
	if err := c.get(ctx, "/history?user="+url.QueryEscape(user), &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) get(ctx context.Context, path string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return decodeError(resp)
	}
	return json.NewDecoder(resp.Body).Decode(v)
}

func decodeError(resp *http.Response) error {
	b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	var er ErrorResponse
	if json.Unmarshal(b, &er) == nil && er.Error != "" {
		return fmt.Errorf("daemon error (%d): %s", resp.StatusCode, er.Error)
	}
	return fmt.Errorf("daemon error (%d): %s", resp.StatusCode, strings.TrimSpace(string(b)))
}
