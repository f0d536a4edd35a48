package probe

import (
	"context"
	"net/http"
	"time"
)

const defaultHTTPTimeout = 5 * time.Second

// HTTP probes a health endpoint with a GET request.
// The service is ready iff the endpoint answers 200 OK.
type HTTP struct {
	URL     string
	Timeout time.Duration
	// Client overrides the default http.Client when set (used by tests).
	Client *http.Client
}

func (p HTTP) Ready(ctx context.Context) (bool, error) {
	client := p.Client
	if client == nil {
		to := p.Timeout
		if to <= 0 {
			to = defaultHTTPTimeout
		}
		client = &http.Client{Timeout: to}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.URL, nil)
	if err != nil {
		return false, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return false, err
	}
	defer func() { _ = resp.Body.Close() }()
	return resp.StatusCode == http.StatusOK, nil
}

func (p HTTP) Describe() string { return "http:" + p.URL }
