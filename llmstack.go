package llmstack

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"

	cfg "github.com/llmstack/llmstack/internal/config"
	"github.com/llmstack/llmstack/internal/history"
	"github.com/llmstack/llmstack/internal/metrics"
	"github.com/llmstack/llmstack/internal/ollama"
	"github.com/llmstack/llmstack/internal/profile"
	iapi "github.com/llmstack/llmstack/internal/server"
	"github.com/llmstack/llmstack/internal/supervisor"
)

// Re-export core types for external consumers.
// These are aliases so conversions are zero-cost.

type ServiceSpec = supervisor.ServiceSpec

type ServiceStatus = supervisor.ServiceStatus

type Report = supervisor.Report

type Outcome = supervisor.Outcome

const (
	AlreadyRunning      = supervisor.AlreadyRunning
	StartedSuccessfully = supervisor.StartedSuccessfully
	FailedToStart       = supervisor.FailedToStart
)

type Config = cfg.Config

// Supervisor is a thin facade over internal/supervisor.Supervisor.
// It provides a stable public API for embedding.

type Supervisor struct{ inner *supervisor.Supervisor }

func New() *Supervisor { return &Supervisor{inner: supervisor.New()} }

// EnsureReady drives every spec to readiness and returns the launch report.
func (s *Supervisor) EnsureReady(ctx context.Context, specs []ServiceSpec) Report {
	return s.inner.EnsureReady(ctx, specs)
}

func LoadConfig(path string) (*Config, error) { return cfg.Load(path) }

// NewHTTPServer starts the stack's HTTP API on addr using the given config.
func NewHTTPServer(addr string, c *Config) (*http.Server, error) {
	specs, err := c.ServiceSpecs()
	if err != nil {
		return nil, err
	}
	router := iapi.NewRouter(iapi.Deps{
		BasePath: c.Server.BasePath,
		Specs:    specs,
		Ollama:   ollama.New(ollama.Config{BaseURL: c.Ollama.BaseURL, Timeout: c.Ollama.Timeout}),
		History:  history.NewRedis(c.Redis.Addr, c.Redis.Password, c.Redis.DB),
		Profiles: profile.NewManager(c.Redis.Addr, c.Redis.Password, c.Redis.DB),
	})
	return iapi.NewServer(addr, router), nil
}

// Metrics helpers (public facade)

func RegisterMetrics(r prometheus.Registerer) error { return metrics.Register(r) }
func RegisterMetricsDefault() error                 { return metrics.Register(prometheus.DefaultRegisterer) }
