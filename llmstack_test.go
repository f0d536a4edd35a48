package llmstack

import (
	"context"
	"testing"
)

type readyProbe struct{}

func (readyProbe) Ready(_ context.Context) (bool, error) { return true, nil }
func (readyProbe) Describe() string                      { return "ready" }

func TestFacadeEnsureReady(t *testing.T) {
	s := New()
	rep := s.EnsureReady(context.Background(), []ServiceSpec{
		{Name: "svc", Probe: readyProbe{}, MaxAttempts: 1, Required: true},
	})
	if len(rep) != 1 || rep[0].Outcome != AlreadyRunning {
		t.Fatalf("report: %+v", rep)
	}
	if !rep.Ok() {
		t.Fatalf("expected ok report")
	}
}

func TestFacadeLoadConfigDefaults(t *testing.T) {
	c, err := LoadConfig("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(c.Services) != 3 {
		t.Fatalf("default services: %d", len(c.Services))
	}
}

func TestFacadeMetrics(t *testing.T) {
	if err := RegisterMetricsDefault(); err != nil {
		t.Fatalf("metrics: %v", err)
	}
}
