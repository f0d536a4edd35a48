package metrics

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func TestRegisterIdempotent(t *testing.T) {
	r := prometheus.NewRegistry()
	if err := Register(r); err != nil {
		t.Fatalf("register: %v", err)
	}
	// second call is a no-op, not an error
	if err := Register(r); err != nil {
		t.Fatalf("re-register: %v", err)
	}
}

func TestCountersObservable(t *testing.T) {
	_ = Register(prometheus.DefaultRegisterer)
	IncProbeAttempt("redis")
	IncServiceStart("redis")
	IncOutcome("redis", "started")
	SetReady("redis", true)
	ObserveReadyDuration("redis", 0.42)
	IncChatRequest("llama3", "ok")

	req := httptest.NewRequest("GET", "/metrics", nil)
	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, req)
	body := rec.Body.String()
	for _, want := range []string{
		"llmstack_service_probe_attempts_total",
		"llmstack_service_starts_total",
		"llmstack_service_ready",
		"llmstack_chat_requests_total",
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("metric %s missing from exposition", want)
		}
	}
}
