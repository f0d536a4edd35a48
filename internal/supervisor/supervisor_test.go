package supervisor

import (
	"context"
	"errors"
	"testing"
	"time"
)

// fakeProbe reports not-ready for the first failures calls, then ready.
type fakeProbe struct {
	failures int
	calls    int
	err      error
}

func (p *fakeProbe) Ready(_ context.Context) (bool, error) {
	p.calls++
	if p.calls <= p.failures {
		return false, p.err
	}
	return true, nil
}

func (p *fakeProbe) Describe() string { return "fake" }

// neverProbe is never ready.
type neverProbe struct {
	calls int
	err   error
}

func (p *neverProbe) Ready(_ context.Context) (bool, error) {
	p.calls++
	return false, p.err
}

func (p *neverProbe) Describe() string { return "never" }

type fakeStarter struct {
	calls int
	err   error
}

func (s *fakeStarter) Start() error {
	s.calls++
	return s.err
}

func (s *fakeStarter) Describe() string { return "fake-start" }

// newFast returns a supervisor whose sleeps return immediately.
func newFast() *Supervisor {
	s := New()
	s.sleep = func(ctx context.Context, _ time.Duration) error {
		return ctx.Err()
	}
	return s
}

func TestAlreadyRunningSkipsStarter(t *testing.T) {
	p := &fakeProbe{failures: 0}
	st := &fakeStarter{}
	rep := newFast().EnsureReady(context.Background(), []ServiceSpec{
		{Name: "cache", Probe: p, Starter: st, MaxAttempts: 5},
	})
	if len(rep) != 1 {
		t.Fatalf("report length: %d", len(rep))
	}
	if rep[0].Outcome != AlreadyRunning {
		t.Fatalf("outcome: %v", rep[0].Outcome)
	}
	if rep[0].Attempts != 1 {
		t.Fatalf("attempts: %d", rep[0].Attempts)
	}
	if st.calls != 0 {
		t.Fatalf("starter must not run when already ready, got %d calls", st.calls)
	}
}

func TestStartedAfterKFailures(t *testing.T) {
	// Probe fails twice then succeeds: attempts must be 3 (k+1).
	p := &fakeProbe{failures: 2}
	st := &fakeStarter{}
	rep := newFast().EnsureReady(context.Background(), []ServiceSpec{
		{Name: "cache", Probe: p, Starter: st, MaxAttempts: 5},
	})
	got := rep[0]
	if got.Outcome != StartedSuccessfully {
		t.Fatalf("outcome: %v", got.Outcome)
	}
	if got.Attempts != 3 {
		t.Fatalf("attempts: want 3, got %d", got.Attempts)
	}
	if st.calls != 1 {
		t.Fatalf("starter must run exactly once, got %d", st.calls)
	}
}

func TestFailedAfterExhaustion(t *testing.T) {
	p := &neverProbe{}
	st := &fakeStarter{}
	rep := newFast().EnsureReady(context.Background(), []ServiceSpec{
		{Name: "server", Probe: p, Starter: st, MaxAttempts: 3},
	})
	got := rep[0]
	if got.Outcome != FailedToStart {
		t.Fatalf("outcome: %v", got.Outcome)
	}
	if got.Attempts != 3 {
		t.Fatalf("attempts: want 3, got %d", got.Attempts)
	}
	if p.calls != 3 {
		t.Fatalf("probe invocations: want exactly 3, got %d", p.calls)
	}
	if st.calls != 1 {
		t.Fatalf("starter calls: want 1, got %d", st.calls)
	}
}

func TestProbeErrorsTreatedAsNotReady(t *testing.T) {
	p := &neverProbe{err: errors.New("connection refused")}
	rep := newFast().EnsureReady(context.Background(), []ServiceSpec{
		{Name: "cache", Probe: p, Starter: &fakeStarter{}, MaxAttempts: 2},
	})
	if rep[0].Outcome != FailedToStart {
		t.Fatalf("probe error must drive retry, not abort: %v", rep[0].Outcome)
	}
}

func TestStarterErrorNotSurfaced(t *testing.T) {
	// A failing start action is inferred from probes reaching FailedToStart,
	// never reported separately.
	p := &neverProbe{}
	st := &fakeStarter{err: errors.New("executable not found")}
	rep := newFast().EnsureReady(context.Background(), []ServiceSpec{
		{Name: "ui", Probe: p, Starter: st, MaxAttempts: 2},
	})
	if rep[0].Outcome != FailedToStart {
		t.Fatalf("outcome: %v", rep[0].Outcome)
	}
}

func TestNoShortCircuitAcrossServices(t *testing.T) {
	// Scenario from the launch semantics: cache recovers on attempt 3,
	// server never comes up, ui is already running. All three evaluated.
	cache := &fakeProbe{failures: 2}
	server := &neverProbe{}
	ui := &fakeProbe{failures: 0}
	uiStart := &fakeStarter{}
	rep := newFast().EnsureReady(context.Background(), []ServiceSpec{
		{Name: "cache", Probe: cache, Starter: &fakeStarter{}, MaxAttempts: 5},
		{Name: "server", Probe: server, Starter: &fakeStarter{}, MaxAttempts: 3},
		{Name: "ui", Probe: ui, Starter: uiStart, MaxAttempts: 3},
	})
	if len(rep) != 3 {
		t.Fatalf("report length: %d", len(rep))
	}
	if rep[0].Name != "cache" || rep[1].Name != "server" || rep[2].Name != "ui" {
		t.Fatalf("report order broken: %+v", rep)
	}
	if rep[0].Outcome != StartedSuccessfully || rep[0].Attempts != 3 {
		t.Fatalf("cache: %+v", rep[0])
	}
	if rep[1].Outcome != FailedToStart || rep[1].Attempts != 3 {
		t.Fatalf("server: %+v", rep[1])
	}
	if rep[2].Outcome != AlreadyRunning {
		t.Fatalf("ui: %+v", rep[2])
	}
	if uiStart.calls != 0 {
		t.Fatalf("ui starter must not run")
	}
}

func TestReportOkRespectsRequired(t *testing.T) {
	rep := Report{
		{Name: "cache", Outcome: StartedSuccessfully, Required: true},
		{Name: "extra", Outcome: FailedToStart, Required: false},
	}
	if !rep.Ok() {
		t.Fatalf("optional failure must not fail the launch")
	}
	rep = append(rep, ServiceStatus{Name: "server", Outcome: FailedToStart, Required: true})
	if rep.Ok() {
		t.Fatalf("required failure must fail the launch")
	}
	if n := len(rep.Failed()); n != 2 {
		t.Fatalf("failed count: %d", n)
	}
}

func TestNilStarterAndZeroAttempts(t *testing.T) {
	p := &neverProbe{}
	rep := newFast().EnsureReady(context.Background(), []ServiceSpec{
		{Name: "ext", Probe: p, MaxAttempts: 0},
	})
	// MaxAttempts below 1 clamps to a single probe.
	if rep[0].Attempts != 1 || rep[0].Outcome != FailedToStart {
		t.Fatalf("clamped spec: %+v", rep[0])
	}
}

func TestContextCancellationStopsPolling(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	p := &neverProbe{}
	s := New() // real sleep; canceled context must cut it short
	rep := s.EnsureReady(ctx, []ServiceSpec{
		{Name: "cache", Probe: p, Starter: &fakeStarter{}, MaxAttempts: 100, PollInterval: time.Hour},
	})
	if rep[0].Outcome != FailedToStart {
		t.Fatalf("canceled run must report failure: %+v", rep[0])
	}
	if rep[0].Attempts != 1 {
		t.Fatalf("no further attempts after cancel: %+v", rep[0])
	}
}

func TestOutcomeJSONRoundTrip(t *testing.T) {
	for _, o := range []Outcome{AlreadyRunning, StartedSuccessfully, FailedToStart} {
		b, err := o.MarshalJSON()
		if err != nil {
			t.Fatalf("marshal %v: %v", o, err)
		}
		var back Outcome
		if err := back.UnmarshalJSON(b); err != nil {
			t.Fatalf("unmarshal %s: %v", b, err)
		}
		if back != o {
			t.Fatalf("round trip %v != %v", back, o)
		}
	}
}
