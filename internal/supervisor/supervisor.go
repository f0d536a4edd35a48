package supervisor

import (
	"context"
	"log/slog"
	"time"

	"github.com/llmstack/llmstack/internal/launcher"
	"github.com/llmstack/llmstack/internal/metrics"
	"github.com/llmstack/llmstack/internal/probe"
)

// ServiceSpec declares one external dependency to be driven to readiness.
type ServiceSpec struct {
	Name string
	// Probe reports whether the service is currently reachable.
	Probe probe.Probe
	// Starter is invoked at most once, and only when the first probe fails.
	Starter launcher.Starter
	// MaxAttempts bounds the total number of probe invocations, including
	// the initial pre-start probe. Values below 1 are treated as 1.
	MaxAttempts int
	// PollInterval is the sleep between probe attempts after a start.
	PollInterval time.Duration
	// Required marks services whose failure should fail the overall launch.
	Required bool
}

// Supervisor drives registered ServiceSpecs through probe -> start -> re-poll.
type Supervisor struct {
	logger *slog.Logger
	// sleep is replaceable in tests to avoid real delays.
	sleep func(ctx context.Context, d time.Duration) error
}

func New() *Supervisor {
	return &Supervisor{logger: slog.Default(), sleep: sleepCtx}
}

// SetLogger overrides the logger used for per-service transitions.
func (s *Supervisor) SetLogger(l *slog.Logger) {
	if l != nil {
		s.logger = l
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// EnsureReady supervises every spec in declaration order and returns the
// complete report. It never returns an error: probe and start failures are
// folded into per-service outcomes, and one service failing never prevents
// the remaining services from being evaluated.
func (s *Supervisor) EnsureReady(ctx context.Context, specs []ServiceSpec) Report {
	report := make(Report, 0, len(specs))
	for _, spec := range specs {
		report = append(report, s.ensureOne(ctx, spec))
	}
	return report
}

func (s *Supervisor) ensureOne(ctx context.Context, spec ServiceSpec) ServiceStatus {
	maxAttempts := spec.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	st := ServiceStatus{Name: spec.Name, Required: spec.Required}
	if spec.Probe != nil {
		st.ProbedBy = spec.Probe.Describe()
	}
	began := time.Now()
	defer func() {
		st.Elapsed = time.Since(began)
		metrics.IncOutcome(spec.Name, st.Outcome.String())
		metrics.SetReady(spec.Name, st.Outcome != FailedToStart)
		if st.Outcome == StartedSuccessfully {
			metrics.ObserveReadyDuration(spec.Name, st.Elapsed.Seconds())
		}
	}()

	st.Attempts = 1
	if s.probeOnce(ctx, spec) {
		st.Outcome = AlreadyRunning
		s.logger.Info("service already running", "name", spec.Name, "probe", st.ProbedBy)
		return st
	}

	s.logger.Info("starting service", "name", spec.Name, "starter", describeStarter(spec.Starter))
	if spec.Starter != nil {
		metrics.IncServiceStart(spec.Name)
		if err := spec.Starter.Start(); err != nil {
			// Start failure is inferred from subsequent probes; not fatal here.
			s.logger.Debug("start action failed", "name", spec.Name, "error", err)
		}
	}

	for st.Attempts < maxAttempts {
		if err := s.sleep(ctx, spec.PollInterval); err != nil {
			s.logger.Warn("service wait canceled", "name", spec.Name, "attempts", st.Attempts)
			st.Outcome = FailedToStart
			return st
		}
		st.Attempts++
		if s.probeOnce(ctx, spec) {
			st.Outcome = StartedSuccessfully
			s.logger.Info("service started", "name", spec.Name, "attempts", st.Attempts)
			return st
		}
	}

	st.Outcome = FailedToStart
	s.logger.Error("service failed to start", "name", spec.Name, "attempts", st.Attempts)
	return st
}

// probeOnce treats probe errors identically to an explicit not-ready signal.
func (s *Supervisor) probeOnce(ctx context.Context, spec ServiceSpec) bool {
	metrics.IncProbeAttempt(spec.Name)
	if spec.Probe == nil {
		return false
	}
	ok, err := spec.Probe.Ready(ctx)
	if err != nil {
		s.logger.Debug("probe not ready", "name", spec.Name, "error", err)
		return false
	}
	return ok
}

func describeStarter(st launcher.Starter) string {
	if st == nil {
		return "none"
	}
	return st.Describe()
}
