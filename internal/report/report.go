package report

import (
	"context"
	"time"

	"github.com/llmstack/llmstack/internal/supervisor"
)

// Record is one persisted per-service outcome from a launch run.
// RunID groups the services supervised in a single EnsureReady invocation.
type Record struct {
	RunID     string
	Service   string
	Outcome   string
	Attempts  int
	Elapsed   time.Duration
	CreatedAt time.Time
}

// Store persists launch reports so past runs can be inspected.
type Store interface {
	EnsureSchema(ctx context.Context) error
	SaveReport(ctx context.Context, runID string, rep supervisor.Report) error
	// Recent returns up to limit records, newest run first, preserving the
	// per-run service order.
	Recent(ctx context.Context, limit int) ([]Record, error)
	Close() error
}
