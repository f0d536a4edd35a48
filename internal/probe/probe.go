package probe

import "context"

// Probe is a strategy that determines if an external service is ready.
// Implementations must be side-effect free and safely repeatable, and
// safe for concurrent use.
type Probe interface {
	// Ready returns true if the service answers its readiness check.
	// Transient failures (connection refused, timeout) are reported as
	// (false, err); callers treat any error as not-ready.
	Ready(ctx context.Context) (bool, error)
	// Describe returns a human-readable description of the check method.
	Describe() string
}
