package supervisor

import (
	"encoding/json"
	"fmt"
	"time"
)

// Outcome is the three-state result of supervising one service.
type Outcome int

const (
	AlreadyRunning Outcome = iota
	StartedSuccessfully
	FailedToStart
)

func (o Outcome) String() string {
	switch o {
	case AlreadyRunning:
		return "already-running"
	case StartedSuccessfully:
		return "started"
	case FailedToStart:
		return "failed"
	default:
		return "unknown"
	}
}

// MarshalJSON encodes the outcome as its string form.
func (o Outcome) MarshalJSON() ([]byte, error) { return json.Marshal(o.String()) }

// UnmarshalJSON accepts the string form produced by MarshalJSON.
func (o *Outcome) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	switch s {
	case "already-running":
		*o = AlreadyRunning
	case "started":
		*o = StartedSuccessfully
	case "failed":
		*o = FailedToStart
	default:
		return fmt.Errorf("unknown outcome %q", s)
	}
	return nil
}

// ServiceStatus is the outcome of supervising one declared service.
// Attempts counts every probe invocation, the initial pre-start probe included.
type ServiceStatus struct {
	Name     string        `json:"name"`
	Outcome  Outcome       `json:"outcome"`
	Attempts int           `json:"attempts"`
	Elapsed  time.Duration `json:"elapsed"`
	ProbedBy string        `json:"probed_by,omitempty"`
	Required bool          `json:"required"`
}

// Report holds one ServiceStatus per registered spec, in registration order.
type Report []ServiceStatus

// Ok reports whether every required service ended ready.
// Optional services may fail without failing the launch.
func (r Report) Ok() bool {
	for _, st := range r {
		if st.Required && st.Outcome == FailedToStart {
			return false
		}
	}
	return true
}

// Failed returns the statuses that exhausted their retry budget.
func (r Report) Failed() []ServiceStatus {
	var out []ServiceStatus
	for _, st := range r {
		if st.Outcome == FailedToStart {
			out = append(out, st)
		}
	}
	return out
}
