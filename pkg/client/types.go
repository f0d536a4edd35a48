package client

import "time"

// ServiceState is the probe-only readiness view of one service.
type ServiceState struct {
	Name     string `json:"name"`
	Ready    bool   `json:"ready"`
	ProbedBy string `json:"probed_by"`
	Required bool   `json:"required"`
}

// ServiceStatus is one entry of a launch report.
type ServiceStatus struct {
	Name     string        `json:"name"`
	Outcome  string        `json:"outcome"`
	Attempts int           `json:"attempts"`
	Elapsed  time.Duration `json:"elapsed"`
	ProbedBy string        `json:"probed_by,omitempty"`
	Required bool          `json:"required"`
}

// Model is one installed Ollama model.
type Model struct {
	Name string `json:"name"`
	Size int64  `json:"size"`
}

// Message is one conversation turn.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ErrorResponse represents an API error response.
type ErrorResponse struct {
	Error string `json:"error"`
}
