package alert

import "context"

// Notification is the sink-agnostic payload delivered to every Sink.
// Summary is the neutral-vocabulary line produced by Describe.
type Notification struct {
	DriftID      string
	AgentID      string
	AgentVersion string
	Environment  string
	DriftType    string
	Metric       string
	Severity     string
	Summary      string
}

// Sink delivers a Notification to one external destination. Implementations
// must respect ctx's deadline; the Emitter applies a per-sink timeout
// around every call and never retries.
type Sink interface {
	Name() string
	Send(ctx context.Context, n Notification) error
}
