package alert

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/laxkc/agentwatch/ent"
)

// DefaultSinkTimeout bounds how long the Emitter waits for a single sink
// before giving up on that delivery and moving on.
const DefaultSinkTimeout = 10 * time.Second

// Emitter always logs a drift event at the neutral vocabulary contract,
// then fans it out concurrently to every configured sink. A sink timing
// out or erroring never blocks the others and never surfaces from Emit:
// delivery is fail-open, matching how the Slack notification service
// treats its own delivery errors.
type Emitter struct {
	sinks       []Sink
	sinkTimeout time.Duration
	logger      *slog.Logger
}

// NewEmitter constructs an Emitter over the given sinks. A nil entry in
// sinks is skipped rather than dialed, so callers can pass conditionally
// constructed sinks (e.g. NewSlackSink(maybeNilService)) directly.
func NewEmitter(sinks ...Sink) *Emitter {
	e := &Emitter{
		sinkTimeout: DefaultSinkTimeout,
		logger:      slog.Default().With("component", "alert-emitter"),
	}
	for _, s := range sinks {
		if s == nil {
			continue
		}
		e.sinks = append(e.sinks, s)
	}
	return e
}

// WithSinkTimeout overrides the per-sink delivery timeout.
func (e *Emitter) WithSinkTimeout(d time.Duration) *Emitter {
	e.sinkTimeout = d
	return e
}

// Emit logs d and dispatches it to every sink concurrently, waiting for
// all deliveries to finish or time out before returning.
func (e *Emitter) Emit(ctx context.Context, d *ent.BehaviorDrift) {
	summary := Describe(d)

	e.logger.Info("behavior drift detected",
		"drift_id", d.ID,
		"agent_id", d.AgentID,
		"agent_version", d.AgentVersion,
		"environment", d.Environment,
		"drift_type", string(d.DriftType),
		"metric", d.Metric,
		"severity", string(d.Severity),
		"summary", summary,
	)

	if len(e.sinks) == 0 {
		return
	}

	n := Notification{
		DriftID:      d.ID,
		AgentID:      d.AgentID,
		AgentVersion: d.AgentVersion,
		Environment:  d.Environment,
		DriftType:    string(d.DriftType),
		Metric:       d.Metric,
		Severity:     string(d.Severity),
		Summary:      summary,
	}

	var wg sync.WaitGroup
	for _, sink := range e.sinks {
		wg.Add(1)
		go func(s Sink) {
			defer wg.Done()
			e.deliver(ctx, s, n)
		}(sink)
	}
	wg.Wait()
}

func (e *Emitter) deliver(ctx context.Context, s Sink, n Notification) {
	ctx, cancel := context.WithTimeout(ctx, e.sinkTimeout)
	defer cancel()

	if err := s.Send(ctx, n); err != nil {
		e.logger.Warn("sink delivery failed",
			"sink", s.Name(),
			"drift_id", n.DriftID,
			"error", err)
	}
}
