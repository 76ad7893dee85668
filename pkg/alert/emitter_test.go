package alert

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/laxkc/agentwatch/ent"
	"github.com/laxkc/agentwatch/ent/behaviordrift"
)

type recordingSink struct {
	name    string
	delay   time.Duration
	err     error
	calls   int32
	lastCtx context.Context
}

func (r *recordingSink) Name() string { return r.name }

func (r *recordingSink) Send(ctx context.Context, _ Notification) error {
	atomic.AddInt32(&r.calls, 1)
	r.lastCtx = ctx
	if r.delay > 0 {
		select {
		case <-time.After(r.delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return r.err
}

func sampleDrift() *ent.BehaviorDrift {
	return &ent.BehaviorDrift{
		ID:                    "drift-1",
		AgentID:               "triage-agent",
		AgentVersion:          "1.4.0",
		Environment:           "production",
		DriftType:             behaviordrift.DriftTypeDecision,
		Metric:                "tool_selection.api",
		BaselineValue:         0.65,
		ObservedValue:         0.40,
		Delta:                 -0.25,
		DeltaPercent:          -38.46,
		Significance:          0.01,
		Severity:              behaviordrift.SeverityHigh,
		ObservationSampleSize: 100,
	}
}

func TestEmitter_NoSinksDoesNotPanic(t *testing.T) {
	e := NewEmitter()
	assert.NotPanics(t, func() {
		e.Emit(context.Background(), sampleDrift())
	})
}

func TestEmitter_NilSinkSkipped(t *testing.T) {
	e := NewEmitter(nil)
	assert.Empty(t, e.sinks)
}

func TestEmitter_DispatchesToAllSinksConcurrently(t *testing.T) {
	a := &recordingSink{name: "a"}
	b := &recordingSink{name: "b"}
	e := NewEmitter(a, b)

	e.Emit(context.Background(), sampleDrift())

	assert.EqualValues(t, 1, a.calls)
	assert.EqualValues(t, 1, b.calls)
}

func TestEmitter_SinkErrorDoesNotBlockOthers(t *testing.T) {
	failing := &recordingSink{name: "failing", err: errors.New("boom")}
	ok := &recordingSink{name: "ok"}
	e := NewEmitter(failing, ok)

	assert.NotPanics(t, func() {
		e.Emit(context.Background(), sampleDrift())
	})
	assert.EqualValues(t, 1, ok.calls)
}

func TestEmitter_SinkTimeoutDoesNotHangEmit(t *testing.T) {
	slow := &recordingSink{name: "slow", delay: 50 * time.Millisecond}
	e := NewEmitter(slow).WithSinkTimeout(5 * time.Millisecond)

	done := make(chan struct{})
	go func() {
		e.Emit(context.Background(), sampleDrift())
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(200 * time.Millisecond):
		t.Fatal("Emit did not return within the expected bound")
	}
}
