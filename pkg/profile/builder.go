// Package profile aggregates raw decision, signal, and timing events in a
// window into a BehaviorProfile: a pure function of the event store's state
// for that window, built fresh every time rather than incrementally updated.
package profile

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/laxkc/agentwatch/ent"
	"github.com/laxkc/agentwatch/pkg/eventstore"
)

// Params selects the window and key a profile is built over.
type Params struct {
	AgentID       string
	AgentVersion  string
	Environment   string
	WindowStart   time.Time
	WindowEnd     time.Time
	MinSampleSize int
}

// Result is the statistical snapshot produced by Build. It mirrors
// BehaviorProfile's fields but is not itself a stored row — persistence is
// the caller's responsibility.
type Result struct {
	SampleSize            int
	DecisionDistributions map[string]map[string]float64
	SignalDistributions   map[string]map[string]float64
	LatencyStats          map[string]float64
}

// Builder turns raw events into BehaviorProfile snapshots.
type Builder struct {
	store *eventstore.Store
}

// NewBuilder constructs a Builder over the given event store.
func NewBuilder(store *eventstore.Store) *Builder {
	if store == nil {
		panic("profile.NewBuilder: store must not be nil")
	}
	return &Builder{store: store}
}

// Build aggregates events within [params.WindowStart, params.WindowEnd) for
// the given (agent_id, agent_version, environment) into a Result. Fails
// with ErrInsufficientData if fewer than MinSampleSize runs are found.
func (b *Builder) Build(ctx context.Context, params Params) (*Result, error) {
	count, err := b.store.CountRuns(ctx, params.AgentID, params.AgentVersion, params.Environment, params.WindowStart, params.WindowEnd)
	if err != nil {
		return nil, fmt.Errorf("count runs: %w", err)
	}
	if count < params.MinSampleSize {
		return nil, ErrInsufficientData
	}

	decisionCounts, err := b.store.DecisionCounts(ctx, params.AgentID, params.AgentVersion, params.Environment, params.WindowStart, params.WindowEnd)
	if err != nil {
		return nil, fmt.Errorf("decision counts: %w", err)
	}
	signalCounts, err := b.store.SignalCounts(ctx, params.AgentID, params.AgentVersion, params.Environment, params.WindowStart, params.WindowEnd)
	if err != nil {
		return nil, fmt.Errorf("signal counts: %w", err)
	}
	durations, err := b.store.RunDurations(ctx, params.AgentID, params.AgentVersion, params.Environment, params.WindowStart, params.WindowEnd)
	if err != nil {
		return nil, fmt.Errorf("run durations: %w", err)
	}

	return &Result{
		SampleSize:            count,
		DecisionDistributions: normalize(decisionCounts),
		SignalDistributions:   normalize(signalCounts),
		LatencyStats:          latencyStats(durations),
	}, nil
}

// normalize converts grouped counts into a probability distribution per
// tag: inner values sum to 1.0. A tag with zero observations is omitted
// entirely rather than included as an empty map.
func normalize(counts map[string]map[string]int) map[string]map[string]float64 {
	dist := make(map[string]map[string]float64, len(counts))
	for tag, byOption := range counts {
		total := 0
		for _, c := range byOption {
			total += c
		}
		if total == 0 {
			continue
		}
		inner := make(map[string]float64, len(byOption))
		for option, c := range byOption {
			inner[option] = float64(c) / float64(total)
		}
		dist[tag] = inner
	}
	return dist
}

// latencyStats computes mean and nearest-rank percentiles over run
// durations, in milliseconds, rounded to 0.01ms.
func latencyStats(durations []float64) map[string]float64 {
	n := len(durations)
	if n == 0 {
		return map[string]float64{
			"mean": 0, "p50": 0, "p95": 0, "p99": 0, "sample_count": 0,
		}
	}

	sorted := make([]float64, n)
	copy(sorted, durations)
	sort.Float64s(sorted)

	mean := stat.Mean(sorted, nil)

	return map[string]float64{
		"mean":         round2(mean),
		"p50":          round2(percentile(sorted, 0.50)),
		"p95":          round2(percentile(sorted, 0.95)),
		"p99":          round2(percentile(sorted, 0.99)),
		"sample_count": float64(n),
	}
}

// percentile applies nearest-rank selection: index = floor(n*p), clamped to
// the last element. For n=1 every percentile returns the single value.
func percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 1 {
		return sorted[0]
	}
	idx := int(math.Floor(float64(n) * p))
	if idx >= n {
		idx = n - 1
	}
	return sorted[idx]
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// Persist stores a Result as an immutable BehaviorProfile row with the
// given id. Callers typically generate the id (e.g. a UUID) beforehand.
func Persist(ctx context.Context, client *ent.Client, id string, params Params, result *Result) (*ent.BehaviorProfile, error) {
	profile, err := client.BehaviorProfile.Create().
		SetID(id).
		SetAgentID(params.AgentID).
		SetAgentVersion(params.AgentVersion).
		SetEnvironment(params.Environment).
		SetWindowStart(params.WindowStart).
		SetWindowEnd(params.WindowEnd).
		SetSampleSize(result.SampleSize).
		SetDecisionDistributions(result.DecisionDistributions).
		SetSignalDistributions(result.SignalDistributions).
		SetLatencyStats(result.LatencyStats).
		Save(ctx)
	if err != nil {
		return nil, fmt.Errorf("persist profile: %w", err)
	}
	return profile, nil
}
