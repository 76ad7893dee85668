// Package drift compares a freshly built BehaviorProfile against the
// profile backing an active BehaviorBaseline and emits classified,
// severity-ranked drift events wherever the two diverge by more than the
// configured statistical and practical-magnitude thresholds.
package drift

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/laxkc/agentwatch/ent"
	"github.com/laxkc/agentwatch/ent/behaviordrift"
	"github.com/laxkc/agentwatch/pkg/profile"
	"github.com/laxkc/agentwatch/pkg/threshold"
)

// Engine runs the drift-comparison pipeline for one baseline at a time.
type Engine struct {
	client     *ent.Client
	builder    *profile.Builder
	thresholds *threshold.Thresholds
}

// NewEngine constructs an Engine. thresholds is an immutable value owned by
// the engine instance, not process-wide global state.
func NewEngine(client *ent.Client, builder *profile.Builder, thresholds *threshold.Thresholds) *Engine {
	if client == nil {
		panic("drift.NewEngine: client must not be nil")
	}
	if builder == nil {
		panic("drift.NewEngine: builder must not be nil")
	}
	if thresholds == nil {
		thresholds = threshold.Defaults()
	}
	return &Engine{client: client, builder: builder, thresholds: thresholds}
}

// Detect builds a profile over the observation window and compares it
// against the profile backing baseline, persisting and returning every
// significant DriftEvent in one transaction. Returns profile.ErrInsufficientData
// unchanged if the observation window has too few runs.
func (e *Engine) Detect(ctx context.Context, baseline *ent.BehaviorBaseline, windowStart, windowEnd time.Time, minSampleSize int) ([]*ent.BehaviorDrift, error) {
	observed, err := e.builder.Build(ctx, profile.Params{
		AgentID:       baseline.AgentID,
		AgentVersion:  baseline.AgentVersion,
		Environment:   baseline.Environment,
		WindowStart:   windowStart,
		WindowEnd:     windowEnd,
		MinSampleSize: minSampleSize,
	})
	if err != nil {
		return nil, err
	}

	baselineProfile, err := e.client.BehaviorProfile.Get(ctx, baseline.ProfileID)
	if err != nil {
		return nil, fmt.Errorf("load baseline profile %s: %w", baseline.ProfileID, err)
	}

	detectedAt := time.Now()
	var events []Event

	events = append(events, e.compareDistributions(
		baselineProfile.DecisionDistributions, observed.DecisionDistributions,
		"decision", e.thresholds.Decision, baseline, windowStart, windowEnd, observed.SampleSize, detectedAt)...)

	events = append(events, e.compareDistributions(
		baselineProfile.SignalDistributions, observed.SignalDistributions,
		"signal", e.thresholds.Signal, baseline, windowStart, windowEnd, observed.SampleSize, detectedAt)...)

	events = append(events, e.compareLatency(
		baselineProfile.LatencyStats, observed.LatencyStats,
		baseline, windowStart, windowEnd, observed.SampleSize, detectedAt)...)

	if len(events) == 0 {
		return nil, nil
	}
	return e.persist(ctx, events)
}

// compareDistributions runs the tag-by-tag chi-square comparison shared by
// decision and signal drift.
func (e *Engine) compareDistributions(
	baselineDist, observedDist map[string]map[string]float64,
	driftType string, thresholds threshold.DimensionThresholds,
	baseline *ent.BehaviorBaseline, windowStart, windowEnd time.Time, sampleSize int, detectedAt time.Time,
) []Event {
	var events []Event

	tags := make([]string, 0, len(baselineDist))
	for tag := range baselineDist {
		if _, ok := observedDist[tag]; ok {
			tags = append(tags, tag)
		}
	}
	sort.Strings(tags)

	for _, tag := range tags {
		baselineOptions := baselineDist[tag]
		observedOptions := observedDist[tag]
		if len(baselineOptions) == 0 || len(observedOptions) == 0 {
			continue
		}

		options := unionSortedKeys(baselineOptions, observedOptions)
		expected := make([]float64, len(options))
		observedFreq := make([]float64, len(options))
		for i, opt := range options {
			expected[i] = baselineOptions[opt] * 1000
			observedFreq[i] = observedOptions[opt] * 1000
		}

		p := goodnessOfFitPValue(observedFreq, expected)

		for _, opt := range options {
			baselineVal := baselineOptions[opt]
			observedVal := observedOptions[opt]
			delta := observedVal - baselineVal
			deltaPercent := 0.0
			if baselineVal > 0 {
				deltaPercent = delta / baselineVal * 100
			}

			if !isSignificant(p, math.Abs(deltaPercent), thresholds) {
				continue
			}

			events = append(events, Event{
				BaselineID:             baseline.ID,
				AgentID:                baseline.AgentID,
				AgentVersion:           baseline.AgentVersion,
				Environment:            baseline.Environment,
				DriftType:              driftType,
				Metric:                 tag + "." + opt,
				BaselineValue:          baselineVal,
				ObservedValue:          observedVal,
				Delta:                  delta,
				DeltaPercent:           deltaPercent,
				Significance:           p,
				TestMethod:             "chi_square",
				Severity:               e.thresholds.Severity.Band(math.Abs(deltaPercent)),
				DetectedAt:             detectedAt,
				ObservationWindowStart: windowStart,
				ObservationWindowEnd:   windowEnd,
				ObservationSampleSize:  sampleSize,
			})
		}
	}
	return events
}

// compareLatency compares mean and p95 run duration against the latency
// magnitude threshold; no statistical test is run (significance=1.0).
func (e *Engine) compareLatency(
	baselineStats, observedStats map[string]float64,
	baseline *ent.BehaviorBaseline, windowStart, windowEnd time.Time, sampleSize int, detectedAt time.Time,
) []Event {
	var events []Event

	metrics := []struct {
		metric string
		field  string
	}{
		{"mean_run_duration_ms", "mean"},
		{"p95_run_duration_ms", "p95"},
	}

	for _, m := range metrics {
		baselineVal := baselineStats[m.field]
		observedVal := observedStats[m.field]
		if baselineVal <= 0 || observedVal <= 0 {
			continue
		}
		delta := observedVal - baselineVal
		deltaPercent := delta / baselineVal * 100

		if math.Abs(deltaPercent) < e.thresholds.Latency.MinDeltaPercent {
			continue
		}

		events = append(events, Event{
			BaselineID:             baseline.ID,
			AgentID:                baseline.AgentID,
			AgentVersion:           baseline.AgentVersion,
			Environment:            baseline.Environment,
			DriftType:              "latency",
			Metric:                 m.metric,
			BaselineValue:          baselineVal,
			ObservedValue:          observedVal,
			Delta:                  delta,
			DeltaPercent:           deltaPercent,
			Significance:           1.0,
			TestMethod:             "percent_threshold",
			Severity:               e.thresholds.Severity.Band(math.Abs(deltaPercent)),
			DetectedAt:             detectedAt,
			ObservationWindowStart: windowStart,
			ObservationWindowEnd:   windowEnd,
			ObservationSampleSize:  sampleSize,
		})
	}
	return events
}

// goodnessOfFitPValue runs a chi-square goodness-of-fit test and returns its
// p-value, defaulting to 1.0 ("no test attempted") whenever the statistic or
// degrees of freedom are unusable.
func goodnessOfFitPValue(observed, expected []float64) float64 {
	df := len(expected) - 1
	if df < 1 {
		return 1.0
	}
	statistic := stat.ChiSquare(observed, expected)
	if math.IsNaN(statistic) || math.IsInf(statistic, 0) {
		return 1.0
	}
	dist := distuv.ChiSquared{K: float64(df)}
	p := 1 - dist.CDF(statistic)
	if math.IsNaN(p) || math.IsInf(p, 0) {
		return 1.0
	}
	return p
}

// isSignificant applies the decision/signal significance predicate: both
// the p-value gate and the magnitude floor must hold. p=1.0 ("no test
// attempted") always skips the p-value gate.
func isSignificant(p, absDeltaPercent float64, thresholds threshold.DimensionThresholds) bool {
	if p >= 1.0 {
		return absDeltaPercent >= thresholds.MinDeltaPercent
	}
	return p <= thresholds.MaxPValue && absDeltaPercent >= thresholds.MinDeltaPercent
}

// unionSortedKeys returns the sorted union of two distributions' option keys.
func unionSortedKeys(a, b map[string]float64) []string {
	seen := make(map[string]struct{}, len(a)+len(b))
	for k := range a {
		seen[k] = struct{}{}
	}
	for k := range b {
		seen[k] = struct{}{}
	}
	keys := make([]string, 0, len(seen))
	for k := range seen {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// persist inserts every event in one transaction. If persistence fails, no
// partial drift is reported.
func (e *Engine) persist(ctx context.Context, events []Event) ([]*ent.BehaviorDrift, error) {
	tx, err := e.client.Tx(ctx)
	if err != nil {
		return nil, fmt.Errorf("start transaction: %w", err)
	}
	defer tx.Rollback()

	saved := make([]*ent.BehaviorDrift, 0, len(events))
	for _, evt := range events {
		id := evt.ID
		if id == "" {
			id = uuid.New().String()
		}
		row, err := tx.BehaviorDrift.Create().
			SetID(id).
			SetBaselineID(evt.BaselineID).
			SetAgentID(evt.AgentID).
			SetAgentVersion(evt.AgentVersion).
			SetEnvironment(evt.Environment).
			SetDriftType(behaviordrift.DriftType(evt.DriftType)).
			SetMetric(evt.Metric).
			SetBaselineValue(evt.BaselineValue).
			SetObservedValue(evt.ObservedValue).
			SetDelta(evt.Delta).
			SetDeltaPercent(evt.DeltaPercent).
			SetSignificance(evt.Significance).
			SetTestMethod(evt.TestMethod).
			SetSeverity(behaviordrift.Severity(evt.Severity)).
			SetDetectedAt(evt.DetectedAt).
			SetObservationWindowStart(evt.ObservationWindowStart).
			SetObservationWindowEnd(evt.ObservationWindowEnd).
			SetObservationSampleSize(evt.ObservationSampleSize).
			Save(ctx)
		if err != nil {
			return nil, fmt.Errorf("persist drift event %s: %w", evt.Metric, err)
		}
		saved = append(saved, row)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit drift events: %w", err)
	}
	return saved, nil
}
