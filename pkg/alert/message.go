// Package alert turns a detected BehaviorDrift into a neutral-language
// notification and fans it out to zero or more configured sinks.
package alert

import (
	"fmt"
	"math"

	"github.com/laxkc/agentwatch/ent"
)

// direction reports whether the observed value moved up or down relative
// to the baseline, in vocabulary that carries no judgment about whether
// the move is good or bad.
func direction(delta float64) string {
	switch {
	case delta > 0:
		return "observed increase"
	case delta < 0:
		return "observed decrease"
	default:
		return "no change"
	}
}

// Describe renders the single neutral-language summary line for a drift
// event. The wording is deliberately free of judgment words — no
// "better"/"worse", "correct"/"incorrect", "regression", or "degraded" —
// because the engine cannot tell whether a behavior shift is desirable;
// it only reports that one occurred.
func Describe(d *ent.BehaviorDrift) string {
	dir := direction(d.Delta)
	sig := "no statistical test attempted"
	if d.Significance < 1.0 {
		sig = fmt.Sprintf("statistical significance p=%.4f", d.Significance)
	}

	return fmt.Sprintf(
		"%s: %s from %s to %s (%+.1f%%), %s, sample size %d",
		d.Metric,
		dir,
		formatValue(string(d.DriftType), d.BaselineValue),
		formatValue(string(d.DriftType), d.ObservedValue),
		d.DeltaPercent,
		sig,
		d.ObservationSampleSize,
	)
}

// formatValue renders a baseline/observed value in the units appropriate
// to its drift type: percentages for decision/signal distributions,
// milliseconds for latency.
func formatValue(driftType string, v float64) string {
	if driftType == "latency" {
		return fmt.Sprintf("%.0fms", v)
	}
	return fmt.Sprintf("%.1f%%", math.Round(v*1000)/10)
}
