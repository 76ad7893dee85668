package drift

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/laxkc/agentwatch/pkg/threshold"
)

func TestGoodnessOfFitPValue_DefaultsWhenSingleOption(t *testing.T) {
	p := goodnessOfFitPValue([]float64{1000}, []float64{1000})
	assert.Equal(t, 1.0, p)
}

func TestGoodnessOfFitPValue_LowPValueOnLargeShift(t *testing.T) {
	// 150 baseline runs at 65/35, 100 observed runs at 40/60 (scenario 1).
	observed := []float64{400, 600}
	expected := []float64{650, 350}
	p := goodnessOfFitPValue(observed, expected)
	assert.Less(t, p, 0.05)
}

func TestIsSignificant_DecisionGate(t *testing.T) {
	dt := threshold.DimensionThresholds{MaxPValue: 0.05, MinDeltaPercent: 10}
	assert.True(t, isSignificant(0.01, 38.5, dt))
	assert.False(t, isSignificant(0.2, 38.5, dt), "p-value gate should block even a large shift")
	assert.False(t, isSignificant(0.01, 5, dt), "magnitude floor should block even a significant p-value")
}

func TestIsSignificant_NoTestAttemptedSkipsPGate(t *testing.T) {
	dt := threshold.DimensionThresholds{MaxPValue: 0.05, MinDeltaPercent: 10}
	assert.True(t, isSignificant(1.0, 1900, dt))
	assert.False(t, isSignificant(1.0, 5, dt))
}

func TestUnionSortedKeys_IsDeterministic(t *testing.T) {
	a := map[string]float64{"cache": 0.35, "api": 0.65}
	b := map[string]float64{"api": 0.40, "cache": 0.60, "fallback": 0.0}
	keys := unionSortedKeys(a, b)
	assert.Equal(t, []string{"api", "cache", "fallback"}, keys)
}

func TestScenario_LatencyRegression(t *testing.T) {
	thresholds := threshold.Defaults()
	engine := &Engine{thresholds: thresholds}

	events := engine.compareLatency(
		map[string]float64{"mean": 1000, "p95": 2000},
		map[string]float64{"mean": 1000, "p95": 3500},
		baselineFixture(), fixedWindow(), fixedWindow(), 100, fixedDetectedAt(),
	)
	assert := assert.New(t)
	if assert.Len(events, 1) {
		assert.Equal("latency", events[0].DriftType)
		assert.Equal("p95_run_duration_ms", events[0].Metric)
		assert.InDelta(75.0, events[0].DeltaPercent, 0.01)
		assert.Equal("high", events[0].Severity)
		assert.Equal("percent_threshold", events[0].TestMethod)
		assert.Equal(1.0, events[0].Significance)
	}
}

func TestScenario_NoDriftOnStableBehavior(t *testing.T) {
	thresholds := threshold.Defaults()
	engine := &Engine{thresholds: thresholds}

	baselineDist := map[string]map[string]float64{"tool_selection": {"api": 0.65, "cache": 0.35}}
	observedDist := map[string]map[string]float64{"tool_selection": {"api": 0.655, "cache": 0.345}}

	events := engine.compareDistributions(baselineDist, observedDist, "decision", thresholds.Decision,
		baselineFixture(), fixedWindow(), fixedWindow(), 100, fixedDetectedAt())
	assert.Empty(t, events)
}
