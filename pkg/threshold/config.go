// Package threshold loads and exposes the significance, magnitude, and
// severity thresholds the Drift Engine compares observations against. It is
// loaded once per engine instance and passed in at construction, never
// read from process-wide global state.
package threshold

// DimensionThresholds gates one drift dimension: a statistical significance
// ceiling and a practical-magnitude floor, both required for "significant".
type DimensionThresholds struct {
	MaxPValue       float64 `yaml:"max_p_value" validate:"gte=0,lte=1"`
	MinDeltaPercent float64 `yaml:"min_delta_percent" validate:"gte=0"`
}

// LatencyThresholds gates the latency dimension, which has no statistical
// test — magnitude alone decides significance.
type LatencyThresholds struct {
	MinDeltaPercent float64 `yaml:"min_delta_percent" validate:"gte=0"`
}

// SeverityBands maps |delta_percent| onto a severity label. Values at or
// below LowMax are low, at or below MediumMax are medium, above is high.
type SeverityBands struct {
	LowMax    float64 `yaml:"low_max" validate:"gte=0"`
	MediumMax float64 `yaml:"medium_max" validate:"gtfield=LowMax"`
}

// Band returns the severity label for a magnitude.
func (s SeverityBands) Band(absDeltaPercent float64) string {
	switch {
	case absDeltaPercent <= s.LowMax:
		return "low"
	case absDeltaPercent <= s.MediumMax:
		return "medium"
	default:
		return "high"
	}
}

// Thresholds is the complete, validated configuration consumed by the Drift
// Engine. Missing values in a loaded document fall back to Defaults.
type Thresholds struct {
	Decision DimensionThresholds `yaml:"decision" validate:"required"`
	Signal   DimensionThresholds `yaml:"signal" validate:"required"`
	Latency  LatencyThresholds   `yaml:"latency" validate:"required"`
	Severity SeverityBands       `yaml:"severity" validate:"required"`
}

// Defaults returns the threshold set specified for decision, signal, and
// latency drift when no config file is present or a field is unset.
func Defaults() *Thresholds {
	return &Thresholds{
		Decision: DimensionThresholds{MaxPValue: 0.05, MinDeltaPercent: 10},
		Signal:   DimensionThresholds{MaxPValue: 0.05, MinDeltaPercent: 15},
		Latency:  LatencyThresholds{MinDeltaPercent: 20},
		Severity: SeverityBands{LowMax: 15, MediumMax: 30},
	}
}
