package events

// DriftDetectedPayload is the payload for drift.detected events, mirroring
// the fields of one BehaviorDrift row. Published once per persisted event,
// immediately after the Drift Engine's transaction commits.
type DriftDetectedPayload struct {
	Type                   string  `json:"type"` // always EventTypeDriftDetected
	DriftID                string  `json:"drift_id"`
	BaselineID             string  `json:"baseline_id"`
	AgentID                string  `json:"agent_id"`
	AgentVersion           string  `json:"agent_version"`
	Environment            string  `json:"environment"`
	DriftType              string  `json:"drift_type"`
	Metric                 string  `json:"metric"`
	BaselineValue          float64 `json:"baseline_value"`
	ObservedValue          float64 `json:"observed_value"`
	Delta                  float64 `json:"delta"`
	DeltaPercent           float64 `json:"delta_percent"`
	Significance           float64 `json:"significance"`
	TestMethod             string  `json:"test_method"`
	Severity               string  `json:"severity"`
	DetectedAt             string  `json:"detected_at"` // RFC3339Nano
	ObservationWindowStart string  `json:"observation_window_start"`
	ObservationWindowEnd   string  `json:"observation_window_end"`
	ObservationSampleSize  int     `json:"observation_sample_size"`
}
