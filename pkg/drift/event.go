package drift

import "time"

// Event is the drift-comparison result for a single metric, ready for
// persistence as a BehaviorDrift row.
type Event struct {
	ID                     string
	BaselineID             string
	AgentID                string
	AgentVersion           string
	Environment            string
	DriftType              string
	Metric                 string
	BaselineValue          float64
	ObservedValue          float64
	Delta                  float64
	DeltaPercent           float64
	Significance           float64
	TestMethod             string
	Severity               string
	DetectedAt             time.Time
	ObservationWindowStart time.Time
	ObservationWindowEnd   time.Time
	ObservationSampleSize  int
}
