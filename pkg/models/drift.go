package models

import "time"

// BuildProfileRequest requests a BehaviorProfile be built over a window.
type BuildProfileRequest struct {
	AgentID       string    `json:"agent_id"`
	AgentVersion  string    `json:"agent_version"`
	Environment   string    `json:"environment"`
	WindowStart   time.Time `json:"window_start"`
	WindowEnd     time.Time `json:"window_end"`
	MinSampleSize int       `json:"min_sample_size"`
}

// ProfileResponse is the flat representation of a stored BehaviorProfile.
type ProfileResponse struct {
	ProfileID              string                        `json:"profile_id"`
	AgentID                string                        `json:"agent_id"`
	AgentVersion            string                       `json:"agent_version"`
	Environment             string                       `json:"environment"`
	WindowStart             time.Time                    `json:"window_start"`
	WindowEnd               time.Time                    `json:"window_end"`
	SampleSize              int                           `json:"sample_size"`
	DecisionDistributions   map[string]map[string]float64 `json:"decision_distributions"`
	SignalDistributions     map[string]map[string]float64 `json:"signal_distributions"`
	LatencyStats            map[string]float64            `json:"latency_stats"`
	CreatedAt               time.Time                     `json:"created_at"`
}

// CreateBaselineRequest promotes a profile to a baseline.
type CreateBaselineRequest struct {
	ProfileID     string  `json:"profile_id"`
	AgentID       string  `json:"agent_id"`
	AgentVersion  string  `json:"agent_version"`
	Environment   string  `json:"environment"`
	BaselineType  string  `json:"baseline_type"`
	ApprovedBy    *string `json:"approved_by,omitempty"`
	Description   *string `json:"description,omitempty"`
	AutoActivate  bool    `json:"auto_activate"`
}

// BaselineResponse is the flat representation of a stored BehaviorBaseline.
type BaselineResponse struct {
	BaselineID   string     `json:"baseline_id"`
	ProfileID    string     `json:"profile_id"`
	AgentID      string     `json:"agent_id"`
	AgentVersion string     `json:"agent_version"`
	Environment  string     `json:"environment"`
	BaselineType string     `json:"baseline_type"`
	ApprovedBy   *string    `json:"approved_by,omitempty"`
	ApprovedAt   *time.Time `json:"approved_at,omitempty"`
	Description  *string    `json:"description,omitempty"`
	IsActive     bool       `json:"is_active"`
	CreatedAt    time.Time  `json:"created_at"`
}

// ApproveBaselineRequest records approver identity for a baseline.
type ApproveBaselineRequest struct {
	ApprovedBy string `json:"approved_by"`
}

// DetectDriftRequest requests a drift comparison against an active baseline.
type DetectDriftRequest struct {
	BaselineID    string    `json:"baseline_id"`
	WindowStart   time.Time `json:"window_start"`
	WindowEnd     time.Time `json:"window_end"`
	MinSampleSize int       `json:"min_sample_size"`
}

// DriftFilters narrows a drift event list query.
type DriftFilters struct {
	AgentID      string     `json:"agent_id,omitempty"`
	AgentVersion string     `json:"agent_version,omitempty"`
	Environment  string     `json:"environment,omitempty"`
	DriftType    string     `json:"drift_type,omitempty"`
	Severity     string     `json:"severity,omitempty"`
	Resolved     *bool      `json:"resolved,omitempty"`
	StartTime    *time.Time `json:"start_time,omitempty"`
	EndTime      *time.Time `json:"end_time,omitempty"`
	Limit        int        `json:"limit,omitempty"`
	Offset       int        `json:"offset,omitempty"`
}

// DriftResponse is the flat representation of a stored BehaviorDrift event.
type DriftResponse struct {
	DriftID                 string     `json:"drift_id"`
	BaselineID              string     `json:"baseline_id"`
	AgentID                 string     `json:"agent_id"`
	AgentVersion            string     `json:"agent_version"`
	Environment             string     `json:"environment"`
	DriftType               string     `json:"drift_type"`
	Metric                  string     `json:"metric"`
	BaselineValue           float64    `json:"baseline_value"`
	ObservedValue           float64    `json:"observed_value"`
	Delta                   float64    `json:"delta"`
	DeltaPercent            float64    `json:"delta_percent"`
	Significance            float64    `json:"significance"`
	TestMethod              string     `json:"test_method"`
	Severity                string     `json:"severity"`
	DetectedAt              time.Time  `json:"detected_at"`
	ObservationWindowStart  time.Time  `json:"observation_window_start"`
	ObservationWindowEnd    time.Time  `json:"observation_window_end"`
	ObservationSampleSize   int        `json:"observation_sample_size"`
	ResolvedAt              *time.Time `json:"resolved_at,omitempty"`
}

// DriftListResponse is a paginated drift event listing.
type DriftListResponse struct {
	Events     []*DriftResponse `json:"events"`
	TotalCount int              `json:"total_count"`
	Limit      int              `json:"limit"`
	Offset     int              `json:"offset"`
}

// DriftSummaryResponse aggregates drift counts by severity over a trailing
// window, backing GET /v1/drift/summary?days=N.
type DriftSummaryResponse struct {
	Days            int            `json:"days"`
	TotalEvents     int            `json:"total_events"`
	SeverityCounts  map[string]int `json:"severity_counts"`
	UnresolvedCount int            `json:"unresolved_count"`
}
