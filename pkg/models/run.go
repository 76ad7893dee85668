// Package models holds the DTOs exchanged at the ingest and query HTTP
// boundary. They are separate from the ent-generated entities so that wire
// shape (e.g. nested children on write, flat filters on read) can diverge
// from storage shape.
package models

import "time"

// CreateRunRequest is the full ingest payload for one agent run and its
// children. Idempotent by RunID: a duplicate POST returns the stored run.
type CreateRunRequest struct {
	RunID         string                    `json:"run_id"`
	AgentID       string                    `json:"agent_id"`
	AgentVersion  string                    `json:"agent_version"`
	Environment   string                    `json:"environment"`
	Status        string                    `json:"status"`
	StartedAt     time.Time                 `json:"started_at"`
	EndedAt       *time.Time                `json:"ended_at,omitempty"`
	Steps         []CreateStepRequest       `json:"steps,omitempty"`
	Failures      []CreateFailureRequest    `json:"failures,omitempty"`
	Decisions     []CreateDecisionRequest   `json:"decisions,omitempty"`
	QualitySignals []CreateSignalRequest    `json:"quality_signals,omitempty"`
}

// CreateStepRequest is one step within a CreateRunRequest.
type CreateStepRequest struct {
	StepID    string         `json:"step_id"`
	Seq       int            `json:"seq"`
	StepType  string         `json:"step_type"`
	Name      string         `json:"name"`
	LatencyMs int            `json:"latency_ms"`
	StartedAt time.Time      `json:"started_at"`
	EndedAt   time.Time      `json:"ended_at"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// CreateFailureRequest is one failure within a CreateRunRequest.
type CreateFailureRequest struct {
	FailureID   string  `json:"failure_id"`
	StepID      *string `json:"step_id,omitempty"`
	FailureType string  `json:"failure_type"`
	FailureCode string  `json:"failure_code"`
	Message     string  `json:"message"`
}

// CreateDecisionRequest is one decision within a CreateRunRequest.
type CreateDecisionRequest struct {
	DecisionID   string         `json:"decision_id"`
	StepID       *string        `json:"step_id,omitempty"`
	DecisionType string         `json:"decision_type"`
	Selected     string         `json:"selected"`
	ReasonCode   string         `json:"reason_code"`
	Confidence   *float64       `json:"confidence,omitempty"`
	Metadata     map[string]any `json:"metadata,omitempty"`
}

// CreateSignalRequest is one quality signal within a CreateRunRequest.
type CreateSignalRequest struct {
	SignalID   string         `json:"signal_id"`
	StepID     *string        `json:"step_id,omitempty"`
	SignalType string         `json:"signal_type"`
	SignalCode string         `json:"signal_code"`
	Value      bool           `json:"value"`
	Weight     *float64       `json:"weight,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

// RunFilters narrows a run list query.
type RunFilters struct {
	AgentID      string     `json:"agent_id,omitempty"`
	AgentVersion string     `json:"agent_version,omitempty"`
	Environment  string     `json:"environment,omitempty"`
	Status       string     `json:"status,omitempty"`
	StartTime    *time.Time `json:"start_time,omitempty"`
	EndTime      *time.Time `json:"end_time,omitempty"`
	Limit        int        `json:"limit,omitempty"`
	Offset       int        `json:"offset,omitempty"`
}

// RunListResponse is a paginated run listing.
type RunListResponse struct {
	Runs       []*RunResponse `json:"runs"`
	TotalCount int            `json:"total_count"`
	Limit      int            `json:"limit"`
	Offset     int            `json:"offset"`
}

// RunResponse is the flat representation of a stored run returned to callers.
type RunResponse struct {
	RunID        string     `json:"run_id"`
	AgentID      string     `json:"agent_id"`
	AgentVersion string     `json:"agent_version"`
	Environment  string     `json:"environment"`
	Status       string     `json:"status"`
	StartedAt    time.Time  `json:"started_at"`
	EndedAt      *time.Time `json:"ended_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

// StepResponse is the flat representation of a stored step.
type StepResponse struct {
	StepID    string         `json:"step_id"`
	RunID     string         `json:"run_id"`
	Seq       int            `json:"seq"`
	StepType  string         `json:"step_type"`
	Name      string         `json:"name"`
	LatencyMs int            `json:"latency_ms"`
	StartedAt time.Time      `json:"started_at"`
	EndedAt   time.Time      `json:"ended_at"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// FailureResponse is the flat representation of a stored failure.
type FailureResponse struct {
	FailureID   string  `json:"failure_id"`
	RunID       string  `json:"run_id"`
	StepID      *string `json:"step_id,omitempty"`
	FailureType string  `json:"failure_type"`
	FailureCode string  `json:"failure_code"`
	Message     string  `json:"message"`
}

// StatsResponse summarizes run volume and outcome mix across a window.
type StatsResponse struct {
	TotalRuns       int            `json:"total_runs"`
	StatusCounts    map[string]int `json:"status_counts"`
	AgentCounts     map[string]int `json:"agent_counts"`
	WindowStart     *time.Time     `json:"window_start,omitempty"`
	WindowEnd       *time.Time     `json:"window_end,omitempty"`
}
