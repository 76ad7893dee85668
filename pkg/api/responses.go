package api

import (
	"strconv"
	"time"

	echo "github.com/labstack/echo/v5"

	"github.com/laxkc/agentwatch/ent"
	"github.com/laxkc/agentwatch/pkg/models"
)

const (
	defaultLimit = 100
	maxLimit     = 1000
)

// pagination reads limit/offset query params with the bounds from spec.md §6:
// limit in [1, 1000], offset >= 0.
func pagination(c *echo.Context) (limit, offset int) {
	limit = defaultLimit
	if v := c.QueryParam("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 1 && n <= maxLimit {
			limit = n
		}
	}
	offset = 0
	if v := c.QueryParam("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			offset = n
		}
	}
	return limit, offset
}

func toRunResponse(r *ent.AgentRun) *models.RunResponse {
	return &models.RunResponse{
		RunID:        r.ID,
		AgentID:      r.AgentID,
		AgentVersion: r.AgentVersion,
		Environment:  r.Environment,
		Status:       string(r.Status),
		StartedAt:    r.StartedAt,
		EndedAt:      r.EndedAt,
		CreatedAt:    r.CreatedAt,
	}
}

func toStepResponse(s *ent.AgentStep) *models.StepResponse {
	return &models.StepResponse{
		StepID:    s.ID,
		RunID:     s.RunID,
		Seq:       s.Seq,
		StepType:  string(s.StepType),
		Name:      s.Name,
		LatencyMs: s.LatencyMs,
		StartedAt: s.StartedAt,
		EndedAt:   s.EndedAt,
		Metadata:  s.Metadata,
	}
}

func toFailureResponse(f *ent.AgentFailure) *models.FailureResponse {
	return &models.FailureResponse{
		FailureID:   f.ID,
		RunID:       f.RunID,
		StepID:      f.StepID,
		FailureType: string(f.FailureType),
		FailureCode: f.FailureCode,
		Message:     f.Message,
	}
}

func toBaselineResponse(b *ent.BehaviorBaseline) *models.BaselineResponse {
	return &models.BaselineResponse{
		BaselineID:   b.ID,
		ProfileID:    b.ProfileID,
		AgentID:      b.AgentID,
		AgentVersion: b.AgentVersion,
		Environment:  b.Environment,
		BaselineType: string(b.BaselineType),
		ApprovedBy:   b.ApprovedBy,
		ApprovedAt:   b.ApprovedAt,
		Description:  b.Description,
		IsActive:     b.IsActive,
		CreatedAt:    b.CreatedAt,
	}
}

func toProfileResponse(p *ent.BehaviorProfile) *models.ProfileResponse {
	return &models.ProfileResponse{
		ProfileID:              p.ID,
		AgentID:                p.AgentID,
		AgentVersion:           p.AgentVersion,
		Environment:            p.Environment,
		WindowStart:            p.WindowStart,
		WindowEnd:              p.WindowEnd,
		SampleSize:             p.SampleSize,
		DecisionDistributions:  p.DecisionDistributions,
		SignalDistributions:    p.SignalDistributions,
		LatencyStats:           p.LatencyStats,
		CreatedAt:              p.CreatedAt,
	}
}

func toDriftResponse(d *ent.BehaviorDrift) *models.DriftResponse {
	return &models.DriftResponse{
		DriftID:                d.ID,
		BaselineID:             d.BaselineID,
		AgentID:                d.AgentID,
		AgentVersion:           d.AgentVersion,
		Environment:            d.Environment,
		DriftType:              string(d.DriftType),
		Metric:                 d.Metric,
		BaselineValue:          d.BaselineValue,
		ObservedValue:          d.ObservedValue,
		Delta:                  d.Delta,
		DeltaPercent:           d.DeltaPercent,
		Significance:           d.Significance,
		TestMethod:             d.TestMethod,
		Severity:               string(d.Severity),
		DetectedAt:             d.DetectedAt,
		ObservationWindowStart: d.ObservationWindowStart,
		ObservationWindowEnd:   d.ObservationWindowEnd,
		ObservationSampleSize:  d.ObservationSampleSize,
		ResolvedAt:             d.ResolvedAt,
	}
}

func parseTimeParam(c *echo.Context, name string) *time.Time {
	v := c.QueryParam(name)
	if v == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return nil
	}
	return &t
}
