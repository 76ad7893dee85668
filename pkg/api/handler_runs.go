package api

import (
	"net/http"

	echo "github.com/labstack/echo/v5"

	"github.com/laxkc/agentwatch/ent"
	"github.com/laxkc/agentwatch/pkg/eventstore"
	"github.com/laxkc/agentwatch/pkg/models"
)

// putRunHandler handles POST /v1/runs. Idempotent by run_id: a duplicate
// submission returns the stored record with 200 instead of 201.
func (s *Server) putRunHandler(c *echo.Context) error {
	var req models.CreateRunRequest
	if err := c.Bind(&req); err != nil {
		return mapServiceError(c, &eventstore.ValidationError{Field: "body", Message: "malformed JSON", Kind: eventstore.ErrSchemaInvalid})
	}

	existed := false
	if _, err := s.store.GetRun(c.Request().Context(), req.RunID); err == nil {
		existed = true
	}

	run, err := s.store.PutRun(c.Request().Context(), req)
	if err != nil {
		return mapServiceError(c, err)
	}

	if existed {
		return c.JSON(http.StatusOK, toRunResponse(run))
	}
	return c.JSON(http.StatusCreated, toRunResponse(run))
}

// listRunsHandler handles GET /v1/runs.
func (s *Server) listRunsHandler(c *echo.Context) error {
	limit, offset := pagination(c)
	filters := eventstore.RunFilters{
		AgentID:      c.QueryParam("agent_id"),
		AgentVersion: c.QueryParam("agent_version"),
		Environment:  c.QueryParam("environment"),
		Status:       c.QueryParam("status"),
		StartTime:    parseTimeParam(c, "start_time"),
		EndTime:      parseTimeParam(c, "end_time"),
		Limit:        limit,
		Offset:       offset,
	}

	runs, total, err := s.store.ListRuns(c.Request().Context(), filters)
	if err != nil {
		return mapServiceError(c, err)
	}

	out := make([]*models.RunResponse, len(runs))
	for i, r := range runs {
		out[i] = toRunResponse(r)
	}
	return c.JSON(http.StatusOK, models.RunListResponse{
		Runs:       out,
		TotalCount: total,
		Limit:      limit,
		Offset:     offset,
	})
}

// getRunHandler handles GET /v1/runs/:id.
func (s *Server) getRunHandler(c *echo.Context) error {
	run, err := s.store.GetRun(c.Request().Context(), c.Param("id"))
	if err != nil {
		return mapServiceError(c, err)
	}
	return c.JSON(http.StatusOK, toRunResponse(run))
}

// listStepsHandler handles GET /v1/runs/:id/steps.
func (s *Server) listStepsHandler(c *echo.Context) error {
	runID := c.Param("id")
	if _, err := s.store.GetRun(c.Request().Context(), runID); err != nil {
		return mapServiceError(c, err)
	}

	steps, err := s.store.ListSteps(c.Request().Context(), runID)
	if err != nil {
		return mapServiceError(c, err)
	}

	out := make([]*models.StepResponse, len(steps))
	for i, st := range steps {
		out[i] = toStepResponse(st)
	}
	return c.JSON(http.StatusOK, out)
}

// listFailuresHandler handles GET /v1/runs/:id/failures.
func (s *Server) listFailuresHandler(c *echo.Context) error {
	runID := c.Param("id")
	if _, err := s.store.GetRun(c.Request().Context(), runID); err != nil {
		return mapServiceError(c, err)
	}

	failures, err := s.store.ListFailures(c.Request().Context(), runID)
	if err != nil {
		return mapServiceError(c, err)
	}

	out := make([]*models.FailureResponse, len(failures))
	for i, f := range failures {
		out[i] = toFailureResponse(f)
	}
	return c.JSON(http.StatusOK, out)
}

// listDecisionsHandler handles GET /v1/runs/:id/decisions. Supplemented
// beyond the distilled query surface to round out run inspection the way
// the teacher's session detail endpoints do.
func (s *Server) listDecisionsHandler(c *echo.Context) error {
	runID := c.Param("id")
	if _, err := s.store.GetRun(c.Request().Context(), runID); err != nil {
		return mapServiceError(c, err)
	}

	decisions, err := s.store.ListDecisions(c.Request().Context(), runID)
	if err != nil {
		return mapServiceError(c, err)
	}
	return c.JSON(http.StatusOK, toDecisionResponses(decisions))
}

// listSignalsHandler handles GET /v1/runs/:id/signals.
func (s *Server) listSignalsHandler(c *echo.Context) error {
	runID := c.Param("id")
	if _, err := s.store.GetRun(c.Request().Context(), runID); err != nil {
		return mapServiceError(c, err)
	}

	signals, err := s.store.ListSignals(c.Request().Context(), runID)
	if err != nil {
		return mapServiceError(c, err)
	}
	return c.JSON(http.StatusOK, toSignalResponses(signals))
}

// statsHandler handles GET /v1/stats.
func (s *Server) statsHandler(c *echo.Context) error {
	windowStart := parseTimeParam(c, "start_time")
	windowEnd := parseTimeParam(c, "end_time")

	total, statusCounts, agentCounts, err := s.store.Stats(c.Request().Context(), windowStart, windowEnd)
	if err != nil {
		return mapServiceError(c, err)
	}

	return c.JSON(http.StatusOK, models.StatsResponse{
		TotalRuns:    total,
		StatusCounts: statusCounts,
		AgentCounts:  agentCounts,
		WindowStart:  windowStart,
		WindowEnd:    windowEnd,
	})
}

// decisionResponse is the flat representation of a stored decision. It is
// not part of pkg/models because /v1/runs/{id}/decisions is a supplemented
// endpoint beyond spec.md's distilled DTO set.
type decisionResponse struct {
	DecisionID   string         `json:"decision_id"`
	RunID        string         `json:"run_id"`
	StepID       *string        `json:"step_id,omitempty"`
	DecisionType string         `json:"decision_type"`
	Selected     string         `json:"selected"`
	ReasonCode   string         `json:"reason_code"`
	Confidence   *float64       `json:"confidence,omitempty"`
	Metadata     map[string]any `json:"metadata,omitempty"`
}

func toDecisionResponses(decisions []*ent.AgentDecision) []*decisionResponse {
	out := make([]*decisionResponse, len(decisions))
	for i, d := range decisions {
		out[i] = &decisionResponse{
			DecisionID:   d.ID,
			RunID:        d.RunID,
			StepID:       d.StepID,
			DecisionType: d.DecisionType,
			Selected:     d.Selected,
			ReasonCode:   d.ReasonCode,
			Confidence:   d.Confidence,
			Metadata:     d.Metadata,
		}
	}
	return out
}

// signalResponse is the flat representation of a stored quality signal.
type signalResponse struct {
	SignalID   string         `json:"signal_id"`
	RunID      string         `json:"run_id"`
	StepID     *string        `json:"step_id,omitempty"`
	SignalType string         `json:"signal_type"`
	SignalCode string         `json:"signal_code"`
	Value      bool           `json:"value"`
	Weight     *float64       `json:"weight,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

func toSignalResponses(signals []*ent.AgentQualitySignal) []*signalResponse {
	out := make([]*signalResponse, len(signals))
	for i, sig := range signals {
		out[i] = &signalResponse{
			SignalID:   sig.ID,
			RunID:      sig.RunID,
			StepID:     sig.StepID,
			SignalType: sig.SignalType,
			SignalCode: sig.SignalCode,
			Value:      sig.Value,
			Weight:     sig.Weight,
			Metadata:   sig.Metadata,
		}
	}
	return out
}
