package api

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	echo "github.com/labstack/echo/v5"

	"github.com/laxkc/agentwatch/ent"
	"github.com/laxkc/agentwatch/ent/behaviordrift"
	"github.com/laxkc/agentwatch/ent/behaviorprofile"
	"github.com/laxkc/agentwatch/pkg/baseline"
	"github.com/laxkc/agentwatch/pkg/events"
	"github.com/laxkc/agentwatch/pkg/eventstore"
	"github.com/laxkc/agentwatch/pkg/models"
)

// listProfilesHandler handles GET /v1/drift/profiles.
func (s *Server) listProfilesHandler(c *echo.Context) error {
	query := s.dbClient.Client.BehaviorProfile.Query()
	if v := c.QueryParam("agent_id"); v != "" {
		query = query.Where(behaviorprofile.AgentIDEQ(v))
	}
	if v := c.QueryParam("agent_version"); v != "" {
		query = query.Where(behaviorprofile.AgentVersionEQ(v))
	}
	if v := c.QueryParam("environment"); v != "" {
		query = query.Where(behaviorprofile.EnvironmentEQ(v))
	}

	limit, offset := pagination(c)
	profiles, err := query.
		Order(ent.Desc(behaviorprofile.FieldCreatedAt)).
		Limit(limit).
		Offset(offset).
		All(c.Request().Context())
	if err != nil {
		return mapServiceError(c, err)
	}

	out := make([]*models.ProfileResponse, len(profiles))
	for i, p := range profiles {
		out[i] = toProfileResponse(p)
	}
	return c.JSON(http.StatusOK, out)
}

// getProfileHandler handles GET /v1/drift/profiles/:id.
func (s *Server) getProfileHandler(c *echo.Context) error {
	profile, err := s.dbClient.Client.BehaviorProfile.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		if ent.IsNotFound(err) {
			return mapServiceError(c, baseline.ErrBaselineNotFound)
		}
		return mapServiceError(c, err)
	}
	return c.JSON(http.StatusOK, toProfileResponse(profile))
}

// listBaselinesHandler handles GET /v1/drift/baselines.
func (s *Server) listBaselinesHandler(c *echo.Context) error {
	baselines, err := s.baselines.List(c.Request().Context(), baseline.ListFilters{
		AgentID:      c.QueryParam("agent_id"),
		AgentVersion: c.QueryParam("agent_version"),
		Environment:  c.QueryParam("environment"),
	})
	if err != nil {
		return mapServiceError(c, err)
	}

	out := make([]*models.BaselineResponse, len(baselines))
	for i, b := range baselines {
		out[i] = toBaselineResponse(b)
	}
	return c.JSON(http.StatusOK, out)
}

// getBaselineHandler handles GET /v1/drift/baselines/:id.
func (s *Server) getBaselineHandler(c *echo.Context) error {
	found, err := s.baselines.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return mapServiceError(c, err)
	}
	return c.JSON(http.StatusOK, toBaselineResponse(found))
}

// driftFilterParams builds an ent query from the drift-event filter set
// shared by GET /v1/drift and GET /v1/drift/timeline.
func (s *Server) driftFilterParams(c *echo.Context) *ent.BehaviorDriftQuery {
	query := s.dbClient.Client.BehaviorDrift.Query()
	if v := c.QueryParam("agent_id"); v != "" {
		query = query.Where(behaviordrift.AgentIDEQ(v))
	}
	if v := c.QueryParam("agent_version"); v != "" {
		query = query.Where(behaviordrift.AgentVersionEQ(v))
	}
	if v := c.QueryParam("environment"); v != "" {
		query = query.Where(behaviordrift.EnvironmentEQ(v))
	}
	if v := c.QueryParam("drift_type"); v != "" {
		query = query.Where(behaviordrift.DriftTypeEQ(behaviordrift.DriftType(v)))
	}
	if v := c.QueryParam("severity"); v != "" {
		query = query.Where(behaviordrift.SeverityEQ(behaviordrift.Severity(v)))
	}
	if v := c.QueryParam("resolved"); v != "" {
		if resolved, err := strconv.ParseBool(v); err == nil {
			if resolved {
				query = query.Where(behaviordrift.ResolvedAtNotNil())
			} else {
				query = query.Where(behaviordrift.ResolvedAtIsNil())
			}
		}
	}
	if start := parseTimeParam(c, "start_time"); start != nil {
		query = query.Where(behaviordrift.DetectedAtGTE(*start))
	}
	if end := parseTimeParam(c, "end_time"); end != nil {
		query = query.Where(behaviordrift.DetectedAtLT(*end))
	}
	return query
}

// listDriftHandler handles GET /v1/drift.
func (s *Server) listDriftHandler(c *echo.Context) error {
	limit, offset := pagination(c)
	query := s.driftFilterParams(c)

	total, err := query.Clone().Count(c.Request().Context())
	if err != nil {
		return mapServiceError(c, err)
	}

	events, err := query.
		Order(ent.Desc(behaviordrift.FieldDetectedAt)).
		Limit(limit).
		Offset(offset).
		All(c.Request().Context())
	if err != nil {
		return mapServiceError(c, err)
	}

	out := make([]*models.DriftResponse, len(events))
	for i, e := range events {
		out[i] = toDriftResponse(e)
	}
	return c.JSON(http.StatusOK, models.DriftListResponse{
		Events:     out,
		TotalCount: total,
		Limit:      limit,
		Offset:     offset,
	})
}

// getDriftHandler handles GET /v1/drift/:id.
func (s *Server) getDriftHandler(c *echo.Context) error {
	found, err := s.dbClient.Client.BehaviorDrift.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		if ent.IsNotFound(err) {
			return mapServiceError(c, baseline.ErrBaselineNotFound)
		}
		return mapServiceError(c, err)
	}
	return c.JSON(http.StatusOK, toDriftResponse(found))
}

// driftTimelineHandler handles GET /v1/drift/timeline?agent_id=…, a live-tail
// companion to /ws/drift: the same filters as GET /v1/drift, ordered oldest
// to newest so a client can render a chronological feed.
func (s *Server) driftTimelineHandler(c *echo.Context) error {
	limit, offset := pagination(c)
	query := s.driftFilterParams(c)

	events, err := query.
		Order(ent.Asc(behaviordrift.FieldDetectedAt)).
		Limit(limit).
		Offset(offset).
		All(c.Request().Context())
	if err != nil {
		return mapServiceError(c, err)
	}

	out := make([]*models.DriftResponse, len(events))
	for i, e := range events {
		out[i] = toDriftResponse(e)
	}
	return c.JSON(http.StatusOK, out)
}

// driftSummaryHandler handles GET /v1/drift/summary?days=N, supplemented from
// original_source/ to round out the query surface with a rollup view.
func (s *Server) driftSummaryHandler(c *echo.Context) error {
	days := 7
	if v := c.QueryParam("days"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			days = n
		}
	}
	since := time.Now().Add(-time.Duration(days) * 24 * time.Hour)

	events, err := s.dbClient.Client.BehaviorDrift.Query().
		Where(behaviordrift.DetectedAtGTE(since)).
		All(c.Request().Context())
	if err != nil {
		return mapServiceError(c, err)
	}

	severityCounts := make(map[string]int)
	unresolved := 0
	for _, e := range events {
		severityCounts[string(e.Severity)]++
		if e.ResolvedAt == nil {
			unresolved++
		}
	}

	return c.JSON(http.StatusOK, models.DriftSummaryResponse{
		Days:            days,
		TotalEvents:     len(events),
		SeverityCounts:  severityCounts,
		UnresolvedCount: unresolved,
	})
}

// detectDriftHandler handles POST /v1/drift/detect, the in-repo entry point
// the external scheduler calls to run one detect pass against a baseline.
// Each persisted DriftEvent is broadcast over NOTIFY and handed to the alert
// emitter before the response is written.
func (s *Server) detectDriftHandler(c *echo.Context) error {
	var req models.DetectDriftRequest
	if err := c.Bind(&req); err != nil {
		return mapServiceError(c, &eventstore.ValidationError{Field: "body", Message: "malformed JSON", Kind: eventstore.ErrSchemaInvalid})
	}

	activeBaseline, err := s.baselines.Get(c.Request().Context(), req.BaselineID)
	if err != nil {
		return mapServiceError(c, err)
	}

	drifts, err := s.driftEngine.Detect(c.Request().Context(), activeBaseline, req.WindowStart, req.WindowEnd, req.MinSampleSize)
	if err != nil {
		return mapServiceError(c, err)
	}

	for _, d := range drifts {
		if s.publisher != nil {
			if err := s.publisher.PublishDriftDetected(c.Request().Context(), toDriftPayload(d)); err != nil {
				slog.Warn("publish drift notify failed", "drift_id", d.ID, "error", err)
			}
		}
		if s.alertEmitter != nil {
			s.alertEmitter.Emit(c.Request().Context(), d)
		}
	}

	out := make([]*models.DriftResponse, len(drifts))
	for i, d := range drifts {
		out[i] = toDriftResponse(d)
	}
	return c.JSON(http.StatusOK, out)
}

// toDriftPayload converts a persisted drift row into its wire broadcast form.
func toDriftPayload(d *ent.BehaviorDrift) events.DriftDetectedPayload {
	return events.DriftDetectedPayload{
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
		DetectedAt:             d.DetectedAt.Format(time.RFC3339Nano),
		ObservationWindowStart: d.ObservationWindowStart.Format(time.RFC3339Nano),
		ObservationWindowEnd:   d.ObservationWindowEnd.Format(time.RFC3339Nano),
		ObservationSampleSize:  d.ObservationSampleSize,
	}
}

// resolveDriftHandler handles POST /v1/drift/:id/resolve. BehaviorDrift rows
// are append-only except resolved_at, the one mutable field.
func (s *Server) resolveDriftHandler(c *echo.Context) error {
	updated, err := s.dbClient.Client.BehaviorDrift.UpdateOneID(c.Param("id")).
		SetResolvedAt(time.Now()).
		Save(c.Request().Context())
	if err != nil {
		if ent.IsNotFound(err) {
			return mapServiceError(c, baseline.ErrBaselineNotFound)
		}
		return mapServiceError(c, err)
	}
	return c.JSON(http.StatusOK, toDriftResponse(updated))
}
