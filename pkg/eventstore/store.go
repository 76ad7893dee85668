// Package eventstore persists agent runs and their children, enforcing the
// structural, referential, and privacy invariants of the data model at the
// write boundary. Nothing downstream re-validates what this package already
// guaranteed.
package eventstore

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/laxkc/agentwatch/ent"
	"github.com/laxkc/agentwatch/ent/agentdecision"
	"github.com/laxkc/agentwatch/ent/agentfailure"
	"github.com/laxkc/agentwatch/ent/agentqualitysignal"
	"github.com/laxkc/agentwatch/ent/agentrun"
	"github.com/laxkc/agentwatch/ent/agentstep"
	"github.com/laxkc/agentwatch/pkg/catalog"
	"github.com/laxkc/agentwatch/pkg/models"
	"github.com/laxkc/agentwatch/pkg/privacy"
)

// Store is the durable, queryable home for the data model.
type Store struct {
	client *ent.Client
}

// New wraps an ent client as an event Store.
func New(client *ent.Client) *Store {
	if client == nil {
		panic("eventstore.New: client must not be nil")
	}
	return &Store{client: client}
}

// PutRun stores a run and its children transactionally. It is idempotent by
// run_id: a duplicate call returns the previously stored run with no error.
func (s *Store) PutRun(ctx context.Context, req models.CreateRunRequest) (*ent.AgentRun, error) {
	if existing, err := s.client.AgentRun.Get(ctx, req.RunID); err == nil {
		return existing, nil
	} else if !ent.IsNotFound(err) {
		return nil, fmt.Errorf("check existing run: %w", err)
	}

	if err := validateRun(req); err != nil {
		return nil, err
	}

	tx, err := s.client.Tx(ctx)
	if err != nil {
		return nil, fmt.Errorf("start transaction: %w", err)
	}
	defer tx.Rollback()

	runBuilder := tx.AgentRun.Create().
		SetID(req.RunID).
		SetAgentID(req.AgentID).
		SetAgentVersion(req.AgentVersion).
		SetEnvironment(req.Environment).
		SetStatus(agentrun.Status(req.Status)).
		SetStartedAt(req.StartedAt)
	if req.EndedAt != nil {
		runBuilder.SetEndedAt(*req.EndedAt)
	}

	run, err := runBuilder.Save(ctx)
	if err != nil {
		if ent.IsConstraintError(err) {
			return nil, ErrIntegrityConflict
		}
		return nil, fmt.Errorf("create run: %w", err)
	}

	for _, step := range req.Steps {
		stepBuilder := tx.AgentStep.Create().
			SetID(step.StepID).
			SetRunID(run.ID).
			SetSeq(step.Seq).
			SetStepType(step.StepType).
			SetName(step.Name).
			SetLatencyMs(step.LatencyMs).
			SetStartedAt(step.StartedAt).
			SetEndedAt(step.EndedAt)
		if step.Metadata != nil {
			stepBuilder.SetMetadata(step.Metadata)
		}
		if _, err := stepBuilder.Save(ctx); err != nil {
			if ent.IsConstraintError(err) {
				return nil, ErrIntegrityConflict
			}
			return nil, fmt.Errorf("create step %s: %w", step.StepID, err)
		}
	}

	for _, failure := range req.Failures {
		failureBuilder := tx.AgentFailure.Create().
			SetID(failure.FailureID).
			SetRunID(run.ID).
			SetFailureType(failure.FailureType).
			SetFailureCode(failure.FailureCode).
			SetMessage(failure.Message)
		if failure.StepID != nil {
			failureBuilder.SetStepID(*failure.StepID)
		}
		if _, err := failureBuilder.Save(ctx); err != nil {
			if ent.IsConstraintError(err) {
				return nil, ErrIntegrityConflict
			}
			return nil, fmt.Errorf("create failure %s: %w", failure.FailureID, err)
		}
	}

	for _, decision := range req.Decisions {
		decisionBuilder := tx.AgentDecision.Create().
			SetID(decision.DecisionID).
			SetRunID(run.ID).
			SetDecisionType(decision.DecisionType).
			SetSelected(decision.Selected).
			SetReasonCode(decision.ReasonCode)
		if decision.StepID != nil {
			decisionBuilder.SetStepID(*decision.StepID)
		}
		if decision.Confidence != nil {
			decisionBuilder.SetConfidence(*decision.Confidence)
		}
		if decision.Metadata != nil {
			decisionBuilder.SetMetadata(decision.Metadata)
		}
		if _, err := decisionBuilder.Save(ctx); err != nil {
			if ent.IsConstraintError(err) {
				return nil, ErrIntegrityConflict
			}
			return nil, fmt.Errorf("create decision %s: %w", decision.DecisionID, err)
		}
	}

	for _, signal := range req.QualitySignals {
		signalBuilder := tx.AgentQualitySignal.Create().
			SetID(signal.SignalID).
			SetRunID(run.ID).
			SetSignalType(signal.SignalType).
			SetSignalCode(signal.SignalCode).
			SetValue(signal.Value)
		if signal.StepID != nil {
			signalBuilder.SetStepID(*signal.StepID)
		}
		if signal.Weight != nil {
			signalBuilder.SetWeight(*signal.Weight)
		}
		if signal.Metadata != nil {
			signalBuilder.SetMetadata(signal.Metadata)
		}
		if _, err := signalBuilder.Save(ctx); err != nil {
			if ent.IsConstraintError(err) {
				return nil, ErrIntegrityConflict
			}
			return nil, fmt.Errorf("create quality signal %s: %w", signal.SignalID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit run %s: %w", req.RunID, err)
	}

	return run, nil
}

// validateRun enforces the structural and privacy invariants a run must
// satisfy before any row is written.
func validateRun(req models.CreateRunRequest) error {
	if !catalog.RunStatus(req.Status).IsValid() {
		return newValidationError(ErrSchemaInvalid, "status", "not a recognized run status")
	}
	if req.EndedAt != nil && req.EndedAt.Before(req.StartedAt) {
		return newValidationError(ErrSchemaInvalid, "ended_at", "must not precede started_at")
	}
	if req.Status == string(catalog.RunStatusFailure) && len(req.Failures) == 0 {
		return newValidationError(ErrMissingFailure, "failures", "status=failure requires at least one failure")
	}

	if err := validateStepSequence(req.Steps); err != nil {
		return err
	}

	for _, step := range req.Steps {
		if !catalog.StepType(step.StepType).IsValid() {
			return newValidationError(ErrSchemaInvalid, "steps.step_type", "not a recognized step type")
		}
		if step.EndedAt.Before(step.StartedAt) {
			return newValidationError(ErrSchemaInvalid, "steps.ended_at", "must not precede started_at")
		}
		if err := privacy.ValidateMetadata(step.Metadata); err != nil {
			return newValidationError(ErrPrivacyViolation, "steps.metadata", err.Error())
		}
	}

	for _, failure := range req.Failures {
		if !catalog.FailureType(failure.FailureType).IsValid() {
			return newValidationError(ErrSchemaInvalid, "failures.failure_type", "not a recognized failure type")
		}
		if failure.FailureCode == "" {
			return newValidationError(ErrSchemaInvalid, "failures.failure_code", "required")
		}
		if err := privacy.ValidateFailureMessage(failure.Message); err != nil {
			return newValidationError(ErrPrivacyViolation, "failures.message", err.Error())
		}
	}

	for _, decision := range req.Decisions {
		if !catalog.IsValidDecisionType(decision.DecisionType) {
			return newValidationError(ErrSchemaInvalid, "decisions.decision_type", "not a recognized decision type")
		}
		if !catalog.IsValidReasonCode(decision.DecisionType, decision.ReasonCode) {
			return newValidationError(ErrSchemaInvalid, "decisions.reason_code", "not a recognized reason code for this decision type")
		}
		if decision.Confidence != nil && (*decision.Confidence < 0 || *decision.Confidence > 1) {
			return newValidationError(ErrSchemaInvalid, "decisions.confidence", "must be within [0,1]")
		}
		if err := privacy.ValidateMetadata(decision.Metadata); err != nil {
			return newValidationError(ErrPrivacyViolation, "decisions.metadata", err.Error())
		}
	}

	for _, signal := range req.QualitySignals {
		if !catalog.IsValidSignalType(signal.SignalType) {
			return newValidationError(ErrSchemaInvalid, "quality_signals.signal_type", "not a recognized signal type")
		}
		if !catalog.IsValidSignalCode(signal.SignalType, signal.SignalCode) {
			return newValidationError(ErrSchemaInvalid, "quality_signals.signal_code", "not a recognized signal code for this signal type")
		}
		if signal.Weight != nil && (*signal.Weight < 0 || *signal.Weight > 1) {
			return newValidationError(ErrSchemaInvalid, "quality_signals.weight", "must be within [0,1]")
		}
		if err := privacy.ValidateMetadata(signal.Metadata); err != nil {
			return newValidationError(ErrPrivacyViolation, "quality_signals.metadata", err.Error())
		}
	}

	return nil
}

// validateStepSequence requires seq values to form 0..N-1 without gaps.
// An empty step list is accepted.
func validateStepSequence(steps []models.CreateStepRequest) error {
	if len(steps) == 0 {
		return nil
	}
	seqs := make([]int, len(steps))
	for i, step := range steps {
		seqs[i] = step.Seq
	}
	sort.Ints(seqs)
	for i, seq := range seqs {
		if seq != i {
			return newValidationError(ErrSchemaInvalid, "steps.seq", "step sequence must be 0..N-1 without gaps")
		}
	}
	return nil
}

// GetRun fetches a run by ID.
func (s *Store) GetRun(ctx context.Context, runID string) (*ent.AgentRun, error) {
	run, err := s.client.AgentRun.Get(ctx, runID)
	if err != nil {
		if ent.IsNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get run %s: %w", runID, err)
	}
	return run, nil
}

// ListSteps returns a run's steps ordered by sequence.
func (s *Store) ListSteps(ctx context.Context, runID string) ([]*ent.AgentStep, error) {
	return s.client.AgentStep.Query().
		Where(agentstep.RunIDEQ(runID)).
		Order(ent.Asc(agentstep.FieldSeq)).
		All(ctx)
}

// ListFailures returns a run's failures.
func (s *Store) ListFailures(ctx context.Context, runID string) ([]*ent.AgentFailure, error) {
	return s.client.AgentFailure.Query().
		Where(agentfailure.RunIDEQ(runID)).
		All(ctx)
}

// ListDecisions returns a run's decisions.
func (s *Store) ListDecisions(ctx context.Context, runID string) ([]*ent.AgentDecision, error) {
	return s.client.AgentDecision.Query().
		Where(agentdecision.RunIDEQ(runID)).
		All(ctx)
}

// ListSignals returns a run's quality signals.
func (s *Store) ListSignals(ctx context.Context, runID string) ([]*ent.AgentQualitySignal, error) {
	return s.client.AgentQualitySignal.Query().
		Where(agentqualitysignal.RunIDEQ(runID)).
		All(ctx)
}

// RunFilters narrows ListRuns.
type RunFilters struct {
	AgentID      string
	AgentVersion string
	Environment  string
	Status       string
	StartTime    *time.Time
	EndTime      *time.Time
	Limit        int
	Offset       int
}

// ListRuns returns runs matching the given filters, most recent first.
func (s *Store) ListRuns(ctx context.Context, f RunFilters) ([]*ent.AgentRun, int, error) {
	query := s.client.AgentRun.Query()
	if f.AgentID != "" {
		query = query.Where(agentrun.AgentIDEQ(f.AgentID))
	}
	if f.AgentVersion != "" {
		query = query.Where(agentrun.AgentVersionEQ(f.AgentVersion))
	}
	if f.Environment != "" {
		query = query.Where(agentrun.EnvironmentEQ(f.Environment))
	}
	if f.Status != "" {
		query = query.Where(agentrun.StatusEQ(agentrun.Status(f.Status)))
	}
	if f.StartTime != nil {
		query = query.Where(agentrun.StartedAtGTE(*f.StartTime))
	}
	if f.EndTime != nil {
		query = query.Where(agentrun.StartedAtLT(*f.EndTime))
	}

	total, err := query.Clone().Count(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("count runs: %w", err)
	}

	limit := f.Limit
	if limit <= 0 || limit > 1000 {
		limit = 100
	}
	runs, err := query.
		Order(ent.Desc(agentrun.FieldStartedAt)).
		Limit(limit).
		Offset(f.Offset).
		All(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("list runs: %w", err)
	}
	return runs, total, nil
}

// DecisionCounts returns, for every observed decision_type, the count of
// each selected option among runs started within [windowStart, windowEnd)
// for the given (agent_id, agent_version, environment).
func (s *Store) DecisionCounts(ctx context.Context, agentID, agentVersion, environment string, windowStart, windowEnd time.Time) (map[string]map[string]int, error) {
	decisions, err := s.client.AgentDecision.Query().
		Where(
			agentdecision.HasRunWith(
				agentrun.AgentIDEQ(agentID),
				agentrun.AgentVersionEQ(agentVersion),
				agentrun.EnvironmentEQ(environment),
				agentrun.StartedAtGTE(windowStart),
				agentrun.StartedAtLT(windowEnd),
			),
		).
		All(ctx)
	if err != nil {
		return nil, fmt.Errorf("query decisions: %w", err)
	}

	counts := make(map[string]map[string]int)
	for _, d := range decisions {
		byOption, ok := counts[d.DecisionType]
		if !ok {
			byOption = make(map[string]int)
			counts[d.DecisionType] = byOption
		}
		byOption[d.Selected]++
	}
	return counts, nil
}

// SignalCounts returns, for every observed signal_type, the count of each
// signal_code among runs started within [windowStart, windowEnd) for the
// given (agent_id, agent_version, environment).
func (s *Store) SignalCounts(ctx context.Context, agentID, agentVersion, environment string, windowStart, windowEnd time.Time) (map[string]map[string]int, error) {
	signals, err := s.client.AgentQualitySignal.Query().
		Where(
			agentqualitysignal.HasRunWith(
				agentrun.AgentIDEQ(agentID),
				agentrun.AgentVersionEQ(agentVersion),
				agentrun.EnvironmentEQ(environment),
				agentrun.StartedAtGTE(windowStart),
				agentrun.StartedAtLT(windowEnd),
			),
		).
		All(ctx)
	if err != nil {
		return nil, fmt.Errorf("query quality signals: %w", err)
	}

	counts := make(map[string]map[string]int)
	for _, sig := range signals {
		byCode, ok := counts[sig.SignalType]
		if !ok {
			byCode = make(map[string]int)
			counts[sig.SignalType] = byCode
		}
		byCode[sig.SignalCode]++
	}
	return counts, nil
}

// RunDurations returns, in milliseconds, the duration of every run that
// started within [windowStart, windowEnd) and has both timestamps set.
// Order is unspecified; callers sort as needed.
func (s *Store) RunDurations(ctx context.Context, agentID, agentVersion, environment string, windowStart, windowEnd time.Time) ([]float64, error) {
	runs, err := s.client.AgentRun.Query().
		Where(
			agentrun.AgentIDEQ(agentID),
			agentrun.AgentVersionEQ(agentVersion),
			agentrun.EnvironmentEQ(environment),
			agentrun.StartedAtGTE(windowStart),
			agentrun.StartedAtLT(windowEnd),
			agentrun.EndedAtNotNil(),
		).
		All(ctx)
	if err != nil {
		return nil, fmt.Errorf("query run durations: %w", err)
	}

	durations := make([]float64, 0, len(runs))
	for _, r := range runs {
		if r.EndedAt == nil {
			continue
		}
		durations = append(durations, float64(r.EndedAt.Sub(r.StartedAt).Milliseconds()))
	}
	return durations, nil
}

// CountRuns counts runs started within [windowStart, windowEnd) for the
// given (agent_id, agent_version, environment), regardless of completion.
func (s *Store) CountRuns(ctx context.Context, agentID, agentVersion, environment string, windowStart, windowEnd time.Time) (int, error) {
	return s.client.AgentRun.Query().
		Where(
			agentrun.AgentIDEQ(agentID),
			agentrun.AgentVersionEQ(agentVersion),
			agentrun.EnvironmentEQ(environment),
			agentrun.StartedAtGTE(windowStart),
			agentrun.StartedAtLT(windowEnd),
		).
		Count(ctx)
}

// Stats summarizes run volume and outcome mix, optionally narrowed to
// [windowStart, windowEnd). A nil bound leaves that side of the window open.
func (s *Store) Stats(ctx context.Context, windowStart, windowEnd *time.Time) (total int, statusCounts, agentCounts map[string]int, err error) {
	query := s.client.AgentRun.Query()
	if windowStart != nil {
		query = query.Where(agentrun.StartedAtGTE(*windowStart))
	}
	if windowEnd != nil {
		query = query.Where(agentrun.StartedAtLT(*windowEnd))
	}

	runs, err := query.All(ctx)
	if err != nil {
		return 0, nil, nil, fmt.Errorf("query runs for stats: %w", err)
	}

	statusCounts = make(map[string]int)
	agentCounts = make(map[string]int)
	for _, r := range runs {
		statusCounts[string(r.Status)]++
		agentCounts[r.AgentID]++
	}
	return len(runs), statusCounts, agentCounts, nil
}
