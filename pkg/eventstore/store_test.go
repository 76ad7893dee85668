package eventstore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/laxkc/agentwatch/pkg/models"
	testutil "github.com/laxkc/agentwatch/test/util"
)

func newTestStore(t *testing.T) *Store {
	entClient, _ := testutil.SetupTestDatabase(t)
	return New(entClient)
}

func sampleRun(runID string) models.CreateRunRequest {
	start := time.Now().Add(-time.Hour)
	end := start.Add(time.Minute)
	return models.CreateRunRequest{
		RunID:        runID,
		AgentID:      "triage-agent",
		AgentVersion: "1.4.0",
		Environment:  "production",
		Status:       "success",
		StartedAt:    start,
		EndedAt:      &end,
		Steps: []models.CreateStepRequest{
			{StepID: runID + "-step-0", Seq: 0, StepType: "plan", Name: "plan", LatencyMs: 10, StartedAt: start, EndedAt: start.Add(time.Second)},
			{StepID: runID + "-step-1", Seq: 1, StepType: "tool", Name: "call-tool", LatencyMs: 20, StartedAt: start.Add(time.Second), EndedAt: end},
		},
		Decisions: []models.CreateDecisionRequest{
			{DecisionID: runID + "-decision-0", DecisionType: "tool_selection", Selected: "api", ReasonCode: "cost_optimization"},
		},
		QualitySignals: []models.CreateSignalRequest{
			{SignalID: runID + "-signal-0", SignalType: "tool_success", SignalCode: "success", Value: true},
		},
	}
}

func TestPutRun_CreatesRunAndChildren(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	run, err := store.PutRun(ctx, sampleRun("run-1"))
	require.NoError(t, err)
	assert.Equal(t, "run-1", run.ID)

	steps, err := store.ListSteps(ctx, "run-1")
	require.NoError(t, err)
	require.Len(t, steps, 2)
	assert.Equal(t, 0, steps[0].Seq)
	assert.Equal(t, 1, steps[1].Seq)
}

func TestPutRun_IsIdempotent(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	req := sampleRun("run-2")
	first, err := store.PutRun(ctx, req)
	require.NoError(t, err)

	second, err := store.PutRun(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, first.StartedAt, second.StartedAt)
}

func TestPutRun_RejectsGappedStepSequence(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	req := sampleRun("run-3")
	req.Steps = []models.CreateStepRequest{
		{StepID: "s0", Seq: 0, StepType: "plan", Name: "plan", StartedAt: req.StartedAt, EndedAt: req.StartedAt.Add(time.Second)},
		{StepID: "s2", Seq: 2, StepType: "tool", Name: "call-tool", StartedAt: req.StartedAt, EndedAt: req.StartedAt.Add(time.Second)},
	}

	_, err := store.PutRun(ctx, req)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSchemaInvalid)
}

func TestPutRun_RejectsPrivacyViolation(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	req := sampleRun("run-4")
	req.Steps[0].Metadata = map[string]any{"Prompt": "hi"}

	_, err := store.PutRun(ctx, req)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrPrivacyViolation)

	_, getErr := store.GetRun(ctx, "run-4")
	assert.ErrorIs(t, getErr, ErrNotFound)
}

func TestPutRun_RequiresFailureOnFailureStatus(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	req := sampleRun("run-5")
	req.Status = "failure"

	_, err := store.PutRun(ctx, req)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMissingFailure)
}

func TestDecisionCounts_GroupsBySelectedOption(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	req1 := sampleRun("run-6")
	req2 := sampleRun("run-7")
	req2.Decisions[0].Selected = "cache"

	_, err := store.PutRun(ctx, req1)
	require.NoError(t, err)
	_, err = store.PutRun(ctx, req2)
	require.NoError(t, err)

	counts, err := store.DecisionCounts(ctx, "triage-agent", "1.4.0", "production",
		time.Now().Add(-2*time.Hour), time.Now())
	require.NoError(t, err)
	require.Contains(t, counts, "tool_selection")
	assert.Equal(t, 1, counts["tool_selection"]["api"])
	assert.Equal(t, 1, counts["tool_selection"]["cache"])
}

func TestRunDurations_OnlyIncludesCompletedRuns(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	completed := sampleRun("run-8")
	_, err := store.PutRun(ctx, completed)
	require.NoError(t, err)

	inFlight := sampleRun("run-9")
	inFlight.EndedAt = nil
	inFlight.Status = "partial"
	_, err = store.PutRun(ctx, inFlight)
	require.NoError(t, err)

	durations, err := store.RunDurations(ctx, "triage-agent", "1.4.0", "production",
		time.Now().Add(-2*time.Hour), time.Now())
	require.NoError(t, err)
	assert.Len(t, durations, 1)
	assert.InDelta(t, 60000, durations[0], 1000)
}
