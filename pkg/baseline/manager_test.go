package baseline

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/laxkc/agentwatch/ent"
	testutil "github.com/laxkc/agentwatch/test/util"
)

func newTestManager(t *testing.T) (*Manager, *ent.Client) {
	entClient, _ := testutil.SetupTestDatabase(t)
	return NewManager(entClient), entClient
}

func seedProfile(t *testing.T, client *ent.Client, id string) {
	_, err := client.BehaviorProfile.Create().
		SetID(id).
		SetAgentID("triage-agent").
		SetAgentVersion("1.4.0").
		SetEnvironment("production").
		SetWindowStart(time.Now().Add(-time.Hour)).
		SetWindowEnd(time.Now()).
		SetSampleSize(100).
		SetDecisionDistributions(map[string]map[string]float64{}).
		SetSignalDistributions(map[string]map[string]float64{}).
		SetLatencyStats(map[string]float64{"mean": 0, "p50": 0, "p95": 0, "p99": 0, "sample_count": 0}).
		Save(context.Background())
	require.NoError(t, err)
}

func TestCreate_RejectsInvalidBaselineType(t *testing.T) {
	manager, client := newTestManager(t)
	seedProfile(t, client, "profile-1")

	_, err := manager.Create(context.Background(), CreateParams{
		ID:           "baseline-1",
		ProfileID:    "profile-1",
		AgentID:      "triage-agent",
		AgentVersion: "1.4.0",
		Environment:  "production",
		BaselineType: "nonsense",
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidBaselineType)
}

func TestCreate_RejectsDescriptionWithForbiddenKeyword(t *testing.T) {
	manager, client := newTestManager(t)
	seedProfile(t, client, "profile-2")

	desc := "captures agent reasoning over Q3"
	_, err := manager.Create(context.Background(), CreateParams{
		ID:           "baseline-2",
		ProfileID:    "profile-2",
		AgentID:      "triage-agent",
		AgentVersion: "1.4.0",
		Environment:  "production",
		BaselineType: "manual",
		Description:  &desc,
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDescriptionRejected)
}

func TestActivationSwap(t *testing.T) {
	manager, client := newTestManager(t)
	ctx := context.Background()
	seedProfile(t, client, "profile-3")
	seedProfile(t, client, "profile-4")

	b1, err := manager.Create(ctx, CreateParams{
		ID: "baseline-3", ProfileID: "profile-3",
		AgentID: "triage-agent", AgentVersion: "1.4.0", Environment: "production",
		BaselineType: "manual",
	})
	require.NoError(t, err)
	b2, err := manager.Create(ctx, CreateParams{
		ID: "baseline-4", ProfileID: "profile-4",
		AgentID: "triage-agent", AgentVersion: "1.4.0", Environment: "production",
		BaselineType: "manual",
	})
	require.NoError(t, err)

	_, err = manager.Activate(ctx, b1.ID)
	require.NoError(t, err)
	_, err = manager.Activate(ctx, b2.ID)
	require.NoError(t, err)

	active, err := manager.GetActive(ctx, "triage-agent", "1.4.0", "production")
	require.NoError(t, err)
	require.NotNil(t, active)
	assert.Equal(t, b2.ID, active.ID)

	reloaded1, err := client.BehaviorBaseline.Get(ctx, b1.ID)
	require.NoError(t, err)
	assert.False(t, reloaded1.IsActive)
}

func TestActivate_IsIdempotent(t *testing.T) {
	manager, client := newTestManager(t)
	ctx := context.Background()
	seedProfile(t, client, "profile-5")

	b, err := manager.Create(ctx, CreateParams{
		ID: "baseline-5", ProfileID: "profile-5",
		AgentID: "triage-agent", AgentVersion: "1.4.0", Environment: "production",
		BaselineType: "manual",
	})
	require.NoError(t, err)

	_, err = manager.Activate(ctx, b.ID)
	require.NoError(t, err)
	_, err = manager.Activate(ctx, b.ID)
	require.NoError(t, err)

	active, err := manager.GetActive(ctx, "triage-agent", "1.4.0", "production")
	require.NoError(t, err)
	require.NotNil(t, active)
	assert.Equal(t, b.ID, active.ID)
}

func TestDeactivate_NoopWhenAlreadyInactive(t *testing.T) {
	manager, client := newTestManager(t)
	ctx := context.Background()
	seedProfile(t, client, "profile-6")

	b, err := manager.Create(ctx, CreateParams{
		ID: "baseline-6", ProfileID: "profile-6",
		AgentID: "triage-agent", AgentVersion: "1.4.0", Environment: "production",
		BaselineType: "manual",
	})
	require.NoError(t, err)

	_, err = manager.Deactivate(ctx, b.ID)
	require.NoError(t, err)
	reloaded, err := client.BehaviorBaseline.Get(ctx, b.ID)
	require.NoError(t, err)
	assert.False(t, reloaded.IsActive)
}
