package events

import (
	stdsql "database/sql"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/laxkc/agentwatch/ent"
	"github.com/laxkc/agentwatch/ent/behaviorbaseline"
	"github.com/laxkc/agentwatch/ent/behaviordrift"
	"github.com/laxkc/agentwatch/test/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// streamingTestEnv holds all wired-up components for a drift-streaming
// integration test.
type streamingTestEnv struct {
	entClient  *ent.Client
	db         *stdsql.DB
	publisher  *DriftPublisher
	manager    *ConnectionManager
	listener   *NotifyListener
	server     *httptest.Server
	agentID    string
	baselineID string
	channel    string // drift:<agentID>:<agentVersion>:<environment>
}

// setupStreamingTest wires all real components together against a real
// PostgreSQL database (testcontainers locally, service container in CI).
func setupStreamingTest(t *testing.T) *streamingTestEnv {
	t.Helper()

	entClient, db := util.SetupTestDatabase(t)
	ctx := context.Background()

	agentID := "triage-agent"
	agentVersion := "1.4.0"
	environment := "production"
	channel := AgentChannel(agentID, agentVersion, environment)

	profileID := uuid.New().String()
	_, err := entClient.BehaviorProfile.Create().
		SetID(profileID).
		SetAgentID(agentID).
		SetAgentVersion(agentVersion).
		SetEnvironment(environment).
		SetWindowStart(time.Now().Add(-time.Hour)).
		SetWindowEnd(time.Now()).
		SetSampleSize(100).
		SetDecisionDistributions(map[string]map[string]float64{}).
		SetSignalDistributions(map[string]map[string]float64{}).
		SetLatencyStats(map[string]float64{"mean": 0, "p50": 0, "p95": 0, "p99": 0, "sample_count": 0}).
		Save(ctx)
	require.NoError(t, err)

	baselineID := uuid.New().String()
	_, err = entClient.BehaviorBaseline.Create().
		SetID(baselineID).
		SetProfileID(profileID).
		SetAgentID(agentID).
		SetAgentVersion(agentVersion).
		SetEnvironment(environment).
		SetBaselineType(behaviorbaseline.BaselineType("manual")).
		SetIsActive(true).
		Save(ctx)
	require.NoError(t, err)

	publisher := NewDriftPublisher(db)
	querier := NewEntDriftQuerier(entClient)
	catchupQuerier := NewDriftCatchupAdapter(querier)
	manager := NewConnectionManager(catchupQuerier, 5*time.Second)

	// NotifyListener needs the base connection string (no schema search_path)
	// because NOTIFY/LISTEN is database-level, not schema-level.
	baseConnStr := util.GetBaseConnectionString(t)
	listener := NewNotifyListener(baseConnStr, manager)
	require.NoError(t, listener.Start(ctx))
	manager.SetListener(listener)

	t.Cleanup(func() { listener.Stop(context.Background()) })

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			InsecureSkipVerify: true,
		})
		if err != nil {
			t.Logf("WebSocket accept error: %v", err)
			return
		}
		manager.HandleConnection(r.Context(), conn)
	}))
	t.Cleanup(func() { server.Close() })

	return &streamingTestEnv{
		entClient:  entClient,
		db:         db,
		publisher:  publisher,
		manager:    manager,
		listener:   listener,
		server:     server,
		agentID:    agentID,
		baselineID: baselineID,
		channel:    channel,
	}
}

// insertDrift creates one BehaviorDrift row directly via ent, bypassing the
// Drift Engine, so tests can control detected_at precisely.
func (env *streamingTestEnv) insertDrift(t *testing.T, driftID string, detectedAt time.Time) *ent.BehaviorDrift {
	t.Helper()
	row, err := env.entClient.BehaviorDrift.Create().
		SetID(driftID).
		SetBaselineID(env.baselineID).
		SetAgentID(env.agentID).
		SetAgentVersion("1.4.0").
		SetEnvironment("production").
		SetDriftType(behaviordrift.DriftType("decision")).
		SetMetric("tool_selection.escalate").
		SetBaselineValue(0.65).
		SetObservedValue(0.40).
		SetDelta(-0.25).
		SetDeltaPercent(-38.46).
		SetSignificance(0.01).
		SetTestMethod("chi_square").
		SetSeverity(behaviordrift.Severity("high")).
		SetDetectedAt(detectedAt).
		SetObservationWindowStart(detectedAt.Add(-time.Hour)).
		SetObservationWindowEnd(detectedAt).
		SetObservationSampleSize(100).
		Save(context.Background())
	require.NoError(t, err)
	return row
}

func (env *streamingTestEnv) payloadFor(row *ent.BehaviorDrift) DriftDetectedPayload {
	return DriftDetectedPayload{
		DriftID:                row.ID,
		BaselineID:              row.BaselineID,
		AgentID:                 row.AgentID,
		AgentVersion:            row.AgentVersion,
		Environment:             row.Environment,
		DriftType:               string(row.DriftType),
		Metric:                  row.Metric,
		BaselineValue:           row.BaselineValue,
		ObservedValue:           row.ObservedValue,
		Delta:                   row.Delta,
		DeltaPercent:            row.DeltaPercent,
		Significance:            row.Significance,
		TestMethod:              row.TestMethod,
		Severity:                string(row.Severity),
		DetectedAt:              row.DetectedAt.Format(time.RFC3339Nano),
		ObservationWindowStart:  row.ObservationWindowStart.Format(time.RFC3339Nano),
		ObservationWindowEnd:    row.ObservationWindowEnd.Format(time.RFC3339Nano),
		ObservationSampleSize:   row.ObservationSampleSize,
	}
}

// connectWS opens a WebSocket to the test server. The connection is closed
// automatically on test cleanup.
func (env *streamingTestEnv) connectWS(t *testing.T) *websocket.Conn {
	t.Helper()
	url := "ws" + env.server.URL[len("http"):]
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close(websocket.StatusNormalClosure, "") })
	return conn
}

func readJSONTimeout(t *testing.T, conn *websocket.Conn, timeout time.Duration) map[string]interface{} {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	_, data, err := conn.Read(ctx)
	require.NoError(t, err)

	var msg map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &msg))
	return msg
}

func writeJSON(t *testing.T, conn *websocket.Conn, v interface{}) {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, conn.Write(ctx, websocket.MessageText, data))
}

// subscribeAndWait connects a WebSocket, reads connection.established,
// subscribes to the env's channel, reads subscription.confirmed, and waits
// for the LISTEN to propagate.
func (env *streamingTestEnv) subscribeAndWait(t *testing.T) *websocket.Conn {
	t.Helper()
	conn := env.connectWS(t)

	msg := readJSONTimeout(t, conn, 5*time.Second)
	require.Equal(t, "connection.established", msg["type"])

	writeJSON(t, conn, ClientMessage{Action: "subscribe", Channel: env.channel})

	msg = readJSONTimeout(t, conn, 5*time.Second)
	require.Equal(t, "subscription.confirmed", msg["type"])

	require.Eventually(t, func() bool {
		return env.listener.isListening(env.channel)
	}, 2*time.Second, 10*time.Millisecond, "LISTEN did not propagate for channel %s", env.channel)

	return conn
}

// --- Tests ---

func TestIntegration_PublishDriftDetected_DeliversOverWebSocket(t *testing.T) {
	env := setupStreamingTest(t)
	ctx := context.Background()

	conn := env.subscribeAndWait(t)

	row := env.insertDrift(t, uuid.New().String(), time.Now())
	require.NoError(t, env.publisher.PublishDriftDetected(ctx, env.payloadFor(row)))

	msg := readJSONTimeout(t, conn, 5*time.Second)
	assert.Equal(t, EventTypeDriftDetected, msg["type"])
	assert.Equal(t, row.ID, msg["drift_id"])
	assert.Equal(t, env.agentID, msg["agent_id"])
	assert.Equal(t, "high", msg["severity"])
}

func TestIntegration_PublishDriftDetected_DeliversOnGlobalChannel(t *testing.T) {
	env := setupStreamingTest(t)
	ctx := context.Background()

	conn := env.connectWS(t)
	msg := readJSONTimeout(t, conn, 5*time.Second)
	require.Equal(t, "connection.established", msg["type"])

	writeJSON(t, conn, ClientMessage{Action: "subscribe", Channel: GlobalDriftChannel})
	msg = readJSONTimeout(t, conn, 5*time.Second)
	require.Equal(t, "subscription.confirmed", msg["type"])

	require.Eventually(t, func() bool {
		return env.listener.isListening(GlobalDriftChannel)
	}, 2*time.Second, 10*time.Millisecond)

	row := env.insertDrift(t, uuid.New().String(), time.Now())
	require.NoError(t, env.publisher.PublishDriftDetected(ctx, env.payloadFor(row)))

	msg = readJSONTimeout(t, conn, 5*time.Second)
	assert.Equal(t, EventTypeDriftDetected, msg["type"])
	assert.Equal(t, row.ID, msg["drift_id"])
}

func TestIntegration_CatchupFromRealDB(t *testing.T) {
	env := setupStreamingTest(t)

	base := time.Now().Add(-time.Hour)
	var rows []*ent.BehaviorDrift
	for i := 0; i < 3; i++ {
		row := env.insertDrift(t, uuid.New().String(), base.Add(time.Duration(i)*time.Minute))
		rows = append(rows, row)
	}

	conn := env.connectWS(t)
	msg := readJSONTimeout(t, conn, 5*time.Second)
	require.Equal(t, "connection.established", msg["type"])

	// Subscribe — auto-catchup delivers all 3 prior events, newest first.
	writeJSON(t, conn, ClientMessage{Action: "subscribe", Channel: env.channel})
	msg = readJSONTimeout(t, conn, 5*time.Second)
	require.Equal(t, "subscription.confirmed", msg["type"])

	seen := make(map[string]bool)
	for i := 0; i < 3; i++ {
		msg = readJSONTimeout(t, conn, 5*time.Second)
		assert.Equal(t, EventTypeDriftDetected, msg["type"])
		seen[msg["drift_id"].(string)] = true
	}
	for _, row := range rows {
		assert.True(t, seen[row.ID], "catchup should include drift %s", row.ID)
	}

	// Explicit catchup using the middle row's detected_at as the cursor —
	// should return only the event after it.
	cursor := int(rows[1].DetectedAt.Unix())
	writeJSON(t, conn, ClientMessage{Action: "catchup", Channel: env.channel, LastEventID: &cursor})

	msg = readJSONTimeout(t, conn, 5*time.Second)
	assert.Equal(t, rows[2].ID, msg["drift_id"])

	readCtx, readCancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer readCancel()
	_, _, err := conn.Read(readCtx)
	assert.Error(t, err, "should not receive more messages after catchup")
}

func TestIntegration_ResubscribeAfterUnsubscribe_KeepsListen(t *testing.T) {
	// Regression test for the race condition where a rapid unsubscribe/resubscribe
	// cycle (as caused by React StrictMode double-render) would drop the PG LISTEN.
	//
	// The race was:
	//   1. subscribe -> LISTEN active
	//   2. unsubscribe -> async goroutine: UNLISTEN (deferred)
	//   3. resubscribe -> l.Subscribe saw "already listening" -> returned early
	//   4. goroutine fired UNLISTEN -> PG dropped the LISTEN
	//   5. all subsequent NOTIFY events were silently lost
	//
	// The fix has two parts:
	//   - l.Subscribe always sends LISTEN (no early return; PG handles duplicates)
	//   - the UNLISTEN goroutine re-checks m.channels and skips if resubscribed
	env := setupStreamingTest(t)
	ctx := context.Background()

	conn := env.connectWS(t)
	msg := readJSONTimeout(t, conn, 5*time.Second)
	require.Equal(t, "connection.established", msg["type"])

	writeJSON(t, conn, ClientMessage{Action: "subscribe", Channel: env.channel})
	msg = readJSONTimeout(t, conn, 5*time.Second)
	require.Equal(t, "subscription.confirmed", msg["type"])

	require.Eventually(t, func() bool {
		return env.listener.isListening(env.channel)
	}, 2*time.Second, 10*time.Millisecond, "initial LISTEN should propagate")

	writeJSON(t, conn, ClientMessage{Action: "unsubscribe", Channel: env.channel})
	writeJSON(t, conn, ClientMessage{Action: "subscribe", Channel: env.channel})

	msg = readJSONTimeout(t, conn, 5*time.Second)
	require.Equal(t, "subscription.confirmed", msg["type"])

	time.Sleep(200 * time.Millisecond) // let the async UNLISTEN goroutine run
	require.True(t, env.listener.isListening(env.channel),
		"LISTEN must survive a rapid unsubscribe/resubscribe cycle")

	driftID := uuid.New().String()
	row := env.insertDrift(t, driftID, time.Now())
	require.NoError(t, env.publisher.PublishDriftDetected(ctx, env.payloadFor(row)))

	// Drain any catchup events from the resubscribe before checking for the live event
	for {
		msg = readJSONTimeout(t, conn, 5*time.Second)
		if msg["drift_id"] == driftID {
			break
		}
	}

	assert.Equal(t, EventTypeDriftDetected, msg["type"])
	assert.Equal(t, env.agentID, msg["agent_id"])
}

func TestIntegration_ListenerGenerationCounter_StaleUnlistenSkipped(t *testing.T) {
	// Tests the generation counter inside NotifyListener directly, bypassing
	// the ConnectionManager. This exercises the exact scenario from code review:
	//
	//   1. Subscribe -> LISTEN, gen=1
	//   2. Concurrent Unsubscribe -> captures gen=1, enqueues UNLISTEN(gen=1)
	//   3. Subscribe again -> gen=2, enqueues LISTEN
	//   4. cmdCh processes: could be LISTEN then UNLISTEN(gen=1)
	//   5. processPendingCmds detects gen mismatch -> skips stale UNLISTEN
	//   6. PG stays listened, l.channels stays true
	env := setupStreamingTest(t)
	ctx := context.Background()
	channel := env.channel

	require.NoError(t, env.listener.Subscribe(ctx, channel))
	require.True(t, env.listener.isListening(channel))

	unsubDone := make(chan struct{})
	go func() {
		defer close(unsubDone)
		_ = env.listener.Unsubscribe(context.Background(), channel)
	}()

	require.NoError(t, env.listener.Subscribe(ctx, channel))
	<-unsubDone

	require.True(t, env.listener.isListening(channel),
		"l.channels must stay true after stale UNLISTEN is skipped")

	conn := env.subscribeAndWait(t)

	driftID := uuid.New().String()
	row := env.insertDrift(t, driftID, time.Now())
	require.NoError(t, env.publisher.PublishDriftDetected(ctx, env.payloadFor(row)))

	for {
		msg := readJSONTimeout(t, conn, 5*time.Second)
		if msg["drift_id"] == driftID {
			assert.Equal(t, "high", msg["severity"])
			break
		}
	}
}
