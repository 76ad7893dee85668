package events

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestDriftPayload_ContainsAgentID is a contract test between the Go
// backend and any WebSocket client: every payload broadcast on a drift
// channel (global or agent-scoped) must carry a non-empty agent_id field,
// since that is what a client uses to route the event to the right
// dashboard panel. If you add a new drift payload type, add it here.
func TestDriftPayload_ContainsAgentID(t *testing.T) {
	payload := DriftDetectedPayload{
		Type:    EventTypeDriftDetected,
		DriftID: "drift-1",
		AgentID: "agent-1",
	}

	data, err := json.Marshal(payload)
	require.NoError(t, err)

	var m map[string]any
	require.NoError(t, json.Unmarshal(data, &m))

	agentID, ok := m["agent_id"].(string)
	require.True(t, ok, "agent_id must be present and a string")
	assert.NotEmpty(t, agentID)
}
