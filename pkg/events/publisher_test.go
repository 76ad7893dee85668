package events

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTruncateIfNeeded(t *testing.T) {
	t.Run("passes through normal payload", func(t *testing.T) {
		payload, _ := json.Marshal(DriftDetectedPayload{
			Type:    EventTypeDriftDetected,
			DriftID: "drift-abc-123",
			AgentID: "agent-1",
		})

		result, err := truncateIfNeeded(payload)
		require.NoError(t, err)
		assert.Contains(t, result, EventTypeDriftDetected)
		assert.Contains(t, result, "drift-abc-123")
	})

	t.Run("truncates oversized payload", func(t *testing.T) {
		payload, _ := json.Marshal(DriftDetectedPayload{
			Type:     EventTypeDriftDetected,
			DriftID:  "drift-abc-123",
			AgentID:  "agent-1",
			Metric:   strings.Repeat("a", 8000),
			TestMethod: "chi_square",
		})

		result, err := truncateIfNeeded(payload)
		require.NoError(t, err)
		assert.Contains(t, result, "truncated")
		assert.Less(t, len(result), 8000)
	})

	t.Run("truncated payload preserves routing fields", func(t *testing.T) {
		payload, _ := json.Marshal(DriftDetectedPayload{
			Type:    EventTypeDriftDetected,
			DriftID: "drift-abc-123",
			AgentID: "agent-1",
			Metric:  strings.Repeat("x", 8000),
		})

		result, err := truncateIfNeeded(payload)
		require.NoError(t, err)

		var decoded map[string]any
		require.NoError(t, json.Unmarshal([]byte(result), &decoded))
		assert.Equal(t, "drift-abc-123", decoded["drift_id"])
		assert.Equal(t, "agent-1", decoded["agent_id"])
		assert.Equal(t, true, decoded["truncated"])
	})
}
