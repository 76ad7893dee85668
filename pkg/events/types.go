// Package events provides real-time delivery of newly detected drift events
// via WebSocket, using PostgreSQL NOTIFY/LISTEN for cross-pod distribution.
//
// A BehaviorDrift row is written once, by the Drift Engine, inside the
// transaction that persists it (see pkg/drift). This package never persists
// anything itself — it fans a notification out after the fact and answers
// "what did I miss" catchup queries directly against the behavior_drift
// table, keyed by detected_at rather than a serial id.
package events

// EventTypeDriftDetected is the sole event type this package publishes: one
// BehaviorDrift row, newly inserted by the Drift Engine.
const EventTypeDriftDetected = "drift.detected"

// GlobalDriftChannel carries every drift event regardless of agent. The
// fleet-wide drift dashboard subscribes here.
const GlobalDriftChannel = "drift"

// AgentChannel returns the channel name for one agent key's drift events.
// Format: "drift:{agent_id}:{agent_version}:{environment}".
func AgentChannel(agentID, agentVersion, environment string) string {
	return "drift:" + agentID + ":" + agentVersion + ":" + environment
}

// ClientMessage is the JSON structure for client → server WebSocket messages.
type ClientMessage struct {
	Action      string `json:"action"`                  // "subscribe", "unsubscribe", "catchup", "ping"
	Channel     string `json:"channel,omitempty"`       // channel name, e.g. "drift" or "drift:agent-1:v2:prod"
	LastEventID *int   `json:"last_event_id,omitempty"` // catchup cursor: unix seconds of last received detected_at
}
