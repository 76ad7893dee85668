package events

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
)

// DriftPublisher broadcasts newly persisted drift events via PostgreSQL
// NOTIFY. It never writes to behavior_drift itself — the Drift Engine owns
// that write, inside its own transaction — so every publish here is
// notify-only and best-effort: a dropped NOTIFY only delays live-tail
// delivery, it never loses the underlying row (catchup reads the table
// directly).
type DriftPublisher struct {
	db *sql.DB
}

// NewDriftPublisher creates a new DriftPublisher. db should be the
// *sql.DB from database.Client.DB().
func NewDriftPublisher(db *sql.DB) *DriftPublisher {
	return &DriftPublisher{db: db}
}

// PublishDriftDetected broadcasts one drift event to its agent-scoped
// channel and to the global drift channel. Returns the first error
// encountered, if any, after attempting both broadcasts.
func (p *DriftPublisher) PublishDriftDetected(ctx context.Context, payload DriftDetectedPayload) error {
	payload.Type = EventTypeDriftDetected
	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal DriftDetectedPayload: %w", err)
	}

	var firstErr error
	agentChannel := AgentChannel(payload.AgentID, payload.AgentVersion, payload.Environment)
	if err := p.notify(ctx, agentChannel, payloadJSON); err != nil {
		firstErr = err
	}
	if err := p.notify(ctx, GlobalDriftChannel, payloadJSON); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}

// notify broadcasts a pre-marshaled payload via pg_notify, truncating it to
// a routing-only envelope if it would exceed PostgreSQL's 8000-byte NOTIFY
// payload limit.
func (p *DriftPublisher) notify(ctx context.Context, channel string, payloadJSON []byte) error {
	body, err := truncateIfNeeded(payloadJSON)
	if err != nil {
		return err
	}
	if _, err := p.db.ExecContext(ctx, "SELECT pg_notify($1, $2)", channel, body); err != nil {
		return fmt.Errorf("pg_notify on %s: %w", channel, err)
	}
	return nil
}

// truncateIfNeeded returns payloadJSON unchanged if it fits PostgreSQL's
// NOTIFY limit, otherwise a minimal envelope carrying only routing fields so
// the client can fetch the full row via the catchup/query surface.
func truncateIfNeeded(payloadJSON []byte) (string, error) {
	if len(payloadJSON) <= 7900 {
		return string(payloadJSON), nil
	}

	var routing struct {
		Type    string `json:"type"`
		DriftID string `json:"drift_id"`
		AgentID string `json:"agent_id"`
	}
	if err := json.Unmarshal(payloadJSON, &routing); err != nil {
		return "", fmt.Errorf("extract routing fields for truncation: %w", err)
	}

	truncated, err := json.Marshal(map[string]any{
		"type":      routing.Type,
		"drift_id":  routing.DriftID,
		"agent_id":  routing.AgentID,
		"truncated": true,
	})
	if err != nil {
		return "", fmt.Errorf("marshal truncated payload: %w", err)
	}
	return string(truncated), nil
}
